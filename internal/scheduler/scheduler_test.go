package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_CancelReturnsPromptly(t *testing.T) {
	var calls atomic.Int32
	s := NewScheduler(func(context.Context) error {
		calls.Add(1)
		return nil
	}, time.Hour, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error on cancel, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not return within 2s after cancel")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("run calls = %d, want 1 immediate run", got)
	}
}

func TestRun_RepeatsOnInterval(t *testing.T) {
	var calls atomic.Int32
	s := NewScheduler(func(context.Context) error {
		calls.Add(1)
		return nil
	}, 100*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	// Allow time for at least two full passes (run → sleep interval → run).
	time.Sleep(250 * time.Millisecond)
	cancel()
	<-done

	if got := calls.Load(); got < 2 {
		t.Errorf("run calls = %d, want >= 2", got)
	}
}

func TestRun_FailedRunDoesNotStopLoop(t *testing.T) {
	var calls atomic.Int32
	s := NewScheduler(func(context.Context) error {
		calls.Add(1)
		return errors.New("record locked")
	}, 50*time.Millisecond, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 180*time.Millisecond)
	defer cancel()

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run = %v, want nil", err)
	}
	if got := calls.Load(); got < 2 {
		t.Errorf("run calls = %d, want >= 2 despite failures", got)
	}
}

func TestRun_AlreadyCancelled(t *testing.T) {
	var calls atomic.Int32
	s := NewScheduler(func(context.Context) error {
		calls.Add(1)
		return nil
	}, time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run = %v, want nil", err)
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("run calls = %d, want 0", got)
	}
}
