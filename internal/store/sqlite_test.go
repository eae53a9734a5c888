package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/jo-room/job-scrape/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath, discardLogger())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord() *model.RunRecord {
	return &model.RunRecord{
		SeenIDs: map[string][]string{
			"acme":   {"https://acme.example/jobs/1", "https://acme.example/jobs/2"},
			"globex": {"g-1"},
		},
		Errors: []model.ScrapeError{
			{SourceName: "initech", SourcePageURL: "https://initech.example", Message: "timeout", IsNewThisRun: true},
		},
	}
}

func TestSQLite_LoadBeforeFirstSave(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Load(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load on fresh db: got %v, want ErrNotFound", err)
	}
}

func TestSQLite_SaveThenLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, sampleRecord(), model.SaveOptions{}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, sampleRecord()) {
		t.Errorf("Load = %+v, want %+v", got, sampleRecord())
	}
}

func TestSQLite_SeenIDsOnlyGrowErrorsReplaced(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, sampleRecord(), model.SaveOptions{}); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	next := &model.RunRecord{
		SeenIDs: map[string][]string{"acme": {"https://acme.example/jobs/3"}},
		Errors:  []model.ScrapeError{},
	}
	if _, err := s.Save(ctx, next, model.SaveOptions{}); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n := len(got.SeenIDs["acme"]); n != 3 {
		t.Errorf("acme seen ids = %d, want 3", n)
	}
	if len(got.Errors) != 0 {
		t.Errorf("errors = %+v, want none", got.Errors)
	}
}

func TestSQLite_SkipWrite(t *testing.T) {
	s := newTestStore(t)

	dest, err := s.Save(context.Background(), sampleRecord(), model.SaveOptions{SkipWrite: true})
	if err != nil || dest != "" {
		t.Fatalf("Save(SkipWrite) = %q, %v", dest, err)
	}
	if _, err := s.Load(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected nothing written, Load err = %v", err)
	}
}

func TestSQLite_BackupAndNonDestructive(t *testing.T) {
	s := newTestStore(t)
	s.now = func() time.Time { return time.Date(2024, 3, 1, 9, 15, 2, 123456000, time.UTC) }
	ctx := context.Background()

	if _, err := s.Save(ctx, sampleRecord(), model.SaveOptions{}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := s.Save(ctx, sampleRecord(), model.SaveOptions{BackupFirst: true}); err != nil {
		t.Fatalf("Save(backup): %v", err)
	}
	if _, err := os.Stat(BackupPath(s.path)); err != nil {
		t.Errorf("backup missing: %v", err)
	}
	if err := os.Remove(BackupPath(s.path)); err != nil {
		t.Fatal(err)
	}

	dest, err := s.Save(ctx, sampleRecord(), model.SaveOptions{BackupFirst: true, NonDestructive: true})
	if err != nil {
		t.Fatalf("Save(backup, non-destructive): %v", err)
	}

	want := filepath.Join(filepath.Dir(s.path), "test_2024-03-01_09:15:02.123456.db")
	if dest != want {
		t.Errorf("dest = %q, want %q", dest, want)
	}
	if _, err := os.Stat(BackupPath(s.path)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("non-destructive save should not back up, stat err = %v", err)
	}

	snap, err := NewSQLiteStore(dest, discardLogger())
	if err != nil {
		t.Fatalf("open snapshot: %v", err)
	}
	defer snap.Close()
	got, err := snap.Load(ctx)
	if err != nil {
		t.Fatalf("snapshot Load: %v", err)
	}
	if !reflect.DeepEqual(got, sampleRecord()) {
		t.Errorf("snapshot = %+v", got)
	}
}

func TestSQLite_EmptySeenEntryRoundTrips(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec := &model.RunRecord{
		SeenIDs: map[string][]string{"acme": {}, "globex": {"g-1"}},
		Errors:  []model.ScrapeError{},
	}
	if _, err := s.Save(ctx, rec, model.SaveOptions{}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ids, ok := got.SeenIDs["acme"]
	if !ok || len(ids) != 0 {
		t.Errorf("acme = %v (present %v), want an empty entry", ids, ok)
	}
	if len(got.SeenIDs) != 2 {
		t.Errorf("SeenIDs = %v, want 2 sources", got.SeenIDs)
	}
}
