// Package retry wraps a publisher so transient delivery failures are retried.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/jo-room/job-scrape/internal/model"
)

var _ model.Publisher = (*RetryPublisher)(nil)

// DefaultBaseDelay is the delay before the first retry of a notification.
const DefaultBaseDelay = 2 * time.Second

// RetryPublisher is a decorator that retries transient failures with
// exponential backoff and jitter before giving up on a notification.
type RetryPublisher struct {
	inner      model.Publisher
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewRetryPublisher wraps a Publisher with retry logic.
// maxRetries is the number of additional attempts after the first failure.
// baseDelay is the delay before the first retry, doubled on each subsequent retry.
func NewRetryPublisher(inner model.Publisher, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetryPublisher {
	return &RetryPublisher{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

// Publish delivers the notification, retrying on transient errors.
func (p *RetryPublisher) Publish(ctx context.Context, subject, body string) error {
	err := p.inner.Publish(ctx, subject, body)
	if err == nil || !isRetryable(err) {
		return err
	}

	for attempt := 1; attempt <= p.maxRetries; attempt++ {
		delay := p.backoffDelay(attempt, err)

		p.logger.Warn("retrying notification after transient error",
			"subject", subject,
			"attempt", attempt,
			"max_retries", p.maxRetries,
			"delay", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		err = p.inner.Publish(ctx, subject, body)
		if err == nil || !isRetryable(err) {
			return err
		}
	}

	return err
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// A Retry-After duration on the error takes precedence.
func (p *RetryPublisher) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	delay := p.baseDelay << (attempt - 1)

	jitter := float64(delay) * 0.3
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}

// isRetryable returns true if the error represents a transient failure worth retrying.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}

	// Network, DNS and the like.
	return true
}
