package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoPageText is returned when a page yields no visible text.
	ErrNoPageText = errors.New("error retrieving page text")
	// ErrHumanVerification is returned when a bot challenge is detected.
	ErrHumanVerification = errors.New("human verification requested")
	// ErrNoReader is returned when an active source has no reader configured.
	ErrNoReader = errors.New("scrape not implemented")
	// ErrPageMismatch is returned by readers when the page structure is not
	// what they expect.
	ErrPageMismatch = errors.New("page structure mismatch")
	// ErrUnknownReader is returned when a configured reader name is not registered.
	ErrUnknownReader = errors.New("unknown reader")
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
