package notifier

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jo-room/job-scrape/internal/model"
)

// Ensure LogPublisher implements model.Publisher.
var _ model.Publisher = (*LogPublisher)(nil)

// LogPublisher writes notifications to the given logger, one record per
// non-empty body line.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher returns a publisher that logs via slog.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish never fails.
func (p *LogPublisher) Publish(_ context.Context, subject, body string) error {
	p.logger.Info("notification", "subject", subject)
	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		p.logger.Info("notification", "subject", subject, "line", strings.TrimSpace(line))
	}
	return nil
}
