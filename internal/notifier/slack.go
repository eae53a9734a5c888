package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jo-room/job-scrape/internal/model"
)

// Ensure SlackPublisher implements model.Publisher.
var _ model.Publisher = (*SlackPublisher)(nil)

const (
	// Slack limits: 3000 characters per section text, 50 blocks per message.
	slackMaxSectionLen = 3000
	slackMaxSections   = 45
	slackMaxHeaderLen  = 150
)

// SlackPublisher posts notifications to a Slack channel via Incoming Webhooks.
type SlackPublisher struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
	pause      time.Duration // between messages of one notification
}

// NewSlackPublisher returns a publisher that posts to webhookURL.
func NewSlackPublisher(webhookURL string, httpClient *http.Client, logger *slog.Logger) *SlackPublisher {
	return &SlackPublisher{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
		pause:      500 * time.Millisecond,
	}
}

// Publish sends the subject as a header and the body as mrkdwn sections.
// Bodies too long for one message are split over several. A non-2xx reply
// is returned as a *model.HTTPError so a RetryPublisher can back off.
func (s *SlackPublisher) Publish(ctx context.Context, subject, body string) error {
	payloads := buildPayloads(subject, body)
	for i, p := range payloads {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.pause):
			}
		}
		if err := s.send(ctx, p); err != nil {
			return fmt.Errorf("slack message %d/%d: %w", i+1, len(payloads), err)
		}
	}
	s.logger.Info("slack notification sent", "subject", subject, "messages", len(payloads))
	return nil
}

func (s *SlackPublisher) send(ctx context.Context, payload slackPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	httpErr := &model.HTTPError{
		StatusCode: resp.StatusCode,
		Err:        fmt.Errorf("slack: %s", strings.TrimSpace(string(msg))),
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		secs, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		if secs <= 0 {
			secs = 1
		}
		httpErr.RetryAfter = time.Duration(secs) * time.Second
		s.logger.Warn("slack rate limited", "retry_after_secs", secs)
	}
	return httpErr
}

// SendTestMessage publishes a fixed message to verify the integration works.
func SendTestMessage(ctx context.Context, p model.Publisher) error {
	return p.Publish(ctx, "jobscrape test",
		"Test notification from jobscrape.\nIf you can read this, new postings and scrape errors will arrive here.")
}

// Block Kit payload types.

type slackPayload struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

var mrkdwnEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func buildPayloads(subject, body string) []slackPayload {
	header := subject
	if r := []rune(header); len(r) > slackMaxHeaderLen {
		header = string(r[:slackMaxHeaderLen-1]) + "…"
	}

	chunks := chunkLines(mrkdwnEscaper.Replace(body), slackMaxSectionLen)
	var payloads []slackPayload
	for len(chunks) > 0 || len(payloads) == 0 {
		n := min(len(chunks), slackMaxSections)
		blocks := []slackBlock{{Type: "header", Text: &slackText{Type: "plain_text", Text: header}}}
		for _, c := range chunks[:n] {
			blocks = append(blocks, slackBlock{Type: "section", Text: &slackText{Type: "mrkdwn", Text: c}})
		}
		blocks = append(blocks, slackBlock{Type: "divider"})
		payloads = append(payloads, slackPayload{Text: subject, Blocks: blocks})
		chunks = chunks[n:]
	}
	return payloads
}

// chunkLines splits text into pieces of at most limit runes, breaking between
// lines where possible. Blank leading and trailing lines are dropped.
func chunkLines(text string, limit int) []string {
	text = strings.Trim(text, "\n")
	if text == "" {
		return nil
	}

	var chunks []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			chunks = append(chunks, string(cur))
			cur = cur[:0]
		}
	}
	for _, line := range strings.Split(text, "\n") {
		r := []rune(line)
		for len(r) > limit {
			flush()
			chunks = append(chunks, string(r[:limit]))
			r = r[limit:]
		}
		need := len(r)
		if len(cur) > 0 {
			need++
		}
		if len(cur)+need > limit {
			flush()
		}
		if len(cur) > 0 {
			cur = append(cur, '\n')
		}
		cur = append(cur, r...)
	}
	flush()
	return chunks
}
