// Package scanner drives each configured source through one page session and
// collects a per-source outcome. A failing source never stops the scan.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jo-room/job-scrape/internal/aggregate"
	"github.com/jo-room/job-scrape/internal/classify"
	"github.com/jo-room/job-scrape/internal/diff"
	"github.com/jo-room/job-scrape/internal/filter"
	"github.com/jo-room/job-scrape/internal/model"
)

const (
	DefaultSleep            = time.Second
	DefaultHumanCheckPhrase = "Verify you are human"

	excerptLen = 500
)

// Options configure a Scanner for one run.
type Options struct {
	DefaultSleep     time.Duration // used for sources without their own delays
	HumanCheckPhrase string
	SearchTerms      []string
	Limit            string // case-insensitive name substring; empty scans all
}

// Outcome is the result of scanning one source: either postings with a
// status, or Err.
type Outcome struct {
	Source   model.Source
	Postings []model.JobPosting // relevant postings only
	Status   model.PageStatus
	Err      error
}

// Result collects the outcomes of a scan in source order.
type Result struct {
	Outcomes []Outcome
	Skipped  []string // inactive sources, informational
}

// Scanner scans sources sequentially over a single shared page.
type Scanner struct {
	page   model.Page
	opts   Options
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// New creates a Scanner. Zero-valued options fall back to DefaultSleep and
// DefaultHumanCheckPhrase.
func New(page model.Page, opts Options, logger *slog.Logger) *Scanner {
	if opts.DefaultSleep <= 0 {
		opts.DefaultSleep = DefaultSleep
	}
	if opts.HumanCheckPhrase == "" {
		opts.HumanCheckPhrase = DefaultHumanCheckPhrase
	}
	return &Scanner{
		page:   page,
		opts:   opts,
		logger: logger,
		sleep:  sleepContext,
	}
}

// Scan scans every active source matching the limiter. The returned error is
// non-nil only when ctx is done; the partial result must then be discarded.
func (s *Scanner) Scan(ctx context.Context, sources []model.Source) (Result, error) {
	var res Result
	limit := strings.ToLower(s.opts.Limit)

	for _, src := range sources {
		if limit != "" && !strings.Contains(strings.ToLower(src.Name), limit) {
			continue
		}
		if !src.Active {
			res.Skipped = append(res.Skipped, src.Name)
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		out := s.scanSource(ctx, src)
		if out.Err != nil && ctx.Err() != nil {
			return res, ctx.Err()
		}
		res.Outcomes = append(res.Outcomes, out)

		if out.Err != nil {
			s.logger.Warn("scan failed", "source", src.Name, "error", out.Err)
			continue
		}
		s.logger.Info("scanned source",
			"source", src.Name,
			"status", out.Status,
			"relevant", len(out.Postings),
		)
	}

	if len(res.Skipped) > 0 {
		s.logger.Info("skipped inactive sources", "sources", res.Skipped)
	}
	return res, nil
}

func (s *Scanner) scanSource(ctx context.Context, src model.Source) Outcome {
	if src.IsMultiPage() {
		return s.scanPages(ctx, src)
	}

	postings, text, err := s.readPage(ctx, src, src.PageURL, src.Reader)
	if err != nil {
		return Outcome{Source: src, Err: err}
	}
	return Outcome{
		Source:   src,
		Postings: filter.ForSource(src, s.opts.SearchTerms).Apply(postings),
		Status:   classify.Classify(text, src.NoJobsPhrase, len(postings)),
	}
}

// scanPages scans a multi-page source. Relevant postings are tagged with the
// page they came from, duplicates across pages are dropped and dated postings
// sort first, newest first.
func (s *Scanner) scanPages(ctx context.Context, src model.Source) Outcome {
	status := model.StatusPhraseNotFoundButNoJobs
	relevant := filter.ForSource(src, s.opts.SearchTerms)
	var all []model.JobPosting

	for _, p := range src.Pages {
		postings, _, err := s.readPage(ctx, src, p.URL, src.PageReaders[p.Kind])
		if err != nil {
			return Outcome{Source: src, Err: fmt.Errorf("%s page %s: %w", p.Kind, p.URL, err)}
		}
		if len(postings) > 0 {
			status = model.StatusSomeJobFound
		}
		// Match on the bare title; the page URL is not part of it.
		for _, j := range relevant.Apply(postings) {
			j.Title = fmt.Sprintf("%s (%s)", j.Title, p.URL)
			all = append(all, j)
		}
	}

	return Outcome{
		Source:   src,
		Postings: sortByDate(dedup(all)),
		Status:   status,
	}
}

// readPage loads url, checks the page is usable and runs rd against it. It
// returns the raw extracted postings and the page text.
func (s *Scanner) readPage(ctx context.Context, src model.Source, url string, rd model.Reader) ([]model.JobPosting, string, error) {
	s.logger.Debug("loading page", "source", src.Name, "url", url)
	if err := s.page.Navigate(ctx, url); err != nil {
		return nil, "", fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := s.sleep(ctx, s.delay(src.LoadDelay)); err != nil {
		return nil, "", err
	}
	if err := s.page.Settle(ctx); err != nil {
		return nil, "", fmt.Errorf("settle %s: %w", url, err)
	}
	if err := s.sleep(ctx, s.delay(src.SettleDelay)); err != nil {
		return nil, "", err
	}

	text, err := s.page.VisibleText()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", model.ErrNoPageText, err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, "", model.ErrNoPageText
	}
	if classify.PhraseFound(text, s.opts.HumanCheckPhrase) {
		return nil, text, fmt.Errorf("%w: page text: %s", model.ErrHumanVerification, excerpt(text))
	}
	if rd == nil {
		return nil, text, fmt.Errorf("%w: page text: %s", model.ErrNoReader, excerpt(text))
	}

	postings, err := rd.GetJobs(ctx, s.page)
	if err != nil {
		// A board that removes its listing markup when empty still counts as
		// confirmed empty if the source's phrase is on the page.
		if errors.Is(err, model.ErrPageMismatch) && classify.PhraseFound(text, src.NoJobsPhrase) {
			return nil, text, nil
		}
		return nil, text, fmt.Errorf("read %s: %w", url, err)
	}
	return postings, text, nil
}

func (s *Scanner) delay(d time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return s.opts.DefaultSleep
}

// Postings returns the postings of every successful outcome, ready for diffing.
func (r Result) Postings() []diff.SourcePostings {
	var out []diff.SourcePostings
	for _, o := range r.Outcomes {
		if o.Err == nil {
			out = append(out, diff.SourcePostings{Source: o.Source.Name, Postings: o.Postings})
		}
	}
	return out
}

// Failures returns the failed outcomes for error aggregation.
func (r Result) Failures() []aggregate.Failure {
	var out []aggregate.Failure
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, aggregate.Failure{
				SourceName: o.Source.Name,
				PageURL:    o.Source.DisplayURL(),
				Err:        o.Err,
			})
		}
	}
	return out
}

// ManualCheck returns the sources whose empty result could not be confirmed.
func (r Result) ManualCheck() []model.Source {
	var out []model.Source
	for _, o := range r.Outcomes {
		if o.Err == nil && classify.NeedsManualCheck(o.Status) {
			out = append(out, o.Source)
		}
	}
	return out
}

func dedup(postings []model.JobPosting) []model.JobPosting {
	seen := make(map[string]bool, len(postings))
	out := make([]model.JobPosting, 0, len(postings))
	for _, p := range postings {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}

func sortByDate(postings []model.JobPosting) []model.JobPosting {
	sort.SliceStable(postings, func(i, j int) bool {
		a, b := postings[i].PostedAt, postings[j].PostedAt
		if a == nil {
			return false
		}
		return b == nil || a.After(*b)
	})
	return postings
}

func excerpt(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if r := []rune(text); len(r) > excerptLen {
		return string(r[:excerptLen]) + "..."
	}
	return text
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
