// Package runner wires one full run: load the record, scan, diff, aggregate
// errors, notify and save.
package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jo-room/job-scrape/internal/aggregate"
	"github.com/jo-room/job-scrape/internal/diff"
	"github.com/jo-room/job-scrape/internal/model"
	"github.com/jo-room/job-scrape/internal/scanner"
)

// WritePolicy decides when the run record is written back.
type WritePolicy string

const (
	WriteOnNew  WritePolicy = "on-new" // only when new postings were found
	WriteAlways WritePolicy = "always"
)

// ErrorNotify decides when the error notification is sent.
type ErrorNotify string

const (
	NotifyNewErrors ErrorNotify = "new" // only when some error is new this run
	NotifyAnyErrors ErrorNotify = "any"
)

const (
	SubjectNewJobs   = "New jobs"
	SubjectNewErrors = "New scrape error(s)"
)

// Scanner produces per-source outcomes for a run.
type Scanner interface {
	Scan(ctx context.Context, sources []model.Source) (scanner.Result, error)
}

// Options configure a Runner.
type Options struct {
	WritePolicy WritePolicy
	ErrorNotify ErrorNotify
	Save        model.SaveOptions
}

// Summary carries the three signals of a run: new postings, sources to
// verify by hand, and errors.
type Summary struct {
	Sources     []model.Source
	New         []diff.SourcePostings
	ManualCheck []model.Source
	Errors      aggregate.Report
	Skipped     []string
	Record      *model.RunRecord
	SavedTo     string // "" when nothing was written
}

// NewCount returns the number of new postings.
func (s *Summary) NewCount() int {
	n := 0
	for _, g := range s.New {
		n += len(g.Postings)
	}
	return n
}

// Runner executes runs against a store, a scanner and a publisher.
type Runner struct {
	store     model.RunStore
	scanner   Scanner
	publisher model.Publisher
	opts      Options
	logger    *slog.Logger
}

// New creates a Runner. Zero-valued policies default to WriteOnNew and
// NotifyNewErrors.
func New(store model.RunStore, sc Scanner, pub model.Publisher, opts Options, logger *slog.Logger) *Runner {
	if opts.WritePolicy == "" {
		opts.WritePolicy = WriteOnNew
	}
	if opts.ErrorNotify == "" {
		opts.ErrorNotify = NotifyNewErrors
	}
	return &Runner{
		store:     store,
		scanner:   sc,
		publisher: pub,
		opts:      opts,
		logger:    logger,
	}
}

// Run performs one run over sources. Errors from loading the record, from
// cancellation, from publishing or from saving are returned; per-source scan
// failures are not, they end up in Summary.Errors. When an error is returned
// the stored record is left untouched.
func (r *Runner) Run(ctx context.Context, sources []model.Source) (*Summary, error) {
	prior, err := r.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading run record: %w", err)
	}

	res, err := r.scanner.Scan(ctx, sources)
	if err != nil {
		return nil, fmt.Errorf("scan interrupted: %w", err)
	}

	d := diff.Diff(prior.SeenIDs, res.Postings())
	report := aggregate.Aggregate(prior.Errors, res.Failures())

	sum := &Summary{
		Sources:     sources,
		New:         d.New,
		ManualCheck: res.ManualCheck(),
		Errors:      report,
		Skipped:     res.Skipped,
		Record:      &model.RunRecord{SeenIDs: d.Seen, Errors: report.Errors},
	}

	r.logger.Info("run complete",
		"scanned", len(res.Outcomes),
		"new", sum.NewCount(),
		"manual_check", len(sum.ManualCheck),
		"errors", len(report.Errors),
		"new_errors", report.HasNew(),
	)

	if err := r.notify(ctx, sum); err != nil {
		return sum, err
	}

	if sum.NewCount() == 0 && r.opts.WritePolicy != WriteAlways {
		r.logger.Info("no new postings, run record not written")
		return sum, nil
	}
	save := r.opts.Save
	if sum.NewCount() == 0 {
		// Nothing new: an always-write run must not rotate the backup.
		save.BackupFirst = false
	}
	dest, err := r.store.Save(ctx, sum.Record, save)
	if err != nil {
		return sum, fmt.Errorf("saving run record: %w", err)
	}
	sum.SavedTo = dest
	if dest != "" {
		r.logger.Info("wrote run record", "dest", dest, "seen", sum.Record.SeenCount())
	}
	return sum, nil
}

func (r *Runner) notify(ctx context.Context, sum *Summary) error {
	if sum.NewCount() > 0 {
		body := FormatNewPostings(sum.Sources, sum.New)
		if err := r.publisher.Publish(ctx, SubjectNewJobs, body); err != nil {
			return fmt.Errorf("publishing new postings: %w", err)
		}
	}

	errs := sum.Errors
	if errs.HasNew() || (r.opts.ErrorNotify == NotifyAnyErrors && len(errs.Errors) > 0) {
		if err := r.publisher.Publish(ctx, SubjectNewErrors, errs.Message); err != nil {
			return fmt.Errorf("publishing errors: %w", err)
		}
	}
	return nil
}
