package model

import (
	"context"
	"time"
)

// JobPosting is a single job listing extracted from a careers page.
type JobPosting struct {
	ID       string     // stable identity across runs, usually the canonical URL
	Title    string     // may be empty only before enrichment completes
	Link     string     // optional apply/details link
	PostedAt *time.Time // nullable (aggregator pages only)
}

// PageStatus classifies the outcome of scanning one source.
type PageStatus string

const (
	StatusSpecificNoJobsPhraseFound PageStatus = "SPECIFIC_NO_JOBS_PHRASE_FOUND"
	StatusPhraseNotFoundButNoJobs   PageStatus = "NO_JOBS_PHRASE_NOT_FOUND_BUT_NO_JOBS"
	StatusSomeJobFound              PageStatus = "SOME_JOB_FOUND"
	StatusNoJobsFound               PageStatus = "NO_JOBS_FOUND"
)

// Reader extracts postings from a page that has already been navigated to.
// On structural mismatch it must return an error wrapping ErrPageMismatch
// rather than a partial result.
type Reader interface {
	GetJobs(ctx context.Context, page Page) ([]JobPosting, error)
}

// ReaderFunc adapts a plain function to the Reader interface.
type ReaderFunc func(ctx context.Context, page Page) ([]JobPosting, error)

func (f ReaderFunc) GetJobs(ctx context.Context, page Page) ([]JobPosting, error) {
	return f(ctx, page)
}

// Publisher delivers a notification with a subject and a plain-text body.
type Publisher interface {
	Publish(ctx context.Context, subject, body string) error
}

// SaveOptions controls how a RunRecord is written back.
type SaveOptions struct {
	SkipWrite      bool // do nothing
	BackupFirst    bool // copy the existing destination to a sibling backup first
	NonDestructive bool // write to a timestamp-suffixed sibling instead
}

// RunStore loads and saves the persisted RunRecord.
type RunStore interface {
	Load(ctx context.Context) (*RunRecord, error)
	// Save writes rec according to opts and returns the destination written
	// to, or "" when nothing was written.
	Save(ctx context.Context, rec *RunRecord, opts SaveOptions) (string, error)
}
