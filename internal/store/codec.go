package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/jo-room/job-scrape/internal/model"
)

// ErrNotFound is returned by Load when no run record exists yet.
var ErrNotFound = errors.New("run record not found")

// DecodeError reports a run record document that is structurally invalid.
type DecodeError struct {
	Source string // file path, key or table the document came from
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode run record %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// wireRecord mirrors model.RunRecord with pointer fields so missing keys can
// be told apart from empty ones.
type wireRecord struct {
	ExistingJobs *map[string][]string `json:"existing_jobs"`
	Errors       *[]wireError         `json:"errors"`
}

type wireError struct {
	CompanyName  *string `json:"company_name"`
	JobsPage     string  `json:"jobs_page"`
	Message      string  `json:"message"`
	IsNewThisRun bool    `json:"is_new_this_run"`
}

// Decode parses a run record document. Both top-level keys are required, as
// is company_name on every error.
func Decode(source string, data []byte) (*model.RunRecord, error) {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, &DecodeError{Source: source, Err: err}
	}
	if w.ExistingJobs == nil {
		return nil, &DecodeError{Source: source, Err: errors.New(`missing required field "existing_jobs"`)}
	}
	if w.Errors == nil {
		return nil, &DecodeError{Source: source, Err: errors.New(`missing required field "errors"`)}
	}

	rec := model.NewRunRecord()
	for name, ids := range *w.ExistingJobs {
		rec.SeenIDs[name] = sortedCopy(ids)
	}
	for i, e := range *w.Errors {
		if e.CompanyName == nil {
			return nil, &DecodeError{Source: source, Err: fmt.Errorf(`errors[%d]: missing required field "company_name"`, i)}
		}
		rec.Errors = append(rec.Errors, model.ScrapeError{
			SourceName:    *e.CompanyName,
			SourcePageURL: e.JobsPage,
			Message:       e.Message,
			IsNewThisRun:  e.IsNewThisRun,
		})
	}
	return rec, nil
}

// Encode renders rec as an indented JSON document with every id list sorted.
func Encode(rec *model.RunRecord) ([]byte, error) {
	out := model.RunRecord{
		SeenIDs: make(map[string][]string, len(rec.SeenIDs)),
		Errors:  rec.Errors,
	}
	for name, ids := range rec.SeenIDs {
		out.SeenIDs[name] = sortedCopy(ids)
	}
	if out.Errors == nil {
		out.Errors = []model.ScrapeError{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("encode run record: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func sortedCopy(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	return out
}
