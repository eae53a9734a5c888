// Package aggregate turns per-source scan failures into persisted error
// records annotated with whether they are new since the previous run.
package aggregate

import (
	"fmt"
	"strings"

	"github.com/jo-room/job-scrape/internal/model"
)

// Failure is one source's scan error as captured by the scanner.
type Failure struct {
	SourceName string
	PageURL    string
	Err        error
}

// Report is the aggregated error state of a run.
type Report struct {
	Errors  []model.ScrapeError // replaces the previous run's list
	Message string              // combined human-readable message, "" when no errors
}

// HasNew reports whether any error is new this run.
func (r Report) HasNew() bool {
	for _, e := range r.Errors {
		if e.IsNewThisRun {
			return true
		}
	}
	return false
}

// Aggregate builds the run's error list. An error is new when its source had
// no error recorded in prior.
func Aggregate(prior []model.ScrapeError, failures []Failure) Report {
	before := make(map[string]bool, len(prior))
	for _, e := range prior {
		before[e.SourceName] = true
	}

	rep := Report{Errors: make([]model.ScrapeError, 0, len(failures))}
	if len(failures) == 0 {
		return rep
	}

	var b strings.Builder
	b.WriteString("Errors:\n")
	for _, f := range failures {
		se := model.ScrapeError{
			SourceName:    f.SourceName,
			SourcePageURL: f.PageURL,
			Message:       errMessage(f.Err),
			IsNewThisRun:  !before[f.SourceName],
		}
		rep.Errors = append(rep.Errors, se)

		writeHeader(&b, se)
		for _, line := range causeChain(f.Err) {
			b.WriteString("    caused by: ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	rep.Message = b.String()
	return rep
}

// FormatErrors renders persisted errors, which carry no cause chain.
func FormatErrors(errs []model.ScrapeError) string {
	if len(errs) == 0 {
		return "No errors."
	}
	var b strings.Builder
	b.WriteString("Errors:\n")
	for _, se := range errs {
		writeHeader(&b, se)
	}
	return b.String()
}

func writeHeader(b *strings.Builder, se model.ScrapeError) {
	if se.IsNewThisRun {
		b.WriteString("NEW ERROR ")
	}
	fmt.Fprintf(b, "%s (%s): %s\n", se.SourceName, se.SourcePageURL, se.Message)
}

func errMessage(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

// causeChain lists the messages of every error wrapped by err, outermost
// first, not including err itself.
func causeChain(err error) []string {
	var lines []string
	queue := unwrapAll(err)
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		lines = append(lines, e.Error())
		queue = append(queue, unwrapAll(e)...)
	}
	return lines
}

func unwrapAll(err error) []error {
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		return u.Unwrap()
	case interface{ Unwrap() error }:
		if inner := u.Unwrap(); inner != nil {
			return []error{inner}
		}
	}
	return nil
}
