// Package classify interprets the outcome of a page scan.
package classify

import (
	"strings"

	"github.com/jo-room/job-scrape/internal/model"
)

// Classify returns the status for a page given its visible text, the source's
// configured "no jobs" phrase (empty when not configured) and the number of
// postings extracted. A non-zero count always wins.
func Classify(pageText, noJobsPhrase string, count int) model.PageStatus {
	if count > 0 {
		return model.StatusSomeJobFound
	}
	if noJobsPhrase == "" {
		return model.StatusNoJobsFound
	}
	if PhraseFound(pageText, noJobsPhrase) {
		return model.StatusSpecificNoJobsPhraseFound
	}
	return model.StatusPhraseNotFoundButNoJobs
}

// PhraseFound reports whether phrase occurs in text, ignoring case.
// An empty phrase is never found.
func PhraseFound(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(phrase))
}

// NeedsManualCheck reports whether a status is ambiguous and belongs in the
// "verify no jobs" report.
func NeedsManualCheck(status model.PageStatus) bool {
	switch status {
	case model.StatusNoJobsFound, model.StatusPhraseNotFoundButNoJobs:
		return true
	default:
		return false
	}
}
