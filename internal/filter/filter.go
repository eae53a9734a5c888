package filter

import (
	"strings"

	"github.com/jo-room/job-scrape/internal/model"
)

// TermFilter matches postings whose title contains any of its terms.
// Matching is case-insensitive. An empty term list is treated as "match all".
type TermFilter struct {
	terms []string
}

// NewTermFilter returns a filter over the given terms (case-insensitive substring).
func NewTermFilter(terms []string) *TermFilter {
	lowered := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			lowered = append(lowered, t)
		}
	}
	return &TermFilter{terms: lowered}
}

// ForSource returns the filter a source's postings are checked against: the
// source's own relevant terms when set, the global search terms otherwise.
// Multi-page sources are pre-filtered upstream, so they only ever use their
// own terms.
func ForSource(src model.Source, searchTerms []string) *TermFilter {
	if len(src.RelevantTerms) > 0 || src.IsMultiPage() {
		return NewTermFilter(src.RelevantTerms)
	}
	return NewTermFilter(searchTerms)
}

// Match returns true if title contains any term. Empty term lists pass all.
func (f *TermFilter) Match(title string) bool {
	if len(f.terms) == 0 {
		return true
	}
	titleLower := strings.ToLower(title)
	for _, t := range f.terms {
		if strings.Contains(titleLower, t) {
			return true
		}
	}
	return false
}

// Apply returns the postings that match, preserving order.
func (f *TermFilter) Apply(postings []model.JobPosting) []model.JobPosting {
	var matched []model.JobPosting
	for _, p := range postings {
		if f.Match(p.Title) {
			matched = append(matched, p)
		}
	}
	return matched
}

// WithExtraTerms returns a new slice holding terms followed by extra, skipping
// blanks. terms is never modified.
func WithExtraTerms(terms []string, extra ...string) []string {
	out := make([]string, 0, len(terms)+len(extra))
	out = append(out, terms...)
	for _, e := range extra {
		if strings.TrimSpace(e) != "" {
			out = append(out, e)
		}
	}
	return out
}
