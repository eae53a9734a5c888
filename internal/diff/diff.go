// Package diff separates newly seen postings from ones reported in earlier runs.
package diff

import (
	"sort"

	"github.com/jo-room/job-scrape/internal/model"
)

// SourcePostings groups postings under the source they were extracted from.
type SourcePostings struct {
	Source   string
	Postings []model.JobPosting
}

// Result is the output of Diff.
type Result struct {
	// New holds unseen postings grouped by source, in the order sources first
	// produced a new posting. Extraction order is preserved within a group.
	New []SourcePostings
	// Seen is the prior seen-set plus every id in New, each list sorted.
	Seen map[string][]string
}

// NewCount returns the number of new postings across all sources.
func (r Result) NewCount() int {
	n := 0
	for _, g := range r.New {
		n += len(g.Postings)
	}
	return n
}

// Diff compares scan results against the prior seen-set. prior is not modified.
// Running Diff again with r.Seen and the same results yields no new postings.
func Diff(prior map[string][]string, results []SourcePostings) Result {
	seen := make(map[string]map[string]struct{}, len(prior))
	for source, ids := range prior {
		set := make(map[string]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		seen[source] = set
	}

	var groups []SourcePostings
	groupIdx := make(map[string]int)

	for _, r := range results {
		set, ok := seen[r.Source]
		if !ok {
			set = make(map[string]struct{})
			seen[r.Source] = set
		}
		for _, p := range r.Postings {
			if _, dup := set[p.ID]; dup {
				continue
			}
			set[p.ID] = struct{}{}

			i, ok := groupIdx[r.Source]
			if !ok {
				i = len(groups)
				groupIdx[r.Source] = i
				groups = append(groups, SourcePostings{Source: r.Source})
			}
			groups[i].Postings = append(groups[i].Postings, p)
		}
	}

	return Result{New: groups, Seen: sortedSets(seen)}
}

func sortedSets(sets map[string]map[string]struct{}) map[string][]string {
	out := make(map[string][]string, len(sets))
	for source, set := range sets {
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		out[source] = ids
	}
	return out
}
