// Package inspect is an interactive terminal browser over the run record.
package inspect

import (
	"sort"

	"github.com/jo-room/job-scrape/internal/model"
)

// Entry is one source as seen through the run record.
type Entry struct {
	Source     model.Source
	Configured bool // false for sources only present in the record
	SeenIDs    []string
	Error      *model.ScrapeError
}

// BuildEntries joins configured sources with the record. Configured sources
// come first in config order, followed by record-only sources sorted by name.
func BuildEntries(sources []model.Source, rec *model.RunRecord) []Entry {
	errs := make(map[string]model.ScrapeError, len(rec.Errors))
	for _, e := range rec.Errors {
		errs[e.SourceName] = e
	}

	var entries []Entry
	known := make(map[string]bool, len(sources))
	for _, src := range sources {
		known[src.Name] = true
		entries = append(entries, newEntry(src, true, rec.SeenIDs[src.Name], errs))
	}

	var orphans []string
	for name := range rec.SeenIDs {
		if !known[name] {
			orphans = append(orphans, name)
			known[name] = true
		}
	}
	for name := range errs {
		if !known[name] {
			orphans = append(orphans, name)
			known[name] = true
		}
	}
	sort.Strings(orphans)
	for _, name := range orphans {
		src := model.Source{Name: name}
		if e, ok := errs[name]; ok {
			src.PageURL = e.SourcePageURL
		}
		entries = append(entries, newEntry(src, false, rec.SeenIDs[name], errs))
	}
	return entries
}

func newEntry(src model.Source, configured bool, ids []string, errs map[string]model.ScrapeError) Entry {
	e := Entry{Source: src, Configured: configured, SeenIDs: ids}
	if se, ok := errs[src.Name]; ok {
		e.Error = &se
	}
	return e
}
