package runner

import (
	"fmt"
	"strings"

	"github.com/jo-room/job-scrape/internal/diff"
	"github.com/jo-room/job-scrape/internal/model"
)

// FormatNewPostings renders new postings grouped by source, each group headed
// by the source name and its page URL.
func FormatNewPostings(sources []model.Source, groups []diff.SourcePostings) string {
	urls := make(map[string]string, len(sources))
	for _, src := range sources {
		urls[src.Name] = src.DisplayURL()
	}

	var b strings.Builder
	for _, g := range groups {
		fmt.Fprintf(&b, "\n%s ( %s ):\n", g.Source, urls[g.Source])
		for _, p := range g.Postings {
			fmt.Fprintf(&b, "\t %s %s\n", strings.ReplaceAll(p.Title, "\n", " "), p.Link)
		}
	}
	return b.String()
}

// FormatManualCheck renders the sources whose empty result needs a look.
func FormatManualCheck(sources []model.Source) string {
	if len(sources) == 0 {
		return ""
	}
	names := make([]string, len(sources))
	for i, src := range sources {
		names[i] = src.Name
	}
	return "No jobs at all, but no specific no jobs phrase:\n" + strings.Join(names, "\n")
}
