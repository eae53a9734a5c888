package reader

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/jo-room/job-scrape/internal/model"
)

var _ model.Reader = (*FeedReader)(nil)

// FeedReader reads postings from an RSS, Atom or JSON Feed document, such as
// the job feeds many boards publish.
type FeedReader struct {
	match string // URL substring of the captured feed; the page URL when empty
}

// NewFeedReader builds a FeedReader from reader_options.
func NewFeedReader(opts Options) *FeedReader {
	return &FeedReader{match: opts.String("match", "")}
}

// GetJobs implements model.Reader.
func (r *FeedReader) GetJobs(_ context.Context, page model.Page) ([]model.JobPosting, error) {
	match := r.match
	if match == "" {
		match = page.URL()
	}
	resps := page.Responses(match)
	if len(resps) == 0 {
		return nil, fmt.Errorf("no captured feed matching %q: %w", match, model.ErrPageMismatch)
	}
	resp := resps[len(resps)-1]

	feed, err := gofeed.NewParser().ParseString(string(resp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %v: %w", resp.URL, err, model.ErrPageMismatch)
	}

	jobs := make([]model.JobPosting, 0, len(feed.Items))
	for _, item := range feed.Items {
		id := item.GUID
		if id == "" {
			id = item.Link
		}
		if id == "" {
			return nil, fmt.Errorf("feed item %q has no guid or link: %w", item.Title, model.ErrPageMismatch)
		}
		job := model.JobPosting{
			ID:    id,
			Title: strings.TrimSpace(item.Title),
			Link:  item.Link,
		}
		if item.PublishedParsed != nil {
			job.PostedAt = item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			job.PostedAt = item.UpdatedParsed
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
