package reader

import (
	"context"
	"errors"
	"fmt"

	"github.com/jo-room/job-scrape/internal/model"
)

var _ model.Reader = (*JSONReader)(nil)

// JSONReader reads postings out of captured JSON responses. Items selects
// the list of postings in each response; the remaining expressions are
// evaluated per item.
type JSONReader struct {
	Match      string // URL substring of responses to read; the page URL when empty
	Items      string
	Title      string
	ID         string // defaults to the link
	Link       string
	LinkPrefix string // prepended to relative links
	Date       string
	DateFormat string
}

// NewJSONReader builds a JSONReader from reader_options.
func NewJSONReader(opts Options) (*JSONReader, error) {
	r := &JSONReader{
		Match:      opts.String("match", ""),
		Items:      opts.String("items", ""),
		Title:      opts.String("title", "title"),
		ID:         opts.String("id", ""),
		Link:       opts.String("link", "url"),
		LinkPrefix: opts.String("link_prefix", ""),
		Date:       opts.String("date", ""),
		DateFormat: opts.String("date_format", ""),
	}
	if r.Items == "" {
		return nil, errors.New(`option "items" is required`)
	}
	for _, expr := range []string{r.Items, r.Title, r.ID, r.Link, r.Date} {
		if err := validateExpr(expr); err != nil {
			return nil, fmt.Errorf("invalid expression %q: %w", expr, err)
		}
	}
	return r, nil
}

// GetJobs implements model.Reader.
func (r *JSONReader) GetJobs(_ context.Context, page model.Page) ([]model.JobPosting, error) {
	match := r.Match
	if match == "" {
		match = page.URL()
	}
	resps := page.Responses(match)
	if len(resps) == 0 {
		return nil, fmt.Errorf("no captured response matching %q: %w", match, model.ErrPageMismatch)
	}

	var jobs []model.JobPosting
	for _, resp := range resps {
		data, err := decodeJSON(resp)
		if err != nil {
			return nil, err
		}
		items, err := searchList(r.Items, data)
		if err != nil {
			return nil, err
		}
		for i, item := range items {
			job, err := r.posting(item)
			if err != nil {
				return nil, fmt.Errorf("%s item %d: %w", resp.URL, i, err)
			}
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

func (r *JSONReader) posting(item any) (model.JobPosting, error) {
	title, err := searchString(r.Title, item)
	if err != nil {
		return model.JobPosting{}, err
	}
	link, err := searchString(r.Link, item)
	if err != nil {
		return model.JobPosting{}, err
	}
	if link != "" && r.LinkPrefix != "" {
		link = absolute(r.LinkPrefix, link)
	}

	id := link
	if r.ID != "" {
		if id, err = searchString(r.ID, item); err != nil {
			return model.JobPosting{}, err
		}
	}
	if id == "" {
		return model.JobPosting{}, fmt.Errorf("no id: %w", model.ErrPageMismatch)
	}

	job := model.JobPosting{ID: id, Title: title, Link: link}
	if r.Date != "" {
		raw, err := searchString(r.Date, item)
		if err != nil {
			return model.JobPosting{}, err
		}
		job.PostedAt, _ = parseDate(raw, r.DateFormat)
	}
	return job, nil
}
