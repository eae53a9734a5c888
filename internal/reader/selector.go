package reader

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jo-room/job-scrape/internal/model"
)

var _ model.Reader = (*SelectorReader)(nil)

// SelectorReader extracts postings with CSS selectors. Each element matching
// Item (inside Container, when set) is one posting; its text is the title
// unless Title narrows it down, and the href of Link (or of the item itself
// when Link is empty) is both the id and the link.
type SelectorReader struct {
	Frame      string   // iframe to enter first
	Container  string   // must match at least one element when set
	Item       string   // required
	Title      string   // optional, relative to the item
	Link       string   // optional, relative to the item
	Date       string   // optional, relative to the item
	DateFormat string   // Go layout for Date, e.g. "Jan 2, 2006"
	DateTitle  bool     // prefix the title with the raw date text
	Exclude    []string // drop postings whose title contains any of these
}

// NewSelectorReaderFromOptions builds a SelectorReader from reader_options.
func NewSelectorReaderFromOptions(opts Options) (*SelectorReader, error) {
	r := &SelectorReader{}
	return r.withOverrides(opts)
}

// withOverrides returns a copy of r with any options set in opts applied.
func (r SelectorReader) withOverrides(opts Options) (*SelectorReader, error) {
	r.Frame = opts.String("frame", r.Frame)
	r.Container = opts.String("container", r.Container)
	r.Item = opts.String("item", r.Item)
	r.Title = opts.String("title", r.Title)
	r.Link = opts.String("link", r.Link)
	r.Date = opts.String("date", r.Date)
	r.DateFormat = opts.String("date_format", r.DateFormat)
	r.DateTitle = opts.Bool("date_in_title", r.DateTitle)
	if ex := opts.Strings("exclude"); ex != nil {
		r.Exclude = ex
	}

	if r.Item == "" {
		return nil, errors.New(`option "item" is required`)
	}
	if r.Date != "" && r.DateFormat == "" {
		return nil, errors.New(`option "date_format" is required with "date"`)
	}
	return &r, nil
}

// GetJobs implements model.Reader.
func (r *SelectorReader) GetJobs(ctx context.Context, page model.Page) ([]model.JobPosting, error) {
	if r.Frame != "" {
		framed, err := page.EnterFrame(ctx, r.Frame)
		if err != nil {
			return nil, err
		}
		page = framed
	}

	doc, err := page.Document()
	if err != nil {
		return nil, err
	}

	root := doc.Selection
	if r.Container != "" {
		root = doc.Find(r.Container)
		if root.Length() == 0 {
			return nil, fmt.Errorf("container %q not found: %w", r.Container, model.ErrPageMismatch)
		}
	}

	var jobs []model.JobPosting
	var firstErr error
	root.Find(r.Item).EachWithBreak(func(i int, item *goquery.Selection) bool {
		job, err := r.posting(item, page.URL())
		if err != nil {
			firstErr = fmt.Errorf("posting %d: %w", i, err)
			return false
		}
		if !excluded(job.Title, r.Exclude) {
			jobs = append(jobs, job)
		}
		return true
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return jobs, nil
}

func (r *SelectorReader) posting(item *goquery.Selection, base string) (model.JobPosting, error) {
	titleSel := item
	if r.Title != "" {
		titleSel = item.Find(r.Title).First()
	}
	title := elementText(titleSel)

	linkSel := item
	if r.Link != "" {
		linkSel = item.Find(r.Link).First()
	}
	href, ok := linkSel.Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return model.JobPosting{}, fmt.Errorf("no link: %w", model.ErrPageMismatch)
	}
	link := absolute(base, href)

	job := model.JobPosting{ID: link, Title: title, Link: link}

	if r.Date != "" {
		dateText := elementText(item.Find(r.Date).First())
		t, err := time.Parse(r.DateFormat, dateText)
		if err != nil {
			return model.JobPosting{}, fmt.Errorf("date %q: %v: %w", dateText, err, model.ErrPageMismatch)
		}
		job.PostedAt = &t
		if r.DateTitle {
			job.Title = dateText + " " + job.Title
		}
	}
	return job, nil
}

// elementText returns the text of s with the text of each descendant node
// separated by a single space, skipping scripts and styles.
func elementText(s *goquery.Selection) string {
	var parts []string
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, c *goquery.Selection) {
			switch goquery.NodeName(c) {
			case "#text":
				if t := strings.Join(strings.Fields(c.Text()), " "); t != "" {
					parts = append(parts, t)
				}
			case "script", "style":
			default:
				walk(c)
			}
		})
	}
	walk(s)
	return strings.Join(parts, " ")
}

func absolute(base, ref string) string {
	ref = strings.TrimSpace(ref)
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(u).String()
}

func excluded(title string, terms []string) bool {
	for _, t := range terms {
		if t != "" && strings.Contains(title, t) {
			return true
		}
	}
	return false
}
