package reader

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jo-room/job-scrape/internal/model"
)

// ripplingNote is appended to every title: Rippling lists one location per
// row even when the same link covers several.
const ripplingNote = " (note this only shows one location but there might be multiple for this same link)"

// RipplingReader reads Rippling boards, where each posting is the grandparent
// of an anchor into /jobs that is not the Apply button.
type RipplingReader struct{}

func (RipplingReader) GetJobs(_ context.Context, page model.Page) ([]model.JobPosting, error) {
	doc, err := page.Document()
	if err != nil {
		return nil, err
	}

	var jobs []model.JobPosting
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.Contains(href, "jobs") || strings.TrimSpace(a.Text()) == "Apply" {
			return
		}
		row := a.Parent().Parent()
		rowHref, ok := row.Find("a[href]").First().Attr("href")
		if !ok {
			rowHref = href
		}
		link := absolute(page.URL(), rowHref)
		jobs = append(jobs, model.JobPosting{
			ID:    link,
			Title: elementText(row) + ripplingNote,
			Link:  link,
		})
	})
	return jobs, nil
}
