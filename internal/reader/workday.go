package reader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/jo-room/job-scrape/internal/model"
)

var _ model.Reader = (*WorkdayReader)(nil)

const (
	workdayPageSize = 20
	workdayMaxPages = 50

	// Entries without a title carry only bulletFields and are skipped.
	workdayPostingsExpr = "jobPostings[?title].{title: title, path: externalPath}"
)

var workdayLocaleRegex = regexp.MustCompile(`^[a-z]{2}-[A-Z]{2}$`)

// workdayListingRequest is the POST body for the Workday jobs listing endpoint.
type workdayListingRequest struct {
	AppliedFacets map[string]any `json:"appliedFacets"`
	Limit         int            `json:"limit"`
	Offset        int            `json:"offset"`
	SearchText    string         `json:"searchText"`
}

// WorkdayReader reads Workday career sites from their jobs listing API.
// Responses the page already captured are used when present; otherwise the
// listing endpoint is paged through in the same session.
type WorkdayReader struct {
	apiURL     string // derived from the page URL when empty
	searchText string
	maxPages   int
}

// NewWorkdayReader builds a WorkdayReader from reader_options.
func NewWorkdayReader(opts Options) *WorkdayReader {
	return &WorkdayReader{
		apiURL:     opts.String("api_url", ""),
		searchText: opts.String("search_text", ""),
		maxPages:   opts.Int("max_pages", workdayMaxPages),
	}
}

// GetJobs implements model.Reader.
func (r *WorkdayReader) GetJobs(ctx context.Context, page model.Page) ([]model.JobPosting, error) {
	base := strings.SplitN(page.URL(), "?", 2)[0]

	var bodies []any
	for _, resp := range page.Responses("/jobs") {
		if resp.Method != http.MethodPost || !isJSON(resp) {
			continue
		}
		data, err := decodeJSON(resp)
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, data)
	}

	if len(bodies) == 0 {
		fetched, err := r.fetchListings(ctx, page)
		if err != nil {
			return nil, err
		}
		bodies = fetched
	}

	var jobs []model.JobPosting
	for _, data := range bodies {
		postings, err := searchList(workdayPostingsExpr, data)
		if err != nil {
			return nil, err
		}
		for _, p := range postings {
			title, _ := searchString("title", p)
			path, _ := searchString("path", p)
			if path == "" {
				return nil, fmt.Errorf("workday posting %q has no externalPath: %w", title, model.ErrPageMismatch)
			}
			link := base + path
			jobs = append(jobs, model.JobPosting{ID: link, Title: title, Link: link})
		}
	}
	return jobs, nil
}

func (r *WorkdayReader) fetchListings(ctx context.Context, page model.Page) ([]any, error) {
	api := r.apiURL
	if api == "" {
		var err error
		if api, err = workdayAPIURL(page.URL()); err != nil {
			return nil, err
		}
	}

	var bodies []any
	offset := 0
	for i := 0; i < r.maxPages; i++ {
		reqBody, err := json.Marshal(workdayListingRequest{
			AppliedFacets: map[string]any{},
			Limit:         workdayPageSize,
			Offset:        offset,
			SearchText:    r.searchText,
		})
		if err != nil {
			return nil, fmt.Errorf("workday listing marshal: %w", err)
		}

		resp, err := page.Request(ctx, http.MethodPost, api, reqBody)
		if err != nil {
			return nil, fmt.Errorf("workday listing fetch: %w", err)
		}
		data, err := decodeJSON(resp)
		if err != nil {
			return nil, err
		}
		bodies = append(bodies, data)

		total, err := searchString("total", data)
		if err != nil {
			return nil, err
		}
		postings, err := searchList("jobPostings", data)
		if err != nil {
			return nil, err
		}

		offset += workdayPageSize
		n, _ := strconv.Atoi(total)
		if len(postings) == 0 || offset >= n {
			break
		}
	}
	return bodies, nil
}

// workdayAPIURL derives the listing endpoint from a career site URL:
// https://acme.wd5.myworkdayjobs.com/en-US/External becomes
// https://acme.wd5.myworkdayjobs.com/wday/cxs/acme/External/jobs.
func workdayAPIURL(pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("workday page url: %w", err)
	}
	tenant, _, ok := strings.Cut(u.Hostname(), ".")
	if !ok || tenant == "" {
		return "", fmt.Errorf("workday page url %q: no tenant in host: %w", pageURL, model.ErrPageMismatch)
	}

	var site string
	for _, seg := range strings.Split(strings.Trim(u.Path, "/"), "/") {
		if seg == "" || workdayLocaleRegex.MatchString(seg) {
			continue
		}
		site = seg
		break
	}
	if site == "" {
		return "", fmt.Errorf("workday page url %q: no site in path: %w", pageURL, model.ErrPageMismatch)
	}
	return fmt.Sprintf("%s://%s/wday/cxs/%s/%s/jobs", u.Scheme, u.Host, tenant, site), nil
}
