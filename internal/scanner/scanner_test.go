package scanner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jo-room/job-scrape/internal/model"
)

// --- Fakes ---

// fakePage serves canned visible text per URL.
type fakePage struct {
	texts      map[string]string
	navErr     map[string]error
	visited    []string
	settled    int
	current    string
	onNavigate func()
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.visited = append(p.visited, url)
	if p.onNavigate != nil {
		p.onNavigate()
	}
	if err := p.navErr[url]; err != nil {
		return err
	}
	p.current = url
	return nil
}

func (p *fakePage) Settle(context.Context) error {
	p.settled++
	return nil
}

func (p *fakePage) VisibleText() (string, error) { return p.texts[p.current], nil }
func (p *fakePage) URL() string                  { return p.current }

func (p *fakePage) Document() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(p.texts[p.current]))
}

func (p *fakePage) EnterFrame(context.Context, string) (model.Page, error) {
	return nil, model.ErrPageMismatch
}

func (p *fakePage) Responses(string) []model.Response { return nil }

func (p *fakePage) Request(context.Context, string, string, []byte) (model.Response, error) {
	return model.Response{}, errors.New("not supported")
}

// staticReader returns postings keyed by the page's current URL.
func staticReader(byURL map[string][]model.JobPosting) model.Reader {
	return model.ReaderFunc(func(_ context.Context, page model.Page) ([]model.JobPosting, error) {
		return byURL[page.URL()], nil
	})
}

func failingReader(err error) model.Reader {
	return model.ReaderFunc(func(context.Context, model.Page) ([]model.JobPosting, error) {
		return nil, err
	})
}

// --- Helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestScanner(page model.Page, opts Options) (*Scanner, *[]time.Duration) {
	s := New(page, opts, discardLogger())
	var slept []time.Duration
	s.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return s, &slept
}

func postings(ids ...string) []model.JobPosting {
	out := make([]model.JobPosting, len(ids))
	for i, id := range ids {
		out[i] = model.JobPosting{ID: id, Title: "Engineer " + id, Link: id}
	}
	return out
}

func timePtr(t time.Time) *time.Time { return &t }

func outcomeFor(t *testing.T, res Result, name string) Outcome {
	t.Helper()
	for _, o := range res.Outcomes {
		if o.Source.Name == name {
			return o
		}
	}
	t.Fatalf("no outcome for %q in %+v", name, res.Outcomes)
	return Outcome{}
}

// --- Tests ---

func TestScan_NoPhraseEmptyNeedsManualCheck(t *testing.T) {
	page := &fakePage{texts: map[string]string{"https://acme.example/jobs": "Careers at Acme"}}
	s, _ := newTestScanner(page, Options{})
	src := model.Source{Name: "acme", Active: true, PageURL: "https://acme.example/jobs", Reader: staticReader(nil)}

	res, err := s.Scan(context.Background(), []model.Source{src})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	out := outcomeFor(t, res, "acme")
	if out.Err != nil || out.Status != model.StatusNoJobsFound {
		t.Fatalf("outcome = %+v, want NO_JOBS_FOUND", out)
	}
	if got := res.ManualCheck(); len(got) != 1 || got[0].Name != "acme" {
		t.Errorf("ManualCheck = %+v, want [acme]", got)
	}
	if len(res.Failures()) != 0 {
		t.Errorf("Failures = %+v, want none", res.Failures())
	}
}

func TestScan_PhraseFoundConfirmsEmpty(t *testing.T) {
	page := &fakePage{texts: map[string]string{"https://acme.example/jobs": "Sorry, there are No Openings right now"}}
	s, _ := newTestScanner(page, Options{})
	src := model.Source{
		Name: "acme", Active: true, PageURL: "https://acme.example/jobs",
		NoJobsPhrase: "no openings", Reader: staticReader(nil),
	}

	res, err := s.Scan(context.Background(), []model.Source{src})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if out := outcomeFor(t, res, "acme"); out.Status != model.StatusSpecificNoJobsPhraseFound {
		t.Errorf("Status = %s, want SPECIFIC_NO_JOBS_PHRASE_FOUND", out.Status)
	}
	if got := res.ManualCheck(); len(got) != 0 {
		t.Errorf("ManualCheck = %+v, want none", got)
	}
}

func TestScan_PhraseFoundWithMismatchIsConfirmedEmpty(t *testing.T) {
	page := &fakePage{texts: map[string]string{"https://acme.example/jobs": "no openings"}}
	s, _ := newTestScanner(page, Options{})
	src := model.Source{
		Name: "acme", Active: true, PageURL: "https://acme.example/jobs",
		NoJobsPhrase: "no openings",
		Reader:       failingReader(fmt.Errorf("container: %w", model.ErrPageMismatch)),
	}

	res, _ := s.Scan(context.Background(), []model.Source{src})
	out := outcomeFor(t, res, "acme")
	if out.Err != nil || out.Status != model.StatusSpecificNoJobsPhraseFound {
		t.Errorf("outcome = %+v, want confirmed empty", out)
	}
}

func TestScan_FailureIsIsolated(t *testing.T) {
	page := &fakePage{texts: map[string]string{
		"https://a.example": "A careers",
		"https://x.example": "X careers",
		"https://b.example": "B careers",
	}}
	reader := staticReader(map[string][]model.JobPosting{
		"https://a.example": postings("a1", "a2"),
		"https://b.example": postings("b1"),
	})
	sources := []model.Source{
		{Name: "a", Active: true, PageURL: "https://a.example", Reader: reader},
		{Name: "x", Active: true, PageURL: "https://x.example", Reader: failingReader(errors.New("boom"))},
		{Name: "b", Active: true, PageURL: "https://b.example", Reader: reader},
	}
	s, _ := newTestScanner(page, Options{})

	res, err := s.Scan(context.Background(), sources)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(res.Outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(res.Outcomes))
	}
	failures := res.Failures()
	if len(failures) != 1 || failures[0].SourceName != "x" || failures[0].PageURL != "https://x.example" {
		t.Fatalf("Failures = %+v, want one for x", failures)
	}
	if !strings.Contains(failures[0].Err.Error(), "boom") {
		t.Errorf("failure error = %v, want reader cause", failures[0].Err)
	}
	got := res.Postings()
	if len(got) != 2 || got[0].Source != "a" || len(got[0].Postings) != 2 || got[1].Source != "b" {
		t.Errorf("Postings = %+v", got)
	}
}

func TestScan_PageErrors(t *testing.T) {
	navErr := errors.New("connection refused")
	tests := []struct {
		name    string
		page    *fakePage
		reader  model.Reader
		wantErr error
		wantMsg string
	}{
		{
			name:    "navigation failure",
			page:    &fakePage{navErr: map[string]error{"https://acme.example": navErr}},
			reader:  staticReader(nil),
			wantErr: navErr,
		},
		{
			name:    "empty page text",
			page:    &fakePage{texts: map[string]string{"https://acme.example": "  \n "}},
			reader:  staticReader(nil),
			wantErr: model.ErrNoPageText,
		},
		{
			name:    "human verification",
			page:    &fakePage{texts: map[string]string{"https://acme.example": "Please verify you are human to continue"}},
			reader:  staticReader(nil),
			wantErr: model.ErrHumanVerification,
			wantMsg: "Please verify you are human to continue",
		},
		{
			name:    "no reader",
			page:    &fakePage{texts: map[string]string{"https://acme.example": "Open roles: Carpenter"}},
			wantErr: model.ErrNoReader,
			wantMsg: "Open roles: Carpenter",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestScanner(tt.page, Options{})
			src := model.Source{Name: "acme", Active: true, PageURL: "https://acme.example", Reader: tt.reader}

			res, err := s.Scan(context.Background(), []model.Source{src})
			if err != nil {
				t.Fatalf("Scan: %v", err)
			}
			out := outcomeFor(t, res, "acme")
			if !errors.Is(out.Err, tt.wantErr) {
				t.Fatalf("Err = %v, want %v", out.Err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(out.Err.Error(), tt.wantMsg) {
				t.Errorf("Err = %q, want it to contain %q", out.Err, tt.wantMsg)
			}
		})
	}
}

func TestScan_RelevanceFilter(t *testing.T) {
	page := &fakePage{texts: map[string]string{"https://acme.example": "jobs"}}
	reader := staticReader(map[string][]model.JobPosting{"https://acme.example": {
		{ID: "1", Title: "Software Engineer"},
		{ID: "2", Title: "Lead Carpenter"},
	}})
	s, _ := newTestScanner(page, Options{SearchTerms: []string{"engineer"}})

	res, _ := s.Scan(context.Background(), []model.Source{
		{Name: "acme", Active: true, PageURL: "https://acme.example", Reader: reader},
	})
	out := outcomeFor(t, res, "acme")
	if len(out.Postings) != 1 || out.Postings[0].ID != "1" {
		t.Errorf("Postings = %+v, want only id 1", out.Postings)
	}
	if out.Status != model.StatusSomeJobFound {
		t.Errorf("Status = %s, want SOME_JOB_FOUND", out.Status)
	}
}

func TestScan_LimiterAndInactive(t *testing.T) {
	page := &fakePage{texts: map[string]string{"https://a.example": "a", "https://b.example": "b"}}
	reader := staticReader(nil)
	s, _ := newTestScanner(page, Options{Limit: "ACME"})

	res, err := s.Scan(context.Background(), []model.Source{
		{Name: "Acme Corp", Active: true, PageURL: "https://a.example", Reader: reader},
		{Name: "acme labs", Active: false, PageURL: "https://b.example", Reader: reader},
		{Name: "Globex", Active: true, PageURL: "https://b.example", Reader: reader},
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(res.Outcomes) != 1 || res.Outcomes[0].Source.Name != "Acme Corp" {
		t.Errorf("Outcomes = %+v, want only Acme Corp", res.Outcomes)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "acme labs" {
		t.Errorf("Skipped = %v, want [acme labs]", res.Skipped)
	}
	if len(page.visited) != 1 {
		t.Errorf("visited = %v, want one page", page.visited)
	}
}

func TestScan_Delays(t *testing.T) {
	page := &fakePage{texts: map[string]string{"https://a.example": "a", "https://b.example": "b"}}
	s, slept := newTestScanner(page, Options{DefaultSleep: 3 * time.Second})

	_, err := s.Scan(context.Background(), []model.Source{
		{Name: "a", Active: true, PageURL: "https://a.example", Reader: staticReader(nil)},
		{Name: "b", Active: true, PageURL: "https://b.example", Reader: staticReader(nil),
			LoadDelay: 5 * time.Second, SettleDelay: time.Second},
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	want := []time.Duration{3 * time.Second, 3 * time.Second, 5 * time.Second, time.Second}
	if fmt.Sprint(*slept) != fmt.Sprint(want) {
		t.Errorf("slept = %v, want %v", *slept, want)
	}
	if page.settled != 2 {
		t.Errorf("settled = %d, want 2", page.settled)
	}
}

func TestScan_MultiPageMergesAndDedups(t *testing.T) {
	early := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	page := &fakePage{texts: map[string]string{
		"https://hub.example/1": "page one",
		"https://hub.example/2": "page two",
	}}
	hub := staticReader(map[string][]model.JobPosting{
		"https://hub.example/1": {
			{ID: "undated", Title: "Undated"},
			{ID: "P", Title: "Shared", PostedAt: timePtr(early)},
		},
		"https://hub.example/2": {
			{ID: "P", Title: "Shared again", PostedAt: timePtr(early)},
			{ID: "new", Title: "Newest", PostedAt: timePtr(late)},
		},
	})
	src := model.Source{
		Name:   "funding",
		Active: true,
		Pages: []model.ScrapePage{
			{Kind: "hub", URL: "https://hub.example/1"},
			{Kind: "hub", URL: "https://hub.example/2"},
		},
		PageReaders: map[string]model.Reader{"hub": hub},
	}
	s, _ := newTestScanner(page, Options{SearchTerms: []string{"nothing matches this"}})

	res, err := s.Scan(context.Background(), []model.Source{src})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	out := outcomeFor(t, res, "funding")
	var ids, titles []string
	for _, p := range out.Postings {
		ids = append(ids, p.ID)
		titles = append(titles, p.Title)
	}
	if got, want := strings.Join(ids, ","), "new,P,undated"; got != want {
		t.Errorf("ids = %s, want %s", got, want)
	}
	if titles[1] != "Shared (https://hub.example/1)" {
		t.Errorf("first occurrence should win, got title %q", titles[1])
	}
	if out.Status != model.StatusSomeJobFound {
		t.Errorf("Status = %s, want SOME_JOB_FOUND", out.Status)
	}
}

func TestScan_MultiPageFiltersOnTitleOnly(t *testing.T) {
	const hubURL = "https://hub.example/engineering-roles"
	page := &fakePage{texts: map[string]string{hubURL: "open roles"}}
	src := model.Source{
		Name:          "hub",
		Active:        true,
		RelevantTerms: []string{"engineer"},
		Pages:         []model.ScrapePage{{Kind: "hub", URL: hubURL}},
		PageReaders: map[string]model.Reader{"hub": staticReader(map[string][]model.JobPosting{
			hubURL: {
				{ID: "sales", Title: "Sales Manager"},
				{ID: "eng", Title: "Staff Engineer"},
			},
		})},
	}
	s, _ := newTestScanner(page, Options{})

	res, err := s.Scan(context.Background(), []model.Source{src})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	out := outcomeFor(t, res, "hub")
	if len(out.Postings) != 1 || out.Postings[0].ID != "eng" {
		t.Fatalf("Postings = %+v, want only the engineer posting", out.Postings)
	}
	if want := "Staff Engineer (" + hubURL + ")"; out.Postings[0].Title != want {
		t.Errorf("Title = %q, want %q", out.Postings[0].Title, want)
	}
}

func TestScan_MultiPageErrors(t *testing.T) {
	page := &fakePage{texts: map[string]string{"https://hub.example/1": "x", "https://hub.example/2": "y"}}
	s, _ := newTestScanner(page, Options{})

	t.Run("kind without reader", func(t *testing.T) {
		src := model.Source{
			Name: "funding", Active: true,
			Pages:       []model.ScrapePage{{Kind: "list", URL: "https://hub.example/1"}},
			PageReaders: map[string]model.Reader{},
		}
		res, _ := s.Scan(context.Background(), []model.Source{src})
		out := outcomeFor(t, res, "funding")
		if !errors.Is(out.Err, model.ErrNoReader) {
			t.Errorf("Err = %v, want ErrNoReader", out.Err)
		}
		if f := res.Failures(); len(f) != 1 || f[0].PageURL != "https://hub.example/1" {
			t.Errorf("Failures = %+v, want first page url", f)
		}
	})

	t.Run("all pages empty", func(t *testing.T) {
		src := model.Source{
			Name: "funding", Active: true,
			Pages:       []model.ScrapePage{{Kind: "hub", URL: "https://hub.example/1"}, {Kind: "hub", URL: "https://hub.example/2"}},
			PageReaders: map[string]model.Reader{"hub": staticReader(nil)},
		}
		res, _ := s.Scan(context.Background(), []model.Source{src})
		if out := outcomeFor(t, res, "funding"); out.Status != model.StatusPhraseNotFoundButNoJobs {
			t.Errorf("Status = %s, want NO_JOBS_PHRASE_NOT_FOUND_BUT_NO_JOBS", out.Status)
		}
	})
}

func TestScan_CancelledBetweenSources(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	page := &fakePage{texts: map[string]string{"https://a.example": "a", "https://b.example": "b"}}
	page.onNavigate = cancel
	s, _ := newTestScanner(page, Options{})

	_, err := s.Scan(ctx, []model.Source{
		{Name: "a", Active: true, PageURL: "https://a.example", Reader: staticReader(nil)},
		{Name: "b", Active: true, PageURL: "https://b.example", Reader: staticReader(nil)},
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Scan err = %v, want context.Canceled", err)
	}
	if len(page.visited) != 1 {
		t.Errorf("visited = %v, want scan to stop after the first source", page.visited)
	}
}

func TestExcerpt(t *testing.T) {
	if got := excerpt("  a \n\t b  "); got != "a b" {
		t.Errorf("excerpt = %q, want %q", got, "a b")
	}
	long := strings.Repeat("x", excerptLen+10)
	if got := excerpt(long); len(got) != excerptLen+3 || !strings.HasSuffix(got, "...") {
		t.Errorf("excerpt of long text has length %d", len(got))
	}
}
