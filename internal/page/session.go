// Package page implements model.Page over plain HTTP. Navigation and
// side requests go through a synchronous colly collector, which captures
// every response; the current document is parsed with goquery.
package page

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/jo-room/job-scrape/internal/model"
)

var _ model.Page = (*Session)(nil)

// Limiter spaces out requests; satisfied by *ratelimit.HostLimiter.
type Limiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// Options configures a Session.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	Limiter   Limiter // optional
}

// Session is one HTTP browsing session shared by every source in a run.
type Session struct {
	collector *colly.Collector
	limiter   Limiter
	logger    *slog.Logger
	state     *sessionState
	frame     bool

	url string
	doc *goquery.Document
}

// sessionState is shared between a Session and the frames entered from it.
type sessionState struct {
	last     *model.Response
	captured []model.Response
}

// New creates a session.
func New(opts Options, logger *slog.Logger) *Session {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
	)
	if opts.UserAgent != "" {
		c.UserAgent = opts.UserAgent
	}
	if opts.Timeout > 0 {
		c.SetRequestTimeout(opts.Timeout)
	}

	st := &sessionState{}
	c.OnResponse(func(r *colly.Response) {
		resp := model.Response{
			URL:    r.Request.URL.String(),
			Method: r.Request.Method,
			Status: r.StatusCode,
			Body:   append([]byte(nil), r.Body...),
		}
		if r.Headers != nil {
			resp.Header = r.Headers.Clone()
		}
		st.last = &resp
		st.captured = append(st.captured, resp)
	})

	return &Session{
		collector: c,
		limiter:   opts.Limiter,
		logger:    logger,
		state:     st,
	}
}

// Navigate loads rawURL as the current document. Captured responses from the
// previous page are discarded, except when navigating inside a frame.
func (s *Session) Navigate(ctx context.Context, rawURL string) error {
	if !s.frame {
		s.state.captured = nil
	}
	resp, err := s.do(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", rawURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return fmt.Errorf("parse %s: %w", rawURL, err)
	}
	s.url = resp.URL
	s.doc = doc
	s.logger.Debug("navigated", "url", s.url, "status", resp.Status, "bytes", len(resp.Body))
	return nil
}

// Settle is a no-op: static HTML has no lazy content to materialize.
func (s *Session) Settle(ctx context.Context) error {
	return ctx.Err()
}

// VisibleText returns the body text with scripts and styles removed and
// whitespace collapsed.
func (s *Session) VisibleText() (string, error) {
	if s.doc == nil {
		return "", fmt.Errorf("no document loaded")
	}
	body := s.doc.Find("body").Clone()
	body.Find("script, style, noscript, template").Remove()
	return strings.Join(strings.Fields(body.Text()), " "), nil
}

// Document returns the current parsed document.
func (s *Session) Document() (*goquery.Document, error) {
	if s.doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}
	return s.doc, nil
}

// URL returns the current document address.
func (s *Session) URL() string {
	return s.url
}

// EnterFrame loads the src of the first element matching selector and
// returns a Session scoped to it. The receiver's document is unchanged.
func (s *Session) EnterFrame(ctx context.Context, selector string) (model.Page, error) {
	if s.doc == nil {
		return nil, fmt.Errorf("no document loaded")
	}
	src, ok := s.doc.Find(selector).First().Attr("src")
	if !ok || strings.TrimSpace(src) == "" {
		return nil, fmt.Errorf("frame %q: %w", selector, model.ErrPageMismatch)
	}
	abs, err := resolve(s.url, src)
	if err != nil {
		return nil, fmt.Errorf("frame %q: %w", selector, err)
	}

	frame := &Session{
		collector: s.collector,
		limiter:   s.limiter,
		logger:    s.logger,
		state:     s.state,
		frame:     true,
	}
	if err := frame.Navigate(ctx, abs); err != nil {
		return nil, err
	}
	return frame, nil
}

// Responses returns captured responses whose URL contains match.
func (s *Session) Responses(match string) []model.Response {
	var out []model.Response
	for _, r := range s.state.captured {
		if strings.Contains(r.URL, match) {
			out = append(out, r)
		}
	}
	return out
}

// Request performs a request without changing the current document.
func (s *Session) Request(ctx context.Context, method, rawURL string, body []byte) (model.Response, error) {
	resp, err := s.do(ctx, method, rawURL, body)
	if err != nil {
		return model.Response{}, fmt.Errorf("%s %s: %w", method, rawURL, err)
	}
	return resp, nil
}

func (s *Session) do(ctx context.Context, method, rawURL string, body []byte) (model.Response, error) {
	if err := ctx.Err(); err != nil {
		return model.Response{}, err
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, rawURL); err != nil {
			return model.Response{}, err
		}
	}

	s.state.last = nil
	var hdr http.Header
	var reqBody *bytes.Reader
	if body != nil {
		hdr = http.Header{"Content-Type": []string{"application/json"}, "Accept": []string{"application/json"}}
		reqBody = bytes.NewReader(body)
	}

	var err error
	if reqBody != nil {
		err = s.collector.Request(method, rawURL, reqBody, nil, hdr)
	} else {
		err = s.collector.Request(method, rawURL, nil, nil, hdr)
	}
	if err != nil {
		return model.Response{}, err
	}
	if s.state.last == nil {
		return model.Response{}, fmt.Errorf("no response received")
	}

	resp := *s.state.last
	if resp.Status < 200 || resp.Status >= 300 {
		return resp, &model.HTTPError{
			StatusCode: resp.Status,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("unexpected status %d", resp.Status),
		}
	}
	return resp, nil
}

func resolve(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}
