package reader

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jo-room/job-scrape/internal/model"
)

// fakePage is an in-memory model.Page over a fixed document.
type fakePage struct {
	url       string
	html      string
	frames    map[string]*fakePage
	responses []model.Response
	handler   func(method, url string, body []byte) (model.Response, error)
	requests  int
}

var _ model.Page = (*fakePage)(nil)

func (p *fakePage) Navigate(context.Context, string) error { return nil }
func (p *fakePage) Settle(context.Context) error           { return nil }
func (p *fakePage) URL() string                            { return p.url }

func (p *fakePage) VisibleText() (string, error) {
	doc, err := p.Document()
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(doc.Find("body").Text()), " "), nil
}

func (p *fakePage) Document() (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(p.html))
}

func (p *fakePage) EnterFrame(_ context.Context, selector string) (model.Page, error) {
	f, ok := p.frames[selector]
	if !ok {
		return nil, fmt.Errorf("frame %q: %w", selector, model.ErrPageMismatch)
	}
	return f, nil
}

func (p *fakePage) Responses(match string) []model.Response {
	var out []model.Response
	for _, r := range p.responses {
		if strings.Contains(r.URL, match) {
			out = append(out, r)
		}
	}
	return out
}

func (p *fakePage) Request(_ context.Context, method, url string, body []byte) (model.Response, error) {
	p.requests++
	if p.handler == nil {
		return model.Response{}, fmt.Errorf("unexpected request %s %s", method, url)
	}
	resp, err := p.handler(method, url, body)
	if err == nil {
		p.responses = append(p.responses, resp)
	}
	return resp, err
}

func jsonResponse(method, url, body string) model.Response {
	return model.Response{
		URL:    url,
		Method: method,
		Status: http.StatusOK,
		Header: http.Header{"Content-Type": []string{"application/json; charset=utf-8"}},
		Body:   []byte(body),
	}
}
