package model

import (
	"context"
	"net/http"

	"github.com/PuerkitoBio/goquery"
)

// Response is a network response captured by a Page session.
type Response struct {
	URL    string
	Method string
	Status int
	Header http.Header
	Body   []byte
}

// Page is a handle on one browsing session. A single Page is shared by every
// source in a run, so implementations need not be safe for concurrent use.
type Page interface {
	// Navigate loads url and makes it the current document.
	Navigate(ctx context.Context, url string) error
	// Settle forces lazily loaded content to materialize (scroll to bottom).
	Settle(ctx context.Context) error
	// VisibleText returns the text content of the current document body.
	VisibleText() (string, error)
	// Document returns the parsed DOM of the current document.
	Document() (*goquery.Document, error)
	// URL returns the address of the current document.
	URL() string
	// EnterFrame returns a Page scoped to the embedded frame matching selector.
	EnterFrame(ctx context.Context, selector string) (Page, error)
	// Responses returns captured responses whose URL contains match, oldest first.
	Responses(match string) []Response
	// Request issues a request in the same session without changing the current
	// document. The response is captured as well as returned.
	Request(ctx context.Context, method, url string, body []byte) (Response, error)
}
