package types

import (
	"bytes"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Response is the markup returned by a fetcher for one URL.
type Response struct {
	// URL is the address that was requested.
	URL string

	// FinalURL is the URL after any redirects.
	FinalURL string

	// StatusCode is the HTTP status code. Browser fetchers report 200 when
	// the engine does not expose the real code.
	StatusCode int

	Headers http.Header

	// Body is the raw (decompressed) markup.
	Body []byte

	FetchDuration time.Duration
	FetchedAt     time.Time

	doc *goquery.Document
}

// NewResponse creates a Response from an http.Response and its decoded body.
func NewResponse(rawURL string, httpResp *http.Response, body []byte, duration time.Duration) *Response {
	finalURL := rawURL
	if httpResp.Request != nil && httpResp.Request.URL != nil {
		finalURL = httpResp.Request.URL.String()
	}
	return &Response{
		URL:           rawURL,
		FinalURL:      finalURL,
		StatusCode:    httpResp.StatusCode,
		Headers:       httpResp.Header,
		Body:          body,
		FetchDuration: duration,
		FetchedAt:     time.Now(),
	}
}

// NewBrowserResponse creates a Response from headless browser output.
func NewBrowserResponse(rawURL string, statusCode int, body []byte, finalURL string, duration time.Duration) *Response {
	if finalURL == "" {
		finalURL = rawURL
	}
	return &Response{
		URL:           rawURL,
		FinalURL:      finalURL,
		StatusCode:    statusCode,
		Headers:       make(http.Header),
		Body:          body,
		FetchDuration: duration,
		FetchedAt:     time.Now(),
	}
}

// NewStaticResponse wraps markup that did not come from the network, such
// as a saved listing page.
func NewStaticResponse(rawURL string, body []byte) *Response {
	return NewBrowserResponse(rawURL, http.StatusOK, body, rawURL, 0)
}

// Document returns a parsed goquery document, lazily initializing it.
func (r *Response) Document() (*goquery.Document, error) {
	if r.doc != nil {
		return r.doc, nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
	if err != nil {
		return nil, err
	}
	r.doc = doc
	return doc, nil
}

// IsSuccess returns true if the response status is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
