package fetch

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"golang.org/x/net/html/charset"

	"github.com/nao1215/webscraper/internal/markup"
	"github.com/nao1215/webscraper/internal/model"
)

// Defaults used when no option overrides them.
const (
	DefaultUserAgent   = "webscraper/1.0 (+https://github.com/nao1215/webscraper)"
	DefaultMaxBodySize = 5 * 1024 * 1024
)

// acceptHeader prefers HTML but accepts anything.
const acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

// Fetcher downloads and parses single pages.
type Fetcher struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
	headers     map[string]string
	siteHeaders func(pageURL string) map[string]string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize limits how many bytes of a body are read.
// Anything past the limit is silently dropped.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithHeaders adds extra request headers, e.g. a Cookie for consent walls.
func WithHeaders(headers map[string]string) Option {
	return func(f *Fetcher) {
		for k, v := range headers {
			f.headers[k] = v
		}
	}
}

// WithSiteHeaders adds headers chosen per request URL, such as a cookie
// that belongs to one host only. They are applied after WithHeaders.
func WithSiteHeaders(fn func(pageURL string) map[string]string) Option {
	return func(f *Fetcher) {
		f.siteHeaders = fn
	}
}

// NewFetcher returns a Fetcher that sends requests with client.
// A nil client means http.DefaultClient.
func NewFetcher(client *http.Client, opts ...Option) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	f := &Fetcher{
		client:      client,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		headers:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch GETs pageURL and returns the page with its parsed document.
// A transport error, a non-2xx status or an unreadable body returns *Error.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*model.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &Error{URL: pageURL, Message: "invalid request", Cause: err}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}
	if f.siteHeaders != nil {
		for k, v := range f.siteHeaders(pageURL) {
			req.Header.Set(k, v)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &Error{URL: pageURL, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			URL:        pageURL,
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Cause:      ErrUnexpectedStatus,
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, &Error{URL: pageURL, Message: "failed to read body", Cause: err}
	}

	contentType := resp.Header.Get("Content-Type")
	body, err := decode(raw, contentType)
	if err != nil {
		return nil, &Error{URL: pageURL, Message: "failed to decode body", Cause: err}
	}

	doc, err := markup.ParseString(body)
	if err != nil {
		return nil, &Error{URL: pageURL, Message: "failed to parse body", Cause: err}
	}

	page := &model.Page{
		URL:         pageURL,
		StatusCode:  resp.StatusCode,
		Headers:     resp.Header,
		ContentType: contentType,
		Body:        body,
		Document:    doc,
	}
	page.ComputeHash()
	return page, nil
}

// decode converts raw to UTF-8 using the charset declared in contentType
// or in a <meta> tag, falling back to UTF-8 detection. An empty body
// decodes to the empty string.
func decode(raw []byte, contentType string) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	r, err := charset.NewReader(bytes.NewReader(raw), contentType)
	if err != nil {
		return "", err
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
