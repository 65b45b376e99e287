package model

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/nao1215/webscraper/internal/markup"
)

// Page represents a fetched web page.
// It holds the response metadata, the decoded body and, once parsed, the
// document tree. Body and Document are never serialized; they only live for
// the duration of a run.
type Page struct {
	// URL is the URL that was requested.
	URL string `json:"url"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// Headers contains all HTTP response headers.
	Headers map[string][]string `json:"-"`

	// ContentType is the MIME type of the response.
	ContentType string `json:"content_type"`

	// Body is the response body decoded to UTF-8.
	Body string `json:"-"`

	// Hash is the SHA3-256 hash of Body, hex encoded.
	// Used by the history command to tell whether a page changed between runs.
	Hash string `json:"hash"`

	// Size is the length of Body in bytes.
	Size int `json:"size"`

	// Document is the parsed markup tree of Body.
	Document *markup.Node `json:"-"`
}

// ComputeHash calculates and sets the hash and size of the page body.
func (p *Page) ComputeHash() {
	p.Size = len(p.Body)
	if p.Body == "" {
		p.Hash = ""
		return
	}

	sum := sha3.Sum256([]byte(p.Body))
	p.Hash = hex.EncodeToString(sum[:])
}

// GetHeader returns the first value of the specified header.
// Returns empty string if the header is not present.
func (p *Page) GetHeader(name string) string {
	if values, ok := p.Headers[name]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}

// IsHTML returns true if the page content type indicates HTML.
// An empty content type is treated as HTML since servers often omit it.
func (p *Page) IsHTML() bool {
	ct := strings.ToLower(p.ContentType)
	return ct == "" ||
		strings.HasPrefix(ct, "text/html") ||
		strings.HasPrefix(ct, "application/xhtml+xml")
}

// Release drops the body and document tree once extraction is finished.
// Metadata (URL, status, hash) stays available for reporting.
func (p *Page) Release() {
	p.Body = ""
	p.Document = nil
}
