package model

import (
	"time"

	"github.com/nao1215/webscraper/internal/wordfreq"
)

// Report is the result of one scraping run.
// Pipeline steps fill it in order; report writers and the history
// database read it afterwards.
//
// Design decision: We use a single struct that accumulates every step's
// output rather than returning values from each step, so that a failed or
// skipped step still leaves the earlier results available for output.
type Report struct {
	// TargetURL is the page the run started from.
	TargetURL string `json:"target_url"`

	// LinkText is the link text searched for (e.g. "privacy policy").
	LinkText string `json:"link_text"`

	// DateScanned is when the run started.
	DateScanned time.Time `json:"date_scanned"`

	// Target is the fetched target page.
	Target *Page `json:"target,omitempty"`

	// ExternalResources lists externally hosted resource locators in
	// document order. Duplicates are kept.
	ExternalResources []string `json:"external_resources"`

	// Hyperlinks lists every anchor with an href in document order.
	Hyperlinks []Hyperlink `json:"hyperlinks"`

	// PolicyFound is true when a hyperlink matched LinkText.
	PolicyFound bool `json:"policy_found"`

	// PolicyHref is the raw destination of the matching hyperlink.
	PolicyHref string `json:"policy_href,omitempty"`

	// PolicyURL is PolicyHref resolved against TargetURL.
	PolicyURL string `json:"policy_url,omitempty"`

	// Policy is the fetched page behind PolicyURL.
	Policy *Page `json:"policy,omitempty"`

	// WordFrequency counts the words of the policy page's visible text.
	WordFrequency *wordfreq.Table `json:"word_frequency,omitempty"`

	// ExportedFiles lists the files written during the run in write order.
	ExportedFiles []string `json:"exported_files"`

	// PerformedSteps lists the names of steps that ran to completion.
	PerformedSteps []string `json:"performed_steps"`

	// SkippedSteps lists the names of steps that had nothing to do.
	SkippedSteps []string `json:"skipped_steps,omitempty"`

	// Error is the error that stopped the run, if any.
	Error error `json:"-"`

	// ErrorMessage is Error as text, kept for JSON output.
	ErrorMessage string `json:"error,omitempty"`
}

// NewReport creates an empty report for a run against targetURL.
func NewReport(targetURL, linkText string) *Report {
	return &Report{
		TargetURL:         targetURL,
		LinkText:          linkText,
		DateScanned:       time.Now(),
		ExternalResources: make([]string, 0),
		Hyperlinks:        make([]Hyperlink, 0),
		ExportedFiles:     make([]string, 0),
		PerformedSteps:    make([]string, 0),
	}
}

// AddExportedFile records a file written during the run.
func (r *Report) AddExportedFile(path string) {
	r.ExportedFiles = append(r.ExportedFiles, path)
}

// TextfulHyperlinks returns the number of hyperlinks that carry link text.
func (r *Report) TextfulHyperlinks() int {
	n := 0
	for _, h := range r.Hyperlinks {
		if h.HasText {
			n++
		}
	}
	return n
}

// Failed reports whether the run stopped on an error.
func (r *Report) Failed() bool {
	return r.Error != nil || r.ErrorMessage != ""
}
