package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/webscraper/internal/model"
)

// ruleWidth is the width of the separator lines.
const ruleWidth = 70

// SimpleWriter outputs a human-readable text summary.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors so the summary can be piped to files or other tools as is.
type SimpleWriter struct {
	baseWriter

	// topWords is the number of words listed in the frequency section.
	topWords int

	// verbose lists every resource and hyperlink instead of only counts.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithTopWords sets how many words are listed. Non-positive values are ignored.
func WithTopWords(n int) SimpleWriterOption {
	return func(w *SimpleWriter) {
		if n > 0 {
			w.topWords = n
		}
	}
}

// WithVerbose enables the full resource and hyperlink listings.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		topWords:   defaultTopWords,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.Report) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeResources(&sb, report)
	w.writeHyperlinks(&sb, report)
	w.writeWordFrequency(&sb, report)
	w.writeFooter(&sb, report)

	return io.WriteString(w.output, sb.String())
}

// writeSection writes a section title between two rules.
func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}

// writeHeader writes the run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.Report) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                        WEBSCRAPER REPORT\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Target:      %s\n", report.TargetURL)
	fmt.Fprintf(sb, "Scan Date:   %s\n", report.DateScanned.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Link Text:   %s\n", report.LinkText)
	if report.PolicyFound {
		fmt.Fprintf(sb, "Linked Page: %s\n", report.PolicyURL)
	}
	fmt.Fprintf(sb, "Status:      %s\n", statusText(report))
	sb.WriteString("\n")
}

// writeResources writes the external resource section.
func (w *SimpleWriter) writeResources(sb *strings.Builder, report *model.Report) {
	writeSection(sb, "EXTERNAL RESOURCES")

	fmt.Fprintf(sb, "  TOTAL: %d\n", len(report.ExternalResources))
	if w.verbose {
		for _, r := range report.ExternalResources {
			fmt.Fprintf(sb, "  [+] %s\n", r)
		}
	}
	sb.WriteString("\n")
}

// writeHyperlinks writes the hyperlink section.
func (w *SimpleWriter) writeHyperlinks(sb *strings.Builder, report *model.Report) {
	writeSection(sb, "HYPERLINKS")

	fmt.Fprintf(sb, "  TOTAL:     %d\n", len(report.Hyperlinks))
	fmt.Fprintf(sb, "  WITH TEXT: %d\n", report.TextfulHyperlinks())
	if w.verbose {
		for _, h := range report.Hyperlinks {
			if h.HasText {
				fmt.Fprintf(sb, "  * %s (%s)\n", h.Destination, strings.TrimSpace(h.Text))
			} else {
				fmt.Fprintf(sb, "  * %s\n", h.Destination)
			}
		}
	}
	sb.WriteString("\n")
}

// writeWordFrequency writes the most frequent words of the linked page.
func (w *SimpleWriter) writeWordFrequency(sb *strings.Builder, report *model.Report) {
	if report.WordFrequency == nil {
		return
	}

	writeSection(sb, "WORD FREQUENCY")

	fmt.Fprintf(sb, "  DISTINCT: %d\n", report.WordFrequency.Len())
	fmt.Fprintf(sb, "  TOTAL:    %d\n\n", report.WordFrequency.Total())
	for i, e := range report.WordFrequency.Top(w.topWords) {
		fmt.Fprintf(sb, "  %2d. %-20s %d\n", i+1, e.Word, e.Count)
	}
	sb.WriteString("\n")
}

// writeFooter writes the exported files and the closing rule.
func (w *SimpleWriter) writeFooter(sb *strings.Builder, report *model.Report) {
	if len(report.ExportedFiles) > 0 {
		writeSection(sb, "EXPORTED FILES")
		for _, f := range report.ExportedFiles {
			fmt.Fprintf(sb, "  %s\n", f)
		}
		sb.WriteString("\n")
	}

	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("Report generated by webscraper\n")
	sb.WriteString("https://github.com/nao1215/webscraper\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
}
