package report

import (
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/webscraper/internal/model"
)

// maxCellLength caps table cells so long URLs don't break the layout.
const maxCellLength = 80

// MarkdownWriter outputs the run summary in Markdown.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides tables, code blocks, mermaid charts and
// GitHub-flavored alerts without hand-written escaping.
type MarkdownWriter struct {
	baseWriter

	// topWords is the number of words in the table and pie chart.
	topWords int
}

// MarkdownWriterOption configures a MarkdownWriter.
type MarkdownWriterOption func(*MarkdownWriter)

// WithMarkdownTopWords sets how many words are shown.
func WithMarkdownTopWords(n int) MarkdownWriterOption {
	return func(w *MarkdownWriter) {
		if n > 0 {
			w.topWords = n
		}
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownWriterOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		topWords:   defaultTopWords,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeResources(md, report)
	w.writeHyperlinks(md, report)
	w.writeWordFrequency(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run information table and the status alert.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.Report) {
	md.H1("Webscraper Report")
	md.PlainText("")

	rows := [][]string{
		{"Target", "`" + report.TargetURL + "`"},
		{"Scan Date", report.DateScanned.Format("2006-01-02 15:04:05 MST")},
		{"Link Text", report.LinkText},
	}
	if report.PolicyFound {
		rows = append(rows, []string{"Linked Page", "`" + report.PolicyURL + "`"})
	}
	rows = append(rows, []string{"Status", statusText(report)})

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	switch {
	case report.Failed():
		md.Cautionf("The run stopped early: %s", statusText(report))
	case !report.PolicyFound:
		md.Warningf("Could not find a valid link to a %s!", report.LinkText)
	default:
		md.Tip("Linked page found and analyzed.")
	}
	md.PlainText("")
}

// writeResources writes the external resource list.
func (w *MarkdownWriter) writeResources(md *markdown.Markdown, report *model.Report) {
	md.H2("External Resources")
	md.PlainText("")

	if len(report.ExternalResources) == 0 {
		md.PlainText("No external resources found.")
		md.PlainText("")
		return
	}

	items := make([]string, 0, len(report.ExternalResources))
	for _, r := range report.ExternalResources {
		items = append(items, "`"+truncateString(r, maxCellLength)+"`")
	}
	md.BulletList(items...)
	md.PlainText("")
}

// writeHyperlinks writes the hyperlink table.
func (w *MarkdownWriter) writeHyperlinks(md *markdown.Markdown, report *model.Report) {
	md.H2("Hyperlinks")
	md.PlainText("")

	if len(report.Hyperlinks) == 0 {
		md.PlainText("No hyperlinks found.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Hyperlinks))
	for i, h := range report.Hyperlinks {
		text := "-"
		if h.HasText {
			text = truncateString(h.Text, maxCellLength)
		}
		rows[i] = []string{truncateString(h.Destination, maxCellLength), text}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Destination", "Text"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeWordFrequency writes the top words table and a pie chart.
func (w *MarkdownWriter) writeWordFrequency(md *markdown.Markdown, report *model.Report) {
	if report.WordFrequency == nil {
		return
	}

	md.H2("Word Frequency")
	md.PlainText("")

	top := report.WordFrequency.Top(w.topWords)
	if len(top) == 0 {
		md.PlainText("The linked page has no visible words.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(top))
	for i, e := range top {
		rows[i] = []string{strconv.Itoa(i + 1), e.Word, strconv.Itoa(e.Count)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Rank", "Word", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Top Words"),
		piechart.WithShowData(true),
	)
	for _, e := range top {
		chart.LabelAndIntValue(e.Word, uint64(e.Count))
	}
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")

	md.PlainTextf("%d distinct words, %d in total.", report.WordFrequency.Len(), report.WordFrequency.Total())
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [webscraper](https://github.com/nao1215/webscraper)*")
}

// truncateString truncates a string to at most maxLen bytes with an
// ellipsis. It never cuts inside a UTF-8 sequence.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:runeBoundary(s, maxLen)]
	}
	return s[:runeBoundary(s, maxLen-3)] + "..."
}

// runeBoundary returns the largest i <= n that starts a rune in s.
func runeBoundary(s string, n int) int {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return n
}
