package report

import (
	"io"

	"github.com/nao1215/webscraper/internal/model"
)

// defaultTopWords is how many words the summaries list.
const defaultTopWords = 10

// Writer writes a run summary.
// Implementations differ only in format; all of them accept the same Report.
type Writer interface {
	// Write outputs the summary and returns the number of bytes written.
	Write(report *model.Report) (int, error)
}

// MultiWriter writes the same report through several Writers.
// We don't use io.MultiWriter because each format renders on its own.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to every Writer and returns the total byte count.
// It stops at the first error.
func (m *MultiWriter) Write(report *model.Report) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides the output destination shared by the writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// statusText summarizes how the run ended.
func statusText(report *model.Report) string {
	switch {
	case report.Failed():
		msg := report.ErrorMessage
		if msg == "" && report.Error != nil {
			msg = report.Error.Error()
		}
		return "ERROR - " + msg
	case !report.PolicyFound:
		return "Link not found"
	default:
		return "Complete"
	}
}
