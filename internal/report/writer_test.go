package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/nao1215/webscraper/internal/model"
	"github.com/nao1215/webscraper/internal/wordfreq"
)

// createTestReport creates a report with sample data for testing.
func createTestReport() *model.Report {
	report := model.NewReport("https://www.example.com", "privacy policy")
	report.ExternalResources = []string{
		"https://cdn.example.com/a.js",
		"https://fonts.example.com/f.css?family=A&display=swap",
	}
	report.Hyperlinks = []model.Hyperlink{
		model.NewHyperlink("/privacy", "Privacy Policy"),
		model.NewTextlessHyperlink("/home"),
	}
	report.PolicyFound = true
	report.PolicyHref = "/privacy"
	report.PolicyURL = "https://www.example.com/privacy"
	report.WordFrequency = wordfreq.Count("we collect data we protect data we")
	report.AddExportedFile("external_resources.json")
	return report
}

// TestExportJSON tests writing exported data files.
func TestExportJSON(t *testing.T) {
	t.Parallel()

	t.Run("writes four-space indented JSON and prints confirmation", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ExternalResourcesFile)
		var out bytes.Buffer

		if err := ExportJSON(&out, path, []string{"https://cdn.example.com/a.js"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read export: %v", err)
		}
		want := "[\n    \"https://cdn.example.com/a.js\"\n]\n"
		if string(data) != want {
			t.Errorf("expected %q, got %q", want, string(data))
		}
		if out.String() != "File saved to '"+path+"'\n" {
			t.Errorf("unexpected confirmation: %q", out.String())
		}
	})

	t.Run("keeps word order and does not escape HTML", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), WordFrequencyFile)
		table := wordfreq.Count("zeta alpha zeta")

		if err := ExportJSON(&bytes.Buffer{}, path, table); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read export: %v", err)
		}
		want := "{\n    \"zeta\": 2,\n    \"alpha\": 1\n}\n"
		if string(data) != want {
			t.Errorf("expected %q, got %q", want, string(data))
		}

		urlPath := filepath.Join(t.TempDir(), "urls.json")
		if err := ExportJSON(&bytes.Buffer{}, urlPath, []string{"a?b=1&c=2"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data, _ = os.ReadFile(urlPath)
		if !strings.Contains(string(data), "a?b=1&c=2") {
			t.Errorf("expected unescaped ampersand, got %s", data)
		}
	})

	t.Run("encodes empty lists as []", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ExternalResourcesFile)
		if err := ExportJSON(&bytes.Buffer{}, path, []string{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data, _ := os.ReadFile(path)
		if string(data) != "[]\n" {
			t.Errorf("expected empty list, got %q", data)
		}
	})

	t.Run("creates parent directories and overwrites", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "dir", HyperlinksFile)
		if err := ExportJSON(&bytes.Buffer{}, path, []string{"first", "second"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := ExportJSON(&bytes.Buffer{}, path, []string{"third"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data, _ := os.ReadFile(path)
		if strings.Contains(string(data), "first") || !strings.Contains(string(data), "third") {
			t.Errorf("expected file to be overwritten, got %s", data)
		}
	})

	t.Run("unencodable value returns error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "bad.json")
		var out bytes.Buffer
		if err := ExportJSON(&out, path, make(chan int)); err == nil {
			t.Error("expected error for channel value")
		}
		if out.Len() != 0 {
			t.Error("expected no confirmation on failure")
		}
	})

	t.Run("exports hyperlinks with null text", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), HyperlinksFile)
		links := []model.Hyperlink{model.NewTextlessHyperlink("/home")}
		if err := ExportJSON(&bytes.Buffer{}, path, links); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		data, _ := os.ReadFile(path)
		if !strings.Contains(string(data), `"text": null`) {
			t.Errorf("expected null text, got %s", data)
		}
	})
}

// TestSimpleWriter tests the human-readable summary writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and sections", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"WEBSCRAPER REPORT",
			"https://www.example.com",
			"Linked Page: https://www.example.com/privacy",
			"Status:      Complete",
			"EXTERNAL RESOURCES",
			"HYPERLINKS",
			"WORD FREQUENCY",
			"EXPORTED FILES",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
		if strings.Contains(output, "cdn.example.com") {
			t.Error("expected resources to be counted only without verbose")
		}
	})

	t.Run("verbose lists resources and links", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[+] https://cdn.example.com/a.js") {
			t.Error("expected resource listing")
		}
		if !strings.Contains(output, "* /privacy (Privacy Policy)") {
			t.Error("expected hyperlink listing")
		}
	})

	t.Run("top words are limited", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithTopWords(1)).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, " 1. we") {
			t.Errorf("expected top word 'we', got:\n%s", output)
		}
		if strings.Contains(output, " 2. ") {
			t.Error("expected only one ranked word")
		}
	})

	t.Run("reports missing link", func(t *testing.T) {
		t.Parallel()

		report := model.NewReport("https://www.example.com", "privacy policy")
		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Link not found") {
			t.Error("expected link-not-found status")
		}
		if strings.Contains(buf.String(), "WORD FREQUENCY") {
			t.Error("expected no word frequency section")
		}
	})

	t.Run("reports errors", func(t *testing.T) {
		t.Parallel()

		report := model.NewReport("https://www.example.com", "privacy policy")
		report.Error = errors.New("connection refused")
		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "ERROR - connection refused") {
			t.Error("expected error status")
		}
	})
}

// TestJSONWriter tests the JSON summary writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes valid JSON", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded model.Report
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.PolicyURL != "https://www.example.com/privacy" {
			t.Errorf("unexpected policy URL: %q", decoded.PolicyURL)
		}
		if decoded.WordFrequency.Get("we") != 3 {
			t.Errorf("expected we=3, got %d", decoded.WordFrequency.Get("we"))
		}
	})

	t.Run("pretty print adds newlines", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"target_url\"") {
			t.Error("expected indented output")
		}
	})

	t.Run("version wraps the report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithVersion("1.2.3")).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var wrapped JSONReport
		if err := json.Unmarshal(buf.Bytes(), &wrapped); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if wrapped.Version != "1.2.3" || wrapped.Report == nil {
			t.Errorf("unexpected wrapper: %+v", wrapped)
		}
	})

	t.Run("error is copied to the message field", func(t *testing.T) {
		t.Parallel()

		report := model.NewReport("https://www.example.com", "privacy policy")
		report.Error = errors.New("boom")
		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), `"error":"boom"`) {
			t.Errorf("expected error in JSON, got %s", buf.String())
		}
	})
}

// TestMarkdownWriter tests the Markdown summary writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes tables and chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestReport()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# Webscraper Report",
			"## External Resources",
			"## Hyperlinks",
			"## Word Frequency",
			"```mermaid",
			"pie",
			"https://www.example.com/privacy",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("warns when the link is missing", func(t *testing.T) {
		t.Parallel()

		report := model.NewReport("https://www.example.com", "privacy policy")
		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[!WARNING]") {
			t.Error("expected warning alert")
		}
		if !strings.Contains(output, "No external resources found.") {
			t.Error("expected empty resources message")
		}
	})
}

// TestMultiWriter tests writing through several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var text, js bytes.Buffer
	mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))

	n, err := mw.Write(createTestReport())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != text.Len()+js.Len() {
		t.Errorf("expected %d bytes, got %d", text.Len()+js.Len(), n)
	}
	if text.Len() == 0 || js.Len() == 0 {
		t.Error("expected both writers to receive output")
	}
}

// TestTruncateString tests cell truncation.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is long", 8, "this ..."},
		{"abc", 2, "ab"},
		{"プライバシー", 8, "プ..."},
		{"héllo", 2, "h"},
	}
	for _, tt := range tests {
		got := truncateString(tt.in, tt.maxLen)
		if got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncateString(%q, %d) returned invalid UTF-8", tt.in, tt.maxLen)
		}
	}
}
