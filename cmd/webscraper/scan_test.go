package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/webscraper/internal/config"
	"github.com/nao1215/webscraper/internal/fetch"
	"github.com/nao1215/webscraper/internal/report"
)

const (
	testHomePage = `<html><head>
<link rel="stylesheet" href="https://cdn.example.com/site.css">
<script src="/app.js"></script>
</head><body>
<img src="https://img.example.com/logo.png">
<a href="/privacy">Privacy Policy</a>
<a href="/terms">Terms</a>
</body></html>`

	testPrivacyPage = `<html><head><title>Privacy</title></head>
<body><p>Your privacy matters. Privacy, privacy!</p><script>track()</script></body></html>`
)

// newTestServer serves the home page at / and the privacy page at /privacy.
// Requests to /privacy must carry the consent cookie when cookie is set.
func newTestServer(t *testing.T, home, cookie string) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, home)
	})
	mux.HandleFunc("/privacy", func(w http.ResponseWriter, r *http.Request) {
		if cookie != "" && r.Header.Get("Cookie") != cookie {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, testPrivacyPage)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// writeConfig writes a config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".webscraper")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

// runRoot executes the root command and returns stdout and stderr.
func runRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// TestNewScanCmd tests the scan command creation.
func TestNewScanCmd(t *testing.T) {
	t.Parallel()

	cmd := NewScanCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "scan [target-url]" {
			t.Errorf("expected use 'scan [target-url]', got %q", cmd.Use)
		}
	})

	flags := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{"link-text", "l", config.DefaultLinkText},
		{"timeout", "t", config.DefaultTimeout.String()},
		{"user-agent", "u", config.DefaultUserAgent},
		{"proxy", "x", ""},
		{"output-dir", "d", config.DefaultOutputDir},
		{"json", "j", "false"},
		{"markdown", "m", "false"},
		{"output", "o", ""},
		{"top", "n", "10"},
		{"config", "c", ""},
		{"print-links", "", "false"},
		{"export-links", "", "false"},
		{"no-db", "", "false"},
	}
	for _, tt := range flags {
		t.Run("has "+tt.name+" flag", func(t *testing.T) {
			t.Parallel()
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("expected default %q, got %q", tt.defValue, flag.DefValue)
			}
		})
	}
}

// TestBuildConfig tests flag and config file precedence.
func TestBuildConfig(t *testing.T) {
	t.Parallel()

	configPath := writeConfig(t, `
target: "https://file.example.com"
outputDir: "from-file"
linkText: "cookie policy"
headers:
  Accept-Language: "en-GB"
resources:
  - tag: IMG
    attribute: " SRC "
sites:
  www.example.com:
    cookie: "consent=yes"
`)

	t.Run("file values fill unset flags", func(t *testing.T) {
		t.Parallel()

		cmd := NewScanCmd()
		if err := cmd.ParseFlags([]string{"-c", configPath}); err != nil {
			t.Fatal(err)
		}
		cfg, file, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.TargetURL != "https://file.example.com" {
			t.Errorf("unexpected target %q", cfg.TargetURL)
		}
		if cfg.OutputDir != "from-file" || cfg.LinkText != "cookie policy" {
			t.Errorf("unexpected values: %q %q", cfg.OutputDir, cfg.LinkText)
		}
		if cfg.Headers["Accept-Language"] != "en-GB" {
			t.Errorf("expected file header, got %v", cfg.Headers)
		}
		if len(cfg.Resources) != 1 || cfg.Resources[0].Tag != "img" || cfg.Resources[0].Attribute != "src" {
			t.Errorf("expected normalized rule, got %v", cfg.Resources)
		}
		if file.RequestHeaders("https://www.example.com/privacy")["Cookie"] != "consent=yes" {
			t.Error("expected site cookie")
		}
	})

	t.Run("flags and arguments win over the file", func(t *testing.T) {
		t.Parallel()

		cmd := NewScanCmd()
		if err := cmd.ParseFlags([]string{"-c", configPath, "-d", "from-flag", "-l", "Privacy"}); err != nil {
			t.Fatal(err)
		}
		cfg, _, err := buildConfig(cmd, []string{"https://arg.example.com"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.TargetURL != "https://arg.example.com" {
			t.Errorf("unexpected target %q", cfg.TargetURL)
		}
		if cfg.OutputDir != "from-flag" || cfg.LinkText != "Privacy" {
			t.Errorf("unexpected values: %q %q", cfg.OutputDir, cfg.LinkText)
		}
	})

	t.Run("missing explicit config file is an error", func(t *testing.T) {
		t.Parallel()

		cmd := NewScanCmd()
		if err := cmd.ParseFlags([]string{"-c", filepath.Join(t.TempDir(), "missing.yaml")}); err != nil {
			t.Fatal(err)
		}
		_, _, err := buildConfig(cmd, nil)
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("no-db disables saving", func(t *testing.T) {
		t.Parallel()

		cmd := NewScanCmd()
		if err := cmd.ParseFlags([]string{"-c", configPath, "--no-db"}); err != nil {
			t.Fatal(err)
		}
		cfg, _, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.SaveToDB {
			t.Error("expected SaveToDB to be false")
		}
	})
}

// TestScanCommand runs the scan command against a local site.
func TestScanCommand(t *testing.T) {
	t.Parallel()

	t.Run("exports files and prints the summary", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, testHomePage, "")
		outDir := filepath.Join(t.TempDir(), "out")
		configPath := writeConfig(t, "{}\n")

		stdout, _, err := runRoot(t, "scan", srv.URL, "-c", configPath, "-d", outDir, "--no-db", "--print-links")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, name := range []string{report.ExternalResourcesFile, report.WordFrequencyFile} {
			path := filepath.Join(outDir, name)
			if !strings.Contains(stdout, fmt.Sprintf("File saved to '%s'\n", path)) {
				t.Errorf("expected confirmation for %s, got %q", name, stdout)
			}
		}
		if !strings.Contains(stdout, "/privacy\n/terms\n") {
			t.Errorf("expected printed links, got %q", stdout)
		}
		if !strings.Contains(stdout, "WEBSCRAPER REPORT") || !strings.Contains(stdout, "Complete") {
			t.Errorf("expected text summary, got %q", stdout)
		}

		data, err := os.ReadFile(filepath.Join(outDir, report.ExternalResourcesFile))
		if err != nil {
			t.Fatal(err)
		}
		want := "[\n    \"https://img.example.com/logo.png\",\n    \"https://cdn.example.com/site.css\"\n]\n"
		if string(data) != want {
			t.Errorf("unexpected external resources file:\n%s", data)
		}

		data, err = os.ReadFile(filepath.Join(outDir, report.WordFrequencyFile))
		if err != nil {
			t.Fatal(err)
		}
		want = "{\n    \"your\": 1,\n    \"privacy\": 3,\n    \"matters\": 1\n}\n"
		if string(data) != want {
			t.Errorf("unexpected word frequency file:\n%s", data)
		}
	})

	t.Run("missing link prints a message and succeeds", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, `<html><body><a href="/terms">Terms</a></body></html>`, "")
		outDir := t.TempDir()
		configPath := writeConfig(t, "{}\n")

		stdout, stderr, err := runRoot(t, "scan", srv.URL, "-c", configPath, "-d", outDir, "--no-db", "-l", "cookie policy")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if !strings.Contains(stderr, "Could not find a valid link to a cookie policy!\n") {
			t.Errorf("expected not-found message on stderr, got %q", stderr)
		}
		if !strings.Contains(stdout, "Link not found") {
			t.Errorf("expected not-found status in summary, got %q", stdout)
		}
		if _, err := os.Stat(filepath.Join(outDir, report.WordFrequencyFile)); !os.IsNotExist(err) {
			t.Error("expected no word frequency file")
		}
	})

	t.Run("site cookie reaches the linked page", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, testHomePage, "consent=yes")
		configPath := writeConfig(t, "sites:\n  127.0.0.1:\n    cookie: \"consent=yes\"\n")

		_, _, err := runRoot(t, "scan", srv.URL, "-c", configPath, "-d", t.TempDir(), "--no-db")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("fetch failure exits with error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		t.Cleanup(srv.Close)
		configPath := writeConfig(t, "{}\n")

		_, _, err := runRoot(t, "scan", srv.URL, "-c", configPath, "-d", t.TempDir(), "--no-db")
		var fetchErr *fetch.Error
		if !errors.As(err, &fetchErr) {
			t.Fatalf("expected *fetch.Error, got %v", err)
		}
		if fetchErr.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", fetchErr.StatusCode)
		}
	})

	t.Run("invalid configuration is rejected", func(t *testing.T) {
		t.Parallel()

		configPath := writeConfig(t, "{}\n")
		_, _, err := runRoot(t, "scan", "ftp://example.com", "-c", configPath, "--no-db")
		if !errors.Is(err, config.ErrInvalidTargetURL) {
			t.Errorf("expected ErrInvalidTargetURL, got %v", err)
		}

		_, _, err = runRoot(t, "scan", "https://example.com", "-c", configPath, "--no-db", "--json", "--markdown")
		if !errors.Is(err, config.ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})

	t.Run("writes a JSON summary to a file", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, testHomePage, "")
		dir := t.TempDir()
		summaryPath := filepath.Join(dir, "reports", "summary.json")
		configPath := writeConfig(t, "{}\n")

		_, _, err := runRoot(t, "scan", srv.URL, "-c", configPath, "-d", dir, "--no-db", "--json", "-o", summaryPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(summaryPath)
		if err != nil {
			t.Fatalf("expected summary file: %v", err)
		}
		var decoded report.JSONReport
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON summary: %v", err)
		}
		if decoded.Report == nil || !decoded.Report.PolicyFound {
			t.Errorf("expected found policy in summary: %s", data)
		}
		if decoded.Report.WordFrequency.Get("privacy") != 3 {
			t.Errorf("expected privacy=3, got %d", decoded.Report.WordFrequency.Get("privacy"))
		}
	})

	t.Run("writes a Markdown summary", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, testHomePage, "")
		configPath := writeConfig(t, "{}\n")

		stdout, _, err := runRoot(t, "scan", srv.URL, "-c", configPath, "-d", t.TempDir(), "--no-db", "--markdown")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(stdout, "```mermaid") {
			t.Errorf("expected mermaid chart in Markdown summary, got %q", stdout)
		}
	})
}
