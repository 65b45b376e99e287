package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/webscraper/internal/extract"
	"github.com/nao1215/webscraper/internal/fetch"
)

// Default configuration values.
const (
	// DefaultTargetURL is the page scraped when no target is given.
	DefaultTargetURL = "https://www.cfcunderwriting.com"

	// DefaultOutputDir is where the exported JSON files are written.
	DefaultOutputDir = "."

	// DefaultLinkText is the hyperlink text searched on the target page.
	DefaultLinkText = "privacy policy"

	// DefaultTimeout bounds a single HTTP request, including redirects.
	DefaultTimeout = 30 * time.Second

	// DefaultTopWords is how many words the summary lists.
	DefaultTopWords = 10

	// AppName is the application name used for XDG directory paths.
	AppName = "webscraper"

	// DefaultUserAgent identifies webscraper in HTTP requests.
	DefaultUserAgent = fetch.DefaultUserAgent

	// DefaultMaxBodySize limits the maximum response body size to read.
	DefaultMaxBodySize = fetch.DefaultMaxBodySize
)

// Config holds all configuration options for a scraping run.
// This struct is populated from defaults, the config file and CLI flags, in
// that order, and passed through the application rather than kept global.
//
// Design decision: We use a single flat struct instead of nested structs
// for simplicity. The number of options is manageable.
type Config struct {
	// TargetURL is the page the run starts from.
	TargetURL string

	// OutputDir is the directory the exported JSON files are written to.
	OutputDir string

	// LinkText is the hyperlink text searched for, compared ignoring case.
	LinkText string

	// Timeout is the timeout for each HTTP request.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	ProxyAddress string

	// Headers are extra HTTP headers sent with every request.
	Headers map[string]string

	// Resources is the tag/attribute table used for resource extraction.
	Resources []extract.Rule

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// PrintLinks prints every hyperlink destination while scanning.
	PrintLinks bool

	// ExportLinks writes hyperlinks.json next to the other exports.
	ExportLinks bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// JSONReport prints the run summary as JSON.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport prints the run summary as Markdown.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the summary.
	// When set, the summary is written to this file instead of stdout.
	ReportFile string

	// TopWords is how many words the summary lists.
	TopWords int

	// DBDir is the directory path for storing the SQLite history database.
	// Defaults to the XDG data directory (~/.local/share/webscraper on Linux).
	DBDir string

	// SaveToDB indicates whether to save the run to the history database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero. This also serves as
// documentation of what the defaults are.
func NewConfig() *Config {
	rules := make([]extract.Rule, len(extract.DefaultRules))
	copy(rules, extract.DefaultRules)

	return &Config{
		TargetURL:   DefaultTargetURL,
		OutputDir:   DefaultOutputDir,
		LinkText:    DefaultLinkText,
		Timeout:     DefaultTimeout,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
		Headers:     make(map[string]string),
		Resources:   rules,
		TopWords:    DefaultTopWords,
		SaveToDB:    true,
	}
}

// XDGDataDir returns the XDG data directory for webscraper.
// On Linux: ~/.local/share/webscraper
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for webscraper.
// On Linux: ~/.config/webscraper
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as one of the sentinel errors.
func (c *Config) Validate() error {
	if c.TargetURL == "" {
		return ErrNoTarget
	}
	if !isHTTPURL(c.TargetURL) {
		return ErrInvalidTargetURL
	}

	if c.LinkText == "" {
		return ErrNoLinkText
	}

	if c.OutputDir == "" {
		return ErrNoOutputDir
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	for _, r := range c.Resources {
		if r.Tag == "" || r.Attribute == "" {
			return ErrInvalidResourceRule
		}
	}

	return nil
}

// isHTTPURL reports whether s is an absolute http or https URL with a host.
func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
