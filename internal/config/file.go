package config

import (
	"maps"
	"net/url"
	"strings"

	"github.com/nao1215/webscraper/internal/extract"
)

// SiteConfig holds request settings for a single host.
// This allows sending a consent cookie to one site without leaking it to
// the host a link points to.
type SiteConfig struct {
	// Cookie is an HTTP cookie sent to this host.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers sent to this host.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// File represents the structure of the .webscraper configuration file.
// Every field is optional; zero values leave the built-in default alone.
type File struct {
	// Target is the default target URL.
	Target string `yaml:"target,omitempty"`

	// OutputDir is the directory for exported JSON files.
	OutputDir string `yaml:"outputDir,omitempty"`

	// LinkText is the hyperlink text searched for.
	LinkText string `yaml:"linkText,omitempty"`

	// UserAgent overrides the User-Agent header.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Proxy is a SOCKS5 proxy address in "host:port" format.
	Proxy string `yaml:"proxy,omitempty"`

	// Headers are sent with every request.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Resources replaces the resource rule table when not empty.
	Resources []extract.Rule `yaml:"resources,omitempty"`

	// Sites maps host names to host-specific request settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`
}

// GetSiteConfig returns the request settings for the host of pageURL.
// Global headers come first and host-specific headers override them.
func (cf *File) GetSiteConfig(pageURL string) SiteConfig {
	result := SiteConfig{Headers: make(map[string]string)}
	maps.Copy(result.Headers, cf.Headers)

	host := hostOf(pageURL)
	if site, ok := cf.Sites[host]; ok {
		if site.Cookie != "" {
			result.Cookie = site.Cookie
		}
		maps.Copy(result.Headers, site.Headers)
	}
	return result
}

// RequestHeaders returns the headers to send to the host of pageURL,
// with the site cookie folded in as a Cookie header.
func (cf *File) RequestHeaders(pageURL string) map[string]string {
	site := cf.GetSiteConfig(pageURL)
	if site.Cookie != "" {
		site.Headers["Cookie"] = site.Cookie
	}
	return site.Headers
}

// hostOf returns the lower-case host name of rawURL without the port.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// Apply copies the values set in the file onto cfg.
// isSet reports whether a CLI flag was given explicitly; those values win
// over the file. A nil isSet means no flag was set.
func (cf *File) Apply(cfg *Config, isSet func(flag string) bool) {
	if isSet == nil {
		isSet = func(string) bool { return false }
	}

	if cf.Target != "" && !isSet("target") {
		cfg.TargetURL = cf.Target
	}
	if cf.OutputDir != "" && !isSet("output-dir") {
		cfg.OutputDir = cf.OutputDir
	}
	if cf.LinkText != "" && !isSet("link-text") {
		cfg.LinkText = cf.LinkText
	}
	if cf.UserAgent != "" && !isSet("user-agent") {
		cfg.UserAgent = cf.UserAgent
	}
	if cf.Proxy != "" && !isSet("proxy") {
		cfg.ProxyAddress = cf.Proxy
	}
	if len(cf.Resources) > 0 {
		cfg.Resources = make([]extract.Rule, 0, len(cf.Resources))
		for _, r := range cf.Resources {
			cfg.Resources = append(cfg.Resources, extract.Rule{
				Tag:       strings.ToLower(strings.TrimSpace(r.Tag)),
				Attribute: strings.ToLower(strings.TrimSpace(r.Attribute)),
			})
		}
	}
	if cfg.Headers == nil {
		cfg.Headers = make(map[string]string)
	}
	maps.Copy(cfg.Headers, cf.Headers)
}
