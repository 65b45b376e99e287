package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// TestNewClient tests the HTTP client constructor.
func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("direct client without proxy", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient(5*time.Second, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.Timeout != 5*time.Second {
			t.Errorf("expected timeout 5s, got %v", client.Timeout)
		}
	})

	t.Run("valid proxy address creates client", func(t *testing.T) {
		t.Parallel()

		client, err := NewClient(5*time.Second, "127.0.0.1:9050")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		transport, ok := client.Transport.(*http.Transport)
		if !ok {
			t.Fatalf("expected *http.Transport, got %T", client.Transport)
		}
		if transport.DialContext == nil {
			t.Error("expected SOCKS5 dialer to be installed")
		}
		if transport.Proxy != nil {
			t.Error("expected environment proxy to be disabled")
		}
	})

	invalid := []string{"127.0.0.1", ":9050", "127.0.0.1:", "127.0.0.1:abc", "127.0.0.1:0", "127.0.0.1:65536"}
	for _, addr := range invalid {
		t.Run("invalid "+addr, func(t *testing.T) {
			t.Parallel()

			_, err := NewClient(5*time.Second, addr)
			if !errors.Is(err, ErrInvalidProxyAddress) {
				t.Errorf("expected ErrInvalidProxyAddress for %q, got %v", addr, err)
			}
		})
	}
}

// TestFetch tests fetching pages from a local server.
func TestFetch(t *testing.T) {
	t.Parallel()

	t.Run("fetches and parses HTML", func(t *testing.T) {
		t.Parallel()

		headers := make(chan http.Header, 1)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers <- r.Header.Clone()
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(`<html><body><a href="/privacy">Privacy Policy</a></body></html>`))
		}))
		defer srv.Close()

		f := NewFetcher(srv.Client(), WithUserAgent("test-agent"), WithHeaders(map[string]string{"Cookie": "consent=yes"}))
		page, err := f.Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		got := <-headers
		if ua := got.Get("User-Agent"); ua != "test-agent" {
			t.Errorf("expected User-Agent test-agent, got %q", ua)
		}
		if cookie := got.Get("Cookie"); cookie != "consent=yes" {
			t.Errorf("expected Cookie header, got %q", cookie)
		}
		if page.StatusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", page.StatusCode)
		}
		if page.Hash == "" || page.Size == 0 {
			t.Error("expected hash and size to be set")
		}
		if page.Document == nil || len(page.Document.FindAll("a")) != 1 {
			t.Error("expected parsed document with one anchor")
		}
	})

	t.Run("applies site headers per URL", func(t *testing.T) {
		t.Parallel()

		cookies := make(chan string, 1)
		srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			cookies <- r.Header.Get("Cookie")
		}))
		defer srv.Close()

		f := NewFetcher(srv.Client(),
			WithHeaders(map[string]string{"Cookie": "global=1"}),
			WithSiteHeaders(func(pageURL string) map[string]string {
				if strings.HasPrefix(pageURL, srv.URL) {
					return map[string]string{"Cookie": "site=1"}
				}
				return nil
			}),
		)
		if _, err := f.Fetch(context.Background(), srv.URL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := <-cookies; got != "site=1" {
			t.Errorf("expected site cookie to win, got %q", got)
		}
	})

	t.Run("uses default user agent", func(t *testing.T) {
		t.Parallel()

		agents := make(chan string, 1)
		srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			agents <- r.Header.Get("User-Agent")
		}))
		defer srv.Close()

		if _, err := NewFetcher(srv.Client()).Fetch(context.Background(), srv.URL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ua := <-agents; ua != DefaultUserAgent {
			t.Errorf("expected default user agent, got %q", ua)
		}
	})

	t.Run("empty body yields an empty page", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
		}))
		defer srv.Close()

		page, err := NewFetcher(srv.Client()).Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page.Body != "" || page.Size != 0 || page.Hash != "" {
			t.Errorf("expected empty page, got body=%q size=%d", page.Body, page.Size)
		}
		if page.Document == nil || len(page.Document.FindAll("a")) != 0 {
			t.Error("expected an empty document")
		}
	})

	t.Run("non-2xx status returns Error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := NewFetcher(srv.Client()).Fetch(context.Background(), srv.URL)
		var fetchErr *Error
		if !errors.As(err, &fetchErr) {
			t.Fatalf("expected *Error, got %v", err)
		}
		if fetchErr.StatusCode != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", fetchErr.StatusCode)
		}
		if !errors.Is(err, ErrUnexpectedStatus) {
			t.Error("expected ErrUnexpectedStatus cause")
		}
		if !strings.Contains(err.Error(), "404") {
			t.Errorf("expected status in message, got %q", err.Error())
		}
	})

	t.Run("transport failure returns Error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := srv.URL
		srv.Close()

		_, err := NewFetcher(srv.Client()).Fetch(context.Background(), url)
		var fetchErr *Error
		if !errors.As(err, &fetchErr) {
			t.Fatalf("expected *Error, got %v", err)
		}
		if fetchErr.StatusCode != 0 || fetchErr.Cause == nil {
			t.Errorf("expected transport error without status, got %+v", fetchErr)
		}
	})

	t.Run("invalid URL returns Error", func(t *testing.T) {
		t.Parallel()

		_, err := NewFetcher(nil).Fetch(context.Background(), "://bad")
		var fetchErr *Error
		if !errors.As(err, &fetchErr) {
			t.Fatalf("expected *Error, got %v", err)
		}
	})

	t.Run("canceled context aborts", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewFetcher(srv.Client()).Fetch(ctx, srv.URL)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("decodes declared charset", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
			_, _ = w.Write([]byte("<p>caf\xe9</p>"))
		}))
		defer srv.Close()

		page, err := NewFetcher(srv.Client()).Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(page.Body, "café") {
			t.Errorf("expected decoded body, got %q", page.Body)
		}
	})

	t.Run("limits body size", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte(strings.Repeat("a", 100)))
		}))
		defer srv.Close()

		page, err := NewFetcher(srv.Client(), WithMaxBodySize(10)).Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if page.Size != 10 {
			t.Errorf("expected body truncated to 10 bytes, got %d", page.Size)
		}
	})
}

// TestResolve tests link resolution against the target URL.
func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		base string
		ref  string
		want string
	}{
		{"https://www.example.com", "/privacy", "https://www.example.com/privacy"},
		{"https://www.example.com/about/", "/privacy", "https://www.example.com/privacy"},
		{"https://www.example.com/about/", "privacy", "https://www.example.com/about/privacy"},
		{"https://www.example.com", "https://other.example.com/p", "https://other.example.com/p"},
		{"https://www.example.com", "//cdn.example.com/p", "https://cdn.example.com/p"},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			t.Parallel()

			got, err := Resolve(tt.base, tt.ref)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q, %q) = %q, want %q", tt.base, tt.ref, got, tt.want)
			}
		})
	}

	t.Run("invalid base", func(t *testing.T) {
		t.Parallel()

		if _, err := Resolve("://bad", "/x"); err == nil {
			t.Error("expected error for invalid base")
		}
	})
}
