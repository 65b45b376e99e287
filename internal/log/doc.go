// Package log provides the slog setup used by webscraper.
//
// Every logger is backed by SecureHandler, which masks secrets before they
// reach the output:
//   - attributes whose key names a credential (cookie, authorization, token, ...)
//   - values shaped like credentials (bearer/basic auth, JWTs, API keys)
//   - credential query parameters inside logged URLs, e.g. ?token=...
//
// Content hashes are long hex strings and are left alone.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Info("fetching page", "url", pageURL, log.Headers(headers))
package log
