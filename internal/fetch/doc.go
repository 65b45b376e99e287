// Package fetch retrieves web pages over HTTP.
//
// A Fetcher issues one GET request per call, checks the status code, reads
// the body up to a size limit, decodes it to UTF-8 using the declared
// charset and parses it into a markup tree. Any failure along the way is
// reported as an *Error so callers can tell transport problems from HTTP
// status problems with errors.As.
//
// NewClient builds the *http.Client a Fetcher uses. When a proxy address is
// given, connections go through a SOCKS5 proxy (golang.org/x/net/proxy),
// which lets the scraper run behind Tor or an SSH tunnel.
//
// There are no retries and no caching: one call is one request.
package fetch
