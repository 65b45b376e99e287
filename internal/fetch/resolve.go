package fetch

import (
	"fmt"
	"net/url"
)

// Resolve returns ref resolved against base.
// Root-relative references ("/privacy") take the scheme and host of base,
// absolute references come back unchanged and relative ones follow RFC 3986.
func Resolve(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid link %q: %w", ref, err)
	}
	return b.ResolveReference(r).String(), nil
}
