// Package redirect builds and validates the redirect URIs that carry
// credentials back to client applications.
package redirect

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultAllowedSchemes is the allow-list used when none is configured.
// The map value is the scheme's default port; custom app-link schemes
// (for example myapp://) register with port 0.
var DefaultAllowedSchemes = map[string]int{
	"http":  80,
	"https": 443,
}

// Builder validates candidate redirect URIs against a scheme allow-list
// and constructs credential-carrying URIs from them.
type Builder struct {
	allowedSchemes map[string]int
}

// NewBuilder creates a Builder with the given scheme allow-list.
// A nil map falls back to DefaultAllowedSchemes.
func NewBuilder(allowedSchemes map[string]int) *Builder {
	if allowedSchemes == nil {
		allowedSchemes = DefaultAllowedSchemes
	}
	return &Builder{allowedSchemes: allowedSchemes}
}

// Build parses raw and validates its scheme against the allow-list.
// A scheme absent from the list is a parameter-class error, not a crash;
// callers surface it as a 400 outcome.
func (b *Builder) Build(raw string) (*URI, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("redirect: invalid uri %q: %w", raw, err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if _, ok := b.allowedSchemes[scheme]; !ok {
		return nil, fmt.Errorf("redirect: scheme %q is not allowed", scheme)
	}

	return &URI{url: parsed}, nil
}

// URI is a redirect URI that passed the scheme allow-list.
type URI struct {
	url *url.URL
}

// WithQuery returns a copy of the URI with params appended to its query
// string using standard form encoding. Existing query keys are preserved;
// only the given keys are added or overwritten.
func (u *URI) WithQuery(params map[string]string) *URI {
	clone := *u.url
	query := clone.Query()
	for key, value := range params {
		query.Set(key, value)
	}
	clone.RawQuery = query.Encode()
	return &URI{url: &clone}
}

// URL returns the underlying parsed URL.
func (u *URI) URL() *url.URL {
	return u.url
}

// String returns the assembled URI.
func (u *URI) String() string {
	return u.url.String()
}
