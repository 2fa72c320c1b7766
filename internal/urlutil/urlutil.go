// Package urlutil holds the pure string helpers used to derive a storage
// object name from an uploaded video's signed or public URL.
package urlutil

import (
	"net/url"
	"strings"
)

// StripQueryString returns the portion of s before the first '?', or s
// unchanged when there is none. Signed download URLs carry their token in the
// query string; the object name never does.
func StripQueryString(s string) string {
	if i := strings.Index(s, "?"); i >= 0 {
		return s[:i]
	}
	return s
}

// ExtractObjectName parses uri and returns the final path segment. It returns
// false when the URI does not parse, has an empty path, or the path ends in
// '/' (no filename present). The scheme is irrelevant beyond generic path
// parsing.
func ExtractObjectName(uri string) (string, bool) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", false
	}

	p := u.Path
	if p == "" || strings.HasSuffix(p, "/") {
		return "", false
	}

	name := p[strings.LastIndex(p, "/")+1:]
	if name == "" {
		return "", false
	}
	return name, true
}
