// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"net/url"
	"strings"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// trackingParams are query parameters stripped during URL normalization.
// Any "utm_"-prefixed parameter is also stripped.
var trackingParams = map[string]bool{
	"fbclid": true,
	"gclid":  true,
	"ref":    true,
	"mc_cid": true,
	"mc_eid": true,
}

// NormalizeURL returns the canonical dedup key for a URL: scheme and host
// lowercased, default port dropped, fragment and trailing slash removed,
// tracking parameters stripped, and the remaining query sorted. The
// function is total: a string that does not parse as an absolute URL
// normalizes to its trimmed self, so malformed URLs dedup as their own key.
func NormalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)

	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return trimmed
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	switch u.Scheme {
	case "http":
		host = strings.TrimSuffix(host, ":80")
	case "https":
		host = strings.TrimSuffix(host, ":443")
	}
	u.Host = host

	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")

	q := u.Query()
	for key := range q {
		if trackingParams[key] || strings.HasPrefix(key, "utm_") {
			q.Del(key)
		}
	}
	// Encode sorts parameters by key, making the result deterministic.
	u.RawQuery = q.Encode()

	return u.String()
}

// Dedupe removes results whose URLs normalize to the same key, keeping the
// first occurrence of each. The order of first occurrences is preserved.
// Dedupe is pure and idempotent.
func Dedupe(results []types.SearchResult) []types.SearchResult {
	seen := make(map[string]bool, len(results))
	deduped := make([]types.SearchResult, 0, len(results))

	for _, r := range results {
		key := NormalizeURL(r.URL)
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, r)
	}
	return deduped
}
