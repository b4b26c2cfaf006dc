// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"testing"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// --- URL normalization ---

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"lowercases scheme and host", "HTTPS://Example.COM/Path", "https://example.com/Path"},
		{"strips default https port", "https://example.com:443/a", "https://example.com/a"},
		{"strips default http port", "http://example.com:80/a", "http://example.com/a"},
		{"keeps explicit port", "https://example.com:8080/a", "https://example.com:8080/a"},
		{"strips fragment", "https://example.com/a#section-2", "https://example.com/a"},
		{"strips trailing slash", "http://a.com/x/", "http://a.com/x"},
		{"strips utm params", "https://a.com/x?utm_source=tw&utm_medium=s&id=3", "https://a.com/x?id=3"},
		{"strips known tracking params", "https://a.com/x?fbclid=abc&gclid=def&ref=hn", "https://a.com/x"},
		{"sorts remaining query", "https://a.com/x?b=2&a=1", "https://a.com/x?a=1&b=2"},
		{"trims whitespace", "  https://a.com/x  ", "https://a.com/x"},
		{"relative URL passes through", "not a url", "not a url"},
		{"schemeless passes through", "example.com/path", "example.com/path"},
		{"empty string", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeURL(tt.raw); got != tt.want {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeURLIdempotent(t *testing.T) {
	raws := []string{
		"HTTPS://Example.COM:443/Path/?utm_source=x&b=2&a=1#frag",
		"http://a.com/x/",
		"garbage",
	}
	for _, raw := range raws {
		once := NormalizeURL(raw)
		if twice := NormalizeURL(once); twice != once {
			t.Errorf("NormalizeURL not idempotent for %q: %q then %q", raw, once, twice)
		}
	}
}

// --- Deduplication ---

func results(urls ...string) []types.SearchResult {
	rs := make([]types.SearchResult, len(urls))
	for i, u := range urls {
		rs[i] = types.SearchResult{URL: u, Title: u}
	}
	return rs
}

func TestDedupeCollapsesEquivalentURLs(t *testing.T) {
	in := results(
		"http://a.com/x",
		"http://a.com/x/",
		"HTTP://A.COM/x#top",
		"http://a.com/x?utm_campaign=launch",
		"http://b.com/y",
	)

	got := Dedupe(in)

	if len(got) != 2 {
		t.Fatalf("Dedupe returned %d results, want 2", len(got))
	}
	// First occurrence wins and order is preserved.
	if got[0].URL != "http://a.com/x" || got[1].URL != "http://b.com/y" {
		t.Errorf("Dedupe kept %q, %q; want first occurrences in input order", got[0].URL, got[1].URL)
	}
}

func TestDedupeKeepsDistinctURLs(t *testing.T) {
	in := results("http://a.com/x", "http://a.com/y", "http://a.com/x?id=2")
	if got := Dedupe(in); len(got) != 3 {
		t.Errorf("Dedupe returned %d results, want 3", len(got))
	}
}

func TestDedupeIdempotent(t *testing.T) {
	in := results("http://a.com/x", "http://a.com/x/", "http://b.com/y")
	once := Dedupe(in)
	twice := Dedupe(once)
	if len(twice) != len(once) {
		t.Fatalf("second Dedupe changed length: %d then %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].URL != twice[i].URL {
			t.Errorf("second Dedupe changed element %d: %q then %q", i, once[i].URL, twice[i].URL)
		}
	}
}

func TestDedupeEmptyInput(t *testing.T) {
	if got := Dedupe(nil); len(got) != 0 {
		t.Errorf("Dedupe(nil) returned %d results, want 0", len(got))
	}
}

func TestDedupeMalformedURLsKeepOwnKey(t *testing.T) {
	in := results("not a url", "not a url", "also not a url")
	got := Dedupe(in)
	if len(got) != 2 {
		t.Fatalf("Dedupe returned %d results, want 2", len(got))
	}
}
