// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research-assistant
// pipeline: search results, sessions, processed articles, and the
// per-stage configuration blocks.
package types

// SearchResult represents one web article returned by a search backend.
// The normalized URL is the uniqueness key across the pipeline: the
// deduplicator keeps the first occurrence per key and the processing
// pipeline produces exactly one outcome per key.
type SearchResult struct {
	// URL is the article location as reported by the backend.
	URL string `json:"url" yaml:"url"`

	// Title is the article title.
	Title string `json:"title" yaml:"title"`

	// Content is the raw article text returned by the search API.
	Content string `json:"content" yaml:"content"`

	// Score is a value between 0.0 and 1.0 indicating relevance to the query.
	Score float64 `json:"score" yaml:"score"`

	// PublishedDate is the publication date string as reported by the
	// backend. Formats vary between sources, so it is kept verbatim.
	PublishedDate string `json:"published_date,omitempty" yaml:"published_date,omitempty"`

	// Source identifies which backend found this result (e.g. "tavily").
	Source string `json:"source" yaml:"source"`
}
