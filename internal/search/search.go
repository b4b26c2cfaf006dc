// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries web search APIs and returns unified, deduplicated
// results keyed by normalized URL.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// Backend searches a single web search API. Each backend (Tavily, and any
// future provider) implements this interface per the Strategy pattern.
type Backend interface {
	Name() string
	Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.SearchResult, error)
}

// Query holds the search parameters.
type Query struct {
	Text string
}

// IsEmpty reports whether the query contains no searchable terms.
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.Text) == ""
}

// Output holds the results and dedup statistics of a search run.
type Output struct {
	Results       []types.SearchResult
	DupsRemoved   int
	BelowMinScore int
	BackendErrors []string
}

// Search fans out the query to all backends concurrently, deduplicates
// results by normalized URL, drops low-relevance hits, and returns the
// remainder sorted by score. A failed backend is reported as a warning;
// it does not fail the search as long as another backend succeeds.
func Search(ctx context.Context, query Query, backends []Backend, cfg types.SearchConfig, w io.Writer) (Output, error) {
	if query.IsEmpty() {
		return Output{}, fmt.Errorf("query is empty: provide a research question")
	}
	if len(backends) == 0 {
		return Output{}, fmt.Errorf("no search backends configured")
	}

	type backendResult struct {
		results []types.SearchResult
		err     error
		name    string
	}

	ch := make(chan backendResult, len(backends))
	var wg sync.WaitGroup

	for _, b := range backends {
		wg.Add(1)
		go func(b Backend) {
			defer wg.Done()
			results, err := b.Search(ctx, query, cfg)
			ch <- backendResult{results: results, err: err, name: b.Name()}
		}(b)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var all []types.SearchResult
	var backendErrors []string
	for br := range ch {
		if br.err != nil {
			msg := fmt.Sprintf("%s: %v", br.name, br.err)
			backendErrors = append(backendErrors, msg)
			fmt.Fprintf(w, "warning: backend %s failed: %v\n", br.name, br.err)
			continue
		}
		all = append(all, br.results...)
	}

	if len(all) == 0 && len(backendErrors) == len(backends) {
		return Output{BackendErrors: backendErrors},
			fmt.Errorf("all search backends failed: %s", strings.Join(backendErrors, "; "))
	}

	deduped := Dedupe(all)
	removed := len(all) - len(deduped)

	kept := deduped[:0]
	dropped := 0
	for _, r := range deduped {
		if cfg.MinScore > 0 && r.Score < cfg.MinScore {
			dropped++
			continue
		}
		kept = append(kept, r)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})

	if cfg.MaxResults > 0 && len(kept) > cfg.MaxResults {
		kept = kept[:cfg.MaxResults]
	}

	return Output{
		Results:       kept,
		DupsRemoved:   removed,
		BelowMinScore: dropped,
		BackendErrors: backendErrors,
	}, nil
}

// FormatTable writes results as a human-readable table to w.
func FormatTable(out Output, w io.Writer) {
	if len(out.Results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-55s  %-6s  %s\n", "Rank", "Title", "Score", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, r := range out.Results {
		title := r.Title
		if len(title) > 55 {
			title = title[:52] + "..."
		}
		fmt.Fprintf(w, "%-4d  %-55s  %-6.2f  %s\n", i+1, title, r.Score, r.URL)
	}

	fmt.Fprintf(w, "\n%d results", len(out.Results))
	if out.DupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", out.DupsRemoved)
	}
	if out.BelowMinScore > 0 {
		fmt.Fprintf(w, " (%d below minimum score)", out.BelowMinScore)
	}
	fmt.Fprintln(w)
}

// FormatJSON writes results as indented JSON to w.
func FormatJSON(out Output, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Results)
}
