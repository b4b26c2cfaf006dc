// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/pdiddy/research-assistant/internal/search"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// ErrConfig marks configuration failures detected before any work starts.
// It is the only way Run fails as a whole; per-article failures are
// recorded in the outcomes and the report.
var ErrConfig = errors.New("invalid pipeline configuration")

// Run deduplicates the articles, processes each one through proc with at
// most concurrency calls in flight, and aggregates the outcomes. It
// returns a mapping with exactly one entry per deduplicated URL (keyed by
// normalized URL) and a report whose failure list follows submission
// order.
//
// Run completes only when every submitted article has an outcome. If ctx
// is cancelled, in-flight calls fail on their own contexts, no further
// articles are submitted, and the articles never submitted are recorded
// as failed outcomes so the one-entry-per-URL contract still holds.
func Run(ctx context.Context, proc *Processor, articles []types.SearchResult, concurrency int, w io.Writer) (map[string]types.ProcessedArticle, types.ProcessingReport, error) {
	if concurrency <= 0 {
		return nil, types.ProcessingReport{},
			fmt.Errorf("%w: concurrency must be positive, got %d", ErrConfig, concurrency)
	}
	if proc == nil || proc.Summarizer == nil {
		return nil, types.ProcessingReport{}, fmt.Errorf("%w: no summarizer configured", ErrConfig)
	}

	deduped := search.Dedupe(articles)

	type job struct {
		idx     int
		article types.SearchResult
	}

	// Each worker writes only its own slot, so outcome collection needs
	// no locking; only the job channel is shared.
	outcomes := make([]types.ProcessedArticle, len(deduped))
	jobs := make(chan job)

	workers := concurrency
	if workers > len(deduped) {
		workers = len(deduped)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				outcome := proc.Process(ctx, j.article)
				outcomes[j.idx] = outcome
				if outcome.Status == types.ArticleSuccess {
					fmt.Fprintf(w, "processed %s\n", outcome.URL)
				} else {
					fmt.Fprintf(w, "failed    %s (%s: %s)\n", outcome.URL, outcome.Class, outcome.Error)
				}
			}
		}()
	}

	submitted := len(deduped)
	for i, a := range deduped {
		select {
		case <-ctx.Done():
			submitted = i
		case jobs <- job{idx: i, article: a}:
			continue
		}
		break
	}
	close(jobs)
	wg.Wait()

	// Articles never handed to a worker still get an outcome.
	for i := submitted; i < len(deduped); i++ {
		outcomes[i] = types.ProcessedArticle{
			URL:    deduped[i].URL,
			Title:  deduped[i].Title,
			Status: types.ArticleFailed,
			Class:  types.FailServiceError,
			Error:  "cancelled before processing",
		}
	}

	results := make(map[string]types.ProcessedArticle, len(deduped))
	report := types.ProcessingReport{Total: len(deduped)}
	for i, outcome := range outcomes {
		results[search.NormalizeURL(deduped[i].URL)] = outcome
		if outcome.Status == types.ArticleSuccess {
			report.Succeeded++
			continue
		}
		report.Failed++
		report.Failures = append(report.Failures, types.Failure{URL: outcome.URL, Error: outcome.Error})
	}

	fmt.Fprintf(w, "\nProcessed %d article(s): %d succeeded, %d failed\n",
		report.Total, report.Succeeded, report.Failed)

	return results, report, nil
}
