// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package process analyzes articles with a hosted language model and fans
// the work out across a bounded worker pool. A per-article failure is a
// data value on the outcome, never an error from the pipeline: one bad
// article cannot abort the batch.
package process

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/research-assistant/pkg/types"
)

const (
	defaultRequestTimeout   = 30 * time.Second
	defaultRetryDelay       = 1 * time.Second
	defaultMinContentLength = 200
)

// Analysis is the structured result of summarizing one article.
type Analysis struct {
	Summary    string   `json:"summary"`
	KeyPoints  []string `json:"key_points"`
	Statistics []string `json:"key_statistics"`
	Relevance  float64  `json:"relevance"`
}

// Summarizer abstracts the language-model API so tests can supply a
// deterministic stub. Implementations return a *ServiceError for failures
// they can classify.
type Summarizer interface {
	Summarize(ctx context.Context, title, content string) (Analysis, error)
}

// ServiceError describes a classified summarization failure. Transient
// errors (timeouts, rate limits, 5xx) are retried once; permanent ones
// are demoted to a failed outcome immediately.
type ServiceError struct {
	Class     types.FailureClass
	Transient bool
	Err       error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Class, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Processor analyzes a single article per call. The zero value is not
// usable; Summarizer must be set.
type Processor struct {
	// Summarizer performs the external analysis call.
	Summarizer Summarizer

	// Timeout bounds each summarization call. Zero means 30s.
	Timeout time.Duration

	// RetryDelay is the pause before the single retry. Zero means 1s;
	// negative disables the pause (used by tests).
	RetryDelay time.Duration

	// MinContentLength rejects shorter article bodies as invalid content
	// before calling the service. Zero means 200.
	MinContentLength int
}

// Process analyzes one article and returns its outcome. It never returns
// an error: empty or too-short content yields an invalid_content failure
// without touching the service, a transient service failure is retried
// once, and remaining failures are recorded on the outcome with their
// classification.
func (p *Processor) Process(ctx context.Context, article types.SearchResult) types.ProcessedArticle {
	content := strings.TrimSpace(article.Content)
	minLen := p.MinContentLength
	if minLen <= 0 {
		minLen = defaultMinContentLength
	}
	if len(content) < minLen {
		return p.failed(article, types.FailInvalidContent,
			fmt.Sprintf("article body has %d characters, need at least %d", len(content), minLen))
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			if err := p.waitRetry(ctx); err != nil {
				break
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, timeout)
		analysis, err := p.Summarizer.Summarize(callCtx, article.Title, content)
		cancel()

		if err == nil {
			return types.ProcessedArticle{
				URL:         article.URL,
				Title:       article.Title,
				Summary:     analysis.Summary,
				KeyPoints:   analysis.KeyPoints,
				Statistics:  analysis.Statistics,
				Relevance:   analysis.Relevance,
				Status:      types.ArticleSuccess,
				ProcessedAt: time.Now().UTC(),
			}
		}

		lastErr = err
		if !transient(err) {
			break
		}
	}

	return p.failed(article, classify(lastErr), lastErr.Error())
}

func (p *Processor) failed(article types.SearchResult, class types.FailureClass, msg string) types.ProcessedArticle {
	return types.ProcessedArticle{
		URL:         article.URL,
		Title:       article.Title,
		Status:      types.ArticleFailed,
		Class:       class,
		Error:       msg,
		ProcessedAt: time.Now().UTC(),
	}
}

// waitRetry pauses before the retry attempt, honoring cancellation.
func (p *Processor) waitRetry(ctx context.Context) error {
	delay := p.RetryDelay
	if delay == 0 {
		delay = defaultRetryDelay
	}
	if delay < 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// transient reports whether err merits the single automatic retry.
func transient(err error) bool {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Transient
	}
	// Deadline expiry without classification still counts as a timeout.
	return errors.Is(err, context.DeadlineExceeded)
}

// classify maps an error to the failure class recorded on the outcome.
func classify(err error) types.FailureClass {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Class
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return types.FailTimeout
	}
	return types.FailServiceError
}
