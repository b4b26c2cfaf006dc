// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ArticleStatus indicates whether the language-model analysis of an
// article succeeded.
type ArticleStatus string

const (
	ArticleSuccess ArticleStatus = "success"
	ArticleFailed  ArticleStatus = "failed"
)

// FailureClass categorizes a per-article processing failure. Failures are
// recorded as data on the ProcessedArticle; they never abort the batch.
type FailureClass string

const (
	// FailTimeout marks a summarization call that exceeded its deadline.
	FailTimeout FailureClass = "timeout"

	// FailRateLimited marks an HTTP 429 from the language-model API.
	FailRateLimited FailureClass = "rate_limited"

	// FailServiceError marks any other upstream service failure.
	FailServiceError FailureClass = "service_error"

	// FailInvalidContent marks an article rejected before calling the
	// service (e.g. empty or too-short body).
	FailInvalidContent FailureClass = "invalid_content"
)

// ProcessedArticle is the outcome of analyzing one search result with the
// language model. Exactly one is produced per deduplicated URL; a failed
// outcome carries the failure class and message instead of a summary.
type ProcessedArticle struct {
	// URL is the article URL this outcome belongs to.
	URL string `json:"url" yaml:"url"`

	// Title is the article title, carried over from the search result.
	Title string `json:"title" yaml:"title"`

	// Summary is the model's comprehensive summary of the article.
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`

	// KeyPoints lists the main findings and insights in model order.
	KeyPoints []string `json:"key_points,omitempty" yaml:"key_points,omitempty"`

	// Statistics lists notable numbers and percentages from the article.
	Statistics []string `json:"statistics,omitempty" yaml:"statistics,omitempty"`

	// Relevance is the model's relevance score between 0.0 and 1.0.
	Relevance float64 `json:"relevance,omitempty" yaml:"relevance,omitempty"`

	// Status records whether processing succeeded or failed.
	Status ArticleStatus `json:"status" yaml:"status"`

	// Class categorizes the failure. Empty on success.
	Class FailureClass `json:"class,omitempty" yaml:"class,omitempty"`

	// Error is the failure message. Empty on success.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// ProcessedAt is when the outcome was produced.
	ProcessedAt time.Time `json:"processed_at" yaml:"processed_at"`
}

// Failure is one entry in a ProcessingReport's failure list.
type Failure struct {
	URL   string `json:"url" yaml:"url"`
	Error string `json:"error" yaml:"error"`
}

// ProcessingReport summarizes one pipeline run. Succeeded+Failed always
// equals Total, and Failures is ordered by original submission order.
type ProcessingReport struct {
	Total     int       `json:"total" yaml:"total"`
	Succeeded int       `json:"succeeded" yaml:"succeeded"`
	Failed    int       `json:"failed" yaml:"failed"`
	Failures  []Failure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// HasFailures reports whether any articles failed.
func (r ProcessingReport) HasFailures() bool {
	return r.Failed > 0
}

// SessionStatus tracks a research session through its lifecycle.
type SessionStatus string

const (
	SessionCreated    SessionStatus = "created"
	SessionSearching  SessionStatus = "searching"
	SessionProcessing SessionStatus = "processing"
	SessionCompleted  SessionStatus = "completed"
	SessionFailed     SessionStatus = "failed"
)

// Session is the unit of persisted state for one research query. It is
// written twice by the pipeline (raw results, then processed results) and
// never deleted by this code.
type Session struct {
	// ID is the session identifier (UUID).
	ID string `json:"id" yaml:"id"`

	// Query is the research query that produced this session.
	Query string `json:"query" yaml:"query"`

	// Status is the session lifecycle state.
	Status SessionStatus `json:"status" yaml:"status"`

	// CreatedAt is when the session was created.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`

	// UpdatedAt is when the session was last written.
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`

	// RawResults holds the deduplicated search results in original order.
	RawResults []SearchResult `json:"raw_results" yaml:"raw_results"`

	// Processed maps article URL to its processing outcome. Its key set
	// is always a subset of the RawResults URLs.
	Processed map[string]ProcessedArticle `json:"processed,omitempty" yaml:"processed,omitempty"`

	// Report holds the counts from the last processing run, if any.
	Report *ProcessingReport `json:"report,omitempty" yaml:"report,omitempty"`
}
