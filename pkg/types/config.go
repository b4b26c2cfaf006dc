// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-assistant/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of results to return (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// MinScore drops results below this relevance score (default 0.6).
	MinScore float64 `json:"min_score" yaml:"min_score"`

	// SearchDepth selects the backend search mode: "basic" or "advanced".
	SearchDepth string `json:"search_depth" yaml:"search_depth"`

	// Topic hints the backend at the query category (e.g. "general", "news").
	Topic string `json:"topic" yaml:"topic"`

	// Days restricts news searches to articles from the last N days.
	Days int `json:"days" yaml:"days"`

	// IncludeDomains restricts results to these domains when set.
	IncludeDomains []string `json:"include_domains,omitempty" yaml:"include_domains,omitempty"`

	// ExcludeDomains removes results from these domains.
	ExcludeDomains []string `json:"exclude_domains,omitempty" yaml:"exclude_domains,omitempty"`

	// TavilyAPIKey authenticates against the Tavily search API.
	TavilyAPIKey string `json:"tavily_api_key,omitempty" yaml:"tavily_api_key,omitempty"`
}

// AIConfig holds shared settings for stages that call a language-model API.
type AIConfig struct {
	// Model is the model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the API endpoint. Empty uses the provider default.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// ProcessingConfig holds settings for the article-processing stage.
type ProcessingConfig struct {
	AIConfig `yaml:",inline"`

	// Concurrency is the maximum number of in-flight summarization calls
	// (default 5). Values <= 0 are rejected before any work starts.
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// RequestTimeout bounds each summarization call (default 30s).
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout"`

	// MinContentLength rejects articles with shorter bodies as invalid
	// content without calling the service (default 200 characters).
	MinContentLength int `json:"min_content_length" yaml:"min_content_length"`
}

// StoreConfig holds settings for the session store.
type StoreConfig struct {
	// DataDir is the base directory for persisted state (contains index/, exports/).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// BlogConfig holds settings for the blog-assembly stage.
type BlogConfig struct {
	AIConfig `yaml:",inline"`

	// OutputDir is the directory for generated blog posts (e.g. "output/blogs/").
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// ChunkTokens is the token budget per content chunk sent to the
	// model (default 4000).
	ChunkTokens int `json:"chunk_tokens" yaml:"chunk_tokens"`
}

// PipelineConfig groups all stage configurations for the assistant.
type PipelineConfig struct {
	Search     SearchConfig     `json:"search" yaml:"search"`
	Processing ProcessingConfig `json:"processing" yaml:"processing"`
	Store      StoreConfig      `json:"store" yaml:"store"`
	Blog       BlogConfig       `json:"blog" yaml:"blog"`
}
