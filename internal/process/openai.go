// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package process

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// analysisSystemPrompt instructs the model to return the analysis as a
// JSON object matching the Analysis schema. JSON mode enforces valid JSON;
// the prompt pins the field names.
const analysisSystemPrompt = `You are a precise research analyst. Analyze the article and respond with a JSON object only, no other text, matching exactly this schema:
{
  "summary": "comprehensive summary of the article, max 1000 characters, academic tone",
  "key_points": ["detailed key findings and insights, complete sentences, 5 to 15 entries"],
  "key_statistics": ["important numbers, percentages, and measurements; empty array if none"],
  "relevance": 0.0
}
"relevance" is a float between 0.0 and 1.0 scoring how substantive and on-topic the article is.`

// OpenAISummarizer calls the OpenAI chat completions API in JSON mode.
type OpenAISummarizer struct {
	client *openai.Client
	model  string
}

// NewOpenAISummarizer builds a summarizer for the given key and model.
// baseURL overrides the API endpoint; tests point it at an httptest server.
func NewOpenAISummarizer(apiKey, baseURL, model string) *OpenAISummarizer {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAISummarizer{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Summarize sends the article to the model and parses the structured
// analysis. Failures come back as *ServiceError with transport-level
// classification applied.
func (s *OpenAISummarizer) Summarize(ctx context.Context, title, content string) (Analysis, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: analysisSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Title: %s\n\nContent: %s", title, content)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.7,
	})
	if err != nil {
		return Analysis{}, classifyAPIError(err)
	}

	if len(resp.Choices) == 0 {
		return Analysis{}, &ServiceError{
			Class: types.FailServiceError, Transient: false,
			Err: errors.New("model returned no choices"),
		}
	}

	var analysis Analysis
	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return Analysis{}, &ServiceError{
			Class: types.FailServiceError, Transient: false,
			Err: fmt.Errorf("parsing analysis JSON: %w", err),
		}
	}

	if analysis.Relevance < 0 {
		analysis.Relevance = 0
	}
	if analysis.Relevance > 1 {
		analysis.Relevance = 1
	}
	return analysis, nil
}

// classifyAPIError maps transport-level failures from the OpenAI client
// onto the failure taxonomy. Rate limits and 5xx are transient; other
// HTTP errors are permanent; timeouts are transient timeouts.
func classifyAPIError(err error) *ServiceError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &ServiceError{Class: types.FailTimeout, Transient: true, Err: err}
	case errors.Is(err, context.Canceled):
		return &ServiceError{Class: types.FailServiceError, Transient: false, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ServiceError{Class: types.FailTimeout, Transient: true, Err: err}
	}

	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == 429:
		return &ServiceError{Class: types.FailRateLimited, Transient: true, Err: err}
	case status >= 500:
		return &ServiceError{Class: types.FailServiceError, Transient: true, Err: err}
	case status > 0:
		return &ServiceError{Class: types.FailServiceError, Transient: false, Err: err}
	}

	// Connection-level failures are worth one retry.
	return &ServiceError{Class: types.FailServiceError, Transient: true, Err: err}
}
