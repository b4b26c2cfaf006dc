// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package blog

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter estimates how many model tokens a string consumes. The
// chunker uses it to keep each generation request under the model's
// input budget.
type TokenCounter interface {
	Count(text string) int
}

// NewTokenCounter returns a counter using the model's tiktoken encoding,
// falling back to an approximate word count when the encoding is
// unavailable (unknown model, or no cached encoding files offline).
func NewTokenCounter(model string) TokenCounter {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return wordCounter{}
	}
	return &tiktokenCounter{enc: enc}
}

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func (c *tiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// wordCounter approximates tokens by whitespace-separated words.
type wordCounter struct{}

func (wordCounter) Count(text string) int {
	return len(strings.Fields(text))
}
