// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package blog

import "testing"

func TestNewTokenCounterUnknownModelFallsBack(t *testing.T) {
	c := NewTokenCounter("definitely-not-a-model")
	if c == nil {
		t.Fatal("NewTokenCounter returned nil")
	}
	// The fallback counts whitespace-separated words.
	if got := c.Count("one two three"); got != 3 {
		t.Errorf("Count = %d, want 3", got)
	}
}
