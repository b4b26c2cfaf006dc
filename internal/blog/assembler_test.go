// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package blog

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// scriptGenerator answers section prompts in order, then the framing
// prompt with a canned framing response.
type scriptGenerator struct {
	calls   int
	framing string
}

func (g *scriptGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.calls++
	if strings.Contains(prompt, "finishing a blog post") {
		return g.framing, nil
	}
	return fmt.Sprintf("Section text %d.", g.calls), nil
}

func processedSession() *types.Session {
	return &types.Session{
		ID:    "sess-1",
		Query: "zero downtime deploys",
		RawResults: []types.SearchResult{
			{URL: "http://a.com/1", Title: "Blue Green"},
			{URL: "http://b.com/2", Title: "Canary"},
			{URL: "http://c.com/3", Title: "Broken"},
		},
		Processed: map[string]types.ProcessedArticle{
			"http://a.com/1": {
				URL: "http://a.com/1", Title: "Blue Green", Status: types.ArticleSuccess,
				Summary: "Two environments swap roles.", KeyPoints: []string{"instant rollback"},
				Statistics: []string{"downtime under 1s"},
			},
			"http://b.com/2": {
				URL: "http://b.com/2", Title: "Canary", Status: types.ArticleSuccess,
				Summary: "Gradual traffic shifting.",
			},
			"http://c.com/3": {
				URL: "http://c.com/3", Title: "Broken", Status: types.ArticleFailed,
				Class: types.FailTimeout, Error: "deadline exceeded",
			},
		},
	}
}

// --- Context building ---

func TestBuildContextSuccessfulOnly(t *testing.T) {
	got := BuildContext(processedSession())

	if !strings.Contains(got, "## Blue Green") || !strings.Contains(got, "## Canary") {
		t.Errorf("context missing successful articles:\n%s", got)
	}
	if strings.Contains(got, "Broken") {
		t.Errorf("context includes failed article:\n%s", got)
	}
	if !strings.Contains(got, "- instant rollback") || !strings.Contains(got, "- downtime under 1s") {
		t.Errorf("context missing key points or statistics:\n%s", got)
	}
	// Raw-result order is preserved.
	if strings.Index(got, "Blue Green") > strings.Index(got, "Canary") {
		t.Error("context articles out of raw-result order")
	}
}

func TestBuildContextEmptySession(t *testing.T) {
	sess := &types.Session{ID: "empty"}
	if got := BuildContext(sess); got != "" {
		t.Errorf("BuildContext for empty session = %q, want empty", got)
	}
}

// --- Chunking ---

func TestSplitChunksRespectsBudget(t *testing.T) {
	paras := make([]string, 10)
	for i := range paras {
		paras[i] = strings.Repeat("word ", 50)
	}
	content := strings.Join(paras, "\n\n")

	chunks := SplitChunks(content, 120, wordCounter{})

	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, expected the budget to force a split", len(chunks))
	}
	for i, c := range chunks {
		if n := (wordCounter{}).Count(c); n > 120 {
			t.Errorf("chunk %d has %d tokens, budget is 120", i, n)
		}
	}
	// Reassembly preserves every paragraph.
	joined := strings.Join(chunks, "\n\n")
	if strings.Count(joined, "word") != strings.Count(content, "word") {
		t.Error("chunking lost content")
	}
}

func TestSplitChunksOversizeParagraph(t *testing.T) {
	big := strings.Repeat("word ", 200)
	content := "small one\n\n" + big + "\n\nsmall two"

	chunks := SplitChunks(content, 50, wordCounter{})

	found := false
	for _, c := range chunks {
		if strings.Contains(c, big[:40]) && !strings.Contains(c, "small") {
			found = true
		}
	}
	if !found {
		t.Errorf("oversize paragraph should be its own chunk: %d chunks", len(chunks))
	}
}

func TestSplitChunksSkipsBlankParagraphs(t *testing.T) {
	chunks := SplitChunks("one\n\n\n\n   \n\ntwo", 1000, wordCounter{})
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	if strings.Contains(chunks[0], "   ") {
		t.Errorf("blank paragraph survived: %q", chunks[0])
	}
}

// --- Token counting ---

func TestWordCounter(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"one", 1},
		{"one two three", 3},
		{"  spaced   out\n\ttokens ", 3},
	}
	for _, tt := range tests {
		if got := (wordCounter{}).Count(tt.text); got != tt.want {
			t.Errorf("Count(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

// --- Post formatting ---

func TestFormatPostSplitsFraming(t *testing.T) {
	sess := processedSession()
	framing := "# Title\n\nIntro paragraph.\n---BODY---\n## Key Takeaways\n\nWrap up."

	post := FormatPost(framing, "Body section.", sess)

	if !strings.HasPrefix(post, "# Title") {
		t.Errorf("post does not start with the title:\n%s", post)
	}
	titleIdx := strings.Index(post, "# Title")
	bodyIdx := strings.Index(post, "Body section.")
	concIdx := strings.Index(post, "## Key Takeaways")
	if !(titleIdx < bodyIdx && bodyIdx < concIdx) {
		t.Errorf("post parts out of order:\n%s", post)
	}
}

func TestFormatPostReferences(t *testing.T) {
	post := FormatPost("# Title", "Body.", processedSession())

	if !strings.Contains(post, "## References") {
		t.Fatalf("post missing references:\n%s", post)
	}
	if !strings.Contains(post, "- [Blue Green](http://a.com/1)") ||
		!strings.Contains(post, "- [Canary](http://b.com/2)") {
		t.Errorf("references incomplete:\n%s", post)
	}
	if strings.Contains(post, "http://c.com/3") {
		t.Errorf("failed article listed as reference:\n%s", post)
	}
}

func TestFormatPostNoFramingMarker(t *testing.T) {
	post := FormatPost("Just an intro.", "Body.", &types.Session{})
	if !strings.HasPrefix(post, "Just an intro.\n\nBody.") {
		t.Errorf("unexpected post:\n%s", post)
	}
}

// --- End-to-end assembly ---

func TestAssembleWritesPost(t *testing.T) {
	gen := &scriptGenerator{framing: "# Deploys\n\nIntro.\n---BODY---\n## Key Takeaways\n\nDone."}
	asm := &Assembler{
		Generator:   gen,
		Counter:     wordCounter{},
		ChunkTokens: 4000,
		OutputDir:   t.TempDir(),
	}

	var buf bytes.Buffer
	path, err := asm.Assemble(context.Background(), processedSession(), &buf)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading post: %v", err)
	}
	post := string(data)
	if !strings.Contains(post, "# Deploys") || !strings.Contains(post, "Section text 1.") {
		t.Errorf("post missing generated content:\n%s", post)
	}
	if !strings.Contains(post, "## References") {
		t.Errorf("post missing references:\n%s", post)
	}
	// One section chunk plus the framing call.
	if gen.calls != 2 {
		t.Errorf("generator called %d times, want 2", gen.calls)
	}
	if !strings.Contains(buf.String(), "generating 1 section(s)") {
		t.Errorf("status output: %q", buf.String())
	}
}

func TestAssembleNoSuccessfulArticles(t *testing.T) {
	asm := &Assembler{Generator: &scriptGenerator{}, OutputDir: t.TempDir()}
	sess := &types.Session{
		ID: "sess-2",
		RawResults: []types.SearchResult{{URL: "http://a.com/1"}},
		Processed: map[string]types.ProcessedArticle{
			"http://a.com/1": {URL: "http://a.com/1", Status: types.ArticleFailed},
		},
	}

	var buf bytes.Buffer
	if _, err := asm.Assemble(context.Background(), sess, &buf); err == nil {
		t.Fatal("Assemble should fail with no successful articles")
	}
}
