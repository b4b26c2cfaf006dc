// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package blog assembles a blog post from a processed research session.
// The processed-article context is chunked to fit the model's input
// budget; each chunk is turned into body sections, then the model frames
// the assembled body with a title, introduction, and conclusion.
package blog

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/research-assistant/pkg/types"
)

const defaultChunkTokens = 4000

// Generator abstracts the language-model API so tests can supply a
// deterministic stub.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Assembler turns a processed session into a saved blog post.
type Assembler struct {
	// Generator performs the external generation calls.
	Generator Generator

	// Counter estimates token usage for chunking. Nil means word count.
	Counter TokenCounter

	// ChunkTokens is the token budget per context chunk. Zero means 4000.
	ChunkTokens int

	// OutputDir is where finished posts are written.
	OutputDir string
}

// BuildContext renders the session's successful outcomes as the research
// context for generation, in raw-result order. Sessions with no
// successful outcome produce an empty string.
func BuildContext(sess *types.Session) string {
	var b strings.Builder
	for _, r := range sess.RawResults {
		p, ok := sess.Processed[r.URL]
		if !ok || p.Status != types.ArticleSuccess {
			continue
		}
		fmt.Fprintf(&b, "## %s\nSource: %s\n\n%s\n", p.Title, p.URL, p.Summary)
		if len(p.KeyPoints) > 0 {
			b.WriteString("\nKey points:\n")
			for _, kp := range p.KeyPoints {
				fmt.Fprintf(&b, "- %s\n", kp)
			}
		}
		if len(p.Statistics) > 0 {
			b.WriteString("\nStatistics:\n")
			for _, st := range p.Statistics {
				fmt.Fprintf(&b, "- %s\n", st)
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

// SplitChunks splits content on paragraph boundaries into chunks of at
// most maxTokens each, per the counter. A single paragraph larger than
// the budget becomes its own chunk rather than being split mid-paragraph.
func SplitChunks(content string, maxTokens int, counter TokenCounter) []string {
	if maxTokens <= 0 {
		maxTokens = defaultChunkTokens
	}
	if counter == nil {
		counter = wordCounter{}
	}

	var (
		chunks  []string
		current []string
		length  int
	)
	for _, para := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(para) == "" {
			continue
		}
		n := counter.Count(para)
		if length+n > maxTokens && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n\n"))
			current = []string{para}
			length = n
			continue
		}
		current = append(current, para)
		length += n
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n\n"))
	}
	return chunks
}

// Assemble generates the post for a session and writes it to OutputDir,
// returning the written path. It fails when the session has no
// successfully processed articles to draw from.
func (a *Assembler) Assemble(ctx context.Context, sess *types.Session, w io.Writer) (string, error) {
	researchContext := BuildContext(sess)
	if researchContext == "" {
		return "", fmt.Errorf("session %s has no successfully processed articles", sess.ID)
	}

	chunks := SplitChunks(researchContext, a.ChunkTokens, a.Counter)
	fmt.Fprintf(w, "generating %d section(s) for session %s\n", len(chunks), sess.ID)

	var sections []string
	for i, chunk := range chunks {
		prompt, err := renderSectionPrompt(sess.Query, chunk)
		if err != nil {
			return "", fmt.Errorf("rendering section prompt: %w", err)
		}
		section, err := a.Generator.Generate(ctx, prompt)
		if err != nil {
			return "", fmt.Errorf("generating section %d: %w", i+1, err)
		}
		sections = append(sections, strings.TrimSpace(section))
		fmt.Fprintf(w, "  section %d/%d done\n", i+1, len(chunks))
	}

	body := strings.Join(sections, "\n\n")

	framingPrompt, err := renderFramingPrompt(sess.Query, body)
	if err != nil {
		return "", fmt.Errorf("rendering framing prompt: %w", err)
	}
	framing, err := a.Generator.Generate(ctx, framingPrompt)
	if err != nil {
		return "", fmt.Errorf("generating framing: %w", err)
	}

	post := FormatPost(framing, body, sess)

	path, err := a.save(sess.ID, post)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(w, "wrote %s\n", path)
	return path, nil
}

// FormatPost splices the generated framing around the body and appends a
// references list built from the session's successful outcomes.
func FormatPost(framing, body string, sess *types.Session) string {
	intro := framing
	conclusion := ""
	if before, after, found := strings.Cut(framing, "---BODY---"); found {
		intro = strings.TrimSpace(before)
		conclusion = strings.TrimSpace(after)
	}

	var b strings.Builder
	b.WriteString(intro)
	b.WriteString("\n\n")
	b.WriteString(body)
	if conclusion != "" {
		b.WriteString("\n\n")
		b.WriteString(conclusion)
	}

	var refs []string
	for _, r := range sess.RawResults {
		if p, ok := sess.Processed[r.URL]; ok && p.Status == types.ArticleSuccess {
			refs = append(refs, fmt.Sprintf("- [%s](%s)", p.Title, p.URL))
		}
	}
	if len(refs) > 0 {
		sort.Strings(refs)
		b.WriteString("\n\n## References\n\n")
		b.WriteString(strings.Join(refs, "\n"))
		b.WriteString("\n")
	}
	return b.String()
}

// save writes the post via a temp file and rename so a crash never leaves
// a half-written post behind.
func (a *Assembler) save(sessionID, post string) (string, error) {
	if err := os.MkdirAll(a.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	name := fmt.Sprintf("blog-%s-%s.md", sessionID, time.Now().UTC().Format("20060102"))
	destPath := filepath.Join(a.OutputDir, name)

	tmpFile, err := os.CreateTemp(a.OutputDir, ".blog-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.WriteString(post)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing post: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}
	return destPath, nil
}
