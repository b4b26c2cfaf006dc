// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/internal/blog"
	"github.com/pdiddy/research-assistant/pkg/types"
)

var blogCmd = &cobra.Command{
	Use:   "blog [session-id]",
	Short: "Assemble a blog post from a processed session",
	Long: `Blog builds a post from a session's successful article analyses.
The research context is split into token-bounded chunks, each chunk is
expanded into a section, and a final framing pass adds the title and
introduction. The finished post is written to the output directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runBlog,
}

func init() {
	blogCmd.Flags().String("output-dir", "output/blogs", "directory for finished posts")
	blogCmd.Flags().Int("chunk-tokens", 4000, "token budget per context chunk")
	blogCmd.Flags().String("model", "gpt-4o-mini", "chat model for generation")
	blogCmd.Flags().String("openai-key", "", "OpenAI API key (overrides env and .secrets)")

	rootCmd.AddCommand(blogCmd)
}

func runBlog(cmd *cobra.Command, args []string) error {
	model, _ := cmd.Flags().GetString("model")
	key, _ := cmd.Flags().GetString("openai-key")
	key = apiKey(key, "OPENAI_API_KEY", "openai-api-key")
	if key == "" {
		return fmt.Errorf("missing OpenAI API key: set --openai-key, OPENAI_API_KEY, or .secrets/openai-api-key")
	}
	baseURL := apiKey("", "OPENAI_BASE_URL", "openai-base-url")

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	sess, err := store.GetSession(ctx, args[0])
	if err != nil {
		return err
	}
	if sess.Status != types.SessionCompleted {
		return fmt.Errorf("session %s is %s; process it before generating a post", sess.ID, sess.Status)
	}

	outputDir, _ := cmd.Flags().GetString("output-dir")
	chunkTokens, _ := cmd.Flags().GetInt("chunk-tokens")

	asm := &blog.Assembler{
		Generator:   blog.NewOpenAIGenerator(key, baseURL, model),
		Counter:     blog.NewTokenCounter(model),
		ChunkTokens: chunkTokens,
		OutputDir:   outputDir,
	}

	path, err := asm.Assemble(ctx, sess, os.Stderr)
	if err != nil {
		return err
	}
	fmt.Printf("Blog post written to %s\n", path)
	return nil
}
