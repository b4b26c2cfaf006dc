// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-assistant/internal/process"
	"github.com/pdiddy/research-assistant/internal/search"
	"github.com/pdiddy/research-assistant/internal/session"
	"github.com/pdiddy/research-assistant/pkg/types"
)

var processCmd = &cobra.Command{
	Use:   "process [session-id]",
	Short: "Analyze a session's stored articles with the language model",
	Long: `Process loads an existing session's search results and runs each
article through the language model concurrently. Failed articles are
recorded on the session alongside the successful ones; a per-article
failure does not abort the run.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().Int("concurrency", 5, "maximum in-flight analysis calls")
	processCmd.Flags().Duration("timeout", 30*time.Second, "timeout per analysis call")
	processCmd.Flags().String("model", "gpt-4o-mini", "chat model for analysis")
	processCmd.Flags().String("openai-key", "", "OpenAI API key (overrides env and .secrets)")

	rootCmd.AddCommand(processCmd)
}

func processingConfig(cmd *cobra.Command, concurrency int) types.ProcessingConfig {
	model, _ := cmd.Flags().GetString("model")
	if model == "" {
		if v := viper.GetString("processing.model"); v != "" {
			model = v
		} else {
			model = "gpt-4o-mini"
		}
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")
	key, _ := cmd.Flags().GetString("openai-key")

	return types.ProcessingConfig{
		AIConfig: types.AIConfig{
			Model:   model,
			APIKey:  apiKey(key, "OPENAI_API_KEY", "openai-api-key"),
			BaseURL: apiKey(viper.GetString("processing.base_url"), "OPENAI_BASE_URL", "openai-base-url"),
		},
		Concurrency:    concurrency,
		RequestTimeout: timeout,
	}
}

// processSession runs the analysis pipeline for a stored session and
// persists the outcomes. Per-article failures are reported but do not
// produce an error; only configuration and storage problems do.
func processSession(ctx context.Context, store *session.Store, sessionID string, cfg types.ProcessingConfig) error {
	if cfg.APIKey == "" {
		return fmt.Errorf("missing OpenAI API key: set --openai-key, OPENAI_API_KEY, or .secrets/openai-api-key")
	}

	sess, err := store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if len(sess.RawResults) == 0 {
		return fmt.Errorf("session %s has no search results to process", sessionID)
	}

	if err := store.UpdateStatus(ctx, sessionID, types.SessionProcessing); err != nil {
		return err
	}

	proc := &process.Processor{
		Summarizer:       process.NewOpenAISummarizer(cfg.APIKey, cfg.BaseURL, cfg.Model),
		Timeout:          cfg.RequestTimeout,
		MinContentLength: cfg.MinContentLength,
	}

	results, report, err := process.Run(ctx, proc, sess.RawResults, cfg.Concurrency, os.Stderr)
	if err != nil {
		if errors.Is(err, process.ErrConfig) {
			store.UpdateStatus(ctx, sessionID, types.SessionFailed)
		}
		return err
	}

	for _, r := range sess.RawResults {
		art, ok := results[search.NormalizeURL(r.URL)]
		if !ok {
			continue
		}
		art.URL = r.URL
		if err := store.SaveProcessed(ctx, sessionID, art); err != nil {
			return err
		}
	}
	if err := store.SaveReport(ctx, sessionID, report); err != nil {
		return err
	}

	if report.HasFailures() {
		fmt.Fprintf(os.Stderr, "\n%d article(s) failed:\n", report.Failed)
		for _, f := range report.Failures {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", f.URL, f.Error)
		}
	}
	fmt.Printf("Processed session %s: %d succeeded, %d failed\n",
		sessionID, report.Succeeded, report.Failed)
	return nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	concurrency, _ := cmd.Flags().GetInt("concurrency")
	return processSession(cmd.Context(), store, args[0], processingConfig(cmd, concurrency))
}
