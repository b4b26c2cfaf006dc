// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/research-assistant/internal/search"
	"github.com/pdiddy/research-assistant/internal/session"
	"github.com/pdiddy/research-assistant/pkg/types"
)

const (
	defaultSearchTimeout = 30 * time.Second
	defaultUserAgent     = "research-assistant/0.1"
)

var researchCmd = &cobra.Command{
	Use:   "research [query...]",
	Short: "Search the web and persist the results as a session",
	Long: `Research queries the configured search backends for a free-text
question, deduplicates the results by normalized URL, and stores them as
a new session. With --process the new session's articles are analyzed
immediately.`,
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().Int("max-results", 10, "maximum number of results to keep")
	researchCmd.Flags().Float64("min-score", 0.6, "minimum relevance score")
	researchCmd.Flags().String("depth", "advanced", "search depth: basic or advanced")
	researchCmd.Flags().String("topic", "general", "search topic: general or news")
	researchCmd.Flags().Int("days", 7, "restrict news searches to the last N days")
	researchCmd.Flags().StringSlice("include-domain", nil, "restrict results to these domains")
	researchCmd.Flags().StringSlice("exclude-domain", nil, "remove results from these domains")
	researchCmd.Flags().Duration("timeout", defaultSearchTimeout, "HTTP request timeout")
	researchCmd.Flags().String("tavily-key", "", "Tavily API key (overrides env and .secrets)")
	researchCmd.Flags().Bool("json", false, "output results as JSON")
	researchCmd.Flags().Bool("process", false, "analyze the session's articles after searching")
	researchCmd.Flags().Int("concurrency", 5, "maximum in-flight analysis calls with --process")

	rootCmd.AddCommand(researchCmd)
}

func searchConfigFromFlags(cmd *cobra.Command) types.SearchConfig {
	maxResults, _ := cmd.Flags().GetInt("max-results")
	minScore, _ := cmd.Flags().GetFloat64("min-score")
	depth, _ := cmd.Flags().GetString("depth")
	topic, _ := cmd.Flags().GetString("topic")
	days, _ := cmd.Flags().GetInt("days")
	includes, _ := cmd.Flags().GetStringSlice("include-domain")
	excludes, _ := cmd.Flags().GetStringSlice("exclude-domain")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	key, _ := cmd.Flags().GetString("tavily-key")
	if key == "" {
		key = viper.GetString("search.tavily_api_key")
	}

	return types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		MaxResults:     maxResults,
		MinScore:       minScore,
		SearchDepth:    depth,
		Topic:          topic,
		Days:           days,
		IncludeDomains: includes,
		ExcludeDomains: excludes,
		TavilyAPIKey:   apiKey(key, "TAVILY_API_KEY", "tavily-api-key"),
	}
}

func openStore(cmd *cobra.Command) (*session.Store, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	if v := viper.GetString("store.data_dir"); dataDir == "data" && v != "" {
		dataDir = v
	}
	return session.NewStore(types.StoreConfig{DataDir: dataDir})
}

func runResearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("provide a research query")
	}

	cfg := searchConfigFromFlags(cmd)
	if cfg.TavilyAPIKey == "" {
		return fmt.Errorf("missing Tavily API key: set --tavily-key, TAVILY_API_KEY, or .secrets/tavily-api-key")
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	sess, err := store.CreateSession(ctx, query)
	if err != nil {
		return err
	}
	if err := store.UpdateStatus(ctx, sess.ID, types.SessionSearching); err != nil {
		return err
	}

	client := &http.Client{Timeout: cfg.Timeout}
	backends := []search.Backend{
		&search.TavilyBackend{Client: client, APIKey: cfg.TavilyAPIKey},
	}

	out, err := search.Search(ctx, search.Query{Text: query}, backends, cfg, os.Stderr)
	if err != nil {
		store.UpdateStatus(ctx, sess.ID, types.SessionFailed)
		return err
	}

	if err := store.SaveRawResults(ctx, sess.ID, out.Results); err != nil {
		return err
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		if err := search.FormatJSON(out, os.Stdout); err != nil {
			return err
		}
	} else {
		search.FormatTable(out, os.Stdout)
	}
	fmt.Printf("\nSession: %s\n", sess.ID)

	doProcess, _ := cmd.Flags().GetBool("process")
	if !doProcess {
		return nil
	}

	concurrency, _ := cmd.Flags().GetInt("concurrency")
	return processSession(ctx, store, sess.ID, processingConfig(cmd, concurrency))
}
