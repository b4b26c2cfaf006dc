// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/pkg/types"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect stored research sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions, newest first",
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Show one session's results and outcomes",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsSearchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Full-text search across all stored articles",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSessionsSearch,
}

var sessionsExportCmd = &cobra.Command{
	Use:   "export [session-id]",
	Short: "Export one session as YAML",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsExport,
}

func init() {
	sessionsShowCmd.Flags().Bool("json", false, "output the session as JSON")
	sessionsSearchCmd.Flags().Int("limit", 10, "maximum number of matches")

	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd, sessionsSearchCmd, sessionsExportCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	summaries, err := store.ListSessions(cmd.Context())
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No sessions stored.")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSTATUS\tARTICLES\tOK\tFAILED\tQUERY")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			s.ID, s.CreatedAt.Format("2006-01-02 15:04"), s.Status,
			s.Articles, s.Succeeded, s.Failed, s.Query)
	}
	return tw.Flush()
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	sess, err := store.GetSession(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sess)
	}

	fmt.Printf("Session %s (%s)\n", sess.ID, sess.Status)
	fmt.Printf("Query:   %s\n", sess.Query)
	fmt.Printf("Created: %s\n\n", sess.CreatedAt.Format("2006-01-02 15:04:05"))

	for i, r := range sess.RawResults {
		fmt.Printf("%2d. %s (score %.2f)\n    %s\n", i+1, r.Title, r.Score, r.URL)
		if art, ok := sess.Processed[r.URL]; ok {
			if art.Status == types.ArticleSuccess {
				fmt.Printf("    %s\n", art.Summary)
			} else {
				fmt.Printf("    failed (%s): %s\n", art.Class, art.Error)
			}
		}
	}
	if sess.Report != nil {
		fmt.Printf("\n%d processed, %d succeeded, %d failed\n",
			sess.Report.Total, sess.Report.Succeeded, sess.Report.Failed)
	}
	return nil
}

func runSessionsSearch(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	query := args[0]
	for _, a := range args[1:] {
		query += " " + a
	}

	hits, err := store.SearchArticles(cmd.Context(), query, limit)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Println("No matches.")
		return nil
	}

	for _, h := range hits {
		fmt.Printf("%s  %s\n  %s\n  %s\n\n", h.SessionID, h.Title, h.URL, h.Snippet)
	}
	return nil
}

func runSessionsExport(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	path, err := store.ExportYAML(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Exported to %s\n", path)
	return nil
}
