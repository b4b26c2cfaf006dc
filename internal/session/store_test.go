// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(types.StoreConfig{DataDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testResults() []types.SearchResult {
	return []types.SearchResult{
		{URL: "http://a.com/kubernetes", Title: "Kubernetes Networking", Content: "pods services and ingress", Score: 0.91, PublishedDate: "2026-08-01", Source: "tavily"},
		{URL: "http://b.com/golang", Title: "Go Concurrency Patterns", Content: "goroutines channels select", Score: 0.85, Source: "tavily"},
		{URL: "http://c.com/dbs", Title: "Database Internals", Content: "btrees and write ahead logs", Score: 0.72, Source: "tavily"},
	}
}

// --- Session lifecycle ---

func TestCreateAndGetSession(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, "how does raft work")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if sess.ID == "" {
		t.Fatal("session ID is empty")
	}
	if sess.Status != types.SessionCreated {
		t.Errorf("status = %s, want %s", sess.Status, types.SessionCreated)
	}

	got, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Query != "how does raft work" {
		t.Errorf("query = %q", got.Query)
	}
	if got.Report != nil {
		t.Error("fresh session should have no report")
	}
}

func TestGetSessionNotFound(t *testing.T) {
	store := testStore(t)
	_, err := store.GetSession(context.Background(), "no-such-id")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("err = %v, want not-found", err)
	}
}

func TestUpdateStatus(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, "q")
	if err != nil {
		t.Fatal(err)
	}

	if err := store.UpdateStatus(ctx, sess.ID, types.SessionProcessing); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	got, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != types.SessionProcessing {
		t.Errorf("status = %s, want %s", got.Status, types.SessionProcessing)
	}

	if err := store.UpdateStatus(ctx, "no-such-id", types.SessionFailed); err == nil {
		t.Error("UpdateStatus on missing session should fail")
	}
}

// --- Raw results ---

func TestSaveRawResultsPreservesOrder(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, "q")
	if err != nil {
		t.Fatal(err)
	}
	results := testResults()
	if err := store.SaveRawResults(ctx, sess.ID, results); err != nil {
		t.Fatalf("SaveRawResults: %v", err)
	}

	got, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.RawResults) != len(results) {
		t.Fatalf("got %d raw results, want %d", len(got.RawResults), len(results))
	}
	for i := range results {
		if got.RawResults[i].URL != results[i].URL {
			t.Errorf("result %d URL = %q, want %q", i, got.RawResults[i].URL, results[i].URL)
		}
	}
	if got.RawResults[0].Score != 0.91 || got.RawResults[0].PublishedDate != "2026-08-01" {
		t.Errorf("first result fields lost: %+v", got.RawResults[0])
	}
}

func TestSaveRawResultsReplaces(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, "q")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SaveRawResults(ctx, sess.ID, testResults()); err != nil {
		t.Fatal(err)
	}
	replacement := []types.SearchResult{{URL: "http://d.com/new", Title: "New", Content: "fresh", Score: 0.6}}
	if err := store.SaveRawResults(ctx, sess.ID, replacement); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.RawResults) != 1 || got.RawResults[0].URL != "http://d.com/new" {
		t.Errorf("raw results not replaced: %+v", got.RawResults)
	}
}

// --- Processed outcomes and reports ---

func TestSaveProcessedRoundtrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, "q")
	if err != nil {
		t.Fatal(err)
	}
	results := testResults()
	if err := store.SaveRawResults(ctx, sess.ID, results); err != nil {
		t.Fatal(err)
	}

	ok := types.ProcessedArticle{
		URL:         results[0].URL,
		Title:       results[0].Title,
		Summary:     "A thorough summary.",
		KeyPoints:   []string{"first", "second"},
		Statistics:  []string{"99.9% uptime"},
		Relevance:   0.8,
		Status:      types.ArticleSuccess,
		ProcessedAt: time.Now().UTC(),
	}
	failed := types.ProcessedArticle{
		URL:         results[1].URL,
		Title:       results[1].Title,
		Status:      types.ArticleFailed,
		Class:       types.FailRateLimited,
		Error:       "429 from upstream",
		ProcessedAt: time.Now().UTC(),
	}
	for _, art := range []types.ProcessedArticle{ok, failed} {
		if err := store.SaveProcessed(ctx, sess.ID, art); err != nil {
			t.Fatalf("SaveProcessed: %v", err)
		}
	}
	report := types.ProcessingReport{Total: 2, Succeeded: 1, Failed: 1}
	if err := store.SaveReport(ctx, sess.ID, report); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	got, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != types.SessionCompleted {
		t.Errorf("status = %s, want %s", got.Status, types.SessionCompleted)
	}
	if got.Report == nil {
		t.Fatal("report missing")
	}
	if got.Report.Succeeded != 1 || got.Report.Failed != 1 {
		t.Errorf("report = %+v", got.Report)
	}
	if len(got.Report.Failures) != 1 || got.Report.Failures[0].URL != failed.URL {
		t.Errorf("failures = %+v", got.Report.Failures)
	}

	p := got.Processed[ok.URL]
	if p.Summary != ok.Summary || len(p.KeyPoints) != 2 || len(p.Statistics) != 1 || p.Relevance != 0.8 {
		t.Errorf("processed article lost fields: %+v", p)
	}
	f := got.Processed[failed.URL]
	if f.Class != types.FailRateLimited || f.Error != "429 from upstream" {
		t.Errorf("failed article lost fields: %+v", f)
	}
}

func TestSaveProcessedUpsert(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, "q")
	if err != nil {
		t.Fatal(err)
	}

	art := types.ProcessedArticle{
		URL: "http://a.com/x", Status: types.ArticleFailed,
		Class: types.FailTimeout, Error: "deadline exceeded",
	}
	if err := store.SaveProcessed(ctx, sess.ID, art); err != nil {
		t.Fatal(err)
	}

	// A re-run replaces the failed outcome with a success.
	art.Status = types.ArticleSuccess
	art.Class = ""
	art.Error = ""
	art.Summary = "second attempt worked"
	if err := store.SaveProcessed(ctx, sess.ID, art); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetSession(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	p := got.Processed["http://a.com/x"]
	if p.Status != types.ArticleSuccess || p.Summary != "second attempt worked" {
		t.Errorf("upsert did not replace outcome: %+v", p)
	}
}

// --- Listing ---

func TestListSessionsNewestFirst(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	first, err := store.CreateSession(ctx, "first query")
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)
	second, err := store.CreateSession(ctx, "second query")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SaveRawResults(ctx, second.ID, testResults()); err != nil {
		t.Fatal(err)
	}

	summaries, err := store.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("got %d summaries, want 2", len(summaries))
	}
	if summaries[0].ID != second.ID || summaries[1].ID != first.ID {
		t.Errorf("sessions not newest first: %s then %s", summaries[0].ID, summaries[1].ID)
	}
	if summaries[0].Articles != 3 {
		t.Errorf("article count = %d, want 3", summaries[0].Articles)
	}
}

// --- Full-text search ---

func TestSearchArticles(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, "distributed systems")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SaveRawResults(ctx, sess.ID, testResults()); err != nil {
		t.Fatal(err)
	}

	hits, err := store.SearchArticles(ctx, "goroutines", 0)
	if err != nil {
		t.Fatalf("SearchArticles: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].URL != "http://b.com/golang" {
		t.Errorf("hit URL = %q", hits[0].URL)
	}
	if hits[0].SessionID != sess.ID || hits[0].Query != "distributed systems" {
		t.Errorf("hit metadata wrong: %+v", hits[0])
	}
	if !strings.Contains(hits[0].Snippet, "[goroutines]") {
		t.Errorf("snippet = %q, want highlighted match", hits[0].Snippet)
	}
}

func TestSearchArticlesAfterReplace(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, "q")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SaveRawResults(ctx, sess.ID, testResults()); err != nil {
		t.Fatal(err)
	}
	// Replacing the raw results must also update the FTS index.
	if err := store.SaveRawResults(ctx, sess.ID, []types.SearchResult{
		{URL: "http://d.com/new", Title: "Observability", Content: "traces metrics spans"},
	}); err != nil {
		t.Fatal(err)
	}

	hits, err := store.SearchArticles(ctx, "goroutines", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("stale FTS entries survived replace: %+v", hits)
	}

	hits, err = store.SearchArticles(ctx, "traces", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Errorf("got %d hits for new content, want 1", len(hits))
	}
}

// --- YAML export ---

func TestExportYAML(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	sess, err := store.CreateSession(ctx, "export me")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SaveRawResults(ctx, sess.ID, testResults()); err != nil {
		t.Fatal(err)
	}

	path, err := store.ExportYAML(ctx, sess.ID)
	if err != nil {
		t.Fatalf("ExportYAML: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading export: %v", err)
	}
	var exported types.Session
	if err := yaml.Unmarshal(data, &exported); err != nil {
		t.Fatalf("export is not valid YAML: %v", err)
	}
	if exported.Query != "export me" || len(exported.RawResults) != 3 {
		t.Errorf("export lost data: query=%q, %d results", exported.Query, len(exported.RawResults))
	}
}
