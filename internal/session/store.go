// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session persists research sessions in a local SQLite database:
// the query, the deduplicated raw search results, and the per-article
// processing outcomes.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-assistant/pkg/types"
)

const (
	indexDir   = "index"
	exportsDir = "exports"
	dbFile     = "sessions.db"
)

// Store manages the session SQLite database.
type Store struct {
	db         *sql.DB
	dataDir    string
	maxResults int
}

// NewStore opens or creates the session database at dataDir/index/sessions.db.
// It creates the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.DataDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		dataDir:    cfg.DataDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			total INTEGER NOT NULL DEFAULT 0,
			succeeded INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS articles (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id),
			position INTEGER NOT NULL,
			url TEXT NOT NULL,
			title TEXT,
			content TEXT,
			score REAL,
			published_date TEXT,
			source TEXT,
			UNIQUE(session_id, url)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_session ON articles(session_id)`,
		`CREATE TABLE IF NOT EXISTS processed (
			session_id TEXT NOT NULL REFERENCES sessions(id),
			url TEXT NOT NULL,
			title TEXT,
			summary TEXT,
			key_points TEXT,
			statistics TEXT,
			relevance REAL,
			status TEXT NOT NULL,
			class TEXT,
			error TEXT,
			processed_at TEXT,
			PRIMARY KEY (session_id, url)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='articles_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE articles_fts USING fts5(title, content, content=articles, content_rowid=rowid)`,
			`CREATE TRIGGER articles_ai AFTER INSERT ON articles BEGIN
				INSERT INTO articles_fts(rowid, title, content) VALUES (new.rowid, new.title, new.content);
			END`,
			`CREATE TRIGGER articles_ad AFTER DELETE ON articles BEGIN
				INSERT INTO articles_fts(articles_fts, rowid, title, content) VALUES('delete', old.rowid, old.title, old.content);
			END`,
			`CREATE TRIGGER articles_au AFTER UPDATE ON articles BEGIN
				INSERT INTO articles_fts(articles_fts, rowid, title, content) VALUES('delete', old.rowid, old.title, old.content);
				INSERT INTO articles_fts(rowid, title, content) VALUES (new.rowid, new.title, new.content);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// CreateSession inserts a new session for the query and returns it.
func (s *Store) CreateSession(ctx context.Context, query string) (*types.Session, error) {
	now := time.Now().UTC()
	sess := &types.Session{
		ID:        uuid.NewString(),
		Query:     query,
		Status:    types.SessionCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, query, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.Query, string(sess.Status),
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}
	return sess, nil
}

// UpdateStatus moves a session to a new lifecycle state.
func (s *Store) UpdateStatus(ctx context.Context, sessionID string, status types.SessionStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC().Format(time.RFC3339Nano), sessionID,
	)
	if err != nil {
		return fmt.Errorf("updating session status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("session %s not found", sessionID)
	}
	return nil
}

// SaveRawResults replaces the session's raw result set with results,
// preserving their order.
func (s *Store) SaveRawResults(ctx context.Context, sessionID string, results []types.SearchResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM articles WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clearing old articles: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO articles (session_id, position, url, title, content, score, published_date, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range results {
		if _, err := stmt.ExecContext(ctx,
			sessionID, i, r.URL, r.Title, r.Content, r.Score, r.PublishedDate, r.Source,
		); err != nil {
			return fmt.Errorf("inserting article %s: %w", r.URL, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET updated_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), sessionID,
	); err != nil {
		return fmt.Errorf("touching session: %w", err)
	}

	return tx.Commit()
}

// SaveProcessed upserts one processing outcome for the session.
func (s *Store) SaveProcessed(ctx context.Context, sessionID string, art types.ProcessedArticle) error {
	keyPointsJSON, _ := json.Marshal(art.KeyPoints)
	statsJSON, _ := json.Marshal(art.Statistics)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO processed (session_id, url, title, summary, key_points, statistics, relevance, status, class, error, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id, url) DO UPDATE SET
			title=excluded.title, summary=excluded.summary, key_points=excluded.key_points,
			statistics=excluded.statistics, relevance=excluded.relevance, status=excluded.status,
			class=excluded.class, error=excluded.error, processed_at=excluded.processed_at`,
		sessionID, art.URL, art.Title, art.Summary, string(keyPointsJSON), string(statsJSON),
		art.Relevance, string(art.Status), string(art.Class), art.Error,
		art.ProcessedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upserting processed article: %w", err)
	}
	return nil
}

// SaveReport records the pipeline counts and marks the session completed.
func (s *Store) SaveReport(ctx context.Context, sessionID string, report types.ProcessingReport) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET total = ?, succeeded = ?, failed = ?, status = ?, updated_at = ? WHERE id = ?`,
		report.Total, report.Succeeded, report.Failed,
		string(types.SessionCompleted), time.Now().UTC().Format(time.RFC3339Nano), sessionID,
	)
	if err != nil {
		return fmt.Errorf("saving report: %w", err)
	}
	return nil
}

// GetSession reads a full session: metadata, raw results in original
// order, and the processed outcomes keyed by URL.
func (s *Store) GetSession(ctx context.Context, sessionID string) (*types.Session, error) {
	var (
		sess                 types.Session
		status               string
		createdAt, updatedAt string
		report               types.ProcessingReport
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, query, status, created_at, updated_at, total, succeeded, failed
		 FROM sessions WHERE id = ?`, sessionID,
	).Scan(&sess.ID, &sess.Query, &status, &createdAt, &updatedAt,
		&report.Total, &report.Succeeded, &report.Failed)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}

	sess.Status = types.SessionStatus(status)
	sess.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	sess.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	if report.Total > 0 {
		sess.Report = &report
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT url, title, content, score, published_date, source
		 FROM articles WHERE session_id = ? ORDER BY position`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("reading articles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r types.SearchResult
		if err := rows.Scan(&r.URL, &r.Title, &r.Content, &r.Score, &r.PublishedDate, &r.Source); err != nil {
			return nil, fmt.Errorf("scanning article: %w", err)
		}
		sess.RawResults = append(sess.RawResults, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating articles: %w", err)
	}

	processed, err := s.loadProcessed(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(processed) > 0 {
		sess.Processed = processed
	}

	// Stored counts lag behind a partially re-run session; rebuild the
	// failure list from the outcomes so the report stays consistent.
	if sess.Report != nil {
		for _, r := range sess.RawResults {
			if p, ok := processed[r.URL]; ok && p.Status == types.ArticleFailed {
				sess.Report.Failures = append(sess.Report.Failures,
					types.Failure{URL: p.URL, Error: p.Error})
			}
		}
	}

	return &sess, nil
}

func (s *Store) loadProcessed(ctx context.Context, sessionID string) (map[string]types.ProcessedArticle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, title, summary, key_points, statistics, relevance, status, class, error, processed_at
		 FROM processed WHERE session_id = ?`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("reading processed articles: %w", err)
	}
	defer rows.Close()

	processed := make(map[string]types.ProcessedArticle)
	for rows.Next() {
		var (
			p                        types.ProcessedArticle
			keyPointsJSON, statsJSON string
			status, class, procAt    string
		)
		if err := rows.Scan(&p.URL, &p.Title, &p.Summary, &keyPointsJSON, &statsJSON,
			&p.Relevance, &status, &class, &p.Error, &procAt); err != nil {
			return nil, fmt.Errorf("scanning processed article: %w", err)
		}
		json.Unmarshal([]byte(keyPointsJSON), &p.KeyPoints)
		json.Unmarshal([]byte(statsJSON), &p.Statistics)
		p.Status = types.ArticleStatus(status)
		p.Class = types.FailureClass(class)
		p.ProcessedAt, _ = time.Parse(time.RFC3339Nano, procAt)
		processed[p.URL] = p
	}
	return processed, rows.Err()
}

// Summary is one row in a session listing.
type Summary struct {
	ID        string
	Query     string
	Status    types.SessionStatus
	CreatedAt time.Time
	Articles  int
	Succeeded int
	Failed    int
}

// ListSessions returns session summaries, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.query, s.status, s.created_at, s.succeeded, s.failed,
			(SELECT count(*) FROM articles a WHERE a.session_id = s.id)
		 FROM sessions s ORDER BY s.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var (
			sum       Summary
			status    string
			createdAt string
		)
		if err := rows.Scan(&sum.ID, &sum.Query, &status, &createdAt,
			&sum.Succeeded, &sum.Failed, &sum.Articles); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		sum.Status = types.SessionStatus(status)
		sum.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// ArticleHit is one full-text search match across stored articles.
type ArticleHit struct {
	SessionID string
	Query     string
	URL       string
	Title     string
	Snippet   string
}

// SearchArticles runs an FTS5 full-text query over all stored article
// titles and bodies. limit <= 0 uses the store default.
func (s *Store) SearchArticles(ctx context.Context, query string, limit int) ([]ArticleHit, error) {
	if limit <= 0 {
		limit = s.maxResults
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT a.session_id, s.query, a.url, a.title,
			snippet(articles_fts, 1, '[', ']', '...', 12)
		 FROM articles_fts
		 JOIN articles a ON a.rowid = articles_fts.rowid
		 JOIN sessions s ON s.id = a.session_id
		 WHERE articles_fts MATCH ?
		 ORDER BY articles_fts.rank
		 LIMIT ?`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching articles: %w", err)
	}
	defer rows.Close()

	var hits []ArticleHit
	for rows.Next() {
		var h ArticleHit
		if err := rows.Scan(&h.SessionID, &h.Query, &h.URL, &h.Title, &h.Snippet); err != nil {
			return nil, fmt.Errorf("scanning search hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
