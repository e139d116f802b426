// Package sqlite implements the history store on a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/benno-ai/benno/internal/store"
)

// Store persists runs and findings in a SQLite file.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// New opens or creates the database at path. Use ":memory:" in tests.
// Parent directories are created as needed.
func New(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at INTEGER NOT NULL,
		scope TEXT NOT NULL,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		files_reviewed INTEGER NOT NULL,
		finding_count INTEGER NOT NULL,
		tokens_used INTEGER NOT NULL,
		estimated_cost REAL NOT NULL DEFAULT 0.0,
		summary TEXT
	);

	CREATE TABLE IF NOT EXISTS findings (
		finding_id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		file TEXT NOT NULL,
		line_start INTEGER NOT NULL,
		line_end INTEGER NOT NULL,
		severity TEXT NOT NULL,
		category TEXT NOT NULL,
		message TEXT NOT NULL,
		suggestion TEXT,
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_findings_run_id ON findings(run_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveRun writes the run and its findings in one transaction.
func (s *Store) SaveRun(ctx context.Context, run store.RunRecord, findings []store.FindingRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (created_at, scope, provider, model, files_reviewed,
			finding_count, tokens_used, estimated_cost, summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.CreatedAt.Unix(), run.Scope, run.Provider, run.Model,
		run.FilesReviewed, run.FindingCount, run.TokensUsed,
		run.EstimatedCost, run.Summary)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	for _, f := range findings {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO findings (run_id, file, line_start, line_end,
				severity, category, message, suggestion)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, f.FilePath, f.LineStart, f.LineEnd,
			f.Severity, f.Category, f.Message, f.Suggestion); err != nil {
			return 0, fmt.Errorf("insert finding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

// ListRuns returns recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.RunRecord, error) {
	query := `
		SELECT run_id, created_at, scope, provider, model, files_reviewed,
			finding_count, tokens_used, estimated_cost, summary
		FROM runs ORDER BY created_at DESC, run_id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []store.RunRecord
	for rows.Next() {
		var r store.RunRecord
		var createdAt int64
		var summary sql.NullString
		if err := rows.Scan(&r.ID, &createdAt, &r.Scope, &r.Provider, &r.Model,
			&r.FilesReviewed, &r.FindingCount, &r.TokensUsed,
			&r.EstimatedCost, &summary); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt = time.Unix(createdAt, 0)
		r.Summary = summary.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunFindings returns one run's findings in insertion order.
func (s *Store) RunFindings(ctx context.Context, runID int64) ([]store.FindingRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT file, line_start, line_end, severity, category, message, suggestion
		FROM findings WHERE run_id = ? ORDER BY finding_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query findings: %w", err)
	}
	defer rows.Close()

	var findings []store.FindingRecord
	for rows.Next() {
		var f store.FindingRecord
		var suggestion sql.NullString
		if err := rows.Scan(&f.FilePath, &f.LineStart, &f.LineEnd,
			&f.Severity, &f.Category, &f.Message, &suggestion); err != nil {
			return nil, fmt.Errorf("scan finding: %w", err)
		}
		f.Suggestion = suggestion.String
		findings = append(findings, f)
	}
	return findings, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
