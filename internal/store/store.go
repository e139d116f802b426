// Package store defines the investigation history port. Runs and their
// findings are persisted so past investigations can be listed and compared.
package store

import (
	"context"
	"time"

	"github.com/benno-ai/benno/internal/domain"
)

// RunRecord is one completed investigation.
type RunRecord struct {
	ID            int64
	CreatedAt     time.Time
	Scope         string // "files", "diff", "staged", or "pr"
	Provider      string
	Model         string
	FilesReviewed int
	FindingCount  int
	TokensUsed    int
	EstimatedCost float64
	Summary       string
}

// FindingRecord is one persisted finding within a run.
type FindingRecord struct {
	FilePath   string
	LineStart  int
	LineEnd    int
	Severity   string
	Category   string
	Message    string
	Suggestion string
}

// Store persists investigation history.
type Store interface {
	// SaveRun writes a run and its findings atomically, returning the run ID.
	SaveRun(ctx context.Context, run RunRecord, findings []FindingRecord) (int64, error)

	// ListRuns returns the most recent runs, newest first. A non-positive
	// limit returns all runs.
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)

	// RunFindings returns the findings of one run in insertion order.
	RunFindings(ctx context.Context, runID int64) ([]FindingRecord, error)

	Close() error
}

// FromResult converts an investigation result into persistable records.
func FromResult(scope, provider string, result domain.Result) (RunRecord, []FindingRecord) {
	run := RunRecord{
		CreatedAt:     time.Now(),
		Scope:         scope,
		Provider:      provider,
		Model:         result.ModelUsed,
		FilesReviewed: result.FilesReviewed,
		FindingCount:  len(result.Comments),
		TokensUsed:    result.TokensUsed,
		EstimatedCost: result.EstimatedCost,
		Summary:       result.Summary,
	}

	findings := make([]FindingRecord, 0, len(result.Comments))
	for _, c := range result.Comments {
		findings = append(findings, FindingRecord{
			FilePath:   c.FilePath,
			LineStart:  c.LineStart,
			LineEnd:    c.LineEnd,
			Severity:   string(c.Severity),
			Category:   c.Category,
			Message:    c.Message,
			Suggestion: c.Suggestion,
		})
	}
	return run, findings
}
