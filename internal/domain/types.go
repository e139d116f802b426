package domain

import (
	"fmt"
	"strconv"
)

// Severity classifies how urgent a finding is.
type Severity string

const (
	SeverityCritical   Severity = "critical"
	SeverityWarning    Severity = "warning"
	SeveritySuggestion Severity = "suggestion"
	SeverityInfo       Severity = "info"
)

// SeverityOrder lists severities in report display order, most urgent first.
var SeverityOrder = []Severity{
	SeverityCritical,
	SeverityWarning,
	SeveritySuggestion,
	SeverityInfo,
}

// ParseSeverity converts a raw severity string into a Severity.
// Unknown values are rejected so callers can decide their own fallback policy.
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityCritical, SeverityWarning, SeveritySuggestion, SeverityInfo:
		return Severity(s), nil
	default:
		return "", fmt.Errorf("unknown severity %q", s)
	}
}

// Comment is a single finding produced by investigating one file.
// Comments are built by the provider parse layer and never mutated afterwards.
type Comment struct {
	FilePath      string   `json:"filePath"`
	LineStart     int      `json:"lineStart"`
	LineEnd       int      `json:"lineEnd,omitempty"` // 0 means single-line
	Severity      Severity `json:"severity"`
	Category      string   `json:"category"`
	Message       string   `json:"message"`
	Suggestion    string   `json:"suggestion,omitempty"`
	SuggestedCode string   `json:"suggestedCode,omitempty"`
}

// LineRange renders the affected lines as "start" or "start-end".
func (c Comment) LineRange() string {
	if c.LineEnd != 0 && c.LineEnd != c.LineStart {
		return fmt.Sprintf("%d-%d", c.LineStart, c.LineEnd)
	}
	return strconv.Itoa(c.LineStart)
}

// FileChange is the unit of review: either whole-file content or a
// single-file diff, never both.
type FileChange struct {
	Path         string `json:"path"`
	Content      string `json:"content,omitempty"`
	Diff         string `json:"diff,omitempty"`
	Language     string `json:"language,omitempty"`
	AddedLines   int    `json:"addedLines,omitempty"`
	RemovedLines int    `json:"removedLines,omitempty"`
}

// Result is the aggregated outcome of one investigation run.
type Result struct {
	FilesReviewed int       `json:"filesReviewed"`
	Comments      []Comment `json:"comments"`
	Summary       string    `json:"summary,omitempty"`
	ModelUsed     string    `json:"modelUsed"`
	TokensUsed    int       `json:"tokensUsed"`
	EstimatedCost float64   `json:"estimatedCost"` // USD, 0 for local or unpriced models
}

// CriticalCount returns the number of critical findings.
func (r Result) CriticalCount() int { return r.countSeverity(SeverityCritical) }

// WarningCount returns the number of warning findings.
func (r Result) WarningCount() int { return r.countSeverity(SeverityWarning) }

// SuggestionCount returns the number of suggestion findings.
func (r Result) SuggestionCount() int { return r.countSeverity(SeveritySuggestion) }

// InfoCount returns the number of informational findings.
func (r Result) InfoCount() int { return r.countSeverity(SeverityInfo) }

// HasCriticalIssues reports whether any finding is critical.
func (r Result) HasCriticalIssues() bool { return r.CriticalCount() > 0 }

func (r Result) countSeverity(sev Severity) int {
	n := 0
	for _, c := range r.Comments {
		if c.Severity == sev {
			n++
		}
	}
	return n
}
