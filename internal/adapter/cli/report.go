package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/benno-ai/benno/internal/domain"
	"github.com/benno-ai/benno/internal/store"
)

var titleCaser = cases.Title(language.English)

// Render writes the investigation result, as JSON or as the console report.
func Render(w io.Writer, result domain.Result, asJSON, quiet bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	renderText(w, result, quiet)
	return nil
}

func renderText(w io.Writer, result domain.Result, quiet bool) {
	if !quiet && isTerminal(w) {
		fmt.Fprintln(w, "Detective Benno reporting.")
		fmt.Fprintln(w)
	}

	for _, severity := range domain.SeverityOrder {
		group := commentsWithSeverity(result.Comments, severity)
		if len(group) == 0 {
			continue
		}

		fmt.Fprintf(w, "%s (%d)\n", titleCaser.String(string(severity)), len(group))
		for _, c := range group {
			fmt.Fprintf(w, "  %s:%s [%s] %s\n", c.FilePath, c.LineRange(), c.Category, c.Message)
			if !quiet && c.Suggestion != "" {
				fmt.Fprintf(w, "      fix: %s\n", c.Suggestion)
			}
		}
		fmt.Fprintln(w)
	}

	if !quiet {
		if result.Summary != "" {
			fmt.Fprintln(w, result.Summary)
		}
		fmt.Fprintf(w, "Model: %s, tokens: %d", result.ModelUsed, result.TokensUsed)
		if result.EstimatedCost > 0 {
			fmt.Fprintf(w, ", estimated cost: $%.4f", result.EstimatedCost)
		}
		fmt.Fprintln(w)
	}

	switch {
	case result.HasCriticalIssues():
		fmt.Fprintln(w, "Case status: OPEN, critical findings need attention.")
	case len(result.Comments) > 0:
		fmt.Fprintln(w, "Case status: OPEN, findings to consider.")
	default:
		fmt.Fprintln(w, "Case status: CLOSED, nothing to report.")
	}
}

// RenderHistory prints past runs, newest first.
func RenderHistory(w io.Writer, runs []store.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no investigations recorded")
		return
	}

	fmt.Fprintf(w, "%-5s %-17s %-7s %-11s %-26s %6s %8s\n",
		"ID", "WHEN", "SCOPE", "PROVIDER", "MODEL", "FILES", "FINDINGS")
	for _, r := range runs {
		fmt.Fprintf(w, "%-5d %-17s %-7s %-11s %-26s %6d %8d\n",
			r.ID,
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.Scope,
			r.Provider,
			truncateModel(r.Model),
			r.FilesReviewed,
			r.FindingCount)
	}
}

func truncateModel(model string) string {
	if len(model) > 26 {
		return model[:23] + "..."
	}
	return model
}

func commentsWithSeverity(comments []domain.Comment, severity domain.Severity) []domain.Comment {
	var out []domain.Comment
	for _, c := range comments {
		if c.Severity == severity {
			out = append(out, c)
		}
	}
	return out
}

// isTerminal reports whether w is an interactive terminal; piped output
// skips the banner so reports stay machine-friendly.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
