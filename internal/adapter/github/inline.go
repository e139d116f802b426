package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/benno-ai/benno/internal/diff"
	"github.com/benno-ai/benno/internal/domain"
)

var severityEmoji = map[domain.Severity]string{
	domain.SeverityCritical:   ":rotating_light:",
	domain.SeverityWarning:    ":warning:",
	domain.SeveritySuggestion: ":bulb:",
	domain.SeverityInfo:       ":information_source:",
}

// InlineReviewer turns an investigation result into a posted PR review with
// inline comments.
type InlineReviewer struct {
	client *Client
}

// NewInlineReviewer wraps a repository-scoped client.
func NewInlineReviewer(client *Client) *InlineReviewer {
	return &InlineReviewer{client: client}
}

// PostResult is what PostReview reports back.
type PostResult struct {
	ReviewID int64
	Posted   int // inline comments attached
	Skipped  int // findings whose line is not part of the PR diff
}

// PostReview publishes the result on the pull request. Findings that cannot
// be anchored to a diff position are dropped from the inline set but still
// counted in the summary. Critical findings turn the review into a
// REQUEST_CHANGES verdict.
func (ir *InlineReviewer) PostReview(ctx context.Context, number int, result domain.Result) (PostResult, error) {
	headSHA, err := ir.client.PRHeadSHA(ctx, number)
	if err != nil {
		return PostResult{}, fmt.Errorf("resolve head commit: %w", err)
	}

	files, err := ir.client.PRFiles(ctx, number)
	if err != nil {
		return PostResult{}, fmt.Errorf("list changed files: %w", err)
	}

	patches := make(map[string]diff.FilePatch, len(files))
	for _, f := range files {
		patches[f.Filename] = diff.ParsePatch(f.Patch)
	}

	var comments []ReviewComment
	skipped := 0
	for _, c := range result.Comments {
		patch, ok := patches[c.FilePath]
		if !ok {
			skipped++
			continue
		}
		position, ok := patch.FindPosition(c.LineStart)
		if !ok {
			skipped++
			continue
		}
		comments = append(comments, ReviewComment{
			Path:     c.FilePath,
			Position: position,
			Body:     formatCommentBody(c),
		})
	}

	event := EventComment
	if result.HasCriticalIssues() {
		event = EventRequestChanges
	}

	resp, err := ir.client.CreateReview(ctx, number, headSHA, summaryBody(result, skipped), event, comments)
	if err != nil {
		return PostResult{}, fmt.Errorf("create review: %w", err)
	}

	return PostResult{ReviewID: resp.ID, Posted: len(comments), Skipped: skipped}, nil
}

// formatCommentBody renders one finding as Markdown.
func formatCommentBody(c domain.Comment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s **%s** (%s): %s", severityEmoji[c.Severity], c.Severity, c.Category, c.Message)
	if c.Suggestion != "" {
		fmt.Fprintf(&b, "\n\n**Suggestion:** %s", c.Suggestion)
	}
	if c.SuggestedCode != "" {
		fmt.Fprintf(&b, "\n\n```suggestion\n%s\n```", c.SuggestedCode)
	}
	return b.String()
}

// summaryBody renders the review's top-level comment.
func summaryBody(result domain.Result, skipped int) string {
	var b strings.Builder
	b.WriteString("## Code Review\n\n")
	if result.Summary != "" {
		b.WriteString(result.Summary)
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "| Severity | Count |\n|---|---|\n")
	fmt.Fprintf(&b, "| %s critical | %d |\n", severityEmoji[domain.SeverityCritical], result.CriticalCount())
	fmt.Fprintf(&b, "| %s warning | %d |\n", severityEmoji[domain.SeverityWarning], result.WarningCount())
	fmt.Fprintf(&b, "| %s suggestion | %d |\n", severityEmoji[domain.SeveritySuggestion], result.SuggestionCount())
	fmt.Fprintf(&b, "| %s info | %d |\n", severityEmoji[domain.SeverityInfo], result.InfoCount())

	if skipped > 0 {
		fmt.Fprintf(&b, "\n%d finding(s) fell outside the diff and were not posted inline.\n", skipped)
	}

	fmt.Fprintf(&b, "\n---\n*%d file(s) investigated with %s, %d tokens.*\n",
		result.FilesReviewed, result.ModelUsed, result.TokensUsed)
	return b.String()
}
