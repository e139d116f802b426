// Package review orchestrates investigations: it fans file changes out to
// the configured LLM provider one at a time and folds the findings into a
// single result.
package review

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	llm "github.com/benno-ai/benno/internal/adapter/llm"
	llmhttp "github.com/benno-ai/benno/internal/adapter/llm/http"
	"github.com/benno-ai/benno/internal/config"
	"github.com/benno-ai/benno/internal/diff"
	"github.com/benno-ai/benno/internal/domain"
)

// Params wires a Reviewer together.
type Params struct {
	Config   config.Config
	Provider llm.Provider

	// Model overrides the configured model for this run when non-empty.
	Model string

	// Pricing estimates run cost; nil uses the built-in rate table.
	Pricing llmhttp.Pricing
}

// Reviewer runs investigations against a single provider, one file at a time.
type Reviewer struct {
	cfg      config.Config
	provider llm.Provider
	model    string
	pricing  llmhttp.Pricing
}

// New constructs a Reviewer.
func New(p Params) *Reviewer {
	pricing := p.Pricing
	if pricing == nil {
		pricing = llmhttp.NewDefaultPricing()
	}
	return &Reviewer{
		cfg:      p.Config,
		provider: p.Provider,
		model:    p.Model,
		pricing:  pricing,
	}
}

// ReviewFiles investigates each change in order and aggregates the findings.
//
// Changes matching an ignore pattern and changes with no path are skipped
// and do not count toward FilesReviewed. Findings keep file order; when the
// configured comment cap is exceeded, the overflow is dropped from the end.
// The first provider failure aborts the run.
func (r *Reviewer) ReviewFiles(ctx context.Context, files []domain.FileChange) (domain.Result, error) {
	systemPrompt := SystemPrompt(r.cfg.Review.Level, r.cfg.Review.Guidelines)
	opts := llm.ReviewOptions{
		Model:       r.model,
		Temperature: r.cfg.Provider.Temperature,
	}

	result := domain.Result{
		ModelUsed: r.cfg.Provider.EffectiveModel(r.model),
	}

	for _, file := range files {
		if file.Path == "" || r.ignored(file.Path) {
			continue
		}

		userPrompt := UserPrompt(file.Path, file.Language, file.Content, file.Diff)
		comments, tokens, err := r.provider.Review(ctx, file, opts, systemPrompt, userPrompt)
		if err != nil {
			return result, fmt.Errorf("review %s: %w", file.Path, err)
		}

		result.FilesReviewed++
		result.TokensUsed += tokens
		result.Comments = append(result.Comments, comments...)
	}

	if max := r.cfg.Review.MaxComments; max > 0 && len(result.Comments) > max {
		result.Comments = result.Comments[:max]
	}

	// Input/output split is not reported through the provider contract, so
	// the estimate prices everything at the input rate.
	result.EstimatedCost = r.pricing.GetCost(r.cfg.Provider.Name, result.ModelUsed, result.TokensUsed, 0)
	result.Summary = summarize(result)
	return result, nil
}

// ReviewDiff segments a multi-file unified diff and investigates each file.
func (r *Reviewer) ReviewDiff(ctx context.Context, unified string) (domain.Result, error) {
	return r.ReviewFiles(ctx, diff.Segment(unified))
}

// ReviewFile reads a file from disk and investigates its full content.
func (r *Reviewer) ReviewFile(ctx context.Context, filePath string) (domain.Result, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return domain.Result{}, fmt.Errorf("read %s: %w", filePath, err)
	}
	return r.ReviewFiles(ctx, []domain.FileChange{{
		Path:     filePath,
		Content:  string(content),
		Language: diff.DetectLanguage(filePath),
	}})
}

// Close releases the underlying provider. Safe to call more than once.
func (r *Reviewer) Close() error {
	return r.provider.Close()
}

// ignored reports whether a path matches any configured ignore glob. A
// pattern matches against the path as given and against its base name, so
// "*.md" excludes Markdown files anywhere in the tree.
func (r *Reviewer) ignored(filePath string) bool {
	base := filepath.Base(filePath)
	for _, pattern := range r.cfg.Review.Ignore.Files {
		if ok, _ := path.Match(pattern, filePath); ok {
			return true
		}
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

func summarize(result domain.Result) string {
	if result.FilesReviewed == 0 {
		return "No files to review."
	}
	return fmt.Sprintf("Investigated %d file(s): %d critical, %d warning(s), %d suggestion(s), %d informational.",
		result.FilesReviewed,
		result.CriticalCount(),
		result.WarningCount(),
		result.SuggestionCount(),
		result.InfoCount())
}
