package llm

import (
	"context"
	"time"

	llmhttp "github.com/benno-ai/benno/internal/adapter/llm/http"
	"github.com/benno-ai/benno/internal/domain"
)

// Options configures a provider at construction time. Zero values fall back
// to each backend's defaults (environment credential, default model and
// endpoint, 60s transport timeout, no logging).
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	Logger  llmhttp.Logger
}

// ReviewOptions carries the per-call knobs resolved from the review
// configuration. Model overrides the provider's configured model when set.
type ReviewOptions struct {
	Model       string
	Temperature float64
}

// Provider is the uniform contract every LLM backend implements.
//
// Review performs exactly one request to the backend: no retries, no
// streaming. Malformed model output is expected, not exceptional: when the
// reply cannot be parsed as the {"comments": [...]} envelope, Review returns
// an empty comment list and whatever token count the backend reported rather
// than an error. Transport and authentication failures do return errors,
// typed as *llmhttp.Error.
type Provider interface {
	// Name returns the stable registry identifier for this backend.
	Name() string

	// DefaultModel returns the model used when none is configured.
	DefaultModel() string

	// ValidateConfig reports whether the provider is usable. Hosted
	// backends check for a credential; local backends may probe
	// reachability.
	ValidateConfig() bool

	// Review investigates a single file change and returns the parsed
	// comments plus the backend-reported token count.
	Review(ctx context.Context, file domain.FileChange, opts ReviewOptions, systemPrompt, userPrompt string) ([]domain.Comment, int, error)

	// Close releases the provider's connection resources. It is
	// idempotent and safe to call on a provider that never made a call.
	Close() error
}
