package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	llm "github.com/benno-ai/benno/internal/adapter/llm"
	llmhttp "github.com/benno-ai/benno/internal/adapter/llm/http"
	"github.com/benno-ai/benno/internal/domain"
)

const (
	providerName     = "anthropic"
	defaultModel     = "claude-sonnet-4-20250514"
	defaultBaseURL   = "https://api.anthropic.com"
	defaultTimeout   = 60 * time.Second
	envAPIKey        = "ANTHROPIC_API_KEY"
	anthropicVersion = "2023-06-01"
	maxTokens        = 4096
)

// Provider investigates code through the Anthropic Messages API.
//
// Supported models: claude-sonnet-4-20250514, claude-3-5-sonnet-20241022,
// claude-3-5-haiku-20241022.
type Provider struct {
	apiKey  string
	model   string
	baseURL string
	timeout time.Duration
	logger  llmhttp.Logger

	mu     sync.Mutex
	client *http.Client
}

// New constructs an Anthropic provider. The API key falls back to the
// ANTHROPIC_API_KEY environment variable.
func New(opts llm.Options) *Provider {
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(envAPIKey)
	}
	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = llmhttp.NopLogger{}
	}

	return &Provider{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		timeout: timeout,
		logger:  logger,
	}
}

// Name returns the registry identifier.
func (p *Provider) Name() string { return providerName }

// DefaultModel returns the model used when none is configured.
func (p *Provider) DefaultModel() string { return defaultModel }

// ValidateConfig reports whether an API key is available.
func (p *Provider) ValidateConfig() bool { return p.apiKey != "" }

func (p *Provider) httpClient() *http.Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client == nil {
		p.client = &http.Client{Timeout: p.timeout}
	}
	return p.client
}

// Close releases idle connections. Safe to call repeatedly or before any use.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		p.client.CloseIdleConnections()
		p.client = nil
	}
	return nil
}

// Review sends one Messages API request and maps the reply into comments.
// The system prompt rides in the request's top-level system field.
func (p *Provider) Review(ctx context.Context, file domain.FileChange, opts llm.ReviewOptions, systemPrompt, userPrompt string) ([]domain.Comment, int, error) {
	model := opts.Model
	if model == "" {
		model = p.model
	}

	reqBody := MessagesRequest{
		Model:       model,
		System:      systemPrompt,
		Messages:    []Message{{Role: "user", Content: userPrompt}},
		MaxTokens:   maxTokens,
		Temperature: opts.Temperature,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}

	url := p.baseURL + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	start := time.Now()
	p.logger.LogRequest(ctx, llmhttp.RequestLog{
		Provider:    providerName,
		Model:       model,
		Timestamp:   start,
		PromptChars: len(systemPrompt) + len(userPrompt),
		APIKey:      p.apiKey,
	})

	resp, err := p.httpClient().Do(req)
	if err != nil {
		transportErr := llmhttp.TransportError(providerName, err)
		p.logger.LogError(ctx, llmhttp.ErrorLog{
			Provider: providerName, Model: model, Timestamp: time.Now(),
			Duration: time.Since(start), Error: transportErr,
		})
		return nil, 0, transportErr
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		statusErr := errorFromBody(resp.StatusCode, bodyBytes)
		p.logger.LogError(ctx, llmhttp.ErrorLog{
			Provider: providerName, Model: model, Timestamp: time.Now(),
			Duration: time.Since(start), Error: statusErr, StatusCode: resp.StatusCode,
		})
		return nil, 0, statusErr
	}

	var messagesResp MessagesResponse
	if err := json.Unmarshal(bodyBytes, &messagesResp); err != nil {
		return nil, 0, fmt.Errorf("parse response: %w", err)
	}

	tokens := messagesResp.Usage.InputTokens + messagesResp.Usage.OutputTokens
	p.logger.LogResponse(ctx, llmhttp.ResponseLog{
		Provider: providerName, Model: model, Timestamp: time.Now(),
		Duration: time.Since(start), TokensIn: messagesResp.Usage.InputTokens,
		TokensOut: messagesResp.Usage.OutputTokens, StatusCode: resp.StatusCode,
	})

	var textParts []string
	for _, block := range messagesResp.Content {
		if block.Type == "text" {
			textParts = append(textParts, block.Text)
		}
	}
	content := strings.Join(textParts, "")
	if content == "" {
		content = "{}"
	}

	return llm.ParseComments(content, file.Path), tokens, nil
}

// errorFromBody maps an error reply to a typed error. 529 is an
// Anthropic-specific overloaded signal.
func errorFromBody(statusCode int, body []byte) error {
	message := fmt.Sprintf("HTTP %d", statusCode)
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}

	if statusCode == 529 {
		return &llmhttp.Error{
			Type:       llmhttp.ErrTypeServiceUnavailable,
			Message:    message,
			StatusCode: statusCode,
			Temporary:  true,
			Provider:   providerName,
		}
	}
	return llmhttp.StatusError(providerName, statusCode, message)
}
