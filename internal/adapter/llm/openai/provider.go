package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	llm "github.com/benno-ai/benno/internal/adapter/llm"
	llmhttp "github.com/benno-ai/benno/internal/adapter/llm/http"
	"github.com/benno-ai/benno/internal/domain"
)

const (
	providerName   = "openai"
	defaultModel   = "gpt-4o"
	defaultBaseURL = "https://api.openai.com"
	defaultTimeout = 60 * time.Second
	envAPIKey      = "OPENAI_API_KEY"
)

// Provider investigates code through the OpenAI Chat Completions API.
//
// Supported models: gpt-4o, gpt-4o-mini, gpt-4-turbo, gpt-3.5-turbo.
type Provider struct {
	apiKey  string
	model   string
	baseURL string
	timeout time.Duration
	logger  llmhttp.Logger

	mu     sync.Mutex
	client *http.Client
}

// New constructs an OpenAI provider. The API key falls back to the
// OPENAI_API_KEY environment variable; BaseURL allows proxies and
// API-compatible alternatives.
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

// httpClient returns the shared connection handle, creating it on first use.
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

// Review sends one chat completion request and maps the reply into comments.
func (p *Provider) Review(ctx context.Context, file domain.FileChange, opts llm.ReviewOptions, systemPrompt, userPrompt string) ([]domain.Comment, int, error) {
	model := opts.Model
	if model == "" {
		model = p.model
	}

	reqBody := ChatCompletionRequest{
		Model: model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    opts.Temperature,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}

	url := p.baseURL + "/v1/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

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

	var completion ChatCompletionResponse
	if err := json.Unmarshal(bodyBytes, &completion); err != nil {
		return nil, 0, fmt.Errorf("parse response: %w", err)
	}

	tokens := completion.Usage.TotalTokens
	p.logger.LogResponse(ctx, llmhttp.ResponseLog{
		Provider: providerName, Model: model, Timestamp: time.Now(),
		Duration: time.Since(start), TokensIn: completion.Usage.PromptTokens,
		TokensOut: completion.Usage.CompletionTokens, StatusCode: resp.StatusCode,
	})

	content := "{}"
	if len(completion.Choices) > 0 && completion.Choices[0].Message.Content != "" {
		content = completion.Choices[0].Message.Content
	}

	return llm.ParseComments(content, file.Path), tokens, nil
}

// errorFromBody maps an error reply to a typed error, preferring the API's
// own message over the bare status code.
func errorFromBody(statusCode int, body []byte) error {
	message := fmt.Sprintf("HTTP %d", statusCode)
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}
	return llmhttp.StatusError(providerName, statusCode, message)
}
