package gemini

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
	providerName   = "gemini"
	defaultModel   = "gemini-2.0-flash-exp"
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultTimeout = 60 * time.Second
	envAPIKey      = "GOOGLE_API_KEY"
)

// Provider investigates code through the Gemini generateContent API.
//
// Supported models: gemini-2.0-flash-exp, gemini-1.5-pro, gemini-1.5-flash.
type Provider struct {
	apiKey  string
	model   string
	baseURL string
	timeout time.Duration
	logger  llmhttp.Logger

	mu     sync.Mutex
	client *http.Client
}

// New constructs a Gemini provider. The API key falls back to the
// GOOGLE_API_KEY environment variable.
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

// Review sends one generateContent request and maps the reply into comments.
// Gemini has no system role in this endpoint, so the system prompt is folded
// into the single user turn.
func (p *Provider) Review(ctx context.Context, file domain.FileChange, opts llm.ReviewOptions, systemPrompt, userPrompt string) ([]domain.Comment, int, error) {
	model := opts.Model
	if model == "" {
		model = p.model
	}

	prompt := systemPrompt + "\n\n" + userPrompt
	reqBody := GenerateContentRequest{
		Contents: []Content{{Role: "user", Parts: []Part{{Text: prompt}}}},
		GenerationConfig: &GenerationConfig{
			Temperature:      opts.Temperature,
			ResponseMimeType: "application/json",
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", p.baseURL, model, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	p.logger.LogRequest(ctx, llmhttp.RequestLog{
		Provider:    providerName,
		Model:       model,
		Timestamp:   start,
		PromptChars: len(prompt),
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

	var genResp GenerateContentResponse
	if err := json.Unmarshal(bodyBytes, &genResp); err != nil {
		return nil, 0, fmt.Errorf("parse response: %w", err)
	}

	tokens := genResp.UsageMetadata.PromptTokenCount + genResp.UsageMetadata.CandidatesTokenCount
	p.logger.LogResponse(ctx, llmhttp.ResponseLog{
		Provider: providerName, Model: model, Timestamp: time.Now(),
		Duration: time.Since(start), TokensIn: genResp.UsageMetadata.PromptTokenCount,
		TokensOut: genResp.UsageMetadata.CandidatesTokenCount, StatusCode: resp.StatusCode,
	})

	content := "{}"
	if len(genResp.Candidates) > 0 {
		var textParts []string
		for _, part := range genResp.Candidates[0].Content.Parts {
			textParts = append(textParts, part.Text)
		}
		if joined := strings.Join(textParts, ""); joined != "" {
			content = joined
		}
	}

	return llm.ParseComments(content, file.Path), tokens, nil
}

func errorFromBody(statusCode int, body []byte) error {
	message := fmt.Sprintf("HTTP %d", statusCode)
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		message = errResp.Error.Message
	}
	return llmhttp.StatusError(providerName, statusCode, message)
}
