// Package ollama implements the provider for a locally hosted Ollama server.
// No credential is required; reachability of the server stands in for
// configuration validity.
package ollama

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
	providerName   = "ollama"
	defaultModel   = "codellama"
	defaultBaseURL = "http://localhost:11434"
	envHost        = "OLLAMA_HOST"

	// Local generation is slow on CPU-only hosts, so the transport timeout
	// is double the hosted providers'.
	defaultTimeout = 120 * time.Second
)

// Provider investigates code through a local Ollama server.
//
// Suggested models: codellama, deepseek-coder, qwen2.5-coder, llama3.
type Provider struct {
	model   string
	baseURL string
	timeout time.Duration
	logger  llmhttp.Logger

	mu     sync.Mutex
	client *http.Client
}

// New constructs an Ollama provider. The server address falls back to the
// OLLAMA_HOST environment variable, then to localhost:11434.
func New(opts llm.Options) *Provider {
	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv(envHost)
	}
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
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger,
	}
}

// Name returns the registry identifier.
func (p *Provider) Name() string { return providerName }

// DefaultModel returns the model used when none is configured.
func (p *Provider) DefaultModel() string { return defaultModel }

// ValidateConfig probes the server's tag listing to check reachability.
func (p *Provider) ValidateConfig() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := p.httpClient().Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

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

// Review sends one non-streaming generate request and maps the reply into
// comments. Local models rarely honor a JSON-only instruction cleanly, so the
// reply is run through a brace-scanning extraction before parsing.
func (p *Provider) Review(ctx context.Context, file domain.FileChange, opts llm.ReviewOptions, systemPrompt, userPrompt string) ([]domain.Comment, int, error) {
	model := opts.Model
	if model == "" {
		model = p.model
	}

	prompt := systemPrompt + "\n\n" + userPrompt +
		"\n\nRespond with ONLY the JSON object, no other text."
	reqBody := GenerateRequest{
		Model:   model,
		Prompt:  prompt,
		Stream:  false,
		Options: &GenerateOptions{Temperature: opts.Temperature},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}

	url := p.baseURL + "/api/generate"
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
	})

	resp, err := p.httpClient().Do(req)
	if err != nil {
		transportErr := connectionError(err)
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
		statusErr := errorFromBody(model, resp.StatusCode, bodyBytes)
		p.logger.LogError(ctx, llmhttp.ErrorLog{
			Provider: providerName, Model: model, Timestamp: time.Now(),
			Duration: time.Since(start), Error: statusErr, StatusCode: resp.StatusCode,
		})
		return nil, 0, statusErr
	}

	// A 200 body that is not even the response envelope is treated like a
	// reply with no findings; local servers can emit garbage under load.
	var genResp GenerateResponse
	if err := json.Unmarshal(bodyBytes, &genResp); err != nil {
		return nil, 0, nil
	}

	tokens := genResp.PromptEvalCount + genResp.EvalCount
	p.logger.LogResponse(ctx, llmhttp.ResponseLog{
		Provider: providerName, Model: model, Timestamp: time.Now(),
		Duration: time.Since(start), TokensIn: genResp.PromptEvalCount,
		TokensOut: genResp.EvalCount, StatusCode: resp.StatusCode,
	})

	content := llm.ExtractJSONObject(genResp.Response)

	return llm.ParseComments(content, file.Path), tokens, nil
}

// connectionError wraps a transport failure, attaching a hint when the
// server simply is not running.
func connectionError(err error) error {
	if strings.Contains(err.Error(), "connection refused") {
		return &llmhttp.Error{
			Type:      llmhttp.ErrTypeServiceUnavailable,
			Message:   "cannot reach Ollama server; is it running? Try: ollama serve",
			Temporary: true,
			Provider:  providerName,
		}
	}
	return llmhttp.TransportError(providerName, err)
}

func errorFromBody(model string, statusCode int, body []byte) error {
	message := fmt.Sprintf("HTTP %d", statusCode)
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		message = errResp.Error
	}
	if statusCode == http.StatusNotFound {
		message = message + " (pull the model first: ollama pull " + model + ")"
	}
	return llmhttp.StatusError(providerName, statusCode, message)
}
