package groq_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llm "github.com/benno-ai/benno/internal/adapter/llm"
	"github.com/benno-ai/benno/internal/adapter/llm/groq"
	llmhttp "github.com/benno-ai/benno/internal/adapter/llm/http"
	"github.com/benno-ai/benno/internal/adapter/llm/openai"
	"github.com/benno-ai/benno/internal/domain"
)

func testFile() domain.FileChange {
	return domain.FileChange{Path: "handlers/login.rb", Content: "def login", Language: "ruby"}
}

func TestProvider_Identity(t *testing.T) {
	p := groq.New(llm.Options{APIKey: "gsk-test"})

	assert.Equal(t, "groq", p.Name())
	assert.Equal(t, "llama-3.3-70b-versatile", p.DefaultModel())
	assert.True(t, p.ValidateConfig())
}

func TestProvider_ValidateConfig_EnvFallback(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk-env")
	p := groq.New(llm.Options{})

	assert.True(t, p.ValidateConfig())
}

func TestProvider_Review_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer gsk-test", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama-3.3-70b-versatile", req.Model)
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)

		reply := `{"comments":[{"line_start":2,"severity":"critical","category":"security","message":"password compared without constant time"}]}`
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.Choice{{Message: openai.Message{Role: "assistant", Content: reply}}},
			Usage:   openai.Usage{TotalTokens: 99},
		})
	}))
	defer server.Close()

	p := groq.New(llm.Options{APIKey: "gsk-test", BaseURL: server.URL})

	comments, tokens, err := p.Review(context.Background(), testFile(), llm.ReviewOptions{}, "s", "u")

	require.NoError(t, err)
	assert.Equal(t, 99, tokens)
	require.Len(t, comments, 1)
	assert.Equal(t, "handlers/login.rb", comments[0].FilePath)
	assert.True(t, comments[0].Severity == domain.SeverityCritical)
}

func TestProvider_Review_MalformedReplyIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.Choice{{Message: openai.Message{Content: "not json"}}},
			Usage:   openai.Usage{TotalTokens: 17},
		})
	}))
	defer server.Close()

	p := groq.New(llm.Options{APIKey: "gsk-test", BaseURL: server.URL})

	comments, tokens, err := p.Review(context.Background(), testFile(), llm.ReviewOptions{}, "s", "u")

	require.NoError(t, err)
	assert.Empty(t, comments)
	assert.Equal(t, 17, tokens)
}

func TestProvider_Review_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := groq.New(llm.Options{APIKey: "gsk-test", BaseURL: server.URL})

	_, _, err := p.Review(context.Background(), testFile(), llm.ReviewOptions{}, "s", "u")

	var httpErr *llmhttp.Error
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, llmhttp.ErrTypeRateLimit, httpErr.Type)
	assert.Equal(t, "groq", httpErr.Provider)
}

func TestProvider_Review_ExactlyOneRequest(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	p := groq.New(llm.Options{APIKey: "gsk-test", BaseURL: server.URL})

	_, _, err := p.Review(context.Background(), testFile(), llm.ReviewOptions{}, "s", "u")

	require.Error(t, err)
	assert.Equal(t, 1, calls, "review must not retry")
}

func TestProvider_Close_Idempotent(t *testing.T) {
	p := groq.New(llm.Options{APIKey: "gsk-test"})

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
}
