package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llm "github.com/benno-ai/benno/internal/adapter/llm"
	"github.com/benno-ai/benno/internal/adapter/llm/registry"
	"github.com/benno-ai/benno/internal/domain"
)

func TestRegistry_CreateBuiltins(t *testing.T) {
	r := registry.New()

	for _, name := range []string{"openai", "anthropic", "gemini", "groq", "ollama"} {
		p, err := r.Create(name, llm.Options{})
		require.NoError(t, err, name)
		assert.Equal(t, name, p.Name())
	}
}

func TestRegistry_CaseInsensitive(t *testing.T) {
	r := registry.New()

	p, err := r.Create("OpenAI", llm.Options{})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
}

func TestRegistry_UnknownProvider(t *testing.T) {
	r := registry.New()

	_, err := r.Create("cohere", llm.Options{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown provider "cohere"`)
	assert.Contains(t, err.Error(), "anthropic, gemini, groq, ollama, openai")
}

func TestRegistry_Names(t *testing.T) {
	r := registry.New()

	assert.Equal(t, []string{"anthropic", "gemini", "groq", "ollama", "openai"}, r.Names())
}

type fakeProvider struct{}

func (fakeProvider) Name() string         { return "fake" }
func (fakeProvider) DefaultModel() string { return "fake-1" }
func (fakeProvider) ValidateConfig() bool { return true }
func (fakeProvider) Review(context.Context, domain.FileChange, llm.ReviewOptions, string, string) ([]domain.Comment, int, error) {
	return nil, 0, nil
}
func (fakeProvider) Close() error { return nil }

func TestRegistry_RegisterCustom(t *testing.T) {
	r := registry.New()
	r.Register("Fake", func(llm.Options) llm.Provider { return fakeProvider{} })

	p, err := r.Create("fake", llm.Options{})
	require.NoError(t, err)
	assert.Equal(t, "fake", p.Name())
	assert.Contains(t, r.Names(), "fake")
}

func TestRegistry_RegisterOverridesBuiltin(t *testing.T) {
	r := registry.New()
	// Registering under a builtin name before any Create must stick; lazy
	// builtin population cannot clobber it.
	r.Register("openai", func(llm.Options) llm.Provider { return fakeProvider{} })

	p, err := r.Create("openai", llm.Options{})
	require.NoError(t, err)
	assert.Equal(t, "fake", p.Name())
}

func TestRegistry_OptionsReachProvider(t *testing.T) {
	r := registry.New()

	p, err := r.Create("openai", llm.Options{Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", p.DefaultModel(), "default model is fixed per backend")
}

func TestDefault_SharedInstance(t *testing.T) {
	assert.Same(t, registry.Default(), registry.Default())

	p, err := registry.Create("ollama", llm.Options{})
	require.NoError(t, err)
	assert.Equal(t, "ollama", p.Name())
}
