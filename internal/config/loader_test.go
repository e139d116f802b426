package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benno-ai/benno/internal/config"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ".benno.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(config.LoaderOptions{ConfigPaths: []string{t.TempDir()}})
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Provider.Name)
	assert.Equal(t, 0.3, cfg.Provider.Temperature)
	assert.Equal(t, "standard", cfg.Review.Level)
	assert.Equal(t, 10, cfg.Review.MaxComments)
	assert.Equal(t, "60s", cfg.HTTP.Timeout)
	assert.True(t, cfg.Logging.Enabled)
	assert.True(t, cfg.Logging.RedactAPIKeys)
	assert.True(t, cfg.Store.Enabled)
	assert.NotEmpty(t, cfg.Store.Path)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
provider:
  name: ollama
  model: deepseek-coder
  baseURL: http://localhost:11434
  temperature: 0.1
review:
  level: detailed
  maxComments: 25
  guidelines:
    - "Check error handling"
    - "Flag hardcoded credentials"
  ignore:
    files:
      - "*.md"
      - "vendor/**"
`)

	cfg, err := config.Load(config.LoaderOptions{ConfigPaths: []string{dir}})
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Provider.Name)
	assert.Equal(t, "deepseek-coder", cfg.Provider.Model)
	assert.Equal(t, "http://localhost:11434", cfg.Provider.BaseURL)
	assert.Equal(t, 0.1, cfg.Provider.Temperature)
	assert.Equal(t, "detailed", cfg.Review.Level)
	assert.Equal(t, 25, cfg.Review.MaxComments)
	assert.Equal(t, []string{"Check error handling", "Flag hardcoded credentials"}, cfg.Review.Guidelines)
	assert.Equal(t, []string{"*.md", "vendor/**"}, cfg.Review.Ignore.Files)
}

func TestLoad_ExplicitFileWins(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "provider:\n  name: groq\n")

	cfg, err := config.Load(config.LoaderOptions{ConfigFile: path})
	require.NoError(t, err)

	assert.Equal(t, "groq", cfg.Provider.Name)
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("BENNO_TEST_KEY", "sk-from-env")

	dir := t.TempDir()
	writeConfig(t, dir, "provider:\n  apiKey: ${BENNO_TEST_KEY}\n")

	cfg, err := config.Load(config.LoaderOptions{ConfigPaths: []string{dir}})
	require.NoError(t, err)

	assert.Equal(t, "sk-from-env", cfg.Provider.APIKey)
}

func TestLoad_UnsetEnvVarKeptVerbatim(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "provider:\n  apiKey: ${BENNO_DOES_NOT_EXIST}\n")

	cfg, err := config.Load(config.LoaderOptions{ConfigPaths: []string{dir}})
	require.NoError(t, err)

	assert.Equal(t, "${BENNO_DOES_NOT_EXIST}", cfg.Provider.APIKey)
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "provider: [not: valid\n")

	_, err := config.Load(config.LoaderOptions{ConfigPaths: []string{dir}})
	assert.Error(t, err)
}

func TestEffectiveModel_ResolutionOrder(t *testing.T) {
	cfg := config.ProviderConfig{Name: "anthropic", Model: "claude-3-5-haiku-20241022"}

	assert.Equal(t, "gpt-4o-mini", cfg.EffectiveModel("gpt-4o-mini"))
	assert.Equal(t, "claude-3-5-haiku-20241022", cfg.EffectiveModel(""))

	cfg.Model = ""
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.EffectiveModel(""))

	unknown := config.ProviderConfig{Name: "custom"}
	assert.Equal(t, "gpt-4o", unknown.EffectiveModel(""))
}
