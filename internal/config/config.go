package config

// Config represents the full application configuration.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Review   ReviewConfig   `yaml:"review"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
	Store    StoreConfig    `yaml:"store"`
	GitHub   GitHubConfig   `yaml:"github"`
}

// ProviderConfig selects and configures the LLM backend.
type ProviderConfig struct {
	Name        string  `yaml:"name"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"apiKey"`
	BaseURL     string  `yaml:"baseURL"`
	Temperature float64 `yaml:"temperature"`
}

// providerDefaultModels maps provider names to their hardcoded default model.
var providerDefaultModels = map[string]string{
	"openai":    "gpt-4o",
	"anthropic": "claude-sonnet-4-20250514",
	"gemini":    "gemini-2.0-flash-exp",
	"groq":      "llama-3.3-70b-versatile",
	"ollama":    "codellama",
}

// EffectiveModel resolves the model to use: explicit override beats the
// configured model, which beats the provider's hardcoded default.
func (p ProviderConfig) EffectiveModel(override string) string {
	if override != "" {
		return override
	}
	if p.Model != "" {
		return p.Model
	}
	if model, ok := providerDefaultModels[p.Name]; ok {
		return model
	}
	return "gpt-4o"
}

// ReviewConfig configures investigation behavior.
type ReviewConfig struct {
	Level       string       `yaml:"level"`       // minimal, standard, detailed
	MaxComments int          `yaml:"maxComments"` // findings retained per run
	Guidelines  []string     `yaml:"guidelines"`  // appended to the system prompt
	Ignore      IgnoreConfig `yaml:"ignore"`
}

// IgnoreConfig lists file glob patterns excluded from review.
type IgnoreConfig struct {
	Files []string `yaml:"files"`
}

// HTTPConfig holds transport-level settings shared by all provider clients.
type HTTPConfig struct {
	Timeout string `yaml:"timeout"`
}

// LoggingConfig configures provider call logging.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Level         string `yaml:"level"`  // debug, info, error
	Format        string `yaml:"format"` // json, human
	RedactAPIKeys bool   `yaml:"redactAPIKeys"`
}

// StoreConfig configures the investigation history store.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// GitHubConfig configures PR review posting.
type GitHubConfig struct {
	Token      string `yaml:"token"`
	Repository string `yaml:"repository"` // "owner/repo"
}
