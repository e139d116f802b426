package ollama

// GenerateRequest represents a request to the generate endpoint.
type GenerateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options *GenerateOptions `json:"options,omitempty"`
}

// GenerateOptions carries sampling parameters.
type GenerateOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
}

// GenerateResponse represents a non-streaming generate reply.
type GenerateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// ErrorResponse represents a server error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
