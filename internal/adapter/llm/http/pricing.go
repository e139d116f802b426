package http

// Pricing calculates API costs based on token usage.
type Pricing interface {
	// GetCost returns the USD cost for a call, or 0 for unpriced models.
	GetCost(provider, model string, tokensIn, tokensOut int) float64
}

// ModelPricing contains pricing information for a model.
type ModelPricing struct {
	InputPer1M  float64 // USD per 1M input tokens
	OutputPer1M float64 // USD per 1M output tokens
}

// DefaultPricing provides cost estimation for the default models of each
// backend. Unknown models cost zero rather than guessing.
type DefaultPricing struct {
	prices map[string]map[string]ModelPricing
}

// NewDefaultPricing creates a pricing calculator with current rates.
func NewDefaultPricing() *DefaultPricing {
	return &DefaultPricing{prices: buildPricingTable()}
}

// GetCost calculates the cost for a given request.
func (p *DefaultPricing) GetCost(provider, model string, tokensIn, tokensOut int) float64 {
	providerPrices, ok := p.prices[provider]
	if !ok {
		return 0.0
	}
	modelPrice, ok := providerPrices[model]
	if !ok {
		return 0.0
	}

	inputCost := float64(tokensIn) / 1_000_000.0 * modelPrice.InputPer1M
	outputCost := float64(tokensOut) / 1_000_000.0 * modelPrice.OutputPer1M
	return inputCost + outputCost
}

// buildPricingTable returns per-model rates.
// Sources:
// - OpenAI: https://openai.com/api/pricing/
// - Anthropic: https://claude.com/pricing
// - Gemini: https://ai.google.dev/gemini-api/docs/pricing
// - Groq: https://groq.com/pricing/
// - Ollama: free (local)
func buildPricingTable() map[string]map[string]ModelPricing {
	return map[string]map[string]ModelPricing{
		"openai": {
			"gpt-4o":        {InputPer1M: 2.50, OutputPer1M: 10.00},
			"gpt-4o-mini":   {InputPer1M: 0.15, OutputPer1M: 0.60},
			"gpt-4-turbo":   {InputPer1M: 10.00, OutputPer1M: 30.00},
			"gpt-3.5-turbo": {InputPer1M: 0.50, OutputPer1M: 1.50},
		},
		"anthropic": {
			"claude-sonnet-4-20250514":   {InputPer1M: 3.00, OutputPer1M: 15.00},
			"claude-3-5-sonnet-20241022": {InputPer1M: 3.00, OutputPer1M: 15.00},
			"claude-3-5-haiku-20241022":  {InputPer1M: 0.80, OutputPer1M: 4.00},
		},
		"gemini": {
			"gemini-2.0-flash-exp": {InputPer1M: 0.10, OutputPer1M: 0.40},
			"gemini-1.5-pro":       {InputPer1M: 1.25, OutputPer1M: 5.00},
			"gemini-1.5-flash":     {InputPer1M: 0.075, OutputPer1M: 0.30},
		},
		"groq": {
			"llama-3.3-70b-versatile": {InputPer1M: 0.59, OutputPer1M: 0.79},
			"mixtral-8x7b-32768":      {InputPer1M: 0.24, OutputPer1M: 0.24},
			"gemma2-9b-it":            {InputPer1M: 0.20, OutputPer1M: 0.20},
		},
	}
}
