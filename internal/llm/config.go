// Package llm provides the completion oracle: provider clients, model tiers and
// robust extraction of JSON from free-form model output.
package llm

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for simple tasks such as planning
	TierLite ModelTier = "lite"
	// TierStandard is for per-idea evaluation
	TierStandard ModelTier = "standard"
	// TierAdvanced is for the final cross-idea ranking
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
	// ProviderOllama is a local Ollama runtime
	ProviderOllama Provider = "ollama"
)

// DefaultOllamaEndpoint is where a local Ollama server listens by default.
const DefaultOllamaEndpoint = "http://localhost:11434"

// Config holds the model configuration for the application
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
	// Endpoint is the base URL for HTTP providers (Ollama).
	Endpoint string
	// Temperature is passed to providers that support it.
	Temperature float32
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature: 0.1,
	}
}

// DefaultOllamaConfig returns a configuration that runs every tier on one local model.
func DefaultOllamaConfig() *Config {
	model := "qwen2.5:7b-instruct-q5_K_M"
	return &Config{
		Provider: ProviderOllama,
		Models: map[ModelTier]string{
			TierLite:     model,
			TierStandard: model,
			TierAdvanced: model,
		},
		Endpoint:    DefaultOllamaEndpoint,
		Temperature: 0.1,
	}
}

// ConfigFor returns the default configuration for a provider name.
// Unknown names fall back to Gemini.
func ConfigFor(provider string) *Config {
	if Provider(provider) == ProviderOllama {
		return DefaultOllamaConfig()
	}
	return DefaultGeminiConfig()
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return ""
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := &Config{
		Provider:    c.Provider,
		Models:      make(map[ModelTier]string, len(c.Models)+1),
		Endpoint:    c.Endpoint,
		Temperature: c.Temperature,
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return newConfig
}

// WithAllModels returns a new Config that uses one model for every tier.
func (c *Config) WithAllModels(model string) *Config {
	out := c.WithModel(TierLite, model)
	out.Models[TierStandard] = model
	out.Models[TierAdvanced] = model
	return out
}
