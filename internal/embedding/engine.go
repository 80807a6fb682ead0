// Package embedding generates vector embeddings for the similarity index.
// Supports Ollama (local) and Google Gemini (cloud) backends.
package embedding

import (
	"context"
	"fmt"
)

// Engine generates vector embeddings for text.
type Engine interface {
	// Embed generates the embedding for a single text
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch generates embeddings for multiple texts, in input order
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Name identifies the backend and model
	Name() string
}

// Provider names accepted by NewEngine.
const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

// Config holds embedding engine configuration.
type Config struct {
	Provider string
	Model    string
	Endpoint string // Ollama base URL
	APIKey   string // Gemini API key
}

// DefaultConfig mirrors the embedding model the historical corpus was indexed with.
func DefaultConfig() Config {
	return Config{
		Provider: ProviderOllama,
		Model:    "llama3.2",
		Endpoint: "http://localhost:11434",
	}
}

// NewEngine creates an embedding engine based on configuration.
func NewEngine(ctx context.Context, cfg Config) (Engine, error) {
	switch cfg.Provider {
	case ProviderOllama, "":
		return NewOllamaEngine(cfg.Endpoint, cfg.Model, nil), nil
	case ProviderGemini:
		return NewGeminiEngine(ctx, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s (use 'ollama' or 'gemini')", cfg.Provider)
	}
}
