// Package config loads and validates runtime configuration for the CLI and server.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. IDEAS_SERVER_PORT.
const EnvPrefix = "IDEAS"

// Config is the full runtime configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Ranking   RankingConfig   `mapstructure:"ranking"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig configures the HTTP boundary.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	// RateLimit caps ranking requests per client per RateWindow; 0 disables it.
	RateLimit  int           `mapstructure:"rate_limit" validate:"min=0"`
	RateWindow time.Duration `mapstructure:"rate_window" validate:"required_with=RateLimit"`
	RateBurst  int           `mapstructure:"rate_burst" validate:"min=0"`
	// RateWhitelist lists client IPs exempt from rate limiting.
	RateWhitelist []string `mapstructure:"rate_whitelist" validate:"dive,ip"`
	// RatePruneInterval is how often idle rate-limit clients are forgotten.
	RatePruneInterval time.Duration `mapstructure:"rate_prune_interval" validate:"gt=0"`
}

// LLMConfig selects the completion provider.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider" validate:"oneof=gemini ollama"`
	Model       string  `mapstructure:"model"`
	Endpoint    string  `mapstructure:"endpoint" validate:"omitempty,url"`
	APIKey      string  `mapstructure:"api_key"`
	Temperature float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
}

// EmbeddingConfig selects the embedding provider for the similarity index.
type EmbeddingConfig struct {
	Provider string `mapstructure:"provider" validate:"oneof=gemini ollama"`
	Model    string `mapstructure:"model" validate:"required"`
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url"`
}

// RetrievalConfig controls corpus splitting and similarity search.
type RetrievalConfig struct {
	CorpusPath   string `mapstructure:"corpus_path" validate:"required"`
	ChunkSize    int    `mapstructure:"chunk_size" validate:"min=1"`
	ChunkOverlap int    `mapstructure:"chunk_overlap" validate:"min=0,ltfield=ChunkSize"`
	TopK         int    `mapstructure:"top_k" validate:"min=1"`
}

// RankingConfig controls the final ranking call.
type RankingConfig struct {
	TopN int `mapstructure:"top_n" validate:"min=1"`
	// JSONMode requests provider JSON output for the ranking call. Ollama's JSON
	// mode only emits objects, so it suits Gemini best.
	JSONMode bool `mapstructure:"json_mode"`
}

// AuditConfig locates the append-only audit log.
type AuditConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// CatalogConfig selects where ideas come from.
type CatalogConfig struct {
	Source      string `mapstructure:"source" validate:"oneof=static file postgres"`
	Path        string `mapstructure:"path" validate:"required_if=Source file"`
	DatabaseURL string `mapstructure:"database_url" validate:"required_if=Source postgres"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

var defaults = map[string]any{
	"server.port":                4600,
	"server.shutdown_timeout":    "10s",
	"server.rate_limit":          10,
	"server.rate_window":         "1h",
	"server.rate_burst":          2,
	"server.rate_whitelist":      []string{},
	"server.rate_prune_interval": "5m",
	"llm.provider":               "gemini",
	"llm.model":                  "",
	"llm.endpoint":               "",
	"llm.api_key":                "",
	"llm.temperature":            0.1,
	"embedding.provider":         "ollama",
	"embedding.model":            "llama3.2",
	"embedding.endpoint":         "",
	"retrieval.corpus_path":      "refined_ideas_with_separator.txt",
	"retrieval.chunk_size":       2000,
	"retrieval.chunk_overlap":    600,
	"retrieval.top_k":            3,
	"ranking.top_n":              3,
	"ranking.json_mode":          false,
	"audit.path":                 "react_verbose_log.txt",
	"catalog.source":             "static",
	"catalog.path":               "",
	"catalog.database_url":       "",
	"log.level":                  "info",
	"log.format":                 "json",
}

// Load reads configuration from defaults, an optional file and IDEAS_* environment
// variables, in increasing precedence. GEMINI_API_KEY and DATABASE_URL are honored
// when the prefixed variables are unset.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind api key: %w", err)
	}
	if err := v.BindEnv("catalog.database_url", EnvPrefix+"_CATALOG_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind database url: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("default config is invalid: %v", err))
	}
	return cfg
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config error: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("'%s' failed '%s'", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("config error: %s", strings.Join(msgs, "; "))
}
