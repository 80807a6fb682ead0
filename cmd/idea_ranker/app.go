package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/jonathan/idea-prioritizer/internal/audit"
	"github.com/jonathan/idea-prioritizer/internal/catalog"
	"github.com/jonathan/idea-prioritizer/internal/config"
	"github.com/jonathan/idea-prioritizer/internal/db"
	"github.com/jonathan/idea-prioritizer/internal/embedding"
	"github.com/jonathan/idea-prioritizer/internal/llm"
	"github.com/jonathan/idea-prioritizer/internal/logging"
	"github.com/jonathan/idea-prioritizer/internal/metrics"
	"github.com/jonathan/idea-prioritizer/internal/pipeline"
)

// app wires configuration into a ready pipeline.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *metrics.Metrics
	pipeline *pipeline.Pipeline
	closers  []func()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, cfg.Validate()
}

// newApp builds the pipeline. extra observers run after the audit log for every idea.
func newApp(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, extra ...pipeline.Observer) (_ *app, err error) {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	client, err := llm.NewClient(ctx, llmConfig(cfg.LLM), cfg.LLM.APIKey)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = client.Close() })

	engine, err := embedding.NewEngine(ctx, embedding.Config{
		Provider: cfg.Embedding.Provider,
		Model:    cfg.Embedding.Model,
		Endpoint: cfg.Embedding.Endpoint,
		APIKey:   cfg.LLM.APIKey,
	})
	if err != nil {
		return nil, err
	}
	if c, ok := engine.(interface{ Close() error }); ok {
		a.closers = append(a.closers, func() { _ = c.Close() })
	}

	source, closeCatalog, err := openCatalog(ctx, cfg.Catalog)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeCatalog)

	if reg != nil {
		a.metrics = metrics.New(reg)
	}

	a.pipeline, err = pipeline.New(pipeline.Options{
		Client:          client,
		Engine:          engine,
		Catalog:         source,
		CorpusPath:      cfg.Retrieval.CorpusPath,
		ChunkSize:       cfg.Retrieval.ChunkSize,
		ChunkOverlap:    cfg.Retrieval.ChunkOverlap,
		TopK:            cfg.Retrieval.TopK,
		TopN:            cfg.Ranking.TopN,
		RankingJSONMode: cfg.Ranking.JSONMode,
		Observers:       append([]pipeline.Observer{audit.NewFileLog(cfg.Audit.Path)}, extra...),
		Metrics:         a.metrics,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Close releases clients in reverse order of creation and flushes the logger.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	_ = a.logger.Sync()
}

// llmConfig starts from the provider defaults and applies configured overrides.
func llmConfig(cfg config.LLMConfig) *llm.Config {
	out := llm.ConfigFor(cfg.Provider)
	if cfg.Model != "" {
		out = out.WithAllModels(cfg.Model)
	}
	if cfg.Endpoint != "" {
		out.Endpoint = cfg.Endpoint
	}
	out.Temperature = cfg.Temperature
	return out
}

func openCatalog(ctx context.Context, cfg config.CatalogConfig) (catalog.Source, func(), error) {
	switch cfg.Source {
	case "file":
		return &catalog.FileSource{Path: cfg.Path}, func() {}, nil
	case "postgres":
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return &catalog.PostgresSource{Store: database}, database.Close, nil
	default:
		return catalog.NewStaticSource(), func() {}, nil
	}
}
