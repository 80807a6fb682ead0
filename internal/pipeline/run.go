// Package pipeline orchestrates a full idea-ranking run: catalog, corpus index,
// per-idea evaluation and final ranking.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/idea-prioritizer/internal/catalog"
	"github.com/jonathan/idea-prioritizer/internal/embedding"
	"github.com/jonathan/idea-prioritizer/internal/evaluation"
	"github.com/jonathan/idea-prioritizer/internal/llm"
	"github.com/jonathan/idea-prioritizer/internal/metrics"
	"github.com/jonathan/idea-prioritizer/internal/ranking"
	"github.com/jonathan/idea-prioritizer/internal/retrieval"
	"github.com/jonathan/idea-prioritizer/internal/types"
)

// Progress steps, in the order a run emits them.
const (
	StepLoadCatalog = "load_catalog"
	StepBuildIndex  = "build_index"
	StepEvaluate    = "evaluate_idea"
	StepRank        = "rank_ideas"
	StepComplete    = "complete"
)

// ErrEmptyCatalog is returned when the catalog has no ideas to evaluate.
var ErrEmptyCatalog = errors.New("catalog has no ideas")

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step    string `json:"step"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
	IdeaID  int    `json:"idea_id,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Observer is invoked after each idea's evaluation. A returned error aborts the run.
type Observer interface {
	Observe(ctx context.Context, trace *evaluation.Trace) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, trace *evaluation.Trace) error

// Observe calls f.
func (f ObserverFunc) Observe(ctx context.Context, trace *evaluation.Trace) error {
	return f(ctx, trace)
}

// Options holds the collaborators and settings of a Pipeline.
type Options struct {
	Client     llm.Client       // Required: completion oracle
	Engine     embedding.Engine // Required: embeds corpus chunks and queries
	Catalog    catalog.Source   // Defaults to the built-in catalog
	CorpusPath string           // Required: historical ideas separated by "---"

	ChunkSize    int
	ChunkOverlap int
	TopK         int
	TopN         int
	// RankingJSONMode requests provider JSON output for the ranking call.
	RankingJSONMode bool

	Observers  []Observer
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
	OnProgress ProgressCallback
}

// Result is the outcome of one run.
type Result struct {
	RunID       string
	Evaluations []types.Evaluation
	Ranked      []types.RankedIdea
	// RankingErr is set when Ranked is a degraded default.
	RankingErr error
}

// Pipeline runs the idea-ranking process. It holds no per-run state and may be
// reused, but runs that share an audit log should not overlap.
type Pipeline struct {
	opts       Options
	aggregator *ranking.Aggregator
	logger     *zap.Logger
}

// New validates opts and returns a Pipeline.
func New(opts Options) (*Pipeline, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("pipeline: completion client is required")
	}
	if opts.Engine == nil {
		return nil, fmt.Errorf("pipeline: embedding engine is required")
	}
	if opts.CorpusPath == "" {
		return nil, fmt.Errorf("pipeline: corpus path is required")
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.NewStaticSource()
	}
	if opts.ChunkSize == 0 {
		opts.ChunkSize = retrieval.DefaultChunkSize
		if opts.ChunkOverlap == 0 {
			opts.ChunkOverlap = retrieval.DefaultChunkOverlap
		}
	}
	if _, err := retrieval.NewSplitter(opts.ChunkSize, opts.ChunkOverlap); err != nil {
		return nil, err
	}
	if opts.TopK <= 0 {
		opts.TopK = retrieval.DefaultTopK
	}
	if opts.TopN <= 0 {
		opts.TopN = ranking.DefaultTopN
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Pipeline{
		opts: opts,
		aggregator: ranking.NewAggregator(opts.Client,
			ranking.WithLogger(opts.Logger),
			ranking.WithTopN(opts.TopN),
			ranking.WithJSONMode(opts.RankingJSONMode),
		),
		logger: opts.Logger,
	}, nil
}

// GenerateTopIdeas runs the pipeline for constraints given under the fixed form keys.
func (p *Pipeline) GenerateTopIdeas(ctx context.Context, form map[string]string) ([]types.RankedIdea, error) {
	result, err := p.Run(ctx, types.ConstraintsFromForm(form))
	if err != nil {
		return nil, err
	}
	return result.Ranked, nil
}

// Run evaluates every catalog idea in order and ranks the results.
//
// Infrastructure failures (catalog, corpus, index, completion oracle during
// evaluation, observers) abort the run. A failed ranking call does not: the
// result carries the degraded ranking and RankingErr.
func (p *Pipeline) Run(ctx context.Context, constraints types.Constraints) (*Result, error) {
	return p.RunWithProgress(ctx, constraints, p.opts.OnProgress)
}

// RunWithProgress is Run with a per-call progress callback in place of the
// configured one. onProgress may be nil.
func (p *Pipeline) RunWithProgress(ctx context.Context, constraints types.Constraints, onProgress ProgressCallback) (result *Result, err error) {
	emit := func(event ProgressEvent) {
		if onProgress != nil {
			onProgress(event)
		}
	}
	runID := uuid.NewString()
	log := p.logger.With(zap.String("run_id", runID))
	start := time.Now()

	if p.opts.Metrics != nil {
		done := p.opts.Metrics.TrackRun()
		defer func() { done(err) }()
	}

	inputs := evaluation.Inputs{
		Constraints:    constraints.Sentence(),
		DatasetMetrics: types.DatasetMetrics,
	}
	log.Info("run started", zap.String("constraints", inputs.Constraints))

	emit(ProgressEvent{Step: StepLoadCatalog, Message: "Loading idea catalog", RunID: runID})
	ideas, err := p.opts.Catalog.LoadCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	if len(ideas) == 0 {
		return nil, ErrEmptyCatalog
	}

	emit(ProgressEvent{Step: StepBuildIndex, Message: "Indexing historical ideas", RunID: runID})
	index, err := p.buildIndex(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("similarity index ready", zap.Int("chunks", index.Len()), zap.String("engine", p.opts.Engine.Name()))

	evaluator := evaluation.New(p.opts.Client, index,
		evaluation.WithLogger(log),
		evaluation.WithTopK(p.opts.TopK),
	)

	evals := make([]types.Evaluation, 0, len(ideas))
	for i, idea := range ideas {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		emit(ProgressEvent{
			Step:    StepEvaluate,
			Message: fmt.Sprintf("Evaluating idea %d of %d", i+1, len(ideas)),
			RunID:   runID,
			IdeaID:  idea.ID,
		})

		trace, err := evaluator.Evaluate(ctx, idea, inputs)
		if err != nil {
			return nil, err
		}
		trace.RunID = runID

		for _, obs := range p.observers() {
			if err := obs.Observe(ctx, trace); err != nil {
				return nil, fmt.Errorf("observer failed for idea %d: %w", idea.ID, err)
			}
		}

		log.Info("idea evaluated",
			zap.Int("idea_id", idea.ID),
			zap.Int("composite_score", trace.Evaluation.CompositeScore),
			zap.Bool("retrieved", trace.Retrieved),
			zap.Duration("duration", trace.Duration))
		evals = append(evals, trace.Evaluation)
	}

	emit(ProgressEvent{Step: StepRank, Message: "Ranking evaluated ideas", RunID: runID})
	ranked, rankErr := p.aggregator.Rank(ctx, evals)
	if rankErr != nil {
		log.Warn("ranking degraded", zap.Error(rankErr))
	}
	if p.opts.Metrics != nil {
		p.opts.Metrics.ObserveRanking(rankErr != nil)
	}

	emit(ProgressEvent{Step: StepComplete, Message: fmt.Sprintf("Ranked %d ideas", len(ranked)), RunID: runID})
	log.Info("run complete", zap.Int("ideas", len(evals)), zap.Duration("duration", time.Since(start)))

	return &Result{
		RunID:       runID,
		Evaluations: evals,
		Ranked:      ranked,
		RankingErr:  rankErr,
	}, nil
}

func (p *Pipeline) buildIndex(ctx context.Context) (*retrieval.Index, error) {
	docs, err := retrieval.LoadDocuments(p.opts.CorpusPath)
	if err != nil {
		return nil, err
	}

	splitter, err := retrieval.NewSplitter(p.opts.ChunkSize, p.opts.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	chunks := splitter.SplitDocuments(docs)
	p.logger.Debug("corpus split", zap.Int("documents", len(docs)), zap.Int("chunks", len(chunks)))

	return retrieval.BuildIndex(ctx, p.opts.Engine, chunks)
}

func (p *Pipeline) observers() []Observer {
	if p.opts.Metrics == nil {
		return p.opts.Observers
	}
	return append(append([]Observer{}, p.opts.Observers...), p.opts.Metrics)
}
