// Package evaluation runs the two-phase plan/retrieve/finalize judgment of a single idea.
package evaluation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/idea-prioritizer/internal/llm"
	"github.com/jonathan/idea-prioritizer/internal/prompts"
	"github.com/jonathan/idea-prioritizer/internal/types"
)

const (
	// ActionRetrieveSimilar in a plan requests similar historical ideas.
	ActionRetrieveSimilar = "Action: RetrieveSimilar"
	// ActionNoRetrieve in a plan declines retrieval. Any plan without
	// ActionRetrieveSimilar is treated the same way.
	ActionNoRetrieve = "Action: NoRetrieve"
	// NoRetrievalContext is the additional context when nothing was retrieved.
	NoRetrievalContext = "No additional similar ideas retrieved."
	// SimilarIdeasPrefix introduces retrieved ideas in the additional context.
	SimilarIdeasPrefix = "Similar Ideas: "
	// DefaultTopK is the number of similar chunks requested per retrieval.
	DefaultTopK = 3
)

// Retriever returns text similar to a query. On failure it returns "" and an error.
type Retriever interface {
	SimilarIdeas(ctx context.Context, query string, k int) (string, error)
}

// Inputs are the run-wide values shared by every idea's prompts.
type Inputs struct {
	Constraints    string
	DatasetMetrics string
}

// Trace records everything one evaluation produced. It is handed to observers
// after the evaluation completes.
type Trace struct {
	RunID             string
	Idea              types.Idea
	Plan              string
	Retrieved         bool
	RetrievalErr      error
	AdditionalContext string
	FinalText         string
	Parsed            ParsedResponse
	Evaluation        types.Evaluation
	Duration          time.Duration
}

// Evaluator performs the two-phase evaluation. It has no side effects beyond
// oracle calls and logging.
type Evaluator struct {
	client    llm.Client
	retriever Retriever
	parser    ResponseParser
	logger    *zap.Logger
	tier      llm.ModelTier
	topK      int
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithParser replaces the default LabelParser.
func WithParser(p ResponseParser) Option {
	return func(e *Evaluator) { e.parser = p }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Evaluator) { e.logger = l }
}

// WithTier sets the model tier used for both phases.
func WithTier(tier llm.ModelTier) Option {
	return func(e *Evaluator) { e.tier = tier }
}

// WithTopK sets how many similar chunks a retrieval requests.
func WithTopK(k int) Option {
	return func(e *Evaluator) {
		if k > 0 {
			e.topK = k
		}
	}
}

// New creates an Evaluator. retriever may be nil, in which case retrieval
// requests degrade to empty context.
func New(client llm.Client, retriever Retriever, opts ...Option) *Evaluator {
	e := &Evaluator{
		client:    client,
		retriever: retriever,
		parser:    LabelParser{},
		logger:    zap.NewNop(),
		tier:      llm.TierStandard,
		topK:      DefaultTopK,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs plan, optional retrieval and finalize for one idea.
// Oracle errors are returned as-is; there are no retries.
func (e *Evaluator) Evaluate(ctx context.Context, idea types.Idea, in Inputs) (*Trace, error) {
	start := time.Now()
	log := e.logger.With(zap.Int("idea_id", idea.ID))

	plan, err := e.Plan(ctx, idea, in)
	if err != nil {
		return nil, err
	}

	trace := &Trace{Idea: idea, Plan: plan, AdditionalContext: NoRetrievalContext}

	if WantsRetrieval(plan) {
		trace.Retrieved = true
		similar, err := e.retrieve(ctx, idea.Text)
		if err != nil {
			trace.RetrievalErr = err
			log.Warn("similarity search failed, continuing without context", zap.Error(err))
		}
		trace.AdditionalContext = SimilarIdeasPrefix + similar
	}
	log.Debug("plan complete", zap.Bool("retrieved", trace.Retrieved))

	finalText, parsed, err := e.Finalize(ctx, idea, in, trace.AdditionalContext, plan)
	if err != nil {
		return nil, err
	}
	trace.FinalText = finalText
	trace.Parsed = parsed
	trace.Evaluation = types.Evaluation{
		IdeaID:         types.NumericID(idea.ID),
		CompositeScore: parsed.Score,
		Justification:  parsed.Justification,
	}
	if !parsed.ScoreFound || !parsed.JustificationFound {
		log.Warn("final answer did not follow the expected format",
			zap.Bool("score_found", parsed.ScoreFound),
			zap.Bool("justification_found", parsed.JustificationFound))
	}
	trace.Duration = time.Since(start)

	return trace, nil
}

// Plan runs phase one and returns the trimmed plan text.
func (e *Evaluator) Plan(ctx context.Context, idea types.Idea, in Inputs) (string, error) {
	prompt, err := prompts.Render(prompts.EvaluationFile, prompts.KeyPlanIdea, map[string]string{
		"DatasetMetrics": in.DatasetMetrics,
		"Constraints":    in.Constraints,
		"IdeaText":       idea.Text,
	})
	if err != nil {
		return "", err
	}

	resp, err := e.client.GenerateContent(ctx, prompt, e.tier)
	if err != nil {
		return "", fmt.Errorf("planning idea %d failed: %w", idea.ID, err)
	}
	return strings.TrimSpace(resp), nil
}

// Finalize runs phase two and parses the response.
func (e *Evaluator) Finalize(ctx context.Context, idea types.Idea, in Inputs, additionalContext, plan string) (string, ParsedResponse, error) {
	prompt, err := prompts.Render(prompts.EvaluationFile, prompts.KeyFinalize, map[string]string{
		"DatasetMetrics":    in.DatasetMetrics,
		"Constraints":       in.Constraints,
		"IdeaText":          idea.Text,
		"AdditionalContext": additionalContext,
		"Plan":              plan,
	})
	if err != nil {
		return "", ParsedResponse{}, err
	}

	resp, err := e.client.GenerateContent(ctx, prompt, e.tier)
	if err != nil {
		return "", ParsedResponse{}, fmt.Errorf("finalizing idea %d failed: %w", idea.ID, err)
	}

	finalText := strings.TrimSpace(resp)
	return finalText, e.parser.Parse(finalText), nil
}

func (e *Evaluator) retrieve(ctx context.Context, query string) (string, error) {
	if e.retriever == nil {
		return "", fmt.Errorf("no retriever configured")
	}
	return e.retriever.SimilarIdeas(ctx, query, e.topK)
}

// WantsRetrieval reports whether a plan requests similar ideas.
func WantsRetrieval(plan string) bool {
	return strings.Contains(plan, ActionRetrieveSimilar)
}
