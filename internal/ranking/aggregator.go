// Package ranking turns per-idea evaluations into the final top-N list.
package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/idea-prioritizer/internal/llm"
	"github.com/jonathan/idea-prioritizer/internal/prompts"
	"github.com/jonathan/idea-prioritizer/internal/schemas"
	"github.com/jonathan/idea-prioritizer/internal/types"
)

// DefaultTopN is the number of ideas the ranking oracle is asked to return.
const DefaultTopN = 3

// Aggregator asks the completion oracle to order evaluations. The ordering and
// tie-breaking are the oracle's; nothing is re-sorted locally.
type Aggregator struct {
	client llm.Client
	logger *zap.Logger
	tier   llm.ModelTier
	topN   int
	// jsonMode sends the ranking prompt through GenerateJSON.
	jsonMode bool
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Aggregator) { a.logger = l }
}

// WithTier sets the model tier for the ranking call.
func WithTier(tier llm.ModelTier) Option {
	return func(a *Aggregator) { a.tier = tier }
}

// WithTopN sets how many ideas to request.
func WithTopN(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.topN = n
		}
	}
}

// WithJSONMode asks the provider for JSON output on the ranking call. The
// response still goes through extraction, so plain text stays acceptable.
func WithJSONMode(enabled bool) Option {
	return func(a *Aggregator) { a.jsonMode = enabled }
}

// NewAggregator creates an Aggregator.
func NewAggregator(client llm.Client, opts ...Option) *Aggregator {
	a := &Aggregator{
		client: client,
		logger: zap.NewNop(),
		tier:   llm.TierAdvanced,
		topN:   DefaultTopN,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Rank returns the oracle's top-N ideas.
//
// The returned slice is always usable. When the oracle call fails or no JSON can
// be extracted from its output, the slice is a single error record and the error
// explains the degradation. Entries with malformed fields are kept and logged.
func (a *Aggregator) Rank(ctx context.Context, evals []types.Evaluation) ([]types.RankedIdea, error) {
	prompt, err := a.buildPrompt(evals)
	if err != nil {
		return []types.RankedIdea{types.ErrorRecord(err.Error())}, err
	}

	generate := a.client.GenerateContent
	if a.jsonMode {
		generate = a.client.GenerateJSON
	}

	resp, err := generate(ctx, prompt, a.tier)
	if err != nil {
		a.logger.Error("ranking oracle failed", zap.Error(err))
		return []types.RankedIdea{types.ErrorRecord(err.Error())}, fmt.Errorf("ranking failed: %w", err)
	}

	ranked, issues, err := Decode(resp)
	if err != nil {
		a.logger.Warn("ranking output could not be decoded", zap.Error(err), zap.String("response", resp))
		return ranked, err
	}
	for _, issue := range issues {
		a.logger.Warn("ranked entry partially decoded", zap.Error(issue))
	}

	if err := schemas.ValidateValue(schemas.RankedIdeas, ranked); err != nil {
		a.logger.Warn("ranking output does not match schema", zap.Error(err))
	}
	return ranked, nil
}

func (a *Aggregator) buildPrompt(evals []types.Evaluation) (string, error) {
	return prompts.Render(prompts.EvaluationFile, prompts.KeyRankIdeas, map[string]string{
		"TopN":        strconv.Itoa(a.topN),
		"Evaluations": FormatEvaluations(evals),
	})
}

// FormatEvaluations renders evaluations as labeled blocks separated by blank lines.
func FormatEvaluations(evals []types.Evaluation) string {
	blocks := make([]string, 0, len(evals))
	for _, e := range evals {
		blocks = append(blocks, fmt.Sprintf("Idea ID: %s\nComposite Score: %d/10\nJustification: %s",
			e.IdeaID, e.CompositeScore, e.Justification))
	}
	return strings.Join(blocks, "\n\n")
}

// Decode extracts the ranked list from a raw oracle response. A single JSON
// object is treated as a one-element list.
//
// Elements are decoded one at a time and always kept: a field that cannot be
// decoded stays at its zero value and is reported in issues, and a bare value
// in the list is read as an idea id. err is set only when extraction fails, in
// which case ranked is the single error record.
func Decode(raw any) (ranked []types.RankedIdea, issues []error, err error) {
	value, err := llm.ExtractJSON(raw)

	elems, ok := value.([]any)
	if !ok {
		elems = []any{value}
	}

	ranked = make([]types.RankedIdea, 0, len(elems))
	for i, elem := range elems {
		idea, problems := decodeElement(elem)
		for _, p := range problems {
			issues = append(issues, fmt.Errorf("ranked entry %d: %w", i, p))
		}
		ranked = append(ranked, idea)
	}
	return ranked, issues, err
}

func decodeElement(elem any) (types.RankedIdea, []error) {
	record, ok := elem.(map[string]any)
	if !ok {
		id := idFrom(elem)
		return types.RankedIdea{IdeaID: id}, []error{fmt.Errorf("not an object, read as idea_id %q", id)}
	}

	var out types.RankedIdea
	var problems []error

	if v, ok := record["idea_id"]; ok {
		if err := decodeField(v, &out.IdeaID); err != nil {
			out.IdeaID = idFrom(v)
			problems = append(problems, err)
		}
	}
	if v, ok := record["composite_score"]; ok {
		if err := decodeField(v, &out.CompositeScore); err != nil {
			out.CompositeScore = types.ScoreNotFound
			problems = append(problems, err)
		}
	}
	out.IdeaSummary = textField(record["idea_summary"])
	out.Justification = textField(record["justification"])

	return out, problems
}

func decodeField(v any, target any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

func idFrom(v any) types.IdeaID {
	var id types.IdeaID
	if err := decodeField(v, &id); err == nil {
		return id
	}
	return types.TextID(textField(v))
}

func textField(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
