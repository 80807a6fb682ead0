package ranking

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jonathan/idea-prioritizer/internal/llm"
	"github.com/jonathan/idea-prioritizer/internal/types"
)

// MockLLMClient implements llm.Client for testing
type MockLLMClient struct {
	GenerateContentFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	GenerateJSONFunc    func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	GetModelFunc        func(tier llm.ModelTier) string
	CloseFunc           func() error
}

func (m *MockLLMClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, prompt, tier)
	}
	return "", nil
}

func (m *MockLLMClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, tier)
	}
	return "[]", nil
}

func (m *MockLLMClient) GetModel(tier llm.ModelTier) string {
	if m.GetModelFunc != nil {
		return m.GetModelFunc(tier)
	}
	return "mock-model"
}

func (m *MockLLMClient) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

var sampleEvals = []types.Evaluation{
	{IdeaID: types.NumericID(1), CompositeScore: 6, Justification: "Moderate effort."},
	{IdeaID: types.NumericID(2), CompositeScore: 8, Justification: "Cheap and proven."},
	{IdeaID: types.NumericID(31), CompositeScore: 0, Justification: types.JustificationNotFound},
}

func TestFormatEvaluations(t *testing.T) {
	got := FormatEvaluations(sampleEvals[:2])
	want := "Idea ID: 1\nComposite Score: 6/10\nJustification: Moderate effort.\n\n" +
		"Idea ID: 2\nComposite Score: 8/10\nJustification: Cheap and proven."
	assert.Equal(t, want, got)
	assert.Equal(t, "", FormatEvaluations(nil))
}

func TestRank_Success(t *testing.T) {
	var gotPrompt string
	var gotTier llm.ModelTier
	client := &MockLLMClient{
		GenerateContentFunc: func(_ context.Context, prompt string, tier llm.ModelTier) (string, error) {
			gotPrompt, gotTier = prompt, tier
			return "Here is the ranking:\n```json\n[" +
				`{"idea_id": 2, "idea_summary": "Guest checkout", "composite_score": 8/10, "justification": "Cheap."},` +
				`{"idea_id": 1, "idea_summary": "Dark mode", "composite_score": 6, "justification": "Moderate."}` +
				"]\n```", nil
		},
	}

	ranked, err := NewAggregator(client, WithLogger(zaptest.NewLogger(t))).Rank(context.Background(), sampleEvals)
	require.NoError(t, err)

	require.Len(t, ranked, 2)
	assert.Equal(t, "2", ranked[0].IdeaID.String())
	assert.Equal(t, types.Score(8), ranked[0].CompositeScore)
	assert.Equal(t, "Guest checkout", ranked[0].IdeaSummary)
	assert.Equal(t, "1", ranked[1].IdeaID.String())

	assert.Equal(t, llm.TierAdvanced, gotTier)
	assert.Contains(t, gotPrompt, "top 3 ideas")
	assert.Contains(t, gotPrompt, "Idea ID: 31\nComposite Score: 0/10\nJustification: Justification not found.")
}

func TestRank_PreservesOracleOrder(t *testing.T) {
	client := &MockLLMClient{
		GenerateContentFunc: func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
			return `[{"idea_id": 1, "composite_score": 7, "justification": "a"},
				{"idea_id": 2, "composite_score": 7, "justification": "b"},
				{"idea_id": 31, "composite_score": 9, "justification": "c"}]`, nil
		},
	}

	ranked, err := NewAggregator(client).Rank(context.Background(), sampleEvals)
	require.NoError(t, err)

	ids := make([]string, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.IdeaID.String())
	}
	assert.Equal(t, []string{"1", "2", "31"}, ids)
}

func TestRank_TopN(t *testing.T) {
	var gotPrompt string
	client := &MockLLMClient{
		GenerateContentFunc: func(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
			gotPrompt = prompt
			return `[{"idea_id": 1, "composite_score": 1, "justification": "x"}]`, nil
		},
	}

	_, err := NewAggregator(client, WithTopN(5), WithTier(llm.TierStandard)).Rank(context.Background(), sampleEvals)
	require.NoError(t, err)
	assert.Contains(t, gotPrompt, "top 5 ideas")
}

func TestRank_OracleFailureDegrades(t *testing.T) {
	client := &MockLLMClient{
		GenerateContentFunc: func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
			return "", errors.New("model not loaded")
		},
	}

	ranked, err := NewAggregator(client).Rank(context.Background(), sampleEvals)
	require.Error(t, err)

	require.Len(t, ranked, 1)
	assert.True(t, ranked[0].IsError())
	assert.Equal(t, types.Score(0), ranked[0].CompositeScore)
	assert.Equal(t, "model not loaded", ranked[0].Justification)
}

func TestRank_NoJSONDegrades(t *testing.T) {
	client := &MockLLMClient{
		GenerateContentFunc: func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
			return "I cannot rank these ideas.", nil
		},
	}

	ranked, err := NewAggregator(client).Rank(context.Background(), sampleEvals)
	require.ErrorIs(t, err, llm.ErrNoJSON)

	require.Len(t, ranked, 1)
	assert.True(t, ranked[0].IsError())
	assert.Equal(t, llm.NoJSONReason, ranked[0].Justification)
}

func TestDecode(t *testing.T) {
	t.Run("single object becomes a list", func(t *testing.T) {
		ranked, issues, err := Decode(`{"idea_id": 32, "composite_score": "9/10", "justification": "only one"}`)
		require.NoError(t, err)
		assert.Empty(t, issues)
		require.Len(t, ranked, 1)
		assert.Equal(t, "32", ranked[0].IdeaID.String())
		assert.Equal(t, types.Score(9), ranked[0].CompositeScore)
	})

	t.Run("completion record", func(t *testing.T) {
		ranked, _, err := Decode(llm.Completion{Text: `[{"idea_id": 1, "composite_score": 4, "justification": "x"}]`})
		require.NoError(t, err)
		require.Len(t, ranked, 1)
	})

	t.Run("array of scalars is read as ids", func(t *testing.T) {
		ranked, issues, err := Decode(`[1, 2, "31"]`)
		require.NoError(t, err)
		assert.Len(t, issues, 3)
		require.Len(t, ranked, 3)
		assert.Equal(t, "1", ranked[0].IdeaID.String())
		assert.Equal(t, "31", ranked[2].IdeaID.String())
		assert.False(t, ranked[2].IsError())
	})

	t.Run("unparseable score keeps the entry", func(t *testing.T) {
		ranked, issues, err := Decode(`[
			{"idea_id": 2, "composite_score": 9, "justification": "a"},
			{"idea_id": 31, "composite_score": "excellent", "justification": "b"},
			{"idea_id": 1, "composite_score": "8 out of 10", "justification": "c"}
		]`)
		require.NoError(t, err)
		require.Len(t, issues, 1)
		assert.Contains(t, issues[0].Error(), "ranked entry 1")

		require.Len(t, ranked, 3)
		assert.Equal(t, "31", ranked[1].IdeaID.String())
		assert.Equal(t, types.Score(0), ranked[1].CompositeScore)
		assert.Equal(t, "b", ranked[1].Justification)
		assert.Equal(t, types.Score(8), ranked[2].CompositeScore)
		for _, r := range ranked {
			assert.False(t, r.IsError())
		}
	})

	t.Run("fractional score rounds", func(t *testing.T) {
		ranked, _, err := Decode(`[{"idea_id": 2, "composite_score": 7.6, "justification": "a"}]`)
		require.NoError(t, err)
		assert.Equal(t, types.Score(8), ranked[0].CompositeScore)
	})

	t.Run("odd idea id is kept as text", func(t *testing.T) {
		ranked, issues, err := Decode(`[{"idea_id": {"n": 4}, "composite_score": 5, "justification": "a"}]`)
		require.NoError(t, err)
		assert.Len(t, issues, 1)
		assert.Equal(t, `{"n":4}`, ranked[0].IdeaID.String())
	})

	t.Run("decode failure keeps reason", func(t *testing.T) {
		ranked, _, err := Decode(`[{"idea_id": 1,}]`)
		require.Error(t, err)
		require.Len(t, ranked, 1)
		assert.True(t, ranked[0].IsError())
		assert.True(t, strings.Contains(ranked[0].Justification, "invalid character"))
	})
}

func TestRank_MalformedEntryKeepsRanking(t *testing.T) {
	client := &MockLLMClient{
		GenerateContentFunc: func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
			return `Top ideas:
[{"idea_id": 2, "idea_summary": "Guest checkout", "composite_score": 9, "justification": "Cheap"},
 {"idea_id": 1, "idea_summary": "Dark mode", "composite_score": "eight", "justification": "Popular"},
 {"idea_id": 31, "idea_summary": "Compare", "composite_score": 5, "justification": "Costly"}]`, nil
		},
	}

	ranked, err := NewAggregator(client, WithLogger(zaptest.NewLogger(t))).Rank(context.Background(), sampleEvals)
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	ids := []string{ranked[0].IdeaID.String(), ranked[1].IdeaID.String(), ranked[2].IdeaID.String()}
	assert.Equal(t, []string{"2", "1", "31"}, ids)
	assert.Equal(t, types.Score(0), ranked[1].CompositeScore)
	assert.Equal(t, "Popular", ranked[1].Justification)
}

func TestRank_JSONMode(t *testing.T) {
	client := &MockLLMClient{
		GenerateContentFunc: func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
			t.Fatal("GenerateContent must not be called in JSON mode")
			return "", nil
		},
		GenerateJSONFunc: func(_ context.Context, prompt string, tier llm.ModelTier) (string, error) {
			assert.Equal(t, llm.TierAdvanced, tier)
			assert.Contains(t, prompt, "Idea ID: 2")
			return `[{"idea_id": 2, "composite_score": 8, "justification": "Cheap and proven."}]`, nil
		},
	}

	ranked, err := NewAggregator(client, WithJSONMode(true)).Rank(context.Background(), sampleEvals)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "2", ranked[0].IdeaID.String())
}
