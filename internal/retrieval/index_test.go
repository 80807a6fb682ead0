package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockEngine implements embedding.Engine for testing
type MockEngine struct {
	Vectors  map[string][]float32
	EmbedErr error
	BatchErr error
}

func (m *MockEngine) Embed(_ context.Context, text string) ([]float32, error) {
	if m.EmbedErr != nil {
		return nil, m.EmbedErr
	}
	v, ok := m.Vectors[text]
	if !ok {
		return nil, errors.New("unknown text: " + text)
	}
	return v, nil
}

func (m *MockEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if m.BatchErr != nil {
		return nil, m.BatchErr
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := m.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *MockEngine) Name() string { return "mock" }

func newTestEngine() *MockEngine {
	return &MockEngine{Vectors: map[string][]float32{
		"checkout redesign":    {1, 0},
		"guest checkout pilot": {0.9, 0.1},
		"dark theme":           {0, 1},
		"night mode":           {0.1, 0.9},
		"query: checkout":      {1, 0.05},
		"query: 3d":            {1, 0, 0},
	}}
}

func TestIndex_Search(t *testing.T) {
	engine := newTestEngine()
	ix, err := BuildIndex(context.Background(), engine, []string{"dark theme", "checkout redesign", "night mode", "guest checkout pilot"})
	require.NoError(t, err)
	assert.Equal(t, 4, ix.Len())

	docs, err := ix.Search(context.Background(), "query: checkout", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"checkout redesign", "guest checkout pilot"}, docs)
}

func TestIndex_SearchDefaultsK(t *testing.T) {
	ix, err := BuildIndex(context.Background(), newTestEngine(), []string{"dark theme", "checkout redesign", "night mode", "guest checkout pilot"})
	require.NoError(t, err)

	docs, err := ix.Search(context.Background(), "query: checkout", 0)
	require.NoError(t, err)
	assert.Len(t, docs, DefaultTopK)
}

func TestIndex_SearchCapsKAtCorpusSize(t *testing.T) {
	ix, err := BuildIndex(context.Background(), newTestEngine(), []string{"dark theme"})
	require.NoError(t, err)

	docs, err := ix.Search(context.Background(), "query: checkout", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"dark theme"}, docs)
}

func TestIndex_SimilarIdeas(t *testing.T) {
	ix, err := BuildIndex(context.Background(), newTestEngine(), []string{"dark theme", "checkout redesign", "guest checkout pilot"})
	require.NoError(t, err)

	text, err := ix.SimilarIdeas(context.Background(), "query: checkout", 2)
	require.NoError(t, err)
	assert.Equal(t, "checkout redesign\nguest checkout pilot", text)
}

func TestIndex_SimilarIdeasDegradesToEmpty(t *testing.T) {
	engine := newTestEngine()
	ix, err := BuildIndex(context.Background(), engine, []string{"dark theme"})
	require.NoError(t, err)

	engine.EmbedErr = errors.New("connection refused")
	text, err := ix.SimilarIdeas(context.Background(), "query: checkout", 3)
	require.Error(t, err)
	assert.Empty(t, text)

	engine.EmbedErr = nil
	text, err = ix.SimilarIdeas(context.Background(), "query: 3d", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension")
	assert.Empty(t, text)

	var missing *Index
	text, err = missing.SimilarIdeas(context.Background(), "anything", 3)
	require.Error(t, err)
	assert.Empty(t, text)
}

func TestBuildIndex_Errors(t *testing.T) {
	_, err := BuildIndex(context.Background(), newTestEngine(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no chunks")

	engine := newTestEngine()
	engine.BatchErr = errors.New("ollama down")
	_, err = BuildIndex(context.Background(), engine, []string{"dark theme"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama down")

	_, err = BuildIndex(context.Background(), newTestEngine(), []string{"dark theme", "query: 3d"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimension")
}
