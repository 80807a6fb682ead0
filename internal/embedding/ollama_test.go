package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaEngine_EmbedBatch(t *testing.T) {
	var prompts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		prompts = append(prompts, req.Prompt)
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{float32(len(req.Prompt)), 1}})
	}))
	defer srv.Close()

	engine := NewOllamaEngine(srv.URL+"/", "nomic-embed-text", srv.Client())
	vecs, err := engine.EmbedBatch(context.Background(), []string{"a", "bbb"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "bbb"}, prompts)
	assert.Equal(t, [][]float32{{1, 1}, {3, 1}}, vecs)
	assert.Equal(t, "ollama:nomic-embed-text", engine.Name())
}

func TestOllamaEngine_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	engine := NewOllamaEngine(srv.URL, "", srv.Client())
	_, err := engine.EmbedBatch(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestOllamaEngine_EmptyEmbedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{})
	}))
	defer srv.Close()

	engine := NewOllamaEngine(srv.URL, "", srv.Client())
	_, err := engine.Embed(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty embedding")
}

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine(context.Background(), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "ollama:llama3.2", engine.Name())

	_, err = NewEngine(context.Background(), Config{Provider: ProviderGemini})
	require.Error(t, err)

	_, err = NewEngine(context.Background(), Config{Provider: "faiss"})
	require.Error(t, err)
}
