package retrieval

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/jonathan/idea-prioritizer/internal/embedding"
)

// DefaultTopK is the number of similar chunks returned when k is not positive.
const DefaultTopK = 3

// Index is an exact nearest-neighbour index over chunk embeddings, ranked by
// Euclidean distance. It is built once per run and read-only afterwards.
type Index struct {
	engine  embedding.Engine
	chunks  []string
	vectors [][]float64
}

// BuildIndex embeds every chunk with engine.
func BuildIndex(ctx context.Context, engine embedding.Engine, chunks []string) (*Index, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("cannot build index: corpus produced no chunks")
	}

	raw, err := engine.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to embed corpus with %s: %w", engine.Name(), err)
	}
	if len(raw) != len(chunks) {
		return nil, fmt.Errorf("embedding engine returned %d vectors for %d chunks", len(raw), len(chunks))
	}

	vectors := make([][]float64, len(raw))
	for i, v := range raw {
		if i > 0 && len(v) != len(vectors[0]) {
			return nil, fmt.Errorf("chunk %d has dimension %d, expected %d", i, len(v), len(vectors[0]))
		}
		vectors[i] = toFloat64(v)
	}

	return &Index{
		engine:  engine,
		chunks:  slices.Clone(chunks),
		vectors: vectors,
	}, nil
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	return len(ix.chunks)
}

// Search returns the k chunks nearest to query, closest first. Ties keep corpus order.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]string, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	q, err := ix.engine.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	qv := toFloat64(q)
	if len(qv) != len(ix.vectors[0]) {
		return nil, fmt.Errorf("query has dimension %d, index has %d", len(qv), len(ix.vectors[0]))
	}

	type hit struct {
		pos  int
		dist float64
	}
	hits := make([]hit, len(ix.vectors))
	for i, v := range ix.vectors {
		hits[i] = hit{pos: i, dist: floats.Distance(qv, v, 2)}
	}
	slices.SortStableFunc(hits, func(a, b hit) int {
		switch {
		case a.dist < b.dist:
			return -1
		case a.dist > b.dist:
			return 1
		default:
			return 0
		}
	})

	k = min(k, len(hits))
	out := make([]string, k)
	for i := range k {
		out[i] = ix.chunks[hits[i].pos]
	}
	return out, nil
}

// SimilarIdeas returns the k nearest chunks joined by newlines. On failure the
// text is empty and err explains why; callers treat that as "no extra context".
func (ix *Index) SimilarIdeas(ctx context.Context, query string, k int) (string, error) {
	if ix == nil {
		return "", fmt.Errorf("similarity index is not built")
	}
	docs, err := ix.Search(ctx, query, k)
	if err != nil {
		return "", err
	}
	return strings.Join(docs, "\n"), nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
