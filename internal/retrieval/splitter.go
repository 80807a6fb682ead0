package retrieval

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Default chunking parameters for the historical corpus.
const (
	DefaultChunkSize    = 2000
	DefaultChunkOverlap = 600
	DefaultSeparator    = "\n\n"
)

// Splitter cuts documents into chunks of at most ChunkSize characters. Pieces
// are taken between separators and merged greedily; up to ChunkOverlap
// characters of trailing pieces are repeated at the start of the next chunk.
// A single piece longer than ChunkSize becomes its own oversized chunk.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separator    string
}

// NewSplitter returns a splitter on blank lines, rejecting overlap >= size.
func NewSplitter(chunkSize, chunkOverlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be in [0, %d)", chunkOverlap, chunkSize)
	}
	return &Splitter{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap, Separator: DefaultSeparator}, nil
}

// SplitDocuments splits every document and concatenates the chunks in order.
func (s *Splitter) SplitDocuments(docs []string) []string {
	var chunks []string
	for _, doc := range docs {
		chunks = append(chunks, s.SplitText(doc)...)
	}
	return chunks
}

// SplitText splits a single document.
func (s *Splitter) SplitText(text string) []string {
	var pieces []string
	for _, p := range strings.Split(text, s.Separator) {
		if p != "" {
			pieces = append(pieces, p)
		}
	}
	return s.merge(pieces)
}

func (s *Splitter) merge(pieces []string) []string {
	sepLen := utf8.RuneCountInString(s.Separator)

	var chunks []string
	var current []string
	total := 0

	// joinCost is the separator length added when appending to a non-empty window.
	joinCost := func() int {
		if len(current) > 0 {
			return sepLen
		}
		return 0
	}

	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)

		if total+n+joinCost() > s.ChunkSize && len(current) > 0 {
			if chunk := strings.TrimSpace(strings.Join(current, s.Separator)); chunk != "" {
				chunks = append(chunks, chunk)
			}
			// Drop leading pieces until the window fits the overlap budget and the new piece.
			for total > s.ChunkOverlap || (total > 0 && total+n+joinCost() > s.ChunkSize) {
				drop := utf8.RuneCountInString(current[0])
				if len(current) > 1 {
					drop += sepLen
				}
				total -= drop
				current = current[1:]
			}
		}

		current = append(current, piece)
		total += n
		if len(current) > 1 {
			total += sepLen
		}
	}

	if chunk := strings.TrimSpace(strings.Join(current, s.Separator)); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}
