// Package retrieval loads the historical idea corpus, splits it into chunks and
// answers nearest-neighbour queries over their embeddings.
package retrieval

import (
	"fmt"
	"os"
	"strings"
)

// RecordSeparator divides records in the historical corpus file.
const RecordSeparator = "---"

// LoadDocuments reads the corpus file and returns one document per non-empty record.
func LoadDocuments(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus %s: %w", path, err)
	}
	return SplitRecords(string(data)), nil
}

// SplitRecords splits text on RecordSeparator and drops blank records.
func SplitRecords(text string) []string {
	var docs []string
	for _, block := range strings.Split(text, RecordSeparator) {
		if block = strings.TrimSpace(block); block != "" {
			docs = append(docs, block)
		}
	}
	return docs
}
