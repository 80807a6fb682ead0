// Package catalog supplies the ideas a run evaluates.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/idea-prioritizer/internal/schemas"
	"github.com/jonathan/idea-prioritizer/internal/types"
)

// Source loads the idea catalog. Order is significant: ideas are evaluated
// and presented to the ranking oracle in the order returned.
type Source interface {
	LoadCatalog(ctx context.Context) ([]types.Idea, error)
}

// StaticSource serves a fixed, in-memory catalog.
type StaticSource struct {
	Ideas []types.Idea
}

// NewStaticSource returns a StaticSource over the built-in catalog.
func NewStaticSource() *StaticSource {
	return &StaticSource{Ideas: DefaultIdeas()}
}

// LoadCatalog returns a copy of the fixed catalog.
func (s *StaticSource) LoadCatalog(_ context.Context) ([]types.Idea, error) {
	out := make([]types.Idea, len(s.Ideas))
	copy(out, s.Ideas)
	return out, nil
}

// DefaultIdeas is the built-in catalog.
func DefaultIdeas() []types.Idea {
	return []types.Idea{
		{
			ID:                 1,
			Title:              "Introduce Optional Dark Mode",
			Text:               "Introduce an optional dark mode in the mobile app to reduce eye strain during night-time use",
			SubmitterAge:       19,
			StrategicAlignment: "Mobile UX",
		},
		{
			ID:                 2,
			Title:              "Allow Customers Checkout",
			Text:               "Allow customers to checkout without creating an account",
			SubmitterAge:       30,
			StrategicAlignment: "Conversion Optimization",
		},
		{
			ID:                 31,
			Title:              "Show Prices",
			Text:               "Show prices in the user's local currency and support popular local payment methods (e",
			SubmitterAge:       26,
			StrategicAlignment: "Internationalization",
		},
		{
			ID:                 32,
			Title:              "Implement Product Comparison",
			Text:               "Implement a product comparison feature where users can select multiple products and see their specifications side by side",
			SubmitterAge:       30,
			StrategicAlignment: "Conversion Optimization",
		},
	}
}

// FileSource reads a JSON array of ideas, validated against the catalog schema.
type FileSource struct {
	Path string
}

// LoadCatalog reads and validates the catalog file.
func (s *FileSource) LoadCatalog(_ context.Context) ([]types.Idea, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", s.Path, err)
	}
	return Parse(data)
}

// Parse validates and decodes a JSON catalog document.
func Parse(data []byte) ([]types.Idea, error) {
	if err := schemas.Validate(schemas.Catalog, data); err != nil {
		return nil, err
	}

	var ideas []types.Idea
	if err := json.Unmarshal(data, &ideas); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if err := checkUnique(ideas); err != nil {
		return nil, err
	}
	return ideas, nil
}

func checkUnique(ideas []types.Idea) error {
	seen := make(map[int]struct{}, len(ideas))
	for _, idea := range ideas {
		if _, ok := seen[idea.ID]; ok {
			return fmt.Errorf("duplicate idea_id %d in catalog", idea.ID)
		}
		seen[idea.ID] = struct{}{}
	}
	return nil
}
