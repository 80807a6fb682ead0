package catalog

import (
	"context"
	"fmt"

	"github.com/jonathan/idea-prioritizer/internal/types"
)

// IdeaStore lists catalog rows. *db.DB satisfies it.
type IdeaStore interface {
	ListIdeas(ctx context.Context) ([]types.Idea, error)
}

// PostgresSource loads the catalog from the ideas table.
type PostgresSource struct {
	Store IdeaStore
}

// LoadCatalog lists the ideas table in position order.
func (s *PostgresSource) LoadCatalog(ctx context.Context) ([]types.Idea, error) {
	ideas, err := s.Store.ListIdeas(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkUnique(ideas); err != nil {
		return nil, fmt.Errorf("ideas table: %w", err)
	}
	return ideas, nil
}
