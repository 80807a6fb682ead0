package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/idea-prioritizer/internal/types"
)

const listIdeasQuery = `SELECT idea_id, title, idea_text, submitter_age, strategic_alignment
FROM ideas ORDER BY position, idea_id`

// shiftPositionsQuery moves every stored idea past the slots an import is about to take.
const shiftPositionsQuery = `UPDATE ideas SET position = position + $1`

// ListIdeas returns the catalog in position order.
func (db *DB) ListIdeas(ctx context.Context) ([]types.Idea, error) {
	rows, err := db.pool.Query(ctx, listIdeasQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list ideas: %w", err)
	}
	defer rows.Close()

	ideas, err := pgx.CollectRows(rows, scanIdea)
	if err != nil {
		return nil, fmt.Errorf("failed to scan ideas: %w", err)
	}
	return ideas, nil
}

func scanIdea(row pgx.CollectableRow) (types.Idea, error) {
	var idea types.Idea
	err := row.Scan(&idea.ID, &idea.Title, &idea.Text, &idea.SubmitterAge, &idea.StrategicAlignment)
	return idea, err
}

// UpsertIdeas writes ideas in one transaction. Import is additive: the given
// ideas take positions 0..len-1 in slice order, and stored ideas missing from
// the slice keep their relative order after them.
func (db *DB) UpsertIdeas(ctx context.Context, ideas []types.Idea) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, shiftPositionsQuery, len(ideas)); err != nil {
		return fmt.Errorf("failed to shift idea positions: %w", err)
	}

	batch := &pgx.Batch{}
	for i, idea := range ideas {
		batch.Queue(
			`INSERT INTO ideas (idea_id, title, idea_text, submitter_age, strategic_alignment, position)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (idea_id) DO UPDATE SET
			   title = EXCLUDED.title,
			   idea_text = EXCLUDED.idea_text,
			   submitter_age = EXCLUDED.submitter_age,
			   strategic_alignment = EXCLUDED.strategic_alignment,
			   position = EXCLUDED.position`,
			idea.ID, idea.Title, idea.Text, idea.SubmitterAge, idea.StrategicAlignment, i,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert ideas: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit ideas: %w", err)
	}
	return nil
}

// DeleteIdea removes one idea from the catalog.
func (db *DB) DeleteIdea(ctx context.Context, id int) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM ideas WHERE idea_id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete idea %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("idea %d not found", id)
	}
	return nil
}
