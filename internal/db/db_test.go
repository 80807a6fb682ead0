package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaDefinesIdeasTable(t *testing.T) {
	assert.Contains(t, schemaSQL, "CREATE TABLE IF NOT EXISTS ideas")
	for _, col := range []string{"idea_id", "title", "idea_text", "submitter_age", "strategic_alignment", "position"} {
		assert.Contains(t, schemaSQL, col)
	}
}

func TestListIdeasQueryOrder(t *testing.T) {
	assert.True(t, strings.HasSuffix(listIdeasQuery, "ORDER BY position, idea_id"))
}

func TestShiftPositionsQuery(t *testing.T) {
	assert.Equal(t, "UPDATE ideas SET position = position + $1", shiftPositionsQuery)
}
