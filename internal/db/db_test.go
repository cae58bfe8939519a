package db_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyhall/internal/db"
)

func TestOpen_AppliesMigrations(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer database.Close()

	var tables []string
	err = database.SelectContext(ctx, &tables, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"flashcard_decks",
		"flashcard_progress",
		"flashcards",
		"notifications",
		"review_history",
		"rsvps",
		"schema_migrations",
		"study_sessions",
		"users",
	}, tables)
}

func TestOpen_ReopenSkipsAppliedMigrations(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "studyhall.db")

	first, err := db.Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := db.Open(ctx, path)
	require.NoError(t, err)
	defer second.Close()

	var count int
	require.NoError(t, second.GetContext(ctx, &count, `SELECT COUNT(*) FROM schema_migrations`))
	assert.Equal(t, 4, count)
}

func TestOpen_ForeignKeysEnabled(t *testing.T) {
	ctx := context.Background()
	database, err := db.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer database.Close()

	var enabled int
	require.NoError(t, database.GetContext(ctx, &enabled, `PRAGMA foreign_keys`))
	assert.Equal(t, 1, enabled)
}
