package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyhall/internal/db"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// Foreign keys are enforced.
func NewTestDB(t *testing.T) *sqlx.DB {
	database, err := db.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	return database.DB
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// InsertUser creates a user directly and returns its id.
func InsertUser(t *testing.T, conn *sqlx.DB, name, email string) int64 {
	res, err := conn.Exec(`INSERT INTO users (name, email, created_at) VALUES (?, ?, ?)`, name, email, time.Now().UTC())
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

// InsertDeck creates a deck owned by userID and returns its id.
func InsertDeck(t *testing.T, conn *sqlx.DB, userID int64, title string, public bool) int64 {
	now := time.Now().UTC()
	res, err := conn.Exec(`
INSERT INTO flashcard_decks (title, user_id, is_public, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
`, title, userID, public, now, now)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

// InsertCard adds a card to deckID with the given creation time.
func InsertCard(t *testing.T, conn *sqlx.DB, deckID int64, question, answer string, createdAt time.Time) int64 {
	res, err := conn.Exec(`
INSERT INTO flashcards (deck_id, question, answer, created_at)
VALUES (?, ?, ?, ?)
`, deckID, question, answer, createdAt.UTC())
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}
