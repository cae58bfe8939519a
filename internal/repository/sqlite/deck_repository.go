package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/vytor/studyhall/internal/logger"
	"github.com/vytor/studyhall/internal/models"
	"github.com/vytor/studyhall/internal/repository"
)

type deckRepository struct {
	db *sqlx.DB
}

// NewDeckRepository creates a new DeckRepository implementation
func NewDeckRepository(db *sqlx.DB) repository.DeckRepository {
	return &deckRepository{db: db}
}

func deckSelect() squirrel.SelectBuilder {
	return sqlBuilder.
		Select(
			"d.id", "d.title", "d.description", "d.session_id", "d.user_id", "d.is_public",
			"d.created_at", "d.updated_at",
			"(SELECT COUNT(*) FROM flashcards f WHERE f.deck_id = d.id) AS card_count",
		).
		From("flashcard_decks d")
}

func (r *deckRepository) Create(ctx context.Context, ownerID int64, deck models.NewDeck) (*models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("creating deck: owner_id=%d, title=%s", ownerID, deck.Title)

	now := utc(time.Now())
	res, err := r.db.ExecContext(ctx, `
INSERT INTO flashcard_decks (title, description, session_id, user_id, is_public, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, deck.Title, deck.Description, deck.SessionID, ownerID, deck.IsPublic, now, now)
	if err != nil {
		log.Error("failed to insert deck: %v", err)
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get deck id: %v", err)
		return nil, err
	}
	log.Debug("deck inserted: id=%d", id)
	return r.Get(ctx, id)
}

func (r *deckRepository) Get(ctx context.Context, id int64) (*models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")

	query, args, err := deckSelect().Where(squirrel.Eq{"d.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	var d models.Deck
	err = r.db.GetContext(ctx, &d, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("deck not found: id=%d", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get deck: %v", err)
		return nil, err
	}
	return &d, nil
}

// ListVisible returns the user's own decks followed by everyone else's public ones.
func (r *deckRepository) ListVisible(ctx context.Context, userID int64) ([]models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("listing decks visible to user_id=%d", userID)

	query, args, err := deckSelect().
		Where(squirrel.Or{
			squirrel.Eq{"d.user_id": userID},
			squirrel.Eq{"d.is_public": true},
		}).
		OrderByClause("CASE WHEN d.user_id = ? THEN 0 ELSE 1 END", userID).
		OrderBy("d.title", "d.id").
		ToSql()
	if err != nil {
		return nil, err
	}

	var decks []models.Deck
	if err := r.db.SelectContext(ctx, &decks, query, args...); err != nil {
		log.Error("failed to list decks: %v", err)
		return nil, err
	}
	log.Debug("found %d decks", len(decks))
	return decks, nil
}

func (r *deckRepository) Delete(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("deleting deck: id=%d", id)

	res, err := r.db.ExecContext(ctx, `DELETE FROM flashcard_decks WHERE id = ?`, id)
	if err != nil {
		log.Error("failed to delete deck: %v", err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
