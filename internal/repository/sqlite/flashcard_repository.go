package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vytor/studyhall/internal/db"
	"github.com/vytor/studyhall/internal/logger"
	"github.com/vytor/studyhall/internal/models"
	"github.com/vytor/studyhall/internal/repository"
)

type flashcardRepository struct {
	db *sqlx.DB
}

// NewFlashcardRepository creates a new FlashcardRepository implementation
func NewFlashcardRepository(db *sqlx.DB) repository.FlashcardRepository {
	return &flashcardRepository{db: db}
}

const flashcardColumns = `id, deck_id, question, answer, created_at`

func (r *flashcardRepository) Insert(ctx context.Context, deckID int64, c models.NewFlashcard) (*models.Flashcard, error) {
	log := logger.FromContext(ctx).WithPrefix("flashcard_repo")
	log.Debug("inserting flashcard: deck_id=%d", deckID)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO flashcards (deck_id, question, answer, created_at)
VALUES (?, ?, ?, ?)
`, deckID, c.Question, c.Answer, utc(time.Now()))
	if err != nil {
		log.Error("failed to insert flashcard: %v", err)
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get flashcard id: %v", err)
		return nil, err
	}
	if err := touchDeck(ctx, r.db, deckID); err != nil {
		log.Warn("failed to bump deck updated_at: %v", err)
	}
	log.Debug("flashcard inserted: id=%d", id)
	return r.Get(ctx, id)
}

// InsertBatch inserts all cards in one transaction; either every card is
// stored or none is.
func (r *flashcardRepository) InsertBatch(ctx context.Context, deckID int64, cards []models.NewFlashcard) ([]int64, error) {
	log := logger.FromContext(ctx).WithPrefix("flashcard_repo")
	log.Debug("inserting %d flashcards: deck_id=%d", len(cards), deckID)

	ids := make([]int64, 0, len(cards))
	err := db.Tx(ctx, r.db, func(tx *sqlx.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
INSERT INTO flashcards (deck_id, question, answer, created_at)
VALUES (?, ?, ?, ?)
`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		now := utc(time.Now())
		for i, c := range cards {
			res, err := stmt.ExecContext(ctx, deckID, c.Question, c.Answer, now)
			if err != nil {
				log.Error("failed to insert flashcard %d of batch: %v", i, err)
				return err
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return touchDeck(ctx, tx, deckID)
	})
	if err != nil {
		return nil, err
	}
	log.Debug("inserted %d flashcards", len(ids))
	return ids, nil
}

func (r *flashcardRepository) Get(ctx context.Context, id int64) (*models.Flashcard, error) {
	log := logger.FromContext(ctx).WithPrefix("flashcard_repo")

	var c models.Flashcard
	err := r.db.GetContext(ctx, &c, `SELECT `+flashcardColumns+` FROM flashcards WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("flashcard not found: id=%d", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get flashcard: %v", err)
		return nil, err
	}
	return &c, nil
}

func (r *flashcardRepository) ListByDeck(ctx context.Context, deckID int64) ([]models.Flashcard, error) {
	log := logger.FromContext(ctx).WithPrefix("flashcard_repo")

	var cards []models.Flashcard
	err := r.db.SelectContext(ctx, &cards, `SELECT `+flashcardColumns+` FROM flashcards WHERE deck_id = ? ORDER BY id`, deckID)
	if err != nil {
		log.Error("failed to list flashcards: %v", err)
		return nil, err
	}
	log.Debug("found %d flashcards in deck %d", len(cards), deckID)
	return cards, nil
}

// Delete removes the card together with every user's progress on it.
func (r *flashcardRepository) Delete(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx).WithPrefix("flashcard_repo")
	log.Debug("deleting flashcard: id=%d", id)

	res, err := r.db.ExecContext(ctx, `DELETE FROM flashcards WHERE id = ?`, id)
	if err != nil {
		log.Error("failed to delete flashcard: %v", err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func touchDeck(ctx context.Context, q sqlx.ExecerContext, deckID int64) error {
	_, err := q.ExecContext(ctx, `UPDATE flashcard_decks SET updated_at = ? WHERE id = ?`, utc(time.Now()), deckID)
	return err
}
