package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/vytor/studyhall/internal/db"
	"github.com/vytor/studyhall/internal/logger"
	"github.com/vytor/studyhall/internal/models"
	"github.com/vytor/studyhall/internal/repository"
	"github.com/vytor/studyhall/internal/srs"
)

// Thresholds used by Stats.
const (
	masteredIntervalDays = 21
	strugglingEasiness   = 2.0
	dueSoonWindow        = 7 * 24 * time.Hour
)

type progressRepository struct {
	db   *sqlx.DB
	q    queryer
	inTx bool
}

// NewProgressRepository creates a new ProgressRepository implementation
func NewProgressRepository(db *sqlx.DB) repository.ProgressRepository {
	return &progressRepository{db: db, q: db}
}

const progressColumns = `id, flashcard_id, user_id, easiness_factor, interval_days, repetitions, next_review_date, last_reviewed`

func (r *progressRepository) InTx(ctx context.Context, fn func(repository.ProgressRepository) error) error {
	if r.inTx {
		return fn(r)
	}
	return db.Tx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(&progressRepository{db: r.db, q: tx, inTx: true})
	})
}

func (r *progressRepository) GetOrCreate(ctx context.Context, flashcardID, userID int64, now time.Time) (*models.CardProgress, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")

	initial := srs.NewReviewState(utc(now))
	res, err := r.q.ExecContext(ctx, `
INSERT INTO flashcard_progress (flashcard_id, user_id, easiness_factor, interval_days, repetitions, next_review_date, last_reviewed)
VALUES (?, ?, ?, ?, ?, ?, NULL)
ON CONFLICT (flashcard_id, user_id) DO NOTHING
`, flashcardID, userID, initial.EasinessFactor, initial.Interval, initial.Repetitions, initial.NextReviewDate)
	if err != nil {
		log.Error("failed to ensure progress row: %v", err)
		return nil, err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		log.Debug("progress created: flashcard_id=%d, user_id=%d", flashcardID, userID)
	}

	var p models.CardProgress
	err = sqlx.GetContext(ctx, r.q, &p, `
SELECT `+progressColumns+`
FROM flashcard_progress
WHERE flashcard_id = ? AND user_id = ?
`, flashcardID, userID)
	if err != nil {
		log.Error("failed to load progress: %v", err)
		return nil, err
	}
	return &p, nil
}

func (r *progressRepository) Save(ctx context.Context, p models.CardProgress, expectedLastReviewed *time.Time) error {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("saving progress: id=%d, interval=%d, ef=%.2f, reps=%d", p.ID, p.IntervalDays, p.EasinessFactor, p.Repetitions)

	res, err := r.q.ExecContext(ctx, `
UPDATE flashcard_progress
SET easiness_factor = ?, interval_days = ?, repetitions = ?, next_review_date = ?, last_reviewed = ?
WHERE id = ? AND last_reviewed IS ?
`, p.EasinessFactor, p.IntervalDays, p.Repetitions, utc(p.NextReviewDate), utcPtr(p.LastReviewed),
		p.ID, utcPtr(expectedLastReviewed))
	if err != nil {
		log.Error("failed to update progress: %v", err)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = sqlx.GetContext(ctx, r.q, &exists, `SELECT 1 FROM flashcard_progress WHERE id = ?`, p.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return sql.ErrNoRows
	}
	if err != nil {
		return err
	}
	log.Warn("progress %d changed since it was read", p.ID)
	return repository.ErrConflict
}

func (r *progressRepository) DueCards(ctx context.Context, filter models.DueFilter) ([]models.DueCard, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	asOf := utc(filter.AsOf)
	log.Debug("fetching due cards: user_id=%d, deck_id=%d, limit=%d", filter.UserID, filter.DeckID, filter.Limit)

	query := sqlBuilder.
		Select(
			"f.id", "f.deck_id", "f.question", "f.answer", "f.created_at",
			"d.title AS deck_title",
			"p.id AS progress_id", "p.easiness_factor", "p.interval_days", "p.repetitions", "p.next_review_date",
		).
		From("flashcards f").
		Join("flashcard_decks d ON d.id = f.deck_id").
		LeftJoin("flashcard_progress p ON p.flashcard_id = f.id AND p.user_id = ?", filter.UserID).
		Where(squirrel.Or{
			squirrel.Eq{"d.user_id": filter.UserID},
			squirrel.Eq{"d.is_public": true},
		}).
		Where(squirrel.Or{
			squirrel.And{squirrel.Eq{"p.id": nil}, squirrel.LtOrEq{"f.created_at": asOf}},
			squirrel.LtOrEq{"p.next_review_date": asOf},
		}).
		OrderBy("CASE WHEN p.id IS NULL THEN 1 ELSE 0 END", "p.next_review_date", "f.id")

	if filter.DeckID > 0 {
		query = query.Where(squirrel.Eq{"f.deck_id": filter.DeckID})
	}
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var cards []models.DueCard
	if err := sqlx.SelectContext(ctx, r.q, &cards, sqlStr, args...); err != nil {
		log.Error("failed to query due cards: %v", err)
		return nil, err
	}
	log.Debug("found %d due cards", len(cards))
	return cards, nil
}

// DueCountsByUser counts, per user, the cards DueCards would return for
// them: never-seen and overdue cards in decks the user can see.
func (r *progressRepository) DueCountsByUser(ctx context.Context, asOf time.Time) ([]models.DueCount, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	asOf = utc(asOf)

	sqlStr, args, err := sqlBuilder.
		Select("u.id AS user_id", "COUNT(*) AS due").
		From("users u").
		Join("flashcard_decks d ON d.user_id = u.id OR d.is_public = 1").
		Join("flashcards f ON f.deck_id = d.id").
		LeftJoin("flashcard_progress p ON p.flashcard_id = f.id AND p.user_id = u.id").
		Where(squirrel.Or{
			squirrel.And{squirrel.Eq{"p.id": nil}, squirrel.LtOrEq{"f.created_at": asOf}},
			squirrel.LtOrEq{"p.next_review_date": asOf},
		}).
		GroupBy("u.id").
		OrderBy("u.id").
		ToSql()
	if err != nil {
		return nil, err
	}

	var counts []models.DueCount
	if err := sqlx.SelectContext(ctx, r.q, &counts, sqlStr, args...); err != nil {
		log.WithError(err).Error("failed to count due cards")
		return nil, err
	}
	log.Debug("%d users have cards due", len(counts))
	return counts, nil
}

func (r *progressRepository) InsertReviewHistory(ctx context.Context, h models.ReviewHistory) error {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("inserting review history: progress_id=%d, quality=%d, time=%.2fs", h.ProgressID, h.Quality, h.TimeSeconds)

	_, err := r.q.ExecContext(ctx, `
INSERT INTO review_history (progress_id, quality, time_seconds, run_id, reviewed_at)
VALUES (?, ?, ?, ?, ?)
`, h.ProgressID, h.Quality, h.TimeSeconds, h.RunID, utc(h.ReviewedAt))
	if err != nil {
		log.Error("failed to insert review history: %v", err)
	}
	return err
}

func (r *progressRepository) Stats(ctx context.Context, userID int64, asOf time.Time) (*models.ReviewStats, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("fetching review stats: user_id=%d", userID)

	asOf = utc(asOf)
	var stat models.ReviewStats
	err := sqlx.GetContext(ctx, r.q, &stat, `
SELECT
    (SELECT COUNT(*)
       FROM flashcards f
       JOIN flashcard_decks d ON d.id = f.deck_id
      WHERE d.user_id = ? OR d.is_public = 1) AS total_cards,
    COUNT(p.id) AS cards_seen,
    COUNT(CASE WHEN p.interval_days > ? THEN 1 END) AS cards_mastered,
    COUNT(CASE WHEN p.easiness_factor < ? THEN 1 END) AS cards_struggling,
    COUNT(CASE WHEN p.next_review_date <= ? THEN 1 END) AS cards_due,
    COUNT(CASE WHEN p.next_review_date > ? AND p.next_review_date <= ? THEN 1 END) AS cards_due_soon,
    COALESCE(AVG(p.easiness_factor), 0) AS avg_easiness_factor,
    COALESCE(AVG(p.interval_days), 0) AS avg_interval_days
FROM flashcard_progress p
WHERE p.user_id = ?
`, userID, masteredIntervalDays, strugglingEasiness, asOf, asOf, asOf.Add(dueSoonWindow), userID)
	if err != nil {
		log.Error("failed to get progress stats: %v", err)
		return nil, err
	}

	err = sqlx.GetContext(ctx, r.q, &stat, `
SELECT
    COUNT(h.id) AS total_reviews,
    CASE
        WHEN COUNT(h.id) > 0
        THEN ROUND(100.0 * SUM(CASE WHEN h.quality >= ? THEN 1 ELSE 0 END) / COUNT(h.id), 1)
        ELSE 0
    END AS accuracy,
    COALESCE(AVG(h.time_seconds), 0) AS avg_time_seconds
FROM review_history h
JOIN flashcard_progress p ON p.id = h.progress_id
WHERE p.user_id = ?
`, int(srs.PassThreshold), userID)
	if err != nil {
		log.Error("failed to get review history stats: %v", err)
		return nil, err
	}
	return &stat, nil
}
