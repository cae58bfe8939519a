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
)

type sessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new SessionRepository implementation
func NewSessionRepository(db *sqlx.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

func sessionSelect() squirrel.SelectBuilder {
	return sqlBuilder.
		Select(
			"s.id", "s.title", "s.description", "s.session_type", "s.location", "s.meeting_link",
			"s.starts_at", "s.capacity", "s.creator_id", "s.created_at",
			"(SELECT COUNT(*) FROM rsvps r WHERE r.session_id = s.id) AS rsvp_count",
		).
		From("study_sessions s")
}

func (r *sessionRepository) Create(ctx context.Context, creatorID int64, s models.NewSession) (*models.StudySession, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("creating session: creator_id=%d, type=%s", creatorID, s.Type)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO study_sessions (title, description, session_type, location, meeting_link, starts_at, capacity, creator_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, s.Title, s.Description, s.Type, s.Location, s.MeetingLink, utc(s.StartsAt), s.Capacity, creatorID, utc(time.Now()))
	if err != nil {
		log.Error("failed to insert session: %v", err)
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		log.Error("failed to get session id: %v", err)
		return nil, err
	}
	log.Debug("session inserted: id=%d", id)
	return r.Get(ctx, id)
}

func (r *sessionRepository) Get(ctx context.Context, id int64) (*models.StudySession, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")

	query, args, err := sessionSelect().Where(squirrel.Eq{"s.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	var s models.StudySession
	err = r.db.GetContext(ctx, &s, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("session not found: id=%d", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get session: %v", err)
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.StudySession, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")

	query := sessionSelect().OrderBy("s.starts_at", "s.id")
	if filter.From != nil {
		query = query.Where(squirrel.GtOrEq{"s.starts_at": utc(*filter.From)})
	}
	if filter.CreatorID > 0 {
		query = query.Where(squirrel.Eq{"s.creator_id": filter.CreatorID})
	}
	if filter.Type != "" {
		query = query.Where(squirrel.Eq{"s.session_type": filter.Type})
	}
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	var sessions []models.StudySession
	if err := r.db.SelectContext(ctx, &sessions, sqlStr, args...); err != nil {
		log.Error("failed to list sessions: %v", err)
		return nil, err
	}
	log.Debug("found %d sessions", len(sessions))
	return sessions, nil
}

// Delete removes the session and its RSVPs. Decks attached to it are kept
// and detached.
func (r *sessionRepository) Delete(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("deleting session: id=%d", id)

	res, err := r.db.ExecContext(ctx, `DELETE FROM study_sessions WHERE id = ?`, id)
	if err != nil {
		log.Error("failed to delete session: %v", err)
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *sessionRepository) AddRSVP(ctx context.Context, sessionID, userID int64) (*models.RSVP, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("adding rsvp: session_id=%d, user_id=%d", sessionID, userID)

	var rsvp models.RSVP
	err := db.Tx(ctx, r.db, func(tx *sqlx.Tx) error {
		var seats struct {
			Capacity int `db:"capacity"`
			Taken    int `db:"taken"`
			Mine     int `db:"mine"`
		}
		err := tx.GetContext(ctx, &seats, `
SELECT
    s.capacity,
    (SELECT COUNT(*) FROM rsvps r WHERE r.session_id = s.id) AS taken,
    (SELECT COUNT(*) FROM rsvps r WHERE r.session_id = s.id AND r.user_id = ?) AS mine
FROM study_sessions s
WHERE s.id = ?
`, userID, sessionID)
		if err != nil {
			return err
		}
		if seats.Mine > 0 {
			return repository.ErrDuplicate
		}
		if seats.Capacity > 0 && seats.Taken >= seats.Capacity {
			return repository.ErrCapacityReached
		}

		now := utc(time.Now())
		res, err := tx.ExecContext(ctx, `
INSERT INTO rsvps (session_id, user_id, created_at)
VALUES (?, ?, ?)
`, sessionID, userID, now)
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		rsvp = models.RSVP{ID: id, SessionID: sessionID, UserID: userID, CreatedAt: now}
		return nil
	})
	if err != nil {
		if !errors.Is(err, repository.ErrDuplicate) && !errors.Is(err, repository.ErrCapacityReached) && !errors.Is(err, sql.ErrNoRows) {
			log.Error("failed to add rsvp: %v", err)
		}
		return nil, err
	}
	log.Debug("rsvp added: id=%d", rsvp.ID)
	return &rsvp, nil
}

func (r *sessionRepository) RemoveRSVP(ctx context.Context, sessionID, userID int64) (bool, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("removing rsvp: session_id=%d, user_id=%d", sessionID, userID)

	res, err := r.db.ExecContext(ctx, `DELETE FROM rsvps WHERE session_id = ? AND user_id = ?`, sessionID, userID)
	if err != nil {
		log.Error("failed to remove rsvp: %v", err)
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *sessionRepository) Participants(ctx context.Context, sessionID int64) ([]models.Participant, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")

	var participants []models.Participant
	err := r.db.SelectContext(ctx, &participants, `
SELECT u.id AS user_id, u.name, u.email, r.created_at
FROM rsvps r
JOIN users u ON u.id = r.user_id
WHERE r.session_id = ?
ORDER BY r.created_at, r.id
`, sessionID)
	if err != nil {
		log.Error("failed to list participants: %v", err)
		return nil, err
	}
	return participants, nil
}
