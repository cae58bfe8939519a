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

type messageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository creates a new MessageRepository implementation
func NewMessageRepository(db *sqlx.DB) repository.MessageRepository {
	return &messageRepository{db: db}
}

func messageSelect() squirrel.SelectBuilder {
	return sqlBuilder.
		Select(
			"m.id", "m.session_id", "m.user_id", "u.name AS author_name",
			"m.parent_message_id", "m.body", "m.created_at",
			"(SELECT COUNT(*) FROM messages r WHERE r.parent_message_id = m.id) AS reply_count",
		).
		From("messages m").
		Join("users u ON u.id = m.user_id")
}

func (r *messageRepository) Create(ctx context.Context, sessionID, userID int64, parentID *int64, body string) (*models.Message, error) {
	log := logger.FromContext(ctx).WithPrefix("message_repo")
	log.Debug("creating message: session_id=%d, user_id=%d", sessionID, userID)

	res, err := r.db.ExecContext(ctx, `
INSERT INTO messages (session_id, user_id, parent_message_id, body, created_at)
VALUES (?, ?, ?, ?, ?)
`, sessionID, userID, parentID, body, utc(time.Now()))
	if err != nil {
		log.Error("failed to insert message: %v", err)
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *messageRepository) Get(ctx context.Context, id int64) (*models.Message, error) {
	query, args, err := messageSelect().Where(squirrel.Eq{"m.id": id}).ToSql()
	if err != nil {
		return nil, err
	}
	var m models.Message
	err = r.db.GetContext(ctx, &m, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.FromContext(ctx).WithPrefix("message_repo").Error("failed to get message: %v", err)
		return nil, err
	}
	return &m, nil
}

func (r *messageRepository) ListBySession(ctx context.Context, sessionID int64) ([]models.Message, error) {
	return r.list(ctx, squirrel.Eq{"m.session_id": sessionID, "m.parent_message_id": nil})
}

func (r *messageRepository) Replies(ctx context.Context, parentID int64) ([]models.Message, error) {
	return r.list(ctx, squirrel.Eq{"m.parent_message_id": parentID})
}

func (r *messageRepository) list(ctx context.Context, where squirrel.Eq) ([]models.Message, error) {
	log := logger.FromContext(ctx).WithPrefix("message_repo")
	query, args, err := messageSelect().Where(where).OrderBy("m.created_at", "m.id").ToSql()
	if err != nil {
		return nil, err
	}
	var out []models.Message
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		log.Error("failed to list messages: %v", err)
		return nil, err
	}
	log.Debug("found %d messages", len(out))
	return out, nil
}

func (r *messageRepository) AddReaction(ctx context.Context, messageID, userID int64, emoji string) error {
	log := logger.FromContext(ctx).WithPrefix("message_repo")
	_, err := r.db.ExecContext(ctx, `
INSERT INTO message_reactions (message_id, user_id, emoji, created_at)
VALUES (?, ?, ?, ?)
`, messageID, userID, emoji, utc(time.Now()))
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	if err != nil {
		log.Error("failed to add reaction: %v", err)
	}
	return err
}

func (r *messageRepository) RemoveReaction(ctx context.Context, messageID, userID int64, emoji string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM message_reactions WHERE message_id = ? AND user_id = ? AND emoji = ?
`, messageID, userID, emoji)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("message_repo").Error("failed to remove reaction: %v", err)
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *messageRepository) Reactions(ctx context.Context, messageIDs []int64) ([]models.ReactionCount, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlBuilder.
		Select("message_id", "emoji", "COUNT(*) AS count").
		From("message_reactions").
		Where(squirrel.Eq{"message_id": messageIDs}).
		GroupBy("message_id", "emoji").
		OrderBy("message_id", "MIN(created_at)", "emoji").
		ToSql()
	if err != nil {
		return nil, err
	}
	var out []models.ReactionCount
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		logger.FromContext(ctx).WithPrefix("message_repo").Error("failed to count reactions: %v", err)
		return nil, err
	}
	return out, nil
}
