package sqlite

import (
	"context"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/vytor/studyhall/internal/logger"
	"github.com/vytor/studyhall/internal/models"
	"github.com/vytor/studyhall/internal/repository"
)

type notificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new NotificationRepository implementation
func NewNotificationRepository(db *sqlx.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n models.Notification) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("notification_repo")
	log.Debug("creating notification: user_id=%d, type=%s", n.UserID, n.Type)

	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx, `
INSERT INTO notifications (user_id, type, title, message, link, is_read, created_at)
VALUES (?, ?, ?, ?, ?, 0, ?)
`, n.UserID, n.Type, n.Title, n.Message, n.Link, utc(createdAt))
	if err != nil {
		log.Error("failed to insert notification: %v", err)
		return 0, err
	}
	return res.LastInsertId()
}

func (r *notificationRepository) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	log := logger.FromContext(ctx).WithPrefix("notification_repo")

	query := sqlBuilder.
		Select("id", "user_id", "type", "title", "message", "link", "is_read", "created_at").
		From("notifications").
		Where(squirrel.Eq{"user_id": filter.UserID}).
		OrderBy("created_at DESC", "id DESC")
	if filter.UnreadOnly {
		query = query.Where(squirrel.Eq{"is_read": false})
	}
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	var out []models.Notification
	if err := r.db.SelectContext(ctx, &out, sqlStr, args...); err != nil {
		log.Error("failed to list notifications: %v", err)
		return nil, err
	}
	log.Debug("found %d notifications", len(out))
	return out, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("notification_repo").Error("failed to mark notification read: %v", err)
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`, userID)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("notification_repo").Error("failed to mark notifications read: %v", err)
		return 0, err
	}
	return res.RowsAffected()
}

func (r *notificationRepository) ExistsSince(ctx context.Context, userID int64, notificationType string, since time.Time) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
SELECT EXISTS (
    SELECT 1 FROM notifications
    WHERE user_id = ? AND type = ? AND created_at >= ?
)
`, userID, notificationType, utc(since))
	return exists, err
}
