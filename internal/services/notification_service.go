package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vytor/studyhall/internal/errors"
	"github.com/vytor/studyhall/internal/logger"
	"github.com/vytor/studyhall/internal/models"
	"github.com/vytor/studyhall/internal/repository"
)

// NotificationService manages each user's notification inbox.
type NotificationService interface {
	List(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	NotifyRSVP(ctx context.Context, session models.StudySession, attendee models.User) error
	// NotifyReply tells the author of a thread's root message about a reply.
	NotifyReply(ctx context.Context, root models.Message, reply models.Message) error
	// NotifyDue creates a review_due notification unless the user already
	// received one within the cooldown. It reports whether one was created.
	NotifyDue(ctx context.Context, userID int64, due int) (bool, error)
}

type notificationService struct {
	repo     repository.NotificationRepository
	cooldown time.Duration
	now      func() time.Time
}

// NewNotificationService creates a new NotificationService. cooldown is the
// minimum gap between two review reminders to the same user.
func NewNotificationService(repo repository.NotificationRepository, cooldown time.Duration) NotificationService {
	return &notificationService{
		repo:     repo,
		cooldown: cooldown,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *notificationService) List(ctx context.Context, userID int64, unreadOnly bool, limit int) ([]models.Notification, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing notifications: user_id=%d, unread_only=%t", userID, unreadOnly)

	out, err := s.repo.List(ctx, models.NotificationFilter{UserID: userID, UnreadOnly: unreadOnly, Limit: limit})
	if err != nil {
		log.WithError(err).Error("failed to list notifications")
		return nil, storeError(err, "notification", "")
	}
	return out, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, id int64) error {
	log := logger.FromContext(ctx)

	ok, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		log.WithError(err).Error("failed to mark notification read")
		return storeError(err, "notification", id)
	}
	if !ok {
		return errors.NewNotFoundError("notification", id)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to mark notifications read: %v", err)
		return 0, storeError(err, "notification", "")
	}
	return n, nil
}

func (s *notificationService) NotifyRSVP(ctx context.Context, session models.StudySession, attendee models.User) error {
	_, err := s.repo.Create(ctx, models.Notification{
		UserID:  session.CreatorID,
		Type:    models.NotificationRSVP,
		Title:   "New RSVP",
		Message: fmt.Sprintf("%s is attending %q", attendee.Name, session.Title),
		Link:    fmt.Sprintf("session:%d", session.ID),
	})
	if err != nil {
		return storeError(err, "notification", "")
	}
	return nil
}

func (s *notificationService) NotifyReply(ctx context.Context, root models.Message, reply models.Message) error {
	_, err := s.repo.Create(ctx, models.Notification{
		UserID:  root.UserID,
		Type:    models.NotificationReply,
		Title:   "New reply",
		Message: fmt.Sprintf("%s replied: %s", reply.AuthorName, excerpt(reply.Body, 80)),
		Link:    fmt.Sprintf("message:%d", root.ID),
	})
	if err != nil {
		return storeError(err, "notification", "")
	}
	return nil
}

func excerpt(s string, n int) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-3]) + "..."
}

func (s *notificationService) NotifyDue(ctx context.Context, userID int64, due int) (bool, error) {
	log := logger.FromContext(ctx)
	if due <= 0 {
		return false, nil
	}

	now := s.now()
	if s.cooldown > 0 {
		recent, err := s.repo.ExistsSince(ctx, userID, models.NotificationReviewDue, now.Add(-s.cooldown))
		if err != nil {
			log.WithError(err).Error("failed to check recent reminders")
			return false, storeError(err, "notification", "")
		}
		if recent {
			return false, nil
		}
	}

	noun := "cards"
	if due == 1 {
		noun = "card"
	}
	_, err := s.repo.Create(ctx, models.Notification{
		UserID:    userID,
		Type:      models.NotificationReviewDue,
		Title:     "Cards due for review",
		Message:   fmt.Sprintf("You have %d %s waiting for review", due, noun),
		Link:      "review",
		CreatedAt: now,
	})
	if err != nil {
		log.WithError(err).Error("failed to create reminder")
		return false, storeError(err, "notification", "")
	}
	return true, nil
}
