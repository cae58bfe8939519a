package worker

import (
	"context"

	"github.com/vytor/studyhall/internal/logger"
)

// ReminderNotifier delivers due-card reminders. Implemented by the
// notification service; declared here to keep worker free of service imports.
type ReminderNotifier interface {
	// NotifyDue reports whether a reminder was created. It returns false
	// when the user was already reminded within the cooldown.
	NotifyDue(ctx context.Context, userID int64, due int) (bool, error)
}

// ReminderJob tells one user how many cards are waiting for review.
type ReminderJob struct {
	Notifier ReminderNotifier
	UserID   int64
	Due      int
}

func (j *ReminderJob) Name() string { return "review_reminder" }

func (j *ReminderJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithFields(map[string]any{
		"user_id": j.UserID,
		"due":     j.Due,
	})

	sent, err := j.Notifier.NotifyDue(ctx, j.UserID, j.Due)
	if err != nil {
		return err
	}
	if sent {
		log.Info("reminder sent")
	} else {
		log.Debug("reminder skipped, user reminded recently")
	}
	return nil
}
