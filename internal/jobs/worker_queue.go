package jobs

import (
	"github.com/vytor/studyhall/internal/worker"
)

// WorkerQueue implements JobQueue using a worker pool
type WorkerQueue struct {
	reminderPool *worker.Pool
	notifier     worker.ReminderNotifier
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(reminderPool *worker.Pool, notifier worker.ReminderNotifier) JobQueue {
	return &WorkerQueue{
		reminderPool: reminderPool,
		notifier:     notifier,
	}
}

func (q *WorkerQueue) EnqueueReminder(userID int64, due int) error {
	return q.reminderPool.Submit(&worker.ReminderJob{
		Notifier: q.notifier,
		UserID:   userID,
		Due:      due,
	})
}
