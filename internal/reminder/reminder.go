// Package reminder periodically looks for users with cards due and queues
// a reminder job for each of them.
package reminder

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/vytor/studyhall/internal/jobs"
	"github.com/vytor/studyhall/internal/logger"
	"github.com/vytor/studyhall/internal/repository"
)

// Scheduler triggers reminder sweeps on a fixed interval.
type Scheduler struct {
	scheduler *gocron.Scheduler
	progress  repository.ProgressRepository
	queue     jobs.JobQueue
	interval  time.Duration
	now       func() time.Time
}

// New creates a reminder scheduler. Sweeps run every interval once started.
func New(progress repository.ProgressRepository, queue jobs.JobQueue, interval time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		progress:  progress,
		queue:     queue,
		interval:  interval,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start schedules the sweep and runs it immediately, without blocking.
func (s *Scheduler) Start(ctx context.Context) error {
	log := logger.FromContext(ctx).WithPrefix("reminder")
	log.Info("scheduling reminder sweep every %v", s.interval)

	_, err := s.scheduler.Every(s.interval).Do(func() {
		if _, err := s.Sweep(ctx); err != nil {
			log.Error("reminder sweep failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates scheduled sweeps.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// Sweep queues one reminder job per user with due cards and returns how
// many were queued. A full queue skips the user until the next sweep.
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("reminder")
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}

	counts, err := s.progress.DueCountsByUser(ctx, s.now())
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, c := range counts {
		if c.Due == 0 {
			continue
		}
		if err := s.queue.EnqueueReminder(c.UserID, c.Due); err != nil {
			log.Warn("failed to queue reminder for user %d: %v", c.UserID, err)
			continue
		}
		queued++
	}
	log.Debug("sweep queued %d reminders for %d users with due cards", queued, len(counts))
	return queued, nil
}
