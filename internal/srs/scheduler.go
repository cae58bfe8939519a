package srs

import (
	"fmt"
	"math"
	"time"
)

// intervalCeiling keeps interval arithmetic inside int range no matter how
// many perfect reviews a card collects.
const intervalCeiling = math.MaxInt32

// ComputeNextReview applies one SM-2 review of the given quality to state.
// now stamps LastReviewed and anchors NextReviewDate. On error state is
// returned unchanged.
func ComputeNextReview(state ReviewState, quality int, now time.Time) (ReviewState, error) {
	return computeNextReview(state, Quality(quality), now, 0)
}

func computeNextReview(state ReviewState, q Quality, now time.Time, maxInterval int) (ReviewState, error) {
	if !q.IsValid() {
		return state, fmt.Errorf("%w: got %d", ErrInvalidQuality, int(q))
	}
	if err := state.Validate(); err != nil {
		return state, err
	}

	miss := float64(Perfect - q)
	ef := state.EasinessFactor + (0.1 - miss*(0.08+miss*0.02))
	if ef < MinEasinessFactor {
		ef = MinEasinessFactor
	}

	var interval, reps int
	if q.IsSuccess() {
		reps = state.Repetitions + 1
		switch reps {
		case 1:
			interval = 1
		case 2:
			interval = 6
		default:
			next := math.Round(float64(state.Interval) * ef)
			if next > intervalCeiling {
				next = intervalCeiling
			}
			interval = int(next)
		}
	} else {
		reps = 0
		interval = 1
	}
	if maxInterval > 0 && interval > maxInterval {
		interval = maxInterval
	}

	reviewed := now
	return ReviewState{
		EasinessFactor: ef,
		Interval:       interval,
		Repetitions:    reps,
		NextReviewDate: now.AddDate(0, 0, interval),
		LastReviewed:   &reviewed,
	}, nil
}

// Scheduler wraps ComputeNextReview with a clock and an optional interval cap.
type Scheduler struct {
	now         func() time.Time
	maxInterval int
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces time.Now as the source of review timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// WithMaxInterval caps the interval in days. Zero leaves growth unbounded.
func WithMaxInterval(days int) Option {
	return func(s *Scheduler) {
		if days > 0 {
			s.maxInterval = days
		}
	}
}

// NewScheduler creates a Scheduler using the wall clock in UTC.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the scheduler's current time.
func (s *Scheduler) Now() time.Time {
	return s.now()
}

// Review applies a review of quality q at the scheduler's current time.
func (s *Scheduler) Review(state ReviewState, q Quality) (ReviewState, error) {
	return s.ReviewAt(state, q, s.now())
}

// ReviewAt applies a review of quality q at now, honoring the interval cap.
func (s *Scheduler) ReviewAt(state ReviewState, q Quality, now time.Time) (ReviewState, error) {
	return computeNextReview(state, q, now, s.maxInterval)
}
