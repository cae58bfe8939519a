package srs

import (
	"fmt"
	"time"
)

const (
	// DefaultEasinessFactor is the factor every new card starts with.
	DefaultEasinessFactor = 2.5
	// MinEasinessFactor is the floor applied after every update.
	MinEasinessFactor = 1.3
)

// ReviewState is the scheduling state of one flashcard for one user.
type ReviewState struct {
	EasinessFactor float64
	Interval       int // days
	Repetitions    int
	NextReviewDate time.Time
	LastReviewed   *time.Time
}

// NewReviewState returns the state of a card the user has never reviewed.
// The card is due immediately.
func NewReviewState(createdAt time.Time) ReviewState {
	return ReviewState{
		EasinessFactor: DefaultEasinessFactor,
		NextReviewDate: createdAt,
	}
}

// Validate reports whether s satisfies the scheduling invariants.
func (s ReviewState) Validate() error {
	switch {
	case s.EasinessFactor < MinEasinessFactor:
		return fmt.Errorf("%w: easiness factor %.2f below %.1f", ErrInvalidState, s.EasinessFactor, MinEasinessFactor)
	case s.Interval < 0:
		return fmt.Errorf("%w: negative interval %d", ErrInvalidState, s.Interval)
	case s.Repetitions < 0:
		return fmt.Errorf("%w: negative repetitions %d", ErrInvalidState, s.Repetitions)
	}
	return nil
}

// IsDue reports whether the card should be reviewed at asOf.
func (s ReviewState) IsDue(asOf time.Time) bool {
	return !s.NextReviewDate.After(asOf)
}
