package models

import (
	"time"

	"github.com/vytor/studyhall/internal/srs"
)

// CardProgress is the persisted review state of one flashcard for one user.
type CardProgress struct {
	ID             int64      `db:"id" json:"id"`
	FlashcardID    int64      `db:"flashcard_id" json:"flashcard_id"`
	UserID         int64      `db:"user_id" json:"user_id"`
	EasinessFactor float64    `db:"easiness_factor" json:"easiness_factor"`
	IntervalDays   int        `db:"interval_days" json:"interval_days"`
	Repetitions    int        `db:"repetitions" json:"repetitions"`
	NextReviewDate time.Time  `db:"next_review_date" json:"next_review_date"`
	LastReviewed   *time.Time `db:"last_reviewed" json:"last_reviewed"`
}

func (p CardProgress) State() srs.ReviewState {
	return srs.ReviewState{
		EasinessFactor: p.EasinessFactor,
		Interval:       p.IntervalDays,
		Repetitions:    p.Repetitions,
		NextReviewDate: p.NextReviewDate,
		LastReviewed:   p.LastReviewed,
	}
}

// WithState returns a copy of p carrying s.
func (p CardProgress) WithState(s srs.ReviewState) CardProgress {
	p.EasinessFactor = s.EasinessFactor
	p.IntervalDays = s.Interval
	p.Repetitions = s.Repetitions
	p.NextReviewDate = s.NextReviewDate
	p.LastReviewed = s.LastReviewed
	return p
}

type ReviewHistory struct {
	ID          int64     `db:"id" json:"id"`
	ProgressID  int64     `db:"progress_id" json:"progress_id"`
	Quality     int       `db:"quality" json:"quality"`
	TimeSeconds float64   `db:"time_seconds" json:"time_seconds"`
	RunID       string    `db:"run_id" json:"run_id"`
	ReviewedAt  time.Time `db:"reviewed_at" json:"reviewed_at"`
}

// DueCard is a flashcard ready for review together with the caller's
// progress on it. Progress columns are nil for cards the user has never seen.
type DueCard struct {
	Flashcard
	DeckTitle      string     `db:"deck_title" json:"deck_title"`
	ProgressID     *int64     `db:"progress_id" json:"progress_id"`
	EasinessFactor *float64   `db:"easiness_factor" json:"easiness_factor"`
	IntervalDays   *int       `db:"interval_days" json:"interval_days"`
	Repetitions    *int       `db:"repetitions" json:"repetitions"`
	NextReviewDate *time.Time `db:"next_review_date" json:"next_review_date"`
}

// IsNew reports whether the user has never reviewed the card.
func (c DueCard) IsNew() bool {
	return c.ProgressID == nil
}

type DueFilter struct {
	UserID int64
	AsOf   time.Time
	DeckID int64
	Limit  int
}

// DueCount is the number of due cards for one user.
type DueCount struct {
	UserID int64 `db:"user_id"`
	Due    int   `db:"due"`
}
