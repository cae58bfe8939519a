package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/vytor/studyhall/internal/errors"
	"github.com/vytor/studyhall/internal/logger"
	"github.com/vytor/studyhall/internal/models"
	"github.com/vytor/studyhall/internal/repository"
	"github.com/vytor/studyhall/internal/srs"
)

// ReviewRequest is one quality rating submitted for a card.
type ReviewRequest struct {
	UserID      int64
	FlashcardID int64
	Quality     int
	TimeSeconds float64
	RunID       string
}

// ReviewResult carries the state before and after an accepted review.
type ReviewResult struct {
	Previous srs.ReviewState
	Progress models.CardProgress
}

// ReviewService runs the review flow: due-card selection, quality
// submission and atomic write-back of the new schedule.
type ReviewService interface {
	DueCards(ctx context.Context, userID, deckID int64, limit int) ([]models.DueCard, error)
	SubmitReview(ctx context.Context, req ReviewRequest) (*ReviewResult, error)
	Stats(ctx context.Context, userID int64) (*models.ReviewStats, error)
	NewRunID() string
}

type reviewService struct {
	progressRepo repository.ProgressRepository
	cardRepo     repository.FlashcardRepository
	deckRepo     repository.DeckRepository
	scheduler    *srs.Scheduler
}

// NewReviewService creates a new ReviewService
func NewReviewService(
	progressRepo repository.ProgressRepository,
	cardRepo repository.FlashcardRepository,
	deckRepo repository.DeckRepository,
	scheduler *srs.Scheduler,
) ReviewService {
	return &reviewService{
		progressRepo: progressRepo,
		cardRepo:     cardRepo,
		deckRepo:     deckRepo,
		scheduler:    scheduler,
	}
}

func (s *reviewService) NewRunID() string {
	return uuid.NewString()
}

func (s *reviewService) DueCards(ctx context.Context, userID, deckID int64, limit int) ([]models.DueCard, error) {
	log := logger.FromContext(ctx).WithField("user_id", userID)
	log.Debug("listing due cards: deck_id=%d, limit=%d", deckID, limit)

	cards, err := s.progressRepo.DueCards(ctx, models.DueFilter{
		UserID: userID,
		AsOf:   s.scheduler.Now(),
		DeckID: deckID,
		Limit:  limit,
	})
	if err != nil {
		log.WithError(err).Error("failed to list due cards")
		return nil, storeError(err, "flashcard", "")
	}
	return cards, nil
}

// SubmitReview validates the rating, then reads, reschedules and writes the
// card's progress in one transaction. Invalid ratings never reach the store.
func (s *reviewService) SubmitReview(ctx context.Context, req ReviewRequest) (*ReviewResult, error) {
	log := logger.FromContext(ctx).WithFields(map[string]any{
		"user_id": req.UserID,
		"run_id":  req.RunID,
	})
	log.Debug("reviewing flashcard: flashcard_id=%d, quality=%d", req.FlashcardID, req.Quality)

	q := srs.Quality(req.Quality)
	if !q.IsValid() {
		return nil, errors.NewInvalidQualityError(fmt.Errorf("%w: got %d", srs.ErrInvalidQuality, req.Quality))
	}
	if req.TimeSeconds < 0 {
		req.TimeSeconds = 0
	}

	card, err := s.cardRepo.Get(ctx, req.FlashcardID)
	if err != nil {
		log.WithError(err).Error("failed to get flashcard")
		return nil, storeError(err, "flashcard", req.FlashcardID)
	}
	if card == nil {
		return nil, errors.NewNotFoundError("flashcard", req.FlashcardID)
	}
	deck, err := s.deckRepo.Get(ctx, card.DeckID)
	if err != nil {
		log.WithError(err).Error("failed to get deck")
		return nil, storeError(err, "deck", card.DeckID)
	}
	if deck == nil || !canSee(deck, req.UserID) {
		return nil, errors.NewNotFoundError("flashcard", req.FlashcardID)
	}

	now := s.scheduler.Now()
	var result ReviewResult
	err = s.progressRepo.InTx(ctx, func(tx repository.ProgressRepository) error {
		progress, err := tx.GetOrCreate(ctx, req.FlashcardID, req.UserID, now)
		if err != nil {
			return err
		}

		previous := progress.State()
		if !previous.IsDue(now) {
			log.Debug("rejecting early review, next review at %s", previous.NextReviewDate)
			return errors.NewNotDueError(req.FlashcardID, previous.NextReviewDate)
		}
		next, err := s.scheduler.ReviewAt(previous, q, now)
		if err != nil {
			return err
		}
		updated := progress.WithState(next)

		if err := tx.Save(ctx, updated, previous.LastReviewed); err != nil {
			return err
		}
		if err := tx.InsertReviewHistory(ctx, models.ReviewHistory{
			ProgressID:  progress.ID,
			Quality:     req.Quality,
			TimeSeconds: req.TimeSeconds,
			RunID:       req.RunID,
			ReviewedAt:  now,
		}); err != nil {
			return err
		}

		result = ReviewResult{Previous: previous, Progress: updated}
		return nil
	})
	if err != nil {
		log.WithError(err).Error("failed to record review")
		return nil, storeError(err, "flashcard progress", req.FlashcardID)
	}

	log.Debug("applied review, new interval=%d days, ef=%.2f, reps=%d",
		result.Progress.IntervalDays, result.Progress.EasinessFactor, result.Progress.Repetitions)
	return &result, nil
}

func (s *reviewService) Stats(ctx context.Context, userID int64) (*models.ReviewStats, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting review stats: user_id=%d", userID)

	stats, err := s.progressRepo.Stats(ctx, userID, s.scheduler.Now())
	if err != nil {
		log.WithError(err).Error("failed to get review stats")
		return nil, storeError(err, "stats", userID)
	}
	return stats, nil
}
