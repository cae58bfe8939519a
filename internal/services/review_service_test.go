package services_test

import (
	"bytes"
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyhall/internal/errors"
	"github.com/vytor/studyhall/internal/logger"
	"github.com/vytor/studyhall/internal/models"
	"github.com/vytor/studyhall/internal/repository"
	"github.com/vytor/studyhall/internal/services"
	"github.com/vytor/studyhall/internal/srs"
	"github.com/vytor/studyhall/internal/testutil/mocks"
)

var reviewNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

type reviewFixture struct {
	progress *mocks.MockProgressRepository
	cards    *mocks.MockFlashcardRepository
	decks    *mocks.MockDeckRepository
	svc      services.ReviewService
}

func newReviewFixture() *reviewFixture {
	f := &reviewFixture{
		progress: new(mocks.MockProgressRepository),
		cards:    new(mocks.MockFlashcardRepository),
		decks:    new(mocks.MockDeckRepository),
	}
	scheduler := srs.NewScheduler(srs.WithClock(func() time.Time { return reviewNow }))
	f.svc = services.NewReviewService(f.progress, f.cards, f.decks, scheduler)
	return f
}

func (f *reviewFixture) visibleCard(ctx context.Context, cardID, ownerID int64) {
	f.cards.On("Get", ctx, cardID).Return(&models.Flashcard{ID: cardID, DeckID: 3}, nil)
	f.decks.On("Get", ctx, int64(3)).Return(&models.Deck{ID: 3, OwnerID: ownerID}, nil)
}

func TestSubmitReview_FirstReviewOfNewCard(t *testing.T) {
	ctx := context.Background()
	f := newReviewFixture()
	f.visibleCard(ctx, 10, 1)

	initial := &models.CardProgress{ID: 50, FlashcardID: 10, UserID: 1, EasinessFactor: 2.5, NextReviewDate: reviewNow}
	f.progress.On("GetOrCreate", ctx, int64(10), int64(1), reviewNow).Return(initial, nil)
	f.progress.On("Save", ctx, mock.MatchedBy(func(p models.CardProgress) bool {
		return p.ID == 50 && p.IntervalDays == 1 && p.Repetitions == 1 && p.LastReviewed != nil
	}), (*time.Time)(nil)).Return(nil)
	f.progress.On("InsertReviewHistory", ctx, models.ReviewHistory{
		ProgressID: 50, Quality: 5, TimeSeconds: 3.5, RunID: "run-1", ReviewedAt: reviewNow,
	}).Return(nil)

	res, err := f.svc.SubmitReview(ctx, services.ReviewRequest{UserID: 1, FlashcardID: 10, Quality: 5, TimeSeconds: 3.5, RunID: "run-1"})
	require.NoError(t, err)

	assert.InDelta(t, 2.6, res.Progress.EasinessFactor, 1e-9)
	assert.Equal(t, 1, res.Progress.IntervalDays)
	assert.Equal(t, reviewNow.AddDate(0, 0, 1), res.Progress.NextReviewDate)
	assert.Equal(t, 0, res.Previous.Repetitions)
	f.progress.AssertExpectations(t)
}

func TestSubmitReview_InvalidQualityWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newReviewFixture()

	for _, q := range []int{-1, 6, 42} {
		_, err := f.svc.SubmitReview(ctx, services.ReviewRequest{UserID: 1, FlashcardID: 10, Quality: q})
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidQuality), "quality %d", q)
		assert.ErrorIs(t, err, srs.ErrInvalidQuality)
	}

	f.cards.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	f.progress.AssertNotCalled(t, "GetOrCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.progress.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitReview_ConflictMapsToConflict(t *testing.T) {
	ctx := context.Background()
	f := newReviewFixture()
	f.visibleCard(ctx, 10, 1)

	last := reviewNow.Add(-24 * time.Hour)
	current := &models.CardProgress{ID: 50, EasinessFactor: 2.6, IntervalDays: 1, Repetitions: 1, NextReviewDate: reviewNow, LastReviewed: &last}
	f.progress.On("GetOrCreate", ctx, int64(10), int64(1), reviewNow).Return(current, nil)
	f.progress.On("Save", ctx, mock.Anything, &last).Return(repository.ErrConflict)

	_, err := f.svc.SubmitReview(ctx, services.ReviewRequest{UserID: 1, FlashcardID: 10, Quality: 4})

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeConflict))
	f.progress.AssertNotCalled(t, "InsertReviewHistory", mock.Anything, mock.Anything)
}

func TestSubmitReview_RejectsCardNotYetDue(t *testing.T) {
	ctx := context.Background()
	f := newReviewFixture()
	f.visibleCard(ctx, 10, 1)

	last := reviewNow.Add(-time.Hour)
	next := reviewNow.AddDate(0, 0, 6)
	current := &models.CardProgress{ID: 50, EasinessFactor: 2.5, IntervalDays: 6, Repetitions: 2, NextReviewDate: next, LastReviewed: &last}
	f.progress.On("GetOrCreate", ctx, int64(10), int64(1), reviewNow).Return(current, nil)

	_, err := f.svc.SubmitReview(ctx, services.ReviewRequest{UserID: 1, FlashcardID: 10, Quality: 5})

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotDue))
	f.progress.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	f.progress.AssertNotCalled(t, "InsertReviewHistory", mock.Anything, mock.Anything)
}

func TestSubmitReview_StoreFailureIsPersistenceError(t *testing.T) {
	var buf bytes.Buffer
	ctx := logger.NewContext(context.Background(), logger.New(logger.WithOutput(&buf), logger.WithColors(false)))
	f := newReviewFixture()
	f.visibleCard(ctx, 10, 1)
	f.progress.On("GetOrCreate", ctx, int64(10), int64(1), reviewNow).Return(nil, stderrors.New("disk I/O error"))

	_, err := f.svc.SubmitReview(ctx, services.ReviewRequest{UserID: 1, FlashcardID: 10, Quality: 3})

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodePersistence))
	assert.Contains(t, buf.String(), "failed to record review error=disk I/O error")
}

func TestSubmitReview_PrivateDeckOfOtherUser(t *testing.T) {
	ctx := context.Background()
	f := newReviewFixture()
	f.visibleCard(ctx, 10, 99)

	_, err := f.svc.SubmitReview(ctx, services.ReviewRequest{UserID: 1, FlashcardID: 10, Quality: 3})

	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
	f.progress.AssertNotCalled(t, "GetOrCreate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmitReview_UnknownCard(t *testing.T) {
	ctx := context.Background()
	f := newReviewFixture()
	f.cards.On("Get", ctx, int64(404)).Return(nil, nil)

	_, err := f.svc.SubmitReview(ctx, services.ReviewRequest{UserID: 1, FlashcardID: 404, Quality: 3})

	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func TestDueCards_UsesSchedulerClock(t *testing.T) {
	ctx := context.Background()
	f := newReviewFixture()
	due := []models.DueCard{{Flashcard: models.Flashcard{ID: 1}}}
	f.progress.On("DueCards", ctx, models.DueFilter{UserID: 1, AsOf: reviewNow, DeckID: 2, Limit: 5}).Return(due, nil)

	cards, err := f.svc.DueCards(ctx, 1, 2, 5)

	require.NoError(t, err)
	assert.Equal(t, due, cards)
}

func TestNewRunID_Unique(t *testing.T) {
	f := newReviewFixture()
	a, b := f.svc.NewRunID(), f.svc.NewRunID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
