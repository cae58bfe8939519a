package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/studyhall/internal/models"
	"github.com/vytor/studyhall/internal/repository"
)

// MockProgressRepository is a mock implementation of repository.ProgressRepository.
// InTx runs fn against the mock itself.
type MockProgressRepository struct {
	mock.Mock
}

func (m *MockProgressRepository) InTx(ctx context.Context, fn func(repository.ProgressRepository) error) error {
	return fn(m)
}

func (m *MockProgressRepository) GetOrCreate(ctx context.Context, flashcardID, userID int64, now time.Time) (*models.CardProgress, error) {
	args := m.Called(ctx, flashcardID, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CardProgress), args.Error(1)
}

func (m *MockProgressRepository) Save(ctx context.Context, progress models.CardProgress, expectedLastReviewed *time.Time) error {
	args := m.Called(ctx, progress, expectedLastReviewed)
	return args.Error(0)
}

func (m *MockProgressRepository) DueCards(ctx context.Context, filter models.DueFilter) ([]models.DueCard, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DueCard), args.Error(1)
}

func (m *MockProgressRepository) DueCountsByUser(ctx context.Context, asOf time.Time) ([]models.DueCount, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DueCount), args.Error(1)
}

func (m *MockProgressRepository) InsertReviewHistory(ctx context.Context, entry models.ReviewHistory) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockProgressRepository) Stats(ctx context.Context, userID int64, asOf time.Time) (*models.ReviewStats, error) {
	args := m.Called(ctx, userID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReviewStats), args.Error(1)
}
