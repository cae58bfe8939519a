package reminder_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyhall/internal/models"
	"github.com/vytor/studyhall/internal/reminder"
	"github.com/vytor/studyhall/internal/testutil/mocks"
	"github.com/vytor/studyhall/internal/worker"
)

func TestSweep_QueuesOneJobPerUser(t *testing.T) {
	ctx := context.Background()
	progress := new(mocks.MockProgressRepository)
	queue := new(mocks.MockJobQueue)

	progress.On("DueCountsByUser", ctx, mock.AnythingOfType("time.Time")).Return([]models.DueCount{
		{UserID: 1, Due: 3},
		{UserID: 2, Due: 1},
		{UserID: 3, Due: 7},
	}, nil)
	queue.On("EnqueueReminder", int64(1), 3).Return(nil)
	queue.On("EnqueueReminder", int64(2), 1).Return(worker.ErrQueueFull)
	queue.On("EnqueueReminder", int64(3), 7).Return(nil)

	queued, err := reminder.New(progress, queue, time.Hour).Sweep(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, queued)
	queue.AssertExpectations(t)
}

func TestSweep_StoreError(t *testing.T) {
	ctx := context.Background()
	progress := new(mocks.MockProgressRepository)
	queue := new(mocks.MockJobQueue)
	progress.On("DueCountsByUser", ctx, mock.Anything).Return(nil, errors.New("locked"))

	_, err := reminder.New(progress, queue, time.Hour).Sweep(ctx)

	assert.Error(t, err)
	queue.AssertNotCalled(t, "EnqueueReminder", mock.Anything, mock.Anything)
}

func TestStart_RunsImmediately(t *testing.T) {
	ctx := context.Background()
	progress := new(mocks.MockProgressRepository)
	queue := new(mocks.MockJobQueue)
	swept := make(chan struct{}, 1)
	progress.On("DueCountsByUser", ctx, mock.Anything).Return([]models.DueCount{}, nil).Run(func(mock.Arguments) {
		select {
		case swept <- struct{}{}:
		default:
		}
	})

	s := reminder.New(progress, queue, time.Hour)
	require.NoError(t, s.Start(ctx))
	defer s.Stop()

	select {
	case <-swept:
	case <-time.After(5 * time.Second):
		t.Fatal("sweep did not run")
	}
}
