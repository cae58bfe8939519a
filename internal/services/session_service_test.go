package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyhall/internal/errors"
	"github.com/vytor/studyhall/internal/models"
	"github.com/vytor/studyhall/internal/repository"
	"github.com/vytor/studyhall/internal/services"
	"github.com/vytor/studyhall/internal/testutil/mocks"
)

type sessionFixture struct {
	sessions      *mocks.MockSessionRepository
	users         *mocks.MockUserRepository
	notifications *mocks.MockNotificationRepository
	svc           services.SessionService
}

func newSessionFixture() *sessionFixture {
	f := &sessionFixture{
		sessions:      new(mocks.MockSessionRepository),
		users:         new(mocks.MockUserRepository),
		notifications: new(mocks.MockNotificationRepository),
	}
	notifier := services.NewNotificationService(f.notifications, time.Hour)
	f.svc = services.NewSessionService(f.sessions, f.users, notifier)
	return f
}

func TestCreateSession_TypeSpecificFields(t *testing.T) {
	f := newSessionFixture()
	starts := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input models.NewSession
	}{
		{"in-person without location", models.NewSession{Title: "Lab", Type: models.SessionInPerson, StartsAt: starts}},
		{"remote without link", models.NewSession{Title: "Call", Type: models.SessionRemote, StartsAt: starts}},
		{"remote with bad link", models.NewSession{Title: "Call", Type: models.SessionRemote, MeetingLink: "not a url", StartsAt: starts}},
		{"unknown type", models.NewSession{Title: "X", Type: "hybrid", StartsAt: starts}},
		{"negative capacity", models.NewSession{Title: "X", Type: models.SessionInPerson, Location: "Room", StartsAt: starts, Capacity: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateSession(context.Background(), 1, tt.input)
			assert.True(t, errors.HasCode(err, errors.ErrCodeValidation), "got %v", err)
		})
	}
	f.sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestRSVP_NotifiesCreator(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()
	session := &models.StudySession{ID: 3, Title: "Exam prep", CreatorID: 1, Capacity: 5}
	f.sessions.On("Get", ctx, int64(3)).Return(session, nil)
	f.users.On("Get", ctx, int64(2)).Return(&models.User{ID: 2, Name: "Alice"}, nil)
	f.sessions.On("AddRSVP", ctx, int64(3), int64(2)).Return(&models.RSVP{ID: 1, SessionID: 3, UserID: 2}, nil)
	f.notifications.On("Create", ctx, mock.MatchedBy(func(n models.Notification) bool {
		return n.UserID == 1 && n.Type == models.NotificationRSVP && n.Message == `Alice is attending "Exam prep"`
	})).Return(int64(1), nil)

	rsvp, err := f.svc.RSVP(ctx, 2, 3)

	require.NoError(t, err)
	assert.Equal(t, int64(2), rsvp.UserID)
	f.notifications.AssertExpectations(t)
}

func TestRSVP_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"full", repository.ErrCapacityReached, errors.ErrCodeSessionFull},
		{"duplicate", repository.ErrDuplicate, errors.ErrCodeConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newSessionFixture()
			f.sessions.On("Get", ctx, int64(3)).Return(&models.StudySession{ID: 3, CreatorID: 1, Capacity: 1}, nil)
			f.users.On("Get", ctx, int64(2)).Return(&models.User{ID: 2, Name: "Alice"}, nil)
			f.sessions.On("AddRSVP", ctx, int64(3), int64(2)).Return(nil, tt.err)

			_, err := f.svc.RSVP(ctx, 2, 3)

			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
			f.notifications.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestDeleteSession_OnlyCreator(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()
	f.sessions.On("Get", ctx, int64(3)).Return(&models.StudySession{ID: 3, CreatorID: 1}, nil)

	err := f.svc.DeleteSession(ctx, 2, 3)

	assert.True(t, errors.HasCode(err, errors.ErrCodeForbidden))
}

func TestCancelRSVP_NotAttending(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture()
	f.sessions.On("RemoveRSVP", ctx, int64(3), int64(2)).Return(false, nil)

	err := f.svc.CancelRSVP(ctx, 2, 3)

	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func TestNotifyDue_RespectsCooldown(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockNotificationRepository)
	svc := services.NewNotificationService(repo, time.Hour)

	repo.On("ExistsSince", ctx, int64(1), models.NotificationReviewDue, mock.AnythingOfType("time.Time")).Return(true, nil).Once()
	sent, err := svc.NotifyDue(ctx, 1, 4)
	require.NoError(t, err)
	assert.False(t, sent)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	repo.On("ExistsSince", ctx, int64(1), models.NotificationReviewDue, mock.AnythingOfType("time.Time")).Return(false, nil).Once()
	repo.On("Create", ctx, mock.MatchedBy(func(n models.Notification) bool {
		return n.Type == models.NotificationReviewDue && n.Message == "You have 4 cards waiting for review"
	})).Return(int64(9), nil)
	sent, err = svc.NotifyDue(ctx, 1, 4)
	require.NoError(t, err)
	assert.True(t, sent)

	sent, err = svc.NotifyDue(ctx, 1, 0)
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestMarkRead_OtherUsersNotification(t *testing.T) {
	ctx := context.Background()
	repo := new(mocks.MockNotificationRepository)
	svc := services.NewNotificationService(repo, 0)
	repo.On("MarkRead", ctx, int64(5), int64(2)).Return(false, nil)

	err := svc.MarkRead(ctx, 2, 5)

	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}
