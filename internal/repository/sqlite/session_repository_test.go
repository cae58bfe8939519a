package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"
	"github.com/vytor/studyhall/internal/models"
	"github.com/vytor/studyhall/internal/repository"
	"github.com/vytor/studyhall/internal/repository/sqlite"
	"github.com/vytor/studyhall/internal/testutil"
)

type SessionRepositorySuite struct {
	suite.Suite
	db            *sqlx.DB
	sessions      repository.SessionRepository
	notifications repository.NotificationRepository
	creator       int64
}

func (s *SessionRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.sessions = sqlite.NewSessionRepository(s.db)
	s.notifications = sqlite.NewNotificationRepository(s.db)
	s.creator = testutil.InsertUser(s.T(), s.db, "Host", "host@example.com")
}

func (s *SessionRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *SessionRepositorySuite) newSession(capacity int) *models.StudySession {
	session, err := s.sessions.Create(context.Background(), s.creator, models.NewSession{
		Title:       "Exam prep",
		Type:        models.SessionRemote,
		MeetingLink: "https://meet.example.com/abc",
		StartsAt:    time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC),
		Capacity:    capacity,
	})
	s.Require().NoError(err)
	return session
}

func (s *SessionRepositorySuite) TestRSVP_CapacityAndDuplicates() {
	ctx := context.Background()
	session := s.newSession(1)
	alice := testutil.InsertUser(s.T(), s.db, "Alice", "alice@example.com")
	bob := testutil.InsertUser(s.T(), s.db, "Bob", "bob@example.com")

	rsvp, err := s.sessions.AddRSVP(ctx, session.ID, alice)
	s.Require().NoError(err)
	s.Equal(alice, rsvp.UserID)

	_, err = s.sessions.AddRSVP(ctx, session.ID, alice)
	s.ErrorIs(err, repository.ErrDuplicate)

	_, err = s.sessions.AddRSVP(ctx, session.ID, bob)
	s.ErrorIs(err, repository.ErrCapacityReached)

	reloaded, err := s.sessions.Get(ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(1, reloaded.RSVPCount)
	s.True(reloaded.IsFull())

	participants, err := s.sessions.Participants(ctx, session.ID)
	s.Require().NoError(err)
	s.Require().Len(participants, 1)
	s.Equal("Alice", participants[0].Name)

	removed, err := s.sessions.RemoveRSVP(ctx, session.ID, alice)
	s.Require().NoError(err)
	s.True(removed)

	_, err = s.sessions.AddRSVP(ctx, session.ID, bob)
	s.NoError(err)
}

func (s *SessionRepositorySuite) TestRSVP_UnlimitedCapacity() {
	ctx := context.Background()
	session := s.newSession(0)
	for i, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		id := testutil.InsertUser(s.T(), s.db, email, email)
		_, err := s.sessions.AddRSVP(ctx, session.ID, id)
		s.Require().NoError(err, "rsvp %d", i)
	}
}

func (s *SessionRepositorySuite) TestList_Filters() {
	ctx := context.Background()
	s.newSession(0)
	_, err := s.sessions.Create(ctx, s.creator, models.NewSession{
		Title:    "Library",
		Type:     models.SessionInPerson,
		Location: "Room 4",
		StartsAt: time.Date(2026, 4, 1, 18, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)

	all, err := s.sessions.List(ctx, models.SessionFilter{})
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal("Library", all[0].Title, "ordered by start time")

	from := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
	upcoming, err := s.sessions.List(ctx, models.SessionFilter{From: &from})
	s.Require().NoError(err)
	s.Require().Len(upcoming, 1)
	s.Equal("Exam prep", upcoming[0].Title)

	inPerson, err := s.sessions.List(ctx, models.SessionFilter{Type: models.SessionInPerson})
	s.Require().NoError(err)
	s.Len(inPerson, 1)
}

func (s *SessionRepositorySuite) TestNotifications() {
	ctx := context.Background()
	since := time.Now().Add(-time.Minute)

	id, err := s.notifications.Create(ctx, models.Notification{UserID: s.creator, Type: models.NotificationRSVP, Title: "New RSVP", Message: "Alice is coming"})
	s.Require().NoError(err)
	_, err = s.notifications.Create(ctx, models.Notification{UserID: s.creator, Type: models.NotificationReviewDue, Title: "Cards due", Message: "3 cards"})
	s.Require().NoError(err)

	unread, err := s.notifications.List(ctx, models.NotificationFilter{UserID: s.creator, UnreadOnly: true})
	s.Require().NoError(err)
	s.Len(unread, 2)

	exists, err := s.notifications.ExistsSince(ctx, s.creator, models.NotificationReviewDue, since)
	s.Require().NoError(err)
	s.True(exists)
	exists, err = s.notifications.ExistsSince(ctx, s.creator, models.NotificationReviewDue, time.Now().Add(time.Hour))
	s.Require().NoError(err)
	s.False(exists)

	ok, err := s.notifications.MarkRead(ctx, id, s.creator+1)
	s.Require().NoError(err)
	s.False(ok, "other users cannot mark it")

	ok, err = s.notifications.MarkRead(ctx, id, s.creator)
	s.Require().NoError(err)
	s.True(ok)

	n, err := s.notifications.MarkAllRead(ctx, s.creator)
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	unread, err = s.notifications.List(ctx, models.NotificationFilter{UserID: s.creator, UnreadOnly: true})
	s.Require().NoError(err)
	s.Empty(unread)
}

func TestSessionRepositorySuite(t *testing.T) {
	suite.Run(t, new(SessionRepositorySuite))
}
