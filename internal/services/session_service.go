package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/vytor/studyhall/internal/errors"
	"github.com/vytor/studyhall/internal/logger"
	"github.com/vytor/studyhall/internal/models"
	"github.com/vytor/studyhall/internal/repository"
)

// SessionService handles study sessions and RSVPs
type SessionService interface {
	CreateSession(ctx context.Context, userID int64, input models.NewSession) (*models.StudySession, error)
	ListSessions(ctx context.Context, upcomingOnly bool) ([]models.StudySession, error)
	GetSession(ctx context.Context, id int64) (*models.StudySession, error)
	Participants(ctx context.Context, id int64) ([]models.Participant, error)
	DeleteSession(ctx context.Context, userID, id int64) error
	RSVP(ctx context.Context, userID, sessionID int64) (*models.RSVP, error)
	CancelRSVP(ctx context.Context, userID, sessionID int64) error
}

type sessionService struct {
	sessionRepo   repository.SessionRepository
	userRepo      repository.UserRepository
	notifications NotificationService
	now           func() time.Time
}

// NewSessionService creates a new SessionService
func NewSessionService(sessionRepo repository.SessionRepository, userRepo repository.UserRepository, notifications NotificationService) SessionService {
	return &sessionService{
		sessionRepo:   sessionRepo,
		userRepo:      userRepo,
		notifications: notifications,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *sessionService) CreateSession(ctx context.Context, userID int64, input models.NewSession) (*models.StudySession, error) {
	log := logger.FromContext(ctx).WithField("user_id", userID)
	input.Title = strings.TrimSpace(input.Title)
	log.Debug("creating session: title=%s, type=%s", input.Title, input.Type)

	if err := validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	session, err := s.sessionRepo.Create(ctx, userID, input)
	if err != nil {
		log.WithError(err).Error("failed to create session")
		return nil, storeError(err, "session", input.Title)
	}
	log.Info("session created: id=%d", session.ID)
	return session, nil
}

func (s *sessionService) ListSessions(ctx context.Context, upcomingOnly bool) ([]models.StudySession, error) {
	log := logger.FromContext(ctx)

	var filter models.SessionFilter
	if upcomingOnly {
		from := s.now()
		filter.From = &from
	}
	sessions, err := s.sessionRepo.List(ctx, filter)
	if err != nil {
		log.WithError(err).Error("failed to list sessions")
		return nil, storeError(err, "session", "")
	}
	return sessions, nil
}

func (s *sessionService) GetSession(ctx context.Context, id int64) (*models.StudySession, error) {
	log := logger.FromContext(ctx)

	session, err := s.sessionRepo.Get(ctx, id)
	if err != nil {
		log.WithError(err).Error("failed to get session")
		return nil, storeError(err, "session", id)
	}
	if session == nil {
		return nil, errors.NewNotFoundError("session", id)
	}
	return session, nil
}

func (s *sessionService) Participants(ctx context.Context, id int64) ([]models.Participant, error) {
	if _, err := s.GetSession(ctx, id); err != nil {
		return nil, err
	}
	participants, err := s.sessionRepo.Participants(ctx, id)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list participants: %v", err)
		return nil, storeError(err, "session", id)
	}
	return participants, nil
}

func (s *sessionService) DeleteSession(ctx context.Context, userID, id int64) error {
	log := logger.FromContext(ctx)

	session, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if session.CreatorID != userID {
		return errors.NewForbiddenError(fmt.Sprintf("delete session %d", id))
	}
	if err := s.sessionRepo.Delete(ctx, id); err != nil {
		log.WithError(err).Error("failed to delete session")
		return storeError(err, "session", id)
	}
	log.Info("session deleted: id=%d", id)
	return nil
}

// RSVP reserves a seat for userID and notifies the session creator.
func (s *sessionService) RSVP(ctx context.Context, userID, sessionID int64) (*models.RSVP, error) {
	log := logger.FromContext(ctx).WithField("user_id", userID)
	log.Debug("rsvp: session_id=%d", sessionID)

	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	attendee, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return nil, storeError(err, "user", userID)
	}
	if attendee == nil {
		return nil, errors.NewNotFoundError("user", userID)
	}

	rsvp, err := s.sessionRepo.AddRSVP(ctx, sessionID, userID)
	switch {
	case stderrors.Is(err, repository.ErrCapacityReached):
		return nil, errors.NewSessionFullError(sessionID, session.Capacity)
	case stderrors.Is(err, repository.ErrDuplicate):
		return nil, errors.NewConflictError(fmt.Sprintf("already attending session %d", sessionID), err)
	case err != nil:
		log.WithError(err).Error("failed to add rsvp")
		return nil, storeError(err, "session", sessionID)
	}

	if session.CreatorID != userID {
		if err := s.notifications.NotifyRSVP(ctx, *session, *attendee); err != nil {
			log.Warn("failed to notify session creator: %v", err)
		}
	}
	log.Info("rsvp recorded: session_id=%d", sessionID)
	return rsvp, nil
}

func (s *sessionService) CancelRSVP(ctx context.Context, userID, sessionID int64) error {
	log := logger.FromContext(ctx).WithField("user_id", userID)

	removed, err := s.sessionRepo.RemoveRSVP(ctx, sessionID, userID)
	if err != nil {
		log.WithError(err).Error("failed to remove rsvp")
		return storeError(err, "session", sessionID)
	}
	if !removed {
		return errors.NewNotFoundError("rsvp for session", sessionID)
	}
	log.Info("rsvp cancelled: session_id=%d", sessionID)
	return nil
}
