package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/vytor/studyhall/internal/errors"
	"github.com/vytor/studyhall/internal/logger"
	"github.com/vytor/studyhall/internal/models"
	"github.com/vytor/studyhall/internal/repository"
)

// Thread is a root message with its replies and the reaction counts of all
// of them, keyed by message id.
type Thread struct {
	Root      models.Message
	Replies   []models.Message
	Reactions map[int64][]models.ReactionCount
}

// MessageService handles the message board of each study session
type MessageService interface {
	Post(ctx context.Context, userID, sessionID int64, input models.NewMessage) (*models.Message, error)
	// Reply answers a message. Replies to a reply join the root's thread.
	Reply(ctx context.Context, userID, messageID int64, input models.NewMessage) (*models.Message, error)
	ListMessages(ctx context.Context, sessionID int64) ([]models.Message, map[int64][]models.ReactionCount, error)
	GetThread(ctx context.Context, messageID int64) (*Thread, error)
	AddReaction(ctx context.Context, userID, messageID int64, input models.NewReaction) error
	RemoveReaction(ctx context.Context, userID, messageID int64, input models.NewReaction) error
	// ToggleReaction adds the reaction, or removes it when already present.
	// It reports whether the reaction is now present.
	ToggleReaction(ctx context.Context, userID, messageID int64, input models.NewReaction) (bool, error)
}

type messageService struct {
	messageRepo   repository.MessageRepository
	sessionRepo   repository.SessionRepository
	notifications NotificationService
}

// NewMessageService creates a new MessageService
func NewMessageService(messageRepo repository.MessageRepository, sessionRepo repository.SessionRepository, notifications NotificationService) MessageService {
	return &messageService{
		messageRepo:   messageRepo,
		sessionRepo:   sessionRepo,
		notifications: notifications,
	}
}

func (s *messageService) Post(ctx context.Context, userID, sessionID int64, input models.NewMessage) (*models.Message, error) {
	log := logger.FromContext(ctx).WithField("user_id", userID)
	input.Body = strings.TrimSpace(input.Body)
	if err := validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	session, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		log.WithError(err).Error("failed to get session")
		return nil, storeError(err, "session", sessionID)
	}
	if session == nil {
		return nil, errors.NewNotFoundError("session", sessionID)
	}

	msg, err := s.messageRepo.Create(ctx, sessionID, userID, nil, input.Body)
	if err != nil {
		log.WithError(err).Error("failed to post message")
		return nil, storeError(err, "message", "")
	}
	log.Info("message posted: id=%d, session_id=%d", msg.ID, sessionID)
	return msg, nil
}

func (s *messageService) message(ctx context.Context, id int64) (*models.Message, error) {
	msg, err := s.messageRepo.Get(ctx, id)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to get message")
		return nil, storeError(err, "message", id)
	}
	if msg == nil {
		return nil, errors.NewNotFoundError("message", id)
	}
	return msg, nil
}

func (s *messageService) Reply(ctx context.Context, userID, messageID int64, input models.NewMessage) (*models.Message, error) {
	log := logger.FromContext(ctx).WithField("user_id", userID)
	input.Body = strings.TrimSpace(input.Body)
	if err := validate.Struct(input); err != nil {
		return nil, validationError(err)
	}

	root, err := s.message(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if root.ParentID != nil {
		if root, err = s.message(ctx, *root.ParentID); err != nil {
			return nil, err
		}
	}

	reply, err := s.messageRepo.Create(ctx, root.SessionID, userID, &root.ID, input.Body)
	if err != nil {
		log.WithError(err).Error("failed to post reply")
		return nil, storeError(err, "message", "")
	}
	log.Info("reply posted: id=%d, thread=%d", reply.ID, root.ID)

	if root.UserID != userID {
		if err := s.notifications.NotifyReply(ctx, *root, *reply); err != nil {
			log.Warn("failed to notify thread author: %v", err)
		}
	}
	return reply, nil
}

func (s *messageService) ListMessages(ctx context.Context, sessionID int64) ([]models.Message, map[int64][]models.ReactionCount, error) {
	log := logger.FromContext(ctx)

	session, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		log.WithError(err).Error("failed to get session")
		return nil, nil, storeError(err, "session", sessionID)
	}
	if session == nil {
		return nil, nil, errors.NewNotFoundError("session", sessionID)
	}

	messages, err := s.messageRepo.ListBySession(ctx, sessionID)
	if err != nil {
		log.WithError(err).Error("failed to list messages")
		return nil, nil, storeError(err, "message", "")
	}
	reactions, err := s.reactions(ctx, messages)
	if err != nil {
		return nil, nil, err
	}
	return messages, reactions, nil
}

func (s *messageService) GetThread(ctx context.Context, messageID int64) (*Thread, error) {
	log := logger.FromContext(ctx)

	root, err := s.message(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if root.ParentID != nil {
		if root, err = s.message(ctx, *root.ParentID); err != nil {
			return nil, err
		}
	}

	replies, err := s.messageRepo.Replies(ctx, root.ID)
	if err != nil {
		log.WithError(err).Error("failed to list replies")
		return nil, storeError(err, "message", root.ID)
	}
	reactions, err := s.reactions(ctx, append([]models.Message{*root}, replies...))
	if err != nil {
		return nil, err
	}
	return &Thread{Root: *root, Replies: replies, Reactions: reactions}, nil
}

func (s *messageService) reactions(ctx context.Context, messages []models.Message) (map[int64][]models.ReactionCount, error) {
	ids := make([]int64, len(messages))
	for i, m := range messages {
		ids[i] = m.ID
	}
	counts, err := s.messageRepo.Reactions(ctx, ids)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to count reactions")
		return nil, storeError(err, "reaction", "")
	}
	out := make(map[int64][]models.ReactionCount)
	for _, c := range counts {
		out[c.MessageID] = append(out[c.MessageID], c)
	}
	return out, nil
}

func (s *messageService) AddReaction(ctx context.Context, userID, messageID int64, input models.NewReaction) error {
	log := logger.FromContext(ctx).WithField("user_id", userID)
	input.Emoji = strings.TrimSpace(input.Emoji)
	if err := validate.Struct(input); err != nil {
		return validationError(err)
	}
	if _, err := s.message(ctx, messageID); err != nil {
		return err
	}

	err := s.messageRepo.AddReaction(ctx, messageID, userID, input.Emoji)
	if stderrors.Is(err, repository.ErrDuplicate) {
		return errors.NewConflictError(fmt.Sprintf("already reacted with %s", input.Emoji), err)
	}
	if err != nil {
		log.WithError(err).Error("failed to add reaction")
		return storeError(err, "reaction", "")
	}
	log.Debug("reaction added: message_id=%d, emoji=%s", messageID, input.Emoji)
	return nil
}

func (s *messageService) RemoveReaction(ctx context.Context, userID, messageID int64, input models.NewReaction) error {
	log := logger.FromContext(ctx).WithField("user_id", userID)
	input.Emoji = strings.TrimSpace(input.Emoji)
	if err := validate.Struct(input); err != nil {
		return validationError(err)
	}

	removed, err := s.messageRepo.RemoveReaction(ctx, messageID, userID, input.Emoji)
	if err != nil {
		log.WithError(err).Error("failed to remove reaction")
		return storeError(err, "reaction", "")
	}
	if !removed {
		return errors.NewNotFoundError("reaction", input.Emoji)
	}
	return nil
}

func (s *messageService) ToggleReaction(ctx context.Context, userID, messageID int64, input models.NewReaction) (bool, error) {
	err := s.AddReaction(ctx, userID, messageID, input)
	if err == nil {
		return true, nil
	}
	if !errors.HasCode(err, errors.ErrCodeConflict) {
		return false, err
	}
	if err := s.RemoveReaction(ctx, userID, messageID, input); err != nil {
		return false, err
	}
	return false, nil
}
