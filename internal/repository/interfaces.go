package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vytor/studyhall/internal/models"
)

// Errors returned by implementations; check with errors.Is.
var (
	// ErrConflict means the row changed since it was read.
	ErrConflict = errors.New("repository: concurrent modification")
	// ErrDuplicate means a uniqueness constraint rejected the write.
	ErrDuplicate = errors.New("repository: duplicate entry")
	// ErrCapacityReached means a study session has no free seats.
	ErrCapacityReached = errors.New("repository: session capacity reached")
)

// UserRepository handles user data access
type UserRepository interface {
	Create(ctx context.Context, name, email string) (*models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Delete(ctx context.Context, id int64) error
}

// DeckRepository handles flashcard deck data access
type DeckRepository interface {
	Create(ctx context.Context, ownerID int64, deck models.NewDeck) (*models.Deck, error)
	Get(ctx context.Context, id int64) (*models.Deck, error)
	ListVisible(ctx context.Context, userID int64) ([]models.Deck, error)
	Delete(ctx context.Context, id int64) error
}

// FlashcardRepository handles flashcard data access
type FlashcardRepository interface {
	Insert(ctx context.Context, deckID int64, card models.NewFlashcard) (*models.Flashcard, error)
	InsertBatch(ctx context.Context, deckID int64, cards []models.NewFlashcard) ([]int64, error)
	Get(ctx context.Context, id int64) (*models.Flashcard, error)
	ListByDeck(ctx context.Context, deckID int64) ([]models.Flashcard, error)
	Delete(ctx context.Context, id int64) error
}

// ProgressRepository is the per-(flashcard, user) review state store
type ProgressRepository interface {
	// InTx runs fn with a repository bound to a single transaction.
	InTx(ctx context.Context, fn func(ProgressRepository) error) error
	// GetOrCreate returns the progress row, inserting the default state
	// (due at now) when the user has never seen the card.
	GetOrCreate(ctx context.Context, flashcardID, userID int64, now time.Time) (*models.CardProgress, error)
	// Save overwrites the row if its last_reviewed still equals
	// expectedLastReviewed, otherwise it returns ErrConflict.
	Save(ctx context.Context, progress models.CardProgress, expectedLastReviewed *time.Time) error
	DueCards(ctx context.Context, filter models.DueFilter) ([]models.DueCard, error)
	DueCountsByUser(ctx context.Context, asOf time.Time) ([]models.DueCount, error)
	InsertReviewHistory(ctx context.Context, entry models.ReviewHistory) error
	Stats(ctx context.Context, userID int64, asOf time.Time) (*models.ReviewStats, error)
}

// SessionRepository handles study session and RSVP data access
type SessionRepository interface {
	Create(ctx context.Context, creatorID int64, session models.NewSession) (*models.StudySession, error)
	Get(ctx context.Context, id int64) (*models.StudySession, error)
	List(ctx context.Context, filter models.SessionFilter) ([]models.StudySession, error)
	Delete(ctx context.Context, id int64) error
	// AddRSVP reserves a seat, returning ErrCapacityReached when the session
	// is full and ErrDuplicate when the user already holds one.
	AddRSVP(ctx context.Context, sessionID, userID int64) (*models.RSVP, error)
	// RemoveRSVP reports whether a reservation was removed.
	RemoveRSVP(ctx context.Context, sessionID, userID int64) (bool, error)
	Participants(ctx context.Context, sessionID int64) ([]models.Participant, error)
}

// NotificationRepository handles notification data access
type NotificationRepository interface {
	Create(ctx context.Context, n models.Notification) (int64, error)
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error)
	// MarkRead reports whether a notification owned by userID was updated.
	MarkRead(ctx context.Context, id, userID int64) (bool, error)
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	ExistsSince(ctx context.Context, userID int64, notificationType string, since time.Time) (bool, error)
}

// MessageRepository handles session messages and their reactions
type MessageRepository interface {
	Create(ctx context.Context, sessionID, userID int64, parentID *int64, body string) (*models.Message, error)
	Get(ctx context.Context, id int64) (*models.Message, error)
	// ListBySession returns the root messages of a session, oldest first.
	ListBySession(ctx context.Context, sessionID int64) ([]models.Message, error)
	Replies(ctx context.Context, parentID int64) ([]models.Message, error)
	// AddReaction returns ErrDuplicate when the user already reacted with emoji.
	AddReaction(ctx context.Context, messageID, userID int64, emoji string) error
	// RemoveReaction reports whether a reaction was removed.
	RemoveReaction(ctx context.Context, messageID, userID int64, emoji string) (bool, error)
	Reactions(ctx context.Context, messageIDs []int64) ([]models.ReactionCount, error)
}
