package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/vytor/studyhall/internal/errors"
	"github.com/vytor/studyhall/internal/logger"
	"github.com/vytor/studyhall/internal/models"
	"github.com/vytor/studyhall/internal/repository"
)

// DeckService handles deck and flashcard management. Decks are readable by
// their owner and, when public, by everyone; only the owner may change them.
type DeckService interface {
	CreateDeck(ctx context.Context, userID int64, input models.NewDeck) (*models.Deck, error)
	ListDecks(ctx context.Context, userID int64) ([]models.Deck, error)
	GetDeck(ctx context.Context, userID, deckID int64) (*models.Deck, error)
	DeleteDeck(ctx context.Context, userID, deckID int64) error
	AddCard(ctx context.Context, userID, deckID int64, input models.NewFlashcard) (*models.Flashcard, error)
	ListCards(ctx context.Context, userID, deckID int64) ([]models.Flashcard, error)
	DeleteCard(ctx context.Context, userID, cardID int64) error
}

type deckService struct {
	deckRepo    repository.DeckRepository
	cardRepo    repository.FlashcardRepository
	sessionRepo repository.SessionRepository
}

// NewDeckService creates a new DeckService
func NewDeckService(deckRepo repository.DeckRepository, cardRepo repository.FlashcardRepository, sessionRepo repository.SessionRepository) DeckService {
	return &deckService{deckRepo: deckRepo, cardRepo: cardRepo, sessionRepo: sessionRepo}
}

func (s *deckService) CreateDeck(ctx context.Context, userID int64, input models.NewDeck) (*models.Deck, error) {
	log := logger.FromContext(ctx).WithField("user_id", userID)
	input.Title = strings.TrimSpace(input.Title)
	log.Debug("creating deck: title=%s", input.Title)

	if err := validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	if input.SessionID != nil {
		session, err := s.sessionRepo.Get(ctx, *input.SessionID)
		if err != nil {
			log.WithError(err).Error("failed to get session")
			return nil, storeError(err, "session", *input.SessionID)
		}
		if session == nil {
			return nil, errors.NewNotFoundError("session", *input.SessionID)
		}
	}

	deck, err := s.deckRepo.Create(ctx, userID, input)
	if err != nil {
		log.WithError(err).Error("failed to create deck")
		return nil, storeError(err, "deck", input.Title)
	}
	log.Info("deck created: id=%d", deck.ID)
	return deck, nil
}

func (s *deckService) ListDecks(ctx context.Context, userID int64) ([]models.Deck, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing decks: user_id=%d", userID)

	decks, err := s.deckRepo.ListVisible(ctx, userID)
	if err != nil {
		log.WithError(err).Error("failed to list decks")
		return nil, storeError(err, "deck", "")
	}
	return decks, nil
}

// GetDeck returns the deck if userID may see it. Private decks of other users
// are reported as not found.
func (s *deckService) GetDeck(ctx context.Context, userID, deckID int64) (*models.Deck, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting deck: id=%d, user_id=%d", deckID, userID)

	deck, err := s.deckRepo.Get(ctx, deckID)
	if err != nil {
		log.WithError(err).Error("failed to get deck")
		return nil, storeError(err, "deck", deckID)
	}
	if deck == nil || !canSee(deck, userID) {
		return nil, errors.NewNotFoundError("deck", deckID)
	}
	return deck, nil
}

func (s *deckService) ownedDeck(ctx context.Context, userID, deckID int64, action string) (*models.Deck, error) {
	deck, err := s.GetDeck(ctx, userID, deckID)
	if err != nil {
		return nil, err
	}
	if deck.OwnerID != userID {
		return nil, errors.NewForbiddenError(fmt.Sprintf("%s deck %d", action, deckID))
	}
	return deck, nil
}

func (s *deckService) DeleteDeck(ctx context.Context, userID, deckID int64) error {
	log := logger.FromContext(ctx)

	if _, err := s.ownedDeck(ctx, userID, deckID, "delete"); err != nil {
		return err
	}
	if err := s.deckRepo.Delete(ctx, deckID); err != nil {
		log.WithError(err).Error("failed to delete deck")
		return storeError(err, "deck", deckID)
	}
	log.Info("deck deleted: id=%d", deckID)
	return nil
}

func (s *deckService) AddCard(ctx context.Context, userID, deckID int64, input models.NewFlashcard) (*models.Flashcard, error) {
	log := logger.FromContext(ctx)
	input.Question = strings.TrimSpace(input.Question)
	input.Answer = strings.TrimSpace(input.Answer)

	if err := validate.Struct(input); err != nil {
		return nil, validationError(err)
	}
	if _, err := s.ownedDeck(ctx, userID, deckID, "add cards to"); err != nil {
		return nil, err
	}

	card, err := s.cardRepo.Insert(ctx, deckID, input)
	if err != nil {
		log.WithError(err).Error("failed to add card")
		return nil, storeError(err, "flashcard", "")
	}
	log.Debug("card added: id=%d, deck_id=%d", card.ID, deckID)
	return card, nil
}

func (s *deckService) ListCards(ctx context.Context, userID, deckID int64) ([]models.Flashcard, error) {
	log := logger.FromContext(ctx)

	if _, err := s.GetDeck(ctx, userID, deckID); err != nil {
		return nil, err
	}
	cards, err := s.cardRepo.ListByDeck(ctx, deckID)
	if err != nil {
		log.WithError(err).Error("failed to list cards")
		return nil, storeError(err, "flashcard", "")
	}
	return cards, nil
}

// DeleteCard removes the card and, by cascade, every user's progress on it.
func (s *deckService) DeleteCard(ctx context.Context, userID, cardID int64) error {
	log := logger.FromContext(ctx)

	card, err := s.cardRepo.Get(ctx, cardID)
	if err != nil {
		log.WithError(err).Error("failed to get card")
		return storeError(err, "flashcard", cardID)
	}
	if card == nil {
		return errors.NewNotFoundError("flashcard", cardID)
	}
	if _, err := s.ownedDeck(ctx, userID, card.DeckID, "delete cards from"); err != nil {
		return err
	}
	if err := s.cardRepo.Delete(ctx, cardID); err != nil {
		log.WithError(err).Error("failed to delete card")
		return storeError(err, "flashcard", cardID)
	}
	log.Info("card deleted: id=%d", cardID)
	return nil
}
