package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyhall/internal/errors"
	"github.com/vytor/studyhall/internal/models"
	"github.com/vytor/studyhall/internal/services"
	"github.com/vytor/studyhall/internal/testutil/mocks"
)

func newDeckService() (services.DeckService, *mocks.MockDeckRepository, *mocks.MockFlashcardRepository, *mocks.MockSessionRepository) {
	decks := new(mocks.MockDeckRepository)
	cards := new(mocks.MockFlashcardRepository)
	sessions := new(mocks.MockSessionRepository)
	return services.NewDeckService(decks, cards, sessions), decks, cards, sessions
}

func TestCreateDeck_Validation(t *testing.T) {
	svc, decks, _, _ := newDeckService()

	_, err := svc.CreateDeck(context.Background(), 1, models.NewDeck{Title: "   "})

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
	decks.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateDeck_UnknownSession(t *testing.T) {
	ctx := context.Background()
	svc, _, _, sessions := newDeckService()
	sessionID := int64(8)
	sessions.On("Get", ctx, sessionID).Return(nil, nil)

	_, err := svc.CreateDeck(ctx, 1, models.NewDeck{Title: "Chemistry", SessionID: &sessionID})

	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound))
}

func TestCreateDeck_TrimsTitle(t *testing.T) {
	ctx := context.Background()
	svc, decks, _, _ := newDeckService()
	decks.On("Create", ctx, int64(1), models.NewDeck{Title: "Chemistry"}).Return(&models.Deck{ID: 4, Title: "Chemistry", OwnerID: 1}, nil)

	deck, err := svc.CreateDeck(ctx, 1, models.NewDeck{Title: "  Chemistry "})

	require.NoError(t, err)
	assert.Equal(t, int64(4), deck.ID)
}

func TestGetDeck_Visibility(t *testing.T) {
	ctx := context.Background()
	svc, decks, _, _ := newDeckService()
	decks.On("Get", ctx, int64(1)).Return(&models.Deck{ID: 1, OwnerID: 7, IsPublic: false}, nil)
	decks.On("Get", ctx, int64(2)).Return(&models.Deck{ID: 2, OwnerID: 7, IsPublic: true}, nil)

	_, err := svc.GetDeck(ctx, 9, 1)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNotFound), "private deck hidden from others")

	deck, err := svc.GetDeck(ctx, 9, 2)
	require.NoError(t, err)
	assert.True(t, deck.IsPublic)

	_, err = svc.GetDeck(ctx, 7, 1)
	assert.NoError(t, err, "owner sees private deck")
}

func TestDeleteDeck_OnlyOwner(t *testing.T) {
	ctx := context.Background()
	svc, decks, _, _ := newDeckService()
	decks.On("Get", ctx, int64(2)).Return(&models.Deck{ID: 2, OwnerID: 7, IsPublic: true}, nil)

	err := svc.DeleteDeck(ctx, 9, 2)
	assert.True(t, errors.HasCode(err, errors.ErrCodeForbidden))
	decks.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)

	decks.On("Delete", ctx, int64(2)).Return(nil)
	assert.NoError(t, svc.DeleteDeck(ctx, 7, 2))
}

func TestAddCard(t *testing.T) {
	ctx := context.Background()
	svc, decks, cards, _ := newDeckService()
	decks.On("Get", ctx, int64(2)).Return(&models.Deck{ID: 2, OwnerID: 7}, nil)
	input := models.NewFlashcard{Question: "H2O?", Answer: "Water"}
	cards.On("Insert", ctx, int64(2), input).Return(&models.Flashcard{ID: 11, DeckID: 2, Question: "H2O?", Answer: "Water"}, nil)

	card, err := svc.AddCard(ctx, 7, 2, models.NewFlashcard{Question: " H2O? ", Answer: "Water"})
	require.NoError(t, err)
	assert.Equal(t, int64(11), card.ID)

	_, err = svc.AddCard(ctx, 7, 2, models.NewFlashcard{Question: "no answer"})
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidation))
}

func TestDeleteCard_NotOwner(t *testing.T) {
	ctx := context.Background()
	svc, decks, cards, _ := newDeckService()
	cards.On("Get", ctx, int64(11)).Return(&models.Flashcard{ID: 11, DeckID: 2}, nil)
	decks.On("Get", ctx, int64(2)).Return(&models.Deck{ID: 2, OwnerID: 7, IsPublic: true}, nil)

	err := svc.DeleteCard(ctx, 9, 11)

	assert.True(t, errors.HasCode(err, errors.ErrCodeForbidden))
	cards.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
