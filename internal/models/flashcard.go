package models

import "time"

type Deck struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	SessionID   *int64    `db:"session_id" json:"session_id"`
	OwnerID     int64     `db:"user_id" json:"owner_id"`
	IsPublic    bool      `db:"is_public" json:"is_public"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
	CardCount   int       `db:"card_count" json:"card_count"`
}

// NewDeck is the input for creating a deck.
type NewDeck struct {
	Title       string `validate:"required,max=200"`
	Description string `validate:"max=2000"`
	SessionID   *int64 `validate:"omitempty,gt=0"`
	IsPublic    bool
}

type Flashcard struct {
	ID        int64     `db:"id" json:"id"`
	DeckID    int64     `db:"deck_id" json:"deck_id"`
	Question  string    `db:"question" json:"question"`
	Answer    string    `db:"answer" json:"answer"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NewFlashcard is the input for adding a card to a deck.
type NewFlashcard struct {
	Question string `validate:"required,max=4000"`
	Answer   string `validate:"required,max=4000"`
}
