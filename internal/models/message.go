package models

import "time"

// Message is a post on a study session's board. ParentID is set on replies
// and always names the root message of the thread.
type Message struct {
	ID         int64     `db:"id" json:"id"`
	SessionID  int64     `db:"session_id" json:"session_id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	AuthorName string    `db:"author_name" json:"author_name"`
	ParentID   *int64    `db:"parent_message_id" json:"parent_message_id"`
	Body       string    `db:"body" json:"body"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	ReplyCount int       `db:"reply_count" json:"reply_count"`
}

// NewMessage is the input for posting a message or reply.
type NewMessage struct {
	Body string `validate:"required,max=4000"`
}

// NewReaction is the input for reacting to a message.
type NewReaction struct {
	Emoji string `validate:"required,max=32"`
}

// ReactionCount is how many users reacted to a message with one emoji.
type ReactionCount struct {
	MessageID int64  `db:"message_id" json:"message_id"`
	Emoji     string `db:"emoji" json:"emoji"`
	Count     int    `db:"count" json:"count"`
}
