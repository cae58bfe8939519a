package models

import "time"

const (
	NotificationRSVP      = "rsvp"
	NotificationReviewDue = "review_due"
	NotificationReply     = "reply"
)

type Notification struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Type      string    `db:"type" json:"type"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Link      string    `db:"link" json:"link"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type NotificationFilter struct {
	UserID     int64
	UnreadOnly bool
	Limit      int
}
