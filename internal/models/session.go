package models

import "time"

const (
	SessionInPerson = "in-person"
	SessionRemote   = "remote"
)

type StudySession struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Type        string    `db:"session_type" json:"session_type"`
	Location    string    `db:"location" json:"location"`
	MeetingLink string    `db:"meeting_link" json:"meeting_link"`
	StartsAt    time.Time `db:"starts_at" json:"starts_at"`
	Capacity    int       `db:"capacity" json:"capacity"`
	CreatorID   int64     `db:"creator_id" json:"creator_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	RSVPCount   int       `db:"rsvp_count" json:"rsvp_count"`
}

// IsFull reports whether no more RSVPs fit. Capacity zero means unlimited.
func (s StudySession) IsFull() bool {
	return s.Capacity > 0 && s.RSVPCount >= s.Capacity
}

// NewSession is the input for scheduling a study session.
type NewSession struct {
	Title       string    `validate:"required,max=200"`
	Description string    `validate:"max=2000"`
	Type        string    `validate:"required,oneof=in-person remote"`
	Location    string    `validate:"required_if=Type in-person,max=200"`
	MeetingLink string    `validate:"required_if=Type remote,omitempty,url,max=200"`
	StartsAt    time.Time `validate:"required"`
	Capacity    int       `validate:"gte=0"`
}

type SessionFilter struct {
	From      *time.Time
	CreatorID int64
	Type      string
	Limit     int
}

type RSVP struct {
	ID        int64     `db:"id" json:"id"`
	SessionID int64     `db:"session_id" json:"session_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Participant is an RSVP joined with the user's public details.
type Participant struct {
	UserID int64     `db:"user_id" json:"user_id"`
	Name   string    `db:"name" json:"name"`
	Email  string    `db:"email" json:"email"`
	RSVPAt time.Time `db:"created_at" json:"rsvp_at"`
}
