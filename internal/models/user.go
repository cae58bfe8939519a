package models

import "time"

type User struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NewUser is the input for creating a user.
type NewUser struct {
	Name  string `validate:"required,max=100"`
	Email string `validate:"required,email,max=120"`
}
