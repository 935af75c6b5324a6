package domain

import (
	"time"
)

// User is an account created through the signup form. Only the bcrypt hash
// of the password is ever stored.
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
