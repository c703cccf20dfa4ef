package models

import "time"

// User represents a registered account.
type User struct {
	ID           string    `json:"userId" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never expose this to the client
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
