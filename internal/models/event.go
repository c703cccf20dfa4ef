package models

import "time"

// Event is an audit entry for account and application activity.
type Event struct {
	ID        string    `json:"id" db:"id"`
	Type      string    `json:"type" db:"type"`   // e.g., "user.register", "job.applied"
	Level     string    `json:"level" db:"level"` // e.g., "info", "warn"
	Message   string    `json:"message" db:"message"`
	UserID    *string   `json:"userId,omitempty" db:"user_id"` // Nullable for anonymous events
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
