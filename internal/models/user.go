package models

import "time"

// User represents a user account in the system.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	Email        string    `json:"email"` // Stored lowercase; unique
	PasswordHash string    `json:"-"`     // Never expose this to the client
	CreatedAt    time.Time `json:"createdAt"`
}
