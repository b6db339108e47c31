package domain

import "time"

// User represents a registered account. Username and Email are unique and never change.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
