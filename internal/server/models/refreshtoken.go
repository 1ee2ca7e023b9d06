package models

import "time"

// RefreshToken is an opaque refresh token bound to one sign-in session.
type RefreshToken struct {
	Token     string
	UserID    string
	SessionID string
	Expires   time.Time
	CreatedAt time.Time
}
