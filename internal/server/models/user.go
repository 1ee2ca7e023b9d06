// Package models defines the identity backend's database rows.
package models

import (
	"time"

	"github.com/suraj-driod/swa-antarang/internal/models"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Metadata     map[string]any
	CreatedAt    time.Time
}

// Public is the user as the auth API returns it. The password hash never
// leaves the server.
func (u *User) Public() *models.User {
	if u == nil {
		return nil
	}
	return &models.User{ID: u.ID, Email: u.Email, Metadata: u.Metadata, CreatedAt: u.CreatedAt}
}
