// Package store persists the backend session between client runs.
//
// The session controller never touches a Store directly: the identity backend
// reads and writes it, and the controller asks the backend to wipe it.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/suraj-driod/swa-antarang/internal/models"
)

// ErrCorruptSession is returned by Load when a stored blob cannot be decoded.
var ErrCorruptSession = errors.New("stored session is corrupt")

// Store keeps at most one session.
type Store interface {
	// Load returns the stored session, or nil and no error when nothing is stored.
	Load(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Clear(ctx context.Context) error
}

func encode(s *models.Session) ([]byte, error) {
	if s == nil {
		return nil, errors.New("nil session")
	}
	return json.Marshal(s)
}

func decode(b []byte) (*models.Session, error) {
	var s models.Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSession, err)
	}
	if s.AccessToken == "" && s.RefreshToken == "" {
		return nil, fmt.Errorf("%w: no tokens", ErrCorruptSession)
	}
	return &s, nil
}
