package store

import (
	"context"
	"sync"

	"github.com/suraj-driod/swa-antarang/internal/models"
)

// MemoryStore keeps the session in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu   sync.Mutex
	blob []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blob == nil {
		return nil, nil
	}
	return decode(m.blob)
}

func (m *MemoryStore) Save(_ context.Context, s *models.Session) error {
	blob, err := encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.blob = blob
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	m.blob = nil
	m.mu.Unlock()
	return nil
}

// SetRaw stores b verbatim, bypassing encoding.
func (m *MemoryStore) SetRaw(b []byte) {
	m.mu.Lock()
	m.blob = b
	m.mu.Unlock()
}
