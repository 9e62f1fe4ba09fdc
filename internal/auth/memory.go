package auth

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/shared"
)

// MemoryPersister keeps sessions in a map. It backs tests and the memory-only fallback.
type MemoryPersister struct {
	mu       sync.Mutex
	sessions map[string]models.Session

	// FailWrites makes Save and Delete return an error.
	FailWrites bool
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{sessions: make(map[string]models.Session)}
}

func (m *MemoryPersister) Load(_ context.Context, key string) (models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key]
	if !ok {
		return models.Session{}, fmt.Errorf("%w: %s", shared.ErrSessionMissing, key)
	}
	return s.Clone(), nil
}

func (m *MemoryPersister) Save(_ context.Context, key string, session models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return fmt.Errorf("session storage is read-only")
	}
	m.sessions[key] = session.Clone()
	return nil
}

func (m *MemoryPersister) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return fmt.Errorf("session storage is read-only")
	}
	delete(m.sessions, key)
	return nil
}

// Len returns the number of stored sessions.
func (m *MemoryPersister) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
