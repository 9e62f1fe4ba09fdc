package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/shared"
)

// CLIKey is the persistence key of the command-line session.
const CLIKey = "cli"

// Persister is durable session storage. Load returns [shared.ErrSessionMissing] when key has no record.
type Persister interface {
	Load(ctx context.Context, key string) (models.Session, error)
	Save(ctx context.Context, key string, session models.Session) error
	Delete(ctx context.Context, key string) error
}

// Store holds the current session and mirrors it to a [Persister].
//
// A new Store is initializing until [Store.Restore] returns.
type Store struct {
	mu           sync.RWMutex
	key          string
	persister    Persister
	logger       *log.Logger
	session      models.Session
	initializing bool
	memoryOnly   bool
}

// NewStore creates an empty, initializing store. A nil persister keeps the session in memory only.
func NewStore(key string, p Persister, logger *log.Logger) *Store {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Store{
		key:          key,
		persister:    p,
		logger:       logger,
		initializing: true,
		memoryOnly:   p == nil,
	}
}

// Key returns the persistence key.
func (s *Store) Key() string {
	return s.key
}

// Restore loads the persisted session, if any, and ends initialization.
//
// A missing or unreadable record leaves the session empty.
func (s *Store) Restore(ctx context.Context) {
	var restored models.Session
	if s.persister != nil {
		session, err := s.persister.Load(ctx, s.key)
		switch {
		case err == nil && session.Authenticated():
			restored = session
		case err == nil, errors.Is(err, shared.ErrSessionMissing):
		default:
			s.logger.Warn("failed to restore session", "key", s.key, "error", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = restored
	s.initializing = false
}

// Login replaces the session wholesale and persists it.
//
// A failed write is logged and the store continues in memory-only mode.
func (s *Store) Login(ctx context.Context, user models.UserProfile, token string) error {
	if token == "" {
		return fmt.Errorf("%w: login requires a token", shared.ErrInvalidArgument)
	}
	session := models.Session{User: &user, Token: token}

	s.mu.Lock()
	s.session = session
	s.initializing = false
	persister := s.persister
	s.mu.Unlock()

	if persister != nil {
		if err := persister.Save(ctx, s.key, session.Clone()); err != nil {
			s.logger.Warn("failed to persist session, continuing in memory", "key", s.key, "error", err)
			s.setMemoryOnly()
		}
	}
	return nil
}

// Logout clears the session and removes the persisted copy.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.session = models.Session{}
	s.initializing = false
	persister := s.persister
	s.mu.Unlock()

	if persister != nil {
		if err := persister.Delete(ctx, s.key); err != nil {
			s.logger.Warn("failed to remove persisted session", "key", s.key, "error", err)
			s.setMemoryOnly()
		}
	}
}

func (s *Store) setMemoryOnly() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memoryOnly = true
	s.persister = nil
}

// Current returns a copy of the session.
func (s *Store) Current() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Clone()
}

// Initializing reports whether [Store.Restore] has not yet completed.
func (s *Store) Initializing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initializing
}

// MemoryOnly reports whether the store has no working persister.
func (s *Store) MemoryOnly() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.memoryOnly
}

// Decide applies the route guard to the store's current state.
func (s *Store) Decide() Decision {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Decide(s.initializing, s.session)
}
