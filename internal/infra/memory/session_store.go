package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"points-exchange-service/internal/app"
	"points-exchange-service/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.Mutex
	sessions map[string]sessionEntry
}

type sessionEntry struct {
	identity  domain.Identity
	expiresAt time.Time
}

var _ app.SessionRepository = (*SessionStore)(nil)

func NewSessionStore(ttl time.Duration) *SessionStore {
	return NewSessionStoreWithClock(ttl, time.Now)
}

// NewSessionStoreWithClock allows deterministic expiry in tests.
func NewSessionStoreWithClock(ttl time.Duration, clock func() time.Time) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		clock:    clock,
		sessions: make(map[string]sessionEntry),
	}
}

func (s *SessionStore) Create(_ context.Context, identity domain.Identity) (string, error) {
	token := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = sessionEntry{identity: identity, expiresAt: s.clock().Add(s.ttl)}
	return token, nil
}

func (s *SessionStore) Get(_ context.Context, token string) (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[token]
	if !ok {
		return domain.Identity{}, domain.ErrSessionNotFound
	}
	if !entry.expiresAt.After(s.clock()) {
		delete(s.sessions, token)
		return domain.Identity{}, domain.ErrSessionNotFound
	}
	return entry.identity, nil
}

// Update replaces the identity without extending the expiry.
func (s *SessionStore) Update(_ context.Context, token string, identity domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[token]
	if !ok || !entry.expiresAt.After(s.clock()) {
		return domain.ErrSessionNotFound
	}
	entry.identity = identity
	s.sessions[token] = entry
	return nil
}

func (s *SessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

// Sweep drops expired sessions and reports how many were removed.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	removed := 0
	for token, entry := range s.sessions {
		if !entry.expiresAt.After(now) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}
