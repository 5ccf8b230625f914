package auth

import (
	"sync"
	"time"

	"github.com/veqro/cueup/internal/shared"
)

// StateTTL is how long an issued OAuth state nonce stays valid.
const StateTTL = 10 * time.Minute

type stateEntry struct {
	issuedAt  time.Time
	sessionID string
}

// StateStore correlates an OAuth authorization redirect with its callback.
//
// The nonce is the only key: browsers may drop the session cookie across a
// third-party redirect, so validation cannot depend on cookie delivery.
// Each nonce is accepted at most once.
type StateStore struct {
	mu      sync.Mutex
	entries map[string]stateEntry
	now     func() time.Time
}

// NewStateStore creates an empty store using the wall clock.
func NewStateStore() *StateStore {
	return &StateStore{entries: make(map[string]stateEntry), now: time.Now}
}

// Issue generates a random nonce bound to the given session ID.
//
// Expired entries from abandoned flows are cleaned up lazily on each call.
func (s *StateStore) Issue(sessionID string) (string, error) {
	nonce, err := shared.RandomString(32)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, v := range s.entries {
		if now.Sub(v.issuedAt) > StateTTL {
			delete(s.entries, k)
		}
	}

	s.entries[nonce] = stateEntry{issuedAt: now, sessionID: sessionID}
	return nonce, nil
}

// Consume validates and burns a nonce, returning the session ID it was
// issued for.
//
// Unknown, already-consumed, or aged-out nonces report ok=false. The entry
// is deleted on lookup, so a replayed nonce fails even inside the TTL.
func (s *StateStore) Consume(nonce string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[nonce]
	if !ok {
		return "", false
	}

	delete(s.entries, nonce)

	if s.now().Sub(entry.issuedAt) > StateTTL {
		return "", false
	}

	return entry.sessionID, true
}

// Len returns the number of outstanding nonces.
func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
