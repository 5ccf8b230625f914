package auth

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/veqro/cueup/internal/shared"
)

// SessionCookie is the name of the cookie carrying the session ID.
const SessionCookie = "cueup_sid"

// Session links a browser to a logged-in user.
type Session struct {
	ID        string
	UserID    string
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// SessionStore holds sessions in process memory, keyed by random session ID.
//
// Sessions are not durable; a restart logs everyone out, which is acceptable
// because authentication is a single Spotify redirect away.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates an empty store with the given session lifetime.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{sessions: make(map[string]Session), ttl: ttl, now: time.Now}
}

// Create opens a session for the user and returns it.
func (s *SessionStore) Create(userID, username string) (Session, error) {
	id, err := shared.RandomString(32)
	if err != nil {
		return Session{}, err
	}

	now := s.now()
	session := Session{
		ID:        id,
		UserID:    userID,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = session
	return session, nil
}

// Get resolves a session ID, evicting it when expired.
func (s *SessionStore) Get(id string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}

	if s.now().After(session.ExpiresAt) {
		delete(s.sessions, id)
		return Session{}, false
	}

	return session, true
}

// Destroy removes a single session.
func (s *SessionStore) Destroy(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// DestroyUser removes every session belonging to the user.
//
// Used on account deletion so no other browser stays logged in.
func (s *SessionStore) DestroyUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, id)
		}
	}
}

// Len returns the number of live sessions, expired or not.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes expired sessions.
func (s *SessionStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, id)
		}
	}
}

// StartSweeping runs Sweep on the given interval until ctx is cancelled.
func (s *SessionStore) StartSweeping(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// Cookie builds the session cookie for the response.
//
// SameSite=None because the frontend and the API live on different origins;
// Secure and HttpOnly are always set.
func (s *SessionStore) Cookie(session Session) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(time.Until(session.ExpiresAt).Seconds()),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	}
}

// ClearCookie builds an expired session cookie for logout responses.
func (s *SessionStore) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	}
}
