package auth

import (
	"context"
	"sync"
	"time"
)

const (
	// expiryMargin keeps a token from being handed out when it is about to
	// expire mid-use.
	expiryMargin = time.Minute

	// sweepGrace tolerates clock skew before an expired entry is physically
	// removed by the sweeper.
	sweepGrace = 5 * time.Minute
)

type tokenEntry struct {
	token     string
	expiresAt time.Time
}

// TokenCache maps a user ID to their live access token in process memory.
//
// Access tokens never touch durable storage; a restart empties the cache and
// the broker repopulates it via the refresh flow. Entries expire lazily on
// Get and are physically removed by a periodic sweep.
type TokenCache struct {
	mu      sync.Mutex
	entries map[string]tokenEntry
	now     func() time.Time
}

// NewTokenCache creates an empty cache using the wall clock.
func NewTokenCache() *TokenCache {
	return &TokenCache{entries: make(map[string]tokenEntry), now: time.Now}
}

// Put records a token with an absolute expiry of now + expiresIn.
func (c *TokenCache) Put(userID, token string, expiresIn time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = tokenEntry{token: token, expiresAt: c.now().Add(expiresIn)}
}

// Get returns the live token for the user, evicting and reporting a miss
// when the entry is within the safety margin of its expiry.
func (c *TokenCache) Get(userID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[userID]
	if !ok {
		return "", false
	}

	if c.now().After(entry.expiresAt.Add(-expiryMargin)) {
		delete(c.entries, userID)
		return "", false
	}

	return entry.token, true
}

// Invalidate removes a single user's entry immediately.
//
// Used on logout, spotify disconnect, and account deletion.
func (c *TokenCache) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}

// Clear empties the entire cache.
func (c *TokenCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]tokenEntry)
}

// Len returns the number of cached entries, expired or not.
func (c *TokenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Sweep removes entries whose expiry passed more than the grace window ago.
//
// Safe to call repeatedly; sweeping an already-clean cache is a no-op.
func (c *TokenCache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-sweepGrace)
	for userID, entry := range c.entries {
		if entry.expiresAt.Before(cutoff) {
			delete(c.entries, userID)
		}
	}
}

// StartSweeping runs Sweep on the given interval until ctx is cancelled.
func (c *TokenCache) StartSweeping(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Sweep()
			}
		}
	}()
}
