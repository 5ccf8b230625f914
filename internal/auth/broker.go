package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/veqro/cueup/internal/shared"
)

// TokenExchange is the provider call that turns a refresh token into a new
// access token. Implemented by the Spotify service.
type TokenExchange interface {
	Refresh(ctx context.Context, refreshToken string) (accessToken string, expiresIn time.Duration, err error)
}

// Broker resolves a valid access token for a user, refreshing against the
// provider on a cache miss.
//
// Refreshes for the same user are serialized: when two requests miss the
// cache simultaneously, the second waits and then hits the token the first
// one cached instead of racing the provider with the same refresh token.
type Broker struct {
	cipher   *TokenCipher
	cache    *TokenCache
	exchange TokenExchange
	logger   *log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewBroker wires the cipher, cache, and provider exchange together.
func NewBroker(cipher *TokenCipher, cache *TokenCache, exchange TokenExchange, logger *log.Logger) *Broker {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Broker{
		cipher:   cipher,
		cache:    cache,
		exchange: exchange,
		logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

// userLock returns the per-user mutex, creating it on first use.
func (b *Broker) userLock(userID string) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()
	lock, ok := b.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		b.locks[userID] = lock
	}
	return lock
}

// EnsureAccessToken returns a live access token for the user.
//
// Cache hit short-circuits. On a miss the stored envelope is decrypted and
// exchanged with the provider; the fresh token is cached before returning.
// Failures map onto [shared.ErrRefreshUnavailable] (no envelope, or it can't
// be decrypted) and [shared.ErrRefreshFailed] (provider rejected the
// exchange). No retry happens here; the caller decides whether to force a
// re-login.
func (b *Broker) EnsureAccessToken(ctx context.Context, userID string, env EncryptedToken) (string, error) {
	lock := b.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if token, ok := b.cache.Get(userID); ok {
		return token, nil
	}

	if env.IsZero() {
		return "", shared.ErrRefreshUnavailable
	}

	refreshToken, ok := b.cipher.Decrypt(env)
	if !ok {
		return "", fmt.Errorf("%w: %w", shared.ErrRefreshUnavailable, shared.ErrDecryptFailed)
	}

	accessToken, expiresIn, err := b.exchange.Refresh(ctx, refreshToken)
	if err != nil {
		// A stale entry must not survive a failed refresh.
		b.cache.Invalidate(userID)
		b.logger.Warn("token refresh failed", "user_id", userID, "error", err)
		return "", fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	b.cache.Put(userID, accessToken, expiresIn)
	b.logger.Debug("access token refreshed", "user_id", userID, "expires_in", expiresIn)
	return accessToken, nil
}

// StoreToken caches a token obtained outside the refresh flow (the initial
// OAuth code exchange).
func (b *Broker) StoreToken(userID, accessToken string, expiresIn time.Duration) {
	b.cache.Put(userID, accessToken, expiresIn)
}

// InvalidateUser evicts the user's cached token immediately.
func (b *Broker) InvalidateUser(userID string) {
	b.cache.Invalidate(userID)
}
