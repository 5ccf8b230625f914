package auth

import (
	"testing"
	"time"
)

func TestTokenCache(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	newCacheAt := func(now *time.Time) *TokenCache {
		cache := NewTokenCache()
		cache.now = func() time.Time { return *now }
		return cache
	}

	t.Run("Put And Get", func(t *testing.T) {
		now := base
		cache := newCacheAt(&now)

		cache.Put("user-1", "token-abc", time.Hour)

		token, ok := cache.Get("user-1")
		if !ok {
			t.Fatal("expected cache hit")
		}
		if token != "token-abc" {
			t.Errorf("expected token-abc, got %s", token)
		}

		if _, ok := cache.Get("unknown"); ok {
			t.Error("expected miss for unknown user")
		}
	})

	t.Run("Expiry Margin", func(t *testing.T) {
		now := base
		cache := newCacheAt(&now)

		cache.Put("user-1", "token-abc", time.Hour)

		// 30 seconds before the margin boundary: still served.
		now = base.Add(time.Hour - expiryMargin - 30*time.Second)
		if _, ok := cache.Get("user-1"); !ok {
			t.Error("expected hit outside the expiry margin")
		}

		// Inside the margin: treated as expired even though some lifetime remains.
		now = base.Add(time.Hour - 30*time.Second)
		if _, ok := cache.Get("user-1"); ok {
			t.Error("expected miss inside the expiry margin")
		}

		// The lazy eviction removed the entry.
		if cache.Len() != 0 {
			t.Errorf("expected entry to be evicted, cache has %d", cache.Len())
		}
	})

	t.Run("Invalidate", func(t *testing.T) {
		now := base
		cache := newCacheAt(&now)

		cache.Put("user-1", "token-abc", time.Hour)
		cache.Invalidate("user-1")

		if _, ok := cache.Get("user-1"); ok {
			t.Error("expected miss after invalidation")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		now := base
		cache := newCacheAt(&now)

		cache.Put("user-1", "a", time.Hour)
		cache.Put("user-2", "b", time.Hour)
		cache.Clear()

		if cache.Len() != 0 {
			t.Errorf("expected empty cache, got %d entries", cache.Len())
		}
	})

	t.Run("Sweep", func(t *testing.T) {
		now := base
		cache := newCacheAt(&now)

		cache.Put("fresh", "a", time.Hour)
		cache.Put("stale", "b", time.Minute)

		// The stale entry expired but is inside the grace window: kept.
		now = base.Add(2 * time.Minute)
		cache.Sweep()
		if cache.Len() != 2 {
			t.Errorf("expected both entries inside grace window, got %d", cache.Len())
		}

		// Past the grace window: physically removed.
		now = base.Add(time.Minute + sweepGrace + time.Second)
		cache.Sweep()
		if cache.Len() != 1 {
			t.Errorf("expected one entry after sweep, got %d", cache.Len())
		}
		if _, ok := cache.Get("fresh"); !ok {
			t.Error("expected fresh entry to survive the sweep")
		}

		// Sweeping again changes nothing.
		cache.Sweep()
		if cache.Len() != 1 {
			t.Errorf("expected sweep to be idempotent, got %d entries", cache.Len())
		}
	})
}
