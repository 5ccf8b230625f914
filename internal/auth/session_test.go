package auth

import (
	"net/http"
	"testing"
	"time"
)

func TestSessionStore(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	newStoreAt := func(now *time.Time, ttl time.Duration) *SessionStore {
		store := NewSessionStore(ttl)
		store.now = func() time.Time { return *now }
		return store
	}

	t.Run("Create And Get", func(t *testing.T) {
		now := base
		store := newStoreAt(&now, 24*time.Hour)

		session, err := store.Create("user-1", "dj_alex")
		if err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
		if session.ID == "" {
			t.Fatal("expected session ID to be set")
		}

		got, ok := store.Get(session.ID)
		if !ok {
			t.Fatal("expected session lookup to succeed")
		}
		if got.UserID != "user-1" || got.Username != "dj_alex" {
			t.Errorf("unexpected session contents: %+v", got)
		}
	})

	t.Run("Expired Session", func(t *testing.T) {
		now := base
		store := newStoreAt(&now, time.Hour)

		session, err := store.Create("user-1", "dj_alex")
		if err != nil {
			t.Fatalf("failed to create session: %v", err)
		}

		now = base.Add(time.Hour + time.Second)
		if _, ok := store.Get(session.ID); ok {
			t.Error("expected expired session to be rejected")
		}
		if store.Len() != 0 {
			t.Error("expected expired session to be evicted on lookup")
		}
	})

	t.Run("Destroy", func(t *testing.T) {
		now := base
		store := newStoreAt(&now, time.Hour)

		session, _ := store.Create("user-1", "dj_alex")
		store.Destroy(session.ID)

		if _, ok := store.Get(session.ID); ok {
			t.Error("expected destroyed session to be gone")
		}
	})

	t.Run("DestroyUser", func(t *testing.T) {
		now := base
		store := newStoreAt(&now, time.Hour)

		a, _ := store.Create("user-1", "dj_alex")
		b, _ := store.Create("user-1", "dj_alex")
		c, _ := store.Create("user-2", "dj_sam")

		store.DestroyUser("user-1")

		if _, ok := store.Get(a.ID); ok {
			t.Error("expected first session of user-1 to be gone")
		}
		if _, ok := store.Get(b.ID); ok {
			t.Error("expected second session of user-1 to be gone")
		}
		if _, ok := store.Get(c.ID); !ok {
			t.Error("expected session of user-2 to survive")
		}
	})

	t.Run("Sweep", func(t *testing.T) {
		now := base
		store := newStoreAt(&now, time.Hour)

		store.Create("user-1", "dj_alex")
		store.Create("user-2", "dj_sam")

		now = base.Add(2 * time.Hour)
		store.Sweep()

		if store.Len() != 0 {
			t.Errorf("expected all sessions swept, got %d", store.Len())
		}
	})

	t.Run("Cookie Attributes", func(t *testing.T) {
		now := base
		store := newStoreAt(&now, time.Hour)

		session, _ := store.Create("user-1", "dj_alex")
		cookie := store.Cookie(session)

		if cookie.Name != SessionCookie {
			t.Errorf("expected cookie name %s, got %s", SessionCookie, cookie.Name)
		}
		if !cookie.Secure || !cookie.HttpOnly {
			t.Error("session cookie must be Secure and HttpOnly")
		}
		if cookie.SameSite != http.SameSiteNoneMode {
			t.Error("session cookie must use SameSite=None for the cross-origin frontend")
		}

		clear := store.ClearCookie()
		if clear.MaxAge != -1 {
			t.Error("clear cookie must carry MaxAge=-1")
		}
	})
}
