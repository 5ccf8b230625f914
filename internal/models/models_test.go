package models

import (
	"testing"
	"time"
)

func TestUser(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		user := NewUser(1, "dj_alex", "spotify-1")
		if err := user.Validate(); err != nil {
			t.Errorf("expected valid user, got %v", err)
		}

		missing := NewUser(1, "", "spotify-1")
		if err := missing.Validate(); err == nil {
			t.Error("expected error for missing username")
		}

		nolink := NewUser(1, "dj_alex", "")
		if err := nolink.Validate(); err == nil {
			t.Error("expected error for missing spotify id")
		}
	})

	t.Run("Refresh Envelope", func(t *testing.T) {
		user := NewUser(1, "dj_alex", "spotify-1")

		if user.HasRefreshToken() {
			t.Error("new user should have no refresh token")
		}

		user.SetRefreshEnvelope("ciphertext", "iv")
		if !user.HasRefreshToken() {
			t.Error("expected refresh token after setting envelope")
		}
		if user.RefreshCiphertext() != "ciphertext" || user.RefreshIV() != "iv" {
			t.Error("envelope accessors should round-trip")
		}

		user.ClearRefreshEnvelope()
		if user.HasRefreshToken() {
			t.Error("expected no refresh token after clearing envelope")
		}
	})
}

func TestEvent(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		event := NewEvent(1, "AB12CD", "Warehouse Party", "user-1")
		if err := event.Validate(); err != nil {
			t.Errorf("expected valid event, got %v", err)
		}

		for _, bad := range []*Event{
			NewEvent(1, "", "Warehouse Party", "user-1"),
			NewEvent(1, "AB12CD", "", "user-1"),
			NewEvent(1, "AB12CD", "Warehouse Party", ""),
		} {
			if err := bad.Validate(); err == nil {
				t.Errorf("expected validation error for %+v", bad)
			}
		}
	})
}

func TestWish(t *testing.T) {
	t.Run("Defaults To Pending", func(t *testing.T) {
		wish := NewWish(1, "event-1", "track-1", "Around the World")
		if wish.Status() != WishPending {
			t.Errorf("expected pending status, got %s", wish.Status())
		}
		if err := wish.Validate(); err != nil {
			t.Errorf("expected valid wish, got %v", err)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		wish := NewWish(1, "event-1", "track-1", "Around the World")
		wish.SetStatus("banana")
		if err := wish.Validate(); err == nil {
			t.Error("expected validation error for unknown status")
		}
	})
}

func TestWishStatus(t *testing.T) {
	for _, status := range []WishStatus{WishPending, WishAccepted, WishRejected} {
		if !status.IsValid() {
			t.Errorf("expected %s to be valid", status)
		}
	}

	for _, status := range []WishStatus{"", "banana", "Pending"} {
		if status.IsValid() {
			t.Errorf("expected %q to be invalid", status)
		}
	}
}

func TestBaseAccessors(t *testing.T) {
	user := NewUser(7, "dj_alex", "spotify-1")

	user.SetID("some-id")
	if user.ID() != "some-id" {
		t.Errorf("expected ID round-trip, got %s", user.ID())
	}
	if user.Sequence() != 7 {
		t.Errorf("expected sequence 7, got %d", user.Sequence())
	}

	now := time.Now()
	user.SetCreatedAt(now)
	user.SetUpdatedAt(now)
	if !user.CreatedAt().Equal(now) || !user.UpdatedAt().Equal(now) {
		t.Error("expected timestamps to round-trip")
	}

	if user.DeletedAt() != nil {
		t.Error("expected nil deleted_at by default")
	}
	user.SetDeletedAt(&now)
	if user.DeletedAt() == nil {
		t.Error("expected deleted_at to be set")
	}
}
