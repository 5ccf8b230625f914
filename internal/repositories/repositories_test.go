package repositories

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/veqro/cueup/internal/models"
	"github.com/veqro/cueup/internal/shared"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, repo *UserRepository, spotifyID string) *models.User {
	t.Helper()

	user := models.NewUser(0, "dj_"+spotifyID, spotifyID)
	if err := repo.Create(user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func TestUserRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)

	t.Run("Create And Get", func(t *testing.T) {
		user := models.NewUser(0, "dj_alex", "spotify-alex")
		user.SetSpotifyName("Alex")
		user.SetPremium(true)
		user.SetRefreshEnvelope("ciphertext-hex", "iv-hex")

		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}
		if user.ID() == "" {
			t.Fatal("expected generated ID")
		}
		if user.Sequence() == 0 {
			t.Error("expected assigned sequence")
		}

		got, err := repo.Get(user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if got.Username() != "dj_alex" || got.SpotifyID() != "spotify-alex" {
			t.Errorf("unexpected user: %s / %s", got.Username(), got.SpotifyID())
		}
		if !got.IsPremium() {
			t.Error("expected premium flag to persist")
		}
		if got.RefreshCiphertext() != "ciphertext-hex" || got.RefreshIV() != "iv-hex" {
			t.Error("expected refresh envelope to persist")
		}
	})

	t.Run("GetBySpotifyID", func(t *testing.T) {
		got, err := repo.GetBySpotifyID("spotify-alex")
		if err != nil {
			t.Fatalf("failed to get user by spotify id: %v", err)
		}
		if got.Username() != "dj_alex" {
			t.Errorf("expected dj_alex, got %s", got.Username())
		}

		if _, err := repo.GetBySpotifyID("unknown"); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("Update", func(t *testing.T) {
		user := createTestUser(t, repo, "spotify-update")

		user.SetPremium(true)
		user.ClearRefreshEnvelope()
		if err := repo.Update(user); err != nil {
			t.Fatalf("failed to update user: %v", err)
		}

		got, err := repo.Get(user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if !got.IsPremium() {
			t.Error("expected premium flag to be updated")
		}
		if got.HasRefreshToken() {
			t.Error("expected refresh envelope to be cleared")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		user := createTestUser(t, repo, "spotify-delete")

		if err := repo.Delete(user.ID()); err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}

		if _, err := repo.Get(user.ID()); !errors.Is(err, shared.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound after delete, got %v", err)
		}

		if err := repo.Delete(user.ID()); err == nil {
			t.Error("expected error deleting an already-deleted user")
		}
	})
}

func TestEventRepository(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	repo := NewEventRepository(db)

	owner := createTestUser(t, users, "spotify-owner")
	other := createTestUser(t, users, "spotify-other")

	t.Run("Create And GetByCode", func(t *testing.T) {
		event := models.NewEvent(0, "AB12CD", "Warehouse Party", owner.ID())
		event.SetWishURL("https://front.example.com/userwish?event=AB12CD")

		if err := repo.Create(event); err != nil {
			t.Fatalf("failed to create event: %v", err)
		}

		got, err := repo.GetByCode("AB12CD")
		if err != nil {
			t.Fatalf("failed to get event by code: %v", err)
		}
		if got.Name() != "Warehouse Party" || got.UserID() != owner.ID() {
			t.Errorf("unexpected event: %+v", got)
		}

		// Lookup by ID through the same accessor also works.
		byID, err := repo.GetByCode(event.ID())
		if err != nil {
			t.Fatalf("failed to get event by id: %v", err)
		}
		if byID.Code() != "AB12CD" {
			t.Errorf("expected code AB12CD, got %s", byID.Code())
		}
	})

	t.Run("Duplicate Code Rejected", func(t *testing.T) {
		dup := models.NewEvent(0, "AB12CD", "Second Party", owner.ID())
		if err := repo.Create(dup); err == nil {
			t.Error("expected error for duplicate event code")
		}
	})

	t.Run("Unknown Code", func(t *testing.T) {
		if _, err := repo.GetByCode("ZZZZZZ"); !errors.Is(err, shared.ErrEventNotFound) {
			t.Errorf("expected ErrEventNotFound, got %v", err)
		}
	})

	t.Run("List By Owner", func(t *testing.T) {
		second := models.NewEvent(0, "EF34GH", "Club Night", owner.ID())
		if err := repo.Create(second); err != nil {
			t.Fatalf("failed to create event: %v", err)
		}
		foreign := models.NewEvent(0, "IJ56KL", "Other DJ Event", other.ID())
		if err := repo.Create(foreign); err != nil {
			t.Fatalf("failed to create event: %v", err)
		}

		events, err := repo.List(map[string]any{"user_id": owner.ID()})
		if err != nil {
			t.Fatalf("failed to list events: %v", err)
		}
		if len(events) != 2 {
			t.Errorf("expected 2 events for owner, got %d", len(events))
		}
		for _, event := range events {
			if event.UserID() != owner.ID() {
				t.Errorf("listed event belongs to %s, not the owner", event.UserID())
			}
		}
	})

	t.Run("DeleteByUser", func(t *testing.T) {
		removed, err := repo.DeleteByUser(owner.ID())
		if err != nil {
			t.Fatalf("failed to delete events by user: %v", err)
		}
		if removed != 2 {
			t.Errorf("expected 2 events removed, got %d", removed)
		}

		events, err := repo.List(map[string]any{"user_id": owner.ID()})
		if err != nil {
			t.Fatalf("failed to list events: %v", err)
		}
		if len(events) != 0 {
			t.Errorf("expected no remaining events, got %d", len(events))
		}

		// The other DJ's event is untouched.
		if _, err := repo.GetByCode("IJ56KL"); err != nil {
			t.Errorf("expected other DJ's event to survive: %v", err)
		}
	})
}

func TestWishRepository(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	events := NewEventRepository(db)
	repo := NewWishRepository(db)

	owner := createTestUser(t, users, "spotify-owner")
	event := models.NewEvent(0, "AB12CD", "Warehouse Party", owner.ID())
	if err := events.Create(event); err != nil {
		t.Fatalf("failed to create event: %v", err)
	}

	t.Run("Create And Get", func(t *testing.T) {
		wish := models.NewWish(0, event.ID(), "track-1", "Around the World")
		wish.SetArtist("Daft Punk")
		wish.SetAlbum("Homework")
		wish.SetSpotifyURI("spotify:track:track-1")

		if err := repo.Create(wish); err != nil {
			t.Fatalf("failed to create wish: %v", err)
		}

		got, err := repo.Get(wish.ID())
		if err != nil {
			t.Fatalf("failed to get wish: %v", err)
		}
		if got.Title() != "Around the World" || got.Artist() != "Daft Punk" {
			t.Errorf("unexpected wish: %s / %s", got.Title(), got.Artist())
		}
		if got.Status() != models.WishPending {
			t.Errorf("expected pending status, got %s", got.Status())
		}
	})

	t.Run("Duplicate Song Rejected", func(t *testing.T) {
		dup := models.NewWish(0, event.ID(), "track-1", "Around the World")
		if err := repo.Create(dup); !errors.Is(err, shared.ErrDuplicateWish) {
			t.Errorf("expected ErrDuplicateWish, got %v", err)
		}
	})

	t.Run("Same Song Different Event", func(t *testing.T) {
		second := models.NewEvent(0, "EF34GH", "Club Night", owner.ID())
		if err := events.Create(second); err != nil {
			t.Fatalf("failed to create event: %v", err)
		}

		wish := models.NewWish(0, second.ID(), "track-1", "Around the World")
		if err := repo.Create(wish); err != nil {
			t.Errorf("same song in a different event should be allowed: %v", err)
		}
	})

	t.Run("Update Status", func(t *testing.T) {
		wish := models.NewWish(0, event.ID(), "track-2", "One More Time")
		if err := repo.Create(wish); err != nil {
			t.Fatalf("failed to create wish: %v", err)
		}

		wish.SetStatus(models.WishAccepted)
		if err := repo.Update(wish); err != nil {
			t.Fatalf("failed to update wish: %v", err)
		}

		got, err := repo.Get(wish.ID())
		if err != nil {
			t.Fatalf("failed to get wish: %v", err)
		}
		if got.Status() != models.WishAccepted {
			t.Errorf("expected accepted status, got %s", got.Status())
		}
	})

	t.Run("List With Status Filter", func(t *testing.T) {
		all, err := repo.List(map[string]any{"event_id": event.ID()})
		if err != nil {
			t.Fatalf("failed to list wishes: %v", err)
		}
		if len(all) != 2 {
			t.Errorf("expected 2 wishes for event, got %d", len(all))
		}

		accepted, err := repo.List(map[string]any{"event_id": event.ID(), "status": "accepted"})
		if err != nil {
			t.Fatalf("failed to list accepted wishes: %v", err)
		}
		if len(accepted) != 1 {
			t.Errorf("expected 1 accepted wish, got %d", len(accepted))
		}
	})

	t.Run("Unknown Wish", func(t *testing.T) {
		if _, err := repo.Get("missing"); !errors.Is(err, shared.ErrWishNotFound) {
			t.Errorf("expected ErrWishNotFound, got %v", err)
		}
	})
}
