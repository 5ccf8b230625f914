package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/veqro/cueup/internal/shared"
)

func newTestService(t *testing.T) *SpotifyService {
	t.Helper()

	srv, err := NewSpotifyService(map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	return srv
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			srv := newTestService(t)
			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_secret": "s"})
			if err == nil {
				t.Error("expected error for missing client_id")
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_id": "c"})
			if err == nil {
				t.Error("expected error for missing client_secret")
			}
		})

		t.Run("Default Redirect URI", func(t *testing.T) {
			srv := newTestService(t)
			if srv.config.RedirectURL != "http://localhost:8000/callback" {
				t.Errorf("expected default redirect URI, got %s", srv.config.RedirectURL)
			}
		})
	})

	t.Run("GetAuthURL", func(t *testing.T) {
		srv := newTestService(t)

		authURL := srv.GetAuthURL("test_state")
		if !strings.Contains(authURL, "accounts.spotify.com") {
			t.Error("auth URL should contain Spotify domain")
		}
		if !strings.Contains(authURL, "test_state") {
			t.Error("auth URL should contain state")
		}
		if !strings.Contains(authURL, "show_dialog=true") {
			t.Error("auth URL should force the consent dialog")
		}
		if !strings.Contains(authURL, "user-modify-playback-state") {
			t.Error("auth URL should request the playback scope")
		}
	})

	t.Run("IsPremium", func(t *testing.T) {
		premium := &SpotifyUser{Product: "premium"}
		if !premium.IsPremium() {
			t.Error("expected premium account to report premium")
		}

		free := &SpotifyUser{Product: "free"}
		if free.IsPremium() {
			t.Error("expected free account to report non-premium")
		}
	})

	t.Run("UserProfile", func(t *testing.T) {
		var gotAuth string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			if r.URL.Path != "/me" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"id":"user-1","display_name":"Alex","product":"premium"}`))
		}))
		defer ts.Close()

		srv := newTestService(t)
		srv.baseURL = ts.URL
		srv.httpClient = ts.Client()

		profile, err := srv.UserProfile(context.Background(), "access-token")
		if err != nil {
			t.Fatalf("failed to fetch profile: %v", err)
		}
		if gotAuth != "Bearer access-token" {
			t.Errorf("expected bearer header, got %q", gotAuth)
		}
		if profile.ID != "user-1" || !profile.IsPremium() {
			t.Errorf("unexpected profile: %+v", profile)
		}
	})

	t.Run("QueueTrack", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if got := r.URL.Query().Get("uri"); got != "spotify:track:abc" {
					t.Errorf("unexpected uri %q", got)
				}
				w.WriteHeader(http.StatusNoContent)
			}))
			defer ts.Close()

			srv := newTestService(t)
			srv.baseURL = ts.URL
			srv.httpClient = ts.Client()

			if err := srv.QueueTrack(context.Background(), "token", "spotify:track:abc"); err != nil {
				t.Errorf("expected queue to succeed, got %v", err)
			}
		})

		t.Run("No Active Device", func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer ts.Close()

			srv := newTestService(t)
			srv.baseURL = ts.URL
			srv.httpClient = ts.Client()

			err := srv.QueueTrack(context.Background(), "token", "spotify:track:abc")
			if !errors.Is(err, shared.ErrNoActiveDevice) {
				t.Errorf("expected ErrNoActiveDevice, got %v", err)
			}
		})

		t.Run("Server Error", func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}))
			defer ts.Close()

			srv := newTestService(t)
			srv.baseURL = ts.URL
			srv.httpClient = ts.Client()

			err := srv.QueueTrack(context.Background(), "token", "spotify:track:abc")
			if err == nil || errors.Is(err, shared.ErrNoActiveDevice) {
				t.Errorf("expected generic error for 502, got %v", err)
			}
		})
	})
}
