package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/veqro/cueup/internal/shared"
)

// Search looks up tracks in the Spotify catalog.
//
// Public: attendees search without a session, so the app-level
// client-credentials token is used instead of any DJ's token.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		query = strings.TrimSpace(r.URL.Query().Get("q"))
	}
	if query == "" {
		writeError(w, http.StatusBadRequest, "missing_query", "search query is required")
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	tracks, err := h.spotify.SearchTracks(r.Context(), query, limit)
	if err != nil {
		h.logger.Error("search failed", "query", query, "error", err)
		h.stats.Errors.Add(1)
		writeError(w, http.StatusBadGateway, "search_failed", "spotify search failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"tracks": tracks})
}

type queueRequest struct {
	URI string `json:"uri"`
}

// Queue pushes a track into the DJ's active Spotify player.
//
// Requires a premium account and a usable refresh token. The broker resolves
// the access token, refreshing transparently when the cached one has aged
// out; a dead refresh token answers 401 so the frontend can trigger re-login.
func (h *Handlers) Queue(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	if !user.HasRefreshToken() {
		writeError(w, http.StatusUnauthorized, "spotify_auth_required", "spotify account not connected")
		return
	}

	if !user.IsPremium() {
		writeError(w, http.StatusForbidden, "premium_required", "queueing requires spotify premium")
		return
	}

	var req queueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.URI) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "track uri is required")
		return
	}

	accessToken, err := h.broker.EnsureAccessToken(r.Context(), user.ID(), envelope(user))
	if err != nil {
		h.logger.Warn("queue token resolution failed", "user_id", user.ID(), "error", err)
		writeError(w, http.StatusUnauthorized, "token_refresh_failed", "could not refresh spotify token")
		return
	}

	if err := h.spotify.QueueTrack(r.Context(), accessToken, req.URI); err != nil {
		if errors.Is(err, shared.ErrNoActiveDevice) {
			writeError(w, http.StatusNotFound, "no_active_device", "no active spotify device")
			return
		}
		h.logger.Error("queue failed", "user_id", user.ID(), "error", err)
		h.stats.Errors.Add(1)
		writeError(w, http.StatusBadGateway, "queue_failed", "could not queue track")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "track queued"})
}

// SpotifyMe proxies the caller's live Spotify profile.
//
// Only the cached access token is consulted; an expired cache entry answers
// 401 instead of silently spending a refresh on a profile read.
func (h *Handlers) SpotifyMe(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	accessToken, ok := h.cache.Get(user.ID())
	if !ok {
		writeError(w, http.StatusUnauthorized, "token_expired", "spotify token expired")
		return
	}

	profile, err := h.spotify.UserProfile(r.Context(), accessToken)
	if err != nil {
		h.stats.Errors.Add(1)
		writeError(w, http.StatusBadGateway, "profile_failed", "could not load spotify profile")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// Disconnect drops the stored refresh token and the cached access token.
//
// The session itself survives; the DJ stays logged in but must re-link
// Spotify before queueing again.
func (h *Handlers) Disconnect(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	user.ClearRefreshEnvelope()
	if err := h.users.Update(user); err != nil {
		h.stats.Errors.Add(1)
		writeError(w, http.StatusInternalServerError, "server_error", "could not disconnect spotify")
		return
	}

	h.broker.InvalidateUser(user.ID())
	h.logs.Add("info", "spotify disconnected: "+user.Username())

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "spotify disconnected"})
}
