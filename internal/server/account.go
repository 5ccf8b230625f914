package server

import (
	"net/http"
)

type authStatusResponse struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	Username        string `json:"username,omitempty"`
	SpotifyUsername string `json:"spotifyUsername,omitempty"`
	SpotifyID       string `json:"spotifyId,omitempty"`
	IsPremium       bool   `json:"isPremium"`
}

// AuthStatus reports whether the caller has a working Spotify connection.
//
// Every failure path degrades to a logged-out payload with a 200 status so
// the frontend renders the login button instead of an error page. A session
// whose refresh token no longer works is destroyed here, which forces a clean
// re-login on the next click.
func (h *Handlers) AuthStatus(w http.ResponseWriter, r *http.Request) {
	loggedOut := authStatusResponse{IsAuthenticated: false}

	session, ok := SessionFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, loggedOut)
		return
	}

	user, err := h.users.Get(session.UserID)
	if err != nil {
		h.sessions.Destroy(session.ID)
		http.SetCookie(w, h.sessions.ClearCookie())
		writeJSON(w, http.StatusOK, loggedOut)
		return
	}

	if _, err := h.broker.EnsureAccessToken(r.Context(), user.ID(), envelope(user)); err != nil {
		h.logger.Debug("status token check failed", "user_id", user.ID(), "error", err)
		h.sessions.Destroy(session.ID)
		http.SetCookie(w, h.sessions.ClearCookie())
		writeJSON(w, http.StatusOK, loggedOut)
		return
	}

	writeJSON(w, http.StatusOK, authStatusResponse{
		IsAuthenticated: true,
		Username:        user.Username(),
		SpotifyUsername: user.SpotifyName(),
		SpotifyID:       user.SpotifyID(),
		IsPremium:       user.IsPremium(),
	})
}

// AuthCheck is the strict variant of AuthStatus used by protected pages.
//
// Unlike AuthStatus it answers 401 when the caller is not usable as a
// Spotify-connected account.
func (h *Handlers) AuthCheck(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	if !user.HasRefreshToken() {
		writeError(w, http.StatusUnauthorized, "spotify_auth_required", "spotify account not connected")
		return
	}

	writeJSON(w, http.StatusOK, authStatusResponse{
		IsAuthenticated: true,
		Username:        user.Username(),
		SpotifyUsername: user.SpotifyName(),
		SpotifyID:       user.SpotifyID(),
		IsPremium:       user.IsPremium(),
	})
}

// Logout destroys the caller's session and evicts the cached access token.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if session, ok := SessionFromContext(r.Context()); ok {
		h.broker.InvalidateUser(session.UserID)
		h.sessions.Destroy(session.ID)
	}

	http.SetCookie(w, h.sessions.ClearCookie())
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// DeleteAccount removes the caller's account, events, and every trace of the
// stored refresh token.
//
// Events are soft-deleted first so their wishes become unreachable through
// the public lookup; then the user row is soft-deleted and the cached token
// and all sessions are dropped.
func (h *Handlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user, _, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	removed, err := h.events.DeleteByUser(user.ID())
	if err != nil {
		h.logger.Error("event cleanup failed", "user_id", user.ID(), "error", err)
		h.stats.Errors.Add(1)
		writeError(w, http.StatusInternalServerError, "server_error", "could not delete account")
		return
	}

	if err := h.users.Delete(user.ID()); err != nil {
		h.logger.Error("account delete failed", "user_id", user.ID(), "error", err)
		h.stats.Errors.Add(1)
		writeError(w, http.StatusInternalServerError, "server_error", "could not delete account")
		return
	}

	h.broker.InvalidateUser(user.ID())
	h.sessions.DestroyUser(user.ID())

	http.SetCookie(w, h.sessions.ClearCookie())
	h.logs.Add("info", "account deleted: "+user.Username())
	h.logger.Info("account deleted", "user_id", user.ID(), "events_removed", removed)

	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "account deleted",
		"eventsRemoved": removed,
	})
}
