package server

import (
	"net/http"
	"time"

	"github.com/veqro/cueup/internal/models"
	"github.com/veqro/cueup/internal/services"
)

// Login starts the Spotify authorization flow.
//
// A state nonce is issued and bound to the caller's session when one exists;
// anonymous browsers get a nonce bound to an empty session ID. The browser is
// then redirected to the provider's consent screen.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	sessionID := ""
	if session, ok := SessionFromContext(r.Context()); ok {
		sessionID = session.ID
	}

	nonce, err := h.states.Issue(sessionID)
	if err != nil {
		h.logger.Error("state issue failed", "error", err)
		h.stats.Errors.Add(1)
		writeError(w, http.StatusInternalServerError, "server_error", "could not start login")
		return
	}

	http.Redirect(w, r, h.spotify.GetAuthURL(nonce), http.StatusFound)
}

// Callback completes the Spotify authorization flow.
//
// The state nonce must be one this server issued and not yet consumed;
// anything else aborts the flow before the code exchange. On success the user
// record is created or updated with a freshly encrypted refresh token, the
// access token is cached, and a session cookie is set before redirecting back
// to the frontend.
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if errParam := q.Get("error"); errParam != "" {
		h.logger.Warn("authorization denied", "error", errParam)
		h.redirectFrontend(w, r, "/spotify-login.html?error=access_denied")
		return
	}

	code := q.Get("code")
	state := q.Get("state")
	if code == "" || state == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing code or state")
		return
	}

	boundSession, ok := h.states.Consume(state)
	if !ok {
		h.logger.Warn("state validation failed", "state_len", len(state))
		h.stats.Errors.Add(1)
		h.redirectFrontend(w, r, "/spotify-login.html?error=state_mismatch")
		return
	}

	// When the nonce was bound to a session, the callback must arrive from
	// that same session. An empty binding means the flow started anonymously.
	if boundSession != "" {
		if current, ok := SessionFromContext(r.Context()); ok && current.ID != boundSession {
			h.logger.Warn("state bound to a different session")
			h.redirectFrontend(w, r, "/spotify-login.html?error=state_mismatch")
			return
		}
	}

	token, err := h.spotify.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("code exchange failed", "error", err)
		h.stats.Errors.Add(1)
		h.redirectFrontend(w, r, "/spotify-login.html?error=auth_failed")
		return
	}

	profile, err := h.spotify.UserProfile(r.Context(), token.AccessToken)
	if err != nil {
		h.logger.Error("profile fetch failed", "error", err)
		h.stats.Errors.Add(1)
		h.redirectFrontend(w, r, "/spotify-login.html?error=auth_failed")
		return
	}

	user, err := h.upsertUser(profile, token.RefreshToken)
	if err != nil {
		h.logger.Error("user upsert failed", "error", err)
		h.stats.Errors.Add(1)
		h.redirectFrontend(w, r, "/spotify-login.html?error=auth_failed")
		return
	}

	expiresIn := time.Until(token.Expiry)
	if expiresIn <= 0 {
		expiresIn = time.Hour
	}
	h.broker.StoreToken(user.ID(), token.AccessToken, expiresIn)

	session, err := h.sessions.Create(user.ID(), user.Username())
	if err != nil {
		h.logger.Error("session create failed", "error", err)
		h.stats.Errors.Add(1)
		writeError(w, http.StatusInternalServerError, "server_error", "could not create session")
		return
	}
	http.SetCookie(w, h.sessions.Cookie(session))

	h.stats.SpotifyLogins.Add(1)
	h.logs.Add("info", "spotify login: "+user.Username())
	h.logger.Info("spotify login", "user_id", user.ID(), "premium", user.IsPremium())

	h.redirectFrontend(w, r, "/spotify-success.html")
}

// upsertUser creates or refreshes the user record behind a Spotify profile.
//
// The refresh token is re-encrypted on every login when the provider sends
// one; a login without a refresh token keeps the stored envelope.
func (h *Handlers) upsertUser(profile *services.SpotifyUser, refreshToken string) (*models.User, error) {
	username := profile.DisplayName
	if username == "" {
		username = "spotify_user_" + profile.ID
	}

	user, err := h.users.GetBySpotifyID(profile.ID)
	if err != nil {
		user = models.NewUser(0, username, profile.ID)
	}

	user.SetUsername(username)
	user.SetSpotifyName(profile.DisplayName)
	user.SetPremium(profile.IsPremium())
	if refreshToken != "" {
		env := h.cipher.Encrypt(refreshToken)
		user.SetRefreshEnvelope(env.Ciphertext, env.IV)
	}

	if user.ID() == "" {
		if err := h.users.Create(user); err != nil {
			return nil, err
		}
		return user, nil
	}

	if err := h.users.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// redirectFrontend sends the browser to a path on the configured frontend.
func (h *Handlers) redirectFrontend(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, h.config.Server.FrontendURL+path, http.StatusFound)
}
