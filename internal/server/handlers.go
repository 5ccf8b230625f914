package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/veqro/cueup/internal/auth"
	"github.com/veqro/cueup/internal/models"
	"github.com/veqro/cueup/internal/repositories"
	"github.com/veqro/cueup/internal/services"
	"github.com/veqro/cueup/internal/shared"
)

// Handlers groups every route handler with its injected dependencies.
//
// Nothing here is global: cache, state store, and session store are owned by
// the caller and passed in, so tests construct an isolated set per case.
type Handlers struct {
	logger   *log.Logger
	config   *shared.Config
	users    *repositories.UserRepository
	events   *repositories.EventRepository
	wishes   *repositories.WishRepository
	spotify  *services.SpotifyService
	broker   *auth.Broker
	cipher   *auth.TokenCipher
	cache    *auth.TokenCache
	sessions *auth.SessionStore
	states   *auth.StateStore
	logs     *LogBuffer
	stats    *Stats
}

// HandlerOpts contains the dependencies for constructing [Handlers].
type HandlerOpts struct {
	Logger   *log.Logger
	Config   *shared.Config
	Users    *repositories.UserRepository
	Events   *repositories.EventRepository
	Wishes   *repositories.WishRepository
	Spotify  *services.SpotifyService
	Broker   *auth.Broker
	Cipher   *auth.TokenCipher
	Cache    *auth.TokenCache
	Sessions *auth.SessionStore
	States   *auth.StateStore
	Logs     *LogBuffer
	Stats    *Stats
}

// NewHandlers creates the handler set from its dependencies.
func NewHandlers(opts HandlerOpts) *Handlers {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Logs == nil {
		opts.Logs = NewLogBuffer(maxRetainedLogs)
	}
	if opts.Stats == nil {
		opts.Stats = NewStats()
	}

	return &Handlers{
		logger:   opts.Logger,
		config:   opts.Config,
		users:    opts.Users,
		events:   opts.Events,
		wishes:   opts.Wishes,
		spotify:  opts.Spotify,
		broker:   opts.Broker,
		cipher:   opts.Cipher,
		cache:    opts.Cache,
		sessions: opts.Sessions,
		states:   opts.States,
		logs:     opts.Logs,
		stats:    opts.Stats,
	}
}

// RegisterRoutes attaches every route to the router.
func (h *Handlers) RegisterRoutes(r Router) {
	// CORS preflight catch-all; the CORS middleware answers before this runs.
	r.Handle(http.MethodOptions, "/", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	// OAuth flow
	r.Handle(http.MethodGet, "/login", http.HandlerFunc(h.Login))
	r.Handle(http.MethodGet, "/callback", http.HandlerFunc(h.Callback))

	// Account
	r.Handle(http.MethodGet, "/auth/status", http.HandlerFunc(h.AuthStatus))
	r.Handle(http.MethodGet, "/auth/check", http.HandlerFunc(h.AuthCheck))
	r.Handle(http.MethodGet, "/auth/my-events", http.HandlerFunc(h.ListEvents))
	r.Handle(http.MethodPost, "/logout", http.HandlerFunc(h.Logout))
	r.Handle(http.MethodPost, "/auth/logout", http.HandlerFunc(h.Logout))
	r.Handle(http.MethodDelete, "/auth/delete-account", http.HandlerFunc(h.DeleteAccount))

	// Events
	r.Handle(http.MethodGet, "/api/events", http.HandlerFunc(h.ListEvents))
	r.Handle(http.MethodPost, "/api/events", http.HandlerFunc(h.CreateEvent))
	r.Handle(http.MethodGet, "/api/event/{code}", http.HandlerFunc(h.GetEvent))
	r.Handle(http.MethodDelete, "/api/event/{code}", http.HandlerFunc(h.DeleteEvent))
	r.Handle(http.MethodGet, "/api/event/{code}/check-owner", http.HandlerFunc(h.CheckOwner))

	// Wishes
	r.Handle(http.MethodGet, "/api/event/{code}/wishes", http.HandlerFunc(h.ListWishes))
	r.Handle(http.MethodPost, "/api/wishes/{code}", http.HandlerFunc(h.CreateWish))
	r.Handle(http.MethodPut, "/api/event/{code}/wishes/{id}/status", http.HandlerFunc(h.UpdateWishStatus))

	// Spotify
	r.Handle(http.MethodGet, "/spotify/search", http.HandlerFunc(h.Search))
	r.Handle(http.MethodPost, "/spotify/queue", http.HandlerFunc(h.Queue))
	r.Handle(http.MethodGet, "/spotify/me", http.HandlerFunc(h.SpotifyMe))
	r.Handle(http.MethodPost, "/spotify/disconnect", http.HandlerFunc(h.Disconnect))

	// Admin
	r.Handle(http.MethodPost, "/admin/login", http.HandlerFunc(h.AdminLogin))
	r.Handle(http.MethodGet, "/admin/logs", h.requireAdmin(h.AdminLogs))
	r.Handle(http.MethodGet, "/admin/stats", h.requireAdmin(h.AdminStats))
	r.Handle(http.MethodGet, "/admin/health", h.requireAdmin(h.AdminHealth))
	r.Handle(http.MethodPost, "/admin/cache/clear", h.requireAdmin(h.AdminClearCache))
}

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError emits the {"error": code, "message": human} payload every route uses.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}

// requireSession resolves the request's session or writes a 401.
func (h *Handlers) requireSession(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	session, ok := SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not_authenticated", "not logged in")
		return auth.Session{}, false
	}
	return session, true
}

// currentUser resolves the session's user record or writes a 401/404.
func (h *Handlers) currentUser(w http.ResponseWriter, r *http.Request) (*models.User, auth.Session, bool) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return nil, auth.Session{}, false
	}

	user, err := h.users.Get(session.UserID)
	if err != nil {
		// Session points at a deleted user; treat as logged out.
		h.sessions.Destroy(session.ID)
		http.SetCookie(w, h.sessions.ClearCookie())
		writeError(w, http.StatusUnauthorized, "not_authenticated", "not logged in")
		return nil, auth.Session{}, false
	}

	return user, session, true
}

// envelope builds the encrypted refresh token envelope from a user record.
func envelope(user *models.User) auth.EncryptedToken {
	return auth.EncryptedToken{Ciphertext: user.RefreshCiphertext(), IV: user.RefreshIV()}
}

type eventResponse struct {
	ID        string    `json:"id"`
	EventCode string    `json:"eventCode"`
	Name      string    `json:"name"`
	UserID    string    `json:"userId"`
	WishURL   string    `json:"wishUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

func newEventResponse(event *models.Event) eventResponse {
	return eventResponse{
		ID:        event.ID(),
		EventCode: event.Code(),
		Name:      event.Name(),
		UserID:    event.UserID(),
		WishURL:   event.WishURL(),
		CreatedAt: event.CreatedAt(),
	}
}

type wishResponse struct {
	ID          string    `json:"id"`
	SongID      string    `json:"songId"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	Album       string    `json:"album,omitempty"`
	CoverURL    string    `json:"coverUrl"`
	SpotifyURI  string    `json:"spotifyUri"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	LastUpdated time.Time `json:"lastUpdated"`
}

func newWishResponse(wish *models.Wish) wishResponse {
	return wishResponse{
		ID:          wish.ID(),
		SongID:      wish.SongID(),
		Title:       wish.Title(),
		Artist:      wish.Artist(),
		Album:       wish.Album(),
		CoverURL:    wish.CoverURL(),
		SpotifyURI:  wish.SpotifyURI(),
		Status:      string(wish.Status()),
		Timestamp:   wish.CreatedAt(),
		LastUpdated: wish.UpdatedAt(),
	}
}
