package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const adminTokenTTL = 4 * time.Hour

type adminLoginRequest struct {
	Password string `json:"password"`
}

// AdminLogin exchanges the admin password for a short-lived bearer token.
//
// The password is checked against the bcrypt hash from the config file; no
// admin account exists in the database. Tokens are HS256 JWTs valid for four
// hours.
func (h *Handlers) AdminLogin(w http.ResponseWriter, r *http.Request) {
	if h.config.Security.AdminPasswordHash == "" || h.config.Security.AdminJWTSecret == "" {
		writeError(w, http.StatusServiceUnavailable, "admin_disabled", "admin access is not configured")
		return
	}

	var req adminLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "password is required")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.config.Security.AdminPasswordHash), []byte(req.Password)); err != nil {
		h.logs.Add("warn", "admin login rejected")
		h.logger.Warn("admin login rejected")
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "wrong password")
		return
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"admin": true,
		"iat":   now.Unix(),
		"exp":   now.Add(adminTokenTTL).Unix(),
	})

	signed, err := token.SignedString([]byte(h.config.Security.AdminJWTSecret))
	if err != nil {
		h.stats.Errors.Add(1)
		writeError(w, http.StatusInternalServerError, "server_error", "could not issue token")
		return
	}

	h.logs.Add("info", "admin login")
	writeJSON(w, http.StatusOK, map[string]any{
		"token":     signed,
		"expiresIn": int(adminTokenTTL.Seconds()),
	})
}

// requireAdmin guards a handler behind a valid admin bearer token.
func (h *Handlers) requireAdmin(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			writeError(w, http.StatusUnauthorized, "not_authenticated", "missing bearer token")
			return
		}

		token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(h.config.Security.AdminJWTSecret), nil
		})
		if err != nil || !token.Valid {
			writeError(w, http.StatusUnauthorized, "invalid_token", "invalid or expired token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || claims["admin"] != true {
			writeError(w, http.StatusForbidden, "access_denied", "not an admin token")
			return
		}

		next(w, r)
	})
}

// AdminLogs returns recent log entries, filtered by level.
func (h *Handlers) AdminLogs(w http.ResponseWriter, r *http.Request) {
	level := r.URL.Query().Get("level")

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, total := h.logs.Filter(level, limit)
	if entries == nil {
		entries = []LogEntry{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"logs":  entries,
		"total": total,
	})
}

// AdminStats returns service counters since startup.
func (h *Handlers) AdminStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"startTime":     h.stats.StartTime,
		"uptimeSeconds": int(h.stats.Uptime().Seconds()),
		"visitors":      h.stats.Visitors.Load(),
		"spotifyLogins": h.stats.SpotifyLogins.Load(),
		"eventsCreated": h.stats.EventsCreated.Load(),
		"songRequests":  h.stats.SongRequests.Load(),
		"errors":        h.stats.Errors.Load(),
	})
}

// AdminHealth reports process-level runtime details.
func (h *Handlers) AdminHealth(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"uptimeSeconds": int(h.stats.Uptime().Seconds()),
		"goroutines":    runtime.NumGoroutine(),
		"heapAllocMB":   mem.HeapAlloc / (1 << 20),
		"sessions":      h.sessions.Len(),
		"cachedTokens":  h.cache.Len(),
		"pendingStates": h.states.Len(),
		"retainedLogs":  h.logs.Len(),
	})
}

// AdminClearCache evicts every cached access token and trims the log buffer.
//
// Refresh tokens in the database are untouched; affected DJs transparently
// refresh on their next Spotify call.
func (h *Handlers) AdminClearCache(w http.ResponseWriter, r *http.Request) {
	cleared := h.cache.Len()
	h.cache.Clear()
	h.logs.Trim(100)
	h.logs.Add("info", "token cache cleared by admin")

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"cleared": cleared,
	})
}
