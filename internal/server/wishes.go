package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/veqro/cueup/internal/models"
	"github.com/veqro/cueup/internal/shared"
)

// ListWishes returns every wish for an event, optionally filtered by status.
//
// Public: the wish page polls this to show the request list.
func (h *Handlers) ListWishes(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetByCode(r.PathValue("code"))
	if err != nil {
		writeError(w, http.StatusNotFound, "event_not_found", "event not found")
		return
	}

	criteria := map[string]any{"event_id": event.ID()}
	if status := r.URL.Query().Get("status"); status != "" {
		if !models.WishStatus(status).IsValid() {
			writeError(w, http.StatusBadRequest, "invalid_request", "unknown status filter")
			return
		}
		criteria["status"] = status
	}

	wishes, err := h.wishes.List(criteria)
	if err != nil {
		h.stats.Errors.Add(1)
		writeError(w, http.StatusInternalServerError, "server_error", "could not list wishes")
		return
	}

	responses := make([]wishResponse, 0, len(wishes))
	for _, wish := range wishes {
		responses = append(responses, newWishResponse(wish))
	}

	writeJSON(w, http.StatusOK, map[string]any{"wishes": responses})
}

type createWishRequest struct {
	SongID     string `json:"songId"`
	Title      string `json:"songName"`
	Artist     string `json:"artistName"`
	Album      string `json:"albumName"`
	CoverURL   string `json:"albumCover"`
	SpotifyURI string `json:"spotifyUri"`
}

// CreateWish records an attendee's song request against an event.
//
// Public by design: attendees never log in. Each song can be requested once
// per event; a second request for the same songId answers 400.
func (h *Handlers) CreateWish(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetByCode(r.PathValue("code"))
	if err != nil {
		writeError(w, http.StatusNotFound, "event_not_found", "event not found")
		return
	}

	var req createWishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	req.SongID = strings.TrimSpace(req.SongID)
	req.Title = strings.TrimSpace(req.Title)
	if req.SongID == "" || req.Title == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "songId and songName are required")
		return
	}

	wish := models.NewWish(0, event.ID(), req.SongID, req.Title)
	wish.SetArtist(req.Artist)
	wish.SetAlbum(req.Album)
	wish.SetCoverURL(req.CoverURL)
	wish.SetSpotifyURI(req.SpotifyURI)

	if err := h.wishes.Create(wish); err != nil {
		if errors.Is(err, shared.ErrDuplicateWish) {
			writeError(w, http.StatusBadRequest, "duplicate_wish", "this song was already requested")
			return
		}
		h.logger.Error("wish create failed", "event_id", event.ID(), "error", err)
		h.stats.Errors.Add(1)
		writeError(w, http.StatusInternalServerError, "server_error", "could not save wish")
		return
	}

	h.stats.SongRequests.Add(1)
	h.logs.Add("info", "song requested: "+req.Title)

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"wish":    newWishResponse(wish),
	})
}

type updateWishStatusRequest struct {
	Status string `json:"status"`
}

// UpdateWishStatus lets the event owner accept or reject a wish.
//
// The wish must belong to the named event; a wish ID from another event
// answers 404 so IDs cannot be moderated across events.
func (h *Handlers) UpdateWishStatus(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	event, err := h.events.GetByCode(r.PathValue("code"))
	if err != nil {
		writeError(w, http.StatusNotFound, "event_not_found", "event not found")
		return
	}

	if event.UserID() != session.UserID {
		writeError(w, http.StatusForbidden, "access_denied", "not the event owner")
		return
	}

	var req updateWishStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	status := models.WishStatus(req.Status)
	if !status.IsValid() {
		writeError(w, http.StatusBadRequest, "invalid_request", "status must be pending, accepted, or rejected")
		return
	}

	wish, err := h.wishes.Get(r.PathValue("id"))
	if err != nil || wish.EventID() != event.ID() {
		writeError(w, http.StatusNotFound, "wish_not_found", "wish not found")
		return
	}

	wish.SetStatus(status)
	if err := h.wishes.Update(wish); err != nil {
		h.stats.Errors.Add(1)
		writeError(w, http.StatusInternalServerError, "server_error", "could not update wish")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"wish":    newWishResponse(wish),
	})
}
