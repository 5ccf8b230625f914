package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/veqro/cueup/internal/models"
	"github.com/veqro/cueup/internal/shared"
)

// ListEvents returns every event owned by the logged-in DJ.
func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	events, err := h.events.List(map[string]any{"user_id": session.UserID})
	if err != nil {
		h.logger.Error("event list failed", "user_id", session.UserID, "error", err)
		h.stats.Errors.Add(1)
		writeError(w, http.StatusInternalServerError, "server_error", "could not list events")
		return
	}

	responses := make([]eventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, newEventResponse(event))
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": responses})
}

type createEventRequest struct {
	Name      string `json:"name"`
	EventCode string `json:"eventCode"`
}

// CreateEvent creates a new event for the logged-in DJ.
//
// The event code is client-supplied when present and generated otherwise.
// A collision with an existing code fails the insert and reports 409.
func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "event name is required")
		return
	}

	code := strings.ToUpper(strings.TrimSpace(req.EventCode))
	if code == "" {
		generated, err := shared.RandomEventCode()
		if err != nil {
			h.stats.Errors.Add(1)
			writeError(w, http.StatusInternalServerError, "server_error", "could not generate event code")
			return
		}
		code = generated
	}

	event := models.NewEvent(0, code, req.Name, session.UserID)
	event.SetWishURL(h.config.Server.FrontendURL + "/userwish?event=" + code)

	if err := h.events.Create(event); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			writeError(w, http.StatusConflict, "code_taken", "event code already in use")
			return
		}
		h.logger.Error("event create failed", "user_id", session.UserID, "error", err)
		h.stats.Errors.Add(1)
		writeError(w, http.StatusInternalServerError, "server_error", "could not create event")
		return
	}

	h.stats.EventsCreated.Add(1)
	h.logs.Add("info", "event created: "+code)
	h.logger.Info("event created", "code", code, "user_id", session.UserID)

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"event":   newEventResponse(event),
	})
}

// GetEvent returns public event details by code.
//
// No session is required; attendees hit this from the wish page.
func (h *Handlers) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetByCode(r.PathValue("code"))
	if err != nil {
		if errors.Is(err, shared.ErrEventNotFound) {
			writeError(w, http.StatusNotFound, "event_not_found", "event not found")
			return
		}
		h.stats.Errors.Add(1)
		writeError(w, http.StatusInternalServerError, "server_error", "could not load event")
		return
	}

	// Every attendee page load resolves the event first.
	h.stats.Visitors.Add(1)
	writeJSON(w, http.StatusOK, newEventResponse(event))
}

// DeleteEvent removes an event owned by the logged-in DJ.
//
// Ownership failures answer 404 rather than 403 so event codes cannot be
// probed by other logged-in users.
func (h *Handlers) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	session, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	event, err := h.events.GetByCode(r.PathValue("code"))
	if err != nil || event.UserID() != session.UserID {
		writeError(w, http.StatusNotFound, "event_not_found", "event not found")
		return
	}

	if err := h.events.Delete(event.ID()); err != nil {
		h.logger.Error("event delete failed", "event_id", event.ID(), "error", err)
		h.stats.Errors.Add(1)
		writeError(w, http.StatusInternalServerError, "server_error", "could not delete event")
		return
	}

	h.logs.Add("info", "event deleted: "+event.Code())
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "event deleted"})
}

// CheckOwner verifies that the logged-in DJ owns the event.
//
// The dashboard calls this before rendering moderation controls.
func (h *Handlers) CheckOwner(w http.ResponseWriter, r *http.Request) {
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

	writeJSON(w, http.StatusOK, map[string]any{
		"isOwner":   true,
		"title":     event.Name(),
		"eventCode": event.Code(),
	})
}
