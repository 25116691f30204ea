package handlers

import (
	"net/http"
	"time"

	"github.com/techzara/platform/internal/services"
	"github.com/techzara/platform/types"
)

// PresenceHandler provides HTTP handlers for user attendance.
type PresenceHandler struct {
	presenceService *services.PresenceService
}

func NewPresenceHandler(presenceService *services.PresenceService) *PresenceHandler {
	return &PresenceHandler{presenceService: presenceService}
}

// PresenceRequest is the payload accepted when recording a presence.
type PresenceRequest struct {
	CheckedInAt  *time.Time `json:"checkedInAt"`
	CheckedOutAt *time.Time `json:"checkedOutAt"`
	Note         *string    `json:"note"`
}

func (h *PresenceHandler) ListPresences(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	presences, err := h.presenceService.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err, "failed to list presences")
		return
	}

	writeJSON(w, http.StatusOK, presences)
}

func (h *PresenceHandler) AddPresence(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req PresenceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	presence := &types.Presence{CheckedOutAt: req.CheckedOutAt, Note: req.Note}
	if req.CheckedInAt != nil {
		presence.CheckedInAt = *req.CheckedInAt
	}

	_, created, err := h.presenceService.Add(r.Context(), userID, presence)
	if err != nil {
		writeServiceError(w, r, err, "failed to add presence")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *PresenceHandler) RemovePresence(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	presenceID, err := parseIDParam(r, "presenceID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.presenceService.Remove(r.Context(), userID, presenceID); err != nil {
		writeServiceError(w, r, err, "failed to remove presence")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
