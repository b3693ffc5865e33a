package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/spillmate/support-platform/internal/model"
	"github.com/spillmate/support-platform/internal/service"
	"github.com/spillmate/support-platform/pkg/logger"
)

// MoodHandler handles mood log endpoints.
type MoodHandler struct {
	service *service.MoodService
	logger  *logger.Logger
}

// NewMoodHandler creates a new mood handler.
func NewMoodHandler(svc *service.MoodService, log *logger.Logger) *MoodHandler {
	return &MoodHandler{service: svc, logger: log}
}

// Log handles POST /api/mood
func (h *MoodHandler) Log(w http.ResponseWriter, r *http.Request) {
	var req model.LogMoodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, err := resolveUserID(r, req.UserID)
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	req.UserID = userID

	if _, err := h.service.Log(r.Context(), &req); err != nil {
		if errors.Is(err, model.ErrMoodRatingOutOfRange) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to log mood", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to log mood")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// History handles GET /api/mood?user_id=<id>
func (h *MoodHandler) History(w http.ResponseWriter, r *http.Request) {
	userID, err := resolveUserID(r, r.URL.Query().Get("user_id"))
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	entries, err := h.service.History(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to fetch mood history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch mood logs")
		return
	}

	writeJSON(w, http.StatusOK, entries)
}
