// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/spillmate/support-platform/internal/middleware"
	"github.com/spillmate/support-platform/internal/model"
	"github.com/spillmate/support-platform/internal/service"
	"github.com/spillmate/support-platform/pkg/logger"
)

// ProfileHandler handles profile endpoints.
type ProfileHandler struct {
	service *service.ProfileService
	logger  *logger.Logger
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(svc *service.ProfileService, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{service: svc, logger: log}
}

// Get handles GET /api/profile?user_id=<id>
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := resolveUserID(r, r.URL.Query().Get("user_id"))
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	profile, err := h.service.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		h.logger.Error("failed to fetch profile", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch profile")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// Create handles POST /api/profile
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ID == "" {
		req.ID = middleware.GetUserID(r.Context())
	}
	if req.Email == "" {
		req.Email = middleware.GetEmail(r.Context())
	}
	if _, err := resolveUserID(r, req.ID); err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}
	if err := middleware.ValidateUserID(req.ID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateEmail(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create profile", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create profile")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}
