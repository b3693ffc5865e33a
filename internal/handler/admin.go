package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/spillmate/support-platform/internal/middleware"
	"github.com/spillmate/support-platform/internal/model"
	"github.com/spillmate/support-platform/internal/service"
	"github.com/spillmate/support-platform/pkg/logger"
)

// AdminHandler handles the admin dashboard endpoints.
type AdminHandler struct {
	admin    *service.AdminService
	profiles *service.ProfileService
	logger   *logger.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(admin *service.AdminService, profiles *service.ProfileService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, profiles: profiles, logger: log}
}

// Stats handles GET /api/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to compute admin stats", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Users handles GET /api/admin/users
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.Users(r.Context())
	if err != nil {
		h.logger.Error("failed to list users", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch users")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// FlaggedContent handles GET /api/admin/flagged-content
func (h *AdminHandler) FlaggedContent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.admin.FlaggedContent(r.Context()))
}

// UpdateRole handles PUT /api/admin/users/role
func (h *AdminHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateUserID(req.UserID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := model.ParseProfileRole(req.Role); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.profiles.UpdateRole(r.Context(), req.UserID, req.Role); err != nil {
		h.logger.Error("failed to update user role", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update role")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
