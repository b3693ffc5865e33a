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

// ConversationHandler handles conversation endpoints.
type ConversationHandler struct {
	service *service.ChatService
	logger  *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(svc *service.ChatService, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{service: svc, logger: log}
}

// List handles GET /api/conversations?user_id=<id>
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := resolveUserID(r, r.URL.Query().Get("user_id"))
	if err != nil {
		writeError(w, http.StatusForbidden, err.Error())
		return
	}

	conversations, err := h.service.ListConversations(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list conversations", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to fetch conversations")
		return
	}

	writeJSON(w, http.StatusOK, conversations)
}

// Create handles POST /api/conversations
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateConversationRequest
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

	if err := middleware.ValidateTitle(req.Title); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.service.CreateConversation(r.Context(), &req)
	if err != nil {
		if err == model.ErrMoodRatingOutOfRange {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to create conversation", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create conversation")
		return
	}

	writeJSON(w, http.StatusOK, conv)
}
