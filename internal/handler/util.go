package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/spillmate/support-platform/internal/middleware"
	"github.com/spillmate/support-platform/internal/model"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

var errUserMismatch = errors.New("user_id does not match authenticated user")

// resolveUserID returns the user id a request may act on. The id named
// in the request must match the authenticated subject; admins may act
// on any user.
func resolveUserID(r *http.Request, requested string) (string, error) {
	authed := middleware.GetUserID(r.Context())
	if requested == "" || requested == authed {
		return authed, nil
	}
	if middleware.GetRole(r.Context()) == model.RoleAdmin {
		return requested, nil
	}
	return "", errUserMismatch
}
