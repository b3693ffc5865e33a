package model

import (
	"fmt"
	"time"
)

// ProfileRole is the subscription tier of a user.
type ProfileRole string

const (
	RoleFreeUser    ProfileRole = "free_user"
	RolePremiumUser ProfileRole = "premium_user"
	RoleAdmin       ProfileRole = "admin"
)

// ParseProfileRole validates a raw role string against the closed enum.
func ParseProfileRole(s string) (ProfileRole, error) {
	switch ProfileRole(s) {
	case RoleFreeUser, RolePremiumUser, RoleAdmin:
		return ProfileRole(s), nil
	default:
		return "", fmt.Errorf("invalid profile role %q", s)
	}
}

// Profile holds persisted per-user metadata. The ID matches the
// identity provider's user id; rows are created lazily on first
// authenticated session and never deleted.
type Profile struct {
	ID          string      `json:"id"`
	Email       string      `json:"email"`
	Role        ProfileRole `json:"role"`
	DisplayName string      `json:"display_name,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// CreateProfileRequest is the request body for POST /api/profile.
type CreateProfileRequest struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Role        string `json:"role,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// UpdateRoleRequest is the request body for PUT /api/admin/users/role.
type UpdateRoleRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}
