// Package service provides business logic for the support platform.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spillmate/support-platform/internal/model"
	"github.com/spillmate/support-platform/internal/store"
	"github.com/spillmate/support-platform/pkg/logger"
)

// ErrProfileNotFound is returned when no profile row exists for a user.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileService handles profile operations.
type ProfileService struct {
	store  *store.SQLiteStore
	logger *logger.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(st *store.SQLiteStore, log *logger.Logger) *ProfileService {
	return &ProfileService{store: st, logger: log}
}

// Get retrieves a profile by user id.
func (s *ProfileService) Get(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.store.GetProfile(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

// Create inserts a profile row. Profiles are created lazily on a user's
// first authenticated session; the role defaults to free_user.
func (s *ProfileService) Create(ctx context.Context, req *model.CreateProfileRequest) (*model.Profile, error) {
	role := model.RoleFreeUser
	if req.Role != "" {
		parsed, err := model.ParseProfileRole(req.Role)
		if err != nil {
			return nil, err
		}
		role = parsed
	}

	profile, err := s.store.CreateProfile(req.ID, req.Email, role, req.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	s.logger.Info("profile created",
		zap.String("user_id", profile.ID),
		zap.String("role", string(profile.Role)))
	return profile, nil
}

// UpdateRole changes a user's subscription role. Admin-only at the API
// boundary.
func (s *ProfileService) UpdateRole(ctx context.Context, userID string, rawRole string) error {
	role, err := model.ParseProfileRole(rawRole)
	if err != nil {
		return err
	}
	if err := s.store.UpdateProfileRole(userID, role); err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}

	s.logger.Info("profile role updated",
		zap.String("user_id", userID),
		zap.String("role", string(role)))
	return nil
}
