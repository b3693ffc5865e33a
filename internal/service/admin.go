package service

import (
	"context"
	"fmt"

	"github.com/spillmate/support-platform/internal/model"
	"github.com/spillmate/support-platform/internal/store"
	"github.com/spillmate/support-platform/pkg/logger"
)

// AdminService handles admin dashboard operations.
type AdminService struct {
	store  *store.SQLiteStore
	logger *logger.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(st *store.SQLiteStore, log *logger.Logger) *AdminService {
	return &AdminService{store: st, logger: log}
}

// Stats returns platform-wide counters. Active users are estimated at
// 30% of the total until real session tracking lands; flagged content
// is a placeholder for the moderation pipeline.
func (s *AdminService) Stats(ctx context.Context) (*model.AdminStats, error) {
	totalUsers, totalConversations, averageMood, err := s.store.Stats()
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}

	return &model.AdminStats{
		TotalUsers:         totalUsers,
		ActiveUsers:        totalUsers * 3 / 10,
		TotalConversations: totalConversations,
		FlaggedContent:     0,
		AverageMood:        averageMood,
	}, nil
}

// Users returns every profile with its conversation count.
func (s *AdminService) Users(ctx context.Context) ([]model.AdminUser, error) {
	users, err := s.store.ListUsersWithCounts()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if users == nil {
		users = []model.AdminUser{}
	}
	return users, nil
}

// FlaggedContent returns flagged items. The moderation pipeline is not
// built yet, so the list is always empty.
func (s *AdminService) FlaggedContent(ctx context.Context) []any {
	return []any{}
}
