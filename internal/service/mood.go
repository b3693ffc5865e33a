package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spillmate/support-platform/internal/events"
	"github.com/spillmate/support-platform/internal/model"
	"github.com/spillmate/support-platform/internal/store"
	"github.com/spillmate/support-platform/pkg/logger"
	"github.com/spillmate/support-platform/pkg/metrics"
)

// moodHistoryLimit caps GET /api/mood at the most recent entries.
const moodHistoryLimit = 30

// MoodService handles mood log operations.
type MoodService struct {
	store     *store.SQLiteStore
	publisher events.Publisher
	logger    *logger.Logger
}

// NewMoodService creates a new mood service.
func NewMoodService(st *store.SQLiteStore, publisher events.Publisher, log *logger.Logger) *MoodService {
	return &MoodService{store: st, publisher: publisher, logger: log}
}

// Log appends a mood entry for a user.
func (s *MoodService) Log(ctx context.Context, req *model.LogMoodRequest) (*model.MoodEntry, error) {
	if err := model.ValidateMoodRating(req.MoodRating); err != nil {
		return nil, err
	}

	entry, err := s.store.LogMood(req.UserID, req.MoodRating, req.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to log mood: %w", err)
	}

	metrics.MoodEntriesTotal.WithLabelValues(strconv.Itoa(req.MoodRating)).Inc()

	event := &model.ConversationEvent{
		ID:        uuid.Must(uuid.NewV7()).String(),
		UserID:    req.UserID,
		Type:      model.EventTypeMoodLogged,
		CreatedAt: time.Now(),
	}
	pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, event); err != nil {
		s.logger.Warn("failed to publish mood event", zap.Error(err))
	}

	return entry, nil
}

// History returns the user's most recent mood entries.
func (s *MoodService) History(ctx context.Context, userID string) ([]model.MoodEntry, error) {
	entries, err := s.store.GetMoodEntries(userID, moodHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to get mood history: %w", err)
	}
	if entries == nil {
		entries = []model.MoodEntry{}
	}
	return entries, nil
}
