package model

import (
	"errors"
	"time"
)

// Mood ratings use a single canonical 1..8 scale (very sad .. euphoric).
const (
	MoodRatingMin = 1
	MoodRatingMax = 8
)

// ErrMoodRatingOutOfRange is returned for ratings outside [1,8].
var ErrMoodRatingOutOfRange = errors.New("mood rating must be between 1 and 8")

// MoodEntry is one append-only mood log row. No update or delete path
// is exposed.
type MoodEntry struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	MoodRating int       `json:"mood_rating"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// LogMoodRequest is the request body for POST /api/mood.
type LogMoodRequest struct {
	UserID     string `json:"user_id"`
	MoodRating int    `json:"mood_rating"`
	Notes      string `json:"notes,omitempty"`
}

// ValidateMoodRating checks a rating against the canonical scale.
func ValidateMoodRating(rating int) error {
	if rating < MoodRatingMin || rating > MoodRatingMax {
		return ErrMoodRatingOutOfRange
	}
	return nil
}

// AdminStats is the response for GET /api/admin/stats.
type AdminStats struct {
	TotalUsers         int     `json:"totalUsers"`
	ActiveUsers        int     `json:"activeUsers"`
	TotalConversations int     `json:"totalConversations"`
	FlaggedContent     int     `json:"flaggedContent"`
	AverageMood        float64 `json:"averageMood"`
}

// AdminUser is a profile row joined with its conversation count, as
// returned by GET /api/admin/users.
type AdminUser struct {
	Profile
	ConversationCount int `json:"conversation_count"`
}
