package model

import (
	"time"
)

// Conversation is an ordered, append-only sequence of Messages under
// one title. Messages are persisted as a JSON column alongside the row.
type Conversation struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	Messages   []Message `json:"messages"`
	MoodBefore *int      `json:"mood_before,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreateConversationRequest is the request body for POST /api/conversations.
type CreateConversationRequest struct {
	UserID     string `json:"user_id"`
	Title      string `json:"title"`
	MoodBefore *int   `json:"mood_before,omitempty"`
}
