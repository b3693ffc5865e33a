package model

import (
	"time"
)

// EventType classifies audit events emitted by the platform.
type EventType string

const (
	EventTypeMessage         EventType = "message"
	EventTypeProviderFailure EventType = "provider_failure"
	EventTypeSafetyBlock     EventType = "safety_block"
	EventTypeMoodLogged      EventType = "mood_logged"
)

// ConversationEvent is one entry in the audit event feed.
type ConversationEvent struct {
	ID             string         `json:"id"`
	ConversationID string         `json:"conversation_id,omitempty"`
	UserID         string         `json:"user_id"`
	Type           EventType      `json:"type"`
	Reason         string         `json:"reason,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}
