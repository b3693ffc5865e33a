// Package model defines data structures for the support platform.
package model

import (
	"fmt"
	"time"
)

// Role identifies the author of a message. It is a closed two-value
// enum: anything else is rejected at construction time.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ParseRole validates a raw role string against the closed enum.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAssistant:
		return Role(s), nil
	default:
		return "", fmt.Errorf("invalid message role %q", s)
	}
}

// Valid reports whether the role is one of the two allowed values.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is a single turn of dialogue. Immutable once created; owned
// exclusively by its parent Conversation.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"timestamp"`
}

// ChatRequest is the request body for POST /api/chat.
type ChatRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
	UserID         string `json:"user_id"`
}
