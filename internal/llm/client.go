// Package llm provides LLM client interfaces and implementations.
package llm

import (
	"context"
	"errors"

	"github.com/spillmate/support-platform/internal/model"
)

// FallbackReply is substituted whenever a provider returns an empty or
// safety-filtered result. A raw empty string is never surfaced as a reply.
const FallbackReply = "I'm here to listen and support you. Could you tell me " +
	"more about what you're experiencing right now?"

// ErrLastMessageNotUser is an internal contract violation: the history
// handed to a provider must end with exactly one trailing user message.
// It is distinct from provider/network errors and indicates a bug in the
// caller, not an external fault.
var ErrLastMessageNotUser = errors.New("last message in history is not from the user")

// ErrEmptyHistory is returned when a completion is requested with no messages.
var ErrEmptyHistory = errors.New("message history is empty")

// ChatMessage is one role-tagged turn handed to a provider. The role is
// the closed internal enum; each adapter maps it to its provider's
// wire-level role names.
type ChatMessage struct {
	Role    model.Role `json:"role"`
	Content string     `json:"content"`
}

// CompletionRequest represents a completion request.
type CompletionRequest struct {
	Model       string
	Messages    []ChatMessage
	MaxTokens   int
	Temperature float64
}

// CompletionResponse represents a completion response.
type CompletionResponse struct {
	Content    string
	Model      string
	TokensIn   int
	TokensOut  int
	StopReason string
	LatencyMs  int64

	// Blocked reports that the provider filtered the reply and Content
	// carries the fallback text instead of generated output.
	Blocked bool
}

// Client is the interface for LLM providers.
type Client interface {
	// Complete sends the full ordered history and returns the reply for
	// the trailing user message. Implementations substitute FallbackReply
	// for an empty or filtered result; callers still guard against an
	// empty Content before surfacing it.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// GenerateTitle produces a short conversation title from a summary
	// of its opening exchange.
	GenerateTitle(ctx context.Context, summary string) (string, error)

	// Name returns the provider name.
	Name() string

	// Models returns available models.
	Models() []string
}

// Provider is the type of LLM provider.
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// NewClient creates a new LLM client based on provider.
func NewClient(ctx context.Context, provider Provider, apiKey string) (Client, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey)
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey)
	default:
		return NewGeminiClient(ctx, apiKey)
	}
}

// validateHistory enforces the shared provider-call precondition.
func validateHistory(messages []ChatMessage) error {
	if len(messages) == 0 {
		return ErrEmptyHistory
	}
	if messages[len(messages)-1].Role != model.RoleUser {
		return ErrLastMessageNotUser
	}
	return nil
}
