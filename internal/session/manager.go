// Package session owns the in-memory model of active conversations and
// orchestrates the chat round trip with the LLM provider.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spillmate/support-platform/internal/llm"
	"github.com/spillmate/support-platform/internal/model"
	"github.com/spillmate/support-platform/pkg/logger"
)

// Greeting seeds every new conversation with an assistant opener.
const Greeting = "Hello! I'm here to listen. Whatever is on your mind, feel free to share."

// DefaultTitle names conversations until a generated title replaces it.
const DefaultTitle = "New Conversation"

const defaultProviderTimeout = 60 * time.Second

var (
	// ErrConversationNotFound is returned when an id does not reference
	// a live conversation.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrNotConfirmed guards the destructive delete action: callers must
	// pass an explicit confirmation.
	ErrNotConfirmed = errors.New("delete requires explicit confirmation")
)

// Manager owns the authoritative in-memory list of Conversations and
// the currently active one, and mediates all reads and writes of
// Messages. All mutation happens under one lock; the provider call in
// SendTurn runs outside it on a snapshot of the history.
type Manager struct {
	client  llm.Client
	state   *StateMachine
	timeout time.Duration
	logger  *logger.Logger

	mu      sync.RWMutex
	ordered []*model.Conversation // newest first
	byID    map[string]*model.Conversation
	active  *model.Conversation
}

// Option configures a Manager.
type Option func(*Manager)

// WithProviderTimeout bounds each provider round trip so a request that
// never resolves cannot leave the state machine stuck in thinking.
func WithProviderTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// NewManager creates a session manager backed by the given provider client.
func NewManager(client llm.Client, log *logger.Logger, opts ...Option) *Manager {
	m := &Manager{
		client:  client,
		state:   NewStateMachine(),
		timeout: defaultProviderTimeout,
		logger:  log,
		byID:    make(map[string]*model.Conversation),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State exposes the bot-state machine for voice and UI wiring.
func (m *Manager) State() *StateMachine {
	return m.state
}

// CreateConversation allocates a new conversation seeded with the
// assistant greeting, inserts it at the front of the list, and makes it
// active.
func (m *Manager) CreateConversation() *model.Conversation {
	now := time.Now()
	conv := &model.Conversation{
		ID:    uuid.Must(uuid.NewV7()).String(),
		Title: DefaultTitle,
		Messages: []model.Message{{
			ID:        uuid.Must(uuid.NewV7()).String(),
			Role:      model.RoleAssistant,
			Content:   Greeting,
			CreatedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	m.ordered = append([]*model.Conversation{conv}, m.ordered...)
	m.byID[conv.ID] = conv
	m.active = conv
	m.mu.Unlock()

	m.logger.Info("conversation created", zap.String("conversation_id", conv.ID))
	return conv
}

// SelectConversation switches the active conversation pointer.
func (m *Manager) SelectConversation(id string) (*model.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.byID[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	m.active = conv
	return conv, nil
}

// Active returns the active conversation, or nil when none remains.
func (m *Manager) Active() *model.Conversation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

// Conversations returns the conversation list, newest first.
func (m *Manager) Conversations() []*model.Conversation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Conversation, len(m.ordered))
	copy(out, m.ordered)
	return out
}

// AppendMessage constructs a Message with a fresh id and appends it to
// the target conversation. The conversation must exist: a missing id is
// a programming error and panics rather than being reported to callers.
func (m *Manager) AppendMessage(conversationID string, role model.Role, content string) model.Message {
	if !role.Valid() {
		panic(fmt.Sprintf("session: invalid message role %q", role))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(conversationID, role, content)
}

func (m *Manager) appendLocked(conversationID string, role model.Role, content string) model.Message {
	conv, ok := m.byID[conversationID]
	if !ok {
		panic(fmt.Sprintf("session: append to unknown conversation %q", conversationID))
	}

	msg := model.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = msg.CreatedAt
	return msg
}

// DeleteConversation removes a conversation after an explicit
// confirmation. If it was active, the next remaining conversation
// becomes active, or no conversation when none remain — never a
// dangling reference.
func (m *Manager) DeleteConversation(id string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; !ok {
		return ErrConversationNotFound
	}
	delete(m.byID, id)
	for i, conv := range m.ordered {
		if conv.ID == id {
			m.ordered = append(m.ordered[:i], m.ordered[i+1:]...)
			break
		}
	}
	if m.active != nil && m.active.ID == id {
		if len(m.ordered) > 0 {
			m.active = m.ordered[0]
		} else {
			m.active = nil
		}
	}

	m.logger.Info("conversation deleted", zap.String("conversation_id", id))
	return nil
}

// SendTurn runs the chat round trip: append the user message, hand the
// full ordered history to the provider, and append its reply. Provider
// failures degrade to an apology message in the thread; the bot state
// always returns to idle. Whitespace-only input is a no-op.
func (m *Manager) SendTurn(ctx context.Context, conversationID, userText string) (*model.Message, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return nil, nil
	}

	// Transition before touching the thread: a turn must never be left
	// in the history without a reply because the state machine refused
	// the move.
	if err := m.state.Transition(StateThinking); err != nil {
		return nil, err
	}
	// The reset is unconditional: success or failure, the indicator
	// never stays at thinking.
	defer m.state.Reset()

	m.mu.Lock()
	conv, ok := m.byID[conversationID]
	if !ok {
		m.mu.Unlock()
		return nil, ErrConversationNotFound
	}
	m.appendLocked(conversationID, model.RoleUser, userText)

	history := make([]llm.ChatMessage, len(conv.Messages))
	for i, msg := range conv.Messages {
		history[i] = llm.ChatMessage{Role: msg.Role, Content: msg.Content}
	}
	m.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	resp, err := m.client.Complete(callCtx, &llm.CompletionRequest{Messages: history})

	var replyText string
	switch {
	case errors.Is(err, llm.ErrLastMessageNotUser), errors.Is(err, llm.ErrEmptyHistory):
		// Internal invariant breach, not an external fault. Fail loudly
		// in the logs and keep the thread readable.
		m.logger.Error("chat invariant breach",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
		replyText = "I'm sorry, something went wrong on my end. Please try again."
	case err != nil:
		m.logger.Warn("provider call failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
		replyText = fmt.Sprintf("I'm sorry, I'm having a little trouble connecting right now. (%v)", err)
	default:
		replyText = resp.Content
		if replyText == "" {
			// The adapters substitute the fallback themselves, but the
			// thread must never show an empty reply whatever the Client
			// implementation.
			replyText = llm.FallbackReply
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[conversationID]; !ok {
		// Deleted while the provider call was in flight.
		return nil, ErrConversationNotFound
	}
	reply := m.appendLocked(conversationID, model.RoleAssistant, replyText)
	return &reply, nil
}
