package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spillmate/support-platform/internal/events"
	"github.com/spillmate/support-platform/internal/llm"
	"github.com/spillmate/support-platform/internal/model"
	"github.com/spillmate/support-platform/internal/session"
	"github.com/spillmate/support-platform/internal/store"
	"github.com/spillmate/support-platform/pkg/logger"
	"github.com/spillmate/support-platform/pkg/metrics"
)

var (
	// ErrConversationNotFound is returned when a chat targets an
	// unknown or foreign conversation.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrEmptyMessage is a user input error, not a system failure.
	ErrEmptyMessage = errors.New("message cannot be empty")
)

// ChatService runs the store-backed chat round trip for the HTTP
// surface: load history, append the user turn, call the provider, and
// persist both messages.
type ChatService struct {
	store     *store.SQLiteStore
	llmClient llm.Client
	publisher events.Publisher
	logger    *logger.Logger
	timeout   time.Duration
}

// NewChatService creates a new chat service.
func NewChatService(
	st *store.SQLiteStore,
	llmClient llm.Client,
	publisher events.Publisher,
	log *logger.Logger,
	timeout time.Duration,
) *ChatService {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ChatService{
		store:     st,
		llmClient: llmClient,
		publisher: publisher,
		logger:    log,
		timeout:   timeout,
	}
}

// CreateConversation creates a persisted conversation for a user.
func (s *ChatService) CreateConversation(ctx context.Context, req *model.CreateConversationRequest) (*model.Conversation, error) {
	if req.MoodBefore != nil {
		if err := model.ValidateMoodRating(*req.MoodBefore); err != nil {
			return nil, err
		}
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = session.DefaultTitle
	}

	conv, err := s.store.CreateConversation(req.UserID, title, req.MoodBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	metrics.ConversationsTotal.Inc()
	s.logger.Info("conversation created",
		zap.String("conversation_id", conv.ID),
		zap.String("user_id", req.UserID))
	return conv, nil
}

// ListConversations returns a user's conversations, newest first.
func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	conversations, err := s.store.ListConversations(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	if conversations == nil {
		conversations = []model.Conversation{}
	}
	return conversations, nil
}

// SendMessage appends the user's message to the conversation, submits
// the full ordered history to the provider, and appends and persists
// the assistant reply.
func (s *ChatService) SendMessage(ctx context.Context, conversationID, userID, text string) (*model.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	conv, err := s.store.GetConversation(conversationID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}

	now := time.Now()
	userMsg := model.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Role:      model.RoleUser,
		Content:   text,
		CreatedAt: now,
	}
	messages := append(conv.Messages, userMsg)

	history := make([]llm.ChatMessage, len(messages))
	for i, msg := range messages {
		history[i] = llm.ChatMessage{Role: msg.Role, Content: msg.Content}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.llmClient.Complete(callCtx, &llm.CompletionRequest{Messages: history})
	if err != nil {
		metrics.RecordLLMRequest(s.llmClient.Name(), "error", 0, 0, 0)
		s.publishEvent(conv, userID, model.EventTypeProviderFailure, err.Error())
		return nil, fmt.Errorf("provider call failed: %w", err)
	}

	metrics.RecordLLMRequest(s.llmClient.Name(), "success",
		float64(resp.LatencyMs)/1000.0, resp.TokensIn, resp.TokensOut)
	if resp.Blocked {
		metrics.SafetyBlocksTotal.Inc()
		s.publishEvent(conv, userID, model.EventTypeSafetyBlock, resp.StopReason)
	}

	content := resp.Content
	if content == "" {
		// Never persist an empty assistant reply, whatever the Client
		// implementation returned.
		content = llm.FallbackReply
	}
	assistantMsg := model.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Role:      model.RoleAssistant,
		Content:   content,
		CreatedAt: time.Now(),
	}
	messages = append(messages, assistantMsg)

	if err := s.store.UpdateConversationMessages(conversationID, messages); err != nil {
		return nil, fmt.Errorf("failed to persist messages: %w", err)
	}

	metrics.MessagesTotal.WithLabelValues(string(model.RoleUser)).Inc()
	metrics.MessagesTotal.WithLabelValues(string(model.RoleAssistant)).Inc()
	s.publishEvent(conv, userID, model.EventTypeMessage, "")

	if conv.Title == "" || conv.Title == session.DefaultTitle {
		go s.generateTitle(conv.ID, userID, text)
	}

	return &assistantMsg, nil
}

// generateTitle runs off the request path; a failure only leaves the
// default title in place.
func (s *ChatService) generateTitle(conversationID, userID, basis string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	title, err := s.llmClient.GenerateTitle(ctx, basis)
	if err != nil {
		s.logger.Warn("title generation failed",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
		return
	}
	if err := s.store.UpdateConversationTitle(conversationID, userID, title); err != nil {
		s.logger.Warn("failed to save generated title",
			zap.String("conversation_id", conversationID),
			zap.Error(err))
	}
}

func (s *ChatService) publishEvent(conv *model.Conversation, userID string, typ model.EventType, reason string) {
	event := &model.ConversationEvent{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conv.ID,
		UserID:         userID,
		Type:           typ,
		Reason:         reason,
		CreatedAt:      time.Now(),
	}

	// Audit publishing is best-effort; never fail the request over it.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("type", string(typ)),
			zap.Error(err))
	}
}
