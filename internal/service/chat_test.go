package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spillmate/support-platform/internal/events"
	"github.com/spillmate/support-platform/internal/llm"
	"github.com/spillmate/support-platform/internal/model"
	"github.com/spillmate/support-platform/internal/session"
	"github.com/spillmate/support-platform/internal/store"
	"github.com/spillmate/support-platform/pkg/logger"
)

type fakeLLM struct {
	mu      sync.Mutex
	resp    *llm.CompletionResponse
	err     error
	title   string
	lastReq *llm.CompletionRequest
}

func (f *fakeLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeLLM) GenerateTitle(ctx context.Context, summary string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.title == "" {
		return "", errors.New("no title scripted")
	}
	return f.title, nil
}

func (f *fakeLLM) Name() string     { return "fake" }
func (f *fakeLLM) Models() []string { return []string{"fake-model"} }

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func newChatFixture(t *testing.T, client llm.Client) (*ChatService, *store.SQLiteStore) {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	_, err = st.CreateProfile("u1", "u1@example.com", model.RoleFreeUser, "")
	require.NoError(t, err)

	svc := NewChatService(st, client, events.NewNoop(), testLogger(), time.Second)
	return svc, st
}

func TestCreateConversation(t *testing.T) {
	svc, _ := newChatFixture(t, &fakeLLM{})

	t.Run("defaults the title", func(t *testing.T) {
		conv, err := svc.CreateConversation(context.Background(), &model.CreateConversationRequest{
			UserID: "u1",
		})
		require.NoError(t, err)
		assert.Equal(t, session.DefaultTitle, conv.Title)
	})

	t.Run("rejects an out-of-range mood", func(t *testing.T) {
		bad := 12
		_, err := svc.CreateConversation(context.Background(), &model.CreateConversationRequest{
			UserID:     "u1",
			MoodBefore: &bad,
		})
		assert.ErrorIs(t, err, model.ErrMoodRatingOutOfRange)
	})
}

func TestSendMessage_PersistsBothTurns(t *testing.T) {
	client := &fakeLLM{
		resp:  &llm.CompletionResponse{Content: "That sounds difficult."},
		title: "Work Stress",
	}
	svc, st := newChatFixture(t, client)

	conv, err := svc.CreateConversation(context.Background(), &model.CreateConversationRequest{UserID: "u1"})
	require.NoError(t, err)

	reply, err := svc.SendMessage(context.Background(), conv.ID, "u1", "work is overwhelming")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAssistant, reply.Role)
	assert.Equal(t, "That sounds difficult.", reply.Content)

	stored, err := st.GetConversation(conv.ID, "u1")
	require.NoError(t, err)
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, model.RoleUser, stored.Messages[0].Role)
	assert.Equal(t, "work is overwhelming", stored.Messages[0].Content)
	assert.Equal(t, model.RoleAssistant, stored.Messages[1].Role)

	// The provider saw the full history ending with the user turn.
	require.NotNil(t, client.lastReq)
	last := client.lastReq.Messages[len(client.lastReq.Messages)-1]
	assert.Equal(t, model.RoleUser, last.Role)

	// The default title is replaced asynchronously.
	assert.Eventually(t, func() bool {
		got, err := st.GetConversation(conv.ID, "u1")
		return err == nil && got.Title == "Work Stress"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestSendMessage_Errors(t *testing.T) {
	t.Run("unknown conversation", func(t *testing.T) {
		svc, _ := newChatFixture(t, &fakeLLM{resp: &llm.CompletionResponse{Content: "x"}})
		_, err := svc.SendMessage(context.Background(), "missing", "u1", "hello")
		assert.ErrorIs(t, err, ErrConversationNotFound)
	})

	t.Run("blank message", func(t *testing.T) {
		svc, _ := newChatFixture(t, &fakeLLM{resp: &llm.CompletionResponse{Content: "x"}})
		_, err := svc.SendMessage(context.Background(), "any", "u1", "   \n ")
		assert.ErrorIs(t, err, ErrEmptyMessage)
	})

	t.Run("provider failure leaves the thread untouched", func(t *testing.T) {
		client := &fakeLLM{err: errors.New("upstream unavailable")}
		svc, st := newChatFixture(t, client)
		conv, err := svc.CreateConversation(context.Background(), &model.CreateConversationRequest{UserID: "u1"})
		require.NoError(t, err)

		_, err = svc.SendMessage(context.Background(), conv.ID, "u1", "hello")
		require.Error(t, err)

		stored, err := st.GetConversation(conv.ID, "u1")
		require.NoError(t, err)
		assert.Empty(t, stored.Messages, "nothing persists when the provider call fails")
	})
}

func TestSendMessage_BlockedReplyPersistsFallback(t *testing.T) {
	client := &fakeLLM{
		resp: &llm.CompletionResponse{Content: llm.FallbackReply, Blocked: true},
	}
	svc, st := newChatFixture(t, client)
	conv, err := svc.CreateConversation(context.Background(), &model.CreateConversationRequest{
		UserID: "u1",
		Title:  "Already Titled",
	})
	require.NoError(t, err)

	reply, err := svc.SendMessage(context.Background(), conv.ID, "u1", "something filtered")
	require.NoError(t, err)
	assert.Equal(t, llm.FallbackReply, reply.Content)

	stored, err := st.GetConversation(conv.ID, "u1")
	require.NoError(t, err)
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, llm.FallbackReply, stored.Messages[1].Content)
	assert.Equal(t, "Already Titled", stored.Title, "an explicit title is never regenerated")
}

func TestSendMessage_EmptyReplyPersistsFallback(t *testing.T) {
	client := &fakeLLM{resp: &llm.CompletionResponse{Content: ""}}
	svc, st := newChatFixture(t, client)
	conv, err := svc.CreateConversation(context.Background(), &model.CreateConversationRequest{
		UserID: "u1",
		Title:  "Already Titled",
	})
	require.NoError(t, err)

	reply, err := svc.SendMessage(context.Background(), conv.ID, "u1", "I feel anxious today")
	require.NoError(t, err)
	assert.Equal(t, llm.FallbackReply, reply.Content,
		"an empty reply is replaced by the fallback, never persisted raw")

	stored, err := st.GetConversation(conv.ID, "u1")
	require.NoError(t, err)
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, llm.FallbackReply, stored.Messages[1].Content)
}

func TestListConversations_EmptyIsNotNil(t *testing.T) {
	svc, _ := newChatFixture(t, &fakeLLM{})

	list, err := svc.ListConversations(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}
