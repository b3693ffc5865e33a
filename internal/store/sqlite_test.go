package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spillmate/support-platform/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestProfileLifecycle(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetProfile("u1")
	require.NoError(t, err)
	assert.Nil(t, got, "missing profile reads as nil, not an error")

	created, err := s.CreateProfile("u1", "u1@example.com", model.RoleFreeUser, "Sam")
	require.NoError(t, err)
	assert.Equal(t, "u1", created.ID)
	assert.Equal(t, model.RoleFreeUser, created.Role)
	assert.Equal(t, "Sam", created.DisplayName)

	require.NoError(t, s.UpdateProfileRole("u1", model.RolePremiumUser))
	got, err = s.GetProfile("u1")
	require.NoError(t, err)
	assert.Equal(t, model.RolePremiumUser, got.Role)

	err = s.UpdateProfileRole("missing", model.RoleAdmin)
	assert.Error(t, err)
}

func TestProfile_EmptyDisplayNameIsOmitted(t *testing.T) {
	s := newTestStore(t)

	created, err := s.CreateProfile("u1", "u1@example.com", model.RoleFreeUser, "")
	require.NoError(t, err)
	assert.Empty(t, created.DisplayName)
}

func TestConversationMessagesRoundTrip(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateProfile("u1", "u1@example.com", model.RoleFreeUser, "")
	require.NoError(t, err)

	mood := 3
	conv, err := s.CreateConversation("u1", "New Conversation", &mood)
	require.NoError(t, err)

	messages := []model.Message{
		{ID: "m1", Role: model.RoleUser, Content: "hello", CreatedAt: time.Now().UTC()},
		{ID: "m2", Role: model.RoleAssistant, Content: "hi there", CreatedAt: time.Now().UTC()},
	}
	require.NoError(t, s.UpdateConversationMessages(conv.ID, messages))

	got, err := s.GetConversation(conv.ID, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "m1", got.Messages[0].ID)
	assert.Equal(t, model.RoleUser, got.Messages[0].Role)
	assert.Equal(t, "hi there", got.Messages[1].Content)
	require.NotNil(t, got.MoodBefore)
	assert.Equal(t, 3, *got.MoodBefore)
}

func TestGetConversation_OwnershipIsEnforced(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateProfile("u1", "u1@example.com", model.RoleFreeUser, "")
	require.NoError(t, err)
	conv, err := s.CreateConversation("u1", "Private", nil)
	require.NoError(t, err)

	got, err := s.GetConversation(conv.ID, "someone-else")
	require.NoError(t, err)
	assert.Nil(t, got, "another user's conversation reads as absent")
}

func TestListConversations_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateProfile("u1", "u1@example.com", model.RoleFreeUser, "")
	require.NoError(t, err)

	older, err := s.CreateConversation("u1", "Older", nil)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	newer, err := s.CreateConversation("u1", "Newer", nil)
	require.NoError(t, err)

	list, err := s.ListConversations("u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)
	assert.NotNil(t, list[0].Messages, "empty message lists decode as empty, not nil")
}

func TestUpdateConversationTitle(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateProfile("u1", "u1@example.com", model.RoleFreeUser, "")
	require.NoError(t, err)
	conv, err := s.CreateConversation("u1", "New Conversation", nil)
	require.NoError(t, err)

	require.NoError(t, s.UpdateConversationTitle(conv.ID, "u1", "Rough Day At Work"))

	got, err := s.GetConversation(conv.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Rough Day At Work", got.Title)

	err = s.UpdateConversationTitle(conv.ID, "someone-else", "Hijacked")
	assert.Error(t, err)
}

func TestDeleteConversation(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateProfile("u1", "u1@example.com", model.RoleFreeUser, "")
	require.NoError(t, err)
	conv, err := s.CreateConversation("u1", "Doomed", nil)
	require.NoError(t, err)

	require.NoError(t, s.DeleteConversation(conv.ID, "u1"))

	got, err := s.GetConversation(conv.ID, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	err = s.DeleteConversation(conv.ID, "u1")
	assert.Error(t, err, "deleting twice reports the missing row")
}

func TestMoodLog(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateProfile("u1", "u1@example.com", model.RoleFreeUser, "")
	require.NoError(t, err)

	t.Run("rejects out-of-range ratings", func(t *testing.T) {
		_, err := s.LogMood("u1", 0, "")
		assert.ErrorIs(t, err, model.ErrMoodRatingOutOfRange)
		_, err = s.LogMood("u1", 9, "")
		assert.ErrorIs(t, err, model.ErrMoodRatingOutOfRange)
	})

	t.Run("stores and reads back newest first", func(t *testing.T) {
		_, err := s.LogMood("u1", 2, "rough morning")
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
		_, err = s.LogMood("u1", 6, "")
		require.NoError(t, err)

		entries, err := s.GetMoodEntries("u1", 30)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, 6, entries[0].MoodRating)
		assert.Equal(t, 2, entries[1].MoodRating)
		assert.Equal(t, "rough morning", entries[1].Notes)
	})

	t.Run("honors the limit", func(t *testing.T) {
		entries, err := s.GetMoodEntries("u1", 1)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}

func TestStatsAndUserCounts(t *testing.T) {
	s := newTestStore(t)

	totalUsers, totalConversations, avgMood, err := s.Stats()
	require.NoError(t, err)
	assert.Zero(t, totalUsers)
	assert.Zero(t, totalConversations)
	assert.Zero(t, avgMood, "no mood rows averages to zero, not an error")

	_, err = s.CreateProfile("u1", "u1@example.com", model.RoleFreeUser, "")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = s.CreateProfile("u2", "u2@example.com", model.RoleAdmin, "")
	require.NoError(t, err)
	_, err = s.CreateConversation("u1", "A", nil)
	require.NoError(t, err)
	_, err = s.CreateConversation("u1", "B", nil)
	require.NoError(t, err)
	_, err = s.LogMood("u1", 4, "")
	require.NoError(t, err)
	_, err = s.LogMood("u2", 8, "")
	require.NoError(t, err)

	totalUsers, totalConversations, avgMood, err = s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, totalUsers)
	assert.Equal(t, 2, totalConversations)
	assert.InDelta(t, 6.0, avgMood, 0.001)

	users, err := s.ListUsersWithCounts()
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u2", users[0].ID, "newest profile first")
	assert.Equal(t, 0, users[0].ConversationCount)
	assert.Equal(t, "u1", users[1].ID)
	assert.Equal(t, 2, users[1].ConversationCount)
}
