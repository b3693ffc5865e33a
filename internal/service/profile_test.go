package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spillmate/support-platform/internal/model"
	"github.com/spillmate/support-platform/internal/store"
)

func newProfileFixture(t *testing.T) (*ProfileService, *store.SQLiteStore) {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewProfileService(st, testLogger()), st
}

func TestProfileService_GetMissing(t *testing.T) {
	svc, _ := newProfileFixture(t)

	_, err := svc.Get(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestProfileService_CreateDefaultsRole(t *testing.T) {
	svc, _ := newProfileFixture(t)

	profile, err := svc.Create(context.Background(), &model.CreateProfileRequest{
		ID:    "u1",
		Email: "u1@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleFreeUser, profile.Role)
}

func TestProfileService_CreateRejectsUnknownRole(t *testing.T) {
	svc, _ := newProfileFixture(t)

	_, err := svc.Create(context.Background(), &model.CreateProfileRequest{
		ID:    "u1",
		Email: "u1@example.com",
		Role:  "superuser",
	})
	assert.Error(t, err)
}

func TestProfileService_UpdateRole(t *testing.T) {
	svc, st := newProfileFixture(t)
	_, err := st.CreateProfile("u1", "u1@example.com", model.RoleFreeUser, "")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateRole(context.Background(), "u1", "premium_user"))

	got, err := svc.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, model.RolePremiumUser, got.Role)

	assert.Error(t, svc.UpdateRole(context.Background(), "u1", "root"))
}

func TestAdminService_Stats(t *testing.T) {
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	for _, id := range []string{"u1", "u2", "u3"} {
		_, err := st.CreateProfile(id, id+"@example.com", model.RoleFreeUser, "")
		require.NoError(t, err)
	}
	_, err = st.CreateConversation("u1", "A", nil)
	require.NoError(t, err)

	svc := NewAdminService(st, testLogger())
	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalUsers)
	assert.Equal(t, 0, stats.ActiveUsers, "3 users round down to zero at the 30% estimate")
	assert.Equal(t, 1, stats.TotalConversations)
	assert.Equal(t, 0, stats.FlaggedContent)
}
