package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	for _, raw := range []string{"user", "assistant"} {
		role, err := ParseRole(raw)
		assert.NoError(t, err)
		assert.True(t, role.Valid())
	}
	for _, raw := range []string{"", "system", "model", "User"} {
		_, err := ParseRole(raw)
		assert.Error(t, err, "role %q must be rejected", raw)
	}
}

func TestParseProfileRole(t *testing.T) {
	for _, raw := range []string{"free_user", "premium_user", "admin"} {
		_, err := ParseProfileRole(raw)
		assert.NoError(t, err)
	}
	_, err := ParseProfileRole("superuser")
	assert.Error(t, err)
}

func TestValidateMoodRating(t *testing.T) {
	for rating := MoodRatingMin; rating <= MoodRatingMax; rating++ {
		assert.NoError(t, ValidateMoodRating(rating))
	}
	assert.ErrorIs(t, ValidateMoodRating(0), ErrMoodRatingOutOfRange)
	assert.ErrorIs(t, ValidateMoodRating(9), ErrMoodRatingOutOfRange)
}
