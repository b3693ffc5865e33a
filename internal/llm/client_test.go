package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spillmate/support-platform/internal/model"
)

func TestValidateHistory(t *testing.T) {
	t.Run("empty history", func(t *testing.T) {
		assert.ErrorIs(t, validateHistory(nil), ErrEmptyHistory)
		assert.ErrorIs(t, validateHistory([]ChatMessage{}), ErrEmptyHistory)
	})

	t.Run("trailing assistant message", func(t *testing.T) {
		history := []ChatMessage{
			{Role: model.RoleUser, Content: "hi"},
			{Role: model.RoleAssistant, Content: "hello"},
		}
		assert.ErrorIs(t, validateHistory(history), ErrLastMessageNotUser)
	})

	t.Run("trailing user message", func(t *testing.T) {
		history := []ChatMessage{
			{Role: model.RoleAssistant, Content: "hello"},
			{Role: model.RoleUser, Content: "hi"},
		}
		assert.NoError(t, validateHistory(history))
	})

	t.Run("single user message", func(t *testing.T) {
		assert.NoError(t, validateHistory([]ChatMessage{{Role: model.RoleUser, Content: "hi"}}))
	})
}
