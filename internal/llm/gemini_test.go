package llm

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spillmate/support-platform/internal/model"
)

func TestGeminiRole(t *testing.T) {
	assert.Equal(t, "user", geminiRole(model.RoleUser))
	assert.Equal(t, "model", geminiRole(model.RoleAssistant))
}

func TestBuildHistory_ExcludesTrailingTurn(t *testing.T) {
	messages := []ChatMessage{
		{Role: model.RoleAssistant, Content: "Hello there"},
		{Role: model.RoleUser, Content: "I feel anxious"},
		{Role: model.RoleAssistant, Content: "Tell me more"},
		{Role: model.RoleUser, Content: "It started at work"},
	}

	history := buildHistory(messages)

	require.Len(t, history, 3, "the trailing turn is sent as the new message, not history")
	assert.Equal(t, "model", history[0].Role)
	assert.Equal(t, "user", history[1].Role)
	assert.Equal(t, "model", history[2].Role)
	assert.Equal(t, genai.Text("I feel anxious"), history[1].Parts[0])
}

func TestBuildHistory_SingleMessage(t *testing.T) {
	history := buildHistory([]ChatMessage{{Role: model.RoleUser, Content: "hi"}})
	assert.Empty(t, history)
}

func TestSafetySettings_CoverAllCategories(t *testing.T) {
	settings := safetySettings()

	require.Len(t, settings, 4)
	seen := make(map[genai.HarmCategory]bool)
	for _, s := range settings {
		assert.Equal(t, genai.HarmBlockMediumAndAbove, s.Threshold)
		seen[s.Category] = true
	}
	assert.True(t, seen[genai.HarmCategoryHarassment])
	assert.True(t, seen[genai.HarmCategoryHateSpeech])
	assert.True(t, seen[genai.HarmCategorySexuallyExplicit])
	assert.True(t, seen[genai.HarmCategoryDangerousContent])
}

func TestExtractText(t *testing.T) {
	t.Run("concatenates text parts", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{
					Parts: []genai.Part{genai.Text("I hear "), genai.Text("you.")},
				},
			}},
		}
		text, blocked := extractText(resp)
		assert.Equal(t, "I hear you.", text)
		assert.False(t, blocked)
	})

	t.Run("safety finish reason is blocked", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				FinishReason: genai.FinishReasonSafety,
				Content: &genai.Content{
					Parts: []genai.Part{genai.Text("partial")},
				},
			}},
		}
		text, blocked := extractText(resp)
		assert.Empty(t, text)
		assert.True(t, blocked)
	})

	t.Run("blocked prompt with no candidates", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			PromptFeedback: &genai.PromptFeedback{BlockReason: genai.BlockReasonSafety},
		}
		text, blocked := extractText(resp)
		assert.Empty(t, text)
		assert.True(t, blocked)
	})

	t.Run("no candidates and no feedback", func(t *testing.T) {
		text, blocked := extractText(&genai.GenerateContentResponse{})
		assert.Empty(t, text)
		assert.False(t, blocked)
	})
}
