package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/spillmate/support-platform/internal/model"
)

const (
	defaultGeminiModel = "gemini-1.5-pro-latest"
	geminiTitleModel   = "gemini-1.5-flash-latest"

	// personaInstruction is the fixed system persona sent with every
	// chat completion.
	personaInstruction = "You are Spillmate, an empathetic AI companion for " +
		"people seeking emotional support. Keep responses concise, warm and " +
		"supportive. Ask follow-up questions. Never give medical advice. If " +
		"the user expresses thoughts of self-harm or suicide, acknowledge " +
		"their pain, express care, and gently encourage them to seek " +
		"immediate professional help or contact crisis resources."

	titleInstruction = "You are a helpful assistant that generates concise " +
		"titles for chat conversations. The title should be 3-5 words " +
		"maximum. Just return the title itself, nothing else."
)

// GeminiClient is the Google Gemini LLM client.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, errors.New("Gemini API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{client: client}, nil
}

// Name returns the provider name.
func (c *GeminiClient) Name() string {
	return "gemini"
}

// Models returns available models.
func (c *GeminiClient) Models() []string {
	return []string{
		"gemini-1.5-pro-latest",
		"gemini-1.5-flash-latest",
	}
}

// Close releases the underlying API client.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// safetySettings blocks medium-and-above content in all four harm
// categories, matching the product's moderation policy.
func safetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryDangerousContent,
	}
	settings := make([]*genai.SafetySetting, len(categories))
	for i, cat := range categories {
		settings[i] = &genai.SafetySetting{
			Category:  cat,
			Threshold: genai.HarmBlockMediumAndAbove,
		}
	}
	return settings
}

// geminiRole maps the internal role enum to Gemini's wire roles: the
// assistant is "model" on the wire, the user is unchanged.
func geminiRole(r model.Role) string {
	if r == model.RoleAssistant {
		return "model"
	}
	return "user"
}

// buildHistory converts all messages except the last into Gemini chat
// history. The trailing message is sent as the new turn, not as history.
func buildHistory(messages []ChatMessage) []*genai.Content {
	history := make([]*genai.Content, 0, len(messages)-1)
	for _, msg := range messages[:len(messages)-1] {
		history = append(history, &genai.Content{
			Role:  geminiRole(msg.Role),
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	return history
}

// Complete sends a completion request.
func (c *GeminiClient) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	if err := validateHistory(req.Messages); err != nil {
		return nil, err
	}

	modelName := req.Model
	if modelName == "" {
		modelName = defaultGeminiModel
	}

	gm := c.client.GenerativeModel(modelName)
	gm.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(personaInstruction)},
	}
	gm.SafetySettings = safetySettings()

	if req.MaxTokens > 0 {
		maxTokens := int32(req.MaxTokens)
		gm.GenerationConfig.MaxOutputTokens = &maxTokens
	}
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		gm.GenerationConfig.Temperature = &temp
	}

	session := gm.StartChat()
	session.History = buildHistory(req.Messages)

	last := req.Messages[len(req.Messages)-1]
	resp, err := session.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return nil, fmt.Errorf("gemini SendMessage failed: %w", err)
	}

	text, blocked := extractText(resp)
	if text == "" {
		// Empty or safety-filtered result: substitute the fixed
		// fallback, never a raw empty string.
		text = FallbackReply
		blocked = true
	}

	out := &CompletionResponse{
		Content:   text,
		Model:     modelName,
		Blocked:   blocked,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if resp.UsageMetadata != nil {
		out.TokensIn = int(resp.UsageMetadata.PromptTokenCount)
		out.TokensOut = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	if len(resp.Candidates) > 0 {
		out.StopReason = resp.Candidates[0].FinishReason.String()
	}
	return out, nil
}

// extractText concatenates the text parts of the first candidate and
// reports whether the response was safety-filtered.
func extractText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		blocked := resp != nil && resp.PromptFeedback != nil &&
			resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified
		return "", blocked
	}

	cand := resp.Candidates[0]
	if cand.FinishReason == genai.FinishReasonSafety {
		return "", true
	}
	if cand.Content == nil {
		return "", false
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String(), false
}

// GenerateTitle produces a short conversation title.
func (c *GeminiClient) GenerateTitle(ctx context.Context, summary string) (string, error) {
	gm := c.client.GenerativeModel(geminiTitleModel)
	gm.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(titleInstruction)},
	}

	temp := float32(0.3)
	maxTokens := int32(20)
	gm.GenerationConfig = genai.GenerationConfig{
		MaxOutputTokens: &maxTokens,
		Temperature:     &temp,
	}

	prompt := fmt.Sprintf("Generate a very concise title (3-5 words maximum) "+
		"for a conversation that starts with or is about: %q.", summary)

	resp, err := gm.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini title generation failed: %w", err)
	}

	text, _ := extractText(resp)
	text = strings.Trim(text, "\"'\n\r\t .")
	if text == "" {
		return "", errors.New("gemini generated an empty title")
	}
	return text, nil
}
