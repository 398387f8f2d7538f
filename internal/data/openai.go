package data

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/n0teapp/n0te-bot/internal/biz/domain"
)

const (
	generateTimeout   = 60 * time.Second
	transcribeTimeout = 120 * time.Second
)

// AIClient implements the generation and transcription adapters on top of
// the OpenAI API
type AIClient struct {
	client          *openai.Client
	textModel       string
	transcribeModel string
}

// NewAIClient creates an OpenAI-backed AI client
func NewAIClient(apiKey, textModel, transcribeModel string) *AIClient {
	if textModel == "" {
		textModel = "gpt-4o-mini"
	}
	if transcribeModel == "" {
		transcribeModel = "whisper-1"
	}
	return &AIClient{
		client:          openai.NewClient(apiKey),
		textModel:       textModel,
		transcribeModel: transcribeModel,
	}
}

// Generate submits one prompt and returns the reply text plus token usage
func (c *AIClient) Generate(ctx context.Context, prompt, systemPrompt, userID string) (string, domain.TokenUsage, error) {
	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	var messages []openai.ChatCompletionMessage
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.textModel,
		Messages: messages,
		User:     userID,
	})
	if err != nil {
		return "", domain.TokenUsage{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", domain.TokenUsage{}, fmt.Errorf("no response choices")
	}

	usage := domain.TokenUsage{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), usage, nil
}

// Transcribe extracts text from a local audio/video file. The language hint
// is passed through when set; an unrecognized hint is simply ignored upstream.
func (c *AIClient) Transcribe(ctx context.Context, filePath, languageHint string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, transcribeTimeout)
	defer cancel()

	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.transcribeModel,
		FilePath: filePath,
		Language: languageHint,
	})
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
