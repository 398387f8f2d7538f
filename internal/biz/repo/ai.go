package repo

import (
	"context"

	"github.com/n0teapp/n0te-bot/internal/biz/domain"
)

// Transcriber wraps a speech-to-text call. Implementations return an empty
// string (not an error) when nothing could be recognized.
type Transcriber interface {
	// Transcribe extracts text from a local media file. languageHint may be
	// empty; it is a hint, not a requirement.
	Transcribe(ctx context.Context, filePath, languageHint string) (string, error)
}

// Generator wraps a text-generation call
type Generator interface {
	// Generate submits one prompt with system instructions and returns the
	// reply text plus token usage. userID is forwarded for abuse attribution.
	Generate(ctx context.Context, prompt, systemPrompt, userID string) (string, domain.TokenUsage, error)
}
