package llm

import (
	"context"

	"meal-kit/internal/shared"
)

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   shared.TokenUsage
}

// TextGenerator is an interface for generating text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (ContentResponse, error)
}

// Closer is an interface for closing resources.
type Closer interface {
	Close() error
}

// NewTextGenerator picks Groq when its key is set, then Gemini. Without any
// key it returns nil. Callers close the result when it implements Closer.
func NewTextGenerator(ctx context.Context, groqKey, geminiKey string) (TextGenerator, error) {
	switch {
	case groqKey != "":
		return NewGroqClient(groqKey, ModelExtractor, 0.1), nil
	case geminiKey != "":
		c, err := NewGeminiClient(ctx, geminiKey)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, nil
}
