package ai

import "context"

// Classification is one classifier verdict. Label is the raw category
// string returned by the model; the caller validates it against its closed
// enum. Confidence is clamped to [0,1].
type Classification struct {
	Label      string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// ReplySuggestion is one generated reply. Confidence is clamped to [0,1].
type ReplySuggestion struct {
	Reply      string  `json:"reply"`
	Confidence float64 `json:"confidence"`
}

// Service is the interface for AI classification, embedding and reply
// generation. Implement this interface to add new providers (OpenAI,
// Ollama, etc.).
type Service interface {
	ClassifyEmail(ctx context.Context, subject, body, sender string, labels []string) (*Classification, error)
	EmbedText(ctx context.Context, text string) ([]float64, error)
	GenerateReply(ctx context.Context, knowledgeContext, emailText string) (*ReplySuggestion, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)

// Clamp01 bounds a model-reported confidence to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
