package llm

import (
	"context"
	"errors"
	"strings"
)

const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderTemplate  = "template"
)

// Completion is the text a provider returned plus its usage accounting.
type Completion struct {
	Text             string
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// Client abstracts LLM providers that turn a single prompt into text.
type Client interface {
	Complete(ctx context.Context, prompt string) (Completion, error)
	Provider() string
	Model() string
}

var (
	// ErrNotConfigured is returned when a provider has no API key.
	ErrNotConfigured = errors.New("llm provider not configured")

	// ErrUnknownProvider is returned for provider names outside the supported set.
	ErrUnknownProvider = errors.New("unknown llm provider")

	// ErrEmptyCompletion is returned when a provider answered with no text.
	ErrEmptyCompletion = errors.New("llm returned empty completion")
)

// NormalizeProvider maps user-facing aliases to a provider name; unknown names
// are returned lowercased so the registry can reject them.
func NormalizeProvider(raw string) string {
	switch p := strings.ToLower(strings.TrimSpace(raw)); p {
	case "claude":
		return ProviderAnthropic
	case "google":
		return ProviderGemini
	case "chatgpt", "gpt":
		return ProviderOpenAI
	default:
		return p
	}
}
