// Package providers exposes the text-generation capability behind a single
// interface. The variants form a closed set selected via configuration at
// startup: an Ollama server, any OpenAI-compatible endpoint, Azure OpenAI,
// or a deterministic local responder for offline runs.
package providers

import (
	"context"
	"fmt"
	"strings"
)

// Message is one role-tagged chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Provider generates a reply for an ordered message history. Failures are
// always surfaced as *GenerationError.
type Provider interface {
	Name() string
	Generate(ctx context.Context, messages []Message, maxTokens int, temperature float64) (string, error)
}

// GenerationError wraps any provider or network failure so callers can treat
// all backends uniformly.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Options selects and configures a provider.
type Options struct {
	Type    string
	Model   string
	BaseURL string
	APIKey  string
}

// New builds the configured provider variant.
func New(opts Options) (Provider, error) {
	switch strings.ToLower(opts.Type) {
	case "ollama", "":
		return NewOllamaProvider(opts)
	case "openai", "openai_compatible":
		return NewOpenAIProvider(opts)
	case "azure":
		return NewAzureProvider(opts)
	case "local":
		return NewLocalProvider(), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", opts.Type)
	}
}
