package providers

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

const defaultOllamaModel = "llama3.1:8b-instruct-q4_K_M"

// OllamaProvider talks to a local Ollama server.
type OllamaProvider struct {
	client *ollama.LLM
	model  string
}

// NewOllamaProvider creates the Ollama-backed provider.
func NewOllamaProvider(opts Options) (*OllamaProvider, error) {
	model := opts.Model
	if model == "" {
		model = defaultOllamaModel
	}

	llmOpts := []ollama.Option{ollama.WithModel(model)}
	if opts.BaseURL != "" {
		llmOpts = append(llmOpts, ollama.WithServerURL(opts.BaseURL))
	}

	client, err := ollama.New(llmOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return &OllamaProvider{client: client, model: model}, nil
}

// Name returns the provider name.
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// Generate produces a reply for the message history.
func (p *OllamaProvider) Generate(ctx context.Context, messages []Message, maxTokens int, temperature float64) (string, error) {
	resp, err := p.client.GenerateContent(ctx, toLangchainMessages(messages),
		llms.WithMaxTokens(maxTokens),
		llms.WithTemperature(temperature),
	)
	if err != nil {
		return "", &GenerationError{Provider: p.Name(), Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &GenerationError{Provider: p.Name(), Err: fmt.Errorf("empty response")}
	}
	return resp.Choices[0].Content, nil
}

// toLangchainMessages maps role-tagged messages onto langchaingo content.
func toLangchainMessages(messages []Message) []llms.MessageContent {
	out := make([]llms.MessageContent, len(messages))
	for i, msg := range messages {
		var msgType llms.ChatMessageType
		switch msg.Role {
		case RoleSystem:
			msgType = llms.ChatMessageTypeSystem
		case RoleAssistant:
			msgType = llms.ChatMessageTypeAI
		default:
			msgType = llms.ChatMessageTypeHuman
		}
		out[i] = llms.TextParts(msgType, msg.Content)
	}
	return out
}
