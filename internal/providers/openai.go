package providers

import (
	"context"
	"fmt"
	"os"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIProvider talks to the OpenAI API or any OpenAI-compatible endpoint
// (GitHub Models, vLLM, LM Studio) via a custom base URL.
type OpenAIProvider struct {
	client *openai.LLM
	model  string
}

// NewOpenAIProvider creates the OpenAI-compatible provider. The API key
// falls back to the OPENAI_API_KEY environment variable.
func NewOpenAIProvider(opts Options) (*OpenAIProvider, error) {
	key := opts.APIKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("openai provider requires an API key (config or OPENAI_API_KEY)")
	}

	model := opts.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	llmOpts := []openai.Option{
		openai.WithToken(key),
		openai.WithModel(model),
	}
	if opts.BaseURL != "" {
		llmOpts = append(llmOpts, openai.WithBaseURL(opts.BaseURL))
	}

	client, err := openai.New(llmOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	return &OpenAIProvider{client: client, model: model}, nil
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Generate produces a reply for the message history.
func (p *OpenAIProvider) Generate(ctx context.Context, messages []Message, maxTokens int, temperature float64) (string, error) {
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
