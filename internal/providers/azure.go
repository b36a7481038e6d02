package providers

import (
	"context"
	"fmt"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/ai/azopenai"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
)

// AzureProvider talks to an Azure OpenAI deployment.
type AzureProvider struct {
	client     *azopenai.Client
	deployment string
}

// NewAzureProvider creates the Azure OpenAI provider. Endpoint and key come
// from the options, falling back to AZURE_OPENAI_ENDPOINT and
// AZURE_OPENAI_API_KEY; the deployment name is the configured model.
func NewAzureProvider(opts Options) (*AzureProvider, error) {
	endpoint := opts.BaseURL
	if endpoint == "" {
		endpoint = os.Getenv("AZURE_OPENAI_ENDPOINT")
	}
	key := opts.APIKey
	if key == "" {
		key = os.Getenv("AZURE_OPENAI_API_KEY")
	}
	deployment := opts.Model
	if deployment == "" {
		deployment = os.Getenv("AZURE_OPENAI_DEPLOYMENT_NAME")
	}
	if endpoint == "" || key == "" || deployment == "" {
		return nil, fmt.Errorf("azure provider requires endpoint, API key and deployment name")
	}

	client, err := azopenai.NewClientWithKeyCredential(endpoint, azcore.NewKeyCredential(key), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create azure openai client: %w", err)
	}
	return &AzureProvider{client: client, deployment: deployment}, nil
}

// Name returns the provider name.
func (p *AzureProvider) Name() string {
	return "azure"
}

// Generate produces a reply for the message history.
func (p *AzureProvider) Generate(ctx context.Context, messages []Message, maxTokens int, temperature float64) (string, error) {
	chatMessages := make([]azopenai.ChatRequestMessageClassification, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			chatMessages[i] = &azopenai.ChatRequestSystemMessage{Content: azopenai.NewChatRequestSystemMessageContent(msg.Content)}
		case RoleAssistant:
			chatMessages[i] = &azopenai.ChatRequestAssistantMessage{Content: azopenai.NewChatRequestAssistantMessageContent(msg.Content)}
		default:
			chatMessages[i] = &azopenai.ChatRequestUserMessage{
				Content: azopenai.NewChatRequestUserMessageContent(msg.Content),
			}
		}
	}

	resp, err := p.client.GetChatCompletions(ctx, azopenai.ChatCompletionsOptions{
		Messages:       chatMessages,
		MaxTokens:      to.Ptr(int32(maxTokens)),
		Temperature:    to.Ptr(float32(temperature)),
		DeploymentName: to.Ptr(p.deployment),
	}, nil)
	if err != nil {
		return "", &GenerationError{Provider: p.Name(), Err: err}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == nil {
		return "", &GenerationError{Provider: p.Name(), Err: fmt.Errorf("empty response")}
	}
	return *resp.Choices[0].Message.Content, nil
}
