package llm

import (
	"context"
	"fmt"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/viper"
)

// OpenAIClient is an OpenAI-backed TextGenerator, selectable via ai.provider.
type OpenAIClient struct {
	client    *openai.Client
	modelName string
	timeout   time.Duration
}

// NewOpenAIClient creates a new OpenAI client. The API key is resolved from
// OPENAI_API_KEY, then from viper (ai.openai.api_key). A non-empty baseURL
// points the client at a compatible endpoint.
func NewOpenAIClient(modelName, baseURL string, timeout time.Duration) (*OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		apiKey = viper.GetString("ai.openai.api_key")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required: set OPENAI_API_KEY or ai.openai.api_key in config")
	}

	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}

	var client *openai.Client
	if baseURL != "" {
		cfg := openai.DefaultConfig(apiKey)
		cfg.BaseURL = baseURL
		client = openai.NewClientWithConfig(cfg)
	} else {
		client = openai.NewClient(apiKey)
	}

	return &OpenAIClient{
		client:    client,
		modelName: modelName,
		timeout:   timeout,
	}, nil
}

// ModelName returns the configured model identifier.
func (c *OpenAIClient) ModelName() string {
	return c.modelName
}

// GenerateText sends a single prompt as a chat completion and returns the text.
func (c *OpenAIClient) GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if options.MaxTokens > 0 {
		req.MaxTokens = int(options.MaxTokens)
	}
	if options.Temperature > 0 {
		req.Temperature = options.Temperature
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty response from model")
	}

	return resp.Choices[0].Message.Content, nil
}
