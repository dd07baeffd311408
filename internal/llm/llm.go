package llm

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/spf13/viper"
	"google.golang.org/api/option"
)

const (
	// DefaultModel is the default Gemini model used for classification and summaries.
	DefaultModel = "gemini-1.5-flash"
	// DefaultCallTimeout bounds a single model call, independent of retry backoff.
	DefaultCallTimeout = 30 * time.Second
)

// TextGenerationOptions contains options for a single text generation call.
type TextGenerationOptions struct {
	MaxTokens   int32   // Maximum number of tokens to generate
	Temperature float32 // Temperature for randomness (0.0 to 1.0)
}

// TextGenerator is the contract the pipeline stages depend on. The endpoint
// returns a single text completion; all parsing and validation of the output
// is the caller's responsibility.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error)
	ModelName() string
}

// Client is a Gemini-backed TextGenerator.
type Client struct {
	modelName string
	timeout   time.Duration
	gClient   *genai.Client
}

// NewClient creates a new Gemini client. The API key is resolved from
// GEMINI_API_KEY, then from viper (ai.gemini.api_key).
func NewClient(modelName string, timeout time.Duration) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = viper.GetString("ai.gemini.api_key")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required: set GEMINI_API_KEY or ai.gemini.api_key in config")
	}

	if modelName == "" {
		modelName = viper.GetString("ai.gemini.model")
		if modelName == "" {
			modelName = DefaultModel
		}
	}
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}

	gClient, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		modelName: modelName,
		timeout:   timeout,
		gClient:   gClient,
	}, nil
}

// ModelName returns the configured model identifier.
func (c *Client) ModelName() string {
	return c.modelName
}

// Close releases the underlying API client.
func (c *Client) Close() error {
	return c.gClient.Close()
}

// GenerateText sends a single prompt and returns the completion text.
// Each call carries its own timeout so a stalled endpoint cannot block a job
// indefinitely.
func (c *Client) GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	model := c.gClient.GenerativeModel(c.modelName)
	if options.MaxTokens > 0 {
		model.SetMaxOutputTokens(options.MaxTokens)
	}
	if options.Temperature > 0 {
		model.SetTemperature(options.Temperature)
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from model")
	}

	var out string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out += string(text)
		}
	}
	if out == "" {
		return "", fmt.Errorf("no text parts in model response")
	}

	return out, nil
}
