package azure

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Config binds the client to one Azure OpenAI deployment.
type Config struct {
	APIKey      string
	Endpoint    string // https://<resource>.openai.azure.com
	Deployment  string
	APIVersion  string
	MaxTokens   int
	Temperature float32
	HTTPClient  *http.Client
}

// Client implements llm.Backend for Azure-hosted OpenAI chat completions.
type Client struct {
	cfg Config
	api *openai.Client
}

// NewClient creates a new Azure OpenAI client.
func NewClient(cfg Config) *Client {
	conf := openai.DefaultAzureConfig(cfg.APIKey, strings.TrimRight(cfg.Endpoint, "/"))
	if cfg.APIVersion != "" {
		conf.APIVersion = cfg.APIVersion
	}
	// Requests are addressed by deployment name, not model name.
	deployment := cfg.Deployment
	conf.AzureModelMapperFunc = func(string) string { return deployment }
	conf.HTTPClient = cfg.HTTPClient
	if conf.HTTPClient == nil {
		conf.HTTPClient = &http.Client{Timeout: 90 * time.Second}
	}

	return &Client{
		cfg: cfg,
		api: openai.NewClientWithConfig(conf),
	}
}

func (c *Client) Name() string {
	return "azure"
}

// IsConfigured requires both an API key and an endpoint.
func (c *Client) IsConfigured() bool {
	return strings.TrimSpace(c.cfg.APIKey) != "" && strings.TrimSpace(c.cfg.Endpoint) != ""
}

// Complete sends one chat completion request to the deployment.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.Deployment,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("Azure OpenAI API error: %w", err)
	}
	return messageContent(resp)
}

// messageContent unwraps the reply text of the first choice.
func messageContent(resp openai.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from Azure OpenAI")
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("empty message returned from Azure OpenAI (finish reason %q)", resp.Choices[0].FinishReason)
	}
	return content, nil
}
