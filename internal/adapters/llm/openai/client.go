package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Config binds the client to one OpenAI-compatible endpoint.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string // empty means api.openai.com
	MaxTokens   int
	Temperature float32
	HTTPClient  *http.Client
}

// Client implements llm.Backend for the OpenAI chat completion API and any
// server that speaks it.
type Client struct {
	cfg Config
	api *openai.Client
}

// NewClient creates a new OpenAI client.
func NewClient(cfg Config) *Client {
	conf := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
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
	return "openai"
}

// IsConfigured requires an API key.
func (c *Client) IsConfigured() bool {
	return strings.TrimSpace(c.cfg.APIKey) != ""
}

// Complete sends one chat completion request.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	return firstChoice(resp)
}

// firstChoice unwraps the reply text from a chat completion envelope.
func firstChoice(resp openai.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from OpenAI")
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("empty message returned from OpenAI")
	}
	return content, nil
}
