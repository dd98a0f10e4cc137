package google

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// Config binds the client to the Gemini API.
type Config struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	BaseURL     string // empty means the public Gemini endpoint
	HTTPClient  *http.Client
}

// Client implements llm.Backend for Gemini generate-content.
type Client struct {
	cfg Config
}

// NewClient creates a new Gemini client.
func NewClient(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 90 * time.Second}
	}
	return &Client{cfg: cfg}
}

func (c *Client) Name() string {
	return "google"
}

// IsConfigured requires an API key.
func (c *Client) IsConfigured() bool {
	return strings.TrimSpace(c.cfg.APIKey) != ""
}

// Complete sends one generate-content request.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      c.cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  c.cfg.HTTPClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: c.cfg.BaseURL},
	})
	if err != nil {
		return "", fmt.Errorf("create Gemini client: %w", err)
	}

	gc := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(c.cfg.Temperature),
		ResponseMIMEType: "application/json",
	}
	if system != "" {
		gc.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if c.cfg.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(c.cfg.MaxTokens)
	}

	result, err := client.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), gc)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	return responseText(result)
}

// responseText unwraps the text parts of the first candidate.
func responseText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}
	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty response from Gemini (finish reason %q)", result.Candidates[0].FinishReason)
	}
	return text, nil
}
