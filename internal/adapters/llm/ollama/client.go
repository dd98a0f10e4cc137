package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// DefaultURL is where a local Ollama server listens.
const DefaultURL = "http://localhost:11434"

// Config binds the client to an Ollama server and model.
type Config struct {
	URL         string
	Model       string
	Temperature float32
	HTTPClient  *http.Client
}

// Client implements llm.Backend for a local Ollama server. Output length is
// left to the model; only temperature is forwarded.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a new Ollama client.
func NewClient(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// Local models can be slow to load on first use.
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

func (c *Client) Name() string {
	return "ollama"
}

// IsConfigured requires a model name; the server URL has a default.
func (c *Client) IsConfigured() bool {
	return strings.TrimSpace(c.cfg.Model) != ""
}

// Complete sends one non-streaming chat request.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("invalid Ollama URL %q: %w", c.cfg.URL, err)
	}
	client := api.NewClient(u, c.httpClient)

	stream := false
	req := &api.ChatRequest{
		Model: c.cfg.Model,
		Messages: []api.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Stream: &stream,
		Format: json.RawMessage(`"json"`),
		Options: map[string]any{
			"temperature": c.cfg.Temperature,
		},
	}

	var reply strings.Builder
	err = client.Chat(ctx, req, func(resp api.ChatResponse) error {
		reply.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		if strings.Contains(err.Error(), "connection refused") {
			return "", fmt.Errorf("cannot connect to Ollama at %s - make sure Ollama is running: %w", c.cfg.URL, err)
		}
		return "", fmt.Errorf("Ollama API error: %w", err)
	}

	text := strings.TrimSpace(reply.String())
	if text == "" {
		return "", fmt.Errorf("received empty response from Ollama")
	}
	return text, nil
}
