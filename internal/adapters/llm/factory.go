package llm

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/chuckie/autocommit/internal/adapters/llm/azure"
	"github.com/chuckie/autocommit/internal/adapters/llm/google"
	"github.com/chuckie/autocommit/internal/adapters/llm/ollama"
	"github.com/chuckie/autocommit/internal/adapters/llm/openai"
	"github.com/chuckie/autocommit/internal/config"
	"github.com/chuckie/autocommit/internal/prompt"
)

var constructors = map[string]func(s config.Settings) Backend{
	"openai": func(s config.Settings) Backend {
		return openai.NewClient(openai.Config{
			APIKey:      s.OpenAI.APIKey,
			Model:       s.OpenAI.Model,
			BaseURL:     s.OpenAI.BaseURL,
			MaxTokens:   s.MaxTokens,
			Temperature: s.Temperature,
		})
	},
	"google": func(s config.Settings) Backend {
		return google.NewClient(google.Config{
			APIKey:      s.Google.APIKey,
			Model:       s.Google.Model,
			MaxTokens:   s.MaxTokens,
			Temperature: s.Temperature,
		})
	},
	"azure": func(s config.Settings) Backend {
		return azure.NewClient(azure.Config{
			APIKey:      s.Azure.APIKey,
			Endpoint:    s.Azure.Endpoint,
			Deployment:  s.Azure.Deployment,
			APIVersion:  s.Azure.APIVersion,
			MaxTokens:   s.MaxTokens,
			Temperature: s.Temperature,
		})
	},
	"ollama": func(s config.Settings) Backend {
		return ollama.NewClient(ollama.Config{
			URL:         s.Ollama.URL,
			Model:       s.Ollama.Model,
			Temperature: s.Temperature,
		})
	},
}

// Names lists the supported providers in display order.
func Names() []string {
	return []string{"openai", "google", "azure", "ollama"}
}

// New builds the named provider from settings. It fails with
// ErrUnknownProvider for a name outside Names() and with ErrNotConfigured
// when the provider is missing required settings; a provider is only
// returned when it is ready to use.
func New(name string, s config.Settings, renderer *prompt.Renderer, logger zerolog.Logger) (*Client, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	construct, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownProvider, name, strings.Join(Names(), ", "))
	}

	backend := construct(s)
	if !backend.IsConfigured() {
		return nil, fmt.Errorf("%w: %s: %s", ErrNotConfigured, name, config.SetupHint(name))
	}
	return NewClient(backend, renderer, logger), nil
}

// ProviderStatus describes one provider for the providers listing.
type ProviderStatus struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
	Default    bool   `json:"default"`
	Model      string `json:"model,omitempty"`
	Hint       string `json:"hint,omitempty"`
}

// Status reports which providers are configured. It makes no network calls.
func Status(s config.Settings) []ProviderStatus {
	var out []ProviderStatus
	for _, name := range Names() {
		b := constructors[name](s)
		st := ProviderStatus{
			Name:       name,
			Configured: b.IsConfigured(),
			Default:    name == s.DefaultProvider,
			Model:      s.Model(name),
		}
		if !st.Configured {
			st.Hint = config.SetupHint(name)
		}
		out = append(out, st)
	}
	return out
}
