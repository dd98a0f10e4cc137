package llm

import (
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/chuckie/autocommit/internal/config"
)

func configuredSettings() config.Settings {
	s := config.Defaults()
	s.OpenAI.APIKey = "sk-test"
	s.Google.APIKey = "g-key"
	s.Azure.APIKey = "az-key"
	s.Azure.Endpoint = "https://example.openai.azure.com"
	s.Ollama.Model = "llama3.1"
	return s
}

func TestNewBuildsEveryProvider(t *testing.T) {
	s := configuredSettings()
	for _, name := range Names() {
		p, err := New(name, s, nil, zerolog.Nop())
		if err != nil {
			t.Fatalf("New(%q) error = %v", name, err)
		}
		if p.Name() != name {
			t.Errorf("Name() = %q, want %q", p.Name(), name)
		}
		if !p.IsConfigured() {
			t.Errorf("%s should be configured", name)
		}
	}
}

func TestNewIsCaseInsensitive(t *testing.T) {
	p, err := New(" OpenAI ", configuredSettings(), nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if p.Name() != "openai" {
		t.Errorf("Name() = %q", p.Name())
	}
}

func TestNewUnknownProvider(t *testing.T) {
	for _, name := range []string{"anthropic", "groq", "mock", "", "open-ai"} {
		p, err := New(name, configuredSettings(), nil, zerolog.Nop())
		if !errors.Is(err, ErrUnknownProvider) {
			t.Errorf("New(%q) error = %v, want ErrUnknownProvider", name, err)
		}
		if p != nil {
			t.Errorf("New(%q) returned a provider alongside an error", name)
		}
		if err != nil && !strings.Contains(err.Error(), "openai, google, azure, ollama") {
			t.Errorf("error should list the valid providers: %q", err.Error())
		}
	}
}

func TestNewNotConfigured(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Settings)
	}{
		{"openai", func(s *config.Settings) { s.OpenAI.APIKey = "" }},
		{"google", func(s *config.Settings) { s.Google.APIKey = "" }},
		{"azure", func(s *config.Settings) { s.Azure.APIKey = "" }},
		{"azure", func(s *config.Settings) { s.Azure.Endpoint = "" }},
		{"ollama", func(s *config.Settings) { s.Ollama.Model = "" }},
	}

	for _, tt := range tests {
		s := configuredSettings()
		tt.mutate(&s)

		p, err := New(tt.name, s, nil, zerolog.Nop())
		if !errors.Is(err, ErrNotConfigured) {
			t.Errorf("New(%q) error = %v, want ErrNotConfigured", tt.name, err)
			continue
		}
		if p != nil {
			t.Errorf("New(%q) returned a provider alongside an error", tt.name)
		}
		if !strings.Contains(err.Error(), tt.name) {
			t.Errorf("error should name the provider: %q", err.Error())
		}
	}
}

func TestStatus(t *testing.T) {
	s := config.Defaults()
	s.Google.APIKey = "g-key"
	s.DefaultProvider = "google"

	got := Status(s)
	if len(got) != 4 {
		t.Fatalf("Status() returned %d entries", len(got))
	}

	byName := map[string]ProviderStatus{}
	for _, st := range got {
		byName[st.Name] = st
	}

	if !byName["google"].Configured || !byName["google"].Default {
		t.Errorf("google = %+v", byName["google"])
	}
	if byName["openai"].Configured || byName["openai"].Hint == "" {
		t.Errorf("openai = %+v", byName["openai"])
	}
	if byName["ollama"].Configured {
		t.Error("ollama without a model should not be configured")
	}
	if byName["azure"].Model != s.Azure.Deployment {
		t.Errorf("azure model = %q", byName["azure"].Model)
	}
}
