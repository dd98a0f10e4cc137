package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// OpenAISettings configures the openai provider.
type OpenAISettings struct {
	APIKey  string
	Model   string
	BaseURL string
}

// GoogleSettings configures the google provider.
type GoogleSettings struct {
	APIKey string
	Model  string
}

// AzureSettings configures the azure provider.
type AzureSettings struct {
	APIKey     string
	Endpoint   string
	Deployment string
	APIVersion string
}

// OllamaSettings configures the ollama provider.
type OllamaSettings struct {
	URL   string
	Model string
}

// Settings holds all application configuration. It is built once at start-up
// and passed by value.
type Settings struct {
	OpenAI OpenAISettings
	Google GoogleSettings
	Azure  AzureSettings
	Ollama OllamaSettings

	DefaultProvider string
	DefaultLanguage string
	MaxTokens       int
	Temperature     float32

	DiffCap      int
	Redact       bool
	PromptsFile  string
	LogPath      string
	HistoryDepth int
}

// Defaults returns the settings used when no variable is set.
func Defaults() Settings {
	return Settings{
		OpenAI: OpenAISettings{Model: DefaultModels["openai"]},
		Google: GoogleSettings{Model: DefaultModels["google"]},
		Azure:  AzureSettings{Deployment: DefaultModels["azure"], APIVersion: "2024-06-01"},
		Ollama: OllamaSettings{URL: "http://localhost:11434"},

		DefaultProvider: "openai",
		DefaultLanguage: "en",
		MaxTokens:       200,
		Temperature:     0.3,

		DiffCap:      32768,
		Redact:       true,
		HistoryDepth: 5,
	}
}

// Load reads dotenv files from the working directory and the home
// directory, then builds Settings from the process environment.
func Load() (Settings, error) {
	if _, err := LoadDotenv(DotenvFiles()...); err != nil {
		return Settings{}, err
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds Settings from lookup, applied over Defaults(). Empty
// values are treated as unset.
func FromLookup(lookup func(string) (string, bool)) (Settings, error) {
	e := env(lookup)
	s := Defaults()

	s.OpenAI.APIKey = e.str("OPENAI_API_KEY", s.OpenAI.APIKey)
	s.OpenAI.Model = e.str("OPENAI_MODEL", s.OpenAI.Model)
	s.OpenAI.BaseURL = e.str("OPENAI_BASE_URL", s.OpenAI.BaseURL)

	s.Google.APIKey = e.str("GOOGLE_API_KEY", s.Google.APIKey)
	s.Google.Model = e.str("GOOGLE_MODEL", s.Google.Model)

	s.Azure.APIKey = e.str("AZURE_OPENAI_API_KEY", s.Azure.APIKey)
	s.Azure.Endpoint = e.str("AZURE_OPENAI_ENDPOINT", s.Azure.Endpoint)
	s.Azure.Deployment = e.str("AZURE_OPENAI_MODEL", s.Azure.Deployment)
	s.Azure.APIVersion = e.str("AZURE_OPENAI_API_VERSION", s.Azure.APIVersion)

	s.Ollama.URL = e.str("OLLAMA_API_URL", s.Ollama.URL)
	s.Ollama.Model = e.str("OLLAMA_MODEL", s.Ollama.Model)

	s.DefaultProvider = strings.ToLower(e.str("DEFAULT_AI_PROVIDER", s.DefaultProvider))
	s.DefaultLanguage = e.str("DEFAULT_LANGUAGE", s.DefaultLanguage)
	s.PromptsFile = e.str("AUTOCOMMIT_PROMPTS_FILE", s.PromptsFile)
	s.LogPath = e.str("AUTOCOMMIT_LOG_PATH", s.LogPath)

	var err error
	if s.MaxTokens, err = e.int("MAX_TOKENS", s.MaxTokens); err != nil {
		return Settings{}, err
	}
	if s.Temperature, err = e.float("TEMPERATURE", s.Temperature); err != nil {
		return Settings{}, err
	}
	if s.DiffCap, err = e.int("DIFF_CAP_BYTES", s.DiffCap); err != nil {
		return Settings{}, err
	}
	if s.Redact, err = e.bool("REDACT_SECRETS", s.Redact); err != nil {
		return Settings{}, err
	}
	if s.HistoryDepth, err = e.int("HISTORY_DEPTH", s.HistoryDepth); err != nil {
		return Settings{}, err
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks value ranges. Provider names and credentials are checked
// by the provider factory.
func (s Settings) Validate() error {
	if s.MaxTokens <= 0 {
		return fmt.Errorf("%w: MAX_TOKENS must be positive, got %d", ErrInvalid, s.MaxTokens)
	}
	if s.Temperature < 0 || s.Temperature > 2 {
		return fmt.Errorf("%w: TEMPERATURE must be between 0 and 2, got %.2f", ErrInvalid, s.Temperature)
	}
	if s.DiffCap < 0 {
		return fmt.Errorf("%w: DIFF_CAP_BYTES must not be negative, got %d", ErrInvalid, s.DiffCap)
	}
	if s.HistoryDepth < 0 {
		return fmt.Errorf("%w: HISTORY_DEPTH must not be negative, got %d", ErrInvalid, s.HistoryDepth)
	}
	return nil
}

type env func(string) (string, bool)

// str retrieves a variable with a default value.
func (e env) str(key, defaultValue string) string {
	if val, ok := e(key); ok && strings.TrimSpace(val) != "" {
		return strings.TrimSpace(val)
	}
	return defaultValue
}

// int retrieves a variable as int with a default value.
func (e env) int(key string, defaultValue int) (int, error) {
	val := e.str(key, "")
	if val == "" {
		return defaultValue, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, key, val)
	}
	return i, nil
}

// float retrieves a variable as float32 with a default value.
func (e env) float(key string, defaultValue float32) (float32, error) {
	val := e.str(key, "")
	if val == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(val, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a number", ErrInvalid, key, val)
	}
	return float32(f), nil
}

// bool retrieves a variable as bool with a default value.
func (e env) bool(key string, defaultValue bool) (bool, error) {
	switch strings.ToLower(e.str(key, "")) {
	case "":
		return defaultValue, nil
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s must be true or false", ErrInvalid, key)
	}
}
