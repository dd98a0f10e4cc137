package config

import "strings"

// DefaultModels is the model used per provider when none is configured.
// Ollama has no default: the user must name a locally pulled model.
var DefaultModels = map[string]string{
	"openai": "gpt-4o-mini",
	"google": "gemini-2.0-flash",
	"azure":  "gpt-4o-mini",
}

// ProviderModels lists suggested model options per provider.
var ProviderModels = map[string][]string{
	"openai": {
		"gpt-4.1",
		"gpt-4.1-mini",
		"gpt-4.1-nano",
		"gpt-4o",
		"gpt-4o-mini",
	},
	"google": {
		"gemini-2.5-pro",
		"gemini-2.5-flash",
		"gemini-2.0-flash",
		"gemini-2.0-flash-lite",
	},
	"azure": {
		"gpt-4o",
		"gpt-4o-mini",
	},
	"ollama": {
		"qwen2.5-coder",
		"qwen3-coder",
		"codellama",
		"deepseek-coder",
		"llama3.1",
		"llama3.2",
		"gemma2",
		"mistral",
	},
}

// RequiredEnv lists the variables a provider cannot work without.
var RequiredEnv = map[string][]string{
	"openai": {"OPENAI_API_KEY"},
	"google": {"GOOGLE_API_KEY"},
	"azure":  {"AZURE_OPENAI_API_KEY", "AZURE_OPENAI_ENDPOINT"},
	"ollama": {"OLLAMA_MODEL"},
}

// ModelEnv maps each provider to the variable holding its model.
var ModelEnv = map[string]string{
	"openai": "OPENAI_MODEL",
	"google": "GOOGLE_MODEL",
	"azure":  "AZURE_OPENAI_MODEL",
	"ollama": "OLLAMA_MODEL",
}

// SetupHint tells the user how to configure provider.
func SetupHint(provider string) string {
	vars := RequiredEnv[provider]
	if len(vars) == 0 {
		return ""
	}
	hint := "set " + strings.Join(vars, " and ")
	if provider == "ollama" {
		if models := ProviderModels["ollama"]; len(models) > 0 {
			hint += " (for example " + models[0] + ")"
		}
	}
	return hint + " in the environment or a .env file"
}

// Model returns the model configured for provider.
func (s Settings) Model(provider string) string {
	switch provider {
	case "openai":
		return s.OpenAI.Model
	case "google":
		return s.Google.Model
	case "azure":
		return s.Azure.Deployment
	case "ollama":
		return s.Ollama.Model
	}
	return ""
}
