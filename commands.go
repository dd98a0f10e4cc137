package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/chuckie/autocommit/internal/adapters/llm"
	"github.com/chuckie/autocommit/internal/config"
	"github.com/chuckie/autocommit/internal/observability"
	"github.com/chuckie/autocommit/internal/ui"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newVersionCmd(std streams) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  noArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(std.out, "autocommit %s\n", version)
		},
	}
}

func newProvidersCmd(std streams, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List AI providers and whether they are configured",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(std, opts)
			if err != nil {
				return err
			}
			defer e.cleanup()

			status := llm.Status(e.settings)
			if opts.json() {
				return writeJSON(std.out, map[string]any{"providers": status})
			}
			ui.RenderProviders(std.out, status)
			return nil
		},
	}
}

func newConfigCmd(std streams, opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the active configuration",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(std, opts)
			if err != nil {
				return err
			}
			defer e.cleanup()
			return showConfig(std, opts, e.settings)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the path of the per-user .env file",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.HomeDotenvPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(std.out, path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Write a variable to the per-user .env file",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return usageError{fmt.Errorf("config set takes exactly two arguments, KEY and VALUE")}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.HomeDotenvPath()
			if err != nil {
				return err
			}
			if err := config.SetDotenvValue(path, args[0], args[1]); err != nil {
				return err
			}
			ui.Success(std.out, "Saved %s to %s", args[0], path)
			return nil
		},
	})
	return cmd
}

// configView is the config listing. Secrets are reduced to set/missing.
type configView struct {
	DefaultProvider string            `json:"default_provider"`
	DefaultLanguage string            `json:"default_language"`
	Models          map[string]string `json:"models"`
	Credentials     map[string]string `json:"credentials"`
	OllamaURL       string            `json:"ollama_url"`
	MaxTokens       int               `json:"max_tokens"`
	Temperature     float32           `json:"temperature"`
	DiffCap         int               `json:"diff_cap_bytes"`
	Redact          bool              `json:"redact_secrets"`
	HistoryDepth    int               `json:"history_depth"`
	PromptsFile     string            `json:"prompts_file,omitempty"`
	LogPath         string            `json:"log_path"`
	DotenvFiles     []string          `json:"dotenv_files"`
}

func showConfig(std streams, opts *options, s config.Settings) error {
	v := configView{
		DefaultProvider: s.DefaultProvider,
		DefaultLanguage: s.DefaultLanguage,
		Models:          map[string]string{},
		Credentials: map[string]string{
			"OPENAI_API_KEY":        presence(s.OpenAI.APIKey),
			"GOOGLE_API_KEY":        presence(s.Google.APIKey),
			"AZURE_OPENAI_API_KEY":  presence(s.Azure.APIKey),
			"AZURE_OPENAI_ENDPOINT": presence(s.Azure.Endpoint),
		},
		OllamaURL:    s.Ollama.URL,
		MaxTokens:    s.MaxTokens,
		Temperature:  s.Temperature,
		DiffCap:      s.DiffCap,
		Redact:       s.Redact,
		HistoryDepth: s.HistoryDepth,
		PromptsFile:  s.PromptsFile,
		LogPath:      observability.Path(),
		DotenvFiles:  []string{},
	}
	for _, name := range llm.Names() {
		v.Models[name] = s.Model(name)
	}
	for _, f := range config.DotenvFiles() {
		if _, err := os.Stat(f); err == nil {
			v.DotenvFiles = append(v.DotenvFiles, f)
		}
	}

	if opts.json() {
		return writeJSON(std.out, v)
	}

	w := std.out
	fmt.Fprintf(w, "Default provider:  %s\n", v.DefaultProvider)
	fmt.Fprintf(w, "Default language:  %s\n", v.DefaultLanguage)
	fmt.Fprintln(w, "Models:")
	for _, name := range llm.Names() {
		model := v.Models[name]
		if model == "" {
			model = "(not set)"
		}
		fmt.Fprintf(w, "  %-7s %s\n", name, model)
	}
	fmt.Fprintln(w, "Credentials:")
	for _, k := range sortedKeys(v.Credentials) {
		fmt.Fprintf(w, "  %-22s %s\n", k, v.Credentials[k])
	}
	fmt.Fprintf(w, "Ollama URL:        %s\n", v.OllamaURL)
	fmt.Fprintf(w, "Max tokens:        %d\n", v.MaxTokens)
	fmt.Fprintf(w, "Temperature:       %.2f\n", v.Temperature)
	fmt.Fprintf(w, "Diff cap:          %d bytes\n", v.DiffCap)
	fmt.Fprintf(w, "Redact secrets:    %t\n", v.Redact)
	fmt.Fprintf(w, "History depth:     %d\n", v.HistoryDepth)
	if v.PromptsFile != "" {
		fmt.Fprintf(w, "Prompts file:      %s\n", v.PromptsFile)
	}
	fmt.Fprintf(w, "Log file:          %s\n", v.LogPath)
	if len(v.DotenvFiles) == 0 {
		fmt.Fprintln(w, "Dotenv files:      (none)")
	} else {
		fmt.Fprintf(w, "Dotenv files:      %s\n", strings.Join(v.DotenvFiles, ", "))
	}
	return nil
}

func presence(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(missing)"
	}
	return "(set)"
}

// setupFlags are the non-interactive inputs of the setup command.
type setupFlags struct {
	provider string
	model    string
	apiKey   string
	endpoint string
	url      string
}

func newSetupCmd(std streams, opts *options) *cobra.Command {
	var sf setupFlags
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Choose a provider and store its credentials in ~/.env",
		Long: `Without flags, setup runs an interactive wizard. With --provider it
writes the given values directly; the provider must end up configured.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			path, err := config.HomeDotenvPath()
			if err != nil {
				return err
			}

			var values map[string]string
			if sf.provider != "" {
				values, err = setupValues(sf)
			} else {
				values, err = runSetupWizard(cmd, std)
			}
			if err != nil {
				return err
			}

			if err := config.SetDotenvValues(path, values); err != nil {
				return err
			}
			if opts.json() {
				return writeJSON(std.out, map[string]any{"success": true, "path": path, "keys": sortedKeys(values)})
			}
			ui.Success(std.out, "Saved %s to %s", strings.Join(sortedKeys(values), ", "), path)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&sf.provider, "provider", "", "provider to configure: "+strings.Join(llm.Names(), ", "))
	f.StringVar(&sf.model, "model", "", "model or Azure deployment name")
	f.StringVar(&sf.apiKey, "api-key", "", "API key (openai, google, azure)")
	f.StringVar(&sf.endpoint, "endpoint", "", "Azure OpenAI endpoint URL")
	f.StringVar(&sf.url, "url", "", "Ollama server URL")
	return cmd
}

// setupValues turns setup flags into dotenv variables and checks the
// provider would be usable with them.
func setupValues(sf setupFlags) (map[string]string, error) {
	p := strings.ToLower(strings.TrimSpace(sf.provider))
	if _, ok := config.ModelEnv[p]; !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", llm.ErrUnknownProvider, sf.provider, strings.Join(llm.Names(), ", "))
	}

	values := map[string]string{"DEFAULT_AI_PROVIDER": p}
	if sf.model != "" {
		values[config.ModelEnv[p]] = sf.model
	}
	if sf.apiKey != "" {
		switch p {
		case "openai":
			values["OPENAI_API_KEY"] = sf.apiKey
		case "google":
			values["GOOGLE_API_KEY"] = sf.apiKey
		case "azure":
			values["AZURE_OPENAI_API_KEY"] = sf.apiKey
		default:
			return nil, usageError{fmt.Errorf("--api-key is not used by %s", p)}
		}
	}
	if sf.endpoint != "" {
		if p != "azure" {
			return nil, usageError{fmt.Errorf("--endpoint is only used by azure")}
		}
		values["AZURE_OPENAI_ENDPOINT"] = sf.endpoint
	}
	if sf.url != "" {
		if p != "ollama" {
			return nil, usageError{fmt.Errorf("--url is only used by ollama")}
		}
		values["OLLAMA_API_URL"] = sf.url
	}

	// The new values win over the environment, as they will once saved.
	s, err := config.FromLookup(func(key string) (string, bool) {
		if v, ok := values[key]; ok {
			return v, true
		}
		return os.LookupEnv(key)
	})
	if err != nil {
		return nil, err
	}
	for _, st := range llm.Status(s) {
		if st.Name == p && !st.Configured {
			return nil, fmt.Errorf("%w: %s: %s", llm.ErrNotConfigured, p, st.Hint)
		}
	}
	return values, nil
}

func runSetupWizard(cmd *cobra.Command, std streams) (map[string]string, error) {
	// A broken environment must not lock the user out of fixing it.
	s, err := config.Load()
	if err != nil {
		s = config.Defaults()
	}

	wizard := ui.NewSetup(s, llm.Names())
	if _, err := tea.NewProgram(wizard, tea.WithContext(cmd.Context()), tea.WithOutput(std.err)).Run(); err != nil {
		if cmd.Context().Err() != nil {
			return nil, cmd.Context().Err()
		}
		return nil, fmt.Errorf("setup wizard: %w", err)
	}

	values, ok := wizard.Result()
	if !ok {
		ui.Warn(std.err, "Setup cancelled.")
		return nil, errDeclined
	}
	return values, nil
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageError{fmt.Errorf("unexpected argument %q for %q", args[0], cmd.CommandPath())}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
