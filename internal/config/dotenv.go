package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// DotenvFiles returns the dotenv files consulted by Load, highest precedence
// first: ./.env, then ~/.env.
func DotenvFiles() []string {
	var files []string
	if wd, err := os.Getwd(); err == nil {
		files = append(files, filepath.Join(wd, ".env"))
	}
	if path, err := HomeDotenvPath(); err == nil {
		if len(files) == 0 || files[0] != path {
			files = append(files, path)
		}
	}
	return files
}

// HomeDotenvPath returns the per-user dotenv file, ~/.env.
func HomeDotenvPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get user home dir: %w", err)
	}
	return filepath.Join(home, ".env"), nil
}

// LoadDotenv loads the given files into the process environment and returns
// the ones that existed. Variables already set are never overwritten, so
// earlier files take precedence over later ones and the real environment
// wins over both.
func LoadDotenv(paths ...string) ([]string, error) {
	var loaded []string
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return loaded, fmt.Errorf("%w: stat %s: %v", ErrInvalid, p, err)
		}
		if err := godotenv.Load(p); err != nil {
			return loaded, fmt.Errorf("%w: parse %s: %v", ErrInvalid, p, err)
		}
		loaded = append(loaded, p)
	}
	return loaded, nil
}

// SetDotenvValue sets key=value in the dotenv file at path, creating it if
// needed.
func SetDotenvValue(path, key, value string) error {
	return SetDotenvValues(path, map[string]string{key: value})
}

// SetDotenvValues merges values into the dotenv file at path in a single
// write. The file is rewritten atomically with 0600 permissions since it
// usually holds API keys. Unknown variables are rejected before anything is
// written.
func SetDotenvValues(path string, values map[string]string) error {
	for key := range values {
		if !KnownKey(strings.TrimSpace(key)) {
			return fmt.Errorf("%w: unknown variable %q", ErrInvalid, key)
		}
	}

	merged := map[string]string{}
	if _, err := os.Stat(path); err == nil {
		existing, err := godotenv.Read(path)
		if err != nil {
			return fmt.Errorf("%w: parse %s: %v", ErrInvalid, path, err)
		}
		merged = existing
	}
	for key, value := range values {
		merged[strings.TrimSpace(key)] = value
	}

	out, err := godotenv.Marshal(merged)
	if err != nil {
		return fmt.Errorf("encode dotenv: %w", err)
	}
	return writeFileAtomic(path, []byte(out+"\n"))
}

// KnownKey reports whether key is a variable read by FromLookup.
func KnownKey(key string) bool {
	i := sort.SearchStrings(knownKeys, key)
	return i < len(knownKeys) && knownKeys[i] == key
}

// knownKeys is kept sorted for KnownKey.
var knownKeys = []string{
	"AUTOCOMMIT_LOG_PATH",
	"AUTOCOMMIT_PROMPTS_FILE",
	"AZURE_OPENAI_API_KEY",
	"AZURE_OPENAI_API_VERSION",
	"AZURE_OPENAI_ENDPOINT",
	"AZURE_OPENAI_MODEL",
	"DEFAULT_AI_PROVIDER",
	"DEFAULT_LANGUAGE",
	"DIFF_CAP_BYTES",
	"GOOGLE_API_KEY",
	"GOOGLE_MODEL",
	"HISTORY_DEPTH",
	"MAX_TOKENS",
	"OLLAMA_API_URL",
	"OLLAMA_MODEL",
	"OPENAI_API_KEY",
	"OPENAI_BASE_URL",
	"OPENAI_MODEL",
	"REDACT_SECRETS",
	"TEMPERATURE",
}

func writeFileAtomic(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if err := tmp.Chmod(0o600); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
