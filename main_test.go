package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/chuckie/autocommit/internal/adapters/llm"
	"github.com/chuckie/autocommit/internal/app"
	"github.com/chuckie/autocommit/internal/config"
	"github.com/chuckie/autocommit/internal/prompt"
)

func init() {
	color.NoColor = true
}

// isolate points HOME and the log file at a temp dir and clears every
// provider setting so the developer's own environment cannot leak in.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("AUTOCOMMIT_LOG_PATH", filepath.Join(home, "autocommit.log"))
	for _, k := range []string{
		"OPENAI_API_KEY", "GOOGLE_API_KEY", "AZURE_OPENAI_API_KEY",
		"AZURE_OPENAI_ENDPOINT", "OLLAMA_MODEL", "DEFAULT_AI_PROVIDER",
		"AUTOCOMMIT_PROMPTS_FILE",
	} {
		t.Setenv(k, "")
	}
	return home
}

func execute(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

// newRepo creates a repository with one commit.
func newRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
	dir := t.TempDir()
	for _, args := range [][]string{
		{"init", "--quiet", "--initial-branch=main"},
		{"config", "user.name", "Test User"},
		{"config", "user.email", "test@example.com"},
		{"config", "commit.gpgsign", "false"},
	} {
		gitIn(t, dir, args...)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	gitIn(t, dir, "add", "README.md")
	gitIn(t, dir, "commit", "--quiet", "-m", "chore: initial commit")
	return dir
}

func gitIn(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, out)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"declined", errDeclined, exitDeclined},
		{"nothing to commit", fmt.Errorf("%w: hint", errNothingToCommit), exitFailure},
		{"interrupted", fmt.Errorf("commit: %w", context.Canceled), exitInterrupted},
		{"prompt aborted", huh.ErrUserAborted, exitInterrupted},
		{"program killed", tea.ErrProgramKilled, exitInterrupted},
		{"usage", usageError{errors.New("bad flag")}, exitUsage},
		{"unknown provider", fmt.Errorf("%w %q", llm.ErrUnknownProvider, "x"), exitUsage},
		{"not configured", fmt.Errorf("%w: openai", llm.ErrNotConfigured), exitUsage},
		{"bad config", fmt.Errorf("%w: TEMPERATURE", config.ErrInvalid), exitUsage},
		{"bad templates", fmt.Errorf("%w: user", prompt.ErrInvalidTemplates), exitUsage},
		{"exhausted", &llm.ExhaustedError{Provider: "openai", Attempts: 3}, exitFailure},
		{"not a repository", app.ErrNotRepository, exitFailure},
		{"other", errors.New("boom"), exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestUsageErrors(t *testing.T) {
	isolate(t)
	tests := []struct {
		name string
		args []string
	}{
		{"exclusive actions", []string{"--status", "--history"}},
		{"positional argument", []string{"fix things"}},
		{"unknown flag", []string{"--bogus"}},
		{"bad output format", []string{"--status", "-o", "yaml"}},
		{"missing repo", []string{"--status", "--repo", filepath.Join(t.TempDir(), "nope")}},
		{"negative commits", []string{"--preview", "--commits", "-4"}},
		{"config set arity", []string{"config", "set", "OPENAI_MODEL"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := execute(tt.args...)
			if code != exitUsage {
				t.Errorf("exit = %d, want %d (stderr: %s)", code, exitUsage, stderr)
			}
		})
	}
}

func TestJSONErrorOutput(t *testing.T) {
	isolate(t)
	code, stdout, _ := execute("--status", "--branches", "-o", "json")
	if code != exitUsage {
		t.Fatalf("exit = %d", code)
	}
	var got errorJSON
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, stdout)
	}
	if got.Success || got.Code != exitUsage || !strings.Contains(got.Error, "mutually exclusive") {
		t.Errorf("got %+v", got)
	}
}

func TestVersion(t *testing.T) {
	code, stdout, _ := execute("version")
	if code != exitOK || stdout != "autocommit dev\n" {
		t.Errorf("version = %d, %q", code, stdout)
	}
}

func TestConfigSet(t *testing.T) {
	home := isolate(t)

	code, _, stderr := execute("config", "set", "OPENAI_MODEL", "gpt-4o")
	if code != exitOK {
		t.Fatalf("exit = %d: %s", code, stderr)
	}
	values, err := godotenv.Read(filepath.Join(home, ".env"))
	if err != nil {
		t.Fatal(err)
	}
	if values["OPENAI_MODEL"] != "gpt-4o" {
		t.Errorf("values = %v", values)
	}

	if code, _, _ := execute("config", "set", "SHELL", "/bin/zsh"); code != exitUsage {
		t.Errorf("unknown key exit = %d, want %d", code, exitUsage)
	}
}

func TestConfigPath(t *testing.T) {
	home := isolate(t)
	code, stdout, _ := execute("config", "path")
	if code != exitOK || strings.TrimSpace(stdout) != filepath.Join(home, ".env") {
		t.Errorf("config path = %d, %q", code, stdout)
	}
}

func TestConfigShowHidesSecrets(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_KEY", "sk-very-secret-value")

	code, stdout, stderr := execute("config")
	if code != exitOK {
		t.Fatalf("exit = %d: %s", code, stderr)
	}
	if strings.Contains(stdout, "sk-very-secret-value") {
		t.Errorf("secret printed:\n%s", stdout)
	}
	if !strings.Contains(stdout, "OPENAI_API_KEY") || !strings.Contains(stdout, "(set)") {
		t.Errorf("credential status missing:\n%s", stdout)
	}
}

func TestProvidersJSON(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	code, stdout, stderr := execute("providers", "-o", "json")
	if code != exitOK {
		t.Fatalf("exit = %d: %s", code, stderr)
	}
	var got struct {
		Providers []llm.ProviderStatus `json:"providers"`
	}
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, stdout)
	}
	if len(got.Providers) != 4 {
		t.Fatalf("providers = %+v", got.Providers)
	}
	for _, p := range got.Providers {
		if (p.Name == "openai") != p.Configured {
			t.Errorf("%s configured = %v", p.Name, p.Configured)
		}
	}
}

func TestSetupNonInteractive(t *testing.T) {
	home := isolate(t)

	code, _, stderr := execute("setup", "--provider", "google", "--api-key", "g-key", "--model", "gemini-2.5-flash")
	if code != exitOK {
		t.Fatalf("exit = %d: %s", code, stderr)
	}
	values, err := godotenv.Read(filepath.Join(home, ".env"))
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"DEFAULT_AI_PROVIDER": "google",
		"GOOGLE_API_KEY":      "g-key",
		"GOOGLE_MODEL":        "gemini-2.5-flash",
	}
	for k, v := range want {
		if values[k] != v {
			t.Errorf("%s = %q, want %q", k, values[k], v)
		}
	}
}

func TestSetupNonInteractiveRejects(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown provider", []string{"setup", "--provider", "groq"}},
		{"ollama without model", []string{"setup", "--provider", "ollama"}},
		{"azure without endpoint", []string{"setup", "--provider", "azure", "--api-key", "k"}},
		{"key for ollama", []string{"setup", "--provider", "ollama", "--model", "llama3.1", "--api-key", "k"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := isolate(t)
			if code, _, stderr := execute(tt.args...); code != exitUsage {
				t.Errorf("exit = %d, want %d (stderr: %s)", code, exitUsage, stderr)
			}
			if _, err := os.Stat(filepath.Join(home, ".env")); !os.IsNotExist(err) {
				t.Error(".env written for a rejected setup")
			}
		})
	}
}

func TestStatusJSON(t *testing.T) {
	isolate(t)
	dir := newRepo(t)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("todo\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	code, stdout, stderr := execute("--repo", dir, "--status", "-o", "json")
	if code != exitOK {
		t.Fatalf("exit = %d: %s", code, stderr)
	}
	var got struct {
		Status struct {
			Branch    string   `json:"branch"`
			Untracked []string `json:"untracked"`
		} `json:"status"`
	}
	if err := json.Unmarshal([]byte(stdout), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, stdout)
	}
	if got.Status.Branch != "main" || len(got.Status.Untracked) != 1 || got.Status.Untracked[0] != "notes.txt" {
		t.Errorf("status = %+v", got.Status)
	}
}

func TestHistoryText(t *testing.T) {
	isolate(t)
	dir := newRepo(t)

	code, stdout, stderr := execute("--repo", dir, "--history")
	if code != exitOK {
		t.Fatalf("exit = %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "chore: initial commit") {
		t.Errorf("history:\n%s", stdout)
	}
}

func TestNotARepository(t *testing.T) {
	isolate(t)
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
	code, _, stderr := execute("--repo", t.TempDir(), "--status")
	if code != exitFailure || !strings.Contains(stderr, "not a git repository") {
		t.Errorf("exit = %d, stderr = %s", code, stderr)
	}
}

func TestProviderErrorsFailBeforeGeneration(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown provider", []string{"--preview", "-p", "bogus"}},
		{"not configured", []string{"--preview", "-p", "openai"}},
		{"default not configured", []string{"-y", "--no-status"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			dir := newRepo(t)
			if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("changed\n"), 0o644); err != nil {
				t.Fatal(err)
			}
			gitIn(t, dir, "add", "README.md")

			args := append([]string{"--repo", dir}, tt.args...)
			code, _, stderr := execute(args...)
			if code != exitUsage {
				t.Errorf("exit = %d, want %d (stderr: %s)", code, exitUsage, stderr)
			}
		})
	}
}

func TestNothingToCommit(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	dir := newRepo(t)

	code, _, stderr := execute("--repo", dir, "--preview")
	if code != exitFailure {
		t.Fatalf("exit = %d, want %d", code, exitFailure)
	}
	if !strings.Contains(stderr, "no changes to commit") || !strings.Contains(stderr, "--all") {
		t.Errorf("stderr:\n%s", stderr)
	}
}
