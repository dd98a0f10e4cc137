package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/chuckie/autocommit/internal/adapters/git"
	"github.com/chuckie/autocommit/internal/adapters/llm"
	"github.com/chuckie/autocommit/internal/app"
	"github.com/chuckie/autocommit/internal/config"
	"github.com/chuckie/autocommit/internal/observability"
	"github.com/chuckie/autocommit/internal/ports"
	"github.com/chuckie/autocommit/internal/prompt"
	"github.com/chuckie/autocommit/internal/ui"
)

// historyCount is how many commits --history shows.
const historyCount = 10

type streams struct {
	out io.Writer
	err io.Writer
}

// options holds the root command flags.
type options struct {
	provider    string
	all         bool
	language    string
	repo        string
	context     string
	preview     bool
	status      bool
	stage       bool
	history     bool
	branches    bool
	autoConfirm bool
	push        bool
	noStatus    bool
	copy        bool
	commits     int
	output      string
	verbose     bool
}

func (o *options) json() bool {
	return o.output == "json"
}

// validate checks flag combinations cobra cannot express.
func (o *options) validate() error {
	var actions []string
	for name, set := range map[string]bool{
		"--preview":  o.preview,
		"--status":   o.status,
		"--stage":    o.stage,
		"--history":  o.history,
		"--branches": o.branches,
	} {
		if set {
			actions = append(actions, name)
		}
	}
	if len(actions) > 1 {
		sort.Strings(actions)
		return usageError{fmt.Errorf("flags %s are mutually exclusive", strings.Join(actions, ", "))}
	}
	if o.output != "text" && o.output != "json" {
		return usageError{fmt.Errorf("invalid output format %q (use text or json)", o.output)}
	}
	if o.commits < -1 {
		return usageError{fmt.Errorf("--commits must not be negative")}
	}
	return nil
}

func newRootCmd(std streams) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "autocommit",
		Short: "Generate commit messages from your changes with AI",
		Long: `autocommit reads the pending changes of a git repository, asks an AI
provider (openai, google, azure or ollama) for a commit title and
description, and commits once you confirm.

Configuration comes from the environment, ./.env and ~/.env.`,
		Example: `  autocommit                       # commit staged changes
  autocommit --all                 # include unstaged and untracked files
  autocommit -p google -l es       # use Gemini, write in Spanish
  autocommit --preview --copy      # show the message and copy it
  autocommit --status -o json      # repository status for scripts`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd.Context(), std, opts)
		},
	}
	root.SetOut(std.out)
	root.SetErr(std.err)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	f := root.Flags()
	f.StringVarP(&opts.provider, "provider", "p", "", "AI provider: "+strings.Join(llm.Names(), ", ")+" (default DEFAULT_AI_PROVIDER)")
	f.BoolVarP(&opts.all, "all", "a", false, "include staged, unstaged and untracked changes")
	f.StringVarP(&opts.language, "language", "l", "", "ISO 639-1 language code for the message (default DEFAULT_LANGUAGE)")
	f.StringVarP(&opts.repo, "repo", "r", ".", "path to the git repository")
	f.StringVarP(&opts.context, "context", "c", "", "additional context for the model")
	f.BoolVar(&opts.preview, "preview", false, "generate and show the message without committing")
	f.BoolVar(&opts.status, "status", false, "show repository status")
	f.BoolVar(&opts.stage, "stage", false, "choose files to stage interactively")
	f.BoolVar(&opts.history, "history", false, "show recent commit history")
	f.BoolVar(&opts.branches, "branches", false, "show branch information")
	f.BoolVarP(&opts.autoConfirm, "auto-confirm", "y", false, "commit without asking for confirmation")
	f.BoolVar(&opts.push, "push", false, "push the current branch after committing")
	f.BoolVar(&opts.noStatus, "no-status", false, "do not show repository status before generating")
	f.BoolVar(&opts.copy, "copy", false, "copy the previewed message to the clipboard")
	f.IntVar(&opts.commits, "commits", -1, "number of previous commit subjects sent as context (default HISTORY_DEPTH)")

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.output, "output", "o", "text", "output format: text or json")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging on stderr")

	root.AddCommand(
		newProvidersCmd(std, opts),
		newConfigCmd(std, opts),
		newSetupCmd(std, opts),
		newVersionCmd(std),
	)
	return root
}

// env is what every command needs after flags are parsed.
type env struct {
	settings config.Settings
	logger   zerolog.Logger
	cleanup  func()
}

// loadEnv reads the configuration and starts logging.
func loadEnv(std streams, opts *options) (*env, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	settings, err := config.Load()
	if err != nil {
		return nil, err
	}

	path, cleanup, err := observability.Init(observability.Options{
		Path:    settings.LogPath,
		Verbose: opts.verbose,
		Console: std.err,
	})
	if err != nil && opts.verbose {
		fmt.Fprintf(std.err, "warning: cannot open log file %s: %v\n", path, err)
	}
	return &env{settings: settings, logger: *observability.Logger(), cleanup: cleanup}, nil
}

func runRoot(ctx context.Context, std streams, opts *options) error {
	e, err := loadEnv(std, opts)
	if err != nil {
		return err
	}
	defer e.cleanup()

	repoPath, err := resolveRepo(opts.repo)
	if err != nil {
		return err
	}

	renderer, err := loadTemplates(e.settings)
	if err != nil {
		return err
	}

	svc := app.New(app.Config{
		Repo: git.New(repoPath),
		NewProvider: func(name string) (ports.Provider, error) {
			if name == "" {
				name = e.settings.DefaultProvider
			}
			c, err := llm.New(name, e.settings, renderer, e.logger)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		Redact:          e.settings.Redact,
		DiffCap:         e.settings.DiffCap,
		DefaultLanguage: e.settings.DefaultLanguage,
		Logger:          e.logger,
		Progress:        progress(std, opts),
	})

	switch {
	case opts.status:
		return runStatus(ctx, std, opts, svc, repoPath)
	case opts.history:
		return runHistory(ctx, std, opts, svc)
	case opts.branches:
		return runBranches(ctx, std, opts, svc)
	case opts.stage:
		return runStage(ctx, std, opts, svc)
	case opts.preview:
		return runPreview(ctx, std, opts, svc, e.settings)
	}
	return runCommit(ctx, std, opts, svc, e.settings, repoPath)
}

func resolveRepo(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", usageError{fmt.Errorf("invalid repository path %q: %w", path, err)}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", usageError{fmt.Errorf("repository path does not exist: %s", path)}
	}
	if !info.IsDir() {
		return "", usageError{fmt.Errorf("repository path is not a directory: %s", path)}
	}
	return abs, nil
}

func loadTemplates(s config.Settings) (*prompt.Renderer, error) {
	if s.PromptsFile == "" {
		return prompt.New(prompt.Default())
	}
	r, err := prompt.LoadFile(s.PromptsFile)
	if err != nil {
		if errors.Is(err, prompt.ErrInvalidTemplates) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: AUTOCOMMIT_PROMPTS_FILE: %v", config.ErrInvalid, err)
	}
	return r, nil
}

// progress returns the spinner hook, or nil when it would interleave with
// logs or machine-readable output.
func progress(std streams, opts *options) func(string) func() {
	if opts.verbose || opts.json() {
		return nil
	}
	return func(label string) func() {
		return ui.StartSpinner(std.err, label)
	}
}

func runStatus(ctx context.Context, std streams, opts *options, svc *app.Service, repoPath string) error {
	st, err := svc.Status(ctx)
	if err != nil {
		return err
	}
	if opts.json() {
		return writeJSON(std.out, map[string]any{"repo_path": repoPath, "status": st})
	}
	ui.RenderStatus(std.out, repoPath, st)
	return nil
}

func runHistory(ctx context.Context, std streams, opts *options, svc *app.Service) error {
	commits, err := svc.History(ctx, historyCount)
	if err != nil {
		return err
	}
	if opts.json() {
		if commits == nil {
			commits = []ports.CommitInfo{}
		}
		return writeJSON(std.out, map[string]any{"commits": commits})
	}
	ui.RenderHistory(std.out, commits)
	return nil
}

func runBranches(ctx context.Context, std streams, opts *options, svc *app.Service) error {
	b, err := svc.Branches(ctx)
	if err != nil {
		return err
	}
	if opts.json() {
		return writeJSON(std.out, map[string]any{"branches": b})
	}
	ui.RenderBranches(std.out, b)
	return nil
}

func runStage(ctx context.Context, std streams, opts *options, svc *app.Service) error {
	st, err := svc.Status(ctx)
	if err != nil {
		return err
	}

	menu := ui.NewStaging(st)
	if _, err := tea.NewProgram(menu, tea.WithContext(ctx), tea.WithOutput(std.err)).Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("staging menu: %w", err)
	}

	stage, unstage, ok := menu.Result()
	if !ok {
		if opts.json() {
			_ = writeJSON(std.out, map[string]any{"staged": false})
		} else {
			ui.Warn(std.err, "Staging cancelled.")
		}
		return errDeclined
	}
	if err := svc.ApplyStaging(ctx, stage, unstage); err != nil {
		return err
	}

	if opts.json() {
		return writeJSON(std.out, map[string]any{"staged": true, "added": nonNil(stage), "removed": nonNil(unstage)})
	}
	ui.Success(std.out, "Staged %d file(s), unstaged %d file(s).", len(stage), len(unstage))
	return nil
}

func runPreview(ctx context.Context, std streams, opts *options, svc *app.Service, s config.Settings) error {
	res, err := svc.Preview(ctx, generationOptions(opts, s))
	if err != nil {
		return err
	}
	if res.Outcome == app.OutcomeNoChanges {
		return nothingToCommit(opts)
	}

	if opts.copy {
		if err := clipboard.WriteAll(res.Message.Format()); err != nil {
			ui.Warn(std.err, "Could not copy to clipboard: %v", err)
		} else if !opts.json() {
			ui.Success(std.err, "Copied to clipboard.")
		}
	}

	if opts.json() {
		return writeJSON(std.out, resultOutput(res))
	}
	fmt.Fprintln(std.out, ui.MessageBox(res.Provider, res.Message))
	return nil
}

func runCommit(ctx context.Context, std streams, opts *options, svc *app.Service, s config.Settings, repoPath string) error {
	if !opts.noStatus && !opts.json() {
		if st, err := svc.Status(ctx); err == nil {
			ui.RenderStatus(std.err, repoPath, st)
		}
	}

	genOpts := generationOptions(opts, s)
	genOpts.Confirmer = ui.Confirmer{
		Provider:   providerName(opts, s),
		Out:        std.err,
		Accessible: os.Getenv("ACCESSIBLE") != "",
	}

	res, err := svc.GenerateAndCommit(ctx, genOpts)
	if err != nil {
		return err
	}

	switch res.Outcome {
	case app.OutcomeNoChanges:
		return nothingToCommit(opts)
	case app.OutcomeCancelled:
		if opts.json() {
			_ = writeJSON(std.out, resultOutput(res))
		} else {
			ui.Warn(std.err, "Commit cancelled.")
		}
		return errDeclined
	}

	if opts.json() {
		return writeJSON(std.out, resultOutput(res))
	}
	if opts.autoConfirm {
		fmt.Fprintln(std.out, ui.MessageBox(res.Provider, res.Message))
	}
	ui.Success(std.out, "Committed %s", ports.CommitInfo{Hash: res.CommitID}.Short())
	if res.Pushed {
		ui.Success(std.out, "Pushed to origin.")
	}
	return nil
}

func generationOptions(opts *options, s config.Settings) app.Options {
	scope := ports.ScopeStaged
	if opts.all {
		scope = ports.ScopeAll
	}
	depth := s.HistoryDepth
	if opts.commits >= 0 {
		depth = opts.commits
	}
	return app.Options{
		Provider:     opts.provider,
		Scope:        scope,
		Language:     opts.language,
		Context:      opts.context,
		HistoryDepth: depth,
		AutoConfirm:  opts.autoConfirm,
		Push:         opts.push,
	}
}

func providerName(opts *options, s config.Settings) string {
	if p := strings.TrimSpace(opts.provider); p != "" {
		return strings.ToLower(p)
	}
	return s.DefaultProvider
}

func nothingToCommit(opts *options) error {
	if opts.all || opts.json() {
		return errNothingToCommit
	}
	return fmt.Errorf("%w: stage changes with git add or use --all", errNothingToCommit)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
