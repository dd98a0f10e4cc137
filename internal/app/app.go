package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/chuckie/autocommit/internal/domain"
	"github.com/chuckie/autocommit/internal/ports"
	"github.com/chuckie/autocommit/internal/security"
)

// ErrNotRepository is returned when the target directory is not inside a
// git work tree.
var ErrNotRepository = errors.New("not a git repository")

// truncationMarker is appended to diffs cut at the size cap.
const truncationMarker = "\n[diff truncated]\n"

// Outcome is how a generation flow ended.
type Outcome int

const (
	OutcomeCommitted Outcome = iota
	OutcomePreviewed
	OutcomeCancelled
	OutcomeNoChanges
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCommitted:
		return "committed"
	case OutcomePreviewed:
		return "previewed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeNoChanges:
		return "no-changes"
	}
	return "unknown"
}

// Confirmer asks the user whether to commit msg.
type Confirmer interface {
	Confirm(ctx context.Context, msg domain.CommitMessage) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, msg domain.CommitMessage) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, msg domain.CommitMessage) (bool, error) {
	return f(ctx, msg)
}

// ProviderFactory builds a ready-to-use provider by name. It is the single
// gate that rejects unknown or unconfigured providers.
type ProviderFactory func(name string) (ports.Provider, error)

// Config wires a Service.
type Config struct {
	Repo        ports.Repository
	NewProvider ProviderFactory
	// Redactor scrubs the diff before it is sent when Redact is set. Nil
	// means the built-in security.Redactor.
	Redactor ports.Redactor
	Redact   bool
	// DiffCap caps the diff size in bytes. 0 disables the cap.
	DiffCap         int
	DefaultLanguage string
	Logger          zerolog.Logger
	// Progress is called around the backend call with a label and returns
	// a stop function. Nil means no progress output.
	Progress func(label string) (stop func())
}

// Service sequences the commit flow: check for changes, obtain a message,
// confirm, stage, commit and push.
type Service struct {
	repo            ports.Repository
	newProvider     ProviderFactory
	redactor        ports.Redactor
	redact          bool
	diffCap         int
	defaultLanguage string
	logger          zerolog.Logger
	progress        func(label string) func()
}

// New creates a Service.
func New(cfg Config) *Service {
	s := &Service{
		repo:            cfg.Repo,
		newProvider:     cfg.NewProvider,
		redactor:        cfg.Redactor,
		redact:          cfg.Redact,
		diffCap:         cfg.DiffCap,
		defaultLanguage: cfg.DefaultLanguage,
		logger:          cfg.Logger,
		progress:        cfg.Progress,
	}
	if s.redactor == nil {
		s.redactor = security.NewRedactor()
	}
	if s.progress == nil {
		s.progress = func(string) func() { return func() {} }
	}
	return s
}

// Options controls one generation flow.
type Options struct {
	Provider string
	Scope    ports.DiffScope
	// Language is an ISO 639-1 code. Empty falls back to the configured
	// default, then "en".
	Language string
	Context  string
	// HistoryDepth is how many prior commit subjects are sent as context.
	HistoryDepth int
	AutoConfirm  bool
	Push         bool
	// Confirmer is required unless AutoConfirm is set.
	Confirmer Confirmer
}

// Result describes a finished flow.
type Result struct {
	Outcome  Outcome
	Provider string
	Language string
	Message  domain.CommitMessage
	CommitID string
	Pushed   bool
}

// Preview generates a message without touching the repository.
func (s *Service) Preview(ctx context.Context, opts Options) (Result, error) {
	res, err := s.generate(ctx, opts)
	if err != nil || res.Outcome == OutcomeNoChanges {
		return res, err
	}
	res.Outcome = OutcomePreviewed
	return res, nil
}

// GenerateAndCommit runs the full flow. A commit is created only when a
// valid message was generated and it was confirmed, either by the user or
// by opts.AutoConfirm. A declined message yields OutcomeCancelled and a nil
// error.
func (s *Service) GenerateAndCommit(ctx context.Context, opts Options) (Result, error) {
	if !opts.AutoConfirm && opts.Confirmer == nil {
		return Result{}, errors.New("confirmation required but no confirmer configured")
	}

	res, err := s.generate(ctx, opts)
	if err != nil || res.Outcome == OutcomeNoChanges {
		return res, err
	}

	if !opts.AutoConfirm {
		ok, err := opts.Confirmer.Confirm(ctx, res.Message)
		if err != nil {
			return res, err
		}
		if !ok {
			s.logger.Info().Str("provider", res.Provider).Msg("commit declined")
			res.Outcome = OutcomeCancelled
			return res, nil
		}
	}

	// Last point where an interrupt leaves the repository untouched.
	if err := ctx.Err(); err != nil {
		return res, err
	}

	// Staging and committing must not be split by an interrupt.
	commitCtx := context.WithoutCancel(ctx)
	if opts.Scope == ports.ScopeAll {
		if err := s.repo.StageAll(commitCtx); err != nil {
			return res, fmt.Errorf("stage changes: %w", err)
		}
	}

	id, err := s.repo.Commit(commitCtx, res.Message.Title, res.Message.Description)
	if err != nil {
		return res, fmt.Errorf("create commit: %w", err)
	}
	res.Outcome = OutcomeCommitted
	res.CommitID = id
	s.logger.Info().Str("provider", res.Provider).Str("commit", id).Msg("commit created")

	if opts.Push {
		if err := s.repo.Push(ctx); err != nil {
			return res, fmt.Errorf("committed %s but push failed: %w", ports.CommitInfo{Hash: id}.Short(), err)
		}
		res.Pushed = true
		s.logger.Info().Str("commit", id).Msg("pushed")
	}
	return res, nil
}

func (s *Service) generate(ctx context.Context, opts Options) (Result, error) {
	if err := s.ensureRepository(ctx); err != nil {
		return Result{}, err
	}

	// Build the provider before reading the diff so bad names and missing
	// credentials fail before any repository work.
	provider, err := s.newProvider(opts.Provider)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Provider: provider.Name(),
		Language: firstNonEmpty(opts.Language, s.defaultLanguage, "en"),
	}

	has, err := s.repo.HasChanges(ctx, opts.Scope)
	if err != nil {
		return res, fmt.Errorf("check for changes: %w", err)
	}
	if !has {
		res.Outcome = OutcomeNoChanges
		return res, nil
	}

	diff, err := s.repo.Diff(ctx, opts.Scope)
	if err != nil {
		return res, fmt.Errorf("read %s diff: %w", opts.Scope, err)
	}
	if strings.TrimSpace(diff) == "" {
		res.Outcome = OutcomeNoChanges
		return res, nil
	}
	diff = s.prepareDiff(diff)

	req := ports.GenerationRequest{
		Diff:     diff,
		Language: res.Language,
		Context:  strings.TrimSpace(opts.Context),
	}
	// Branch and history only enrich the prompt; failures are not fatal.
	if branch, err := s.repo.CurrentBranch(ctx); err == nil {
		req.Branch = branch
	} else {
		s.logger.Debug().Err(err).Msg("branch lookup failed")
	}
	if opts.HistoryDepth > 0 {
		commits, err := s.repo.RecentCommits(ctx, opts.HistoryDepth)
		if err != nil {
			s.logger.Debug().Err(err).Msg("history lookup failed")
		}
		for _, c := range commits {
			req.PreviousCommits = append(req.PreviousCommits, c.Message)
		}
	}

	stop := s.progress(fmt.Sprintf("Generating commit message with %s", provider.Name()))
	msg, err := provider.Generate(ctx, req)
	stop()
	if err != nil {
		return res, err
	}

	s.logger.Info().
		Str("provider", res.Provider).
		Str("scope", opts.Scope.String()).
		Int("diff_bytes", len(diff)).
		Msg("commit message generated")

	res.Message = msg
	return res, nil
}

// prepareDiff applies the size cap, then redaction.
func (s *Service) prepareDiff(diff string) string {
	if capped := capDiff(diff, s.diffCap); len(capped) != len(diff) {
		s.logger.Info().Int("bytes", len(diff)).Int("cap", s.diffCap).Msg("diff truncated")
		diff = capped
	}
	if !s.redact {
		return diff
	}
	redacted := s.redactor.Redact(diff)
	if n := security.CountRedactions(diff, redacted); n > 0 {
		ev := s.logger.Info().Int("count", n)
		if k, ok := s.redactor.(interface{ Kinds(string) []string }); ok {
			ev = ev.Strs("kinds", k.Kinds(diff))
		}
		ev.Msg(security.SummarizeRedactions(diff, redacted))
	}
	return redacted
}

// capDiff truncates diff to at most maxBytes plus a marker, never splitting
// a UTF-8 sequence. maxBytes <= 0 disables the cap.
func capDiff(diff string, maxBytes int) string {
	if maxBytes <= 0 || len(diff) <= maxBytes {
		return diff
	}
	n := maxBytes
	for n > 0 && !utf8.RuneStart(diff[n]) {
		n--
	}
	return diff[:n] + truncationMarker
}

// ApplyStaging stages and unstages the given paths.
func (s *Service) ApplyStaging(ctx context.Context, stage, unstage []string) error {
	if err := s.ensureRepository(ctx); err != nil {
		return err
	}
	ctx = context.WithoutCancel(ctx)
	if err := s.repo.StageFiles(ctx, stage); err != nil {
		return fmt.Errorf("stage files: %w", err)
	}
	if err := s.repo.UnstageFiles(ctx, unstage); err != nil {
		return fmt.Errorf("unstage files: %w", err)
	}
	s.logger.Info().Int("staged", len(stage)).Int("unstaged", len(unstage)).Msg("staging updated")
	return nil
}

// Status returns the working tree status.
func (s *Service) Status(ctx context.Context) (ports.Status, error) {
	if err := s.ensureRepository(ctx); err != nil {
		return ports.Status{}, err
	}
	return s.repo.Status(ctx)
}

// History returns up to n recent commits.
func (s *Service) History(ctx context.Context, n int) ([]ports.CommitInfo, error) {
	if err := s.ensureRepository(ctx); err != nil {
		return nil, err
	}
	return s.repo.RecentCommits(ctx, n)
}

// Branches returns local and remote branches.
func (s *Service) Branches(ctx context.Context) (ports.BranchInfo, error) {
	if err := s.ensureRepository(ctx); err != nil {
		return ports.BranchInfo{}, err
	}
	return s.repo.Branches(ctx)
}

func (s *Service) ensureRepository(ctx context.Context) error {
	ok, err := s.repo.IsRepository(ctx)
	if err != nil {
		return fmt.Errorf("check repository: %w", err)
	}
	if !ok {
		return ErrNotRepository
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
