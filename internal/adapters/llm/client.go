package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/chuckie/autocommit/internal/domain"
	"github.com/chuckie/autocommit/internal/observability"
	"github.com/chuckie/autocommit/internal/ports"
	"github.com/chuckie/autocommit/internal/prompt"
	"github.com/chuckie/autocommit/internal/retry"
)

// MaxAttempts is the number of generation attempts before giving up.
const MaxAttempts = 3

// Backend is one vendor API. Complete issues exactly one request and
// returns the raw text of the model's reply.
type Backend interface {
	Name() string
	IsConfigured() bool
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Client implements ports.Provider on top of a Backend: it renders the
// prompt, calls the backend and parses the reply, retrying up to
// MaxAttempts times.
type Client struct {
	backend  Backend
	renderer *prompt.Renderer
	logger   zerolog.Logger
}

var _ ports.Provider = (*Client)(nil)

// NewClient wraps backend. A nil renderer uses the built-in templates.
func NewClient(backend Backend, renderer *prompt.Renderer, logger zerolog.Logger) *Client {
	if renderer == nil {
		renderer = prompt.MustDefault()
	}
	return &Client{
		backend:  backend,
		renderer: renderer,
		logger:   logger.With().Str("provider", backend.Name()).Logger(),
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return c.backend.Name()
}

// IsConfigured reports whether the backend has the settings it needs.
func (c *Client) IsConfigured() bool {
	return c.backend.IsConfigured()
}

// Generate produces a commit message for req. Failed attempts are logged at
// debug level only; after MaxAttempts failures an *ExhaustedError is
// returned.
func (c *Client) Generate(ctx context.Context, req ports.GenerationRequest) (domain.CommitMessage, error) {
	text, err := c.renderer.Render(prompt.Input{
		Diff:            req.Diff,
		LanguageCode:    req.Language,
		Branch:          req.Branch,
		PreviousCommits: req.PreviousCommits,
		Context:         req.Context,
	})
	if err != nil {
		return domain.CommitMessage{}, fmt.Errorf("render prompt: %w", err)
	}

	msg, err := retry.Do(ctx, MaxAttempts, func(ctx context.Context, attempt int) (domain.CommitMessage, error) {
		raw, err := c.backend.Complete(ctx, c.renderer.System(), text)
		if err != nil {
			err = &BackendError{Provider: c.Name(), Err: err}
			c.logger.Debug().Err(err).Int("attempt", attempt).Msg("generation attempt failed")
			return domain.CommitMessage{}, err
		}

		msg, err := ParseCommitMessage(raw)
		if err != nil {
			c.logger.Debug().
				Err(err).
				Int("attempt", attempt).
				Int("raw_len", len(raw)).
				Str("raw_snip", observability.Snip(observability.RedactForLog(raw), 600)).
				Msg("generation attempt failed")
			return domain.CommitMessage{}, err
		}
		return msg, nil
	})

	var ex *retry.ExhaustedError
	if errors.As(err, &ex) {
		c.logger.Info().Int("attempts", ex.Attempts).Err(ex.Last).Msg("generation exhausted")
		return domain.CommitMessage{}, &ExhaustedError{Provider: c.Name(), Attempts: ex.Attempts, Last: ex.Last}
	}
	if err != nil {
		return domain.CommitMessage{}, err
	}
	return msg, nil
}
