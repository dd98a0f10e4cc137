package main

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/chuckie/autocommit/internal/adapters/llm"
	"github.com/chuckie/autocommit/internal/config"
	"github.com/chuckie/autocommit/internal/prompt"
)

// Process exit codes.
const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitDeclined    = 3
	exitInterrupted = 130
)

var (
	// errDeclined reports that the user rejected the generated message or
	// quit an interactive menu. It has already been reported to the user.
	errDeclined = errors.New("cancelled by user")
	// errNothingToCommit is returned when the selected scope has no changes.
	errNothingToCommit = errors.New("no changes to commit")
)

// usageError marks invalid flags or arguments.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// exitCode maps an error returned by a command to the process exit code.
func exitCode(err error) int {
	var usage usageError
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errDeclined):
		return exitDeclined
	case errors.Is(err, context.Canceled),
		errors.Is(err, huh.ErrUserAborted),
		errors.Is(err, tea.ErrProgramKilled):
		return exitInterrupted
	case errors.As(err, &usage),
		errors.Is(err, llm.ErrUnknownProvider),
		errors.Is(err, llm.ErrNotConfigured),
		errors.Is(err, config.ErrInvalid),
		errors.Is(err, prompt.ErrInvalidTemplates):
		return exitUsage
	}
	return exitFailure
}
