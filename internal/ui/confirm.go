package ui

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/chuckie/autocommit/internal/domain"
)

// Confirmer shows a generated message and asks whether to commit it. It
// satisfies app.Confirmer.
type Confirmer struct {
	Provider string
	// Out receives the message box and the prompt. Nil means stderr, which
	// keeps stdout clean for piping.
	Out io.Writer
	// Accessible switches huh to plain line-based prompts.
	Accessible bool
}

// Confirm renders msg and runs a yes/no prompt. Aborting the prompt
// (ctrl+c) returns huh.ErrUserAborted.
func (c Confirmer) Confirm(ctx context.Context, msg domain.CommitMessage) (bool, error) {
	out := c.Out
	if out == nil {
		out = os.Stderr
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, MessageBox(c.Provider, msg))
	fmt.Fprintln(out)

	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Use this commit message?").
				Affirmative("Commit").
				Negative("Cancel").
				Value(&ok),
		),
	).WithOutput(out).WithAccessible(c.Accessible)

	if err := form.RunWithContext(ctx); err != nil {
		return false, err
	}
	return ok, nil
}
