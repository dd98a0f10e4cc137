package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/chuckie/autocommit/internal/adapters/llm"
	"github.com/chuckie/autocommit/internal/ports"
)

// maxRemoteBranches caps the remote branch listing.
const maxRemoteBranches = 10

var (
	bold   = color.New(color.Bold)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

func rule(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 60))
}

// Success prints a green status line.
func Success(w io.Writer, format string, args ...any) {
	green.Fprintf(w, "✔ %s\n", fmt.Sprintf(format, args...))
}

// Warn prints a yellow status line.
func Warn(w io.Writer, format string, args ...any) {
	yellow.Fprintf(w, "! %s\n", fmt.Sprintf(format, args...))
}

// Fail prints a red status line.
func Fail(w io.Writer, format string, args ...any) {
	red.Fprintf(w, "✘ %s\n", fmt.Sprintf(format, args...))
}

// RenderStatus prints the working tree status.
func RenderStatus(w io.Writer, path string, st ports.Status) {
	rule(w)
	bold.Fprintf(w, "Repository status, branch: %s\n", st.Branch)
	if path != "" {
		fmt.Fprintf(w, "Path: %s\n", path)
	}
	rule(w)

	if len(st.Staged) > 0 {
		fmt.Fprintf(w, "Staged files (%d):\n", len(st.Staged))
		for _, f := range st.Staged {
			green.Fprintf(w, "   %-9s %s\n", f.Kind, f.Path)
		}
	}
	if len(st.Unstaged) > 0 {
		fmt.Fprintf(w, "Modified files (%d):\n", len(st.Unstaged))
		for _, f := range st.Unstaged {
			yellow.Fprintf(w, "   %-9s %s\n", f.Kind, f.Path)
		}
	}
	if len(st.Untracked) > 0 {
		fmt.Fprintf(w, "Untracked files (%d):\n", len(st.Untracked))
		for _, p := range st.Untracked {
			red.Fprintf(w, "   %-9s %s\n", "new", p)
		}
	}
	if st.Clean() {
		fmt.Fprintln(w, "Working directory clean, no changes detected")
	}
	rule(w)
}

// RenderHistory prints recent commits, newest first.
func RenderHistory(w io.Writer, commits []ports.CommitInfo) {
	rule(w)
	bold.Fprintf(w, "Recent commit history (%d commits)\n", len(commits))
	rule(w)
	for _, c := range commits {
		cyan.Fprint(w, c.Short())
		fmt.Fprintf(w, " - %s\n", c.Author)
		fmt.Fprintf(w, "   %s\n", c.Message)
		faint.Fprintf(w, "   %s\n\n", c.Date.Format("2006-01-02 15:04:05 -0700"))
	}
	rule(w)
}

// RenderBranches prints local and remote branches, marking the current one.
func RenderBranches(w io.Writer, b ports.BranchInfo) {
	rule(w)
	bold.Fprintln(w, "Branch information")
	rule(w)
	fmt.Fprintf(w, "Current branch: %s\n", b.Current)

	if len(b.Local) > 0 {
		fmt.Fprintf(w, "\nLocal branches (%d):\n", len(b.Local))
		for _, name := range b.Local {
			if name == b.Current {
				green.Fprintf(w, " * %s\n", name)
				continue
			}
			fmt.Fprintf(w, "   %s\n", name)
		}
	}

	if len(b.Remote) > 0 {
		fmt.Fprintf(w, "\nRemote branches (%d):\n", len(b.Remote))
		for i, name := range b.Remote {
			if i == maxRemoteBranches {
				faint.Fprintf(w, "   ... and %d more\n", len(b.Remote)-maxRemoteBranches)
				break
			}
			fmt.Fprintf(w, "   %s\n", name)
		}
	}
	rule(w)
}

// RenderProviders prints whether each provider is ready to use.
func RenderProviders(w io.Writer, providers []llm.ProviderStatus) {
	for _, p := range providers {
		marker := " "
		if p.Default {
			marker = "*"
		}
		if p.Configured {
			green.Fprintf(w, "%s %-7s configured", marker, p.Name)
		} else {
			red.Fprintf(w, "%s %-7s not configured", marker, p.Name)
		}
		if p.Model != "" {
			faint.Fprintf(w, " (model %s)", p.Model)
		}
		fmt.Fprintln(w)
		if !p.Configured && p.Hint != "" {
			fmt.Fprintf(w, "          %s\n", p.Hint)
		}
	}
}
