package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/chuckie/autocommit/internal/ports"
)

// RepositoryError wraps a failed version control operation.
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("git %s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// Repository implements ports.Repository. Mutations and diffs shell out to
// the git binary; read-only inspection goes through go-git.
type Repository struct {
	dir string
}

var _ ports.Repository = (*Repository)(nil)

// New returns a Repository rooted at dir ("" means the working directory).
func New(dir string) *Repository {
	if dir == "" {
		dir = "."
	}
	return &Repository{dir: dir}
}

// IsRepository checks if dir is inside a git work tree.
func (r *Repository) IsRepository(ctx context.Context) (bool, error) {
	out, _, err := r.run(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return false, nil // not in repo
	}
	return strings.TrimSpace(out) == "true", nil
}

// HasChanges reports whether there is anything to commit in scope.
func (r *Repository) HasChanges(ctx context.Context, scope ports.DiffScope) (bool, error) {
	if scope == ports.ScopeAll {
		out, _, err := r.run(ctx, "status", "--porcelain")
		if err != nil {
			return false, &RepositoryError{Op: "status", Err: err}
		}
		return strings.TrimSpace(out) != "", nil
	}

	_, code, err := r.run(ctx, "diff", "--cached", "--quiet", "--exit-code")
	if err != nil && code != 1 {
		return false, &RepositoryError{Op: "diff", Err: err}
	}
	return code == 1, nil
}

// Diff returns the pending changes in scope. ScopeAll includes untracked
// files as additions.
func (r *Repository) Diff(ctx context.Context, scope ports.DiffScope) (string, error) {
	if scope == ports.ScopeStaged {
		out, _, err := r.run(ctx, "diff", "--cached", "--no-color")
		if err != nil {
			return "", &RepositoryError{Op: "diff", Err: err}
		}
		return out, nil
	}

	var b strings.Builder
	if r.hasHead(ctx) {
		out, _, err := r.run(ctx, "diff", "HEAD", "--no-color")
		if err != nil {
			return "", &RepositoryError{Op: "diff", Err: err}
		}
		b.WriteString(out)
	} else {
		for _, args := range [][]string{{"diff", "--cached", "--no-color"}, {"diff", "--no-color"}} {
			out, _, err := r.run(ctx, args...)
			if err != nil {
				return "", &RepositoryError{Op: "diff", Err: err}
			}
			b.WriteString(out)
		}
	}

	top, _, err := r.run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", &RepositoryError{Op: "rev-parse", Err: err}
	}
	top = strings.TrimSpace(top)

	untracked, err := r.untrackedFiles(ctx, top)
	if err != nil {
		return "", err
	}
	for _, path := range untracked {
		// --no-index exits 1 when the files differ, which they always do here.
		out, code, err := r.runIn(ctx, top, "diff", "--no-color", "--no-index", "--", os.DevNull, path)
		if err != nil && code != 1 {
			return "", &RepositoryError{Op: "diff", Err: err}
		}
		b.WriteString(out)
	}
	return b.String(), nil
}

// StageAll stages every change, including deletions and untracked files.
func (r *Repository) StageAll(ctx context.Context) error {
	if _, _, err := r.run(ctx, "add", "--all"); err != nil {
		return &RepositoryError{Op: "add", Err: err}
	}
	return nil
}

// StageFiles stages the given paths.
func (r *Repository) StageFiles(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"add", "--all", "--"}, paths...)
	if _, _, err := r.run(ctx, args...); err != nil {
		return &RepositoryError{Op: "add", Err: err}
	}
	return nil
}

// UnstageFiles removes the given paths from the index, keeping the work
// tree untouched.
func (r *Repository) UnstageFiles(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	var args []string
	if r.hasHead(ctx) {
		args = append([]string{"reset", "--quiet", "HEAD", "--"}, paths...)
	} else {
		args = append([]string{"rm", "--cached", "--quiet", "-r", "--"}, paths...)
	}
	if _, _, err := r.run(ctx, args...); err != nil {
		return &RepositoryError{Op: args[0], Err: err}
	}
	return nil
}

// Commit records the staged changes. The message is passed through a temp
// file so it is never subject to shell or argument length limits.
func (r *Repository) Commit(ctx context.Context, title, description string) (string, error) {
	message := title
	if strings.TrimSpace(description) != "" {
		message += "\n\n" + description
	}

	tmpFile, err := os.CreateTemp("", "autocommit-*.txt")
	if err != nil {
		return "", &RepositoryError{Op: "commit", Err: fmt.Errorf("create temp file: %w", err)}
	}
	defer func() {
		_ = os.Remove(tmpFile.Name())
	}()

	if _, err := tmpFile.WriteString(message); err != nil {
		tmpFile.Close()
		return "", &RepositoryError{Op: "commit", Err: fmt.Errorf("write message: %w", err)}
	}
	tmpFile.Close()

	if _, _, err := r.run(ctx, "commit", "--quiet", "-F", tmpFile.Name()); err != nil {
		return "", &RepositoryError{Op: "commit", Err: err}
	}

	out, _, err := r.run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", &RepositoryError{Op: "rev-parse", Err: err}
	}
	return strings.TrimSpace(out), nil
}

// Push pushes the current branch to origin.
func (r *Repository) Push(ctx context.Context) error {
	branch, err := r.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	if _, _, err := r.run(ctx, "push", "origin", branch); err != nil {
		return &RepositoryError{Op: "push", Err: err}
	}
	return nil
}

func (r *Repository) hasHead(ctx context.Context) bool {
	_, _, err := r.run(ctx, "rev-parse", "--verify", "--quiet", "HEAD")
	return err == nil
}

// untrackedFiles lists untracked, non-ignored paths relative to top.
func (r *Repository) untrackedFiles(ctx context.Context, top string) ([]string, error) {
	out, _, err := r.runIn(ctx, top, "ls-files", "--others", "--exclude-standard", "-z")
	if err != nil {
		return nil, &RepositoryError{Op: "ls-files", Err: err}
	}
	var files []string
	for _, f := range strings.Split(out, "\x00") {
		if f != "" {
			files = append(files, f)
		}
	}
	return files, nil
}

// run executes git in the repository directory and returns stdout and the
// exit code. Errors carry git's stderr when it printed any.
func (r *Repository) run(ctx context.Context, args ...string) (string, int, error) {
	return r.runIn(ctx, r.dir, args...)
}

func (r *Repository) runIn(ctx context.Context, dir string, args ...string) (string, int, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "LC_ALL=C")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		code := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return string(out), code, errors.New(msg)
		}
		return string(out), code, err
	}
	return string(out), 0, nil
}
