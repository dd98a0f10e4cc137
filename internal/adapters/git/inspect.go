package git

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/chuckie/autocommit/internal/ports"
)

func (r *Repository) open() (*gogit.Repository, error) {
	repo, err := gogit.PlainOpenWithOptions(r.dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, &RepositoryError{Op: "open", Err: err}
	}
	return repo, nil
}

// CurrentBranch returns the checked out branch name. A detached HEAD is
// reported by its abbreviated hash.
func (r *Repository) CurrentBranch(ctx context.Context) (string, error) {
	repo, err := r.open()
	if err != nil {
		return "", err
	}
	return currentBranch(repo)
}

func currentBranch(repo *gogit.Repository) (string, error) {
	head, err := repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", &RepositoryError{Op: "head", Err: err}
	}
	if head.Type() == plumbing.SymbolicReference {
		// Also covers an unborn branch, which has no commit to resolve.
		return head.Target().Short(), nil
	}
	return head.Hash().String()[:8], nil
}

// RecentCommits returns up to n commits reachable from HEAD, newest first.
// An empty repository has no history and returns nil.
func (r *Repository) RecentCommits(ctx context.Context, n int) ([]ports.CommitInfo, error) {
	if n <= 0 {
		return nil, nil
	}
	repo, err := r.open()
	if err != nil {
		return nil, err
	}

	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		return nil, &RepositoryError{Op: "log", Err: err}
	}

	iter, err := repo.Log(&gogit.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, &RepositoryError{Op: "log", Err: err}
	}
	defer iter.Close()

	var commits []ports.CommitInfo
	for len(commits) < n {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := iter.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &RepositoryError{Op: "log", Err: err}
		}
		commits = append(commits, commitInfo(c))
	}
	return commits, nil
}

func commitInfo(c *object.Commit) ports.CommitInfo {
	subject, _, _ := strings.Cut(strings.TrimSpace(c.Message), "\n")
	return ports.CommitInfo{
		Hash:    c.Hash.String(),
		Message: subject,
		Author:  c.Author.Name,
		Date:    c.Author.When,
	}
}

// Status lists staged, unstaged and untracked paths.
func (r *Repository) Status(ctx context.Context) (ports.Status, error) {
	repo, err := r.open()
	if err != nil {
		return ports.Status{}, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return ports.Status{}, &RepositoryError{Op: "status", Err: err}
	}
	st, err := wt.Status()
	if err != nil {
		return ports.Status{}, &RepositoryError{Op: "status", Err: err}
	}

	out := ports.Status{}
	out.Branch, _ = currentBranch(repo)

	paths := make([]string, 0, len(st))
	for p := range st {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		fs := st[p]
		if fs.Staging == gogit.Untracked && fs.Worktree == gogit.Untracked {
			out.Untracked = append(out.Untracked, p)
			continue
		}
		if kind := changeKind(fs.Staging); kind != "" {
			out.Staged = append(out.Staged, ports.FileChange{Path: p, Kind: kind})
		}
		if kind := changeKind(fs.Worktree); kind != "" {
			out.Unstaged = append(out.Unstaged, ports.FileChange{Path: p, Kind: kind})
		}
	}
	return out, nil
}

func changeKind(code gogit.StatusCode) string {
	switch code {
	case gogit.Added:
		return "added"
	case gogit.Modified:
		return "modified"
	case gogit.Deleted:
		return "deleted"
	case gogit.Renamed:
		return "renamed"
	case gogit.Copied:
		return "copied"
	case gogit.UpdatedButUnmerged:
		return "unmerged"
	}
	return ""
}

// Branches lists local and remote-tracking branches.
func (r *Repository) Branches(ctx context.Context) (ports.BranchInfo, error) {
	repo, err := r.open()
	if err != nil {
		return ports.BranchInfo{}, err
	}

	info := ports.BranchInfo{}
	info.Current, _ = currentBranch(repo)

	refs, err := repo.References()
	if err != nil {
		return ports.BranchInfo{}, &RepositoryError{Op: "branches", Err: err}
	}
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name()
		switch {
		case name.IsBranch():
			info.Local = append(info.Local, name.Short())
		case name.IsRemote():
			if strings.HasSuffix(name.String(), "/HEAD") {
				return nil
			}
			info.Remote = append(info.Remote, name.Short())
		}
		return nil
	})
	if err != nil {
		return ports.BranchInfo{}, &RepositoryError{Op: "branches", Err: err}
	}

	sort.Strings(info.Local)
	sort.Strings(info.Remote)
	return info, nil
}
