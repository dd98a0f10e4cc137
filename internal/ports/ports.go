package ports

import (
	"context"
	"time"

	"github.com/chuckie/autocommit/internal/domain"
)

// Provider generates commit messages from a change set using one AI backend.
type Provider interface {
	Name() string
	// IsConfigured reports whether the bound settings carry everything the
	// backend needs. It never touches the network.
	IsConfigured() bool
	Generate(ctx context.Context, req GenerationRequest) (domain.CommitMessage, error)
}

// GenerationRequest is the input to Provider.Generate.
type GenerationRequest struct {
	Diff            string
	Language        string // ISO 639-1 code
	Branch          string
	PreviousCommits []string
	Context         string
}

// DiffScope selects which pending changes a diff covers.
type DiffScope int

const (
	// ScopeStaged covers the index only.
	ScopeStaged DiffScope = iota
	// ScopeAll covers staged, unstaged and untracked changes.
	ScopeAll
)

func (s DiffScope) String() string {
	if s == ScopeAll {
		return "all"
	}
	return "staged"
}

// Repository is the interface for version control operations.
type Repository interface {
	IsRepository(ctx context.Context) (bool, error)
	HasChanges(ctx context.Context, scope DiffScope) (bool, error)
	Diff(ctx context.Context, scope DiffScope) (string, error)
	StageAll(ctx context.Context) error
	StageFiles(ctx context.Context, paths []string) error
	UnstageFiles(ctx context.Context, paths []string) error
	Commit(ctx context.Context, title, description string) (commitID string, err error)
	Push(ctx context.Context) error
	CurrentBranch(ctx context.Context) (string, error)
	RecentCommits(ctx context.Context, n int) ([]CommitInfo, error)
	Status(ctx context.Context) (Status, error)
	Branches(ctx context.Context) (BranchInfo, error)
}

// FileChange is one path in the status listing.
type FileChange struct {
	Path string `json:"path"`
	Kind string `json:"kind"` // added, modified, deleted, renamed, copied, unmerged
}

// Status summarizes the working tree.
type Status struct {
	Branch    string       `json:"branch"`
	Staged    []FileChange `json:"staged"`
	Unstaged  []FileChange `json:"unstaged"`
	Untracked []string     `json:"untracked"`
}

// Clean reports whether there is nothing to commit.
func (s Status) Clean() bool {
	return len(s.Staged) == 0 && len(s.Unstaged) == 0 && len(s.Untracked) == 0
}

// CommitInfo describes one commit in the history listing.
type CommitInfo struct {
	Hash    string    `json:"hash"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
}

// Short returns the abbreviated hash.
func (c CommitInfo) Short() string {
	if len(c.Hash) > 8 {
		return c.Hash[:8]
	}
	return c.Hash
}

// BranchInfo lists local and remote branches.
type BranchInfo struct {
	Current string   `json:"current"`
	Local   []string `json:"local"`
	Remote  []string `json:"remote"`
}

// Redactor redacts sensitive data from text.
type Redactor interface {
	Redact(text string) string
	RedactLog(text string) string // for logging (more aggressive)
}
