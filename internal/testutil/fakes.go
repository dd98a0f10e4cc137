package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/chuckie/autocommit/internal/domain"
	"github.com/chuckie/autocommit/internal/ports"
)

// Reply is one scripted backend answer.
type Reply struct {
	Text string
	Err  error
}

// FakeBackend is a scripted llm.Backend. Each Complete call consumes the
// next reply; the last reply repeats once the script runs out.
type FakeBackend struct {
	ProviderName string
	Configured   bool
	Replies      []Reply

	mu      sync.Mutex
	Prompts []string
	Systems []string
}

func (f *FakeBackend) Name() string {
	if f.ProviderName == "" {
		return "fake"
	}
	return f.ProviderName
}

func (f *FakeBackend) IsConfigured() bool {
	return f.Configured
}

func (f *FakeBackend) Complete(ctx context.Context, system, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := len(f.Prompts)
	f.Prompts = append(f.Prompts, prompt)
	f.Systems = append(f.Systems, system)

	if len(f.Replies) == 0 {
		return "", errors.New("fake backend: no replies scripted")
	}
	if i >= len(f.Replies) {
		i = len(f.Replies) - 1
	}
	return f.Replies[i].Text, f.Replies[i].Err
}

// Calls returns how many times Complete was called.
func (f *FakeBackend) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Prompts)
}

// FakeProvider is a deterministic ports.Provider.
type FakeProvider struct {
	ProviderName string
	Message      domain.CommitMessage
	Err          error
	Requests     []ports.GenerationRequest
	// OnGenerate runs before returning, e.g. to cancel a context mid-flow.
	OnGenerate func()
}

func (f *FakeProvider) Name() string {
	if f.ProviderName == "" {
		return "fake"
	}
	return f.ProviderName
}

func (f *FakeProvider) IsConfigured() bool {
	return true
}

func (f *FakeProvider) Generate(ctx context.Context, req ports.GenerationRequest) (domain.CommitMessage, error) {
	f.Requests = append(f.Requests, req)
	if f.OnGenerate != nil {
		f.OnGenerate()
	}
	if f.Err != nil {
		return domain.CommitMessage{}, f.Err
	}
	return f.Message, nil
}

// Commit records one call to FakeRepository.Commit.
type Commit struct {
	Title       string
	Description string
}

// FakeRepository is an in-memory ports.Repository.
type FakeRepository struct {
	NotRepository bool
	StagedDiff    string
	AllDiff       string
	Branch        string
	History       []ports.CommitInfo
	StatusValue   ports.Status
	BranchesValue ports.BranchInfo

	DiffErr   error
	StageErr  error
	CommitErr error
	PushErr   error

	StageAllCalls int
	Staged        []string
	Unstaged      []string
	Commits       []Commit
	Pushes        int
	// Ops records mutating operations in call order.
	Ops []string
}

func (f *FakeRepository) IsRepository(ctx context.Context) (bool, error) {
	return !f.NotRepository, nil
}

func (f *FakeRepository) HasChanges(ctx context.Context, scope ports.DiffScope) (bool, error) {
	d, err := f.Diff(ctx, scope)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(d) != "", nil
}

func (f *FakeRepository) Diff(ctx context.Context, scope ports.DiffScope) (string, error) {
	if f.DiffErr != nil {
		return "", f.DiffErr
	}
	if scope == ports.ScopeAll {
		return f.AllDiff, nil
	}
	return f.StagedDiff, nil
}

func (f *FakeRepository) StageAll(ctx context.Context) error {
	f.Ops = append(f.Ops, "stage-all")
	if f.StageErr != nil {
		return f.StageErr
	}
	f.StageAllCalls++
	return nil
}

func (f *FakeRepository) StageFiles(ctx context.Context, paths []string) error {
	f.Ops = append(f.Ops, "stage")
	if f.StageErr != nil {
		return f.StageErr
	}
	f.Staged = append(f.Staged, paths...)
	return nil
}

func (f *FakeRepository) UnstageFiles(ctx context.Context, paths []string) error {
	f.Ops = append(f.Ops, "unstage")
	if f.StageErr != nil {
		return f.StageErr
	}
	f.Unstaged = append(f.Unstaged, paths...)
	return nil
}

func (f *FakeRepository) Commit(ctx context.Context, title, description string) (string, error) {
	f.Ops = append(f.Ops, "commit")
	if f.CommitErr != nil {
		return "", f.CommitErr
	}
	f.Commits = append(f.Commits, Commit{Title: title, Description: description})
	return "abc123def456", nil
}

func (f *FakeRepository) Push(ctx context.Context) error {
	f.Ops = append(f.Ops, "push")
	if f.PushErr != nil {
		return f.PushErr
	}
	f.Pushes++
	return nil
}

func (f *FakeRepository) CurrentBranch(ctx context.Context) (string, error) {
	return f.Branch, nil
}

func (f *FakeRepository) RecentCommits(ctx context.Context, n int) ([]ports.CommitInfo, error) {
	if n < len(f.History) {
		return f.History[:n], nil
	}
	return f.History, nil
}

func (f *FakeRepository) Status(ctx context.Context) (ports.Status, error) {
	return f.StatusValue, nil
}

func (f *FakeRepository) Branches(ctx context.Context) (ports.BranchInfo, error) {
	return f.BranchesValue, nil
}

// FakeRedactor is a fake redactor that does nothing.
type FakeRedactor struct{}

func (f *FakeRedactor) Redact(text string) string {
	return text
}

func (f *FakeRedactor) RedactLog(text string) string {
	return text
}
