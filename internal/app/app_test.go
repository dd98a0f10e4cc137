package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/chuckie/autocommit/internal/adapters/llm"
	"github.com/chuckie/autocommit/internal/app"
	"github.com/chuckie/autocommit/internal/domain"
	"github.com/chuckie/autocommit/internal/ports"
	"github.com/chuckie/autocommit/internal/testutil"
)

func newService(repo ports.Repository, provider ports.Provider) *app.Service {
	return app.New(app.Config{
		Repo: repo,
		NewProvider: func(name string) (ports.Provider, error) {
			return provider, nil
		},
		Redact:  true,
		DiffCap: 8192,
		Logger:  zerolog.Nop(),
	})
}

func confirmWith(answer bool, calls *int) app.Confirmer {
	return app.ConfirmFunc(func(ctx context.Context, msg domain.CommitMessage) (bool, error) {
		*calls++
		return answer, nil
	})
}

func TestGenerateAndCommitWorkflow(t *testing.T) {
	repo := &testutil.FakeRepository{
		StagedDiff: testutil.SampleDiffSmall,
		Branch:     "feature/greeting",
		History: []ports.CommitInfo{
			{Hash: "1111111111", Message: "chore: init"},
			{Hash: "2222222222", Message: "docs: readme"},
		},
	}
	provider := &testutil.FakeProvider{ProviderName: "openai", Message: testutil.SampleMessage()}
	svc := newService(repo, provider)

	confirms := 0
	res, err := svc.GenerateAndCommit(context.Background(), app.Options{
		Provider:     "openai",
		Language:     "es",
		Context:      "  part of the onboarding work  ",
		HistoryDepth: 5,
		Confirmer:    confirmWith(true, &confirms),
	})
	if err != nil {
		t.Fatalf("GenerateAndCommit() error = %v", err)
	}

	if res.Outcome != app.OutcomeCommitted || res.CommitID != "abc123def456" {
		t.Errorf("result = %+v", res)
	}
	if confirms != 1 {
		t.Errorf("confirmer called %d times", confirms)
	}
	if len(repo.Commits) != 1 || repo.Commits[0].Title != "feat: greet the world" {
		t.Fatalf("commits = %+v", repo.Commits)
	}
	if repo.StageAllCalls != 0 {
		t.Error("staged scope must not stage anything")
	}

	req := provider.Requests[0]
	if req.Diff != testutil.SampleDiffSmall {
		t.Errorf("diff not passed verbatim: %q", req.Diff)
	}
	if req.Language != "es" || req.Branch != "feature/greeting" || req.Context != "part of the onboarding work" {
		t.Errorf("request = %+v", req)
	}
	if len(req.PreviousCommits) != 2 || req.PreviousCommits[0] != "chore: init" {
		t.Errorf("previous commits = %v", req.PreviousCommits)
	}
}

func TestGenerateAndCommitDeclined(t *testing.T) {
	repo := &testutil.FakeRepository{AllDiff: testutil.SampleDiffSmall}
	svc := newService(repo, &testutil.FakeProvider{Message: testutil.SampleMessage()})

	confirms := 0
	res, err := svc.GenerateAndCommit(context.Background(), app.Options{
		Scope:     ports.ScopeAll,
		Confirmer: confirmWith(false, &confirms),
	})
	if err != nil {
		t.Fatalf("declining is not an error, got %v", err)
	}
	if res.Outcome != app.OutcomeCancelled {
		t.Errorf("outcome = %v", res.Outcome)
	}
	if len(repo.Ops) != 0 {
		t.Errorf("declined flow touched the repository: %v", repo.Ops)
	}
}

func TestGenerateAndCommitAllStagesAfterConfirmation(t *testing.T) {
	repo := &testutil.FakeRepository{AllDiff: testutil.SampleDiffSmall}
	svc := newService(repo, &testutil.FakeProvider{Message: testutil.SampleMessage()})

	res, err := svc.GenerateAndCommit(context.Background(), app.Options{
		Scope:       ports.ScopeAll,
		AutoConfirm: true,
		Push:        true,
	})
	if err != nil {
		t.Fatalf("GenerateAndCommit() error = %v", err)
	}
	if !res.Pushed {
		t.Error("expected push")
	}
	want := []string{"stage-all", "commit", "push"}
	if strings.Join(repo.Ops, ",") != strings.Join(want, ",") {
		t.Errorf("ops = %v, want %v", repo.Ops, want)
	}
}

func TestGenerateAndCommitNoChanges(t *testing.T) {
	repo := &testutil.FakeRepository{StagedDiff: "", AllDiff: testutil.SampleDiffSmall}
	provider := &testutil.FakeProvider{Message: testutil.SampleMessage()}
	svc := newService(repo, provider)

	res, err := svc.GenerateAndCommit(context.Background(), app.Options{AutoConfirm: true})
	if err != nil {
		t.Fatalf("GenerateAndCommit() error = %v", err)
	}
	if res.Outcome != app.OutcomeNoChanges {
		t.Errorf("outcome = %v", res.Outcome)
	}
	if len(provider.Requests) != 0 {
		t.Error("provider must not be called without changes")
	}
}

func TestNotInRepository(t *testing.T) {
	repo := &testutil.FakeRepository{NotRepository: true, StagedDiff: testutil.SampleDiffSmall}
	svc := newService(repo, &testutil.FakeProvider{Message: testutil.SampleMessage()})

	_, err := svc.Preview(context.Background(), app.Options{})
	if !errors.Is(err, app.ErrNotRepository) {
		t.Errorf("error = %v, want ErrNotRepository", err)
	}
	if _, err := svc.Status(context.Background()); !errors.Is(err, app.ErrNotRepository) {
		t.Errorf("Status() error = %v", err)
	}
}

func TestProviderFactoryErrorsPropagate(t *testing.T) {
	repo := &testutil.FakeRepository{StagedDiff: testutil.SampleDiffSmall}
	svc := app.New(app.Config{
		Repo: repo,
		NewProvider: func(name string) (ports.Provider, error) {
			return nil, llm.ErrUnknownProvider
		},
		Logger: zerolog.Nop(),
	})

	_, err := svc.Preview(context.Background(), app.Options{Provider: "nope"})
	if !errors.Is(err, llm.ErrUnknownProvider) {
		t.Errorf("error = %v", err)
	}
}

func TestGenerationFailureDoesNotCommit(t *testing.T) {
	repo := &testutil.FakeRepository{StagedDiff: testutil.SampleDiffSmall}
	exhausted := &llm.ExhaustedError{Provider: "google", Attempts: 3, Last: llm.ErrMalformedResponse}
	svc := newService(repo, &testutil.FakeProvider{Err: exhausted})

	_, err := svc.GenerateAndCommit(context.Background(), app.Options{AutoConfirm: true})
	var ex *llm.ExhaustedError
	if !errors.As(err, &ex) || ex.Attempts != 3 {
		t.Fatalf("error = %v, want ExhaustedError", err)
	}
	if len(repo.Ops) != 0 {
		t.Errorf("failed generation touched the repository: %v", repo.Ops)
	}
}

func TestInterruptBeforeCommitLeavesRepositoryUntouched(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := &testutil.FakeRepository{AllDiff: testutil.SampleDiffSmall}
	provider := &testutil.FakeProvider{Message: testutil.SampleMessage(), OnGenerate: cancel}
	svc := newService(repo, provider)

	_, err := svc.GenerateAndCommit(ctx, app.Options{Scope: ports.ScopeAll, AutoConfirm: true})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if len(repo.Ops) != 0 {
		t.Errorf("ops = %v, want none", repo.Ops)
	}
}

// interruptingRepo cancels the run context while staging.
type interruptingRepo struct {
	*testutil.FakeRepository
	cancel       context.CancelFunc
	commitCtxErr error
}

func (r *interruptingRepo) StageAll(ctx context.Context) error {
	r.cancel()
	return r.FakeRepository.StageAll(ctx)
}

func (r *interruptingRepo) Commit(ctx context.Context, title, description string) (string, error) {
	r.commitCtxErr = ctx.Err()
	return r.FakeRepository.Commit(ctx, title, description)
}

func TestInterruptDuringStagingStillCommits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := &interruptingRepo{
		FakeRepository: &testutil.FakeRepository{AllDiff: testutil.SampleDiffSmall},
		cancel:         cancel,
	}
	svc := newService(repo, &testutil.FakeProvider{Message: testutil.SampleMessage()})

	res, err := svc.GenerateAndCommit(ctx, app.Options{Scope: ports.ScopeAll, AutoConfirm: true})
	if err != nil {
		t.Fatalf("GenerateAndCommit() error = %v", err)
	}
	if res.Outcome != app.OutcomeCommitted {
		t.Errorf("outcome = %v", res.Outcome)
	}
	if repo.commitCtxErr != nil {
		t.Errorf("commit ran on a cancelled context: %v", repo.commitCtxErr)
	}
}

func TestGenerateAndCommitRequiresConfirmer(t *testing.T) {
	repo := &testutil.FakeRepository{StagedDiff: testutil.SampleDiffSmall}
	svc := newService(repo, &testutil.FakeProvider{Message: testutil.SampleMessage()})

	if _, err := svc.GenerateAndCommit(context.Background(), app.Options{}); err == nil {
		t.Error("expected an error without confirmer or auto-confirm")
	}
}

func TestPreviewDoesNotCommit(t *testing.T) {
	repo := &testutil.FakeRepository{StagedDiff: testutil.SampleDiffSmall}
	svc := newService(repo, &testutil.FakeProvider{ProviderName: "ollama", Message: testutil.SampleMessage()})

	res, err := svc.Preview(context.Background(), app.Options{})
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if res.Outcome != app.OutcomePreviewed || res.Message != testutil.SampleMessage() || res.Provider != "ollama" {
		t.Errorf("result = %+v", res)
	}
	if len(repo.Ops) != 0 {
		t.Errorf("preview touched the repository: %v", repo.Ops)
	}
}

func TestLanguageFallback(t *testing.T) {
	tests := []struct {
		name     string
		option   string
		fallback string
		want     string
	}{
		{"flag wins", "fr", "de", "fr"},
		{"configured default", "", "de", "de"},
		{"built-in default", "", "", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &testutil.FakeProvider{Message: testutil.SampleMessage()}
			svc := app.New(app.Config{
				Repo:            &testutil.FakeRepository{StagedDiff: "+x"},
				NewProvider:     func(string) (ports.Provider, error) { return provider, nil },
				DefaultLanguage: tt.fallback,
				Logger:          zerolog.Nop(),
			})
			res, err := svc.Preview(context.Background(), app.Options{Language: tt.option})
			if err != nil {
				t.Fatal(err)
			}
			if res.Language != tt.want || provider.Requests[0].Language != tt.want {
				t.Errorf("language = %q / %q, want %q", res.Language, provider.Requests[0].Language, tt.want)
			}
		})
	}
}

func TestDiffIsRedactedBeforeSending(t *testing.T) {
	repo := &testutil.FakeRepository{StagedDiff: testutil.SampleDiffWithSecret}
	provider := &testutil.FakeProvider{Message: testutil.SampleMessage()}
	svc := newService(repo, provider)

	if _, err := svc.Preview(context.Background(), app.Options{}); err != nil {
		t.Fatal(err)
	}
	sent := provider.Requests[0].Diff
	if strings.Contains(sent, "sk-1234567890") {
		t.Errorf("secret reached the provider:\n%s", sent)
	}
	if !strings.Contains(sent, "[REDACTED]") {
		t.Errorf("expected placeholder:\n%s", sent)
	}
}

func TestRedactionCanBeDisabled(t *testing.T) {
	repo := &testutil.FakeRepository{StagedDiff: testutil.SampleDiffWithSecret}
	provider := &testutil.FakeProvider{Message: testutil.SampleMessage()}
	svc := app.New(app.Config{
		Repo:        repo,
		NewProvider: func(string) (ports.Provider, error) { return provider, nil },
		Logger:      zerolog.Nop(),
	})

	if _, err := svc.Preview(context.Background(), app.Options{}); err != nil {
		t.Fatal(err)
	}
	if provider.Requests[0].Diff != testutil.SampleDiffWithSecret {
		t.Error("diff should be sent unchanged when redaction is off")
	}
}

func TestDiffCap(t *testing.T) {
	repo := &testutil.FakeRepository{StagedDiff: testutil.SampleDiffLarge}
	provider := &testutil.FakeProvider{Message: testutil.SampleMessage()}
	svc := app.New(app.Config{
		Repo:        repo,
		NewProvider: func(string) (ports.Provider, error) { return provider, nil },
		DiffCap:     1000,
		Logger:      zerolog.Nop(),
	})

	if _, err := svc.Preview(context.Background(), app.Options{}); err != nil {
		t.Fatal(err)
	}
	sent := provider.Requests[0].Diff
	if !strings.HasSuffix(sent, "[diff truncated]\n") {
		t.Errorf("missing truncation marker: %q", sent[len(sent)-40:])
	}
	if len(sent) > 1000+len("\n[diff truncated]\n") {
		t.Errorf("capped diff is %d bytes", len(sent))
	}
}

func TestDiffCapKeepsUTF8Intact(t *testing.T) {
	diff := "+" + strings.Repeat("é", 100)
	repo := &testutil.FakeRepository{StagedDiff: diff}
	provider := &testutil.FakeProvider{Message: testutil.SampleMessage()}
	svc := app.New(app.Config{
		Repo:        repo,
		NewProvider: func(string) (ports.Provider, error) { return provider, nil },
		DiffCap:     10, // lands inside a two-byte rune
		Logger:      zerolog.Nop(),
	})

	if _, err := svc.Preview(context.Background(), app.Options{}); err != nil {
		t.Fatal(err)
	}
	if sent := provider.Requests[0].Diff; !utf8.ValidString(sent) {
		t.Errorf("capped diff is not valid UTF-8: %q", sent)
	}
}

func TestEndToEndWithRetryingClient(t *testing.T) {
	backend := &testutil.FakeBackend{
		ProviderName: "openai",
		Configured:   true,
		Replies: []testutil.Reply{
			{Text: "not json"},
			{Text: "```json\n" + testutil.SampleReplyJSON + "\n```"},
		},
	}
	client := llm.NewClient(backend, nil, zerolog.Nop())
	repo := &testutil.FakeRepository{StagedDiff: "+print('hi')"}
	svc := newService(repo, client)

	res, err := svc.GenerateAndCommit(context.Background(), app.Options{Language: "en", AutoConfirm: true})
	if err != nil {
		t.Fatalf("GenerateAndCommit() error = %v", err)
	}
	if res.Message != testutil.SampleMessage() {
		t.Errorf("message = %+v", res.Message)
	}
	if backend.Calls() != 2 {
		t.Errorf("backend calls = %d, want 2", backend.Calls())
	}

	prompt := backend.Prompts[0]
	if !strings.Contains(prompt, "+print('hi')") || !strings.Contains(prompt, "English") {
		t.Errorf("prompt:\n%s", prompt)
	}
	if strings.Contains(prompt, "Branch name:") {
		t.Error("no branch was available, so no branch section is expected")
	}
}

func TestApplyStaging(t *testing.T) {
	repo := &testutil.FakeRepository{}
	svc := newService(repo, nil)

	if err := svc.ApplyStaging(context.Background(), []string{"a.go"}, []string{"b.go"}); err != nil {
		t.Fatal(err)
	}
	if len(repo.Staged) != 1 || repo.Staged[0] != "a.go" || len(repo.Unstaged) != 1 || repo.Unstaged[0] != "b.go" {
		t.Errorf("staged = %v, unstaged = %v", repo.Staged, repo.Unstaged)
	}
}

func TestOutcomeString(t *testing.T) {
	if app.OutcomeCancelled.String() != "cancelled" || app.OutcomeNoChanges.String() != "no-changes" {
		t.Error("unexpected outcome names")
	}
}
