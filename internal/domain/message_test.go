package domain

import (
	"strings"
	"testing"
)

func TestCommitMessageValidation(t *testing.T) {
	tests := []struct {
		name    string
		msg     CommitMessage
		wantErr bool
	}{
		{
			name: "valid title only",
			msg:  CommitMessage{Title: "feat: add login"},
		},
		{
			name: "valid with description",
			msg: CommitMessage{
				Title:       "fix: correct bug in parser",
				Description: "The parser was incorrectly handling\nmultiline inputs.",
			},
		},
		{
			name:    "empty title",
			msg:     CommitMessage{Title: "", Description: "something"},
			wantErr: true,
		},
		{
			name:    "whitespace title",
			msg:     CommitMessage{Title: "   "},
			wantErr: true,
		},
		{
			name:    "title with newline",
			msg:     CommitMessage{Title: "feat: one\nfeat: two"},
			wantErr: true,
		},
		{
			name:    "title with control characters",
			msg:     CommitMessage{Title: "feat: bell\x07"},
			wantErr: true,
		},
		{
			name:    "description with control characters",
			msg:     CommitMessage{Title: "feat: ok", Description: "escape \x1b[31m"},
			wantErr: true,
		},
		{
			name: "non conventional title is still valid",
			msg:  CommitMessage{Title: "Update readme"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCommitMessageNormalize(t *testing.T) {
	m := CommitMessage{
		Title:       "  feat: add thing  ",
		Description: "\r\nline one\r\nline two\r\n",
	}
	m.Normalize()

	if m.Title != "feat: add thing" {
		t.Errorf("Title = %q", m.Title)
	}
	if m.Description != "line one\nline two" {
		t.Errorf("Description = %q", m.Description)
	}
}

func TestCommitMessageFormat(t *testing.T) {
	m := CommitMessage{Title: "fix: handle nil config", Description: "Avoids a panic on startup."}
	want := "fix: handle nil config\n\nAvoids a panic on startup."
	if got := m.Format(); got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}

	m.Description = ""
	if got := m.Format(); got != "fix: handle nil config" {
		t.Errorf("Format() without description = %q", got)
	}
}

func TestCommitMessageType(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"feat: add login", "feat"},
		{"fix(parser): handle empty input", "fix"},
		{"refactor!: drop legacy API", "refactor"},
		{"feature: not a known type", ""},
		{"Update readme", ""},
		{"feat:missing space", ""},
	}

	for _, tt := range tests {
		m := CommitMessage{Title: tt.title}
		if got := m.Type(); got != tt.want {
			t.Errorf("Type(%q) = %q, want %q", tt.title, got, tt.want)
		}
		if m.IsConventional() != (tt.want != "") {
			t.Errorf("IsConventional(%q) = %v", tt.title, m.IsConventional())
		}
	}
}

func TestTitleTooLong(t *testing.T) {
	m := CommitMessage{Title: "feat: " + strings.Repeat("x", MaxTitleLength)}
	if !m.TitleTooLong() {
		t.Error("expected long title to be flagged")
	}
	m.Title = "feat: short"
	if m.TitleTooLong() {
		t.Error("short title flagged as too long")
	}
}
