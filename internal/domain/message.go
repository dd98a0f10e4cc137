package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// ValidCommitTypes is the enumeration of conventional commit types.
var ValidCommitTypes = []string{
	"feat", "fix", "docs", "style", "refactor", "perf", "test", "chore", "build", "ci", "revert",
}

// MaxTitleLength is the conventional subject line limit. Longer titles are
// accepted but flagged by TitleTooLong.
const MaxTitleLength = 72

var conventionalTitle = regexp.MustCompile(`^([a-z]+)(\([^()\n]+\))?!?: \S`)

// CommitMessage is a generated commit message.
type CommitMessage struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Validate checks a message before it may be committed.
func (m CommitMessage) Validate() error {
	if strings.TrimSpace(m.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.Contains(m.Title, "\n") {
		return fmt.Errorf("title must not contain newlines")
	}
	if hasControlChars(m.Title) {
		return fmt.Errorf("title contains control characters")
	}
	if m.Description != "" && hasControlChars(m.Description) {
		return fmt.Errorf("description contains control characters")
	}
	return nil
}

// Normalize trims surrounding whitespace and normalizes line endings.
func (m *CommitMessage) Normalize() {
	m.Title = strings.TrimSpace(m.Title)
	d := strings.ReplaceAll(m.Description, "\r\n", "\n")
	m.Description = strings.TrimSpace(d)
}

// Format returns the message as git expects it: title, blank line, body.
func (m CommitMessage) Format() string {
	if m.Description == "" {
		return m.Title
	}
	return m.Title + "\n\n" + m.Description
}

// Type returns the conventional commit type of the title, or "" if the
// title does not follow the convention.
func (m CommitMessage) Type() string {
	sub := conventionalTitle.FindStringSubmatch(m.Title)
	if sub == nil || !isValidType(sub[1]) {
		return ""
	}
	return sub[1]
}

// IsConventional reports whether the title looks like "type(scope): summary".
func (m CommitMessage) IsConventional() bool {
	return m.Type() != ""
}

// TitleTooLong reports whether the title exceeds MaxTitleLength runes.
func (m CommitMessage) TitleTooLong() bool {
	return len([]rune(m.Title)) > MaxTitleLength
}

func isValidType(t string) bool {
	for _, valid := range ValidCommitTypes {
		if t == valid {
			return true
		}
	}
	return false
}

// hasControlChars checks for control characters other than newline and tab.
func hasControlChars(s string) bool {
	for _, r := range s {
		if r == '\n' || r == '\t' {
			continue
		}
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}
