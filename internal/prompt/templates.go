// Package prompt renders the text sent to the model.
package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// ErrInvalidTemplates is returned when a template set fails validation.
var ErrInvalidTemplates = errors.New("invalid prompt templates")

// Templates is the static text a Renderer is built from. Instructions and
// Closing may reference {{.Language}} and {{.LanguageCode}}.
type Templates struct {
	System       string `yaml:"system"`
	Instructions string `yaml:"instructions"`
	Closing      string `yaml:"closing"`
}

const defaultSystem = "You are an expert in Git who writes concise and descriptive commit titles and descriptions following best practices."

const defaultInstructions = `Based on the code changes below, write a concise and descriptive commit title and description.

Requirements:
- The title must follow the Conventional Commits format ("type: summary" or "type(scope): summary").
- Write the title and the description in {{.Language}} (ISO 639-1 code "{{.LanguageCode}}").
- If there is more than one relevant change, condense them into the title and explain them in the description.
- Relevant changes affect behaviour: bug fixes, new features, significant refactoring. Ignore purely cosmetic changes such as whitespace, formatting or comments.
- If there is a single relevant change, use it as the title and describe it in detail in the description.`

const defaultClosing = `Respond with a JSON object only, with exactly two string keys: "title" and "description". Do not wrap it in prose or add any other keys.`

// Default returns the built-in template set.
func Default() Templates {
	return Templates{
		System:       defaultSystem,
		Instructions: defaultInstructions,
		Closing:      defaultClosing,
	}
}

// withDefaults fills empty fields from the built-in set.
func (t Templates) withDefaults() Templates {
	d := Default()
	if strings.TrimSpace(t.System) == "" {
		t.System = d.System
	}
	if strings.TrimSpace(t.Instructions) == "" {
		t.Instructions = d.Instructions
	}
	if strings.TrimSpace(t.Closing) == "" {
		t.Closing = d.Closing
	}
	return t
}

// Input is everything a prompt is rendered from.
type Input struct {
	Diff            string
	LanguageCode    string
	Branch          string
	PreviousCommits []string
	Context         string
}

// Renderer turns an Input into prompt text. It holds no mutable state.
type Renderer struct {
	system       string
	instructions *template.Template
	closing      *template.Template
}

type templateData struct {
	Language     string
	LanguageCode string
}

// New validates t and compiles it. Empty fields fall back to Default().
func New(t Templates) (*Renderer, error) {
	t = t.withDefaults()

	instr, err := template.New("instructions").Option("missingkey=error").Parse(t.Instructions)
	if err != nil {
		return nil, fmt.Errorf("%w: instructions: %v", ErrInvalidTemplates, err)
	}
	closing, err := template.New("closing").Option("missingkey=error").Parse(t.Closing)
	if err != nil {
		return nil, fmt.Errorf("%w: closing: %v", ErrInvalidTemplates, err)
	}

	r := &Renderer{system: strings.TrimSpace(t.System), instructions: instr, closing: closing}

	// Catch references to unknown fields now rather than on first use.
	if _, err := r.Render(Input{Diff: "+x", LanguageCode: "en"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplates, err)
	}
	return r, nil
}

// MustDefault returns a Renderer for the built-in templates.
func MustDefault() *Renderer {
	r, err := New(Default())
	if err != nil {
		panic(err)
	}
	return r
}

// System returns the system instruction sent alongside every prompt.
func (r *Renderer) System() string {
	return r.system
}

// Render builds the user prompt. Sections appear in a fixed order: branch
// name, previous commits, additional context, code changes. Optional
// sections are omitted entirely when empty.
func (r *Renderer) Render(in Input) (string, error) {
	code := strings.TrimSpace(in.LanguageCode)
	if code == "" {
		code = "en"
	}
	data := templateData{Language: LanguageName(code), LanguageCode: code}

	var b bytes.Buffer
	if err := r.instructions.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render instructions: %w", err)
	}
	trimTrailingNewlines(&b)
	b.WriteString("\n\n")

	if branch := strings.TrimSpace(in.Branch); branch != "" {
		b.WriteString("Branch name: ")
		b.WriteString(branch)
		b.WriteString("\n\n")
	}

	var commits []string
	for _, c := range in.PreviousCommits {
		if c = strings.TrimSpace(c); c != "" {
			commits = append(commits, c)
		}
	}
	if len(commits) > 0 {
		b.WriteString("Previous commits:\n")
		for _, c := range commits {
			b.WriteString("- ")
			b.WriteString(c)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if ctx := strings.TrimSpace(in.Context); ctx != "" {
		b.WriteString("Additional context:\n")
		b.WriteString(ctx)
		b.WriteString("\n\n")
	}

	b.WriteString("Code changes:\n")
	b.WriteString(in.Diff)
	if !strings.HasSuffix(in.Diff, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if err := r.closing.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render closing: %w", err)
	}
	trimTrailingNewlines(&b)
	b.WriteString("\n")

	return b.String(), nil
}

func trimTrailingNewlines(b *bytes.Buffer) {
	for b.Len() > 0 && b.Bytes()[b.Len()-1] == '\n' {
		b.Truncate(b.Len() - 1)
	}
}
