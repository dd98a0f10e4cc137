package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/chuckie/autocommit/internal/domain"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	boxStyle     = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2)
	titleStyle = lipgloss.NewStyle().Bold(true)
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// MessageBox renders a generated message inside a bordered box, headed by
// the provider that produced it.
func MessageBox(provider string, msg domain.CommitMessage) string {
	var b strings.Builder
	b.WriteString(headingStyle.Render(fmt.Sprintf("Generated commit message (%s)", provider)))
	b.WriteString("\n")

	body := titleStyle.Render(msg.Title)
	if desc := strings.TrimSpace(msg.Description); desc != "" {
		body += "\n\n" + desc
	}
	b.WriteString(boxStyle.Render(body))

	for _, w := range Warnings(msg) {
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("note: " + w))
	}
	return b.String()
}

// Warnings lists non-fatal style issues with msg.
func Warnings(msg domain.CommitMessage) []string {
	var out []string
	if msg.TitleTooLong() {
		out = append(out, fmt.Sprintf("title is longer than %d characters", domain.MaxTitleLength))
	}
	if !msg.IsConventional() {
		out = append(out, "title does not follow the type: summary convention")
	}
	return out
}
