package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/chuckie/autocommit/internal/ports"
)

type stagingKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	All     key.Binding
	None    key.Binding
	Confirm key.Binding
	Quit    key.Binding
}

func (k stagingKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.All, k.None, k.Confirm, k.Quit}
}

func (k stagingKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var stagingKeys = stagingKeyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Toggle:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
	All:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "all")),
	None:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "none")),
	Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "apply")),
	Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

var (
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// stagingItem is one path in the menu. staged is the index state when the
// menu opened; checked is the state the user wants.
type stagingItem struct {
	path    string
	label   string
	staged  bool
	checked bool
}

// StagingModel is a Bubble Tea checklist of changed files. Checked files
// end up staged, unchecked files unstaged.
type StagingModel struct {
	items     []stagingItem
	cursor    int
	keys      stagingKeyMap
	help      help.Model
	confirmed bool
	done      bool
}

// NewStaging builds the menu from a status snapshot. Files with changes
// both in the index and the work tree start checked and are left alone
// unless unchecked.
func NewStaging(st ports.Status) *StagingModel {
	byPath := map[string]*stagingItem{}
	add := func(path, label string, staged bool) {
		if it, ok := byPath[path]; ok {
			it.staged = it.staged || staged
			it.checked = it.staged
			return
		}
		byPath[path] = &stagingItem{path: path, label: label, staged: staged, checked: staged}
	}
	for _, f := range st.Staged {
		add(f.Path, f.Kind, true)
	}
	for _, f := range st.Unstaged {
		add(f.Path, f.Kind, false)
	}
	for _, p := range st.Untracked {
		add(p, "new", false)
	}

	items := make([]stagingItem, 0, len(byPath))
	for _, it := range byPath {
		items = append(items, *it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].path < items[j].path })

	return &StagingModel{items: items, keys: stagingKeys, help: help.New()}
}

// Init implements tea.Model.
func (m *StagingModel) Init() tea.Cmd {
	return nil
}

// Update handles key presses.
func (m *StagingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Confirm):
			m.confirmed = true
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Toggle):
			if len(m.items) > 0 {
				m.items[m.cursor].checked = !m.items[m.cursor].checked
			}
		case key.Matches(msg, m.keys.All):
			m.setAll(true)
		case key.Matches(msg, m.keys.None):
			m.setAll(false)
		}
	}
	return m, nil
}

func (m *StagingModel) setAll(checked bool) {
	for i := range m.items {
		m.items[i].checked = checked
	}
}

// View renders the checklist.
func (m *StagingModel) View() string {
	if m.done {
		return ""
	}
	if len(m.items) == 0 {
		return "Nothing to stage, working directory clean.\n\n" + m.help.View(m.keys) + "\n"
	}

	var b strings.Builder
	b.WriteString(headingStyle.Render("Select files to stage"))
	b.WriteString("\n\n")
	for i, it := range m.items {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		box := "[ ]"
		if it.checked {
			box = selectedStyle.Render("[x]")
		}
		fmt.Fprintf(&b, "%s%s %-9s %s\n", cursor, box, it.label, it.path)
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

// Result returns the paths to stage and unstage. ok is false when the user
// quit without applying.
func (m *StagingModel) Result() (stage, unstage []string, ok bool) {
	if !m.confirmed {
		return nil, nil, false
	}
	for _, it := range m.items {
		switch {
		case it.checked && !it.staged:
			stage = append(stage, it.path)
		case !it.checked && it.staged:
			unstage = append(unstage, it.path)
		}
	}
	return stage, unstage, true
}
