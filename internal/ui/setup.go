package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/chuckie/autocommit/internal/config"
)

type setupStep int

const (
	setupStepProvider setupStep = iota
	setupStepModel
	setupStepFields
	setupStepConfirm
	setupStepDone
)

// setupField is one free-text value the wizard asks for.
type setupField struct {
	key    string
	title  string
	secret bool
	input  textinput.Model
}

// SetupModel is an interactive wizard that picks a provider, a model and
// the credentials it needs. It does not call any backend or write files;
// the caller persists Result.
type SetupModel struct {
	step     setupStep
	settings config.Settings

	providers     []string
	providerIndex int
	models        []string
	modelIndex    int

	fields     []setupField
	fieldIndex int

	completed bool
	err       error
}

// setupFieldSpecs lists the variables prompted per provider. The model is
// picked from a list and handled separately.
var setupFieldSpecs = map[string][]struct {
	key, title string
	secret     bool
}{
	"openai": {{"OPENAI_API_KEY", "API key", true}},
	"google": {{"GOOGLE_API_KEY", "API key", true}},
	"azure": {
		{"AZURE_OPENAI_API_KEY", "API key", true},
		{"AZURE_OPENAI_ENDPOINT", "Endpoint URL", false},
	},
	"ollama": {{"OLLAMA_API_URL", "Server URL", false}},
}

// NewSetup starts the wizard preselecting the current settings.
func NewSetup(s config.Settings, providers []string) *SetupModel {
	m := &SetupModel{providers: providers, settings: s}
	for i, p := range providers {
		if p == s.DefaultProvider {
			m.providerIndex = i
			break
		}
	}
	m.selectProvider()
	return m
}

func (m *SetupModel) provider() string {
	return m.providers[m.providerIndex]
}

// selectProvider loads the model list and input fields for the highlighted
// provider, prefilled from the current settings.
func (m *SetupModel) selectProvider() {
	p := m.provider()
	s := m.settings

	m.models = config.ProviderModels[p]
	if len(m.models) == 0 {
		m.models = []string{""}
	}
	m.modelIndex = 0
	if current := s.Model(p); current != "" {
		for i, model := range m.models {
			if model == current {
				m.modelIndex = i
				break
			}
		}
	}

	m.fields = nil
	m.fieldIndex = 0
	for _, spec := range setupFieldSpecs[p] {
		in := textinput.New()
		in.Prompt = spec.title + ": "
		in.CharLimit = 300
		if spec.secret {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '*'
		}
		if spec.key == "OLLAMA_API_URL" {
			in.SetValue(s.Ollama.URL)
		}
		if spec.key == "AZURE_OPENAI_ENDPOINT" {
			in.SetValue(s.Azure.Endpoint)
		}
		m.fields = append(m.fields, setupField{key: spec.key, title: spec.title, secret: spec.secret, input: in})
	}
}

// Init implements tea.Model.
func (m *SetupModel) Init() tea.Cmd {
	return nil
}

// Update handles key presses.
func (m *SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	// Errors should not lock the user out of the wizard.
	m.err = nil

	switch keyMsg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		if m.step != setupStepFields {
			return m, tea.Quit
		}
	}

	switch m.step {
	case setupStepProvider:
		return m.updateProvider(keyMsg)
	case setupStepModel:
		return m.updateModel(keyMsg)
	case setupStepFields:
		return m.updateField(keyMsg)
	case setupStepConfirm:
		return m.updateConfirm(keyMsg)
	}
	return m, tea.Quit
}

func (m *SetupModel) updateProvider(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.providerIndex > 0 {
			m.providerIndex--
		}
	case "down", "j":
		if m.providerIndex < len(m.providers)-1 {
			m.providerIndex++
		}
	case "enter":
		m.selectProvider()
		m.step = setupStepModel
	}
	return m, nil
}

func (m *SetupModel) updateModel(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.modelIndex > 0 {
			m.modelIndex--
		}
	case "down", "j":
		if m.modelIndex < len(m.models)-1 {
			m.modelIndex++
		}
	case "esc":
		m.step = setupStepProvider
	case "enter":
		if len(m.fields) == 0 {
			m.step = setupStepConfirm
			return m, nil
		}
		m.step = setupStepFields
		m.fieldIndex = 0
		m.fields[0].input.Focus()
		m.fields[0].input.CursorEnd()
	}
	return m, nil
}

func (m *SetupModel) updateField(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := &m.fields[m.fieldIndex]

	switch msg.String() {
	case "esc":
		f.input.Blur()
		m.step = setupStepModel
		return m, nil
	case "ctrl+v", "ctrl+shift+v", "shift+insert":
		clip, err := clipboard.ReadAll()
		if err != nil {
			m.err = fmt.Errorf("clipboard paste failed: %w", err)
			return m, nil
		}
		clip = strings.NewReplacer("\r", "", "\n", "").Replace(clip)
		if strings.TrimSpace(clip) == "" {
			m.err = fmt.Errorf("clipboard is empty")
			return m, nil
		}
		f.input.SetValue(f.input.Value() + clip)
		f.input.CursorEnd()
		return m, nil
	case "enter":
		if strings.TrimSpace(f.input.Value()) == "" {
			m.err = fmt.Errorf("%s cannot be empty", strings.ToLower(f.title))
			return m, nil
		}
		f.input.Blur()
		if m.fieldIndex < len(m.fields)-1 {
			m.fieldIndex++
			m.fields[m.fieldIndex].input.Focus()
			m.fields[m.fieldIndex].input.CursorEnd()
			return m, nil
		}
		m.step = setupStepConfirm
		return m, nil
	}

	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return m, cmd
}

func (m *SetupModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch strings.ToLower(msg.String()) {
	case "y", "enter":
		m.completed = true
		m.step = setupStepDone
		return m, tea.Quit
	case "n", "esc":
		m.step = setupStepProvider
	}
	return m, nil
}

// View renders the current step.
func (m *SetupModel) View() string {
	var v string
	switch m.step {
	case setupStepProvider:
		v = m.viewList("Select an AI provider:", m.providers, m.providerIndex, "↑/↓ select, Enter next, q quit")
	case setupStepModel:
		v = m.viewList("Select a model:", m.models, m.modelIndex, "↑/↓ select, Enter next, Esc back, q quit")
	case setupStepFields:
		v = m.viewFields()
	case setupStepConfirm:
		v = m.viewConfirm()
	case setupStepDone:
		v = "Setup complete.\n"
	}
	if m.err != nil {
		v += "\nError: " + m.err.Error() + "\n"
	}
	return v
}

func (m *SetupModel) viewList(title string, options []string, selected int, keys string) string {
	var b strings.Builder
	b.WriteString(headingStyle.Render("autocommit setup"))
	b.WriteString("\n\n" + title + "\n\n")
	for i, o := range options {
		prefix := "  "
		if i == selected {
			prefix = cursorStyle.Render("> ")
		}
		b.WriteString(prefix + o + "\n")
	}
	b.WriteString("\n" + hintStyle.Render("Keys: "+keys) + "\n")
	return b.String()
}

func (m *SetupModel) viewFields() string {
	var b strings.Builder
	b.WriteString(headingStyle.Render("autocommit setup"))
	b.WriteString("\n\n")
	for i, f := range m.fields {
		if i > m.fieldIndex {
			break
		}
		b.WriteString(f.input.View() + "\n")
	}
	b.WriteString("\n" + hintStyle.Render("Paste with Ctrl+V. Keys: Enter next, Esc back") + "\n")
	return b.String()
}

func (m *SetupModel) viewConfirm() string {
	var b strings.Builder
	b.WriteString(headingStyle.Render("autocommit setup"))
	b.WriteString("\n\nSave these settings?\n\n")
	values, _ := m.values()
	for _, k := range m.keys() {
		v := values[k]
		if m.isSecret(k) {
			v = maskSecret(v)
		}
		fmt.Fprintf(&b, "  %-22s %s\n", k, v)
	}
	b.WriteString("\n" + hintStyle.Render("Continue? (y/n)") + "\n")
	return b.String()
}

// keys returns the variables written by Result, in display order.
func (m *SetupModel) keys() []string {
	keys := []string{"DEFAULT_AI_PROVIDER", config.ModelEnv[m.provider()]}
	for _, f := range m.fields {
		keys = append(keys, f.key)
	}
	return keys
}

func (m *SetupModel) isSecret(key string) bool {
	for _, f := range m.fields {
		if f.key == key {
			return f.secret
		}
	}
	return false
}

func (m *SetupModel) values() (map[string]string, error) {
	p := m.provider()
	model := strings.TrimSpace(m.models[m.modelIndex])
	if model == "" {
		return nil, fmt.Errorf("model is required for %s", p)
	}
	values := map[string]string{
		"DEFAULT_AI_PROVIDER": p,
		config.ModelEnv[p]:           model,
	}
	for _, f := range m.fields {
		values[f.key] = strings.TrimSpace(f.input.Value())
	}
	return values, nil
}

// Result returns the variables to persist. ok is true only when the user
// confirmed.
func (m *SetupModel) Result() (values map[string]string, ok bool) {
	if !m.completed {
		return nil, false
	}
	values, err := m.values()
	if err != nil {
		return nil, false
	}
	return values, true
}

func maskSecret(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "(missing)"
	}
	if len(v) <= 6 {
		return "******"
	}
	return v[:3] + strings.Repeat("*", len(v)-6) + v[len(v)-3:]
}
