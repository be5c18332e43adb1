// Package form is the interactive terminal form used to enter a project
// idea, its constraints and the attempt budget.
package form

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jywlabs/kickoff/internal/config"
	"github.com/jywlabs/kickoff/internal/display"
)

// ErrCanceled is returned when the user leaves the form without submitting.
var ErrCanceled = errors.New("form canceled")

// Result holds the submitted values.
type Result struct {
	Idea        string
	Constraints []string
	MaxAttempts int
}

// Fields, in focus order.
const (
	fieldIdea = iota
	fieldConstraints
	fieldAttempts
	fieldCount
)

var (
	styleLabel   = lipgloss.NewStyle().Bold(true)
	styleFocused = lipgloss.NewStyle().Foreground(display.ColorAccent).Bold(true)
	styleHelp    = lipgloss.NewStyle().Foreground(display.ColorMuted)
	styleError   = lipgloss.NewStyle().Foreground(display.ColorError)
)

// Model is the bubbletea model of the form.
type Model struct {
	idea        textarea.Model
	constraints textarea.Model
	attempts    int
	focus       int
	keys        KeyMap

	submitted bool
	canceled  bool
	err       string
}

// New creates a form prefilled with the given values.
func New(initial Result) Model {
	idea := textarea.New()
	idea.Placeholder = "Describe your project idea..."
	idea.ShowLineNumbers = false
	idea.SetWidth(72)
	idea.SetHeight(5)
	idea.SetValue(initial.Idea)

	constraints := textarea.New()
	constraints.Placeholder = "One constraint per line (optional)"
	constraints.ShowLineNumbers = false
	constraints.SetWidth(72)
	constraints.SetHeight(4)
	constraints.SetValue(strings.Join(initial.Constraints, "\n"))

	attempts := initial.MaxAttempts
	if config.ValidateAttempts(attempts) != nil {
		attempts = 3
	}

	m := Model{idea: idea, constraints: constraints, attempts: attempts, keys: DefaultKeyMap}
	m.idea.Focus()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m.updateFocused(msg)
	}

	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		m.canceled = true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Submit):
		if strings.TrimSpace(m.idea.Value()) == "" {
			m.err = "A project idea is required."
			return m, nil
		}
		m.submitted = true
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Next):
		return m.setFocus((m.focus + 1) % fieldCount)
	case key.Matches(keyMsg, m.keys.Prev):
		return m.setFocus((m.focus + fieldCount - 1) % fieldCount)
	}

	if m.focus == fieldAttempts {
		switch {
		case key.Matches(keyMsg, m.keys.Less) && m.attempts > config.MinAttempts:
			m.attempts--
		case key.Matches(keyMsg, m.keys.More) && m.attempts < config.MaxAttempts:
			m.attempts++
		}
		return m, nil
	}

	m.err = ""
	return m.updateFocused(msg)
}

func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case fieldIdea:
		m.idea, cmd = m.idea.Update(msg)
	case fieldConstraints:
		m.constraints, cmd = m.constraints.Update(msg)
	}
	return m, cmd
}

func (m Model) setFocus(field int) (tea.Model, tea.Cmd) {
	m.focus = field
	m.idea.Blur()
	m.constraints.Blur()
	switch field {
	case fieldIdea:
		return m, m.idea.Focus()
	case fieldConstraints:
		return m, m.constraints.Focus()
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(display.StyleTitle.Render("New project plan"))
	b.WriteString("\n\n")

	b.WriteString(m.label(fieldIdea, "Project idea"))
	b.WriteString("\n" + m.idea.View() + "\n\n")
	b.WriteString(m.label(fieldConstraints, "Constraints"))
	b.WriteString("\n" + m.constraints.View() + "\n\n")
	b.WriteString(m.label(fieldAttempts, "Max attempts per stage"))
	b.WriteString(fmt.Sprintf("\n  ◂ %d ▸\n", m.attempts))

	if m.err != "" {
		b.WriteString("\n" + styleError.Render(m.err) + "\n")
	}
	b.WriteString("\n" + styleHelp.Render(helpLine(m.keys)) + "\n")
	return b.String()
}

func (m Model) label(field int, text string) string {
	if m.focus == field {
		return styleFocused.Render("> " + text)
	}
	return styleLabel.Render("  " + text)
}

func helpLine(k KeyMap) string {
	bindings := []key.Binding{k.Next, k.Less, k.More, k.Submit, k.Quit}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}

// Result returns the submitted values and whether the form was submitted.
func (m Model) Result() (Result, bool) {
	if !m.submitted {
		return Result{}, false
	}
	return Result{
		Idea:        strings.TrimSpace(m.idea.Value()),
		Constraints: ParseConstraints(m.constraints.Value()),
		MaxAttempts: m.attempts,
	}, true
}

// Run shows the form until it is submitted or canceled.
func Run(ctx context.Context, initial Result) (Result, error) {
	final, err := tea.NewProgram(New(initial), tea.WithContext(ctx)).Run()
	if err != nil {
		return Result{}, fmt.Errorf("run form: %w", err)
	}
	res, ok := final.(Model).Result()
	if !ok {
		return Result{}, ErrCanceled
	}
	return res, nil
}

// ParseConstraints splits text into one constraint per line, trimming
// whitespace and dropping blank lines.
func ParseConstraints(text string) []string {
	out := []string{}
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
