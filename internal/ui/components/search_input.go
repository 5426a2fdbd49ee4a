package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

// PromptKind identifies what a prompt edits
type PromptKind int

const (
	SearchPrompt PromptKind = iota
	FilterPrompt
	EditPrompt
)

func (k PromptKind) String() string {
	switch k {
	case FilterPrompt:
		return "Filter"
	case EditPrompt:
		return "Edit"
	default:
		return "Search"
	}
}

// SearchInput is a single line prompt used for the search box, column
// filters and inline cell edits
type SearchInput struct {
	Input  textinput.Model
	Kind   PromptKind
	Column string
	Label  string
	Err    string
	Theme  theme.Theme
	Width  int
}

// NewSearchInput creates a new prompt
func NewSearchInput(th theme.Theme) *SearchInput {
	ti := textinput.New()
	ti.Placeholder = "Search..."
	ti.CharLimit = 256
	ti.Width = 40

	return &SearchInput{
		Input: ti,
		Theme: th,
	}
}

// Open focuses the prompt for kind, pre-filled with value
func (s *SearchInput) Open(kind PromptKind, column, label, value string) tea.Cmd {
	s.Kind = kind
	s.Column = column
	s.Label = label
	s.Err = ""
	switch kind {
	case FilterPrompt:
		s.Input.Placeholder = "Filter " + label + "..."
	case EditPrompt:
		s.Input.Placeholder = ""
	default:
		s.Input.Placeholder = "Search..."
	}
	s.Input.SetValue(value)
	s.Input.CursorEnd()
	return s.Input.Focus()
}

// Close blurs the prompt
func (s *SearchInput) Close() {
	s.Input.Blur()
	s.Err = ""
}

// Value returns the prompt's text
func (s *SearchInput) Value() string {
	return s.Input.Value()
}

// Update forwards messages to the text input. Enter and Esc are left to
// the owner, which knows what the prompt edits.
func (s *SearchInput) Update(msg tea.Msg) (*SearchInput, tea.Cmd) {
	var cmd tea.Cmd
	s.Input, cmd = s.Input.Update(msg)
	return s, cmd
}

// View renders the prompt
func (s *SearchInput) View() string {
	kindColor := s.Theme.Success
	switch s.Kind {
	case FilterPrompt:
		kindColor = s.Theme.FilterActive
	case EditPrompt:
		kindColor = s.Theme.EditedCell
	}
	kindStyle := lipgloss.NewStyle().
		Foreground(kindColor).
		Bold(true)

	indicator := "[" + s.Kind.String() + "]"
	if s.Kind != SearchPrompt && s.Label != "" {
		indicator = "[" + s.Kind.String() + " " + s.Label + "]"
	}

	inputWidth := s.Width - lipgloss.Width(indicator) - 6
	if inputWidth < 20 {
		inputWidth = 20
	}
	s.Input.Width = inputWidth

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.Theme.BorderFocused).
		Padding(0, 1)
	if s.Width > 2 {
		boxStyle = boxStyle.Width(s.Width - 2)
	}

	helpStyle := lipgloss.NewStyle().
		Foreground(s.Theme.Muted).
		Italic(true)

	help := "Enter: apply │ Esc: close"
	if s.Kind == EditPrompt {
		help = "Enter: commit │ Esc: cancel"
	}
	content := kindStyle.Render(indicator) + " " + s.Input.View() + "\n"
	if s.Err != "" {
		content += lipgloss.NewStyle().Foreground(s.Theme.Error).Render(s.Err)
	} else {
		content += helpStyle.Render(help)
	}
	return boxStyle.Render(content)
}
