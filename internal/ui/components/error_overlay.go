package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

// ErrorOverlay is a centered dialog describing a failure
type ErrorOverlay struct {
	Title   string
	Message string
	Width   int
	Theme   theme.Theme
}

// NewErrorOverlay creates an error overlay
func NewErrorOverlay(th theme.Theme) *ErrorOverlay {
	return &ErrorOverlay{Theme: th, Width: 60}
}

// SetError replaces the title and message
func (e *ErrorOverlay) SetError(title, message string) {
	e.Title = title
	e.Message = message
}

// View renders the overlay
func (e *ErrorOverlay) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(e.Theme.Error)
	hintStyle := lipgloss.NewStyle().
		Foreground(e.Theme.Muted).
		Italic(true)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(e.Theme.Error).
		Padding(1, 2).
		Width(e.Width)

	return box.Render(titleStyle.Render(e.Title) + "\n\n" +
		lipgloss.NewStyle().Foreground(e.Theme.Foreground).Render(e.Message) + "\n\n" +
		hintStyle.Render("Press Esc or Enter to dismiss"))
}
