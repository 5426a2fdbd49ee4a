package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

// Panel frames the grid. Its title line carries the grid title on the left
// and a badge on the right.
type Panel struct {
	Title   string
	Badge   string
	Content string
	Width   int
	Height  int
	Theme   theme.Theme

	// Focused draws the border in the focus color. The app unfocuses the
	// panel while a prompt has the keyboard.
	Focused bool
}

// View renders the panel
func (p *Panel) View() string {
	if p.Width <= 0 || p.Height <= 0 {
		return ""
	}

	border := p.Theme.Border
	if p.Focused {
		border = p.Theme.BorderFocused
	}
	style := lipgloss.NewStyle().
		Width(p.Width).
		Height(p.Height).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border)

	if p.Title == "" && p.Badge == "" {
		return style.Render(p.Content)
	}
	return style.Render(p.titleLine() + "\n" + p.Content)
}

func (p *Panel) titleLine() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Theme.Info).
		Padding(0, 1).
		Render(p.Title)
	if p.Badge == "" {
		return title
	}
	badge := lipgloss.NewStyle().
		Foreground(p.Theme.Muted).
		Padding(0, 1).
		Render(p.Badge)

	gap := p.Width - lipgloss.Width(title) - lipgloss.Width(badge)
	if gap < 1 {
		return title
	}
	return title + strings.Repeat(" ", gap) + badge
}
