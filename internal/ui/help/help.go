package help

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

// KeyBinding represents a keyboard shortcut
type KeyBinding struct {
	Key         string
	Description string
}

// Section is a titled group of key bindings
type Section struct {
	Title string
	Keys  []KeyBinding
}

// GetGlobalKeys returns global key bindings
func GetGlobalKeys() []KeyBinding {
	return []KeyBinding{
		{"?", "Toggle help"},
		{"q, Ctrl+C", "Quit application"},
		{"Esc", "Dismiss error"},
		{"r, F5", "Reload rows"},
		{"t", "Toggle virtualized/paginated"},
	}
}

// GetNavigationKeys returns navigation key bindings
func GetNavigationKeys() []KeyBinding {
	return []KeyBinding{
		{"↑/k", "Move up"},
		{"↓/j", "Move down"},
		{"←/h", "Focus previous column"},
		{"→/l", "Focus next column"},
		{"Ctrl+U/Ctrl+D", "Scroll half a screen"},
		{"g/G", "First/last row"},
		{"n/b", "Next/previous page"},
	}
}

// GetQueryKeys returns search, filter and sort key bindings
func GetQueryKeys() []KeyBinding {
	return []KeyBinding{
		{"/", "Search all columns"},
		{"f", "Filter focused column"},
		{"F", "Clear all filters"},
		{"s", "Cycle sort: asc, desc, none"},
	}
}

// GetColumnKeys returns column layout key bindings
func GetColumnKeys() []KeyBinding {
	return []KeyBinding{
		{"x", "Hide focused column"},
		{"a", "Show all columns"},
		{"</>", "Narrow/widen focused column"},
		{"0", "Reset focused column width"},
		{"H/L", "Move column left/right"},
		{"p", "Cycle pin: left, right, none"},
		{"R", "Reset layout"},
	}
}

// GetEditKeys returns edit key bindings
func GetEditKeys() []KeyBinding {
	return []KeyBinding{
		{"e, Enter", "Edit cell"},
		{"u", "Revert cell edit"},
		{"Ctrl+X", "Clear all edits"},
	}
}

// Sections returns every help section in display order
func Sections() []Section {
	return []Section{
		{"Global", GetGlobalKeys()},
		{"Navigation", GetNavigationKeys()},
		{"Query", GetQueryKeys()},
		{"Columns", GetColumnKeys()},
		{"Edits", GetEditKeys()},
	}
}

// Render creates the help view
func Render(width, height int, th theme.Theme) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.BorderFocused).
		Padding(1, 0)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(th.Info).
		Padding(0, 0, 0, 2)

	keyStyle := lipgloss.NewStyle().
		Foreground(th.Warning).
		Width(20)

	descStyle := lipgloss.NewStyle().
		Foreground(th.Foreground)

	var b strings.Builder

	b.WriteString(titleStyle.Render("lazygrid - Keyboard Shortcuts"))
	b.WriteString("\n\n")

	for _, section := range Sections() {
		b.WriteString(sectionStyle.Render(section.Title))
		b.WriteString("\n")
		for _, kb := range section.Keys {
			b.WriteString("  ")
			b.WriteString(keyStyle.Render(kb.Key))
			b.WriteString(descStyle.Render(kb.Description))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press '?' or Esc to close help"))

	// Wrap in a box
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(th.BorderFocused).
		Padding(1, 2)
	if width > 4 && height > 4 {
		boxStyle = boxStyle.Width(width - 4).Height(height - 4)
	}

	return boxStyle.Render(b.String())
}
