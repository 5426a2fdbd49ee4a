package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazygrid/internal/cell"
	"github.com/rebeliceyang/lazygrid/internal/grid"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

// CellPixels converts layout pixels to terminal cells. Column widths are
// kept in pixels so a layout persisted by one front end fits another.
const CellPixels = 8.0

// TableView displays grid rows with virtual scrolling
type TableView struct {
	Width  int
	Height int
	Theme  theme.Theme

	// Titles maps column keys to header text
	Titles map[string]string
	// Edited reports whether a cell carries a local edit
	Edited func(rowID, key string) bool
	// Formatters renders the values of a column. Columns without one use
	// the value's string form.
	Formatters map[string]func(any) string

	// Virtual scrolling state
	TopRow      int
	VisibleRows int
	SelectedRow int

	// FocusedCol indexes the visible columns. LeftCol is the first unpinned
	// column drawn when the grid scrolls horizontally.
	FocusedCol int
	LeftCol    int

	view grid.View
}

// NewTableView creates a new table view
func NewTableView(th theme.Theme) *TableView {
	return &TableView{
		Theme:      th,
		Titles:     map[string]string{},
		Formatters: map[string]func(any) string{},
	}
}

func (tv *TableView) format(key string, val any) string {
	if f, ok := tv.Formatters[key]; ok && f != nil {
		return f(val)
	}
	return cell.String(val)
}

// ContainerWidth is the table width in layout pixels
func (tv *TableView) ContainerWidth() float64 {
	return float64(tv.Width) * CellPixels
}

// SetView replaces the snapshot being drawn and keeps the cursor in range
func (tv *TableView) SetView(v grid.View) {
	tv.view = v
	tv.VisibleRows = tv.Height - 3 // Header + separator + status
	if tv.VisibleRows < 1 {
		tv.VisibleRows = 1
	}
	tv.clampSelection()
	if tv.FocusedCol >= len(v.Columns) {
		tv.FocusedCol = len(v.Columns) - 1
	}
	if tv.FocusedCol < 0 {
		tv.FocusedCol = 0
	}
	tv.scrollToFocus()
}

// View renders the table
func (tv *TableView) View() string {
	if len(tv.view.Columns) == 0 {
		return lipgloss.NewStyle().Foreground(tv.Theme.Muted).Render("No visible columns")
	}

	cols := tv.drawn()
	var b strings.Builder
	b.WriteString(tv.renderHeader(cols))
	b.WriteString("\n")
	b.WriteString(tv.renderSeparator(cols))
	b.WriteString("\n")

	endRow := tv.TopRow + tv.VisibleRows
	if endRow > len(tv.view.Rows) {
		endRow = len(tv.view.Rows)
	}
	for i := tv.TopRow; i < endRow; i++ {
		b.WriteString(tv.renderRow(cols, tv.view.Rows[i], i))
		b.WriteString("\n")
	}
	if len(tv.view.Rows) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(tv.Theme.Muted).Render(tv.emptyText()))
		b.WriteString("\n")
	}

	b.WriteString(tv.renderStatus())
	return b.String()
}

func (tv *TableView) emptyText() string {
	switch {
	case tv.view.Loading:
		return " Loading..."
	case tv.view.Err != nil:
		return " Failed to load rows"
	default:
		return " No matching rows"
	}
}

// drawnColumn is a visible column placed on screen
type drawnColumn struct {
	index int
	p     models.Placement
	width int
}

// drawn returns the columns that fit on screen: left pinned, the scrolled
// window of unpinned columns, then right pinned.
func (tv *TableView) drawn() []drawnColumn {
	var left, center, right []drawnColumn
	for i, p := range tv.view.Columns {
		dc := drawnColumn{index: i, p: p, width: int(p.Width / CellPixels)}
		if dc.width < 3 {
			dc.width = 3
		}
		switch p.Pinned {
		case models.PinLeft:
			left = append(left, dc)
		case models.PinRight:
			right = append(right, dc)
		default:
			center = append(center, dc)
		}
	}

	budget := tv.Width - sumWidth(left) - sumWidth(right)
	var shown []drawnColumn
	for i := tv.LeftCol; i < len(center); i++ {
		dc := center[i]
		if dc.width > budget {
			if len(shown) == 0 && budget >= 3 {
				dc.width = budget
				shown = append(shown, dc)
			}
			break
		}
		budget -= dc.width
		shown = append(shown, dc)
	}

	out := append(left, shown...)
	return append(out, right...)
}

func sumWidth(cols []drawnColumn) int {
	total := 0
	for _, c := range cols {
		total += c.width
	}
	return total
}

// scrollToFocus adjusts LeftCol so the focused column is drawn
func (tv *TableView) scrollToFocus() {
	if tv.FocusedCol >= len(tv.view.Columns) || tv.view.Columns[tv.FocusedCol].Pinned != models.PinNone {
		return
	}
	center := 0
	for i := 0; i < tv.FocusedCol; i++ {
		if tv.view.Columns[i].Pinned == models.PinNone {
			center++
		}
	}
	if center < tv.LeftCol {
		tv.LeftCol = center
		return
	}
	for tv.LeftCol < center && !tv.isDrawn(tv.FocusedCol) {
		tv.LeftCol++
	}
}

func (tv *TableView) isDrawn(index int) bool {
	for _, dc := range tv.drawn() {
		if dc.index == index {
			return true
		}
	}
	return false
}

func (tv *TableView) headerText(key string) string {
	title := tv.Titles[key]
	if title == "" {
		title = key
	}
	if s := tv.view.Query.Sort; s != nil && s.Column == key {
		if s.Direction == models.Desc {
			title += " ▼"
		} else {
			title += " ▲"
		}
	}
	if _, ok := tv.view.Query.Filters[key]; ok {
		title += " *"
	}
	return title
}

func (tv *TableView) renderHeader(cols []drawnColumn) string {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(tv.Theme.TableHeader).
		Background(tv.Theme.Selection)
	focusStyle := headerStyle.Underline(true).Foreground(tv.Theme.SortIndicator)

	var b strings.Builder
	for _, c := range cols {
		text := pad(tv.headerText(c.p.Key), c.width-1) + "│"
		if c.index == tv.FocusedCol {
			b.WriteString(focusStyle.Render(text))
		} else {
			b.WriteString(headerStyle.Render(text))
		}
	}
	return b.String()
}

func (tv *TableView) renderSeparator(cols []drawnColumn) string {
	var b strings.Builder
	for _, c := range cols {
		b.WriteString(strings.Repeat("─", c.width-1))
		b.WriteString("┼")
	}
	return lipgloss.NewStyle().Foreground(tv.Theme.Border).Render(b.String())
}

func (tv *TableView) renderRow(cols []drawnColumn, row models.Row, index int) string {
	selected := index == tv.SelectedRow
	base := lipgloss.NewStyle().Foreground(tv.Theme.Foreground)
	if index%2 == 1 {
		base = base.Background(tv.Theme.TableRowOdd)
	}
	if selected {
		base = base.Background(tv.Theme.TableRowSelected).Bold(true)
	}

	var b strings.Builder
	for _, c := range cols {
		style := base
		if c.p.Pinned != models.PinNone && !selected {
			style = style.Background(tv.Theme.PinnedColumn)
		}
		if tv.Edited != nil && tv.Edited(row.ID, c.p.Key) {
			style = style.Foreground(tv.Theme.EditedCell).Italic(true)
		}
		if selected && c.index == tv.FocusedCol {
			style = style.Reverse(true)
		}
		val, _ := row.Get(c.p.Key)
		b.WriteString(style.Render(pad(tv.format(c.p.Key, val), c.width-1)))
		b.WriteString(base.Foreground(tv.Theme.Border).Render("│"))
	}
	return b.String()
}

func (tv *TableView) renderStatus() string {
	var showing string
	switch {
	case tv.view.Strategy == models.Paginated:
		page := tv.view.Page + 1
		pages := tv.view.PageCount
		if pages < page {
			pages = page
		}
		showing = fmt.Sprintf(" page %d of %d, %d rows", page, pages, tv.view.Total)
	case len(tv.view.Rows) == 0:
		showing = fmt.Sprintf(" 0 of %d rows", tv.view.Total)
	default:
		endRow := tv.TopRow + tv.VisibleRows
		if endRow > len(tv.view.Rows) {
			endRow = len(tv.view.Rows)
		}
		showing = fmt.Sprintf(" %d-%d of %d rows", tv.TopRow+1, endRow, tv.view.Total)
		if len(tv.view.Rows) < tv.view.Total {
			showing += fmt.Sprintf(" (%d loaded)", len(tv.view.Rows))
		}
	}
	if tv.view.Loading {
		showing += " · loading"
	}
	return lipgloss.NewStyle().
		Foreground(tv.Theme.Muted).
		Italic(true).
		Render(showing)
}

// pad truncates or right-pads s to exactly width terminal cells
func pad(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\n", " ")
	if lipgloss.Width(s) > width {
		runes := []rune(s)
		for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
			runes = runes[:len(runes)-1]
		}
		s = string(runes) + "…"
	}
	return s + strings.Repeat(" ", width-lipgloss.Width(s))
}

// MoveSelection moves the selection up or down
func (tv *TableView) MoveSelection(delta int) {
	tv.SelectedRow += delta
	tv.clampSelection()
}

func (tv *TableView) clampSelection() {
	if tv.SelectedRow >= len(tv.view.Rows) {
		tv.SelectedRow = len(tv.view.Rows) - 1
	}
	if tv.SelectedRow < 0 {
		tv.SelectedRow = 0
	}

	// Adjust visible window if needed
	if tv.SelectedRow < tv.TopRow {
		tv.TopRow = tv.SelectedRow
	}
	if tv.VisibleRows > 0 && tv.SelectedRow >= tv.TopRow+tv.VisibleRows {
		tv.TopRow = tv.SelectedRow - tv.VisibleRows + 1
	}
	if tv.TopRow > len(tv.view.Rows)-1 {
		tv.TopRow = len(tv.view.Rows) - 1
	}
	if tv.TopRow < 0 {
		tv.TopRow = 0
	}
}

// PageUp moves the selection up by one screen
func (tv *TableView) PageUp() {
	tv.MoveSelection(-tv.VisibleRows)
}

// PageDown moves the selection down by one screen
func (tv *TableView) PageDown() {
	tv.MoveSelection(tv.VisibleRows)
}

// Home selects the first row
func (tv *TableView) Home() {
	tv.SelectedRow = 0
	tv.TopRow = 0
}

// End selects the last loaded row
func (tv *TableView) End() {
	tv.MoveSelection(len(tv.view.Rows))
}

// ResetScroll returns to the first row, used when the query changes
func (tv *TableView) ResetScroll() {
	tv.Home()
}

// MoveFocus moves the focused column left or right
func (tv *TableView) MoveFocus(delta int) {
	tv.FocusedCol += delta
	if tv.FocusedCol >= len(tv.view.Columns) {
		tv.FocusedCol = len(tv.view.Columns) - 1
	}
	if tv.FocusedCol < 0 {
		tv.FocusedCol = 0
	}
	tv.scrollToFocus()
}

// FocusKey focuses the column with key, if it is visible
func (tv *TableView) FocusKey(key string) {
	for i, p := range tv.view.Columns {
		if p.Key == key {
			tv.FocusedCol = i
			tv.scrollToFocus()
			return
		}
	}
}

// FocusedColumn returns the placement of the focused column
func (tv *TableView) FocusedColumn() (models.Placement, bool) {
	if tv.FocusedCol < 0 || tv.FocusedCol >= len(tv.view.Columns) {
		return models.Placement{}, false
	}
	return tv.view.Columns[tv.FocusedCol], true
}

// Neighbor returns the visible column delta positions from the focused one
func (tv *TableView) Neighbor(delta int) (models.Placement, bool) {
	i := tv.FocusedCol + delta
	if i < 0 || i >= len(tv.view.Columns) {
		return models.Placement{}, false
	}
	return tv.view.Columns[i], true
}

// SelectedRowData returns the selected row
func (tv *TableView) SelectedRowData() (models.Row, bool) {
	if tv.SelectedRow < 0 || tv.SelectedRow >= len(tv.view.Rows) {
		return models.Row{}, false
	}
	return tv.view.Rows[tv.SelectedRow], true
}

// RenderedIndex is the index of the last row on screen, used to decide
// when more rows are needed
func (tv *TableView) RenderedIndex() int {
	end := tv.TopRow + tv.VisibleRows - 1
	if tv.SelectedRow > end {
		end = tv.SelectedRow
	}
	return end
}
