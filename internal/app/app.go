package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/rebeliceyang/lazygrid/internal/clock"
	"github.com/rebeliceyang/lazygrid/internal/config"
	"github.com/rebeliceyang/lazygrid/internal/debounce"
	"github.com/rebeliceyang/lazygrid/internal/edit"
	"github.com/rebeliceyang/lazygrid/internal/grid"
	"github.com/rebeliceyang/lazygrid/internal/logger"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/ui/components"
	"github.com/rebeliceyang/lazygrid/internal/ui/help"
	"github.com/rebeliceyang/lazygrid/internal/ui/theme"
)

// resizeStep is how far one key press drags a column edge, in layout pixels
const resizeStep = 5 * components.CellPixels

// App is the main application model
type App struct {
	state  models.AppState
	config *config.Config
	theme  theme.Theme
	grid   *grid.Grid
	ctx    context.Context
	logger *zap.Logger
	clock  clock.Clock

	panel     components.Panel
	tableView *components.TableView

	// Search, filter and edit prompt
	prompt       *components.SearchInput
	search       *debounce.Coalescer[string]
	filter       *debounce.Coalescer[filterInput]
	searchBefore string
	filterBefore string

	// Error overlay
	showError    bool
	errorOverlay *components.ErrorOverlay

	// status is a one-line notice shown in the bottom bar until the next key
	status string
	send   func(tea.Msg)
}

// Option configures an App
type Option func(*App)

// WithLogger sets the application logger
func WithLogger(l *zap.Logger) Option {
	return func(a *App) { a.logger = logger.OrNop(l) }
}

// WithClock sets the clock driving input debouncing
func WithClock(c clock.Clock) Option {
	return func(a *App) { a.clock = c }
}

// WithContext sets the context fetches run under
func WithContext(ctx context.Context) Option {
	return func(a *App) { a.ctx = ctx }
}

// WithFormatter renders the values of column key with fn
func WithFormatter(key string, fn func(any) string) Option {
	return func(a *App) { a.tableView.Formatters[key] = fn }
}

// FetchDoneMsg carries a completed fetch back to the event loop
type FetchDoneMsg struct {
	Response grid.Response
}

// ErrorMsg is sent when an error occurs
type ErrorMsg struct {
	Title   string
	Message string
}

// searchSettledMsg is delivered once search input has been quiet for the
// debounce delay
type searchSettledMsg struct {
	Term string
}

type filterInput struct {
	Column  string
	Pattern string
}

// filterSettledMsg is the filter counterpart of searchSettledMsg
type filterSettledMsg struct {
	filterInput
}

// New creates a new App for g
func New(g *grid.Grid, cfg *config.Config, opts ...Option) *App {
	if cfg == nil {
		cfg = &config.Config{}
	}

	// Load theme
	themeName := "default"
	if cfg.UI.Theme != "" {
		themeName = cfg.UI.Theme
	}
	th := theme.GetTheme(themeName)

	a := &App{
		state:        models.NewAppState(),
		config:       cfg,
		theme:        th,
		grid:         g,
		ctx:          context.Background(),
		logger:       zap.NewNop(),
		clock:        clock.Real(),
		tableView:    components.NewTableView(th),
		prompt:       components.NewSearchInput(th),
		errorOverlay: components.NewErrorOverlay(th),
		panel:        components.Panel{Theme: th, Focused: true},
	}
	for _, opt := range opts {
		opt(a)
	}

	a.search = debounce.New(a.clock, cfg.SearchDebounce(), func(term string) {
		a.dispatch(searchSettledMsg{Term: term})
	})
	a.filter = debounce.New(a.clock, cfg.FilterDebounce(), func(in filterInput) {
		a.dispatch(filterSettledMsg{in})
	})

	for _, def := range g.Layout().Defs() {
		a.tableView.Titles[def.Key] = def.Title
	}
	a.tableView.Edited = g.Edited

	a.updatePanelDimensions()
	a.refresh()
	return a
}

// SetSender routes debounced input back into the running program. Pass
// the program's Send method.
func (a *App) SetSender(send func(tea.Msg)) {
	a.send = send
}

func (a *App) dispatch(msg tea.Msg) {
	if a.send != nil {
		a.send(msg)
	}
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return a.fetch(a.grid.Reload())
}

// fetch runs req off the event loop and reports back with FetchDoneMsg
func (a *App) fetch(req *grid.Request) tea.Cmd {
	if req == nil {
		return nil
	}
	g, ctx := a.grid, a.ctx
	return func() tea.Msg {
		return FetchDoneMsg{Response: g.Run(ctx, req)}
	}
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := a.update(msg)
	a.refresh()
	return a, cmd
}

func (a *App) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case ErrorMsg:
		a.ShowError(msg.Title, msg.Message)
		return nil

	case FetchDoneMsg:
		if !a.grid.Apply(msg.Response) {
			return nil
		}
		if msg.Response.Err != nil {
			a.ShowError("Fetch Failed", fmt.Sprintf("Could not load rows:\n\n%v", msg.Response.Err))
			return nil
		}
		a.refresh()
		return a.loadMore()

	case searchSettledMsg:
		if a.state.ViewMode != models.SearchMode {
			return nil
		}
		return a.applySearch(msg.Term)

	case filterSettledMsg:
		if a.state.ViewMode != models.FilterMode || msg.Column != a.prompt.Column {
			return nil
		}
		return a.applyFilter(msg.Column, msg.Pattern)

	case tea.KeyMsg:
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.state.Width = msg.Width
		a.state.Height = msg.Height
		a.updatePanelDimensions()
	}
	return nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()

	// Handle error overlay dismissal first if visible
	if a.showError {
		switch key {
		case "esc", "enter":
			a.DismissError()
		case "ctrl+c":
			return tea.Quit
		}
		return nil
	}

	a.status = ""
	switch a.state.ViewMode {
	case models.HelpMode:
		switch key {
		case "?", "esc", "q":
			a.state.ViewMode = models.NormalMode
		case "ctrl+c":
			return tea.Quit
		}
		return nil
	case models.SearchMode, models.FilterMode, models.EditMode:
		return a.handlePrompt(msg)
	case models.ConfirmMode:
		if key == "y" || key == "Y" {
			if err := a.grid.Edits().ClearAll(); err != nil {
				a.ShowError("Clear Failed", err.Error())
			} else {
				a.status = "All edits cleared"
			}
		}
		a.state.ViewMode = models.NormalMode
		return nil
	}

	switch key {
	case "q", "ctrl+c":
		return tea.Quit
	case "?":
		a.state.ViewMode = models.HelpMode

	// Navigation
	case "down", "j":
		a.tableView.MoveSelection(1)
		return a.loadMore()
	case "up", "k":
		a.tableView.MoveSelection(-1)
	case "ctrl+d", "pgdown":
		a.tableView.PageDown()
		return a.loadMore()
	case "ctrl+u", "pgup":
		a.tableView.PageUp()
	case "g", "home":
		a.tableView.Home()
	case "G", "end":
		a.tableView.End()
		return a.loadMore()
	case "left", "h":
		a.tableView.MoveFocus(-1)
	case "right", "l":
		a.tableView.MoveFocus(1)
	case "n":
		return a.goToPage(a.grid.Window().Page() + 1)
	case "b":
		return a.goToPage(a.grid.Window().Page() - 1)

	// Query
	case "/":
		return a.openSearch()
	case "f":
		return a.openFilter()
	case "F":
		return a.query(a.grid.ClearFilters())
	case "s":
		if col, ok := a.focused(); ok {
			req, err := a.grid.ToggleSort(col.Key)
			if err != nil {
				a.status = err.Error()
				return nil
			}
			return a.query(req)
		}
	case "r", "f5":
		return a.query(a.grid.Reload())
	case "t":
		next := models.Paginated
		if a.grid.Strategy() == models.Paginated {
			next = models.Virtualized
		}
		return a.query(a.grid.SetStrategy(next))

	// Columns
	case "x":
		if col, ok := a.focused(); ok {
			req, err := a.grid.HideColumn(col.Key)
			if err != nil {
				a.status = err.Error()
				return nil
			}
			return a.query(req)
		}
	case "a":
		req, err := a.grid.SetAllVisible(true)
		if err != nil {
			a.status = err.Error()
		}
		return a.query(req)
	case "<", ">":
		delta := resizeStep
		if key == "<" {
			delta = -delta
		}
		a.resizeFocused(delta)
	case "0":
		if col, ok := a.focused(); ok {
			a.report(a.grid.Layout().ResetWidth(col.Key))
		}
	case "H", "L":
		delta := 1
		if key == "H" {
			delta = -1
		}
		a.moveFocused(delta)
	case "p":
		a.cyclePin()
	case "R":
		a.report(a.grid.Layout().ResetAll())

	// Edits
	case "e", "enter":
		return a.openEdit()
	case "u":
		row, rowOK := a.tableView.SelectedRowData()
		col, colOK := a.focused()
		if rowOK && colOK {
			a.report(a.grid.Edits().Clear(row.ID, col.Key))
		}
	case "ctrl+x":
		if a.grid.Edits().Len() == 0 {
			a.status = "No edits to clear"
			return nil
		}
		if !a.config.UI.ConfirmClear {
			a.report(a.grid.Edits().ClearAll())
			return nil
		}
		a.state.ViewMode = models.ConfirmMode
	}
	return nil
}

// handlePrompt routes keys while the search, filter or edit prompt is open
func (a *App) handlePrompt(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit
	case "enter":
		return a.submitPrompt()
	case "esc":
		return a.cancelPrompt()
	}

	before := a.prompt.Value()
	var cmd tea.Cmd
	a.prompt, cmd = a.prompt.Update(msg)
	after := a.prompt.Value()
	if after == before {
		return cmd
	}

	switch a.state.ViewMode {
	case models.SearchMode:
		a.search.Push(after)
	case models.FilterMode:
		a.filter.Push(filterInput{Column: a.prompt.Column, Pattern: after})
	case models.EditMode:
		if err := a.grid.Edits().UpdateDraft(after); err != nil {
			a.logger.Warn("draft update without pending edit", zap.Error(err))
		}
		a.prompt.Err = ""
	}
	return cmd
}

func (a *App) submitPrompt() tea.Cmd {
	value := a.prompt.Value()
	switch a.state.ViewMode {
	case models.SearchMode:
		a.search.Cancel()
		cmd := a.applySearch(value)
		a.closePrompt()
		return cmd
	case models.FilterMode:
		a.filter.Cancel()
		cmd := a.applyFilter(a.prompt.Column, value)
		a.closePrompt()
		return cmd
	case models.EditMode:
		err := a.grid.Edits().Commit()
		var verr *edit.ValidationError
		if errors.As(err, &verr) {
			a.prompt.Err = verr.Message
			return nil
		}
		a.closePrompt()
		if err != nil {
			// The edit is applied but not persisted
			a.ShowError("Save Failed", err.Error())
		}
	}
	return nil
}

func (a *App) cancelPrompt() tea.Cmd {
	var cmd tea.Cmd
	switch a.state.ViewMode {
	case models.SearchMode:
		a.search.Cancel()
		cmd = a.applySearch(a.searchBefore)
	case models.FilterMode:
		a.filter.Cancel()
		cmd = a.applyFilter(a.prompt.Column, a.filterBefore)
	case models.EditMode:
		a.grid.Edits().Cancel()
	}
	a.closePrompt()
	return cmd
}

func (a *App) closePrompt() {
	a.prompt.Close()
	a.state.ViewMode = models.NormalMode
	a.updatePanelDimensions()
}

func (a *App) applySearch(term string) tea.Cmd {
	if term == a.grid.Query().Search {
		return nil
	}
	a.logger.Debug("search", zap.String("term", term))
	return a.query(a.grid.SetSearch(term))
}

func (a *App) applyFilter(column, pattern string) tea.Cmd {
	if a.grid.Query().Filters[column] == pattern {
		return nil
	}
	req, err := a.grid.SetFilter(column, pattern)
	if err != nil {
		a.status = err.Error()
		return nil
	}
	a.logger.Debug("filter", zap.String("column", column), zap.String("pattern", pattern))
	return a.query(req)
}

func (a *App) openSearch() tea.Cmd {
	a.searchBefore = a.grid.Query().Search
	a.state.ViewMode = models.SearchMode
	a.updatePanelDimensions()
	return a.prompt.Open(components.SearchPrompt, "", "", a.searchBefore)
}

func (a *App) openFilter() tea.Cmd {
	col, ok := a.focused()
	if !ok {
		return nil
	}
	if def, _ := a.grid.Layout().Column(col.Key); !def.Filterable {
		a.status = grid.ErrNotFilterable.Error()
		return nil
	}
	a.filterBefore = a.grid.Query().Filters[col.Key]
	a.state.ViewMode = models.FilterMode
	a.updatePanelDimensions()
	return a.prompt.Open(components.FilterPrompt, col.Key, a.title(col.Key), a.filterBefore)
}

func (a *App) openEdit() tea.Cmd {
	row, rowOK := a.tableView.SelectedRowData()
	col, colOK := a.focused()
	if !rowOK || !colOK {
		return nil
	}
	if err := a.grid.StartEdit(row.ID, col.Key); err != nil {
		a.status = err.Error()
		return nil
	}
	pending, _ := a.grid.Edits().Pending()
	a.state.ViewMode = models.EditMode
	a.updatePanelDimensions()
	return a.prompt.Open(components.EditPrompt, col.Key, a.title(col.Key), pending.Draft)
}

// query resets the cursor after the query changed and starts any fetch
func (a *App) query(req *grid.Request) tea.Cmd {
	a.tableView.ResetScroll()
	return a.fetch(req)
}

func (a *App) goToPage(page int) tea.Cmd {
	if a.grid.Strategy() != models.Paginated {
		return nil
	}
	a.tableView.ResetScroll()
	return a.fetch(a.grid.GoToPage(page))
}

// loadMore asks for the next virtualized page when the cursor nears the end
func (a *App) loadMore() tea.Cmd {
	return a.fetch(a.grid.LoadMore(a.tableView.RenderedIndex()))
}

func (a *App) focused() (models.Placement, bool) {
	return a.tableView.FocusedColumn()
}

func (a *App) title(key string) string {
	if t := a.tableView.Titles[key]; t != "" {
		return t
	}
	return key
}

func (a *App) resizeFocused(delta float64) {
	col, ok := a.focused()
	if !ok {
		return
	}
	l := a.grid.Layout()
	if _, err := l.BeginResize(col.Key, col.Width); err != nil {
		a.status = err.Error()
		return
	}
	if _, err := l.Drag(delta); err != nil {
		l.CancelResize()
		a.status = err.Error()
		return
	}
	a.report(l.CommitResize())
}

func (a *App) moveFocused(delta int) {
	col, ok := a.focused()
	if !ok {
		return
	}
	target, ok := a.tableView.Neighbor(delta)
	if !ok {
		return
	}
	if err := a.grid.Layout().Move(col.Key, target.Key); err != nil {
		a.status = err.Error()
		return
	}
	a.refresh()
	a.tableView.FocusKey(col.Key)
}

func (a *App) cyclePin() {
	col, ok := a.focused()
	if !ok {
		return
	}
	l := a.grid.Layout()
	next := models.PinLeft
	switch l.PinnedSide(col.Key) {
	case models.PinLeft:
		next = models.PinRight
	case models.PinRight:
		next = models.PinNone
	}
	if err := l.SetPinned(col.Key, next); err != nil {
		a.status = err.Error()
		return
	}
	a.refresh()
	a.tableView.FocusKey(col.Key)
}

// report shows err in the status bar
func (a *App) report(err error) {
	if err != nil {
		a.logger.Warn("action failed", zap.Error(err))
		a.status = err.Error()
	}
}

// refresh hands the grid's current snapshot to the table view
func (a *App) refresh() {
	a.tableView.SetView(a.grid.View(a.tableView.ContainerWidth()))
}

// View implements tea.Model
func (a *App) View() string {
	// If error overlay is showing, render it centered on top of everything
	if a.showError {
		return lipgloss.Place(
			a.state.Width, a.state.Height,
			lipgloss.Center, lipgloss.Center,
			a.errorOverlay.View(),
		)
	}

	// If in help mode, show help overlay
	if a.state.ViewMode == models.HelpMode {
		return help.Render(a.state.Width, a.state.Height, a.theme)
	}

	return a.renderNormalView()
}

// renderNormalView renders the grid with its bars and prompt
func (a *App) renderNormalView() string {
	topBar := lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.BorderFocused).
		Foreground(lipgloss.Color("230")).
		Padding(0, 2).
		Render(a.formatStatusBar("lazygrid · "+a.grid.ID(), a.querySummary()))

	bottomBar := lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.Selection).
		Foreground(a.theme.Foreground).
		Padding(0, 2).
		Render(a.formatStatusBar(a.bottomLeft(), a.bottomRight()))

	a.panel.Title = fmt.Sprintf("%s · %s", a.grid.Mode(), a.grid.Strategy())
	a.panel.Badge = a.hiddenBadge()
	a.panel.Focused = !a.promptOpen()
	a.panel.Content = a.tableView.View()

	parts := []string{topBar, a.panel.View()}
	if a.promptOpen() {
		a.prompt.Width = a.state.Width
		parts = append(parts, a.prompt.View())
	}
	parts = append(parts, bottomBar)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a *App) hiddenBadge() string {
	hidden := len(a.grid.Layout().Defs()) - len(a.grid.Layout().VisibleColumns())
	if hidden == 0 {
		return ""
	}
	return fmt.Sprintf("%d hidden", hidden)
}

func (a *App) promptOpen() bool {
	switch a.state.ViewMode {
	case models.SearchMode, models.FilterMode, models.EditMode:
		return true
	}
	return false
}

func (a *App) querySummary() string {
	q := a.grid.Query()
	var parts []string
	if q.Search != "" {
		parts = append(parts, fmt.Sprintf("search %q", q.Search))
	}
	if n := len(q.ActiveFilters()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d filters", n))
	}
	if q.Sort != nil {
		parts = append(parts, fmt.Sprintf("sort %s %s", a.title(q.Sort.Column), q.Sort.Direction))
	}
	return strings.Join(parts, " · ")
}

func (a *App) bottomLeft() string {
	switch {
	case a.state.ViewMode == models.ConfirmMode:
		return fmt.Sprintf("Discard all %d edits? [y/N]", a.grid.Edits().Len())
	case a.status != "":
		return a.status
	default:
		return "[/] Search | [f] Filter | [s] Sort | [e] Edit | [?] Help | [q] Quit"
	}
}

func (a *App) bottomRight() string {
	var parts []string
	if n := a.grid.Edits().Len(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d edits", n))
	}
	if a.grid.Layout().HasCustomSettings() {
		parts = append(parts, "custom layout")
	}
	return strings.Join(parts, " · ")
}

// updatePanelDimensions calculates panel sizes based on window size
func (a *App) updatePanelDimensions() {
	if a.state.Width <= 0 || a.state.Height <= 0 {
		return
	}

	// Top bar, bottom bar and the panel border take 4 lines, the prompt 4 more
	contentHeight := a.state.Height - 4
	if a.promptOpen() {
		contentHeight -= 4
	}
	if contentHeight < 5 {
		contentHeight = 5
	}

	a.panel.Width = a.state.Width - 2
	a.panel.Height = contentHeight
	a.tableView.Width = a.panel.Width
	a.tableView.Height = contentHeight - 1 // Panel title
}

// formatStatusBar formats a status bar with left and right aligned content
func (a *App) formatStatusBar(left, right string) string {
	// Account for padding (2 chars on each side = 4 total)
	availableWidth := a.state.Width - 4
	if availableWidth < 0 {
		availableWidth = 0
	}

	leftLen := lipgloss.Width(left)
	rightLen := lipgloss.Width(right)

	// If content is too wide, drop the right side
	if leftLen+rightLen+1 > availableWidth {
		return left
	}
	return left + strings.Repeat(" ", availableWidth-leftLen-rightLen) + right
}

// ShowError displays an error overlay with the given title and message
func (a *App) ShowError(title, message string) {
	a.logger.Warn(title, zap.String("message", message))
	a.errorOverlay.SetError(title, message)
	a.showError = true
}

// DismissError hides the error overlay
func (a *App) DismissError() {
	a.showError = false
}
