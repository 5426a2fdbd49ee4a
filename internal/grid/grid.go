// Package grid wires query state, the row window, the column layout and the
// edit overlay into one grid instance.
//
// A Grid is not safe for concurrent use. Every method except Run must be
// called from the goroutine that owns the grid (the UI event loop); Run only
// reads immutable configuration and may execute anywhere.
package grid

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/rebeliceyang/lazygrid/internal/clock"
	"github.com/rebeliceyang/lazygrid/internal/edit"
	"github.com/rebeliceyang/lazygrid/internal/layout"
	"github.com/rebeliceyang/lazygrid/internal/logger"
	"github.com/rebeliceyang/lazygrid/internal/metrics"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/query"
	"github.com/rebeliceyang/lazygrid/internal/source"
	"github.com/rebeliceyang/lazygrid/internal/storage"
	"github.com/rebeliceyang/lazygrid/internal/window"
)

var (
	// ErrNoFetcher is returned by New for a remote grid without a fetcher
	ErrNoFetcher = errors.New("remote grid requires a fetcher")
	// ErrNoColumns is returned by New when no columns are defined
	ErrNoColumns = errors.New("grid requires at least one column")
	// ErrNotEditable is returned when editing a read-only column
	ErrNotEditable = errors.New("column is not editable")
	// ErrUnknownRow is returned when editing a row that is not loaded
	ErrUnknownRow = errors.New("row is not loaded")
	// ErrNotSortable is returned when sorting by a column that cannot sort
	ErrNotSortable = errors.New("column is not sortable")
	// ErrNotFilterable is returned when filtering a column that cannot filter
	ErrNotFilterable = errors.New("column is not filterable")
	// ErrColumnHidden is returned when filtering a hidden column
	ErrColumnHidden = errors.New("column is hidden")
)

// Config describes a grid instance
type Config struct {
	// ID namespaces the persisted layout and edits
	ID       string
	Columns  []models.ColumnDef
	Mode     models.FetchMode
	Strategy models.Strategy
	PageSize int

	// Rows is the full row set of a local grid
	Rows []models.Row
	// Fetcher serves pages of a remote grid
	Fetcher source.Fetcher

	// Store persists layout and edits. Nil keeps them in memory.
	Store  storage.Store
	Locale language.Tag

	Validator  edit.Validator
	MovePolicy layout.MovePolicy
}

// Option configures a Grid
type Option func(*Grid)

// WithLogger sets the grid's logger
func WithLogger(l *zap.Logger) Option {
	return func(g *Grid) { g.logger = logger.OrNop(l) }
}

// WithMetrics records fetch activity in c
func WithMetrics(c *metrics.Collector) Option {
	return func(g *Grid) { g.metrics = c }
}

// WithClock sets the clock used to time fetches
func WithClock(c clock.Clock) Option {
	return func(g *Grid) { g.clock = c }
}

// Grid is one interactive grid instance
type Grid struct {
	id      string
	mode    models.FetchMode
	rows    []models.Row
	fetcher source.Fetcher
	locale  language.Tag
	spec    models.QuerySpec
	window  *window.Window
	layout  *layout.Engine
	edits   *edit.Overlay
	logger  *zap.Logger
	metrics *metrics.Collector
	clock   clock.Clock
	dropped bool
}

// New creates a grid, loads its persisted layout and edits, and computes
// the initial rows of a local grid. A remote grid starts empty; call Reload
// to request the first page.
func New(cfg Config, opts ...Option) (*Grid, error) {
	if len(cfg.Columns) == 0 {
		return nil, ErrNoColumns
	}
	if cfg.Mode == models.Remote && cfg.Fetcher == nil {
		return nil, ErrNoFetcher
	}
	if cfg.ID == "" {
		cfg.ID = "default"
	}
	store := cfg.Store
	if store == nil {
		store = storage.NewMemory()
	}

	g := &Grid{
		id:      cfg.ID,
		mode:    cfg.Mode,
		rows:    cfg.Rows,
		fetcher: cfg.Fetcher,
		locale:  cfg.Locale,
		spec:    models.QuerySpec{Filters: map[string]string{}},
		window:  window.New(cfg.PageSize, cfg.Strategy),
		logger:  zap.NewNop(),
		clock:   clock.Real(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With(zap.String("grid", g.id))

	layoutOpts := []layout.Option{layout.WithLogger(g.logger)}
	if cfg.MovePolicy != nil {
		layoutOpts = append(layoutOpts, layout.WithMovePolicy(cfg.MovePolicy))
	}
	g.layout = layout.New(cfg.Columns, store, storage.LayoutKey(g.id), layoutOpts...)
	if err := g.layout.Load(); err != nil {
		return nil, fmt.Errorf("failed to load layout: %w", err)
	}
	g.layout.OnHide(g.dropFilter)

	editOpts := []edit.Option{edit.WithLogger(g.logger)}
	if cfg.Validator != nil {
		editOpts = append(editOpts, edit.WithValidator(cfg.Validator))
	}
	g.edits = edit.New(store, storage.EditsKey(g.id), editOpts...)
	if err := g.edits.Load(); err != nil {
		return nil, fmt.Errorf("failed to load edits: %w", err)
	}

	if g.mode == models.Local {
		g.recompute()
	}
	return g, nil
}

// ID returns the grid's identifier
func (g *Grid) ID() string { return g.id }

// Mode returns the grid's fetch mode
func (g *Grid) Mode() models.FetchMode { return g.mode }

// Strategy returns the active render strategy
func (g *Grid) Strategy() models.Strategy { return g.window.Strategy() }

// Query returns a copy of the active query
func (g *Grid) Query() models.QuerySpec { return g.spec.Clone() }

// Window exposes the row window for inspection
func (g *Grid) Window() *window.Window { return g.window }

// Layout returns the column layout engine. Hide columns through HideColumn
// or SetAllVisible so that filters on hidden columns are dropped.
func (g *Grid) Layout() *layout.Engine { return g.layout }

// Edits returns the edit overlay
func (g *Grid) Edits() *edit.Overlay { return g.edits }

// Rows returns the materialized rows with local edits applied
func (g *Grid) Rows() []models.Row {
	return g.edits.Overlay(g.window.Rows())
}

// recompute reruns the pipeline over the local row set
func (g *Grid) recompute() {
	res := query.Evaluate(g.rows, g.spec, query.Options{
		Paginate: g.window.Strategy() == models.Paginated,
		Page:     g.window.Page(),
		PageSize: g.window.PageSize(),
		Locale:   g.locale,
	})
	g.window.Replace(res.Rows, res.Total)
}

// SetRows replaces the row set of a local grid
func (g *Grid) SetRows(rows []models.Row) {
	if g.mode != models.Local {
		return
	}
	g.rows = rows
	g.window.Reset()
	g.recompute()
}

// since returns the time elapsed from start, for fetch timing
func (g *Grid) since(start time.Time) time.Duration {
	return g.clock.Now().Sub(start)
}
