// Package layout owns column order, width, visibility and pinning, computes
// pixel geometry for a container width and persists the layout between
// sessions.
package layout

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rebeliceyang/lazygrid/internal/logger"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/storage"
)

// Default geometry bounds in pixels.
const (
	MinWidth      = 50.0
	MaxWidth      = 1000.0
	SnapIncrement = 5.0
)

var (
	ErrUnknownColumn = errors.New("unknown column")
	ErrAlwaysVisible = errors.New("column cannot be hidden")
	ErrNotResizable  = errors.New("column is not resizable")
	ErrMoveRejected  = errors.New("column move rejected")
	ErrNoResize      = errors.New("no resize in progress")
)

// MovePolicy decides whether a column may be moved onto another column's
// position. Pin sides are the effective sides, including user overrides.
type MovePolicy func(from, to models.ColumnDef, fromPin, toPin models.PinSide) bool

// SamePinGroup refuses moves that would cross between pin groups
func SamePinGroup(_, _ models.ColumnDef, fromPin, toPin models.PinSide) bool {
	return fromPin == toPin
}

// AnyMove allows every move
func AnyMove(_, _ models.ColumnDef, _, _ models.PinSide) bool { return true }

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine's logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger.OrNop(l) }
}

// WithMovePolicy replaces the default SamePinGroup policy
func WithMovePolicy(p MovePolicy) Option {
	return func(e *Engine) {
		if p != nil {
			e.policy = p
		}
	}
}

// WithBounds overrides the resize bounds and snap increment. A zero snap
// disables snapping.
func WithBounds(minWidth, maxWidth, snap float64) Option {
	return func(e *Engine) {
		e.minWidth, e.maxWidth, e.snap = minWidth, maxWidth, snap
	}
}

// Engine is the column layout state of one grid
type Engine struct {
	defs    []models.ColumnDef
	byKey   map[string]models.ColumnDef
	entries []models.LayoutEntry

	store  storage.Store
	key    string
	logger *zap.Logger
	policy MovePolicy

	minWidth float64
	maxWidth float64
	snap     float64

	onHide []func(key string)
	resize *Resize
}

// New creates an engine with the default layout for defs. Call Load to
// restore a persisted layout. A nil store keeps the layout in memory only.
func New(defs []models.ColumnDef, store storage.Store, key string, opts ...Option) *Engine {
	e := &Engine{
		defs:     append([]models.ColumnDef(nil), defs...),
		byKey:    make(map[string]models.ColumnDef, len(defs)),
		store:    store,
		key:      key,
		logger:   zap.NewNop(),
		policy:   SamePinGroup,
		minWidth: MinWidth,
		maxWidth: MaxWidth,
		snap:     SnapIncrement,
	}
	for _, def := range defs {
		e.byKey[def.Key] = def
	}
	for _, opt := range opts {
		opt(e)
	}
	e.entries = e.defaultEntries()
	return e
}

func (e *Engine) defaultEntries() []models.LayoutEntry {
	entries := make([]models.LayoutEntry, len(e.defs))
	for i, def := range e.defs {
		entries[i] = models.LayoutEntry{Key: def.Key, Visible: true}
	}
	return entries
}

// OnHide registers fn to run whenever a column becomes hidden
func (e *Engine) OnHide(fn func(key string)) {
	e.onHide = append(e.onHide, fn)
}

// Defs returns the configured column definitions in configuration order
func (e *Engine) Defs() []models.ColumnDef {
	return append([]models.ColumnDef(nil), e.defs...)
}

// Column returns the definition for key
func (e *Engine) Column(key string) (models.ColumnDef, bool) {
	def, ok := e.byKey[key]
	return def, ok
}

// Entries returns a copy of the current layout in display order
func (e *Engine) Entries() []models.LayoutEntry {
	out := make([]models.LayoutEntry, len(e.entries))
	for i, entry := range e.entries {
		out[i] = cloneEntry(entry)
	}
	return out
}

// VisibleColumns returns the visible column definitions in layout order
func (e *Engine) VisibleColumns() []models.ColumnDef {
	var out []models.ColumnDef
	for _, entry := range e.entries {
		if entry.Visible {
			out = append(out, e.byKey[entry.Key])
		}
	}
	return out
}

// IsVisible reports whether key is currently shown
func (e *Engine) IsVisible(key string) bool {
	i := e.index(key)
	return i >= 0 && e.entries[i].Visible
}

// PinnedSide returns the effective pin side of key
func (e *Engine) PinnedSide(key string) models.PinSide {
	i := e.index(key)
	if i < 0 {
		return models.PinNone
	}
	return e.pinOf(e.entries[i])
}

func (e *Engine) pinOf(entry models.LayoutEntry) models.PinSide {
	if entry.Pinned != nil {
		return *entry.Pinned
	}
	return e.byKey[entry.Key].Pinned
}

func (e *Engine) index(key string) int {
	for i, entry := range e.entries {
		if entry.Key == key {
			return i
		}
	}
	return -1
}

func (e *Engine) lookup(key string) (int, models.ColumnDef, error) {
	i := e.index(key)
	if i < 0 {
		return -1, models.ColumnDef{}, fmt.Errorf("%w: %s", ErrUnknownColumn, key)
	}
	return i, e.byKey[key], nil
}

// SetOrder reorders columns. keys are placed first, in the given order;
// columns not mentioned keep their relative order after them.
func (e *Engine) SetOrder(keys []string) error {
	placed := make(map[string]bool, len(keys))
	next := make([]models.LayoutEntry, 0, len(e.entries))
	for _, key := range keys {
		i, _, err := e.lookup(key)
		if err != nil {
			return err
		}
		if placed[key] {
			continue
		}
		placed[key] = true
		next = append(next, e.entries[i])
	}
	for _, entry := range e.entries {
		if !placed[entry.Key] {
			next = append(next, entry)
		}
	}
	e.entries = next
	return e.persist()
}

// Move moves the column fromKey to the position currently held by toKey,
// shifting the columns in between.
func (e *Engine) Move(fromKey, toKey string) error {
	from, fromDef, err := e.lookup(fromKey)
	if err != nil {
		return err
	}
	to, toDef, err := e.lookup(toKey)
	if err != nil {
		return err
	}
	if from == to {
		return nil
	}
	if !e.policy(fromDef, toDef, e.pinOf(e.entries[from]), e.pinOf(e.entries[to])) {
		return fmt.Errorf("%w: %s onto %s", ErrMoveRejected, fromKey, toKey)
	}

	entry := e.entries[from]
	rest := append(e.entries[:from:from], e.entries[from+1:]...)
	moved := make([]models.LayoutEntry, 0, len(e.entries))
	moved = append(moved, rest[:to]...)
	moved = append(moved, entry)
	moved = append(moved, rest[to:]...)
	e.entries = moved
	return e.persist()
}

// SetWidth stores a custom width for key, clamped to the engine bounds
func (e *Engine) SetWidth(key string, px float64) error {
	i, def, err := e.lookup(key)
	if err != nil {
		return err
	}
	if !def.Resizable {
		return fmt.Errorf("%w: %s", ErrNotResizable, key)
	}
	w := e.clamp(px, def)
	e.entries[i].Width = &w
	return e.persist()
}

// ResetWidth drops the custom width of key
func (e *Engine) ResetWidth(key string) error {
	i, _, err := e.lookup(key)
	if err != nil {
		return err
	}
	e.entries[i].Width = nil
	return e.persist()
}

// ResetAllWidths drops every custom width
func (e *Engine) ResetAllWidths() error {
	for i := range e.entries {
		e.entries[i].Width = nil
	}
	return e.persist()
}

// SetVisible shows or hides key. Always-visible columns cannot be hidden.
func (e *Engine) SetVisible(key string, visible bool) error {
	i, def, err := e.lookup(key)
	if err != nil {
		return err
	}
	if !visible && def.AlwaysVisible {
		return fmt.Errorf("%w: %s", ErrAlwaysVisible, key)
	}
	wasVisible := e.entries[i].Visible
	e.entries[i].Visible = visible
	if wasVisible && !visible {
		e.notifyHidden(key)
	}
	return e.persist()
}

// SetAllVisible shows or hides every toggleable column
func (e *Engine) SetAllVisible(visible bool) error {
	var hidden []string
	for i, entry := range e.entries {
		if e.byKey[entry.Key].AlwaysVisible {
			continue
		}
		if entry.Visible && !visible {
			hidden = append(hidden, entry.Key)
		}
		e.entries[i].Visible = visible
	}
	for _, key := range hidden {
		e.notifyHidden(key)
	}
	return e.persist()
}

// SetPinned overrides the pin side of key
func (e *Engine) SetPinned(key string, side models.PinSide) error {
	i, def, err := e.lookup(key)
	if err != nil {
		return err
	}
	if side == def.Pinned {
		e.entries[i].Pinned = nil
	} else {
		e.entries[i].Pinned = &side
	}
	return e.persist()
}

// ResetAll restores the configured defaults
func (e *Engine) ResetAll() error {
	e.entries = e.defaultEntries()
	e.resize = nil
	return e.persist()
}

// HasCustomSettings reports whether the layout differs from the configured
// defaults in width, visibility, pinning, column count or order.
func (e *Engine) HasCustomSettings() bool {
	if len(e.entries) != len(e.defs) {
		return true
	}
	for i, entry := range e.entries {
		def := e.defs[i]
		if entry.Key != def.Key {
			return true
		}
		if entry.Width != nil && *entry.Width != def.Width {
			return true
		}
		if !entry.Visible {
			return true
		}
		if entry.Pinned != nil && *entry.Pinned != def.Pinned {
			return true
		}
	}
	return false
}

func (e *Engine) notifyHidden(key string) {
	for _, fn := range e.onHide {
		fn(key)
	}
}

func (e *Engine) minFor(def models.ColumnDef) float64 {
	if def.MinWidth > 0 {
		return def.MinWidth
	}
	return e.minWidth
}

func (e *Engine) clamp(px float64, def models.ColumnDef) float64 {
	return min(max(px, e.minFor(def)), e.maxWidth)
}

func cloneEntry(entry models.LayoutEntry) models.LayoutEntry {
	out := models.LayoutEntry{Key: entry.Key, Visible: entry.Visible}
	if entry.Width != nil {
		w := *entry.Width
		out.Width = &w
	}
	if entry.Pinned != nil {
		p := *entry.Pinned
		out.Pinned = &p
	}
	return out
}
