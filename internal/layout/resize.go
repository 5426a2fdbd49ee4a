package layout

import (
	"fmt"
	"math"
)

// Resize is an in-progress drag of a column's resize handle. The width is
// applied live to ComputeLayout and persisted only on Commit.
type Resize struct {
	key   string
	start float64
	width float64
}

// Key returns the column being resized
func (r *Resize) Key() string { return r.key }

// Width returns the live width
func (r *Resize) Width() float64 { return r.width }

// BeginResize starts dragging key's handle from its currently rendered
// width. A resize already in progress is abandoned.
func (e *Engine) BeginResize(key string, startWidth float64) (*Resize, error) {
	_, def, err := e.lookup(key)
	if err != nil {
		return nil, err
	}
	if !def.Resizable {
		return nil, fmt.Errorf("%w: %s", ErrNotResizable, key)
	}
	start := e.clamp(startWidth, def)
	e.resize = &Resize{key: key, start: start, width: start}
	return e.resize, nil
}

// Drag applies a horizontal delta relative to the drag start and returns the
// live width: clamp(start+delta) snapped to the engine's increment.
func (e *Engine) Drag(deltaX float64) (float64, error) {
	if e.resize == nil {
		return 0, ErrNoResize
	}
	def := e.byKey[e.resize.key]
	w := e.clamp(e.resize.start+deltaX, def)
	if e.snap > 0 {
		w = e.clamp(math.Round(w/e.snap)*e.snap, def)
	}
	e.resize.width = w
	return w, nil
}

// CommitResize persists the live width and ends the drag
func (e *Engine) CommitResize() error {
	if e.resize == nil {
		return ErrNoResize
	}
	r := e.resize
	e.resize = nil
	return e.SetWidth(r.key, r.width)
}

// CancelResize ends the drag without changing the stored width
func (e *Engine) CancelResize() {
	e.resize = nil
}

// Resizing returns the drag in progress, if any
func (e *Engine) Resizing() (*Resize, bool) {
	return e.resize, e.resize != nil
}
