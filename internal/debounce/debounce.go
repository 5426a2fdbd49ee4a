// Package debounce delays propagation of rapidly changing input until it
// settles.
package debounce

import (
	"sync"
	"time"

	"github.com/rebeliceyang/lazygrid/internal/clock"
)

// Coalescer forwards the last value pushed within a quiet period. Every
// Push restarts the delay; values superseded before the delay elapses are
// never delivered.
type Coalescer[T any] struct {
	clock clock.Clock
	delay time.Duration
	fn    func(T)

	mu      sync.Mutex
	timer   clock.Timer
	value   T
	pending bool
	gen     uint64
}

// New creates a Coalescer that calls fn with the settled value. A nil clock
// uses the real clock.
func New[T any](clk clock.Clock, delay time.Duration, fn func(T)) *Coalescer[T] {
	if clk == nil {
		clk = clock.Real()
	}
	return &Coalescer[T]{clock: clk, delay: delay, fn: fn}
}

// Push records v and restarts the delay window. A zero delay delivers v
// immediately.
func (c *Coalescer[T]) Push(v T) {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.value = v
	c.pending = true
	c.gen++
	gen := c.gen
	if c.delay <= 0 {
		c.mu.Unlock()
		c.fire(gen)
		return
	}
	c.mu.Unlock()

	// The generation check guards against a real timer that already
	// started running when Stop was called.
	timer := c.clock.AfterFunc(c.delay, func() { c.fire(gen) })

	c.mu.Lock()
	if c.gen == gen && c.pending {
		c.timer = timer
	}
	c.mu.Unlock()
}

// Flush delivers the pending value now, if there is one.
func (c *Coalescer[T]) Flush() {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()
	c.fire(gen)
}

// Cancel drops the pending value without delivering it.
func (c *Coalescer[T]) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.pending = false
	c.gen++
}

// Pending reports whether a value is waiting for the quiet period to end.
func (c *Coalescer[T]) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

func (c *Coalescer[T]) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.pending {
		c.mu.Unlock()
		return
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	v := c.value
	c.pending = false
	c.mu.Unlock()

	c.fn(v)
}
