package debounce

import (
	"testing"
	"time"

	"github.com/rebeliceyang/lazygrid/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCoalescer(delay time.Duration) (*Coalescer[string], *clock.FakeClock, *[]string) {
	clk := clock.Fake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	var got []string
	c := New(clk, delay, func(v string) { got = append(got, v) })
	return c, clk, &got
}

func TestOnlyLastValueWithinQuietPeriodPropagates(t *testing.T) {
	c, clk, got := newTestCoalescer(300 * time.Millisecond)

	c.Push("a")
	clk.Advance(100 * time.Millisecond)
	c.Push("ad")
	clk.Advance(100 * time.Millisecond)
	c.Push("ada")
	assert.Empty(t, *got)
	assert.True(t, c.Pending())

	clk.Advance(299 * time.Millisecond)
	assert.Empty(t, *got, "each push restarts the delay")

	clk.Advance(time.Millisecond)
	require.Equal(t, []string{"ada"}, *got)
	assert.False(t, c.Pending())
}

func TestSeparateQuietPeriodsEachPropagate(t *testing.T) {
	c, clk, got := newTestCoalescer(50 * time.Millisecond)

	c.Push("x")
	clk.Advance(time.Second)
	c.Push("y")
	clk.Advance(time.Second)

	assert.Equal(t, []string{"x", "y"}, *got)
}

func TestCancelDropsPendingValue(t *testing.T) {
	c, clk, got := newTestCoalescer(50 * time.Millisecond)

	c.Push("x")
	c.Cancel()
	clk.Advance(time.Second)

	assert.Empty(t, *got)
	assert.False(t, c.Pending())
	assert.Equal(t, 0, clk.Pending())
}

func TestFlushDeliversImmediately(t *testing.T) {
	c, clk, got := newTestCoalescer(50 * time.Millisecond)

	c.Push("x")
	c.Flush()
	assert.Equal(t, []string{"x"}, *got)

	clk.Advance(time.Second)
	assert.Equal(t, []string{"x"}, *got, "flushed value is not delivered twice")

	c.Flush()
	assert.Equal(t, []string{"x"}, *got, "flush without a pending value is a no-op")
}

func TestZeroDelayDeliversSynchronously(t *testing.T) {
	c, _, got := newTestCoalescer(0)

	c.Push("now")
	assert.Equal(t, []string{"now"}, *got)
	assert.False(t, c.Pending())
}
