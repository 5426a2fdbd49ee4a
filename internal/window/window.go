// Package window tracks how much of a query's result set has been
// materialized and merges fetched pages into it.
package window

import (
	"github.com/google/uuid"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

// Ticket identifies one page request. Only the most recently issued ticket
// may be merged; everything else is stale.
type Ticket struct {
	Seq       uint64
	Page      int
	Limit     int
	Offset    int
	RequestID string
}

// Window is the materialized portion of the active query's results
type Window struct {
	strategy models.Strategy
	pageSize int

	page    int
	rows    []models.Row
	seen    map[string]struct{}
	total   int
	loaded  bool
	loading bool
	err     error

	seq     uint64
	pending uint64
}

// New creates an empty window
func New(pageSize int, strategy models.Strategy) *Window {
	if pageSize <= 0 {
		pageSize = 100
	}
	w := &Window{strategy: strategy, pageSize: pageSize}
	w.Reset()
	return w
}

// Reset returns the window to its initial state and invalidates any
// in-flight request.
func (w *Window) Reset() {
	w.page = 0
	w.rows = nil
	w.seen = make(map[string]struct{})
	w.total = 0
	w.loaded = false
	w.loading = false
	w.err = nil
	w.seq++
	w.pending = 0
}

// SetStrategy switches the render strategy and resets the window
func (w *Window) SetStrategy(s models.Strategy) {
	w.strategy = s
	w.Reset()
}

// SetPageSize changes the page size and resets the window
func (w *Window) SetPageSize(n int) {
	if n > 0 {
		w.pageSize = n
	}
	w.Reset()
}

// Begin issues a ticket for page. In virtualized mode a request already in
// flight blocks new ones; in paginated mode the new page supersedes it.
// Page only moves once the ticket is merged.
func (w *Window) Begin(page int) (Ticket, bool) {
	if page < 0 {
		return Ticket{}, false
	}
	if w.loading && w.strategy == models.Virtualized {
		return Ticket{}, false
	}
	w.seq++
	w.pending = w.seq
	w.loading = true
	w.err = nil
	return Ticket{
		Seq:       w.seq,
		Page:      page,
		Limit:     w.pageSize,
		Offset:    page * w.pageSize,
		RequestID: uuid.NewString(),
	}, true
}

// IsCurrent reports whether t is the ticket the window is waiting for
func (w *Window) IsCurrent(t Ticket) bool {
	return w.loading && t.Seq == w.pending
}

// Merge folds a successful response into the window. Stale tickets are
// discarded and Merge reports false.
func (w *Window) Merge(t Ticket, rows []models.Row, total int) bool {
	if !w.IsCurrent(t) {
		return false
	}
	w.loading = false
	w.pending = 0
	w.loaded = true
	w.total = total

	if w.strategy == models.Paginated || t.Page == 0 {
		w.rows = nil
		w.seen = make(map[string]struct{})
	}
	for _, row := range rows {
		if _, dup := w.seen[row.ID]; dup && row.ID != "" {
			continue
		}
		w.seen[row.ID] = struct{}{}
		w.rows = append(w.rows, row)
	}
	w.page = t.Page
	return true
}

// Fail records a failed request. Rows already materialized stay visible
// and Page still names the page they belong to.
func (w *Window) Fail(t Ticket, err error) bool {
	if !w.IsCurrent(t) {
		return false
	}
	w.loading = false
	w.pending = 0
	w.err = err
	return true
}

// Replace installs a locally computed result
func (w *Window) Replace(rows []models.Row, total int) {
	w.rows = rows
	w.seen = make(map[string]struct{}, len(rows))
	for _, row := range rows {
		w.seen[row.ID] = struct{}{}
	}
	w.total = total
	w.loaded = true
	w.loading = false
	w.err = nil
}

// SetPage moves to page without fetching; used for local pagination
func (w *Window) SetPage(page int) {
	if page < 0 {
		page = 0
	}
	w.page = page
}

// NeedsMore reports whether rendering row renderedIndex should trigger the
// next virtualized page: the index is within the last pageSize/2 rows, more
// rows remain and nothing is loading.
func (w *Window) NeedsMore(renderedIndex int) bool {
	if w.strategy != models.Virtualized || w.loading || w.err != nil || !w.loaded {
		return false
	}
	if len(w.rows) >= w.total {
		return false
	}
	threshold := len(w.rows) - max(w.pageSize/2, 1)
	return renderedIndex >= threshold
}

// NextPage is the page a virtualized "load more" should request
func (w *Window) NextPage() int {
	if !w.loaded {
		return 0
	}
	return w.page + 1
}

// PageCount is the number of pages for the current total
func (w *Window) PageCount() int {
	if w.total == 0 {
		return 0
	}
	return (w.total + w.pageSize - 1) / w.pageSize
}

func (w *Window) Rows() []models.Row        { return w.rows }
func (w *Window) Total() int                { return w.total }
func (w *Window) Page() int                 { return w.page }
func (w *Window) PageSize() int             { return w.pageSize }
func (w *Window) Loaded() bool              { return w.loaded }
func (w *Window) Loading() bool             { return w.loading }
func (w *Window) Err() error                { return w.err }
func (w *Window) Strategy() models.Strategy { return w.strategy }
