package grid

import (
	"strings"

	"go.uber.org/zap"

	"github.com/rebeliceyang/lazygrid/internal/layout"
	"github.com/rebeliceyang/lazygrid/internal/models"
)

// Every query action returns the fetch request the change requires, or nil
// when nothing has to be fetched (local grids and no-op changes).

// SetSearch replaces the search term
func (g *Grid) SetSearch(term string) *Request {
	next := g.spec.Clone()
	next.Search = term
	return g.applySpec(next)
}

// SetFilter sets the filter pattern for a column. A blank pattern removes
// the filter.
func (g *Grid) SetFilter(column, pattern string) (*Request, error) {
	def, ok := g.layout.Column(column)
	if !ok {
		return nil, layout.ErrUnknownColumn
	}
	if strings.TrimSpace(pattern) != "" {
		if !def.Filterable {
			return nil, ErrNotFilterable
		}
		if !g.layout.IsVisible(column) {
			return nil, ErrColumnHidden
		}
	}
	next := g.spec.Clone()
	if next.Filters == nil {
		next.Filters = make(map[string]string)
	}
	if strings.TrimSpace(pattern) == "" {
		delete(next.Filters, column)
	} else {
		next.Filters[column] = pattern
	}
	return g.applySpec(next), nil
}

// ClearFilters removes every column filter
func (g *Grid) ClearFilters() *Request {
	next := g.spec.Clone()
	next.Filters = map[string]string{}
	return g.applySpec(next)
}

// SetSort orders by s; nil restores the source order
func (g *Grid) SetSort(s *models.SortSpec) (*Request, error) {
	next := g.spec.Clone()
	if s == nil || s.Column == "" {
		next.Sort = nil
		return g.applySpec(next), nil
	}
	def, ok := g.layout.Column(s.Column)
	if !ok {
		return nil, layout.ErrUnknownColumn
	}
	if !def.Sortable {
		return nil, ErrNotSortable
	}
	dir := s.Direction
	if dir != models.Desc {
		dir = models.Asc
	}
	next.Sort = &models.SortSpec{Column: s.Column, Direction: dir}
	return g.applySpec(next), nil
}

// ToggleSort cycles a column through ascending, descending and unsorted
func (g *Grid) ToggleSort(column string) (*Request, error) {
	cur := g.spec.Sort
	switch {
	case cur == nil || cur.Column != column:
		return g.SetSort(&models.SortSpec{Column: column, Direction: models.Asc})
	case cur.Direction == models.Asc:
		return g.SetSort(&models.SortSpec{Column: column, Direction: models.Desc})
	default:
		return g.SetSort(nil)
	}
}

// SetStrategy switches between virtualized and paginated rendering
func (g *Grid) SetStrategy(s models.Strategy) *Request {
	if s == g.window.Strategy() {
		return nil
	}
	g.window.SetStrategy(s)
	g.logger.Debug("strategy changed", zap.Stringer("strategy", s))
	return g.restart()
}

// applySpec installs next as the active query. Any change discards the
// materialized rows before anything else can observe them.
func (g *Grid) applySpec(next models.QuerySpec) *Request {
	if next.Equal(g.spec) {
		g.spec = next
		return nil
	}
	g.spec = next
	g.window.Reset()
	g.logger.Debug("query changed",
		zap.String("search", next.Search),
		zap.Int("filters", len(next.ActiveFilters())),
	)
	return g.restart()
}

// restart recomputes a local grid or requests the first page of a remote
// one. The window must already be reset.
func (g *Grid) restart() *Request {
	if g.mode == models.Local {
		g.recompute()
		return nil
	}
	return g.begin(0)
}

// dropFilter runs when a column is hidden: a filter nobody can see or edit
// is removed from the query. The window is reset but no request is issued
// here. HideColumn and SetAllVisible issue it; after a direct
// Layout().SetVisible the remote window stays unloaded until Reload.
func (g *Grid) dropFilter(key string) {
	if strings.TrimSpace(g.spec.Filters[key]) == "" {
		return
	}
	next := g.spec.Clone()
	delete(next.Filters, key)
	g.spec = next
	g.window.Reset()
	g.dropped = true
	g.logger.Debug("dropping filter on hidden column", zap.String("column", key))
	if g.mode == models.Local {
		g.recompute()
	}
}

// HideColumn hides a column and drops its filter
func (g *Grid) HideColumn(key string) (*Request, error) {
	return g.setVisible(func() error { return g.layout.SetVisible(key, false) })
}

// ShowColumn shows a hidden column
func (g *Grid) ShowColumn(key string) error {
	return g.layout.SetVisible(key, true)
}

// SetAllVisible shows or hides every column that may be hidden, dropping
// filters on the columns it hides
func (g *Grid) SetAllVisible(visible bool) (*Request, error) {
	return g.setVisible(func() error { return g.layout.SetAllVisible(visible) })
}

func (g *Grid) setVisible(apply func() error) (*Request, error) {
	g.dropped = false
	err := apply()
	if !g.dropped {
		return nil, err
	}
	g.dropped = false
	if g.mode == models.Local {
		return nil, err
	}
	return g.begin(0), err
}
