package grid

import "github.com/rebeliceyang/lazygrid/internal/models"

// View is a snapshot of everything the rendering layer draws
type View struct {
	Rows     []models.Row
	Columns  []models.Placement
	Query    models.QuerySpec
	Mode     models.FetchMode
	Strategy models.Strategy

	Loading   bool
	Err       error
	Total     int
	Page      int
	PageCount int

	Pending      *models.PendingEdit
	Edits        int
	CustomLayout bool
}

// View builds a snapshot for a container width in pixels or cells
func (g *Grid) View(containerWidth float64) View {
	v := View{
		Rows:         g.Rows(),
		Columns:      g.layout.ComputeLayout(containerWidth),
		Query:        g.spec.Clone(),
		Mode:         g.mode,
		Strategy:     g.window.Strategy(),
		Loading:      g.window.Loading(),
		Err:          g.window.Err(),
		Total:        g.window.Total(),
		Page:         g.window.Page(),
		PageCount:    g.window.PageCount(),
		Edits:        g.edits.Len(),
		CustomLayout: g.layout.HasCustomSettings(),
	}
	if p, ok := g.edits.Pending(); ok {
		v.Pending = &p
	}
	return v
}

// Edited reports whether a cell carries a local edit
func (g *Grid) Edited(rowID, column string) bool {
	_, ok := g.edits.Record(rowID, column)
	return ok
}
