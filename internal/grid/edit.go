package grid

import (
	"github.com/rebeliceyang/lazygrid/internal/layout"
	"github.com/rebeliceyang/lazygrid/internal/models"
)

// StartEdit opens an edit on a materialized cell, seeded with the value the
// user currently sees
func (g *Grid) StartEdit(rowID, column string) error {
	def, ok := g.layout.Column(column)
	if !ok {
		return layout.ErrUnknownColumn
	}
	if !def.Editable {
		return ErrNotEditable
	}
	row, ok := g.row(rowID)
	if !ok {
		return ErrUnknownRow
	}
	current, _ := row.Get(column)
	g.edits.StartEdit(rowID, column, current)
	return nil
}

// row finds a materialized row by ID, with edits applied
func (g *Grid) row(id string) (models.Row, bool) {
	for _, r := range g.window.Rows() {
		if r.ID == id {
			return g.edits.Overlay([]models.Row{r})[0], true
		}
	}
	return models.Row{}, false
}
