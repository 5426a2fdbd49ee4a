package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/rebeliceyang/lazygrid/internal/models"
)

// Column describes a table column as reported by information_schema
type Column struct {
	Name     string
	DataType string
}

// Columns lists the columns of schema.table in ordinal order
func Columns(ctx context.Context, db Querier, schema, table string) ([]Column, error) {
	if schema == "" {
		schema = "public"
	}
	rows, err := db.Query(ctx, `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`, schema, table)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.DataType); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s.%s not found or has no columns", schema, table)
	}
	return columns, nil
}

// Def returns a grid column definition for c. The ID column is pinned left,
// always visible and read-only; JSON documents are neither sortable nor
// editable.
func (c Column) Def(idColumn string) models.ColumnDef {
	def := models.ColumnDef{
		Key:        c.Name,
		Title:      c.Name,
		Sortable:   true,
		Filterable: true,
		Resizable:  true,
		Editable:   true,
	}
	switch {
	case c.Name == idColumn:
		def.Width = 80
		def.Pinned = models.PinLeft
		def.AlwaysVisible = true
		def.Editable = false
	case strings.Contains(c.DataType, "json"), c.DataType == "ARRAY":
		def.Sortable = false
		def.Editable = false
	case strings.Contains(c.DataType, "bool"):
		def.Width = 80
	}
	return def
}
