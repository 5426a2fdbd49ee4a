package postgres

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/query"
)

// Table names the relation a fetcher reads
type Table struct {
	Schema   string
	Name     string
	IDColumn string
	// Columns limits the selected columns and the search scope. Empty
	// selects every column and searches the whole row text.
	Columns []string
}

// Statement is a parameterized SQL statement
type Statement struct {
	SQL  string
	Args []any
}

// Builder generates SQL for grid fetch parameters. Column names are only
// ever taken from the table definition, never from the parameters.
type Builder struct {
	table Table
	known map[string]bool
}

// NewBuilder creates a builder for table
func NewBuilder(table Table) *Builder {
	if table.Schema == "" {
		table.Schema = "public"
	}
	if table.IDColumn == "" {
		table.IDColumn = "id"
	}
	known := make(map[string]bool, len(table.Columns))
	for _, c := range table.Columns {
		known[c] = true
	}
	return &Builder{table: table, known: known}
}

// Table returns the builder's table definition with defaults applied
func (b *Builder) Table() Table { return b.table }

func (b *Builder) relation() string {
	return pgx.Identifier{b.table.Schema, b.table.Name}.Sanitize() + " AS t"
}

func column(name string) string {
	return "t." + pgx.Identifier{name}.Sanitize()
}

func (b *Builder) isKnown(name string) bool {
	if len(b.table.Columns) == 0 {
		return name != ""
	}
	return b.known[name]
}

// Where builds the WHERE clause for the search term and filters, numbering
// placeholders from 1
func (b *Builder) Where(p query.Params) (string, []any) {
	var clauses []string
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if strings.TrimSpace(p.Search) != "" {
		ph := next(likePattern(p.Search))
		if len(b.table.Columns) == 0 {
			clauses = append(clauses, fmt.Sprintf("t::text ILIKE %s", ph))
		} else {
			parts := make([]string, len(b.table.Columns))
			for i, c := range b.table.Columns {
				parts[i] = fmt.Sprintf("%s::text ILIKE %s", column(c), ph)
			}
			clauses = append(clauses, "("+strings.Join(parts, " OR ")+")")
		}
	}

	keys := make([]string, 0, len(p.Filters))
	for k, v := range p.Filters {
		if strings.TrimSpace(v) != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !b.isKnown(k) {
			// A filter on a column the table does not have matches nothing.
			clauses = append(clauses, "FALSE")
			continue
		}
		ph := next(likePattern(p.Filters[k]))
		clauses = append(clauses, fmt.Sprintf("%s::text ILIKE %s", column(k), ph))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// Count builds the statement returning the number of matching rows
func (b *Builder) Count(p query.Params) Statement {
	where, args := b.Where(p)
	sql := "SELECT COUNT(*) FROM " + b.relation()
	if where != "" {
		sql += " " + where
	}
	return Statement{SQL: sql, Args: args}
}

// Select builds the statement returning one page of matching rows
func (b *Builder) Select(p query.Params) Statement {
	where, args := b.Where(p)

	cols := "t.*"
	if len(b.table.Columns) > 0 {
		quoted := make([]string, 0, len(b.table.Columns)+1)
		hasID := false
		for _, c := range b.table.Columns {
			quoted = append(quoted, column(c))
			hasID = hasID || c == b.table.IDColumn
		}
		if !hasID {
			quoted = append(quoted, column(b.table.IDColumn))
		}
		cols = strings.Join(quoted, ", ")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT %s FROM %s", cols, b.relation())
	if where != "" {
		sb.WriteString(" " + where)
	}
	sb.WriteString(" ORDER BY " + b.orderBy(p.Sort))
	if p.Limit > 0 {
		args = append(args, p.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	if p.Offset > 0 {
		args = append(args, p.Offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(args))
	}
	return Statement{SQL: sb.String(), Args: args}
}

// orderBy sorts by the requested column with the ID column as a tie
// breaker so that pages never overlap. Unknown columns keep ID order.
func (b *Builder) orderBy(s *models.SortSpec) string {
	id := column(b.table.IDColumn)
	if s == nil || s.Column == "" || !b.isKnown(s.Column) || s.Column == b.table.IDColumn {
		dir := "ASC"
		if s != nil && s.Column == b.table.IDColumn && s.Direction == models.Desc {
			dir = "DESC"
		}
		return id + " " + dir
	}
	dir := "ASC"
	if s.Direction == models.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s, %s ASC", column(s.Column), dir, id)
}

// likePattern builds a case-insensitive substring pattern with LIKE
// metacharacters escaped
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}
