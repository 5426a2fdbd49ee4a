// Package query evaluates a QuerySpec against an in-memory row set and
// encodes it as fetch parameters for remote sources.
package query

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/rebeliceyang/lazygrid/internal/cell"
	"github.com/rebeliceyang/lazygrid/internal/models"
)

// Options controls pagination and collation of an evaluation
type Options struct {
	// Paginate slices the result to a single page. Without it the full
	// matching set is returned.
	Paginate bool
	Page     int
	PageSize int

	// Locale drives string ordering. The zero value means English.
	Locale language.Tag
}

// Result is the outcome of evaluating a query
type Result struct {
	Rows  []models.Row
	Total int
}

// Evaluate filters, sorts and optionally paginates rows. Total counts the
// matching rows before pagination. The input slice is never modified.
func Evaluate(rows []models.Row, spec models.QuerySpec, opts Options) Result {
	matched := Filter(rows, spec)
	Sort(matched, spec.Sort, opts.Locale)

	total := len(matched)
	if opts.Paginate {
		matched = slicePage(matched, opts.Page, opts.PageSize)
	}
	return Result{Rows: matched, Total: total}
}

// Filter returns the rows matching the search term and every active filter,
// in input order.
func Filter(rows []models.Row, spec models.QuerySpec) []models.Row {
	var search string
	if strings.TrimSpace(spec.Search) != "" {
		search = strings.ToLower(spec.Search)
	}
	filters := make(map[string]string)
	for k, v := range spec.ActiveFilters() {
		filters[k] = strings.ToLower(v)
	}

	out := make([]models.Row, 0, len(rows))
	for _, row := range rows {
		if search != "" && !MatchesSearch(row, search) {
			continue
		}
		if !matchesFilters(row, filters) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// MatchesSearch reports whether any field of row contains the lower-cased
// term.
func MatchesSearch(row models.Row, term string) bool {
	for _, v := range row.Values {
		if strings.Contains(strings.ToLower(cell.String(v)), term) {
			return true
		}
	}
	return false
}

func matchesFilters(row models.Row, filters map[string]string) bool {
	for key, pattern := range filters {
		v, _ := row.Get(key)
		if !strings.Contains(strings.ToLower(cell.String(v)), pattern) {
			return false
		}
	}
	return true
}

// Sort orders rows in place by the sort spec. Numeric values compare
// numerically; everything else uses case-insensitive collation for locale.
// A nil spec leaves the order untouched.
func Sort(rows []models.Row, spec *models.SortSpec, locale language.Tag) {
	if spec == nil || spec.Column == "" {
		return
	}
	if locale == language.Und {
		locale = language.English
	}
	col := collate.New(locale, collate.IgnoreCase, collate.Loose)

	compare := func(a, b models.Row) int {
		av, _ := a.Get(spec.Column)
		bv, _ := b.Get(spec.Column)
		if af, ok := cell.Number(av); ok {
			if bf, ok := cell.Number(bv); ok {
				return cmp.Compare(af, bf)
			}
		}
		return col.CompareString(cell.String(av), cell.String(bv))
	}
	if spec.Direction == models.Desc {
		slices.SortStableFunc(rows, func(a, b models.Row) int { return -compare(a, b) })
		return
	}
	slices.SortStableFunc(rows, compare)
}

func slicePage(rows []models.Row, page, size int) []models.Row {
	if size <= 0 {
		return rows
	}
	start := page * size
	if page < 0 || start >= len(rows) {
		return []models.Row{}
	}
	end := min(start+size, len(rows))
	return rows[start:end]
}
