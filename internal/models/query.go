package models

import "strings"

// Direction is a sort direction
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortSpec orders results by a single column
type SortSpec struct {
	Column    string
	Direction Direction
}

// QuerySpec is the user-driven query state of a grid
type QuerySpec struct {
	Search  string
	Filters map[string]string
	Sort    *SortSpec
}

// ActiveFilters returns the filter entries with a non-blank pattern
func (q QuerySpec) ActiveFilters() map[string]string {
	active := make(map[string]string)
	for k, v := range q.Filters {
		if strings.TrimSpace(v) != "" {
			active[k] = v
		}
	}
	return active
}

// Clone returns a deep copy of the query
func (q QuerySpec) Clone() QuerySpec {
	out := QuerySpec{Search: q.Search}
	if q.Filters != nil {
		out.Filters = make(map[string]string, len(q.Filters))
		for k, v := range q.Filters {
			out.Filters[k] = v
		}
	}
	if q.Sort != nil {
		s := *q.Sort
		out.Sort = &s
	}
	return out
}

// Equal reports whether two specs select the same rows in the same order.
// Blank filter entries are ignored.
func (q QuerySpec) Equal(other QuerySpec) bool {
	if q.Search != other.Search {
		return false
	}
	a, b := q.ActiveFilters(), other.ActiveFilters()
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	switch {
	case q.Sort == nil && other.Sort == nil:
		return true
	case q.Sort == nil || other.Sort == nil:
		return false
	default:
		return *q.Sort == *other.Sort
	}
}
