// Package source defines how the grid fetches rows from a remote data
// source. Implementations live in the subpackages.
package source

import (
	"context"
	"fmt"

	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/query"
)

// Page is one slice of a remote result set plus the total number of rows
// matching the query
type Page struct {
	Rows  []models.Row
	Total int
}

// Fetcher retrieves one page of rows for the given parameters
type Fetcher interface {
	Fetch(ctx context.Context, p query.Params) (Page, error)
}

// FetcherFunc adapts a function to the Fetcher interface
type FetcherFunc func(ctx context.Context, p query.Params) (Page, error)

// Fetch calls f
func (f FetcherFunc) Fetch(ctx context.Context, p query.Params) (Page, error) {
	return f(ctx, p)
}

// FetchError wraps a failure reported by a data source
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetch failed: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
