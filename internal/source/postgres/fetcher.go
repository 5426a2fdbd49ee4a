package postgres

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rebeliceyang/lazygrid/internal/cell"
	"github.com/rebeliceyang/lazygrid/internal/logger"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/query"
	"github.com/rebeliceyang/lazygrid/internal/source"
)

const sourceName = "postgres"

// Fetcher serves grid pages from one table
type Fetcher struct {
	db      Querier
	builder *Builder
	logger  *zap.Logger
}

// NewFetcher creates a fetcher reading table through db
func NewFetcher(db Querier, table Table, log *zap.Logger) *Fetcher {
	return &Fetcher{
		db:      db,
		builder: NewBuilder(table),
		logger:  logger.OrNop(log).With(zap.String("source", sourceName), zap.String("table", table.Name)),
	}
}

// Fetch runs the count and page queries for p
func (f *Fetcher) Fetch(ctx context.Context, p query.Params) (source.Page, error) {
	start := time.Now()

	count := f.builder.Count(p)
	var total int64
	if err := f.db.QueryRow(ctx, count.SQL, count.Args...).Scan(&total); err != nil {
		return source.Page{}, &source.FetchError{Source: sourceName, Err: fmt.Errorf("failed to count rows: %w", err)}
	}

	stmt := f.builder.Select(p)
	rows, err := f.db.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return source.Page{}, &source.FetchError{Source: sourceName, Err: fmt.Errorf("failed to query rows: %w", err)}
	}
	defer rows.Close()

	idColumn := f.builder.Table().IDColumn
	fields := rows.FieldDescriptions()
	var out []models.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return source.Page{}, &source.FetchError{Source: sourceName, Err: fmt.Errorf("failed to read row: %w", err)}
		}
		row := models.Row{Values: make(map[string]any, len(fields))}
		for i, fd := range fields {
			row.Values[fd.Name] = normalize(values[i])
		}
		row.ID = cell.String(row.Values[idColumn])
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return source.Page{}, &source.FetchError{Source: sourceName, Err: fmt.Errorf("failed to read rows: %w", err)}
	}

	f.logger.Debug("fetched page",
		zap.Int("limit", p.Limit),
		zap.Int("offset", p.Offset),
		zap.Int("rows", len(out)),
		zap.Int64("total", total),
		zap.Duration("elapsed", time.Since(start)),
	)
	return source.Page{Rows: out, Total: int(total)}, nil
}

// normalize converts driver-specific values into types the grid renders
// and compares natively
func normalize(v any) any {
	switch val := v.(type) {
	case [16]byte:
		return uuid.UUID(val).String()
	case driver.Valuer:
		dv, err := val.Value()
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return dv
	default:
		return v
	}
}
