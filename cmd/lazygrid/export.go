package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rebeliceyang/lazygrid/internal/config"
	"github.com/rebeliceyang/lazygrid/internal/export"
	"github.com/rebeliceyang/lazygrid/internal/grid"
	"github.com/rebeliceyang/lazygrid/internal/models"
)

type exportOptions struct {
	format  string
	output  string
	search  string
	filters map[string]string
	sort    string
}

func newExportCmd(configPath *string) *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the configured query to CSV, JSON or YAML",
		Long: `Run the configured grid headless and write every matching row. Only the
visible columns of the saved layout are written, in layout order, with local
edits applied.

Example:
  lazygrid export --format json --search ann --filter city=berlin --sort age:desc`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath, nil)
			if err != nil {
				return err
			}
			return runExport(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format: csv, json or yaml (default from --output extension, else csv)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&opts.search, "search", "", "Search term matched against every column")
	cmd.Flags().StringToStringVar(&opts.filters, "filter", nil, "Column filter as key=pattern, repeatable")
	cmd.Flags().StringVar(&opts.sort, "sort", "", "Sort column, optionally suffixed with :asc or :desc")
	return cmd
}

func (o exportOptions) resolveFormat() (export.Format, error) {
	switch {
	case o.format != "":
		return export.ParseFormat(o.format)
	case o.output != "":
		return export.FormatForPath(o.output)
	default:
		return export.CSV, nil
	}
}

// parseSort parses "column" or "column:desc"
func parseSort(s string) (*models.SortSpec, error) {
	if s == "" {
		return nil, nil
	}
	col, dir, _ := strings.Cut(s, ":")
	spec := &models.SortSpec{Column: col, Direction: models.Asc}
	switch strings.ToLower(dir) {
	case "", "asc":
	case "desc":
		spec.Direction = models.Desc
	default:
		return nil, fmt.Errorf("invalid sort direction %q", dir)
	}
	return spec, nil
}

// applyQuery sets the query from the command line on g
func applyQuery(g *grid.Grid, opts exportOptions) error {
	g.SetSearch(opts.search)
	for col, pattern := range opts.filters {
		if _, err := g.SetFilter(col, pattern); err != nil {
			return fmt.Errorf("filter %s: %w", col, err)
		}
	}
	sort, err := parseSort(opts.sort)
	if err != nil {
		return err
	}
	if _, err := g.SetSort(sort); err != nil {
		return fmt.Errorf("sort %s: %w", opts.sort, err)
	}
	return nil
}

func runExport(ctx context.Context, cfg *config.Config, opts exportOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	format, err := opts.resolveFormat()
	if err != nil {
		return err
	}

	// Export always walks the whole result set
	cfg.Grid.Strategy = models.Virtualized.String()

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	s, err := openSession(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := applyQuery(s.grid, opts); err != nil {
		return err
	}
	if err := s.grid.LoadAll(ctx); err != nil {
		return fmt.Errorf("failed to load rows: %w", err)
	}

	columns := s.grid.Layout().VisibleColumns()
	rows := s.grid.Rows()
	log.Info("exporting",
		zap.String("format", string(format)),
		zap.Int("rows", len(rows)),
		zap.Int("columns", len(columns)),
	)

	if opts.output != "" {
		return export.ToFile(opts.output, format, columns, rows)
	}
	w := bufio.NewWriter(os.Stdout)
	if err := export.Write(w, format, columns, rows); err != nil {
		return err
	}
	return w.Flush()
}
