package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rebeliceyang/lazygrid/internal/app"
	"github.com/rebeliceyang/lazygrid/internal/config"
)

func newViewCmd(configPath *string) *cobra.Command {
	var csvPath, theme, strategy, metricsAddr string

	cmd := &cobra.Command{
		Use:   "view [file.csv]",
		Short: "Browse the configured source in the terminal",
		Long: `Open the interactive grid. Without arguments the source from the config file
is used; a CSV path argument overrides it.

Example:
  lazygrid view people.csv
  lazygrid view --config team.yaml --strategy paginated`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				csvPath = args[0]
			}
			cfg, err := loadConfig(*configPath, func(c *config.Config) {
				if csvPath != "" {
					c.Source.Kind = "csv"
					c.Source.CSV.Path = csvPath
				}
				if theme != "" {
					c.UI.Theme = theme
				}
				if strategy != "" {
					c.Grid.Strategy = strategy
				}
			})
			if err != nil {
				return err
			}
			return runView(cmd.Context(), cfg, metricsAddr)
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV file to browse instead of the configured source")
	cmd.Flags().StringVar(&theme, "theme", "", "Color theme (default, catppuccin-mocha)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "Row strategy: virtualized or paginated")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	return cmd
}

func runView(ctx context.Context, cfg *config.Config, metricsAddr string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	s, err := openSession(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open session", zap.Error(err))
		_ = log.Sync()
		return err
	}
	defer s.Close()

	if metricsAddr != "" {
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	a := app.New(s.grid, cfg, app.WithLogger(log), app.WithContext(ctx))

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if cfg.UI.MouseEnabled {
		opts = append(opts, tea.WithMouseCellMotion())
	}

	p := tea.NewProgram(a, opts...)
	a.SetSender(p.Send)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
