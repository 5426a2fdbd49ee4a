package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/rebeliceyang/lazygrid/internal/config"
	"github.com/rebeliceyang/lazygrid/internal/credentials"
	"github.com/rebeliceyang/lazygrid/internal/grid"
	"github.com/rebeliceyang/lazygrid/internal/logger"
	"github.com/rebeliceyang/lazygrid/internal/metrics"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/source/csvsource"
	"github.com/rebeliceyang/lazygrid/internal/source/httpsource"
	"github.com/rebeliceyang/lazygrid/internal/source/postgres"
	"github.com/rebeliceyang/lazygrid/internal/storage"
)

// session owns everything a command builds from the configuration
type session struct {
	cfg     *config.Config
	grid    *grid.Grid
	logger  *zap.Logger
	metrics *metrics.Collector
	closers []func() error
}

// Close releases the source and storage in reverse order
func (s *session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	_ = s.logger.Sync()
	return errors.Join(errs...)
}

// loadConfig loads and validates the configuration at path
func loadConfig(path string, override func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the file logger. The terminal front end owns the
// screen, so nothing is logged to stdout.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	return logger.New(cfg.Logger())
}

// openSession builds the storage, source and grid described by cfg
func openSession(ctx context.Context, cfg *config.Config, log *zap.Logger) (*session, error) {
	s := &session{
		cfg:     cfg,
		logger:  log,
		metrics: metrics.NewCollector(cfg.Grid.ID),
	}

	store, err := s.openStorage()
	if err != nil {
		return nil, err
	}

	gc := grid.Config{
		ID:       cfg.Grid.ID,
		Columns:  cfg.ColumnDefs(),
		Strategy: cfg.GridStrategy(),
		PageSize: cfg.Grid.PageSize,
		Store:    store,
		Locale:   cfg.GridLocale(),
	}
	if err := s.openSource(ctx, &gc); err != nil {
		_ = s.Close()
		return nil, err
	}

	g, err := grid.New(gc, grid.WithLogger(log), grid.WithMetrics(s.metrics))
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to create grid: %w", err)
	}
	s.grid = g

	log.Info("session opened",
		zap.String("grid", cfg.Grid.ID),
		zap.String("source", cfg.Source.Kind),
		zap.String("mode", gc.Mode.String()),
		zap.Int("columns", len(gc.Columns)),
	)
	return s, nil
}

func (s *session) openStorage() (storage.Store, error) {
	switch s.cfg.Storage.Kind {
	case "memory":
		return storage.NewMemory(), nil
	case "sqlite":
		path := s.cfg.Storage.Path
		if filepath.Ext(path) == "" {
			path = filepath.Join(path, "state.db")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
		db, err := storage.NewSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open state database: %w", err)
		}
		s.closers = append(s.closers, db.Close)
		return db, nil
	default:
		return storage.NewFile(s.cfg.Storage.Path), nil
	}
}

func (s *session) openSource(ctx context.Context, gc *grid.Config) error {
	src := s.cfg.Source
	switch src.Kind {
	case "csv":
		data, err := csvsource.Load(src.CSV.Path, src.IDColumn)
		if err != nil {
			return err
		}
		gc.Mode = models.Local
		gc.Rows = data.Rows
		if len(gc.Columns) == 0 {
			gc.Columns = data.Columns(src.IDColumn)
		}
		return nil

	case "postgres":
		conn := src.Postgres.ConnectionConfig
		if src.Postgres.UseKeyring {
			conn = s.resolvePassword(conn)
		}
		pool, err := postgres.NewPool(ctx, conn)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, func() error { pool.Close(); return nil })

		if len(gc.Columns) == 0 {
			cols, err := postgres.Columns(ctx, pool, src.Postgres.Schema, src.Postgres.Table)
			if err != nil {
				return err
			}
			for _, c := range cols {
				gc.Columns = append(gc.Columns, c.Def(src.IDColumn))
			}
		}
		keys := make([]string, len(gc.Columns))
		for i, c := range gc.Columns {
			keys[i] = c.Key
		}
		gc.Mode = models.Remote
		gc.Fetcher = postgres.NewFetcher(pool, postgres.Table{
			Schema:   src.Postgres.Schema,
			Name:     src.Postgres.Table,
			IDColumn: src.IDColumn,
			Columns:  keys,
		}, s.logger)
		return nil

	case "http":
		f, err := httpsource.New(src.HTTP.URL,
			httpsource.WithTimeout(time.Duration(src.HTTP.TimeoutMs)*time.Millisecond),
			httpsource.WithIDField(src.IDColumn),
			httpsource.WithLogger(s.logger),
		)
		if err != nil {
			return err
		}
		gc.Mode = models.Remote
		gc.Fetcher = f
		return nil
	}
	return fmt.Errorf("unknown source kind %q", src.Kind)
}

// resolvePassword fills a missing password from the OS keyring. Keyring
// failures are logged and the connection is attempted without it.
func (s *session) resolvePassword(conn models.ConnectionConfig) models.ConnectionConfig {
	configDir, err := config.GetConfigPath()
	if err != nil {
		configDir = "."
	}
	store, err := credentials.Open(configDir)
	if err != nil {
		s.logger.Warn("keyring unavailable", zap.Error(err))
		return conn
	}
	if store.IsUsingFallback() {
		s.logger.Info("using file keyring fallback", zap.String("dir", configDir))
	}
	resolved, err := store.Resolve(conn)
	if err != nil {
		s.logger.Warn("failed to read password from keyring", zap.Error(err))
		return conn
	}
	return resolved
}
