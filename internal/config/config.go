package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/text/language"

	"github.com/rebeliceyang/lazygrid/internal/logger"
	"github.com/rebeliceyang/lazygrid/internal/models"
)

// Config holds all application configuration
type Config struct {
	Grid    GridConfig     `mapstructure:"grid"`
	UI      UIConfig       `mapstructure:"ui"`
	Source  SourceConfig   `mapstructure:"source"`
	Storage StorageConfig  `mapstructure:"storage"`
	Log     LogConfig      `mapstructure:"log"`
	Columns []ColumnConfig `mapstructure:"columns"`
}

type GridConfig struct {
	ID               string `mapstructure:"id"`
	PageSize         int    `mapstructure:"page_size"`
	Strategy         string `mapstructure:"strategy"`
	SearchDebounceMs int    `mapstructure:"search_debounce_ms"`
	FilterDebounceMs int    `mapstructure:"filter_debounce_ms"`
	Locale           string `mapstructure:"locale"`
}

type UIConfig struct {
	Theme        string `mapstructure:"theme"`
	MouseEnabled bool   `mapstructure:"mouse_enabled"`
	ConfirmClear bool   `mapstructure:"confirm_clear"`
}

type SourceConfig struct {
	Kind     string         `mapstructure:"kind"`
	IDColumn string         `mapstructure:"id_column"`
	CSV      CSVConfig      `mapstructure:"csv"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	HTTP     HTTPConfig     `mapstructure:"http"`
}

type CSVConfig struct {
	Path string `mapstructure:"path"`
}

type PostgresConfig struct {
	models.ConnectionConfig `mapstructure:",squash"`
	Schema                  string `mapstructure:"schema"`
	Table                   string `mapstructure:"table"`
	UseKeyring              bool   `mapstructure:"use_keyring"`
}

type HTTPConfig struct {
	URL       string `mapstructure:"url"`
	TimeoutMs int    `mapstructure:"timeout_ms"`
}

type StorageConfig struct {
	Kind string `mapstructure:"kind"`
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
	File     string `mapstructure:"file"`
}

// ColumnConfig declares a grid column. Columns not declared are discovered
// from the source.
type ColumnConfig struct {
	Key           string  `mapstructure:"key"`
	Title         string  `mapstructure:"title"`
	Width         float64 `mapstructure:"width"`
	MinWidth      float64 `mapstructure:"min_width"`
	Sortable      *bool   `mapstructure:"sortable"`
	Filterable    *bool   `mapstructure:"filterable"`
	Resizable     *bool   `mapstructure:"resizable"`
	Editable      bool    `mapstructure:"editable"`
	AlwaysVisible bool    `mapstructure:"always_visible"`
	Pinned        string  `mapstructure:"pinned"`
}

// Def converts the declaration to a column definition. Sorting, filtering
// and resizing default to enabled.
func (c ColumnConfig) Def() models.ColumnDef {
	title := c.Title
	if title == "" {
		title = c.Key
	}
	return models.ColumnDef{
		Key:           c.Key,
		Title:         title,
		Width:         c.Width,
		MinWidth:      c.MinWidth,
		Sortable:      c.Sortable == nil || *c.Sortable,
		Filterable:    c.Filterable == nil || *c.Filterable,
		Resizable:     c.Resizable == nil || *c.Resizable,
		Editable:      c.Editable,
		AlwaysVisible: c.AlwaysVisible,
		Pinned:        models.ParsePinSide(c.Pinned),
	}
}

// ColumnDefs returns the declared columns
func (c *Config) ColumnDefs() []models.ColumnDef {
	defs := make([]models.ColumnDef, len(c.Columns))
	for i, col := range c.Columns {
		defs[i] = col.Def()
	}
	return defs
}

// GridStrategy returns the configured render strategy
func (c *Config) GridStrategy() models.Strategy {
	s, _ := models.ParseStrategy(c.Grid.Strategy)
	return s
}

// GridLocale returns the configured collation locale
func (c *Config) GridLocale() language.Tag {
	tag, err := language.Parse(c.Grid.Locale)
	if err != nil {
		return language.English
	}
	return tag
}

// SearchDebounce is the quiet period before search input applies
func (c *Config) SearchDebounce() time.Duration {
	return time.Duration(c.Grid.SearchDebounceMs) * time.Millisecond
}

// FilterDebounce is the quiet period before filter input applies
func (c *Config) FilterDebounce() time.Duration {
	return time.Duration(c.Grid.FilterDebounceMs) * time.Millisecond
}

// Logger returns the logger configuration
func (c *Config) Logger() logger.Config {
	cfg := logger.Config{Level: c.Log.Level, Encoding: c.Log.Encoding}
	if c.Log.File != "" {
		cfg.OutputPaths = []string{c.Log.File}
	}
	return cfg
}

// Validate checks values that cannot be defaulted. Call it once command
// line overrides have been applied.
func (c *Config) Validate() error {
	var errs []error
	if _, ok := models.ParseStrategy(c.Grid.Strategy); !ok {
		errs = append(errs, fmt.Errorf("grid.strategy: unknown strategy %q", c.Grid.Strategy))
	}
	if c.Grid.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("grid.page_size must be positive, got %d", c.Grid.PageSize))
	}
	switch c.Source.Kind {
	case "csv":
		if c.Source.CSV.Path == "" {
			errs = append(errs, errors.New("source.csv.path is required"))
		}
	case "postgres":
		if c.Source.Postgres.Table == "" {
			errs = append(errs, errors.New("source.postgres.table is required"))
		}
	case "http":
		if c.Source.HTTP.URL == "" {
			errs = append(errs, errors.New("source.http.url is required"))
		}
		if len(c.Columns) == 0 {
			errs = append(errs, errors.New("source.http requires declared columns"))
		}
	default:
		errs = append(errs, fmt.Errorf("source.kind: unknown kind %q", c.Source.Kind))
	}
	switch c.Storage.Kind {
	case "file", "sqlite", "memory":
	default:
		errs = append(errs, fmt.Errorf("storage.kind: unknown kind %q", c.Storage.Kind))
	}
	for i, col := range c.Columns {
		if col.Key == "" {
			errs = append(errs, fmt.Errorf("columns[%d].key is required", i))
		}
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper, dataDir string) {
	v.SetDefault("grid.id", "default")
	v.SetDefault("grid.page_size", 100)
	v.SetDefault("grid.strategy", "virtualized")
	v.SetDefault("grid.search_debounce_ms", 300)
	v.SetDefault("grid.filter_debounce_ms", 300)
	v.SetDefault("grid.locale", "en")
	v.SetDefault("ui.theme", "default")
	v.SetDefault("ui.mouse_enabled", true)
	v.SetDefault("ui.confirm_clear", true)
	v.SetDefault("source.kind", "csv")
	v.SetDefault("source.id_column", "id")
	v.SetDefault("source.postgres.host", "localhost")
	v.SetDefault("source.postgres.port", 5432)
	v.SetDefault("source.postgres.schema", "public")
	v.SetDefault("source.postgres.ssl_mode", "prefer")
	v.SetDefault("source.postgres.use_keyring", true)
	v.SetDefault("source.http.timeout_ms", 30000)
	v.SetDefault("storage.kind", "file")
	v.SetDefault("storage.path", filepath.Join(dataDir, "state"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("log.file", filepath.Join(dataDir, "lazygrid.log"))
}

// Load loads configuration. An explicit path must exist; otherwise the
// user config directory, "." and "./config" are searched and a missing file
// leaves the defaults in place. LAZYGRID_* environment variables override
// file values, e.g. LAZYGRID_SOURCE_POSTGRES_PASSWORD.
func Load(path string) (*Config, error) {
	v := viper.New()

	configDir, err := GetConfigPath()
	if err != nil {
		configDir = "."
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("lazygrid")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only applies to keys viper already knows about
	_ = v.BindEnv("source.postgres.password", "LAZYGRID_SOURCE_POSTGRES_PASSWORD")

	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// GetConfigPath returns the user config directory path
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "lazygrid"), nil
}
