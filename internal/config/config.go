// Package config provides configuration types and defaults for gridley.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/gridley/internal/log"
)

// Config holds all configuration options for gridley.
type Config struct {
	AutoRefresh bool          `mapstructure:"auto_refresh"`
	UI          UIConfig      `mapstructure:"ui"`
	Theme       ThemeConfig   `mapstructure:"theme"`
	Grid        GridConfig    `mapstructure:"grid"`
	Data        DataConfig    `mapstructure:"data"`
	Columns     []ColumnConfig `mapstructure:"columns"`
	Tracing     TracingConfig `mapstructure:"tracing"`
}

// GridConfig holds the virtualization settings.
type GridConfig struct {
	// Enabled turns virtualization on. Off renders every row; only sensible
	// for small datasets.
	Enabled bool `mapstructure:"enabled"`

	// Buffer is the number of rows materialized beyond the visible range on
	// each side.
	Buffer int `mapstructure:"buffer"`

	// RowHeight pins the height of one row in terminal lines. 0 = measure
	// the first rendered row.
	RowHeight float64 `mapstructure:"row_height"`

	// FastScrollThreshold is the velocity (rows per millisecond) above which
	// updates bypass the throttle. 0 = default.
	FastScrollThreshold float64 `mapstructure:"fast_scroll_threshold"`

	// ThrottleIntervalMS spaces steady-state viewport updates. 0 = default.
	ThrottleIntervalMS int `mapstructure:"throttle_interval_ms"`
}

// ThrottleInterval returns the throttle interval as a duration.
func (g GridConfig) ThrottleInterval() time.Duration {
	return time.Duration(g.ThrottleIntervalMS) * time.Millisecond
}

// DataConfig holds the dataset source settings.
type DataConfig struct {
	// DBPath is the SQLite database file. Default: ~/.config/gridley/grid.db
	DBPath string `mapstructure:"db_path"`

	// IdentityField is the cell key carrying row identity. Default: "id".
	IdentityField string `mapstructure:"identity_field"`

	// PageSize paginates the derived collection. 0 = pagination off.
	PageSize int `mapstructure:"page_size"`

	// Seed inserts N synthetic records into an empty database on startup.
	Seed int `mapstructure:"seed"`
}

// ColumnConfig defines a single grid column.
type ColumnConfig struct {
	Key    string `mapstructure:"key"`    // cell key (required)
	Header string `mapstructure:"header"` // header label, defaults to key
	Width  int    `mapstructure:"width"`  // fixed width, 0 = flex
	Align  string `mapstructure:"align"`  // "left" (default) or "right"

	// HideBelow hides the column when the terminal is narrower than this.
	HideBelow int `mapstructure:"hide_below"`
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	ShowStatusBar bool   `mapstructure:"show_status_bar"`
	ShowPerfStats bool   `mapstructure:"show_perf_stats"` // render timing in the status bar
	MarkdownStyle string `mapstructure:"markdown_style"`  // "dark" (default) or "light"
	Mouse         bool   `mapstructure:"mouse"`           // wheel scroll + click selection
}

// ThemeConfig holds theme customization options.
type ThemeConfig struct {
	// Mode forces light or dark mode. If empty, uses terminal detection.
	// Valid values: "light", "dark", ""
	Mode string `mapstructure:"mode"`

	// Colors allows overriding individual color tokens, nested or in quoted
	// dot notation.
	Colors map[string]any `mapstructure:"colors"`
}

// FlattenedColors returns the Colors map flattened to dot-notation keys.
func (t ThemeConfig) FlattenedColors() map[string]string {
	result := make(map[string]string)
	flattenColors("", t.Colors, result)
	return result
}

func flattenColors(prefix string, m map[string]any, result map[string]string) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch val := v.(type) {
		case string:
			result[key] = val
		case map[string]any:
			flattenColors(key, val, result)
		case map[any]any:
			// YAML sometimes produces map[any]any instead of map[string]any
			converted := make(map[string]any)
			for mk, mv := range val {
				if strKey, ok := mk.(string); ok {
					converted[strKey] = mv
				}
			}
			flattenColors(key, converted, result)
		}
	}
}

// TracingConfig holds render-pass tracing configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active. Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the trace export backend.
	// Options: "none", "stdout", "otlp". Default: "stdout"
	Exporter string `mapstructure:"exporter"`

	// OTLPEndpoint is the collector endpoint for the "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0). Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`
}

// DefaultDBPath returns ~/.config/gridley/grid.db, or "" if the home
// directory is unavailable.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "gridley", "grid.db")
}

// DefaultColumns returns the column set matching the records schema.
func DefaultColumns() []ColumnConfig {
	return []ColumnConfig{
		{Key: "name", Header: "Name"},
		{Key: "category", Header: "Category", Width: 10},
		{Key: "status", Header: "Status", Width: 9, HideBelow: 60},
		{Key: "amount", Header: "Amount", Width: 10, Align: "right"},
		{Key: "created", Header: "Created", Width: 10, HideBelow: 80},
	}
}

// GetColumns returns the configured columns, or defaults if none configured.
func (c Config) GetColumns() []ColumnConfig {
	if len(c.Columns) > 0 {
		return c.Columns
	}
	return DefaultColumns()
}

// ValidateGrid checks virtualization configuration for errors.
func ValidateGrid(g GridConfig) error {
	if g.Buffer < 0 {
		return fmt.Errorf("grid.buffer must not be negative, got %d", g.Buffer)
	}
	if g.RowHeight < 0 {
		return fmt.Errorf("grid.row_height must not be negative, got %v", g.RowHeight)
	}
	if g.FastScrollThreshold < 0 {
		return fmt.Errorf("grid.fast_scroll_threshold must not be negative, got %v", g.FastScrollThreshold)
	}
	if g.ThrottleIntervalMS < 0 {
		return fmt.Errorf("grid.throttle_interval_ms must not be negative, got %d", g.ThrottleIntervalMS)
	}
	return nil
}

// ValidateColumns checks column configuration for errors.
// Returns nil if columns are valid or empty (will use defaults).
func ValidateColumns(cols []ColumnConfig) error {
	if len(cols) == 0 {
		return nil // Will use defaults
	}

	for i, col := range cols {
		if col.Key == "" {
			return fmt.Errorf("column %d: key is required", i)
		}
		switch col.Align {
		case "", "left", "right":
		default:
			return fmt.Errorf("column %d (%s): invalid align %q (must be \"left\" or \"right\")", i, col.Key, col.Align)
		}
		if col.Width < 0 {
			return fmt.Errorf("column %d (%s): width must not be negative", i, col.Key)
		}
	}
	return nil
}

// ValidateData checks dataset configuration for errors.
func ValidateData(d DataConfig) error {
	if d.PageSize < 0 {
		return fmt.Errorf("data.page_size must not be negative, got %d", d.PageSize)
	}
	if d.Seed < 0 {
		return fmt.Errorf("data.seed must not be negative, got %d", d.Seed)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tracing TracingConfig) error {
	if tracing.SampleRate < 0.0 || tracing.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tracing.SampleRate)
	}

	if tracing.Exporter != "" {
		switch tracing.Exporter {
		case "none", "stdout", "otlp":
			// Valid
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"stdout\", or \"otlp\", got %q", tracing.Exporter)
		}
	}

	if tracing.Enabled && tracing.Exporter == "otlp" && tracing.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}

	return nil
}

// Validate checks the whole configuration.
func (c Config) Validate() error {
	if err := ValidateGrid(c.Grid); err != nil {
		return err
	}
	if err := ValidateColumns(c.Columns); err != nil {
		return err
	}
	if err := ValidateData(c.Data); err != nil {
		return err
	}
	return ValidateTracing(c.Tracing)
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		AutoRefresh: true,
		UI: UIConfig{
			ShowStatusBar: true,
			ShowPerfStats: false,
			MarkdownStyle: "dark",
			Mouse:         true,
		},
		Grid: GridConfig{
			Enabled:             true,
			Buffer:              10,
			RowHeight:           0, // auto-detect
			FastScrollThreshold: 0, // engine default
			ThrottleIntervalMS:  0, // engine default
		},
		Data: DataConfig{
			DBPath:        DefaultDBPath(),
			IdentityField: "id",
			PageSize:      0,
			Seed:          0,
		},
		Columns: DefaultColumns(),
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "stdout",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
	}
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Gridley Configuration

# Reload automatically when the database file changes
auto_refresh: true

# UI settings
ui:
  show_status_bar: true   # Status bar at the bottom
  show_perf_stats: false  # Render timing in the status bar
  # markdown_style: dark  # Preview rendering style: "dark" (default) or "light"
  mouse: true             # Wheel scroll and click selection

# Theme configuration
# theme:
#   mode: dark            # Force "light" or "dark"; empty = terminal detection
#   colors:
#     text.primary: "#FFFFFF"
#     row.selected: "#54A0FF"

# Virtualization settings
grid:
  enabled: true
  buffer: 10                  # Rows materialized beyond the visible range
  # row_height: 1             # Lines per row; 0 = measure the first row
  # fast_scroll_threshold: 0.5  # Rows/ms above which updates run immediately
  # throttle_interval_ms: 8   # Spacing of steady-state viewport updates

# Dataset source
data:
  # db_path: ~/.config/gridley/grid.db
  identity_field: id      # Cell key carrying row identity
  page_size: 0            # 0 disables pagination
  # seed: 100000          # Fill an empty database with synthetic records

# Grid columns
columns:
  - key: name
    header: Name
  - key: category
    header: Category
    width: 10
  - key: status
    header: Status
    width: 9
    hide_below: 60        # Hide when the terminal is narrower than this
  - key: amount
    header: Amount
    width: 10
    align: right
  - key: created
    header: Created
    width: 10
    hide_below: 80

# Render-pass tracing
# tracing:
#   enabled: false
#   exporter: stdout      # none, stdout, or otlp
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
