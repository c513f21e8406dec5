package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	require.True(t, cfg.AutoRefresh)
	require.True(t, cfg.Grid.Enabled)
	require.Equal(t, 10, cfg.Grid.Buffer)
	require.Zero(t, cfg.Grid.RowHeight, "row height defaults to auto-detect")
	require.Equal(t, "id", cfg.Data.IdentityField)
	require.Zero(t, cfg.Data.PageSize)
	require.NotEmpty(t, cfg.GetColumns())
	require.NoError(t, cfg.Validate())
}

func TestValidateGrid(t *testing.T) {
	tests := []struct {
		name    string
		grid    GridConfig
		wantErr bool
	}{
		{"defaults are valid", Defaults().Grid, false},
		{"negative buffer", GridConfig{Buffer: -1}, true},
		{"negative row height", GridConfig{RowHeight: -1}, true},
		{"negative threshold", GridConfig{FastScrollThreshold: -0.1}, true},
		{"negative throttle", GridConfig{ThrottleIntervalMS: -5}, true},
		{"zero values are valid", GridConfig{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGrid(tt.grid)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateColumns(t *testing.T) {
	require.NoError(t, ValidateColumns(nil), "empty columns use defaults")
	require.NoError(t, ValidateColumns(DefaultColumns()))

	require.Error(t, ValidateColumns([]ColumnConfig{{Header: "No Key"}}))
	require.Error(t, ValidateColumns([]ColumnConfig{{Key: "a", Align: "center"}}))
	require.Error(t, ValidateColumns([]ColumnConfig{{Key: "a", Width: -1}}))
	require.NoError(t, ValidateColumns([]ColumnConfig{{Key: "a", Align: "right", Width: 5}}))
}

func TestValidateTracing(t *testing.T) {
	require.NoError(t, ValidateTracing(TracingConfig{SampleRate: 1.0}))
	require.Error(t, ValidateTracing(TracingConfig{SampleRate: 1.5}))
	require.Error(t, ValidateTracing(TracingConfig{SampleRate: -0.1}))
	require.Error(t, ValidateTracing(TracingConfig{Exporter: "file"}))
	require.NoError(t, ValidateTracing(TracingConfig{Exporter: "otlp", OTLPEndpoint: "localhost:4317"}))
	require.Error(t, ValidateTracing(TracingConfig{Enabled: true, Exporter: "otlp"}))
}

func TestGridThrottleInterval(t *testing.T) {
	require.Equal(t, 8*time.Millisecond, GridConfig{ThrottleIntervalMS: 8}.ThrottleInterval())
	require.Zero(t, GridConfig{}.ThrottleInterval())
}

func TestFlattenedColors(t *testing.T) {
	t.Run("nested structure", func(t *testing.T) {
		theme := ThemeConfig{Colors: map[string]any{
			"text": map[string]any{"primary": "#FF0000"},
		}}
		require.Equal(t, map[string]string{"text.primary": "#FF0000"}, theme.FlattenedColors())
	})

	t.Run("already-flat dot keys", func(t *testing.T) {
		theme := ThemeConfig{Colors: map[string]any{"row.selected": "#54A0FF"}}
		require.Equal(t, map[string]string{"row.selected": "#54A0FF"}, theme.FlattenedColors())
	})

	t.Run("map any keys from yaml", func(t *testing.T) {
		theme := ThemeConfig{Colors: map[string]any{
			"text": map[any]any{"muted": "#888888"},
		}}
		require.Equal(t, map[string]string{"text.muted": "#888888"}, theme.FlattenedColors())
	})

	t.Run("nil colors", func(t *testing.T) {
		require.Empty(t, ThemeConfig{}.FlattenedColors())
	})
}

func TestDefaultConfigTemplate(t *testing.T) {
	// The shipped template must parse and match the defaults where set.
	var raw struct {
		AutoRefresh bool `yaml:"auto_refresh"`
		Grid        struct {
			Enabled bool `yaml:"enabled"`
			Buffer  int  `yaml:"buffer"`
		} `yaml:"grid"`
		Data struct {
			IdentityField string `yaml:"identity_field"`
		} `yaml:"data"`
		Columns []struct {
			Key string `yaml:"key"`
		} `yaml:"columns"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(DefaultConfigTemplate()), &raw))

	defaults := Defaults()
	require.Equal(t, defaults.AutoRefresh, raw.AutoRefresh)
	require.Equal(t, defaults.Grid.Enabled, raw.Grid.Enabled)
	require.Equal(t, defaults.Grid.Buffer, raw.Grid.Buffer)
	require.Equal(t, defaults.Data.IdentityField, raw.Data.IdentityField)
	require.Len(t, raw.Columns, len(defaults.Columns))
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "grid:")
	require.Contains(t, string(data), "buffer: 10")
}
