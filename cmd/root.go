package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/gridley/internal/app"
	"github.com/zjrosen/gridley/internal/config"
	"github.com/zjrosen/gridley/internal/data/sqlite"
	"github.com/zjrosen/gridley/internal/log"
	"github.com/zjrosen/gridley/internal/tracing"
	"github.com/zjrosen/gridley/internal/ui/styles"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version = "dev"
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:     "gridley",
	Short:   "A terminal data grid with virtualized rendering",
	Long:    `A terminal user interface for browsing large record sets with virtualized rendering, sorting, filtering, and async media loading.`,
	Version: version,
	RunE:    runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/gridley/config.yaml)")
	rootCmd.Flags().String("db", "",
		"path to the sqlite database file")
	rootCmd.Flags().Bool("debug", false,
		"enable debug logging and the in-app log overlay (ctrl+l)")
	rootCmd.Flags().Bool("no-watch", false,
		"disable automatic reload when the database changes")
	rootCmd.Flags().Int("seed", 0,
		"insert N synthetic records before starting")

	_ = viper.BindPFlag("data.db_path", rootCmd.Flags().Lookup("db"))
	_ = viper.BindPFlag("data.seed", rootCmd.Flags().Lookup("seed"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("auto_refresh", defaults.AutoRefresh)
	viper.SetDefault("ui.show_status_bar", defaults.UI.ShowStatusBar)
	viper.SetDefault("ui.show_perf_stats", defaults.UI.ShowPerfStats)
	viper.SetDefault("ui.markdown_style", defaults.UI.MarkdownStyle)
	viper.SetDefault("ui.mouse", defaults.UI.Mouse)
	viper.SetDefault("grid.enabled", defaults.Grid.Enabled)
	viper.SetDefault("grid.buffer", defaults.Grid.Buffer)
	viper.SetDefault("grid.row_height", defaults.Grid.RowHeight)
	viper.SetDefault("grid.fast_scroll_threshold", defaults.Grid.FastScrollThreshold)
	viper.SetDefault("grid.throttle_interval_ms", defaults.Grid.ThrottleIntervalMS)
	viper.SetDefault("data.db_path", defaults.Data.DBPath)
	viper.SetDefault("data.identity_field", defaults.Data.IdentityField)
	viper.SetDefault("data.page_size", defaults.Data.PageSize)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .gridley/config.yaml (current directory)
		// 2. ~/.config/gridley/config.yaml (user config)
		if _, err := os.Stat(".gridley/config.yaml"); err == nil {
			viper.SetConfigFile(".gridley/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "gridley"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			home, homeErr := os.UserHomeDir()
			if homeErr == nil {
				defaultPath := filepath.Join(home, ".config", "gridley", "config.yaml")
				if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
					viper.SetConfigFile(defaultPath)
					_ = viper.ReadInConfig()
				}
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

func runApp(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	debug, _ := cmd.Flags().GetBool("debug")
	if os.Getenv("GRIDLEY_DEBUG") != "" {
		debug = true
	}
	noWatch, _ := cmd.Flags().GetBool("no-watch")

	logPath := filepath.Join(filepath.Dir(cfg.Data.DBPath), "gridley.log")
	var closeLog func()
	var err error
	if debug {
		closeLog, err = log.InitWithTeaLog(logPath, "gridley")
	} else {
		closeLog, err = log.Init(logPath)
	}
	if err != nil {
		return fmt.Errorf("initializing log: %w", err)
	}
	defer closeLog()
	if !debug {
		log.SetMinLevel(log.LevelInfo)
	}

	if err := styles.ApplyTheme(styles.ThemeConfig{
		Mode:   cfg.Theme.Mode,
		Colors: cfg.Theme.FlattenedColors(),
	}); err != nil {
		return fmt.Errorf("applying theme: %w", err)
	}

	provider, err := tracing.NewProvider(tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		Exporter:     cfg.Tracing.Exporter,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	if provider.Enabled() {
		log.Info(log.CatTrace, "tracing enabled",
			"exporter", cfg.Tracing.Exporter, "sample_rate", cfg.Tracing.SampleRate)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = provider.Shutdown(ctx)
	}()

	db, err := sqlite.NewDB(cfg.Data.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if cfg.Data.Seed > 0 {
		if err := db.Records().Seed(cfg.Data.Seed); err != nil {
			return fmt.Errorf("seeding records: %w", err)
		}
	}

	model, err := app.New(cfg, db, app.Options{
		ConfigPath: viper.ConfigFileUsed(),
		Debug:      debug,
		NoWatch:    noWatch,
		Tracer:     provider.Tracer(),
	})
	if err != nil {
		return fmt.Errorf("building application: %w", err)
	}
	defer model.Close()

	progOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.UI.Mouse {
		progOpts = append(progOpts, tea.WithMouseCellMotion())
	}

	if _, err := tea.NewProgram(model, progOpts...).Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
