// Package cli implements the stock-analyst command-line interface.
package cli

import (
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"stock-analyst/internal/analysis"
	"stock-analyst/internal/config"
	"stock-analyst/internal/logging"
	"stock-analyst/internal/store"
)

// Version information
const (
	Version   = "0.3.0"
	BuildDate = "2025-01-15"
)

// App holds the application dependencies.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Store    store.DataStore
	Analyzer *analysis.Analyzer
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize SQLite store
	dataStore, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, data commands will be unavailable")
	} else {
		app.Store = dataStore
		logger.Debug().Str("path", cfg.Store.Path).Msg("SQLite store initialized")
	}

	// Initialize the analysis engine
	analyzer, err := analysis.New(cfg.Engine())
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize analyzer, analysis commands will be unavailable")
	} else {
		app.Analyzer = analyzer.WithLogger(logging.Component(logger, "analysis"))
		logger.Debug().Msg("Analysis engine initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "stock-analyst",
		Short: "Offline stock analysis and prediction CLI",
		Long: `stock-analyst is an offline market analytics CLI.

It imports OHLCV bars from CSV files into a local SQLite database, computes
technical indicators, detects support and resistance levels, classifies the
trend, and trains a random forest on engineered features to estimate the
next-bar return. All signals are aggregated into a BUY, HOLD or SELL
recommendation.

Use 'stock-analyst help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Handle debug flag
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			if !app.Config.UI.ColorEnabled {
				color.NoColor = true
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/stock-analyst)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	// Add all command groups
	addCoreCommands(rootCmd, app)
	addDataCommands(rootCmd, app)
	addAnalysisCommands(rootCmd, app)
	addHelpCommands(rootCmd, app)

	return rootCmd
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

// addDataCommands adds bar data management commands.
func addDataCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newDataCmd(app))
}

// addAnalysisCommands adds analysis, training and prediction commands.
func addAnalysisCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newLevelsCmd(app))
	rootCmd.AddCommand(newTrainCmd(app))
	rootCmd.AddCommand(newPredictCmd(app))
	rootCmd.AddCommand(newModelsCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("stock-analyst v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			return showConfig(output, app.Config)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if _, err := analysis.New(app.Config.Engine()); err != nil {
				output.Error("Engine configuration rejected: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("✓ Configuration is valid")
			}
			return nil
		},
	})

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a commented template configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			dir, _ := cmd.Flags().GetString("config")
			force, _ := cmd.Flags().GetBool("force")

			path, err := config.Init(dir, force)
			if err != nil {
				output.Error("Failed to write config template: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": path})
			}
			output.Success("✓ Config template written to %s", path)
			output.Println("Edit this file to change settings.")
			return nil
		},
	}
	initCmd.Flags().Bool("force", false, "overwrite an existing config file")
	cmd.AddCommand(initCmd)

	return cmd
}

func showConfig(output *Output, cfg *config.Config) error {
	output.Bold("Indicators")
	output.Printf("  SMA:             %d / %d\n", cfg.Indicators.SMAShort, cfg.Indicators.SMALong)
	output.Printf("  RSI:             %d\n", cfg.Indicators.RSIPeriod)
	output.Printf("  MACD:            %d / %d / %d\n", cfg.Indicators.MACDFast, cfg.Indicators.MACDSlow, cfg.Indicators.MACDSignal)
	output.Printf("  Bollinger:       %d / %.1f\n", cfg.Indicators.BollingerPeriod, cfg.Indicators.BollingerStdDev)
	output.Printf("  ATR:             %d\n", cfg.Indicators.ATRPeriod)
	output.Printf("  Volume SMA:      %d\n", cfg.Indicators.VolumePeriod)
	output.Println()

	output.Bold("Levels")
	output.Printf("  Window:          %d\n", cfg.Levels.Window)
	output.Printf("  Tolerance:       %.2f%%\n", cfg.Levels.Tolerance*100)
	output.Printf("  Min Strength:    %.1f\n", cfg.Levels.MinStrength)
	output.Println()

	output.Bold("Scoring")
	output.Printf("  Weights:         trend %.2f / levels %.2f / prediction %.2f\n",
		cfg.Scoring.TrendWeight, cfg.Scoring.LevelsWeight, cfg.Scoring.PredictionWeight)
	output.Printf("  Thresholds:      buy > %.2f, sell < %.2f\n", cfg.Scoring.BuyThreshold, cfg.Scoring.SellThreshold)
	output.Printf("  Proximity:       %.1f%%\n", cfg.Scoring.Proximity*100)
	output.Println()

	output.Bold("Model")
	output.Printf("  Trees:           %d\n", cfg.Model.Trees)
	output.Printf("  Max Depth:       %d\n", cfg.Model.MaxDepth)
	output.Printf("  Min Leaf:        %d\n", cfg.Model.MinLeafSamples)
	output.Printf("  Holdout:         %.0f%%\n", cfg.Model.HoldoutFraction*100)
	output.Printf("  Horizon:         %d bar(s)\n", cfg.Model.Horizon)
	output.Printf("  Workers:         %d\n", cfg.Model.Workers)
	output.Println()

	output.Bold("Store")
	output.Printf("  Path:            %s\n", cfg.Store.Path)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:           %s\n", cfg.Logging.Level)
	output.Printf("  Console:         %v\n", cfg.Logging.Console)
	output.Printf("  File:            %v (%s)\n", cfg.Logging.File, cfg.Logging.FilePath)

	return nil
}
