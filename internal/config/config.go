// Package config provides configuration management for the analyst CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"stock-analyst/internal/analysis"
	"stock-analyst/internal/analysis/features"
	"stock-analyst/internal/analysis/levels"
	"stock-analyst/internal/analysis/predict"
	"stock-analyst/internal/analysis/scoring"
	"stock-analyst/internal/analysis/trend"
	"stock-analyst/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	Indicators IndicatorConfig `mapstructure:"indicators"`
	Levels     LevelConfig     `mapstructure:"levels"`
	Scoring    ScoringConfig   `mapstructure:"scoring"`
	Model      ModelConfig     `mapstructure:"model"`
	Analysis   AnalysisConfig  `mapstructure:"analysis"`
	Store      StoreConfig     `mapstructure:"store"`
	Logging    LoggingConfig   `mapstructure:"logging"`
	UI         UIConfig        `mapstructure:"ui"`
}

// IndicatorConfig holds the indicator periods shared by the trend detector
// and the feature builder.
type IndicatorConfig struct {
	SMAShort         int     `mapstructure:"sma_short"`
	SMALong          int     `mapstructure:"sma_long"`
	RSIPeriod        int     `mapstructure:"rsi_period"`
	MACDFast         int     `mapstructure:"macd_fast"`
	MACDSlow         int     `mapstructure:"macd_slow"`
	MACDSignal       int     `mapstructure:"macd_signal"`
	BollingerPeriod  int     `mapstructure:"bollinger_period"`
	BollingerStdDev  float64 `mapstructure:"bollinger_stddev"`
	ATRPeriod        int     `mapstructure:"atr_period"`
	VolumePeriod     int     `mapstructure:"volume_period"`
	VolatilityWindow int     `mapstructure:"volatility_window"`
}

// LevelConfig holds support/resistance detection configuration.
type LevelConfig struct {
	Window       int     `mapstructure:"window"`
	Tolerance    float64 `mapstructure:"tolerance"`
	MinStrength  float64 `mapstructure:"min_strength"`
	RecencyBonus float64 `mapstructure:"recency_bonus"`
}

// ScoringConfig holds recommendation scoring configuration.
type ScoringConfig struct {
	TrendWeight      float64 `mapstructure:"trend_weight"`
	LevelsWeight     float64 `mapstructure:"levels_weight"`
	PredictionWeight float64 `mapstructure:"prediction_weight"`
	BuyThreshold     float64 `mapstructure:"buy_threshold"`
	SellThreshold    float64 `mapstructure:"sell_threshold"`
	Proximity        float64 `mapstructure:"proximity"`
}

// ModelConfig holds training hyperparameters for the prediction model.
type ModelConfig struct {
	Trees           int     `mapstructure:"trees"`
	MaxDepth        int     `mapstructure:"max_depth"`
	MinLeafSamples  int     `mapstructure:"min_leaf_samples"`
	FeatureFraction float64 `mapstructure:"feature_fraction"`
	HoldoutFraction float64 `mapstructure:"holdout_fraction"`
	MinSamples      int     `mapstructure:"min_samples"`
	Horizon         int     `mapstructure:"horizon"`
	Seed            int64   `mapstructure:"seed"`
	Workers         int     `mapstructure:"workers"`
}

// AnalysisConfig holds analyzer-level configuration.
type AnalysisConfig struct {
	Workers          int `mapstructure:"workers"`
	ConfluenceFactor int `mapstructure:"confluence_factor"`
}

// StoreConfig holds data persistence configuration.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/stock-analyst"
	}
	return filepath.Join(home, ".config", "stock-analyst")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir string, target *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, create template
			return createTemplateConfig(configDir)
		}
		return err
	}

	return v.Unmarshal(target)
}

// setDefaults registers every key so a partial config file still yields a
// complete Config.
func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("indicators.sma_short", 20)
	v.SetDefault("indicators.sma_long", 50)
	v.SetDefault("indicators.rsi_period", 14)
	v.SetDefault("indicators.macd_fast", 12)
	v.SetDefault("indicators.macd_slow", 26)
	v.SetDefault("indicators.macd_signal", 9)
	v.SetDefault("indicators.bollinger_period", 20)
	v.SetDefault("indicators.bollinger_stddev", 2.0)
	v.SetDefault("indicators.atr_period", 14)
	v.SetDefault("indicators.volume_period", 20)
	v.SetDefault("indicators.volatility_window", 20)

	v.SetDefault("levels.window", 5)
	v.SetDefault("levels.tolerance", 0.01)
	v.SetDefault("levels.min_strength", 2.0)
	v.SetDefault("levels.recency_bonus", 0.5)

	v.SetDefault("scoring.trend_weight", 0.40)
	v.SetDefault("scoring.levels_weight", 0.25)
	v.SetDefault("scoring.prediction_weight", 0.35)
	v.SetDefault("scoring.buy_threshold", 0.20)
	v.SetDefault("scoring.sell_threshold", -0.20)
	v.SetDefault("scoring.proximity", 0.03)

	v.SetDefault("model.trees", 100)
	v.SetDefault("model.max_depth", 10)
	v.SetDefault("model.min_leaf_samples", 5)
	v.SetDefault("model.feature_fraction", 1.0/3.0)
	v.SetDefault("model.holdout_fraction", 0.2)
	v.SetDefault("model.min_samples", 50)
	v.SetDefault("model.horizon", 1)
	v.SetDefault("model.seed", 42)
	v.SetDefault("model.workers", 4)

	v.SetDefault("analysis.workers", 4)
	v.SetDefault("analysis.confluence_factor", 0)

	v.SetDefault("store.path", filepath.Join(configDir, "analyst.db"))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "analyst.log"))
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 7)
	v.SetDefault("logging.max_age", 30)

	v.SetDefault("ui.color_enabled", true)
	v.SetDefault("ui.date_format", "02-Jan-2006")
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STOCK_ANALYST_DB"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("STOCK_ANALYST_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("STOCK_ANALYST_LOG_FILE"); v != "" {
		cfg.Logging.FilePath = v
	}
}

// Validate validates the configuration. Engine parameters get their deep
// validation when the analyzer is built; this catches what the analyzer
// never sees.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn or error)", c.Logging.Level)
	}

	if c.Store.Path == "" {
		return fmt.Errorf("store.path must not be empty")
	}
	if c.Model.Trees <= 0 {
		return fmt.Errorf("model.trees must be positive")
	}
	if c.Scoring.BuyThreshold <= c.Scoring.SellThreshold {
		return fmt.Errorf("scoring.buy_threshold must be above scoring.sell_threshold")
	}

	return nil
}

// Engine maps the file configuration onto the analyzer configuration.
func (c *Config) Engine() analysis.Config {
	return analysis.Config{
		Trend: trend.Config{
			ShortPeriod: c.Indicators.SMAShort,
			LongPeriod:  c.Indicators.SMALong,
			RSIPeriod:   c.Indicators.RSIPeriod,
			MACDFast:    c.Indicators.MACDFast,
			MACDSlow:    c.Indicators.MACDSlow,
			MACDSignal:  c.Indicators.MACDSignal,
			ATRPeriod:   c.Indicators.ATRPeriod,
		},
		Levels: levels.Config{
			Window:       c.Levels.Window,
			Tolerance:    c.Levels.Tolerance,
			MinStrength:  c.Levels.MinStrength,
			RecencyBonus: c.Levels.RecencyBonus,
		},
		Features: features.Config{
			ShortPeriod:      c.Indicators.SMAShort,
			LongPeriod:       c.Indicators.SMALong,
			RSIPeriod:        c.Indicators.RSIPeriod,
			MACDFast:         c.Indicators.MACDFast,
			MACDSlow:         c.Indicators.MACDSlow,
			MACDSignal:       c.Indicators.MACDSignal,
			BollingerPeriod:  c.Indicators.BollingerPeriod,
			BollingerStdDev:  c.Indicators.BollingerStdDev,
			ATRPeriod:        c.Indicators.ATRPeriod,
			VolumePeriod:     c.Indicators.VolumePeriod,
			VolatilityWindow: c.Indicators.VolatilityWindow,
			Horizon:          c.Model.Horizon,
		},
		Predict: predict.Config{
			Trees:           c.Model.Trees,
			MaxDepth:        c.Model.MaxDepth,
			MinLeafSamples:  c.Model.MinLeafSamples,
			FeatureFraction: c.Model.FeatureFraction,
			HoldoutFraction: c.Model.HoldoutFraction,
			MinSamples:      c.Model.MinSamples,
			Horizon:         c.Model.Horizon,
			Seed:            c.Model.Seed,
			Workers:         c.Model.Workers,
		},
		Scoring: scoring.Config{
			Weights: scoring.Weights{
				Trend:      c.Scoring.TrendWeight,
				Levels:     c.Scoring.LevelsWeight,
				Prediction: c.Scoring.PredictionWeight,
			},
			BuyThreshold:  c.Scoring.BuyThreshold,
			SellThreshold: c.Scoring.SellThreshold,
			Proximity:     c.Scoring.Proximity,
		},
		Workers:          c.Analysis.Workers,
		ConfluenceFactor: c.Analysis.ConfluenceFactor,
	}
}

// LogConfig maps the file configuration onto the logging configuration.
func (c *Config) LogConfig() logging.LogConfig {
	return logging.LogConfig{
		Level:      c.Logging.Level,
		Console:    c.Logging.Console,
		File:       c.Logging.File,
		FilePath:   c.Logging.FilePath,
		MaxSize:    c.Logging.MaxSize,
		MaxBackups: c.Logging.MaxBackups,
		MaxAge:     c.Logging.MaxAge,
	}
}
