package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Stock Analyst Configuration

[indicators]
# Short and long simple moving average periods
sma_short = 20
sma_long = 50
# RSI lookback period
rsi_period = 14
# MACD fast/slow/signal EMA periods
macd_fast = 12
macd_slow = 26
macd_signal = 9
# Bollinger band period and standard deviation multiplier
bollinger_period = 20
bollinger_stddev = 2.0
# ATR lookback period
atr_period = 14
# Volume moving average period
volume_period = 20
# Rolling volatility window for features
volatility_window = 20

[levels]
# Bars on each side a swing extremum must beat
window = 5
# Cluster tolerance as a fraction of price (0.01 = 1%)
tolerance = 0.01
# Minimum cluster strength to keep a level
min_strength = 2.0
# Extra weight the most recent touch earns over the oldest
recency_bonus = 0.5

[scoring]
# Signal weights
trend_weight = 0.40
levels_weight = 0.25
prediction_weight = 0.35
# Verdict thresholds on the normalized score in [-1, 1]
buy_threshold = 0.20
sell_threshold = -0.20
# Relative distance within which a level contributes (0.03 = 3%)
proximity = 0.03

[model]
# Number of trees in the ensemble
trees = 100
# Maximum tree depth
max_depth = 10
# Minimum samples per leaf
min_leaf_samples = 5
# Fraction of features considered per split
feature_fraction = 0.3333
# Fraction of samples held out for validation
holdout_fraction = 0.2
# Minimum labeled samples required to train
min_samples = 50
# Bars ahead the training label looks
horizon = 1
# Random seed for reproducible training
seed = 42
# Training worker goroutines
workers = 4

[analysis]
# Indicator engine worker goroutines
workers = 4
# Higher-timeframe confluence resample factor (0 disables)
confluence_factor = 0

[store]
# SQLite database path (defaults to the config directory)
# path = "~/.config/stock-analyst/analyst.db"

[logging]
# Log level: debug, info, warn, error
level = "info"
# Log to console
console = true
# Log to rotating file
file = true
# Maximum log file size in MB before rotation
max_size = 100
# Number of rotated files to keep
max_backups = 7
# Days to keep rotated files
max_age = 30

[ui]
# Enable colored output
color_enabled = true
# Date format
date_format = "02-Jan-2006"
`

func createTemplateConfig(configDir string) error {
	path, err := writeTemplate(configDir)
	if err != nil {
		return err
	}
	return fmt.Errorf("config file not found, created template at %s", path)
}

// Init writes the commented template to configDir. Unless force is set, an
// existing config file is left untouched.
func Init(configDir string, force bool) (string, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	path := filepath.Join(configDir, "config.toml")
	if !force {
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("config file already exists at %s", path)
		}
	}

	return writeTemplate(configDir)
}

func writeTemplate(configDir string) (string, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return "", fmt.Errorf("writing config template: %w", err)
	}

	return path, nil
}
