// Package cli implements the stock-analyst command-line interface.
package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stock-analyst/internal/analysis/predict"
	"stock-analyst/internal/logging"
)

func newTrainCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train <symbol>",
		Short: "Train a prediction model from cached bars",
		Long: `Build a labeled feature dataset from cached bars and fit a random
forest regressor on it. The dataset is split chronologically into training
and validation slices; validation rows never influence the fit.

The trained model is stored under a content-addressed version string.
Retraining stores a new version; older versions stay retrievable.`,
		Example: `  stock-analyst train AAPL
  stock-analyst train MSFT --interval 60minute --days 180`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			intervalName, _ := cmd.Flags().GetString("interval")
			days, _ := cmd.Flags().GetInt("days")

			series, err := loadSeries(ctx, app, output, symbol, intervalName, days)
			if err != nil {
				return err
			}
			if app.Analyzer == nil {
				output.Error("Analyzer not available. Run 'stock-analyst config validate'.")
				return fmt.Errorf("analyzer not available")
			}

			output.Info("Training on %d bars of %s %s...", series.Len(), symbol, series.Interval)

			started := time.Now()
			model, err := app.Analyzer.Train(ctx, series)
			if err != nil {
				output.Error("Training failed: %v", err)
				return err
			}
			elapsed := time.Since(started)

			if err := app.Store.SaveModel(ctx, symbol, series.Interval, model); err != nil {
				output.Error("Failed to store model: %v", err)
				return err
			}

			metrics := model.Metrics()
			logging.LogTraining(app.Logger, symbol, model.Version(),
				metrics.TrainSamples+metrics.ValidationSamples, metrics.ValidationMAE)

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"version":  model.Version(),
					"symbol":   symbol,
					"interval": series.Interval,
					"metrics":  metrics,
					"duration": elapsed.String(),
				})
			}

			color.Green("✓ Model %s trained and stored", model.Version())
			output.Println()
			return displayMetrics(output, app.Analyzer.Schema().Names(), metrics, elapsed)
		},
	}

	cmd.Flags().StringP("interval", "i", "day", "Bar interval (minute, 5minute, 15minute, 60minute, day, week)")
	cmd.Flags().IntP("days", "d", 730, "Number of calendar days to look back")

	return cmd
}

func displayMetrics(output *Output, featureNames []string, metrics predict.Metrics, elapsed time.Duration) error {
	output.Bold("Training Metrics")
	output.Printf("  Samples:        %d train / %d validation\n", metrics.TrainSamples, metrics.ValidationSamples)
	output.Printf("  Train MAE:      %.6f\n", metrics.TrainMAE)
	output.Printf("  Validation MAE: %.6f\n", metrics.ValidationMAE)
	output.Printf("  Validation MSE: %.8f\n", metrics.ValidationMSE)
	if elapsed > 0 {
		output.Dim("  Trained in %s", FormatDuration(elapsed))
	}
	output.Println()

	if len(metrics.Importance) != len(featureNames) {
		return nil
	}

	type ranked struct {
		name       string
		importance float64
	}
	features := make([]ranked, len(featureNames))
	for i, name := range featureNames {
		features[i] = ranked{name: name, importance: metrics.Importance[i]}
	}
	sort.Slice(features, func(i, j int) bool { return features[i].importance > features[j].importance })

	output.Bold("Feature Importance")
	shown := features
	if len(shown) > 8 {
		shown = shown[:8]
	}
	for _, f := range shown {
		bar := strings.Repeat("█", int(f.importance*40))
		if bar == "" && f.importance > 0 {
			bar = "▏"
		}
		output.Printf("  %-22s %s %.3f\n", f.name, output.Cyan(bar), f.importance)
	}
	if len(features) > len(shown) {
		output.Dim("  (%d more features)", len(features)-len(shown))
	}

	return nil
}
