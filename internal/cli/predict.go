// Package cli implements the stock-analyst command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stock-analyst/internal/analysis/predict"
	apperrors "stock-analyst/internal/errors"
	"stock-analyst/internal/models"
	"stock-analyst/pkg/utils"
)

func newPredictCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict <symbol>",
		Short: "Predict the next-bar return for a symbol",
		Long: `Run a stored model over the latest cached bars and print the predicted
return with the aggregate recommendation it feeds into.

By default the most recently trained model for the symbol and interval is
used; --version pins an exact stored artifact instead.`,
		Example: `  stock-analyst predict AAPL
  stock-analyst predict MSFT --interval 60minute
  stock-analyst predict AAPL --version rf-1a2b3c4d-000000012345`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			intervalName, _ := cmd.Flags().GetString("interval")
			days, _ := cmd.Flags().GetInt("days")
			version, _ := cmd.Flags().GetString("version")

			series, err := loadSeries(ctx, app, output, symbol, intervalName, days)
			if err != nil {
				return err
			}
			if app.Analyzer == nil {
				output.Error("Analyzer not available. Run 'stock-analyst config validate'.")
				return fmt.Errorf("analyzer not available")
			}

			model, err := loadModel(ctx, app, symbol, series.Interval, version)
			if err != nil {
				if errors.Is(err, apperrors.ErrDataNotFound) {
					output.Error("No trained model for %s %s. Run 'stock-analyst train %s' first.",
						symbol, series.Interval, symbol)
				} else {
					output.Error("Failed to load model: %v", err)
				}
				return err
			}

			app.Analyzer.Publish(model)
			rep, err := app.Analyzer.Analyze(ctx, series)
			if err != nil {
				output.Error("Prediction failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"symbol":         rep.Symbol,
					"interval":       rep.Interval,
					"last_close":     rep.LastClose,
					"prediction":     rep.Prediction,
					"recommendation": rep.Recommendation,
				})
			}

			output.Bold("%s Prediction", rep.Symbol)
			output.Printf("  Close: %s  Interval: %s  Bars: %d\n",
				output.BoldText(utils.FormatPrice(rep.LastClose)), rep.Interval, rep.Bars)
			output.Println()
			displayPrediction(output, rep)
			displayRecommendation(output, rep)
			return nil
		},
	}

	cmd.Flags().StringP("interval", "i", "day", "Bar interval (minute, 5minute, 15minute, 60minute, day, week)")
	cmd.Flags().IntP("days", "d", 365, "Number of calendar days to look back")
	cmd.Flags().String("version", "", "Use an exact stored model version instead of the latest")

	return cmd
}

// loadModel fetches a stored model, either pinned by version or the latest
// one trained for the symbol and interval.
func loadModel(ctx context.Context, app *App, symbol string, interval models.Interval, version string) (*predict.Model, error) {
	if version != "" {
		return app.Store.GetModel(ctx, version)
	}
	return app.Store.LatestModel(ctx, symbol, interval)
}

func newModelsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Stored model management",
		Long:  "List and inspect stored model artifacts.",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored models, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if app.Store == nil {
				output.Error("Store not available. Check the configured database path.")
				return fmt.Errorf("store not available")
			}

			symbol, _ := cmd.Flags().GetString("symbol")
			infos, err := app.Store.ListModels(ctx, strings.ToUpper(symbol))
			if err != nil {
				output.Error("Failed to list models: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(infos)
			}

			if len(infos) == 0 {
				output.Dim("No stored models. Run 'stock-analyst train <symbol>' to create one.")
				return nil
			}

			table := NewTable(output, "VERSION", "SYMBOL", "INTERVAL", "TRAINED", "SAMPLES", "VAL MAE")
			for _, info := range infos {
				table.AddRow(
					info.Version,
					info.Symbol,
					info.Interval,
					FormatDateTime(info.TrainedAt, app.Config.UI.DateFormat),
					utils.FormatQuantity(int64(info.Samples)),
					fmt.Sprintf("%.6f", info.ValidationMAE),
				)
			}
			table.Render()
			return nil
		},
	}
	listCmd.Flags().StringP("symbol", "s", "", "Only show models for this symbol")
	cmd.AddCommand(listCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "show <version>",
		Short: "Show details for a stored model version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if app.Store == nil {
				output.Error("Store not available. Check the configured database path.")
				return fmt.Errorf("store not available")
			}

			model, err := app.Store.GetModel(ctx, args[0])
			if err != nil {
				if errors.Is(err, apperrors.ErrDataNotFound) {
					output.Error("No stored model with version %s", args[0])
				} else {
					output.Error("Failed to load model: %v", err)
				}
				return err
			}

			metrics := model.Metrics()
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"version":    model.Version(),
					"trained_at": model.TrainedAt(),
					"features":   model.Schema().Names(),
					"metrics":    metrics,
				})
			}

			output.Bold("Model %s", model.Version())
			output.Printf("  Trained: %s\n", FormatDateTime(model.TrainedAt(), app.Config.UI.DateFormat))
			output.Printf("  Schema:  %s\n", strings.Join(model.Schema().Names(), ", "))
			output.Println()
			return displayMetrics(output, model.Schema().Names(), metrics, 0)
		},
	})

	return cmd
}
