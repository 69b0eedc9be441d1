// Package cli implements the stock-analyst command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"stock-analyst/internal/logging"
	"stock-analyst/internal/models"
	"stock-analyst/internal/store"
	"stock-analyst/pkg/utils"
)

func newDataCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Bar data management",
		Long:  "Import, export, list and delete locally cached OHLCV bars.",
	}

	cmd.AddCommand(newDataImportCmd(app))
	cmd.AddCommand(newDataExportCmd(app))
	cmd.AddCommand(newDataListCmd(app))
	cmd.AddCommand(newDataDeleteCmd(app))

	return cmd
}

func newDataImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <csv-file>",
		Short: "Import OHLCV bars from a CSV file",
		Long: `Import bars from a CSV file into the local store.

The file needs a header row with timestamp, open, high, low, close and
volume columns. Timestamps may be RFC 3339, "2006-01-02 15:04:05" or plain
dates, and rows may appear in any order. Re-importing overlapping rows
replaces them instead of duplicating.`,
		Example: `  stock-analyst data import bars.csv --symbol AAPL
  stock-analyst data import msft_hourly.csv --symbol MSFT --interval 60minute`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			path := args[0]
			symbol, _ := cmd.Flags().GetString("symbol")
			symbol = strings.ToUpper(symbol)
			intervalName, _ := cmd.Flags().GetString("interval")

			if app.Store == nil {
				output.Error("Store not available. Check the configured database path.")
				return fmt.Errorf("store not available")
			}

			interval, err := models.ParseInterval(intervalName)
			if err != nil {
				output.Error("Unknown interval %q (use minute, 5minute, 15minute, 60minute, day or week)", intervalName)
				return err
			}

			file, err := os.Open(path)
			if err != nil {
				output.Error("Failed to open %s: %v", path, err)
				return err
			}
			defer file.Close()

			started := time.Now()
			bars, err := store.ReadBarsCSV(file)
			if err != nil {
				output.Error("Failed to parse CSV: %v", err)
				return err
			}

			err = app.Store.SaveBars(ctx, symbol, interval, bars)
			logging.LogImport(app.Logger, symbol, interval.String(), len(bars), time.Since(started), err)
			if err != nil {
				output.Error("Failed to store bars: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"symbol":   symbol,
					"interval": interval,
					"rows":     len(bars),
					"from":     bars[0].Timestamp,
					"to":       bars[len(bars)-1].Timestamp,
				})
			}

			color.Green("✓ Imported %d bars for %s %s", len(bars), symbol, interval)
			output.Dim("  %s to %s",
				FormatDateTime(bars[0].Timestamp, app.Config.UI.DateFormat),
				FormatDateTime(bars[len(bars)-1].Timestamp, app.Config.UI.DateFormat))
			return nil
		},
	}

	cmd.Flags().StringP("symbol", "s", "", "Symbol to file the bars under (required)")
	cmd.Flags().StringP("interval", "i", "day", "Bar interval (minute, 5minute, 15minute, 60minute, day, week)")
	cmd.MarkFlagRequired("symbol")

	return cmd
}

func newDataExportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <symbol>",
		Short: "Export cached bars to a CSV file",
		Example: `  stock-analyst data export AAPL
  stock-analyst data export MSFT --interval 60minute --days 30 --out msft.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			intervalName, _ := cmd.Flags().GetString("interval")
			days, _ := cmd.Flags().GetInt("days")
			outPath, _ := cmd.Flags().GetString("out")

			if app.Store == nil {
				output.Error("Store not available. Check the configured database path.")
				return fmt.Errorf("store not available")
			}

			interval, err := models.ParseInterval(intervalName)
			if err != nil {
				output.Error("Unknown interval %q (use minute, 5minute, 15minute, 60minute, day or week)", intervalName)
				return err
			}

			to := time.Now()
			var from time.Time
			if days > 0 {
				from = to.AddDate(0, 0, -days)
			}

			bars, err := app.Store.GetBars(ctx, symbol, interval, from, to)
			if err != nil {
				output.Error("Failed to load bars: %v", err)
				return err
			}
			if len(bars) == 0 {
				output.Error("No bars for %s %s. Import data with 'stock-analyst data import'.", symbol, interval)
				return fmt.Errorf("no bars for %s %s", symbol, interval)
			}

			if outPath == "" {
				outPath = fmt.Sprintf("%s_%s.csv", strings.ToLower(symbol), interval)
			}
			file, err := os.Create(outPath)
			if err != nil {
				output.Error("Failed to create %s: %v", outPath, err)
				return err
			}
			defer file.Close()

			if err := store.WriteBarsCSV(file, bars); err != nil {
				output.Error("Failed to write CSV: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"symbol":   symbol,
					"interval": interval,
					"rows":     len(bars),
					"path":     outPath,
				})
			}

			color.Green("✓ Exported %d bars to %s", len(bars), outPath)
			return nil
		},
	}

	cmd.Flags().StringP("interval", "i", "day", "Bar interval (minute, 5minute, 15minute, 60minute, day, week)")
	cmd.Flags().IntP("days", "d", 0, "Number of calendar days to export (0 for everything)")
	cmd.Flags().StringP("out", "o", "", "Output file path (default <symbol>_<interval>.csv)")

	return cmd
}

func newDataListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached symbols and their bar ranges",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if app.Store == nil {
				output.Error("Store not available. Check the configured database path.")
				return fmt.Errorf("store not available")
			}

			infos, err := app.Store.ListSymbols(ctx)
			if err != nil {
				output.Error("Failed to list symbols: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(infos)
			}

			if len(infos) == 0 {
				output.Dim("No cached bars. Import data with 'stock-analyst data import'.")
				return nil
			}

			table := NewTable(output, "SYMBOL", "INTERVAL", "BARS", "FIRST", "LAST", "AGE")
			for _, info := range infos {
				table.AddRow(
					info.Symbol,
					info.Interval,
					utils.FormatQuantity(int64(info.Bars)),
					FormatDate(info.First, app.Config.UI.DateFormat),
					FormatDate(info.Last, app.Config.UI.DateFormat),
					FormatDuration(time.Since(info.Last)),
				)
			}
			table.Render()
			return nil
		},
	}
}

func newDataDeleteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <symbol>",
		Short: "Delete cached bars for a symbol and interval",
		Example: `  stock-analyst data delete AAPL
  stock-analyst data delete MSFT --interval 60minute`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			intervalName, _ := cmd.Flags().GetString("interval")

			if app.Store == nil {
				output.Error("Store not available. Check the configured database path.")
				return fmt.Errorf("store not available")
			}

			interval, err := models.ParseInterval(intervalName)
			if err != nil {
				output.Error("Unknown interval %q (use minute, 5minute, 15minute, 60minute, day or week)", intervalName)
				return err
			}

			deleted, err := app.Store.DeleteBars(ctx, symbol, interval)
			if err != nil {
				output.Error("Failed to delete bars: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]int64{"deleted": deleted})
			}

			if deleted == 0 {
				output.Warning("No bars matched %s %s", symbol, interval)
				return nil
			}
			color.Green("✓ Deleted %d bars for %s %s", deleted, symbol, interval)
			return nil
		},
	}

	cmd.Flags().StringP("interval", "i", "day", "Bar interval (minute, 5minute, 15minute, 60minute, day, week)")

	return cmd
}
