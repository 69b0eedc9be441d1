// Package cli implements the stock-analyst command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stock-analyst/internal/analysis"
	"stock-analyst/internal/analysis/levels"
	"stock-analyst/internal/analysis/trend"
	apperrors "stock-analyst/internal/errors"
	"stock-analyst/internal/models"
	"stock-analyst/pkg/utils"
)

func newAnalyzeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <symbol>",
		Short: "Full technical analysis for a symbol",
		Long: `Run the full analysis pipeline over locally cached bars:
- indicator snapshot (SMA, EMA, RSI, MACD, Bollinger Bands, ATR, volume SMA)
- trend classification with strength and optional timeframe confluence
- support and resistance levels from clustered extrema
- model prediction and aggregate BUY / HOLD / SELL recommendation

The prediction section needs a trained model for the symbol and interval
(see 'stock-analyst train'). Without one the command falls back to a
snapshot report without prediction or recommendation.`,
		Example: `  stock-analyst analyze AAPL
  stock-analyst analyze MSFT --interval 60minute --days 30
  stock-analyst analyze TSLA --detailed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			intervalName, _ := cmd.Flags().GetString("interval")
			days, _ := cmd.Flags().GetInt("days")
			detailed, _ := cmd.Flags().GetBool("detailed")

			series, err := loadSeries(ctx, app, output, symbol, intervalName, days)
			if err != nil {
				return err
			}
			if app.Analyzer == nil {
				output.Error("Analyzer not available. Run 'stock-analyst config validate'.")
				return fmt.Errorf("analyzer not available")
			}

			rep, usedModel, err := runAnalysis(ctx, app, series)
			if err != nil {
				output.Error("Analysis failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(rep)
			}

			if !usedModel {
				output.Warning("No trained model for %s %s. Run 'stock-analyst train %s' to enable predictions.",
					symbol, series.Interval, symbol)
				output.Println()
			}
			return displayReport(output, app.Config.UI.DateFormat, series, rep, detailed)
		},
	}

	cmd.Flags().StringP("interval", "i", "day", "Bar interval (minute, 5minute, 15minute, 60minute, day, week)")
	cmd.Flags().IntP("days", "d", 365, "Number of calendar days to look back")
	cmd.Flags().Bool("detailed", false, "Show detailed indicator values")

	return cmd
}

func newLevelsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "levels <symbol>",
		Short: "Support and resistance levels for a symbol",
		Long: `Detect support and resistance levels from clustered price extrema.

Levels are scored by touch count, extremum confirmation and recency. The
strongest level below the last close is the active support, the strongest
above it the active resistance.`,
		Example: `  stock-analyst levels AAPL
  stock-analyst levels MSFT --interval 60minute --limit 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			symbol := strings.ToUpper(args[0])
			intervalName, _ := cmd.Flags().GetString("interval")
			days, _ := cmd.Flags().GetInt("days")
			limit, _ := cmd.Flags().GetInt("limit")

			series, err := loadSeries(ctx, app, output, symbol, intervalName, days)
			if err != nil {
				return err
			}
			if app.Analyzer == nil {
				output.Error("Analyzer not available. Run 'stock-analyst config validate'.")
				return fmt.Errorf("analyzer not available")
			}

			rep, err := app.Analyzer.Snapshot(ctx, series)
			if err != nil {
				output.Error("Level detection failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"symbol":     rep.Symbol,
					"interval":   rep.Interval,
					"last_close": rep.LastClose,
					"support":    rep.Support,
					"resistance": rep.Resistance,
					"levels":     rep.Levels,
				})
			}

			return displayLevelTable(output, app.Config.UI.DateFormat, series, rep, limit)
		},
	}

	cmd.Flags().StringP("interval", "i", "day", "Bar interval (minute, 5minute, 15minute, 60minute, day, week)")
	cmd.Flags().IntP("days", "d", 365, "Number of calendar days to look back")
	cmd.Flags().IntP("limit", "l", 0, "Limit number of levels to display (0 for all)")

	return cmd
}

// loadSeries parses the interval name and loads the requested lookback from
// the store, reporting failures on the output.
func loadSeries(ctx context.Context, app *App, output *Output, symbol, intervalName string, days int) (*models.Series, error) {
	if app.Store == nil {
		output.Error("Store not available. Check the configured database path.")
		return nil, fmt.Errorf("store not available")
	}

	interval, err := models.ParseInterval(intervalName)
	if err != nil {
		output.Error("Unknown interval %q (use minute, 5minute, 15minute, 60minute, day or week)", intervalName)
		return nil, err
	}

	to := time.Now()
	from := to.AddDate(0, 0, -days)
	series, err := app.Store.GetSeries(ctx, symbol, interval, from, to)
	if err != nil {
		if errors.Is(err, apperrors.ErrDataNotFound) {
			output.Error("No bars for %s %s in the last %d days. Import data with 'stock-analyst data import'.",
				symbol, interval, days)
		} else {
			output.Error("Failed to load bars: %v", err)
		}
		return nil, err
	}
	return series, nil
}

// runAnalysis publishes the latest stored model and runs the full pipeline,
// falling back to a plain snapshot when no model exists for the series.
func runAnalysis(ctx context.Context, app *App, series *models.Series) (*analysis.Report, bool, error) {
	model, err := app.Store.LatestModel(ctx, series.Symbol, series.Interval)
	if err != nil {
		if errors.Is(err, apperrors.ErrDataNotFound) {
			rep, snapErr := app.Analyzer.Snapshot(ctx, series)
			return rep, false, snapErr
		}
		return nil, false, err
	}

	app.Analyzer.Publish(model)
	rep, err := app.Analyzer.Analyze(ctx, series)
	return rep, true, err
}

func displayReport(output *Output, dateFormat string, series *models.Series, rep *analysis.Report, detailed bool) error {
	output.Bold("%s Technical Analysis", rep.Symbol)
	output.Printf("  Close: %s  Interval: %s  Bars: %d\n",
		output.BoldText(utils.FormatPrice(rep.LastClose)), rep.Interval, rep.Bars)
	output.Dim("  %s to %s", FormatDate(series.Start(), dateFormat), FormatDate(series.End(), dateFormat))
	output.Println()

	displayTrend(output, rep, detailed)
	displayIndicators(output, rep, detailed)
	displayLevelSummary(output, rep)
	displayPrediction(output, rep)
	displayRecommendation(output, rep)

	return nil
}

func displayTrend(output *Output, rep *analysis.Report, detailed bool) {
	t := rep.Trend
	if t == nil {
		return
	}

	output.Bold("Trend")
	output.Printf("  Direction: %s  Strength: %.2f\n", output.TrendDirection(t.Direction), t.Strength)

	rsiColor := ColorYellow
	if t.RSIZone == trend.ZoneOverbought {
		rsiColor = ColorRed
	} else if t.RSIZone == trend.ZoneOversold {
		rsiColor = ColorGreen
	}
	output.Printf("  RSI: %s (%s)\n", output.ColoredString(rsiColor, fmt.Sprintf("%.1f", t.RSI)), t.RSIZone)

	if detailed {
		output.Printf("  SMA: %s / %s\n", utils.FormatPrice(t.ShortMA), utils.FormatPrice(t.LongMA))
		output.Printf("  MACD histogram: %.4f (slope %.4f)\n", t.MACDHistogram, t.HistogramSlope)
	}

	if c := rep.Confluence; c != nil {
		switch {
		case c.Agrees:
			output.Printf("  Confluence: %s across %dx coarse bars\n", output.Green("agrees"), c.Factor)
		case c.Coarse != nil && c.Coarse.Direction == trend.DirectionUnknown:
			output.Printf("  Confluence: %s (coarse timeframe too short)\n", output.DimText("unknown"))
		default:
			output.Printf("  Confluence: %s across %dx coarse bars\n", output.Yellow("disagrees"), c.Factor)
		}
	}
	output.Println()
}

func displayIndicators(output *Output, rep *analysis.Report, detailed bool) {
	snap := rep.Indicators
	if snap == nil {
		return
	}

	output.Bold("Indicators")

	names := make([]string, 0, len(snap.Singles))
	for name := range snap.Singles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		output.Printf("  %-22s %s\n", name, formatIndicatorValue(name, snap.Singles[name].Last()))
	}

	if detailed {
		multiNames := make([]string, 0, len(snap.Multis))
		for name := range snap.Multis {
			multiNames = append(multiNames, name)
		}
		sort.Strings(multiNames)
		for _, name := range multiNames {
			components := snap.Multis[name]
			compNames := make([]string, 0, len(components))
			for comp := range components {
				compNames = append(compNames, comp)
			}
			sort.Strings(compNames)

			var parts []string
			for _, comp := range compNames {
				parts = append(parts, fmt.Sprintf("%s=%.2f", comp, components[comp].Last()))
			}
			output.Printf("  %-22s %s\n", name, strings.Join(parts, "  "))
		}
	}

	if len(snap.Errors) > 0 {
		errNames := make([]string, 0, len(snap.Errors))
		for name := range snap.Errors {
			errNames = append(errNames, name)
		}
		sort.Strings(errNames)
		for _, name := range errNames {
			output.Warning("  %s: %v", name, snap.Errors[name])
		}
	}
	output.Println()
}

// formatIndicatorValue picks a display format for an indicator's latest value.
func formatIndicatorValue(name string, v float64) string {
	if strings.HasPrefix(name, "VolumeSMA") {
		return utils.FormatCompact(v)
	}
	return utils.FormatPrice(v)
}

func displayLevelSummary(output *Output, rep *analysis.Report) {
	output.Bold("Key Levels")
	if rep.Support != nil {
		dist := (rep.LastClose - rep.Support.Price) / rep.LastClose * 100
		output.Printf("  Support:    %s (%.2f%% below, strength %.1f, %d touches)\n",
			output.Green(utils.FormatPrice(rep.Support.Price)), dist, rep.Support.Strength, rep.Support.Touches)
	} else {
		output.Printf("  Support:    %s\n", output.DimText("none detected"))
	}
	if rep.Resistance != nil {
		dist := (rep.Resistance.Price - rep.LastClose) / rep.LastClose * 100
		output.Printf("  Resistance: %s (%.2f%% above, strength %.1f, %d touches)\n",
			output.Red(utils.FormatPrice(rep.Resistance.Price)), dist, rep.Resistance.Strength, rep.Resistance.Touches)
	} else {
		output.Printf("  Resistance: %s\n", output.DimText("none detected"))
	}
	if n := len(rep.Levels); n > 0 {
		output.Dim("  %d level(s) total, see 'stock-analyst levels %s' for the full list", n, rep.Symbol)
	}
	output.Println()
}

func displayPrediction(output *Output, rep *analysis.Report) {
	p := rep.Prediction
	if p == nil {
		return
	}

	output.Bold("Prediction")
	arrow := "→"
	if p.Direction > 0 {
		arrow = "↑"
	} else if p.Direction < 0 {
		arrow = "↓"
	}
	estimate := output.ColoredString(output.signColor(p.Estimate),
		fmt.Sprintf("%s %s", arrow, FormatEstimate(p.Estimate)))
	output.Printf("  Estimate:   %s over %d bar(s)\n", estimate, p.Horizon)
	output.Printf("  Confidence: %s\n", FormatConfidence(p.Confidence))
	output.Dim("  Model: %s", p.ModelVersion)
	output.Println()
}

func displayRecommendation(output *Output, rep *analysis.Report) {
	rec := rep.Recommendation
	if rec == nil {
		return
	}

	content := []string{
		fmt.Sprintf("Verdict: %s", output.Verdict(rec.Verdict)),
		fmt.Sprintf("Score:   %s", output.ColoredString(output.signColor(rec.Score), FormatScore(rec.Score))),
	}
	if len(rec.Signals) > 0 {
		content = append(content, "")
		for _, sig := range rec.Signals {
			polarity := output.ColoredString(output.signColor(float64(sig.Polarity)), fmt.Sprintf("%+d", sig.Polarity))
			content = append(content, fmt.Sprintf("%-11s %s  %.2f  %s", sig.Source, polarity, sig.Weight, sig.Detail))
		}
	}
	output.Box("Recommendation", content)
}

func displayLevelTable(output *Output, dateFormat string, series *models.Series, rep *analysis.Report, limit int) error {
	output.Bold("%s Support / Resistance", rep.Symbol)
	output.Printf("  Close: %s  Interval: %s  Bars: %d\n",
		output.BoldText(utils.FormatPrice(rep.LastClose)), rep.Interval, rep.Bars)
	output.Println()

	displayLevelSummary(output, rep)

	if len(rep.Levels) == 0 {
		output.Dim("No levels cleared the strength threshold.")
		return nil
	}

	// Strongest first
	sorted := make([]levels.Level, len(rep.Levels))
	copy(sorted, rep.Levels)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Strength > sorted[j].Strength })
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	table := NewTable(output, "ROLE", "PRICE", "STRENGTH", "TOUCHES", "LAST TOUCH")
	for _, lvl := range sorted {
		role := output.Green(string(lvl.Role))
		if lvl.Role == levels.RoleResistance {
			role = output.Red(string(lvl.Role))
		}

		lastTouch := ""
		if lvl.LastTouch >= 0 && lvl.LastTouch < series.Len() {
			lastTouch = FormatDate(series.Bars[lvl.LastTouch].Timestamp, dateFormat)
		}

		table.AddRow(
			role,
			utils.FormatPrice(lvl.Price),
			fmt.Sprintf("%.2f", lvl.Strength),
			fmt.Sprintf("%d", lvl.Touches),
			lastTouch,
		)
	}
	table.Render()

	return nil
}
