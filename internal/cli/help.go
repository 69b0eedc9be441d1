// Package cli implements the stock-analyst command-line interface.
package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// addHelpCommands adds help and documentation commands.
func addHelpCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newCommandsCmd(app))
	rootCmd.AddCommand(newExamplesCmd(app))
	rootCmd.AddCommand(newQuickstartCmd(app))
}

func newCommandsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List all commands by category",
		Long:  "Display all available commands organized by category.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			output.Bold("stock-analyst Commands")
			output.Println()

			categories := []struct {
				name     string
				commands []struct {
					cmd  string
					desc string
				}
			}{
				{
					name: "Analysis",
					commands: []struct {
						cmd  string
						desc string
					}{
						{"analyze <symbol>", "Full technical analysis and recommendation"},
						{"levels <symbol>", "Support and resistance levels"},
					},
				},
				{
					name: "Prediction",
					commands: []struct {
						cmd  string
						desc string
					}{
						{"train <symbol>", "Train a prediction model on cached bars"},
						{"predict <symbol>", "Next-bar estimate from a trained model"},
						{"models list", "List stored model versions"},
						{"models show <version>", "Metrics for one model version"},
					},
				},
				{
					name: "Data",
					commands: []struct {
						cmd  string
						desc string
					}{
						{"data import <file>", "Import OHLCV bars from CSV"},
						{"data export <symbol>", "Export cached bars to CSV"},
						{"data list", "List cached symbols and ranges"},
						{"data delete <symbol>", "Delete cached bars"},
					},
				},
				{
					name: "Configuration",
					commands: []struct {
						cmd  string
						desc string
					}{
						{"config show", "Show current configuration"},
						{"config init", "Write a commented template file"},
						{"config validate", "Validate the configuration"},
						{"config path", "Show configuration directory"},
					},
				},
				{
					name: "Help",
					commands: []struct {
						cmd  string
						desc string
					}{
						{"help <command>", "Detailed help"},
						{"commands", "List all commands"},
						{"examples", "Common workflows"},
						{"quickstart", "New user guide"},
						{"version", "Version information"},
					},
				},
			}

			for _, cat := range categories {
				output.Bold(cat.name)
				for _, c := range cat.commands {
					output.Printf("  %-30s %s\n", output.Cyan(c.cmd), c.desc)
				}
				output.Println()
			}

			output.Dim("Use 'stock-analyst help <command>' for detailed help on any command")

			return nil
		},
	}
}

func newExamplesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "Show common workflow examples",
		Long:  "Display examples of common analysis workflows.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			output.Bold("Common Workflow Examples")
			output.Println()

			examples := []struct {
				title    string
				commands []string
			}{
				{
					title: "First Analysis",
					commands: []string{
						"stock-analyst config init               # Write the config template",
						"stock-analyst data import bars.csv -s AAPL  # Load daily bars",
						"stock-analyst analyze AAPL              # Indicators, trend, levels",
						"stock-analyst levels AAPL               # Level detail table",
					},
				},
				{
					title: "Train and Predict",
					commands: []string{
						"stock-analyst train AAPL --days 730     # Fit on two years of bars",
						"stock-analyst predict AAPL              # Next-bar estimate",
						"stock-analyst analyze AAPL              # Full report with prediction",
						"stock-analyst models list -s AAPL       # Stored model versions",
					},
				},
				{
					title: "Intraday Intervals",
					commands: []string{
						"stock-analyst data import msft_1h.csv -s MSFT -i 60minute",
						"stock-analyst analyze MSFT -i 60minute --days 30",
						"stock-analyst train MSFT -i 60minute --days 90",
					},
				},
				{
					title: "Scripting with JSON",
					commands: []string{
						"stock-analyst analyze AAPL --json | jq .recommendation.verdict",
						"stock-analyst predict AAPL --json | jq .prediction.estimate",
						"stock-analyst data list --json",
					},
				},
				{
					title: "Manage Cached Data",
					commands: []string{
						"stock-analyst data list                 # What is cached, how stale",
						"stock-analyst data export AAPL -o aapl.csv",
						"stock-analyst data delete AAPL -i day   # Drop one symbol/interval",
					},
				},
				{
					title: "Compare Model Versions",
					commands: []string{
						"stock-analyst models list -s AAPL       # All versions, newest first",
						"stock-analyst models show rf-1a2b3c4d-5e6f7a8b",
						"stock-analyst predict AAPL --version rf-1a2b3c4d-5e6f7a8b",
					},
				},
			}

			for _, ex := range examples {
				output.Bold(ex.title)
				for _, c := range ex.commands {
					parts := strings.SplitN(c, "#", 2)
					if len(parts) == 2 {
						output.Printf("  %s %s\n", output.Cyan(strings.TrimSpace(parts[0])), output.DimText(strings.TrimSpace(parts[1])))
					} else {
						output.Printf("  %s\n", output.Cyan(c))
					}
				}
				output.Println()
			}

			return nil
		},
	}
}

func newQuickstartCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quickstart",
		Short: "New user guide",
		Long:  "Step-by-step guide for new users.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			output.Bold("stock-analyst - Quick Start Guide")
			output.Println()

			steps := []struct {
				step  int
				title string
				desc  string
				cmd   string
			}{
				{
					step:  1,
					title: "Write the Configuration",
					desc:  "Create the commented template and adjust indicator or model settings.",
					cmd:   "stock-analyst config init",
				},
				{
					step:  2,
					title: "Import Bar Data",
					desc:  "Load OHLCV bars from a CSV file into the local SQLite cache.",
					cmd:   "stock-analyst data import bars.csv --symbol AAPL",
				},
				{
					step:  3,
					title: "Analyze the Symbol",
					desc:  "Compute indicators, classify the trend and detect levels.",
					cmd:   "stock-analyst analyze AAPL",
				},
				{
					step:  4,
					title: "Train a Model",
					desc:  "Fit a random forest on engineered features from the cached bars.",
					cmd:   "stock-analyst train AAPL --days 730",
				},
				{
					step:  5,
					title: "Predict the Next Bar",
					desc:  "Estimate the next-bar return with the trained model.",
					cmd:   "stock-analyst predict AAPL",
				},
				{
					step:  6,
					title: "Read the Full Report",
					desc:  "Analyze again; the report now includes the prediction signal.",
					cmd:   "stock-analyst analyze AAPL --detailed",
				},
			}

			for _, s := range steps {
				output.Printf("%s Step %d: %s\n", output.Cyan("→"), s.step, output.BoldText(s.title))
				output.Printf("  %s\n", s.desc)
				output.Printf("  %s\n\n", output.DimText(s.cmd))
			}

			output.Bold("Configuration Files")
			output.Println()
			output.Printf("  %s - Indicator, level, scoring and model settings\n", output.Cyan("config.toml"))
			output.Printf("  %s - SQLite bar and model cache\n", output.Cyan("analyst.db"))
			output.Println()

			output.Bold("Getting Help")
			output.Println()
			output.Printf("  %s - List all commands\n", output.Cyan("stock-analyst commands"))
			output.Printf("  %s - Common workflows\n", output.Cyan("stock-analyst examples"))
			output.Printf("  %s - Help for any command\n", output.Cyan("stock-analyst help <command>"))
			output.Println()

			output.Bold("Important Notes")
			output.Println()
			output.Printf("  %s Predictions are statistical estimates, not advice\n", output.Yellow("⚠"))
			output.Printf("  %s Retraining keeps old model versions retrievable\n", output.Yellow("⚠"))
			output.Printf("  %s Intraday intervals need their own imported bars\n", output.Yellow("⚠"))

			return nil
		},
	}
}
