// Package cli implements the stock-analyst command-line interface.
package cli

import (
	"fmt"
	"time"
)

// defaultDateFormat is used when the configured layout is empty.
const defaultDateFormat = "02-Jan-2006"

// FormatDate formats a date in UTC using the given layout.
func FormatDate(t time.Time, layout string) string {
	if layout == "" {
		layout = defaultDateFormat
	}
	return t.UTC().Format(layout)
}

// FormatDateTime formats a timestamp in UTC using the given date layout
// with a time suffix.
func FormatDateTime(t time.Time, layout string) string {
	if layout == "" {
		layout = defaultDateFormat
	}
	return t.UTC().Format(layout + " 15:04:05")
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	} else if d < 24*time.Hour {
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}

// FormatChange formats a price change with its percentage.
func FormatChange(change, changePct float64) string {
	sign := ""
	if change > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f (%s%.2f%%)", sign, change, sign, changePct)
}

// FormatScore formats an aggregate recommendation score.
func FormatScore(score float64) string {
	return fmt.Sprintf("%+.3f", score)
}

// FormatConfidence formats a 0..1 confidence fraction as a percentage.
func FormatConfidence(conf float64) string {
	return fmt.Sprintf("%.0f%%", conf*100)
}

// FormatEstimate formats a predicted simple return as a signed percentage
// with enough precision for small horizons.
func FormatEstimate(estimate float64) string {
	sign := ""
	if estimate > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.3f%%", sign, estimate*100)
}
