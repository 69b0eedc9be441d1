// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatPrice formats a price with two decimal places and thousands
// separators. Prices under 10 keep four decimals.
func FormatPrice(price float64) string {
	negative := price < 0
	if negative {
		price = -price
	}

	decimals := 2
	if price < 10 {
		decimals = 4
	}

	str := fmt.Sprintf("%.*f", decimals, price)
	parts := strings.Split(str, ".")
	intPart := groupThousands(parts[0])

	result := intPart + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

// groupThousands inserts commas into an integer string in groups of three.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	result := s[n-3:]
	s = s[:n-3]

	for len(s) > 0 {
		if len(s) >= 3 {
			result = s[len(s)-3:] + "," + result
			s = s[:len(s)-3]
		} else {
			result = s + "," + result
			s = ""
		}
	}

	return result
}

// FormatPercent formats a percentage with sign.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatQuantity formats an integer count with thousands separators.
func FormatQuantity(qty int64) string {
	if qty < 0 {
		return "-" + groupThousands(fmt.Sprintf("%d", -qty))
	}
	return groupThousands(fmt.Sprintf("%d", qty))
}

// FormatVolume formats a share volume in compact form (K/M/B).
func FormatVolume(volume int64) string {
	if volume >= 1000000000 {
		return fmt.Sprintf("%.2f B", float64(volume)/1000000000)
	} else if volume >= 1000000 {
		return fmt.Sprintf("%.2f M", float64(volume)/1000000)
	} else if volume >= 1000 {
		return fmt.Sprintf("%.2f K", float64(volume)/1000)
	}
	return fmt.Sprintf("%d", volume)
}

// FormatCompact formats a large number in compact form (M/B), falling back
// to FormatPrice below a million.
func FormatCompact(amount float64) string {
	absAmount := math.Abs(amount)

	if absAmount >= 1000000000 {
		return fmt.Sprintf("%.2f B", amount/1000000000)
	} else if absAmount >= 1000000 {
		return fmt.Sprintf("%.2f M", amount/1000000)
	}
	return FormatPrice(amount)
}

// TruncateString truncates a string to max length with ellipsis.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// PadRight pads a string to the right.
func PadRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

// PadLeft pads a string to the left.
func PadLeft(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return strings.Repeat(" ", length-len(s)) + s
}
