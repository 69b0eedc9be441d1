package store

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"stock-analyst/internal/models"
)

// Property: for any valid bar data, saving bars to the database and then
// retrieving them produces equivalent bars (round-trip consistency).
func TestProperty_BarRoundTripConsistency(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bars_property.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	symbols := []string{"AAPL", "MSFT", "GOOG", "AMZN", "META", "NVDA", "TSLA", "AMD", "INTC", "ORCL"}

	intervalGen := gen.OneConstOf(
		models.IntervalMinute,
		models.Interval5Minute,
		models.Interval15Minute,
		models.IntervalHour,
		models.IntervalDay,
	)

	countGen := gen.IntRange(1, 20)
	priceGen := gen.Float64Range(10.0, 5000.0)
	volumeGen := gen.Int64Range(1000, 1000000)

	properties.Property("Bar round-trip: save then retrieve produces equivalent data", prop.ForAll(
		func(symbolIdx int, interval models.Interval, count int, basePrice float64, baseVolume int64) bool {
			ctx := context.Background()
			symbol := symbols[symbolIdx%len(symbols)]

			// Unique symbol per run so iterations never collide
			uniqueSymbol := fmt.Sprintf("%s_%d", symbol, time.Now().UnixNano()%100000)

			bars := generateTestBars(count, interval, basePrice, baseVolume)

			if err := store.SaveBars(ctx, uniqueSymbol, interval, bars); err != nil {
				t.Logf("Failed to save bars: %v", err)
				return false
			}

			from := bars[0].Timestamp.Add(-time.Second)
			to := bars[len(bars)-1].Timestamp.Add(time.Second)
			retrieved, err := store.GetBars(ctx, uniqueSymbol, interval, from, to)
			if err != nil {
				t.Logf("Failed to get bars: %v", err)
				return false
			}

			if len(retrieved) != len(bars) {
				t.Logf("Count mismatch: expected %d, got %d", len(bars), len(retrieved))
				return false
			}

			for i, orig := range bars {
				if !barsEqual(orig, retrieved[i]) {
					t.Logf("Bar mismatch at index %d: original=%+v, retrieved=%+v", i, orig, retrieved[i])
					return false
				}
			}

			return true
		},
		gen.IntRange(0, len(symbols)-1),
		intervalGen,
		countGen,
		priceGen,
		volumeGen,
	))

	properties.Property("Empty bars: saving empty slice should succeed", prop.ForAll(
		func(symbolIdx int, interval models.Interval) bool {
			ctx := context.Background()
			symbol := symbols[symbolIdx%len(symbols)]
			uniqueSymbol := fmt.Sprintf("%s_empty_%d", symbol, time.Now().UnixNano()%100000)

			return store.SaveBars(ctx, uniqueSymbol, interval, []models.Bar{}) == nil
		},
		gen.IntRange(0, len(symbols)-1),
		intervalGen,
	))

	properties.Property("Saving the same bars twice does not duplicate rows", prop.ForAll(
		func(symbolIdx int, count int, basePrice float64) bool {
			ctx := context.Background()
			symbol := symbols[symbolIdx%len(symbols)]
			uniqueSymbol := fmt.Sprintf("%s_dup_%d", symbol, time.Now().UnixNano()%100000)

			bars := generateTestBars(count, models.IntervalDay, basePrice, 5000)

			if err := store.SaveBars(ctx, uniqueSymbol, models.IntervalDay, bars); err != nil {
				return false
			}
			if err := store.SaveBars(ctx, uniqueSymbol, models.IntervalDay, bars); err != nil {
				return false
			}

			from := bars[0].Timestamp.Add(-time.Second)
			to := bars[len(bars)-1].Timestamp.Add(time.Second)
			retrieved, err := store.GetBars(ctx, uniqueSymbol, models.IntervalDay, from, to)
			if err != nil {
				return false
			}

			return len(retrieved) == len(bars)
		},
		gen.IntRange(0, len(symbols)-1),
		countGen,
		priceGen,
	))

	properties.TestingRun(t)
}

// generateTestBars creates valid bars for testing
func generateTestBars(count int, interval models.Interval, basePrice float64, baseVolume int64) []models.Bar {
	bars := make([]models.Bar, count)
	baseTime := time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC)

	for i := 0; i < count; i++ {
		variation := float64(i%10) * 0.01 * basePrice
		open := basePrice + variation
		close := basePrice + variation*0.5

		// Keep high >= max(open, close) and low <= min(open, close)
		high := math.Max(open, close) * 1.01
		low := math.Min(open, close) * 0.99

		bars[i] = models.Bar{
			Timestamp: baseTime.Add(time.Duration(i) * interval.Duration()),
			Open:      roundToDecimal(open, 2),
			High:      roundToDecimal(high, 2),
			Low:       roundToDecimal(low, 2),
			Close:     roundToDecimal(close, 2),
			Volume:    baseVolume + int64(i*1000),
		}
	}

	return bars
}

// roundToDecimal rounds a float to specified decimal places
func roundToDecimal(val float64, places int) float64 {
	multiplier := math.Pow(10, float64(places))
	return math.Round(val*multiplier) / multiplier
}

// barsEqual compares two bars for equality with floating point tolerance.
func barsEqual(a, b models.Bar) bool {
	const tolerance = 0.01

	if !a.Timestamp.Equal(b.Timestamp) {
		return false
	}
	if !floatEqual(a.Open, b.Open, tolerance) {
		return false
	}
	if !floatEqual(a.High, b.High, tolerance) {
		return false
	}
	if !floatEqual(a.Low, b.Low, tolerance) {
		return false
	}
	if !floatEqual(a.Close, b.Close, tolerance) {
		return false
	}
	return a.Volume == b.Volume
}

// floatEqual compares two floats with a tolerance.
func floatEqual(a, b, tolerance float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}
