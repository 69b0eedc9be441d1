// Package models provides domain models for the analytics engine.
package models

import (
	"encoding/json"
	"math"
	"time"

	apperrors "stock-analyst/internal/errors"
)

// Interval is the nominal spacing between consecutive bars in a series.
type Interval time.Duration

const (
	IntervalMinute   Interval = Interval(time.Minute)
	Interval5Minute  Interval = Interval(5 * time.Minute)
	Interval15Minute Interval = Interval(15 * time.Minute)
	IntervalHour     Interval = Interval(time.Hour)
	IntervalDay      Interval = Interval(24 * time.Hour)
	IntervalWeek     Interval = Interval(7 * 24 * time.Hour)
)

// ParseInterval converts a timeframe name into an Interval.
func ParseInterval(s string) (Interval, error) {
	switch s {
	case "minute":
		return IntervalMinute, nil
	case "5minute":
		return Interval5Minute, nil
	case "15minute":
		return Interval15Minute, nil
	case "60minute", "hour":
		return IntervalHour, nil
	case "day":
		return IntervalDay, nil
	case "week":
		return IntervalWeek, nil
	default:
		return 0, apperrors.NewConfigError("interval", s, "unknown timeframe name")
	}
}

// String returns the timeframe name for known intervals and the raw
// duration otherwise.
func (iv Interval) String() string {
	switch iv {
	case IntervalMinute:
		return "minute"
	case Interval5Minute:
		return "5minute"
	case Interval15Minute:
		return "15minute"
	case IntervalHour:
		return "60minute"
	case IntervalDay:
		return "day"
	case IntervalWeek:
		return "week"
	default:
		return time.Duration(iv).String()
	}
}

// Duration returns the interval as a time.Duration.
func (iv Interval) Duration() time.Duration {
	return time.Duration(iv)
}

// MarshalJSON renders the interval as its timeframe name.
func (iv Interval) MarshalJSON() ([]byte, error) {
	return json.Marshal(iv.String())
}

// UnmarshalJSON parses a timeframe name.
func (iv *Interval) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseInterval(s)
	if err != nil {
		return err
	}
	*iv = parsed
	return nil
}

// Bar represents OHLCV data for one time interval.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// validate checks the single-bar invariants.
func (b Bar) validate() string {
	if b.Timestamp.IsZero() {
		return "zero timestamp"
	}
	for _, p := range []float64{b.Open, b.High, b.Low, b.Close} {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return "non-finite price"
		}
		if p <= 0 {
			return "non-positive price"
		}
	}
	if b.Volume < 0 {
		return "negative volume"
	}
	if b.Low > math.Min(b.Open, b.Close) {
		return "low above open/close"
	}
	if b.High < math.Max(b.Open, b.Close) {
		return "high below open/close"
	}
	return ""
}

// Range returns the bar's full price range (high minus low).
func (b Bar) Range() float64 {
	return b.High - b.Low
}

// Body returns the absolute size of the bar's real body.
func (b Bar) Body() float64 {
	return math.Abs(b.Close - b.Open)
}

// Series is an ordered, validated sequence of bars for one instrument at a
// fixed nominal interval. Whole-interval gaps (weekends, holidays) are
// allowed; anything else is rejected at construction. Once built, a Series
// is read-only: the analysis packages borrow it and never mutate it.
type Series struct {
	Symbol   string
	Interval Interval
	Bars     []Bar
}

// NewSeries validates bars and returns a Series owning a private copy of
// them. Validation fails with ErrInvalidBarSeries on the first offending
// bar, before any computation happens downstream.
func NewSeries(symbol string, interval Interval, bars []Bar) (*Series, error) {
	if symbol == "" {
		return nil, apperrors.NewBarSeriesError(symbol, -1, "empty symbol")
	}
	if interval <= 0 {
		return nil, apperrors.NewBarSeriesError(symbol, -1, "non-positive interval")
	}
	if len(bars) == 0 {
		return nil, apperrors.NewBarSeriesError(symbol, -1, "no bars")
	}

	iv := time.Duration(interval)
	for i, bar := range bars {
		if reason := bar.validate(); reason != "" {
			return nil, apperrors.NewBarSeriesError(symbol, i, reason)
		}
		if i == 0 {
			continue
		}
		delta := bar.Timestamp.Sub(bars[i-1].Timestamp)
		if delta <= 0 {
			return nil, apperrors.NewBarSeriesError(symbol, i, "timestamps not strictly increasing")
		}
		if delta%iv != 0 {
			return nil, apperrors.NewBarSeriesError(symbol, i, "spacing is not a whole multiple of the interval")
		}
	}

	owned := make([]Bar, len(bars))
	copy(owned, bars)

	return &Series{
		Symbol:   symbol,
		Interval: interval,
		Bars:     owned,
	}, nil
}

// Len returns the number of bars.
func (s *Series) Len() int {
	return len(s.Bars)
}

// Last returns the most recent bar. The series is never empty.
func (s *Series) Last() Bar {
	return s.Bars[len(s.Bars)-1]
}

// Start returns the timestamp of the first bar.
func (s *Series) Start() time.Time {
	return s.Bars[0].Timestamp
}

// End returns the timestamp of the last bar.
func (s *Series) End() time.Time {
	return s.Bars[len(s.Bars)-1].Timestamp
}
