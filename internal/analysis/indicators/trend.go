package indicators

import (
	"fmt"

	apperrors "stock-analyst/internal/errors"
	"stock-analyst/internal/models"
)

// SMA calculates Simple Moving Average.
type SMA struct {
	period int
}

// NewSMA creates a new SMA indicator.
func NewSMA(period int) *SMA {
	return &SMA{period: period}
}

func (s *SMA) Name() string {
	return fmt.Sprintf("SMA_%d", s.period)
}

func (s *SMA) Period() int {
	return s.period
}

func (s *SMA) Warmup() int {
	return s.period - 1
}

func (s *SMA) Calculate(bars []models.Bar) (Series, error) {
	if s.period <= 0 {
		return Series{}, apperrors.NewConfigError("period", s.period, "must be positive")
	}
	if len(bars) < s.period {
		return Series{}, apperrors.NewInsufficientDataError(s.Name(), s.period, len(bars))
	}

	closes := closePrices(bars)
	values := make([]float64, len(bars)-s.period+1)
	for i := range values {
		values[i] = mean(closes[i : i+s.period])
	}

	return Series{Start: s.period - 1, Values: values}, nil
}

// EMA calculates Exponential Moving Average, seeded with the SMA of the
// first window.
type EMA struct {
	period int
}

// NewEMA creates a new EMA indicator.
func NewEMA(period int) *EMA {
	return &EMA{period: period}
}

func (e *EMA) Name() string {
	return fmt.Sprintf("EMA_%d", e.period)
}

func (e *EMA) Period() int {
	return e.period
}

func (e *EMA) Warmup() int {
	return e.period - 1
}

func (e *EMA) Calculate(bars []models.Bar) (Series, error) {
	if e.period <= 0 {
		return Series{}, apperrors.NewConfigError("period", e.period, "must be positive")
	}
	if len(bars) < e.period {
		return Series{}, apperrors.NewInsufficientDataError(e.Name(), e.period, len(bars))
	}

	values := emaValues(closePrices(bars), e.period)

	return Series{Start: e.period - 1, Values: values}, nil
}

// MACD calculates Moving Average Convergence Divergence. The three outputs
// share one Start at the histogram warm-up so every aligned bar carries the
// full line/signal/histogram tuple.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// NewMACD creates a new MACD indicator, conventionally (12, 26, 9).
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fastPeriod:   fast,
		slowPeriod:   slow,
		signalPeriod: signal,
	}
}

func (m *MACD) Name() string {
	return fmt.Sprintf("MACD_%d_%d_%d", m.fastPeriod, m.slowPeriod, m.signalPeriod)
}

func (m *MACD) Warmup() int {
	return m.slowPeriod + m.signalPeriod - 2
}

func (m *MACD) Calculate(bars []models.Bar) (MACDSeries, error) {
	if m.fastPeriod <= 0 || m.slowPeriod <= 0 || m.signalPeriod <= 0 {
		return MACDSeries{}, apperrors.NewConfigError("period", m.Name(), "periods must be positive")
	}
	if m.fastPeriod >= m.slowPeriod {
		return MACDSeries{}, apperrors.NewConfigError("fast", m.fastPeriod, "must be below the slow period")
	}
	required := m.slowPeriod + m.signalPeriod - 1
	if len(bars) < required {
		return MACDSeries{}, apperrors.NewInsufficientDataError(m.Name(), required, len(bars))
	}

	closes := closePrices(bars)
	fastEMA := emaValues(closes, m.fastPeriod)
	slowEMA := emaValues(closes, m.slowPeriod)

	// MACD line is defined wherever the slow EMA is.
	line := make([]float64, len(slowEMA))
	offset := m.slowPeriod - m.fastPeriod
	for i := range line {
		line[i] = fastEMA[offset+i] - slowEMA[i]
	}

	signal := emaValues(line, m.signalPeriod)
	alignedLine := line[m.signalPeriod-1:]

	histogram := make([]float64, len(signal))
	for i := range histogram {
		histogram[i] = alignedLine[i] - signal[i]
	}

	return MACDSeries{
		Start:     m.Warmup(),
		Line:      alignedLine,
		Signal:    signal,
		Histogram: histogram,
	}, nil
}

// Components returns the MACD outputs as named suffix-aligned series.
func (m *MACD) Components(bars []models.Bar) (map[string]Series, error) {
	res, err := m.Calculate(bars)
	if err != nil {
		return nil, err
	}
	return map[string]Series{
		"macd":      {Start: res.Start, Values: res.Line},
		"signal":    {Start: res.Start, Values: res.Signal},
		"histogram": {Start: res.Start, Values: res.Histogram},
	}, nil
}
