package indicators

import (
	"fmt"

	apperrors "stock-analyst/internal/errors"
	"stock-analyst/internal/models"
)

// ATR calculates the Average True Range with Wilder smoothing. True range
// needs the previous close, so the first value lands on bar index period.
type ATR struct {
	period int
}

// NewATR creates a new ATR indicator.
func NewATR(period int) *ATR {
	return &ATR{period: period}
}

func (a *ATR) Name() string {
	return fmt.Sprintf("ATR_%d", a.period)
}

func (a *ATR) Period() int {
	return a.period
}

func (a *ATR) Warmup() int {
	return a.period
}

func (a *ATR) Calculate(bars []models.Bar) (Series, error) {
	if a.period <= 0 {
		return Series{}, apperrors.NewConfigError("period", a.period, "must be positive")
	}
	if len(bars) < a.period+1 {
		return Series{}, apperrors.NewInsufficientDataError(a.Name(), a.period+1, len(bars))
	}

	n := len(bars)
	tr := make([]float64, n-1)
	for i := 1; i < n; i++ {
		tr[i-1] = trueRange(bars[i], bars[i-1])
	}

	values := make([]float64, n-a.period)
	values[0] = mean(tr[:a.period])
	for i := 1; i < len(values); i++ {
		values[i] = (values[i-1]*float64(a.period-1) + tr[a.period-1+i]) / float64(a.period)
	}

	return Series{Start: a.period, Values: values}, nil
}

// BollingerBands calculates Bollinger Bands: an SMA middle band with upper
// and lower bands at stdDevMul population standard deviations.
type BollingerBands struct {
	period    int
	stdDevMul float64
}

// NewBollingerBands creates a new Bollinger Bands indicator.
func NewBollingerBands(period int, stdDevMul float64) *BollingerBands {
	return &BollingerBands{
		period:    period,
		stdDevMul: stdDevMul,
	}
}

func (b *BollingerBands) Name() string {
	return fmt.Sprintf("BollingerBands_%d_%.1f", b.period, b.stdDevMul)
}

func (b *BollingerBands) Warmup() int {
	return b.period - 1
}

func (b *BollingerBands) Calculate(bars []models.Bar) (BandSeries, error) {
	if b.period <= 0 {
		return BandSeries{}, apperrors.NewConfigError("period", b.period, "must be positive")
	}
	if b.stdDevMul <= 0 {
		return BandSeries{}, apperrors.NewConfigError("stdDevMul", b.stdDevMul, "must be positive")
	}
	if len(bars) < b.period {
		return BandSeries{}, apperrors.NewInsufficientDataError(b.Name(), b.period, len(bars))
	}

	closes := closePrices(bars)
	count := len(bars) - b.period + 1

	upper := make([]float64, count)
	middle := make([]float64, count)
	lower := make([]float64, count)

	for i := 0; i < count; i++ {
		window := closes[i : i+b.period]
		m := mean(window)
		sd := stdDev(window)

		middle[i] = m
		upper[i] = m + b.stdDevMul*sd
		lower[i] = m - b.stdDevMul*sd
	}

	return BandSeries{
		Start:  b.period - 1,
		Upper:  upper,
		Middle: middle,
		Lower:  lower,
	}, nil
}

// Components returns the bands as named suffix-aligned series.
func (b *BollingerBands) Components(bars []models.Bar) (map[string]Series, error) {
	res, err := b.Calculate(bars)
	if err != nil {
		return nil, err
	}
	return map[string]Series{
		"upper":  {Start: res.Start, Values: res.Upper},
		"middle": {Start: res.Start, Values: res.Middle},
		"lower":  {Start: res.Start, Values: res.Lower},
	}, nil
}
