package indicators

import (
	"fmt"

	apperrors "stock-analyst/internal/errors"
	"stock-analyst/internal/models"
)

// RSI calculates the Relative Strength Index with Wilder smoothing.
// Convention: a zero average loss reports RSI = 100, which includes a
// perfectly flat window (no gains and no losses).
type RSI struct {
	period int
}

// NewRSI creates a new RSI indicator.
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

func (r *RSI) Name() string {
	return fmt.Sprintf("RSI_%d", r.period)
}

func (r *RSI) Period() int {
	return r.period
}

func (r *RSI) Warmup() int {
	return r.period
}

func (r *RSI) Calculate(bars []models.Bar) (Series, error) {
	if r.period <= 0 {
		return Series{}, apperrors.NewConfigError("period", r.period, "must be positive")
	}
	if len(bars) < r.period+1 {
		return Series{}, apperrors.NewInsufficientDataError(r.Name(), r.period+1, len(bars))
	}

	n := len(bars)
	closes := closePrices(bars)

	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	values := make([]float64, n-r.period)

	// First averages are simple means, then Wilder smoothing takes over.
	avgGain := mean(gains[1 : r.period+1])
	avgLoss := mean(losses[1 : r.period+1])
	values[0] = rsiValue(avgGain, avgLoss)

	for i := r.period + 1; i < n; i++ {
		avgGain = (avgGain*float64(r.period-1) + gains[i]) / float64(r.period)
		avgLoss = (avgLoss*float64(r.period-1) + losses[i]) / float64(r.period)
		values[i-r.period] = rsiValue(avgGain, avgLoss)
	}

	return Series{Start: r.period, Values: values}, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}
