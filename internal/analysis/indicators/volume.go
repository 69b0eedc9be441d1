package indicators

import (
	"fmt"

	apperrors "stock-analyst/internal/errors"
	"stock-analyst/internal/models"
)

// VolumeSMA calculates the simple moving average of volume. Used as the
// denominator for relative-volume readings.
type VolumeSMA struct {
	period int
}

// NewVolumeSMA creates a new volume SMA indicator.
func NewVolumeSMA(period int) *VolumeSMA {
	return &VolumeSMA{period: period}
}

func (v *VolumeSMA) Name() string {
	return fmt.Sprintf("VolumeSMA_%d", v.period)
}

func (v *VolumeSMA) Period() int {
	return v.period
}

func (v *VolumeSMA) Warmup() int {
	return v.period - 1
}

func (v *VolumeSMA) Calculate(bars []models.Bar) (Series, error) {
	if v.period <= 0 {
		return Series{}, apperrors.NewConfigError("period", v.period, "must be positive")
	}
	if len(bars) < v.period {
		return Series{}, apperrors.NewInsufficientDataError(v.Name(), v.period, len(bars))
	}

	vols := make([]float64, len(bars))
	for i, b := range bars {
		vols[i] = float64(b.Volume)
	}

	values := make([]float64, len(bars)-v.period+1)
	for i := range values {
		values[i] = mean(vols[i : i+v.period])
	}

	return Series{Start: v.period - 1, Values: values}, nil
}
