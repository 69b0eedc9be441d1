package indicators

import (
	apperrors "stock-analyst/internal/errors"
	"stock-analyst/internal/models"
)

// PivotPoints calculates classic floor-trader pivot rails. Each bar's rails
// derive from the previous bar's high/low/close, so the series starts at
// index 1.
type PivotPoints struct{}

// NewPivotPoints creates a new pivot points indicator.
func NewPivotPoints() *PivotPoints {
	return &PivotPoints{}
}

func (p *PivotPoints) Name() string {
	return "PivotPoints"
}

func (p *PivotPoints) Warmup() int {
	return 1
}

func (p *PivotPoints) Calculate(bars []models.Bar) (PivotSeries, error) {
	if len(bars) < 2 {
		return PivotSeries{}, apperrors.NewInsufficientDataError(p.Name(), 2, len(bars))
	}

	count := len(bars) - 1
	res := PivotSeries{
		Start: 1,
		Pivot: make([]float64, count),
		R1:    make([]float64, count),
		R2:    make([]float64, count),
		R3:    make([]float64, count),
		S1:    make([]float64, count),
		S2:    make([]float64, count),
		S3:    make([]float64, count),
	}

	for i := 1; i < len(bars); i++ {
		h, l, c := bars[i-1].High, bars[i-1].Low, bars[i-1].Close
		pivot := (h + l + c) / 3

		j := i - 1
		res.Pivot[j] = pivot
		res.R1[j] = 2*pivot - l
		res.R2[j] = pivot + (h - l)
		res.R3[j] = h + 2*(pivot-l)
		res.S1[j] = 2*pivot - h
		res.S2[j] = pivot - (h - l)
		res.S3[j] = l - 2*(h-pivot)
	}

	return res, nil
}

// Components returns the pivot rails as named suffix-aligned series.
func (p *PivotPoints) Components(bars []models.Bar) (map[string]Series, error) {
	res, err := p.Calculate(bars)
	if err != nil {
		return nil, err
	}
	return map[string]Series{
		"pivot": {Start: res.Start, Values: res.Pivot},
		"r1":    {Start: res.Start, Values: res.R1},
		"r2":    {Start: res.Start, Values: res.R2},
		"r3":    {Start: res.Start, Values: res.R3},
		"s1":    {Start: res.Start, Values: res.S1},
		"s2":    {Start: res.Start, Values: res.S2},
		"s3":    {Start: res.Start, Values: res.S3},
	}, nil
}

// Latest computes the rails for the bar that would follow the last one in
// the series, for display against live prices.
func (p *PivotPoints) Latest(bars []models.Bar) (map[string]float64, error) {
	if len(bars) == 0 {
		return nil, apperrors.NewInsufficientDataError(p.Name(), 1, 0)
	}
	last := bars[len(bars)-1]
	pivot := (last.High + last.Low + last.Close) / 3
	return map[string]float64{
		"pivot": pivot,
		"r1":    2*pivot - last.Low,
		"r2":    pivot + (last.High - last.Low),
		"r3":    last.High + 2*(pivot-last.Low),
		"s1":    2*pivot - last.High,
		"s2":    pivot - (last.High - last.Low),
		"s3":    last.Low - 2*(last.High-pivot),
	}, nil
}
