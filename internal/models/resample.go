package models

import (
	apperrors "stock-analyst/internal/errors"
)

// Resample aggregates the series into a coarser interval of factor times the
// nominal one. Bars are grouped into fixed time buckets anchored at whole
// multiples of the new interval; each bucket becomes one bar with the first
// open, highest high, lowest low, last close and summed volume. Buckets with
// no bars become plain gaps, so the result is again a valid Series.
func (s *Series) Resample(factor int) (*Series, error) {
	if factor < 1 {
		return nil, apperrors.NewConfigError("factor", factor, "must be at least 1")
	}
	if factor == 1 {
		return NewSeries(s.Symbol, s.Interval, s.Bars)
	}

	coarse := Interval(int64(s.Interval) * int64(factor))
	bucket := coarse.Duration()

	var out []Bar
	for _, bar := range s.Bars {
		start := bar.Timestamp.Truncate(bucket)
		if len(out) > 0 && out[len(out)-1].Timestamp.Equal(start) {
			last := &out[len(out)-1]
			if bar.High > last.High {
				last.High = bar.High
			}
			if bar.Low < last.Low {
				last.Low = bar.Low
			}
			last.Close = bar.Close
			last.Volume += bar.Volume
			continue
		}
		out = append(out, Bar{
			Timestamp: start,
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			Volume:    bar.Volume,
		})
	}

	return NewSeries(s.Symbol, coarse, out)
}
