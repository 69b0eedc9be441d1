package indicators

// Series holds indicator values aligned to a suffix of the source bars.
// Start is the index of the first source bar that has a value, so
// Values[i] belongs to bar Start+i and len(Values) == len(bars) − Start.
// Warm-up bars have no element at all; a Series returned by an indicator
// is never empty.
type Series struct {
	Start  int       `json:"start"`
	Values []float64 `json:"values"`
}

// Len returns the number of defined values.
func (s Series) Len() int {
	return len(s.Values)
}

// Last returns the most recent value.
func (s Series) Last() float64 {
	return s.Values[len(s.Values)-1]
}

// At returns the value aligned to the given source bar index, and whether
// the indicator is defined there.
func (s Series) At(barIndex int) (float64, bool) {
	i := barIndex - s.Start
	if i < 0 || i >= len(s.Values) {
		return 0, false
	}
	return s.Values[i], true
}

// MACDSeries holds the MACD line, signal line and histogram, all aligned at
// one shared Start so every element carries the full tuple.
type MACDSeries struct {
	Start     int
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// Len returns the number of defined tuples.
func (m MACDSeries) Len() int {
	return len(m.Histogram)
}

// LastHistogram returns the most recent histogram value.
func (m MACDSeries) LastHistogram() float64 {
	return m.Histogram[len(m.Histogram)-1]
}

// BandSeries holds Bollinger-style upper/middle/lower bands sharing one Start.
type BandSeries struct {
	Start  int
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// Len returns the number of defined tuples.
func (b BandSeries) Len() int {
	return len(b.Middle)
}

// PivotSeries holds floor-trader pivot rails derived from each prior bar,
// sharing one Start.
type PivotSeries struct {
	Start int
	Pivot []float64
	R1    []float64
	R2    []float64
	R3    []float64
	S1    []float64
	S2    []float64
	S3    []float64
}

// Len returns the number of defined tuples.
func (p PivotSeries) Len() int {
	return len(p.Pivot)
}
