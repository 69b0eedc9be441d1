package features

import (
	"math"
	"testing"
	"time"

	apperrors "stock-analyst/internal/errors"
	"stock-analyst/internal/models"
)

func flatBars(n int) []models.Bar {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	for i := range bars {
		bars[i] = models.Bar{
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
			Open:      100,
			High:      101,
			Low:       99,
			Close:     100,
			Volume:    1000,
		}
	}
	return bars
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSchemaStableAcrossBuilders(t *testing.T) {
	first, err := NewBuilder(DefaultConfig())
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}
	second, err := NewBuilder(DefaultConfig())
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}

	if !first.Schema().Equal(second.Schema()) {
		t.Errorf("schemas differ for identical configs: %s vs %s",
			first.Schema().Hash(), second.Schema().Hash())
	}
	if first.Schema().Size() != 16 {
		t.Errorf("Size() = %d, want 16", first.Schema().Size())
	}
	if len(first.Schema().Hash()) != 16 {
		t.Errorf("Hash() length = %d, want 16 hex chars", len(first.Schema().Hash()))
	}
}

func TestSchemaChangesWithConfig(t *testing.T) {
	base, err := NewBuilder(DefaultConfig())
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}

	cfg := DefaultConfig()
	cfg.RSIPeriod = 21
	changed, err := NewBuilder(cfg)
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}

	if base.Schema().Equal(changed.Schema()) {
		t.Error("changing a period must change the schema hash")
	}
}

func TestTrainingAndInferenceSchemasMatch(t *testing.T) {
	b, err := NewBuilder(DefaultConfig())
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}
	bars := flatBars(60)

	labeled, err := b.BuildLabeled(bars)
	if err != nil {
		t.Fatalf("BuildLabeled() error = %v", err)
	}
	inference, err := b.Build(bars)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if len(labeled) == 0 {
		t.Fatal("BuildLabeled() produced no vectors")
	}
	if len(labeled[0].Values) != b.Schema().Size() || len(inference.Values) != b.Schema().Size() {
		t.Errorf("vector widths %d/%d, want schema size %d",
			len(labeled[0].Values), len(inference.Values), b.Schema().Size())
	}
}

func TestBuildFlatSeriesValues(t *testing.T) {
	b, err := NewBuilder(DefaultConfig())
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}

	vec, err := b.Build(flatBars(60))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if vec.BarIndex != 59 {
		t.Errorf("BarIndex = %d, want 59", vec.BarIndex)
	}
	if vec.Labeled {
		t.Error("inference vector must not carry a label")
	}

	// On a flat series every field has a closed-form value. RSI pins at
	// 100 under the zero-average-loss convention, so the scaled field is 1.
	want := []float64{
		0,    // log_return_1
		0,    // log_return_3
		0,    // log_return_5
		1,    // rsi
		0,    // macd_line
		0,    // macd_hist
		0,    // sma_gap_short
		0,    // sma_gap_long
		0.5,  // bb_pctb, degenerate band centers
		0,    // bb_width
		1,    // volume_ratio
		0,    // volatility
		0.02, // atr_ratio, constant true range 2 over close 100
		0,    // body_frac
		0.5,  // upper_wick_frac
		0.5,  // lower_wick_frac
	}
	if len(vec.Values) != len(want) {
		t.Fatalf("len(Values) = %d, want %d", len(vec.Values), len(want))
	}
	for i, name := range b.Schema().Names() {
		if !almostEqual(vec.Values[i], want[i]) {
			t.Errorf("%s = %v, want %v", name, vec.Values[i], want[i])
		}
	}
}

func TestBuildLabeledForwardReturns(t *testing.T) {
	bars := flatBars(60)
	// One 2% jump right after the first eligible bar gives that vector a
	// non-zero label.
	b, err := NewBuilder(DefaultConfig())
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}
	jumpAt := b.Warmup() + 1
	for i := jumpAt; i < len(bars); i++ {
		bars[i].Open, bars[i].Close = 102, 102
		bars[i].High, bars[i].Low = 103, 101
	}

	vectors, err := b.BuildLabeled(bars)
	if err != nil {
		t.Fatalf("BuildLabeled() error = %v", err)
	}

	if got := vectors[0].BarIndex; got != b.Warmup() {
		t.Fatalf("first BarIndex = %d, want %d", got, b.Warmup())
	}
	if got := vectors[len(vectors)-1].BarIndex; got != len(bars)-2 {
		t.Fatalf("last BarIndex = %d, want %d (horizon bar must exist)", got, len(bars)-2)
	}
	if !vectors[0].Labeled {
		t.Fatal("training vectors must be labeled")
	}
	if !almostEqual(vectors[0].Label, 0.02) {
		t.Errorf("Label = %v, want 0.02", vectors[0].Label)
	}
	if !almostEqual(vectors[1].Label, 0) {
		t.Errorf("Label after the jump = %v, want 0", vectors[1].Label)
	}
}

func TestBuildInsufficientData(t *testing.T) {
	b, err := NewBuilder(DefaultConfig())
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}

	_, err = b.Build(flatBars(b.Warmup()))
	if !apperrors.Is(err, apperrors.ErrInsufficientData) {
		t.Fatalf("Build() error = %v, want ErrInsufficientData", err)
	}
	var ide *apperrors.InsufficientDataError
	if !apperrors.As(err, &ide) {
		t.Fatalf("error %v is not an InsufficientDataError", err)
	}
	if ide.Required != b.Warmup()+1 {
		t.Errorf("Required = %d, want %d", ide.Required, b.Warmup()+1)
	}

	// Labeling needs the horizon bar on top of the warm-up.
	_, err = b.BuildLabeled(flatBars(b.Warmup() + 1))
	if !apperrors.Is(err, apperrors.ErrInsufficientData) {
		t.Errorf("BuildLabeled() error = %v, want ErrInsufficientData", err)
	}
}

func TestBuildAllCoversEligibleBars(t *testing.T) {
	b, err := NewBuilder(DefaultConfig())
	if err != nil {
		t.Fatalf("NewBuilder() error = %v", err)
	}
	bars := flatBars(70)

	vectors, err := b.BuildAll(bars)
	if err != nil {
		t.Fatalf("BuildAll() error = %v", err)
	}
	if len(vectors) != len(bars)-b.Warmup() {
		t.Fatalf("len(vectors) = %d, want %d", len(vectors), len(bars)-b.Warmup())
	}
	for i, v := range vectors {
		if v.BarIndex != b.Warmup()+i {
			t.Fatalf("vectors[%d].BarIndex = %d, want %d", i, v.BarIndex, b.Warmup()+i)
		}
		if v.Labeled {
			t.Fatal("BuildAll() vectors must be unlabeled")
		}
	}
}

func TestNewBuilderValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero rsi period", mutate: func(c *Config) { c.RSIPeriod = 0 }},
		{name: "short above long", mutate: func(c *Config) { c.ShortPeriod, c.LongPeriod = 50, 20 }},
		{name: "macd fast above slow", mutate: func(c *Config) { c.MACDFast, c.MACDSlow = 26, 12 }},
		{name: "zero band width", mutate: func(c *Config) { c.BollingerStdDev = 0 }},
		{name: "volatility window too small", mutate: func(c *Config) { c.VolatilityWindow = 1 }},
		{name: "zero horizon", mutate: func(c *Config) { c.Horizon = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := NewBuilder(cfg); !apperrors.Is(err, apperrors.ErrConfiguration) {
				t.Errorf("NewBuilder() error = %v, want ErrConfiguration", err)
			}
		})
	}
}
