package levels

import (
	"math"
	"testing"
	"time"

	apperrors "stock-analyst/internal/errors"
	"stock-analyst/internal/models"
)

// baseBars builds a flat series: every bar O=C=100, H=101, L=99. Flat
// neighbors can never be strict extrema, so spikes added by the caller
// are the only touches the detector can find.
func baseBars(n int) []models.Bar {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	for i := range bars {
		bars[i] = models.Bar{
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
			Open:      100,
			High:      101,
			Low:       99,
			Close:     100,
			Volume:    5000,
		}
	}
	return bars
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDetectThreeTouchLevel(t *testing.T) {
	bars := baseBars(30)
	for _, i := range []int{5, 14, 23} {
		bars[i].High = 110
	}

	d, err := NewDetector(DefaultConfig())
	if err != nil {
		t.Fatalf("NewDetector() error = %v", err)
	}
	got, err := d.Detect(bars)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("len(levels) = %d, want exactly 1", len(got))
	}
	lvl := got[0]
	if !almostEqual(lvl.Price, 110) {
		t.Errorf("Price = %v, want 110", lvl.Price)
	}
	if lvl.Role != RoleResistance {
		t.Errorf("Role = %s, want %s above the close", lvl.Role, RoleResistance)
	}
	if lvl.Touches != 3 {
		t.Errorf("Touches = %d, want 3", lvl.Touches)
	}
	if lvl.Strength < 3 {
		t.Errorf("Strength = %v, want >= 3 when every touch weighs at least 1", lvl.Strength)
	}
	if lvl.FirstTouch != 5 || lvl.LastTouch != 23 {
		t.Errorf("touch span = [%d, %d], want [5, 23]", lvl.FirstTouch, lvl.LastTouch)
	}
}

func TestDetectSplitsStraddlingCluster(t *testing.T) {
	bars := make([]models.Bar, 20)
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = models.Bar{
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
			Open:      100,
			High:      100.2,
			Low:       99.8,
			Close:     100,
			Volume:    5000,
		}
	}
	bars[5].High = 100.5
	bars[12].Low = 99.5

	// A tolerance wide enough to pull both touches into one cluster,
	// which straddles the close at 100 and must split.
	cfg := Config{Window: 2, Tolerance: 0.02, MinStrength: 1.0, RecencyBonus: 0.5}
	d, err := NewDetector(cfg)
	if err != nil {
		t.Fatalf("NewDetector() error = %v", err)
	}
	got, err := d.Detect(bars)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("len(levels) = %d, want a support/resistance pair", len(got))
	}
	if got[0].Role != RoleSupport || !almostEqual(got[0].Price, 99.5) {
		t.Errorf("levels[0] = %s @ %v, want SUPPORT @ 99.5", got[0].Role, got[0].Price)
	}
	if got[1].Role != RoleResistance || !almostEqual(got[1].Price, 100.5) {
		t.Errorf("levels[1] = %s @ %v, want RESISTANCE @ 100.5", got[1].Role, got[1].Price)
	}
}

func TestDetectLevelAtCloseIsResistance(t *testing.T) {
	bars := baseBars(30)
	bars[5].High = 110
	last := len(bars) - 1
	bars[last].Close = 110
	bars[last].High = 110.1

	cfg := DefaultConfig()
	cfg.MinStrength = 1.0
	d, err := NewDetector(cfg)
	if err != nil {
		t.Fatalf("NewDetector() error = %v", err)
	}
	got, err := d.Detect(bars)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("len(levels) = %d, want 1", len(got))
	}
	if got[0].Role != RoleResistance {
		t.Errorf("Role = %s, want %s for a level exactly at the close", got[0].Role, RoleResistance)
	}
}

func TestDetectMinStrengthFilter(t *testing.T) {
	bars := baseBars(30)
	bars[5].High = 110
	bars[14].High = 110
	bars[23].High = 120

	d, err := NewDetector(DefaultConfig())
	if err != nil {
		t.Fatalf("NewDetector() error = %v", err)
	}
	got, err := d.Detect(bars)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	// Two touches at 110 clear the 2.0 threshold; the lone touch at 120
	// does not.
	if len(got) != 1 {
		t.Fatalf("len(levels) = %d, want 1 after strength filtering", len(got))
	}
	if !almostEqual(got[0].Price, 110) {
		t.Errorf("Price = %v, want 110", got[0].Price)
	}
	if got[0].Touches != 2 {
		t.Errorf("Touches = %d, want 2", got[0].Touches)
	}
}

func TestDetectRecentTouchesWeighMore(t *testing.T) {
	bars := baseBars(30)
	bars[5].High = 110
	bars[23].High = 130

	cfg := DefaultConfig()
	cfg.MinStrength = 1.0
	d, err := NewDetector(cfg)
	if err != nil {
		t.Fatalf("NewDetector() error = %v", err)
	}
	got, err := d.Detect(bars)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("len(levels) = %d, want 2", len(got))
	}
	// Same touch count, but the later touch must score higher.
	if got[1].Strength <= got[0].Strength {
		t.Errorf("recent touch strength %v should exceed older touch strength %v",
			got[1].Strength, got[0].Strength)
	}
}

func TestDetectInsufficientData(t *testing.T) {
	d, err := NewDetector(DefaultConfig())
	if err != nil {
		t.Fatalf("NewDetector() error = %v", err)
	}

	_, err = d.Detect(baseBars(10))
	if !apperrors.Is(err, apperrors.ErrInsufficientData) {
		t.Fatalf("Detect() error = %v, want ErrInsufficientData", err)
	}
	var ide *apperrors.InsufficientDataError
	if !apperrors.As(err, &ide) {
		t.Fatalf("error %v is not an InsufficientDataError", err)
	}
	if ide.Required != 11 || ide.Actual != 10 {
		t.Errorf("required/actual = %d/%d, want 11/10", ide.Required, ide.Actual)
	}
}

func TestDetectNoExtrema(t *testing.T) {
	d, err := NewDetector(DefaultConfig())
	if err != nil {
		t.Fatalf("NewDetector() error = %v", err)
	}
	got, err := d.Detect(baseBars(30))
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len(levels) = %d, want 0 on a flat series", len(got))
	}
}

func TestNewDetectorValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero window", mutate: func(c *Config) { c.Window = 0 }},
		{name: "zero tolerance", mutate: func(c *Config) { c.Tolerance = 0 }},
		{name: "negative tolerance", mutate: func(c *Config) { c.Tolerance = -0.01 }},
		{name: "negative min strength", mutate: func(c *Config) { c.MinStrength = -1 }},
		{name: "negative recency bonus", mutate: func(c *Config) { c.RecencyBonus = -0.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := NewDetector(cfg); !apperrors.Is(err, apperrors.ErrConfiguration) {
				t.Errorf("NewDetector() error = %v, want ErrConfiguration", err)
			}
		})
	}
}

func TestNearest(t *testing.T) {
	lvls := []Level{
		{Price: 90, Role: RoleSupport},
		{Price: 95, Role: RoleSupport},
		{Price: 105, Role: RoleResistance},
		{Price: 120, Role: RoleResistance},
	}

	support, resistance := Nearest(lvls, 100)
	if support == nil || support.Price != 95 {
		t.Errorf("support = %+v, want the level at 95", support)
	}
	if resistance == nil || resistance.Price != 105 {
		t.Errorf("resistance = %+v, want the level at 105", resistance)
	}

	support, resistance = Nearest(lvls[2:], 100)
	if support != nil {
		t.Errorf("support = %+v, want nil with no support levels", support)
	}
	if resistance == nil {
		t.Error("resistance = nil, want the level at 105")
	}

	support, resistance = Nearest(nil, 100)
	if support != nil || resistance != nil {
		t.Error("Nearest(nil) should return nil for both sides")
	}
}
