package scoring

import (
	"math"
	"strings"
	"testing"

	"stock-analyst/internal/analysis/levels"
	"stock-analyst/internal/analysis/predict"
	"stock-analyst/internal/analysis/trend"
	apperrors "stock-analyst/internal/errors"
)

func mustAggregator(t *testing.T, cfg Config) *Aggregator {
	t.Helper()
	a, err := NewAggregator(cfg)
	if err != nil {
		t.Fatalf("NewAggregator() error = %v", err)
	}
	return a
}

func upTrend(strength float64) *trend.Assessment {
	return &trend.Assessment{Direction: trend.DirectionUp, Strength: strength}
}

func downTrend(strength float64) *trend.Assessment {
	return &trend.Assessment{Direction: trend.DirectionDown, Strength: strength}
}

func bullishPrediction(confidence float64) *predict.Prediction {
	return &predict.Prediction{Estimate: 0.01, Direction: 1, Confidence: confidence, Horizon: 1, ModelVersion: "rf-test"}
}

func bearishPrediction(confidence float64) *predict.Prediction {
	return &predict.Prediction{Estimate: -0.01, Direction: -1, Confidence: confidence, Horizon: 1, ModelVersion: "rf-test"}
}

func TestAggregateBuyOnAlignedBullishSignals(t *testing.T) {
	a := mustAggregator(t, DefaultConfig())

	rec := a.Aggregate(Inputs{
		Trend: upTrend(0.6),
		Levels: []levels.Level{
			{Price: 99, Role: levels.RoleSupport, Strength: 3},
			{Price: 120, Role: levels.RoleResistance, Strength: 3},
		},
		Prediction: bullishPrediction(0.8),
		LastClose:  100,
	})

	if rec.Verdict != VerdictBuy {
		t.Fatalf("Verdict = %s, want BUY", rec.Verdict)
	}
	if rec.Score != 1 {
		t.Errorf("Score = %v, want 1 for unanimous bullish signals", rec.Score)
	}

	sources := make(map[Source]Signal, len(rec.Signals))
	for _, s := range rec.Signals {
		sources[s.Source] = s
	}
	if len(rec.Signals) != 3 {
		t.Errorf("got %d signals, want trend+support+prediction", len(rec.Signals))
	}
	if _, ok := sources[SourceResistance]; ok {
		t.Error("resistance 20% above close must not contribute inside a 3% band")
	}
	if s := sources[SourceSupport]; s.Polarity != 1 {
		t.Errorf("support polarity = %d, want +1", s.Polarity)
	}
}

func TestAggregateBuyEvenWhenSignalsAreWeak(t *testing.T) {
	a := mustAggregator(t, DefaultConfig())

	// Normalization makes agreement decisive no matter how faint the
	// individual votes are.
	rec := a.Aggregate(Inputs{
		Trend:      upTrend(0.05),
		Prediction: bullishPrediction(0.05),
		LastClose:  100,
	})

	if rec.Verdict != VerdictBuy {
		t.Errorf("Verdict = %s, want BUY", rec.Verdict)
	}
	if rec.Score != 1 {
		t.Errorf("Score = %v, want 1", rec.Score)
	}
}

func TestAggregateHoldWhenAllNeutral(t *testing.T) {
	a := mustAggregator(t, DefaultConfig())

	rec := a.Aggregate(Inputs{
		Trend:      &trend.Assessment{Direction: trend.DirectionSideways, Strength: 0.4},
		Prediction: &predict.Prediction{Direction: 0, Confidence: 0.5, Horizon: 1},
		LastClose:  100,
	})

	if rec.Verdict != VerdictHold {
		t.Fatalf("Verdict = %s, want HOLD", rec.Verdict)
	}
	if rec.Score != 0 {
		t.Errorf("Score = %v, want 0", rec.Score)
	}
	if len(rec.Signals) != 2 {
		t.Errorf("got %d signals, want the neutral breakdown preserved", len(rec.Signals))
	}
}

func TestAggregateSellOnAlignedBearishSignals(t *testing.T) {
	a := mustAggregator(t, DefaultConfig())

	rec := a.Aggregate(Inputs{
		Trend: downTrend(0.7),
		Levels: []levels.Level{
			{Price: 101, Role: levels.RoleResistance, Strength: 4},
		},
		Prediction: bearishPrediction(0.9),
		LastClose:  100,
	})

	if rec.Verdict != VerdictSell {
		t.Fatalf("Verdict = %s, want SELL", rec.Verdict)
	}
	if rec.Score != -1 {
		t.Errorf("Score = %v, want -1", rec.Score)
	}
}

func TestAggregateExactThresholdHolds(t *testing.T) {
	a := mustAggregator(t, DefaultConfig())

	// 0.40 - 0.25 - 0.35 over a total of 1.0 lands exactly on the sell
	// threshold, which stays hold.
	rec := a.Aggregate(Inputs{
		Trend: upTrend(1),
		Levels: []levels.Level{
			{Price: 100, Role: levels.RoleResistance, Strength: 2},
		},
		Prediction: bearishPrediction(1),
		LastClose:  100,
	})

	if math.Abs(rec.Score - -0.2) > 1e-12 {
		t.Fatalf("Score = %v, want -0.2", rec.Score)
	}
	if rec.Verdict != VerdictHold {
		t.Errorf("Verdict = %s, want HOLD on an exact threshold hit", rec.Verdict)
	}
}

func TestAggregateProximityBand(t *testing.T) {
	a := mustAggregator(t, DefaultConfig())

	tests := []struct {
		name       string
		level      levels.Level
		wantSignal bool
		wantWeight float64
	}{
		{
			name:       "resistance 2% above contributes a third of the level weight",
			level:      levels.Level{Price: 102, Role: levels.RoleResistance, Strength: 2},
			wantSignal: true,
			wantWeight: 0.25 * (1 - 0.02/0.03),
		},
		{
			name:       "resistance 4% above is outside the band",
			level:      levels.Level{Price: 104, Role: levels.RoleResistance, Strength: 2},
			wantSignal: false,
		},
		{
			name:       "support at the band edge contributes zero weight",
			level:      levels.Level{Price: 97, Role: levels.RoleSupport, Strength: 2},
			wantSignal: true,
			wantWeight: 0,
		},
		{
			name:       "support at the close carries the full level weight",
			level:      levels.Level{Price: 99.999999, Role: levels.RoleSupport, Strength: 2},
			wantSignal: true,
			wantWeight: 0.25,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.Aggregate(Inputs{Levels: []levels.Level{tt.level}, LastClose: 100})

			if !tt.wantSignal {
				if len(rec.Signals) != 0 {
					t.Fatalf("got %d signals, want none", len(rec.Signals))
				}
				return
			}
			if len(rec.Signals) != 1 {
				t.Fatalf("got %d signals, want 1", len(rec.Signals))
			}
			if got := rec.Signals[0].Weight; math.Abs(got-tt.wantWeight) > 1e-6 {
				t.Errorf("Weight = %v, want %v", got, tt.wantWeight)
			}
		})
	}
}

func TestAggregateUsesNearestLevelPerSide(t *testing.T) {
	a := mustAggregator(t, DefaultConfig())

	// The far support would be outside the band anyway; the near one wins
	// and contributes alone.
	rec := a.Aggregate(Inputs{
		Levels: []levels.Level{
			{Price: 92, Role: levels.RoleSupport, Strength: 9},
			{Price: 99, Role: levels.RoleSupport, Strength: 2},
		},
		LastClose: 100,
	})

	if len(rec.Signals) != 1 {
		t.Fatalf("got %d signals, want 1", len(rec.Signals))
	}
	s := rec.Signals[0]
	if s.Source != SourceSupport || s.Polarity != 1 {
		t.Errorf("signal = %+v, want a bullish support vote", s)
	}
	if !strings.Contains(s.Detail, "99.00") {
		t.Errorf("Detail = %q, want the nearest level's price", s.Detail)
	}
}

func TestAggregateEmptyInputs(t *testing.T) {
	a := mustAggregator(t, DefaultConfig())

	rec := a.Aggregate(Inputs{})
	if rec.Verdict != VerdictHold || rec.Score != 0 {
		t.Errorf("Verdict/Score = %s/%v, want HOLD/0", rec.Verdict, rec.Score)
	}
	if rec.Signals == nil || len(rec.Signals) != 0 {
		t.Errorf("Signals = %v, want an empty breakdown", rec.Signals)
	}
}

func TestAggregateUnknownTrendHasNoPull(t *testing.T) {
	a := mustAggregator(t, DefaultConfig())

	rec := a.Aggregate(Inputs{
		Trend:      &trend.Assessment{Direction: trend.DirectionUnknown},
		Prediction: bullishPrediction(0.4),
		LastClose:  100,
	})

	if rec.Verdict != VerdictBuy {
		t.Errorf("Verdict = %s, want BUY driven by the prediction alone", rec.Verdict)
	}
	for _, s := range rec.Signals {
		if s.Source == SourceTrend && s.Weight != 0 {
			t.Errorf("unknown trend weight = %v, want 0", s.Weight)
		}
	}
}

func TestNewAggregatorValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "negative weight", mutate: func(c *Config) { c.Weights.Trend = -0.1 }},
		{name: "all weights zero", mutate: func(c *Config) { c.Weights = Weights{} }},
		{name: "zero buy threshold", mutate: func(c *Config) { c.BuyThreshold = 0 }},
		{name: "positive sell threshold", mutate: func(c *Config) { c.SellThreshold = 0.1 }},
		{name: "zero proximity", mutate: func(c *Config) { c.Proximity = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := NewAggregator(cfg); !apperrors.Is(err, apperrors.ErrConfiguration) {
				t.Errorf("NewAggregator() error = %v, want ErrConfiguration", err)
			}
		})
	}
}
