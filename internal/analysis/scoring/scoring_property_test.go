package scoring

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"stock-analyst/internal/analysis/levels"
	"stock-analyst/internal/analysis/predict"
	"stock-analyst/internal/analysis/trend"
)

// inputsGen produces arbitrary component outputs around a close of 100:
// any trend direction and strength, a support and a resistance that may or
// may not sit inside the proximity band, and a prediction of any sign.
func inputsGen() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf(trend.DirectionUnknown, trend.DirectionUp, trend.DirectionDown, trend.DirectionSideways),
		gen.Float64Range(0, 0.99),
		gen.Float64Range(80, 99.99),
		gen.Float64Range(100, 120),
		gen.IntRange(-1, 1),
		gen.Float64Range(0, 1),
	).Map(func(values []interface{}) Inputs {
		return Inputs{
			Trend: &trend.Assessment{
				Direction: values[0].(trend.Direction),
				Strength:  values[1].(float64),
			},
			Levels: []levels.Level{
				{Price: values[2].(float64), Role: levels.RoleSupport, Strength: 2},
				{Price: values[3].(float64), Role: levels.RoleResistance, Strength: 2},
			},
			Prediction: &predict.Prediction{
				Estimate:   float64(values[4].(int)) * 0.01,
				Direction:  values[4].(int),
				Confidence: values[5].(float64),
				Horizon:    1,
			},
			LastClose: 100,
		}
	})
}

func TestProperty_ScoreWithinBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	a, err := NewAggregator(DefaultConfig())
	if err != nil {
		t.Fatalf("NewAggregator() error = %v", err)
	}

	properties.Property("normalized score stays within [-1, 1]", prop.ForAll(
		func(in Inputs) bool {
			rec := a.Aggregate(in)
			return rec.Score >= -1 && rec.Score <= 1
		},
		inputsGen(),
	))

	properties.Property("every signal has a sane polarity and weight", prop.ForAll(
		func(in Inputs) bool {
			rec := a.Aggregate(in)
			if rec.Signals == nil {
				return false
			}
			for _, s := range rec.Signals {
				if s.Polarity < -1 || s.Polarity > 1 {
					return false
				}
				if s.Weight < 0 {
					return false
				}
				if s.Detail == "" {
					return false
				}
			}
			return true
		},
		inputsGen(),
	))

	properties.TestingRun(t)
}

func TestProperty_VerdictMatchesThresholds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	cfg := DefaultConfig()
	a, err := NewAggregator(cfg)
	if err != nil {
		t.Fatalf("NewAggregator() error = %v", err)
	}

	properties.Property("verdict is a pure function of the score", prop.ForAll(
		func(in Inputs) bool {
			rec := a.Aggregate(in)
			switch {
			case rec.Score > cfg.BuyThreshold:
				return rec.Verdict == VerdictBuy
			case rec.Score < cfg.SellThreshold:
				return rec.Verdict == VerdictSell
			default:
				return rec.Verdict == VerdictHold
			}
		},
		inputsGen(),
	))

	properties.TestingRun(t)
}

func TestProperty_UnanimousBullishSignalsBuy(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	a, err := NewAggregator(DefaultConfig())
	if err != nil {
		t.Fatalf("NewAggregator() error = %v", err)
	}

	properties.Property("uptrend with clear air above and a bullish model buys", prop.ForAll(
		func(strength, confidence, resistancePrice float64) bool {
			rec := a.Aggregate(Inputs{
				Trend: &trend.Assessment{Direction: trend.DirectionUp, Strength: strength},
				Levels: []levels.Level{
					{Price: resistancePrice, Role: levels.RoleResistance, Strength: 2},
				},
				Prediction: &predict.Prediction{Estimate: 0.01, Direction: 1, Confidence: confidence, Horizon: 1},
				LastClose:  100,
			})
			return rec.Verdict == VerdictBuy && rec.Score == 1
		},
		gen.Float64Range(0.01, 0.99),
		gen.Float64Range(0.01, 1),
		gen.Float64Range(104, 200),
	))

	properties.TestingRun(t)
}

func TestProperty_AggregateIsDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	a, err := NewAggregator(DefaultConfig())
	if err != nil {
		t.Fatalf("NewAggregator() error = %v", err)
	}

	properties.Property("identical inputs produce identical recommendations", prop.ForAll(
		func(in Inputs) bool {
			first := a.Aggregate(in)
			second := a.Aggregate(in)
			if first.Verdict != second.Verdict || first.Score != second.Score {
				return false
			}
			if len(first.Signals) != len(second.Signals) {
				return false
			}
			for i := range first.Signals {
				if first.Signals[i] != second.Signals[i] {
					return false
				}
			}
			return true
		},
		inputsGen(),
	))

	properties.TestingRun(t)
}
