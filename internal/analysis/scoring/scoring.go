// Package scoring combines trend, level and prediction signals into one
// advisory verdict with an auditable breakdown.
package scoring

import (
	"fmt"

	"stock-analyst/internal/analysis/levels"
	"stock-analyst/internal/analysis/predict"
	"stock-analyst/internal/analysis/trend"
	apperrors "stock-analyst/internal/errors"
)

// Verdict is the aggregator's advisory outcome.
type Verdict string

const (
	VerdictBuy  Verdict = "BUY"
	VerdictHold Verdict = "HOLD"
	VerdictSell Verdict = "SELL"
)

// Source names the component a signal came from.
type Source string

const (
	SourceTrend      Source = "trend"
	SourceSupport    Source = "support"
	SourceResistance Source = "resistance"
	SourcePrediction Source = "prediction"
)

// Signal is one component's vote: a polarity (+1 bullish, -1 bearish,
// 0 neutral), a non-negative weight, and a human-readable detail.
type Signal struct {
	Source   Source  `json:"source"`
	Polarity int     `json:"polarity"`
	Weight   float64 `json:"weight"`
	Detail   string  `json:"detail"`
}

// Weights sets how much each component's vote counts.
type Weights struct {
	Trend      float64
	Levels     float64
	Prediction float64
}

// DefaultWeights returns the standard component weighting.
func DefaultWeights() Weights {
	return Weights{
		Trend:      0.40,
		Levels:     0.25,
		Prediction: 0.35,
	}
}

// Config holds the aggregator's weights, verdict thresholds and the
// price band within which a level counts as nearby.
type Config struct {
	Weights Weights

	// BuyThreshold and SellThreshold bound the hold zone. The score is
	// the weight-normalized vote in [-1, 1]; a score exactly on a
	// threshold stays hold.
	BuyThreshold  float64
	SellThreshold float64

	// Proximity is the relative distance from the close within which a
	// level contributes, e.g. 0.03 for 3%.
	Proximity float64
}

// DefaultConfig returns the standard thresholds and a 3% proximity band.
func DefaultConfig() Config {
	return Config{
		Weights:       DefaultWeights(),
		BuyThreshold:  0.20,
		SellThreshold: -0.20,
		Proximity:     0.03,
	}
}

// Inputs carries the component outputs one aggregation reads. Nil members
// simply contribute no signal.
type Inputs struct {
	Trend      *trend.Assessment
	Levels     []levels.Level
	Prediction *predict.Prediction

	// LastClose anchors level proximity.
	LastClose float64
}

// Recommendation is the verdict plus every signal that shaped it.
type Recommendation struct {
	Verdict Verdict  `json:"verdict"`
	Score   float64  `json:"score"`
	Signals []Signal `json:"signals"`
}

// Aggregator turns component outputs into a recommendation.
type Aggregator struct {
	cfg Config
}

// NewAggregator validates the configuration and returns an aggregator.
func NewAggregator(cfg Config) (*Aggregator, error) {
	if cfg.Weights.Trend < 0 || cfg.Weights.Levels < 0 || cfg.Weights.Prediction < 0 {
		return nil, apperrors.NewConfigError("scoring.weights", cfg.Weights, "weights must be non-negative")
	}
	if cfg.Weights.Trend+cfg.Weights.Levels+cfg.Weights.Prediction == 0 {
		return nil, apperrors.NewConfigError("scoring.weights", cfg.Weights, "at least one weight must be positive")
	}
	if cfg.BuyThreshold <= 0 {
		return nil, apperrors.NewConfigError("scoring.buyThreshold", cfg.BuyThreshold, "buy threshold must be positive")
	}
	if cfg.SellThreshold >= 0 {
		return nil, apperrors.NewConfigError("scoring.sellThreshold", cfg.SellThreshold, "sell threshold must be negative")
	}
	if cfg.Proximity <= 0 {
		return nil, apperrors.NewConfigError("scoring.proximity", cfg.Proximity, "proximity band must be positive")
	}
	return &Aggregator{cfg: cfg}, nil
}

// Aggregate scores the inputs and returns the verdict with its breakdown.
// The score is sum(polarity*weight) normalized by the total weight of the
// emitted signals, so unanimous agreement scores +-1 regardless of how
// small the individual weights are. No signals, or only zero-weight ones,
// score 0 and hold.
func (a *Aggregator) Aggregate(in Inputs) *Recommendation {
	signals := a.collect(in)

	var vote, total float64
	for _, s := range signals {
		vote += float64(s.Polarity) * s.Weight
		total += s.Weight
	}

	var score float64
	if total > 0 {
		score = vote / total
	}

	return &Recommendation{
		Verdict: a.verdict(score),
		Score:   score,
		Signals: signals,
	}
}

func (a *Aggregator) collect(in Inputs) []Signal {
	signals := make([]Signal, 0, 4)

	if in.Trend != nil {
		signals = append(signals, Signal{
			Source:   SourceTrend,
			Polarity: in.Trend.Polarity(),
			Weight:   a.cfg.Weights.Trend * in.Trend.Strength,
			Detail:   fmt.Sprintf("%s trend, strength %.2f", in.Trend.Direction, in.Trend.Strength),
		})
	}

	if in.LastClose > 0 {
		support, resistance := levels.Nearest(in.Levels, in.LastClose)
		if s := a.levelSignal(support, in.LastClose); s != nil {
			signals = append(signals, *s)
		}
		if s := a.levelSignal(resistance, in.LastClose); s != nil {
			signals = append(signals, *s)
		}
	}

	if in.Prediction != nil {
		p := in.Prediction
		signals = append(signals, Signal{
			Source:   SourcePrediction,
			Polarity: p.Direction,
			Weight:   a.cfg.Weights.Prediction * p.Confidence,
			Detail: fmt.Sprintf("model %s expects %+.2f%% over %d bar(s), confidence %.2f",
				p.ModelVersion, p.Estimate*100, p.Horizon, p.Confidence),
		})
	}

	return signals
}

// levelSignal votes for a level inside the proximity band. Support nearby
// is bullish (a floor under price), resistance nearby is bearish (a ceiling
// over it); the weight fades linearly to zero at the band's edge.
func (a *Aggregator) levelSignal(lvl *levels.Level, lastClose float64) *Signal {
	if lvl == nil {
		return nil
	}

	dist := (lvl.Price - lastClose) / lastClose
	if dist < 0 {
		dist = -dist
	}
	if dist > a.cfg.Proximity {
		return nil
	}

	closeness := 1 - dist/a.cfg.Proximity
	s := Signal{
		Weight: a.cfg.Weights.Levels * closeness,
		Detail: fmt.Sprintf("%s %.2f within %.2f%% of close", lvl.Role, lvl.Price, dist*100),
	}
	switch lvl.Role {
	case levels.RoleSupport:
		s.Source = SourceSupport
		s.Polarity = 1
	case levels.RoleResistance:
		s.Source = SourceResistance
		s.Polarity = -1
	}
	return &s
}

func (a *Aggregator) verdict(score float64) Verdict {
	switch {
	case score > a.cfg.BuyThreshold:
		return VerdictBuy
	case score < a.cfg.SellThreshold:
		return VerdictSell
	default:
		return VerdictHold
	}
}
