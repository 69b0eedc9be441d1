// Package trend classifies price direction and strength from the moving
// average spread, MACD momentum and RSI positioning.
package trend

import (
	"math"

	"stock-analyst/internal/analysis/indicators"
	apperrors "stock-analyst/internal/errors"
	"stock-analyst/internal/models"
)

// Direction labels the prevailing price direction.
type Direction string

const (
	// DirectionUnknown means the series is shorter than the detector's
	// warm-up and no classification was attempted.
	DirectionUnknown  Direction = "UNKNOWN"
	DirectionUp       Direction = "UP"
	DirectionDown     Direction = "DOWN"
	DirectionSideways Direction = "SIDEWAYS"
)

// Zone labels where RSI sits relative to the classic 30/70 bands.
type Zone string

const (
	ZoneOversold   Zone = "OVERSOLD"
	ZoneNeutral    Zone = "NEUTRAL"
	ZoneOverbought Zone = "OVERBOUGHT"
)

// Config holds the indicator periods the detector derives its inputs from.
type Config struct {
	ShortPeriod int
	LongPeriod  int
	RSIPeriod   int
	MACDFast    int
	MACDSlow    int
	MACDSignal  int
	ATRPeriod   int
}

// DefaultConfig returns the standard 20/50 moving average setup with
// 12/26/9 MACD, RSI 14 and ATR 14.
func DefaultConfig() Config {
	return Config{
		ShortPeriod: 20,
		LongPeriod:  50,
		RSIPeriod:   14,
		MACDFast:    12,
		MACDSlow:    26,
		MACDSignal:  9,
		ATRPeriod:   14,
	}
}

// Assessment is the detector's full read of a series: the classified
// direction, a saturating strength in [0,1), and the raw inputs that
// produced them so callers can surface the reasoning.
type Assessment struct {
	Direction Direction `json:"direction"`
	Strength  float64   `json:"strength"`

	ShortMA        float64 `json:"short_ma"`
	LongMA         float64 `json:"long_ma"`
	MACDHistogram  float64 `json:"macd_histogram"`
	HistogramSlope float64 `json:"histogram_slope"`
	RSI            float64 `json:"rsi"`
	RSIZone        Zone    `json:"rsi_zone"`
}

// Detector classifies trend direction and strength from indicator state.
type Detector struct {
	cfg Config

	shortMA *indicators.SMA
	longMA  *indicators.SMA
	rsi     *indicators.RSI
	macd    *indicators.MACD
	atr     *indicators.ATR
}

// NewDetector validates the configuration and builds a detector.
func NewDetector(cfg Config) (*Detector, error) {
	if cfg.ShortPeriod <= 0 || cfg.LongPeriod <= 0 {
		return nil, apperrors.NewConfigError("trend.periods", cfg, "moving average periods must be positive")
	}
	if cfg.ShortPeriod >= cfg.LongPeriod {
		return nil, apperrors.NewConfigError("trend.periods", cfg, "short period must be below long period")
	}
	if cfg.RSIPeriod <= 0 || cfg.ATRPeriod <= 0 {
		return nil, apperrors.NewConfigError("trend.periods", cfg, "oscillator periods must be positive")
	}
	if cfg.MACDFast <= 0 || cfg.MACDSignal <= 0 || cfg.MACDFast >= cfg.MACDSlow {
		return nil, apperrors.NewConfigError("trend.macd", cfg, "fast period must be positive and below slow period")
	}
	return &Detector{
		cfg:     cfg,
		shortMA: indicators.NewSMA(cfg.ShortPeriod),
		longMA:  indicators.NewSMA(cfg.LongPeriod),
		rsi:     indicators.NewRSI(cfg.RSIPeriod),
		macd:    indicators.NewMACD(cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal),
		atr:     indicators.NewATR(cfg.ATRPeriod),
	}, nil
}

// Warmup returns the bar index at which every input indicator is defined.
func (d *Detector) Warmup() int {
	warmup := d.longMA.Warmup()
	for _, w := range []int{d.macd.Warmup(), d.rsi.Warmup(), d.atr.Warmup()} {
		if w > warmup {
			warmup = w
		}
	}
	return warmup
}

// Strength shaping constants. The spread term is a fraction of price
// (a 4% gap scores 1.0); the impulse term is histogram size in ATR units.
const (
	spreadScale   = 25.0
	impulseScale  = 1.0
	agreementBump = 0.25
	saturationK   = 1.0
)

// Detect classifies the series. A series shorter than the warm-up yields
// DirectionUnknown with a nil error; classification simply was not possible.
func (d *Detector) Detect(bars []models.Bar) (*Assessment, error) {
	if len(bars) <= d.Warmup() {
		return &Assessment{Direction: DirectionUnknown, RSIZone: ZoneNeutral}, nil
	}

	shortMA, err := d.shortMA.Calculate(bars)
	if err != nil {
		return nil, err
	}
	longMA, err := d.longMA.Calculate(bars)
	if err != nil {
		return nil, err
	}
	macd, err := d.macd.Calculate(bars)
	if err != nil {
		return nil, err
	}
	rsi, err := d.rsi.Calculate(bars)
	if err != nil {
		return nil, err
	}
	atr, err := d.atr.Calculate(bars)
	if err != nil {
		return nil, err
	}

	a := &Assessment{
		ShortMA:       shortMA.Last(),
		LongMA:        longMA.Last(),
		MACDHistogram: macd.LastHistogram(),
		RSI:           rsi.Last(),
	}
	if macd.Len() >= 2 {
		a.HistogramSlope = macd.Histogram[macd.Len()-1] - macd.Histogram[macd.Len()-2]
	}
	a.RSIZone = classifyZone(a.RSI)

	switch {
	case a.ShortMA > a.LongMA && a.MACDHistogram > 0:
		a.Direction = DirectionUp
	case a.ShortMA < a.LongMA && a.MACDHistogram < 0:
		a.Direction = DirectionDown
	default:
		a.Direction = DirectionSideways
	}

	a.Strength = d.strength(a, bars[len(bars)-1].Close, atr.Last())
	return a, nil
}

// strength maps the MA spread and MACD impulse onto [0,1) through a
// saturating x/(x+k) curve, with small bumps when the histogram slope
// and RSI zone agree with the classified direction.
func (d *Detector) strength(a *Assessment, lastClose, atr float64) float64 {
	x := spreadScale * math.Abs(a.ShortMA-a.LongMA) / lastClose
	if atr > 0 {
		x += impulseScale * math.Abs(a.MACDHistogram) / atr
	}

	switch a.Direction {
	case DirectionUp:
		if a.HistogramSlope > 0 {
			x += agreementBump
		}
		if a.RSI > 50 {
			x += agreementBump
		}
	case DirectionDown:
		if a.HistogramSlope < 0 {
			x += agreementBump
		}
		if a.RSI < 50 {
			x += agreementBump
		}
	}

	return x / (x + saturationK)
}

func classifyZone(rsi float64) Zone {
	switch {
	case rsi < 30:
		return ZoneOversold
	case rsi > 70:
		return ZoneOverbought
	default:
		return ZoneNeutral
	}
}

// IsTrending reports whether the assessment found a directional market.
func (a *Assessment) IsTrending() bool {
	return a.Direction == DirectionUp || a.Direction == DirectionDown
}

// Polarity maps the direction onto a signed vote: +1 up, -1 down, 0 otherwise.
func (a *Assessment) Polarity() int {
	switch a.Direction {
	case DirectionUp:
		return 1
	case DirectionDown:
		return -1
	default:
		return 0
	}
}

// Confluence is the detector's read of the same instrument on its native
// interval and on a coarser resample of it.
type Confluence struct {
	Native *Assessment `json:"native"`
	Coarse *Assessment `json:"coarse"`

	// Factor is how many native bars one coarse bar spans.
	Factor int `json:"factor"`

	// Agrees is true when both timeframes classify the same direction.
	// An unknown coarse read (too few resampled bars) never agrees.
	Agrees bool `json:"agrees"`
}

// Confluence runs the detector on the series and on a resample coarsened by
// factor, reporting whether the two timeframes point the same way. The
// coarse series is often shorter than the warm-up; that read comes back
// unknown rather than as an error.
func (d *Detector) Confluence(series *models.Series, factor int) (*Confluence, error) {
	if factor < 2 {
		return nil, apperrors.NewConfigError("trend.confluenceFactor", factor, "resample factor must be at least 2")
	}

	native, err := d.Detect(series.Bars)
	if err != nil {
		return nil, err
	}

	resampled, err := series.Resample(factor)
	if err != nil {
		return nil, err
	}
	coarse, err := d.Detect(resampled.Bars)
	if err != nil {
		return nil, err
	}

	return &Confluence{
		Native: native,
		Coarse: coarse,
		Factor: factor,
		Agrees: native.Direction == coarse.Direction && native.Direction != DirectionUnknown,
	}, nil
}
