// Package features builds fixed-order numeric vectors from bars and
// indicator outputs, for model training and inference.
package features

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"stock-analyst/internal/analysis/indicators"
	apperrors "stock-analyst/internal/errors"
	"stock-analyst/internal/models"
)

// Config fixes the indicator periods feeding the vector and the label
// horizon used when building training data.
type Config struct {
	ShortPeriod      int
	LongPeriod       int
	RSIPeriod        int
	MACDFast         int
	MACDSlow         int
	MACDSignal       int
	BollingerPeriod  int
	BollingerStdDev  float64
	ATRPeriod        int
	VolumePeriod     int
	VolatilityWindow int
	// Horizon is how many bars ahead the training label looks.
	Horizon int
}

// DefaultConfig mirrors the standard analysis setup with a one-bar label.
func DefaultConfig() Config {
	return Config{
		ShortPeriod:      20,
		LongPeriod:       50,
		RSIPeriod:        14,
		MACDFast:         12,
		MACDSlow:         26,
		MACDSignal:       9,
		BollingerPeriod:  20,
		BollingerStdDev:  2.0,
		ATRPeriod:        14,
		VolumePeriod:     20,
		VolatilityWindow: 20,
		Horizon:          1,
	}
}

// Schema is the ordered field list plus a fingerprint of it. Two schemas
// are interchangeable exactly when their hashes match; period changes show
// up in the field names and therefore in the hash.
type Schema struct {
	names []string
	hash  string
}

func newSchema(names []string) Schema {
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%d:%s", i, name)
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return Schema{
		names: names,
		hash:  hex.EncodeToString(sum[:])[:16],
	}
}

// SchemaFromNames rebuilds a schema from a stored field list, recomputing
// the fingerprint. Used when decoding persisted model artifacts.
func SchemaFromNames(names []string) Schema {
	copied := make([]string, len(names))
	copy(copied, names)
	return newSchema(copied)
}

// Names returns a copy of the ordered field names.
func (s Schema) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Hash returns the schema fingerprint.
func (s Schema) Hash() string {
	return s.hash
}

// Size returns the number of fields.
func (s Schema) Size() int {
	return len(s.names)
}

// Equal reports whether two schemas describe the same vector layout.
func (s Schema) Equal(other Schema) bool {
	return s.hash == other.hash
}

// Vector is one observation: values ordered per the builder's schema,
// anchored at a source bar, optionally labeled with the realized forward
// return for training.
type Vector struct {
	BarIndex int
	Values   []float64
	Label    float64
	Labeled  bool
}

// Builder derives vectors. It is stateless between calls; the schema is
// fixed at construction so training-time and inference-time vectors from
// the same builder can never drift apart.
type Builder struct {
	cfg    Config
	schema Schema

	shortMA   *indicators.SMA
	longMA    *indicators.SMA
	rsi       *indicators.RSI
	macd      *indicators.MACD
	bollinger *indicators.BollingerBands
	atr       *indicators.ATR
	volumeMA  *indicators.VolumeSMA
}

// NewBuilder validates the configuration and fixes the schema.
func NewBuilder(cfg Config) (*Builder, error) {
	if cfg.ShortPeriod <= 0 || cfg.LongPeriod <= 0 || cfg.RSIPeriod <= 0 ||
		cfg.BollingerPeriod <= 0 || cfg.ATRPeriod <= 0 || cfg.VolumePeriod <= 0 {
		return nil, apperrors.NewConfigError("features.periods", cfg, "indicator periods must be positive")
	}
	if cfg.ShortPeriod >= cfg.LongPeriod {
		return nil, apperrors.NewConfigError("features.periods", cfg, "short period must be below long period")
	}
	if cfg.MACDFast <= 0 || cfg.MACDSignal <= 0 || cfg.MACDFast >= cfg.MACDSlow {
		return nil, apperrors.NewConfigError("features.macd", cfg, "fast period must be positive and below slow period")
	}
	if cfg.BollingerStdDev <= 0 {
		return nil, apperrors.NewConfigError("features.bollingerStdDev", cfg.BollingerStdDev, "band width must be positive")
	}
	if cfg.VolatilityWindow < 2 {
		return nil, apperrors.NewConfigError("features.volatilityWindow", cfg.VolatilityWindow, "volatility window must be at least 2")
	}
	if cfg.Horizon < 1 {
		return nil, apperrors.NewConfigError("features.horizon", cfg.Horizon, "label horizon must be at least 1")
	}

	names := []string{
		"log_return_1",
		"log_return_3",
		"log_return_5",
		fmt.Sprintf("rsi_%d", cfg.RSIPeriod),
		fmt.Sprintf("macd_line_%d_%d_%d", cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal),
		fmt.Sprintf("macd_hist_%d_%d_%d", cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal),
		fmt.Sprintf("sma_gap_%d", cfg.ShortPeriod),
		fmt.Sprintf("sma_gap_%d", cfg.LongPeriod),
		fmt.Sprintf("bb_pctb_%d_%g", cfg.BollingerPeriod, cfg.BollingerStdDev),
		fmt.Sprintf("bb_width_%d_%g", cfg.BollingerPeriod, cfg.BollingerStdDev),
		fmt.Sprintf("volume_ratio_%d", cfg.VolumePeriod),
		fmt.Sprintf("volatility_%d", cfg.VolatilityWindow),
		fmt.Sprintf("atr_ratio_%d", cfg.ATRPeriod),
		"body_frac",
		"upper_wick_frac",
		"lower_wick_frac",
	}

	return &Builder{
		cfg:       cfg,
		schema:    newSchema(names),
		shortMA:   indicators.NewSMA(cfg.ShortPeriod),
		longMA:    indicators.NewSMA(cfg.LongPeriod),
		rsi:       indicators.NewRSI(cfg.RSIPeriod),
		macd:      indicators.NewMACD(cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal),
		bollinger: indicators.NewBollingerBands(cfg.BollingerPeriod, cfg.BollingerStdDev),
		atr:       indicators.NewATR(cfg.ATRPeriod),
		volumeMA:  indicators.NewVolumeSMA(cfg.VolumePeriod),
	}, nil
}

// Schema returns the builder's fixed field layout.
func (b *Builder) Schema() Schema {
	return b.schema
}

// Warmup returns the first bar index at which a vector can exist.
func (b *Builder) Warmup() int {
	warmup := 5 // longest lookback among the raw return fields
	for _, w := range []int{
		b.shortMA.Warmup(), b.longMA.Warmup(), b.rsi.Warmup(), b.macd.Warmup(),
		b.bollinger.Warmup(), b.atr.Warmup(), b.volumeMA.Warmup(),
		b.cfg.VolatilityWindow,
	} {
		if w > warmup {
			warmup = w
		}
	}
	return warmup
}

// inputs holds all computed indicator series for one bar slice.
type inputs struct {
	bars       []models.Bar
	logReturns []float64 // logReturns[i] = ln(close[i]/close[i-1]), index 0 unused
	shortMA    indicators.Series
	longMA     indicators.Series
	rsi        indicators.Series
	macd       indicators.MACDSeries
	bollinger  indicators.BandSeries
	atr        indicators.Series
	volumeMA   indicators.Series
}

func (b *Builder) compute(bars []models.Bar) (*inputs, error) {
	in := &inputs{bars: bars}

	var err error
	if in.shortMA, err = b.shortMA.Calculate(bars); err != nil {
		return nil, err
	}
	if in.longMA, err = b.longMA.Calculate(bars); err != nil {
		return nil, err
	}
	if in.rsi, err = b.rsi.Calculate(bars); err != nil {
		return nil, err
	}
	if in.macd, err = b.macd.Calculate(bars); err != nil {
		return nil, err
	}
	if in.bollinger, err = b.bollinger.Calculate(bars); err != nil {
		return nil, err
	}
	if in.atr, err = b.atr.Calculate(bars); err != nil {
		return nil, err
	}
	if in.volumeMA, err = b.volumeMA.Calculate(bars); err != nil {
		return nil, err
	}

	in.logReturns = make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		in.logReturns[i] = math.Log(bars[i].Close / bars[i-1].Close)
	}
	return in, nil
}

// at fills the vector for bar t. The caller guarantees t >= Warmup().
func (b *Builder) at(in *inputs, t int) []float64 {
	bar := in.bars[t]
	closePrice := bar.Close

	rsiVal, _ := in.rsi.At(t)
	shortVal, _ := in.shortMA.At(t)
	longVal, _ := in.longMA.At(t)
	atrVal, _ := in.atr.At(t)
	volMAVal, _ := in.volumeMA.At(t)

	macdIdx := t - in.macd.Start
	bbIdx := t - in.bollinger.Start
	upper, middle, lower := in.bollinger.Upper[bbIdx], in.bollinger.Middle[bbIdx], in.bollinger.Lower[bbIdx]

	pctB := 0.5
	width := 0.0
	if band := upper - lower; band > 0 {
		pctB = (closePrice - lower) / band
		width = band / middle
	}

	volumeRatio := 1.0
	if volMAVal > 0 {
		volumeRatio = float64(bar.Volume) / volMAVal
	}

	bodyFrac, upperWick, lowerWick := 0.0, 0.0, 0.0
	if rng := bar.Range(); rng > 0 {
		bodyFrac = bar.Body() / rng
		upperWick = (bar.High - math.Max(bar.Open, bar.Close)) / rng
		lowerWick = (math.Min(bar.Open, bar.Close) - bar.Low) / rng
	}

	return []float64{
		in.logReturns[t],
		math.Log(in.bars[t].Close / in.bars[t-3].Close),
		math.Log(in.bars[t].Close / in.bars[t-5].Close),
		rsiVal / 100,
		in.macd.Line[macdIdx] / closePrice,
		in.macd.Histogram[macdIdx] / closePrice,
		closePrice/shortVal - 1,
		closePrice/longVal - 1,
		pctB,
		width,
		volumeRatio,
		stdDev(in.logReturns[t-b.cfg.VolatilityWindow+1 : t+1]),
		atrVal / closePrice,
		bodyFrac,
		upperWick,
		lowerWick,
	}
}

// Build returns the unlabeled vector for the most recent bar.
func (b *Builder) Build(bars []models.Bar) (*Vector, error) {
	required := b.Warmup() + 1
	if len(bars) < required {
		return nil, apperrors.NewInsufficientDataError("features", required, len(bars))
	}
	in, err := b.compute(bars)
	if err != nil {
		return nil, err
	}
	t := len(bars) - 1
	return &Vector{BarIndex: t, Values: b.at(in, t)}, nil
}

// BuildAll returns unlabeled vectors for every eligible bar.
func (b *Builder) BuildAll(bars []models.Bar) ([]Vector, error) {
	required := b.Warmup() + 1
	if len(bars) < required {
		return nil, apperrors.NewInsufficientDataError("features", required, len(bars))
	}
	in, err := b.compute(bars)
	if err != nil {
		return nil, err
	}
	out := make([]Vector, 0, len(bars)-b.Warmup())
	for t := b.Warmup(); t < len(bars); t++ {
		out = append(out, Vector{BarIndex: t, Values: b.at(in, t)})
	}
	return out, nil
}

// BuildLabeled returns training vectors: every eligible bar whose label bar
// also exists, labeled with the simple forward return over the horizon.
func (b *Builder) BuildLabeled(bars []models.Bar) ([]Vector, error) {
	required := b.Warmup() + 1 + b.cfg.Horizon
	if len(bars) < required {
		return nil, apperrors.NewInsufficientDataError("features", required, len(bars))
	}
	in, err := b.compute(bars)
	if err != nil {
		return nil, err
	}
	out := make([]Vector, 0, len(bars)-b.Warmup()-b.cfg.Horizon)
	for t := b.Warmup(); t+b.cfg.Horizon < len(bars); t++ {
		out = append(out, Vector{
			BarIndex: t,
			Values:   b.at(in, t),
			Label:    bars[t+b.cfg.Horizon].Close/bars[t].Close - 1,
			Labeled:  true,
		})
	}
	return out, nil
}

func stdDev(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(values)))
}
