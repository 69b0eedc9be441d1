// Package analysis wires the engine components behind one facade: indicator
// snapshots, trend and level detection, feature building, model training
// and the aggregated recommendation.
package analysis

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"stock-analyst/internal/analysis/features"
	"stock-analyst/internal/analysis/indicators"
	"stock-analyst/internal/analysis/levels"
	"stock-analyst/internal/analysis/predict"
	"stock-analyst/internal/analysis/scoring"
	"stock-analyst/internal/analysis/trend"
	apperrors "stock-analyst/internal/errors"
	"stock-analyst/internal/models"
)

// Config gathers every component's configuration. All values carry explicit
// defaults and are validated when the Analyzer is built.
type Config struct {
	Trend    trend.Config
	Levels   levels.Config
	Features features.Config
	Predict  predict.Config
	Scoring  scoring.Config

	// Workers bounds the indicator engine's fan-out.
	Workers int

	// ConfluenceFactor adds a coarser-timeframe trend read when at least 2.
	// Zero disables it.
	ConfluenceFactor int
}

// DefaultConfig composes every component's defaults.
func DefaultConfig() Config {
	return Config{
		Trend:            trend.DefaultConfig(),
		Levels:           levels.DefaultConfig(),
		Features:         features.DefaultConfig(),
		Predict:          predict.DefaultConfig(),
		Scoring:          scoring.DefaultConfig(),
		Workers:          4,
		ConfluenceFactor: 0,
	}
}

// Report is the engine's full output surface for one series: raw indicator
// values, the trend read, detected levels, the optional prediction, and the
// aggregated recommendation. Rendering (text, JSON) is the caller's concern.
type Report struct {
	Symbol      string          `json:"symbol"`
	Interval    models.Interval `json:"interval"`
	GeneratedAt time.Time       `json:"generated_at"`
	Bars        int             `json:"bars"`
	LastClose   float64         `json:"last_close"`

	Indicators *indicators.Snapshot `json:"indicators,omitempty"`
	Trend      *trend.Assessment    `json:"trend,omitempty"`
	Confluence *trend.Confluence    `json:"confluence,omitempty"`
	Levels     []levels.Level       `json:"levels,omitempty"`
	Support    *levels.Level        `json:"support,omitempty"`
	Resistance *levels.Level        `json:"resistance,omitempty"`

	Prediction     *predict.Prediction     `json:"prediction,omitempty"`
	Recommendation *scoring.Recommendation `json:"recommendation,omitempty"`
}

// Analyzer runs the pipeline over one series per call. It is safe for
// concurrent use: all components are pure, and the only mutable state is
// the published model behind an atomic handle.
type Analyzer struct {
	cfg Config
	log zerolog.Logger

	engine   *indicators.Engine
	trend    *trend.Detector
	levels   *levels.Detector
	features *features.Builder
	scorer   *scoring.Aggregator
	handle   *predict.Handle
}

// New validates the configuration and builds an analyzer. Logging is off
// until WithLogger is called.
func New(cfg Config) (*Analyzer, error) {
	if cfg.ConfluenceFactor == 1 || cfg.ConfluenceFactor < 0 {
		return nil, apperrors.NewConfigError("analysis.confluenceFactor", cfg.ConfluenceFactor, "must be 0 (off) or at least 2")
	}
	if err := cfg.Predict.Validate(); err != nil {
		return nil, err
	}

	trendDet, err := trend.NewDetector(cfg.Trend)
	if err != nil {
		return nil, err
	}
	levelDet, err := levels.NewDetector(cfg.Levels)
	if err != nil {
		return nil, err
	}
	builder, err := features.NewBuilder(cfg.Features)
	if err != nil {
		return nil, err
	}
	scorer, err := scoring.NewAggregator(cfg.Scoring)
	if err != nil {
		return nil, err
	}

	a := &Analyzer{
		cfg:      cfg,
		log:      zerolog.Nop(),
		engine:   indicators.NewEngine(cfg.Workers),
		trend:    trendDet,
		levels:   levelDet,
		features: builder,
		scorer:   scorer,
		handle:   predict.NewHandle(),
	}
	a.register()
	return a, nil
}

// WithLogger attaches a logger for debug traces and returns the analyzer.
func (a *Analyzer) WithLogger(logger zerolog.Logger) *Analyzer {
	a.log = logger
	return a
}

// register wires the configured indicator set into the snapshot engine.
func (a *Analyzer) register() {
	a.engine.RegisterIndicator(indicators.NewSMA(a.cfg.Trend.ShortPeriod))
	a.engine.RegisterIndicator(indicators.NewSMA(a.cfg.Trend.LongPeriod))
	a.engine.RegisterIndicator(indicators.NewEMA(a.cfg.Trend.ShortPeriod))
	a.engine.RegisterIndicator(indicators.NewRSI(a.cfg.Trend.RSIPeriod))
	a.engine.RegisterIndicator(indicators.NewATR(a.cfg.Trend.ATRPeriod))
	a.engine.RegisterIndicator(indicators.NewVolumeSMA(a.cfg.Features.VolumePeriod))
	a.engine.RegisterMultiIndicator(indicators.NewMACD(a.cfg.Trend.MACDFast, a.cfg.Trend.MACDSlow, a.cfg.Trend.MACDSignal))
	a.engine.RegisterMultiIndicator(indicators.NewBollingerBands(a.cfg.Features.BollingerPeriod, a.cfg.Features.BollingerStdDev))
	a.engine.RegisterMultiIndicator(indicators.NewPivotPoints())
}

// Publish swaps in a trained model for subsequent Analyze calls. Readers
// mid-prediction keep the artifact they started with.
func (a *Analyzer) Publish(m *predict.Model) {
	a.handle.Publish(m)
}

// Model returns the currently published model, nil when none.
func (a *Analyzer) Model() *predict.Model {
	return a.handle.Current()
}

// Snapshot computes indicators, trend, levels and the recommendation those
// signals alone support. No model is consulted.
func (a *Analyzer) Snapshot(ctx context.Context, series *models.Series) (*Report, error) {
	rep, err := a.snapshot(ctx, series)
	if err != nil {
		return nil, err
	}
	rep.Recommendation = a.scorer.Aggregate(scoring.Inputs{
		Trend:     rep.Trend,
		Levels:    rep.Levels,
		LastClose: rep.LastClose,
	})
	return rep, nil
}

// Analyze is Snapshot plus the published model's prediction folded into the
// recommendation. It fails with ModelNotTrained when nothing is published.
func (a *Analyzer) Analyze(ctx context.Context, series *models.Series) (*Report, error) {
	model := a.handle.Current()
	if model == nil {
		return nil, apperrors.Wrap(apperrors.ErrModelNotTrained, "analyze "+series.Symbol)
	}

	rep, err := a.snapshot(ctx, series)
	if err != nil {
		return nil, err
	}

	vector, err := a.features.Build(series.Bars)
	if err != nil {
		return nil, err
	}
	prediction, err := model.Predict(a.features.Schema(), *vector)
	if err != nil {
		return nil, err
	}
	rep.Prediction = prediction

	rep.Recommendation = a.scorer.Aggregate(scoring.Inputs{
		Trend:      rep.Trend,
		Levels:     rep.Levels,
		Prediction: prediction,
		LastClose:  rep.LastClose,
	})

	a.log.Debug().
		Str("symbol", series.Symbol).
		Str("model", prediction.ModelVersion).
		Float64("estimate", prediction.Estimate).
		Str("verdict", string(rep.Recommendation.Verdict)).
		Msg("analysis complete")

	return rep, nil
}

// Train builds the labeled dataset from the series, fits a new model and
// publishes it. A failed run returns the error and leaves any previously
// published model untouched.
func (a *Analyzer) Train(ctx context.Context, series *models.Series) (*predict.Model, error) {
	vectors, err := a.features.BuildLabeled(series.Bars)
	if err != nil {
		return nil, err
	}

	model, err := predict.Train(ctx, a.features.Schema(), vectors, a.cfg.Predict)
	if err != nil {
		return nil, err
	}
	a.handle.Publish(model)

	metrics := model.Metrics()
	a.log.Info().
		Str("symbol", series.Symbol).
		Str("version", model.Version()).
		Int("train_samples", metrics.TrainSamples).
		Int("validation_samples", metrics.ValidationSamples).
		Float64("validation_mae", metrics.ValidationMAE).
		Msg("model trained")

	return model, nil
}

// Schema exposes the feature schema the analyzer trains and predicts with.
func (a *Analyzer) Schema() features.Schema {
	return a.features.Schema()
}

func (a *Analyzer) snapshot(ctx context.Context, series *models.Series) (*Report, error) {
	bars := series.Bars

	assessment, err := a.trend.Detect(bars)
	if err != nil {
		return nil, err
	}

	lvls, err := a.levels.Detect(bars)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		Symbol:      series.Symbol,
		Interval:    series.Interval,
		GeneratedAt: time.Now().UTC(),
		Bars:        len(bars),
		LastClose:   series.Last().Close,
		Indicators:  a.engine.CalculateAll(ctx, bars),
		Trend:       assessment,
		Levels:      lvls,
	}
	rep.Support, rep.Resistance = levels.Nearest(lvls, rep.LastClose)

	if a.cfg.ConfluenceFactor >= 2 {
		confluence, err := a.trend.Confluence(series, a.cfg.ConfluenceFactor)
		if err != nil {
			return nil, err
		}
		rep.Confluence = confluence
	}

	a.log.Debug().
		Str("symbol", series.Symbol).
		Int("bars", len(bars)).
		Str("direction", string(assessment.Direction)).
		Int("levels", len(lvls)).
		Msg("snapshot complete")

	return rep, nil
}
