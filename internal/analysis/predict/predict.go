// Package predict trains bagged regression-tree ensembles over feature
// vectors and serves forward-return estimates from immutable model
// artifacts.
package predict

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"stock-analyst/internal/analysis/features"
	apperrors "stock-analyst/internal/errors"
)

// treeSeedStride separates per-tree RNG streams derived from the root seed.
const treeSeedStride = 1_000_003

// Config tunes the ensemble and the training procedure.
type Config struct {
	Trees           int
	MaxDepth        int
	MinLeafSamples  int
	FeatureFraction float64
	HoldoutFraction float64
	MinSamples      int
	Horizon         int
	Seed            int64
	Workers         int
}

// DefaultConfig returns a 100-tree forest with a 20% chronological holdout.
func DefaultConfig() Config {
	return Config{
		Trees:           100,
		MaxDepth:        10,
		MinLeafSamples:  5,
		FeatureFraction: 1.0 / 3.0,
		HoldoutFraction: 0.2,
		MinSamples:      50,
		Horizon:         1,
		Seed:            42,
		Workers:         4,
	}
}

// Validate checks the hyperparameters without training anything.
func (c Config) Validate() error {
	if c.Trees < 1 {
		return apperrors.NewConfigError("predict.trees", c.Trees, "ensemble needs at least one tree")
	}
	if c.MaxDepth < 1 {
		return apperrors.NewConfigError("predict.maxDepth", c.MaxDepth, "depth must be at least 1")
	}
	if c.MinLeafSamples < 1 {
		return apperrors.NewConfigError("predict.minLeafSamples", c.MinLeafSamples, "leaves need at least one sample")
	}
	if c.FeatureFraction <= 0 || c.FeatureFraction > 1 {
		return apperrors.NewConfigError("predict.featureFraction", c.FeatureFraction, "fraction must be in (0, 1]")
	}
	if c.HoldoutFraction < 0 || c.HoldoutFraction >= 1 {
		return apperrors.NewConfigError("predict.holdoutFraction", c.HoldoutFraction, "holdout must be in [0, 1)")
	}
	if c.MinSamples < 2 {
		return apperrors.NewConfigError("predict.minSamples", c.MinSamples, "training needs at least two samples")
	}
	if c.Horizon < 1 {
		return apperrors.NewConfigError("predict.horizon", c.Horizon, "horizon must be at least 1")
	}
	return nil
}

// Metrics reports training quality. Importance is aligned to the schema's
// field order and sums to 1 when any split was made.
type Metrics struct {
	TrainSamples      int       `json:"train_samples"`
	ValidationSamples int       `json:"validation_samples"`
	TrainMSE          float64   `json:"train_mse"`
	TrainMAE          float64   `json:"train_mae"`
	ValidationMSE     float64   `json:"validation_mse"`
	ValidationMAE     float64   `json:"validation_mae"`
	Importance        []float64 `json:"importance"`
}

// Prediction is one forward-looking estimate.
type Prediction struct {
	// Estimate is the expected simple return over the horizon.
	Estimate float64 `json:"estimate"`
	// Direction is the estimate's sign: +1, -1 or 0.
	Direction int `json:"direction"`
	// Confidence is the fraction of trees agreeing with the direction.
	Confidence float64 `json:"confidence"`
	// Horizon is how many bars ahead the estimate looks.
	Horizon int `json:"horizon"`
	// ModelVersion identifies the artifact that produced the estimate.
	ModelVersion string `json:"model_version"`
}

// Model is an immutable trained artifact. Retraining produces a new Model
// with a new version; existing references stay valid and reproducible.
type Model struct {
	version   string
	schema    features.Schema
	cfg       Config
	trees     []regressionTree
	metrics   Metrics
	trainedAt time.Time
}

// Version returns the content-addressed artifact identifier.
func (m *Model) Version() string {
	return m.version
}

// Schema returns the feature layout the model was trained on.
func (m *Model) Schema() features.Schema {
	return m.schema
}

// Metrics returns the training metrics with a copied importance slice.
func (m *Model) Metrics() Metrics {
	out := m.metrics
	out.Importance = append([]float64(nil), m.metrics.Importance...)
	return out
}

// TrainedAt returns when the artifact was produced.
func (m *Model) TrainedAt() time.Time {
	return m.trainedAt
}

// FeatureImportance maps schema field names to normalized importance.
func (m *Model) FeatureImportance() map[string]float64 {
	out := make(map[string]float64, len(m.metrics.Importance))
	for i, name := range m.schema.Names() {
		out[name] = m.metrics.Importance[i]
	}
	return out
}

// Train fits a bagged ensemble on labeled vectors. The vectors must be in
// chronological order: the trailing holdout fraction becomes the validation
// set, so shuffled input would leak future bars into training.
func Train(ctx context.Context, schema features.Schema, vectors []features.Vector, cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(vectors) < cfg.MinSamples {
		return nil, apperrors.NewInsufficientDataError("train", cfg.MinSamples, len(vectors))
	}
	for _, v := range vectors {
		if len(v.Values) != schema.Size() {
			return nil, apperrors.NewSchemaMismatchError(schema.Hash(), "", schema.Names(), nil)
		}
		if !v.Labeled {
			return nil, apperrors.NewConfigError("predict.vectors", v.BarIndex, "unlabeled vector in training set")
		}
	}

	x := make([][]float64, len(vectors))
	y := make([]float64, len(vectors))
	for i, v := range vectors {
		x[i] = v.Values
		y[i] = v.Label
	}

	split := len(vectors) - int(float64(len(vectors))*cfg.HoldoutFraction)
	trainX, trainY := x[:split], y[:split]
	validX, validY := x[split:], y[split:]

	subsetSize := int(math.Round(cfg.FeatureFraction * float64(schema.Size())))
	if subsetSize < 1 {
		subsetSize = 1
	}
	if subsetSize > schema.Size() {
		subsetSize = schema.Size()
	}

	trees := make([]regressionTree, cfg.Trees)
	importances := make([][]float64, cfg.Trees)

	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				rng := rand.New(rand.NewSource(cfg.Seed + int64(t)*treeSeedStride))
				g := &grower{
					x:          trainX,
					y:          trainY,
					rng:        rng,
					maxDepth:   cfg.MaxDepth,
					minLeaf:    cfg.MinLeafSamples,
					subsetSize: subsetSize,
					importance: make([]float64, schema.Size()),
				}
				sample := make([]int, len(trainX))
				for i := range sample {
					sample[i] = rng.Intn(len(trainX))
				}
				trees[t] = g.grow(sample)
				importances[t] = g.importance
			}
		}()
	}

dispatch:
	for t := 0; t < cfg.Trees; t++ {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- t:
		}
	}
	close(jobs)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, "training aborted")
	}

	importance := make([]float64, schema.Size())
	var total float64
	for _, imp := range importances {
		for f, v := range imp {
			importance[f] += v
			total += v
		}
	}
	if total > 0 {
		for f := range importance {
			importance[f] /= total
		}
	}

	metrics := Metrics{
		TrainSamples:      len(trainX),
		ValidationSamples: len(validX),
		Importance:        importance,
	}
	metrics.TrainMSE, metrics.TrainMAE = evaluate(trees, trainX, trainY)
	metrics.ValidationMSE, metrics.ValidationMAE = evaluate(trees, validX, validY)

	contentHash, err := contentID(schema, cfg, trees)
	if err != nil {
		return nil, err
	}

	return &Model{
		version:   versionString(schema.Hash(), contentHash),
		schema:    schema,
		cfg:       cfg,
		trees:     trees,
		metrics:   metrics,
		trainedAt: time.Now().UTC(),
	}, nil
}

// evaluate scores the ensemble over one partition.
func evaluate(trees []regressionTree, x [][]float64, y []float64) (mse, mae float64) {
	if len(x) == 0 {
		return 0, 0
	}
	for i := range x {
		d := ensembleEstimate(trees, x[i]) - y[i]
		mse += d * d
		mae += math.Abs(d)
	}
	n := float64(len(x))
	return mse / n, mae / n
}

func ensembleEstimate(trees []regressionTree, values []float64) float64 {
	var sum float64
	for _, t := range trees {
		sum += t.predict(values)
	}
	return sum / float64(len(trees))
}

// Predict scores one unlabeled vector. The caller's schema must match the
// training schema exactly; drift fails rather than misaligning silently.
func (m *Model) Predict(schema features.Schema, vec features.Vector) (*Prediction, error) {
	if m == nil || len(m.trees) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrModelNotTrained, "predict")
	}
	if !m.schema.Equal(schema) {
		return nil, apperrors.NewSchemaMismatchError(m.schema.Hash(), schema.Hash(), m.schema.Names(), schema.Names())
	}
	if len(vec.Values) != m.schema.Size() {
		return nil, apperrors.NewSchemaMismatchError(m.schema.Hash(), schema.Hash(), m.schema.Names(), schema.Names())
	}

	votes := make([]float64, len(m.trees))
	var sum float64
	for i, t := range m.trees {
		votes[i] = t.predict(vec.Values)
		sum += votes[i]
	}
	estimate := sum / float64(len(votes))

	direction := 0
	if estimate > 0 {
		direction = 1
	} else if estimate < 0 {
		direction = -1
	}

	confidence := 0.5
	if direction != 0 {
		agree := 0
		for _, v := range votes {
			if (direction > 0 && v > 0) || (direction < 0 && v < 0) {
				agree++
			}
		}
		confidence = float64(agree) / float64(len(votes))
	}

	return &Prediction{
		Estimate:     estimate,
		Direction:    direction,
		Confidence:   confidence,
		Horizon:      m.cfg.Horizon,
		ModelVersion: m.version,
	}, nil
}
