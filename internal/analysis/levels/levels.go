// Package levels finds horizontal support and resistance by clustering
// local price extrema.
package levels

import (
	"math"
	"sort"

	apperrors "stock-analyst/internal/errors"
	"stock-analyst/internal/models"
)

// Role tags which side of the current close a level sits on.
type Role string

const (
	RoleSupport    Role = "SUPPORT"
	RoleResistance Role = "RESISTANCE"
)

// Config tunes extremum detection and clustering.
type Config struct {
	// Window is the number of bars on each side an extremum must beat.
	Window int
	// Tolerance is the clustering band as a fraction of the level price.
	Tolerance float64
	// MinStrength discards weakly confirmed levels.
	MinStrength float64
	// RecencyBonus is the extra weight the most recent bar's touch earns
	// over the oldest. Every touch always counts at least 1.
	RecencyBonus float64
}

// DefaultConfig returns a 5-bar confirmation window with a 1% cluster band.
func DefaultConfig() Config {
	return Config{
		Window:       5,
		Tolerance:    0.01,
		MinStrength:  2.0,
		RecencyBonus: 0.5,
	}
}

// Level is one clustered price level. Strength is the recency-weighted
// touch count; Touches the raw count.
type Level struct {
	Price      float64 `json:"price"`
	Role       Role    `json:"role"`
	Strength   float64 `json:"strength"`
	Touches    int     `json:"touches"`
	FirstTouch int     `json:"first_touch"`
	LastTouch  int     `json:"last_touch"`
}

type touch struct {
	index int
	price float64
}

// Detector scans a series for local extrema and clusters them into levels.
type Detector struct {
	cfg Config
}

// NewDetector validates the configuration and builds a detector.
func NewDetector(cfg Config) (*Detector, error) {
	if cfg.Window < 1 {
		return nil, apperrors.NewConfigError("levels.window", cfg.Window, "confirmation window must be at least 1")
	}
	if cfg.Tolerance <= 0 {
		return nil, apperrors.NewConfigError("levels.tolerance", cfg.Tolerance, "cluster tolerance must be positive")
	}
	if cfg.MinStrength < 0 {
		return nil, apperrors.NewConfigError("levels.minStrength", cfg.MinStrength, "minimum strength cannot be negative")
	}
	if cfg.RecencyBonus < 0 {
		return nil, apperrors.NewConfigError("levels.recencyBonus", cfg.RecencyBonus, "recency bonus cannot be negative")
	}
	return &Detector{cfg: cfg}, nil
}

// Required returns the minimum series length: one full confirmation
// window on both sides of a candidate bar.
func (d *Detector) Required() int {
	return 2*d.cfg.Window + 1
}

// Detect returns the confirmed levels sorted by price ascending. Levels at
// or above the latest close are resistance, levels below it support.
func (d *Detector) Detect(bars []models.Bar) ([]Level, error) {
	if len(bars) < d.Required() {
		return nil, apperrors.NewInsufficientDataError("levels", d.Required(), len(bars))
	}

	touches := d.findExtrema(bars)
	if len(touches) == 0 {
		return []Level{}, nil
	}

	lastClose := bars[len(bars)-1].Close
	n := len(bars)

	var out []Level
	for _, cluster := range d.cluster(touches, n) {
		for _, lvl := range d.resolve(cluster, lastClose, n) {
			if lvl.Strength >= d.cfg.MinStrength {
				out = append(out, lvl)
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out, nil
}

// findExtrema collects bars whose high is the strict maximum, or whose low
// is the strict minimum, of the centered 2w+1 window around them.
func (d *Detector) findExtrema(bars []models.Bar) []touch {
	var touches []touch
	w := d.cfg.Window

	for i := w; i < len(bars)-w; i++ {
		isMax, isMin := true, true
		for j := 1; j <= w; j++ {
			if bars[i].High <= bars[i-j].High || bars[i].High <= bars[i+j].High {
				isMax = false
			}
			if bars[i].Low >= bars[i-j].Low || bars[i].Low >= bars[i+j].Low {
				isMin = false
			}
			if !isMax && !isMin {
				break
			}
		}
		if isMax {
			touches = append(touches, touch{index: i, price: bars[i].High})
		}
		if isMin {
			touches = append(touches, touch{index: i, price: bars[i].Low})
		}
	}

	return touches
}

// touchWeight grows linearly with recency from 1 to 1+RecencyBonus.
func (d *Detector) touchWeight(index, n int) float64 {
	return 1 + d.cfg.RecencyBonus*float64(index)/float64(n-1)
}

// cluster groups price-sorted touches whose price sits within the
// tolerance band of the cluster's running weighted mean.
func (d *Detector) cluster(touches []touch, n int) [][]touch {
	sorted := make([]touch, len(touches))
	copy(sorted, touches)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].price < sorted[j].price })

	var clusters [][]touch
	current := []touch{sorted[0]}
	mean := sorted[0].price
	weight := d.touchWeight(sorted[0].index, n)

	for _, t := range sorted[1:] {
		if math.Abs(t.price-mean)/mean <= d.cfg.Tolerance {
			tw := d.touchWeight(t.index, n)
			mean = (mean*weight + t.price*tw) / (weight + tw)
			weight += tw
			current = append(current, t)
			continue
		}
		clusters = append(clusters, current)
		current = []touch{t}
		mean = t.price
		weight = d.touchWeight(t.index, n)
	}
	clusters = append(clusters, current)

	return clusters
}

// resolve turns one cluster into levels. A cluster whose touches straddle
// the close splits into a support and a resistance candidate anchored on
// the two touch prices nearest the close; otherwise the whole cluster
// becomes one level at its weighted mean price.
func (d *Detector) resolve(cluster []touch, lastClose float64, n int) []Level {
	var below, above []touch
	for _, t := range cluster {
		if t.price < lastClose {
			below = append(below, t)
		} else {
			above = append(above, t)
		}
	}

	if len(below) > 0 && len(above) > 0 {
		support := d.build(below, n)
		support.Role = RoleSupport
		support.Price = below[len(below)-1].price // touches sorted ascending

		resistance := d.build(above, n)
		resistance.Role = RoleResistance
		resistance.Price = above[0].price

		return []Level{support, resistance}
	}

	lvl := d.build(cluster, n)
	if len(above) > 0 {
		lvl.Role = RoleResistance
	} else {
		lvl.Role = RoleSupport
	}
	return []Level{lvl}
}

// build aggregates a touch group into a level priced at the recency
// weighted mean of its touches.
func (d *Detector) build(touches []touch, n int) Level {
	var priceSum, weightSum float64
	first, last := touches[0].index, touches[0].index

	for _, t := range touches {
		w := d.touchWeight(t.index, n)
		priceSum += t.price * w
		weightSum += w
		if t.index < first {
			first = t.index
		}
		if t.index > last {
			last = t.index
		}
	}

	return Level{
		Price:      priceSum / weightSum,
		Strength:   weightSum,
		Touches:    len(touches),
		FirstTouch: first,
		LastTouch:  last,
	}
}

// Nearest returns the closest support below and resistance above the given
// price, or nil where no level exists on that side.
func Nearest(lvls []Level, price float64) (support, resistance *Level) {
	minSupportDist := math.MaxFloat64
	minResistanceDist := math.MaxFloat64

	for i := range lvls {
		lvl := &lvls[i]
		dist := math.Abs(lvl.Price - price)
		switch lvl.Role {
		case RoleSupport:
			if dist < minSupportDist {
				minSupportDist = dist
				support = lvl
			}
		case RoleResistance:
			if dist < minResistanceDist {
				minResistanceDist = dist
				resistance = lvl
			}
		}
	}

	return support, resistance
}
