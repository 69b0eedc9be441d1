// Package indicators provides technical indicator calculations over bar
// series. Every indicator is pure and deterministic, and its output is
// aligned to a suffix of the input bars: warm-up bars produce no element.
package indicators

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"stock-analyst/internal/models"
)

// Indicator is a single-value indicator.
type Indicator interface {
	Name() string
	Warmup() int
	Calculate(bars []models.Bar) (Series, error)
}

// MultiIndicator is an indicator producing a named tuple of aligned series.
type MultiIndicator interface {
	Name() string
	Warmup() int
	Components(bars []models.Bar) (map[string]Series, error)
}

// Snapshot holds the outcome of a batch calculation. Indicators that failed
// appear in Errors under their name instead of silently dropping out.
type Snapshot struct {
	Singles map[string]Series            `json:"singles"`
	Multis  map[string]map[string]Series `json:"multis"`
	Errors  map[string]error             `json:"-"`
}

// Engine computes a registered set of indicators over one series using a
// bounded worker pool. Individual indicators stay synchronous and pure; the
// engine only fans the batch out.
type Engine struct {
	workers     int
	indicators  map[string]Indicator
	multiIndics map[string]MultiIndicator
	mu          sync.RWMutex
}

// NewEngine creates a new indicator engine with the specified number of workers.
func NewEngine(workers int) *Engine {
	if workers <= 0 {
		workers = 4
	}
	return &Engine{
		workers:     workers,
		indicators:  make(map[string]Indicator),
		multiIndics: make(map[string]MultiIndicator),
	}
}

// RegisterIndicator registers a single-value indicator.
func (e *Engine) RegisterIndicator(ind Indicator) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.indicators[ind.Name()] = ind
}

// RegisterMultiIndicator registers a multi-value indicator.
func (e *Engine) RegisterMultiIndicator(ind MultiIndicator) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.multiIndics[ind.Name()] = ind
}

// CalculateAll calculates all registered indicators in parallel. The context
// only stops queued work from starting; running calculations finish.
func (e *Engine) CalculateAll(ctx context.Context, bars []models.Bar) *Snapshot {
	e.mu.RLock()
	singles := make([]Indicator, 0, len(e.indicators))
	for _, ind := range e.indicators {
		singles = append(singles, ind)
	}
	multis := make([]MultiIndicator, 0, len(e.multiIndics))
	for _, ind := range e.multiIndics {
		multis = append(multis, ind)
	}
	e.mu.RUnlock()

	snap := &Snapshot{
		Singles: make(map[string]Series),
		Multis:  make(map[string]map[string]Series),
		Errors:  make(map[string]error),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup

	singleWork := make(chan Indicator, len(singles))
	multiWork := make(chan MultiIndicator, len(multis))

	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ind := range singleWork {
				select {
				case <-ctx.Done():
					return
				default:
				}
				values, err := ind.Calculate(bars)
				mu.Lock()
				if err != nil {
					snap.Errors[ind.Name()] = err
				} else {
					snap.Singles[ind.Name()] = values
				}
				mu.Unlock()
			}
		}()
	}

	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ind := range multiWork {
				select {
				case <-ctx.Done():
					return
				default:
				}
				values, err := ind.Components(bars)
				mu.Lock()
				if err != nil {
					snap.Errors[ind.Name()] = err
				} else {
					snap.Multis[ind.Name()] = values
				}
				mu.Unlock()
			}
		}()
	}

	for _, ind := range singles {
		singleWork <- ind
	}
	close(singleWork)

	for _, ind := range multis {
		multiWork <- ind
	}
	close(multiWork)

	wg.Wait()

	return snap
}

// Calculate calculates a specific single-value indicator by name.
func (e *Engine) Calculate(ctx context.Context, name string, bars []models.Bar) (Series, error) {
	e.mu.RLock()
	ind, ok := e.indicators[name]
	e.mu.RUnlock()

	if !ok {
		return Series{}, fmt.Errorf("indicator %s not found", name)
	}

	select {
	case <-ctx.Done():
		return Series{}, ctx.Err()
	default:
		return ind.Calculate(bars)
	}
}

// CalculateMulti calculates a specific multi-value indicator by name.
func (e *Engine) CalculateMulti(ctx context.Context, name string, bars []models.Bar) (map[string]Series, error) {
	e.mu.RLock()
	ind, ok := e.multiIndics[name]
	e.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("multi-value indicator %s not found", name)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
		return ind.Components(bars)
	}
}

// ListIndicators returns the names of all registered single-value
// indicators, sorted.
func (e *Engine) ListIndicators() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.indicators))
	for name := range e.indicators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListMultiIndicators returns the names of all registered multi-value
// indicators, sorted.
func (e *Engine) ListMultiIndicators() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.multiIndics))
	for name := range e.multiIndics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
