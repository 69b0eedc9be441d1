// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"stock-analyst/internal/analysis/predict"
	"stock-analyst/internal/models"
)

// DataStore defines the interface for data persistence.
type DataStore interface {
	// Bars
	SaveBars(ctx context.Context, symbol string, interval models.Interval, bars []models.Bar) error
	GetBars(ctx context.Context, symbol string, interval models.Interval, from, to time.Time) ([]models.Bar, error)
	GetSeries(ctx context.Context, symbol string, interval models.Interval, from, to time.Time) (*models.Series, error)
	BarsFreshness(ctx context.Context, symbol string, interval models.Interval) (time.Time, error)
	DeleteBars(ctx context.Context, symbol string, interval models.Interval) (int64, error)
	ListSymbols(ctx context.Context) ([]SymbolInfo, error)

	// Model artifacts
	SaveModel(ctx context.Context, symbol string, interval models.Interval, model *predict.Model) error
	GetModel(ctx context.Context, version string) (*predict.Model, error)
	LatestModel(ctx context.Context, symbol string, interval models.Interval) (*predict.Model, error)
	ListModels(ctx context.Context, symbol string) ([]ModelInfo, error)

	// Lifecycle
	Close() error
}

// SymbolInfo summarizes the cached bars for one symbol and interval.
type SymbolInfo struct {
	Symbol   string    `json:"symbol"`
	Interval string    `json:"interval"`
	Bars     int       `json:"bars"`
	First    time.Time `json:"first"`
	Last     time.Time `json:"last"`
}

// ModelInfo summarizes one stored model artifact.
type ModelInfo struct {
	Version       string    `json:"version"`
	Symbol        string    `json:"symbol"`
	Interval      string    `json:"interval"`
	SchemaHash    string    `json:"schema_hash"`
	TrainedAt     time.Time `json:"trained_at"`
	Samples       int       `json:"samples"`
	ValidationMAE float64   `json:"validation_mae"`
	CreatedAt     time.Time `json:"created_at"`
}
