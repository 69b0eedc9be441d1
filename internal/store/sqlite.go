// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"stock-analyst/internal/analysis/predict"
	apperrors "stock-analyst/internal/errors"
	"stock-analyst/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Bars table for historical OHLCV data
	CREATE TABLE IF NOT EXISTS bars (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		interval TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		open REAL NOT NULL,
		high REAL NOT NULL,
		low REAL NOT NULL,
		close REAL NOT NULL,
		volume INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, interval, timestamp)
	);

	-- Trained model artifacts, keyed by content-addressed version
	CREATE TABLE IF NOT EXISTS models (
		version TEXT PRIMARY KEY,
		symbol TEXT NOT NULL,
		interval TEXT NOT NULL,
		schema_hash TEXT NOT NULL,
		trained_at DATETIME NOT NULL,
		samples INTEGER NOT NULL,
		validation_mae REAL NOT NULL,
		artifact BLOB NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Create indexes for performance
	CREATE INDEX IF NOT EXISTS idx_bars_symbol_interval ON bars(symbol, interval);
	CREATE INDEX IF NOT EXISTS idx_bars_timestamp ON bars(timestamp);
	CREATE INDEX IF NOT EXISTS idx_models_symbol_interval ON models(symbol, interval);
	CREATE INDEX IF NOT EXISTS idx_models_trained_at ON models(trained_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// dbErr tags a driver failure with the database sentinel.
func dbErr(kind, key string, err error) error {
	return apperrors.NewDataError(kind, key, err.Error(), apperrors.ErrDatabaseError)
}

// ============================================================================
// Bars Methods
// ============================================================================

// SaveBars saves bars to the database, replacing rows that collide on
// symbol, interval and timestamp.
func (s *SQLiteStore) SaveBars(ctx context.Context, symbol string, interval models.Interval, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return dbErr("bars", symbol, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO bars (symbol, interval, timestamp, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return dbErr("bars", symbol, err)
	}
	defer stmt.Close()

	name := interval.String()
	for _, b := range bars {
		_, err := stmt.ExecContext(ctx, symbol, name, b.Timestamp.UTC(), b.Open, b.High, b.Low, b.Close, b.Volume)
		if err != nil {
			return dbErr("bars", symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return dbErr("bars", symbol, err)
	}

	return nil
}

// GetBars retrieves bars in [from, to] ordered by timestamp. An empty
// result is not an error; use GetSeries when absence should fail.
func (s *SQLiteStore) GetBars(ctx context.Context, symbol string, interval models.Interval, from, to time.Time) ([]models.Bar, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, open, high, low, close, volume
		FROM bars
		WHERE symbol = ? AND interval = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`, symbol, interval.String(), from.UTC(), to.UTC())
	if err != nil {
		return nil, dbErr("bars", symbol, err)
	}
	defer rows.Close()

	var bars []models.Bar
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, dbErr("bars", symbol, err)
		}
		bars = append(bars, b)
	}

	if err := rows.Err(); err != nil {
		return nil, dbErr("bars", symbol, err)
	}

	return bars, nil
}

// GetSeries retrieves bars and wraps them in a validated Series.
func (s *SQLiteStore) GetSeries(ctx context.Context, symbol string, interval models.Interval, from, to time.Time) (*models.Series, error) {
	bars, err := s.GetBars(ctx, symbol, interval, from, to)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, apperrors.NewDataError("bars", symbol, "no bars in range", apperrors.ErrDataNotFound)
	}
	return models.NewSeries(symbol, interval, bars)
}

// BarsFreshness returns the timestamp of the most recent bar, zero if none.
func (s *SQLiteStore) BarsFreshness(ctx context.Context, symbol string, interval models.Interval) (time.Time, error) {
	var timestamp sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(timestamp) FROM bars WHERE symbol = ? AND interval = ?
	`, symbol, interval.String()).Scan(&timestamp)
	if err != nil && err != sql.ErrNoRows {
		return time.Time{}, dbErr("bars", symbol, err)
	}
	if !timestamp.Valid {
		return time.Time{}, nil
	}
	return timestamp.Time, nil
}

// DeleteBars removes all cached bars for a symbol and interval.
func (s *SQLiteStore) DeleteBars(ctx context.Context, symbol string, interval models.Interval) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM bars WHERE symbol = ? AND interval = ?
	`, symbol, interval.String())
	if err != nil {
		return 0, dbErr("bars", symbol, err)
	}
	return result.RowsAffected()
}

// ListSymbols summarizes the cached bars grouped by symbol and interval.
func (s *SQLiteStore) ListSymbols(ctx context.Context) ([]SymbolInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, interval, COUNT(*), MIN(timestamp), MAX(timestamp)
		FROM bars
		GROUP BY symbol, interval
		ORDER BY symbol, interval
	`)
	if err != nil {
		return nil, dbErr("bars", "", err)
	}
	defer rows.Close()

	var infos []SymbolInfo
	for rows.Next() {
		var info SymbolInfo
		if err := rows.Scan(&info.Symbol, &info.Interval, &info.Bars, &info.First, &info.Last); err != nil {
			return nil, dbErr("bars", "", err)
		}
		infos = append(infos, info)
	}

	return infos, rows.Err()
}

// ============================================================================
// Model Methods
// ============================================================================

// SaveModel stores a trained artifact under its version. Saving the same
// version again overwrites the identical row.
func (s *SQLiteStore) SaveModel(ctx context.Context, symbol string, interval models.Interval, model *predict.Model) error {
	blob, err := model.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}

	metrics := model.Metrics()
	samples := metrics.TrainSamples + metrics.ValidationSamples

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO models (version, symbol, interval, schema_hash, trained_at, samples, validation_mae, artifact)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, model.Version(), symbol, interval.String(), model.Schema().Hash(), model.TrainedAt().UTC(), samples, metrics.ValidationMAE, blob)
	if err != nil {
		return dbErr("model", model.Version(), err)
	}
	return nil
}

// GetModel loads the artifact with the exact version.
func (s *SQLiteStore) GetModel(ctx context.Context, version string) (*predict.Model, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT artifact FROM models WHERE version = ?
	`, version).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewDataError("model", version, "no stored model with this version", apperrors.ErrDataNotFound)
	}
	if err != nil {
		return nil, dbErr("model", version, err)
	}

	return decodeModel(blob)
}

// LatestModel loads the most recently trained artifact for a symbol and
// interval.
func (s *SQLiteStore) LatestModel(ctx context.Context, symbol string, interval models.Interval) (*predict.Model, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT artifact FROM models
		WHERE symbol = ? AND interval = ?
		ORDER BY trained_at DESC, created_at DESC
		LIMIT 1
	`, symbol, interval.String()).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewDataError("model", symbol, "no stored model for symbol", apperrors.ErrDataNotFound)
	}
	if err != nil {
		return nil, dbErr("model", symbol, err)
	}

	return decodeModel(blob)
}

// ListModels summarizes stored artifacts, newest first. An empty symbol
// lists everything.
func (s *SQLiteStore) ListModels(ctx context.Context, symbol string) ([]ModelInfo, error) {
	query := `
		SELECT version, symbol, interval, schema_hash, trained_at, samples, validation_mae, created_at
		FROM models WHERE 1=1`
	args := []interface{}{}

	if symbol != "" {
		query += " AND symbol = ?"
		args = append(args, symbol)
	}
	query += " ORDER BY trained_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbErr("model", symbol, err)
	}
	defer rows.Close()

	var infos []ModelInfo
	for rows.Next() {
		var info ModelInfo
		if err := rows.Scan(&info.Version, &info.Symbol, &info.Interval, &info.SchemaHash, &info.TrainedAt, &info.Samples, &info.ValidationMAE, &info.CreatedAt); err != nil {
			return nil, dbErr("model", symbol, err)
		}
		infos = append(infos, info)
	}

	return infos, rows.Err()
}

func decodeModel(blob []byte) (*predict.Model, error) {
	model := &predict.Model{}
	if err := model.UnmarshalBinary(blob); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	return model, nil
}
