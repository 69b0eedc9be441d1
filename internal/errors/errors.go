// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors
var (
	ErrInvalidBarSeries      = errors.New("invalid bar series")
	ErrInsufficientData      = errors.New("insufficient data")
	ErrModelNotTrained       = errors.New("model not trained")
	ErrFeatureSchemaMismatch = errors.New("feature schema mismatch")
	ErrConfiguration         = errors.New("invalid configuration")
	ErrDataNotFound          = errors.New("data not found")
	ErrDatabaseError         = errors.New("database error")
)

// BarSeriesError reports a validation failure in an input bar series.
// It wraps ErrInvalidBarSeries so callers can match on the sentinel.
type BarSeriesError struct {
	Symbol string
	Index  int
	Reason string
}

func (e *BarSeriesError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("invalid bar series [%s] bar %d: %s", e.Symbol, e.Index, e.Reason)
	}
	return fmt.Sprintf("invalid bar series: bar %d: %s", e.Index, e.Reason)
}

func (e *BarSeriesError) Unwrap() error {
	return ErrInvalidBarSeries
}

// NewBarSeriesError creates a new BarSeriesError.
func NewBarSeriesError(symbol string, index int, reason string) *BarSeriesError {
	return &BarSeriesError{
		Symbol: symbol,
		Index:  index,
		Reason: reason,
	}
}

// InsufficientDataError reports a computation that needs more history than
// the series provides. It wraps ErrInsufficientData.
type InsufficientDataError struct {
	Op       string
	Required int
	Actual   int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data [%s]: need %d bars, have %d", e.Op, e.Required, e.Actual)
}

func (e *InsufficientDataError) Unwrap() error {
	return ErrInsufficientData
}

// NewInsufficientDataError creates a new InsufficientDataError.
func NewInsufficientDataError(op string, required, actual int) *InsufficientDataError {
	return &InsufficientDataError{
		Op:       op,
		Required: required,
		Actual:   actual,
	}
}

// SchemaMismatchError reports a feature vector whose shape disagrees with
// the schema a model was trained on. It wraps ErrFeatureSchemaMismatch.
type SchemaMismatchError struct {
	WantHash   string
	GotHash    string
	WantFields []string
	GotFields  []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("feature schema mismatch: want %s (%d fields: %s), got %s (%d fields: %s)",
		e.WantHash, len(e.WantFields), strings.Join(e.WantFields, ","),
		e.GotHash, len(e.GotFields), strings.Join(e.GotFields, ","))
}

func (e *SchemaMismatchError) Unwrap() error {
	return ErrFeatureSchemaMismatch
}

// NewSchemaMismatchError creates a new SchemaMismatchError.
func NewSchemaMismatchError(wantHash, gotHash string, wantFields, gotFields []string) *SchemaMismatchError {
	return &SchemaMismatchError{
		WantHash:   wantHash,
		GotHash:    gotHash,
		WantFields: wantFields,
		GotFields:  gotFields,
	}
}

// ConfigError reports an out-of-range or malformed parameter.
// It wraps ErrConfiguration.
type ConfigError struct {
	Param  string
	Value  interface{}
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s (%v): %s", e.Param, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfiguration
}

// NewConfigError creates a new ConfigError.
func NewConfigError(param string, value interface{}, reason string) *ConfigError {
	return &ConfigError{
		Param:  param,
		Value:  value,
		Reason: reason,
	}
}

// DataError represents a data-related error from the storage layer.
type DataError struct {
	DataType string
	Symbol   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Symbol, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Symbol, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, symbol, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Symbol:   symbol,
		Message:  message,
		Err:      err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
