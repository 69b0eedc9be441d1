package store

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/gocarina/gocsv"

	apperrors "stock-analyst/internal/errors"
	"stock-analyst/internal/models"
)

// csvTime accepts the timestamp layouts commonly seen in exported bar
// files and always writes RFC3339.
type csvTime struct {
	time.Time
}

var csvTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *csvTime) UnmarshalCSV(value string) error {
	for _, layout := range csvTimeLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", value)
}

func (t csvTime) MarshalCSV() (string, error) {
	return t.UTC().Format(time.RFC3339), nil
}

// barRecord is the CSV row layout for bar import and export.
type barRecord struct {
	Timestamp csvTime `csv:"timestamp"`
	Open      float64 `csv:"open"`
	High      float64 `csv:"high"`
	Low       float64 `csv:"low"`
	Close     float64 `csv:"close"`
	Volume    int64   `csv:"volume"`
}

// ReadBarsCSV decodes bars from CSV and returns them in ascending
// timestamp order. Bar-level invariants are checked later, when the bars
// enter a Series.
func ReadBarsCSV(r io.Reader) ([]models.Bar, error) {
	var records []barRecord
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, apperrors.NewDataError("csv", "", "decode failed", err)
	}
	if len(records) == 0 {
		return nil, apperrors.NewDataError("csv", "", "no rows", apperrors.ErrDataNotFound)
	}

	bars := make([]models.Bar, len(records))
	for i, rec := range records {
		bars[i] = models.Bar{
			Timestamp: rec.Timestamp.Time,
			Open:      rec.Open,
			High:      rec.High,
			Low:       rec.Low,
			Close:     rec.Close,
			Volume:    rec.Volume,
		}
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})

	return bars, nil
}

// WriteBarsCSV encodes bars as CSV with a header row.
func WriteBarsCSV(w io.Writer, bars []models.Bar) error {
	records := make([]barRecord, len(bars))
	for i, b := range bars {
		records[i] = barRecord{
			Timestamp: csvTime{b.Timestamp},
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		}
	}

	if err := gocsv.Marshal(&records, w); err != nil {
		return apperrors.NewDataError("csv", "", "encode failed", err)
	}
	return nil
}
