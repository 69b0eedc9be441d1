package predict

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"time"

	"stock-analyst/internal/analysis/features"
	apperrors "stock-analyst/internal/errors"
)

// modelPayload is the gob wire form of a Model. Callers treat the encoded
// bytes as an opaque versioned blob.
type modelPayload struct {
	Version     string
	SchemaNames []string
	Config      Config
	Trees       []regressionTree
	Metrics     Metrics
	TrainedAt   time.Time
}

// hashInput covers the behavior-defining parts of a model: two trainings
// that agree on these produce interchangeable artifacts, so they share a
// version.
type hashInput struct {
	SchemaNames []string
	Config      Config
	Trees       []regressionTree
}

func contentID(schema features.Schema, cfg Config, trees []regressionTree) (string, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(hashInput{
		SchemaNames: schema.Names(),
		Config:      cfg,
		Trees:       trees,
	}); err != nil {
		return "", apperrors.Wrap(err, "fingerprint model")
	}
	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

func versionString(schemaHash, contentHash string) string {
	return fmt.Sprintf("rf-%s-%s", schemaHash[:8], contentHash[:12])
}

// MarshalBinary encodes the model for external storage.
func (m *Model) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(modelPayload{
		Version:     m.version,
		SchemaNames: m.schema.Names(),
		Config:      m.cfg,
		Trees:       m.trees,
		Metrics:     m.metrics,
		TrainedAt:   m.trainedAt,
	})
	if err != nil {
		return nil, apperrors.Wrap(err, "encode model")
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary restores a model from its stored form.
func (m *Model) UnmarshalBinary(data []byte) error {
	var payload modelPayload
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&payload); err != nil {
		return apperrors.Wrap(err, "decode model")
	}
	m.version = payload.Version
	m.schema = features.SchemaFromNames(payload.SchemaNames)
	m.cfg = payload.Config
	m.trees = payload.Trees
	m.metrics = payload.Metrics
	m.trainedAt = payload.TrainedAt
	return nil
}
