package predict

import (
	"sync/atomic"

	"stock-analyst/internal/analysis/features"
	apperrors "stock-analyst/internal/errors"
)

// Handle publishes model artifacts atomically. Readers always observe a
// complete model, either the previous or the new one, so predictions keep
// running while a retrain swaps the artifact underneath them.
type Handle struct {
	current atomic.Pointer[Model]
}

func NewHandle() *Handle {
	return &Handle{}
}

// Publish makes m the current model.
func (h *Handle) Publish(m *Model) {
	h.current.Store(m)
}

// Current returns the published model, or nil when none exists yet.
func (h *Handle) Current() *Model {
	return h.current.Load()
}

// Predict scores a vector against the current model. It fails with
// ModelNotTrained when nothing has been published.
func (h *Handle) Predict(schema features.Schema, vec features.Vector) (*Prediction, error) {
	m := h.current.Load()
	if m == nil {
		return nil, apperrors.Wrap(apperrors.ErrModelNotTrained, "no published model")
	}
	return m.Predict(schema, vec)
}
