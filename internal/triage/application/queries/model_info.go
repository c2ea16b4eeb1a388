// Package queries contains the read-side handlers of the triage context.
package queries

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careflowhq/careflow/internal/triage/domain/interaction"
	"github.com/careflowhq/careflow/internal/triage/domain/model"
)

// ModelInfoQuery asks for the state of a user's prioritization model.
type ModelInfoQuery struct {
	UserID uuid.UUID
}

// ModelInfoResult describes whether a model exists and how far the user is
// from their first (or next) training run.
type ModelInfoResult struct {
	ModelExists      bool
	ModelVersion     int
	InteractionCount int
	ModelCreatedAt   *time.Time
	Accuracy         *float64
	NeedsMoreData    bool
}

// ModelInfoHandler resolves model state for the API and CLI.
type ModelInfoHandler struct {
	models       model.Repository
	interactions interaction.Repository
	minSamples   int
}

// NewModelInfoHandler creates a ModelInfoHandler.
func NewModelInfoHandler(models model.Repository, interactions interaction.Repository, minSamples int) *ModelInfoHandler {
	return &ModelInfoHandler{
		models:       models,
		interactions: interactions,
		minSamples:   minSamples,
	}
}

// Handle returns model metadata for the user. A missing model is not an
// error; the result reports it with NeedsMoreData set accordingly.
func (h *ModelInfoHandler) Handle(ctx context.Context, q ModelInfoQuery) (*ModelInfoResult, error) {
	if q.UserID == uuid.Nil {
		return nil, errors.New("user id is required")
	}

	count, err := h.interactions.CountByUser(ctx, q.UserID)
	if err != nil {
		return nil, fmt.Errorf("counting interactions: %w", err)
	}

	result := &ModelInfoResult{
		InteractionCount: count,
		NeedsMoreData:    count < h.minSamples,
	}

	m, err := h.models.FindActiveByUser(ctx, q.UserID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return result, nil
		}
		return nil, fmt.Errorf("loading active model: %w", err)
	}

	createdAt := m.TrainedAt()
	result.ModelExists = true
	result.ModelVersion = m.ModelVersion()
	result.ModelCreatedAt = &createdAt
	result.Accuracy = m.Accuracy()
	return result, nil
}
