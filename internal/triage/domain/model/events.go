package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/careflowhq/careflow/internal/shared/domain"
)

// AggregateType is the aggregate type name used in events and the outbox.
const AggregateType = "priority_model"

// RoutingKeyTrained is the routing key for Trained events.
const RoutingKeyTrained = "triage.model.trained"

// Trained is emitted when a new model version becomes active.
type Trained struct {
	domain.BaseEvent
	ModelID          uuid.UUID `json:"model_id"`
	UserID           uuid.UUID `json:"user_id"`
	Version          int       `json:"version"`
	InteractionCount int       `json:"interaction_count"`
	TrainedAt        time.Time `json:"trained_at"`
}

// NewTrained creates a Trained event for an activated model version.
func NewTrained(m *PriorityModel) *Trained {
	return &Trained{
		BaseEvent:        domain.NewBaseEvent(m.ID(), AggregateType, RoutingKeyTrained),
		ModelID:          m.ID(),
		UserID:           m.UserID(),
		Version:          m.ModelVersion(),
		InteractionCount: m.InteractionCount(),
		TrainedAt:        m.TrainedAt(),
	}
}
