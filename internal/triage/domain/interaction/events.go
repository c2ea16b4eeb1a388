package interaction

import (
	"time"

	"github.com/google/uuid"

	"github.com/careflowhq/careflow/internal/shared/domain"
)

// AggregateType is the aggregate type name used in events and the outbox.
const AggregateType = "task_interaction"

// RoutingKeyRecorded is the routing key for Recorded events.
const RoutingKeyRecorded = "triage.interaction.recorded"

// Recorded is emitted after an interaction has been appended. It carries the
// user's interaction count as observed inside the recording transaction, so
// downstream consumers can apply the retraining cadence without racing
// concurrent writes.
type Recorded struct {
	domain.BaseEvent
	InteractionID    uuid.UUID         `json:"interaction_id"`
	UserID           uuid.UUID         `json:"user_id"`
	TaskID           uuid.UUID         `json:"task_id"`
	TaskType         string            `json:"task_type"`
	Action           string            `json:"action"`
	SessionID        uuid.UUID         `json:"session_id"`
	RecordedAt       time.Time         `json:"recorded_at"`
	InteractionCount int               `json:"interaction_count"`
	Context          map[string]string `json:"context,omitempty"`
}

// NewRecorded creates a Recorded event for an appended interaction.
func NewRecorded(i *TaskInteraction, interactionCount int) *Recorded {
	return &Recorded{
		BaseEvent:        domain.NewBaseEvent(i.ID(), AggregateType, RoutingKeyRecorded),
		InteractionID:    i.ID(),
		UserID:           i.UserID(),
		TaskID:           i.TaskID(),
		TaskType:         i.TaskType().String(),
		Action:           i.Action(),
		SessionID:        i.SessionID(),
		RecordedAt:       i.OccurredAt(),
		InteractionCount: interactionCount,
		Context:          i.Context(),
	}
}

// RecordedPayload is the wire shape consumers decode from a Recorded event.
type RecordedPayload struct {
	InteractionID    uuid.UUID `json:"interaction_id"`
	UserID           uuid.UUID `json:"user_id"`
	TaskType         string    `json:"task_type"`
	SessionID        uuid.UUID `json:"session_id"`
	InteractionCount int       `json:"interaction_count"`
}
