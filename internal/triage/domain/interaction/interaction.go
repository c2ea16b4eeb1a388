// Package interaction holds the TaskInteraction aggregate: the immutable
// record of one user action on one task, grouped into sessions and used as
// training data for per-user priority models.
package interaction

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/careflowhq/careflow/internal/shared/domain"
	"github.com/careflowhq/careflow/internal/triage/domain/worklist"
)

// ErrNotFound is returned when a user has no recorded interactions.
var ErrNotFound = errors.New("interaction not found")

// TaskInteraction is an append-only behavioral fact: the user performed an
// action on a task at a point in time. Interactions are never updated or
// deleted once recorded.
type TaskInteraction struct {
	domain.BaseAggregateRoot
	userID         uuid.UUID
	taskID         uuid.UUID
	taskType       worklist.TaskType
	action         string
	sessionID      uuid.UUID
	orderInSession *int
	timeSpent      *time.Duration
	context        map[string]string
	occurredAt     time.Time
}

// NewTaskInteraction records a new interaction fact.
func NewTaskInteraction(
	userID uuid.UUID,
	taskID uuid.UUID,
	taskType worklist.TaskType,
	action string,
	sessionID uuid.UUID,
	orderInSession *int,
	timeSpent *time.Duration,
	interactionContext map[string]string,
	occurredAt time.Time,
) (*TaskInteraction, error) {
	if userID == uuid.Nil {
		return nil, errors.New("user id is required")
	}
	if taskID == uuid.Nil {
		return nil, errors.New("task id is required")
	}
	if !taskType.IsValid() {
		return nil, errors.New("task type is required")
	}
	if action == "" {
		return nil, errors.New("action is required")
	}
	if sessionID == uuid.Nil {
		return nil, errors.New("session id is required")
	}

	return &TaskInteraction{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(),
		userID:            userID,
		taskID:            taskID,
		taskType:          taskType,
		action:            action,
		sessionID:         sessionID,
		orderInSession:    orderInSession,
		timeSpent:         timeSpent,
		context:           interactionContext,
		occurredAt:        occurredAt.UTC(),
	}, nil
}

// Rehydrate reconstructs an interaction from persistence without validation.
func Rehydrate(
	id uuid.UUID,
	userID uuid.UUID,
	taskID uuid.UUID,
	taskType worklist.TaskType,
	action string,
	sessionID uuid.UUID,
	orderInSession *int,
	timeSpent *time.Duration,
	interactionContext map[string]string,
	occurredAt time.Time,
) *TaskInteraction {
	return &TaskInteraction{
		BaseAggregateRoot: domain.RehydrateBaseAggregateRoot(domain.RehydrateBaseEntity(id, occurredAt, occurredAt), 0),
		userID:            userID,
		taskID:            taskID,
		taskType:          taskType,
		action:            action,
		sessionID:         sessionID,
		orderInSession:    orderInSession,
		timeSpent:         timeSpent,
		context:           interactionContext,
		occurredAt:        occurredAt,
	}
}

func (i *TaskInteraction) UserID() uuid.UUID           { return i.userID }
func (i *TaskInteraction) TaskID() uuid.UUID           { return i.taskID }
func (i *TaskInteraction) TaskType() worklist.TaskType { return i.taskType }
func (i *TaskInteraction) Action() string              { return i.action }
func (i *TaskInteraction) SessionID() uuid.UUID        { return i.sessionID }
func (i *TaskInteraction) OrderInSession() *int        { return i.orderInSession }
func (i *TaskInteraction) TimeSpent() *time.Duration   { return i.timeSpent }
func (i *TaskInteraction) Context() map[string]string  { return i.context }
func (i *TaskInteraction) OccurredAt() time.Time       { return i.occurredAt }

// Urgency returns the urgency label captured in the interaction context,
// if the client provided one.
func (i *TaskInteraction) Urgency() (worklist.Urgency, bool) {
	raw, ok := i.context["urgency"]
	if !ok {
		return "", false
	}
	u, err := worklist.ParseUrgency(raw)
	if err != nil || u == "" {
		return "", false
	}
	return u, true
}

// Repository is the append-only store for interactions.
type Repository interface {
	// Append persists a new interaction.
	Append(ctx context.Context, i *TaskInteraction) error
	// CountByUser returns the total number of interactions a user has recorded.
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
	// LatestByUser returns the most recent interaction for a user, or
	// ErrNotFound when none exist.
	LatestByUser(ctx context.Context, userID uuid.UUID) (*TaskInteraction, error)
	// ListByUser returns all interactions for a user ordered by occurrence,
	// oldest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*TaskInteraction, error)
}
