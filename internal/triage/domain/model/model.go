package model

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/careflowhq/careflow/internal/shared/domain"
)

var (
	// ErrNotFound is returned when a user has no active model.
	ErrNotFound = errors.New("priority model not found")
	// ErrConcurrentTraining is returned when another training run activated
	// a model for the same user concurrently.
	ErrConcurrentTraining = errors.New("concurrent training for user")
)

// PriorityModel is one trained version of a user's prioritization weights.
// Versions are immutable; retraining creates a new version and deactivates
// the previous one in the same transaction.
type PriorityModel struct {
	domain.BaseAggregateRoot
	userID             uuid.UUID
	version            int
	taskTypeWeights    TaskTypeWeights
	urgencyWeights     UrgencyWeights
	timePatternWeights TimePatternWeights
	interactionCount   int
	accuracy           *float64
	active             bool
	trainedAt          time.Time
}

// NewPriorityModel creates a freshly trained, active model version and emits
// a Trained event.
func NewPriorityModel(
	userID uuid.UUID,
	version int,
	taskTypeWeights TaskTypeWeights,
	urgencyWeights UrgencyWeights,
	timePatternWeights TimePatternWeights,
	interactionCount int,
) (*PriorityModel, error) {
	if userID == uuid.Nil {
		return nil, errors.New("user id is required")
	}
	if version < 1 {
		return nil, errors.New("version must be positive")
	}
	if len(taskTypeWeights) == 0 {
		return nil, errors.New("task type weights are required")
	}

	m := &PriorityModel{
		BaseAggregateRoot:  domain.NewBaseAggregateRoot(),
		userID:             userID,
		version:            version,
		taskTypeWeights:    taskTypeWeights,
		urgencyWeights:     urgencyWeights,
		timePatternWeights: timePatternWeights,
		interactionCount:   interactionCount,
		active:             true,
		trainedAt:          time.Now().UTC(),
	}
	m.AddDomainEvent(NewTrained(m))
	return m, nil
}

// Rehydrate reconstructs a model from persistence without emitting events.
func Rehydrate(
	id uuid.UUID,
	userID uuid.UUID,
	version int,
	taskTypeWeights TaskTypeWeights,
	urgencyWeights UrgencyWeights,
	timePatternWeights TimePatternWeights,
	interactionCount int,
	accuracy *float64,
	active bool,
	trainedAt time.Time,
) *PriorityModel {
	return &PriorityModel{
		BaseAggregateRoot:  domain.RehydrateBaseAggregateRoot(domain.RehydrateBaseEntity(id, trainedAt, trainedAt), version),
		userID:             userID,
		version:            version,
		taskTypeWeights:    taskTypeWeights,
		urgencyWeights:     urgencyWeights,
		timePatternWeights: timePatternWeights,
		interactionCount:   interactionCount,
		accuracy:           accuracy,
		active:             active,
		trainedAt:          trainedAt,
	}
}

func (m *PriorityModel) UserID() uuid.UUID                      { return m.userID }
func (m *PriorityModel) ModelVersion() int                      { return m.version }
func (m *PriorityModel) TaskTypeWeights() TaskTypeWeights       { return m.taskTypeWeights }
func (m *PriorityModel) UrgencyWeights() UrgencyWeights         { return m.urgencyWeights }
func (m *PriorityModel) TimePatternWeights() TimePatternWeights { return m.timePatternWeights }
func (m *PriorityModel) InteractionCount() int                  { return m.interactionCount }
func (m *PriorityModel) Accuracy() *float64                     { return m.accuracy }
func (m *PriorityModel) IsActive() bool                         { return m.active }
func (m *PriorityModel) TrainedAt() time.Time                   { return m.trainedAt }

// Deactivate marks the model version as superseded.
func (m *PriorityModel) Deactivate() {
	m.active = false
	m.Touch()
}

// SetAccuracy records an offline evaluation result for the version.
func (m *PriorityModel) SetAccuracy(accuracy float64) {
	m.accuracy = &accuracy
	m.Touch()
}

// Repository persists model versions.
type Repository interface {
	// SaveNewVersion deactivates the user's current active version and
	// inserts the new one atomically. Returns ErrConcurrentTraining when a
	// concurrent run activated another version first.
	SaveNewVersion(ctx context.Context, m *PriorityModel) error
	// FindActiveByUser returns the active model for a user, or ErrNotFound.
	FindActiveByUser(ctx context.Context, userID uuid.UUID) (*PriorityModel, error)
	// LatestVersion returns the highest version number stored for a user,
	// zero when the user has no models.
	LatestVersion(ctx context.Context, userID uuid.UUID) (int, error)
	// ListVersionsByUser returns all versions for a user, newest first.
	ListVersionsByUser(ctx context.Context, userID uuid.UUID) ([]*PriorityModel, error)
}
