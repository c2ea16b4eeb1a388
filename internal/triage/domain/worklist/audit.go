package worklist

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ScoreFactor is one additive component of a priority score.
type ScoreFactor struct {
	Name         string  `json:"name"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// Reasoning explains how a score was computed, factor by factor.
type Reasoning struct {
	Basis   string        `json:"basis"`
	Base    float64       `json:"base"`
	Factors []ScoreFactor `json:"factors"`
}

const (
	// ReasoningBasisModel marks scores produced by a trained model.
	ReasoningBasisModel = "model"
	// ReasoningBasisHeuristic marks scores produced by the fallback rules.
	ReasoningBasisHeuristic = "heuristic"
)

// PrioritizedTask is the audit record persisted for every task scored in a
// prioritization pass.
type PrioritizedTask struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	TaskID          uuid.UUID
	TaskType        TaskType
	Score           float64
	Reasoning       Reasoning
	SuggestedAction string
	ModelVersion    *int
	CreatedAt       time.Time
}

// NewPrioritizedTask builds an audit record for one scored task.
func NewPrioritizedTask(userID uuid.UUID, task Task, score float64, reasoning Reasoning, modelVersion *int) PrioritizedTask {
	return PrioritizedTask{
		ID:              uuid.New(),
		UserID:          userID,
		TaskID:          task.ID,
		TaskType:        task.Type,
		Score:           score,
		Reasoning:       reasoning,
		SuggestedAction: task.Type.SuggestedAction(),
		ModelVersion:    modelVersion,
		CreatedAt:       time.Now().UTC(),
	}
}

// AuditRepository persists and reads back prioritization audit records.
type AuditRepository interface {
	// SaveBatch writes the audit rows for one prioritization pass.
	SaveBatch(ctx context.Context, records []PrioritizedTask) error
	// ListRecentByUser returns the newest audit rows for a user, newest first.
	ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]PrioritizedTask, error)
}
