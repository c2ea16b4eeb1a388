package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careflowhq/careflow/internal/triage/domain/interaction"
	"github.com/careflowhq/careflow/internal/triage/domain/model"
	"github.com/careflowhq/careflow/internal/triage/domain/worklist"
)

func makeInteraction(t *testing.T, userID uuid.UUID, taskType worklist.TaskType, at time.Time, ctx map[string]string) *interaction.TaskInteraction {
	t.Helper()
	rec, err := interaction.NewTaskInteraction(
		userID, uuid.New(), taskType, "completed", uuid.New(), nil, nil, ctx, at,
	)
	require.NoError(t, err)
	return rec
}

func TestTrainer_Train(t *testing.T) {
	trainer := NewTrainer()
	userID := uuid.New()
	morning := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)

	t.Run("rejects empty history", func(t *testing.T) {
		_, err := trainer.Train(nil)
		assert.ErrorIs(t, err, ErrNoInteractions)
	})

	t.Run("task type weights are interaction shares", func(t *testing.T) {
		var history []*interaction.TaskInteraction
		for i := 0; i < 6; i++ {
			history = append(history, makeInteraction(t, userID, worklist.TaskTypeMedicationRefill, morning, nil))
		}
		for i := 0; i < 3; i++ {
			history = append(history, makeInteraction(t, userID, worklist.TaskTypeUrgentCare, morning, nil))
		}
		history = append(history, makeInteraction(t, userID, worklist.TaskTypeMessage, morning, nil))

		weights, err := trainer.Train(history)

		require.NoError(t, err)
		assert.InDelta(t, 0.6, weights.TaskTypes[worklist.TaskTypeMedicationRefill], 1e-9)
		assert.InDelta(t, 0.3, weights.TaskTypes[worklist.TaskTypeUrgentCare], 1e-9)
		assert.InDelta(t, 0.1, weights.TaskTypes[worklist.TaskTypeMessage], 1e-9)
		assert.InDelta(t, 1.0, weights.TaskTypes.Sum(), 1e-9)
	})

	t.Run("time patterns are per-type day part shares", func(t *testing.T) {
		var history []*interaction.TaskInteraction
		for i := 0; i < 3; i++ {
			history = append(history, makeInteraction(t, userID, worklist.TaskTypeMedicationRefill, morning, nil))
		}
		history = append(history, makeInteraction(t, userID, worklist.TaskTypeMedicationRefill, evening, nil))
		history = append(history, makeInteraction(t, userID, worklist.TaskTypeMessage, evening, nil))

		weights, err := trainer.Train(history)

		require.NoError(t, err)
		refillPattern := weights.TimePatterns[worklist.TaskTypeMedicationRefill]
		assert.InDelta(t, 0.75, refillPattern[model.DayPartMorning], 1e-9)
		assert.InDelta(t, 0.25, refillPattern[model.DayPartEvening], 1e-9)
		assert.InDelta(t, 1.0, weights.TimePatterns[worklist.TaskTypeMessage][model.DayPartEvening], 1e-9)
	})

	t.Run("urgency weights default without urgency context", func(t *testing.T) {
		history := []*interaction.TaskInteraction{
			makeInteraction(t, userID, worklist.TaskTypePendingItem, morning, nil),
		}

		weights, err := trainer.Train(history)

		require.NoError(t, err)
		assert.Equal(t, model.DefaultUrgencyWeights(), weights.Urgencies)
	})

	t.Run("urgency weights learn from context labels", func(t *testing.T) {
		history := []*interaction.TaskInteraction{
			makeInteraction(t, userID, worklist.TaskTypeUrgentCare, morning, map[string]string{"urgency": "high"}),
			makeInteraction(t, userID, worklist.TaskTypeUrgentCare, morning, map[string]string{"urgency": "high"}),
			makeInteraction(t, userID, worklist.TaskTypeUrgentCare, morning, map[string]string{"urgency": "high"}),
			makeInteraction(t, userID, worklist.TaskTypeUrgentCare, morning, map[string]string{"urgency": "low"}),
			makeInteraction(t, userID, worklist.TaskTypePendingItem, morning, nil),
		}

		weights, err := trainer.Train(history)

		require.NoError(t, err)
		assert.InDelta(t, 0.75, weights.Urgencies[worklist.UrgencyHigh], 1e-9)
		assert.InDelta(t, 0.25, weights.Urgencies[worklist.UrgencyLow], 1e-9)
	})
}

func TestTrainedModelChangesRanking(t *testing.T) {
	trainer := NewTrainer()
	scorer := NewScorer()
	userID := uuid.New()
	morning := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	// A user who overwhelmingly works refills in the morning.
	var history []*interaction.TaskInteraction
	for i := 0; i < 18; i++ {
		history = append(history, makeInteraction(t, userID, worklist.TaskTypeMedicationRefill, morning, nil))
	}
	history = append(history, makeInteraction(t, userID, worklist.TaskTypePendingItem, morning, nil))
	history = append(history, makeInteraction(t, userID, worklist.TaskTypeMessage, morning, nil))

	weights, err := trainer.Train(history)
	require.NoError(t, err)

	m, err := model.NewPriorityModel(userID, 1, weights.TaskTypes, weights.Urgencies, weights.TimePatterns, len(history))
	require.NoError(t, err)

	refill := worklist.Task{ID: uuid.New(), Type: worklist.TaskTypeMedicationRefill, CreatedAt: morning.Add(-90 * time.Hour)}
	pending := worklist.Task{ID: uuid.New(), Type: worklist.TaskTypePendingItem, CreatedAt: morning.Add(-90 * time.Hour)}

	refillScore, _ := scorer.Score(refill, m, morning)
	pendingScore, _ := scorer.Score(pending, m, morning)
	assert.Greater(t, refillScore, pendingScore)

	// Under heuristics both are stale and tie at the base score.
	heuristicRefill, _ := scorer.Score(refill, nil, morning)
	heuristicPending, _ := scorer.Score(pending, nil, morning)
	assert.Equal(t, heuristicRefill-15, heuristicPending)
}
