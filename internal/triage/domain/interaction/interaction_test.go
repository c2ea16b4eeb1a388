package interaction

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careflowhq/careflow/internal/triage/domain/worklist"
)

func TestNewTaskInteraction(t *testing.T) {
	userID := uuid.New()
	taskID := uuid.New()
	sessionID := uuid.New()
	at := time.Date(2026, 3, 2, 14, 30, 0, 0, time.FixedZone("CET", 3600))

	t.Run("stores the occurrence time in UTC", func(t *testing.T) {
		rec, err := NewTaskInteraction(
			userID, taskID, worklist.TaskTypeMessage, "viewed",
			sessionID, nil, nil, nil, at,
		)

		require.NoError(t, err)
		assert.Equal(t, time.UTC, rec.OccurredAt().Location())
		assert.True(t, rec.OccurredAt().Equal(at))
	})

	t.Run("validates required fields", func(t *testing.T) {
		cases := []struct {
			name string
			fn   func() (*TaskInteraction, error)
		}{
			{"missing user", func() (*TaskInteraction, error) {
				return NewTaskInteraction(uuid.Nil, taskID, worklist.TaskTypeMessage, "viewed", sessionID, nil, nil, nil, at)
			}},
			{"missing task", func() (*TaskInteraction, error) {
				return NewTaskInteraction(userID, uuid.Nil, worklist.TaskTypeMessage, "viewed", sessionID, nil, nil, nil, at)
			}},
			{"invalid task type", func() (*TaskInteraction, error) {
				return NewTaskInteraction(userID, taskID, worklist.TaskType("billing"), "viewed", sessionID, nil, nil, nil, at)
			}},
			{"missing action", func() (*TaskInteraction, error) {
				return NewTaskInteraction(userID, taskID, worklist.TaskTypeMessage, "", sessionID, nil, nil, nil, at)
			}},
			{"missing session", func() (*TaskInteraction, error) {
				return NewTaskInteraction(userID, taskID, worklist.TaskTypeMessage, "viewed", uuid.Nil, nil, nil, nil, at)
			}},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := tc.fn()
				assert.Error(t, err)
			})
		}
	})

	t.Run("urgency reads from the context", func(t *testing.T) {
		rec, err := NewTaskInteraction(
			userID, taskID, worklist.TaskTypeUrgentCare, "completed",
			sessionID, nil, nil, map[string]string{"urgency": "high"}, at,
		)
		require.NoError(t, err)

		u, ok := rec.Urgency()
		assert.True(t, ok)
		assert.Equal(t, worklist.UrgencyHigh, u)
	})

	t.Run("urgency is absent without context", func(t *testing.T) {
		rec, err := NewTaskInteraction(
			userID, taskID, worklist.TaskTypeUrgentCare, "completed",
			sessionID, nil, nil, nil, at,
		)
		require.NoError(t, err)

		_, ok := rec.Urgency()
		assert.False(t, ok)
	})

	t.Run("malformed urgency labels are ignored", func(t *testing.T) {
		rec, err := NewTaskInteraction(
			userID, taskID, worklist.TaskTypeUrgentCare, "completed",
			sessionID, nil, nil, map[string]string{"urgency": "asap"}, at,
		)
		require.NoError(t, err)

		_, ok := rec.Urgency()
		assert.False(t, ok)
	})
}

func TestNewRecorded(t *testing.T) {
	rec, err := NewTaskInteraction(
		uuid.New(), uuid.New(), worklist.TaskTypeMedicationRefill, "approved",
		uuid.New(), nil, nil, nil, time.Now(),
	)
	require.NoError(t, err)

	event := NewRecorded(rec, 50)

	assert.Equal(t, RoutingKeyRecorded, event.RoutingKey())
	assert.Equal(t, AggregateType, event.AggregateType())
	assert.Equal(t, rec.ID(), event.InteractionID)
	assert.Equal(t, rec.UserID(), event.UserID)
	assert.Equal(t, 50, event.InteractionCount)
}
