package outbox_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careflowhq/careflow/internal/shared/domain"
	"github.com/careflowhq/careflow/internal/shared/infrastructure/outbox"
)

type interactionRecordedStub struct {
	domain.BaseEvent
	UserID           uuid.UUID `json:"user_id"`
	InteractionCount int       `json:"interaction_count"`
}

func TestNewMessage(t *testing.T) {
	aggregateID := uuid.New()
	userID := uuid.New()

	event := &interactionRecordedStub{
		BaseEvent:        domain.NewBaseEvent(aggregateID, "task_interaction", "triage.interaction.recorded"),
		UserID:           userID,
		InteractionCount: 50,
	}
	event.SetMetadata(domain.EventMetadata{UserID: userID})

	msg, err := outbox.NewMessage(event)
	require.NoError(t, err)

	assert.Equal(t, event.EventID(), msg.EventID)
	assert.Equal(t, aggregateID, msg.AggregateID)
	assert.Equal(t, "task_interaction", msg.AggregateType)
	assert.Equal(t, "triage.interaction.recorded", msg.RoutingKey)
	assert.Equal(t, event.OccurredAt(), msg.CreatedAt)
	assert.False(t, msg.IsPublished())

	// The payload carries the concrete event's exported fields.
	var payload map[string]any
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, userID.String(), payload["user_id"])
	assert.Equal(t, float64(50), payload["interaction_count"])

	var metadata domain.EventMetadata
	require.NoError(t, json.Unmarshal(msg.Metadata, &metadata))
	assert.Equal(t, userID, metadata.UserID)
}

func TestMessage_IsPublished(t *testing.T) {
	msg := pendingMessage("triage.interaction.recorded")
	assert.False(t, msg.IsPublished())

	now := time.Now()
	msg.PublishedAt = &now
	assert.True(t, msg.IsPublished())
}

func TestMessage_CanRetry(t *testing.T) {
	msg := pendingMessage("triage.interaction.recorded")

	assert.True(t, msg.CanRetry(3))

	msg.RetryCount = 2
	assert.True(t, msg.CanRetry(3))

	msg.RetryCount = 3
	assert.False(t, msg.CanRetry(3))
}
