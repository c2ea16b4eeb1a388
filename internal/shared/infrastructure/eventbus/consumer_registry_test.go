package eventbus_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careflowhq/careflow/internal/shared/infrastructure/eventbus"
)

type mockConsumer struct {
	eventTypes []string
	events     []*eventbus.ConsumedEvent
	err        error
}

func (m *mockConsumer) EventTypes() []string {
	return m.eventTypes
}

func (m *mockConsumer) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	m.events = append(m.events, event)
	return m.err
}

func TestConsumerRegistry_Register(t *testing.T) {
	registry := eventbus.NewConsumerRegistry(slog.New(slog.DiscardHandler))

	consumer := &mockConsumer{
		eventTypes: []string{"triage.interaction.recorded", "triage.model.trained"},
	}
	registry.Register(consumer)

	assert.Len(t, registry.GetConsumers("triage.interaction.recorded"), 1)
	assert.Len(t, registry.GetConsumers("triage.model.trained"), 1)
	assert.Empty(t, registry.GetConsumers("triage.unknown"))
}

func TestConsumerRegistry_Dispatch(t *testing.T) {
	t.Run("delivers to all consumers for the routing key", func(t *testing.T) {
		registry := eventbus.NewConsumerRegistry(slog.New(slog.DiscardHandler))
		consumer1 := &mockConsumer{eventTypes: []string{"triage.interaction.recorded"}}
		consumer2 := &mockConsumer{eventTypes: []string{"triage.interaction.recorded"}}
		other := &mockConsumer{eventTypes: []string{"triage.model.trained"}}
		registry.Register(consumer1)
		registry.Register(consumer2)
		registry.Register(other)

		event := &eventbus.ConsumedEvent{
			EventID:    uuid.New(),
			RoutingKey: "triage.interaction.recorded",
		}
		err := registry.Dispatch(context.Background(), event)

		require.NoError(t, err)
		assert.Len(t, consumer1.events, 1)
		assert.Len(t, consumer2.events, 1)
		assert.Empty(t, other.events)
	})

	t.Run("no consumers is not an error", func(t *testing.T) {
		registry := eventbus.NewConsumerRegistry(slog.New(slog.DiscardHandler))

		err := registry.Dispatch(context.Background(), &eventbus.ConsumedEvent{
			EventID:    uuid.New(),
			RoutingKey: "triage.unknown",
		})

		require.NoError(t, err)
	})

	t.Run("failing consumer does not stop the others", func(t *testing.T) {
		registry := eventbus.NewConsumerRegistry(slog.New(slog.DiscardHandler))
		handleErr := errors.New("handle failed")
		failing := &mockConsumer{eventTypes: []string{"triage.interaction.recorded"}, err: handleErr}
		healthy := &mockConsumer{eventTypes: []string{"triage.interaction.recorded"}}
		registry.Register(failing)
		registry.Register(healthy)

		err := registry.Dispatch(context.Background(), &eventbus.ConsumedEvent{
			EventID:    uuid.New(),
			RoutingKey: "triage.interaction.recorded",
		})

		assert.Equal(t, handleErr, err)
		assert.Len(t, healthy.events, 1)
	})
}
