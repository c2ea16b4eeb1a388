package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/careflowhq/careflow/internal/shared/domain"
)

type stubAggregate struct {
	domain.BaseAggregateRoot
	Name string
}

func newStubAggregate(name string) *stubAggregate {
	return &stubAggregate{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(),
		Name:              name,
	}
}

type stubAggregateEvent struct {
	domain.BaseEvent
}

func newStubAggregateEvent(aggregateID uuid.UUID) stubAggregateEvent {
	return stubAggregateEvent{
		BaseEvent: domain.NewBaseEvent(aggregateID, "stub_aggregate", "triage.stub.created"),
	}
}

func TestNewBaseAggregateRoot(t *testing.T) {
	agg := domain.NewBaseAggregateRoot()

	assert.NotEqual(t, uuid.Nil, agg.ID())
	assert.Equal(t, 0, agg.Version())
	assert.Empty(t, agg.DomainEvents())
}

func TestBaseAggregateRoot_AddDomainEvent(t *testing.T) {
	agg := newStubAggregate("worklist")
	event := newStubAggregateEvent(agg.ID())

	agg.AddDomainEvent(event)

	events := agg.DomainEvents()
	assert.Len(t, events, 1)
	assert.Equal(t, event.EventID(), events[0].EventID())
}

func TestBaseAggregateRoot_ClearDomainEvents(t *testing.T) {
	agg := newStubAggregate("worklist")
	agg.AddDomainEvent(newStubAggregateEvent(agg.ID()))
	agg.AddDomainEvent(newStubAggregateEvent(agg.ID()))

	assert.Len(t, agg.DomainEvents(), 2)

	agg.ClearDomainEvents()

	assert.Empty(t, agg.DomainEvents())
}

func TestBaseAggregateRoot_IncrementVersion(t *testing.T) {
	agg := newStubAggregate("worklist")

	assert.Equal(t, 0, agg.Version())

	agg.IncrementVersion()
	assert.Equal(t, 1, agg.Version())

	agg.IncrementVersion()
	assert.Equal(t, 2, agg.Version())
}

func TestRehydrateBaseAggregateRoot(t *testing.T) {
	original := domain.NewBaseAggregateRoot()

	rehydrated := domain.RehydrateBaseAggregateRoot(
		domain.RehydrateBaseEntity(original.ID(), original.CreatedAt(), original.UpdatedAt()), 3,
	)

	assert.Equal(t, original.ID(), rehydrated.ID())
	assert.Equal(t, 3, rehydrated.Version())
	assert.Empty(t, rehydrated.DomainEvents())
}
