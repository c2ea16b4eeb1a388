package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careflowhq/careflow/internal/triage/domain/worklist"
	"github.com/careflowhq/careflow/pkg/observability"
)

// countingSource fails a configurable number of times before recovering.
type countingSource struct {
	name      string
	tasks     []worklist.Task
	failUntil int
	calls     int
}

func (s *countingSource) Name() string { return s.name }

func (s *countingSource) ListOpen(ctx context.Context, userID uuid.UUID) ([]worklist.Task, error) {
	s.calls++
	if s.calls <= s.failUntil {
		return nil, errors.New("upstream unavailable")
	}
	return s.tasks, nil
}

func testAggregator(sources ...worklist.Source) *Aggregator {
	return NewAggregator(sources, slog.New(slog.DiscardHandler), observability.NoopMetrics{})
}

func TestAggregator_ListOpenTasks(t *testing.T) {
	userID := uuid.New()
	now := time.Now().UTC()

	t.Run("merges tasks from all sources", func(t *testing.T) {
		a := worklist.Task{ID: uuid.New(), Type: worklist.TaskTypePendingItem, CreatedAt: now}
		b := worklist.Task{ID: uuid.New(), Type: worklist.TaskTypeMessage, CreatedAt: now}
		agg := testAggregator(
			&countingSource{name: "one", tasks: []worklist.Task{a}},
			&countingSource{name: "two", tasks: []worklist.Task{b}},
		)

		tasks, failed := agg.ListOpenTasks(context.Background(), userID)

		require.Len(t, tasks, 2)
		assert.Empty(t, failed)
	})

	t.Run("a failing source is skipped, not fatal", func(t *testing.T) {
		ok := worklist.Task{ID: uuid.New(), Type: worklist.TaskTypePendingItem, CreatedAt: now}
		agg := testAggregator(
			&countingSource{name: "healthy", tasks: []worklist.Task{ok}},
			&countingSource{name: "broken", failUntil: 100},
		)

		tasks, failed := agg.ListOpenTasks(context.Background(), userID)

		require.Len(t, tasks, 1)
		assert.Equal(t, ok.ID, tasks[0].ID)
		assert.Equal(t, []string{"broken"}, failed)
	})

	t.Run("breaker opens after consecutive failures and stops calling the source", func(t *testing.T) {
		broken := &countingSource{name: "broken", failUntil: 100}
		agg := testAggregator(broken)

		for i := 0; i < 5; i++ {
			_, failed := agg.ListOpenTasks(context.Background(), userID)
			assert.Equal(t, []string{"broken"}, failed)
		}

		// Three real attempts trip the breaker; the rest short-circuit.
		assert.Equal(t, 3, broken.calls)
	})
}
