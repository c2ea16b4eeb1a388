package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/careflowhq/careflow/internal/triage/domain/worklist"
	"github.com/careflowhq/careflow/pkg/observability"
)

// Aggregator fans out to every task source and merges the results. Each
// source sits behind its own circuit breaker, and a failing or open source
// is skipped rather than failing the whole pass: a broken collaborator must
// not take the worklist down with it.
type Aggregator struct {
	sources  []worklist.Source
	breakers map[string]*gobreaker.CircuitBreaker[[]worklist.Task]
	logger   *slog.Logger
	metrics  observability.Metrics
}

// NewAggregator creates an Aggregator over the given sources.
func NewAggregator(sources []worklist.Source, logger *slog.Logger, metrics observability.Metrics) *Aggregator {
	breakers := make(map[string]*gobreaker.CircuitBreaker[[]worklist.Task], len(sources))
	for _, src := range sources {
		breakers[src.Name()] = gobreaker.NewCircuitBreaker[[]worklist.Task](gobreaker.Settings{
			Name:    src.Name(),
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		})
	}
	return &Aggregator{
		sources:  sources,
		breakers: breakers,
		logger:   logger,
		metrics:  metrics,
	}
}

// ListOpenTasks returns the open tasks for a user across all reachable
// sources, along with the names of sources that could not be consulted.
func (a *Aggregator) ListOpenTasks(ctx context.Context, userID uuid.UUID) ([]worklist.Task, []string) {
	var tasks []worklist.Task
	var failed []string

	for _, src := range a.sources {
		breaker := a.breakers[src.Name()]
		result, err := breaker.Execute(func() ([]worklist.Task, error) {
			return src.ListOpen(ctx, userID)
		})
		if err != nil {
			a.metrics.Counter(observability.MetricSourceFailures, 1, observability.T("source", src.Name()))
			a.logger.WarnContext(ctx, "task source unavailable, skipping",
				slog.String("source", src.Name()),
				slog.String("user_id", userID.String()),
				slog.String("error", err.Error()),
			)
			failed = append(failed, src.Name())
			continue
		}
		tasks = append(tasks, result...)
	}

	return tasks, failed
}
