package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/careflowhq/careflow/internal/shared/application"
	"github.com/careflowhq/careflow/internal/triage/application/services"
	"github.com/careflowhq/careflow/internal/triage/domain/model"
	"github.com/careflowhq/careflow/internal/triage/domain/worklist"
	"github.com/careflowhq/careflow/pkg/observability"
)

// ActiveModelProvider resolves the user's active model, usually through the
// read-through cache.
type ActiveModelProvider interface {
	ActiveModel(ctx context.Context, userID uuid.UUID) (*model.PriorityModel, error)
}

// PrioritizeTasksCommand requests a scored worklist for one user.
type PrioritizeTasksCommand struct {
	UserID uuid.UUID
}

// PrioritizedTaskView is one scored task in rank order.
type PrioritizedTaskView struct {
	Task            worklist.Task
	Score           float64
	Reasoning       worklist.Reasoning
	SuggestedAction string
}

// PrioritizeTasksResult is a full scored worklist plus provenance.
type PrioritizeTasksResult struct {
	Tasks          []PrioritizedTaskView
	ModelVersion   *int
	SkippedSources []string
	GeneratedAt    time.Time
}

// PrioritizeTasksHandler aggregates tasks from all sources, scores them and
// records the pass in the audit trail.
type PrioritizeTasksHandler struct {
	aggregator *services.Aggregator
	models     ActiveModelProvider
	scorer     *services.Scorer
	audit      worklist.AuditRepository
	uow        application.UnitOfWork
	logger     *slog.Logger
	metrics    observability.Metrics
	now        func() time.Time
}

// NewPrioritizeTasksHandler creates a PrioritizeTasksHandler.
func NewPrioritizeTasksHandler(
	aggregator *services.Aggregator,
	models ActiveModelProvider,
	scorer *services.Scorer,
	audit worklist.AuditRepository,
	uow application.UnitOfWork,
	logger *slog.Logger,
	metrics observability.Metrics,
) *PrioritizeTasksHandler {
	return &PrioritizeTasksHandler{
		aggregator: aggregator,
		models:     models,
		scorer:     scorer,
		audit:      audit,
		uow:        uow,
		logger:     logger,
		metrics:    metrics,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Handle produces the ranked worklist. Ordering is deterministic: score
// descending, then task creation time ascending, then task ID.
func (h *PrioritizeTasksHandler) Handle(ctx context.Context, cmd PrioritizeTasksCommand) (*PrioritizeTasksResult, error) {
	if cmd.UserID == uuid.Nil {
		return nil, errors.New("user id is required")
	}

	start := h.now()
	tasks, skipped := h.aggregator.ListOpenTasks(ctx, cmd.UserID)

	activeModel, err := h.models.ActiveModel(ctx, cmd.UserID)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("loading active model: %w", err)
		}
		activeModel = nil
	}

	var modelVersion *int
	if activeModel != nil {
		v := activeModel.ModelVersion()
		modelVersion = &v
	}

	views := make([]PrioritizedTaskView, 0, len(tasks))
	records := make([]worklist.PrioritizedTask, 0, len(tasks))
	for _, task := range tasks {
		score, reasoning := h.scorer.Score(task, activeModel, start)
		views = append(views, PrioritizedTaskView{
			Task:            task,
			Score:           score,
			Reasoning:       reasoning,
			SuggestedAction: task.Type.SuggestedAction(),
		})
		records = append(records, worklist.NewPrioritizedTask(cmd.UserID, task, score, reasoning, modelVersion))
	}

	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i], views[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Task.CreatedAt.Equal(b.Task.CreatedAt) {
			return a.Task.CreatedAt.Before(b.Task.CreatedAt)
		}
		return a.Task.ID.String() < b.Task.ID.String()
	})

	if len(records) > 0 {
		err = application.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
			return h.audit.SaveBatch(txCtx, records)
		})
		if err != nil {
			return nil, fmt.Errorf("saving audit records: %w", err)
		}
	}

	h.metrics.Counter(observability.MetricScoringPasses, 1)
	h.metrics.Timing(observability.MetricOperationDuration, time.Since(start),
		observability.T("operation", "prioritize_tasks"))
	h.logger.InfoContext(ctx, "prioritization pass complete",
		slog.String("user_id", cmd.UserID.String()),
		slog.Int("task_count", len(views)),
		slog.Int("skipped_sources", len(skipped)),
		slog.Bool("model_used", activeModel != nil),
	)

	return &PrioritizeTasksResult{
		Tasks:          views,
		ModelVersion:   modelVersion,
		SkippedSources: skipped,
		GeneratedAt:    start,
	}, nil
}
