// Package commands contains the command handlers of the triage context:
// recording interactions, training models and running prioritization passes.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/careflowhq/careflow/internal/shared/application"
	"github.com/careflowhq/careflow/internal/shared/domain"
	"github.com/careflowhq/careflow/internal/shared/infrastructure/outbox"
	"github.com/careflowhq/careflow/internal/triage/application/services"
	"github.com/careflowhq/careflow/internal/triage/domain/interaction"
	"github.com/careflowhq/careflow/internal/triage/domain/worklist"
	"github.com/careflowhq/careflow/pkg/observability"
)

// RecordInteractionCommand captures one user action on a task.
type RecordInteractionCommand struct {
	UserID         uuid.UUID
	TaskID         uuid.UUID
	TaskType       string
	Action         string
	OrderInSession *int
	TimeSpent      *time.Duration
	Context        map[string]string
}

// RecordInteractionResult reports the recorded interaction and whether it
// landed on a retraining boundary.
type RecordInteractionResult struct {
	InteractionID     uuid.UUID
	SessionID         uuid.UUID
	InteractionCount  int
	TrainingRequested bool
}

// RecordInteractionHandler appends interactions and hands the retraining
// signal to the outbox. Training itself runs asynchronously off the event so
// the write path stays fast.
type RecordInteractionHandler struct {
	interactions interaction.Repository
	outboxRepo   outbox.Repository
	sessions     *services.SessionResolver
	uow          application.UnitOfWork
	retrainEvery int
	logger       *slog.Logger
	metrics      observability.Metrics
	now          func() time.Time
}

// NewRecordInteractionHandler creates a RecordInteractionHandler.
func NewRecordInteractionHandler(
	interactions interaction.Repository,
	outboxRepo outbox.Repository,
	sessions *services.SessionResolver,
	uow application.UnitOfWork,
	retrainEvery int,
	logger *slog.Logger,
	metrics observability.Metrics,
) *RecordInteractionHandler {
	return &RecordInteractionHandler{
		interactions: interactions,
		outboxRepo:   outboxRepo,
		sessions:     sessions,
		uow:          uow,
		retrainEvery: retrainEvery,
		logger:       logger,
		metrics:      metrics,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Handle validates, resolves the session, appends the interaction and writes
// the Recorded event to the outbox, all in one transaction.
func (h *RecordInteractionHandler) Handle(ctx context.Context, cmd RecordInteractionCommand) (*RecordInteractionResult, error) {
	taskType, err := worklist.ParseTaskType(cmd.TaskType)
	if err != nil {
		return nil, err
	}

	now := h.now()
	var result RecordInteractionResult

	err = application.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		sessionID, err := h.sessions.Resolve(txCtx, cmd.UserID, now)
		if err != nil {
			return err
		}

		rec, err := interaction.NewTaskInteraction(
			cmd.UserID, cmd.TaskID, taskType, cmd.Action,
			sessionID, cmd.OrderInSession, cmd.TimeSpent, cmd.Context, now,
		)
		if err != nil {
			return err
		}

		if err := h.interactions.Append(txCtx, rec); err != nil {
			return fmt.Errorf("appending interaction: %w", err)
		}

		count, err := h.interactions.CountByUser(txCtx, cmd.UserID)
		if err != nil {
			return fmt.Errorf("counting interactions: %w", err)
		}

		event := interaction.NewRecorded(rec, count)
		application.ApplyEventMetadata(
			[]domain.DomainEvent{event},
			application.NewEventMetadata(cmd.UserID),
		)
		msg, err := outbox.NewMessage(event)
		if err != nil {
			return fmt.Errorf("building outbox message: %w", err)
		}
		if err := h.outboxRepo.Save(txCtx, msg); err != nil {
			return fmt.Errorf("saving outbox message: %w", err)
		}

		result = RecordInteractionResult{
			InteractionID:     rec.ID(),
			SessionID:         sessionID,
			InteractionCount:  count,
			TrainingRequested: h.retrainEvery > 0 && count%h.retrainEvery == 0,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.metrics.Counter(observability.MetricInteractionsRecorded, 1,
		observability.T("task_type", taskType.String()))
	h.logger.InfoContext(ctx, "interaction recorded",
		slog.String("user_id", cmd.UserID.String()),
		slog.String("task_type", taskType.String()),
		slog.String("session_id", result.SessionID.String()),
		slog.Int("interaction_count", result.InteractionCount),
		slog.Bool("training_requested", result.TrainingRequested),
	)
	return &result, nil
}
