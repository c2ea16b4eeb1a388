package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/careflowhq/careflow/internal/shared/application"
	"github.com/careflowhq/careflow/internal/shared/infrastructure/outbox"
	"github.com/careflowhq/careflow/internal/triage/application/services"
	"github.com/careflowhq/careflow/internal/triage/domain/interaction"
	"github.com/careflowhq/careflow/internal/triage/domain/model"
	"github.com/careflowhq/careflow/pkg/observability"
)

// ActiveModelCache is the cache invalidation hook used after retraining.
type ActiveModelCache interface {
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// TrainModelCommand requests a training run for one user.
type TrainModelCommand struct {
	UserID uuid.UUID
}

// TrainModelResult reports the outcome of a training run. Trained is false
// both when there is not enough data yet and when a concurrent run won.
type TrainModelResult struct {
	Trained          bool
	NeedsMoreData    bool
	ModelVersion     int
	InteractionCount int
}

// TrainModelHandler trains and activates a new model version from the user's
// full interaction history.
type TrainModelHandler struct {
	interactions interaction.Repository
	models       model.Repository
	trainer      *services.Trainer
	cache        ActiveModelCache
	outboxRepo   outbox.Repository
	uow          application.UnitOfWork
	minSamples   int
	logger       *slog.Logger
	metrics      observability.Metrics
}

// NewTrainModelHandler creates a TrainModelHandler.
func NewTrainModelHandler(
	interactions interaction.Repository,
	models model.Repository,
	trainer *services.Trainer,
	cache ActiveModelCache,
	outboxRepo outbox.Repository,
	uow application.UnitOfWork,
	minSamples int,
	logger *slog.Logger,
	metrics observability.Metrics,
) *TrainModelHandler {
	return &TrainModelHandler{
		interactions: interactions,
		models:       models,
		trainer:      trainer,
		cache:        cache,
		outboxRepo:   outboxRepo,
		uow:          uow,
		minSamples:   minSamples,
		logger:       logger,
		metrics:      metrics,
	}
}

// Handle runs one training pass. Below the sample threshold it reports
// NeedsMoreData without error; on a concurrent-training conflict it backs
// off, since the other run already produced an equivalent model.
func (h *TrainModelHandler) Handle(ctx context.Context, cmd TrainModelCommand) (*TrainModelResult, error) {
	if cmd.UserID == uuid.Nil {
		return nil, errors.New("user id is required")
	}

	var result TrainModelResult

	err := application.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		count, err := h.interactions.CountByUser(txCtx, cmd.UserID)
		if err != nil {
			return fmt.Errorf("counting interactions: %w", err)
		}
		result.InteractionCount = count

		if count < h.minSamples {
			result.NeedsMoreData = true
			return nil
		}

		history, err := h.interactions.ListByUser(txCtx, cmd.UserID)
		if err != nil {
			return fmt.Errorf("loading interaction history: %w", err)
		}

		weights, err := h.trainer.Train(history)
		if err != nil {
			return fmt.Errorf("training weights: %w", err)
		}

		latest, err := h.models.LatestVersion(txCtx, cmd.UserID)
		if err != nil {
			return fmt.Errorf("resolving latest version: %w", err)
		}

		m, err := model.NewPriorityModel(
			cmd.UserID, latest+1,
			weights.TaskTypes, weights.Urgencies, weights.TimePatterns,
			count,
		)
		if err != nil {
			return err
		}
		application.ApplyEventMetadata(m.DomainEvents(), application.NewEventMetadata(cmd.UserID))

		if err := h.models.SaveNewVersion(txCtx, m); err != nil {
			return err
		}

		for _, event := range m.DomainEvents() {
			msg, err := outbox.NewMessage(event)
			if err != nil {
				return fmt.Errorf("building outbox message: %w", err)
			}
			if err := h.outboxRepo.Save(txCtx, msg); err != nil {
				return fmt.Errorf("saving outbox message: %w", err)
			}
		}
		m.ClearDomainEvents()

		result.Trained = true
		result.ModelVersion = m.ModelVersion()
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrConcurrentTraining) {
			h.logger.InfoContext(ctx, "training already completed by concurrent run",
				slog.String("user_id", cmd.UserID.String()))
			return &result, nil
		}
		return nil, err
	}

	if result.NeedsMoreData {
		h.metrics.Counter(observability.MetricTrainingsSkipped, 1)
		h.logger.InfoContext(ctx, "training skipped, not enough interactions",
			slog.String("user_id", cmd.UserID.String()),
			slog.Int("interaction_count", result.InteractionCount),
			slog.Int("min_samples", h.minSamples),
		)
		return &result, nil
	}

	if h.cache != nil {
		if err := h.cache.Invalidate(ctx, cmd.UserID); err != nil {
			h.logger.WarnContext(ctx, "model cache invalidation failed",
				slog.String("user_id", cmd.UserID.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	h.metrics.Counter(observability.MetricTrainingsRun, 1)
	h.logger.InfoContext(ctx, "model trained",
		slog.String("user_id", cmd.UserID.String()),
		slog.Int("version", result.ModelVersion),
		slog.Int("interaction_count", result.InteractionCount),
	)
	return &result, nil
}
