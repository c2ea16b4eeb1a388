// Package subscribers wires domain events to follow-up work: the training
// subscriber retrains a user's model on the retraining cadence.
package subscribers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/careflowhq/careflow/internal/shared/infrastructure/eventbus"
	"github.com/careflowhq/careflow/internal/triage/application/commands"
	"github.com/careflowhq/careflow/internal/triage/domain/interaction"
)

// TrainingSubscriber listens for recorded interactions and triggers a
// training run whenever a user's interaction count lands on the retraining
// cadence. The count carried in the event was captured inside the recording
// transaction, so each boundary fires exactly one attempt.
type TrainingSubscriber struct {
	trainModel   *commands.TrainModelHandler
	retrainEvery int
	logger       *slog.Logger
}

// NewTrainingSubscriber creates a TrainingSubscriber.
func NewTrainingSubscriber(trainModel *commands.TrainModelHandler, retrainEvery int, logger *slog.Logger) *TrainingSubscriber {
	return &TrainingSubscriber{
		trainModel:   trainModel,
		retrainEvery: retrainEvery,
		logger:       logger,
	}
}

// EventTypes returns the routing keys this subscriber handles.
func (s *TrainingSubscriber) EventTypes() []string {
	return []string{interaction.RoutingKeyRecorded}
}

// Handle retrains the user's model when the event lands on a cadence
// boundary. Training errors are returned so the bus can retry.
func (s *TrainingSubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var payload interaction.RecordedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("decoding interaction recorded payload: %w", err)
	}

	if s.retrainEvery <= 0 || payload.InteractionCount%s.retrainEvery != 0 {
		return nil
	}

	s.logger.InfoContext(ctx, "retraining cadence reached",
		slog.String("user_id", payload.UserID.String()),
		slog.Int("interaction_count", payload.InteractionCount),
	)

	result, err := s.trainModel.Handle(ctx, commands.TrainModelCommand{UserID: payload.UserID})
	if err != nil {
		return fmt.Errorf("training model for user %s: %w", payload.UserID, err)
	}
	if result.NeedsMoreData {
		s.logger.InfoContext(ctx, "training deferred, waiting for more interactions",
			slog.String("user_id", payload.UserID.String()),
			slog.Int("interaction_count", result.InteractionCount),
		)
	}
	return nil
}
