package services

import (
	"errors"

	"github.com/careflowhq/careflow/internal/triage/domain/interaction"
	"github.com/careflowhq/careflow/internal/triage/domain/model"
	"github.com/careflowhq/careflow/internal/triage/domain/worklist"
)

// ErrNoInteractions is returned when training is attempted with no data.
var ErrNoInteractions = errors.New("no interactions to train on")

// TrainedWeights is the output of one training run.
type TrainedWeights struct {
	TaskTypes    model.TaskTypeWeights
	Urgencies    model.UrgencyWeights
	TimePatterns model.TimePatternWeights
}

// Trainer derives model weights from a user's interaction history. It is a
// pure computation; persistence and cadence live in the command handlers.
type Trainer struct{}

// NewTrainer creates a Trainer.
func NewTrainer() *Trainer {
	return &Trainer{}
}

// Train computes weights from interaction history:
//
//   - task type weights are each type's share of all interactions,
//   - urgency weights are each label's share of interactions that carried
//     one, falling back to defaults when none did,
//   - time pattern weights are, per task type, the share of that type's
//     interactions falling in each day part.
//
// All maps are normalized so each weight group sums to 1.
func (t *Trainer) Train(interactions []*interaction.TaskInteraction) (TrainedWeights, error) {
	if len(interactions) == 0 {
		return TrainedWeights{}, ErrNoInteractions
	}

	typeCounts := make(map[worklist.TaskType]int)
	urgencyCounts := make(map[worklist.Urgency]int)
	patternCounts := make(map[worklist.TaskType]map[model.DayPart]int)
	urgencyTotal := 0

	for _, i := range interactions {
		typeCounts[i.TaskType()]++

		if u, ok := i.Urgency(); ok {
			urgencyCounts[u]++
			urgencyTotal++
		}

		part := model.DayPartForTime(i.OccurredAt())
		if patternCounts[i.TaskType()] == nil {
			patternCounts[i.TaskType()] = make(map[model.DayPart]int)
		}
		patternCounts[i.TaskType()][part]++
	}

	total := float64(len(interactions))
	typeWeights := make(model.TaskTypeWeights, len(typeCounts))
	for taskType, count := range typeCounts {
		typeWeights[taskType] = float64(count) / total
	}

	urgencyWeights := model.DefaultUrgencyWeights()
	if urgencyTotal > 0 {
		urgencyWeights = make(model.UrgencyWeights, len(urgencyCounts))
		for label, count := range urgencyCounts {
			urgencyWeights[label] = float64(count) / float64(urgencyTotal)
		}
	}

	patternWeights := make(model.TimePatternWeights, len(patternCounts))
	for taskType, byPart := range patternCounts {
		typeTotal := float64(typeCounts[taskType])
		weights := make(map[model.DayPart]float64, len(byPart))
		for part, count := range byPart {
			weights[part] = float64(count) / typeTotal
		}
		patternWeights[taskType] = weights
	}

	return TrainedWeights{
		TaskTypes:    typeWeights,
		Urgencies:    urgencyWeights,
		TimePatterns: patternWeights,
	}, nil
}
