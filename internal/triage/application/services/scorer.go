// Package services contains the domain services of the triage context: task
// scoring, weight training, session resolution and multi-source aggregation.
package services

import (
	"fmt"
	"time"

	"github.com/careflowhq/careflow/internal/triage/domain/model"
	"github.com/careflowhq/careflow/internal/triage/domain/worklist"
)

// Scoring constants. Every score starts from the base and moves within
// [MinScore, MaxScore].
const (
	BaseScore = 50.0
	MinScore  = 0.0
	MaxScore  = 100.0

	taskTypeFactor    = 20.0
	urgencyFactor     = 15.0
	timePatternFactor = 10.0
)

// Scorer computes priority scores for tasks, either from a trained model or
// from heuristic rules when no model exists yet.
type Scorer struct{}

// NewScorer creates a Scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes the priority of a task. When m is nil the heuristic rules
// apply. The returned reasoning lists every factor that contributed.
func (s *Scorer) Score(task worklist.Task, m *model.PriorityModel, now time.Time) (float64, worklist.Reasoning) {
	if m == nil {
		return s.scoreHeuristic(task, now)
	}
	return s.scoreWithModel(task, m, now)
}

func (s *Scorer) scoreWithModel(task worklist.Task, m *model.PriorityModel, now time.Time) (float64, worklist.Reasoning) {
	reasoning := worklist.Reasoning{
		Basis: worklist.ReasoningBasisModel,
		Base:  BaseScore,
	}
	score := BaseScore

	typeWeight := m.TaskTypeWeights().Weight(task.Type)
	contribution := typeWeight * taskTypeFactor
	score += contribution
	reasoning.Factors = append(reasoning.Factors, worklist.ScoreFactor{
		Name:         fmt.Sprintf("task_type:%s", task.Type),
		Weight:       typeWeight,
		Contribution: contribution,
	})

	if task.Urgency != "" {
		urgencyWeight := m.UrgencyWeights().Weight(task.Urgency)
		contribution = urgencyWeight * urgencyFactor
		score += contribution
		reasoning.Factors = append(reasoning.Factors, worklist.ScoreFactor{
			Name:         fmt.Sprintf("urgency:%s", task.Urgency),
			Weight:       urgencyWeight,
			Contribution: contribution,
		})
	}

	dayPart := model.DayPartForTime(now)
	patternWeight := m.TimePatternWeights().Weight(task.Type, dayPart)
	if patternWeight > 0 {
		contribution = patternWeight * timePatternFactor
		score += contribution
		reasoning.Factors = append(reasoning.Factors, worklist.ScoreFactor{
			Name:         fmt.Sprintf("time_pattern:%s", dayPart),
			Weight:       patternWeight,
			Contribution: contribution,
		})
	}

	return clampScore(score), reasoning
}

// scoreHeuristic applies the cold-start rules: urgent care dominates,
// medication refills follow, newer tasks get a recency boost.
func (s *Scorer) scoreHeuristic(task worklist.Task, now time.Time) (float64, worklist.Reasoning) {
	reasoning := worklist.Reasoning{
		Basis: worklist.ReasoningBasisHeuristic,
		Base:  BaseScore,
	}
	score := BaseScore

	addFactor := func(name string, contribution float64) {
		score += contribution
		reasoning.Factors = append(reasoning.Factors, worklist.ScoreFactor{
			Name:         name,
			Contribution: contribution,
		})
	}

	switch task.Type {
	case worklist.TaskTypeUrgentCare:
		addFactor("task_type:urgent_care", 25)
		switch task.Urgency {
		case worklist.UrgencyHigh:
			addFactor("urgency:high", 15)
		case worklist.UrgencyMedium:
			addFactor("urgency:medium", 10)
		}
	case worklist.TaskTypeMedicationRefill:
		addFactor("task_type:medication_refill", 15)
	}

	age := now.Sub(task.CreatedAt)
	if age < 24*time.Hour {
		addFactor("age:under_24h", 10)
	} else if age < 72*time.Hour {
		addFactor("age:under_72h", 5)
	}

	return clampScore(score), reasoning
}

func clampScore(score float64) float64 {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
