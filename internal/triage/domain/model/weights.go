// Package model holds the per-user priority model: versioned, typed weight
// maps learned from interaction history, with exactly one active version per
// user at any time.
package model

import (
	"time"

	"github.com/careflowhq/careflow/internal/triage/domain/worklist"
)

// DayPart buckets the time of day for time-pattern weights.
type DayPart string

const (
	DayPartMorning   DayPart = "morning"
	DayPartAfternoon DayPart = "afternoon"
	DayPartEvening   DayPart = "evening"
)

// DayPartForTime buckets a timestamp: morning before 12:00, afternoon from
// 12:00 to 17:59, evening from 18:00. The hour is taken in the timestamp's
// own location; callers pass UTC throughout so training and scoring agree.
func DayPartForTime(t time.Time) DayPart {
	switch h := t.Hour(); {
	case h < 12:
		return DayPartMorning
	case h < 18:
		return DayPartAfternoon
	default:
		return DayPartEvening
	}
}

// AllDayParts returns every day part bucket.
func AllDayParts() []DayPart {
	return []DayPart{DayPartMorning, DayPartAfternoon, DayPartEvening}
}

// TaskTypeWeights maps each task type to its learned preference weight.
// A freshly trained map is normalized so the weights sum to 1.
type TaskTypeWeights map[worklist.TaskType]float64

// Weight returns the weight for a task type, zero when absent.
func (w TaskTypeWeights) Weight(t worklist.TaskType) float64 {
	return w[t]
}

// Sum returns the total of all weights.
func (w TaskTypeWeights) Sum() float64 {
	var total float64
	for _, v := range w {
		total += v
	}
	return total
}

// UrgencyWeights maps urgency labels to weights.
type UrgencyWeights map[worklist.Urgency]float64

// DefaultUrgencyWeights returns the weights used when interaction history
// carries no urgency signal.
func DefaultUrgencyWeights() UrgencyWeights {
	return UrgencyWeights{
		worklist.UrgencyHigh:   1.0,
		worklist.UrgencyMedium: 0.6,
		worklist.UrgencyLow:    0.3,
	}
}

// Weight returns the weight for an urgency label, zero when absent.
func (w UrgencyWeights) Weight(u worklist.Urgency) float64 {
	return w[u]
}

// TimePatternWeights maps (task type, day part) to the learned share of that
// type's interactions occurring in that bucket.
type TimePatternWeights map[worklist.TaskType]map[DayPart]float64

// Weight returns the weight for a task type in a day part, zero when absent.
func (w TimePatternWeights) Weight(t worklist.TaskType, p DayPart) float64 {
	byPart, ok := w[t]
	if !ok {
		return 0
	}
	return byPart[p]
}
