// Package worklist defines the normalized view of pending clinical work:
// the Task shape shared by all source adapters, the closed task-type and
// urgency enums, and the audit record written for every scoring decision.
package worklist

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskType identifies the kind of clinical work a task represents.
// The set is closed: unknown types are rejected at the boundary instead of
// silently contributing zero weight downstream.
type TaskType string

const (
	TaskTypePendingItem      TaskType = "pending_item"
	TaskTypeUrgentCare       TaskType = "urgent_care"
	TaskTypeMedicationRefill TaskType = "medication_refill"
	TaskTypeMessage          TaskType = "message"
)

// AllTaskTypes returns every known task type.
func AllTaskTypes() []TaskType {
	return []TaskType{
		TaskTypePendingItem,
		TaskTypeUrgentCare,
		TaskTypeMedicationRefill,
		TaskTypeMessage,
	}
}

// ErrUnknownTaskType is returned for task types outside the closed enum.
var ErrUnknownTaskType = errors.New("unknown task type")

// ParseTaskType validates a raw string against the closed enum.
func ParseTaskType(raw string) (TaskType, error) {
	t := TaskType(raw)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTaskType, raw)
	}
	return t, nil
}

// IsValid returns true for a known task type.
func (t TaskType) IsValid() bool {
	switch t {
	case TaskTypePendingItem, TaskTypeUrgentCare, TaskTypeMedicationRefill, TaskTypeMessage:
		return true
	default:
		return false
	}
}

// String returns the string representation of the task type.
func (t TaskType) String() string {
	return string(t)
}

// SuggestedAction returns the operator action implied by the task type.
func (t TaskType) SuggestedAction() string {
	switch t {
	case TaskTypeUrgentCare:
		return "review_urgent_request"
	case TaskTypeMedicationRefill:
		return "approve_or_deny_refill"
	case TaskTypeMessage:
		return "read_and_reply"
	default:
		return "review_item"
	}
}

// Urgency classifies how urgent a task is. The zero value means the source
// did not provide one.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// ParseUrgency validates a raw urgency label. Empty input is allowed and
// returns the zero value.
func ParseUrgency(raw string) (Urgency, error) {
	if raw == "" {
		return "", nil
	}
	u := Urgency(raw)
	switch u {
	case UrgencyHigh, UrgencyMedium, UrgencyLow:
		return u, nil
	default:
		return "", fmt.Errorf("unknown urgency: %q", raw)
	}
}

// String returns the string representation of the urgency.
func (u Urgency) String() string {
	return string(u)
}

// Task is the normalized, ephemeral representation of one piece of pending
// work. It is synthesized per scoring request and never persisted; Original
// carries an opaque reference back to the source record.
type Task struct {
	ID          uuid.UUID
	Type        TaskType
	PatientID   *uuid.UUID
	Title       string
	Description string
	Urgency     Urgency
	CreatedAt   time.Time
	DueDate     *time.Time
	Status      string
	Source      string
	Original    any
}
