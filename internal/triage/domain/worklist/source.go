package worklist

import (
	"context"

	"github.com/google/uuid"
)

// Source adapts one upstream system (pending items, urgent care requests,
// medication refills, patient messages) into the normalized Task shape.
//
// A failing source surfaces its error to the aggregator, which decides
// whether to degrade gracefully; implementations must not return partial
// slices alongside an error.
type Source interface {
	// Name identifies the source in logs, metrics and audit records.
	Name() string
	// ListOpen returns the open tasks the given user is responsible for.
	ListOpen(ctx context.Context, userID uuid.UUID) ([]Task, error)
}
