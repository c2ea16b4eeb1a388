package outbox

import (
	"context"
	"time"
)

// Repository defines persistence for outbox messages.
type Repository interface {
	// Save stores a new outbox message.
	Save(ctx context.Context, msg *Message) error

	// SaveBatch stores multiple outbox messages atomically.
	SaveBatch(ctx context.Context, msgs []*Message) error

	// GetUnpublished returns messages ready for publishing, oldest first.
	GetUnpublished(ctx context.Context, limit int) ([]*Message, error)

	// MarkPublished records a successful publish.
	MarkPublished(ctx context.Context, id int64) error

	// MarkFailed records a failed publish attempt and schedules a retry.
	MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error

	// MarkDead parks a message that exhausted its retries.
	MarkDead(ctx context.Context, id int64, reason string) error

	// DeleteOld removes published messages older than the retention window.
	DeleteOld(ctx context.Context, olderThanDays int) (int64, error)
}
