package outbox

import (
	"context"
	"time"

	"github.com/careflowhq/careflow/internal/shared/infrastructure/database"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	conn database.Connection
}

// NewPostgresRepository creates a new PostgreSQL outbox repository.
func NewPostgresRepository(conn database.Connection) *PostgresRepository {
	return &PostgresRepository{conn: conn}
}

const insertQuery = `
	INSERT INTO outbox (
		event_id, aggregate_type, aggregate_id, event_type, routing_key,
		payload, metadata, created_at, next_retry_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id
`

// Save stores a new outbox message.
func (r *PostgresRepository) Save(ctx context.Context, msg *Message) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	return exec.QueryRow(ctx, insertQuery,
		msg.EventID,
		msg.AggregateType,
		msg.AggregateID,
		msg.EventType,
		msg.RoutingKey,
		msg.Payload,
		msg.Metadata,
		msg.CreatedAt,
		msg.NextRetryAt,
	).Scan(&msg.ID)
}

// SaveBatch stores multiple outbox messages atomically. When called inside
// a unit of work the enclosing transaction is used; otherwise a new one is
// opened for the batch.
func (r *PostgresRepository) SaveBatch(ctx context.Context, msgs []*Message) error {
	if len(msgs) == 0 {
		return nil
	}

	if database.TxFromContext(ctx) != nil {
		for _, msg := range msgs {
			if err := r.Save(ctx, msg); err != nil {
				return err
			}
		}
		return nil
	}

	tx, err := r.conn.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, msg := range msgs {
		if err := tx.QueryRow(ctx, insertQuery,
			msg.EventID,
			msg.AggregateType,
			msg.AggregateID,
			msg.EventType,
			msg.RoutingKey,
			msg.Payload,
			msg.Metadata,
			msg.CreatedAt,
			msg.NextRetryAt,
		).Scan(&msg.ID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetUnpublished returns messages ready for publishing, oldest first.
// Messages waiting on a retry backoff or dead-lettered are excluded.
func (r *PostgresRepository) GetUnpublished(ctx context.Context, limit int) ([]*Message, error) {
	query := `
		SELECT id, event_id, aggregate_type, aggregate_id, event_type, routing_key,
		       payload, metadata, created_at, published_at, next_retry_at,
		       retry_count, last_error, dead_lettered_at
		FROM outbox
		WHERE published_at IS NULL
		  AND dead_lettered_at IS NULL
		  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
		ORDER BY id
		LIMIT $1
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(
			&m.ID,
			&m.EventID,
			&m.AggregateType,
			&m.AggregateID,
			&m.EventType,
			&m.RoutingKey,
			&m.Payload,
			&m.Metadata,
			&m.CreatedAt,
			&m.PublishedAt,
			&m.NextRetryAt,
			&m.RetryCount,
			&m.LastError,
			&m.DeadLetteredAt,
		); err != nil {
			return nil, err
		}
		msgs = append(msgs, &m)
	}

	return msgs, rows.Err()
}

// MarkPublished records a successful publish.
func (r *PostgresRepository) MarkPublished(ctx context.Context, id int64) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx,
		`UPDATE outbox SET published_at = NOW() WHERE id = $1`, id)
	return err
}

// MarkFailed records a failed publish attempt and schedules a retry.
func (r *PostgresRepository) MarkFailed(ctx context.Context, id int64, errMsg string, nextRetryAt time.Time) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, `
		UPDATE outbox
		SET retry_count = retry_count + 1, last_error = $2, next_retry_at = $3
		WHERE id = $1
	`, id, errMsg, nextRetryAt)
	return err
}

// MarkDead parks a message that exhausted its retries.
func (r *PostgresRepository) MarkDead(ctx context.Context, id int64, reason string) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, `
		UPDATE outbox
		SET dead_lettered_at = NOW(), last_error = $2
		WHERE id = $1
	`, id, reason)
	return err
}

// DeleteOld removes published messages older than the retention window.
func (r *PostgresRepository) DeleteOld(ctx context.Context, olderThanDays int) (int64, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, `
		DELETE FROM outbox
		WHERE published_at IS NOT NULL
		  AND published_at < NOW() - make_interval(days => $1)
	`, olderThanDays)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
