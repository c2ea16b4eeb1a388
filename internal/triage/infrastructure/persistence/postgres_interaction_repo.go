// Package persistence implements the triage repositories on PostgreSQL.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careflowhq/careflow/internal/shared/infrastructure/database"
	"github.com/careflowhq/careflow/internal/triage/domain/interaction"
	"github.com/careflowhq/careflow/internal/triage/domain/worklist"
)

// PostgresInteractionRepository stores task interactions in PostgreSQL.
type PostgresInteractionRepository struct {
	conn database.Connection
}

// NewPostgresInteractionRepository creates a repository backed by the given connection.
func NewPostgresInteractionRepository(conn database.Connection) *PostgresInteractionRepository {
	return &PostgresInteractionRepository{conn: conn}
}

type interactionRow struct {
	id               uuid.UUID
	userID           uuid.UUID
	taskID           uuid.UUID
	taskType         string
	action           string
	sessionID        uuid.UUID
	orderInSession   *int
	timeSpentSeconds *int64
	contextJSON      []byte
	occurredAt       time.Time
}

const interactionColumns = `id, user_id, task_id, task_type, action, session_id, order_in_session, time_spent_seconds, context, occurred_at`

// Append persists a new interaction.
func (r *PostgresInteractionRepository) Append(ctx context.Context, i *interaction.TaskInteraction) error {
	executor := database.ExecutorFromContext(ctx, r.conn)

	var contextJSON []byte
	if len(i.Context()) > 0 {
		var err error
		contextJSON, err = json.Marshal(i.Context())
		if err != nil {
			return fmt.Errorf("marshaling interaction context: %w", err)
		}
	}

	var timeSpentSeconds *int64
	if d := i.TimeSpent(); d != nil {
		seconds := int64(d.Seconds())
		timeSpentSeconds = &seconds
	}

	query := `
		INSERT INTO task_interactions (` + interactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := executor.Exec(ctx, query,
		i.ID(), i.UserID(), i.TaskID(), i.TaskType().String(), i.Action(),
		i.SessionID(), i.OrderInSession(), timeSpentSeconds, contextJSON, i.OccurredAt(),
	)
	if err != nil {
		return fmt.Errorf("inserting interaction: %w", err)
	}
	return nil
}

// CountByUser returns the total number of interactions a user has recorded.
func (r *PostgresInteractionRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	executor := database.ExecutorFromContext(ctx, r.conn)

	var count int
	err := executor.QueryRow(ctx,
		`SELECT COUNT(*) FROM task_interactions WHERE user_id = $1`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting interactions: %w", err)
	}
	return count, nil
}

// LatestByUser returns the most recent interaction for a user.
func (r *PostgresInteractionRepository) LatestByUser(ctx context.Context, userID uuid.UUID) (*interaction.TaskInteraction, error) {
	executor := database.ExecutorFromContext(ctx, r.conn)

	query := `
		SELECT ` + interactionColumns + `
		FROM task_interactions
		WHERE user_id = $1
		ORDER BY occurred_at DESC
		LIMIT 1`

	var row interactionRow
	err := executor.QueryRow(ctx, query, userID).Scan(
		&row.id, &row.userID, &row.taskID, &row.taskType, &row.action,
		&row.sessionID, &row.orderInSession, &row.timeSpentSeconds, &row.contextJSON, &row.occurredAt,
	)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, interaction.ErrNotFound
		}
		return nil, fmt.Errorf("loading latest interaction: %w", err)
	}
	return rowToInteraction(row)
}

// ListByUser returns all interactions for a user, oldest first.
func (r *PostgresInteractionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*interaction.TaskInteraction, error) {
	executor := database.ExecutorFromContext(ctx, r.conn)

	query := `
		SELECT ` + interactionColumns + `
		FROM task_interactions
		WHERE user_id = $1
		ORDER BY occurred_at ASC`

	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing interactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var interactions []*interaction.TaskInteraction
	for rows.Next() {
		var row interactionRow
		if err := rows.Scan(
			&row.id, &row.userID, &row.taskID, &row.taskType, &row.action,
			&row.sessionID, &row.orderInSession, &row.timeSpentSeconds, &row.contextJSON, &row.occurredAt,
		); err != nil {
			return nil, fmt.Errorf("scanning interaction: %w", err)
		}
		i, err := rowToInteraction(row)
		if err != nil {
			return nil, err
		}
		interactions = append(interactions, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating interactions: %w", err)
	}
	return interactions, nil
}

func rowToInteraction(row interactionRow) (*interaction.TaskInteraction, error) {
	taskType, err := worklist.ParseTaskType(row.taskType)
	if err != nil {
		return nil, fmt.Errorf("rehydrating interaction %s: %w", row.id, err)
	}

	var interactionContext map[string]string
	if len(row.contextJSON) > 0 {
		if err := json.Unmarshal(row.contextJSON, &interactionContext); err != nil {
			return nil, fmt.Errorf("unmarshaling interaction context: %w", err)
		}
	}

	var timeSpent *time.Duration
	if row.timeSpentSeconds != nil {
		d := time.Duration(*row.timeSpentSeconds) * time.Second
		timeSpent = &d
	}

	return interaction.Rehydrate(
		row.id, row.userID, row.taskID, taskType, row.action,
		row.sessionID, row.orderInSession, timeSpent, interactionContext, row.occurredAt,
	), nil
}
