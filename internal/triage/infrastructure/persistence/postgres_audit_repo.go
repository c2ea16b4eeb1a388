package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/careflowhq/careflow/internal/shared/infrastructure/database"
	"github.com/careflowhq/careflow/internal/triage/domain/worklist"
)

// PostgresAuditRepository stores prioritization audit records in PostgreSQL.
type PostgresAuditRepository struct {
	conn database.Connection
}

// NewPostgresAuditRepository creates a repository backed by the given connection.
func NewPostgresAuditRepository(conn database.Connection) *PostgresAuditRepository {
	return &PostgresAuditRepository{conn: conn}
}

const auditColumns = `id, user_id, task_id, task_type, score, reasoning, suggested_action, model_version, created_at`

// SaveBatch writes the audit rows for one prioritization pass.
func (r *PostgresAuditRepository) SaveBatch(ctx context.Context, records []worklist.PrioritizedTask) error {
	if len(records) == 0 {
		return nil
	}
	executor := database.ExecutorFromContext(ctx, r.conn)

	query := `
		INSERT INTO prioritized_tasks (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	for _, record := range records {
		reasoning, err := json.Marshal(record.Reasoning)
		if err != nil {
			return fmt.Errorf("marshaling reasoning: %w", err)
		}
		_, err = executor.Exec(ctx, query,
			record.ID, record.UserID, record.TaskID, record.TaskType.String(),
			record.Score, reasoning, record.SuggestedAction, record.ModelVersion, record.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting audit record: %w", err)
		}
	}
	return nil
}

// ListRecentByUser returns the newest audit rows for a user.
func (r *PostgresAuditRepository) ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]worklist.PrioritizedTask, error) {
	executor := database.ExecutorFromContext(ctx, r.conn)

	query := `
		SELECT ` + auditColumns + `
		FROM prioritized_tasks
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := executor.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing audit records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []worklist.PrioritizedTask
	for rows.Next() {
		var (
			record        worklist.PrioritizedTask
			taskType      string
			reasoningJSON []byte
		)
		if err := rows.Scan(
			&record.ID, &record.UserID, &record.TaskID, &taskType,
			&record.Score, &reasoningJSON, &record.SuggestedAction, &record.ModelVersion, &record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning audit record: %w", err)
		}
		record.TaskType = worklist.TaskType(taskType)
		if err := json.Unmarshal(reasoningJSON, &record.Reasoning); err != nil {
			return nil, fmt.Errorf("unmarshaling reasoning: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit records: %w", err)
	}
	return records, nil
}
