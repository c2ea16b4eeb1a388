package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careflowhq/careflow/internal/shared/infrastructure/database"
	"github.com/careflowhq/careflow/internal/triage/domain/model"
)

// oneActiveModelConstraint is the partial unique index enforcing a single
// active model version per user.
const oneActiveModelConstraint = "priority_models_one_active_per_user"

// PostgresModelRepository stores priority model versions in PostgreSQL.
type PostgresModelRepository struct {
	conn database.Connection
}

// NewPostgresModelRepository creates a repository backed by the given connection.
func NewPostgresModelRepository(conn database.Connection) *PostgresModelRepository {
	return &PostgresModelRepository{conn: conn}
}

type modelRow struct {
	id                 uuid.UUID
	userID             uuid.UUID
	version            int
	taskTypeWeights    []byte
	urgencyWeights     []byte
	timePatternWeights []byte
	interactionCount   int
	accuracy           *float64
	active             bool
	trainedAt          time.Time
}

const modelColumns = `id, user_id, version, task_type_weights, urgency_weights, time_pattern_weights, interaction_count, accuracy, active, trained_at`

// SaveNewVersion deactivates the user's current active version and inserts
// the new one. Callers run it inside a unit of work so the swap is atomic;
// the partial unique index backs it against concurrent trainers.
func (r *PostgresModelRepository) SaveNewVersion(ctx context.Context, m *model.PriorityModel) error {
	executor := database.ExecutorFromContext(ctx, r.conn)

	_, err := executor.Exec(ctx,
		`UPDATE priority_models SET active = FALSE, updated_at = NOW() WHERE user_id = $1 AND active`,
		m.UserID(),
	)
	if err != nil {
		return fmt.Errorf("deactivating previous model: %w", err)
	}

	taskTypeWeights, err := json.Marshal(m.TaskTypeWeights())
	if err != nil {
		return fmt.Errorf("marshaling task type weights: %w", err)
	}
	urgencyWeights, err := json.Marshal(m.UrgencyWeights())
	if err != nil {
		return fmt.Errorf("marshaling urgency weights: %w", err)
	}
	timePatternWeights, err := json.Marshal(m.TimePatternWeights())
	if err != nil {
		return fmt.Errorf("marshaling time pattern weights: %w", err)
	}

	query := `
		INSERT INTO priority_models (` + modelColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = executor.Exec(ctx, query,
		m.ID(), m.UserID(), m.ModelVersion(),
		taskTypeWeights, urgencyWeights, timePatternWeights,
		m.InteractionCount(), m.Accuracy(), m.IsActive(), m.TrainedAt(),
	)
	if err != nil {
		if database.IsUniqueViolation(err, oneActiveModelConstraint) {
			return model.ErrConcurrentTraining
		}
		return fmt.Errorf("inserting model version: %w", err)
	}
	return nil
}

// FindActiveByUser returns the active model for a user.
func (r *PostgresModelRepository) FindActiveByUser(ctx context.Context, userID uuid.UUID) (*model.PriorityModel, error) {
	executor := database.ExecutorFromContext(ctx, r.conn)

	query := `
		SELECT ` + modelColumns + `
		FROM priority_models
		WHERE user_id = $1 AND active`

	var row modelRow
	err := executor.QueryRow(ctx, query, userID).Scan(
		&row.id, &row.userID, &row.version,
		&row.taskTypeWeights, &row.urgencyWeights, &row.timePatternWeights,
		&row.interactionCount, &row.accuracy, &row.active, &row.trainedAt,
	)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("loading active model: %w", err)
	}
	return rowToModel(row)
}

// LatestVersion returns the highest version stored for a user, zero when none.
func (r *PostgresModelRepository) LatestVersion(ctx context.Context, userID uuid.UUID) (int, error) {
	executor := database.ExecutorFromContext(ctx, r.conn)

	var version int
	err := executor.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM priority_models WHERE user_id = $1`, userID,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("resolving latest model version: %w", err)
	}
	return version, nil
}

// ListVersionsByUser returns all model versions for a user, newest first.
func (r *PostgresModelRepository) ListVersionsByUser(ctx context.Context, userID uuid.UUID) ([]*model.PriorityModel, error) {
	executor := database.ExecutorFromContext(ctx, r.conn)

	query := `
		SELECT ` + modelColumns + `
		FROM priority_models
		WHERE user_id = $1
		ORDER BY version DESC`

	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing model versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var models []*model.PriorityModel
	for rows.Next() {
		var row modelRow
		if err := rows.Scan(
			&row.id, &row.userID, &row.version,
			&row.taskTypeWeights, &row.urgencyWeights, &row.timePatternWeights,
			&row.interactionCount, &row.accuracy, &row.active, &row.trainedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning model version: %w", err)
		}
		m, err := rowToModel(row)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating model versions: %w", err)
	}
	return models, nil
}

func rowToModel(row modelRow) (*model.PriorityModel, error) {
	var taskTypeWeights model.TaskTypeWeights
	if err := json.Unmarshal(row.taskTypeWeights, &taskTypeWeights); err != nil {
		return nil, fmt.Errorf("unmarshaling task type weights: %w", err)
	}
	var urgencyWeights model.UrgencyWeights
	if err := json.Unmarshal(row.urgencyWeights, &urgencyWeights); err != nil {
		return nil, fmt.Errorf("unmarshaling urgency weights: %w", err)
	}
	var timePatternWeights model.TimePatternWeights
	if err := json.Unmarshal(row.timePatternWeights, &timePatternWeights); err != nil {
		return nil, fmt.Errorf("unmarshaling time pattern weights: %w", err)
	}

	return model.Rehydrate(
		row.id, row.userID, row.version,
		taskTypeWeights, urgencyWeights, timePatternWeights,
		row.interactionCount, row.accuracy, row.active, row.trainedAt,
	), nil
}
