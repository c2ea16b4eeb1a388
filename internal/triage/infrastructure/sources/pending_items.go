// Package sources adapts the collaborator-owned clinical tables into the
// normalized worklist Task shape. Each adapter reads one upstream table;
// none of them own the schema they read.
package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careflowhq/careflow/internal/shared/infrastructure/database"
	"github.com/careflowhq/careflow/internal/triage/domain/worklist"
)

// SourcePendingItems is the source name for general pending work items.
const SourcePendingItems = "pending_items"

// PendingItemsSource lists open pending items assigned to a user.
type PendingItemsSource struct {
	conn database.Connection
}

// NewPendingItemsSource creates the pending items adapter.
func NewPendingItemsSource(conn database.Connection) *PendingItemsSource {
	return &PendingItemsSource{conn: conn}
}

// Name identifies the source.
func (s *PendingItemsSource) Name() string { return SourcePendingItems }

// ListOpen returns the user's open pending items.
func (s *PendingItemsSource) ListOpen(ctx context.Context, userID uuid.UUID) ([]worklist.Task, error) {
	query := `
		SELECT id, patient_id, title, description, status, created_at, due_date
		FROM pending_items
		WHERE assigned_to = $1 AND status = 'pending'
		ORDER BY created_at ASC`

	rows, err := s.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying pending items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []worklist.Task
	for rows.Next() {
		var (
			id          uuid.UUID
			patientID   *uuid.UUID
			title       string
			description *string
			status      string
			createdAt   time.Time
			dueDate     *time.Time
		)
		if err := rows.Scan(&id, &patientID, &title, &description, &status, &createdAt, &dueDate); err != nil {
			return nil, fmt.Errorf("scanning pending item: %w", err)
		}
		task := worklist.Task{
			ID:        id,
			Type:      worklist.TaskTypePendingItem,
			PatientID: patientID,
			Title:     title,
			Status:    status,
			CreatedAt: createdAt,
			DueDate:   dueDate,
			Source:    SourcePendingItems,
		}
		if description != nil {
			task.Description = *description
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pending items: %w", err)
	}
	return tasks, nil
}
