package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careflowhq/careflow/internal/shared/infrastructure/database"
	"github.com/careflowhq/careflow/internal/triage/domain/worklist"
)

// SourceMessages is the source name for unread patient messages.
const SourceMessages = "patient_messages"

// DefaultUnreadMessagesLimit caps how many unread messages one scoring pass
// considers. Inboxes can run to thousands of rows; only the most recent
// unread messages enter the worklist.
const DefaultUnreadMessagesLimit = 20

// MessagesSource lists a user's most recent unread patient messages.
type MessagesSource struct {
	conn  database.Connection
	limit int
}

// NewMessagesSource creates the patient messages adapter. A non-positive
// limit falls back to the default.
func NewMessagesSource(conn database.Connection, limit int) *MessagesSource {
	if limit <= 0 {
		limit = DefaultUnreadMessagesLimit
	}
	return &MessagesSource{conn: conn, limit: limit}
}

// Name identifies the source.
func (s *MessagesSource) Name() string { return SourceMessages }

// ListOpen returns the user's most recent unread messages, capped at the
// configured limit.
func (s *MessagesSource) ListOpen(ctx context.Context, userID uuid.UUID) ([]worklist.Task, error) {
	query := `
		SELECT id, patient_id, subject, sent_at
		FROM patient_messages
		WHERE recipient_id = $1 AND read_at IS NULL
		ORDER BY sent_at DESC
		LIMIT $2`

	rows, err := s.conn.Query(ctx, query, userID, s.limit)
	if err != nil {
		return nil, fmt.Errorf("querying patient messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []worklist.Task
	for rows.Next() {
		var (
			id        uuid.UUID
			patientID uuid.UUID
			subject   *string
			sentAt    time.Time
		)
		if err := rows.Scan(&id, &patientID, &subject, &sentAt); err != nil {
			return nil, fmt.Errorf("scanning patient message: %w", err)
		}
		task := worklist.Task{
			ID:        id,
			Type:      worklist.TaskTypeMessage,
			PatientID: &patientID,
			Title:     "Unread patient message",
			Status:    "unread",
			CreatedAt: sentAt,
			Source:    SourceMessages,
		}
		if subject != nil && *subject != "" {
			task.Title = *subject
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating patient messages: %w", err)
	}
	return tasks, nil
}
