package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careflowhq/careflow/internal/shared/infrastructure/database"
	"github.com/careflowhq/careflow/internal/triage/domain/worklist"
)

// SourceUrgentCare is the source name for urgent care requests.
const SourceUrgentCare = "urgent_care_requests"

// UrgentCareSource lists pending urgent care requests routed to a provider.
type UrgentCareSource struct {
	conn database.Connection
}

// NewUrgentCareSource creates the urgent care adapter.
func NewUrgentCareSource(conn database.Connection) *UrgentCareSource {
	return &UrgentCareSource{conn: conn}
}

// Name identifies the source.
func (s *UrgentCareSource) Name() string { return SourceUrgentCare }

// ListOpen returns the provider's pending urgent care requests.
func (s *UrgentCareSource) ListOpen(ctx context.Context, userID uuid.UUID) ([]worklist.Task, error) {
	query := `
		SELECT id, patient_id, reason, urgency, status, created_at
		FROM urgent_care_requests
		WHERE provider_id = $1 AND status IN ('new', 'pending')
		ORDER BY created_at ASC`

	rows, err := s.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying urgent care requests: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []worklist.Task
	for rows.Next() {
		var (
			id         uuid.UUID
			patientID  uuid.UUID
			reason     string
			rawUrgency *string
			status     string
			createdAt  time.Time
		)
		if err := rows.Scan(&id, &patientID, &reason, &rawUrgency, &status, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning urgent care request: %w", err)
		}

		// Unknown labels from upstream degrade to no urgency rather than
		// failing the whole source.
		var urgency worklist.Urgency
		if rawUrgency != nil {
			if parsed, err := worklist.ParseUrgency(*rawUrgency); err == nil {
				urgency = parsed
			}
		}

		tasks = append(tasks, worklist.Task{
			ID:          id,
			Type:        worklist.TaskTypeUrgentCare,
			PatientID:   &patientID,
			Title:       "Urgent care request",
			Description: reason,
			Urgency:     urgency,
			Status:      status,
			CreatedAt:   createdAt,
			Source:      SourceUrgentCare,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating urgent care requests: %w", err)
	}
	return tasks, nil
}
