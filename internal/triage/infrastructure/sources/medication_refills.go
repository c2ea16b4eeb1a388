package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careflowhq/careflow/internal/shared/infrastructure/database"
	"github.com/careflowhq/careflow/internal/triage/domain/worklist"
)

// SourceMedicationRefills is the source name for refill requests.
const SourceMedicationRefills = "medication_refills"

// MedicationRefillsSource lists pending refill requests awaiting a provider.
type MedicationRefillsSource struct {
	conn database.Connection
}

// NewMedicationRefillsSource creates the medication refills adapter.
func NewMedicationRefillsSource(conn database.Connection) *MedicationRefillsSource {
	return &MedicationRefillsSource{conn: conn}
}

// Name identifies the source.
func (s *MedicationRefillsSource) Name() string { return SourceMedicationRefills }

// ListOpen returns the provider's pending refill requests.
func (s *MedicationRefillsSource) ListOpen(ctx context.Context, userID uuid.UUID) ([]worklist.Task, error) {
	query := `
		SELECT id, patient_id, medication_name, status, requested_at
		FROM medication_refills
		WHERE provider_id = $1 AND status = 'pending'
		ORDER BY requested_at ASC`

	rows, err := s.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying medication refills: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []worklist.Task
	for rows.Next() {
		var (
			id             uuid.UUID
			patientID      uuid.UUID
			medicationName string
			status         string
			requestedAt    time.Time
		)
		if err := rows.Scan(&id, &patientID, &medicationName, &status, &requestedAt); err != nil {
			return nil, fmt.Errorf("scanning medication refill: %w", err)
		}
		tasks = append(tasks, worklist.Task{
			ID:        id,
			Type:      worklist.TaskTypeMedicationRefill,
			PatientID: &patientID,
			Title:     fmt.Sprintf("Refill request: %s", medicationName),
			Status:    status,
			CreatedAt: requestedAt,
			Source:    SourceMedicationRefills,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating medication refills: %w", err)
	}
	return tasks, nil
}
