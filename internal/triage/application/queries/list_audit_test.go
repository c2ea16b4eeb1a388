package queries

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/careflowhq/careflow/internal/triage/domain/worklist"
)

type mockAuditRepo struct {
	mock.Mock
}

func (m *mockAuditRepo) SaveBatch(ctx context.Context, records []worklist.PrioritizedTask) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *mockAuditRepo) ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]worklist.PrioritizedTask, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]worklist.PrioritizedTask), args.Error(1)
}

func TestListAuditHandler_Handle(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	record := worklist.PrioritizedTask{
		ID:        uuid.New(),
		UserID:    userID,
		TaskID:    uuid.New(),
		TaskType:  worklist.TaskTypeUrgentCare,
		Score:     90,
		Reasoning: worklist.Reasoning{Basis: worklist.ReasoningBasisHeuristic, Base: 50},
		CreatedAt: time.Now().UTC(),
	}

	t.Run("returns recent records with the default limit", func(t *testing.T) {
		audit := new(mockAuditRepo)
		audit.On("ListRecentByUser", ctx, userID, 50).Return([]worklist.PrioritizedTask{record}, nil)

		handler := NewListAuditHandler(audit)
		result, err := handler.Handle(ctx, ListAuditQuery{UserID: userID})

		require.NoError(t, err)
		require.Len(t, result.Records, 1)
		assert.Equal(t, record.TaskID, result.Records[0].TaskID)
		audit.AssertExpectations(t)
	})

	t.Run("caps the limit", func(t *testing.T) {
		audit := new(mockAuditRepo)
		audit.On("ListRecentByUser", ctx, userID, 200).Return([]worklist.PrioritizedTask{}, nil)

		handler := NewListAuditHandler(audit)
		_, err := handler.Handle(ctx, ListAuditQuery{UserID: userID, Limit: 1000})

		require.NoError(t, err)
		audit.AssertExpectations(t)
	})

	t.Run("requires a user id", func(t *testing.T) {
		handler := NewListAuditHandler(new(mockAuditRepo))
		_, err := handler.Handle(ctx, ListAuditQuery{Limit: 10})
		assert.Error(t, err)
	})
}
