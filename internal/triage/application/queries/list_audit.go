package queries

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/careflowhq/careflow/internal/triage/domain/worklist"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

// ListAuditQuery asks for recent scoring decisions for a user.
type ListAuditQuery struct {
	UserID uuid.UUID
	Limit  int
}

// ListAuditResult carries the audit rows, newest first.
type ListAuditResult struct {
	Records []worklist.PrioritizedTask
}

// ListAuditHandler reads back the scoring audit trail.
type ListAuditHandler struct {
	audit worklist.AuditRepository
}

// NewListAuditHandler creates a ListAuditHandler.
func NewListAuditHandler(audit worklist.AuditRepository) *ListAuditHandler {
	return &ListAuditHandler{audit: audit}
}

// Handle returns the most recent audit records for the user.
func (h *ListAuditHandler) Handle(ctx context.Context, q ListAuditQuery) (*ListAuditResult, error) {
	if q.UserID == uuid.Nil {
		return nil, errors.New("user id is required")
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	records, err := h.audit.ListRecentByUser(ctx, q.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing audit records: %w", err)
	}
	return &ListAuditResult{Records: records}, nil
}
