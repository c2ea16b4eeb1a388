package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careflowhq/careflow/internal/triage/domain/interaction"
)

// DefaultSessionWindow is how long a session stays open after the last
// interaction.
const DefaultSessionWindow = time.Hour

// SessionResolver groups interactions into work sessions: a new interaction
// joins the user's latest session when it falls within the window of the
// previous one, otherwise it starts a fresh session.
type SessionResolver struct {
	interactions interaction.Repository
	window       time.Duration
}

// NewSessionResolver creates a SessionResolver. A non-positive window falls
// back to the default.
func NewSessionResolver(interactions interaction.Repository, window time.Duration) *SessionResolver {
	if window <= 0 {
		window = DefaultSessionWindow
	}
	return &SessionResolver{interactions: interactions, window: window}
}

// Resolve returns the session the interaction at the given time belongs to.
func (r *SessionResolver) Resolve(ctx context.Context, userID uuid.UUID, at time.Time) (uuid.UUID, error) {
	latest, err := r.interactions.LatestByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, interaction.ErrNotFound) {
			return uuid.New(), nil
		}
		return uuid.Nil, fmt.Errorf("resolving session: %w", err)
	}

	if at.Sub(latest.OccurredAt()) < r.window {
		return latest.SessionID(), nil
	}
	return uuid.New(), nil
}
