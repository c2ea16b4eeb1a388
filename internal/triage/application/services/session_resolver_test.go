package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careflowhq/careflow/internal/triage/domain/interaction"
	"github.com/careflowhq/careflow/internal/triage/domain/worklist"
)

// fakeInteractionRepo serves a canned latest interaction.
type fakeInteractionRepo struct {
	latest *interaction.TaskInteraction
	err    error
}

func (f *fakeInteractionRepo) Append(ctx context.Context, i *interaction.TaskInteraction) error {
	return nil
}

func (f *fakeInteractionRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	return 0, nil
}

func (f *fakeInteractionRepo) LatestByUser(ctx context.Context, userID uuid.UUID) (*interaction.TaskInteraction, error) {
	return f.latest, f.err
}

func (f *fakeInteractionRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*interaction.TaskInteraction, error) {
	return nil, nil
}

func TestSessionResolver_Resolve(t *testing.T) {
	userID := uuid.New()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	latestAt := func(t *testing.T, sessionID uuid.UUID, at time.Time) *interaction.TaskInteraction {
		t.Helper()
		rec, err := interaction.NewTaskInteraction(
			userID, uuid.New(), worklist.TaskTypeMessage, "viewed",
			sessionID, nil, nil, nil, at,
		)
		require.NoError(t, err)
		return rec
	}

	t.Run("first interaction starts a new session", func(t *testing.T) {
		resolver := NewSessionResolver(&fakeInteractionRepo{err: interaction.ErrNotFound}, time.Hour)

		sessionID, err := resolver.Resolve(context.Background(), userID, now)

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, sessionID)
	})

	t.Run("interaction within the window joins the session", func(t *testing.T) {
		sessionID := uuid.New()
		resolver := NewSessionResolver(&fakeInteractionRepo{
			latest: latestAt(t, sessionID, now.Add(-59*time.Minute)),
		}, time.Hour)

		resolved, err := resolver.Resolve(context.Background(), userID, now)

		require.NoError(t, err)
		assert.Equal(t, sessionID, resolved)
	})

	t.Run("interaction at exactly the window starts a new session", func(t *testing.T) {
		sessionID := uuid.New()
		resolver := NewSessionResolver(&fakeInteractionRepo{
			latest: latestAt(t, sessionID, now.Add(-time.Hour)),
		}, time.Hour)

		resolved, err := resolver.Resolve(context.Background(), userID, now)

		require.NoError(t, err)
		assert.NotEqual(t, sessionID, resolved)
	})

	t.Run("repository errors surface", func(t *testing.T) {
		resolver := NewSessionResolver(&fakeInteractionRepo{err: assert.AnError}, time.Hour)

		_, err := resolver.Resolve(context.Background(), userID, now)
		assert.Error(t, err)
	})
}
