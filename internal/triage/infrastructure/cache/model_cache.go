// Package cache provides the read-through cache for active priority models.
// Scoring runs on every worklist load, so the active model is kept hot in
// Redis and invalidated when retraining activates a new version.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/careflowhq/careflow/internal/triage/domain/model"
)

// DefaultTTL bounds staleness when an invalidation is lost.
const DefaultTTL = 15 * time.Minute

// RedisModelCache caches active models in Redis in front of the repository.
// Redis failures degrade to repository reads; the cache is never load-bearing.
type RedisModelCache struct {
	client *redis.Client
	repo   model.Repository
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisModelCache creates a read-through cache. A non-positive TTL falls
// back to the default.
func NewRedisModelCache(client *redis.Client, repo model.Repository, ttl time.Duration, logger *slog.Logger) *RedisModelCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisModelCache{client: client, repo: repo, ttl: ttl, logger: logger}
}

type cachedModel struct {
	ID                 uuid.UUID                `json:"id"`
	UserID             uuid.UUID                `json:"user_id"`
	Version            int                      `json:"version"`
	TaskTypeWeights    model.TaskTypeWeights    `json:"task_type_weights"`
	UrgencyWeights     model.UrgencyWeights     `json:"urgency_weights"`
	TimePatternWeights model.TimePatternWeights `json:"time_pattern_weights"`
	InteractionCount   int                      `json:"interaction_count"`
	Accuracy           *float64                 `json:"accuracy,omitempty"`
	TrainedAt          time.Time                `json:"trained_at"`
}

func cacheKey(userID uuid.UUID) string {
	return fmt.Sprintf("triage:model:%s", userID)
}

// ActiveModel returns the user's active model, serving from Redis when
// possible and falling back to the repository otherwise.
func (c *RedisModelCache) ActiveModel(ctx context.Context, userID uuid.UUID) (*model.PriorityModel, error) {
	key := cacheKey(userID)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var cached cachedModel
		if err := json.Unmarshal(data, &cached); err == nil {
			return model.Rehydrate(
				cached.ID, cached.UserID, cached.Version,
				cached.TaskTypeWeights, cached.UrgencyWeights, cached.TimePatternWeights,
				cached.InteractionCount, cached.Accuracy, true, cached.TrainedAt,
			), nil
		}
		// Unreadable entry: drop it and reload from the repository.
		_ = c.client.Del(ctx, key).Err()
	} else if !errors.Is(err, redis.Nil) {
		c.logger.WarnContext(ctx, "model cache read failed, falling back to repository",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()),
		)
	}

	m, err := c.repo.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(cachedModel{
		ID:                 m.ID(),
		UserID:             m.UserID(),
		Version:            m.ModelVersion(),
		TaskTypeWeights:    m.TaskTypeWeights(),
		UrgencyWeights:     m.UrgencyWeights(),
		TimePatternWeights: m.TimePatternWeights(),
		InteractionCount:   m.InteractionCount(),
		Accuracy:           m.Accuracy(),
		TrainedAt:          m.TrainedAt(),
	})
	if err == nil {
		if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "model cache write failed",
				slog.String("user_id", userID.String()),
				slog.String("error", err.Error()),
			)
		}
	}
	return m, nil
}

// Invalidate drops the cached model after retraining.
func (c *RedisModelCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, cacheKey(userID)).Err(); err != nil {
		return fmt.Errorf("invalidating model cache: %w", err)
	}
	return nil
}

// RepositoryModelProvider serves active models straight from the repository.
// It stands in for the Redis cache when no cache is configured.
type RepositoryModelProvider struct {
	repo model.Repository
}

// NewRepositoryModelProvider creates an uncached provider.
func NewRepositoryModelProvider(repo model.Repository) *RepositoryModelProvider {
	return &RepositoryModelProvider{repo: repo}
}

// ActiveModel returns the user's active model from the repository.
func (p *RepositoryModelProvider) ActiveModel(ctx context.Context, userID uuid.UUID) (*model.PriorityModel, error) {
	return p.repo.FindActiveByUser(ctx, userID)
}

// Invalidate is a no-op for the uncached provider.
func (p *RepositoryModelProvider) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return nil
}
