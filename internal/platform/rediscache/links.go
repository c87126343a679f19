// Package rediscache provides an optional Redis-backed read-through cache
// for the notification dispatch hot path. Platform links change rarely but
// are resolved on every delivery attempt, so a short TTL cache keeps the
// scheduler from hammering the database when many reminders come due at
// once.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/hearthapp/secretary/internal/domain"
)

const linkKeyPrefix = "links:user:"

// LinkCache caches a user's platform links under a TTL.
type LinkCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewLinkCache creates a LinkCache over the given Redis client.
// If logger is nil, a default logger will be used.
func NewLinkCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *LinkCache {
	if client == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("redis client cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &LinkCache{
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "link_cache")),
	}
}

// Get returns the cached links for a user. The second return value reports
// a cache hit; a miss is not an error. Corrupt entries are dropped and
// treated as misses so a bad write can never wedge dispatch.
func (c *LinkCache) Get(ctx context.Context, userID uuid.UUID) ([]*domain.PlatformLink, bool, error) {
	raw, err := c.client.Get(ctx, linkKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read link cache: %w", err)
	}

	var links []*domain.PlatformLink
	if err := json.Unmarshal([]byte(raw), &links); err != nil {
		c.logger.Warn("dropping corrupt link cache entry",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		_ = c.client.Del(ctx, linkKey(userID)).Err()
		return nil, false, nil
	}

	return links, true, nil
}

// Set stores a user's links under the configured TTL.
func (c *LinkCache) Set(ctx context.Context, userID uuid.UUID, links []*domain.PlatformLink) error {
	payload, err := json.Marshal(links)
	if err != nil {
		return fmt.Errorf("failed to encode links for cache: %w", err)
	}

	if err := c.client.Set(ctx, linkKey(userID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write link cache: %w", err)
	}

	return nil
}

// Invalidate removes a user's cached links. Called after LinkPlatform or a
// primary-flag change so the next dispatch sees the new fallback order.
func (c *LinkCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, linkKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate link cache: %w", err)
	}
	return nil
}

func linkKey(userID uuid.UUID) string {
	return linkKeyPrefix + userID.String()
}
