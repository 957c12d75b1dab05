package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"sheetdesk/internal/telemetry"
)

const statsCacheKey = "stats:summary"

// StatsCache holds the last computed Stats in Redis. A nil *StatsCache is
// valid and caches nothing, so services can always call Invalidate.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.SugaredLogger
}

// NewStatsCache returns nil when client is nil or ttl is not positive.
func NewStatsCache(client *redis.Client, ttl time.Duration, logger *zap.SugaredLogger) *StatsCache {
	if client == nil || ttl <= 0 {
		return nil
	}
	return &StatsCache{client: client, ttl: ttl, logger: logger}
}

// Invalidate drops the cached entry. Call it after any change to users or
// datasets; failures are logged and the entry then expires with its TTL.
func (c *StatsCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, statsCacheKey).Err(); err != nil {
		telemetry.StatsCacheTotal.WithLabelValues("error").Inc()
		c.logger.Warnw("failed to invalidate stats cache", "error", err)
	}
}

func (c *StatsCache) get(ctx context.Context) (*Stats, bool) {
	if c == nil {
		return nil, false
	}

	cached, err := c.client.Get(ctx, statsCacheKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			telemetry.StatsCacheTotal.WithLabelValues("miss").Inc()
		} else {
			telemetry.StatsCacheTotal.WithLabelValues("error").Inc()
			c.logger.Warnw("failed to read stats cache", "error", err)
		}
		return nil, false
	}

	var stats Stats
	if err := json.Unmarshal([]byte(cached), &stats); err != nil {
		telemetry.StatsCacheTotal.WithLabelValues("error").Inc()
		c.logger.Warnw("discarding undecodable stats cache entry", "error", err)
		return nil, false
	}
	telemetry.StatsCacheTotal.WithLabelValues("hit").Inc()
	return &stats, true
}

func (c *StatsCache) set(ctx context.Context, stats *Stats) {
	if c == nil {
		return
	}

	payload, err := json.Marshal(stats)
	if err != nil {
		c.logger.Warnw("failed to encode stats cache entry", "error", err)
		return
	}
	if err := c.client.Set(ctx, statsCacheKey, payload, c.ttl).Err(); err != nil {
		c.logger.Warnw("failed to store stats cache", "error", err)
	}
}
