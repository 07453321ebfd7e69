package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/sean-rowe/weather-outfit/internal/core/ports"
)

// resultCache stores JSON-encoded payloads. It is advisory: every failure is logged and
// reported as a miss, never returned.
type resultCache struct {
	cache   ports.CacheService
	metrics ports.MetricsRecorder
	logger  *zap.Logger
}

func (c *resultCache) load(ctx context.Context, kind, key string, dst interface{}) bool {
	if c.cache == nil {
		return false
	}

	data, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ports.ErrCacheMiss) {
			c.logger.Warn("cache read failed, treating as miss", zap.String("key", key), zap.Error(err))
		}

		c.metrics.RecordCacheMiss(ctx, kind)

		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Warn("cached payload undecodable, treating as miss", zap.String("key", key), zap.Error(err))
		c.metrics.RecordCacheMiss(ctx, kind)

		return false
	}

	c.metrics.RecordCacheHit(ctx, kind)

	return true
}

func (c *resultCache) store(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if c.cache == nil || ttl <= 0 {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("failed to encode payload for cache", zap.String("key", key), zap.Error(err))
		return
	}

	if err := c.cache.Set(ctx, key, data, ttl); err != nil {
		c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
