// Package cache provides the result cache backends of the weather outfit service.
// Payloads are opaque bytes; a missing or expired key is reported as ports.ErrCacheMiss.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/sean-rowe/weather-outfit/internal/core/ports"
)

// MemoryCache is the single-instance fallback used when Redis is disabled or unreachable.
type MemoryCache struct {
	cache  *gocache.Cache
	logger *zap.Logger
}

// NewMemoryCache creates an in-memory cache.
//
// Parameters:
//   - defaultTTL: TTL applied when Set receives a zero ttl
//   - cleanupInterval: How often expired items are evicted
//   - logger: Zap logger for cache operations
func NewMemoryCache(defaultTTL, cleanupInterval time.Duration, logger *zap.Logger) *MemoryCache {
	return &MemoryCache{
		cache:  gocache.New(defaultTTL, cleanupInterval),
		logger: logger,
	}
}

// Get returns a copy of the stored payload, or ports.ErrCacheMiss.
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	_, span := otel.Tracer("cache").Start(ctx, "MemoryCache.Get")
	defer span.End()

	span.SetAttributes(attribute.String("cache.key", key))

	value, found := m.cache.Get(key)
	if !found {
		span.SetAttributes(attribute.Bool("cache.hit", false))
		m.logger.Debug("memory cache miss", zap.String("key", key))

		return nil, ports.ErrCacheMiss
	}

	payload, ok := value.([]byte)
	if !ok {
		m.cache.Delete(key)
		return nil, ports.ErrCacheMiss
	}

	span.SetAttributes(attribute.Bool("cache.hit", true))
	m.logger.Debug("memory cache hit", zap.String("key", key))

	return append([]byte(nil), payload...), nil
}

// Set stores a copy of value for ttl. A zero ttl uses the cache default.
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, span := otel.Tracer("cache").Start(ctx, "MemoryCache.Set")
	defer span.End()

	span.SetAttributes(
		attribute.String("cache.key", key),
		attribute.Int("cache.value_size", len(value)),
		attribute.String("cache.ttl", ttl.String()),
	)

	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}

	m.cache.Set(key, append([]byte(nil), value...), ttl)
	m.logger.Debug("memory cache set", zap.String("key", key))

	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	_, span := otel.Tracer("cache").Start(ctx, "MemoryCache.Delete")
	defer span.End()

	span.SetAttributes(attribute.String("cache.key", key))
	m.cache.Delete(key)

	return nil
}

func (m *MemoryCache) Clear(ctx context.Context) error {
	_, span := otel.Tracer("cache").Start(ctx, "MemoryCache.Clear")
	defer span.End()

	m.cache.Flush()
	m.logger.Info("memory cache cleared")

	return nil
}

// Len reports the number of live entries.
func (m *MemoryCache) Len() int {
	return m.cache.ItemCount()
}
