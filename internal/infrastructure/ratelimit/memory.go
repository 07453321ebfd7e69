package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MemoryRateLimiter keeps request timestamps per identifier in process memory.
type MemoryRateLimiter struct {
	mu      sync.RWMutex
	clients map[string]*clientWindow
	logger  *zap.Logger
	now     func() time.Time
}

type clientWindow struct {
	mu       sync.Mutex
	requests []time.Time
}

func NewMemoryRateLimiter(logger *zap.Logger) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		clients: make(map[string]*clientWindow),
		logger:  logger,
		now:     time.Now,
	}
}

// Run evicts idle identifiers every interval until ctx is done.
func (rl *MemoryRateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evictIdle()
		}
	}
}

func (rl *MemoryRateLimiter) Allow(ctx context.Context, identifier string, limit int, window time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	client := rl.client(identifier)
	now := rl.now()
	cutoff := now.Add(-window)

	client.mu.Lock()
	defer client.mu.Unlock()

	kept := client.requests[:0]
	for _, at := range client.requests {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}

	client.requests = kept

	if len(client.requests) >= limit {
		rl.logger.Debug("rate limit exceeded",
			zap.String("identifier", identifier),
			zap.Int("limit", limit))

		return false, nil
	}

	client.requests = append(client.requests, now)

	return true, nil
}

func (rl *MemoryRateLimiter) Reset(ctx context.Context, identifier string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rl.mu.Lock()
	delete(rl.clients, identifier)
	rl.mu.Unlock()

	return nil
}

func (rl *MemoryRateLimiter) client(identifier string) *clientWindow {
	rl.mu.RLock()
	client, ok := rl.clients[identifier]
	rl.mu.RUnlock()

	if ok {
		return client
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if client, ok = rl.clients[identifier]; !ok {
		client = &clientWindow{}
		rl.clients[identifier] = client
	}

	return client
}

func (rl *MemoryRateLimiter) evictIdle() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for identifier, client := range rl.clients {
		client.mu.Lock()
		idle := len(client.requests) == 0 || now.Sub(client.requests[len(client.requests)-1]) > 5*time.Minute
		client.mu.Unlock()

		if idle {
			delete(rl.clients, identifier)
		}
	}
}
