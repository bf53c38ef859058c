package cache

import (
	"context"
	"sync"
	"time"

	"pcbank/domain/entities"
	"pcbank/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// StatsLoader computes fresh public stats
type StatsLoader func(ctx context.Context) (*entities.PublicStats, error)

// StatsCache serves public stats through a read-through cache
type StatsCache interface {
	// Get returns cached stats, loading them when missing or stale
	Get(ctx context.Context) (*entities.PublicStats, error)

	// Invalidate drops the cached value
	Invalidate(ctx context.Context) error
}

// LookupObserver is told whether each lookup hit the cache
type LookupObserver func(hit bool)

// MemoryStatsCache keeps one value in process memory
type MemoryStatsCache struct {
	mu       sync.Mutex
	loader   StatsLoader
	clock    interfaces.Clock
	ttl      time.Duration
	value    *entities.PublicStats
	loadedAt time.Time
	observer LookupObserver
}

// NewMemoryStatsCache creates an in-memory cache with the given TTL
func NewMemoryStatsCache(loader StatsLoader, ttl time.Duration, clock interfaces.Clock) *MemoryStatsCache {
	return &MemoryStatsCache{
		loader: loader,
		clock:  clock,
		ttl:    ttl,
	}
}

// Observe registers a lookup observer
func (c *MemoryStatsCache) Observe(observer LookupObserver) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = observer
}

// Get returns the cached stats while younger than the TTL. The lock is held
// across the load so concurrent misses trigger a single query.
func (c *MemoryStatsCache) Get(ctx context.Context) (*entities.PublicStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if c.value != nil && now.Sub(c.loadedAt) < c.ttl {
		c.notify(true)
		stats := *c.value
		return &stats, nil
	}
	c.notify(false)

	stats, err := c.loader(ctx)
	if err != nil {
		return nil, err
	}
	c.value = stats
	c.loadedAt = now

	log.WithField("ttl", c.ttl).Debug("Refreshed public stats cache")
	copied := *stats
	return &copied, nil
}

// Invalidate drops the cached value
func (c *MemoryStatsCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = nil
	return nil
}

func (c *MemoryStatsCache) notify(hit bool) {
	if c.observer != nil {
		c.observer(hit)
	}
}
