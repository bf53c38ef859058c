package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pcbank/domain/entities"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// RedisConfig holds the connection settings of the Redis backend
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// RedisStatsCache shares the stats value between replicas as a JSON string
// with a Redis TTL
type RedisStatsCache struct {
	client   *redis.Client
	loader   StatsLoader
	key      string
	ttl      time.Duration
	observer LookupObserver
}

// NewRedisStatsCache connects to Redis and creates the cache
func NewRedisStatsCache(ctx context.Context, cfg RedisConfig, loader StatsLoader) (*RedisStatsCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "pcbank"
	}

	log.WithFields(log.Fields{
		"addr": cfg.Addr,
		"db":   cfg.DB,
		"ttl":  cfg.TTL,
	}).Info("Connected stats cache to Redis")

	return newRedisStatsCache(client, prefix, cfg.TTL, loader), nil
}

func newRedisStatsCache(client *redis.Client, prefix string, ttl time.Duration, loader StatsLoader) *RedisStatsCache {
	return &RedisStatsCache{
		client: client,
		loader: loader,
		key:    prefix + ":stats:public",
		ttl:    ttl,
	}
}

// Observe registers a lookup observer
func (c *RedisStatsCache) Observe(observer LookupObserver) {
	c.observer = observer
}

// Get reads the shared value, loading and storing it on a miss. Redis
// failures fall through to the loader.
func (c *RedisStatsCache) Get(ctx context.Context) (*entities.PublicStats, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	switch {
	case err == nil:
		var stats entities.PublicStats
		if jsonErr := json.Unmarshal(raw, &stats); jsonErr == nil {
			c.notify(true)
			return &stats, nil
		}
		log.WithField("key", c.key).Warn("Discarding undecodable cached stats")
	case errors.Is(err, redis.Nil):
	default:
		log.WithError(err).Warn("Stats cache read failed, loading from database")
	}
	c.notify(false)

	stats, err := c.loader(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stats: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		log.WithError(err).Warn("Failed to store stats in cache")
	}
	return stats, nil
}

// Invalidate deletes the shared value
func (c *RedisStatsCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate stats cache: %w", err)
	}
	return nil
}

// Ping checks that Redis answers
func (c *RedisStatsCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (c *RedisStatsCache) Close() error {
	return c.client.Close()
}

func (c *RedisStatsCache) notify(hit bool) {
	if c.observer != nil {
		c.observer(hit)
	}
}
