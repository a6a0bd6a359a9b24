package tilestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Robotvalley19/Geocaching-App/pkg/logger"
	"github.com/Robotvalley19/Geocaching-App/pkg/metrics"
	"github.com/paulmach/orb/maptile"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// sharedReadTimeout bounds a store read shared by several waiting requests.
const sharedReadTimeout = 30 * time.Second

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisClient connects to redis and checks the connection.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// RedisCache is a read-through cache in front of another TileStore. Redis
// failures are logged and fall back to the underlying store.
type RedisCache struct {
	next     TileStore
	client   *redis.Client
	ttl      time.Duration
	inflight singleflight.Group
	logger   logger.Logger
}

var _ TileStore = (*RedisCache)(nil)

func NewRedisCache(next TileStore, client *redis.Client, ttl time.Duration, l logger.Logger) *RedisCache {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}

	return &RedisCache{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: l,
	}
}

func (c *RedisCache) keyFor(t maptile.Tile) string {
	return fmt.Sprintf("tile:%d:%d:%d", t.Z, t.X, t.Y)
}

func (c *RedisCache) Has(ctx context.Context, t maptile.Tile) (bool, error) {
	return c.next.Has(ctx, t)
}

type cachedTile struct {
	data   []byte
	exists bool
}

func (c *RedisCache) Get(ctx context.Context, t maptile.Tile) ([]byte, bool, error) {
	key := c.keyFor(t)

	start := time.Now()
	data, err := c.client.Get(ctx, key).Bytes()
	metrics.RedisOperationDuration.WithLabelValues("get").Observe(time.Since(start).Seconds())
	if err == nil {
		metrics.CacheHits.Inc()
		return data, true, nil
	}
	if !errors.Is(err, redis.Nil) {
		metrics.RedisErrors.WithLabelValues("get").Inc()
		c.logger.Warn("redis get failed, reading from store", "key", key, "error", err)
	}
	metrics.CacheMisses.Inc()

	// concurrent misses for the same tile share one store read, detached from
	// the caller that started it so its cancellation does not fail the others
	ch := c.inflight.DoChan(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedReadTimeout)
		defer cancel()

		data, exists, err := c.next.Get(ctx, t)
		if err != nil || !exists {
			return cachedTile{}, err
		}
		c.store(ctx, key, data)
		return cachedTile{data: data, exists: true}, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		ct := res.Val.(cachedTile)
		return ct.data, ct.exists, nil
	}
}

func (c *RedisCache) store(ctx context.Context, key string, data []byte) {
	start := time.Now()
	err := c.client.Set(ctx, key, data, c.ttl).Err()
	metrics.RedisOperationDuration.WithLabelValues("set").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RedisErrors.WithLabelValues("set").Inc()
		c.logger.Warn("redis set failed", "key", key, "error", err)
	}
}

// Set writes to the underlying store only; the cache fills on first read.
func (c *RedisCache) Set(ctx context.Context, t maptile.Tile, data []byte) error {
	return c.next.Set(ctx, t, data)
}

func (c *RedisCache) Close() error {
	return errors.Join(c.client.Close(), c.next.Close())
}
