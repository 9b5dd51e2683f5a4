package scraper

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tibiantis-tools/deathwatch/internal/logging"
)

// RedisPageCache caches raw character pages in Redis with a TTL. Cache
// failures are logged and treated as misses; the scraper must keep working
// when Redis is down.
type RedisPageCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logging.Logger
}

// NewRedisPageCache connects to Redis using a redis:// URL.
func NewRedisPageCache(redisURL string, ttl time.Duration, log *logging.Logger) (*RedisPageCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisPageCache{
		client: redis.NewClient(opts),
		ttl:    ttl,
		log:    log,
	}, nil
}

func (c *RedisPageCache) Get(ctx context.Context, key string) (string, bool) {
	value, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		c.log.Warn("page cache get failed", logging.Error(err))
		return "", false
	}
	return value, true
}

func (c *RedisPageCache) Set(ctx context.Context, key, value string) {
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		c.log.Warn("page cache set failed", logging.Error(err))
	}
}

// Close releases the underlying Redis connection.
func (c *RedisPageCache) Close() error {
	return c.client.Close()
}
