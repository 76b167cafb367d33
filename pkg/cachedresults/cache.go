// Package cachedresults keeps recent upstream response bodies in redis so restarts do not spend the
// request budget again.
package cachedresults

import (
	"context"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type Cache struct {
	Cache *cache.Cache[string]
}

func New(client *redis.Client, ttl time.Duration) *Cache {
	redisStore := redisstore.NewRedis(client, store.WithExpiration(ttl))

	return &Cache{
		Cache: cache.New[string](redisStore),
	}
}

// Get reports a miss for any lookup error; a broken cache only costs an upstream request.
func (c *Cache) Get(ctx context.Context, key string) (string, bool) {
	value, err := c.Cache.Get(ctx, key)
	if err != nil {
		log.Debug().Err(err).Str("key", key).Msg("Response cache miss")

		return "", false
	}

	return value, true
}

func (c *Cache) Set(ctx context.Context, key string, value string) {
	if err := c.Cache.Set(ctx, key, value); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to cache response")
	}
}
