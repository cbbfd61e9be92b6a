package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ryde/internal/types"
)

const quoteKeyPrefix = "maps:quote"

// CachedRouter memoises route quotes in Redis. Cache failures fall through to the wrapped Router.
type CachedRouter struct {
	next  Router
	redis redis.Cmdable
	ttl   time.Duration
	log   *zap.Logger
}

func NewCachedRouter(next Router, rdb redis.Cmdable, ttl time.Duration, log *zap.Logger) *CachedRouter {
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedRouter{next: next, redis: rdb, ttl: ttl, log: log}
}

func (c *CachedRouter) QuoteRoute(ctx context.Context, origin, destination types.Point, profile Profile) (Quote, error) {
	if profile == "" {
		profile = ProfileDriving
	}
	key := quoteKey(origin, destination, profile)

	if raw, err := c.redis.Get(ctx, key).Bytes(); err == nil {
		var q Quote
		if err := json.Unmarshal(raw, &q); err == nil {
			return q, nil
		}
	} else if err != redis.Nil {
		c.log.Warn("quote cache read failed", zap.Error(err))
	}

	q, err := c.next.QuoteRoute(ctx, origin, destination, profile)
	if err != nil {
		return Quote{}, err
	}
	if raw, err := json.Marshal(q); err == nil {
		if err := c.redis.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.log.Warn("quote cache write failed", zap.Error(err))
		}
	}
	return q, nil
}

func quoteKey(origin, destination types.Point, profile Profile) string {
	return fmt.Sprintf("%s:%s:%.5f,%.5f:%.5f,%.5f",
		quoteKeyPrefix, profile, origin.Lat, origin.Lng, destination.Lat, destination.Lng)
}
