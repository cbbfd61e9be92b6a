// README: Redis fixed-window counter used to cap OTP verification attempts.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Limiter struct {
	redis  redis.Cmdable
	prefix string
	max    int64
	window time.Duration
}

func New(rdb redis.Cmdable, prefix string, max int, window time.Duration) *Limiter {
	return &Limiter{redis: rdb, prefix: prefix, max: int64(max), window: window}
}

// Allow counts one attempt for key and reports whether it is within the window's budget.
// INCR and EXPIRE NX go out in one transaction on every call, so a key left without a TTL
// by an earlier failure picks one up on the next attempt. NX keeps the window from sliding.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.key(key)
	var incr *redis.IntCmd
	_, err := l.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, l.window)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("count attempt %s: %w", k, err)
	}
	return incr.Val() <= l.max, nil
}

// Reset drops the counter for key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if err := l.redis.Del(ctx, l.key(key)).Err(); err != nil {
		return fmt.Errorf("del %s: %w", l.key(key), err)
	}
	return nil
}

func (l *Limiter) key(k string) string {
	return l.prefix + ":" + k
}
