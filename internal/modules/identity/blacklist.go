package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "auth:blacklist:"

// Blacklist records logged-out tokens in Redis until they would have expired anyway.
type Blacklist struct {
	redis redis.Cmdable
	now   func() time.Time
}

func NewBlacklist(rdb redis.Cmdable) *Blacklist {
	return &Blacklist{redis: rdb, now: time.Now}
}

func (b *Blacklist) Revoke(ctx context.Context, token string, until time.Time) error {
	ttl := until.Sub(b.now())
	if ttl <= 0 {
		return nil
	}
	if err := b.redis.Set(ctx, blacklistKey(token), 1, ttl).Err(); err != nil {
		return fmt.Errorf("%w: blacklist token: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (b *Blacklist) Revoked(ctx context.Context, token string) (bool, error) {
	n, err := b.redis.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: check blacklist: %v", ErrStorageUnavailable, err)
	}
	return n > 0, nil
}

// Tokens are keyed by digest so raw bearer tokens never sit in Redis.
func blacklistKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return blacklistPrefix + hex.EncodeToString(sum[:])
}
