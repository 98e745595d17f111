package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Blacklist records revoked token ids until they would have expired anyway.
type Blacklist struct {
	client *redis.Client
}

// NewBlacklist constructs a Blacklist backed by client.
func NewBlacklist(client *redis.Client) *Blacklist {
	return &Blacklist{client: client}
}

func blacklistKey(jti string) string {
	return "token:blacklist:" + jti
}

// Revoke blacklists jti for ttl and reports whether this call did so. It
// returns false when jti was already blacklisted, so of several concurrent
// callers exactly one wins. A non-positive ttl means the token has already
// expired; nothing is stored and false is returned.
func (b *Blacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, nil
	}
	ok, err := b.client.SetNX(ctx, blacklistKey(jti), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("revoking token %s: %w", jti, err)
	}
	return ok, nil
}

// IsRevoked reports whether jti is currently blacklisted.
func (b *Blacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("checking token %s: %w", jti, err)
	}
	return n > 0, nil
}
