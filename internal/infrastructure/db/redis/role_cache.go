package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

const defaultRoleTTL = time.Minute

// RoleCache keeps account roles for a short TTL so that authorization checks
// do not hit the credential store on every request.
// Key format: role:<account_id>
type RoleCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRoleCache creates a RoleCache wrapping the given Redis client.
func NewRoleCache(client *redis.Client, ttl time.Duration) *RoleCache {
	if ttl <= 0 {
		ttl = defaultRoleTTL
	}
	return &RoleCache{client: client, ttl: ttl}
}

// Get returns the cached role. A missing key is reported as ok=false with a
// nil error.
func (c *RoleCache) Get(ctx context.Context, accountID string) (string, bool, error) {
	role, err := c.client.Get(ctx, roleKey(accountID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, oops.Code("CACHE_ERROR").In("redis").With("operation", "get role").Wrap(err)
	}
	return role, true, nil
}

// Set caches role until the TTL elapses.
func (c *RoleCache) Set(ctx context.Context, accountID, role string) error {
	if err := c.client.Set(ctx, roleKey(accountID), role, c.ttl).Err(); err != nil {
		return oops.Code("CACHE_ERROR").In("redis").With("operation", "set role").Wrap(err)
	}
	return nil
}

func roleKey(accountID string) string {
	return "role:" + accountID
}
