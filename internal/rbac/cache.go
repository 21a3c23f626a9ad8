package rbac

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const grantKeyPrefix = "rbac:grants:"

// Cache keeps per-role grants hot so decisions stay off the store on
// the request path. Writes invalidate; the TTL is only a backstop for
// invalidations lost to a Redis hiccup. A nil client degrades to
// loader-only behavior.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewCache instantiates the grant cache.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Fetch returns the cached grants for a role, populating via loader on
// miss. Concurrent misses for the same role collapse to one load.
func (c *Cache) Fetch(ctx context.Context, role string, loader func(context.Context) (EffectiveGrants, error)) (EffectiveGrants, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	key := grantKeyPrefix + role

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var grants EffectiveGrants
		if jerr := json.Unmarshal(payload, &grants); jerr == nil {
			return grants, nil
		}
	} else if err != redis.Nil {
		return loader(ctx)
	}

	value, err, _ := c.group.Do(role, func() (interface{}, error) {
		grants, lerr := loader(ctx)
		if lerr != nil {
			return EffectiveGrants{}, lerr
		}
		if raw, merr := json.Marshal(grants); merr == nil {
			c.client.Set(ctx, key, raw, c.ttl)
		}
		return grants, nil
	})
	if err != nil {
		return EffectiveGrants{}, err
	}
	return value.(EffectiveGrants), nil
}

// Invalidate drops the cached grants for a role after a write.
func (c *Cache) Invalidate(ctx context.Context, role string) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(ctx, grantKeyPrefix+role)
}
