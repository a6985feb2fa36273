package memory

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// TTLCache remembers values by key for a fixed time. Expired entries are
// swept in the background.
type TTLCache[V any] struct {
	items *cache.Cache
}

func NewTTLCache[V any](ttl time.Duration) *TTLCache[V] {
	return &TTLCache[V]{items: cache.New(ttl, 2*ttl)}
}

func (c *TTLCache[V]) Remember(ctx context.Context, key string, v V) {
	_ = ctx
	c.items.Set(key, v, cache.DefaultExpiration)
}

func (c *TTLCache[V]) Recall(ctx context.Context, key string) (V, bool) {
	_ = ctx
	var zero V
	raw, ok := c.items.Get(key)
	if !ok {
		return zero, false
	}
	v, ok := raw.(V)
	if !ok {
		return zero, false
	}
	return v, true
}

func (c *TTLCache[V]) Len() int { return c.items.ItemCount() }
