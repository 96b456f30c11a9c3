package viewcache

import (
	"context"
	"fmt"
)

// Load returns the view cached under key, or calls fetch on a miss and caches its
// result. Concurrent misses on one key may each fetch; reads are idempotent so the
// duplicate work is accepted. Errors are never cached.
func Load[T any](ctx context.Context, c *Cache, key Key, fetch func(ctx context.Context) (T, error)) (T, error) {
	cached, ok, token := c.Lookup(key)
	if ok {
		value, isT := cached.(T)
		if isT {
			return value, nil
		}
		var zero T
		return zero, fmt.Errorf("cached view %s holds %T", key, cached)
	}

	value, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.PutIfCurrent(key, value, token)
	return value, nil
}
