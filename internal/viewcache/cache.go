// Package viewcache holds derived triage views (inbox, project listings, per-project
// notes) behind a time-bounded, explicitly invalidated cache.
//
// Entries are immutable: a hit returns the stored value as-is and a change is
// expressed as invalidate-then-refill, never as an in-place update. Correctness comes
// from invalidation; the TTL only bounds staleness when no write passes through
// this process.
package viewcache

import (
	"fmt"
	"sync"
	"time"
)

// DefaultTTL bounds how long an entry may be served without an invalidation.
const DefaultTTL = 60 * time.Second

// DefaultMaxEntries bounds the number of cached views.
const DefaultMaxEntries = 100

// Kind names a family of cached views.
type Kind string

// Key identifies one cached view. Scope narrows a kind to one entity (a project id,
// a note id); Variant distinguishes parameterizations such as pages.
type Key struct {
	Kind    Kind
	Scope   string
	Variant string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Kind, k.Scope, k.Variant)
}

// Token is handed out on a miss and later presented to PutIfCurrent.
type Token uint64

type entry struct {
	value      any
	insertedAt time.Time
}

// Options configures a Cache.
type Options struct {
	TTL        time.Duration
	MaxEntries int
	// Now overrides the clock, for tests.
	Now     func() time.Time
	Metrics *Metrics
}

// Cache is a mutex-guarded key to value store with expiry.
type Cache struct {
	mu         sync.Mutex
	entries    map[Key]entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	epoch      uint64
	metrics    *Metrics
}

// New creates a cache. Zero options fall back to the defaults.
func New(opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		entries:    make(map[Key]entry),
		ttl:        opts.TTL,
		maxEntries: opts.MaxEntries,
		now:        opts.Now,
		metrics:    opts.Metrics,
	}
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the value stored under key, or false if absent or expired.
func (c *Cache) Get(key Key) (any, bool) {
	value, ok, _ := c.Lookup(key)
	return value, ok
}

// Lookup is Get that also returns a fill token on a miss. A caller that fetches the
// view after a miss should store it with PutIfCurrent and that token.
func (c *Cache) Lookup(key Key) (any, bool, Token) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok && c.expired(e) {
		delete(c.entries, key)
		c.metrics.expired(key.Kind)
		c.metrics.setEntries(len(c.entries))
		ok = false
	}
	if !ok {
		c.metrics.miss(key.Kind)
		return nil, false, Token(c.epoch)
	}
	c.metrics.hit(key.Kind)
	return e.value, true, Token(c.epoch)
}

// Put stores value under key unconditionally.
func (c *Cache) Put(key Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(key, value)
}

// PutIfCurrent stores value only if no invalidation happened since token was issued.
// A fill that raced with a write is dropped so the writer's next read refetches.
func (c *Cache) PutIfCurrent(key Key, value any, token Token) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if Token(c.epoch) != token {
		c.metrics.droppedFill(key.Kind)
		return false
	}
	c.store(key, value)
	return true
}

// Invalidate drops a single entry.
func (c *Cache) Invalidate(key Key) int {
	return c.Drop(Exact(key))
}

// InvalidateScope drops every variant of kind for one scope, e.g. all pages of
// one project's note listing.
func (c *Cache) InvalidateScope(kind Kind, scope string) int {
	return c.Drop(Scoped(kind, scope))
}

// InvalidatePrefix drops every entry of kind.
func (c *Cache) InvalidatePrefix(kind Kind) int {
	return c.Drop(All(kind))
}

// Drop removes every entry matched by any selector under a single lock and
// returns how many were removed. Every call advances the fill epoch, even when
// nothing matched, because an in-flight fill may target one of the selected views.
func (c *Cache) Drop(selectors ...Selector) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	removed := 0
	for key := range c.entries {
		for _, sel := range selectors {
			if sel.Matches(key) {
				delete(c.entries, key)
				c.metrics.invalidated(key.Kind)
				removed++
				break
			}
		}
	}
	c.metrics.setEntries(len(c.entries))
	return removed
}

// Purge empties the cache.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	clear(c.entries)
	c.metrics.setEntries(0)
}

// Len returns the number of stored entries, including ones that expired but were not yet read.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) expired(e entry) bool {
	return c.now().Sub(e.insertedAt) >= c.ttl
}

// store must be called with mu held.
func (c *Cache) store(key Key, value any) {
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evict()
	}
	c.entries[key] = entry{value: value, insertedAt: c.now()}
	c.metrics.setEntries(len(c.entries))
}

// evict drops expired entries, then the oldest one if the cache is still full.
func (c *Cache) evict() {
	for key, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, key)
			c.metrics.evicted()
		}
	}
	if len(c.entries) < c.maxEntries {
		return
	}

	var (
		oldestKey Key
		oldestAt  time.Time
		found     bool
	)
	for key, e := range c.entries {
		if !found || e.insertedAt.Before(oldestAt) {
			oldestKey, oldestAt, found = key, e.insertedAt, true
		}
	}
	if found {
		delete(c.entries, oldestKey)
		c.metrics.evicted()
	}
}
