// Package querycache memoizes backend reads by typed key and drops them when a
// write makes them stale.
package querycache

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"
)

// Resource names a backend read endpoint.
type Resource int

const (
	SiteInfo Resource = iota + 1
	Albums
	Album
	Collections
	Home
	Search
	Image
	Comments
	Users
)

var resourceNames = map[Resource]string{
	SiteInfo:    "site-info",
	Albums:      "albums",
	Album:       "album",
	Collections: "collections",
	Home:        "home",
	Search:      "search",
	Image:       "image",
	Comments:    "comments",
	Users:       "users",
}

func (r Resource) String() string {
	if name, ok := resourceNames[r]; ok {
		return name
	}
	return fmt.Sprintf("resource(%d)", int(r))
}

// Key addresses one cached read: the endpoint and its parameter.
type Key struct {
	Resource Resource
	Param    string
}

func (k Key) String() string {
	if k.Param == "" {
		return k.Resource.String()
	}
	return k.Resource.String() + "/" + k.Param
}

// Scope partitions entries by credential, since replies depend on who asks.
type Scope string

// Anonymous is the scope of requests without a backend credential.
const Anonymous Scope = "anonymous"

// ScopeFor derives the scope of a backend session token. The token itself is
// not retained.
func ScopeFor(token string) Scope {
	if token == "" {
		return Anonymous
	}
	sum := blake2b.Sum256([]byte(token))
	return Scope(hex.EncodeToString(sum[:16]))
}

// DefaultWindow is how long a read is reused before it is fetched again.
const DefaultWindow = 2 * time.Second

type entryKey struct {
	scope Scope
	key   Key
}

type entry struct {
	value   any
	fetched time.Time
}

// Cache is safe for concurrent use.
type Cache struct {
	window time.Duration
	now    func() time.Time
	group  singleflight.Group

	mu      sync.Mutex
	entries map[entryKey]entry
	// seq orders invalidations against fetches; a fetch that started before
	// an invalidation of its key must not be stored.
	seq        uint64
	keyInval   map[entryKey]uint64
	resInval   map[Resource]uint64
	scopeInval map[Scope]uint64
	// pending counts callers waiting on a fetch, by the seq they started at.
	pending map[uint64]int
}

// New creates a cache that reuses reads for window.
func New(window time.Duration) *Cache {
	return &Cache{
		window:     window,
		now:        time.Now,
		entries:    make(map[entryKey]entry),
		keyInval:   make(map[entryKey]uint64),
		resInval:   make(map[Resource]uint64),
		scopeInval: make(map[Scope]uint64),
		pending:    make(map[uint64]int),
	}
}

// lookup returns a fresh entry, or the sequence number a fetch started now
// must be checked against. A miss registers the caller as pending until done
// is called with that number.
func (c *Cache) lookup(ek entryKey) (any, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[ek]
	if ok && c.now().Sub(e.fetched) < c.window {
		return e.value, 0, true
	}
	delete(c.entries, ek)
	c.pending[c.seq]++
	return nil, c.seq, false
}

func (c *Cache) done(started uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending[started]--; c.pending[started] <= 0 {
		delete(c.pending, started)
	}
}

// invalidated reports whether ek was invalidated after started. The caller
// holds mu.
func (c *Cache) invalidated(ek entryKey, started uint64) bool {
	return c.keyInval[ek] > started || c.resInval[ek.key.Resource] > started || c.scopeInval[ek.scope] > started
}

func (c *Cache) store(ek entryKey, v any, started uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.invalidated(ek, started) {
		return
	}
	c.entries[ek] = entry{value: v, fetched: c.now()}
	if len(c.entries) > sweepThreshold {
		c.sweep()
	}
}

const sweepThreshold = 4096

// sweep drops expired entries. The caller holds mu.
func (c *Cache) sweep() {
	now := c.now()
	for ek, e := range c.entries {
		if now.Sub(e.fetched) >= c.window {
			delete(c.entries, ek)
		}
	}
}

// prune drops invalidation markers no pending fetch can be checked against.
// A marker only matters to fetches that started before it. The caller holds
// mu.
func (c *Cache) prune() {
	oldest, found := uint64(0), false
	for started := range c.pending {
		if !found || started < oldest {
			oldest, found = started, true
		}
	}
	if !found {
		clear(c.keyInval)
		clear(c.resInval)
		clear(c.scopeInval)
		return
	}
	for ek, seq := range c.keyInval {
		if seq <= oldest {
			delete(c.keyInval, ek)
		}
	}
	for r, seq := range c.resInval {
		if seq <= oldest {
			delete(c.resInval, r)
		}
	}
	for scope, seq := range c.scopeInval {
		if seq <= oldest {
			delete(c.scopeInval, scope)
		}
	}
}

// markers returns the number of invalidation markers held.
func (c *Cache) markers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.keyInval) + len(c.resInval) + len(c.scopeInval)
}

// Get returns the cached value for key in scope, calling fetch when there is
// none. Concurrent callers for the same key share one fetch as long as no
// invalidation happened between their lookups, so a caller never receives a
// value fetched before a write it could observe. Errors are not cached.
func Get[T any](ctx context.Context, c *Cache, scope Scope, key Key, fetch func(context.Context) (T, error)) (T, error) {
	ek := entryKey{scope: scope, key: key}
	v, started, ok := c.lookup(ek)
	if ok {
		return v.(T), nil
	}
	defer c.done(started)

	flight := fmt.Sprintf("%s|%s|%d", scope, key, started)
	v, err, _ := c.group.Do(flight, func() (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.store(ek, v, started)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Invalidate drops the given keys of one scope.
func (c *Cache) Invalidate(scope Scope, keys ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prune()
	c.seq++
	for _, k := range keys {
		ek := entryKey{scope: scope, key: k}
		delete(c.entries, ek)
		c.keyInval[ek] = c.seq
	}
}

// InvalidateResource drops every entry of the given resources in all scopes.
func (c *Cache) InvalidateResource(resources ...Resource) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prune()
	c.seq++
	for _, r := range resources {
		c.resInval[r] = c.seq
	}
	for ek := range c.entries {
		if c.resInval[ek.key.Resource] == c.seq {
			delete(c.entries, ek)
		}
	}
}

// InvalidateScope drops every entry of a scope, e.g. after logout.
func (c *Cache) InvalidateScope(scope Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prune()
	c.seq++
	c.scopeInval[scope] = c.seq
	for ek := range c.entries {
		if ek.scope == scope {
			delete(c.entries, ek)
		}
	}
}
