// Package cache holds server-fetched entities keyed by resource and parameters.
//
// Reads return a fresh entry without touching the network. Stale, failed or missing
// entries are fetched on the next read, with concurrent reads of the same key sharing one
// request. Invalidation only marks entries stale; refetching happens on the next read. A
// read issued after an invalidation never joins a request started before it.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"
)

// ErrDisabled is returned by GetWhen while its gate is closed.
var ErrDisabled = errors.New("cache: fetch gated")

type Key string

// KeyOf joins a resource name and its identifying parameters.
func KeyOf(resource string, params ...any) Key {
	parts := make([]string, 0, len(params)+1)
	parts = append(parts, resource)
	for _, p := range params {
		parts = append(parts, fmt.Sprint(p))
	}
	return Key(strings.Join(parts, "/"))
}

type Fetcher[T any] func(ctx context.Context) (T, error)

type Status struct {
	Loaded    bool
	Stale     bool
	Err       error
	UpdatedAt time.Time
}

type entry struct {
	value     any
	loaded    bool
	stale     bool
	err       error
	gen       uint64
	updatedAt time.Time
}

type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	gens    map[Key]uint64
	subs    map[int]func(Key)
	nextSub int
	group   singleflight.Group
	clock   clockwork.Clock
}

func New(clock clockwork.Clock) *Cache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Cache{
		entries: make(map[Key]*entry),
		gens:    make(map[Key]uint64),
		subs:    make(map[int]func(Key)),
		clock:   clock,
	}
}

// Get returns the cached value for key, fetching it when the entry is missing, stale or
// failed.
func Get[T any](ctx context.Context, c *Cache, key Key, fetch Fetcher[T]) (T, error) {
	var zero T

	if v, ok := c.fresh(key); ok {
		typed, ok := v.(T)
		if !ok {
			return zero, fmt.Errorf("cache: %s holds %T", key, v)
		}
		return typed, nil
	}

	gen := c.generation(key)
	v, err, _ := c.group.Do(flightKey(key, gen), func() (any, error) {
		val, err := fetch(ctx)
		if err != nil {
			c.fail(key, gen, err)
			return nil, err
		}
		c.store(key, gen, val)
		return val, nil
	})
	if err != nil {
		return zero, err
	}

	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache: %s holds %T", key, v)
	}
	return typed, nil
}

// GetWhen behaves like Get while enabled holds and returns ErrDisabled without fetching
// otherwise.
func GetWhen[T any](ctx context.Context, c *Cache, enabled bool, key Key, fetch Fetcher[T]) (T, error) {
	if !enabled {
		var zero T
		return zero, ErrDisabled
	}
	return Get(ctx, c, key, fetch)
}

// Peek returns whatever is stored for key, stale or not, without fetching.
func Peek[T any](c *Cache, key Key) (T, Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	e, ok := c.entries[key]
	if !ok {
		return zero, Status{}
	}
	st := Status{Loaded: e.loaded, Stale: e.stale, Err: e.err, UpdatedAt: e.updatedAt}
	typed, ok := e.value.(T)
	if !ok {
		return zero, st
	}
	return typed, st
}

func (c *Cache) Invalidate(keys ...Key) {
	c.mu.Lock()
	for _, key := range keys {
		c.gens[key]++
		if e, ok := c.entries[key]; ok {
			e.stale = true
		}
	}
	c.mu.Unlock()

	for _, key := range keys {
		c.notify(key)
	}
}

// InvalidatePrefix marks every entry whose key starts with prefix as stale.
func (c *Cache) InvalidatePrefix(prefix Key) {
	c.mu.Lock()
	var keys []Key
	for key := range c.entries {
		if strings.HasPrefix(string(key), string(prefix)) {
			keys = append(keys, key)
		}
	}
	c.mu.Unlock()

	c.Invalidate(keys...)
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	keys := make([]Key, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
		c.gens[key]++
	}
	c.entries = make(map[Key]*entry)
	c.mu.Unlock()

	for _, key := range keys {
		c.notify(key)
	}
}

// Subscribe registers fn to be called with the key of every store or invalidation. The
// returned func removes the subscription.
func (c *Cache) Subscribe(fn func(Key)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Cache) fresh(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !e.loaded || e.stale || e.err != nil {
		return nil, false
	}
	return e.value, true
}

func flightKey(key Key, gen uint64) string {
	return fmt.Sprintf("%s#%d", key, gen)
}

func (c *Cache) generation(key Key) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[key]
}

func (c *Cache) store(key Key, gen uint64, val any) {
	c.mu.Lock()
	e := c.entry(key)
	if e.gen > gen {
		// A request started after a later invalidation already answered.
		c.mu.Unlock()
		return
	}
	e.value = val
	e.loaded = true
	e.err = nil
	e.gen = gen
	// Invalidated while in flight: keep the value but refetch on the next read.
	e.stale = gen != c.gens[key]
	e.updatedAt = c.clock.Now()
	c.mu.Unlock()

	c.notify(key)
}

func (c *Cache) fail(key Key, gen uint64, err error) {
	c.mu.Lock()
	e := c.entry(key)
	if e.gen > gen {
		c.mu.Unlock()
		return
	}
	e.err = err
	e.gen = gen
	e.updatedAt = c.clock.Now()
	c.mu.Unlock()

	c.notify(key)
}

func (c *Cache) entry(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	return e
}

func (c *Cache) notify(key Key) {
	c.mu.Lock()
	subs := make([]func(Key), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(key)
	}
}
