// Package memory is an in-process domain.Cache for single-node runs and tests.
package memory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"trip_planner/internal/adapters/observability"
)

type entry struct {
	b       []byte
	expires time.Time
}

// Cache keeps JSON-encoded values in a size-bounded LRU. Values round-trip
// through JSON so callers never share memory with the cache, same as Redis.
type Cache struct {
	lru *expirable.LRU[string, entry]
	now func() time.Time
}

// New returns a cache holding at most size entries. maxTTL caps every
// entry's lifetime; Set may ask for less.
func New(size int, maxTTL time.Duration) *Cache {
	if size <= 0 {
		size = 1024
	}
	return &Cache{lru: expirable.NewLRU[string, entry](size, nil, maxTTL), now: time.Now}
}

func (c *Cache) Get(_ context.Context, key string, dst any) (bool, error) {
	e, ok := c.lru.Get(key)
	if ok && !e.expires.IsZero() && !c.now().Before(e.expires) {
		c.lru.Remove(key)
		ok = false
	}
	if !ok {
		observability.ObserveCache("memory", "miss")
		return false, nil
	}
	observability.ObserveCache("memory", "hit")
	return true, json.Unmarshal(e.b, dst)
}

func (c *Cache) Set(_ context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e := entry{b: b}
	if ttlSec > 0 {
		e.expires = c.now().Add(time.Duration(ttlSec) * time.Second)
	}
	observability.ObserveCache("memory", "set")
	c.lru.Add(key, e)
	return nil
}

func (c *Cache) Del(_ context.Context, key string) error {
	observability.ObserveCache("memory", "del")
	c.lru.Remove(key)
	return nil
}

func (c *Cache) Len() int { return c.lru.Len() }
