// Package lru is the in-process result cache used when no Redis is configured.
package lru

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"review_sentiment/internal/adapters/observability"
)

// Cache keeps JSON snapshots so callers never share mutable values with the cache.
// Entries expire after a fixed TTL; the per-call ttlSec is ignored.
type Cache struct {
	c *expirable.LRU[string, []byte]
}

func New(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = 64
	}
	return &Cache{c: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (l *Cache) Get(_ context.Context, key string, dst any) (bool, error) {
	b, ok := l.c.Get(key)
	if !ok {
		observability.ObserveCache("lru", "miss")
		return false, nil
	}
	observability.ObserveCache("lru", "hit")
	return true, json.Unmarshal(b, dst)
}

func (l *Cache) Set(_ context.Context, key string, v any, _ int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	observability.ObserveCache("lru", "set")
	l.c.Add(key, b)
	return nil
}

func (l *Cache) Del(_ context.Context, key string) error {
	observability.ObserveCache("lru", "del")
	l.c.Remove(key)
	return nil
}
