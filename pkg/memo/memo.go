// Package memo is the process-wide memo cache for resolutions. Entries live
// for a fixed time-to-live and are evicted lazily: an expired entry is simply
// treated as absent the next time it is looked up, with no background sweep.
// The in-memory tier is bounded by entry count (least recently used entries go
// first) and may be backed by a slower shared tier such as the SQLite store
// in package db.
package memo

import (
	"context"
	"encoding/json"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

// DefaultSize bounds the in-memory tier when no size is configured.
const DefaultSize = 1024

// Backing is an optional second tier. Payloads are JSON documents; expires is
// the absolute expiry recorded when the entry was first stored.
type Backing interface {
	Load(ctx context.Context, key string) (payload []byte, expires time.Time, ok bool, err error)
	Store(ctx context.Context, key string, payload []byte, expires time.Time) error
}

type entry[V any] struct {
	value   V
	expires time.Time
}

type settings struct {
	now     func() time.Time
	backing Backing
	logger  logrus.FieldLogger
}

// Option customises a Cache.
type Option func(*settings)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithBacking adds a second tier consulted on in-memory misses.
func WithBacking(b Backing) Option {
	return func(s *settings) { s.backing = b }
}

// WithLogger sets the logger used to report backing-tier failures.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *settings) { s.logger = l }
}

// Cache is a TTL memo keyed by normalized query.
type Cache[V any] struct {
	items *lru.Cache[string, entry[V]]
	ttl   time.Duration
	settings
}

// New creates a Cache whose entries live for ttl. size <= 0 uses DefaultSize.
func New[V any](ttl time.Duration, size int, opts ...Option) (*Cache[V], error) {
	if size <= 0 {
		size = DefaultSize
	}
	items, err := lru.New[string, entry[V]](size)
	if err != nil {
		return nil, err
	}
	s := settings{now: time.Now, logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&s)
	}
	return &Cache[V]{
		items:    items,
		ttl:      ttl,
		settings: s,
	}, nil
}

// Lookup returns the live value for key.
func (c *Cache[V]) Lookup(ctx context.Context, key string) (V, bool) {
	now := c.now()
	if e, ok := c.items.Get(key); ok {
		if now.Before(e.expires) {
			return e.value, true
		}
		c.items.Remove(key)
	}

	var zero V
	if c.backing == nil {
		return zero, false
	}
	payload, expires, ok, err := c.backing.Load(ctx, key)
	if err != nil {
		c.logger.WithFields(logrus.Fields{"key": key, "error": err}).Warn("memo backing load failed")
		return zero, false
	}
	if !ok || !now.Before(expires) {
		return zero, false
	}
	var v V
	if err := json.Unmarshal(payload, &v); err != nil {
		c.logger.WithFields(logrus.Fields{"key": key, "error": err}).Warn("memo backing entry unreadable")
		return zero, false
	}
	c.items.Add(key, entry[V]{value: v, expires: expires})
	return v, true
}

// Save stores v under key for the cache's time-to-live, overwriting any
// previous value.
func (c *Cache[V]) Save(ctx context.Context, key string, v V) {
	expires := c.now().Add(c.ttl)
	c.items.Add(key, entry[V]{value: v, expires: expires})

	if c.backing == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.WithFields(logrus.Fields{"key": key, "error": err}).Warn("memo entry not serializable")
		return
	}
	if err := c.backing.Store(ctx, key, payload, expires); err != nil {
		c.logger.WithFields(logrus.Fields{"key": key, "error": err}).Warn("memo backing store failed")
	}
}

// Len reports the number of entries held in memory, expired or not.
func (c *Cache[V]) Len() int { return c.items.Len() }
