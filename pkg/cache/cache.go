// Package cache stores JSON values with an expiry on top of a kvstore.Store.
//
// Entries are wrapped as {"value": ..., "expires": <epoch millis>} and are only
// visible while now < expires. Expired entries are removed lazily on read; there
// is no sweep and no capacity bound.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/agrovision/pkg/kvstore"
)

// Status describes the outcome of a cache lookup.
type Status int

const (
	// Miss means no visible entry exists for the key.
	Miss Status = iota
	// Hit means a live entry was found.
	Hit
	// Unavailable means the store could not be read. Callers treat it like a miss.
	Unavailable
)

func (s Status) String() string {
	switch s {
	case Hit:
		return "hit"
	case Unavailable:
		return "unavailable"
	default:
		return "miss"
	}
}

// Lookup is the result of Get. Value is only set on a Hit.
type Lookup struct {
	Value  json.RawMessage
	Status Status
}

// ErrNoStore is returned by Set when the cache has no backing store.
var ErrNoStore = errors.New("cache has no store")

type entry struct {
	Value   json.RawMessage `json:"value"`
	Expires int64           `json:"expires"`
}

// Cache is a TTL cache over a persisted store. A nil store makes every
// lookup a miss.
type Cache struct {
	store  kvstore.Store
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a Cache over store.
func New(store kvstore.Store, logger *slog.Logger, opts ...Option) *Cache {
	c := &Cache{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get looks up key. It never fails: storage errors are reported as Unavailable.
func (c *Cache) Get(ctx context.Context, key string) Lookup {
	if c.store == nil {
		return Lookup{Status: Miss}
	}

	raw, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "error", err)
		return Lookup{Status: Unavailable}
	}
	if !found {
		c.logger.Debug("cache miss", "key", key, "reason", "not_found")
		return Lookup{Status: Miss}
	}

	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		c.logger.Debug("cache miss", "key", key, "reason", "corrupt", "error", err)
		c.remove(ctx, key)
		return Lookup{Status: Miss}
	}

	if c.now().UnixMilli() >= e.Expires {
		c.logger.Debug("cache miss", "key", key, "reason", "expired", "expired_at", time.UnixMilli(e.Expires))
		c.remove(ctx, key)
		return Lookup{Status: Miss}
	}

	return Lookup{Status: Hit, Value: e.Value}
}

// Load decodes a live entry into dst. A value that does not decode is a Miss.
func (c *Cache) Load(ctx context.Context, key string, dst any) Status {
	lookup := c.Get(ctx, key)
	if lookup.Status != Hit {
		return lookup.Status
	}
	if err := json.Unmarshal(lookup.Value, dst); err != nil {
		c.logger.Debug("cache miss", "key", key, "reason", "decode", "error", err)
		return Miss
	}
	return Hit
}

// Set stores value under key until now+ttl. The error is informational;
// callers must not let a failed write block their result.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.store == nil {
		return ErrNoStore
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	wrapped, err := json.Marshal(entry{
		Value:   data,
		Expires: c.now().Add(ttl).UnixMilli(),
	})
	if err != nil {
		return err
	}

	if err := c.store.Set(ctx, key, string(wrapped)); err != nil {
		return err
	}
	c.logger.Debug("cache set", "key", key, "ttl", ttl, "size", len(wrapped))
	return nil
}

func (c *Cache) remove(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.Debug("failed to delete cache entry", "key", key, "error", err)
	}
}
