package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/sirupsen/logrus"
)

// Cache keeps decoded upstream responses for a short TTL
type Cache struct {
	store *bigcache.BigCache
}

// NewCache creates a cache whose entries expire after ttl. A zero ttl returns
// a nil cache, which never hits.
func NewCache(ctx context.Context, ttl time.Duration) (*Cache, error) {
	if ttl <= 0 {
		return nil, nil
	}

	cfg := bigcache.DefaultConfig(ttl)
	cfg.Shards = 16
	cfg.MaxEntriesInWindow = 1024
	cfg.CleanWindow = ttl
	cfg.Verbose = false

	store, err := bigcache.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return &Cache{store: store}, nil
}

// Get decodes the entry for key into v
func (c *Cache) Get(key string, v interface{}) bool {
	if c == nil {
		return false
	}
	raw, err := c.store.Get(key)
	if err != nil {
		if !errors.Is(err, bigcache.ErrEntryNotFound) {
			logrus.WithError(err).WithField("key", key).Debug("Cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		logrus.WithError(err).WithField("key", key).Debug("Dropping undecodable cache entry")
		_ = c.store.Delete(key)
		return false
	}
	return true
}

// Set stores v under key
func (c *Cache) Set(key string, v interface{}) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.store.Set(key, raw); err != nil {
		logrus.WithError(err).WithField("key", key).Debug("Cache write failed")
	}
}

// Close releases the cache's background cleaner
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.store.Close()
}
