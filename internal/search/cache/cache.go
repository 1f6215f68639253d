// Package cache is a Redis-backed cache of query results keyed by mode and
// query string, with singleflight suppression of duplicate concurrent
// evaluations. The cache is flushed whole on every index rebuild, so
// entries can never outlive the index they were computed against.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/pradiptarakha/corpusindex/pkg/config"
	pkgredis "github.com/pradiptarakha/corpusindex/pkg/redis"
)

const keyPrefix = "query:"

// Entry is the cached payload: the sorted matching doc ids for one query.
type Entry struct {
	Mode   string `json:"mode"`
	Query  string `json:"query"`
	DocIDs []int  `json:"doc_ids"`
}

// QueryCache caches evaluated queries in Redis.
type QueryCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a QueryCache on top of an existing Redis client.
func New(client *pkgredis.Client, cfg config.RedisConfig) *QueryCache {
	return &QueryCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "query-cache"),
	}
}

// Get returns the cached entry for (mode, query) if present.
func (c *QueryCache) Get(ctx context.Context, mode, query string) (*Entry, bool) {
	key := c.buildKey(mode, query)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return &entry, true
}

// Set stores an entry with the configured TTL. Failures are logged, not
// returned; the cache is best-effort.
func (c *QueryCache) Set(ctx context.Context, mode, query string, entry *Entry) {
	key := c.buildKey(mode, query)
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached entry or evaluates computeFn exactly
// once per key across concurrent callers, caching the result. The bool
// reports whether the value came from cache.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	mode, query string,
	computeFn func() (*Entry, error),
) (*Entry, bool, error) {
	if entry, ok := c.Get(ctx, mode, query); ok {
		return entry, true, nil
	}
	key := c.buildKey(mode, query)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if entry, ok := c.Get(ctx, mode, query); ok {
			return entry, nil
		}
		entry, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, mode, query, entry)
		return entry, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*Entry), false, nil
}

// Invalidate drops every cached query.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.DeletePattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating query cache: %w", err)
	}
	c.logger.Info("query cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns cumulative hit and miss counts.
func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// buildKey hashes mode and the raw query string. Boolean queries are
// order-sensitive (NOT placement matters), so no term reordering is
// attempted.
func (c *QueryCache) buildKey(mode, query string) string {
	sum := sha256.Sum256([]byte(mode + "\x00" + query))
	return fmt.Sprintf("%s%x", keyPrefix, sum[:16])
}
