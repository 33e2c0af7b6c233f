// Package shardcache keeps a bounded number of open index.Shard handles
// alive across repeated lookups within one process, keyed by
// (alias, schema_generation) so a refresh that rebuilds a source's index
// never serves a stale handle out of the cache.
package shardcache

import (
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/blz-dev/blz/internal/index"
	"github.com/blz-dev/blz/internal/store"
)

// Rebuilder reconstructs a source's on-disk index from its committed
// outline and text. lifecycle.Controller satisfies this; the narrow
// interface keeps shardcache from importing lifecycle.
type Rebuilder interface {
	RebuildIndex(alias string) error
}

// Cache opens and memoizes index.Shard handles for a store.Manager.
type Cache struct {
	mgr       *store.Manager
	rebuilder Rebuilder
	lru       *lru.Cache[string, *index.Shard]
}

// New returns a Cache that holds at most size open shards, closing the
// least recently used one when it is evicted. rebuilder is used to
// recover in place from an index-version mismatch; it may be nil, in
// which case a mismatch is simply returned as an error.
func New(mgr *store.Manager, size int, rebuilder Rebuilder) (*Cache, error) {
	if size <= 0 {
		size = 32
	}
	l, err := lru.NewWithEvict(size, func(_ string, shard *index.Shard) {
		shard.Close()
	})
	if err != nil {
		return nil, fmt.Errorf("shardcache: %w", err)
	}
	return &Cache{mgr: mgr, rebuilder: rebuilder, lru: l}, nil
}

// Get returns alias's live shard, opening and caching it if necessary.
// A cached entry from a prior schema_generation is evicted and reopened.
// An on-disk index built with a stale schema version triggers a silent
// rebuild-and-retry before surfacing an error to the caller.
func (c *Cache) Get(alias string) (*index.Shard, error) {
	meta, err := c.mgr.ReadMetadata(alias)
	if err != nil {
		return nil, fmt.Errorf("shardcache: %s: %w", alias, err)
	}
	key := cacheKey(alias, meta.SchemaGeneration)

	if shard, ok := c.lru.Get(key); ok {
		return shard, nil
	}

	shard, err := index.Open(c.mgr.IndexDir(alias))
	if errors.Is(err, index.ErrVersionMismatch) && c.rebuilder != nil {
		if rebuildErr := c.rebuilder.RebuildIndex(alias); rebuildErr != nil {
			return nil, fmt.Errorf("shardcache: %s: degraded, rebuild failed: %w", alias, rebuildErr)
		}
		shard, err = index.Open(c.mgr.IndexDir(alias))
	}
	if err != nil {
		return nil, fmt.Errorf("shardcache: open %s: %w", alias, err)
	}
	c.lru.Add(key, shard)
	return shard, nil
}

// Purge closes every cached shard and empties the cache.
func (c *Cache) Purge() {
	c.lru.Purge()
}

// Evict closes and drops every cached handle for alias, regardless of which
// schema_generation it was opened under. Callers must evict before removing
// a source on disk, so a stale handle never outlives the files it reads.
func (c *Cache) Evict(alias string) {
	prefix := alias + "@"
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.lru.Remove(key)
		}
	}
}

func cacheKey(alias string, generation int) string {
	return fmt.Sprintf("%s@%d", alias, generation)
}
