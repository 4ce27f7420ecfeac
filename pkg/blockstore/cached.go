// Cached wraps a backing Store with a bounded in-memory read cache and a
// singleflight group that collapses concurrent fetches of the same block
// into one backend call — the same thundering-herd defense the arena-cache
// loader applies to its GetOrLoad path, adapted from a generic in-process
// cache to a content-addressed read-through cache in front of a Store.
package blockstore

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	cid "github.com/ipfs/go-cid"
	"golang.org/x/sync/singleflight"
)

// Cached is a Store decorator: Get checks an LRU cache before falling
// through to the backing Store, de-duplicating concurrent misses for the
// same CID via singleflight. Put always goes to the backing store and
// additionally seeds the cache, since the caller just produced those
// bytes and is likely to read them back soon. Has answers from the cache
// when the key is cached and asks the backing store otherwise.
type Cached struct {
	backing Store
	cache   *lru.Cache[string, []byte]
	group   singleflight.Group
}

// NewCached wraps backing with an LRU cache holding up to size entries.
func NewCached(backing Store, size int) (*Cached, error) {
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("blockstore: new cache: %w", err)
	}
	return &Cached{backing: backing, cache: cache}, nil
}

// Put stores data in the backing store and seeds the cache with the result.
func (c *Cached) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	got, err := c.backing.Put(ctx, data)
	if err != nil {
		return cid.Undef, err
	}
	c.cache.Add(got.KeyString(), data)
	return got, nil
}

// Get returns the cached bytes for key, or fetches them from the backing
// store — once per concurrently-requested key, however many callers ask.
func (c *Cached) Get(ctx context.Context, key cid.Cid) ([]byte, error) {
	if data, ok := c.cache.Get(key.KeyString()); ok {
		return data, nil
	}
	k := key.String()
	v, err, _ := c.group.Do(k, func() (any, error) {
		data, err := c.backing.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		c.cache.Add(key.KeyString(), data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Has checks the cache first, then the backing store.
func (c *Cached) Has(ctx context.Context, key cid.Cid) (bool, error) {
	if _, ok := c.cache.Get(key.KeyString()); ok {
		return true, nil
	}
	return c.backing.Has(ctx, key)
}

// Close closes the backing store. The cache holds no external resources.
func (c *Cached) Close() error { return c.backing.Close() }
