// Package passthroughcache implements the PassthroughCache wrapper (spec
// §4.8.2): a two-tier Store where Cache fronts Primary with read-through
// population and write-invalidate semantics.
package passthroughcache

import (
	"context"

	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/ttl"
)

// Wrapper is the PassthroughCache Store.
type Wrapper struct {
	primary store.Store
	cache   store.Store
}

// New builds a Wrapper fronting primary with cache.
func New(primary, cache store.Store) *Wrapper {
	return &Wrapper{primary: primary, cache: cache}
}

// Get checks cache first; on miss it reads primary and populates cache with
// primary's remaining TTL when known (spec §4.8.2).
func (w *Wrapper) Get(ctx context.Context, key, collection string) (map[string]any, error) {
	if v, err := w.cache.Get(ctx, key, collection); err != nil {
		return nil, err
	} else if v != nil {
		return v, nil
	}

	entry, err := w.primary.TTL(ctx, key, collection)
	if err != nil {
		return nil, err
	}
	if entry.Value == nil {
		return nil, nil
	}
	if err := w.cache.Put(ctx, key, entry.Value, collection, entry.Remaining); err != nil {
		return nil, err
	}
	return entry.Value, nil
}

// GetMany partitions keys into cached/uncached, fetches only uncached from
// primary, and merges positionally (spec §4.8.2 bulk reads).
func (w *Wrapper) GetMany(ctx context.Context, keys []string, collection string) ([]map[string]any, error) {
	out := make([]map[string]any, len(keys))
	var missIdx []int
	for i, k := range keys {
		v, err := w.cache.Get(ctx, k, collection)
		if err != nil {
			return nil, err
		}
		out[i] = v
		if v == nil {
			missIdx = append(missIdx, i)
		}
	}
	for _, i := range missIdx {
		v, err := w.Get(ctx, keys[i], collection)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// TTL mirrors Get but also reports remaining TTL; it does not itself
// populate the cache beyond what Get already does when value is nil.
func (w *Wrapper) TTL(ctx context.Context, key, collection string) (store.TTLEntry, error) {
	cached, err := w.cache.TTL(ctx, key, collection)
	if err != nil {
		return store.TTLEntry{}, err
	}
	if cached.Value != nil {
		return cached, nil
	}
	entry, err := w.primary.TTL(ctx, key, collection)
	if err != nil {
		return store.TTLEntry{}, err
	}
	if entry.Value == nil {
		return store.TTLEntry{}, nil
	}
	if err := w.cache.Put(ctx, key, entry.Value, collection, entry.Remaining); err != nil {
		return store.TTLEntry{}, err
	}
	return entry, nil
}

// TTLMany is the positional fan-out over TTL.
func (w *Wrapper) TTLMany(ctx context.Context, keys []string, collection string) ([]store.TTLEntry, error) {
	out := make([]store.TTLEntry, len(keys))
	for i, k := range keys {
		e, err := w.TTL(ctx, k, collection)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// Put writes to primary then invalidates (deletes) any stale cache entry.
func (w *Wrapper) Put(ctx context.Context, key string, value map[string]any, collection string, entryTTL *float64) error {
	if err := w.primary.Put(ctx, key, value, collection, entryTTL); err != nil {
		return err
	}
	_, err := w.cache.Delete(ctx, key, collection)
	return err
}

// PutMany is the positional fan-out over Put.
func (w *Wrapper) PutMany(ctx context.Context, keys []string, values []map[string]any, collection string, ttls ttl.Spec) error {
	resolved, err := ttl.Resolve("put_many", ttls, len(keys))
	if err != nil {
		return err
	}
	for i, k := range keys {
		if err := w.Put(ctx, k, values[i], collection, resolved[i]); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes from both tiers; existed-before reflects primary.
func (w *Wrapper) Delete(ctx context.Context, key, collection string) (bool, error) {
	existed, err := w.primary.Delete(ctx, key, collection)
	if err != nil {
		return false, err
	}
	if _, err := w.cache.Delete(ctx, key, collection); err != nil {
		return false, err
	}
	return existed, nil
}

// DeleteMany is the positional fan-out over Delete.
func (w *Wrapper) DeleteMany(ctx context.Context, keys []string, collection string) (int, error) {
	count := 0
	for _, k := range keys {
		existed, err := w.Delete(ctx, k, collection)
		if err != nil {
			return count, err
		}
		if existed {
			count++
		}
	}
	return count, nil
}

var _ store.Store = (*Wrapper)(nil)
