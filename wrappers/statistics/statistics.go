// Package statistics implements the Statistics wrapper (spec §4.8.14):
// per-collection, per-operation counters with count/hit/miss sub-fields,
// exposed via a snapshot accessor.
package statistics

import (
	"context"
	"sync"

	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/ttl"
)

// Counter holds the count/hit/miss sub-fields for one operation.
type Counter struct {
	Count int
	Hit   int
	Miss  int
}

// Snapshot is a point-in-time copy of a collection's counters, keyed by
// operation name ("get", "get_many", "ttl", "ttl_many", "put", "put_many",
// "delete", "delete_many").
type Snapshot map[string]Counter

// Wrapper counts operations performed through Inner, bucketed per collection.
type Wrapper struct {
	store.Store
	inner store.Store

	mu    sync.Mutex
	stats map[string]Snapshot
}

// New wraps inner with statistics collection.
func New(inner store.Store) *Wrapper {
	return &Wrapper{Store: inner, inner: inner, stats: make(map[string]Snapshot)}
}

func (w *Wrapper) snapshotFor(collection string) Snapshot {
	snap, ok := w.stats[collection]
	if !ok {
		snap = make(Snapshot)
		w.stats[collection] = snap
	}
	return snap
}

// begin increments count for op before the inner call runs.
func (w *Wrapper) begin(collection, op string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	snap := w.snapshotFor(collection)
	c := snap[op]
	c.Count++
	snap[op] = c
}

// finish records hit/miss for op after the inner call completes.
func (w *Wrapper) finish(collection, op string, hit bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	snap := w.snapshotFor(collection)
	c := snap[op]
	if hit {
		c.Hit++
	} else {
		c.Miss++
	}
	snap[op] = c
}

// Stats returns a deep copy of the accumulated counters, keyed by collection.
func (w *Wrapper) Stats() map[string]Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]Snapshot, len(w.stats))
	for collection, snap := range w.stats {
		copied := make(Snapshot, len(snap))
		for op, c := range snap {
			copied[op] = c
		}
		out[collection] = copied
	}
	return out
}

func (w *Wrapper) Get(ctx context.Context, key, collection string) (map[string]any, error) {
	w.begin(collection, "get")
	value, err := w.inner.Get(ctx, key, collection)
	if err != nil {
		return nil, err
	}
	w.finish(collection, "get", value != nil)
	return value, nil
}

func (w *Wrapper) GetMany(ctx context.Context, keys []string, collection string) ([]map[string]any, error) {
	w.begin(collection, "get_many")
	values, err := w.inner.GetMany(ctx, keys, collection)
	if err != nil {
		return nil, err
	}
	hit := false
	for _, v := range values {
		if v != nil {
			hit = true
			break
		}
	}
	w.finish(collection, "get_many", hit)
	return values, nil
}

func (w *Wrapper) TTL(ctx context.Context, key, collection string) (store.TTLEntry, error) {
	w.begin(collection, "ttl")
	entry, err := w.inner.TTL(ctx, key, collection)
	if err != nil {
		return store.TTLEntry{}, err
	}
	w.finish(collection, "ttl", entry.Value != nil)
	return entry, nil
}

func (w *Wrapper) TTLMany(ctx context.Context, keys []string, collection string) ([]store.TTLEntry, error) {
	w.begin(collection, "ttl_many")
	entries, err := w.inner.TTLMany(ctx, keys, collection)
	if err != nil {
		return nil, err
	}
	hit := false
	for _, e := range entries {
		if e.Value != nil {
			hit = true
			break
		}
	}
	w.finish(collection, "ttl_many", hit)
	return entries, nil
}

func (w *Wrapper) Put(ctx context.Context, key string, value map[string]any, collection string, entryTTL *float64) error {
	w.begin(collection, "put")
	err := w.inner.Put(ctx, key, value, collection, entryTTL)
	w.finish(collection, "put", err == nil)
	return err
}

func (w *Wrapper) PutMany(ctx context.Context, keys []string, values []map[string]any, collection string, ttls ttl.Spec) error {
	w.begin(collection, "put_many")
	err := w.inner.PutMany(ctx, keys, values, collection, ttls)
	w.finish(collection, "put_many", err == nil)
	return err
}

func (w *Wrapper) Delete(ctx context.Context, key, collection string) (bool, error) {
	w.begin(collection, "delete")
	existed, err := w.inner.Delete(ctx, key, collection)
	if err != nil {
		return false, err
	}
	w.finish(collection, "delete", existed)
	return existed, nil
}

func (w *Wrapper) DeleteMany(ctx context.Context, keys []string, collection string) (int, error) {
	w.begin(collection, "delete_many")
	count, err := w.inner.DeleteMany(ctx, keys, collection)
	if err != nil {
		return 0, err
	}
	w.finish(collection, "delete_many", count > 0)
	return count, nil
}

var _ store.Store = (*Wrapper)(nil)
