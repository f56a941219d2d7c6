// Package bulkhead implements the Bulkhead wrapper (spec §4.8.9): a
// counting semaphore admits up to MaxConcurrent inflight operations, with
// up to MaxWaiting more allowed to block; callers in excess fail fast with
// BulkheadFull.
package bulkhead

import (
	"context"
	"sync"

	"github.com/maximhq/kvs/kverrors"
	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/ttl"
)

// Config configures Wrapper.
type Config struct {
	MaxConcurrent int
	MaxWaiting    int
}

// Wrapper bounds concurrent and queued access to Inner.
type Wrapper struct {
	inner store.Store
	cfg   Config

	sem chan struct{}

	mu      sync.Mutex
	waiting int
}

// New wraps inner with bulkhead isolation per cfg.
func New(inner store.Store, cfg Config) *Wrapper {
	return &Wrapper{inner: inner, cfg: cfg, sem: make(chan struct{}, cfg.MaxConcurrent)}
}

// admit enforces the admission rule: a caller arriving when
// inflight+waiting >= MaxConcurrent+MaxWaiting fails fast (spec §4.8.9). The
// waiting counter is incremented on admission and decremented exactly once
// when the wait ends, whether a slot was acquired or ctx was done; the slot
// itself is released by run's deferred call.
func (w *Wrapper) admit(ctx context.Context) (func(), error) {
	w.mu.Lock()
	inflight := len(w.sem)
	if inflight+w.waiting >= w.cfg.MaxConcurrent+w.cfg.MaxWaiting {
		w.mu.Unlock()
		return nil, kverrors.New(kverrors.KindBulkheadFull, "bulkhead", "bulkhead is full", map[string]any{"max_concurrent": w.cfg.MaxConcurrent, "max_waiting": w.cfg.MaxWaiting})
	}
	w.waiting++
	w.mu.Unlock()

	release := func() {
		w.mu.Lock()
		w.waiting--
		w.mu.Unlock()
	}

	select {
	case w.sem <- struct{}{}:
		release()
		return func() { <-w.sem }, nil
	case <-ctx.Done():
		release()
		return nil, ctx.Err()
	}
}

func run[T any](ctx context.Context, w *Wrapper, fn func() (T, error)) (T, error) {
	var zero T
	done, err := w.admit(ctx)
	if err != nil {
		return zero, err
	}
	defer done()
	return fn()
}

func (w *Wrapper) Get(ctx context.Context, key, collection string) (map[string]any, error) {
	return run(ctx, w, func() (map[string]any, error) { return w.inner.Get(ctx, key, collection) })
}

func (w *Wrapper) GetMany(ctx context.Context, keys []string, collection string) ([]map[string]any, error) {
	return run(ctx, w, func() ([]map[string]any, error) { return w.inner.GetMany(ctx, keys, collection) })
}

func (w *Wrapper) TTL(ctx context.Context, key, collection string) (store.TTLEntry, error) {
	return run(ctx, w, func() (store.TTLEntry, error) { return w.inner.TTL(ctx, key, collection) })
}

func (w *Wrapper) TTLMany(ctx context.Context, keys []string, collection string) ([]store.TTLEntry, error) {
	return run(ctx, w, func() ([]store.TTLEntry, error) { return w.inner.TTLMany(ctx, keys, collection) })
}

func (w *Wrapper) Put(ctx context.Context, key string, value map[string]any, collection string, entryTTL *float64) error {
	_, err := run(ctx, w, func() (struct{}, error) { return struct{}{}, w.inner.Put(ctx, key, value, collection, entryTTL) })
	return err
}

func (w *Wrapper) PutMany(ctx context.Context, keys []string, values []map[string]any, collection string, ttls ttl.Spec) error {
	_, err := run(ctx, w, func() (struct{}, error) { return struct{}{}, w.inner.PutMany(ctx, keys, values, collection, ttls) })
	return err
}

func (w *Wrapper) Delete(ctx context.Context, key, collection string) (bool, error) {
	return run(ctx, w, func() (bool, error) { return w.inner.Delete(ctx, key, collection) })
}

func (w *Wrapper) DeleteMany(ctx context.Context, keys []string, collection string) (int, error) {
	return run(ctx, w, func() (int, error) { return w.inner.DeleteMany(ctx, keys, collection) })
}

var _ store.Store = (*Wrapper)(nil)
