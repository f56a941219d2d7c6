// Package timeout implements the Timeout wrapper (spec §4.8.8): wraps every
// operation in a cancellable deadline, raising TimeoutError when it elapses
// before the inner call returns.
package timeout

import (
	"context"
	"time"

	"github.com/maximhq/kvs/kverrors"
	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/ttl"
)

// Wrapper bounds every call to Inner with Duration.
type Wrapper struct {
	inner    store.Store
	duration time.Duration
}

// New wraps inner with a per-call deadline of duration.
func New(inner store.Store, duration time.Duration) *Wrapper {
	return &Wrapper{inner: inner, duration: duration}
}

// run executes fn with a ctx bound by Duration; on deadline elapse the
// inner call is cancelled (best effort) and TimeoutError is returned.
func run[T any](parent context.Context, w *Wrapper, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	ctx, cancel := context.WithTimeout(parent, w.duration)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		return zero, kverrors.New(kverrors.KindTimeout, op, "operation timed out", map[string]any{"timeout_seconds": w.duration.Seconds()})
	}
}

func (w *Wrapper) Get(ctx context.Context, key, collection string) (map[string]any, error) {
	return run(ctx, w, "get", func(ctx context.Context) (map[string]any, error) { return w.inner.Get(ctx, key, collection) })
}

func (w *Wrapper) GetMany(ctx context.Context, keys []string, collection string) ([]map[string]any, error) {
	return run(ctx, w, "get_many", func(ctx context.Context) ([]map[string]any, error) { return w.inner.GetMany(ctx, keys, collection) })
}

func (w *Wrapper) TTL(ctx context.Context, key, collection string) (store.TTLEntry, error) {
	return run(ctx, w, "ttl", func(ctx context.Context) (store.TTLEntry, error) { return w.inner.TTL(ctx, key, collection) })
}

func (w *Wrapper) TTLMany(ctx context.Context, keys []string, collection string) ([]store.TTLEntry, error) {
	return run(ctx, w, "ttl_many", func(ctx context.Context) ([]store.TTLEntry, error) { return w.inner.TTLMany(ctx, keys, collection) })
}

func (w *Wrapper) Put(ctx context.Context, key string, value map[string]any, collection string, entryTTL *float64) error {
	_, err := run(ctx, w, "put", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, w.inner.Put(ctx, key, value, collection, entryTTL)
	})
	return err
}

func (w *Wrapper) PutMany(ctx context.Context, keys []string, values []map[string]any, collection string, ttls ttl.Spec) error {
	_, err := run(ctx, w, "put_many", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, w.inner.PutMany(ctx, keys, values, collection, ttls)
	})
	return err
}

func (w *Wrapper) Delete(ctx context.Context, key, collection string) (bool, error) {
	return run(ctx, w, "delete", func(ctx context.Context) (bool, error) { return w.inner.Delete(ctx, key, collection) })
}

func (w *Wrapper) DeleteMany(ctx context.Context, keys []string, collection string) (int, error) {
	return run(ctx, w, "delete_many", func(ctx context.Context) (int, error) { return w.inner.DeleteMany(ctx, keys, collection) })
}

var _ store.Store = (*Wrapper)(nil)
