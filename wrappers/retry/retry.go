// Package retry implements the Retry wrapper (spec §4.8.7): retries an
// operation on a matching error kind with exponential backoff, up to
// MaxRetries retries after the first attempt, propagating the last error (or a non-matching error
// immediately).
package retry

import (
	"context"
	"math"
	"time"

	"github.com/maximhq/kvs/kverrors"
	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/ttl"
)

// Config configures Wrapper.
type Config struct {
	MaxRetries      int
	RetryOn         []kverrors.Kind
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	ExponentialBase float64
}

// Wrapper retries every operation against Inner per Config.
type Wrapper struct {
	inner store.Store
	cfg   Config
}

// New wraps inner with retry-with-backoff per cfg.
func New(inner store.Store, cfg Config) *Wrapper {
	if cfg.ExponentialBase <= 0 {
		cfg.ExponentialBase = 2
	}
	return &Wrapper{inner: inner, cfg: cfg}
}

func (w *Wrapper) matches(err error) bool {
	if err == nil {
		return false
	}
	for _, k := range w.cfg.RetryOn {
		if kverrors.HasKind(err, k) {
			return true
		}
	}
	return false
}

func (w *Wrapper) delay(attempt int) time.Duration {
	d := time.Duration(float64(w.cfg.InitialDelay) * math.Pow(w.cfg.ExponentialBase, float64(attempt)))
	if w.cfg.MaxDelay > 0 && d > w.cfg.MaxDelay {
		return w.cfg.MaxDelay
	}
	return d
}

// run executes fn, retrying while the returned error matches RetryOn, up to
// MaxRetries additional attempts. Non-matching errors propagate immediately.
func run[T any](ctx context.Context, w *Wrapper, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt <= w.cfg.MaxRetries; attempt++ {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		if !w.matches(err) {
			return zero, err
		}
		lastErr = err
		if attempt == w.cfg.MaxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(w.delay(attempt)):
		}
	}
	return zero, lastErr
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
