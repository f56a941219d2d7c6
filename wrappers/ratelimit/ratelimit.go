// Package ratelimit implements the RateLimit wrapper (spec §4.8.11): bounds
// the number of calls within a rolling or fixed window, raising
// RateLimitExceeded once the window's capacity is reached.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/maximhq/kvs/kverrors"
	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/ttl"
)

// Strategy selects the windowing algorithm.
type Strategy int

const (
	Sliding Strategy = iota
	Fixed
)

// Config configures Wrapper.
type Config struct {
	MaxRequests int
	Window      time.Duration
	Strategy    Strategy
}

// Wrapper rate-limits every call to Inner per Config.
type Wrapper struct {
	inner store.Store
	cfg   Config

	mu sync.Mutex
	// Sliding
	timestamps []time.Time
	// Fixed
	windowStart time.Time
	count       int
}

// New wraps inner with rate limiting per cfg.
func New(inner store.Store, cfg Config) *Wrapper {
	return &Wrapper{inner: inner, cfg: cfg}
}

func (w *Wrapper) admitSliding(now time.Time) error {
	cutoff := now.Add(-w.cfg.Window)
	kept := w.timestamps[:0]
	for _, ts := range w.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	w.timestamps = kept
	if len(w.timestamps) >= w.cfg.MaxRequests {
		return kverrors.New(kverrors.KindRateLimitExceeded, "rate_limit", "sliding window rate limit exceeded", map[string]any{"max_requests": w.cfg.MaxRequests})
	}
	w.timestamps = append(w.timestamps, now)
	return nil
}

func (w *Wrapper) admitFixed(now time.Time) error {
	if w.windowStart.IsZero() || now.Sub(w.windowStart) >= w.cfg.Window {
		w.windowStart = now
		w.count = 0
	}
	if w.count >= w.cfg.MaxRequests {
		return kverrors.New(kverrors.KindRateLimitExceeded, "rate_limit", "fixed window rate limit exceeded", map[string]any{"max_requests": w.cfg.MaxRequests})
	}
	w.count++
	return nil
}

func (w *Wrapper) admit() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	if w.cfg.Strategy == Fixed {
		return w.admitFixed(now)
	}
	return w.admitSliding(now)
}

func run[T any](w *Wrapper, fn func() (T, error)) (T, error) {
	var zero T
	if err := w.admit(); err != nil {
		return zero, err
	}
	return fn()
}

func (w *Wrapper) Get(ctx context.Context, key, collection string) (map[string]any, error) {
	return run(w, func() (map[string]any, error) { return w.inner.Get(ctx, key, collection) })
}

func (w *Wrapper) GetMany(ctx context.Context, keys []string, collection string) ([]map[string]any, error) {
	return run(w, func() ([]map[string]any, error) { return w.inner.GetMany(ctx, keys, collection) })
}

func (w *Wrapper) TTL(ctx context.Context, key, collection string) (store.TTLEntry, error) {
	return run(w, func() (store.TTLEntry, error) { return w.inner.TTL(ctx, key, collection) })
}

func (w *Wrapper) TTLMany(ctx context.Context, keys []string, collection string) ([]store.TTLEntry, error) {
	return run(w, func() ([]store.TTLEntry, error) { return w.inner.TTLMany(ctx, keys, collection) })
}

func (w *Wrapper) Put(ctx context.Context, key string, value map[string]any, collection string, entryTTL *float64) error {
	_, err := run(w, func() (struct{}, error) { return struct{}{}, w.inner.Put(ctx, key, value, collection, entryTTL) })
	return err
}

func (w *Wrapper) PutMany(ctx context.Context, keys []string, values []map[string]any, collection string, ttls ttl.Spec) error {
	_, err := run(w, func() (struct{}, error) { return struct{}{}, w.inner.PutMany(ctx, keys, values, collection, ttls) })
	return err
}

func (w *Wrapper) Delete(ctx context.Context, key, collection string) (bool, error) {
	return run(w, func() (bool, error) { return w.inner.Delete(ctx, key, collection) })
}

func (w *Wrapper) DeleteMany(ctx context.Context, keys []string, collection string) (int, error) {
	return run(w, func() (int, error) { return w.inner.DeleteMany(ctx, keys, collection) })
}

var _ store.Store = (*Wrapper)(nil)
