// Package ttlclamp implements the TTLClamp wrapper (spec §4.8.1): it forces
// every TTL passed through Put/PutMany into a configured [Min, Max] range,
// substituting MissingTTL when the caller omits one entirely.
package ttlclamp

import (
	"context"

	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/ttl"
)

// Config configures Wrapper.
type Config struct {
	Min        float64
	Max        float64
	MissingTTL *float64
}

// Wrapper clamps TTLs on the way into Inner. Every other operation passes
// through unchanged via the embedded Store.
type Wrapper struct {
	store.Store
	cfg Config
}

// New wraps inner with TTL clamping per cfg.
func New(inner store.Store, cfg Config) *Wrapper {
	return &Wrapper{Store: inner, cfg: cfg}
}

func (w *Wrapper) clamp(t *float64) *float64 {
	if t == nil {
		if w.cfg.MissingTTL == nil {
			return nil
		}
		t = w.cfg.MissingTTL
	}
	v := *t
	if v < w.cfg.Min {
		v = w.cfg.Min
	}
	if v > w.cfg.Max {
		v = w.cfg.Max
	}
	return &v
}

// Put clamps entryTTL before delegating.
func (w *Wrapper) Put(ctx context.Context, key string, value map[string]any, collection string, entryTTL *float64) error {
	return w.Store.Put(ctx, key, value, collection, w.clamp(entryTTL))
}

// PutMany clamps every TTL in ttls before delegating.
func (w *Wrapper) PutMany(ctx context.Context, keys []string, values []map[string]any, collection string, ttls ttl.Spec) error {
	resolved, err := ttl.Resolve("put_many", ttls, len(keys))
	if err != nil {
		return err
	}
	clamped := make([]*float64, len(resolved))
	for i, t := range resolved {
		clamped[i] = w.clamp(t)
	}
	return w.Store.PutMany(ctx, keys, values, collection, ttl.PerEntry(clamped))
}

var _ store.Store = (*Wrapper)(nil)
