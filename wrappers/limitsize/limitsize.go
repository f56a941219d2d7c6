// Package limitsize implements the LimitSize wrapper (spec §4.8.5): rejects
// or silently drops entries whose serialized ManagedEntry exceeds a
// configured byte size.
package limitsize

import (
	"context"

	"github.com/maximhq/kvs/kverrors"
	"github.com/maximhq/kvs/managedentry"
	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/ttl"
)

// Config configures Wrapper.
type Config struct {
	MaxSize     int
	RaiseOnError bool
}

// Wrapper enforces Config.MaxSize on every Put/PutMany. Every other
// operation passes through unchanged via the embedded Store.
type Wrapper struct {
	store.Store
	inner store.Store
	cfg   Config
}

// New wraps inner, enforcing cfg.MaxSize on writes.
func New(inner store.Store, cfg Config) *Wrapper {
	return &Wrapper{Store: inner, inner: inner, cfg: cfg}
}

func (w *Wrapper) serializedSize(value map[string]any, entryTTL *float64) (int, error) {
	entry := managedentry.New(value, nil, entryTTL, nil)
	payload, err := managedentry.DumpJSON(entry)
	if err != nil {
		return 0, err
	}
	return len(payload), nil
}

// Put rejects (or silently drops) value if its serialized size exceeds
// Config.MaxSize.
func (w *Wrapper) Put(ctx context.Context, key string, value map[string]any, collection string, entryTTL *float64) error {
	size, err := w.serializedSize(value, entryTTL)
	if err != nil {
		return err
	}
	if size > w.cfg.MaxSize {
		if w.cfg.RaiseOnError {
			return kverrors.New(kverrors.KindEntryTooLarge, "put", "entry exceeds maximum size", map[string]any{"size": size, "max_size": w.cfg.MaxSize})
		}
		return nil
	}
	return w.inner.Put(ctx, key, value, collection, entryTTL)
}

// PutMany filters out oversize entries per-element, preserving alignment
// with the resolved TTL sequence (spec §4.8.5).
func (w *Wrapper) PutMany(ctx context.Context, keys []string, values []map[string]any, collection string, ttls ttl.Spec) error {
	resolved, err := ttl.Resolve("put_many", ttls, len(keys))
	if err != nil {
		return err
	}

	var keptKeys []string
	var keptValues []map[string]any
	var keptTTLs []*float64
	for i, k := range keys {
		size, err := w.serializedSize(values[i], resolved[i])
		if err != nil {
			return err
		}
		if size > w.cfg.MaxSize {
			if w.cfg.RaiseOnError {
				return kverrors.New(kverrors.KindEntryTooLarge, "put_many", "entry exceeds maximum size", map[string]any{"key": k, "size": size, "max_size": w.cfg.MaxSize})
			}
			continue
		}
		keptKeys = append(keptKeys, k)
		keptValues = append(keptValues, values[i])
		keptTTLs = append(keptTTLs, resolved[i])
	}
	if len(keptKeys) == 0 {
		return nil
	}
	return w.inner.PutMany(ctx, keptKeys, keptValues, collection, ttl.PerEntry(keptTTLs))
}

var _ store.Store = (*Wrapper)(nil)
