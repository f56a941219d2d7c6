// Package singlecollection implements the SingleCollection wrapper (spec
// §4.8.3): it folds every caller-visible collection into one physical
// collection on Inner by prefixing the original collection name onto the
// key, so backends without native multi-collection support can still honor
// the Store Contract's collection partitioning.
package singlecollection

import (
	"context"

	"github.com/maximhq/kvs/compound"
	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/ttl"
)

// Config configures Wrapper.
type Config struct {
	SingleCollection  string
	DefaultCollection string
	Separator         string
}

// Wrapper folds every collection into Config.SingleCollection.
type Wrapper struct {
	inner store.Store
	cfg   Config
}

// New wraps inner, folding all collections per cfg.
func New(inner store.Store, cfg Config) *Wrapper {
	if cfg.Separator == "" {
		cfg.Separator = compound.DefaultCompoundSeparator
	}
	if cfg.DefaultCollection == "" {
		cfg.DefaultCollection = store.DefaultCollection
	}
	return &Wrapper{inner: inner, cfg: cfg}
}

func (w *Wrapper) foldedKey(collection, key string) string {
	if collection == "" {
		collection = w.cfg.DefaultCollection
	}
	return compound.Key(collection, key, w.cfg.Separator)
}

func (w *Wrapper) Get(ctx context.Context, key, collection string) (map[string]any, error) {
	return w.inner.Get(ctx, w.foldedKey(collection, key), w.cfg.SingleCollection)
}

func (w *Wrapper) GetMany(ctx context.Context, keys []string, collection string) ([]map[string]any, error) {
	folded := make([]string, len(keys))
	for i, k := range keys {
		folded[i] = w.foldedKey(collection, k)
	}
	return w.inner.GetMany(ctx, folded, w.cfg.SingleCollection)
}

func (w *Wrapper) TTL(ctx context.Context, key, collection string) (store.TTLEntry, error) {
	return w.inner.TTL(ctx, w.foldedKey(collection, key), w.cfg.SingleCollection)
}

func (w *Wrapper) TTLMany(ctx context.Context, keys []string, collection string) ([]store.TTLEntry, error) {
	folded := make([]string, len(keys))
	for i, k := range keys {
		folded[i] = w.foldedKey(collection, k)
	}
	return w.inner.TTLMany(ctx, folded, w.cfg.SingleCollection)
}

func (w *Wrapper) Put(ctx context.Context, key string, value map[string]any, collection string, entryTTL *float64) error {
	return w.inner.Put(ctx, w.foldedKey(collection, key), value, w.cfg.SingleCollection, entryTTL)
}

func (w *Wrapper) PutMany(ctx context.Context, keys []string, values []map[string]any, collection string, ttls ttl.Spec) error {
	folded := make([]string, len(keys))
	for i, k := range keys {
		folded[i] = w.foldedKey(collection, k)
	}
	return w.inner.PutMany(ctx, folded, values, w.cfg.SingleCollection, ttls)
}

func (w *Wrapper) Delete(ctx context.Context, key, collection string) (bool, error) {
	return w.inner.Delete(ctx, w.foldedKey(collection, key), w.cfg.SingleCollection)
}

func (w *Wrapper) DeleteMany(ctx context.Context, keys []string, collection string) (int, error) {
	folded := make([]string, len(keys))
	for i, k := range keys {
		folded[i] = w.foldedKey(collection, k)
	}
	return w.inner.DeleteMany(ctx, folded, w.cfg.SingleCollection)
}

// EnumerateKeys lists folded keys within the physical collection and strips
// the collection<sep> prefix back off, keeping only those belonging to
// collection (spec §4.8.3 "inverse: on enumerate, strip the prefix").
func (w *Wrapper) EnumerateKeys(ctx context.Context, collection string, limit int) ([]string, error) {
	enumerator, ok := w.inner.(store.KeyEnumerator)
	if !ok {
		return nil, nil
	}
	if collection == "" {
		collection = w.cfg.DefaultCollection
	}
	folded, err := enumerator.EnumerateKeys(ctx, w.cfg.SingleCollection, 0)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, f := range folded {
		origColl, origKey, ok := compound.Uncompound(f, w.cfg.Separator)
		if !ok || origColl != collection {
			continue
		}
		out = append(out, origKey)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

var (
	_ store.Store         = (*Wrapper)(nil)
	_ store.KeyEnumerator = (*Wrapper)(nil)
)
