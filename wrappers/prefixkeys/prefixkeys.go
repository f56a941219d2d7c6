// Package prefixkeys implements the PrefixKeys wrapper (spec §4.8.4):
// prepends a fixed prefix onto every key before delegating, stripping it
// back off on enumeration.
package prefixkeys

import (
	"context"

	"github.com/maximhq/kvs/compound"
	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/ttl"
)

// Wrapper prefixes every key with Prefix before delegating.
type Wrapper struct {
	inner     store.Store
	prefix    string
	separator string
}

// New wraps inner, prefixing every key with prefix.
func New(inner store.Store, prefix, separator string) *Wrapper {
	if separator == "" {
		separator = compound.DefaultPrefixSeparator
	}
	return &Wrapper{inner: inner, prefix: prefix, separator: separator}
}

func (w *Wrapper) resolve(key string) string {
	return compound.PrefixKey(w.prefix, key, w.separator)
}

func (w *Wrapper) resolveMany(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = w.resolve(k)
	}
	return out
}

func (w *Wrapper) Get(ctx context.Context, key, collection string) (map[string]any, error) {
	return w.inner.Get(ctx, w.resolve(key), collection)
}

func (w *Wrapper) GetMany(ctx context.Context, keys []string, collection string) ([]map[string]any, error) {
	return w.inner.GetMany(ctx, w.resolveMany(keys), collection)
}

func (w *Wrapper) TTL(ctx context.Context, key, collection string) (store.TTLEntry, error) {
	return w.inner.TTL(ctx, w.resolve(key), collection)
}

func (w *Wrapper) TTLMany(ctx context.Context, keys []string, collection string) ([]store.TTLEntry, error) {
	return w.inner.TTLMany(ctx, w.resolveMany(keys), collection)
}

func (w *Wrapper) Put(ctx context.Context, key string, value map[string]any, collection string, entryTTL *float64) error {
	return w.inner.Put(ctx, w.resolve(key), value, collection, entryTTL)
}

func (w *Wrapper) PutMany(ctx context.Context, keys []string, values []map[string]any, collection string, ttls ttl.Spec) error {
	return w.inner.PutMany(ctx, w.resolveMany(keys), values, collection, ttls)
}

func (w *Wrapper) Delete(ctx context.Context, key, collection string) (bool, error) {
	return w.inner.Delete(ctx, w.resolve(key), collection)
}

func (w *Wrapper) DeleteMany(ctx context.Context, keys []string, collection string) (int, error) {
	return w.inner.DeleteMany(ctx, w.resolveMany(keys), collection)
}

// EnumerateKeys lists Inner's keys with the prefix stripped, keeping only
// those that actually carry it.
func (w *Wrapper) EnumerateKeys(ctx context.Context, collection string, limit int) ([]string, error) {
	enumerator, ok := w.inner.(store.KeyEnumerator)
	if !ok {
		return nil, nil
	}
	raw, err := enumerator.EnumerateKeys(ctx, collection, 0)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, k := range raw {
		stripped, ok := compound.UnprefixKey(k, w.prefix, w.separator)
		if !ok {
			continue
		}
		out = append(out, stripped)
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
