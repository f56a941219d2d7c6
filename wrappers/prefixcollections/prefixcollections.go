// Package prefixcollections implements the PrefixCollections wrapper (spec
// §4.8.4): prepends a fixed prefix onto every collection name before
// delegating, stripping it back off on enumeration.
package prefixcollections

import (
	"context"

	"github.com/maximhq/kvs/compound"
	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/ttl"
)

// Wrapper prefixes every collection name with Prefix before delegating.
type Wrapper struct {
	inner     store.Store
	prefix    string
	separator string
}

// New wraps inner, prefixing every collection name with prefix.
func New(inner store.Store, prefix, separator string) *Wrapper {
	if separator == "" {
		separator = compound.DefaultPrefixSeparator
	}
	return &Wrapper{inner: inner, prefix: prefix, separator: separator}
}

func (w *Wrapper) resolve(collection string) string {
	if collection == "" {
		collection = store.DefaultCollection
	}
	return compound.PrefixKey(w.prefix, collection, w.separator)
}

func (w *Wrapper) Get(ctx context.Context, key, collection string) (map[string]any, error) {
	return w.inner.Get(ctx, key, w.resolve(collection))
}

func (w *Wrapper) GetMany(ctx context.Context, keys []string, collection string) ([]map[string]any, error) {
	return w.inner.GetMany(ctx, keys, w.resolve(collection))
}

func (w *Wrapper) TTL(ctx context.Context, key, collection string) (store.TTLEntry, error) {
	return w.inner.TTL(ctx, key, w.resolve(collection))
}

func (w *Wrapper) TTLMany(ctx context.Context, keys []string, collection string) ([]store.TTLEntry, error) {
	return w.inner.TTLMany(ctx, keys, w.resolve(collection))
}

func (w *Wrapper) Put(ctx context.Context, key string, value map[string]any, collection string, entryTTL *float64) error {
	return w.inner.Put(ctx, key, value, w.resolve(collection), entryTTL)
}

func (w *Wrapper) PutMany(ctx context.Context, keys []string, values []map[string]any, collection string, ttls ttl.Spec) error {
	return w.inner.PutMany(ctx, keys, values, w.resolve(collection), ttls)
}

func (w *Wrapper) Delete(ctx context.Context, key, collection string) (bool, error) {
	return w.inner.Delete(ctx, key, w.resolve(collection))
}

func (w *Wrapper) DeleteMany(ctx context.Context, keys []string, collection string) (int, error) {
	return w.inner.DeleteMany(ctx, keys, w.resolve(collection))
}

// EnumerateCollections lists Inner's collections with the prefix stripped,
// keeping only those that actually carry it.
func (w *Wrapper) EnumerateCollections(ctx context.Context, limit int) ([]string, error) {
	enumerator, ok := w.inner.(store.CollectionEnumerator)
	if !ok {
		return nil, nil
	}
	raw, err := enumerator.EnumerateCollections(ctx, 0)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, c := range raw {
		stripped, ok := compound.UnprefixKey(c, w.prefix, w.separator)
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
	_ store.Store                = (*Wrapper)(nil)
	_ store.CollectionEnumerator = (*Wrapper)(nil)
)
