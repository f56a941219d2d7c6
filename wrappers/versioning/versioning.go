// Package versioning implements the Versioning wrapper (spec §4.8.12): puts
// wrap the value in a version envelope; gets unwrap it only when the
// envelope's version matches, treating a mismatch (or a malformed envelope)
// as a miss, and passing unwrapped legacy payloads through unchanged.
package versioning

import (
	"context"

	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/ttl"
)

const (
	versionField = "__version__"
	dataField    = "__versioned_data__"
)

// Wrapper wraps/unwraps the version envelope around Inner's values.
type Wrapper struct {
	store.Store
	inner   store.Store
	version any
}

// New wraps inner, stamping version onto every write.
func New(inner store.Store, version any) *Wrapper {
	return &Wrapper{Store: inner, inner: inner, version: version}
}

func wrap(version any, value map[string]any) map[string]any {
	return map[string]any{versionField: version, dataField: value}
}

// unwrap returns (value, true) if raw is a recognized envelope matching
// Wrapper's version, (nil, true) if it is an envelope with a mismatched or
// malformed version (treated as missing per spec §4.8.12), and (raw, false)
// if it is not an envelope at all (pass through unchanged for backward
// compatibility).
func (w *Wrapper) unwrap(raw map[string]any) (map[string]any, bool) {
	if raw == nil {
		return nil, false
	}
	rawVersion, hasVersion := raw[versionField]
	rawData, hasData := raw[dataField]
	if !hasVersion && !hasData {
		return raw, false
	}
	if !hasVersion || !hasData {
		return nil, true
	}
	if rawVersion != w.version {
		return nil, true
	}
	data, ok := rawData.(map[string]any)
	if !ok {
		return nil, true
	}
	return data, true
}

func (w *Wrapper) Get(ctx context.Context, key, collection string) (map[string]any, error) {
	raw, err := w.inner.Get(ctx, key, collection)
	if err != nil {
		return nil, err
	}
	unwrapped, _ := w.unwrap(raw)
	return unwrapped, nil
}

func (w *Wrapper) GetMany(ctx context.Context, keys []string, collection string) ([]map[string]any, error) {
	raws, err := w.inner.GetMany(ctx, keys, collection)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, len(raws))
	for i, raw := range raws {
		out[i], _ = w.unwrap(raw)
	}
	return out, nil
}

func (w *Wrapper) TTL(ctx context.Context, key, collection string) (store.TTLEntry, error) {
	entry, err := w.inner.TTL(ctx, key, collection)
	if err != nil {
		return store.TTLEntry{}, err
	}
	unwrapped, _ := w.unwrap(entry.Value)
	if unwrapped == nil {
		return store.TTLEntry{}, nil
	}
	return store.TTLEntry{Value: unwrapped, Remaining: entry.Remaining}, nil
}

func (w *Wrapper) TTLMany(ctx context.Context, keys []string, collection string) ([]store.TTLEntry, error) {
	out := make([]store.TTLEntry, len(keys))
	for i, k := range keys {
		e, err := w.TTL(ctx, k, collection)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

func (w *Wrapper) Put(ctx context.Context, key string, value map[string]any, collection string, entryTTL *float64) error {
	return w.inner.Put(ctx, key, wrap(w.version, value), collection, entryTTL)
}

func (w *Wrapper) PutMany(ctx context.Context, keys []string, values []map[string]any, collection string, ttls ttl.Spec) error {
	wrapped := make([]map[string]any, len(values))
	for i, v := range values {
		wrapped[i] = wrap(w.version, v)
	}
	return w.inner.PutMany(ctx, keys, wrapped, collection, ttls)
}

var _ store.Store = (*Wrapper)(nil)
