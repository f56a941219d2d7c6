// Package defaultvalue implements the DefaultValue wrapper (spec §4.8.16):
// on a miss, Get/TTL return a configured default instead of nil. The default
// is deep-copied via a JSON round-trip on every miss so callers can never
// mutate the shared configured value.
package defaultvalue

import (
	"context"
	"encoding/json"

	"github.com/maximhq/kvs/kverrors"
	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/ttl"
)

// Wrapper substitutes Default for a miss from Inner. Writes pass through
// unchanged.
type Wrapper struct {
	store.Store
	inner      store.Store
	Default    map[string]any
	DefaultTTL *float64
}

// New wraps inner, returning a deep copy of def on every miss. defaultTTL, if
// non-nil, is the remaining TTL reported for a substituted default on TTL
// queries.
func New(inner store.Store, def map[string]any, defaultTTL *float64) *Wrapper {
	return &Wrapper{Store: inner, inner: inner, Default: def, DefaultTTL: defaultTTL}
}

func (w *Wrapper) copyDefault() (map[string]any, error) {
	if w.Default == nil {
		return nil, nil
	}
	raw, err := json.Marshal(w.Default)
	if err != nil {
		return nil, kverrors.Wrap(kverrors.KindSerialization, "default_value", "failed to marshal default value", err, nil)
	}
	var copied map[string]any
	if err := json.Unmarshal(raw, &copied); err != nil {
		return nil, kverrors.Wrap(kverrors.KindDeserialization, "default_value", "failed to deep copy default value", err, nil)
	}
	return copied, nil
}

func (w *Wrapper) Get(ctx context.Context, key, collection string) (map[string]any, error) {
	value, err := w.inner.Get(ctx, key, collection)
	if err != nil {
		return nil, err
	}
	if value != nil {
		return value, nil
	}
	return w.copyDefault()
}

func (w *Wrapper) GetMany(ctx context.Context, keys []string, collection string) ([]map[string]any, error) {
	values, err := w.inner.GetMany(ctx, keys, collection)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, len(values))
	for i, v := range values {
		if v != nil {
			out[i] = v
			continue
		}
		out[i], err = w.copyDefault()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (w *Wrapper) TTL(ctx context.Context, key, collection string) (store.TTLEntry, error) {
	entry, err := w.inner.TTL(ctx, key, collection)
	if err != nil {
		return store.TTLEntry{}, err
	}
	if entry.Value != nil {
		return entry, nil
	}
	def, err := w.copyDefault()
	if err != nil {
		return store.TTLEntry{}, err
	}
	if def == nil {
		return store.TTLEntry{}, nil
	}
	return store.TTLEntry{Value: def, Remaining: w.DefaultTTL}, nil
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

var _ store.Store = (*Wrapper)(nil)
