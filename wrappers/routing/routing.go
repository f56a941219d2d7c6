// Package routing implements the Routing / CollectionRouting wrapper (spec
// §4.8.15): a function (or explicit map, via CollectionRouting) selects the
// backing Store for each collection, with an optional default for
// collections the routing doesn't cover.
package routing

import (
	"context"

	"github.com/maximhq/kvs/kverrors"
	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/ttl"
)

// Func selects a Store for the given collection.
type Func func(collection string) (store.Store, bool)

// Wrapper dispatches every operation to the Store selected by Route for the
// operation's collection, falling back to Default when Route reports no
// match.
type Wrapper struct {
	route    Func
	fallback store.Store
}

// New builds a Wrapper from an explicit routing function. fallback may be
// nil, in which case an unmatched collection raises a configuration error.
func New(route Func, fallback store.Store) (*Wrapper, error) {
	if route == nil && fallback == nil {
		return nil, kverrors.New(kverrors.KindConfiguration, "new", "routing requires a routing function, a default store, or both", nil)
	}
	return &Wrapper{route: route, fallback: fallback}, nil
}

// NewCollectionRouting builds a Wrapper from an explicit collection→Store
// map, the CollectionRouting specialization named in spec §4.8.15.
func NewCollectionRouting(routes map[string]store.Store, fallback store.Store) (*Wrapper, error) {
	fn := func(collection string) (store.Store, bool) {
		s, ok := routes[collection]
		return s, ok
	}
	return New(fn, fallback)
}

func (w *Wrapper) resolve(collection string) (store.Store, error) {
	if w.route != nil {
		if s, ok := w.route(collection); ok {
			return s, nil
		}
	}
	if w.fallback != nil {
		return w.fallback, nil
	}
	return nil, kverrors.New(kverrors.KindConfiguration, "route", "no store routed for collection and no default configured", map[string]any{"collection": collection})
}

func (w *Wrapper) Get(ctx context.Context, key, collection string) (map[string]any, error) {
	s, err := w.resolve(collection)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, key, collection)
}

func (w *Wrapper) GetMany(ctx context.Context, keys []string, collection string) ([]map[string]any, error) {
	s, err := w.resolve(collection)
	if err != nil {
		return nil, err
	}
	return s.GetMany(ctx, keys, collection)
}

func (w *Wrapper) TTL(ctx context.Context, key, collection string) (store.TTLEntry, error) {
	s, err := w.resolve(collection)
	if err != nil {
		return store.TTLEntry{}, err
	}
	return s.TTL(ctx, key, collection)
}

func (w *Wrapper) TTLMany(ctx context.Context, keys []string, collection string) ([]store.TTLEntry, error) {
	s, err := w.resolve(collection)
	if err != nil {
		return nil, err
	}
	return s.TTLMany(ctx, keys, collection)
}

func (w *Wrapper) Put(ctx context.Context, key string, value map[string]any, collection string, entryTTL *float64) error {
	s, err := w.resolve(collection)
	if err != nil {
		return err
	}
	return s.Put(ctx, key, value, collection, entryTTL)
}

func (w *Wrapper) PutMany(ctx context.Context, keys []string, values []map[string]any, collection string, ttls ttl.Spec) error {
	s, err := w.resolve(collection)
	if err != nil {
		return err
	}
	return s.PutMany(ctx, keys, values, collection, ttls)
}

func (w *Wrapper) Delete(ctx context.Context, key, collection string) (bool, error) {
	s, err := w.resolve(collection)
	if err != nil {
		return false, err
	}
	return s.Delete(ctx, key, collection)
}

func (w *Wrapper) DeleteMany(ctx context.Context, keys []string, collection string) (int, error) {
	s, err := w.resolve(collection)
	if err != nil {
		return 0, err
	}
	return s.DeleteMany(ctx, keys, collection)
}

var _ store.Store = (*Wrapper)(nil)
