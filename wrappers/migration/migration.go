// Package migration implements the Migration wrapper (spec §4.8.17): reads
// prefer Destination, falling back to Source and copying forward on a
// source hit; writes go to Destination only. SanitizationMigration is the
// preset named in SPEC_FULL.md §5.1 for re-keying a store after changing its
// compound.Strategy, where Source and Destination share the
// same backend type but differ in sanitization.
package migration

import (
	"context"

	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/ttl"
)

// Config controls the drain behavior.
type Config struct {
	// DeleteFromSource removes an entry from Source once it has been copied
	// to Destination, draining Source over time.
	DeleteFromSource bool
}

// Wrapper reads Destination first, falling back to Source on a miss and
// copying the value forward (respecting Source's remaining TTL).
type Wrapper struct {
	Source      store.Store
	Destination store.Store
	cfg         Config
}

// New builds a Migration wrapper over source and destination.
func New(source, destination store.Store, cfg Config) *Wrapper {
	return &Wrapper{Source: source, Destination: destination, cfg: cfg}
}

func (w *Wrapper) copyForward(ctx context.Context, key string, entry store.TTLEntry, collection string) error {
	var entryTTL *float64
	if entry.Remaining != nil {
		entryTTL = entry.Remaining
	}
	if err := w.Destination.Put(ctx, key, entry.Value, collection, entryTTL); err != nil {
		return err
	}
	if w.cfg.DeleteFromSource {
		if _, err := w.Source.Delete(ctx, key, collection); err != nil {
			return err
		}
	}
	return nil
}

func (w *Wrapper) Get(ctx context.Context, key, collection string) (map[string]any, error) {
	value, err := w.Destination.Get(ctx, key, collection)
	if err != nil {
		return nil, err
	}
	if value != nil {
		return value, nil
	}
	entry, err := w.Source.TTL(ctx, key, collection)
	if err != nil {
		return nil, err
	}
	if entry.Value == nil {
		return nil, nil
	}
	if err := w.copyForward(ctx, key, entry, collection); err != nil {
		return nil, err
	}
	return entry.Value, nil
}

func (w *Wrapper) GetMany(ctx context.Context, keys []string, collection string) ([]map[string]any, error) {
	out := make([]map[string]any, len(keys))
	for i, k := range keys {
		v, err := w.Get(ctx, k, collection)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (w *Wrapper) TTL(ctx context.Context, key, collection string) (store.TTLEntry, error) {
	entry, err := w.Destination.TTL(ctx, key, collection)
	if err != nil {
		return store.TTLEntry{}, err
	}
	if entry.Value != nil {
		return entry, nil
	}
	sourceEntry, err := w.Source.TTL(ctx, key, collection)
	if err != nil {
		return store.TTLEntry{}, err
	}
	if sourceEntry.Value == nil {
		return store.TTLEntry{}, nil
	}
	if err := w.copyForward(ctx, key, sourceEntry, collection); err != nil {
		return store.TTLEntry{}, err
	}
	return sourceEntry, nil
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
	return w.Destination.Put(ctx, key, value, collection, entryTTL)
}

func (w *Wrapper) PutMany(ctx context.Context, keys []string, values []map[string]any, collection string, ttls ttl.Spec) error {
	return w.Destination.PutMany(ctx, keys, values, collection, ttls)
}

func (w *Wrapper) Delete(ctx context.Context, key, collection string) (bool, error) {
	destExisted, err := w.Destination.Delete(ctx, key, collection)
	if err != nil {
		return false, err
	}
	srcExisted, err := w.Source.Delete(ctx, key, collection)
	if err != nil {
		return false, err
	}
	return destExisted || srcExisted, nil
}

func (w *Wrapper) DeleteMany(ctx context.Context, keys []string, collection string) (int, error) {
	count := 0
	for _, k := range keys {
		existed, err := w.Delete(ctx, k, collection)
		if err != nil {
			return count, err
		}
		if existed {
			count++
		}
	}
	return count, nil
}

var _ store.Store = (*Wrapper)(nil)
