// Package store defines the Store Contract every kvs backend and wrapper
// implements, plus the optional capability interfaces and a small set of
// helpers for argument validation shared by the whole call surface.
package store

import (
	"context"

	"github.com/maximhq/kvs/kverrors"
	"github.com/maximhq/kvs/ttl"
)

// DefaultCollection is used whenever a caller passes an empty collection
// name and the store was not configured with a different default.
const DefaultCollection = "default_collection"

// DefaultMaxKeyLength bounds a single key's length unless a store overrides
// it in its configuration.
const DefaultMaxKeyLength = 1024

// TTLEntry is one (value, remaining TTL seconds) pair, the result shape of
// TTL/TTLMany.
type TTLEntry struct {
	Value     map[string]any
	Remaining *float64
}

// Store is the uniform operation surface every backend and wrapper
// implements (spec §4.2). All operations accept a context so backends with
// network I/O can honor cancellation; in-memory backends simply ignore it.
type Store interface {
	Get(ctx context.Context, key, collection string) (map[string]any, error)
	GetMany(ctx context.Context, keys []string, collection string) ([]map[string]any, error)

	TTL(ctx context.Context, key, collection string) (TTLEntry, error)
	TTLMany(ctx context.Context, keys []string, collection string) ([]TTLEntry, error)

	Put(ctx context.Context, key string, value map[string]any, collection string, entryTTL *float64) error
	PutMany(ctx context.Context, keys []string, values []map[string]any, collection string, ttls ttl.Spec) error

	Delete(ctx context.Context, key, collection string) (bool, error)
	DeleteMany(ctx context.Context, keys []string, collection string) (int, error)
}

// KeyEnumerator is an optional capability: backends that can list keys
// within a collection implement it. Wrappers must type-assert for it rather
// than assuming every Store supports it.
type KeyEnumerator interface {
	EnumerateKeys(ctx context.Context, collection string, limit int) ([]string, error)
}

// CollectionEnumerator is an optional capability for backends that can list
// their collections.
type CollectionEnumerator interface {
	EnumerateCollections(ctx context.Context, limit int) ([]string, error)
}

// CollectionDestroyer is an optional capability for backends that can drop
// an entire collection.
type CollectionDestroyer interface {
	DestroyCollection(ctx context.Context, collection string) error
}

// StoreDestroyer is an optional capability for backends that can tear down
// everything they own.
type StoreDestroyer interface {
	DestroyStore(ctx context.Context) error
}

// ValidateKey enforces the non-empty / max-length argument constraint
// shared by every operation (spec §4.2).
func ValidateKey(op, key string, maxKeyLength int) error {
	if key == "" {
		return kverrors.New(kverrors.KindInvalidKey, op, "key must not be empty", nil)
	}
	if maxKeyLength <= 0 {
		maxKeyLength = DefaultMaxKeyLength
	}
	if len([]rune(key)) > maxKeyLength {
		return kverrors.New(kverrors.KindInvalidKey, op, "key exceeds maximum length", map[string]any{"key": key, "max_length": maxKeyLength})
	}
	return nil
}

// ValidateKeys validates every key in keys and rejects an empty slice.
func ValidateKeys(op string, keys []string, maxKeyLength int) error {
	if len(keys) == 0 {
		return kverrors.New(kverrors.KindInvalidKey, op, "keys must not be empty", nil)
	}
	for _, k := range keys {
		if err := ValidateKey(op, k, maxKeyLength); err != nil {
			return err
		}
	}
	return nil
}

// ValidateCollection rejects an empty collection name. Callers normally
// substitute a default before this is reached; it exists to catch an
// explicit empty string passed after defaulting logic.
func ValidateCollection(op, collection string) error {
	if collection == "" {
		return kverrors.New(kverrors.KindInvalidKey, op, "collection must not be empty", nil)
	}
	return nil
}

// ValidatePutMany checks the parallel-list length invariant for PutMany
// (spec §4.2): len(keys) == len(values), and if ttls carries a per-entry
// list, its length must equal len(keys) too (surfaced via ttl.Resolve).
func ValidatePutMany(op string, keys []string, values []map[string]any) error {
	if len(keys) != len(values) {
		return kverrors.New(kverrors.KindInvalidKey, op, "keys and values length mismatch",
			map[string]any{"key_count": len(keys), "value_count": len(values)})
	}
	return nil
}
