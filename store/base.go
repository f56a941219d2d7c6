package store

import (
	"context"
	"sync"

	"github.com/maximhq/kvs/kverrors"
	"github.com/maximhq/kvs/managedentry"
	"github.com/maximhq/kvs/ttl"
)

// ManagedEntryStore is the narrower interface a concrete backend implements:
// single-key operations over ManagedEntry plus setup lifecycle hooks. Base
// builds the full Store contract (bulk fan-out, validation, expiration
// filtering) on top of this, matching spec §4.3's "every backend derives
// from a skeleton" description.
type ManagedEntryStore interface {
	// SetupOnce performs one-time backend initialization (open connections,
	// create tables/indexes). Called at most once, guarded by Base.
	SetupOnce(ctx context.Context) error
	// SetupCollectionOnce performs one-time per-collection initialization.
	// Called at most once per distinct collection name, guarded by Base.
	SetupCollectionOnce(ctx context.Context, collection string) error

	GetManagedEntry(ctx context.Context, collection, key string) (*managedentry.Entry, error)
	PutManagedEntry(ctx context.Context, collection, key string, entry *managedentry.Entry) error
	DeleteManagedEntry(ctx context.Context, collection, key string) (bool, error)
}

// Base is embedded by every reference backend. It supplies the setup-once
// latches, default-collection substitution, and default bulk fan-out that
// spec §4.3 requires, delegating single-key work to a ManagedEntryStore.
type Base struct {
	Backend          ManagedEntryStore
	DefaultCollection string
	MaxKeyLength     int

	setupOnce   sync.Once
	setupErr    error
	collMu      sync.Mutex
	collOnce    map[string]*sync.Once
	collErr     map[string]error
}

// NewBase wires a Base around a concrete backend implementation.
func NewBase(backend ManagedEntryStore, defaultCollection string, maxKeyLength int) *Base {
	if defaultCollection == "" {
		defaultCollection = DefaultCollection
	}
	if maxKeyLength <= 0 {
		maxKeyLength = DefaultMaxKeyLength
	}
	return &Base{
		Backend:          backend,
		DefaultCollection: defaultCollection,
		MaxKeyLength:     maxKeyLength,
		collOnce:         make(map[string]*sync.Once),
		collErr:          make(map[string]error),
	}
}

// ensureSetup runs Backend.SetupOnce exactly once. A failed setup is
// propagated to every caller but is never retried automatically (spec
// §4.3: "a failed setup is propagated and not retried automatically").
func (b *Base) ensureSetup(ctx context.Context) error {
	b.setupOnce.Do(func() {
		b.setupErr = b.Backend.SetupOnce(ctx)
	})
	return b.setupErr
}

// ensureCollection runs Backend.SetupCollectionOnce exactly once per
// collection name.
func (b *Base) ensureCollection(ctx context.Context, collection string) error {
	b.collMu.Lock()
	once, ok := b.collOnce[collection]
	if !ok {
		once = &sync.Once{}
		b.collOnce[collection] = once
	}
	b.collMu.Unlock()

	once.Do(func() {
		err := b.Backend.SetupCollectionOnce(ctx, collection)
		b.collMu.Lock()
		b.collErr[collection] = err
		b.collMu.Unlock()
	})

	b.collMu.Lock()
	err := b.collErr[collection]
	b.collMu.Unlock()
	return err
}

func (b *Base) resolveCollection(collection string) string {
	if collection == "" {
		return b.DefaultCollection
	}
	return collection
}

func (b *Base) prepare(ctx context.Context, op, collection string) (string, error) {
	if err := b.ensureSetup(ctx); err != nil {
		return "", kverrors.Wrap(kverrors.KindStoreSetup, op, "store setup failed", err, nil)
	}
	collection = b.resolveCollection(collection)
	if err := b.ensureCollection(ctx, collection); err != nil {
		return "", kverrors.Wrap(kverrors.KindStoreSetup, op, "collection setup failed", err, map[string]any{"collection": collection})
	}
	return collection, nil
}

// Get implements Store.Get via the backend's GetManagedEntry, filtering out
// expired entries (spec §4.3: "enforces the expiration check ... if the
// backend does not honor TTL natively").
func (b *Base) Get(ctx context.Context, key, collection string) (map[string]any, error) {
	const op = "get"
	if err := ValidateKey(op, key, b.MaxKeyLength); err != nil {
		return nil, err
	}
	collection, err := b.prepare(ctx, op, collection)
	if err != nil {
		return nil, err
	}
	entry, err := b.Backend.GetManagedEntry(ctx, collection, key)
	if err != nil {
		return nil, err
	}
	if entry == nil || entry.IsExpired() {
		return nil, nil
	}
	return entry.Value, nil
}

// GetMany is the default positional fan-out over Get (spec §4.3); backends
// with native batch reads override this on their own exported type, not
// here.
func (b *Base) GetMany(ctx context.Context, keys []string, collection string) ([]map[string]any, error) {
	const op = "get_many"
	if err := ValidateKeys(op, keys, b.MaxKeyLength); err != nil {
		return nil, err
	}
	out := make([]map[string]any, len(keys))
	for i, k := range keys {
		v, err := b.Get(ctx, k, collection)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// TTL implements Store.TTL.
func (b *Base) TTL(ctx context.Context, key, collection string) (TTLEntry, error) {
	const op = "ttl"
	if err := ValidateKey(op, key, b.MaxKeyLength); err != nil {
		return TTLEntry{}, err
	}
	collection, err := b.prepare(ctx, op, collection)
	if err != nil {
		return TTLEntry{}, err
	}
	entry, err := b.Backend.GetManagedEntry(ctx, collection, key)
	if err != nil {
		return TTLEntry{}, err
	}
	if entry == nil || entry.IsExpired() {
		return TTLEntry{}, nil
	}
	return TTLEntry{Value: entry.Value, Remaining: entry.RemainingTTL()}, nil
}

// TTLMany is the default positional fan-out over TTL.
func (b *Base) TTLMany(ctx context.Context, keys []string, collection string) ([]TTLEntry, error) {
	const op = "ttl_many"
	if err := ValidateKeys(op, keys, b.MaxKeyLength); err != nil {
		return nil, err
	}
	out := make([]TTLEntry, len(keys))
	for i, k := range keys {
		e, err := b.TTL(ctx, k, collection)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// Put implements Store.Put.
func (b *Base) Put(ctx context.Context, key string, value map[string]any, collection string, entryTTL *float64) error {
	const op = "put"
	if err := ValidateKey(op, key, b.MaxKeyLength); err != nil {
		return err
	}
	validatedTTL, err := ttl.Validate(op, entryTTL)
	if err != nil {
		return err
	}
	collection, err = b.prepare(ctx, op, collection)
	if err != nil {
		return err
	}
	entry := managedentry.New(value, nil, validatedTTL, nil)
	return b.Backend.PutManagedEntry(ctx, collection, key, entry)
}

// PutMany is the default positional fan-out over Put (spec §4.3). It is not
// atomic across keys: a failure on one key does not roll back prior keys
// (spec §5, "put_many is not atomic across keys").
func (b *Base) PutMany(ctx context.Context, keys []string, values []map[string]any, collection string, ttls ttl.Spec) error {
	const op = "put_many"
	if err := ValidatePutMany(op, keys, values); err != nil {
		return err
	}
	if err := ValidateKeys(op, keys, b.MaxKeyLength); err != nil {
		return err
	}
	resolved, err := ttl.Resolve(op, ttls, len(keys))
	if err != nil {
		return err
	}
	for i, k := range keys {
		if err := b.Put(ctx, k, values[i], collection, resolved[i]); err != nil {
			return err
		}
	}
	return nil
}

// Delete implements Store.Delete.
func (b *Base) Delete(ctx context.Context, key, collection string) (bool, error) {
	const op = "delete"
	if err := ValidateKey(op, key, b.MaxKeyLength); err != nil {
		return false, err
	}
	collection, err := b.prepare(ctx, op, collection)
	if err != nil {
		return false, err
	}
	return b.Backend.DeleteManagedEntry(ctx, collection, key)
}

// DeleteMany is the default positional fan-out over Delete, returning the
// count actually removed.
func (b *Base) DeleteMany(ctx context.Context, keys []string, collection string) (int, error) {
	const op = "delete_many"
	if err := ValidateKeys(op, keys, b.MaxKeyLength); err != nil {
		return 0, err
	}
	count := 0
	for _, k := range keys {
		existed, err := b.Delete(ctx, k, collection)
		if err != nil {
			return count, err
		}
		if existed {
			count++
		}
	}
	return count, nil
}
