// Package diskstore is the local-disk reference backend (spec §4.5),
// backed by go.etcd.io/bbolt: one bucket per collection, keyed by the raw
// key string, valued by the managedentry wire JSON. It is grounded on
// cuemby-warren's pkg/storage.BoltStore — db.Update/db.View transactions
// around CreateBucketIfNotExists, the same shape — generalized from
// warren's many fixed per-entity buckets to one bucket per collection
// created lazily, plus TTL-aware reads since bbolt has no native
// expiration.
package diskstore

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	bolt "go.etcd.io/bbolt"

	"github.com/maximhq/kvs/kverrors"
	"github.com/maximhq/kvs/managedentry"
	"github.com/maximhq/kvs/store"
)

// Config configures Backend.
type Config struct {
	// Path is the bbolt file path. Required unless Handle is supplied.
	Path string
	// Handle lets a caller supply an already-open *bolt.DB; the backend
	// leaves it open at teardown instead of closing it (spec §4.5: "a
	// caller-supplied handle is left open at teardown").
	Handle *bolt.DB
	// CreateDir controls whether the parent directory of Path is created if
	// absent. When false and the directory is missing, New fails with a
	// configuration error (spec §4.5).
	CreateDir         bool
	DefaultCollection string
	MaxKeyLength      int
}

type rawBackend struct {
	db       *bolt.DB
	ownsConn bool

	mu      sync.Mutex
	buckets map[string]bool
}

func (r *rawBackend) SetupOnce(ctx context.Context) error {
	return nil
}

func (r *rawBackend) SetupCollectionOnce(ctx context.Context, collection string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.buckets[collection] {
		return nil
	}
	err := r.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(collection))
		return err
	})
	if err != nil {
		return kverrors.Wrap(kverrors.KindStoreSetup, "setup_collection", "failed to create bucket", err, map[string]any{"collection": collection})
	}
	r.buckets[collection] = true
	return nil
}

func (r *rawBackend) GetManagedEntry(ctx context.Context, collection, key string) (*managedentry.Entry, error) {
	var raw []byte
	err := r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		v := b.Get([]byte(key))
		if v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, kverrors.Wrap(kverrors.KindStoreConnection, "get", "bolt view failed", err, nil)
	}
	if raw == nil {
		return nil, nil
	}
	entry, err := managedentry.LoadJSON(string(raw))
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *rawBackend) PutManagedEntry(ctx context.Context, collection, key string, entry *managedentry.Entry) error {
	payload, err := managedentry.DumpJSON(entry)
	if err != nil {
		return err
	}
	err = r.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(collection))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), []byte(payload))
	})
	if err != nil {
		return kverrors.Wrap(kverrors.KindStoreConnection, "put", "bolt update failed", err, nil)
	}
	return nil
}

func (r *rawBackend) DeleteManagedEntry(ctx context.Context, collection, key string) (bool, error) {
	existed := false
	err := r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(collection))
		if b == nil {
			return nil
		}
		existed = b.Get([]byte(key)) != nil
		if existed {
			return b.Delete([]byte(key))
		}
		return nil
	})
	if err != nil {
		return false, kverrors.Wrap(kverrors.KindStoreConnection, "delete", "bolt update failed", err, nil)
	}
	return existed, nil
}

// Backend is the bbolt-backed local disk reference backend.
type Backend struct {
	*store.Base
	raw *rawBackend
}

// New opens (or adopts) a bbolt database per Config.
func New(cfg Config) (*Backend, error) {
	db := cfg.Handle
	owns := false

	if db == nil {
		dir := filepath.Dir(cfg.Path)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if !cfg.CreateDir {
				return nil, kverrors.New(kverrors.KindConfiguration, "new", "directory does not exist and CreateDir is false", map[string]any{"dir": dir})
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, kverrors.Wrap(kverrors.KindConfiguration, "new", "failed to create directory", err, map[string]any{"dir": dir})
			}
		}
		opened, err := bolt.Open(cfg.Path, 0o600, nil)
		if err != nil {
			return nil, kverrors.Wrap(kverrors.KindStoreConnection, "new", "failed to open bolt database", err, map[string]any{"path": cfg.Path})
		}
		db = opened
		owns = true
	}

	raw := &rawBackend{db: db, ownsConn: owns, buckets: make(map[string]bool)}
	b := store.NewBase(raw, cfg.DefaultCollection, cfg.MaxKeyLength)
	return &Backend{Base: b, raw: raw}, nil
}

// Close closes the underlying bbolt handle iff this Backend opened it.
func (b *Backend) Close() error {
	if !b.raw.ownsConn {
		return nil
	}
	return b.raw.db.Close()
}

// EnumerateKeys lists up to limit keys in collection.
func (b *Backend) EnumerateKeys(ctx context.Context, collection string, limit int) ([]string, error) {
	if collection == "" {
		collection = b.DefaultCollection
	}
	var keys []string
	err := b.raw.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(collection))
		if bk == nil {
			return nil
		}
		c := bk.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if limit > 0 && len(keys) >= limit {
				break
			}
			entry, err := managedentry.LoadJSON(string(v))
			if err == nil && entry.IsExpired() {
				continue
			}
			keys = append(keys, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, kverrors.Wrap(kverrors.KindStoreConnection, "enumerate_keys", "bolt view failed", err, nil)
	}
	return keys, nil
}

// EnumerateCollections lists up to limit bucket (collection) names.
func (b *Backend) EnumerateCollections(ctx context.Context, limit int) ([]string, error) {
	var names []string
	err := b.raw.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			if limit > 0 && len(names) >= limit {
				return nil
			}
			names = append(names, string(name))
			return nil
		})
	})
	if err != nil {
		return nil, kverrors.Wrap(kverrors.KindStoreConnection, "enumerate_collections", "bolt view failed", err, nil)
	}
	return names, nil
}

// DestroyCollection drops the bucket backing collection.
func (b *Backend) DestroyCollection(ctx context.Context, collection string) error {
	err := b.raw.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(collection)) == nil {
			return nil
		}
		return tx.DeleteBucket([]byte(collection))
	})
	if err != nil {
		return kverrors.Wrap(kverrors.KindStoreConnection, "destroy_collection", "bolt update failed", err, nil)
	}
	b.raw.mu.Lock()
	delete(b.raw.buckets, collection)
	b.raw.mu.Unlock()
	return nil
}

// DestroyStore drops every bucket.
func (b *Backend) DestroyStore(ctx context.Context) error {
	names, err := b.EnumerateCollections(ctx, 0)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := b.DestroyCollection(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

var (
	_ store.Store                = (*Backend)(nil)
	_ store.KeyEnumerator        = (*Backend)(nil)
	_ store.CollectionEnumerator = (*Backend)(nil)
	_ store.CollectionDestroyer  = (*Backend)(nil)
	_ store.StoreDestroyer       = (*Backend)(nil)
)
