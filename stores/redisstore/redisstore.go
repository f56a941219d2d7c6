// Package redisstore is the network-backend template's Redis/Valkey
// instantiation (spec §4.6), grounded on the legacy RedisStore in the
// original Python source (kv_store_adapter/stores/redis/store.go):
// compound(collection,key) flat keyspace, native TTL offload via SETEX, and
// SCAN-based enumeration. Uses github.com/redis/go-redis/v9, the client
// bifrost's plugins/redis module depends on.
package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/maximhq/kvs/compound"
	"github.com/maximhq/kvs/kverrors"
	"github.com/maximhq/kvs/managedentry"
	"github.com/maximhq/kvs/store"
)

// Config configures Backend.
type Config struct {
	Client            *redis.Client
	URL               string
	Addr              string
	Password          string
	DB                int
	DefaultCollection string
	MaxKeyLength      int
	CompoundSeparator string
}

type rawBackend struct {
	client    *redis.Client
	separator string
}

func (r *rawBackend) SetupOnce(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return kverrors.Wrap(kverrors.KindStoreConnection, "setup", "failed to connect to redis", err, nil)
	}
	return nil
}

func (r *rawBackend) SetupCollectionOnce(ctx context.Context, collection string) error {
	return nil
}

func (r *rawBackend) key(collection, key string) string {
	return compound.Key(collection, key, r.separator)
}

func (r *rawBackend) GetManagedEntry(ctx context.Context, collection, key string) (*managedentry.Entry, error) {
	v, err := r.client.Get(ctx, r.key(collection, key)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, kverrors.Wrap(kverrors.KindStoreConnection, "get", "redis get failed", err, nil)
	}
	entry, err := managedentry.LoadJSON(v)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// remainingTTLSeconds returns the duration to pass to Redis's native TTL
// when the backend's entry has an expiry. Redis rejects TTLs <= 0, so a
// remaining TTL that rounded down to zero is bumped to 1 second, matching
// the original source's `ttl = max(int(ttl), 1)` clamp.
func remainingTTLSeconds(entry *managedentry.Entry) time.Duration {
	remaining := entry.RemainingTTL()
	if remaining == nil {
		return 0
	}
	seconds := int64(*remaining)
	if seconds < 1 {
		seconds = 1
	}
	return time.Duration(seconds) * time.Second
}

func (r *rawBackend) PutManagedEntry(ctx context.Context, collection, key string, entry *managedentry.Entry) error {
	payload, err := managedentry.DumpJSON(entry)
	if err != nil {
		return err
	}
	combo := r.key(collection, key)

	if entry.ExpiresAt != nil {
		if err := r.client.SetEx(ctx, combo, payload, remainingTTLSeconds(entry)).Err(); err != nil {
			return kverrors.Wrap(kverrors.KindStoreConnection, "put", "redis setex failed", err, nil)
		}
		return nil
	}
	if err := r.client.Set(ctx, combo, payload, 0).Err(); err != nil {
		return kverrors.Wrap(kverrors.KindStoreConnection, "put", "redis set failed", err, nil)
	}
	return nil
}

func (r *rawBackend) DeleteManagedEntry(ctx context.Context, collection, key string) (bool, error) {
	n, err := r.client.Del(ctx, r.key(collection, key)).Result()
	if err != nil {
		return false, kverrors.Wrap(kverrors.KindStoreConnection, "delete", "redis del failed", err, nil)
	}
	return n != 0, nil
}

// Backend is the go-redis-backed network reference backend.
type Backend struct {
	*store.Base
	raw *rawBackend
}

// New builds a Backend from Config. Exactly one of Client/URL/Addr should be
// provided; Client takes priority, then URL, then Addr/Password/DB.
func New(cfg Config) (*Backend, error) {
	client := cfg.Client
	if client == nil {
		if cfg.URL != "" {
			opts, err := redis.ParseURL(cfg.URL)
			if err != nil {
				return nil, kverrors.Wrap(kverrors.KindConfiguration, "new", "invalid redis url", err, nil)
			}
			client = redis.NewClient(opts)
		} else {
			addr := cfg.Addr
			if addr == "" {
				addr = "localhost:6379"
			}
			client = redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Password, DB: cfg.DB})
		}
	}

	separator := cfg.CompoundSeparator
	if separator == "" {
		separator = compound.DefaultCompoundSeparator
	}

	raw := &rawBackend{client: client, separator: separator}
	b := store.NewBase(raw, cfg.DefaultCollection, cfg.MaxKeyLength)
	return &Backend{Base: b, raw: raw}, nil
}

// Close closes the underlying redis client.
func (b *Backend) Close() error {
	return b.raw.client.Close()
}

// EnumerateKeys lists up to limit keys within collection via SCAN.
func (b *Backend) EnumerateKeys(ctx context.Context, collection string, limit int) ([]string, error) {
	if collection == "" {
		collection = b.DefaultCollection
	}
	pattern := compound.Key(collection, "*", b.raw.separator)

	var out []string
	iter := b.raw.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		_, key, ok := compound.Uncompound(iter.Val(), b.raw.separator)
		if !ok {
			continue
		}
		out = append(out, key)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	if err := iter.Err(); err != nil {
		return nil, kverrors.Wrap(kverrors.KindStoreConnection, "enumerate_keys", "redis scan failed", err, nil)
	}
	return out, nil
}

// EnumerateCollections lists up to limit distinct collection names observed
// across all compound keys via SCAN.
func (b *Backend) EnumerateCollections(ctx context.Context, limit int) ([]string, error) {
	pattern := compound.Key("*", "*", b.raw.separator)

	seen := make(map[string]bool)
	var out []string
	iter := b.raw.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		coll, _, ok := compound.Uncompound(iter.Val(), b.raw.separator)
		if !ok || seen[coll] {
			continue
		}
		seen[coll] = true
		out = append(out, coll)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	if err := iter.Err(); err != nil {
		return nil, kverrors.Wrap(kverrors.KindStoreConnection, "enumerate_collections", "redis scan failed", err, nil)
	}
	return out, nil
}

// DestroyCollection deletes every key within collection.
func (b *Backend) DestroyCollection(ctx context.Context, collection string) error {
	pattern := compound.Key(collection, "*", b.raw.separator)
	iter := b.raw.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := b.raw.client.Del(ctx, iter.Val()).Err(); err != nil {
			return kverrors.Wrap(kverrors.KindStoreConnection, "destroy_collection", "redis del failed", err, nil)
		}
	}
	return iter.Err()
}

var (
	_ store.Store                = (*Backend)(nil)
	_ store.KeyEnumerator        = (*Backend)(nil)
	_ store.CollectionEnumerator = (*Backend)(nil)
	_ store.CollectionDestroyer  = (*Backend)(nil)
)
