// Package sqlstore is the SQL-backed instantiation of the network backend
// template (spec §4.6), grounded on bifrost's framework/configstore: a
// gorm.DB opened with the requested driver, AutoMigrate standing in for
// configstore's own triggerMigrations, and a single flat table keyed by
// (collection, key) rather than configstore's many domain tables.
package sqlstore

import (
	"context"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/maximhq/kvs/kverrors"
	"github.com/maximhq/kvs/managedentry"
	"github.com/maximhq/kvs/store"
)

// Driver selects the gorm dialect Backend opens.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// TableEntry is the one flat table every sqlstore Backend uses, grounded on
// configstore's tables.TableKey shape (explicit gorm tags, indexed columns).
type TableEntry struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	Collection string    `gorm:"type:varchar(255);uniqueIndex:idx_collection_key;not null"`
	Key        string    `gorm:"type:varchar(1024);uniqueIndex:idx_collection_key;not null"`
	Value      string    `gorm:"type:text;not null"` // managedentry wire JSON
	CreatedAt  time.Time `gorm:"index;not null"`
	UpdatedAt  time.Time `gorm:"index;not null"`
}

func (TableEntry) TableName() string { return "kvs_entries" }

// Config configures Backend.
type Config struct {
	Driver            Driver
	DSN               string
	DB                *gorm.DB
	DefaultCollection string
	MaxKeyLength      int
}

type rawBackend struct {
	db *gorm.DB
}

func (r *rawBackend) SetupOnce(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&TableEntry{}); err != nil {
		return kverrors.Wrap(kverrors.KindStoreSetup, "setup", "automigrate failed", err, nil)
	}
	return nil
}

func (r *rawBackend) SetupCollectionOnce(ctx context.Context, collection string) error {
	return nil
}

func (r *rawBackend) GetManagedEntry(ctx context.Context, collection, key string) (*managedentry.Entry, error) {
	var row TableEntry
	err := r.db.WithContext(ctx).
		Where("collection = ? AND key = ?", collection, key).
		First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, kverrors.Wrap(kverrors.KindStoreConnection, "get", "sql select failed", err, nil)
	}
	return managedentry.LoadJSON(row.Value)
}

func (r *rawBackend) PutManagedEntry(ctx context.Context, collection, key string, entry *managedentry.Entry) error {
	payload, err := managedentry.DumpJSON(entry)
	if err != nil {
		return err
	}
	row := TableEntry{Collection: collection, Key: key, Value: payload}
	err = r.db.WithContext(ctx).
		Where("collection = ? AND key = ?", collection, key).
		Assign(TableEntry{Value: payload}).
		FirstOrCreate(&row).Error
	if err != nil {
		return kverrors.Wrap(kverrors.KindStoreConnection, "put", "sql upsert failed", err, nil)
	}
	return nil
}

func (r *rawBackend) DeleteManagedEntry(ctx context.Context, collection, key string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("collection = ? AND key = ?", collection, key).
		Delete(&TableEntry{})
	if result.Error != nil {
		return false, kverrors.Wrap(kverrors.KindStoreConnection, "delete", "sql delete failed", result.Error, nil)
	}
	return result.RowsAffected > 0, nil
}

// Backend is the gorm-backed SQL reference backend, usable with Postgres or
// SQLite.
type Backend struct {
	*store.Base
	raw *rawBackend
}

// New opens (or adopts) a gorm.DB per Config.
func New(cfg Config) (*Backend, error) {
	db := cfg.DB
	if db == nil {
		var dialector gorm.Dialector
		switch cfg.Driver {
		case DriverPostgres:
			dialector = postgres.Open(cfg.DSN)
		case DriverSQLite, "":
			dsn := cfg.DSN
			if dsn == "" {
				dsn = "file::memory:?cache=shared"
			}
			dialector = sqlite.Open(dsn)
		default:
			return nil, kverrors.New(kverrors.KindConfiguration, "new", "unknown sql driver", map[string]any{"driver": cfg.Driver})
		}
		opened, err := gorm.Open(dialector, &gorm.Config{})
		if err != nil {
			return nil, kverrors.Wrap(kverrors.KindStoreConnection, "new", "failed to open sql database", err, nil)
		}
		db = opened
	}

	raw := &rawBackend{db: db}
	b := store.NewBase(raw, cfg.DefaultCollection, cfg.MaxKeyLength)
	return &Backend{Base: b, raw: raw}, nil
}

// EnumerateKeys lists up to limit keys within collection.
func (b *Backend) EnumerateKeys(ctx context.Context, collection string, limit int) ([]string, error) {
	if collection == "" {
		collection = b.DefaultCollection
	}
	query := b.raw.db.WithContext(ctx).Model(&TableEntry{}).Where("collection = ?", collection)
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []TableEntry
	if err := query.Find(&rows).Error; err != nil {
		return nil, kverrors.Wrap(kverrors.KindStoreConnection, "enumerate_keys", "sql select failed", err, nil)
	}
	keys := make([]string, 0, len(rows))
	for _, r := range rows {
		entry, err := managedentry.LoadJSON(r.Value)
		if err == nil && entry.IsExpired() {
			continue
		}
		keys = append(keys, r.Key)
	}
	return keys, nil
}

// EnumerateCollections lists up to limit distinct collection names.
func (b *Backend) EnumerateCollections(ctx context.Context, limit int) ([]string, error) {
	query := b.raw.db.WithContext(ctx).Model(&TableEntry{}).Distinct("collection")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var names []string
	if err := query.Pluck("collection", &names).Error; err != nil {
		return nil, kverrors.Wrap(kverrors.KindStoreConnection, "enumerate_collections", "sql select failed", err, nil)
	}
	return names, nil
}

// DestroyCollection deletes every row within collection.
func (b *Backend) DestroyCollection(ctx context.Context, collection string) error {
	err := b.raw.db.WithContext(ctx).Where("collection = ?", collection).Delete(&TableEntry{}).Error
	if err != nil {
		return kverrors.Wrap(kverrors.KindStoreConnection, "destroy_collection", "sql delete failed", err, nil)
	}
	return nil
}

// DestroyStore truncates the entire table.
func (b *Backend) DestroyStore(ctx context.Context) error {
	err := b.raw.db.WithContext(ctx).Where("1 = 1").Delete(&TableEntry{}).Error
	if err != nil {
		return kverrors.Wrap(kverrors.KindStoreConnection, "destroy_store", "sql delete failed", err, nil)
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
