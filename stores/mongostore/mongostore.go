// Package mongostore is the MongoDB instantiation of the network backend
// template (spec §4.6), grounded on the original source's MongoStore: one
// document per entry with {collection, key, value, created_at, expires_at},
// a unique compound index on (collection, key), and a TTL index on
// expires_at for server-side expiration. Uses go.mongodb.org/mongo-driver,
// the driver bifrost's own dependency surface already pulls in.
package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/maximhq/kvs/kverrors"
	"github.com/maximhq/kvs/managedentry"
	"github.com/maximhq/kvs/store"
)

// Config configures Backend.
type Config struct {
	Client            *mongo.Client
	URI               string
	Database          string
	Collection        string
	DefaultCollection string
	MaxKeyLength      int
}

type document struct {
	Collection string         `bson:"collection"`
	Key        string         `bson:"key"`
	Value      map[string]any `bson:"value"`
	CreatedAt  *time.Time     `bson:"created_at,omitempty"`
	ExpiresAt  *time.Time     `bson:"expires_at,omitempty"`
}

type rawBackend struct {
	client *mongo.Client
	owns   bool
	coll   *mongo.Collection
}

func (r *rawBackend) SetupOnce(ctx context.Context) error {
	if err := r.client.Ping(ctx, nil); err != nil {
		return kverrors.Wrap(kverrors.KindStoreConnection, "setup", "failed to connect to mongodb", err, nil)
	}

	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "collection", Value: 1}, {Key: "key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	})
	if err != nil {
		return kverrors.Wrap(kverrors.KindStoreSetup, "setup", "failed to create indexes", err, nil)
	}
	return nil
}

func (r *rawBackend) SetupCollectionOnce(ctx context.Context, collection string) error {
	return nil
}

func (r *rawBackend) GetManagedEntry(ctx context.Context, collection, key string) (*managedentry.Entry, error) {
	var doc document
	err := r.coll.FindOne(ctx, bson.M{"collection": collection, "key": key}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, kverrors.Wrap(kverrors.KindStoreConnection, "get", "mongo find_one failed", err, nil)
	}
	return managedentry.New(doc.Value, doc.CreatedAt, nil, doc.ExpiresAt), nil
}

func (r *rawBackend) PutManagedEntry(ctx context.Context, collection, key string, entry *managedentry.Entry) error {
	doc := document{
		Collection: collection,
		Key:        key,
		Value:      entry.Value,
		CreatedAt:  entry.CreatedAt,
		ExpiresAt:  entry.ExpiresAt,
	}
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"collection": collection, "key": key},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return kverrors.Wrap(kverrors.KindStoreConnection, "put", "mongo upsert failed", err, nil)
	}
	return nil
}

func (r *rawBackend) DeleteManagedEntry(ctx context.Context, collection, key string) (bool, error) {
	result, err := r.coll.DeleteOne(ctx, bson.M{"collection": collection, "key": key})
	if err != nil {
		return false, kverrors.Wrap(kverrors.KindStoreConnection, "delete", "mongo delete_one failed", err, nil)
	}
	return result.DeletedCount > 0, nil
}

// Backend is the mongo-driver-backed network reference backend.
type Backend struct {
	*store.Base
	raw *rawBackend
}

// New connects to (or adopts) a MongoDB client per Config.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	client := cfg.Client
	owns := false
	if client == nil {
		uri := cfg.URI
		if uri == "" {
			uri = "mongodb://localhost:27017"
		}
		opened, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			return nil, kverrors.Wrap(kverrors.KindStoreConnection, "new", "failed to connect to mongodb", err, nil)
		}
		client = opened
		owns = true
	}

	database := cfg.Database
	if database == "" {
		database = "kvstore"
	}
	collectionName := cfg.Collection
	if collectionName == "" {
		collectionName = "entries"
	}

	raw := &rawBackend{client: client, owns: owns, coll: client.Database(database).Collection(collectionName)}
	b := store.NewBase(raw, cfg.DefaultCollection, cfg.MaxKeyLength)
	return &Backend{Base: b, raw: raw}, nil
}

// Close disconnects the underlying mongo client iff this Backend opened it.
func (b *Backend) Close(ctx context.Context) error {
	if !b.raw.owns {
		return nil
	}
	return b.raw.client.Disconnect(ctx)
}

// EnumerateKeys lists up to limit keys within collection.
func (b *Backend) EnumerateKeys(ctx context.Context, collection string, limit int) ([]string, error) {
	if collection == "" {
		collection = b.DefaultCollection
	}
	findOpts := options.Find().SetProjection(bson.M{"key": 1})
	if limit > 0 {
		findOpts = findOpts.SetLimit(int64(limit))
	}
	cur, err := b.raw.coll.Find(ctx, bson.M{"collection": collection}, findOpts)
	if err != nil {
		return nil, kverrors.Wrap(kverrors.KindStoreConnection, "enumerate_keys", "mongo find failed", err, nil)
	}
	defer cur.Close(ctx)

	var keys []string
	for cur.Next(ctx) {
		var doc struct {
			Key string `bson:"key"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, kverrors.Wrap(kverrors.KindDeserialization, "enumerate_keys", "mongo decode failed", err, nil)
		}
		keys = append(keys, doc.Key)
	}
	return keys, nil
}

// EnumerateCollections lists up to limit distinct collection names.
func (b *Backend) EnumerateCollections(ctx context.Context, limit int) ([]string, error) {
	raw, err := b.raw.coll.Distinct(ctx, "collection", bson.M{})
	if err != nil {
		return nil, kverrors.Wrap(kverrors.KindStoreConnection, "enumerate_collections", "mongo distinct failed", err, nil)
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// DestroyCollection deletes every document within collection.
func (b *Backend) DestroyCollection(ctx context.Context, collection string) error {
	_, err := b.raw.coll.DeleteMany(ctx, bson.M{"collection": collection})
	if err != nil {
		return kverrors.Wrap(kverrors.KindStoreConnection, "destroy_collection", "mongo delete_many failed", err, nil)
	}
	return nil
}

// DestroyStore deletes every document the backend owns.
func (b *Backend) DestroyStore(ctx context.Context) error {
	_, err := b.raw.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return kverrors.Wrap(kverrors.KindStoreConnection, "destroy_store", "mongo delete_many failed", err, nil)
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
