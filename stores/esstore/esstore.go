// Package esstore is the Elasticsearch instantiation of the network backend
// template (spec §4.6): one index per collection, one document per key,
// identified by _id=key, with the managedentry wire JSON stored as the
// document's single entry_json field. Elasticsearch has no native
// per-document TTL, so expiration is enforced client-side like the disk and
// SQL backends. Uses github.com/elastic/go-elasticsearch/v8; response-body
// decoding follows the defensive nested-map unwrapping style of the
// original source's elasticsearch/utils.go (check type, fall back to
// empty/zero rather than panic on an unexpected shape).
package esstore

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/maximhq/kvs/kverrors"
	"github.com/maximhq/kvs/managedentry"
	"github.com/maximhq/kvs/store"
)

// Config configures Backend.
type Config struct {
	Client            *elasticsearch.Client
	Addresses         []string
	IndexPrefix       string
	DefaultCollection string
	MaxKeyLength      int
}

type document struct {
	EntryJSON string `json:"entry_json"`
}

type rawBackend struct {
	client      *elasticsearch.Client
	indexPrefix string
}

func (r *rawBackend) indexName(collection string) string {
	return r.indexPrefix + collection
}

func (r *rawBackend) SetupOnce(ctx context.Context) error {
	res, err := r.client.Info(r.client.Info.WithContext(ctx))
	if err != nil {
		return kverrors.Wrap(kverrors.KindStoreConnection, "setup", "failed to reach elasticsearch", err, nil)
	}
	defer res.Body.Close()
	if res.IsError() {
		return kverrors.New(kverrors.KindStoreConnection, "setup", "elasticsearch info returned an error status", map[string]any{"status": res.Status()})
	}
	return nil
}

func (r *rawBackend) SetupCollectionOnce(ctx context.Context, collection string) error {
	res, err := r.client.Indices.Create(r.indexName(collection), r.client.Indices.Create.WithContext(ctx))
	if err != nil {
		return kverrors.Wrap(kverrors.KindStoreSetup, "setup_collection", "failed to create index", err, map[string]any{"collection": collection})
	}
	defer res.Body.Close()
	// A 400 "resource_already_exists_exception" is expected on repeat setup
	// after a process restart; only surface genuine failures.
	if res.IsError() && res.StatusCode != 400 {
		return kverrors.New(kverrors.KindStoreSetup, "setup_collection", "elasticsearch index creation failed", map[string]any{"collection": collection, "status": res.Status()})
	}
	return nil
}

func bodyToMap(body []byte) map[string]any {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return map[string]any{}
	}
	return m
}

func (r *rawBackend) GetManagedEntry(ctx context.Context, collection, key string) (*managedentry.Entry, error) {
	res, err := r.client.Get(r.indexName(collection), key, r.client.Get.WithContext(ctx))
	if err != nil {
		return nil, kverrors.Wrap(kverrors.KindStoreConnection, "get", "elasticsearch get failed", err, nil)
	}
	defer res.Body.Close()
	if res.StatusCode == 404 {
		return nil, nil
	}
	if res.IsError() {
		return nil, kverrors.New(kverrors.KindStoreConnection, "get", "elasticsearch get returned an error status", map[string]any{"status": res.Status()})
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(res.Body); err != nil {
		return nil, kverrors.Wrap(kverrors.KindDeserialization, "get", "failed to read elasticsearch response body", err, nil)
	}
	body := bodyToMap(buf.Bytes())
	source, _ := body["_source"].(map[string]any)
	entryJSON, _ := source["entry_json"].(string)
	if entryJSON == "" {
		return nil, nil
	}
	return managedentry.LoadJSON(entryJSON)
}

func (r *rawBackend) PutManagedEntry(ctx context.Context, collection, key string, entry *managedentry.Entry) error {
	payload, err := managedentry.DumpJSON(entry)
	if err != nil {
		return err
	}
	doc, err := json.Marshal(document{EntryJSON: payload})
	if err != nil {
		return kverrors.Wrap(kverrors.KindSerialization, "put", "failed to marshal document", err, nil)
	}

	req := esapi.IndexRequest{
		Index:      r.indexName(collection),
		DocumentID: key,
		Body:       bytes.NewReader(doc),
		Refresh:    "false",
	}
	res, err := req.Do(ctx, r.client)
	if err != nil {
		return kverrors.Wrap(kverrors.KindStoreConnection, "put", "elasticsearch index failed", err, nil)
	}
	defer res.Body.Close()
	if res.IsError() {
		return kverrors.New(kverrors.KindStoreConnection, "put", "elasticsearch index returned an error status", map[string]any{"status": res.Status()})
	}
	return nil
}

func (r *rawBackend) DeleteManagedEntry(ctx context.Context, collection, key string) (bool, error) {
	res, err := r.client.Delete(r.indexName(collection), key, r.client.Delete.WithContext(ctx))
	if err != nil {
		return false, kverrors.Wrap(kverrors.KindStoreConnection, "delete", "elasticsearch delete failed", err, nil)
	}
	defer res.Body.Close()
	if res.StatusCode == 404 {
		return false, nil
	}
	if res.IsError() {
		return false, kverrors.New(kverrors.KindStoreConnection, "delete", "elasticsearch delete returned an error status", map[string]any{"status": res.Status()})
	}
	return true, nil
}

// Backend is the go-elasticsearch-backed network reference backend.
type Backend struct {
	*store.Base
	raw *rawBackend
}

// New builds a Backend from Config.
func New(cfg Config) (*Backend, error) {
	client := cfg.Client
	if client == nil {
		addresses := cfg.Addresses
		if len(addresses) == 0 {
			addresses = []string{"http://localhost:9200"}
		}
		opened, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
		if err != nil {
			return nil, kverrors.Wrap(kverrors.KindStoreConnection, "new", "failed to build elasticsearch client", err, nil)
		}
		client = opened
	}

	prefix := cfg.IndexPrefix
	if prefix == "" {
		prefix = "kvs-"
	}
	prefix = strings.ToLower(prefix)

	raw := &rawBackend{client: client, indexPrefix: prefix}
	b := store.NewBase(raw, cfg.DefaultCollection, cfg.MaxKeyLength)
	return &Backend{Base: b, raw: raw}, nil
}

// DestroyCollection deletes the index backing collection.
func (b *Backend) DestroyCollection(ctx context.Context, collection string) error {
	res, err := b.raw.client.Indices.Delete([]string{b.raw.indexName(collection)}, b.raw.client.Indices.Delete.WithContext(ctx))
	if err != nil {
		return kverrors.Wrap(kverrors.KindStoreConnection, "destroy_collection", "elasticsearch index delete failed", err, nil)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return kverrors.New(kverrors.KindStoreConnection, "destroy_collection", "elasticsearch index delete returned an error status", map[string]any{"status": res.Status()})
	}
	return nil
}

var (
	_ store.Store               = (*Backend)(nil)
	_ store.CollectionDestroyer = (*Backend)(nil)
)
