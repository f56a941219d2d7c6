// Package memory implements the in-memory TLRU (time-aware least-recently-
// used) reference backend: per-collection bounded caches that evict the
// least-recently-used non-expired entry once capacity is exceeded, exactly
// as spec §4.4 describes. It is grounded on bifrost's
// framework/kvstore.Store — same sync.RWMutex-guarded map shape —
// generalized from one flat keyspace to many named, independently-bounded
// collections with LRU eviction added. There is no background cleanup loop:
// expired entries are dropped when a read or an eviction reaches them.
package memory

import (
	"container/list"
	"context"
	"sync"

	"github.com/maximhq/kvs/managedentry"
	"github.com/maximhq/kvs/store"
)

// DefaultMaxEntriesPerCollection bounds each collection's size unless the
// Config overrides it.
const DefaultMaxEntriesPerCollection = 10000

// DefaultEnumerationLimit caps EnumerateKeys/EnumerateCollections when the
// caller passes limit <= 0.
const DefaultEnumerationLimit = 10000

// Config configures Backend.
type Config struct {
	DefaultCollection      string
	MaxKeyLength           int
	MaxEntriesPerCollection int
	// Seed pre-populates collections at construction, mapping
	// collection -> key -> value, matching spec §4.4's "may be seeded at
	// construction" allowance.
	Seed map[string]map[string]map[string]any
}

type cacheItem struct {
	key   string
	entry *managedentry.Entry
}

// collection is one bounded, independently-locked TLRU cache.
type collection struct {
	mu       sync.Mutex
	maxSize  int
	elements map[string]*list.Element
	order    *list.List // front = most recently used
}

func newCollection(maxSize int) *collection {
	return &collection{
		maxSize:  maxSize,
		elements: make(map[string]*list.Element),
		order:    list.New(),
	}
}

func (c *collection) get(key string) *managedentry.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.elements[key]
	if !ok {
		return nil
	}
	item := el.Value.(*cacheItem)
	if item.entry.IsExpired() {
		c.order.Remove(el)
		delete(c.elements, key)
		return nil
	}
	c.order.MoveToFront(el)
	return item.entry
}

func (c *collection) put(key string, entry *managedentry.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.elements[key]; ok {
		el.Value.(*cacheItem).entry = entry
		c.order.MoveToFront(el)
		return
	}

	el := c.order.PushFront(&cacheItem{key: key, entry: entry})
	c.elements[key] = el

	for len(c.elements) > c.maxSize && c.maxSize > 0 {
		c.evictOldest()
	}
}

// evictOldest drops the least-recently-used non-expired entry, preferring
// to drop any already-expired entry first if one exists in the back of the
// list.
func (c *collection) evictOldest() {
	for el := c.order.Back(); el != nil; el = el.Prev() {
		item := el.Value.(*cacheItem)
		if item.entry.IsExpired() {
			c.order.Remove(el)
			delete(c.elements, item.key)
			return
		}
	}
	back := c.order.Back()
	if back == nil {
		return
	}
	item := back.Value.(*cacheItem)
	c.order.Remove(back)
	delete(c.elements, item.key)
}

func (c *collection) delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.elements[key]
	if !ok {
		return false
	}
	c.order.Remove(el)
	delete(c.elements, key)
	return true
}

func (c *collection) keys(limit int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if limit <= 0 {
		limit = DefaultEnumerationLimit
	}
	out := make([]string, 0, len(c.elements))
	for el := c.order.Front(); el != nil && len(out) < limit; el = el.Next() {
		item := el.Value.(*cacheItem)
		if item.entry.IsExpired() {
			continue
		}
		out = append(out, item.key)
	}
	return out
}

// rawBackend implements store.ManagedEntryStore; Backend embeds store.Base
// around it to get the full Store contract (bulk fan-out, validation).
type rawBackend struct {
	mu          sync.RWMutex
	collections map[string]*collection
	maxSize     int
	seed        map[string]map[string]map[string]any
}

func (r *rawBackend) SetupOnce(ctx context.Context) error {
	return nil
}

func (r *rawBackend) SetupCollectionOnce(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.collections[name]; ok {
		return nil
	}
	c := newCollection(r.maxSize)
	r.collections[name] = c
	if seeded, ok := r.seed[name]; ok {
		for k, v := range seeded {
			c.put(k, managedentry.New(v, nil, nil, nil))
		}
	}
	return nil
}

func (r *rawBackend) getCollection(name string) *collection {
	r.mu.RLock()
	c := r.collections[name]
	r.mu.RUnlock()
	return c
}

func (r *rawBackend) GetManagedEntry(ctx context.Context, collectionName, key string) (*managedentry.Entry, error) {
	c := r.getCollection(collectionName)
	if c == nil {
		return nil, nil
	}
	return c.get(key), nil
}

func (r *rawBackend) PutManagedEntry(ctx context.Context, collectionName, key string, entry *managedentry.Entry) error {
	c := r.getCollection(collectionName)
	if c == nil {
		return nil
	}
	c.put(key, entry)
	return nil
}

func (r *rawBackend) DeleteManagedEntry(ctx context.Context, collectionName, key string) (bool, error) {
	c := r.getCollection(collectionName)
	if c == nil {
		return false, nil
	}
	return c.delete(key), nil
}

// Backend is the in-memory TLRU reference backend.
type Backend struct {
	*store.Base
	raw *rawBackend
}

// New constructs an in-memory Backend per Config.
func New(cfg Config) *Backend {
	maxSize := cfg.MaxEntriesPerCollection
	if maxSize <= 0 {
		maxSize = DefaultMaxEntriesPerCollection
	}
	raw := &rawBackend{
		collections: make(map[string]*collection),
		maxSize:     maxSize,
		seed:        cfg.Seed,
	}
	b := store.NewBase(raw, cfg.DefaultCollection, cfg.MaxKeyLength)
	return &Backend{Base: b, raw: raw}
}

// EnumerateKeys lists up to limit non-expired keys in collection, in
// arbitrary (most-recently-used-first) order per spec §4.4.
func (b *Backend) EnumerateKeys(ctx context.Context, collectionName string, limit int) ([]string, error) {
	if collectionName == "" {
		collectionName = b.DefaultCollection
	}
	c := b.raw.getCollection(collectionName)
	if c == nil {
		return nil, nil
	}
	return c.keys(limit), nil
}

// EnumerateCollections lists up to limit collection names.
func (b *Backend) EnumerateCollections(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = DefaultEnumerationLimit
	}
	b.raw.mu.RLock()
	defer b.raw.mu.RUnlock()
	out := make([]string, 0, len(b.raw.collections))
	for name := range b.raw.collections {
		if len(out) >= limit {
			break
		}
		out = append(out, name)
	}
	return out, nil
}

// DestroyCollection drops one collection's cache entirely.
func (b *Backend) DestroyCollection(ctx context.Context, collectionName string) error {
	b.raw.mu.Lock()
	defer b.raw.mu.Unlock()
	delete(b.raw.collections, collectionName)
	return nil
}

// DestroyStore drops every collection.
func (b *Backend) DestroyStore(ctx context.Context) error {
	b.raw.mu.Lock()
	defer b.raw.mu.Unlock()
	b.raw.collections = make(map[string]*collection)
	return nil
}

var (
	_ store.Store                = (*Backend)(nil)
	_ store.KeyEnumerator        = (*Backend)(nil)
	_ store.CollectionEnumerator = (*Backend)(nil)
	_ store.CollectionDestroyer  = (*Backend)(nil)
	_ store.StoreDestroyer       = (*Backend)(nil)
)
