// Package readonly implements the ReadOnly wrapper (spec §4.8.6): blocks
// every write operation, either raising ReadOnly or returning the natural
// "nothing happened" value per Config.RaiseOnWrite.
package readonly

import (
	"context"

	"github.com/maximhq/kvs/kverrors"
	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/ttl"
)

// Wrapper blocks Put/PutMany/Delete/DeleteMany. Reads pass through
// unchanged via the embedded Store.
type Wrapper struct {
	store.Store
	raiseOnWrite bool
}

// New wraps inner as read-only. When raiseOnWrite is false, writes are
// silently no-ops instead of raising ReadOnly.
func New(inner store.Store, raiseOnWrite bool) *Wrapper {
	return &Wrapper{Store: inner, raiseOnWrite: raiseOnWrite}
}

func (w *Wrapper) blocked(op string) error {
	if !w.raiseOnWrite {
		return nil
	}
	return kverrors.New(kverrors.KindReadOnly, op, "store is read-only", nil)
}

func (w *Wrapper) Put(ctx context.Context, key string, value map[string]any, collection string, entryTTL *float64) error {
	return w.blocked("put")
}

func (w *Wrapper) PutMany(ctx context.Context, keys []string, values []map[string]any, collection string, ttls ttl.Spec) error {
	return w.blocked("put_many")
}

func (w *Wrapper) Delete(ctx context.Context, key, collection string) (bool, error) {
	return false, w.blocked("delete")
}

func (w *Wrapper) DeleteMany(ctx context.Context, keys []string, collection string) (int, error) {
	return 0, w.blocked("delete_many")
}

var _ store.Store = (*Wrapper)(nil)
