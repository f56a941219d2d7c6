package migration

import (
	"github.com/maximhq/kvs/compound"
	"github.com/maximhq/kvs/store"
)

// BuildWithStrategy constructs a backend Store configured with the given key
// sanitization strategy. Callers supply one per concrete backend type (e.g.
// a closure over memcachedstore.New with a Config template).
type BuildWithStrategy func(compound.Strategy) (store.Store, error)

// NewSanitizationMigration builds a Migration preset (SPEC_FULL.md §5.1)
// where Source and Destination are the same backend type differing only in
// compound.Strategy, used to re-key a store after lowering a
// backend's key-length limit without downtime: reads drain old-strategy
// keys into the new strategy, writes go straight to the new strategy.
func NewSanitizationMigration(build BuildWithStrategy, oldStrategy, newStrategy compound.Strategy, cfg Config) (*Wrapper, error) {
	source, err := build(oldStrategy)
	if err != nil {
		return nil, err
	}
	destination, err := build(newStrategy)
	if err != nil {
		return nil, err
	}
	return New(source, destination, cfg), nil
}
