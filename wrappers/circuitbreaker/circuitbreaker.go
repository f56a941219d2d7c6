// Package circuitbreaker implements the CircuitBreaker wrapper (spec
// §4.8.10): a three-state FSM (Closed/Open/HalfOpen) that stops calling
// Inner once a configured number of consecutive matching failures is
// reached, and probes recovery after a timeout.
package circuitbreaker

import (
	"context"
	"sync"
	"time"

	"github.com/maximhq/kvs/kverrors"
	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/ttl"
)

// State is one of the three circuit-breaker states.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

// Config configures Wrapper.
type Config struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
	SuccessThreshold int
	ErrorTypes       []kverrors.Kind
}

// Wrapper is the CircuitBreaker Store.
type Wrapper struct {
	inner store.Store
	cfg   Config

	mu             sync.Mutex
	state          State
	failureCount   int
	successCount   int
	lastFailureAt  time.Time
}

// New wraps inner with circuit-breaking per cfg.
func New(inner store.Store, cfg Config) *Wrapper {
	return &Wrapper{inner: inner, cfg: cfg, state: Closed}
}

// State reports the current FSM state, useful for tests and diagnostics.
func (w *Wrapper) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Wrapper) matches(err error) bool {
	if err == nil {
		return false
	}
	for _, k := range w.cfg.ErrorTypes {
		if kverrors.HasKind(err, k) {
			return true
		}
	}
	return false
}

// admit decides whether a call may proceed, transitioning Open->HalfOpen
// once RecoveryTimeout has elapsed (spec §4.8.10).
func (w *Wrapper) admit() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == Open {
		if time.Since(w.lastFailureAt) >= w.cfg.RecoveryTimeout {
			w.state = HalfOpen
			w.successCount = 0
		} else {
			return kverrors.New(kverrors.KindCircuitOpen, "circuit_breaker", "circuit is open", nil)
		}
	}
	return nil
}

// record updates FSM state after a call completes. CircuitOpen errors raised
// by admit itself never reach here (spec: "MUST NOT count its own
// CircuitOpen errors as a new failure").
func (w *Wrapper) record(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err == nil {
		switch w.state {
		case Closed:
			w.failureCount = 0
		case HalfOpen:
			w.successCount++
			if w.successCount >= w.cfg.SuccessThreshold {
				w.state = Closed
				w.failureCount = 0
			}
		}
		return
	}

	if !w.matches(err) {
		return
	}

	switch w.state {
	case Closed:
		w.failureCount++
		if w.failureCount >= w.cfg.FailureThreshold {
			w.state = Open
			w.lastFailureAt = time.Now()
		}
	case HalfOpen:
		w.state = Open
		w.lastFailureAt = time.Now()
		w.successCount = 0
	}
}

func run[T any](w *Wrapper, fn func() (T, error)) (T, error) {
	var zero T
	if err := w.admit(); err != nil {
		return zero, err
	}
	v, err := fn()
	w.record(err)
	return v, err
}

func (w *Wrapper) Get(ctx context.Context, key, collection string) (map[string]any, error) {
	return run(w, func() (map[string]any, error) { return w.inner.Get(ctx, key, collection) })
}

func (w *Wrapper) GetMany(ctx context.Context, keys []string, collection string) ([]map[string]any, error) {
	return run(w, func() ([]map[string]any, error) { return w.inner.GetMany(ctx, keys, collection) })
}

func (w *Wrapper) TTL(ctx context.Context, key, collection string) (store.TTLEntry, error) {
	return run(w, func() (store.TTLEntry, error) { return w.inner.TTL(ctx, key, collection) })
}

func (w *Wrapper) TTLMany(ctx context.Context, keys []string, collection string) ([]store.TTLEntry, error) {
	return run(w, func() ([]store.TTLEntry, error) { return w.inner.TTLMany(ctx, keys, collection) })
}

func (w *Wrapper) Put(ctx context.Context, key string, value map[string]any, collection string, entryTTL *float64) error {
	_, err := run(w, func() (struct{}, error) { return struct{}{}, w.inner.Put(ctx, key, value, collection, entryTTL) })
	return err
}

func (w *Wrapper) PutMany(ctx context.Context, keys []string, values []map[string]any, collection string, ttls ttl.Spec) error {
	_, err := run(w, func() (struct{}, error) { return struct{}{}, w.inner.PutMany(ctx, keys, values, collection, ttls) })
	return err
}

func (w *Wrapper) Delete(ctx context.Context, key, collection string) (bool, error) {
	return run(w, func() (bool, error) { return w.inner.Delete(ctx, key, collection) })
}

func (w *Wrapper) DeleteMany(ctx context.Context, keys []string, collection string) (int, error) {
	return run(w, func() (int, error) { return w.inner.DeleteMany(ctx, keys, collection) })
}

var _ store.Store = (*Wrapper)(nil)
