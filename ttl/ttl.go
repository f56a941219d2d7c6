// Package ttl holds TTL validation and time helpers shared by every store
// and wrapper. A TTL is always seconds, represented as *float64 so "no TTL"
// (nil) is distinguishable from "TTL of zero" (rejected, see Validate).
package ttl

import (
	"math"
	"time"

	"github.com/maximhq/kvs/kverrors"
)

// Now returns the current UTC time. Centralized so tests can avoid
// depending on wall-clock timing for non-timing assertions.
func Now() time.Time {
	return time.Now().UTC()
}

// Validate checks that t, if present, is a positive finite number of
// seconds. nil is always valid (means "no TTL").
func Validate(op string, t *float64) (*float64, error) {
	if t == nil {
		return nil, nil
	}
	v := *t
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return nil, kverrors.New(kverrors.KindInvalidTTL, op, "ttl must be a positive finite number of seconds", map[string]any{"ttl": v})
	}
	return t, nil
}

// Seconds is a convenience constructor for a TTL pointer.
func Seconds(s float64) *float64 {
	return &s
}

// Spec describes the TTL argument to a put_many-style bulk operation: either
// no TTL, one TTL shared by every entry, or one TTL per entry. It mirrors
// the Python source's "ttl may be scalar or per-entry list" contract in a
// form that is explicit in Go instead of relying on duck typing.
type Spec struct {
	isList bool
	scalar *float64
	list   []*float64
}

// None means no TTL is supplied for any entry.
func None() Spec { return Spec{} }

// Scalar applies the same TTL to every entry in the bulk operation.
func Scalar(t *float64) Spec { return Spec{scalar: t} }

// PerEntry supplies one (possibly nil) TTL per entry; its length must match
// the number of keys passed to the bulk operation or Resolve returns
// IncorrectTTLCount.
func PerEntry(ts []*float64) Spec { return Spec{isList: true, list: ts} }

// Resolve expands the Spec into one validated TTL per entry, given the
// number of keys in the bulk call.
func Resolve(op string, s Spec, count int) ([]*float64, error) {
	if s.isList {
		if len(s.list) != count {
			return nil, kverrors.New(kverrors.KindIncorrectTTLCount, op, "ttl list length does not match keys length",
				map[string]any{"ttl_count": len(s.list), "key_count": count})
		}
		out := make([]*float64, count)
		for i, t := range s.list {
			v, err := Validate(op, t)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	v, err := Validate(op, s.scalar)
	if err != nil {
		return nil, err
	}
	out := make([]*float64, count)
	for i := range out {
		out[i] = v
	}
	return out, nil
}
