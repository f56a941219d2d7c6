// Package managedentry implements the ManagedEntry record and the
// SerializationAdapter that converts it to and from the canonical wire
// form every backend stores. JSON encoding uses bytedance/sonic, the same
// codec bifrost's own in-memory store (framework/kvstore) marshals values
// with, rather than encoding/json.
package managedentry

import (
	"time"

	"github.com/bytedance/sonic"

	"github.com/maximhq/kvs/kverrors"
	"github.com/maximhq/kvs/ttl"
)

const wireVersion = 1

// Entry is the in-memory representation of one stored record: the caller's
// value dictionary plus TTL/timestamp metadata.
type Entry struct {
	Value     map[string]any
	CreatedAt *time.Time
	TTL       *float64
	ExpiresAt *time.Time
}

// New builds an Entry, computing whichever of TTL/ExpiresAt the caller
// omitted from the other, exactly as the invariant in spec.md §3.2 requires.
func New(value map[string]any, createdAt *time.Time, entryTTL *float64, expiresAt *time.Time) *Entry {
	e := &Entry{Value: value, CreatedAt: createdAt, TTL: entryTTL, ExpiresAt: expiresAt}
	switch {
	case e.TTL != nil && e.ExpiresAt == nil:
		exp := ttl.Now().Add(time.Duration(*e.TTL * float64(time.Second)))
		e.ExpiresAt = &exp
	case e.ExpiresAt != nil && e.TTL == nil:
		e.recalculateTTL()
	}
	return e
}

func (e *Entry) recalculateTTL() {
	if e.ExpiresAt != nil && e.TTL == nil {
		remaining := e.ExpiresAt.Sub(ttl.Now()).Seconds()
		e.TTL = &remaining
	}
}

// IsExpired reports whether the entry's ExpiresAt has passed. An entry with
// no ExpiresAt never expires.
func (e *Entry) IsExpired() bool {
	if e.ExpiresAt == nil {
		return false
	}
	return !e.ExpiresAt.After(ttl.Now())
}

// RemainingTTL returns the live number of seconds until expiration, or nil
// if the entry carries no expiration.
func (e *Entry) RemainingTTL() *float64 {
	if e.ExpiresAt == nil {
		return nil
	}
	remaining := e.ExpiresAt.Sub(ttl.Now()).Seconds()
	return &remaining
}

// wireEntry is the canonical JSON shape described in spec.md §6.1. The
// struct field order doesn't matter for sort-keys output because sonic, like
// encoding/json, marshals struct fields in declaration order — callers that
// need literal key-sorted bytes should use DumpJSON, which re-marshals
// through a map.
type wireEntry struct {
	Version   int            `json:"version"`
	Value     map[string]any `json:"value"`
	CreatedAt *string        `json:"created_at,omitempty"`
	ExpiresAt *string        `json:"expires_at,omitempty"`
	// TTL is legacy-readable only: SPEC_FULL.md §6 resolves the open question
	// of dual TTL encodings by never writing this field and deriving TTL from
	// ExpiresAt, while still accepting it on read for older payloads.
	TTL *float64 `json:"ttl,omitempty"`
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339Nano)
	return &s
}

func parseTime(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, *s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, *s)
		if err != nil {
			return nil
		}
	}
	t = t.UTC()
	return &t
}

// DumpDict renders an Entry as a plain map, suitable for backends that want
// a nested JSON object rather than a pre-serialized string.
func DumpDict(e *Entry) map[string]any {
	m := map[string]any{
		"version": wireVersion,
		"value":   e.Value,
	}
	if e.CreatedAt != nil {
		m["created_at"] = formatTime(e.CreatedAt)
	}
	if e.ExpiresAt != nil {
		m["expires_at"] = formatTime(e.ExpiresAt)
	}
	return m
}

// DumpJSON renders an Entry as a JSON string with sorted keys, matching the
// canonical wire form in spec.md §6.1.
func DumpJSON(e *Entry) (string, error) {
	w := wireEntry{
		Version:   wireVersion,
		Value:     e.Value,
		CreatedAt: formatTime(e.CreatedAt),
		ExpiresAt: formatTime(e.ExpiresAt),
	}
	b, err := sonic.ConfigStd.Marshal(mapFromWire(w))
	if err != nil {
		return "", kverrors.Wrap(kverrors.KindSerialization, "dump_json", "failed to marshal managed entry", err, nil)
	}
	return string(b), nil
}

// mapFromWire converts the struct to a map so sonic.ConfigStd (which sorts
// map keys, matching encoding/json's SortMapKeys-equivalent behavior for
// maps) emits keys in sorted order, as spec.md §6.1 requires.
func mapFromWire(w wireEntry) map[string]any {
	m := map[string]any{"version": w.Version, "value": w.Value}
	if w.CreatedAt != nil {
		m["created_at"] = *w.CreatedAt
	}
	if w.ExpiresAt != nil {
		m["expires_at"] = *w.ExpiresAt
	}
	return m
}

// LoadDict reconstructs an Entry from a decoded wire map. Missing "value" or
// non-string keys are a DeserializationError per spec.md §4.1.
func LoadDict(m map[string]any) (*Entry, error) {
	rawValue, ok := m["value"]
	if !ok {
		return nil, kverrors.New(kverrors.KindDeserialization, "load_dict", "missing value field", nil)
	}
	value, err := asStringKeyedMap(rawValue)
	if err != nil {
		return nil, err
	}

	var createdAt, expiresAt *time.Time
	if s, ok := stringField(m, "created_at"); ok {
		createdAt = parseTime(&s)
	}
	if s, ok := stringField(m, "expires_at"); ok {
		expiresAt = parseTime(&s)
	}

	var legacyTTL *float64
	if raw, ok := m["ttl"]; ok && expiresAt == nil {
		if f, ok := toFloat(raw); ok {
			legacyTTL = &f
		}
	}

	return New(value, createdAt, legacyTTL, expiresAt), nil
}

// LoadJSON parses a JSON string produced by DumpJSON (or a legacy-compatible
// payload) back into an Entry.
func LoadJSON(s string) (*Entry, error) {
	var m map[string]any
	if err := sonic.ConfigStd.UnmarshalFromString(s, &m); err != nil {
		return nil, kverrors.Wrap(kverrors.KindDeserialization, "load_json", "malformed json", err, nil)
	}
	return LoadDict(m)
}

func stringField(m map[string]any, key string) (string, bool) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func asStringKeyedMap(raw any) (map[string]any, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, kverrors.New(kverrors.KindDeserialization, "load_dict", "value is not an object", nil)
	}
	return m, nil
}
