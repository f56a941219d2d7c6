// Package compound implements deterministic (collection, key) composition
// into backend-native identifiers, and the pluggable sanitization strategies
// backends with restrictive key formats (Memcached, DynamoDB, Elasticsearch
// indices) use to keep identifiers within the backend's limits.
package compound

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/maximhq/kvs/kverrors"
)

// DefaultCompoundSeparator joins collection and key into one flat
// namespace identifier (spec.md §6.4).
const DefaultCompoundSeparator = "::"

// DefaultPrefixSeparator joins a fixed prefix onto a collection or key name.
const DefaultPrefixSeparator = "__"

// Key composes collection and key into a single backend-native identifier.
func Key(collection, key, separator string) string {
	if separator == "" {
		separator = DefaultCompoundSeparator
	}
	return collection + separator + key
}

// Uncompound splits a compound identifier back into (collection, key). It
// splits on the first occurrence of separator, since a key itself may
// legally contain the separator.
func Uncompound(s, separator string) (collection, key string, ok bool) {
	if separator == "" {
		separator = DefaultCompoundSeparator
	}
	idx := strings.Index(s, separator)
	if idx < 0 {
		return "", "", false
	}
	return s[:idx], s[idx+len(separator):], true
}

// PrefixKey prepends a fixed prefix onto a key name.
func PrefixKey(prefix, key, separator string) string {
	if separator == "" {
		separator = DefaultPrefixSeparator
	}
	return prefix + separator + key
}

// UnprefixKey strips a fixed prefix previously applied by PrefixKey.
func UnprefixKey(prefixed, prefix, separator string) (string, bool) {
	if separator == "" {
		separator = DefaultPrefixSeparator
	}
	full := prefix + separator
	if !strings.HasPrefix(prefixed, full) {
		return "", false
	}
	return prefixed[len(full):], true
}

// HashFragmentMode controls when SanitizeString appends a hash fragment.
type HashFragmentMode int

const (
	// HashNever never appends a hash fragment; long or disallowed strings are
	// just truncated/character-replaced.
	HashNever HashFragmentMode = iota
	// HashOnlyIfChanged appends a hash fragment only when character
	// replacement or truncation actually altered the string.
	HashOnlyIfChanged
	// HashAlways unconditionally appends (or, for short strings, becomes) a
	// hash fragment.
	HashAlways
)

const (
	// MinimumHashableLength is the smallest MaxLength for which a hash
	// fragment (separator + 8 hex chars) can fit at all.
	MinimumHashableLength = 9
	hashFragmentSize      = 8
)

// HashFunc computes the raw digest bytes generateHashFragment hex-encodes
// and truncates to form a hash fragment. Swappable so callers can trade
// xxhash's speed for SHA-256's strict cross-implementation compatibility
// with original_source's sanitizer.
type HashFunc func(value string) []byte

// XXHashFunc is the default HashFunc: github.com/cespare/xxhash/v2, the same
// dependency the teacher's plugins/semanticcache and plugins/redis use for
// request/key hashing.
func XXHashFunc(value string) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, xxhash.Sum64String(value))
	return buf
}

// SHA256HashFunc is a strict-compatibility HashFunc matching
// original_source's SHA-256-based hash fragments.
func SHA256HashFunc(value string) []byte {
	sum := sha256.Sum256([]byte(value))
	return sum[:]
}

// Options configures SanitizeString.
type Options struct {
	MaxLength int
	// AllowedCharacters, when non-nil, restricts the sanitized string to
	// these runes; any other rune is replaced with ReplacementCharacter. A
	// nil value means no character restriction is applied.
	AllowedCharacters     *string
	ReplacementCharacter  rune
	HashFragmentMode      HashFragmentMode
	HashFragmentSeparator string
	// HashFunc overrides the hash fragment algorithm. Nil selects
	// XXHashFunc.
	HashFunc HashFunc
}

func (o Options) withDefaults() Options {
	if o.ReplacementCharacter == 0 {
		o.ReplacementCharacter = '_'
	}
	if o.HashFragmentSeparator == "" {
		o.HashFragmentSeparator = "-"
	}
	if o.HashFunc == nil {
		o.HashFunc = XXHashFunc
	}
	return o
}

// generateHashFragment returns the first 8 hex characters of hashFunc's
// digest of value, always computed against the original (pre-sanitization)
// string.
func generateHashFragment(value string, hashFunc HashFunc) string {
	sum := hashFunc(value)
	return hex.EncodeToString(sum)[:hashFragmentSize]
}

func replaceDisallowed(value string, allowed string, replacement rune) string {
	allowedSet := make(map[rune]bool, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = true
	}
	var b strings.Builder
	for _, r := range value {
		if allowedSet[r] {
			b.WriteRune(r)
		} else {
			b.WriteRune(replacement)
		}
	}
	return b.String()
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// SanitizeString is the one-way mapping a Strategy builds on. It
// first replaces disallowed characters (if AllowedCharacters is set), then
// decides whether to hash based on HashFragmentMode and whether the result
// exceeds MaxLength:
//   - not hashing: return the (possibly truncated) sanitized string.
//   - HashAlways and the sanitized string fits within MaxLength: return just
//     the hash fragment.
//   - otherwise (the string exceeds MaxLength, or HashOnlyIfChanged found a
//     replaced character): truncate to make room, then append separator +
//     hash fragment.
func SanitizeString(value string, opts Options) string {
	opts = opts.withDefaults()

	sanitized := value
	charChanged := false
	if opts.AllowedCharacters != nil {
		sanitized = replaceDisallowed(value, *opts.AllowedCharacters, opts.ReplacementCharacter)
		charChanged = sanitized != value
	}

	exceeds := len([]rune(sanitized)) > opts.MaxLength
	needHash := opts.HashFragmentMode == HashAlways ||
		(opts.HashFragmentMode == HashOnlyIfChanged && (charChanged || exceeds))

	if !needHash {
		if exceeds {
			return truncateRunes(sanitized, opts.MaxLength)
		}
		return sanitized
	}

	hashFragment := generateHashFragment(value, opts.HashFunc)
	if !exceeds && opts.HashFragmentMode == HashAlways {
		return hashFragment
	}

	keep := opts.MaxLength - (len(opts.HashFragmentSeparator) + len(hashFragment))
	return truncateRunes(sanitized, keep) + opts.HashFragmentSeparator + hashFragment
}

// Strategy is a pluggable policy that turns a user-visible collection or key
// name into a backend-safe identifier. Sanitization is one-way: round-trip
// is never guaranteed.
type Strategy interface {
	Sanitize(op, name string) (string, error)
}

// PassthroughStrategy rejects names that violate MaxLength/AllowedCharacters
// instead of transforming them.
type PassthroughStrategy struct {
	MaxLength         int
	AllowedCharacters *string
}

func (s PassthroughStrategy) Sanitize(op, name string) (string, error) {
	if len([]rune(name)) > s.MaxLength {
		return "", kverrors.New(kverrors.KindInvalidKey, op, "name exceeds maximum length", map[string]any{"name": name, "max_length": s.MaxLength})
	}
	if s.AllowedCharacters != nil {
		allowed := make(map[rune]bool, len(*s.AllowedCharacters))
		for _, r := range *s.AllowedCharacters {
			allowed[r] = true
		}
		for _, r := range name {
			if !allowed[r] {
				return "", kverrors.New(kverrors.KindInvalidKey, op, "name contains disallowed characters", map[string]any{"name": name})
			}
		}
	}
	return name, nil
}

// HashExcessLengthStrategy returns name unchanged when within MaxLength;
// otherwise truncates and appends a hash fragment.
type HashExcessLengthStrategy struct {
	MaxLength int
}

func (s HashExcessLengthStrategy) Sanitize(_, name string) (string, error) {
	return SanitizeString(name, Options{MaxLength: s.MaxLength, HashFragmentMode: HashOnlyIfChanged}), nil
}

// AlwaysHashStrategy unconditionally reduces name to a hash fragment (or, if
// it exceeds MaxLength even as a hash, a truncated-prefix+hash form).
type AlwaysHashStrategy struct {
	MaxLength int
}

func (s AlwaysHashStrategy) Sanitize(_, name string) (string, error) {
	return SanitizeString(name, Options{MaxLength: s.MaxLength, HashFragmentMode: HashAlways}), nil
}

// HybridStrategy replaces disallowed characters with ReplacementCharacter,
// then applies excess-length hashing to the result.
type HybridStrategy struct {
	MaxLength            int
	AllowedCharacters    string
	ReplacementCharacter rune
}

func (s HybridStrategy) Sanitize(_, name string) (string, error) {
	allowed := s.AllowedCharacters
	return SanitizeString(name, Options{
		MaxLength:            s.MaxLength,
		AllowedCharacters:    &allowed,
		ReplacementCharacter: s.ReplacementCharacter,
		HashFragmentMode:     HashOnlyIfChanged,
	}), nil
}

// Character classes mirrored from the original source's sanitize module, for
// callers building Hybrid/Passthrough allow-lists.
const (
	LowercaseAlphabet    = "abcdefghijklmnopqrstuvwxyz"
	UppercaseAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	Numbers              = "0123456789"
	AlphanumericCharacters = LowercaseAlphabet + UppercaseAlphabet + Numbers
)
