package compound

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyUncompoundRoundTrip(t *testing.T) {
	k := Key("users", "alice", "")
	assert.Equal(t, "users::alice", k)

	coll, key, ok := Uncompound(k, "")
	require.True(t, ok)
	assert.Equal(t, "users", coll)
	assert.Equal(t, "alice", key)
}

func TestUncompoundNoSeparator(t *testing.T) {
	_, _, ok := Uncompound("noseparatorhere", "")
	assert.False(t, ok)
}

func TestUncompoundSplitsOnFirstOccurrence(t *testing.T) {
	// a key itself legally containing the separator must not be mis-split.
	coll, key, ok := Uncompound("users::alice::profile", "")
	require.True(t, ok)
	assert.Equal(t, "users", coll)
	assert.Equal(t, "alice::profile", key)
}

func TestPrefixKeyUnprefixKey(t *testing.T) {
	p := PrefixKey("tenant1", "alice", "")
	assert.Equal(t, "tenant1__alice", p)

	stripped, ok := UnprefixKey(p, "tenant1", "")
	require.True(t, ok)
	assert.Equal(t, "alice", stripped)
}

func TestUnprefixKeyWrongPrefix(t *testing.T) {
	_, ok := UnprefixKey("tenant2__alice", "tenant1", "")
	assert.False(t, ok)
}

func TestSanitizeStringNeverHash(t *testing.T) {
	got := SanitizeString("this string is far too long to keep as-is", Options{MaxLength: 10, HashFragmentMode: HashNever})
	assert.Equal(t, "this strin", got)
}

func TestSanitizeStringAlwaysHashShort(t *testing.T) {
	got := SanitizeString("test", Options{MaxLength: 20, HashFragmentMode: HashAlways})
	assert.Equal(t, generateHashFragment("test", XXHashFunc), got)
	assert.Len(t, got, 8)
}

func TestSanitizeStringHashExcessLengthWithinBounds(t *testing.T) {
	got := SanitizeString("short", Options{MaxLength: 20, HashFragmentMode: HashOnlyIfChanged})
	assert.Equal(t, "short", got)
}

func TestSanitizeStringHashExcessLengthOverBounds(t *testing.T) {
	long := "this string is far too long to keep as-is"
	got := SanitizeString(long, Options{MaxLength: 20, HashFragmentMode: HashOnlyIfChanged})
	assert.LessOrEqual(t, len(got), 20)
	assert.Contains(t, got, "-")
	assert.Equal(t, generateHashFragment(long, XXHashFunc), got[len(got)-8:])
}

func TestSanitizeStringCharacterReplacement(t *testing.T) {
	allowed := LowercaseAlphabet
	got := SanitizeString("test with spaces", Options{
		MaxLength:         20,
		AllowedCharacters: &allowed,
		HashFragmentMode:  HashOnlyIfChanged,
	})
	assert.Contains(t, got, "-")
}

func TestSanitizeStringSHA256HashFuncOverride(t *testing.T) {
	got := SanitizeString("test", Options{MaxLength: 20, HashFragmentMode: HashAlways, HashFunc: SHA256HashFunc})
	assert.Equal(t, generateHashFragment("test", SHA256HashFunc), got)
	assert.NotEqual(t, generateHashFragment("test", XXHashFunc), got)
}

func TestSanitizeStringStableAcrossCalls(t *testing.T) {
	a := SanitizeString("identical input", Options{MaxLength: 5, HashFragmentMode: HashAlways})
	b := SanitizeString("identical input", Options{MaxLength: 5, HashFragmentMode: HashAlways})
	assert.Equal(t, a, b)
}

func TestPassthroughStrategyRejectsOverLength(t *testing.T) {
	s := PassthroughStrategy{MaxLength: 4}
	_, err := s.Sanitize("put", "toolong")
	require.Error(t, err)
}

func TestPassthroughStrategyAcceptsWithinLimits(t *testing.T) {
	s := PassthroughStrategy{MaxLength: 10}
	out, err := s.Sanitize("put", "ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestHashExcessLengthStrategy(t *testing.T) {
	s := HashExcessLengthStrategy{MaxLength: 10}
	out, err := s.Sanitize("put", "short")
	require.NoError(t, err)
	assert.Equal(t, "short", out)

	out, err = s.Sanitize("put", "a string that is definitely too long")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), 10)
}

func TestAlwaysHashStrategy(t *testing.T) {
	s := AlwaysHashStrategy{MaxLength: 250}
	out, err := s.Sanitize("put", "anything")
	require.NoError(t, err)
	assert.Len(t, out, 8)
}

func TestHybridStrategy(t *testing.T) {
	s := HybridStrategy{MaxLength: 250, AllowedCharacters: AlphanumericCharacters, ReplacementCharacter: '_'}
	out, err := s.Sanitize("put", "hello world!")
	require.NoError(t, err)
	assert.Contains(t, out, "-")
}
