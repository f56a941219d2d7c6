// Package encryption implements the Encryption wrapper (spec §4.8.13):
// values are JSON-serialized, encrypted with golang.org/x/crypto/nacl/
// secretbox (standing in for the spec's Fernet-equivalent primitive), and
// stored as a base64 envelope. Multi-key rotation on decrypt tries the key
// whose Version matches the envelope first, then the other keys newest-first.
package encryption

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/maximhq/kvs/kverrors"
	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/ttl"
)

const (
	encryptedField = "__encrypted_data__"
	versionField   = "__encryption_version__"
	keySize        = 32
	nonceSize      = 24
)

// Key is one symmetric key usable for decryption, identified by Version so
// rotation can record which key encrypted a given payload.
type Key struct {
	Version int
	Secret  [keySize]byte
}

// DecryptErrorPolicy selects what Get does when an envelope fails to
// decrypt under every known key.
type DecryptErrorPolicy int

const (
	// Lenient returns the raw envelope unchanged on decrypt failure.
	Lenient DecryptErrorPolicy = iota
	// Strict raises DecryptionError on decrypt failure.
	Strict
)

// Wrapper encrypts values written through Inner and decrypts on read.
// Keys[0] is used for new writes; every key in Keys is tried on read, the
// key matching the envelope's version first, then the rest newest-first.
type Wrapper struct {
	store.Store
	inner  store.Store
	keys   []Key
	policy DecryptErrorPolicy
}

// New wraps inner with encryption. keys must be non-empty and ordered
// newest-first; keys[0] encrypts new writes.
func New(inner store.Store, keys []Key, policy DecryptErrorPolicy) *Wrapper {
	return &Wrapper{Store: inner, inner: inner, keys: keys, policy: policy}
}

func (w *Wrapper) encrypt(value map[string]any) (map[string]any, error) {
	plaintext, err := json.Marshal(value)
	if err != nil {
		return nil, kverrors.Wrap(kverrors.KindEncryption, "put", "failed to marshal value", err, nil)
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, kverrors.Wrap(kverrors.KindEncryption, "put", "failed to generate nonce", err, nil)
	}

	key := w.keys[0]
	sealed := secretbox.Seal(nonce[:], plaintext, &nonce, &key.Secret)
	return map[string]any{
		encryptedField: base64.StdEncoding.EncodeToString(sealed),
		versionField:   key.Version,
	}, nil
}

// isEnvelope reports whether raw carries the encryption envelope shape.
func isEnvelope(raw map[string]any) (ciphertext string, keyVersion int, ok bool) {
	if raw == nil {
		return "", 0, false
	}
	ct, hasData := raw[encryptedField].(string)
	if !hasData {
		return "", 0, false
	}
	kv, hasVersion := raw[versionField]
	if !hasVersion {
		return ct, 0, true
	}
	switch v := kv.(type) {
	case int:
		return ct, v, true
	case float64:
		return ct, int(v), true
	}
	return ct, 0, true
}

// decrypt tries keyVersion's matching key first, then falls back to every
// other configured key (spec §4.8.13 "try the newest key first, then older
// keys"); w.keys is expected ordered newest-first.
func (w *Wrapper) decrypt(raw map[string]any) (map[string]any, error) {
	ciphertext, keyVersion, ok := isEnvelope(raw)
	if !ok {
		return raw, nil
	}

	sealed, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return w.decryptFailure(raw)
	}
	if len(sealed) < nonceSize {
		return w.decryptFailure(raw)
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])

	ordered := make([]Key, 0, len(w.keys))
	for _, key := range w.keys {
		if key.Version == keyVersion {
			ordered = append([]Key{key}, ordered...)
		} else {
			ordered = append(ordered, key)
		}
	}

	for _, key := range ordered {
		plaintext, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &key.Secret)
		if !ok {
			continue
		}
		var value map[string]any
		if err := json.Unmarshal(plaintext, &value); err != nil {
			return w.decryptFailure(raw)
		}
		return value, nil
	}
	return w.decryptFailure(raw)
}

func (w *Wrapper) decryptFailure(raw map[string]any) (map[string]any, error) {
	if w.policy == Lenient {
		return raw, nil
	}
	return nil, kverrors.New(kverrors.KindDecryption, "get", "failed to decrypt entry", nil)
}

func (w *Wrapper) Get(ctx context.Context, key, collection string) (map[string]any, error) {
	raw, err := w.inner.Get(ctx, key, collection)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return w.decrypt(raw)
}

func (w *Wrapper) GetMany(ctx context.Context, keys []string, collection string) ([]map[string]any, error) {
	raws, err := w.inner.GetMany(ctx, keys, collection)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, len(raws))
	for i, raw := range raws {
		if raw == nil {
			continue
		}
		out[i], err = w.decrypt(raw)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (w *Wrapper) Put(ctx context.Context, key string, value map[string]any, collection string, entryTTL *float64) error {
	envelope, err := w.encrypt(value)
	if err != nil {
		return err
	}
	return w.inner.Put(ctx, key, envelope, collection, entryTTL)
}

func (w *Wrapper) PutMany(ctx context.Context, keys []string, values []map[string]any, collection string, ttls ttl.Spec) error {
	envelopes := make([]map[string]any, len(values))
	for i, v := range values {
		e, err := w.encrypt(v)
		if err != nil {
			return err
		}
		envelopes[i] = e
	}
	return w.inner.PutMany(ctx, keys, envelopes, collection, ttls)
}

var _ store.Store = (*Wrapper)(nil)
