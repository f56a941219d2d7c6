// Package kverrors defines the error taxonomy shared by every store backend
// and wrapper in kvs. Errors are distinguished by Kind rather than by type or
// message, so wrapper code (Retry.retryOn, CircuitBreaker.errorTypes) can
// pattern-match on the kind without depending on a concrete error type.
package kverrors

import (
	"errors"
	"fmt"
)

// Kind identifies the taxonomy of a kvs error.
type Kind string

const (
	KindInvalidKey         Kind = "invalid_key"
	KindInvalidTTL         Kind = "invalid_ttl"
	KindIncorrectTTLCount  Kind = "incorrect_ttl_count"
	KindMissingKey         Kind = "missing_key"
	KindSerialization      Kind = "serialization_error"
	KindDeserialization    Kind = "deserialization_error"
	KindEntryTooLarge      Kind = "entry_too_large"
	KindEntryTooSmall      Kind = "entry_too_small"
	KindReadOnly           Kind = "read_only"
	KindEncryption         Kind = "encryption_error"
	KindDecryption         Kind = "decryption_error"
	KindEncryptionVersion  Kind = "encryption_version_error"
	KindBulkheadFull       Kind = "bulkhead_full"
	KindRateLimitExceeded  Kind = "rate_limit_exceeded"
	KindCircuitOpen        Kind = "circuit_open"
	KindTimeout            Kind = "timeout_error"
	KindStoreSetup         Kind = "store_setup_error"
	KindStoreConnection    Kind = "store_connection_error"
	KindPathSecurity       Kind = "path_security_error"
	KindConfiguration      Kind = "configuration_error"
)

// Error is the concrete error type raised by kvs. It carries a Kind for
// programmatic matching, the operation that raised it, and a structured
// ExtraInfo map suitable for logging.
type Error struct {
	Kind      Kind
	Op        string
	Message   string
	ExtraInfo map[string]any
	Err       error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("kvs: %s: %s: %s", e.Op, e.Kind, e.Message)
	}
	return fmt.Sprintf("kvs: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a *Error with the same Kind, letting callers
// write errors.Is(err, kverrors.New(kverrors.KindInvalidTTL, "", "", nil)) or,
// more conveniently, use the HasKind helper below.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

// New builds an *Error with no wrapped cause.
func New(kind Kind, op string, message string, extra map[string]any) *Error {
	return &Error{Kind: kind, Op: op, Message: message, ExtraInfo: extra}
}

// Wrap builds an *Error that chains an underlying cause via errors.Unwrap.
func Wrap(kind Kind, op string, message string, err error, extra map[string]any) *Error {
	return &Error{Kind: kind, Op: op, Message: message, ExtraInfo: extra, Err: err}
}

// HasKind reports whether the first kvs *Error found in err's chain (err
// itself or an error it wraps) has the given kind. Kinds of *Errors wrapped
// further inside that first one are not checked.
func HasKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
