package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors matched with errors.Is.
var (
	// ErrOperationFailed matches every *OperationError.
	ErrOperationFailed = errors.New("provider operation failed")

	// ErrNotSupported matches every *UnsupportedOperationError.
	ErrNotSupported = errors.New("operation not supported")

	// ErrUnsupportedType matches every *UnsupportedTypeError.
	ErrUnsupportedType = errors.New("unsupported provider type")

	// ErrInvalidConfig is matched by configuration errors returned during construction.
	ErrInvalidConfig = errors.New("invalid provider configuration")

	// ErrSessionExpired is wrapped by operations attempted after a backend session
	// established at construction has expired.
	ErrSessionExpired = errors.New("provider session expired")
)

// OperationError is the single normalized failure surfaced by adapters.
//
// Err carries the original backend cause for diagnostics.
type OperationError struct {
	Provider string
	Op       string // "get", "set", "update", "delete", "list"
	Key      string // empty for list
	Err      error
}

func (e *OperationError) Error() string {
	var b strings.Builder
	b.WriteString(e.Provider)
	b.WriteString(" ")
	b.WriteString(e.Op)
	if e.Key != "" {
		fmt.Fprintf(&b, " %q", e.Key)
	}
	b.WriteString(" failed")
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrOperationFailed.
func (e *OperationError) Is(target error) bool {
	return target == ErrOperationFailed
}

// UnsupportedOperationError is returned when an adapter cannot perform an operation.
// It is returned immediately, without contacting the backend.
type UnsupportedOperationError struct {
	Provider string
	Op       string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s: %s operation is not supported", e.Provider, e.Op)
}

// Is reports whether target is ErrNotSupported.
func (e *UnsupportedOperationError) Is(target error) bool {
	return target == ErrNotSupported
}

// UnsupportedTypeError is returned by the factory for a type that has no registered
// provider.
type UnsupportedTypeError struct {
	Type Type
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("provider type %q is not supported", string(e.Type))
}

// Is reports whether target is ErrUnsupportedType.
func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedType
}

// AuthError indicates that authentication to the backend failed.
//
// Adapters that log in during construction return it instead of an instance.
type AuthError struct {
	// Provider is the name of the provider that failed authentication.
	Provider string

	// Message provides details about the authentication failure.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e AuthError) Error() string {
	return "authentication failed for " + e.Provider + ": " + e.Message
}

func (e AuthError) Unwrap() error {
	return e.Err
}

// BatchError reports the keys of a GetMany call that failed.
type BatchError struct {
	Failures map[string]error
}

func (e *BatchError) Error() string {
	keys := e.Keys()
	if len(keys) == 1 {
		return fmt.Sprintf("1 key failed: %v", e.Failures[keys[0]])
	}
	return fmt.Sprintf("%d keys failed: %s", len(keys), strings.Join(keys, ", "))
}

// Unwrap exposes every per-key error to errors.Is and errors.As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, k := range e.Keys() {
		errs = append(errs, e.Failures[k])
	}
	return errs
}

// Keys returns the failed keys in sorted order.
func (e *BatchError) Keys() []string {
	keys := make([]string, 0, len(e.Failures))
	for k := range e.Failures {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Fail normalizes a backend error.
//
// When ctx is done the context's error is returned as-is so that cancellation stays
// distinguishable from a provider failure. Otherwise err is wrapped in *OperationError.
func Fail(ctx context.Context, providerName, op, key string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &OperationError{
		Provider: providerName,
		Op:       op,
		Key:      key,
		Err:      err,
	}
}
