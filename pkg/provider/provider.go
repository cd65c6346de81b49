// Package provider defines the backend-agnostic contract for secret stores.
//
// Every backend adapter (Azure Key Vault, Bitwarden/Vaultwarden, Infisical) implements
// the Provider interface so callers can read, write, delete and enumerate secrets
// without knowing which store sits behind it. The choice of backend is a configuration
// concern resolved through a Factory.
//
// # Absence Is Not an Error
//
// A missing secret is a normal result. Get returns a SecretValue with Exists=false
// instead of an error, and Delete on a missing key succeeds. Errors are reserved for
// operations that could not be carried out:
//
//   - *OperationError for any backend failure (network, auth, malformed response, quota)
//   - *UnsupportedOperationError when an adapter cannot perform an operation at all
//   - context.Canceled / context.DeadlineExceeded when the caller's context ended
//
// Callers distinguish these structurally with errors.Is / errors.As, never by message:
//
//	secret, err := p.Get(ctx, "db-password")
//	switch {
//	case errors.Is(err, context.Canceled):
//	    return err
//	case errors.Is(err, provider.ErrOperationFailed):
//	    return fmt.Errorf("secret store unavailable: %w", err)
//	case err != nil:
//	    return err
//	case !secret.Exists:
//	    return errMissingPassword
//	}
//
// # Implementing a Provider
//
// Adapters must be safe for concurrent use. They hold their immutable configuration and
// an established client or session, nothing else. GetMany should be implemented by
// delegating to the package-level GetMany helper so every adapter shares the same
// fan-out semantics.
//
// Adapters should wrap backend failures with Fail, which also turns a canceled context
// into the context's own error.
package provider

import (
	"context"
)

// Type identifies a backend family.
type Type string

// Built-in backend types.
const (
	TypeAzureKeyVault Type = "azure.keyvault"
	TypeBitwarden     Type = "bitwarden"
	TypeInfisical     Type = "infisical"
)

// Provider defines the interface that all secret store adapters must implement.
//
// Implementations must be thread-safe as multiple goroutines may call these methods
// concurrently.
type Provider interface {
	// Name returns the provider's identifier, used in errors and logs.
	Name() string

	// Get returns the secret stored under key.
	//
	// A key that does not exist yields a SecretValue with Exists=false and a nil error.
	Get(ctx context.Context, key string) (SecretValue, error)

	// GetMany resolves every key independently.
	//
	// A missing key maps to an absent SecretValue and never fails the batch. Keys that
	// fail operationally are left out of the map and reported through *BatchError,
	// which is returned together with the partial result.
	GetMany(ctx context.Context, keys []string) (map[string]SecretValue, error)

	// Set creates the secret if it does not exist or overwrites it if it does.
	Set(ctx context.Context, key, value string) error

	// Delete removes the secret. Deleting a key that does not exist succeeds.
	Delete(ctx context.Context, key string) error

	// List returns the keys visible to the configured credentials and scope.
	List(ctx context.Context) ([]string, error)

	// Capabilities reports what the adapter supports.
	Capabilities() Capabilities
}

// SecretValue is the result of a lookup.
//
// Exists=false is the absent marker; Value is empty in that case. An existing secret
// may still carry an empty Value.
type SecretValue struct {
	// Value is the secret data. Providers must never log this field.
	Value string

	// Exists reports whether the key was found in the backend.
	Exists bool
}

// Found returns a SecretValue for an existing secret.
func Found(value string) SecretValue {
	return SecretValue{Value: value, Exists: true}
}

// Absent returns the SecretValue denoting "no such secret".
func Absent() SecretValue {
	return SecretValue{}
}

// Capabilities describes what an adapter supports.
type Capabilities struct {
	// ReadOnly is true when Set and Delete always fail with ErrNotSupported.
	ReadOnly bool

	// CaseInsensitiveKeys is true when the backend matches keys ignoring case.
	CaseInsensitiveKeys bool

	// AuthMethods lists how the adapter authenticates, e.g. "client_secret",
	// "default_credential", "bearer_token", "universal_auth".
	AuthMethods []string
}
