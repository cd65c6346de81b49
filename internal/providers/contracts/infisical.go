package contracts

import (
	"context"
	"time"
)

// InfisicalClient abstracts Infisical API operations for testing
type InfisicalClient interface {
	// Login exchanges machine identity credentials for an access token
	Login(ctx context.Context) (token string, expiresIn time.Duration, err error)

	// GetSecret retrieves a single secret by name
	GetSecret(ctx context.Context, token string, scope InfisicalScope, name string) (*InfisicalSecret, error)

	// CreateSecret creates a shared secret; it fails if the name is taken
	CreateSecret(ctx context.Context, token string, scope InfisicalScope, name, value string) error

	// UpdateSecret overwrites the value of an existing shared secret
	UpdateSecret(ctx context.Context, token string, scope InfisicalScope, name, value string) error

	// DeleteSecret removes a shared secret
	DeleteSecret(ctx context.Context, token string, scope InfisicalScope, name string) error

	// ListSecrets lists the secrets directly under the scope's path
	ListSecrets(ctx context.Context, token string, scope InfisicalScope) ([]InfisicalSecret, error)
}

// InfisicalAPIError is implemented by errors that carry an error response from the
// Infisical API. Transport failures do not implement it.
type InfisicalAPIError interface {
	error
	HTTPStatus() int
	APIMessage() string
}

// InfisicalScope selects where secrets live inside an Infisical organization.
type InfisicalScope struct {
	ProjectID   string
	Environment string
	SecretPath  string
}

// InfisicalSecret represents a secret from Infisical
type InfisicalSecret struct {
	SecretKey   string `json:"secretKey"`
	SecretValue string `json:"secretValue"`
	Version     int    `json:"version"`
	Type        string `json:"type"`
}
