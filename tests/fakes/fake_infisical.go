package fakes

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/systmms/secretsadapter/internal/providers/contracts"
)

// FakeInfisicalClient is a test double for contracts.InfisicalClient.
//
// Secrets are stored per scope so tests can check that the adapter passes its
// project, environment and path through.
type FakeInfisicalClient struct {
	mu sync.Mutex

	// Token is the token returned by Login
	Token string

	// TokenTTL is the TTL returned by Login
	TokenTTL time.Duration

	// Secrets maps scope to secret name to value
	Secrets map[contracts.InfisicalScope]map[string]string

	// LoginErr is returned by Login if set
	LoginErr error

	// GetErr, CreateErr, UpdateErr, DeleteErr and ListErr override the in-memory
	// behavior of the matching call when set
	GetErr    error
	CreateErr error
	UpdateErr error
	DeleteErr error
	ListErr   error

	// Call counters
	LoginCalls  int
	GetCalls    int
	CreateCalls int
	UpdateCalls int

	// LastToken is the token presented by the most recent call
	LastToken string
}

// NewFakeInfisicalClient creates a new fake Infisical client with defaults
func NewFakeInfisicalClient() *FakeInfisicalClient {
	return &FakeInfisicalClient{
		Token:    "fake-token",
		TokenTTL: time.Hour,
		Secrets:  make(map[contracts.InfisicalScope]map[string]string),
	}
}

// SetSecret adds a secret to the fake Infisical
func (f *FakeInfisicalClient) SetSecret(scope contracts.InfisicalScope, name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bucket(scope)[name] = value
}

// Secret returns a stored value
func (f *FakeInfisicalClient) Secret(scope contracts.InfisicalScope, name string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.Secrets[scope][name]
	return v, ok
}

func (f *FakeInfisicalClient) bucket(scope contracts.InfisicalScope) map[string]string {
	if f.Secrets == nil {
		f.Secrets = make(map[contracts.InfisicalScope]map[string]string)
	}
	b, ok := f.Secrets[scope]
	if !ok {
		b = make(map[string]string)
		f.Secrets[scope] = b
	}
	return b
}

// Login returns the configured token
func (f *FakeInfisicalClient) Login(ctx context.Context) (string, time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LoginCalls++
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	if f.LoginErr != nil {
		return "", 0, f.LoginErr
	}
	return f.Token, f.TokenTTL, nil
}

// GetSecret retrieves a single secret by name
func (f *FakeInfisicalClient) GetSecret(ctx context.Context, token string, scope contracts.InfisicalScope, name string) (*contracts.InfisicalSecret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GetCalls++
	f.LastToken = token
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.GetErr != nil {
		return nil, f.GetErr
	}

	value, ok := f.Secrets[scope][name]
	if !ok {
		return nil, InfisicalSecretNotFound("get", name)
	}
	return &contracts.InfisicalSecret{SecretKey: name, SecretValue: value, Version: 1, Type: "shared"}, nil
}

// CreateSecret fails if the name is taken
func (f *FakeInfisicalClient) CreateSecret(ctx context.Context, token string, scope contracts.InfisicalScope, name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CreateCalls++
	f.LastToken = token
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.CreateErr != nil {
		return f.CreateErr
	}

	b := f.bucket(scope)
	if _, exists := b[name]; exists {
		return &FakeInfisicalError{Op: "create", Code: 400, Message: "Secret already exist"}
	}
	b[name] = value
	return nil
}

// UpdateSecret fails if the name is unknown
func (f *FakeInfisicalClient) UpdateSecret(ctx context.Context, token string, scope contracts.InfisicalScope, name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UpdateCalls++
	f.LastToken = token
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.UpdateErr != nil {
		return f.UpdateErr
	}

	b := f.bucket(scope)
	if _, exists := b[name]; !exists {
		return InfisicalSecretNotFound("update", name)
	}
	b[name] = value
	return nil
}

// DeleteSecret removes a secret
func (f *FakeInfisicalClient) DeleteSecret(ctx context.Context, token string, scope contracts.InfisicalScope, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastToken = token
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.DeleteErr != nil {
		return f.DeleteErr
	}

	b := f.bucket(scope)
	if _, exists := b[name]; !exists {
		return InfisicalSecretNotFound("delete", name)
	}
	delete(b, name)
	return nil
}

// ListSecrets lists all secrets in the scope, sorted by name
func (f *FakeInfisicalClient) ListSecrets(ctx context.Context, token string, scope contracts.InfisicalScope) ([]contracts.InfisicalSecret, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastToken = token
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.ListErr != nil {
		return nil, f.ListErr
	}

	secrets := make([]contracts.InfisicalSecret, 0, len(f.Secrets[scope]))
	for name, value := range f.Secrets[scope] {
		secrets = append(secrets, contracts.InfisicalSecret{SecretKey: name, SecretValue: value, Type: "shared"})
	}
	sort.Slice(secrets, func(i, j int) bool { return secrets[i].SecretKey < secrets[j].SecretKey })
	return secrets, nil
}

// FakeInfisicalError mimics the API error surface: a status code and the server's message
type FakeInfisicalError struct {
	Op      string
	Code    int
	Message string
}

func (e *FakeInfisicalError) Error() string {
	return fmt.Sprintf("infisical %s error (status %d): %s", e.Op, e.Code, e.Message)
}

// HTTPStatus implements contracts.InfisicalAPIError
func (e *FakeInfisicalError) HTTPStatus() int {
	return e.Code
}

// APIMessage implements contracts.InfisicalAPIError
func (e *FakeInfisicalError) APIMessage() string {
	return e.Message
}

// InfisicalSecretNotFound returns the error the API reports for an unknown secret
func InfisicalSecretNotFound(op, name string) error {
	return &FakeInfisicalError{Op: op, Code: 404, Message: fmt.Sprintf("Secret with name '%s' not found", name)}
}

// InfisicalUnauthorized returns the error the API reports for a bad or expired token
func InfisicalUnauthorized(op string) error {
	return &FakeInfisicalError{Op: op, Code: 401, Message: "Token missing or invalid"}
}

// Ensure FakeInfisicalClient implements contracts.InfisicalClient
var (
	_ contracts.InfisicalClient   = (*FakeInfisicalClient)(nil)
	_ contracts.InfisicalAPIError = (*FakeInfisicalError)(nil)
)
