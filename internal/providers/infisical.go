package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/systmms/secretsadapter/internal/config"
	"github.com/systmms/secretsadapter/internal/logging"
	"github.com/systmms/secretsadapter/internal/providers/contracts"
	"github.com/systmms/secretsadapter/pkg/provider"
)

// InfisicalProvider implements the provider interface for Infisical.
//
// It logs in once at construction; the session is not renewed. Once the access token
// expires every operation fails with provider.ErrSessionExpired.
type InfisicalProvider struct {
	name       string
	config     InfisicalConfig
	scope      contracts.InfisicalScope
	client     contracts.InfisicalClient
	tokenCache *TokenCache
	logger     *logging.Logger
}

// InfisicalProviderOption is a functional option for configuring the Infisical provider
type InfisicalProviderOption func(*InfisicalProvider)

// WithInfisicalClient sets a custom client (for testing)
func WithInfisicalClient(client contracts.InfisicalClient) InfisicalProviderOption {
	return func(p *InfisicalProvider) {
		p.client = client
	}
}

// WithInfisicalLogger sets the logger
func WithInfisicalLogger(logger *logging.Logger) InfisicalProviderOption {
	return func(p *InfisicalProvider) {
		p.logger = logger
	}
}

// NewInfisicalProvider validates cfg and logs in with the machine identity
// credentials. A failed login returns provider.AuthError and no provider.
func NewInfisicalProvider(ctx context.Context, name string, cfg InfisicalConfig, opts ...InfisicalProviderOption) (*InfisicalProvider, error) {
	if err := config.Validate("providers."+string(provider.TypeInfisical), &cfg); err != nil {
		return nil, err
	}
	cfg.SecretPath = cfg.secretPath()

	p := &InfisicalProvider{
		name:   name,
		config: cfg,
		scope: contracts.InfisicalScope{
			ProjectID:   cfg.ProjectID,
			Environment: cfg.Environment,
			SecretPath:  cfg.SecretPath,
		},
		tokenCache: NewTokenCache(),
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.client == nil {
		client, err := newInfisicalHTTPClient(cfg, p.logger)
		if err != nil {
			return nil, err
		}
		p.client = client
	}

	token, ttl, err := p.client.Login(ctx)
	if err != nil {
		return nil, provider.AuthError{
			Provider: name,
			Message:  "universal auth login failed",
			Err:      err,
		}
	}
	p.tokenCache.Set(token, ttl)
	if exp := p.tokenCache.ExpiresAt(); exp.IsZero() {
		p.logger.Debug("Logged in to Infisical project %s (%s), token does not expire", cfg.ProjectID, cfg.Environment)
	} else {
		p.logger.Debug("Logged in to Infisical project %s (%s), token valid until %s", cfg.ProjectID, cfg.Environment, exp.Format(time.RFC3339))
	}

	return p, nil
}

// Name returns the provider name
func (p *InfisicalProvider) Name() string {
	return p.name
}

// session returns the access token established at construction
func (p *InfisicalProvider) session(ctx context.Context, op, key string) (string, error) {
	token, ok := p.tokenCache.Get()
	if !ok {
		err := fmt.Errorf("%w: token expired at %s", provider.ErrSessionExpired,
			p.tokenCache.ExpiresAt().Format(time.RFC3339))
		return "", provider.Fail(ctx, p.name, op, key, err)
	}
	return token, nil
}

// Get retrieves a secret from Infisical
func (p *InfisicalProvider) Get(ctx context.Context, key string) (provider.SecretValue, error) {
	token, err := p.session(ctx, "get", key)
	if err != nil {
		return provider.SecretValue{}, err
	}

	secret, err := p.client.GetSecret(ctx, token, p.scope, key)
	if err != nil {
		if isInfisicalNotFoundError(err) {
			return provider.Absent(), nil
		}
		return provider.SecretValue{}, provider.Fail(ctx, p.name, "get", key, err)
	}
	return provider.Found(secret.SecretValue), nil
}

// GetMany resolves keys concurrently.
func (p *InfisicalProvider) GetMany(ctx context.Context, keys []string) (map[string]provider.SecretValue, error) {
	return provider.GetMany(ctx, p, keys, p.config.MaxConcurrency)
}

// Set creates the secret, or updates it when it already exists.
func (p *InfisicalProvider) Set(ctx context.Context, key, value string) error {
	token, err := p.session(ctx, "set", key)
	if err != nil {
		return err
	}

	err = p.client.CreateSecret(ctx, token, p.scope, key, value)
	if err == nil {
		return nil
	}
	if !isInfisicalAlreadyExistsError(err) {
		return provider.Fail(ctx, p.name, "set", key, err)
	}

	p.logger.Debug("Infisical secret %s exists, updating", key)
	if err := p.client.UpdateSecret(ctx, token, p.scope, key, value); err != nil {
		return provider.Fail(ctx, p.name, "update", key, err)
	}
	return nil
}

// Delete removes the secret. A missing secret is not an error.
func (p *InfisicalProvider) Delete(ctx context.Context, key string) error {
	token, err := p.session(ctx, "delete", key)
	if err != nil {
		return err
	}

	if err := p.client.DeleteSecret(ctx, token, p.scope, key); err != nil {
		if isInfisicalNotFoundError(err) {
			return nil
		}
		return provider.Fail(ctx, p.name, "delete", key, err)
	}
	return nil
}

// List returns the keys under the configured path.
func (p *InfisicalProvider) List(ctx context.Context) ([]string, error) {
	token, err := p.session(ctx, "list", "")
	if err != nil {
		return nil, err
	}

	secrets, err := p.client.ListSecrets(ctx, token, p.scope)
	if err != nil {
		return nil, provider.Fail(ctx, p.name, "list", "", err)
	}

	keys := make([]string, 0, len(secrets))
	for _, s := range secrets {
		keys = append(keys, s.SecretKey)
	}
	return keys, nil
}

// Capabilities returns the provider's supported features
func (p *InfisicalProvider) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		AuthMethods: []string{"universal_auth"},
	}
}

// infisicalAPIError returns the API error response carried by err. Transport
// failures have no status and are never classified.
func infisicalAPIError(err error) (contracts.InfisicalAPIError, bool) {
	var apiErr contracts.InfisicalAPIError
	if !errors.As(err, &apiErr) || apiErr.HTTPStatus() <= 0 {
		return nil, false
	}
	return apiErr, true
}

// isInfisicalNotFoundError reports whether the API said the secret does not exist.
func isInfisicalNotFoundError(err error) bool {
	apiErr, ok := infisicalAPIError(err)
	if !ok {
		return false
	}
	switch apiErr.HTTPStatus() {
	case http.StatusNotFound:
		return true
	case http.StatusBadRequest:
		return strings.Contains(strings.ToLower(apiErr.APIMessage()), "not found")
	}
	return false
}

// isInfisicalAlreadyExistsError reports whether a create failed because the name is taken.
func isInfisicalAlreadyExistsError(err error) bool {
	apiErr, ok := infisicalAPIError(err)
	if !ok {
		return false
	}
	switch apiErr.HTTPStatus() {
	case http.StatusBadRequest, http.StatusConflict:
		return strings.Contains(strings.ToLower(apiErr.APIMessage()), "already exist")
	}
	return false
}
