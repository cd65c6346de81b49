package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/cenkalti/backoff/v4"

	"github.com/systmms/secretsadapter/internal/config"
	dserrors "github.com/systmms/secretsadapter/internal/errors"
	"github.com/systmms/secretsadapter/internal/logging"
	"github.com/systmms/secretsadapter/internal/providers/contracts"
	"github.com/systmms/secretsadapter/pkg/provider"
)

// DefaultAzureDeletePollInterval is the first wait between checks for a completed delete.
const DefaultAzureDeletePollInterval = time.Second

var errAzureDeletePending = errors.New("secret deletion still in progress")

// AzureKeyVaultProvider implements the Provider interface for Azure Key Vault
type AzureKeyVaultProvider struct {
	name         string
	client       contracts.KeyVaultClient
	logger       *logging.Logger
	config       AzureKeyVaultConfig
	pollInterval time.Duration
}

// AzureProviderOption is a functional option for configuring Azure providers
type AzureProviderOption func(*AzureKeyVaultProvider)

// WithAzureKeyVaultClient sets a custom Azure Key Vault client (for testing)
func WithAzureKeyVaultClient(client contracts.KeyVaultClient) AzureProviderOption {
	return func(p *AzureKeyVaultProvider) {
		p.client = client
	}
}

// WithAzureLogger sets the logger
func WithAzureLogger(logger *logging.Logger) AzureProviderOption {
	return func(p *AzureKeyVaultProvider) {
		p.logger = logger
	}
}

// WithAzureDeletePollInterval sets the initial interval between delete completion checks
func WithAzureDeletePollInterval(d time.Duration) AzureProviderOption {
	return func(p *AzureKeyVaultProvider) {
		p.pollInterval = d
	}
}

// NewAzureKeyVaultProvider creates a new Azure Key Vault provider.
//
// The vault URL is validated before any client is created.
func NewAzureKeyVaultProvider(name string, cfg AzureKeyVaultConfig, opts ...AzureProviderOption) (*AzureKeyVaultProvider, error) {
	if err := config.Validate("providers."+string(provider.TypeAzureKeyVault), &cfg); err != nil {
		return nil, err
	}
	if u, err := url.Parse(cfg.VaultURL); err != nil || u.Host == "" {
		return nil, dserrors.ConfigError{
			Field:      "vault_url",
			Value:      cfg.VaultURL,
			Message:    "Invalid vault_url format",
			Suggestion: "Use format: https://vault-name.vault.azure.net/",
		}
	}

	p := &AzureKeyVaultProvider{
		name:         name,
		logger:       logging.Discard(),
		config:       cfg,
		pollInterval: DefaultAzureDeletePollInterval,
	}

	// Apply options (allows fake client injection)
	for _, opt := range opts {
		opt(p)
	}

	if p.client == nil {
		client, err := createAzureKeyVaultClient(cfg)
		if err != nil {
			return nil, provider.AuthError{
				Provider: name,
				Message:  "failed to create Azure credential",
				Err:      err,
			}
		}
		p.client = client
	}

	return p, nil
}

// createAzureKeyVaultClient creates an Azure Key Vault client with appropriate authentication
func createAzureKeyVaultClient(cfg AzureKeyVaultConfig) (*azsecrets.Client, error) {
	var cred azcore.TokenCredential
	var err error

	if cfg.hasClientSecret() {
		cred, err = azidentity.NewClientSecretCredential(cfg.TenantID, cfg.ClientID, cfg.ClientSecret, nil)
	} else {
		// Environment, workload identity, managed identity, Azure CLI
		cred, err = azidentity.NewDefaultAzureCredential(nil)
	}
	if err != nil {
		return nil, err
	}

	return azsecrets.NewClient(cfg.VaultURL, cred, nil)
}

// Name returns the provider name
func (p *AzureKeyVaultProvider) Name() string {
	return p.name
}

// Get fetches the current version of a secret.
func (p *AzureKeyVaultProvider) Get(ctx context.Context, key string) (provider.SecretValue, error) {
	p.logger.Debug("Accessing Azure Key Vault secret: %s", key)

	resp, err := p.client.GetSecret(ctx, key, "", nil)
	if err != nil {
		if isAzureNotFoundError(err) {
			return provider.Absent(), nil
		}
		return provider.SecretValue{}, provider.Fail(ctx, p.name, "get", key, err)
	}

	if resp.Value == nil {
		return provider.Found(""), nil
	}
	return provider.Found(*resp.Value), nil
}

// GetMany resolves keys concurrently.
func (p *AzureKeyVaultProvider) GetMany(ctx context.Context, keys []string) (map[string]provider.SecretValue, error) {
	return provider.GetMany(ctx, p, keys, p.config.MaxConcurrency)
}

// Set writes a new version of the secret, creating it if needed.
func (p *AzureKeyVaultProvider) Set(ctx context.Context, key, value string) error {
	_, err := p.client.SetSecret(ctx, key, azsecrets.SetSecretParameters{Value: to.Ptr(value)}, nil)
	if err != nil {
		return provider.Fail(ctx, p.name, "set", key, err)
	}
	p.logger.Debug("Stored Azure Key Vault secret: %s", key)
	return nil
}

// Delete deletes the secret and waits until the vault reports the deletion complete.
func (p *AzureKeyVaultProvider) Delete(ctx context.Context, key string) error {
	if _, err := p.client.DeleteSecret(ctx, key, nil); err != nil {
		if isAzureNotFoundError(err) {
			return nil
		}
		return provider.Fail(ctx, p.name, "delete", key, err)
	}

	if err := p.waitForDeletion(ctx, key); err != nil {
		return provider.Fail(ctx, p.name, "delete", key, err)
	}
	p.logger.Debug("Deleted Azure Key Vault secret: %s", key)
	return nil
}

// waitForDeletion polls the deleted-secret endpoint until the secret shows up there.
// A 403 means the identity may delete but not read deleted secrets; the delete was
// accepted so it counts as done.
func (p *AzureKeyVaultProvider) waitForDeletion(ctx context.Context, key string) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.pollInterval
	b.MaxInterval = 16 * p.pollInterval
	b.MaxElapsedTime = 0
	b.Reset()

	check := func() error {
		_, err := p.client.GetDeletedSecret(ctx, key, nil)
		if err == nil {
			return nil
		}
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) {
			switch respErr.StatusCode {
			case http.StatusForbidden:
				return nil
			case http.StatusNotFound:
				return errAzureDeletePending
			}
		}
		return backoff.Permanent(err)
	}

	return backoff.Retry(check, backoff.WithContext(b, ctx))
}

// List returns the names of all secrets in the vault.
func (p *AzureKeyVaultProvider) List(ctx context.Context) ([]string, error) {
	var names []string

	pager := p.client.NewListSecretPropertiesPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, provider.Fail(ctx, p.name, "list", "", err)
		}
		for _, props := range page.Value {
			if props == nil || props.ID == nil {
				continue
			}
			names = append(names, props.ID.Name())
		}
	}

	return names, nil
}

// Capabilities returns the provider's capabilities
func (p *AzureKeyVaultProvider) Capabilities() provider.Capabilities {
	method := "default_credential"
	if p.config.hasClientSecret() {
		method = "client_secret"
	}
	return provider.Capabilities{
		AuthMethods: []string{method},
	}
}

// isAzureNotFoundError checks if an error is a "not found" error from Azure
func isAzureNotFoundError(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}

// String identifies the vault without exposing credentials.
func (p *AzureKeyVaultProvider) String() string {
	return fmt.Sprintf("%s (%s)", p.name, p.config.VaultURL)
}
