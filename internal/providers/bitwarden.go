package providers

import (
	"context"
	"strings"

	"github.com/systmms/secretsadapter/internal/config"
	"github.com/systmms/secretsadapter/internal/logging"
	"github.com/systmms/secretsadapter/internal/providers/contracts"
	"github.com/systmms/secretsadapter/pkg/provider"
)

// BitwardenProvider reads secrets from a Bitwarden or Vaultwarden server.
//
// Secrets are vault items looked up by name. The adapter is read-only.
type BitwardenProvider struct {
	name   string
	client contracts.BitwardenClient
	logger *logging.Logger
	config BitwardenConfig
}

// BitwardenProviderOption is a functional option for configuring the Bitwarden provider
type BitwardenProviderOption func(*BitwardenProvider)

// WithBitwardenClient sets a custom client (for testing)
func WithBitwardenClient(client contracts.BitwardenClient) BitwardenProviderOption {
	return func(p *BitwardenProvider) {
		p.client = client
	}
}

// WithBitwardenLogger sets the logger
func WithBitwardenLogger(logger *logging.Logger) BitwardenProviderOption {
	return func(p *BitwardenProvider) {
		p.logger = logger
	}
}

// NewBitwardenProvider creates a new Bitwarden provider
func NewBitwardenProvider(name string, cfg BitwardenConfig, opts ...BitwardenProviderOption) (*BitwardenProvider, error) {
	if err := config.Validate("providers."+string(provider.TypeBitwarden), &cfg); err != nil {
		return nil, err
	}

	p := &BitwardenProvider{
		name:   name,
		logger: logging.Discard(),
		config: cfg,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.client == nil {
		client, err := newBitwardenHTTPClient(cfg, p.logger)
		if err != nil {
			return nil, err
		}
		p.client = client
	}

	return p, nil
}

// Name returns the provider name
func (p *BitwardenProvider) Name() string {
	return p.name
}

// Get finds the first item whose name matches key, ignoring case.
func (p *BitwardenProvider) Get(ctx context.Context, key string) (provider.SecretValue, error) {
	items, err := p.client.ListItems(ctx)
	if err != nil {
		return provider.SecretValue{}, provider.Fail(ctx, p.name, "get", key, err)
	}

	for i := range items {
		if !strings.EqualFold(items[i].Name, key) {
			continue
		}
		value, ok := extractSecret(&items[i])
		if !ok {
			p.logger.Debug("Bitwarden item %s has no password, password field or notes", key)
			return provider.Absent(), nil
		}
		return provider.Found(value), nil
	}

	return provider.Absent(), nil
}

// GetMany resolves keys concurrently. Each key lists the vault independently.
func (p *BitwardenProvider) GetMany(ctx context.Context, keys []string) (map[string]provider.SecretValue, error) {
	return provider.GetMany(ctx, p, keys, p.config.MaxConcurrency)
}

// Set is not supported.
func (p *BitwardenProvider) Set(ctx context.Context, key, value string) error {
	return &provider.UnsupportedOperationError{Provider: p.name, Op: "set"}
}

// Delete is not supported.
func (p *BitwardenProvider) Delete(ctx context.Context, key string) error {
	return &provider.UnsupportedOperationError{Provider: p.name, Op: "delete"}
}

// List returns item names in server order.
func (p *BitwardenProvider) List(ctx context.Context) ([]string, error) {
	items, err := p.client.ListItems(ctx)
	if err != nil {
		return nil, provider.Fail(ctx, p.name, "list", "", err)
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	return names, nil
}

// Capabilities returns the provider's capabilities
func (p *BitwardenProvider) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		ReadOnly:            true,
		CaseInsensitiveKeys: true,
		AuthMethods:         []string{"bearer_token"},
	}
}

// extractSecret picks the secret carried by an item: the login password, else a
// custom field named "password", else the notes.
func extractSecret(item *contracts.BitwardenItem) (string, bool) {
	if item.Login != nil && item.Login.Password != "" {
		return item.Login.Password, true
	}

	for _, field := range item.Fields {
		if strings.EqualFold(field.Name, "password") {
			if field.Value != "" {
				return field.Value, true
			}
			break
		}
	}

	if strings.TrimSpace(item.Notes) != "" {
		return item.Notes, true
	}

	return "", false
}
