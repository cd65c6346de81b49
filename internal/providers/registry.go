package providers

import (
	"context"
	"fmt"
	"sort"

	"github.com/systmms/secretsadapter/internal/config"
	"github.com/systmms/secretsadapter/internal/logging"
	"github.com/systmms/secretsadapter/pkg/provider"
)

// Registry manages provider creation from configuration sections
type Registry struct {
	factories map[provider.Type]ProviderFactory
}

// ProviderFactory creates a provider instance from a raw configuration section
type ProviderFactory func(ctx context.Context, name string, section map[string]interface{}, logger *logging.Logger) (provider.Provider, error)

// NewRegistry creates a new provider registry with built-in providers
func NewRegistry() *Registry {
	registry := &Registry{
		factories: make(map[provider.Type]ProviderFactory),
	}

	registry.RegisterFactory(provider.TypeAzureKeyVault, NewAzureKeyVaultProviderFactory)
	registry.RegisterFactory(provider.TypeBitwarden, NewBitwardenProviderFactory)
	registry.RegisterFactory(provider.TypeInfisical, NewInfisicalProviderFactory)

	return registry
}

// RegisterFactory registers a provider factory for a given type
func (r *Registry) RegisterFactory(providerType provider.Type, factory ProviderFactory) {
	r.factories[providerType] = factory
}

// CreateProvider creates a provider instance from configuration
func (r *Registry) CreateProvider(ctx context.Context, providerType provider.Type, section map[string]interface{}, logger *logging.Logger) (provider.Provider, error) {
	factory, exists := r.factories[providerType]
	if !exists {
		return nil, &provider.UnsupportedTypeError{Type: providerType}
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return factory(ctx, string(providerType), section, logger.With("provider", string(providerType)))
}

// GetSupportedTypes returns the supported provider types in sorted order
func (r *Registry) GetSupportedTypes() []string {
	types := make([]string, 0, len(r.factories))
	for providerType := range r.factories {
		types = append(types, string(providerType))
	}
	sort.Strings(types)
	return types
}

// IsSupported checks if a provider type is supported
func (r *Registry) IsSupported(providerType string) bool {
	_, exists := r.factories[provider.Type(providerType)]
	return exists
}

// BuildOptions controls Registry.Build.
type BuildOptions struct {
	// Logger receives adapter debug output
	Logger *logging.Logger

	// Types restricts construction to these types; empty builds every configured type
	Types []provider.Type

	// Decorate, if set, wraps each adapter before it is registered
	Decorate func(provider.Provider) provider.Provider
}

// Build constructs the configured adapters and registers them in a new Factory.
// Construction stops at the first failure.
func (r *Registry) Build(ctx context.Context, def *config.Definition, opts BuildOptions) (*provider.Factory, error) {
	types := opts.Types
	if len(types) == 0 {
		for _, t := range def.ProviderTypes() {
			types = append(types, provider.Type(t))
		}
	}

	factory := provider.NewFactory()
	for _, t := range types {
		section, err := def.Provider(string(t))
		if err != nil {
			return nil, err
		}

		p, err := r.CreateProvider(ctx, t, section, opts.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s provider: %w", t, err)
		}
		if opts.Decorate != nil {
			p = opts.Decorate(p)
		}
		if err := factory.Register(t, p); err != nil {
			return nil, err
		}
	}

	return factory, nil
}

// Factory functions for built-in providers

// NewAzureKeyVaultProviderFactory creates an Azure Key Vault provider from configuration
func NewAzureKeyVaultProviderFactory(_ context.Context, name string, section map[string]interface{}, logger *logging.Logger) (provider.Provider, error) {
	var cfg AzureKeyVaultConfig
	if err := config.LoadProvider(string(provider.TypeAzureKeyVault), section, &cfg, &cfg.ClientSecret); err != nil {
		return nil, err
	}
	p, err := NewAzureKeyVaultProvider(name, cfg, WithAzureLogger(logger))
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NewBitwardenProviderFactory creates a Bitwarden provider from configuration
func NewBitwardenProviderFactory(_ context.Context, name string, section map[string]interface{}, logger *logging.Logger) (provider.Provider, error) {
	var cfg BitwardenConfig
	if err := config.LoadProvider(string(provider.TypeBitwarden), section, &cfg, &cfg.APIKey); err != nil {
		return nil, err
	}
	p, err := NewBitwardenProvider(name, cfg, WithBitwardenLogger(logger))
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NewInfisicalProviderFactory creates an Infisical provider from configuration.
// It logs in before returning.
func NewInfisicalProviderFactory(ctx context.Context, name string, section map[string]interface{}, logger *logging.Logger) (provider.Provider, error) {
	var cfg InfisicalConfig
	if err := config.LoadProvider(string(provider.TypeInfisical), section, &cfg, &cfg.ClientID, &cfg.ClientSecret); err != nil {
		return nil, err
	}
	p, err := NewInfisicalProvider(ctx, name, cfg, WithInfisicalLogger(logger))
	if err != nil {
		return nil, err
	}
	return p, nil
}
