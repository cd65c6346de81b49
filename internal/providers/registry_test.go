package providers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/secretsadapter/internal/config"
	"github.com/systmms/secretsadapter/internal/logging"
	"github.com/systmms/secretsadapter/internal/providers"
	"github.com/systmms/secretsadapter/pkg/provider"
	"github.com/systmms/secretsadapter/tests/fakes"
)

// TestRegistryCreation validates registry initialization
func TestRegistryCreation(t *testing.T) {
	t.Parallel()

	registry := providers.NewRegistry()
	require.NotNil(t, registry)

	assert.Equal(t, []string{"azure.keyvault", "bitwarden", "infisical"}, registry.GetSupportedTypes())
}

// TestRegistryIsSupported validates provider type checking
func TestRegistryIsSupported(t *testing.T) {
	t.Parallel()

	registry := providers.NewRegistry()

	tests := []struct {
		name          string
		providerType  string
		wantSupported bool
	}{
		{"azure_keyvault", "azure.keyvault", true},
		{"bitwarden", "bitwarden", true},
		{"infisical", "infisical", true},
		{"vaultwarden alias is not registered", "vaultwarden", false},
		{"unknown", "unknown-provider", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.wantSupported, registry.IsSupported(tt.providerType),
				"Provider type '%s' support check failed", tt.providerType)
		})
	}
}

func TestRegistryCreateProvider_UnknownType(t *testing.T) {
	t.Parallel()

	registry := providers.NewRegistry()
	p, err := registry.CreateProvider(context.Background(), "hashicorp.vault", nil, nil)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, provider.ErrUnsupportedType)

	var typeErr *provider.UnsupportedTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, provider.Type("hashicorp.vault"), typeErr.Type)
}

func TestRegistryCreateProvider_InvalidSection(t *testing.T) {
	t.Parallel()

	registry := providers.NewRegistry()

	tests := []struct {
		name         string
		providerType provider.Type
		section      map[string]interface{}
	}{
		{"bitwarden without api key", provider.TypeBitwarden, map[string]interface{}{"server_url": "https://vault.example.com"}},
		{"azure without url", provider.TypeAzureKeyVault, map[string]interface{}{}},
		{"infisical without project", provider.TypeInfisical, map[string]interface{}{
			"site_url":      "https://app.infisical.com",
			"client_id":     "id",
			"client_secret": "secret",
			"environment":   "dev",
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p, err := registry.CreateProvider(context.Background(), tt.providerType, tt.section, logging.Discard())
			assert.Nil(t, p)
			assert.ErrorIs(t, err, provider.ErrInvalidConfig)
		})
	}
}

func TestRegistryRegisterFactory(t *testing.T) {
	t.Parallel()

	registry := providers.NewRegistry()
	registry.RegisterFactory("memory", func(_ context.Context, name string, _ map[string]interface{}, _ *logging.Logger) (provider.Provider, error) {
		return fakes.NewFakeProvider(name), nil
	})

	assert.True(t, registry.IsSupported("memory"))

	p, err := registry.CreateProvider(context.Background(), "memory", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "memory", p.Name())
}

func TestRegistryBuild(t *testing.T) {
	t.Parallel()

	bw := fakes.NewFakeBitwardenServer(t, "bw-token")
	bw.AddLogin("db-password", "hunter2")
	infisical := newInfisicalLoginServer(t)

	def, err := config.Parse([]byte(`
version: 1
default: bitwarden
providers:
  bitwarden:
    server_url: ` + bw.URL + `
    api_key: bw-token
  infisical:
    site_url: ` + infisical.URL + `
    client_id: id
    client_secret: secret
    project_id: proj
    environment: dev
  azure.keyvault:
    vault_url: https://example.vault.azure.net/
    tenant_id: tenant
    client_id: client
    client_secret: secret
`))
	require.NoError(t, err)

	registry := providers.NewRegistry()

	t.Run("all configured types", func(t *testing.T) {
		factory, err := registry.Build(context.Background(), def, providers.BuildOptions{})
		require.NoError(t, err)
		assert.Equal(t, []provider.Type{provider.TypeAzureKeyVault, provider.TypeBitwarden, provider.TypeInfisical}, factory.Types())

		bitwarden, err := factory.Provider(provider.TypeBitwarden)
		require.NoError(t, err)
		v, err := bitwarden.Get(context.Background(), "db-password")
		require.NoError(t, err)
		assert.Equal(t, provider.Found("hunter2"), v)

		azure, err := factory.Provider(provider.TypeAzureKeyVault)
		require.NoError(t, err)
		assert.NotSame(t, azure, bitwarden)
	})

	t.Run("restricted and decorated", func(t *testing.T) {
		var wrapped []string
		factory, err := registry.Build(context.Background(), def, providers.BuildOptions{
			Types: []provider.Type{provider.TypeBitwarden},
			Decorate: func(p provider.Provider) provider.Provider {
				wrapped = append(wrapped, p.Name())
				return p
			},
		})
		require.NoError(t, err)
		assert.Equal(t, []provider.Type{provider.TypeBitwarden}, factory.Types())
		assert.Equal(t, []string{"bitwarden"}, wrapped)

		_, err = factory.Provider(provider.TypeInfisical)
		assert.ErrorIs(t, err, provider.ErrUnsupportedType)
	})

	t.Run("type missing from configuration", func(t *testing.T) {
		_, err := registry.Build(context.Background(), def, providers.BuildOptions{
			Types: []provider.Type{"vaultwarden"},
		})
		assert.ErrorIs(t, err, provider.ErrInvalidConfig)
	})
}

func TestRegistryBuild_LoginFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"Invalid credentials"}`, http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	def := &config.Definition{
		Version: 1,
		Providers: map[string]map[string]interface{}{
			"infisical": {
				"site_url":      server.URL,
				"client_id":     "id",
				"client_secret": "wrong",
				"project_id":    "proj",
				"environment":   "dev",
			},
		},
	}

	factory, err := providers.NewRegistry().Build(context.Background(), def, providers.BuildOptions{})
	assert.Nil(t, factory)

	var authErr provider.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "infisical", authErr.Provider)
}

func newInfisicalLoginServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/auth/universal-auth/login" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"accessToken": "token",
			"expiresIn":   3600,
			"tokenType":   "Bearer",
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestProviderConfigEnvOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("CLIENT_ID", "someone-elses-id")
	t.Setenv("PROJECT_ID", "other-project")
	t.Setenv("TIMEOUT", "1s")
	t.Setenv("SECRETS_INFISICAL_SECRET_PATH", "/app")

	var cfg providers.InfisicalConfig
	err := config.LoadProvider("infisical", map[string]interface{}{
		"site_url":      "https://app.infisical.com",
		"client_id":     "mine",
		"client_secret": "secret",
		"project_id":    "proj-1",
		"environment":   "dev",
	}, &cfg, &cfg.ClientSecret)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, "mine", cfg.ClientID)
	assert.Equal(t, "proj-1", cfg.ProjectID)
	assert.Zero(t, cfg.Timeout)
	assert.Equal(t, "/app", cfg.SecretPath, "prefixed variables still apply")
}
