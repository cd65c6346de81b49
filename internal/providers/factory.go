package providers

import (
	"time"
)

// DefaultTimeout is the HTTP client timeout used when none is configured.
const DefaultTimeout = 30 * time.Second

// DefaultInfisicalSecretPath is the folder used when secret_path is not set.
const DefaultInfisicalSecretPath = "/"

// AzureKeyVaultConfig holds Azure Key Vault-specific configuration
type AzureKeyVaultConfig struct {
	// VaultURL is the vault endpoint, e.g. https://my-vault.vault.azure.net/ (required)
	VaultURL string `yaml:"vault_url" split_words:"true" validate:"required,url"`

	// TenantID, ClientID and ClientSecret select service principal auth when all
	// three are set. Otherwise the default Azure credential chain is used.
	TenantID     string `yaml:"tenant_id" split_words:"true"`
	ClientID     string `yaml:"client_id" split_words:"true"`
	ClientSecret string `yaml:"client_secret" split_words:"true"`

	// MaxConcurrency bounds GetMany fan-out (default: 8)
	MaxConcurrency int `yaml:"max_concurrency" split_words:"true" validate:"gte=0"`
}

// hasClientSecret reports whether service principal credentials are complete.
func (c AzureKeyVaultConfig) hasClientSecret() bool {
	return c.TenantID != "" && c.ClientID != "" && c.ClientSecret != ""
}

// BitwardenConfig holds configuration for a Bitwarden or Vaultwarden server
type BitwardenConfig struct {
	// ServerURL is the server base URL (required)
	ServerURL string `yaml:"server_url" split_words:"true" validate:"required,url"`

	// APIKey is sent as a bearer token on every request (required)
	APIKey string `yaml:"api_key" split_words:"true" validate:"required"`

	// MaxConcurrency bounds GetMany fan-out (default: 8)
	MaxConcurrency int `yaml:"max_concurrency" split_words:"true" validate:"gte=0"`

	// Timeout for API requests (default: 30s)
	Timeout time.Duration `yaml:"timeout" split_words:"true" validate:"gte=0"`

	// CACert is path to custom CA certificate for self-hosted instances
	CACert string `yaml:"ca_cert" split_words:"true"`

	// InsecureSkipVerify disables TLS verification (use with caution)
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" split_words:"true"`
}

// InfisicalConfig holds configuration for the Infisical provider
type InfisicalConfig struct {
	// SiteURL is the Infisical instance URL (required)
	SiteURL string `yaml:"site_url" split_words:"true" validate:"required,url"`

	// ClientID and ClientSecret are universal-auth machine identity credentials
	ClientID     string `yaml:"client_id" split_words:"true" validate:"required"`
	ClientSecret string `yaml:"client_secret" split_words:"true" validate:"required"`

	// ProjectID is the Infisical project identifier (required)
	ProjectID string `yaml:"project_id" split_words:"true" validate:"required"`

	// Environment is the environment slug (required)
	// Examples: "dev", "staging", "prod"
	Environment string `yaml:"environment" split_words:"true" validate:"required"`

	// SecretPath is the folder holding the secrets (default: "/")
	SecretPath string `yaml:"secret_path" split_words:"true" validate:"omitempty,startswith=/"`

	// MaxConcurrency bounds GetMany fan-out (default: 8)
	MaxConcurrency int `yaml:"max_concurrency" split_words:"true" validate:"gte=0"`

	// Timeout for API requests (default: 30s)
	Timeout time.Duration `yaml:"timeout" split_words:"true" validate:"gte=0"`
}

func (c InfisicalConfig) secretPath() string {
	if c.SecretPath == "" {
		return DefaultInfisicalSecretPath
	}
	return c.SecretPath
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeout
	}
	return d
}
