package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/secretsadapter/internal/config"
	dserrors "github.com/systmms/secretsadapter/internal/errors"
	"github.com/systmms/secretsadapter/pkg/provider"
)

const validConfig = `
version: 1
default: infisical
providers:
  azure.keyvault:
    vault_url: https://my-vault.vault.azure.net/
  bitwarden:
    server_url: https://vault.example.com
    api_key: keyring:secretsadapter/bitwarden
    timeout: 10s
  infisical:
    site_url: https://app.infisical.com
    client_id: id
    client_secret: secret
    project_id: proj
    environment: dev
    secret_path: /app
`

func TestParse_Valid(t *testing.T) {
	t.Parallel()

	def, err := config.Parse([]byte(validConfig))
	require.NoError(t, err)

	assert.Equal(t, 1, def.Version)
	assert.Equal(t, []string{"azure.keyvault", "bitwarden", "infisical"}, def.ProviderTypes())

	section, err := def.Provider("bitwarden")
	require.NoError(t, err)
	assert.Equal(t, "https://vault.example.com", section["server_url"])

	typ, err := def.DefaultType()
	require.NoError(t, err)
	assert.Equal(t, "infisical", typ)
}

func TestParse_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "unknown provider type",
			yaml: "version: 1\nproviders:\n  gopass: {}\n",
		},
		{
			name: "unknown field",
			yaml: "version: 1\nproviders:\n  bitwarden:\n    server: https://x\n",
		},
		{
			name: "wrong version",
			yaml: "version: 2\nproviders: {}\n",
		},
		{
			name: "bad timeout",
			yaml: "version: 1\nproviders:\n  infisical:\n    timeout: soon\n",
		},
		{
			name: "relative secret path",
			yaml: "version: 1\nproviders:\n  infisical:\n    secret_path: app\n",
		},
		{
			name: "missing providers",
			yaml: "version: 1\n",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, provider.ErrInvalidConfig)
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := config.Parse([]byte("version: [1\n"))
	var cfgErr dserrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Message, "invalid YAML")
}

func TestParse_DefaultMustBeConfigured(t *testing.T) {
	t.Parallel()

	_, err := config.Parse([]byte("version: 1\ndefault: bitwarden\nproviders:\n  infisical: {}\n"))
	var cfgErr dserrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "default", cfgErr.Field)
}

func TestDefinition_DefaultType(t *testing.T) {
	t.Parallel()

	single := &config.Definition{Providers: map[string]map[string]interface{}{"bitwarden": {}}}
	typ, err := single.DefaultType()
	require.NoError(t, err)
	assert.Equal(t, "bitwarden", typ)

	several := &config.Definition{Providers: map[string]map[string]interface{}{"bitwarden": {}, "infisical": {}}}
	_, err = several.DefaultType()
	assert.ErrorIs(t, err, provider.ErrInvalidConfig)

	_, err = several.Provider("azure.keyvault")
	var cfgErr dserrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Suggestion, "bitwarden, infisical")
}

func TestConfig_Load(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "secretsadapter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validConfig), 0o600))

	cfg := &config.Config{Path: path}
	require.NoError(t, cfg.Load())
	require.NotNil(t, cfg.Definition)
	assert.Len(t, cfg.Definition.Providers, 3)
}

func TestConfig_LoadMissingFile(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Path: filepath.Join(t.TempDir(), "nope.yaml")}
	err := cfg.Load()

	var cfgErr dserrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "path", cfgErr.Field)
}

func TestConfig_LoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secretsadapter.yaml")
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte(validConfig), 0o600))
	require.NoError(t, os.WriteFile(envFile, []byte("SECRETSADAPTER_TEST_DOTENV=from-file\n"), 0o600))
	t.Setenv("SECRETSADAPTER_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("SECRETSADAPTER_TEST_DOTENV"))

	cfg := &config.Config{Path: path, EnvFile: envFile}
	require.NoError(t, cfg.Load())
	assert.Equal(t, "from-file", os.Getenv("SECRETSADAPTER_TEST_DOTENV"))

	missing := &config.Config{Path: path, EnvFile: filepath.Join(dir, "absent.env")}
	assert.NoError(t, missing.Load())
}
