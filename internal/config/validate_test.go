package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/secretsadapter/internal/config"
	dserrors "github.com/systmms/secretsadapter/internal/errors"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		cfg       sampleConfig
		wantField string
		wantMsg   string
	}{
		{
			name: "valid",
			cfg:  sampleConfig{ServerURL: "https://vault.example.com", APIKey: "k"},
		},
		{
			name:      "missing url",
			cfg:       sampleConfig{APIKey: "k"},
			wantField: "providers.bitwarden.server_url",
			wantMsg:   "is required",
		},
		{
			name:      "malformed url",
			cfg:       sampleConfig{ServerURL: "not a url", APIKey: "k"},
			wantField: "providers.bitwarden.server_url",
			wantMsg:   "must be a valid URL",
		},
		{
			name:      "negative concurrency",
			cfg:       sampleConfig{ServerURL: "https://x.example.com", APIKey: "k", MaxConcurrency: -1},
			wantField: "providers.bitwarden.max_concurrency",
			wantMsg:   "must be greater than or equal to 0",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := config.Validate("providers.bitwarden", &tt.cfg)
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}

			var cfgErr dserrors.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantField, cfgErr.Field)
			assert.Equal(t, tt.wantMsg, cfgErr.Message)
		})
	}
}
