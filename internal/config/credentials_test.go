package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/systmms/secretsadapter/internal/config"
	"github.com/systmms/secretsadapter/pkg/provider"
)

func TestResolveCredential(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, keyring.Set("infisical", "ci", "s3cr3t"))

	tests := []struct {
		name    string
		value   string
		want    string
		wantErr bool
	}{
		{name: "plain value", value: "literal", want: "literal"},
		{name: "empty value", value: "", want: ""},
		{name: "keyring reference", value: "keyring:infisical/ci", want: "s3cr3t"},
		{name: "missing item", value: "keyring:infisical/nobody", wantErr: true},
		{name: "no account", value: "keyring:infisical", wantErr: true},
		{name: "empty service", value: "keyring:/ci", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := config.ResolveCredential(tt.value)
			if tt.wantErr {
				assert.ErrorIs(t, err, provider.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCredentials_InPlace(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, keyring.Set("azure", "sp", "client-secret"))

	id, secret := "client-id", "keyring:azure/sp"
	require.NoError(t, config.ResolveCredentials(&id, &secret, nil))

	assert.Equal(t, "client-id", id)
	assert.Equal(t, "client-secret", secret)
}
