package providers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dserrors "github.com/systmms/secretsadapter/internal/errors"
	"github.com/systmms/secretsadapter/internal/providers"
	"github.com/systmms/secretsadapter/pkg/provider"
	"github.com/systmms/secretsadapter/tests/fakes"
)

func newAzureProvider(t *testing.T, fake *fakes.FakeAzureKeyVaultClient, opts ...providers.AzureProviderOption) *providers.AzureKeyVaultProvider {
	t.Helper()
	opts = append([]providers.AzureProviderOption{
		providers.WithAzureKeyVaultClient(fake),
		providers.WithAzureDeletePollInterval(time.Millisecond),
	}, opts...)
	p, err := providers.NewAzureKeyVaultProvider("azure-kv", providers.AzureKeyVaultConfig{
		VaultURL: "https://test-vault.vault.azure.net/",
	}, opts...)
	require.NoError(t, err)
	return p
}

func TestAzureKeyVaultProviderContract(t *testing.T) {
	t.Parallel()

	provider.RunContractTests(t, provider.ContractTest{
		CreateProvider: func(t *testing.T) provider.Provider {
			return newAzureProvider(t, fakes.NewFakeAzureKeyVaultClient())
		},
	})
}

func TestAzureKeyVaultProvider_ConfigValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		vaultURL string
	}{
		{"empty", ""},
		{"not a url", "my vault"},
		{"no host", "https://"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fake := fakes.NewFakeAzureKeyVaultClient()
			p, err := providers.NewAzureKeyVaultProvider("azure-kv", providers.AzureKeyVaultConfig{VaultURL: tt.vaultURL},
				providers.WithAzureKeyVaultClient(fake))
			assert.Nil(t, p)
			assert.ErrorIs(t, err, provider.ErrInvalidConfig)

			var cfgErr dserrors.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Contains(t, cfgErr.Field, "vault_url")
			assert.Zero(t, fake.GetCalls)
		})
	}
}

func TestAzureKeyVaultProvider_Get(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeAzureKeyVaultClient()
	fake.AddSecretString("db-password", "hunter2")
	fake.AddSecretString("empty", "")
	fake.AddError("locked", fakes.AzureForbiddenError())
	p := newAzureProvider(t, fake)
	ctx := context.Background()

	v, err := p.Get(ctx, "db-password")
	require.NoError(t, err)
	assert.Equal(t, provider.Found("hunter2"), v)

	v, err = p.Get(ctx, "empty")
	require.NoError(t, err)
	assert.Equal(t, provider.Found(""), v, "an empty value still exists")

	v, err = p.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, provider.Absent(), v)

	_, err = p.Get(ctx, "locked")
	assert.ErrorIs(t, err, provider.ErrOperationFailed)
	var opErr *provider.OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "get", opErr.Op)
	assert.Equal(t, "locked", opErr.Key)
	assert.Equal(t, "azure-kv", opErr.Provider)
}

func TestAzureKeyVaultProvider_GetManyIsolatesFailures(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeAzureKeyVaultClient()
	fake.AddSecretString("a", "1")
	fake.AddError("throttled", fakes.AzureThrottledError())
	p := newAzureProvider(t, fake)

	got, err := p.GetMany(context.Background(), []string{"a", "missing", "throttled"})

	var batch *provider.BatchError
	require.True(t, errors.As(err, &batch))
	assert.Equal(t, []string{"throttled"}, batch.Keys())
	assert.Equal(t, map[string]provider.SecretValue{
		"a":       provider.Found("1"),
		"missing": provider.Absent(),
	}, got)
}

func TestAzureKeyVaultProvider_DeleteWaitsForCompletion(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeAzureKeyVaultClient()
	fake.DeletePendingPolls = 3
	fake.AddSecretString("old", "v")
	p := newAzureProvider(t, fake)

	require.NoError(t, p.Delete(context.Background(), "old"))
	assert.Equal(t, 4, fake.DeletedGetCalls, "three pending polls then completion")

	v, err := p.Get(context.Background(), "old")
	require.NoError(t, err)
	assert.False(t, v.Exists)
}

func TestAzureKeyVaultProvider_DeleteMissingSkipsWait(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeAzureKeyVaultClient()
	p := newAzureProvider(t, fake)

	require.NoError(t, p.Delete(context.Background(), "never-existed"))
	assert.Zero(t, fake.DeletedGetCalls)
}

func TestAzureKeyVaultProvider_DeleteForbiddenCountsAsDone(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeAzureKeyVaultClient()
	fake.AddSecretString("k", "v")
	fake.DeletedErr = fakes.AzureForbiddenError()
	p := newAzureProvider(t, fake)

	assert.NoError(t, p.Delete(context.Background(), "k"))
}

func TestAzureKeyVaultProvider_DeletePollFailure(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeAzureKeyVaultClient()
	fake.AddSecretString("k", "v")
	fake.DeletedErr = fakes.AzureThrottledError()
	p := newAzureProvider(t, fake)

	err := p.Delete(context.Background(), "k")
	assert.ErrorIs(t, err, provider.ErrOperationFailed)
	assert.Equal(t, 1, fake.DeletedGetCalls, "non-404 poll errors are not retried")
}

func TestAzureKeyVaultProvider_DeleteWaitHonorsContext(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeAzureKeyVaultClient()
	fake.DeletePendingPolls = 1 << 30
	fake.AddSecretString("slow", "v")
	p := newAzureProvider(t, fake)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := p.Delete(ctx, "slow")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, provider.ErrOperationFailed)
}

func TestAzureKeyVaultProvider_SetSoftDeletedConflict(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeAzureKeyVaultClient()
	fake.AddSecretString("k", "v")
	p := newAzureProvider(t, fake)
	ctx := context.Background()

	require.NoError(t, p.Delete(ctx, "k"))
	err := p.Set(ctx, "k", "again")
	var opErr *provider.OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "set", opErr.Op)

	fake.PurgeDeleted()
	require.NoError(t, p.Set(ctx, "k", "again"))
}

func TestAzureKeyVaultProvider_ListPages(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeAzureKeyVaultClient()
	fake.PageSize = 2
	for _, name := range []string{"e", "d", "c", "b", "a"} {
		fake.AddSecretString(name, "v")
	}
	p := newAzureProvider(t, fake)

	names, err := p.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, names)

	fake.ListErr = fakes.AzureThrottledError()
	_, err = p.List(context.Background())
	var opErr *provider.OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, "list", opErr.Op)
	assert.Empty(t, opErr.Key)
}

func TestAzureKeyVaultProvider_Capabilities(t *testing.T) {
	t.Parallel()

	fake := fakes.NewFakeAzureKeyVaultClient()
	p := newAzureProvider(t, fake)
	assert.Equal(t, []string{"default_credential"}, p.Capabilities().AuthMethods)
	assert.False(t, p.Capabilities().ReadOnly)

	sp, err := providers.NewAzureKeyVaultProvider("azure-kv", providers.AzureKeyVaultConfig{
		VaultURL:     "https://test-vault.vault.azure.net/",
		TenantID:     "tenant",
		ClientID:     "client",
		ClientSecret: "secret",
	}, providers.WithAzureKeyVaultClient(fake))
	require.NoError(t, err)
	assert.Equal(t, []string{"client_secret"}, sp.Capabilities().AuthMethods)
}
