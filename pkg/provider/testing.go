package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ContractTest defines a standard test suite that all providers must pass
type ContractTest struct {
	// CreateProvider creates a new instance of the provider to test
	CreateProvider func(t *testing.T) Provider

	// Seed stores key=value in the backend behind p without going through p.Set.
	// Required for read-only providers; writable providers may leave it nil.
	Seed func(t *testing.T, p Provider, key, value string)
}

// RunContractTests runs the standard provider contract test suite
func RunContractTests(t *testing.T, contract ContractTest) {
	t.Run("Contract", func(t *testing.T) {
		t.Run("Name", func(t *testing.T) {
			testProviderName(t, contract)
		})

		t.Run("GetMissing", func(t *testing.T) {
			testProviderGetMissing(t, contract)
		})

		t.Run("GetExisting", func(t *testing.T) {
			testProviderGetExisting(t, contract)
		})

		t.Run("GetManyPartial", func(t *testing.T) {
			testProviderGetManyPartial(t, contract)
		})

		t.Run("Mutations", func(t *testing.T) {
			p := contract.CreateProvider(t)
			if p.Capabilities().ReadOnly {
				testProviderReadOnly(t, p)
				return
			}
			testProviderSetDeleteRoundTrip(t, p)
		})

		t.Run("ContextCancellation", func(t *testing.T) {
			testProviderContextCancellation(t, contract)
		})
	})
}

func uniqueKey(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

func seed(t *testing.T, contract ContractTest, p Provider, key, value string) {
	t.Helper()
	if contract.Seed != nil {
		contract.Seed(t, p, key, value)
		return
	}
	if p.Capabilities().ReadOnly {
		t.Skip("read-only provider without Seed")
	}
	require.NoError(t, p.Set(context.Background(), key, value))
}

func testProviderName(t *testing.T, contract ContractTest) {
	p := contract.CreateProvider(t)

	name := p.Name()
	assert.NotEmpty(t, name)
	assert.Equal(t, name, p.Name(), "Name() must be stable")
}

func testProviderGetMissing(t *testing.T, contract ContractTest) {
	p := contract.CreateProvider(t)

	v, err := p.Get(context.Background(), uniqueKey("missing"))
	require.NoError(t, err, "a missing key is not an error")
	assert.False(t, v.Exists)
	assert.Empty(t, v.Value)
}

func testProviderGetExisting(t *testing.T, contract ContractTest) {
	p := contract.CreateProvider(t)
	key := uniqueKey("existing")
	seed(t, contract, p, key, "s3cr3t")

	v, err := p.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, Found("s3cr3t"), v)
}

func testProviderGetManyPartial(t *testing.T, contract ContractTest) {
	p := contract.CreateProvider(t)
	present := uniqueKey("present")
	missing := uniqueKey("absent")
	seed(t, contract, p, present, "v1")

	got, err := p.GetMany(context.Background(), []string{present, missing, present})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, Found("v1"), got[present])
	assert.Equal(t, Absent(), got[missing])

	empty, err := p.GetMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testProviderSetDeleteRoundTrip(t *testing.T, p Provider) {
	ctx := context.Background()
	key := uniqueKey("roundtrip")

	require.NoError(t, p.Set(ctx, key, "first"))
	v, err := p.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, Found("first"), v)

	require.NoError(t, p.Set(ctx, key, "second"), "Set must overwrite")
	v, err = p.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, Found("second"), v)

	keys, err := p.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, keys, key)

	require.NoError(t, p.Delete(ctx, key))
	v, err = p.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, v.Exists, "deleted key must read as absent")

	require.NoError(t, p.Delete(ctx, key), "deleting a missing key succeeds")
}

func testProviderReadOnly(t *testing.T, p Provider) {
	ctx := context.Background()

	err := p.Set(ctx, "any-key", "value")
	assert.ErrorIs(t, err, ErrNotSupported)
	var unsupported *UnsupportedOperationError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "set", unsupported.Op)

	err = p.Delete(ctx, "any-key")
	assert.ErrorIs(t, err, ErrNotSupported)
}

func testProviderContextCancellation(t *testing.T, contract ContractTest) {
	p := contract.CreateProvider(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Get(ctx, "any-key")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrOperationFailed, "cancellation must not look like a backend failure")

	got, err := p.GetMany(ctx, []string{"a", "b"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
}
