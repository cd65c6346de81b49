package fakes

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	"github.com/systmms/secretsadapter/internal/providers/contracts"
)

// FakeAzureKeyVaultClient is an in-memory implementation of contracts.KeyVaultClient.
//
// Deleted secrets move to a soft-deleted set; GetDeletedSecret reports them as
// pending (404) for DeletePendingPolls calls before returning them.
type FakeAzureKeyVaultClient struct {
	mu sync.Mutex

	// Secrets maps secret names to their current value
	Secrets map[string]*string

	// Deleted maps soft-deleted secret names to the number of remaining pending polls
	Deleted map[string]int

	// Errors maps secret names to errors returned by every per-secret call
	Errors map[string]error

	// ListErr is returned by the pager when set
	ListErr error

	// DeletedErr is returned by GetDeletedSecret when set
	DeletedErr error

	// DeletePendingPolls is how many GetDeletedSecret calls report 404 after a delete
	DeletePendingPolls int

	// PageSize is the number of secrets per list page (default: 2)
	PageSize int

	// Call counters
	GetCalls        int
	DeletedGetCalls int
}

// NewFakeAzureKeyVaultClient creates a new fake Azure Key Vault client
func NewFakeAzureKeyVaultClient() *FakeAzureKeyVaultClient {
	return &FakeAzureKeyVaultClient{
		Secrets: make(map[string]*string),
		Deleted: make(map[string]int),
		Errors:  make(map[string]error),
	}
}

// AddSecretString adds a string secret to the fake vault
func (f *FakeAzureKeyVaultClient) AddSecretString(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Secrets[name] = to.Ptr(value)
}

// AddError configures the fake to return an error for a specific secret
func (f *FakeAzureKeyVaultClient) AddError(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors[name] = err
}

func secretID(name string) *azsecrets.ID {
	return (*azsecrets.ID)(to.Ptr(fmt.Sprintf("https://test-vault.vault.azure.net/secrets/%s/0123456789abcdef", name)))
}

// GetSecret returns the current value of a secret
func (f *FakeAzureKeyVaultClient) GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	if err := ctx.Err(); err != nil {
		return azsecrets.GetSecretResponse{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GetCalls++

	if err, exists := f.Errors[name]; exists {
		return azsecrets.GetSecretResponse{}, err
	}
	value, exists := f.Secrets[name]
	if !exists {
		return azsecrets.GetSecretResponse{}, AzureNotFoundError(name)
	}
	return azsecrets.GetSecretResponse{
		Secret: azsecrets.Secret{ID: secretID(name), Value: value},
	}, nil
}

// SetSecret creates or overwrites a secret
func (f *FakeAzureKeyVaultClient) SetSecret(ctx context.Context, name string, parameters azsecrets.SetSecretParameters, options *azsecrets.SetSecretOptions) (azsecrets.SetSecretResponse, error) {
	if err := ctx.Err(); err != nil {
		return azsecrets.SetSecretResponse{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, exists := f.Errors[name]; exists {
		return azsecrets.SetSecretResponse{}, err
	}
	if _, softDeleted := f.Deleted[name]; softDeleted {
		return azsecrets.SetSecretResponse{}, &azcore.ResponseError{StatusCode: 409, ErrorCode: "Conflict"}
	}
	f.Secrets[name] = parameters.Value
	return azsecrets.SetSecretResponse{
		Secret: azsecrets.Secret{ID: secretID(name), Value: parameters.Value},
	}, nil
}

// DeleteSecret moves a secret to the soft-deleted set
func (f *FakeAzureKeyVaultClient) DeleteSecret(ctx context.Context, name string, options *azsecrets.DeleteSecretOptions) (azsecrets.DeleteSecretResponse, error) {
	if err := ctx.Err(); err != nil {
		return azsecrets.DeleteSecretResponse{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if err, exists := f.Errors[name]; exists {
		return azsecrets.DeleteSecretResponse{}, err
	}
	if _, exists := f.Secrets[name]; !exists {
		return azsecrets.DeleteSecretResponse{}, AzureNotFoundError(name)
	}
	delete(f.Secrets, name)
	f.Deleted[name] = f.DeletePendingPolls
	return azsecrets.DeleteSecretResponse{}, nil
}

// GetDeletedSecret reports a soft-deleted secret once its pending polls are used up
func (f *FakeAzureKeyVaultClient) GetDeletedSecret(ctx context.Context, name string, options *azsecrets.GetDeletedSecretOptions) (azsecrets.GetDeletedSecretResponse, error) {
	if err := ctx.Err(); err != nil {
		return azsecrets.GetDeletedSecretResponse{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeletedGetCalls++

	if f.DeletedErr != nil {
		return azsecrets.GetDeletedSecretResponse{}, f.DeletedErr
	}
	pending, exists := f.Deleted[name]
	if !exists || pending > 0 {
		if exists {
			f.Deleted[name] = pending - 1
		}
		return azsecrets.GetDeletedSecretResponse{}, AzureNotFoundError(name)
	}
	return azsecrets.GetDeletedSecretResponse{
		DeletedSecret: azsecrets.DeletedSecret{ID: secretID(name)},
	}, nil
}

// PurgeDeleted forgets every soft-deleted secret so names can be reused
func (f *FakeAzureKeyVaultClient) PurgeDeleted() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deleted = make(map[string]int)
}

// NewListSecretPropertiesPager pages through a snapshot of the secret names
func (f *FakeAzureKeyVaultClient) NewListSecretPropertiesPager(options *azsecrets.ListSecretPropertiesOptions) *runtime.Pager[azsecrets.ListSecretPropertiesResponse] {
	f.mu.Lock()
	names := make([]string, 0, len(f.Secrets))
	for name := range f.Secrets {
		names = append(names, name)
	}
	listErr := f.ListErr
	pageSize := f.PageSize
	f.mu.Unlock()

	sort.Strings(names)
	if pageSize <= 0 {
		pageSize = 2
	}

	next := 0
	return runtime.NewPager(runtime.PagingHandler[azsecrets.ListSecretPropertiesResponse]{
		More: func(page azsecrets.ListSecretPropertiesResponse) bool {
			return page.NextLink != nil
		},
		Fetcher: func(ctx context.Context, _ *azsecrets.ListSecretPropertiesResponse) (azsecrets.ListSecretPropertiesResponse, error) {
			if err := ctx.Err(); err != nil {
				return azsecrets.ListSecretPropertiesResponse{}, err
			}
			if listErr != nil {
				return azsecrets.ListSecretPropertiesResponse{}, listErr
			}

			end := next + pageSize
			if end > len(names) {
				end = len(names)
			}
			var page azsecrets.ListSecretPropertiesResponse
			for _, name := range names[next:end] {
				page.Value = append(page.Value, &azsecrets.SecretProperties{ID: secretID(name)})
			}
			next = end
			if next < len(names) {
				page.NextLink = to.Ptr(fmt.Sprintf("https://test-vault.vault.azure.net/secrets?skip=%d", next))
			}
			return page, nil
		},
	})
}

// AzureNotFoundError creates a fake Azure not found error
func AzureNotFoundError(secretName string) error {
	return &azcore.ResponseError{
		StatusCode: 404,
		ErrorCode:  "SecretNotFound",
	}
}

// AzureForbiddenError creates a fake Azure forbidden error
func AzureForbiddenError() error {
	return &azcore.ResponseError{
		StatusCode: 403,
		ErrorCode:  "Forbidden",
	}
}

// AzureThrottledError creates a fake Azure throttled error
func AzureThrottledError() error {
	return &azcore.ResponseError{
		StatusCode: 429,
		ErrorCode:  "TooManyRequests",
	}
}

var _ contracts.KeyVaultClient = (*FakeAzureKeyVaultClient)(nil)
