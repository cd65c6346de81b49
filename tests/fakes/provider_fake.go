package fakes

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/systmms/secretsadapter/pkg/provider"
)

// FakeProvider is an in-memory implementation of provider.Provider.
//
// It follows the full provider contract (absent keys, idempotent delete, context
// handling) and can be configured to fail specific keys or to behave read-only.
//
// Example usage:
//
//	fake := fakes.NewFakeProvider("test").
//	    WithSecret("db/password", "secret123").
//	    WithError("api/key", errors.New("connection failed"))
//
//	v, err := fake.Get(ctx, "db/password")
type FakeProvider struct {
	name         string
	capabilities provider.Capabilities

	secrets map[string]string

	failOn    map[string]error // key -> error to return
	listErr   error
	delay     time.Duration
	callCount map[string]int

	mu sync.RWMutex
}

// NewFakeProvider creates a writable FakeProvider with no secrets.
func NewFakeProvider(name string) *FakeProvider {
	return &FakeProvider{
		name:      name,
		secrets:   make(map[string]string),
		failOn:    make(map[string]error),
		callCount: make(map[string]int),
		capabilities: provider.Capabilities{
			AuthMethods: []string{},
		},
	}
}

// WithSecret stores a secret.
func (f *FakeProvider) WithSecret(key, value string) *FakeProvider {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.secrets[key] = value
	return f
}

// WithError makes every operation on key fail with err wrapped in *provider.OperationError.
func (f *FakeProvider) WithError(key string, err error) *FakeProvider {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn[key] = err
	return f
}

// WithListError makes List fail.
func (f *FakeProvider) WithListError(err error) *FakeProvider {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
	return f
}

// WithReadOnly rejects Set and Delete with *provider.UnsupportedOperationError.
func (f *FakeProvider) WithReadOnly() *FakeProvider {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.capabilities.ReadOnly = true
	return f
}

// WithDelay simulates backend latency on every call. The delay honors ctx.
func (f *FakeProvider) WithDelay(d time.Duration) *FakeProvider {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
	return f
}

// Seed stores a secret bypassing read-only checks.
func (f *FakeProvider) Seed(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.secrets[key] = value
}

// CallCount returns how many times method ("get", "set", "delete", "list") was called.
func (f *FakeProvider) CallCount(method string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.callCount[method]
}

// Name implements provider.Provider.
func (f *FakeProvider) Name() string {
	return f.name
}

// Get implements provider.Provider.
func (f *FakeProvider) Get(ctx context.Context, key string) (provider.SecretValue, error) {
	if err := f.enter(ctx, "get"); err != nil {
		return provider.SecretValue{}, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if err, ok := f.failOn[key]; ok {
		return provider.SecretValue{}, provider.Fail(ctx, f.name, "get", key, err)
	}
	value, ok := f.secrets[key]
	if !ok {
		return provider.Absent(), nil
	}
	return provider.Found(value), nil
}

// GetMany implements provider.Provider.
func (f *FakeProvider) GetMany(ctx context.Context, keys []string) (map[string]provider.SecretValue, error) {
	return provider.GetMany(ctx, f, keys, provider.DefaultConcurrency)
}

// Set implements provider.Provider.
func (f *FakeProvider) Set(ctx context.Context, key, value string) error {
	if f.Capabilities().ReadOnly {
		return &provider.UnsupportedOperationError{Provider: f.name, Op: "set"}
	}
	if err := f.enter(ctx, "set"); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.failOn[key]; ok {
		return provider.Fail(ctx, f.name, "set", key, err)
	}
	f.secrets[key] = value
	return nil
}

// Delete implements provider.Provider.
func (f *FakeProvider) Delete(ctx context.Context, key string) error {
	if f.Capabilities().ReadOnly {
		return &provider.UnsupportedOperationError{Provider: f.name, Op: "delete"}
	}
	if err := f.enter(ctx, "delete"); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err, ok := f.failOn[key]; ok {
		return provider.Fail(ctx, f.name, "delete", key, err)
	}
	delete(f.secrets, key)
	return nil
}

// List implements provider.Provider. Keys are returned sorted.
func (f *FakeProvider) List(ctx context.Context) ([]string, error) {
	if err := f.enter(ctx, "list"); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.listErr != nil {
		return nil, provider.Fail(ctx, f.name, "list", "", f.listErr)
	}
	keys := make([]string, 0, len(f.secrets))
	for k := range f.secrets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Capabilities implements provider.Provider.
func (f *FakeProvider) Capabilities() provider.Capabilities {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.capabilities
}

// enter records the call and waits out the configured delay.
func (f *FakeProvider) enter(ctx context.Context, method string) error {
	f.mu.Lock()
	f.callCount[method]++
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return ctx.Err()
}

var _ provider.Provider = (*FakeProvider)(nil)
