// Package fakes provides test doubles for the secret store adapters.
//
// This package contains fake implementations of backend client interfaces and
// fake HTTP servers that allow unit testing of adapters without real service
// dependencies. Fakes are manually implemented (not generated) to provide precise
// control over test behavior.
//
// Usage:
//
//	fake := fakes.NewFakeAzureKeyVaultClient()
//	fake.AddSecretString("api-key", "secret123")
//	p, err := providers.NewAzureKeyVaultProvider("azure.keyvault", cfg,
//	    providers.WithAzureKeyVaultClient(fake))
//	// Test provider methods...
package fakes
