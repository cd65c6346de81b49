package testutil

import (
	"os"
	"testing"
)

// SetupTestEnv sets environment variables for the duration of a test.
//
// The original environment is restored automatically when the test completes.
// This uses t.Cleanup() to ensure cleanup happens even if the test fails.
//
// Example usage:
//
//	SetupTestEnv(t, map[string]string{
//	    "SECRETS_BITWARDEN_API_KEY": "token",
//	    "SECRETS_INFISICAL_ENVIRONMENT": "staging",
//	})
//
// Parameters:
//   - t: Testing context
//   - vars: Map of environment variable names to values
func SetupTestEnv(t *testing.T, vars map[string]string) {
	t.Helper()

	// Store original values for cleanup
	original := make(map[string]string)
	unset := make([]string, 0)

	for key, value := range vars {
		// Store original value
		if orig, ok := os.LookupEnv(key); ok {
			original[key] = orig
		} else {
			unset = append(unset, key)
		}

		// Set new value
		if err := os.Setenv(key, value); err != nil {
			t.Fatalf("Failed to set environment variable %s: %v", key, err)
		}
	}

	// Register cleanup to restore original environment
	t.Cleanup(func() {
		// Restore original values
		for key, value := range original {
			if err := os.Setenv(key, value); err != nil {
				t.Errorf("Failed to restore environment variable %s: %v", key, err)
			}
		}

		// Unset variables that weren't originally set
		for _, key := range unset {
			if err := os.Unsetenv(key); err != nil {
				t.Errorf("Failed to unset environment variable %s: %v", key, err)
			}
		}
	})
}

// RequireEnv returns the values of the named variables, skipping the test when
// any of them is unset. Live backend tests use it to run only where credentials
// are available.
func RequireEnv(t *testing.T, names ...string) map[string]string {
	t.Helper()

	values := make(map[string]string, len(names))
	for _, name := range names {
		value, ok := os.LookupEnv(name)
		if !ok || value == "" {
			t.Skipf("%s not set", name)
		}
		values[name] = value
	}
	return values
}
