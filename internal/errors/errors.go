package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/systmms/secretsadapter/pkg/provider"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context.
// It matches provider.ErrInvalidConfig under errors.Is.
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// Is reports whether target is provider.ErrInvalidConfig.
func (e ConfigError) Is(target error) bool {
	return target == provider.ErrInvalidConfig
}

// ProviderError enhances provider errors with a suggestion for the user
func ProviderError(providerType string, operation string, err error) error {
	return UserError{
		Message:    fmt.Sprintf("%s provider error during %s", providerType, operation),
		Suggestion: getProviderSuggestion(providerType, err),
		Err:        err,
	}
}

// getProviderSuggestion returns helpful suggestions based on provider and error
func getProviderSuggestion(providerType string, err error) string {
	if errors.Is(err, provider.ErrNotSupported) {
		return "This provider is read-only. Manage the secret in the backend's own UI or CLI"
	}
	if errors.Is(err, provider.ErrSessionExpired) {
		return "The provider session has expired. Run the command again to log in"
	}

	errStr := err.Error()

	switch providerType {
	case string(provider.TypeAzureKeyVault):
		if strings.Contains(errStr, "DefaultAzureCredential") || strings.Contains(errStr, "ClientSecretCredential") {
			return "Run 'az login' or set tenant_id, client_id and client_secret"
		}
		if strings.Contains(errStr, "Forbidden") || strings.Contains(errStr, "403") {
			return "Check the Key Vault access policy or RBAC role for this identity"
		}
		if strings.Contains(errStr, "Conflict") || strings.Contains(errStr, "409") {
			return "The secret is soft-deleted. Purge or recover it before writing again"
		}

	case string(provider.TypeBitwarden):
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "Unauthorized") {
			return "Check api_key. Vaultwarden tokens are issued per user"
		}
		if strings.Contains(errStr, "certificate") {
			return "Set ca_cert to the server's CA bundle"
		}

	case string(provider.TypeInfisical):
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "Unauthorized") {
			return "Check client_id and client_secret of the machine identity"
		}
		if strings.Contains(errStr, "403") || strings.Contains(errStr, "Forbidden") {
			return "Grant the machine identity access to the project and environment"
		}
	}

	// Generic suggestions
	if strings.Contains(errStr, "timeout") {
		return "The operation timed out. Check your network connection and try again"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Unable to connect. Check your network and provider configuration"
	}

	return ""
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"timeout",
		"temporary failure",
		"connection reset",
		"broken pipe",
		"rate limit",
		"throttling",
		"too many requests",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// SimplifyError simplifies complex error messages for users
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	// Unwrap to get the root cause
	rootErr := err
	for {
		unwrapped := errors.Unwrap(rootErr)
		if unwrapped == nil {
			break
		}
		rootErr = unwrapped
	}

	// Already a user-friendly error
	if _, ok := err.(UserError); ok {
		return err
	}
	if _, ok := err.(ConfigError); ok {
		return err
	}

	errStr := rootErr.Error()

	if strings.Contains(errStr, "yaml:") {
		return ConfigError{
			Message:    "Invalid YAML format",
			Suggestion: "Check for indentation errors and missing quotes",
		}
	}

	if strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Suggestion: "Verify the path exists and is spelled correctly",
			Err:        err,
		}
	}

	return err
}
