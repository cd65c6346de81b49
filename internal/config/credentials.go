package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	dserrors "github.com/systmms/secretsadapter/internal/errors"
)

// KeyringPrefix marks a credential value stored in the OS keyring:
// "keyring:<service>/<account>".
const KeyringPrefix = "keyring:"

// ResolveCredential returns value unchanged unless it is a keyring reference, in
// which case the referenced item is read from the OS keyring.
func ResolveCredential(value string) (string, error) {
	ref, ok := strings.CutPrefix(value, KeyringPrefix)
	if !ok {
		return value, nil
	}

	service, account, found := strings.Cut(ref, "/")
	if !found || service == "" || account == "" {
		return "", dserrors.ConfigError{
			Value:      value,
			Message:    "malformed keyring reference",
			Suggestion: "Use keyring:<service>/<account>",
		}
	}

	secret, err := keyring.Get(service, account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", dserrors.ConfigError{
				Value:      value,
				Message:    "keyring item not found",
				Suggestion: fmt.Sprintf("Store it first, e.g. with your OS keychain tool under service %q", service),
			}
		}
		return "", dserrors.UserError{
			Message:    "Failed to read credential from OS keyring",
			Suggestion: "Unlock the keyring or provide the credential through the environment",
			Err:        err,
		}
	}
	return secret, nil
}

// ResolveCredentials resolves every pointed-to value in place.
func ResolveCredentials(values ...*string) error {
	for _, v := range values {
		if v == nil {
			continue
		}
		resolved, err := ResolveCredential(*v)
		if err != nil {
			return err
		}
		*v = resolved
	}
	return nil
}
