package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	dserrors "github.com/systmms/secretsadapter/internal/errors"
)

// EnvPrefix returns the environment variable prefix for a provider type,
// e.g. "azure.keyvault" becomes "SECRETS_AZURE_KEYVAULT".
func EnvPrefix(providerType string) string {
	r := strings.NewReplacer(".", "_", "-", "_")
	return "SECRETS_" + strings.ToUpper(r.Replace(providerType))
}

// Decode copies a raw provider section into out, which must be a pointer to a struct
// with yaml tags.
func Decode(section map[string]interface{}, out interface{}) error {
	data, err := yaml.Marshal(section)
	if err != nil {
		return fmt.Errorf("failed to re-encode provider section: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return dserrors.ConfigError{
			Message:    fmt.Sprintf("invalid provider settings: %v", err),
			Suggestion: "Check value types, e.g. timeout: 30s and max_concurrency: 8",
		}
	}
	return nil
}

// ApplyEnv overrides fields of out from environment variables named
// <EnvPrefix(providerType)>_<FIELD_NAME>, with field names split on word boundaries
// (split_words:"true"). Unset variables leave fields untouched.
//
// Fields must not carry envconfig tags: envconfig falls back to the bare tag name,
// so a tagged field would also read unrelated variables such as ENVIRONMENT.
func ApplyEnv(providerType string, out interface{}) error {
	prefix := EnvPrefix(providerType)
	if field, ok := envconfigTagged(out); ok {
		return fmt.Errorf("config field %s has an envconfig tag; use split_words instead", field)
	}
	if err := envconfig.Process(prefix, out); err != nil {
		return dserrors.ConfigError{
			Field:      prefix,
			Message:    err.Error(),
			Suggestion: fmt.Sprintf("Check the %s_* environment variables", prefix),
		}
	}
	return nil
}

// envconfigTagged returns the first field of the struct behind out with an envconfig tag.
func envconfigTagged(out interface{}) (string, bool) {
	t := reflect.TypeOf(out)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return "", false
	}
	for i := 0; i < t.NumField(); i++ {
		if _, ok := t.Field(i).Tag.Lookup("envconfig"); ok {
			return t.Field(i).Name, true
		}
	}
	return "", false
}

// LoadProvider decodes a provider section into out, applies environment overrides, resolves
// keyring references in credential fields and validates the result.
func LoadProvider(providerType string, section map[string]interface{}, out interface{}, credentials ...*string) error {
	if err := Decode(section, out); err != nil {
		return err
	}
	if err := ApplyEnv(providerType, out); err != nil {
		return err
	}
	if err := ResolveCredentials(credentials...); err != nil {
		return err
	}
	return Validate("providers."+providerType, out)
}
