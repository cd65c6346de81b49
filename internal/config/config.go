package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	dserrors "github.com/systmms/secretsadapter/internal/errors"
	"github.com/systmms/secretsadapter/internal/logging"
)

// DefaultPath is the configuration file looked up when no path is given.
const DefaultPath = "secretsadapter.yaml"

// CurrentVersion is the only configuration version understood.
const CurrentVersion = 1

//go:embed schema.json
var schemaJSON []byte

// Config holds the runtime configuration
type Config struct {
	Path       string
	EnvFile    string // optional .env file; missing files are ignored
	Logger     *logging.Logger
	Definition *Definition
}

// Definition represents the secretsadapter.yaml structure.
type Definition struct {
	Version   int                               `yaml:"version"`
	Default   string                            `yaml:"default,omitempty"`
	Providers map[string]map[string]interface{} `yaml:"providers"`
}

// Load reads, schema-validates and parses the configuration file.
func (c *Config) Load() error {
	if c.Logger == nil {
		c.Logger = logging.Discard()
	}
	if c.Path == "" {
		c.Path = DefaultPath
	}

	if err := c.loadEnvFile(); err != nil {
		return err
	}

	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return dserrors.ConfigError{
				Field:      "path",
				Value:      c.Path,
				Message:    "configuration file not found",
				Suggestion: "Create secretsadapter.yaml or pass --config",
			}
		}
		return dserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	def, err := Parse(data)
	if err != nil {
		return err
	}

	c.Logger.Debug("loaded configuration from %s with %d provider(s)", c.Path, len(def.Providers))
	c.Definition = def
	return nil
}

// loadEnvFile populates the process environment from EnvFile without overriding
// variables that are already set. Skipped when ENV is production.
func (c *Config) loadEnvFile() error {
	if c.EnvFile == "" {
		return nil
	}
	if env := os.Getenv("ENV"); env == "production" || env == "prod" {
		return nil
	}
	if err := godotenv.Load(c.EnvFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.Logger.Debug("no env file at %s", c.EnvFile)
			return nil
		}
		return dserrors.ConfigError{
			Field:      "env_file",
			Value:      c.EnvFile,
			Message:    fmt.Sprintf("unable to load env file: %v", err),
			Suggestion: "Use KEY=value lines in the env file",
		}
	}
	return nil
}

// Parse validates data against the configuration schema and decodes it.
func Parse(data []byte) (*Definition, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, dserrors.ConfigError{
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters",
		}
	}
	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, dserrors.ConfigError{
			Message:    fmt.Sprintf("unable to decode configuration: %v", err),
			Suggestion: "Compare the file against the documented layout",
		}
	}

	if def.Default != "" {
		if _, ok := def.Providers[def.Default]; !ok {
			return nil, dserrors.ConfigError{
				Field:      "default",
				Value:      def.Default,
				Message:    "default provider is not configured",
				Suggestion: fmt.Sprintf("Configured providers: %s", strings.Join(def.ProviderTypes(), ", ")),
			}
		}
	}

	return &def, nil
}

func validateSchema(doc interface{}) error {
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration for validation: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(jsonData),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	var messages []string
	for _, desc := range result.Errors() {
		messages = append(messages, desc.String())
	}
	return dserrors.ConfigError{
		Field:      result.Errors()[0].Field(),
		Message:    "schema validation failed:\n  - " + strings.Join(messages, "\n  - "),
		Suggestion: "Check field names and types under 'providers:'",
	}
}

// ProviderTypes returns the configured provider types in sorted order.
func (d *Definition) ProviderTypes() []string {
	types := make([]string, 0, len(d.Providers))
	for t := range d.Providers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Provider returns the raw section for a provider type.
func (d *Definition) Provider(providerType string) (map[string]interface{}, error) {
	section, ok := d.Providers[providerType]
	if !ok {
		suggestion := "Add the provider to the 'providers:' section of secretsadapter.yaml"
		if types := d.ProviderTypes(); len(types) > 0 {
			suggestion = fmt.Sprintf("Configured providers: %s", strings.Join(types, ", "))
		}
		return nil, dserrors.ConfigError{
			Field:      "provider",
			Value:      providerType,
			Message:    "provider not found in configuration",
			Suggestion: suggestion,
		}
	}
	if section == nil {
		section = map[string]interface{}{}
	}
	return section, nil
}

// DefaultType returns the provider type used when none is requested: the configured
// default, or the only provider when exactly one is configured.
func (d *Definition) DefaultType() (string, error) {
	if d.Default != "" {
		return d.Default, nil
	}
	if len(d.Providers) == 1 {
		return d.ProviderTypes()[0], nil
	}
	return "", dserrors.ConfigError{
		Field:      "default",
		Message:    "no default provider configured",
		Suggestion: "Set 'default:' in secretsadapter.yaml or pass --provider",
	}
}
