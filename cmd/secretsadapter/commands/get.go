package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	dserrors "github.com/systmms/secretsadapter/internal/errors"
)

// secretOutput is the JSON form of a single lookup.
type secretOutput struct {
	Key    string `json:"key"`
	Value  string `json:"value,omitempty"`
	Exists bool   `json:"exists"`
}

func NewGetCommand(rt *Runtime) *cobra.Command {
	var (
		jsonOutput   bool
		allowMissing bool
	)

	cmd := &cobra.Command{
		Use:   "get KEY [KEY...]",
		Short: "Get secret values",
		Long: `Retrieve one or more secrets from the selected provider.

A single key prints the raw value, suitable for scripting. Several keys are
fetched concurrently and printed as KEY="value" lines.

Examples:
  # Get a single value
  secretsadapter get db-password

  # Fetch several keys from Infisical as a .env fragment
  secretsadapter --provider infisical get DB_USER DB_PASSWORD > .env

  # Use in scripts
  export DB_PASSWORD=$(secretsadapter get db-password)`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := rt.Context(cmd.Context())
			defer cancel()

			p, err := rt.Provider(ctx)
			if err != nil {
				return err
			}

			values, err := p.GetMany(ctx, args)
			if err != nil {
				return providerError(p, "get", err)
			}

			var missing []string
			outputs := make([]secretOutput, 0, len(args))
			dotenv := make(map[string]string, len(args))
			seen := make(map[string]bool, len(args))
			for _, key := range args {
				if seen[key] {
					continue
				}
				seen[key] = true

				v := values[key]
				if !v.Exists {
					missing = append(missing, key)
				} else {
					dotenv[key] = v.Value
				}
				outputs = append(outputs, secretOutput{Key: key, Value: v.Value, Exists: v.Exists})
			}

			if len(missing) > 0 && !allowMissing {
				return dserrors.UserError{
					Message:    fmt.Sprintf("Secret not found in %s: %s", p.Name(), strings.Join(missing, ", ")),
					Suggestion: "Check the key name with 'secretsadapter list', or pass --allow-missing",
				}
			}

			out := cmd.OutOrStdout()
			switch {
			case jsonOutput:
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(outputs); err != nil {
					return fmt.Errorf("failed to encode JSON: %w", err)
				}
			case len(outputs) == 1:
				_, _ = fmt.Fprint(out, outputs[0].Value)
			default:
				content, err := godotenv.Marshal(dotenv)
				if err != nil {
					return fmt.Errorf("failed to format values: %w", err)
				}
				_, _ = fmt.Fprintln(out, content)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	cmd.Flags().BoolVar(&allowMissing, "allow-missing", false, "Do not fail when a key does not exist")

	return cmd
}
