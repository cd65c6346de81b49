package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	dserrors "github.com/systmms/secretsadapter/internal/errors"
)

func NewSetCommand(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set KEY [VALUE]",
		Short: "Create or overwrite a secret",
		Long: `Store a secret in the selected provider.

When VALUE is omitted it is read from stdin, with one trailing newline removed.

Examples:
  secretsadapter set api-token s3cr3t
  openssl rand -hex 32 | secretsadapter --provider azure.keyvault set session-key`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			var value string
			if len(args) == 2 {
				value = args[1]
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return dserrors.UserError{
						Message: "Failed to read value from stdin",
						Err:     err,
					}
				}
				value = strings.TrimSuffix(strings.TrimSuffix(string(data), "\n"), "\r")
			}

			ctx, cancel := rt.Context(cmd.Context())
			defer cancel()

			p, err := rt.Provider(ctx)
			if err != nil {
				return err
			}

			if err := p.Set(ctx, key, value); err != nil {
				return providerError(p, "set", err)
			}

			rt.Config.Logger.Debug("stored %s in %s", key, p.Name())
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Stored %s\n", key)
			return nil
		},
	}

	return cmd
}
