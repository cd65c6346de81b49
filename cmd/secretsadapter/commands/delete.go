package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewDeleteCommand(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete KEY",
		Short: "Delete a secret",
		Long: `Remove a secret from the selected provider.

Deleting a key that does not exist succeeds. For Azure Key Vault the command
waits until the deletion has completed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := rt.Context(cmd.Context())
			defer cancel()

			p, err := rt.Provider(ctx)
			if err != nil {
				return err
			}

			if err := p.Delete(ctx, args[0]); err != nil {
				return providerError(p, "delete", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}

	return cmd
}
