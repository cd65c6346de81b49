package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func NewListCommand(rt *Runtime) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List secret keys",
		Long:  `Print the keys visible to the configured credentials, one per line.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := rt.Context(cmd.Context())
			defer cancel()

			p, err := rt.Provider(ctx)
			if err != nil {
				return err
			}

			keys, err := p.List(ctx)
			if err != nil {
				return providerError(p, "list", err)
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				if keys == nil {
					keys = []string{}
				}
				if err := json.NewEncoder(out).Encode(keys); err != nil {
					return fmt.Errorf("failed to encode JSON: %w", err)
				}
				return nil
			}
			for _, key := range keys {
				_, _ = fmt.Fprintln(out, key)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}
