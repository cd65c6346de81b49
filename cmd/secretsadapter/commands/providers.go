package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/secretsadapter/pkg/provider"
)

func NewProvidersCommand(rt *Runtime) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List available providers",
		Long: `Display information about available secret providers.

Shows both built-in provider types and the providers configured in
secretsadapter.yaml.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			_, _ = fmt.Fprintln(out, "Built-in Provider Types:")
			_, _ = fmt.Fprintln(out, "=======================")

			supportedTypes := rt.Registry.GetSupportedTypes()

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "TYPE\tDESCRIPTION\n")
			_, _ = fmt.Fprintf(w, "----\t-----------\n")
			for _, providerType := range supportedTypes {
				_, _ = fmt.Fprintf(w, "%s\t%s\n", providerType, getProviderDescription(providerType))
			}
			_ = w.Flush()

			// Show configured providers if config is available
			if def, err := rt.Definition(); err == nil {
				_, _ = fmt.Fprintln(out, "\nConfigured Providers:")
				_, _ = fmt.Fprintln(out, "====================")

				defaultType, _ := def.DefaultType()
				w2 := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintf(w2, "TYPE\tSTATUS\n")
				_, _ = fmt.Fprintf(w2, "----\t------\n")
				for _, providerType := range def.ProviderTypes() {
					status := "configured"
					if !rt.Registry.IsSupported(providerType) {
						status = "unsupported"
					}
					if providerType == defaultType {
						status += " (default)"
					}
					_, _ = fmt.Fprintf(w2, "%s\t%s\n", providerType, status)
				}
				_ = w2.Flush()
			} else {
				rt.Config.Logger.Debug("configuration not loaded: %v", err)
			}

			if verbose {
				_, _ = fmt.Fprintln(out, "\nProvider Details:")
				_, _ = fmt.Fprintln(out, "================")
				for _, providerType := range supportedTypes {
					_, _ = fmt.Fprintf(out, "\n%s:\n", providerType)
					for _, detail := range getProviderDetails(providerType) {
						_, _ = fmt.Fprintf(out, "  • %s\n", detail)
					}
				}
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&verbose, "verbose", false, "Show detailed provider information")

	return cmd
}

// getProviderDescription returns a description for a provider type
func getProviderDescription(providerType string) string {
	descriptions := map[string]string{
		string(provider.TypeAzureKeyVault): "Azure Key Vault",
		string(provider.TypeBitwarden):     "Bitwarden / Vaultwarden (read-only)",
		string(provider.TypeInfisical):     "Infisical open-source secret management platform",
	}

	if desc, exists := descriptions[providerType]; exists {
		return desc
	}
	return "No description available"
}

// getProviderDetails returns detailed information for a provider type
func getProviderDetails(providerType string) []string {
	details := map[string][]string{
		string(provider.TypeAzureKeyVault): {
			"Uses the Azure SDK for Go (azsecrets)",
			"Service principal auth with tenant_id, client_id, client_secret",
			"Falls back to the default Azure credential chain (az login, managed identity)",
			"Delete waits until the secret is soft-deleted",
		},
		string(provider.TypeBitwarden): {
			"Talks to the server API directly, no 'bw' CLI required",
			"Authenticates with a bearer api_key",
			"Key is the item name, matched case-insensitively",
			"Value is the login password, a 'password' field, or the notes",
			"Set and delete are not supported",
		},
		string(provider.TypeInfisical): {
			"Universal auth with a machine identity (client_id, client_secret)",
			"Logs in once; commands fail once the access token expires",
			"Scoped to project_id, environment and secret_path",
		},
	}

	return details[providerType]
}
