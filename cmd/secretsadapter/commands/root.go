package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/secretsadapter/internal/config"
	"github.com/systmms/secretsadapter/internal/logging"
)

// NewRootCommand wires the global flags into rt and adds every subcommand.
func NewRootCommand(rt *Runtime, version string) *cobra.Command {
	var (
		noColor bool
		debug   bool
	)

	rootCmd := &cobra.Command{
		Use:   "secretsadapter",
		Short: "Read and write secrets across Azure Key Vault, Bitwarden and Infisical",
		Long: `secretsadapter talks to one of several secret stores through a single
interface. The backend is chosen in secretsadapter.yaml or with --provider.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Keep an injected logger unless a flag asks for different output
			if rt.Config.Logger == nil || cmd.Flags().Changed("debug") || cmd.Flags().Changed("no-color") {
				rt.Config.Logger = logging.NewWithWriter(cmd.ErrOrStderr(), debug, noColor)
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rt.Config.Path, "config", config.DefaultPath, "Config file path")
	flags.StringVar(&rt.Config.EnvFile, "env-file", ".env", "Load environment variables from this file if it exists")
	flags.StringVarP(&rt.ProviderType, "provider", "p", "", "Provider type to use (default: the configured default)")
	flags.DurationVar(&rt.Timeout, "timeout", 0, "Abort the command after this long (e.g. 30s)")
	flags.StringVar(&rt.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this file when done")
	flags.BoolVar(&noColor, "no-color", false, "Disable colored output")
	flags.BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		NewGetCommand(rt),
		NewSetCommand(rt),
		NewDeleteCommand(rt),
		NewListCommand(rt),
		NewProvidersCommand(rt),
		NewDoctorCommand(rt),
		NewCompletionCommand(),
	)

	return rootCmd
}
