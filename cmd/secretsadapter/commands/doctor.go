package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	dserrors "github.com/systmms/secretsadapter/internal/errors"
	"github.com/systmms/secretsadapter/pkg/provider"
)

// ProviderHealth represents the health status of a provider
type ProviderHealth struct {
	Type         string
	Status       string // healthy, error
	Message      string
	Capabilities provider.Capabilities
	Suggestion   string
}

func NewDoctorCommand(rt *Runtime) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check provider connectivity and configuration",
		Long: `Verify that providers are properly configured and accessible.

Every configured provider is built (which authenticates where the backend
requires it) and asked to list its keys.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt.Config.Logger.Info("Checking configuration...")
			def, err := rt.Definition()
			if err != nil {
				return err
			}

			ctx, cancel := rt.Context(cmd.Context())
			defer cancel()

			results := make([]ProviderHealth, 0, len(def.Providers))
			for _, providerType := range def.ProviderTypes() {
				results = append(results, checkProvider(ctx, rt, provider.Type(providerType)))
			}

			displayHealthResults(cmd.OutOrStdout(), results, verbose)

			healthy := 0
			for _, result := range results {
				if result.Status == "healthy" {
					healthy++
				}
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nSummary: %d/%d providers healthy\n", healthy, len(results))
			if healthy < len(results) {
				return dserrors.UserError{
					Message:    "some providers are not healthy",
					Suggestion: "Run with --verbose for suggestions",
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&verbose, "verbose", false, "Show capabilities and suggestions")

	return cmd
}

func checkProvider(ctx context.Context, rt *Runtime, providerType provider.Type) ProviderHealth {
	health := ProviderHealth{Type: string(providerType)}

	fail := func(op string, err error) ProviderHealth {
		health.Status = "error"
		health.Message = firstLine(err.Error())
		var userErr dserrors.UserError
		if errors.As(dserrors.ProviderError(string(providerType), op, err), &userErr) {
			health.Suggestion = userErr.Suggestion
		}
		return health
	}

	factory, err := rt.Build(ctx, rt.Config.Definition, providerType)
	if err != nil {
		return fail("connect", err)
	}
	p, err := factory.Provider(providerType)
	if err != nil {
		return fail("connect", err)
	}

	health.Capabilities = p.Capabilities()
	keys, err := p.List(ctx)
	if err != nil {
		return fail("list", err)
	}

	health.Status = "healthy"
	health.Message = fmt.Sprintf("%d keys visible", len(keys))
	return health
}

// displayHealthResults shows provider health in a formatted table
func displayHealthResults(out io.Writer, results []ProviderHealth, verbose bool) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "PROVIDER\tSTATUS\tMESSAGE\n")
	_, _ = fmt.Fprintf(w, "--------\t------\t-------\n")

	for _, result := range results {
		status := "✗ " + result.Status
		if result.Status == "healthy" {
			status = "✓ " + result.Status
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", result.Type, status, result.Message)
	}
	_ = w.Flush()

	if !verbose {
		return
	}
	for _, result := range results {
		_, _ = fmt.Fprintf(out, "\n%s:\n", result.Type)
		caps := result.Capabilities
		_, _ = fmt.Fprintf(out, "  read-only: %t\n", caps.ReadOnly)
		_, _ = fmt.Fprintf(out, "  case-insensitive keys: %t\n", caps.CaseInsensitiveKeys)
		if len(caps.AuthMethods) > 0 {
			_, _ = fmt.Fprintf(out, "  auth: %s\n", strings.Join(caps.AuthMethods, ", "))
		}
		if result.Suggestion != "" {
			_, _ = fmt.Fprintf(out, "  💡 %s\n", result.Suggestion)
		}
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
