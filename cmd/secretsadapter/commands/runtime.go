package commands

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/systmms/secretsadapter/internal/config"
	dserrors "github.com/systmms/secretsadapter/internal/errors"
	"github.com/systmms/secretsadapter/internal/metrics"
	"github.com/systmms/secretsadapter/internal/providers"
	"github.com/systmms/secretsadapter/pkg/provider"
)

// Runtime carries the global flags and builds providers for commands.
type Runtime struct {
	Config *config.Config

	// ProviderType selects the provider; empty uses the configured default
	ProviderType string

	// Timeout bounds each command; zero means no limit
	Timeout time.Duration

	// MetricsFile, if set, receives operation metrics when the command ends
	MetricsFile string

	Registry *providers.Registry

	metrics  *metrics.Metrics
	gatherer *prometheus.Registry
}

// NewRuntime creates a Runtime with the built-in providers.
func NewRuntime(cfg *config.Config) *Runtime {
	return &Runtime{
		Config:   cfg,
		Registry: providers.NewRegistry(),
	}
}

// Context returns a context bounded by Timeout.
func (r *Runtime) Context(parent context.Context) (context.Context, context.CancelFunc) {
	if r.Timeout > 0 {
		return context.WithTimeout(parent, r.Timeout)
	}
	return context.WithCancel(parent)
}

// Definition loads the configuration once.
func (r *Runtime) Definition() (*config.Definition, error) {
	if r.Config.Definition == nil {
		if err := r.Config.Load(); err != nil {
			return nil, err
		}
	}
	return r.Config.Definition, nil
}

// Provider builds the selected provider.
func (r *Runtime) Provider(ctx context.Context) (provider.Provider, error) {
	def, err := r.Definition()
	if err != nil {
		return nil, err
	}

	providerType := r.ProviderType
	if providerType == "" {
		if providerType, err = def.DefaultType(); err != nil {
			return nil, err
		}
	}
	if !r.Registry.IsSupported(providerType) {
		return nil, &provider.UnsupportedTypeError{Type: provider.Type(providerType)}
	}

	factory, err := r.Build(ctx, def, provider.Type(providerType))
	if err != nil {
		return nil, err
	}
	return factory.Provider(provider.Type(providerType))
}

// Build constructs the given types, or every configured type when none are given.
func (r *Runtime) Build(ctx context.Context, def *config.Definition, types ...provider.Type) (*provider.Factory, error) {
	opts := providers.BuildOptions{
		Logger: r.Config.Logger,
		Types:  types,
	}
	if r.MetricsFile != "" {
		if r.metrics == nil {
			r.gatherer = prometheus.NewRegistry()
			r.metrics = metrics.New(r.gatherer)
		}
		opts.Decorate = func(p provider.Provider) provider.Provider {
			return metrics.Instrument(p, r.metrics)
		}
	}
	return r.Registry.Build(ctx, def, opts)
}

// Flush writes collected metrics to MetricsFile.
func (r *Runtime) Flush() error {
	if r.MetricsFile == "" || r.gatherer == nil {
		return nil
	}
	return metrics.WriteTextfile(r.MetricsFile, r.gatherer)
}

// providerError adds a user-facing suggestion to an operation failure.
// Cancellation passes through unchanged.
func providerError(p provider.Provider, op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return dserrors.ProviderError(p.Name(), op, err)
}
