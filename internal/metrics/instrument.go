package metrics

import (
	"context"
	"time"

	"github.com/systmms/secretsadapter/pkg/provider"
)

// instrumented decorates a Provider with operation metrics.
type instrumented struct {
	provider.Provider
	metrics *Metrics
	now     func() time.Time
}

// Instrument wraps p so that every operation is recorded in m.
// Errors and values pass through unchanged.
func Instrument(p provider.Provider, m *Metrics) provider.Provider {
	return &instrumented{Provider: p, metrics: m, now: time.Now}
}

func (i *instrumented) observe(op string, start time.Time, outcome string) {
	i.metrics.Record(i.Name(), op, outcome, i.now().Sub(start))
}

func (i *instrumented) Get(ctx context.Context, key string) (provider.SecretValue, error) {
	start := i.now()
	v, err := i.Provider.Get(ctx, key)

	outcome := Outcome(err)
	if err == nil && !v.Exists {
		outcome = OutcomeAbsent
	}
	i.observe("get", start, outcome)
	return v, err
}

// GetMany fans out through the instrumented Get so that every key is recorded,
// then records the batch as a whole.
func (i *instrumented) GetMany(ctx context.Context, keys []string) (map[string]provider.SecretValue, error) {
	start := i.now()
	values, err := provider.GetMany(ctx, i, keys, provider.DefaultConcurrency)
	i.observe("get_many", start, Outcome(err))
	return values, err
}

func (i *instrumented) Set(ctx context.Context, key, value string) error {
	start := i.now()
	err := i.Provider.Set(ctx, key, value)
	i.observe("set", start, Outcome(err))
	return err
}

func (i *instrumented) Delete(ctx context.Context, key string) error {
	start := i.now()
	err := i.Provider.Delete(ctx, key)
	i.observe("delete", start, Outcome(err))
	return err
}

func (i *instrumented) List(ctx context.Context) ([]string, error) {
	start := i.now()
	keys, err := i.Provider.List(ctx)
	i.observe("list", start, Outcome(err))
	return keys, err
}
