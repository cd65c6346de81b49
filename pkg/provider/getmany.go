package provider

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds GetMany fan-out when an adapter does not configure a limit.
const DefaultConcurrency = 8

// Getter is the single-key lookup GetMany fans out over.
type Getter interface {
	Get(ctx context.Context, key string) (SecretValue, error)
}

// GetMany resolves keys concurrently through g.Get, at most limit at a time.
//
// Each key is resolved independently: an absent key maps to Absent(), and a key whose
// lookup fails is left out of the result and reported in the returned *BatchError.
// A failing key never cancels its siblings. Duplicate keys are looked up once.
//
// If ctx is done once all lookups have joined, GetMany returns ctx.Err() and a nil map.
func GetMany(ctx context.Context, g Getter, keys []string, limit int) (map[string]SecretValue, error) {
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	unique := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, k)
	}

	var (
		mu       sync.Mutex
		results  = make(map[string]SecretValue, len(unique))
		failures map[string]error
	)

	var eg errgroup.Group
	eg.SetLimit(limit)
	for _, key := range unique {
		eg.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			v, err := g.Get(ctx, key)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if failures == nil {
					failures = make(map[string]error)
				}
				failures[key] = err
				return nil
			}
			results[key] = v
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(failures) > 0 {
		return results, &BatchError{Failures: failures}
	}
	return results, nil
}
