package provider

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory resolves pre-configured provider instances by type.
//
// Adapters are constructed elsewhere (usually by a composition root reading
// configuration) and registered once; Provider only dispatches. Each type maps to its
// own instance.
type Factory struct {
	mu        sync.RWMutex
	providers map[Type]Provider
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{providers: make(map[Type]Provider)}
}

// Register makes p available under t. Surrounding whitespace in t is ignored here
// and in Provider.
func (f *Factory) Register(t Type, p Provider) error {
	t = normalizeType(t)
	if t == "" || p == nil {
		return errors.New("invalid provider registration")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.providers[t]; exists {
		return fmt.Errorf("provider type %q already registered", string(t))
	}
	f.providers[t] = p
	return nil
}

// Provider returns the instance registered under t.
//
// An unknown type yields *UnsupportedTypeError.
func (f *Factory) Provider(t Type) (Provider, error) {
	t = normalizeType(t)
	f.mu.RLock()
	p, ok := f.providers[t]
	f.mu.RUnlock()
	if !ok {
		return nil, &UnsupportedTypeError{Type: t}
	}
	return p, nil
}

// Types returns the registered types in sorted order.
func (f *Factory) Types() []Type {
	f.mu.RLock()
	defer f.mu.RUnlock()

	types := make([]Type, 0, len(f.providers))
	for t := range f.providers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func normalizeType(t Type) Type {
	return Type(strings.TrimSpace(string(t)))
}
