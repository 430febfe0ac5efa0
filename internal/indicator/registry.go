package indicator

import (
	"sync"

	"github.com/replay-lab/replay-trading/internal/types"
	"github.com/replay-lab/replay-trading/pkg/errors"
)

// Factory builds a fresh indicator instance with default configuration.
// The evaluator configures each instance per condition reference, so
// instances are never shared between references.
type Factory func() Indicator

// Registry manages all available indicator factories.
type Registry interface {
	Register(factory Factory) error
	Create(name types.IndicatorType) (Indicator, error)
	List() []types.IndicatorType
	Remove(name types.IndicatorType) error
}

// RegistryV1 manages all available indicator factories.
type RegistryV1 struct {
	factories map[types.IndicatorType]Factory
	mu        sync.RWMutex
}

// NewRegistry creates a registry pre-populated with every built-in
// indicator.
func NewRegistry() Registry {
	r := &RegistryV1{
		factories: make(map[types.IndicatorType]Factory),
		mu:        sync.RWMutex{},
	}

	// Registration of built-ins cannot collide.
	_ = r.Register(NewRSI)
	_ = r.Register(NewSMA)
	_ = r.Register(NewEMA)
	_ = r.Register(NewMACD)
	_ = r.Register(NewBollingerBands)
	_ = r.Register(NewATR)

	return r
}

// Register adds an indicator factory to the registry.
func (r *RegistryV1) Register(factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := factory().Name()
	if _, exists := r.factories[name]; exists {
		return errors.Newf(errors.ErrCodeIndicatorAlreadyExists, "indicator with name %s already registered", name)
	}

	r.factories[name] = factory

	return nil
}

// Create builds a fresh instance of the named indicator.
func (r *RegistryV1) Create(name types.IndicatorType) (Indicator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.factories[name]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator with name %s not found", name)
	}

	return factory(), nil
}

// List returns the names of all registered indicators.
func (r *RegistryV1) List() []types.IndicatorType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]types.IndicatorType, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}

	return names
}

// Remove removes an indicator factory from the registry.
func (r *RegistryV1) Remove(name types.IndicatorType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[name]; !exists {
		return errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator with name %s not found", name)
	}

	delete(r.factories, name)

	return nil
}
