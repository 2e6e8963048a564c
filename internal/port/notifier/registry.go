package notifier

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// ErrUnknownProvider is returned by New for a name nobody registered.
var ErrUnknownProvider = errors.New("notifier: unknown provider")

// Factory builds a Notifier from its channel settings, such as
// {"webhook_url": "..."}. It returns ErrNotConfigured when a required
// setting is missing.
type Factory func(settings map[string]string) (Notifier, error)

var registry = struct {
	sync.RWMutex
	factories map[string]Factory
}{factories: map[string]Factory{}}

// Register adds a provider. Adapters call it from init; registering the
// same name twice panics.
func Register(name string, factory Factory) {
	registry.Lock()
	defer registry.Unlock()
	if _, dup := registry.factories[name]; dup {
		panic(fmt.Sprintf("notifier: %q registered twice", name))
	}
	registry.factories[name] = factory
}

// New builds the notifier registered as name.
func New(name string, settings map[string]string) (Notifier, error) {
	registry.RLock()
	factory, ok := registry.factories[name]
	registry.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownProvider, name)
	}
	n, err := factory(settings)
	if err != nil {
		return nil, fmt.Errorf("notifier %s: %w", name, err)
	}
	return n, nil
}

// Available lists the registered provider names in order.
func Available() []string {
	registry.RLock()
	defer registry.RUnlock()
	return slices.Sorted(maps.Keys(registry.factories))
}
