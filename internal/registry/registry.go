// Package registry implements the project communicator: a session-scoped
// table binding unique names to component instances so loosely coupled
// subsystems can reach each other without static construction dependencies.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/couchcryptid/seismic-project-service/internal/domain"
)

// DuplicateNameError reports an attempt to register a name twice.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("component %q already registered", e.Name)
}

// Communicator maps component names to component instances. There is no
// removal: a binding lives as long as the owning project session. Callers are
// responsible for registering components in dependency order; the
// communicator does not enforce it.
type Communicator struct {
	mu         sync.RWMutex
	components map[string]any
}

// New creates an empty Communicator.
func New() *Communicator {
	return &Communicator{components: make(map[string]any)}
}

// Register binds name to component. It fails with a *DuplicateNameError if
// the name is already bound.
func (c *Communicator) Register(name string, component any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.components[name]; ok {
		return &DuplicateNameError{Name: name}
	}
	c.components[name] = component
	return nil
}

// Get returns the component bound to name, or a *domain.NotFoundError if the
// name is unbound.
func (c *Communicator) Get(name string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	component, ok := c.components[name]
	if !ok {
		return nil, &domain.NotFoundError{Kind: "component", Name: name}
	}
	return component, nil
}

// Names returns all bound names in sorted order.
func (c *Communicator) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.components))
	for name := range c.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
