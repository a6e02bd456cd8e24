package archive

import (
	"fmt"
	"sync"

	"github.com/emberlab/emberc/internal/graph"
)

// Factory constructs a blank op of one kind; its fields are filled from
// the archive afterwards.
type Factory func() graph.Op

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// RegisterOp registers the factory for an op name. Ops register themselves
// from init; a duplicate name is a programming error and panics.
func RegisterOp(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("op %q already registered", name))
	}
	registry[name] = f
}

// lookupOp returns the factory for a saved op name.
func lookupOp(name string) (Factory, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("no op registered under name %q", name)
	}
	return f, nil
}

// RegisteredOps returns the registered op names, for diagnostics.
func RegisteredOps() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
