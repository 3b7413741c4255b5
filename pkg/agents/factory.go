package agents

import (
	"sort"
	"sync"

	"github.com/morezero/condo-orchestrator/pkg/ai"
	"github.com/morezero/condo-orchestrator/pkg/catalog"
	"github.com/morezero/condo-orchestrator/pkg/fabric"
)

// Deps carries the collaborators a factory may hand to a new handler
// instance.
type Deps struct {
	HandlerType string
	TenantID    string
	Fabric      *fabric.Fabric
	AI          ai.Client
	Catalog     *catalog.Catalog
}

// Factory builds a handler instance for one (type, tenant) pair.
type Factory func(deps Deps) (Handler, error)

// FactoryChain resolves constructors in order: the dynamic registration table
// first, then a static fallback table of explicitly linked constructors.
// Both tables are built at process start; there is no runtime string-based
// loading.
type FactoryChain struct {
	mu       sync.RWMutex
	dynamic  map[string]Factory
	fallback map[string]Factory
}

// NewFactoryChain returns an empty chain.
func NewFactoryChain() *FactoryChain {
	return &FactoryChain{
		dynamic:  make(map[string]Factory),
		fallback: make(map[string]Factory),
	}
}

// RegisterDynamic installs a factory in the dynamic-lookup table.
func (c *FactoryChain) RegisterDynamic(handlerType string, f Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dynamic[handlerType] = f
}

// RegisterFallback installs a factory in the static fallback table.
func (c *FactoryChain) RegisterFallback(handlerType string, f Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fallback[handlerType] = f
}

// Dynamic returns the dynamic-table factory for a type.
func (c *FactoryChain) Dynamic(handlerType string) (Factory, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.dynamic[handlerType]
	return f, ok
}

// Fallback returns the static-table factory for a type.
func (c *FactoryChain) Fallback(handlerType string) (Factory, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.fallback[handlerType]
	return f, ok
}

// KnownTypes returns the sorted union of both tables.
func (c *FactoryChain) KnownTypes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	set := make(map[string]struct{}, len(c.dynamic)+len(c.fallback))
	for t := range c.dynamic {
		set[t] = struct{}{}
	}
	for t := range c.fallback {
		set[t] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
