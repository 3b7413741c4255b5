// Package catalog defines the static capability catalog: one descriptor per
// handler type, with the routing signals the capability router scores
// against. The catalog is built at process start and never mutated.
package catalog

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/morezero/condo-orchestrator/pkg/fabric"
)

const logPrefix = "catalog:catalog"

// DefaultType is the handler type used when routing cannot decide.
const DefaultType = "support"

// Descriptor is the immutable routing metadata for one handler type.
type Descriptor struct {
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Keywords    []string        `json:"keywords"`
	Intents     []string        `json:"intents"`
	Priority    fabric.Priority `json:"priority"`
	Version     string          `json:"version"`
}

// Catalog holds descriptors in declaration order. Order matters: scoring ties
// are broken by position, first wins.
type Catalog struct {
	descriptors []Descriptor
	byType      map[string]int
}

// New builds a catalog from the given descriptors. Duplicate types and
// invalid versions are rejected.
func New(descriptors []Descriptor) (*Catalog, error) {
	c := &Catalog{
		descriptors: descriptors,
		byType:      make(map[string]int, len(descriptors)),
	}
	for i, d := range descriptors {
		if d.Type == "" {
			return nil, fmt.Errorf("%s - descriptor %d has empty type", logPrefix, i)
		}
		if _, dup := c.byType[d.Type]; dup {
			return nil, fmt.Errorf("%s - duplicate descriptor type %q", logPrefix, d.Type)
		}
		if _, err := semver.NewVersion(d.Version); err != nil {
			return nil, fmt.Errorf("%s - descriptor %q has invalid version %q: %w", logPrefix, d.Type, d.Version, err)
		}
		c.byType[d.Type] = i
	}
	if _, ok := c.byType[DefaultType]; !ok {
		return nil, fmt.Errorf("%s - catalog must include the default type %q", logPrefix, DefaultType)
	}
	return c, nil
}

// Default returns the built-in condominium catalog.
func Default() *Catalog {
	c, err := New(builtin)
	if err != nil {
		// The builtin table is fixed at compile time; a construction error
		// here is a programming mistake, not a runtime condition.
		panic(err)
	}
	return c
}

// Descriptors returns the descriptors in declaration order.
func (c *Catalog) Descriptors() []Descriptor {
	return c.descriptors
}

// Get returns the descriptor for a handler type.
func (c *Catalog) Get(handlerType string) (Descriptor, bool) {
	i, ok := c.byType[handlerType]
	if !ok {
		return Descriptor{}, false
	}
	return c.descriptors[i], true
}

// Has reports whether the handler type exists in the catalog.
func (c *Catalog) Has(handlerType string) bool {
	_, ok := c.byType[handlerType]
	return ok
}

// Types returns all handler type names in declaration order.
func (c *Catalog) Types() []string {
	out := make([]string, len(c.descriptors))
	for i, d := range c.descriptors {
		out[i] = d.Type
	}
	return out
}

// Len returns the number of handler types in the catalog.
func (c *Catalog) Len() int {
	return len(c.descriptors)
}
