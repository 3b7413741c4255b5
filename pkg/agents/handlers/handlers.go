// Package handlers contains the built-in handler implementations and the
// default factory tables. Every catalog type is buildable through the
// dynamic table; the handful of best-known types are additionally linked
// into the static fallback table.
package handlers

import (
	"github.com/morezero/condo-orchestrator/pkg/agents"
)

// DefaultChain builds the process-start factory chain: one dynamic entry per
// catalog type, plus static fallback constructors for the best-known types.
func DefaultChain(deps ChainDeps) *agents.FactoryChain {
	chain := agents.NewFactoryChain()

	for _, typ := range deps.Types {
		switch typ {
		case TypeSupport:
			chain.RegisterDynamic(typ, NewSupport)
		case TypeAcesso:
			chain.RegisterDynamic(typ, NewAcesso)
		case TypeFinanceiro:
			chain.RegisterDynamic(typ, NewFinanceiro)
		case TypeAssembleia:
			chain.RegisterDynamic(typ, NewAssembleia)
		default:
			chain.RegisterDynamic(typ, NewGeneric)
		}
	}

	chain.RegisterFallback(TypeSupport, NewSupport)
	chain.RegisterFallback(TypeAcesso, NewAcesso)
	chain.RegisterFallback(TypeFinanceiro, NewFinanceiro)
	chain.RegisterFallback(TypeAssembleia, NewAssembleia)

	return chain
}

// ChainDeps configures DefaultChain.
type ChainDeps struct {
	// Types is the list of handler types to register, normally the catalog's
	// declaration order.
	Types []string
}

// Built-in handler type names.
const (
	TypeSupport    = "support"
	TypeAcesso     = "acesso"
	TypeFinanceiro = "financeiro"
	TypeAssembleia = "assembleia"
)
