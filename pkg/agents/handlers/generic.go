package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/morezero/condo-orchestrator/pkg/agents"
	"github.com/morezero/condo-orchestrator/pkg/ai"
	"github.com/morezero/condo-orchestrator/pkg/fabric"
)

const genericLogPrefix = "handlers:generic"

// Generic is the LLM-backed handler used for catalog types without a
// specialized implementation. It answers requests using the catalog
// description as its persona and replies to fabric requests from other
// handlers.
type Generic struct {
	typ         string
	tenantID    string
	description string
	fab         *fabric.Fabric
	llm         ai.Client
}

// NewGeneric builds a Generic handler from the factory deps.
func NewGeneric(deps agents.Deps) (agents.Handler, error) {
	description := ""
	if deps.Catalog != nil {
		if d, ok := deps.Catalog.Get(deps.HandlerType); ok {
			description = d.Description
		}
	}
	return &Generic{
		typ:         deps.HandlerType,
		tenantID:    deps.TenantID,
		description: description,
		fab:         deps.Fabric,
		llm:         deps.AI,
	}, nil
}

// Type returns the handler type name.
func (g *Generic) Type() string { return g.typ }

// Start is a no-op; Generic holds no external resources.
func (g *Generic) Start(_ context.Context) error { return nil }

// Stop is a no-op.
func (g *Generic) Stop(_ context.Context) {}

// Topics subscribes the handler to its tenant's announcements topic.
func (g *Generic) Topics() []string {
	return []string{TopicComunicados(g.tenantID)}
}

// Process answers the request in natural language.
func (g *Generic) Process(ctx context.Context, req *agents.Request) (string, error) {
	if g.llm == nil {
		return fmt.Sprintf("Solicitação registrada no módulo %s.", g.typ), nil
	}
	system := fmt.Sprintf(
		"Você é o módulo %q de um sistema de gestão de condomínios. %s Responda em português, de forma curta e objetiva.",
		g.typ, g.description)
	answer, err := g.llm.Generate(ctx, system, req.Message, ai.Options{})
	if err != nil {
		return "", fmt.Errorf("%s - generate reply: %w", genericLogPrefix, err)
	}
	return answer, nil
}

// OnEnvelope answers fabric requests from other handlers with a short status
// line; other envelope kinds are informational only.
func (g *Generic) OnEnvelope(_ context.Context, env *fabric.Envelope) {
	switch env.Kind {
	case fabric.KindRequest:
		g.fab.Respond(agents.HandleID(g.typ, g.tenantID), env,
			fmt.Sprintf("%s: sem pendências", g.typ))
	default:
		slog.Debug(fmt.Sprintf("%s - %s_%s received %s from %s", genericLogPrefix, g.typ, g.tenantID, env.Kind, env.Sender))
	}
}

// TopicComunicados is the per-tenant announcements topic.
func TopicComunicados(tenantID string) string {
	return "comunicados." + tenantID
}
