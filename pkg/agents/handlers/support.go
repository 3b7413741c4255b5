package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/morezero/condo-orchestrator/pkg/agents"
	"github.com/morezero/condo-orchestrator/pkg/ai"
	"github.com/morezero/condo-orchestrator/pkg/fabric"
)

const supportLogPrefix = "handlers:support"

const supportFallbackReply = "Recebemos sua mensagem e a equipe de atendimento do condomínio irá " +
	"retornar em breve. Se for urgente, procure a portaria."

// Support is the default handler. Every request the router cannot place with
// confidence lands here, so it must always produce an answer: LLM-backed when
// a client is configured, a canned acknowledgment otherwise.
type Support struct {
	tenantID string
	fab      *fabric.Fabric
	llm      ai.Client
}

// NewSupport builds the support handler for a tenant.
func NewSupport(deps agents.Deps) (agents.Handler, error) {
	return &Support{
		tenantID: deps.TenantID,
		fab:      deps.Fabric,
		llm:      deps.AI,
	}, nil
}

// Type returns "support".
func (s *Support) Type() string { return TypeSupport }

// Start is a no-op.
func (s *Support) Start(_ context.Context) error { return nil }

// Stop is a no-op.
func (s *Support) Stop(_ context.Context) {}

// Topics subscribes support to the tenant announcements topic so it can
// reference recent notices when answering.
func (s *Support) Topics() []string {
	return []string{TopicComunicados(s.tenantID)}
}

// Process answers the resident's message. A failing LLM degrades to the
// canned reply instead of surfacing an error: support is the terminal
// fallback of the whole pipeline and must not fail.
func (s *Support) Process(ctx context.Context, req *agents.Request) (string, error) {
	if s.llm == nil {
		return supportFallbackReply, nil
	}
	system := "Você é o atendimento geral de um condomínio. Responda dúvidas de moradores " +
		"em português, de forma cordial e objetiva. Quando não souber, oriente a procurar o síndico."
	answer, err := s.llm.Generate(ctx, system, req.Message, ai.Options{})
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - llm unavailable, using canned reply: %v", supportLogPrefix, err))
		return supportFallbackReply, nil
	}
	return answer, nil
}

// OnEnvelope answers fabric requests from sibling handlers; broadcasts and
// events are only logged.
func (s *Support) OnEnvelope(_ context.Context, env *fabric.Envelope) {
	switch env.Kind {
	case fabric.KindRequest:
		s.fab.Respond(agents.HandleID(TypeSupport, s.tenantID), env, "support: online")
	default:
		slog.Debug(fmt.Sprintf("%s - tenant %s received %s from %s", supportLogPrefix, s.tenantID, env.Kind, env.Sender))
	}
}
