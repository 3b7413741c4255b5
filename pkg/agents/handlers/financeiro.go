package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/morezero/condo-orchestrator/pkg/agents"
	"github.com/morezero/condo-orchestrator/pkg/ai"
	"github.com/morezero/condo-orchestrator/pkg/fabric"
)

const financeiroLogPrefix = "handlers:financeiro"

const financeiroStatusTimeout = 2 * time.Second

// Financeiro handles billing and accounting questions. Before answering it
// asks the tenant's boleto handler (when one is alive) whether there are open
// billing issues, and folds that status into the reply context.
type Financeiro struct {
	tenantID string
	fab      *fabric.Fabric
	llm      ai.Client
}

// NewFinanceiro builds the finance handler for a tenant.
func NewFinanceiro(deps agents.Deps) (agents.Handler, error) {
	return &Financeiro{tenantID: deps.TenantID, fab: deps.Fabric, llm: deps.AI}, nil
}

// Type returns "financeiro".
func (f *Financeiro) Type() string { return TypeFinanceiro }

// Start is a no-op.
func (f *Financeiro) Start(_ context.Context) error { return nil }

// Stop is a no-op.
func (f *Financeiro) Stop(_ context.Context) {}

// Process answers the finance question. The boleto handler is consulted over
// the fabric with a short timeout; an absent or slow handler never blocks the
// answer.
func (f *Financeiro) Process(ctx context.Context, req *agents.Request) (string, error) {
	self := agents.HandleID(TypeFinanceiro, f.tenantID)
	billing := "sem informações de cobrança no momento"
	if status, ok := f.fab.Request(ctx, self, agents.HandleID("boleto", f.tenantID),
		"status", financeiroStatusTimeout, nil); ok {
		if s, isStr := status.(string); isStr {
			billing = s
		}
	}

	if f.llm == nil {
		return fmt.Sprintf("Departamento financeiro: %s. Sua solicitação foi registrada.", billing), nil
	}
	system := fmt.Sprintf(
		"Você é o departamento financeiro de um condomínio. Situação de cobrança atual: %s. "+
			"Responda em português, de forma objetiva.", billing)
	answer, err := f.llm.Generate(ctx, system, req.Message, ai.Options{})
	if err != nil {
		return "", fmt.Errorf("%s - generate reply: %w", financeiroLogPrefix, err)
	}
	return answer, nil
}

// OnEnvelope answers fabric requests with the finance desk status and logs
// tenant gate events it receives from acesso broadcasts.
func (f *Financeiro) OnEnvelope(_ context.Context, env *fabric.Envelope) {
	switch env.Kind {
	case fabric.KindRequest:
		f.fab.Respond(agents.HandleID(TypeFinanceiro, f.tenantID), env, "financeiro: em dia")
	default:
		slog.Debug(fmt.Sprintf("%s - tenant %s received %s from %s", financeiroLogPrefix, f.tenantID, env.Kind, env.Sender))
	}
}
