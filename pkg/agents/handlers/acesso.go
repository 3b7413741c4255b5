package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/morezero/condo-orchestrator/pkg/agents"
	"github.com/morezero/condo-orchestrator/pkg/fabric"
)

const acessoLogPrefix = "handlers:acesso"

// GateEvent is the payload Acesso broadcasts to the tenant whenever an entry
// authorization changes state. The portaria and seguranca handlers consume it
// from their inboxes.
type GateEvent struct {
	Action    string    `json:"action"`
	Subject   string    `json:"subject"`
	TenantID  string    `json:"tenant_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Acesso handles gate and entry authorization requests. Besides answering the
// resident it broadcasts a GateEvent scoped to the tenant so that the other
// handlers of the same condominium see the authorization.
type Acesso struct {
	tenantID string
	fab      *fabric.Fabric
}

// NewAcesso builds the access-control handler for a tenant.
func NewAcesso(deps agents.Deps) (agents.Handler, error) {
	return &Acesso{tenantID: deps.TenantID, fab: deps.Fabric}, nil
}

// Type returns "acesso".
func (a *Acesso) Type() string { return TypeAcesso }

// Start is a no-op.
func (a *Acesso) Start(_ context.Context) error { return nil }

// Stop is a no-op.
func (a *Acesso) Stop(_ context.Context) {}

// Process interprets the authorization intent and broadcasts the resulting
// gate event to the tenant's handlers.
func (a *Acesso) Process(_ context.Context, req *agents.Request) (string, error) {
	action := gateAction(req.Message)
	event := GateEvent{
		Action:    action,
		Subject:   req.Message,
		TenantID:  req.TenantID,
		Timestamp: time.Now().UTC(),
	}
	delivered := a.fab.Broadcast(agents.HandleID(TypeAcesso, a.tenantID), event, a.tenantID, true, fabric.PriorityHigh)
	slog.Info(fmt.Sprintf("%s - tenant %s gate event %q delivered to %d handlers", acessoLogPrefix, a.tenantID, action, delivered))

	switch action {
	case "liberar":
		return "Acesso liberado. A portaria foi notificada da autorização.", nil
	case "bloquear":
		return "Acesso bloqueado. A portaria foi notificada da restrição.", nil
	default:
		return "Solicitação de acesso registrada e encaminhada à portaria.", nil
	}
}

// OnEnvelope answers status requests from sibling handlers.
func (a *Acesso) OnEnvelope(_ context.Context, env *fabric.Envelope) {
	if env.Kind == fabric.KindRequest {
		a.fab.Respond(agents.HandleID(TypeAcesso, a.tenantID), env, "acesso: portaria operante")
	}
}

func gateAction(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "liberar") || strings.Contains(lower, "autorizar") || strings.Contains(lower, "libera"):
		return "liberar"
	case strings.Contains(lower, "bloquear") || strings.Contains(lower, "bloqueia") || strings.Contains(lower, "cancelar"):
		return "bloquear"
	default:
		return "registrar"
	}
}
