package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/morezero/condo-orchestrator/pkg/agents"
	"github.com/morezero/condo-orchestrator/pkg/fabric"
)

const assembleiaLogPrefix = "handlers:assembleia"

// Notice is the payload Assembleia publishes on the tenant announcements
// topic. Subscribed handlers receive it as an event envelope.
type Notice struct {
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	TenantID  string    `json:"tenant_id"`
	Timestamp time.Time `json:"timestamp"`
}

// Assembleia handles meeting scheduling and convocations. Each processed
// request publishes a Notice on the tenant announcements topic so that
// subscribed handlers pick it up.
type Assembleia struct {
	tenantID string
	fab      *fabric.Fabric
}

// NewAssembleia builds the assembly handler for a tenant.
func NewAssembleia(deps agents.Deps) (agents.Handler, error) {
	return &Assembleia{tenantID: deps.TenantID, fab: deps.Fabric}, nil
}

// Type returns "assembleia".
func (a *Assembleia) Type() string { return TypeAssembleia }

// Start is a no-op.
func (a *Assembleia) Start(_ context.Context) error { return nil }

// Stop is a no-op.
func (a *Assembleia) Stop(_ context.Context) {}

// Process registers the convocation and publishes it to subscribers of the
// tenant announcements topic.
func (a *Assembleia) Process(_ context.Context, req *agents.Request) (string, error) {
	notice := Notice{
		Title:     "Assembleia",
		Body:      req.Message,
		TenantID:  req.TenantID,
		Timestamp: time.Now().UTC(),
	}
	topic := TopicComunicados(a.tenantID)
	delivered := a.fab.Publish(agents.HandleID(TypeAssembleia, a.tenantID), topic, notice, fabric.PriorityNormal)
	slog.Info(fmt.Sprintf("%s - tenant %s notice published on %s to %d subscribers", assembleiaLogPrefix, a.tenantID, topic, delivered))

	if delivered == 0 {
		return "Convocação registrada. Nenhum módulo inscrito recebeu o comunicado ainda.", nil
	}
	return fmt.Sprintf("Convocação registrada e comunicada a %d módulos do condomínio.", delivered), nil
}

// OnEnvelope answers status requests from sibling handlers.
func (a *Assembleia) OnEnvelope(_ context.Context, env *fabric.Envelope) {
	if env.Kind == fabric.KindRequest {
		a.fab.Respond(agents.HandleID(TypeAssembleia, a.tenantID), env, "assembleia: agenda aberta")
	}
}
