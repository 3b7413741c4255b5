// Package agents manages per-tenant handler instances: creation on demand
// through a factory chain, registration with the message fabric, activity
// tracking, and teardown.
package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/morezero/condo-orchestrator/pkg/fabric"
)

// Request is the unit of work a handler processes. It is derived from the
// orchestrator's inbound task request.
type Request struct {
	ID       string
	Message  string
	Context  map[string]interface{}
	TenantID string
	UserID   string
	Priority fabric.Priority
}

// Handler is a tenant-scoped component that owns a domain. Implementations
// hold their own state; the registry only starts, stops, and routes to them.
type Handler interface {
	Type() string
	Start(ctx context.Context) error
	Stop(ctx context.Context)
	Process(ctx context.Context, req *Request) (string, error)
}

// EnvelopeConsumer is implemented by handlers that consume fabric envelopes.
// The registry runs a consumption loop feeding the handler's inbox into
// OnEnvelope until the handle is destroyed.
type EnvelopeConsumer interface {
	OnEnvelope(ctx context.Context, env *fabric.Envelope)
}

// TopicProvider is implemented by handlers that want initial topic
// subscriptions installed at registration time.
type TopicProvider interface {
	Topics() []string
}

// HandleID builds the registry key for a (handler type, tenant) pair.
func HandleID(handlerType, tenantID string) string {
	return handlerType + "_" + tenantID
}

// UnsupportedTypeError is returned when no factory in the chain can build the
// requested handler type. It enumerates the currently known types.
type UnsupportedTypeError struct {
	HandlerType string
	Known       []string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("agents: handler type %q unsupported (known types: %s)",
		e.HandlerType, strings.Join(e.Known, ", "))
}
