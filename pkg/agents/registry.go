package agents

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/morezero/condo-orchestrator/pkg/ai"
	"github.com/morezero/condo-orchestrator/pkg/catalog"
	"github.com/morezero/condo-orchestrator/pkg/events"
	"github.com/morezero/condo-orchestrator/pkg/fabric"
)

const logPrefix = "agents:registry"

// Registry creates handler instances on demand, registers them with the
// message fabric, tracks their status, and tears them down. The handle table
// has its own lock; inboxes and subscriptions are synchronized inside the
// fabric.
type Registry struct {
	mu      sync.Mutex
	handles map[string]*Handle

	factories *FactoryChain
	fab       *fabric.Fabric
	llm       ai.Client
	cat       *catalog.Catalog
	publisher events.EventPublisher
}

// NewRegistryParams holds parameters for NewRegistry.
type NewRegistryParams struct {
	Factories *FactoryChain
	Fabric    *fabric.Fabric
	AI        ai.Client
	Catalog   *catalog.Catalog
	Publisher events.EventPublisher
}

// NewRegistry creates a new Registry instance.
func NewRegistry(params NewRegistryParams) *Registry {
	pub := params.Publisher
	if pub == nil {
		pub = &events.NoOpPublisher{}
	}
	factories := params.Factories
	if factories == nil {
		factories = NewFactoryChain()
	}
	return &Registry{
		handles:   make(map[string]*Handle),
		factories: factories,
		fab:       params.Fabric,
		llm:       params.AI,
		cat:       params.Catalog,
		publisher: pub,
	}
}

// GetOrCreate returns the live handle for (handlerType, tenantID), creating
// and starting an instance on first use. The check-then-create sequence runs
// under the handle table lock, so concurrent calls for the same pair never
// create two instances.
func (r *Registry) GetOrCreate(ctx context.Context, handlerType, tenantID string) (*Handle, error) {
	id := HandleID(handlerType, tenantID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.handles[id]; ok {
		h.touch()
		return h, nil
	}

	h, err := r.create(ctx, id, handlerType, tenantID)
	if err != nil {
		return nil, err
	}
	r.handles[id] = h
	return h, nil
}

// create builds, registers, and starts a new instance. Called with the handle
// table lock held.
func (r *Registry) create(ctx context.Context, id, handlerType, tenantID string) (*Handle, error) {
	handler, err := r.construct(handlerType, tenantID)
	if err != nil {
		return nil, err
	}

	var topics []string
	if tp, ok := handler.(TopicProvider); ok {
		topics = tp.Topics()
	}
	inbox := r.fab.RegisterAgent(id, handlerType, tenantID, topics)

	if err := handler.Start(ctx); err != nil {
		r.fab.Unregister(id)
		return nil, fmt.Errorf("%s - failed to start handler %s: %w", logPrefix, id, err)
	}

	now := time.Now().UTC()
	h := &Handle{
		ID:           id,
		Type:         handlerType,
		TenantID:     tenantID,
		CreatedAt:    now,
		status:       StatusRunning,
		lastActivity: now,
		handler:      handler,
		inbox:        inbox,
	}

	if consumer, ok := handler.(EnvelopeConsumer); ok {
		consumeCtx, cancel := context.WithCancel(context.Background())
		h.cancelConsume = cancel
		go consumeLoop(consumeCtx, inbox, consumer)
	}

	slog.Info(fmt.Sprintf("%s - Created agent %s (tenant=%s)", logPrefix, id, tenantID))
	r.publishEvent(ctx, events.KindAgentCreated, h)
	return h, nil
}

// construct resolves a constructor through the factory chain: dynamic table
// first, then the static fallback table. A construction failure is logged
// and the next factory in the chain is attempted before surfacing.
func (r *Registry) construct(handlerType, tenantID string) (Handler, error) {
	deps := Deps{
		HandlerType: handlerType,
		TenantID:    tenantID,
		Fabric:      r.fab,
		AI:          r.llm,
		Catalog:     r.cat,
	}

	var lastErr error
	if f, ok := r.factories.Dynamic(handlerType); ok {
		handler, err := f(deps)
		if err == nil {
			return handler, nil
		}
		lastErr = err
		slog.Warn(fmt.Sprintf("%s - dynamic factory for %q failed, trying fallback: %v", logPrefix, handlerType, err))
	}
	if f, ok := r.factories.Fallback(handlerType); ok {
		handler, err := f(deps)
		if err == nil {
			return handler, nil
		}
		lastErr = err
		slog.Warn(fmt.Sprintf("%s - fallback factory for %q failed: %v", logPrefix, handlerType, err))
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%s - failed to construct handler %q: %w", logPrefix, handlerType, lastErr)
	}
	return nil, &UnsupportedTypeError{HandlerType: handlerType, Known: r.factories.KnownTypes()}
}

// Get returns the handle for an id without creating anything.
func (r *Registry) Get(handleID string) (*Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[handleID]
	return h, ok
}

// Destroy stops the instance, removes its fabric registration (inbox and
// subscriptions), and removes the handle. Destroying an unknown handle id is
// a no-op returning false, not an error.
func (r *Registry) Destroy(ctx context.Context, handleID string) bool {
	r.mu.Lock()
	h, ok := r.handles[handleID]
	if ok {
		delete(r.handles, handleID)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}

	if h.cancelConsume != nil {
		h.cancelConsume()
	}
	h.handler.Stop(ctx)
	r.fab.Unregister(handleID)
	h.setStatus(StatusStopped)

	slog.Info(fmt.Sprintf("%s - Destroyed agent %s", logPrefix, handleID))
	r.publishEvent(ctx, events.KindAgentDestroyed, h)
	return true
}

// Shutdown destroys every live handle.
func (r *Registry) Shutdown(ctx context.Context) {
	r.mu.Lock()
	ids := make([]string, 0, len(r.handles))
	for id := range r.handles {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.Destroy(ctx, id)
	}
}

// ActiveCount returns the number of live handles.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Snapshot lists every live handle grouped by tenant, for the status
// surface.
func (r *Registry) Snapshot() map[string][]Info {
	r.mu.Lock()
	handles := make([]*Handle, 0, len(r.handles))
	for _, h := range r.handles {
		handles = append(handles, h)
	}
	r.mu.Unlock()

	out := make(map[string][]Info)
	for _, h := range handles {
		out[h.TenantID] = append(out[h.TenantID], h.Info())
	}
	for _, infos := range out {
		sort.Slice(infos, func(a, b int) bool { return infos[a].ID < infos[b].ID })
	}
	return out
}

// KnownTypes returns the handler types the factory chain can build.
func (r *Registry) KnownTypes() []string {
	return r.factories.KnownTypes()
}

func (r *Registry) publishEvent(ctx context.Context, kind string, h *Handle) {
	event := &events.ChangedEvent{
		Kind:        kind,
		TenantID:    h.TenantID,
		HandlerType: h.Type,
		AgentID:     h.ID,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := r.publisher.PublishChanged(ctx, event); err != nil {
		slog.Warn(fmt.Sprintf("%s - failed to publish %s event for %s: %v", logPrefix, kind, h.ID, err))
	}
}

// consumeLoop feeds inbox envelopes to the handler until the context is
// canceled or the inbox closes.
func consumeLoop(ctx context.Context, inbox *fabric.Inbox, consumer EnvelopeConsumer) {
	for {
		env, ok := inbox.Receive(ctx)
		if !ok {
			return
		}
		consumer.OnEnvelope(ctx, env)
	}
}
