package fabric

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const logPrefix = "fabric:fabric"

// registration pairs an inbox with the tenant it belongs to, for broadcast
// scope filtering.
type registration struct {
	inbox    *Inbox
	agentTyp string
	tenantID string
}

// Fabric is the communication substrate shared by all agent instances in the
// process. Inboxes, subscriptions, and pending calls are each guarded by
// their own lock so unrelated traffic does not contend.
type Fabric struct {
	started atomic.Bool

	regMu  sync.RWMutex
	agents map[string]*registration

	subMu sync.RWMutex
	subs  map[string]map[string]struct{} // topic → set of agent ids

	pendMu  sync.Mutex
	pending map[string]*pendingCall // correlation id → call

	messagesRouted atomic.Int64
	broadcastsSent atomic.Int64
}

// pendingCall is the single-assignment slot for an outstanding request. It is
// resolved exactly once, by the matching response or by timeout expiry.
type pendingCall struct {
	correlationID string
	result        chan *Envelope // buffered, written at most once
}

// New creates a stopped Fabric. Call Start before routing messages.
func New() *Fabric {
	return &Fabric{
		agents:  make(map[string]*registration),
		subs:    make(map[string]map[string]struct{}),
		pending: make(map[string]*pendingCall),
	}
}

// Start enables message routing. Idempotent.
func (f *Fabric) Start() error {
	if f.started.Swap(true) {
		return nil
	}
	slog.Info(fmt.Sprintf("%s - Message fabric started", logPrefix))
	return nil
}

// Stop disables routing. Registered inboxes survive a stop so the fabric can
// be restarted; in-flight requests resolve by timeout.
func (f *Fabric) Stop() {
	if !f.started.Swap(false) {
		return
	}
	slog.Info(fmt.Sprintf("%s - Message fabric stopped", logPrefix))
}

// Started reports whether the fabric is routing messages.
func (f *Fabric) Started() bool {
	return f.started.Load()
}

// RegisterAgent creates an inbox for the agent and installs its initial topic
// subscriptions. Registering an already-registered id replaces the previous
// inbox. Registration is allowed while the fabric is stopped.
func (f *Fabric) RegisterAgent(id, agentType, tenantID string, topics []string) *Inbox {
	in := newInbox(id)

	f.regMu.Lock()
	if prev, ok := f.agents[id]; ok {
		prev.inbox.close()
	}
	f.agents[id] = &registration{inbox: in, agentTyp: agentType, tenantID: tenantID}
	f.regMu.Unlock()

	for _, topic := range topics {
		f.addSubscription(id, topic)
	}

	slog.Debug(fmt.Sprintf("%s - Registered agent %s (tenant=%s topics=%d)", logPrefix, id, tenantID, len(topics)))
	return in
}

// Unregister removes the agent's inbox and purges all of its subscriptions.
// Unknown ids are a no-op.
func (f *Fabric) Unregister(id string) {
	f.regMu.Lock()
	reg, ok := f.agents[id]
	if ok {
		delete(f.agents, id)
	}
	f.regMu.Unlock()
	if !ok {
		return
	}
	reg.inbox.close()

	f.subMu.Lock()
	for topic, members := range f.subs {
		delete(members, id)
		if len(members) == 0 {
			delete(f.subs, topic)
		}
	}
	f.subMu.Unlock()

	slog.Debug(fmt.Sprintf("%s - Unregistered agent %s", logPrefix, id))
}

// Send delivers a direct envelope to the receiver's inbox. Returns false if
// the fabric is stopped or the receiver is unknown; receivers may be
// destroyed concurrently, so an unknown receiver is never an error.
func (f *Fabric) Send(sender, receiver string, payload interface{}, priority Priority, metadata map[string]string) bool {
	if !f.started.Load() {
		return false
	}
	env := newEnvelope(KindDirect, sender, payload, priority)
	env.Receiver = receiver
	env.Metadata = metadata
	return f.deliver(receiver, env)
}

// Broadcast fans an event envelope out to every registered inbox whose tenant
// matches tenantScope (all inboxes when scope is empty), skipping the sender
// when excludeSender is set. Returns the number of inboxes enqueued.
func (f *Fabric) Broadcast(sender string, payload interface{}, tenantScope string, excludeSender bool, priority Priority) int {
	if !f.started.Load() {
		return 0
	}
	env := newEnvelope(KindEvent, sender, payload, priority)
	env.Receiver = BroadcastReceiver
	env.TenantScope = tenantScope

	f.regMu.RLock()
	targets := make([]*Inbox, 0, len(f.agents))
	for id, reg := range f.agents {
		if excludeSender && id == sender {
			continue
		}
		if tenantScope != "" && reg.tenantID != tenantScope {
			continue
		}
		targets = append(targets, reg.inbox)
	}
	f.regMu.RUnlock()

	delivered := 0
	for _, in := range targets {
		if in.enqueue(env) {
			delivered++
		}
	}
	f.broadcastsSent.Add(1)
	f.messagesRouted.Add(int64(delivered))
	return delivered
}

// Request sends a request envelope to the receiver and blocks until a
// correlated response arrives or the timeout elapses. Returns (nil, false) on
// timeout, unknown receiver, or stopped fabric.
func (f *Fabric) Request(ctx context.Context, sender, receiver string, payload interface{}, timeout time.Duration, metadata map[string]string) (interface{}, bool) {
	if !f.started.Load() {
		return nil, false
	}

	call := &pendingCall{
		correlationID: uuid.NewString(),
		result:        make(chan *Envelope, 1),
	}
	f.pendMu.Lock()
	f.pending[call.correlationID] = call
	f.pendMu.Unlock()

	env := newEnvelope(KindRequest, sender, payload, PriorityNormal)
	env.Receiver = receiver
	env.CorrelationID = call.correlationID
	env.Metadata = metadata

	if !f.deliver(receiver, env) {
		f.discardPending(call.correlationID)
		return nil, false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-call.result:
		return resp.Payload, true
	case <-timer.C:
		f.discardPending(call.correlationID)
		slog.Debug(fmt.Sprintf("%s - Request %s from %s to %s timed out after %s",
			logPrefix, call.correlationID, sender, receiver, timeout))
		return nil, false
	case <-ctx.Done():
		f.discardPending(call.correlationID)
		return nil, false
	}
}

// Respond answers a request envelope. The response is matched against the
// pending call table by correlation id; duplicate or late responses are
// dropped silently, which is not an error condition.
func (f *Fabric) Respond(responder string, request *Envelope, payload interface{}) bool {
	if !f.started.Load() {
		return false
	}
	if request == nil || request.CorrelationID == "" {
		return false
	}
	env := newEnvelope(KindResponse, responder, payload, request.Priority)
	env.Receiver = request.Sender
	env.CorrelationID = request.CorrelationID

	f.pendMu.Lock()
	call, ok := f.pending[request.CorrelationID]
	if ok {
		delete(f.pending, request.CorrelationID)
	}
	f.pendMu.Unlock()
	if !ok {
		return false
	}

	call.result <- env
	f.messagesRouted.Add(1)
	return true
}

// Publish enqueues an event envelope into the inbox of every agent currently
// subscribed to topic. Returns the number of inboxes enqueued.
func (f *Fabric) Publish(sender, topic string, payload interface{}, priority Priority) int {
	if !f.started.Load() {
		return 0
	}
	env := newEnvelope(KindEvent, sender, payload, priority)
	env.Topic = topic

	f.subMu.RLock()
	ids := make([]string, 0, len(f.subs[topic]))
	for id := range f.subs[topic] {
		ids = append(ids, id)
	}
	f.subMu.RUnlock()

	delivered := 0
	for _, id := range ids {
		f.regMu.RLock()
		reg, ok := f.agents[id]
		f.regMu.RUnlock()
		if !ok {
			continue
		}
		if reg.inbox.enqueue(env) {
			delivered++
		}
	}
	f.messagesRouted.Add(int64(delivered))
	return delivered
}

// Subscribe adds (agentID, topic) to the subscription index. Idempotent;
// returns false when the fabric is stopped or the agent is unknown.
func (f *Fabric) Subscribe(agentID, topic string) bool {
	if !f.started.Load() {
		return false
	}
	f.regMu.RLock()
	_, known := f.agents[agentID]
	f.regMu.RUnlock()
	if !known {
		return false
	}
	f.addSubscription(agentID, topic)
	return true
}

// Unsubscribe removes (agentID, topic) from the index. Idempotent.
func (f *Fabric) Unsubscribe(agentID, topic string) bool {
	if !f.started.Load() {
		return false
	}
	f.subMu.Lock()
	defer f.subMu.Unlock()
	members, ok := f.subs[topic]
	if !ok {
		return true
	}
	delete(members, agentID)
	if len(members) == 0 {
		delete(f.subs, topic)
	}
	return true
}

// Subscribers returns the agent ids currently subscribed to topic.
func (f *Fabric) Subscribers(topic string) []string {
	f.subMu.RLock()
	defer f.subMu.RUnlock()
	out := make([]string, 0, len(f.subs[topic]))
	for id := range f.subs[topic] {
		out = append(out, id)
	}
	return out
}

// Counters reports the fabric's delivery counters for the status surface.
func (f *Fabric) Counters() (messagesRouted, broadcastsSent int64) {
	return f.messagesRouted.Load(), f.broadcastsSent.Load()
}

// RegisteredCount returns the number of registered inboxes.
func (f *Fabric) RegisteredCount() int {
	f.regMu.RLock()
	defer f.regMu.RUnlock()
	return len(f.agents)
}

func (f *Fabric) addSubscription(agentID, topic string) {
	f.subMu.Lock()
	defer f.subMu.Unlock()
	members, ok := f.subs[topic]
	if !ok {
		members = make(map[string]struct{})
		f.subs[topic] = members
	}
	members[agentID] = struct{}{}
}

func (f *Fabric) deliver(receiver string, env *Envelope) bool {
	f.regMu.RLock()
	reg, ok := f.agents[receiver]
	f.regMu.RUnlock()
	if !ok {
		return false
	}
	if !reg.inbox.enqueue(env) {
		return false
	}
	f.messagesRouted.Add(1)
	return true
}

func (f *Fabric) discardPending(correlationID string) {
	f.pendMu.Lock()
	delete(f.pending, correlationID)
	f.pendMu.Unlock()
}
