// Package fabric implements the in-process message fabric: per-agent inboxes,
// topic subscriptions, and the direct/broadcast/request/publish primitives.
package fabric

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies the delivery semantics of an envelope.
type Kind string

const (
	KindDirect    Kind = "direct"
	KindBroadcast Kind = "broadcast"
	KindRequest   Kind = "request"
	KindResponse  Kind = "response"
	KindEvent     Kind = "event"
)

// Priority is the priority tier carried on envelopes and capability
// descriptors. The fabric does not reorder deliveries by priority; it is
// metadata for consumers.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// BroadcastReceiver is the receiver value on broadcast envelopes.
const BroadcastReceiver = "*"

// Envelope is the unit of communication between agents. Envelopes are
// immutable once created and never persisted.
type Envelope struct {
	ID            string            `json:"id"`
	Sender        string            `json:"sender"`
	Receiver      string            `json:"receiver,omitempty"`
	Topic         string            `json:"topic,omitempty"`
	Payload       interface{}       `json:"payload"`
	Kind          Kind              `json:"kind"`
	Priority      Priority          `json:"priority"`
	CorrelationID string            `json:"correlationId,omitempty"`
	TenantScope   string            `json:"tenantScope,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
}

func newEnvelope(kind Kind, sender string, payload interface{}, priority Priority) *Envelope {
	if priority == "" {
		priority = PriorityNormal
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Sender:    sender,
		Payload:   payload,
		Kind:      kind,
		Priority:  priority,
		CreatedAt: time.Now().UTC(),
	}
}
