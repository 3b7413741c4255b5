package agents

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/morezero/condo-orchestrator/pkg/fabric"
)

// Status is the lifecycle state of an agent handle.
type Status string

const (
	StatusStopped Status = "stopped"
	StatusRunning Status = "running"
)

// Handle is the registry's record of one live (handler type, tenant) pair.
// Exactly one handle exists per pair at any time.
type Handle struct {
	ID       string
	Type     string
	TenantID string

	CreatedAt time.Time

	mu           sync.Mutex
	status       Status
	lastActivity time.Time

	requestCount atomic.Int64
	errorCount   atomic.Int64

	handler       Handler
	inbox         *fabric.Inbox
	cancelConsume context.CancelFunc
}

// Status returns the handle's lifecycle status.
func (h *Handle) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status
}

// LastActivity returns the last time the handle processed or was resolved.
func (h *Handle) LastActivity() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastActivity
}

// Counts returns the request and error counters.
func (h *Handle) Counts() (requests, errors int64) {
	return h.requestCount.Load(), h.errorCount.Load()
}

// Inbox returns the handle's fabric inbox.
func (h *Handle) Inbox() *fabric.Inbox {
	return h.inbox
}

// Process delegates to the underlying handler, updating activity and
// counters. The request counter only increases.
func (h *Handle) Process(ctx context.Context, req *Request) (string, error) {
	h.touch()
	h.requestCount.Add(1)
	out, err := h.handler.Process(ctx, req)
	if err != nil {
		h.errorCount.Add(1)
	}
	return out, err
}

func (h *Handle) touch() {
	h.mu.Lock()
	h.lastActivity = time.Now().UTC()
	h.mu.Unlock()
}

func (h *Handle) setStatus(s Status) {
	h.mu.Lock()
	h.status = s
	h.mu.Unlock()
}

// Info is a read-only snapshot of a handle for the status surface.
type Info struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	TenantID     string    `json:"tenantId"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
	RequestCount int64     `json:"requestCount"`
	ErrorCount   int64     `json:"errorCount"`
}

// Info returns a snapshot of the handle.
func (h *Handle) Info() Info {
	h.mu.Lock()
	status := h.status
	last := h.lastActivity
	h.mu.Unlock()
	return Info{
		ID:           h.ID,
		Type:         h.Type,
		TenantID:     h.TenantID,
		Status:       status,
		CreatedAt:    h.CreatedAt,
		LastActivity: last,
		RequestCount: h.requestCount.Load(),
		ErrorCount:   h.errorCount.Load(),
	}
}
