// Package orchestrator is the façade of the dispatch core: it routes an
// inbound task to a handler type, resolves a live per-tenant instance through
// the lifecycle registry, invokes it, and records the outcome in a bounded
// recent-history log.
package orchestrator

import (
	"fmt"
	"time"

	"github.com/morezero/condo-orchestrator/pkg/agents"
	"github.com/morezero/condo-orchestrator/pkg/fabric"
)

// TaskRequest is the inbound unit of work.
type TaskRequest struct {
	ID         string                 `json:"id"`
	Message    string                 `json:"message"`
	Context    map[string]interface{} `json:"context,omitempty"`
	TenantID   string                 `json:"tenantId"`
	UserID     string                 `json:"userId,omitempty"`
	TargetType string                 `json:"targetType,omitempty"`
	Priority   fabric.Priority        `json:"priority,omitempty"`
}

// TaskResponse is produced exactly once per TaskRequest.
type TaskResponse struct {
	RequestID    string    `json:"requestId"`
	HandlerType  string    `json:"handlerType"`
	RouteMethod  string    `json:"routeMethod"`
	Success      bool      `json:"success"`
	Response     string    `json:"response,omitempty"`
	Error        *Error    `json:"error,omitempty"`
	ProcessingMs int64     `json:"processingTimeMs"`
	Timestamp    time.Time `json:"timestamp"`
}

// Error codes carried on failed TaskResponses.
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeUnsupportedType = "UNSUPPORTED_TYPE"
	CodeHandlerFailed   = "HANDLER_FAILED"
	CodeTimeout         = "TIMEOUT"
	CodeInternalError   = "INTERNAL_ERROR"
)

// Error is a structured processing failure. Retryable hints whether the same
// request could succeed if re-submitted.
type Error struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Status is the read-only introspection snapshot of the core.
type Status struct {
	HandlerTypes    []string                 `json:"handlerTypes"`
	ActiveInstances int                      `json:"activeInstances"`
	Tenants         map[string][]agents.Info `json:"tenants"`
	MessagesRouted  int64                    `json:"messagesRouted"`
	BroadcastsSent  int64                    `json:"broadcastsSent"`
	HistorySize     int                      `json:"historySize"`
	StartedAt       time.Time                `json:"startedAt"`
}
