package db

import "time"

// TaskRecord represents a row in the tasks table: one completed TaskRequest
// with its outcome.
type TaskRecord struct {
	RequestID    string    `json:"request_id"`
	TenantID     string    `json:"tenant_id"`
	UserID       *string   `json:"user_id,omitempty"`
	HandlerType  string    `json:"handler_type"`
	RouteMethod  string    `json:"route_method"`
	Message      string    `json:"message"`
	Response     *string   `json:"response,omitempty"`
	Success      bool      `json:"success"`
	ErrorCode    *string   `json:"error_code,omitempty"`
	ErrorDetails *string   `json:"error_details,omitempty"`
	ProcessingMs int64     `json:"processing_ms"`
	Created      time.Time `json:"created"`
}

// AgentAuditRecord represents a row in the agent_audit table: one lifecycle
// transition of a handler instance.
type AgentAuditRecord struct {
	ID       int64     `json:"id"`
	AgentID  string    `json:"agent_id"`
	TenantID string    `json:"tenant_id"`
	Type     string    `json:"type"`
	Action   string    `json:"action"`
	Created  time.Time `json:"created"`
}
