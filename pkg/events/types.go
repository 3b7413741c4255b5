// Package events defines event types and publisher interfaces for
// orchestrator change events (agent lifecycle and task completion).
package events

// Event kinds.
const (
	KindAgentCreated   = "agent_created"
	KindAgentDestroyed = "agent_destroyed"
	KindTaskCompleted  = "task_completed"
)

// ChangedEvent is emitted when an agent instance is created or destroyed, or
// a task completes.
type ChangedEvent struct {
	Kind        string `json:"kind"`
	TenantID    string `json:"tenantId"`
	HandlerType string `json:"handlerType"`
	AgentID     string `json:"agentId,omitempty"`
	RequestID   string `json:"requestId,omitempty"`
	Success     *bool  `json:"success,omitempty"`
	DurationMs  int64  `json:"durationMs,omitempty"`
	Timestamp   string `json:"timestamp"`
}
