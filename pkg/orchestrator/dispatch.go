package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

const dispatchLogPrefix = "orchestrator:dispatch"

// TaskEnvelope is the JSON envelope for incoming COMMS orchestrator requests.
type TaskEnvelope struct {
	ID     string             `json:"id"`
	Type   string             `json:"type"`
	Method string             `json:"method"`
	Params json.RawMessage    `json:"params"`
	Ctx    *InvocationContext `json:"ctx,omitempty"`
}

// ReplyEnvelope is the JSON envelope for COMMS orchestrator responses.
type ReplyEnvelope struct {
	ID     string      `json:"id"`
	Ok     bool        `json:"ok"`
	Result interface{} `json:"result,omitempty"`
	Error  *Error      `json:"error,omitempty"`
}

// InvocationContext holds caller context carried alongside the params.
type InvocationContext struct {
	TenantID  string `json:"tenantId,omitempty"`
	UserID    string `json:"userId,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// Dispatcher routes COMMS envelopes to orchestrator methods.
type Dispatcher struct {
	orc *Orchestrator
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(orc *Orchestrator) *Dispatcher {
	return &Dispatcher{orc: orc}
}

// Dispatch routes a request envelope to the appropriate method and returns a
// reply envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, req *TaskEnvelope) *ReplyEnvelope {
	slog.Debug(fmt.Sprintf("%s - method=%s id=%s", dispatchLogPrefix, req.Method, req.ID))

	switch req.Method {
	case "process":
		return d.handleProcess(ctx, req)
	case "smartRoute":
		return d.handleSmartRoute(ctx, req)
	case "status":
		return d.handleStatus(req)
	default:
		return errorReply(req.ID, "METHOD_NOT_FOUND", fmt.Sprintf("Unknown method: %s", req.Method), false)
	}
}

func (d *Dispatcher) handleProcess(ctx context.Context, req *TaskEnvelope) *ReplyEnvelope {
	var task TaskRequest
	if err := json.Unmarshal(req.Params, &task); err != nil {
		return errorReply(req.ID, CodeInvalidRequest, "Failed to parse process params", false)
	}
	if req.Ctx != nil {
		if task.TenantID == "" {
			task.TenantID = req.Ctx.TenantID
		}
		if task.UserID == "" {
			task.UserID = req.Ctx.UserID
		}
	}

	resp, err := d.orc.Process(ctx, &task)
	if err != nil {
		return errorReply(req.ID, CodeInternalError, err.Error(), true)
	}
	return &ReplyEnvelope{ID: req.ID, Ok: true, Result: resp}
}

func (d *Dispatcher) handleSmartRoute(ctx context.Context, req *TaskEnvelope) *ReplyEnvelope {
	var params struct {
		Message  string `json:"message"`
		TenantID string `json:"tenantId"`
		UserID   string `json:"userId"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorReply(req.ID, CodeInvalidRequest, "Failed to parse smartRoute params", false)
	}
	if req.Ctx != nil {
		if params.TenantID == "" {
			params.TenantID = req.Ctx.TenantID
		}
		if params.UserID == "" {
			params.UserID = req.Ctx.UserID
		}
	}

	resp, err := d.orc.SmartRoute(ctx, params.Message, params.TenantID, params.UserID)
	if err != nil {
		return errorReply(req.ID, CodeInternalError, err.Error(), true)
	}
	return &ReplyEnvelope{ID: req.ID, Ok: true, Result: resp}
}

func (d *Dispatcher) handleStatus(req *TaskEnvelope) *ReplyEnvelope {
	return &ReplyEnvelope{ID: req.ID, Ok: true, Result: d.orc.Status()}
}

func errorReply(id, code, message string, retryable bool) *ReplyEnvelope {
	return &ReplyEnvelope{
		ID: id,
		Ok: false,
		Error: &Error{
			Code:      code,
			Message:   message,
			Retryable: retryable,
		},
	}
}
