package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/morezero/condo-orchestrator/pkg/agents"
	"github.com/morezero/condo-orchestrator/pkg/events"
	"github.com/morezero/condo-orchestrator/pkg/fabric"
	"github.com/morezero/condo-orchestrator/pkg/router"
)

const logPrefix = "orchestrator"

// DefaultHistorySize bounds the recent-history log when no size is configured.
const DefaultHistorySize = 256

// ErrNotStarted is returned by Process before Start succeeds.
var ErrNotStarted = errors.New("orchestrator not started")

// PersistFunc stores a completed task. It runs on its own goroutine; failures
// surface on the orchestrator's PersistErrors channel, never on the request
// path.
type PersistFunc func(ctx context.Context, req *TaskRequest, resp *TaskResponse) error

// NewOrchestratorParams configures New.
type NewOrchestratorParams struct {
	Router   *router.Router
	Registry *agents.Registry
	Fabric   *fabric.Fabric

	// Publisher emits task_completed change events. Defaults to NoOp.
	Publisher events.EventPublisher

	// Persist, when set, is invoked asynchronously for every completed task.
	Persist PersistFunc

	// HistorySize bounds the recent-history log. Zero means DefaultHistorySize.
	HistorySize int
}

// Orchestrator is the dispatch façade.
type Orchestrator struct {
	router    *router.Router
	registry  *agents.Registry
	fab       *fabric.Fabric
	publisher events.EventPublisher
	persist   PersistFunc

	persistErrs chan error

	histMu    sync.Mutex
	history   []*TaskResponse
	histLimit int

	startMu   sync.Mutex
	started   bool
	startedAt time.Time
}

// New creates the orchestrator. Call Start before Process.
func New(params NewOrchestratorParams) *Orchestrator {
	limit := params.HistorySize
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	publisher := params.Publisher
	if publisher == nil {
		publisher = &events.NoOpPublisher{}
	}
	return &Orchestrator{
		router:      params.Router,
		registry:    params.Registry,
		fab:         params.Fabric,
		publisher:   publisher,
		persist:     params.Persist,
		persistErrs: make(chan error, 64),
		history:     make([]*TaskResponse, 0, limit),
		histLimit:   limit,
	}
}

// Start brings up the message fabric. A fabric start failure is fatal to the
// orchestrator: nothing else is allowed to run without messaging.
func (o *Orchestrator) Start() error {
	o.startMu.Lock()
	defer o.startMu.Unlock()
	if o.started {
		return nil
	}
	if err := o.fab.Start(); err != nil {
		return fmt.Errorf("%s - start fabric: %w", logPrefix, err)
	}
	o.started = true
	o.startedAt = time.Now().UTC()
	slog.Info(fmt.Sprintf("%s - started, %d handler types supported", logPrefix, len(o.registry.KnownTypes())))
	return nil
}

// Shutdown destroys every live handler instance and stops the fabric.
func (o *Orchestrator) Shutdown(ctx context.Context) {
	o.startMu.Lock()
	defer o.startMu.Unlock()
	if !o.started {
		return
	}
	o.registry.Shutdown(ctx)
	o.fab.Stop()
	o.started = false
	slog.Info(fmt.Sprintf("%s - shut down", logPrefix))
}

// PersistErrors exposes failures of the asynchronous task persistence. The
// server loop drains it; an undrained channel drops further errors rather
// than blocking completions.
func (o *Orchestrator) PersistErrors() <-chan error {
	return o.persistErrs
}

// Process routes and executes one task. Handler failures and panics become a
// TaskResponse with Success=false; the only error return is ErrNotStarted.
func (o *Orchestrator) Process(ctx context.Context, req *TaskRequest) (*TaskResponse, error) {
	o.startMu.Lock()
	started := o.started
	o.startMu.Unlock()
	if !started {
		return nil, ErrNotStarted
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	start := time.Now()

	if req.Message == "" && req.TargetType == "" {
		return o.complete(ctx, req, &TaskResponse{
			RequestID: req.ID,
			Success:   false,
			Error: &Error{
				Code:    CodeInvalidRequest,
				Message: "request needs a message or an explicit target type",
			},
		}, start), nil
	}

	decision := o.router.Decide(ctx, req.Message, req.TargetType)

	handle, err := o.registry.GetOrCreate(ctx, decision.HandlerType, req.TenantID)
	if err != nil {
		code := CodeInternalError
		var unsupported *agents.UnsupportedTypeError
		if errors.As(err, &unsupported) {
			code = CodeUnsupportedType
		}
		return o.complete(ctx, req, &TaskResponse{
			RequestID:   req.ID,
			HandlerType: decision.HandlerType,
			RouteMethod: string(decision.Method),
			Success:     false,
			Error:       &Error{Code: code, Message: "handler unavailable", Details: err.Error()},
		}, start), nil
	}

	answer, procErr := o.invoke(ctx, handle, req)

	resp := &TaskResponse{
		RequestID:   req.ID,
		HandlerType: decision.HandlerType,
		RouteMethod: string(decision.Method),
		Success:     procErr == nil,
		Response:    answer,
	}
	if procErr != nil {
		code := CodeHandlerFailed
		retryable := true
		if errors.Is(procErr, context.DeadlineExceeded) {
			code = CodeTimeout
		}
		resp.Error = &Error{Code: code, Message: "handler failed", Details: procErr.Error(), Retryable: retryable}
	}
	return o.complete(ctx, req, resp, start), nil
}

// SmartRoute is the free-text entry point: routing is fully internal.
func (o *Orchestrator) SmartRoute(ctx context.Context, message, tenantID, userID string) (*TaskResponse, error) {
	return o.Process(ctx, &TaskRequest{
		Message:  message,
		TenantID: tenantID,
		UserID:   userID,
	})
}

// Status returns the read-only introspection snapshot.
func (o *Orchestrator) Status() Status {
	routed, broadcasts := o.fab.Counters()
	o.histMu.Lock()
	histLen := len(o.history)
	o.histMu.Unlock()
	o.startMu.Lock()
	startedAt := o.startedAt
	o.startMu.Unlock()
	return Status{
		HandlerTypes:    o.registry.KnownTypes(),
		ActiveInstances: o.registry.ActiveCount(),
		Tenants:         o.registry.Snapshot(),
		MessagesRouted:  routed,
		BroadcastsSent:  broadcasts,
		HistorySize:     histLen,
		StartedAt:       startedAt,
	}
}

// History returns the recent completions, oldest first.
func (o *Orchestrator) History() []*TaskResponse {
	o.histMu.Lock()
	defer o.histMu.Unlock()
	out := make([]*TaskResponse, len(o.history))
	copy(out, o.history)
	return out
}

// invoke runs the handler with panic containment. A panicking handler must
// not take down the dispatch loop or other in-flight requests.
func (o *Orchestrator) invoke(ctx context.Context, handle *agents.Handle, req *TaskRequest) (answer string, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error(fmt.Sprintf("%s - handler %s panicked: %v", logPrefix, handle.ID, r))
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handle.Process(ctx, &agents.Request{
		ID:       req.ID,
		Message:  req.Message,
		Context:  req.Context,
		TenantID: req.TenantID,
		UserID:   req.UserID,
		Priority: req.Priority,
	})
}

// complete stamps the response, appends it to the bounded history, publishes
// the change event, and kicks off asynchronous persistence.
func (o *Orchestrator) complete(ctx context.Context, req *TaskRequest, resp *TaskResponse, start time.Time) *TaskResponse {
	resp.ProcessingMs = time.Since(start).Milliseconds()
	resp.Timestamp = time.Now().UTC()

	o.histMu.Lock()
	o.history = append(o.history, resp)
	if len(o.history) > o.histLimit {
		o.history = o.history[len(o.history)-o.histLimit:]
	}
	o.histMu.Unlock()

	success := resp.Success
	event := &events.ChangedEvent{
		Kind:        events.KindTaskCompleted,
		TenantID:    req.TenantID,
		HandlerType: resp.HandlerType,
		RequestID:   resp.RequestID,
		Success:     &success,
		DurationMs:  resp.ProcessingMs,
		Timestamp:   resp.Timestamp.Format(time.RFC3339),
	}
	if err := o.publisher.PublishChanged(ctx, event); err != nil {
		slog.Warn(fmt.Sprintf("%s - publish task_completed for %s: %v", logPrefix, resp.RequestID, err))
	}

	if o.persist != nil {
		go func(req TaskRequest, resp TaskResponse) {
			pctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := o.persist(pctx, &req, &resp); err != nil {
				select {
				case o.persistErrs <- fmt.Errorf("%s - persist task %s: %w", logPrefix, resp.RequestID, err):
				default:
					slog.Warn(fmt.Sprintf("%s - persist error channel full, dropping: %v", logPrefix, err))
				}
			}
		}(*req, *resp)
	}

	return resp
}
