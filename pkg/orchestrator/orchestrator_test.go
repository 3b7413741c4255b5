package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/morezero/condo-orchestrator/pkg/agents"
	"github.com/morezero/condo-orchestrator/pkg/ai"
	"github.com/morezero/condo-orchestrator/pkg/catalog"
	"github.com/morezero/condo-orchestrator/pkg/events"
	"github.com/morezero/condo-orchestrator/pkg/fabric"
	"github.com/morezero/condo-orchestrator/pkg/router"
)

// echoHandler answers with its own type; panicType and failType misbehave on
// purpose.
type echoHandler struct {
	typ   string
	mode  string // "", "fail", "panic"
	reply string
}

func (e *echoHandler) Type() string                  { return e.typ }
func (e *echoHandler) Start(_ context.Context) error { return nil }
func (e *echoHandler) Stop(_ context.Context)        {}

func (e *echoHandler) Process(_ context.Context, req *agents.Request) (string, error) {
	switch e.mode {
	case "fail":
		return "", errors.New("handler exploded")
	case "panic":
		panic("handler panicked")
	default:
		if e.reply != "" {
			return e.reply, nil
		}
		return fmt.Sprintf("%s: %s", e.typ, req.Message), nil
	}
}

type testCore struct {
	orc *Orchestrator
	llm *ai.StaticClient
}

func newTestCore(t *testing.T, opts NewOrchestratorParams) *testCore {
	t.Helper()
	cat := catalog.Default()
	fab := fabric.New()
	llm := ai.NewStaticClient("support")

	chain := agents.NewFactoryChain()
	for _, typ := range cat.Types() {
		typ := typ
		chain.RegisterDynamic(typ, func(_ agents.Deps) (agents.Handler, error) {
			return &echoHandler{typ: typ}, nil
		})
	}
	chain.RegisterDynamic("ocorrencia", func(_ agents.Deps) (agents.Handler, error) {
		return &echoHandler{typ: "ocorrencia", mode: "fail"}, nil
	})
	chain.RegisterDynamic("obra", func(_ agents.Deps) (agents.Handler, error) {
		return &echoHandler{typ: "obra", mode: "panic"}, nil
	})

	reg := agents.NewRegistry(agents.NewRegistryParams{
		Factories: chain,
		Fabric:    fab,
		Catalog:   cat,
	})

	opts.Router = router.New(cat, llm)
	opts.Registry = reg
	opts.Fabric = fab
	orc := New(opts)
	if err := orc.Start(); err != nil {
		t.Fatalf("orchestrator_test - Start: %v", err)
	}
	t.Cleanup(func() { orc.Shutdown(context.Background()) })
	return &testCore{orc: orc, llm: llm}
}

func TestProcess_Success(t *testing.T) {
	core := newTestCore(t, NewOrchestratorParams{})

	resp, err := core.orc.Process(context.Background(), &TaskRequest{
		Message:  "liberar acesso na portaria principal",
		TenantID: "t1",
		UserID:   "u1",
	})
	if err != nil {
		t.Fatalf("orchestrator_test - Process: %v", err)
	}
	if !resp.Success {
		t.Fatalf("orchestrator_test - Success = false, error = %+v", resp.Error)
	}
	if resp.HandlerType != "acesso" {
		t.Errorf("orchestrator_test - HandlerType = %q, want acesso", resp.HandlerType)
	}
	if resp.RequestID == "" {
		t.Error("orchestrator_test - RequestID must be assigned")
	}
	if !strings.Contains(resp.Response, "liberar acesso") {
		t.Errorf("orchestrator_test - Response = %q", resp.Response)
	}
	if core.llm.Calls() != 0 {
		t.Error("orchestrator_test - keyword route must not invoke the LLM")
	}
}

func TestProcess_HandlerErrorBecomesFailedResponse(t *testing.T) {
	core := newTestCore(t, NewOrchestratorParams{})

	resp, err := core.orc.Process(context.Background(), &TaskRequest{
		Message:  "registrar ocorrência de barulho",
		TenantID: "t1",
	})
	if err != nil {
		t.Fatalf("orchestrator_test - Process must not return the handler error, got %v", err)
	}
	if resp.Success {
		t.Fatal("orchestrator_test - Success should be false for a failing handler")
	}
	if resp.Error == nil || resp.Error.Code != CodeHandlerFailed {
		t.Errorf("orchestrator_test - Error = %+v, want code %s", resp.Error, CodeHandlerFailed)
	}
	if !strings.Contains(resp.Error.Details, "handler exploded") {
		t.Errorf("orchestrator_test - Details = %q", resp.Error.Details)
	}
}

func TestProcess_PanicIsContained(t *testing.T) {
	core := newTestCore(t, NewOrchestratorParams{})

	resp, err := core.orc.Process(context.Background(), &TaskRequest{
		TargetType: "obra",
		Message:    "andamento da obra",
		TenantID:   "t1",
	})
	if err != nil {
		t.Fatalf("orchestrator_test - Process: %v", err)
	}
	if resp.Success {
		t.Fatal("orchestrator_test - panicking handler must yield a failed response")
	}
	if !strings.Contains(resp.Error.Details, "panic") {
		t.Errorf("orchestrator_test - Details = %q", resp.Error.Details)
	}

	// the dispatch loop survives
	resp2, err := core.orc.Process(context.Background(), &TaskRequest{
		Message:  "liberar acesso na portaria",
		TenantID: "t1",
	})
	if err != nil || !resp2.Success {
		t.Errorf("orchestrator_test - later request failed after a panic: %v %+v", err, resp2)
	}
}

func TestProcess_EmptyRequestInvalid(t *testing.T) {
	core := newTestCore(t, NewOrchestratorParams{})

	resp, err := core.orc.Process(context.Background(), &TaskRequest{TenantID: "t1"})
	if err != nil {
		t.Fatalf("orchestrator_test - Process: %v", err)
	}
	if resp.Success || resp.Error == nil || resp.Error.Code != CodeInvalidRequest {
		t.Errorf("orchestrator_test - response = %+v, want %s", resp, CodeInvalidRequest)
	}
}

func TestProcess_BeforeStart(t *testing.T) {
	orc := New(NewOrchestratorParams{
		Router:   router.New(catalog.Default(), nil),
		Registry: agents.NewRegistry(agents.NewRegistryParams{Fabric: fabric.New()}),
		Fabric:   fabric.New(),
	})
	if _, err := orc.Process(context.Background(), &TaskRequest{Message: "x"}); !errors.Is(err, ErrNotStarted) {
		t.Errorf("orchestrator_test - err = %v, want ErrNotStarted", err)
	}
}

func TestSmartRoute(t *testing.T) {
	core := newTestCore(t, NewOrchestratorParams{})

	resp, err := core.orc.SmartRoute(context.Background(), "segunda via do boleto", "t1", "u9")
	if err != nil {
		t.Fatalf("orchestrator_test - SmartRoute: %v", err)
	}
	if resp.HandlerType != "boleto" {
		t.Errorf("orchestrator_test - HandlerType = %q, want boleto", resp.HandlerType)
	}
	if !resp.Success {
		t.Errorf("orchestrator_test - Success = false: %+v", resp.Error)
	}
}

func TestHistory_BoundedAndOrdered(t *testing.T) {
	core := newTestCore(t, NewOrchestratorParams{HistorySize: 5})

	for i := 0; i < 8; i++ {
		core.orc.Process(context.Background(), &TaskRequest{
			ID:       fmt.Sprintf("req-%d", i),
			Message:  "liberar acesso",
			TenantID: "t1",
		})
	}

	hist := core.orc.History()
	if len(hist) != 5 {
		t.Fatalf("orchestrator_test - history length = %d, want 5", len(hist))
	}
	if hist[0].RequestID != "req-3" || hist[4].RequestID != "req-7" {
		t.Errorf("orchestrator_test - history window = [%s .. %s], want [req-3 .. req-7]",
			hist[0].RequestID, hist[4].RequestID)
	}
}

func TestStatusSnapshot(t *testing.T) {
	core := newTestCore(t, NewOrchestratorParams{})

	core.orc.Process(context.Background(), &TaskRequest{Message: "liberar acesso", TenantID: "t1"})
	core.orc.Process(context.Background(), &TaskRequest{Message: "segunda via do boleto", TenantID: "t2"})

	st := core.orc.Status()
	if st.ActiveInstances != 2 {
		t.Errorf("orchestrator_test - ActiveInstances = %d, want 2", st.ActiveInstances)
	}
	if len(st.HandlerTypes) == 0 {
		t.Error("orchestrator_test - HandlerTypes empty")
	}
	if len(st.Tenants["t1"]) != 1 || len(st.Tenants["t2"]) != 1 {
		t.Errorf("orchestrator_test - Tenants = %+v", st.Tenants)
	}
	if st.HistorySize != 2 {
		t.Errorf("orchestrator_test - HistorySize = %d, want 2", st.HistorySize)
	}
}

func TestTaskCompletedEventPublished(t *testing.T) {
	var mu sync.Mutex
	var got []*events.ChangedEvent
	pub := events.NewCallbackPublisher(func(_ context.Context, event *events.ChangedEvent) error {
		mu.Lock()
		got = append(got, event)
		mu.Unlock()
		return nil
	})
	core := newTestCore(t, NewOrchestratorParams{Publisher: pub})

	resp, _ := core.orc.Process(context.Background(), &TaskRequest{Message: "liberar acesso", TenantID: "t1"})

	mu.Lock()
	defer mu.Unlock()
	var completed *events.ChangedEvent
	for _, e := range got {
		if e.Kind == events.KindTaskCompleted {
			completed = e
		}
	}
	if completed == nil {
		t.Fatal("orchestrator_test - no task_completed event published")
	}
	if completed.RequestID != resp.RequestID {
		t.Errorf("orchestrator_test - event request id = %q, want %q", completed.RequestID, resp.RequestID)
	}
	if completed.Success == nil || !*completed.Success {
		t.Error("orchestrator_test - event should carry success=true")
	}
}

func TestPersist_FailureSurfacesOnChannel(t *testing.T) {
	persist := func(_ context.Context, _ *TaskRequest, _ *TaskResponse) error {
		return errors.New("db down")
	}
	core := newTestCore(t, NewOrchestratorParams{Persist: persist})

	core.orc.Process(context.Background(), &TaskRequest{Message: "liberar acesso", TenantID: "t1"})

	select {
	case err := <-core.orc.PersistErrors():
		if !strings.Contains(err.Error(), "db down") {
			t.Errorf("orchestrator_test - persist error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("orchestrator_test - persist failure never surfaced")
	}
}

func TestDispatcher_MethodSwitch(t *testing.T) {
	core := newTestCore(t, NewOrchestratorParams{})
	disp := NewDispatcher(core.orc)
	ctx := context.Background()

	params, _ := json.Marshal(&TaskRequest{Message: "liberar acesso na portaria", TenantID: "t1"})
	reply := disp.Dispatch(ctx, &TaskEnvelope{ID: "1", Method: "process", Params: params})
	if !reply.Ok {
		t.Fatalf("orchestrator_test - process reply not ok: %+v", reply.Error)
	}

	routeParams := []byte(`{"message":"segunda via do boleto","tenantId":"t1"}`)
	reply = disp.Dispatch(ctx, &TaskEnvelope{ID: "2", Method: "smartRoute", Params: routeParams})
	if !reply.Ok {
		t.Fatalf("orchestrator_test - smartRoute reply not ok: %+v", reply.Error)
	}
	if resp, ok := reply.Result.(*TaskResponse); !ok || resp.HandlerType != "boleto" {
		t.Errorf("orchestrator_test - smartRoute result = %+v", reply.Result)
	}

	reply = disp.Dispatch(ctx, &TaskEnvelope{ID: "3", Method: "status"})
	if !reply.Ok {
		t.Fatalf("orchestrator_test - status reply not ok: %+v", reply.Error)
	}

	reply = disp.Dispatch(ctx, &TaskEnvelope{ID: "4", Method: "nope"})
	if reply.Ok || reply.Error == nil || reply.Error.Code != "METHOD_NOT_FOUND" {
		t.Errorf("orchestrator_test - unknown method reply = %+v", reply)
	}
}

func TestDispatcher_CtxFillsTenant(t *testing.T) {
	core := newTestCore(t, NewOrchestratorParams{})
	disp := NewDispatcher(core.orc)

	params := []byte(`{"message":"liberar acesso na portaria"}`)
	reply := disp.Dispatch(context.Background(), &TaskEnvelope{
		ID:     "1",
		Method: "process",
		Params: params,
		Ctx:    &InvocationContext{TenantID: "t7", UserID: "u7"},
	})
	if !reply.Ok {
		t.Fatalf("orchestrator_test - reply not ok: %+v", reply.Error)
	}

	st := core.orc.Status()
	if len(st.Tenants["t7"]) != 1 {
		t.Errorf("orchestrator_test - instance not created under ctx tenant: %+v", st.Tenants)
	}
}
