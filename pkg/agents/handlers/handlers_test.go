package handlers

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/morezero/condo-orchestrator/pkg/agents"
	"github.com/morezero/condo-orchestrator/pkg/ai"
	"github.com/morezero/condo-orchestrator/pkg/catalog"
	"github.com/morezero/condo-orchestrator/pkg/fabric"
)

func newTestFabric(t *testing.T) *fabric.Fabric {
	t.Helper()
	f := fabric.New()
	if err := f.Start(); err != nil {
		t.Fatalf("handlers_test - fabric start: %v", err)
	}
	return f
}

func TestDefaultChain_CoversEveryCatalogType(t *testing.T) {
	cat := catalog.Default()
	chain := DefaultChain(ChainDeps{Types: cat.Types()})

	for _, typ := range cat.Types() {
		if _, ok := chain.Dynamic(typ); !ok {
			t.Errorf("handlers_test - no dynamic factory for %q", typ)
		}
	}
	for _, typ := range []string{TypeSupport, TypeAcesso, TypeFinanceiro, TypeAssembleia} {
		if _, ok := chain.Fallback(typ); !ok {
			t.Errorf("handlers_test - no fallback factory for %q", typ)
		}
	}
}

func TestSupport_CannedReplyWhenLLMFails(t *testing.T) {
	fab := newTestFabric(t)
	h, err := NewSupport(agents.Deps{TenantID: "t1", Fabric: fab, AI: ai.NewFailingClient("down")})
	if err != nil {
		t.Fatalf("handlers_test - NewSupport: %v", err)
	}

	reply, err := h.Process(context.Background(), &agents.Request{Message: "olá", TenantID: "t1"})
	if err != nil {
		t.Fatalf("handlers_test - support must not fail, got %v", err)
	}
	if reply == "" {
		t.Error("handlers_test - support must always answer")
	}
}

func TestSupport_UsesLLMWhenAvailable(t *testing.T) {
	fab := newTestFabric(t)
	llm := ai.NewStaticClient("resposta do atendimento")
	h, _ := NewSupport(agents.Deps{TenantID: "t1", Fabric: fab, AI: llm})

	reply, err := h.Process(context.Background(), &agents.Request{Message: "qual o horário da piscina?", TenantID: "t1"})
	if err != nil {
		t.Fatalf("handlers_test - Process: %v", err)
	}
	if reply != "resposta do atendimento" {
		t.Errorf("handlers_test - reply = %q", reply)
	}
	if llm.Calls() != 1 {
		t.Errorf("handlers_test - LLM calls = %d, want 1", llm.Calls())
	}
}

func TestAcesso_BroadcastsGateEventToTenant(t *testing.T) {
	fab := newTestFabric(t)
	h, err := NewAcesso(agents.Deps{TenantID: "t1", Fabric: fab})
	if err != nil {
		t.Fatalf("handlers_test - NewAcesso: %v", err)
	}

	fab.RegisterAgent(agents.HandleID(TypeAcesso, "t1"), TypeAcesso, "t1", nil)
	peer := fab.RegisterAgent("portaria_t1", "portaria", "t1", nil)
	outsider := fab.RegisterAgent("portaria_t2", "portaria", "t2", nil)

	reply, err := h.Process(context.Background(), &agents.Request{
		Message:  "liberar acesso para o visitante João",
		TenantID: "t1",
	})
	if err != nil {
		t.Fatalf("handlers_test - Process: %v", err)
	}
	if !strings.Contains(strings.ToLower(reply), "liberado") {
		t.Errorf("handlers_test - reply = %q, want liberation confirmation", reply)
	}

	env, ok := peer.TryReceive()
	if !ok {
		t.Fatal("handlers_test - tenant peer did not receive the gate event")
	}
	event, ok := env.Payload.(GateEvent)
	if !ok {
		t.Fatalf("handlers_test - payload type = %T, want GateEvent", env.Payload)
	}
	if event.Action != "liberar" {
		t.Errorf("handlers_test - action = %q, want liberar", event.Action)
	}
	if outsider.Len() != 0 {
		t.Error("handlers_test - gate event must not leave the tenant")
	}
}

func TestAssembleia_PublishesNotice(t *testing.T) {
	fab := newTestFabric(t)
	h, err := NewAssembleia(agents.Deps{TenantID: "t1", Fabric: fab})
	if err != nil {
		t.Fatalf("handlers_test - NewAssembleia: %v", err)
	}

	fab.RegisterAgent(agents.HandleID(TypeAssembleia, "t1"), TypeAssembleia, "t1", nil)
	sub := fab.RegisterAgent("support_t1", "support", "t1", []string{TopicComunicados("t1")})

	reply, err := h.Process(context.Background(), &agents.Request{
		Message:  "convocar assembleia ordinária para março",
		TenantID: "t1",
	})
	if err != nil {
		t.Fatalf("handlers_test - Process: %v", err)
	}
	if !strings.Contains(reply, "1") {
		t.Errorf("handlers_test - reply should mention delivered count, got %q", reply)
	}

	env, ok := sub.TryReceive()
	if !ok {
		t.Fatal("handlers_test - subscriber did not receive the notice")
	}
	if env.Topic != TopicComunicados("t1") {
		t.Errorf("handlers_test - topic = %q", env.Topic)
	}
	notice, ok := env.Payload.(Notice)
	if !ok {
		t.Fatalf("handlers_test - payload type = %T, want Notice", env.Payload)
	}
	if notice.TenantID != "t1" {
		t.Errorf("handlers_test - notice tenant = %q, want t1", notice.TenantID)
	}
}

func TestFinanceiro_ConsultsBoletoOverFabric(t *testing.T) {
	fab := newTestFabric(t)
	h, err := NewFinanceiro(agents.Deps{TenantID: "t1", Fabric: fab})
	if err != nil {
		t.Fatalf("handlers_test - NewFinanceiro: %v", err)
	}

	fab.RegisterAgent(agents.HandleID(TypeFinanceiro, "t1"), TypeFinanceiro, "t1", nil)
	boleto := fab.RegisterAgent(agents.HandleID("boleto", "t1"), "boleto", "t1", nil)

	go func() {
		env, ok := boleto.Receive(context.Background())
		if !ok {
			return
		}
		fab.Respond(agents.HandleID("boleto", "t1"), env, "2 boletos em aberto")
	}()

	reply, err := h.Process(context.Background(), &agents.Request{
		Message:  "como está a cobrança do condomínio?",
		TenantID: "t1",
	})
	if err != nil {
		t.Fatalf("handlers_test - Process: %v", err)
	}
	if !strings.Contains(reply, "2 boletos em aberto") {
		t.Errorf("handlers_test - reply should fold the boleto status in, got %q", reply)
	}
}

func TestFinanceiro_AbsentBoletoDoesNotBlock(t *testing.T) {
	fab := newTestFabric(t)
	h, _ := NewFinanceiro(agents.Deps{TenantID: "t1", Fabric: fab})
	fab.RegisterAgent(agents.HandleID(TypeFinanceiro, "t1"), TypeFinanceiro, "t1", nil)

	start := time.Now()
	reply, err := h.Process(context.Background(), &agents.Request{Message: "saldo", TenantID: "t1"})
	if err != nil {
		t.Fatalf("handlers_test - Process: %v", err)
	}
	if reply == "" {
		t.Error("handlers_test - financeiro must answer without a boleto handler")
	}
	// an unknown receiver fails fast, not after the status timeout
	if elapsed := time.Since(start); elapsed > financeiroStatusTimeout {
		t.Errorf("handlers_test - Process took %s with no boleto handler registered", elapsed)
	}
}

func TestGeneric_AnswersFabricRequests(t *testing.T) {
	fab := newTestFabric(t)
	cat := catalog.Default()
	h, err := NewGeneric(agents.Deps{HandlerType: "reserva", TenantID: "t1", Fabric: fab, Catalog: cat})
	if err != nil {
		t.Fatalf("handlers_test - NewGeneric: %v", err)
	}

	reservaInbox := fab.RegisterAgent(agents.HandleID("reserva", "t1"), "reserva", "t1", nil)
	fab.RegisterAgent("caller_t1", "support", "t1", nil)

	consumer, ok := h.(agents.EnvelopeConsumer)
	if !ok {
		t.Fatal("handlers_test - generic handler must consume envelopes")
	}
	go func() {
		env, ok := reservaInbox.Receive(context.Background())
		if !ok {
			return
		}
		consumer.OnEnvelope(context.Background(), env)
	}()

	payload, ok := fab.Request(context.Background(), "caller_t1", agents.HandleID("reserva", "t1"),
		"status", 2*time.Second, nil)
	if !ok {
		t.Fatal("handlers_test - generic handler did not answer the request")
	}
	if s, _ := payload.(string); !strings.Contains(s, "reserva") {
		t.Errorf("handlers_test - payload = %v", payload)
	}
}

func TestGeneric_NoLLMStillAnswers(t *testing.T) {
	fab := newTestFabric(t)
	h, _ := NewGeneric(agents.Deps{HandlerType: "pet", TenantID: "t1", Fabric: fab, Catalog: catalog.Default()})

	reply, err := h.Process(context.Background(), &agents.Request{Message: "meu cachorro sumiu", TenantID: "t1"})
	if err != nil {
		t.Fatalf("handlers_test - Process: %v", err)
	}
	if !strings.Contains(reply, "pet") {
		t.Errorf("handlers_test - reply = %q", reply)
	}
}
