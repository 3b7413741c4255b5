package events

import (
	"context"
	"errors"
	"testing"
)

func TestNoOpPublisher(t *testing.T) {
	pub := &NoOpPublisher{}
	err := pub.PublishChanged(context.Background(), &ChangedEvent{
		Kind:        KindAgentCreated,
		TenantID:    "t1",
		HandlerType: "acesso",
	})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestCallbackPublisher(t *testing.T) {
	var captured *ChangedEvent

	pub := NewCallbackPublisher(func(_ context.Context, event *ChangedEvent) error {
		captured = event
		return nil
	})

	event := &ChangedEvent{
		Kind:        KindTaskCompleted,
		TenantID:    "t1",
		HandlerType: "boleto",
		RequestID:   "req-5",
		DurationMs:  42,
		Timestamp:   "2026-01-01T00:00:00Z",
	}

	err := pub.PublishChanged(context.Background(), event)
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	if captured == nil {
		t.Fatal("expected callback to be called")
	}
	if captured.Kind != KindTaskCompleted {
		t.Errorf("expected kind %s, got %s", KindTaskCompleted, captured.Kind)
	}
	if captured.RequestID != "req-5" {
		t.Errorf("expected request req-5, got %s", captured.RequestID)
	}
}

func TestFanoutPublisher(t *testing.T) {
	calls := 0
	ok := NewCallbackPublisher(func(_ context.Context, _ *ChangedEvent) error {
		calls++
		return nil
	})
	failing := NewCallbackPublisher(func(_ context.Context, _ *ChangedEvent) error {
		calls++
		return errors.New("sink down")
	})

	pub := NewFanoutPublisher(failing, ok)
	err := pub.PublishChanged(context.Background(), &ChangedEvent{Kind: KindAgentDestroyed})

	if calls != 2 {
		t.Errorf("expected both publishers called, got %d", calls)
	}
	if err == nil {
		t.Error("expected the first error to be returned")
	}
}
