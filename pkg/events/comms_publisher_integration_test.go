package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	commsserver "github.com/nats-io/nats-server/v2/server"
	comms "github.com/nats-io/nats.go"
)

// startTestServer starts an in-process NATS server for testing.
func startTestServer(t *testing.T, port int) (*comms.Conn, func()) {
	t.Helper()

	opts := &commsserver.Options{
		Host:   "127.0.0.1",
		Port:   port,
		NoLog:  true,
		NoSigs: true,
	}

	ns, err := commsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("events:comms_publisher_integration_test - failed to create server: %v", err)
	}

	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatal("events:comms_publisher_integration_test - server failed to start")
	}

	nc, err := comms.Connect(ns.ClientURL(), comms.Timeout(5*time.Second))
	if err != nil {
		ns.Shutdown()
		t.Fatalf("events:comms_publisher_integration_test - failed to connect: %v", err)
	}

	cleanup := func() {
		nc.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
	}

	return nc, cleanup
}

func TestCommsPublisher_PublishChanged_GranularSubject(t *testing.T) {
	nc, cleanup := startTestServer(t, 14230)
	defer cleanup()

	publisher := NewCommsPublisher(nc, nil)

	// Subscribe to granular subject
	received := make(chan *ChangedEvent, 1)
	sub, err := nc.Subscribe("condo.changed.t1.acesso", func(msg *comms.Msg) {
		var event ChangedEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			t.Errorf("events:comms_publisher_integration_test - failed to unmarshal: %v", err)
			return
		}
		received <- &event
	})
	if err != nil {
		t.Fatalf("events:comms_publisher_integration_test - failed to subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	event := &ChangedEvent{
		Kind:        KindAgentCreated,
		TenantID:    "t1",
		HandlerType: "acesso",
		AgentID:     "acesso_t1",
		Timestamp:   "2026-01-01T00:00:00Z",
	}

	err = publisher.PublishChanged(context.Background(), event)
	if err != nil {
		t.Fatalf("events:comms_publisher_integration_test - PublishChanged failed: %v", err)
	}
	nc.Flush()

	select {
	case got := <-received:
		if got.Kind != KindAgentCreated {
			t.Errorf("events:comms_publisher_integration_test - Kind = %q, want %q", got.Kind, KindAgentCreated)
		}
		if got.AgentID != "acesso_t1" {
			t.Errorf("events:comms_publisher_integration_test - AgentID = %q, want acesso_t1", got.AgentID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("events:comms_publisher_integration_test - granular event never arrived")
	}
}

func TestCommsPublisher_PublishChanged_GlobalSubject(t *testing.T) {
	nc, cleanup := startTestServer(t, 14231)
	defer cleanup()

	publisher := NewCommsPublisher(nc, &CommsPublisherOpts{GlobalChangeSubject: "custom.changed"})

	received := make(chan *ChangedEvent, 1)
	sub, err := nc.Subscribe("custom.changed", func(msg *comms.Msg) {
		var event ChangedEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			t.Errorf("events:comms_publisher_integration_test - failed to unmarshal: %v", err)
			return
		}
		received <- &event
	})
	if err != nil {
		t.Fatalf("events:comms_publisher_integration_test - failed to subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	err = publisher.PublishChanged(context.Background(), &ChangedEvent{
		Kind:        KindTaskCompleted,
		TenantID:    "t2",
		HandlerType: "boleto",
		RequestID:   "req-1",
		Timestamp:   "2026-01-01T00:00:00Z",
	})
	if err != nil {
		t.Fatalf("events:comms_publisher_integration_test - PublishChanged failed: %v", err)
	}
	nc.Flush()

	select {
	case got := <-received:
		if got.RequestID != "req-1" {
			t.Errorf("events:comms_publisher_integration_test - RequestID = %q, want req-1", got.RequestID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("events:comms_publisher_integration_test - global event never arrived")
	}
}
