package ai

import (
	"context"
	"testing"
)

func TestNewClient_RegisteredProviders(t *testing.T) {
	cases := []struct {
		provider string
		cfg      FactoryConfig
	}{
		{"anthropic", FactoryConfig{Provider: "anthropic", AnthropicKey: "test-key"}},
		{"claude", FactoryConfig{Provider: "claude", AnthropicKey: "test-key"}},
		{"openai", FactoryConfig{Provider: "openai", OpenAIKey: "test-key"}},
		{"gpt", FactoryConfig{Provider: "gpt", OpenAIKey: "test-key"}},
		{"static", FactoryConfig{Provider: "static"}},
		{"none", FactoryConfig{Provider: "none"}},
		{"STATIC", FactoryConfig{Provider: "STATIC"}},
	}

	for _, tc := range cases {
		client, err := NewClient(tc.cfg)
		if err != nil {
			t.Errorf("NewClient(%q) error: %v", tc.provider, err)
			continue
		}
		if client == nil {
			t.Errorf("NewClient(%q) returned nil client", tc.provider)
		}
	}
}

func TestNewClient_UnknownProvider(t *testing.T) {
	if _, err := NewClient(FactoryConfig{Provider: "oracle"}); err == nil {
		t.Error("expected error for unregistered provider")
	}
}

func TestNewClient_MissingKeys(t *testing.T) {
	if _, err := NewClient(FactoryConfig{Provider: "anthropic"}); err == nil {
		t.Error("expected error for anthropic without API key")
	}
	if _, err := NewClient(FactoryConfig{Provider: "openai"}); err == nil {
		t.Error("expected error for openai without API key")
	}
}

func TestStaticClient_RecordsPrompts(t *testing.T) {
	client := NewStaticClient("financeiro")

	answer, err := client.Generate(context.Background(), "system", "qual o setor?", Options{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if answer != "financeiro" {
		t.Errorf("answer = %q, want financeiro", answer)
	}
	if client.Calls() != 1 {
		t.Errorf("Calls = %d, want 1", client.Calls())
	}
	if client.LastPrompt() != "qual o setor?" {
		t.Errorf("LastPrompt = %q", client.LastPrompt())
	}
}

func TestFailingClient(t *testing.T) {
	client := NewFailingClient("provider unavailable")

	if _, err := client.Generate(context.Background(), "", "anything", Options{}); err == nil {
		t.Error("expected error from failing client")
	}
	if client.Calls() != 1 {
		t.Errorf("Calls = %d, want 1", client.Calls())
	}
}

func TestNewClient_DefaultProviderWhenEmpty(t *testing.T) {
	// Empty provider falls back to the anthropic default, which needs a key.
	if _, err := NewClient(FactoryConfig{AnthropicKey: "test-key"}); err != nil {
		t.Errorf("NewClient with default provider failed: %v", err)
	}
}
