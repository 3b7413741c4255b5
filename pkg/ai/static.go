package ai

import (
	"context"
	"fmt"
	"sync"
)

func init() {
	RegisterProvider("static", func(cfg FactoryConfig) (Client, error) {
		return NewStaticClient(cfg.Extra["answer"]), nil
	}, "none")
}

// StaticClient returns a fixed answer and records every prompt it receives.
// Used in tests and as the provider of last resort when no API key is
// configured.
type StaticClient struct {
	mu      sync.Mutex
	answer  string
	err     error
	prompts []string
}

// NewStaticClient creates a StaticClient that always answers with answer.
func NewStaticClient(answer string) *StaticClient {
	return &StaticClient{answer: answer}
}

// NewFailingClient creates a StaticClient whose Generate always fails.
func NewFailingClient(msg string) *StaticClient {
	return &StaticClient{err: fmt.Errorf("ai: %s", msg)}
}

// Generate records the user prompt and returns the canned answer or error.
func (c *StaticClient) Generate(_ context.Context, _ string, userPrompt string, _ Options) (string, error) {
	c.mu.Lock()
	c.prompts = append(c.prompts, userPrompt)
	c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	return c.answer, nil
}

// Calls returns how many times Generate was invoked.
func (c *StaticClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.prompts)
}

// LastPrompt returns the most recent user prompt, or "".
func (c *StaticClient) LastPrompt() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.prompts) == 0 {
		return ""
	}
	return c.prompts[len(c.prompts)-1]
}
