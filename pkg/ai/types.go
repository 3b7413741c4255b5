// Package ai provides the provider-agnostic text-generation client used by
// the capability router and by handlers for natural-language replies.
package ai

import "context"

// Options controls model behavior; zero fields fall back to the client's
// configured defaults.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Client is the text-generation collaborator. Any non-success outcome must be
// treated as "no answer" by callers, never as fatal.
type Client interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error)
}

func valueOrDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func orFloat(v, def float64) float64 {
	if v != 0 {
		return v
	}
	return def
}

func orInt(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}
