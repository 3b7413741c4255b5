package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	anthropicEndpoint   = "https://api.anthropic.com/v1/messages"
	anthropicVersion    = "2023-06-01"
	anthropicModel      = "claude-3-5-haiku-latest"
	anthropicMaxTokens  = 1024
	anthropicTimeout    = 60 * time.Second
)

func init() {
	RegisterProvider("anthropic", newAnthropicClient, "claude")
}

type anthropicClient struct {
	apiKey     string
	httpClient *http.Client
	defaults   Options
}

func newAnthropicClient(cfg FactoryConfig) (Client, error) {
	if cfg.AnthropicKey == "" {
		return nil, fmt.Errorf("ai: anthropic API key not configured")
	}
	return &anthropicClient{
		apiKey:     cfg.AnthropicKey,
		httpClient: &http.Client{Timeout: anthropicTimeout},
		defaults: Options{
			Model:       valueOrDefault(cfg.Model, anthropicModel),
			Temperature: orFloat(cfg.Temperature, 0.2),
			MaxTokens:   orInt(cfg.MaxTokens, anthropicMaxTokens),
		},
	}, nil
}

func (c *anthropicClient) Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	merged := mergeOptions(c.defaults, opts)

	body := map[string]interface{}{
		"model":       merged.Model,
		"system":      systemPrompt,
		"max_tokens":  merged.MaxTokens,
		"temperature": merged.Temperature,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]string{
					{"type": "text", "text": userPrompt},
				},
			},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("ai: anthropic marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicEndpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("ai: anthropic build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai: anthropic request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ai: anthropic read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ai: anthropic status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var decoded struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("ai: anthropic decode response: %w", err)
	}

	var sb strings.Builder
	for _, block := range decoded.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

func mergeOptions(defaults, opts Options) Options {
	return Options{
		Model:       valueOrDefault(opts.Model, defaults.Model),
		Temperature: orFloat(opts.Temperature, defaults.Temperature),
		MaxTokens:   orInt(opts.MaxTokens, defaults.MaxTokens),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
