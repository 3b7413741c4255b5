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
	openaiEndpoint  = "https://api.openai.com/v1/chat/completions"
	openaiModel     = "gpt-4o-mini"
	openaiMaxTokens = 1024
	openaiTimeout   = 60 * time.Second
)

func init() {
	RegisterProvider("openai", newOpenAIClient, "gpt")
}

type openaiClient struct {
	apiKey     string
	httpClient *http.Client
	defaults   Options
}

func newOpenAIClient(cfg FactoryConfig) (Client, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("ai: openai API key not configured")
	}
	return &openaiClient{
		apiKey:     cfg.OpenAIKey,
		httpClient: &http.Client{Timeout: openaiTimeout},
		defaults: Options{
			Model:       valueOrDefault(cfg.Model, openaiModel),
			Temperature: orFloat(cfg.Temperature, 0.2),
			MaxTokens:   orInt(cfg.MaxTokens, openaiMaxTokens),
		},
	}, nil
}

func (c *openaiClient) Generate(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	merged := mergeOptions(c.defaults, opts)

	messages := []map[string]string{}
	if systemPrompt != "" {
		messages = append(messages, map[string]string{"role": "system", "content": systemPrompt})
	}
	messages = append(messages, map[string]string{"role": "user", "content": userPrompt})

	body := map[string]interface{}{
		"model":                 merged.Model,
		"temperature":           merged.Temperature,
		"max_completion_tokens": merged.MaxTokens,
		"messages":              messages,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("ai: openai marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openaiEndpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("ai: openai build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai: openai request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ai: openai read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ai: openai status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var decoded struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("ai: openai decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("ai: openai returned no choices")
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}
