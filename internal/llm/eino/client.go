// Package eino implements llm.Completer on an eino OpenAI-compatible chat model.
package eino

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"biomarket-backend/internal/llm"
	"biomarket-backend/internal/shared/telemetry"
)

const systemPrompt = "Tu es un générateur JSON. Réponds uniquement avec un objet JSON."

type generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Client keeps one chat model per model id, built on first use.
type Client struct {
	baseURL string
	apiKey  string

	mu     sync.Mutex
	models map[string]generator
	build  func(ctx context.Context, modelID string) (generator, error)
}

func NewClient(baseURL, apiKey string) *Client {
	c := &Client{baseURL: baseURL, apiKey: apiKey, models: make(map[string]generator)}
	c.build = c.newChatModel
	return c
}

func (c *Client) newChatModel(ctx context.Context, modelID string) (generator, error) {
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: c.baseURL,
		APIKey:  c.apiKey,
		Model:   modelID,
	})
	if err != nil {
		return nil, fmt.Errorf("eino chat model %s: %w", modelID, err)
	}
	return cm, nil
}

func (c *Client) chatModel(ctx context.Context, modelID string) (generator, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cm, ok := c.models[modelID]; ok {
		return cm, nil
	}
	cm, err := c.build(ctx, modelID)
	if err != nil {
		return nil, err
	}
	c.models[modelID] = cm
	return cm, nil
}

// Complete sends a system + user exchange and returns the assistant content.
func (c *Client) Complete(ctx context.Context, modelID, prompt string) (string, error) {
	if strings.TrimSpace(modelID) == "" {
		return "", fmt.Errorf("LLM_MODEL is required for eino")
	}
	cm, err := c.chatModel(ctx, modelID)
	if err != nil {
		return "", err
	}
	messages := []*schema.Message{
		{Role: schema.System, Content: systemPrompt},
		{Role: schema.User, Content: prompt},
	}
	resp, err := cm.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("eino generate: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("eino response empty content")
	}
	telemetry.Info("llm.response", map[string]any{"provider": "eino", "model": modelID})
	return strings.TrimSpace(resp.Content), nil
}

var _ llm.Completer = (*Client)(nil)
