package groq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/conneroisu/groq-go"

	"pixgenie/internal/keywords"
	"pixgenie/internal/llm"
	"pixgenie/pkg/prompts"
)

var _ llm.KeywordExtractor = (*Client)(nil)

type Client struct {
	client  *groq.Client
	model   groq.ChatModel
	prompts *prompts.Prompts
}

func NewClient(apiKey, model string, p *prompts.Prompts) (*Client, error) {
	client, err := groq.NewClient(apiKey)
	if err != nil {
		return nil, fmt.Errorf("create groq client: %w", err)
	}

	return &Client{
		client:  client,
		model:   groq.ChatModel(model),
		prompts: p,
	}, nil
}

func (c *Client) ExtractKeywords(ctx context.Context, content string, count int) ([]string, error) {
	params := prompts.KeywordsParams{Content: content, Count: count}

	system, err := c.prompts.RenderKeywordsSystem(params)
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}
	prompt, err := c.prompts.RenderKeywords(params)
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	raw, err := c.generateJSONContent(ctx, system, prompt)
	if err != nil {
		return nil, err
	}

	list, err := keywords.Parse(json.RawMessage(raw))
	if err != nil {
		slog.Debug("Unparseable keyword response", "content", raw)
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if count > 0 && len(list) > count {
		list = list[:count]
	}
	return list, nil
}

func (c *Client) generateJSONContent(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.ChatCompletion(ctx, groq.ChatCompletionRequest{
		Model: c.model,
		Messages: []groq.ChatCompletionMessage{
			{Role: groq.RoleSystem, Content: systemPrompt},
			{Role: groq.RoleUser, Content: userPrompt},
		},
		ResponseFormat: &groq.ChatResponseFormat{
			Type: "json_object",
		},
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response")
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("empty response")
	}

	return content, nil
}
