package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"gezy-backend/internal/llm"
)

const DefaultModel = "gpt-4o-mini"

// systemPrompt frames every letter request.
const systemPrompt = "Du bist ein erfahrener Rechtsexperte für deutsches Verwaltungsrecht. Antworte ausschließlich mit dem angeforderten Schreiben."

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	api   *goopenai.Client
	model string
}

// NewClient constructs an OpenAI client. baseURL overrides the API endpoint when set.
func NewClient(apiKey, model, baseURL string) *Client {
	cfg := goopenai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Client{api: goopenai.NewClientWithConfig(cfg), model: model}
}

// Factory adapts NewClient to llm.Factory.
func Factory(apiKey, model string) llm.Client {
	return NewClient(apiKey, model, "")
}

func (c *Client) Complete(ctx context.Context, prompt string) (llm.Completion, error) {
	req := goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if !isGPT5(c.model) {
		req.Temperature = 0.3
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return llm.Completion{}, wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return llm.Completion{}, fmt.Errorf("openai: %w", llm.ErrEmptyCompletion)
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return llm.Completion{}, fmt.Errorf("openai: %w", llm.ErrEmptyCompletion)
	}
	model := resp.Model
	if model == "" {
		model = c.model
	}
	return llm.Completion{
		Text:             text,
		Provider:         llm.ProviderOpenAI,
		Model:            model,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

func (c *Client) Provider() string { return llm.ProviderOpenAI }

func (c *Client) Model() string { return c.model }

// wrapError keeps the HTTP status visible so the retry policy can classify it.
func wrapError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("openai: http status %d: %w", apiErr.HTTPStatusCode, err)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("openai: http status %d: %w", reqErr.HTTPStatusCode, err)
	}
	return fmt.Errorf("openai: %w", err)
}

// gpt-5 models reject a custom temperature.
func isGPT5(model string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(model)), "gpt-5")
}

var _ llm.Client = (*Client)(nil)
