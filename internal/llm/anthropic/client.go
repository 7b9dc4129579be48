package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"gezy-backend/internal/llm"
)

const (
	DefaultModel   = "claude-3-5-sonnet-latest"
	defaultBaseURL = "https://api.anthropic.com/v1"
	apiVersion     = "2023-06-01"
	maxBodyBytes   = 4 << 20
)

const systemPrompt = "Du bist ein erfahrener Rechtsexperte für deutsches Verwaltungsrecht. Antworte ausschließlich mit dem angeforderten Schreiben."

// Client implements llm.Client using the Anthropic Messages API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey, model, baseURL string) *Client {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

func Factory(apiKey, model string) llm.Client {
	return NewClient(apiKey, model, "")
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type response struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) Complete(ctx context.Context, prompt string) (llm.Completion, error) {
	payload, err := json.Marshal(request{
		Model:       c.model,
		MaxTokens:   4096,
		System:      systemPrompt,
		Messages:    []message{{Role: "user", Content: prompt}},
		Temperature: 0.3,
	})
	if err != nil {
		return llm.Completion{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(payload))
	if err != nil {
		return llm.Completion{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return llm.Completion{}, fmt.Errorf("anthropic request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return llm.Completion{}, fmt.Errorf("anthropic read: %w", err)
	}

	var parsed response
	jsonErr := json.Unmarshal(body, &parsed)
	if resp.StatusCode != http.StatusOK {
		// 529 is Anthropic's overloaded status; it classifies as a 5xx.
		msg := strings.TrimSpace(string(body))
		if jsonErr == nil && parsed.Error != nil {
			msg = parsed.Error.Type + ": " + parsed.Error.Message
		}
		return llm.Completion{}, fmt.Errorf("anthropic: http status %d: %s", resp.StatusCode, msg)
	}
	if jsonErr != nil {
		return llm.Completion{}, fmt.Errorf("anthropic response parse: %w", jsonErr)
	}

	var b strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return llm.Completion{}, fmt.Errorf("anthropic: %w", llm.ErrEmptyCompletion)
	}

	model := parsed.Model
	if model == "" {
		model = c.model
	}
	return llm.Completion{
		Text:             text,
		Provider:         llm.ProviderAnthropic,
		Model:            model,
		PromptTokens:     parsed.Usage.InputTokens,
		CompletionTokens: parsed.Usage.OutputTokens,
	}, nil
}

func (c *Client) Provider() string { return llm.ProviderAnthropic }

func (c *Client) Model() string { return c.model }

var _ llm.Client = (*Client)(nil)
