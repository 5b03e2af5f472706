package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"StockMind/internal/config"
	"StockMind/internal/domain"
	"StockMind/internal/ports"
)

// ChatGPTProvider implements ports.GenerationProvider backed by OpenAI-compatible APIs.
type ChatGPTProvider struct {
	endpoint     string
	model        string
	systemPrompt string
	httpClient   *http.Client
}

var _ ports.GenerationProvider = (*ChatGPTProvider)(nil)

// NewChatGPTProvider builds a provider from configuration.
func NewChatGPTProvider(cfg config.GenerationConfig) *ChatGPTProvider {
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &ChatGPTProvider{
		endpoint:     cfg.Endpoint,
		model:        model,
		systemPrompt: cfg.SystemPrompt,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

// Generate posts the prompt as a user message with the given API key.
func (c *ChatGPTProvider) Generate(ctx context.Context, credential string, req domain.GenerationRequest) (string, error) {
	if c == nil {
		return "", fmt.Errorf("chatgpt provider is nil")
	}
	if credential == "" || c.model == "" {
		return "", fmt.Errorf("%w: chatgpt provider misconfigured", domain.ErrConfiguration)
	}

	cfg := openai.DefaultConfig(credential)
	if c.endpoint != "" {
		cfg.BaseURL = strings.TrimSuffix(c.endpoint, "/")
	}
	cfg.HTTPClient = c.httpClient
	client := openai.NewClientWithConfig(cfg)

	chatReq := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: safePrompt(c.systemPrompt)},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	}
	if req.Format == domain.FormatJSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("chatgpt completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chatgpt returned no choices")
	}

	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("chatgpt returned empty content")
	}
	return content, nil
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "You are a professional financial analysis assistant."
	}
	return prompt
}
