package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"StockMind/internal/config"
	"StockMind/internal/domain"
	"StockMind/internal/ports"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider implements ports.GenerationProvider with the Google GenAI SDK.
// One SDK client is kept per API key.
type GeminiProvider struct {
	model   string
	baseURL string

	mu      sync.Mutex
	clients map[string]*genai.Client
}

var _ ports.GenerationProvider = (*GeminiProvider)(nil)

// NewGeminiProvider builds a provider from configuration.
func NewGeminiProvider(cfg config.GenerationConfig) *GeminiProvider {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiProvider{
		model:   model,
		baseURL: cfg.Endpoint,
		clients: map[string]*genai.Client{},
	}
}

// Generate sends one prompt using the given API key.
func (p *GeminiProvider) Generate(ctx context.Context, credential string, req domain.GenerationRequest) (string, error) {
	client, err := p.client(ctx, credential)
	if err != nil {
		return "", err
	}

	cfg := &genai.GenerateContentConfig{}
	switch {
	case req.Grounded:
		// Search grounding cannot be combined with a JSON response MIME type.
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	case req.Format == domain.FormatJSON:
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := client.Models.GenerateContent(ctx, p.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	if resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("gemini response blocked by safety filter")
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini returned empty text")
	}
	return text, nil
}

func (p *GeminiProvider) client(ctx context.Context, credential string) (*genai.Client, error) {
	if credential == "" {
		return nil, fmt.Errorf("%w: empty gemini api key", domain.ErrConfiguration)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[credential]; ok {
		return c, nil
	}

	cc := &genai.ClientConfig{
		APIKey:  credential,
		Backend: genai.BackendGeminiAPI,
	}
	if p.baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: p.baseURL}
	}

	c, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	p.clients[credential] = c
	return c, nil
}
