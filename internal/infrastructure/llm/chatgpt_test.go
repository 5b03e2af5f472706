package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"StockMind/internal/config"
	"StockMind/internal/domain"
)

func TestChatGPTProviderGenerate(t *testing.T) {
	t.Parallel()

	var gotAuth, gotFormat string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")

		var body struct {
			Model          string `json:"model"`
			ResponseFormat *struct {
				Type string `json:"type"`
			} `json:"response_format"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.ResponseFormat != nil {
			gotFormat = body.ResponseFormat.Type
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"ok\":true}"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	p := NewChatGPTProvider(config.GenerationConfig{Endpoint: server.URL + "/v1", Model: "gpt-test"})

	text, err := p.Generate(context.Background(), "key-1", domain.GenerationRequest{Prompt: "hi", Format: domain.FormatJSON})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != `{"ok":true}` {
		t.Fatalf("unexpected text: %s", text)
	}
	if gotAuth != "Bearer key-1" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	if gotFormat != "json_object" {
		t.Fatalf("expected json_object response format, got %q", gotFormat)
	}
}

func TestChatGPTProviderHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota","type":"rate_limit"}}`))
	}))
	defer server.Close()

	p := NewChatGPTProvider(config.GenerationConfig{Endpoint: server.URL + "/v1"})
	if _, err := p.Generate(context.Background(), "key", domain.GenerationRequest{Prompt: "hi"}); err == nil {
		t.Fatalf("expected error on 429")
	}
}

func TestChatGPTProviderMissingKey(t *testing.T) {
	t.Parallel()

	p := NewChatGPTProvider(config.GenerationConfig{})
	_, err := p.Generate(context.Background(), "", domain.GenerationRequest{Prompt: "hi"})
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
