package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"StockMind/internal/config"
	"StockMind/internal/domain"
	"StockMind/internal/ports"
)

const defaultEndpoint = "https://api.resend.com"

// ResendTransport delivers digests through the Resend HTTP API.
type ResendTransport struct {
	endpoint string
	apiKey   string
	from     string
	client   *http.Client
}

var _ ports.MailTransport = (*ResendTransport)(nil)

// NewResendTransport builds the transport from mail settings.
func NewResendTransport(cfg config.MailConfig) *ResendTransport {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &ResendTransport{
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		from:     cfg.From,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text,omitempty"`
}

type sendError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Send posts one email.
func (t *ResendTransport) Send(ctx context.Context, email domain.Email) error {
	if t.apiKey == "" {
		return fmt.Errorf("%w: resend api key is not set", domain.ErrConfiguration)
	}

	body, err := json.Marshal(sendRequest{
		From:    t.from,
		To:      []string{email.To},
		Subject: email.Subject,
		HTML:    email.HTML,
		Text:    email.Text,
	})
	if err != nil {
		return fmt.Errorf("encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		var apiErr sendError
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("resend error: %s: %s", resp.Status, apiErr.Message)
		}
		return fmt.Errorf("resend error: %s", resp.Status)
	}

	return nil
}
