package telegram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"StockMind/internal/domain"
	"StockMind/internal/ports"
)

const (
	defaultAPIBase  = "https://api.telegram.org"
	maxListedErrors = 10
)

// Notifier posts run summaries to a Telegram chat via the bot API.
type Notifier struct {
	apiBase  string
	botToken string
	chatID   string
	client   *http.Client
}

var _ ports.RunReporter = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) *Notifier {
	return &Notifier{
		apiBase:  defaultAPIBase,
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Configured reports whether both token and chat are set.
func (n *Notifier) Configured() bool {
	return n != nil && n.botToken != "" && n.chatID != ""
}

// PublishRunSummary posts a short plain-text report of a finished run.
func (n *Notifier) PublishRunSummary(ctx context.Context, summary domain.RunSummary) error {
	if !n.Configured() || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", FormatSummary(summary))
	form.Set("disable_web_page_preview", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}

// FormatSummary renders a run summary as a chat message.
func FormatSummary(s domain.RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "StockMind daily run %s (%s)\n", s.Status, s.StartedAt.UTC().Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Users: %d\nAssessments: %d\nEmails: %d\nDuration: %s\n",
		s.UsersProcessed, s.AssessmentsCreated, s.EmailsSent, s.Duration().Round(time.Second))

	if len(s.Errors) == 0 {
		b.WriteString("Errors: none")
		return b.String()
	}

	fmt.Fprintf(&b, "Errors: %d", len(s.Errors))
	for i, e := range s.Errors {
		if i == maxListedErrors {
			fmt.Fprintf(&b, "\n... and %d more", len(s.Errors)-maxListedErrors)
			break
		}
		if e.TagID != uuid.Nil {
			fmt.Fprintf(&b, "\n- %s (%s): %s", e.Scope, e.TagID, e.Detail)
			continue
		}
		fmt.Fprintf(&b, "\n- %s: %s", e.Scope, e.Detail)
	}
	return b.String()
}
