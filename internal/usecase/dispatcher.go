package usecase

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"StockMind/internal/domain"
	"StockMind/internal/ports"
)

const digestTitle = "Daily Investment Digest"

//go:embed templates/digest.html
var templateFS embed.FS

var digestTemplate = template.Must(template.ParseFS(templateFS, "templates/digest.html"))

type digestView struct {
	Title string
	Date  string
	Items []digestCard
}

type digestCard struct {
	Subject    string
	Summary    string
	Points     []string
	Label      string
	BadgeClass string
	Color      template.CSS
}

// Dispatcher renders digest emails and hands them to a mail transport.
type Dispatcher struct {
	transport ports.MailTransport
	now       func() time.Time
	location  *time.Location
	logger    *slog.Logger
}

var _ ports.DigestDispatcher = (*Dispatcher)(nil)

// NewDispatcher wires the transport; loc controls the date printed in the digest.
func NewDispatcher(transport ports.MailTransport, loc *time.Location, logger *slog.Logger) *Dispatcher {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{transport: transport, now: time.Now, location: loc, logger: logger}
}

// Dispatch renders items in order and sends them to address.
func (d *Dispatcher) Dispatch(ctx context.Context, address string, items []domain.DigestItem) error {
	if d.transport == nil {
		return &domain.DeliveryError{Address: address, Err: fmt.Errorf("%w: no mail transport", domain.ErrConfiguration)}
	}

	email, err := d.Render(address, items)
	if err != nil {
		return &domain.DeliveryError{Address: address, Err: err}
	}

	if err := d.transport.Send(ctx, email); err != nil {
		return &domain.DeliveryError{Address: address, Err: err}
	}
	return nil
}

// Render builds the HTML digest and its plain-text alternative.
func (d *Dispatcher) Render(address string, items []domain.DigestItem) (domain.Email, error) {
	day := d.now().In(d.location).Format("2006-01-02")

	view := digestView{Title: digestTitle, Date: day, Items: make([]digestCard, 0, len(items))}
	for _, item := range items {
		label, class, color := sentimentStyle(item.Sentiment)
		view.Items = append(view.Items, digestCard{
			Subject:    item.Subject,
			Summary:    item.Summary,
			Points:     item.Points,
			Label:      label,
			BadgeClass: class,
			Color:      color,
		})
	}

	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, view); err != nil {
		return domain.Email{}, fmt.Errorf("render digest: %w", err)
	}
	html := buf.String()

	text, err := plainText(html)
	if err != nil {
		return domain.Email{}, err
	}

	return domain.Email{
		To:      address,
		Subject: fmt.Sprintf("%s - %s", digestTitle, day),
		HTML:    html,
		Text:    text,
	}, nil
}

func sentimentStyle(s domain.Sentiment) (label, class string, color template.CSS) {
	switch s {
	case domain.SentimentPositive:
		return "Bullish", "positive", "#22c55e"
	case domain.SentimentNegative:
		return "Bearish", "negative", "#ef4444"
	default:
		return "Neutral", "neutral", "#9ca3af"
	}
}

// plainText derives the text/plain part from the rendered HTML.
func plainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse digest html: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s)\n", clean(doc.Find(".header h2").Text()), clean(doc.Find(".header .date").Text()))

	doc.Find(".card").Each(func(_ int, card *goquery.Selection) {
		fmt.Fprintf(&b, "\n%s [%s]\n", clean(card.Find(".company").Text()), clean(card.Find(".badge").Text()))
		if summary := clean(card.Find(".summary").Text()); summary != "" {
			fmt.Fprintf(&b, "%s\n", summary)
		}
		card.Find("li").Each(func(_ int, li *goquery.Selection) {
			fmt.Fprintf(&b, "  - %s\n", clean(li.Text()))
		})
	})

	return b.String(), nil
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
