package domain

import (
	"time"

	"github.com/google/uuid"
)

// Sentiment is the direction of an assessment.
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
)

// Valid reports whether s is an exact (case-sensitive) enum literal.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}

// AssessmentResult is the parsed output of one generation call.
type AssessmentResult struct {
	Points    []string  `json:"points"`
	Sentiment Sentiment `json:"sentiment"`
	Summary   string    `json:"summary"`
}

// Assessment is a persisted AssessmentResult for a tag. Rows are append-only.
type Assessment struct {
	ID        uuid.UUID
	TagID     uuid.UUID
	Points    []string
	Sentiment Sentiment
	Summary   string
	CreatedAt time.Time
}

// DigestItem is one card of a user's digest email.
type DigestItem struct {
	Subject   string
	Points    []string
	Sentiment Sentiment
	Summary   string
}

// Report is an on-demand markdown report for a single tag.
type Report struct {
	ID        uuid.UUID
	TagID     uuid.UUID
	Content   string
	CreatedAt time.Time
}

// OverallAnalysis is a longer-horizon markdown analysis for a tag.
type OverallAnalysis struct {
	ID        uuid.UUID
	TagID     uuid.UUID
	Content   string
	CreatedAt time.Time
}

// GenerationFormat tells the provider which response shape is expected.
type GenerationFormat string

const (
	FormatJSON     GenerationFormat = "json"
	FormatMarkdown GenerationFormat = "markdown"
)

// GenerationRequest is a single prompt submitted to a generation provider.
type GenerationRequest struct {
	Prompt string
	Format GenerationFormat
	// Grounded asks the provider to use web search when it supports it.
	Grounded bool
}

// Email is a rendered message ready for a mail transport.
type Email struct {
	To      string
	Subject string
	HTML    string
	Text    string
}
