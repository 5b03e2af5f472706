package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"StockMind/internal/domain"
	"StockMind/internal/metrics"
	"StockMind/internal/ports"
)

const (
	minPoints = 3
	maxPoints = 5

	defaultCallTimeout = 60 * time.Second
	defaultLanguage    = "English"
)

// AssessorDeps wires the generation provider and its credentials.
type AssessorDeps struct {
	Provider    ports.GenerationProvider
	Credentials ports.CredentialSource
	CallTimeout time.Duration
	Language    string
	Now         func() time.Time
}

// Assessor turns one subject and its watch-items into generated content.
type Assessor struct {
	provider    ports.GenerationProvider
	credentials ports.CredentialSource
	callTimeout time.Duration
	language    string
	now         func() time.Time
}

var _ ports.Assessor = (*Assessor)(nil)

// NewAssessor constructs the generation client.
func NewAssessor(deps AssessorDeps) *Assessor {
	a := &Assessor{
		provider:    deps.Provider,
		credentials: deps.Credentials,
		callTimeout: deps.CallTimeout,
		language:    deps.Language,
		now:         deps.Now,
	}
	if a.callTimeout <= 0 {
		a.callTimeout = defaultCallTimeout
	}
	if a.language == "" {
		a.language = defaultLanguage
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// Assess requests a structured sentiment assessment.
func (a *Assessor) Assess(ctx context.Context, subject string, watchItems []string) (domain.AssessmentResult, error) {
	raw, err := a.generate(ctx, subject, domain.GenerationRequest{
		Prompt: assessmentPrompt(subject, watchItems, a.now(), a.language),
		Format: domain.FormatJSON,
	})
	if err != nil {
		return domain.AssessmentResult{}, err
	}

	result, err := ParseAssessment(raw)
	if err != nil {
		return domain.AssessmentResult{}, &domain.GenerationError{Subject: subject, Err: err}
	}
	return result, nil
}

// WriteReport requests a grounded markdown news report.
func (a *Assessor) WriteReport(ctx context.Context, subject string, watchItems []string) (string, error) {
	return a.generate(ctx, subject, domain.GenerationRequest{
		Prompt:   reportPrompt(subject, watchItems, a.now(), a.language),
		Format:   domain.FormatMarkdown,
		Grounded: true,
	})
}

// WriteOverallAnalysis requests a longer-horizon markdown analysis.
func (a *Assessor) WriteOverallAnalysis(ctx context.Context, subject string, watchItems []string) (string, error) {
	return a.generate(ctx, subject, domain.GenerationRequest{
		Prompt:   overallAnalysisPrompt(subject, watchItems, a.now(), a.language),
		Format:   domain.FormatMarkdown,
		Grounded: true,
	})
}

func (a *Assessor) generate(ctx context.Context, subject string, req domain.GenerationRequest) (string, error) {
	if a.provider == nil || a.credentials == nil {
		return "", &domain.GenerationError{Subject: subject, Err: fmt.Errorf("%w: generation provider not configured", domain.ErrConfiguration)}
	}
	credential := a.credentials.Next()
	if credential == "" {
		return "", &domain.GenerationError{Subject: subject, Err: fmt.Errorf("%w: no credential available", domain.ErrConfiguration)}
	}

	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	start := time.Now()
	raw, err := a.provider.Generate(callCtx, credential, req)
	metrics.GenerationDuration.WithLabelValues(string(req.Format)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GenerationErrorsTotal.WithLabelValues(string(req.Format)).Inc()
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			err = fmt.Errorf("timed out after %s: %w", a.callTimeout, err)
		}
		return "", &domain.GenerationError{Subject: subject, Err: err}
	}
	return raw, nil
}

// assessmentWire mirrors the response contract; pointers detect missing fields.
type assessmentWire struct {
	Points    *[]string `json:"points"`
	Sentiment *string   `json:"sentiment"`
	Summary   *string   `json:"summary"`
}

// ParseAssessment decodes a generated response, optionally wrapped in a
// markdown code fence. The three contract fields are required and checked;
// any extra keys are ignored.
func ParseAssessment(raw string) (domain.AssessmentResult, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return domain.AssessmentResult{}, errors.New("empty response")
	}

	dec := json.NewDecoder(strings.NewReader(body))

	var wire assessmentWire
	if err := dec.Decode(&wire); err != nil {
		return domain.AssessmentResult{}, fmt.Errorf("decode assessment: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return domain.AssessmentResult{}, errors.New("decode assessment: trailing data after object")
	}

	switch {
	case wire.Points == nil:
		return domain.AssessmentResult{}, errors.New("missing field points")
	case wire.Sentiment == nil:
		return domain.AssessmentResult{}, errors.New("missing field sentiment")
	case wire.Summary == nil:
		return domain.AssessmentResult{}, errors.New("missing field summary")
	}

	points := make([]string, 0, len(*wire.Points))
	for i, p := range *wire.Points {
		p = strings.TrimSpace(p)
		if p == "" {
			return domain.AssessmentResult{}, fmt.Errorf("point %d is empty", i)
		}
		points = append(points, p)
	}
	if len(points) < minPoints || len(points) > maxPoints {
		return domain.AssessmentResult{}, fmt.Errorf("expected %d-%d points, got %d", minPoints, maxPoints, len(points))
	}

	sentiment := domain.Sentiment(*wire.Sentiment)
	if !sentiment.Valid() {
		return domain.AssessmentResult{}, fmt.Errorf("unexpected sentiment %q", *wire.Sentiment)
	}

	summary := strings.TrimSpace(*wire.Summary)
	if summary == "" {
		return domain.AssessmentResult{}, errors.New("summary is empty")
	}

	return domain.AssessmentResult{Points: points, Sentiment: sentiment, Summary: summary}, nil
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")

	// The rest of the opening line is a language tag unless it already holds JSON.
	if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.HasPrefix(strings.TrimSpace(s[:i]), "{") {
		s = s[i+1:]
	} else if i < 0 {
		s = strings.TrimLeftFunc(s, func(r rune) bool { return r != '{' && r != '[' })
	}

	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
