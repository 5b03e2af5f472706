package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"StockMind/internal/domain"
	"StockMind/internal/metrics"
	"StockMind/internal/ports"
)

// TagProcessorDeps wires the collaborators of a single tag attempt.
type TagProcessorDeps struct {
	Assessor ports.Assessor
	Store    ports.AssessmentStore
	Gate     ports.RateGate
	Logger   *slog.Logger
}

// TagProcessor assesses and persists one tag, folding any failure into a RunError.
type TagProcessor struct {
	assessor ports.Assessor
	store    ports.AssessmentStore
	gate     ports.RateGate
	logger   *slog.Logger
}

// NewTagProcessor constructs the per-tag stage.
func NewTagProcessor(deps TagProcessorDeps) *TagProcessor {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TagProcessor{
		assessor: deps.Assessor,
		store:    deps.Store,
		gate:     deps.Gate,
		logger:   logger,
	}
}

// Process runs one generation attempt for tag. Exactly one of the results is
// non-nil. Every attempt consumes a rate gate slot, successful or not.
func (p *TagProcessor) Process(ctx context.Context, tag domain.TagWork) (*domain.Assessment, *domain.RunError) {
	if p.gate != nil {
		if err := p.gate.AwaitSlot(ctx); err != nil {
			return nil, p.fail(tag, "rate gate", err)
		}
	}

	p.logger.Debug("assess tag", "tag", tag.Name, "catalysts", len(tag.Catalysts))

	result, err := p.assessor.Assess(ctx, tag.Name, tag.Catalysts)
	if err != nil {
		return nil, p.fail(tag, "assess", err)
	}

	assessment, err := p.store.CreateAssessment(ctx, tag.ID, result)
	if err != nil {
		return nil, p.fail(tag, "persist", err)
	}

	metrics.TagAssessmentsTotal.WithLabelValues("created").Inc()
	p.logger.Info("tag assessed", "tag", tag.Name, "sentiment", assessment.Sentiment)
	return &assessment, nil
}

func (p *TagProcessor) fail(tag domain.TagWork, stage string, err error) *domain.RunError {
	metrics.TagAssessmentsTotal.WithLabelValues("failed").Inc()
	p.logger.Warn("tag skipped", "tag", tag.Name, "tag_id", tag.ID, "stage", stage, "error", err)
	return &domain.RunError{
		Scope:  TagScope(tag.Name),
		TagID:  tag.ID,
		Detail: fmt.Sprintf("%s: %v", stage, err),
	}
}

// TagScope names a tag in run error scopes.
func TagScope(name string) string {
	return "tag:" + name
}

// UserScope names a user in run error scopes.
func UserScope(email string) string {
	return "user:" + email
}
