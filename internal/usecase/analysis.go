package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"StockMind/internal/domain"
	"StockMind/internal/ports"
)

// ReportWriter produces markdown analyses for a subject.
type ReportWriter interface {
	WriteReport(ctx context.Context, subject string, watchItems []string) (string, error)
	WriteOverallAnalysis(ctx context.Context, subject string, watchItems []string) (string, error)
}

// AnalysisDeps wires on-demand generation.
type AnalysisDeps struct {
	Watchlist *Watchlist
	Repo      ports.AnalysisRepository
	Writer    ReportWriter
	Gate      ports.RateGate
	Logger    *slog.Logger
}

// Analysis serves user-triggered single-tag reports and overall analyses.
// It shares the rate gate and credentials with the daily run.
type Analysis struct {
	watchlist *Watchlist
	repo      ports.AnalysisRepository
	writer    ReportWriter
	gate      ports.RateGate
	logger    *slog.Logger
}

// NewAnalysis constructs the service.
func NewAnalysis(deps AnalysisDeps) *Analysis {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Analysis{
		watchlist: deps.Watchlist,
		repo:      deps.Repo,
		writer:    deps.Writer,
		gate:      deps.Gate,
		logger:    logger,
	}
}

// GenerateReport writes and stores a fresh report for an owned tag.
func (a *Analysis) GenerateReport(ctx context.Context, userID, tagID uuid.UUID) (domain.Report, error) {
	tag, items, err := a.prepare(ctx, userID, tagID)
	if err != nil {
		return domain.Report{}, err
	}

	content, err := a.writer.WriteReport(ctx, tag.Name, items)
	if err != nil {
		a.logger.Warn("report generation failed", "tag", tag.Name, "error", err)
		return domain.Report{}, err
	}

	report, err := a.repo.CreateReport(ctx, tag.ID, content)
	if err != nil {
		return domain.Report{}, fmt.Errorf("usecase.Analysis.GenerateReport: %w", err)
	}
	return report, nil
}

// GenerateOverallAnalysis writes and stores a fresh overall analysis.
func (a *Analysis) GenerateOverallAnalysis(ctx context.Context, userID, tagID uuid.UUID) (domain.OverallAnalysis, error) {
	tag, items, err := a.prepare(ctx, userID, tagID)
	if err != nil {
		return domain.OverallAnalysis{}, err
	}

	content, err := a.writer.WriteOverallAnalysis(ctx, tag.Name, items)
	if err != nil {
		a.logger.Warn("overall analysis failed", "tag", tag.Name, "error", err)
		return domain.OverallAnalysis{}, err
	}

	out, err := a.repo.CreateOverallAnalysis(ctx, tag.ID, content)
	if err != nil {
		return domain.OverallAnalysis{}, fmt.Errorf("usecase.Analysis.GenerateOverallAnalysis: %w", err)
	}
	return out, nil
}

// ListReports returns the newest reports of an owned tag first.
func (a *Analysis) ListReports(ctx context.Context, userID, tagID uuid.UUID, limit int) ([]domain.Report, error) {
	if _, err := a.watchlist.OwnedTag(ctx, userID, tagID); err != nil {
		return nil, err
	}
	list, err := a.repo.ListReports(ctx, tagID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("usecase.Analysis.ListReports: %w", err)
	}
	return list, nil
}

// ListOverallAnalyses returns the newest overall analyses first.
func (a *Analysis) ListOverallAnalyses(ctx context.Context, userID, tagID uuid.UUID, limit int) ([]domain.OverallAnalysis, error) {
	if _, err := a.watchlist.OwnedTag(ctx, userID, tagID); err != nil {
		return nil, err
	}
	list, err := a.repo.ListOverallAnalyses(ctx, tagID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("usecase.Analysis.ListOverallAnalyses: %w", err)
	}
	return list, nil
}

func (a *Analysis) prepare(ctx context.Context, userID, tagID uuid.UUID) (domain.Tag, []string, error) {
	tag, err := a.watchlist.OwnedTag(ctx, userID, tagID)
	if err != nil {
		return domain.Tag{}, nil, err
	}

	catalysts, err := a.watchlist.repo.ListCatalysts(ctx, tag.ID)
	if err != nil {
		return domain.Tag{}, nil, fmt.Errorf("usecase.Analysis: load catalysts: %w", err)
	}
	items := make([]string, 0, len(catalysts))
	for _, c := range catalysts {
		items = append(items, c.Content)
	}

	if a.gate != nil {
		if err := a.gate.AwaitSlot(ctx); err != nil {
			return domain.Tag{}, nil, fmt.Errorf("usecase.Analysis: rate gate: %w", err)
		}
	}
	return tag, items, nil
}
