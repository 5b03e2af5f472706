package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"StockMind/internal/domain"
)

// RunSource enumerates everything a daily run needs in one read.
type RunSource interface {
	ListUsersWithTagsAndCatalysts(ctx context.Context) ([]domain.UserWork, error)
}

// AssessmentStore appends assessment rows.
type AssessmentStore interface {
	CreateAssessment(ctx context.Context, tagID uuid.UUID, result domain.AssessmentResult) (domain.Assessment, error)
}

// WatchlistRepository backs the thin CRUD surface for tags and catalysts.
type WatchlistRepository interface {
	FindOrCreateUser(ctx context.Context, email, name string) (domain.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (domain.User, error)

	CreateTag(ctx context.Context, tag domain.Tag) (domain.Tag, error)
	GetTag(ctx context.Context, id uuid.UUID) (domain.Tag, error)
	ListTags(ctx context.Context, userID uuid.UUID) ([]domain.Tag, error)
	DeleteTag(ctx context.Context, id uuid.UUID) error

	CreateCatalyst(ctx context.Context, tagID uuid.UUID, content string) (domain.Catalyst, error)
	GetCatalyst(ctx context.Context, id uuid.UUID) (domain.Catalyst, error)
	ListCatalysts(ctx context.Context, tagID uuid.UUID) ([]domain.Catalyst, error)
	DeleteCatalyst(ctx context.Context, id uuid.UUID) error
}

// AnalysisRepository stores and lists generated artifacts per tag.
type AnalysisRepository interface {
	AssessmentStore
	ListAssessments(ctx context.Context, tagID uuid.UUID, limit int) ([]domain.Assessment, error)
	CreateReport(ctx context.Context, tagID uuid.UUID, content string) (domain.Report, error)
	ListReports(ctx context.Context, tagID uuid.UUID, limit int) ([]domain.Report, error)
	CreateOverallAnalysis(ctx context.Context, tagID uuid.UUID, content string) (domain.OverallAnalysis, error)
	ListOverallAnalyses(ctx context.Context, tagID uuid.UUID, limit int) ([]domain.OverallAnalysis, error)
}

// Repository is the full persistence collaborator.
type Repository interface {
	RunSource
	WatchlistRepository
	AnalysisRepository
}

// GenerationProvider submits one prompt with one credential and returns raw text.
// Network, quota and safety-block failures are all reported as a plain error.
type GenerationProvider interface {
	Generate(ctx context.Context, credential string, req domain.GenerationRequest) (string, error)
}

// CredentialSource hands out API credentials.
type CredentialSource interface {
	Next() string
}

// MailTransport delivers a rendered email.
type MailTransport interface {
	Send(ctx context.Context, email domain.Email) error
}

// RunReporter publishes a finished run summary to operators.
type RunReporter interface {
	PublishRunSummary(ctx context.Context, summary domain.RunSummary) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}

// Assessor produces a structured sentiment assessment for one subject.
type Assessor interface {
	Assess(ctx context.Context, subject string, watchItems []string) (domain.AssessmentResult, error)
}

// RateGate paces outbound generation calls.
type RateGate interface {
	AwaitSlot(ctx context.Context) error
}

// DigestDispatcher renders and delivers one user's digest.
type DigestDispatcher interface {
	Dispatch(ctx context.Context, address string, items []domain.DigestItem) error
}
