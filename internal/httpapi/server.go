// Package httpapi exposes the run trigger and the watchlist API over HTTP.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"StockMind/internal/domain"
)

const maxRequestBody = 64 << 10

// RunTrigger starts one daily run.
type RunTrigger interface {
	Run(ctx context.Context) (domain.RunSummary, error)
}

// WatchlistService is the tag and catalyst CRUD surface.
type WatchlistService interface {
	SignIn(ctx context.Context, email string) (domain.User, error)
	CreateTag(ctx context.Context, userID uuid.UUID, name string, tagType domain.TagType) (domain.Tag, error)
	ListTags(ctx context.Context, userID uuid.UUID) ([]domain.Tag, error)
	DeleteTag(ctx context.Context, userID, tagID uuid.UUID) error
	AddCatalyst(ctx context.Context, userID, tagID uuid.UUID, content string) (domain.Catalyst, error)
	ListCatalysts(ctx context.Context, userID, tagID uuid.UUID) ([]domain.Catalyst, error)
	DeleteCatalyst(ctx context.Context, userID, catalystID uuid.UUID) error
	ListAssessments(ctx context.Context, userID, tagID uuid.UUID, limit int) ([]domain.Assessment, error)
}

// AnalysisService generates and lists on-demand reports.
type AnalysisService interface {
	GenerateReport(ctx context.Context, userID, tagID uuid.UUID) (domain.Report, error)
	ListReports(ctx context.Context, userID, tagID uuid.UUID, limit int) ([]domain.Report, error)
	GenerateOverallAnalysis(ctx context.Context, userID, tagID uuid.UUID) (domain.OverallAnalysis, error)
	ListOverallAnalyses(ctx context.Context, userID, tagID uuid.UUID, limit int) ([]domain.OverallAnalysis, error)
}

// Deps wires the handlers.
type Deps struct {
	Runner     RunTrigger
	Watchlist  WatchlistService
	Analysis   AnalysisService
	CronSecret string
	RunTimeout time.Duration
	Logger     *slog.Logger
}

// Server holds handler dependencies.
type Server struct {
	runner     RunTrigger
	watchlist  WatchlistService
	analysis   AnalysisService
	cronSecret string
	runTimeout time.Duration
	logger     *slog.Logger
}

// NewRouter builds the chi router with all routes mounted.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		runner:     deps.Runner,
		watchlist:  deps.Watchlist,
		analysis:   deps.Analysis,
		cronSecret: deps.CronSecret,
		runTimeout: deps.RunTimeout,
		logger:     logger.With("component", "http"),
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(newSlogLogger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(maxBodySize(maxRequestBody))

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/cron/daily-report", http.HandlerFunc(s.triggerRun))
		r.Method(http.MethodPost, "/cron/daily-report", http.HandlerFunc(s.triggerRun))
		r.Post("/auth/sign-in", s.signIn)

		r.Group(func(r chi.Router) {
			r.Use(requireUser)

			r.Get("/tags", s.listTags)
			r.Post("/tags", s.createTag)
			r.Route("/tags/{tagID}", func(r chi.Router) {
				r.Delete("/", s.deleteTag)
				r.Get("/catalysts", s.listCatalysts)
				r.Post("/catalysts", s.addCatalyst)
				r.Get("/assessments", s.listAssessments)
				r.Get("/reports", s.listReports)
				r.Post("/reports", s.generateReport)
				r.Get("/overall-analyses", s.listOverallAnalyses)
				r.Post("/overall-analyses", s.generateOverallAnalysis)
			})
			r.Delete("/catalysts/{catalystID}", s.deleteCatalyst)
		})
	})

	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
