package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // "pgx" driver for goose
	"github.com/pressly/goose/v3"
	"golang.org/x/sync/errgroup"

	"StockMind/internal/config"
	"StockMind/internal/domain"
	"StockMind/internal/httpapi"
	"StockMind/internal/infrastructure/llm"
	"StockMind/internal/infrastructure/mail"
	"StockMind/internal/infrastructure/scheduler"
	"StockMind/internal/infrastructure/storage"
	"StockMind/internal/infrastructure/telegram"
	"StockMind/internal/logging"
	"StockMind/internal/ports"
	"StockMind/internal/usecase"
	"StockMind/migrations"
)

const shutdownGrace = 15 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg          config.Config
	logger       *slog.Logger
	pool         *pgxpool.Pool
	orchestrator *usecase.Orchestrator
	scheduler    *usecase.Scheduler
	cron         *scheduler.CronScheduler
	handler      http.Handler
}

// New validates cfg, connects to Postgres and builds every component.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = newLogger(cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rotator, err := llm.NewRotator(cfg.Generation.APIKeys)
	if err != nil {
		return nil, err
	}
	provider, err := newProvider(cfg.Generation, baseLogger)
	if err != nil {
		return nil, err
	}

	if cfg.Database.MigrateOnStart {
		if err := Migrate(ctx, cfg.Database.DSN, baseLogger); err != nil {
			return nil, err
		}
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	baseLogger.Info("database connection established")

	repo := storage.NewPostgresRepository(pool)
	loc := cfg.Scheduler.Location()

	assessor := usecase.NewAssessor(usecase.AssessorDeps{
		Provider:    provider,
		Credentials: rotator,
		CallTimeout: cfg.Generation.CallTimeout,
		Language:    cfg.Generation.Language,
		Now:         func() time.Time { return time.Now().In(loc) },
	})
	gate := usecase.NewFixedGate(cfg.Generation.MinInterval, nil)
	logGeneration(baseLogger, cfg.Generation, rotator, gate)

	tags := usecase.NewTagProcessor(usecase.TagProcessorDeps{
		Assessor: assessor,
		Store:    repo,
		Gate:     gate,
		Logger:   baseLogger.With("component", "tag_processor"),
	})
	dispatcher := usecase.NewDispatcher(
		mail.NewResendTransport(cfg.Mail),
		loc,
		baseLogger.With("component", "dispatcher"),
	)
	users := usecase.NewUserProcessor(tags, dispatcher, baseLogger.With("component", "user_processor"))

	var reporter ports.RunReporter
	if notifier := telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID); notifier.Configured() {
		reporter = notifier
	}

	orchestrator := usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Source:   repo,
		Users:    users,
		Reporter: reporter,
		Logger:   baseLogger.With("component", "orchestrator"),
	})

	watchlist := usecase.NewWatchlist(repo, repo)
	analysis := usecase.NewAnalysis(usecase.AnalysisDeps{
		Watchlist: watchlist,
		Repo:      repo,
		Writer:    assessor,
		Gate:      gate,
		Logger:    baseLogger.With("component", "analysis"),
	})

	handler := httpapi.NewRouter(httpapi.Deps{
		Runner:     orchestrator,
		Watchlist:  watchlist,
		Analysis:   analysis,
		CronSecret: cfg.HTTP.CronSecret,
		RunTimeout: cfg.Scheduler.RunTimeout,
		Logger:     baseLogger,
	})

	var (
		sched *usecase.Scheduler
		cron  *scheduler.CronScheduler
	)
	if !cfg.Scheduler.Disabled {
		cron = scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, loc)
		sched = usecase.NewScheduler(
			cron,
			orchestrator,
			cfg.Scheduler.RunTimeout,
			baseLogger.With("component", "scheduler"),
		)
	}

	return &Application{
		cfg:          cfg,
		logger:       baseLogger,
		pool:         pool,
		orchestrator: orchestrator,
		scheduler:    sched,
		cron:         cron,
		handler:      handler,
	}, nil
}

// Serve runs the HTTP API and the daily scheduler until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      a.cfg.Scheduler.RunTimeout + time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	if a.scheduler != nil {
		if err := a.scheduler.Start(gctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
		logSchedule(a.logger, a.cron, a.cfg.Scheduler, time.Now())
	}

	g.Go(func() error {
		a.logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		var errs []error
		if a.scheduler != nil {
			errs = append(errs, a.scheduler.Stop(shutdownCtx))
		}
		errs = append(errs, srv.Shutdown(shutdownCtx))
		return errors.Join(errs...)
	})

	return g.Wait()
}

// RunOnce executes a single daily run bounded by the configured run timeout.
func (a *Application) RunOnce(ctx context.Context) (domain.RunSummary, error) {
	if a.cfg.Scheduler.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Scheduler.RunTimeout)
		defer cancel()
	}
	return a.orchestrator.Run(ctx)
}

// Close releases the database pool.
func (a *Application) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// Migrate applies all pending schema migrations.
func Migrate(ctx context.Context, dsn string, logger *slog.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		logger.Info("migration applied", "version", r.Source.Version, "path", r.Source.Path, "duration", r.Duration)
	}
	return nil
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	return logging.NewWithFormat(cfg.Level, cfg.Format, os.Stdout)
}

func logGeneration(logger *slog.Logger, cfg config.GenerationConfig, rotator *llm.Rotator, gate *usecase.FixedGate) {
	logger.Info("generation configured",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"keys", rotator.Len(),
		"min_interval", gate.Interval().String(),
		"breaker_threshold", cfg.BreakerThreshold,
	)
}

func logSchedule(logger *slog.Logger, cron *scheduler.CronScheduler, cfg config.SchedulerConfig, now time.Time) {
	attrs := []any{"cron", cfg.CronExpression, "timezone", cfg.Location().String()}
	if cron != nil {
		if next, err := cron.Next(now); err == nil {
			attrs = append(attrs, "next_run", next.Format(time.RFC3339))
		}
	}
	logger.Info("scheduler started", attrs...)
}

func newProvider(cfg config.GenerationConfig, logger *slog.Logger) (ports.GenerationProvider, error) {
	var provider ports.GenerationProvider
	switch cfg.Provider {
	case config.ProviderGemini:
		provider = llm.NewGeminiProvider(cfg)
	case config.ProviderOpenAI:
		provider = llm.NewChatGPTProvider(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown generation provider %q", domain.ErrConfiguration, cfg.Provider)
	}

	if cfg.BreakerThreshold > 0 {
		if logger == nil {
			logger = slog.New(slog.DiscardHandler)
		}
		provider = llm.NewBreakerProvider(provider, cfg.BreakerThreshold, cfg.BreakerCooldown, logger.With("component", "generation"))
	}
	return provider, nil
}
