package main

import (
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"StockMind/internal/app"
	"StockMind/internal/config"
	"StockMind/internal/logging"
)

var (
	cfg    config.Config
	logger *slog.Logger
)

// rootCmd loads .env and configuration before any subcommand runs.
var rootCmd = &cobra.Command{
	Use:           "stockmind",
	Short:         "Daily watchlist analysis and digest service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		_ = godotenv.Load()
		cfg = config.Load()
		logger = logging.NewWithFormat(cfg.Logging.Level, cfg.Logging.Format, os.Stdout)
		slog.SetDefault(logger)
	},
}

// serveCmd runs the HTTP API and the daily scheduler.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the API and run the daily pipeline on schedule",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		application, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		return application.Serve(ctx)
	},
}

// runCmd executes one daily run and prints the summary as JSON.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the daily pipeline once",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		application, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		summary, err := application.RunOnce(ctx)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

// migrateCmd applies pending schema migrations.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return app.Migrate(cmd.Context(), cfg.Database.DSN, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, runCmd, migrateCmd)
}
