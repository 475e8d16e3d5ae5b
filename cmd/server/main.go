package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finstats/internal/config"
	"finstats/internal/database"
	"finstats/internal/handlers"
	"finstats/internal/middleware"
	"finstats/internal/repositories"
	"finstats/internal/services"

	"github.com/alexflint/go-arg"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Args struct {
	Migrate      bool     `arg:"--migrate" help:"apply SQL migrations and exit"`
	SeedDemo     bool     `arg:"--seed-demo" help:"insert generated demo transactions and exit"`
	SeedProfiles []string `arg:"--seed-profile,separate" help:"profiles to seed (repeatable)"`
	SeedCount    int      `arg:"--seed-count" default:"200" help:"transactions per profile"`
	SeedDays     int      `arg:"--seed-days" default:"90" help:"days of history ending today"`
	Seed         uint64   `arg:"--seed" default:"42" help:"random seed for demo data"`
}

func (Args) Description() string {
	return "finstats serves income/expense statistics with multi-currency conversion."
}

func main() {
	var args Args
	arg.MustParse(&args)

	os.Exit(run(args))
}

// run owns the database handle so it is closed on every path; the return value is the exit code.
func run(args Args) int {
	cfg := config.Load()
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	db, err := database.Initialize(cfg)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return 1
	}
	defer db.Close()

	if err := execute(args, cfg, db, logger); err != nil {
		logger.Error("finstats failed", "error", err)
		return 1
	}
	return 0
}

// execute runs the one-shot command selected by args, or serves HTTP when none is.
func execute(args Args, cfg *config.Config, db *database.DB, logger *slog.Logger) error {
	switch {
	case args.Migrate:
		if err := runMigrations(db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		return nil
	case args.SeedDemo:
		if err := seedDemo(context.Background(), db, args, logger); err != nil {
			return fmt.Errorf("demo seeding failed: %w", err)
		}
		return nil
	}

	if err := serve(cfg, db, logger); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func runMigrations(db *database.DB) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	runner := database.NewMigrationRunner(sqlDB)
	if err := runner.WaitForDatabase(); err != nil {
		return err
	}
	if err := runner.RunMigrations(); err != nil {
		return err
	}

	version, dirty, err := runner.GetMigrationStatus()
	if err != nil {
		return err
	}
	slog.Info("Migrations applied", "version", version, "dirty", dirty)
	return nil
}

func seedDemo(ctx context.Context, db *database.DB, args Args, logger *slog.Logger) error {
	profiles := args.SeedProfiles
	if len(profiles) == 0 {
		profiles = []string{"personal", "household"}
	}

	repo := repositories.NewTransactionRepository(db.DB)
	transactionService := services.NewTransactionService(repo, services.NoopMetrics{}, logger)
	generator := services.NewTransactionGenerator(args.Seed)

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -args.SeedDays)
	currencies := []string{"USD", "EUR", "GBP", "JPY"}

	for _, profile := range profiles {
		batch := generator.Generate(profile, currencies, start, end, args.SeedCount)
		if err := transactionService.RecordBatch(ctx, batch); err != nil {
			return fmt.Errorf("seed profile %s: %w", profile, err)
		}
		logger.Info("Seeded demo transactions", "profile", profile, "count", len(batch))
	}
	return nil
}

func serve(cfg *config.Config, db *database.DB, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := services.NewPrometheusMetricsWith(registry)

	rateProvider, closeRates, err := services.BuildRateProvider(ctx, cfg, metrics, logger)
	if err != nil {
		return err
	}
	defer closeRates()

	repo := repositories.NewTransactionRepository(db.DB)
	statisticsService := services.NewStatisticsService(repo, rateProvider, metrics, logger)
	transactionService := services.NewTransactionService(repo, metrics, logger)

	limiter := middleware.NewIPRateLimiter(cfg.Security.RateLimitPerSecond, cfg.Security.RateLimitBurst)
	go limiter.Cleanup(ctx, time.Minute, 3*time.Minute)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = middleware.NewHTTPErrorHandler(registry, logger)

	e.Use(middleware.RequestID())
	e.Use(middleware.PanicRecovery(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.CORS(cfg.Server.CORSAllowOrigins))

	e.GET("/health", handlers.NewHealthCheckHandler(db).HealthCheck)
	e.GET("/metrics", handlers.NewMetricsHandler(registry))

	api := e.Group("/api/v1", limiter.Middleware())
	if cfg.AuthEnabled() {
		api.Use(middleware.RequireAuth(services.NewTokenVerifier(&cfg.JWT)))
	} else {
		logger.Warn("Request authentication disabled: JWT_PUBLIC_KEY not configured")
	}

	statisticsHandler := handlers.NewStatisticsHandler(statisticsService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	api.GET("/statistics", statisticsHandler.GetStatistics)
	api.POST("/transactions", transactionHandler.CreateTransaction)

	srv := &http.Server{
		Addr:           cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:        e,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting finstats server", "addr", srv.Addr, "env", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}
