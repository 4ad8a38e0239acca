package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-report-engine/internal/adapters/cache"
	"github.com/comitanigiacomo/kanso-report-engine/internal/adapters/generator"
	adapterHTTP "github.com/comitanigiacomo/kanso-report-engine/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-report-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-report-engine/internal/config"
	"github.com/comitanigiacomo/kanso-report-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-report-engine/internal/core/report"
	"github.com/comitanigiacomo/kanso-report-engine/internal/core/services"
	"github.com/comitanigiacomo/kanso-report-engine/internal/core/workers"
	"github.com/comitanigiacomo/kanso-report-engine/internal/logging"
	"github.com/comitanigiacomo/kanso-report-engine/internal/metrics"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Critical: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Critical: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	startTime := time.Now()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	m := metrics.NewMetrics()

	var (
		db   *sqlx.DB
		rdb  *redis.Client
		repo domain.ReportRepository
	)

	if cfg.Database.Enabled() {
		logger.Info("connecting to database", zap.String("driver", cfg.Database.Driver), zap.String("host", cfg.Database.Host))
		var err error
		db, err = repository.OpenPostgres(cfg.Database.Driver, cfg.Database.DSN())
		if err != nil {
			return err
		}
		defer db.Close()

		pg := repository.NewPostgresReportRepository(db)
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
		repo = pg
	} else {
		logger.Warn("DB_HOST not set, reports are kept in memory")
		repo = repository.NewInMemoryReportRepository()
	}

	if cfg.Redis.Enabled() {
		var err error
		rdb, err = cache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("redis unavailable, cache and rate limiting disabled", zap.Error(err))
			rdb = nil
		} else {
			defer rdb.Close()
			repo = repository.NewCachedReportRepository(repo, rdb, m, logger)
		}
	}

	var gen report.Generator
	if cfg.Generation.APIKey != "" {
		gemini, err := generator.NewGemini(ctx, generator.GeminiConfig{
			APIKey:      cfg.Generation.APIKey,
			Model:       cfg.Generation.Model,
			Temperature: float32(cfg.Generation.Temperature),
		}, logger)
		if err != nil {
			return err
		}
		gen = gemini
	} else {
		logger.Warn("GEMINI_API_KEY not set, every report will end with a generation failure")
	}

	engine := report.NewEngine(report.Config{
		TopK:         cfg.Generation.TopK,
		ReasonSource: cfg.Generation.ReasonSource,
	})
	reportService := services.NewReportService(engine, gen, repo, m, logger, services.ReportConfig{
		GenerationTimeout: cfg.Generation.Timeout,
		BatchConcurrency:  cfg.Generation.Concurrency,
	})

	worker := workers.NewReportWorker(reportService, logBatchResults(logger), m, logger, cfg.Generation.QueueSize)
	worker.Start(ctx)

	deps := adapterHTTP.RouterDependencies{
		ReportHandler: adapterHTTP.NewReportHandler(reportService, worker, logger),
		DB:            db,
		Redis:         rdb,
		RateLimit:     cfg.RateLimit,
		RateWindow:    cfg.RateWindow,
		Logger:        logger,
		StartTime:     startTime,
	}
	if cfg.Auth.Enabled() {
		deps.TokenValidator = services.NewTokenService(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TTL)
	} else {
		logger.Warn("JWT_SECRET not set, API is unauthenticated")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      adapterHTTP.NewRouter(deps),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Generation.Timeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("kanso report engine running", zap.String("addr", "http://localhost:"+cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("stop signal received, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	logger.Info("server stopped gracefully")
	return nil
}

// logBatchResults is the sink for background batches: results are already
// persisted by the service, so only failures need attention.
func logBatchResults(logger *zap.Logger) workers.ResultSink {
	return func(jobID string, results []services.BatchResult) {
		for _, r := range results {
			if r.Status == services.StatusOK {
				continue
			}
			logger.Warn("background report not generated",
				zap.String("job_id", jobID),
				zap.String("user_id", r.UserID.String()),
				zap.String("status", string(r.Status)),
				zap.String("error", r.Error),
			)
		}
	}
}
