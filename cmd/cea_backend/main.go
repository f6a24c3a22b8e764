package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nusatrade/ceisa_exchange_app/internal/adapters/ceisa"
	"github.com/nusatrade/ceisa_exchange_app/internal/adapters/database/pgsql"
	"github.com/nusatrade/ceisa_exchange_app/internal/core/services"
	"github.com/nusatrade/ceisa_exchange_app/internal/handlers"
	"github.com/nusatrade/ceisa_exchange_app/internal/middleware"
	"github.com/nusatrade/ceisa_exchange_app/internal/utils"
	"github.com/nusatrade/ceisa_exchange_app/pkg/config"
	"github.com/nusatrade/ceisa_exchange_app/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	portssvc "github.com/nusatrade/ceisa_exchange_app/internal/core/ports/services"
	"github.com/ulule/limiter/v3"
	limitermemory "github.com/ulule/limiter/v3/drivers/store/memory"
)

// @title CEISA Exchange API
// @version 1.0
// @description Declaration exchange engine for PEB/PIB customs filings.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg, logger); err != nil {
		logger.Error("Failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Exchange channel: the simulator answers locally, the real client talks
	// to the CEISA gateway.
	var client portssvc.CeisaClient
	if cfg.SimulationMode {
		logger.Info("Simulation mode enabled; declarations are not sent to the real channel.")
		client = ceisa.NewSimulator(logger)
	} else {
		client = ceisa.NewClient(cfg.CeisaBaseURL, cfg.CeisaAPIKey, cfg.CeisaTimeout, logger)
	}

	repos := pgsql.NewRepositoryProvider(dbPool)
	svcs := services.NewServiceProvider(repos, client, cfg.MaxRetries, cfg.AdminUserIDs)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.Default())

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, logger)
	defer posthogClient.Close()
	r.Use(middleware.PosthogMiddleware(posthogClient))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	webhookLimiter, err := newWebhookLimiter(cfg.RateLimit)
	if err != nil {
		logger.Error("Failed to build rate limiter", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, svcs, webhookLimiter)

	// Background loops: queue draining with retry backoff, and archive
	// retention.
	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	go runQueueScheduler(schedulerCtx, svcs.Transmission, cfg.RetrySchedulerInterval, logger)
	go runArchiveRetention(schedulerCtx, svcs.Archive, cfg.ArchiveRetentionDays, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown signal received")

	stopScheduler()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", slog.String("error", err.Error()))
	}
	logger.Info("Server exited")
}

// runMigrations applies pending schema migrations through a temporary
// database/sql connection compatible with the pgx pool.
func runMigrations(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Running database migrations...")
	migrationDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

// newWebhookLimiter builds an in-memory limiter from a "count-period"
// formatted rate, e.g. "300-M".
func newWebhookLimiter(formatted string) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}
	return limiter.New(limitermemory.NewStore(), rate), nil
}

// runQueueScheduler periodically drains the pending queue and re-transmits
// units whose retry backoff has elapsed.
func runQueueScheduler(ctx context.Context, ts portssvc.TransmissionSvcFacade, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if results, err := ts.ProcessQueue(ctx); err != nil {
				logger.Error("Queue scheduler: failed to process queue", slog.String("error", err.Error()))
			} else if len(results) > 0 {
				logger.Info("Queue scheduler: processed pending units", slog.Int("count", len(results)))
			}

			if results, err := ts.ProcessRetries(ctx); err != nil {
				logger.Error("Queue scheduler: failed to process retries", slog.String("error", err.Error()))
			} else if len(results) > 0 {
				logger.Info("Queue scheduler: processed due retries", slog.Int("count", len(results)))
			}
		}
	}
}

// runArchiveRetention purges archive entries past the retention window once a
// day.
func runArchiveRetention(ctx context.Context, as portssvc.ArchiveSvcFacade, retentionDays int, logger *slog.Logger) {
	if retentionDays <= 0 {
		return
	}

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := as.Purge(ctx, retentionDays)
			if err != nil {
				logger.Error("Archive retention: purge failed", slog.String("error", err.Error()))
				continue
			}
			if purged > 0 {
				logger.Info("Archive retention: purged old entries", slog.Int64("purged", purged))
			}
		}
	}
}
