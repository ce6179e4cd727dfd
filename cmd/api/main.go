package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dealdesk_backend/internal/briefing"
	"dealdesk_backend/internal/crm"
	crmclient "dealdesk_backend/internal/crm/client"
	crmservice "dealdesk_backend/internal/crm/service"
	"dealdesk_backend/internal/deals"
	"dealdesk_backend/internal/email"
	"dealdesk_backend/internal/events"
	apphttp "dealdesk_backend/internal/http"
	"dealdesk_backend/internal/http/router"
	"dealdesk_backend/internal/matching"
	"dealdesk_backend/internal/notification"
	"dealdesk_backend/internal/notification/inapp"
	"dealdesk_backend/internal/pipeline"
	"dealdesk_backend/internal/scheduler"
	"dealdesk_backend/platform/config"
	"dealdesk_backend/platform/db"
	"dealdesk_backend/platform/logger"
	"dealdesk_backend/platform/metrics"
	"dealdesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	rdb := initRedis(cfg, log)
	if rdb != nil {
		defer rdb.Close()
	}

	met := metrics.New()

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules
	// ========================================================================

	ghl := crmclient.New(cfg, met, log)

	dealsModule := deals.NewModule(pool, ghl, eventBus, cfg, log, met)

	directory := crm.NewDirectory()
	syncService := crmservice.NewService(ghl, crm.NewParser(val), directory, dealsModule.Store(), eventBus, log)
	crmModule := crm.NewModule(syncService, directory)

	matchingModule, err := matching.NewModule(cfg, directory, log, met)
	if err != nil {
		log.Error("failed to initialize matching module", "error", err)
		panic("failed to initialize matching module: " + err.Error())
	}

	pipelineModule := pipeline.NewModule()

	var sender email.Sender = email.NoopSender{}
	if cfg.IsEmailEnabled() {
		sender = email.NewSMTPSender(cfg)
	}
	notificationModule := notification.NewModule(
		inapp.NewRepository(pool), sender, cfg.GetOpsEmail(),
		dealsModule.Store(), directory, log,
	)
	notificationModule.RegisterHandlers(eventBus)

	modules := []apphttp.Module{
		pipelineModule,
		dealsModule,
		crmModule,
		matchingModule,
		notificationModule,
	}

	if rdb != nil {
		var sweeper scheduler.SweepScheduler
		sweepClient, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Warn("task queue client unavailable; manual sweep disabled", "error", err)
		} else {
			defer sweepClient.Close()
			sweeper = sweepClient
		}
		modules = append(modules, briefing.NewModule(rdb, dealsModule.Store(), cfg, sweeper))
	} else {
		log.Warn("REDIS_URL not configured; briefing dismissals disabled")
	}

	// Seed the read models before accepting traffic. A failed initial sync
	// is not fatal: the manual sync endpoint can recover once the CRM is
	// reachable again.
	if cfg.IsCRMEnabled() {
		if _, err := syncService.Sync(ctx); err != nil {
			log.Error("initial crm sync failed", "error", err)
		}
	} else {
		log.Warn("GHL_API_KEY not configured; starting with empty directory")
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Metrics:  met,
		Modules:  modules,
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initRedis(cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	if cfg.GetRedisURL() == "" {
		return nil
	}

	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		log.Error("failed to parse redis url", "error", err)
		return nil
	}
	if opt.TLSConfig != nil && cfg.GetRedisTLSInsecure() {
		opt.TLSConfig.InsecureSkipVerify = true
	}

	return redis.NewClient(opt)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, lastErr)
}
