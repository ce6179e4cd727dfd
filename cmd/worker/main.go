package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dealdesk_backend/internal/crm"
	crmclient "dealdesk_backend/internal/crm/client"
	crmservice "dealdesk_backend/internal/crm/service"
	"dealdesk_backend/internal/deals"
	"dealdesk_backend/internal/email"
	"dealdesk_backend/internal/events"
	"dealdesk_backend/internal/notification"
	"dealdesk_backend/internal/scheduler"
	"dealdesk_backend/platform/config"
	"dealdesk_backend/platform/logger"
	"dealdesk_backend/platform/metrics"
	"dealdesk_backend/platform/validator"
)

// resyncInterval keeps the worker's deal snapshots close to the CRM between
// sweeps.
const resyncInterval = 30 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventBus := events.NewInMemoryBus(log)
	met := metrics.New()
	val := validator.New()

	// The worker keeps its own snapshots; it is a separate process from the
	// API server and syncs from the CRM independently.
	store := deals.NewStore(time.Now)
	directory := crm.NewDirectory()
	ghl := crmclient.New(cfg, met, log)
	syncService := crmservice.NewService(ghl, crm.NewParser(val), directory, store, eventBus, log)

	var sender email.Sender = email.NoopSender{}
	if cfg.IsEmailEnabled() {
		sender = email.NewSMTPSender(cfg)
	}
	notificationModule := notification.NewModule(nil, sender, cfg.GetOpsEmail(), store, directory, log)
	notificationModule.RegisterHandlers(eventBus)

	if cfg.IsCRMEnabled() {
		if _, err := syncService.Sync(ctx); err != nil {
			log.Error("initial crm sync failed", "error", err)
		}
		go resyncLoop(ctx, syncService, log)
	} else {
		log.Warn("GHL_API_KEY not configured; sweeping an empty store")
	}

	worker, err := scheduler.NewWorker(cfg, cfg, store, eventBus, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("worker stopped")
}

func resyncLoop(ctx context.Context, svc *crmservice.Service, log *logger.Logger) {
	ticker := time.NewTicker(resyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.Sync(ctx); err != nil {
				log.Error("periodic crm sync failed", "error", err)
			}
		}
	}
}
