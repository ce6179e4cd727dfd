package scheduler

import (
	"context"
	"fmt"
	"time"

	"dealdesk_backend/internal/deals"
	"dealdesk_backend/internal/events"
	"dealdesk_backend/platform/config"
	"dealdesk_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server    *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	store     *deals.Store
	bus       events.Bus
	threshold time.Duration
	log       *logger.Logger
}

// NewWorker builds the asynq server plus the periodic scheduler that
// enqueues the nightly stale-deal sweep.
func NewWorker(cfg config.SchedulerConfig, dealsCfg config.DealsConfig, store *deals.Store, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	periodic := asynq.NewScheduler(opt, nil)
	sweepTask, err := NewStaleDealSweepTask(StaleDealSweepPayload{})
	if err != nil {
		return nil, err
	}
	// 07:00 UTC, before the working day starts in every served timezone.
	if _, err := periodic.Register("0 7 * * *", sweepTask, asynq.Queue(queue)); err != nil {
		return nil, err
	}

	mux := asynq.NewServeMux()
	w := &Worker{
		server:    server,
		scheduler: periodic,
		mux:       mux,
		store:     store,
		bus:       bus,
		threshold: dealsCfg.GetStaleDealThreshold(),
		log:       log,
	}

	mux.HandleFunc(TaskStaleDealSweep, w.handleStaleDealSweep)

	return w, nil
}

func (w *Worker) handleStaleDealSweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseStaleDealSweepPayload(task)
	if err != nil {
		return err
	}

	threshold := w.threshold
	if payload.Threshold != "" {
		if override, err := time.ParseDuration(payload.Threshold); err == nil && override > 0 {
			threshold = override
		}
	}

	stale := w.store.Stale(threshold)
	w.log.Info("stale deal sweep complete", "threshold", threshold.String(), "stale", len(stale))
	if len(stale) == 0 || w.bus == nil {
		return nil
	}

	ids := make([]string, 0, len(stale))
	for _, deal := range stale {
		ids = append(ids, deal.ID)
	}

	return w.bus.PublishSync(ctx, events.StaleDealsDetected{
		BaseEvent: events.NewBaseEvent(),
		DealIDs:   ids,
		Threshold: threshold.String(),
		SweptAt:   time.Now().UTC(),
	})
}

// Run blocks until the context is canceled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.scheduler.Shutdown()
		w.server.Shutdown()
	}()

	go func() {
		if err := w.scheduler.Run(); err != nil {
			w.log.Error("periodic scheduler stopped", "error", err)
		}
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
