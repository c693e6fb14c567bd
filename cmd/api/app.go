package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/complaintdesk/complaint-desk/internal/config"
	"github.com/complaintdesk/complaint-desk/internal/events"
	"github.com/complaintdesk/complaint-desk/internal/observability"
	"github.com/complaintdesk/complaint-desk/internal/persistence"
	"github.com/complaintdesk/complaint-desk/internal/repository"
	"github.com/complaintdesk/complaint-desk/internal/service"
	"github.com/complaintdesk/complaint-desk/internal/storage"
	"github.com/complaintdesk/complaint-desk/internal/worker"
)

// application holds the process-wide dependencies shared by every command.
type application struct {
	cfg        *config.Config
	logger     *zap.Logger
	loc        *time.Location
	pg         *persistence.Postgres
	redis      *persistence.Redis
	store      repository.Store
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	kafka      *events.KafkaPublisher

	lifecycle   *service.LifecycleService
	maintenance *service.MaintenanceService
}

func bootstrap(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	loc, err := cfg.App.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	a := &application{
		cfg:        cfg,
		logger:     logger,
		loc:        loc,
		pg:         pg,
		redis:      persistence.NewRedis(cfg.Redis, logger),
		store:      repository.NewStore(pg.PoolHandle()),
		dispatcher: events.NewInMemoryDispatcher(),
		metrics:    observability.NewMetrics(),
		kafka:      events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger),
	}
	worker.StartEventSubscribers(a.dispatcher, service.NewNotificationService(a.dispatcher, logger), a.kafka)

	a.lifecycle = service.NewLifecycleService(service.LifecycleDependencies{
		Store:      a.store,
		Dispatcher: a.dispatcher,
		Files:      storage.NewLocalStore(cfg.Storage.UploadDir),
		Logger:     logger,
		Location:   loc,
	})
	a.maintenance = service.NewMaintenanceService(a.store, a.dispatcher, logger)
	return a, nil
}

func (a *application) scheduler() (*worker.Scheduler, error) {
	s := worker.NewScheduler(worker.SchedulerOptions{
		Locker:    worker.NewRedisLocker(a.redis.Client, a.cfg.App.Name+":"),
		Metrics:   a.metrics,
		Logger:    a.logger,
		Location:  a.loc,
		LockTTL:   a.cfg.Scheduler.LockTTL(),
		MarkerTTL: a.cfg.Scheduler.MarkerTTL(),
	})
	for _, job := range worker.MaintenanceJobs(a.maintenance, a.cfg.Scheduler.SLADecaySpec, a.cfg.Scheduler.BackfillSpec) {
		if err := s.Register(job); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (a *application) close() {
	if err := a.kafka.Close(); err != nil {
		a.logger.Warn("kafka writer close", zap.Error(err))
	}
	a.redis.Close()
	a.pg.Close()
	_ = a.logger.Sync()
}
