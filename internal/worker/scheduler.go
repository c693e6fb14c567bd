package worker

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/complaintdesk/complaint-desk/internal/observability"
	"github.com/complaintdesk/complaint-desk/internal/service"
)

// Job is one named periodic task.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) (int64, error)
	// Daily records a per-day marker so the job runs at most once per
	// calendar day in the scheduler's location.
	Daily bool
}

// Result reports the outcome of one run.
type Result struct {
	Outcome observability.JobOutcome
	Entries int64
}

// Scheduler runs registered jobs on their cron specs. Runs of the same job
// never overlap, in-process or across replicas.
type Scheduler struct {
	cron      *cron.Cron
	jobs      map[string]Job
	locker    Locker
	metrics   *observability.Metrics
	logger    *zap.Logger
	loc       *time.Location
	lockTTL   time.Duration
	markerTTL time.Duration
	timeout   time.Duration
	now       func() time.Time
}

// SchedulerOptions configures a Scheduler.
type SchedulerOptions struct {
	Locker    Locker
	Metrics   *observability.Metrics
	Logger    *zap.Logger
	Location  *time.Location
	LockTTL   time.Duration
	MarkerTTL time.Duration
	Now       func() time.Time
}

// NewScheduler builds a scheduler. Nothing runs until Start.
func NewScheduler(opts SchedulerOptions) *Scheduler {
	s := &Scheduler{
		jobs:      map[string]Job{},
		locker:    opts.Locker,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		loc:       opts.Location,
		lockTTL:   opts.LockTTL,
		markerTTL: opts.MarkerTTL,
		now:       opts.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.lockTTL <= 0 {
		s.lockTTL = 5 * time.Minute
	}
	if s.markerTTL <= 0 {
		s.markerTTL = 48 * time.Hour
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.timeout = s.lockTTL

	cronLogger := cron.PrintfLogger(zap.NewStdLog(s.logger.Named("cron")))
	s.cron = cron.New(
		cron.WithLocation(s.loc),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	return s
}

// Register adds job under its cron spec.
func (s *Scheduler) Register(job Job) error {
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("job %q already registered", job.Name)
	}
	if _, err := s.cron.AddFunc(job.Spec, func() {
		_, _ = s.RunOnce(context.Background(), job.Name)
	}); err != nil {
		return fmt.Errorf("schedule %q: %w", job.Name, err)
	}
	s.jobs[job.Name] = job
	return nil
}

// Jobs lists registered job names, sorted.
func (s *Scheduler) Jobs() []string {
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start begins firing jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", zap.Strings("jobs", s.Jobs()))
}

// Stop halts the cron loop; the returned context is done once running jobs
// have finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// RunOnce executes the named job now, honoring the cross-replica lock and
// the daily marker.
func (s *Scheduler) RunOnce(ctx context.Context, name string) (Result, error) {
	job, ok := s.jobs[name]
	if !ok {
		return Result{}, fmt.Errorf("unknown job %q", name)
	}
	logger := s.logger.With(zap.String("job", name))
	started := s.now()

	if s.locker != nil {
		release, acquired, err := s.locker.Acquire(ctx, name, s.lockTTL)
		if err != nil {
			return s.fail(logger, name, started, fmt.Errorf("acquire lock: %w", err))
		}
		if !acquired {
			return s.skip(logger, name, started, "another run holds the lock")
		}
		defer release()
	}

	markerKey := ""
	if job.Daily && s.locker != nil {
		markerKey = name + ":" + started.In(s.loc).Format(service.DateLayout)
		set, err := s.locker.Mark(ctx, markerKey, s.markerTTL)
		if err != nil {
			return s.fail(logger, name, started, fmt.Errorf("set day marker: %w", err))
		}
		if !set {
			return s.skip(logger, name, started, "already ran today")
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	entries, err := job.Run(runCtx)
	if err != nil {
		if markerKey != "" {
			if unmarkErr := s.locker.Unmark(context.Background(), markerKey); unmarkErr != nil {
				logger.Warn("day marker not cleared", zap.Error(unmarkErr))
			}
		}
		return s.fail(logger, name, started, err)
	}

	s.metrics.RecordJob(name, observability.JobSucceeded, started)
	logger.Info("job finished",
		zap.Int64("entries", entries),
		zap.Duration("duration", s.now().Sub(started)))
	return Result{Outcome: observability.JobSucceeded, Entries: entries}, nil
}

func (s *Scheduler) skip(logger *zap.Logger, name string, at time.Time, reason string) (Result, error) {
	s.metrics.RecordJob(name, observability.JobSkipped, at)
	logger.Info("job skipped", zap.String("reason", reason))
	return Result{Outcome: observability.JobSkipped}, nil
}

func (s *Scheduler) fail(logger *zap.Logger, name string, at time.Time, err error) (Result, error) {
	s.metrics.RecordJob(name, observability.JobFailed, at)
	logger.Error("job failed", zap.Error(err))
	return Result{Outcome: observability.JobFailed}, err
}

// MaintenanceJobs returns the SLA decay and field backfill jobs.
func MaintenanceJobs(maintenance *service.MaintenanceService, slaSpec, backfillSpec string) []Job {
	return []Job{
		{Name: service.JobSLADecay, Spec: slaSpec, Run: maintenance.DecaySLA, Daily: true},
		{Name: service.JobFieldBackfill, Spec: backfillSpec, Run: maintenance.BackfillBlankFields},
	}
}
