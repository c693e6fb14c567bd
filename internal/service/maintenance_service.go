package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/complaintdesk/complaint-desk/internal/domain"
	"github.com/complaintdesk/complaint-desk/internal/events"
	"github.com/complaintdesk/complaint-desk/internal/repository"
	apperrors "github.com/complaintdesk/complaint-desk/pkg/util/errorutil"
)

// Job names of the periodic maintenance tasks.
const (
	JobSLADecay      = "sla-decay"
	JobFieldBackfill = "field-backfill"
)

// MaintenanceService runs the bulk jobs driven by the scheduler.
type MaintenanceService struct {
	entries    repository.EntryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// NewMaintenanceService constructs the service.
func NewMaintenanceService(store repository.Store, dispatcher events.Dispatcher, logger *zap.Logger) *MaintenanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceService{
		entries:    store.Repos().Entries,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// DecaySLA decrements the countdown of every entry that is not closed and
// still above zero. Running it twice decays twice; callers guard the day.
func (s *MaintenanceService) DecaySLA(ctx context.Context) (int64, error) {
	n, err := s.entries.DecaySLA(ctx)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	s.logger.Info("sla decayed", zap.Int64("entries", n))
	s.completed(ctx, JobSLADecay, n)
	return n, nil
}

// BackfillBlankFields normalizes legacy blank markers in agency and bucket.
func (s *MaintenanceService) BackfillBlankFields(ctx context.Context) (int64, error) {
	result, err := s.entries.BackfillBlankFields(ctx)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	if result.Entries > 0 {
		s.logger.Info("blank fields normalized", zap.Int64("entries", result.Entries))
		s.completed(ctx, JobFieldBackfill, result.Entries)
	}
	return result.Entries, nil
}

func (s *MaintenanceService) completed(ctx context.Context, job string, entries int64) {
	publishEvent(ctx, s.dispatcher, s.logger, s.now(), domain.Actor{}, nil,
		events.EventMaintenanceCompleted, events.MaintenancePayload{Job: job, Entries: entries})
}
