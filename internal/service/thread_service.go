package service

import (
	"context"
	"sort"

	"github.com/complaintdesk/complaint-desk/internal/domain"
	"github.com/complaintdesk/complaint-desk/internal/repository"
	apperrors "github.com/complaintdesk/complaint-desk/pkg/util/errorutil"
	"github.com/complaintdesk/complaint-desk/pkg/util/pagination"
)

// ThreadService serves the read side of a thread.
type ThreadService struct {
	repos repository.Repositories
}

// NewThreadService constructs the service.
func NewThreadService(store repository.Store) *ThreadService {
	return &ThreadService{repos: store.Repos()}
}

// ThreadDetail is a thread with all of its entries, notes and contacts.
type ThreadDetail struct {
	Thread   domain.Thread
	Entries  []domain.Entry
	Notes    []domain.Note
	Contacts map[int64][]domain.Contact
}

// GetThreadDetail loads a thread for display. QC reviewers only see threads
// assigned to them; any other thread reads as not found.
func (s *ThreadService) GetThreadDetail(ctx context.Context, actor domain.Actor, threadID int64) (*ThreadDetail, error) {
	thread, err := s.repos.Threads.GetByID(ctx, threadID)
	if err != nil {
		return nil, apperrors.MapError(notFound(err, "thread", threadID))
	}
	if actor.Role == domain.RoleQC && !assignedTo(thread, actor) {
		return nil, apperrors.NewNotFound("thread", map[string]any{"id": threadID})
	}

	entries, err := s.repos.Entries.ListByThread(ctx, threadID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	notes, err := s.repos.Notes.ListByThread(ctx, threadID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	ids := make([]int64, len(entries))
	for i, entry := range entries {
		ids[i] = entry.ID
	}
	contacts, err := s.repos.Contacts.ListByEntries(ctx, ids)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	return &ThreadDetail{
		Thread:   *thread,
		Entries:  entries,
		Notes:    notes,
		Contacts: contacts,
	}, nil
}

// ListHistory returns audit rows newest first.
func (s *ThreadService) ListHistory(ctx context.Context, page int) (pagination.Page[domain.History], error) {
	total, err := s.repos.History.Count(ctx)
	if err != nil {
		return pagination.Page[domain.History]{}, apperrors.MapError(err)
	}
	rows, err := s.repos.History.List(ctx, pagination.DefaultPerPage, pagination.Offset(page, pagination.DefaultPerPage))
	if err != nil {
		return pagination.Page[domain.History]{}, apperrors.MapError(err)
	}
	return pagination.FromCount(rows, page, pagination.DefaultPerPage, total), nil
}

// ListStages returns the distinct stage values in use, for filter pickers.
func (s *ThreadService) ListStages(ctx context.Context) ([]string, error) {
	stages, err := s.repos.Entries.ListStages(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return stages, nil
}

// SLA countdown values that flag an entry as close to breaching.
const (
	slaWarningMin = 1
	slaWarningMax = 3
)

// SLAWarning is a near-breach thread together with its entry closest to
// breaching.
type SLAWarning struct {
	Representative
	EntryCount int
}

// ListSLAWarnings returns active and reopened threads holding an entry whose
// SLA is down to 1..3, one row per thread carrying the entry with the lowest
// SLA, ordered by that SLA ascending. QC reviewers only see threads assigned
// to them.
func (s *ThreadService) ListSLAWarnings(ctx context.Context, actor domain.Actor) ([]SLAWarning, error) {
	filter := repository.ThreadFilter{
		Statuses: []domain.ThreadStatus{domain.ThreadStatusActive, domain.ThreadStatusReopened},
		Entry:    &repository.EntryExists{SLAMin: slaWarningMin, SLAMax: slaWarningMax},
	}
	if actor.Role == domain.RoleQC {
		id := actor.UserID
		filter.QCAssigneeID = &id
	}

	threads, err := s.repos.Threads.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(threads) == 0 {
		return []SLAWarning{}, nil
	}
	ids := make([]int64, len(threads))
	for i, thread := range threads {
		ids[i] = thread.ID
	}
	byThread, err := s.repos.Entries.ListByThreads(ctx, ids)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	warnings := make([]SLAWarning, 0, len(threads))
	for _, thread := range threads {
		entries := byThread[thread.ID]
		entry, ok := lowestSLA(entries)
		if !ok {
			continue
		}
		warnings = append(warnings, SLAWarning{
			Representative: Representative{Entry: entry, Thread: thread},
			EntryCount:     len(entries),
		})
	}
	sort.SliceStable(warnings, func(i, j int) bool {
		return warnings[i].Entry.SLA < warnings[j].Entry.SLA
	})
	return warnings, nil
}

// lowestSLA picks the entry with the smallest SLA inside the warning band;
// ties go to the earliest created entry.
func lowestSLA(entries []domain.Entry) (domain.Entry, bool) {
	var (
		best  domain.Entry
		found bool
	)
	for _, e := range entries {
		if e.SLA < slaWarningMin || e.SLA > slaWarningMax {
			continue
		}
		if !found || e.SLA < best.SLA || (e.SLA == best.SLA && e.CreatedTime.Before(best.CreatedTime)) {
			best = e
			found = true
		}
	}
	return best, found
}
