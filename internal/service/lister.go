package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/complaintdesk/complaint-desk/internal/domain"
	"github.com/complaintdesk/complaint-desk/internal/repository"
	apperrors "github.com/complaintdesk/complaint-desk/pkg/util/errorutil"
	"github.com/complaintdesk/complaint-desk/pkg/util/pagination"
)

// DateLayout is the calendar date format accepted by list filters.
const DateLayout = "2006-01-02"

// SLAConstraint narrows entries by their remaining countdown.
type SLAConstraint int

const (
	SLAAny SLAConstraint = iota
	SLANonZero
	SLAZero
)

// SortMode selects the ordering of representatives.
type SortMode int

const (
	// SortCreatedDesc orders by created_time, newest first.
	SortCreatedDesc SortMode = iota
	// SortEscalatedFirst puts entries escalated to QC first, then newest first.
	SortEscalatedFirst
	// SortQCQueue puts threads returned to QC first, then the most recently
	// changed threads.
	SortQCQueue
)

// EntryFilter holds the per-entry secondary filters. Dates are calendar days
// in DateLayout, compared in the lister's location. Empty fields match all.
type EntryFilter struct {
	ComplaintType string
	Channel       string
	Status        *domain.EntryStatus
	Stage         string
	ReportedOn    string
	CreatedOn     string
	ClosedOn      string
	SLA           SLAConstraint
}

// Matches reports whether entry, belonging to thread, passes every filter.
func (f EntryFilter) Matches(entry domain.Entry, thread domain.Thread, loc *time.Location) bool {
	if f.ComplaintType != "" && entry.ComplaintType != f.ComplaintType {
		return false
	}
	if f.Channel != "" && entry.Channel != f.Channel {
		return false
	}
	if f.Status != nil && entry.Status != *f.Status {
		return false
	}
	if f.Stage != "" && entry.Stage != f.Stage {
		return false
	}
	if f.ReportedOn != "" && calendarDay(entry.ReportedAt, loc) != f.ReportedOn {
		return false
	}
	if f.CreatedOn != "" && calendarDay(entry.CreatedTime, loc) != f.CreatedOn {
		return false
	}
	if f.ClosedOn != "" && (thread.ClosedAt == nil || calendarDay(*thread.ClosedAt, loc) != f.ClosedOn) {
		return false
	}
	switch f.SLA {
	case SLANonZero:
		if entry.SLA == 0 {
			return false
		}
	case SLAZero:
		if entry.SLA != 0 {
			return false
		}
	}
	return true
}

// validate rejects malformed calendar dates.
func (f EntryFilter) validate() error {
	details := map[string]any{}
	for field, value := range map[string]string{
		"date":         f.ReportedOn,
		"handled_date": f.CreatedOn,
		"closed_date":  f.ClosedOn,
	} {
		if value == "" {
			continue
		}
		if _, err := time.Parse(DateLayout, value); err != nil {
			details[field] = "must be a date formatted YYYY-MM-DD"
		}
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid date filter", details)
	}
	return nil
}

func calendarDay(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DateLayout)
}

// SelectRepresentative returns the surviving entry with the smallest
// created_time. Ties keep the entry that comes first in entries.
func SelectRepresentative(entries []domain.Entry, thread domain.Thread, filter EntryFilter, loc *time.Location) (domain.Entry, bool) {
	var (
		best  domain.Entry
		found bool
	)
	for _, entry := range entries {
		if !filter.Matches(entry, thread, loc) {
			continue
		}
		if !found || entry.CreatedTime.Before(best.CreatedTime) {
			best = entry
			found = true
		}
	}
	return best, found
}

// ListQuery is one invocation of the grouped lister.
type ListQuery struct {
	Threads repository.ThreadFilter
	Search  string
	Entries EntryFilter
	Sort    SortMode
	Page    int
}

// Representative is the entry standing in for its thread in a list.
type Representative struct {
	Entry  domain.Entry  `json:"entry"`
	Thread domain.Thread `json:"thread"`
}

// ListResult is one page of representatives plus the entry count of every
// thread on the page.
type ListResult struct {
	pagination.Page[Representative]
	EntryCounts map[int64]int `json:"entry_counts"`
}

// Lister implements the grouped ticket listing shared by every list view.
type Lister struct {
	threads repository.ThreadRepository
	entries repository.EntryRepository
	loc     *time.Location
}

// ListerDependencies bundles what the lister reads from.
type ListerDependencies struct {
	Threads  repository.ThreadRepository
	Entries  repository.EntryRepository
	Location *time.Location
}

// NewLister constructs the lister.
func NewLister(deps ListerDependencies) *Lister {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Lister{threads: deps.Threads, entries: deps.Entries, loc: loc}
}

// List resolves candidate threads, picks one representative per thread,
// sorts them and returns the requested page. Threads without a surviving
// entry are left out of both the page and the total.
func (l *Lister) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	if err := q.Entries.validate(); err != nil {
		return nil, err
	}

	filter := q.Threads
	if term := strings.TrimSpace(q.Search); term != "" {
		ids, err := l.threads.SearchIDs(ctx, term)
		if err != nil {
			return nil, err
		}
		filter.IDs = intersectIDs(filter.IDs, dedupeIDs(ids))
		if len(filter.IDs) == 0 {
			return emptyResult(q.Page), nil
		}
	}

	threads, err := l.threads.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(threads) == 0 {
		return emptyResult(q.Page), nil
	}

	ids := make([]int64, len(threads))
	for i, thread := range threads {
		ids[i] = thread.ID
	}
	byThread, err := l.entries.ListByThreads(ctx, ids)
	if err != nil {
		return nil, err
	}

	reps := make([]Representative, 0, len(threads))
	for _, thread := range threads {
		entry, ok := SelectRepresentative(byThread[thread.ID], thread, q.Entries, l.loc)
		if !ok {
			continue
		}
		reps = append(reps, Representative{Entry: entry, Thread: thread})
	}

	sortRepresentatives(reps, q.Sort)

	page := pagination.Paginate(reps, q.Page, pagination.DefaultPerPage)
	counts := make(map[int64]int, len(page.Items))
	for _, rep := range page.Items {
		counts[rep.Thread.ID] = len(byThread[rep.Thread.ID])
	}
	return &ListResult{Page: page, EntryCounts: counts}, nil
}

func emptyResult(page int) *ListResult {
	return &ListResult{
		Page:        pagination.Paginate([]Representative{}, page, pagination.DefaultPerPage),
		EntryCounts: map[int64]int{},
	}
}

func sortRepresentatives(reps []Representative, mode SortMode) {
	switch mode {
	case SortEscalatedFirst:
		sort.SliceStable(reps, func(i, j int) bool {
			ei := reps[i].Entry.Stage == domain.StageEscalatedToQC
			ej := reps[j].Entry.Stage == domain.StageEscalatedToQC
			if ei != ej {
				return ei
			}
			return reps[i].Entry.CreatedTime.After(reps[j].Entry.CreatedTime)
		})
	case SortQCQueue:
		sort.SliceStable(reps, func(i, j int) bool {
			ri := reps[i].Thread.LabelCase == domain.LabelCaseReopen
			rj := reps[j].Thread.LabelCase == domain.LabelCaseReopen
			if ri != rj {
				return ri
			}
			return reps[i].Thread.ChangeDate.After(reps[j].Thread.ChangeDate)
		})
	default:
		sort.SliceStable(reps, func(i, j int) bool {
			return reps[i].Entry.CreatedTime.After(reps[j].Entry.CreatedTime)
		})
	}
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// intersectIDs narrows restrict by found. A nil restrict means no prior
// restriction. The result is never nil.
func intersectIDs(restrict, found []int64) []int64 {
	if restrict == nil {
		return append([]int64{}, found...)
	}
	allowed := make(map[int64]struct{}, len(restrict))
	for _, id := range restrict {
		allowed[id] = struct{}{}
	}
	out := []int64{}
	for _, id := range found {
		if _, ok := allowed[id]; ok {
			out = append(out, id)
		}
	}
	return out
}
