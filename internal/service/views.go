package service

import (
	"context"
	"sort"

	"github.com/complaintdesk/complaint-desk/internal/domain"
	"github.com/complaintdesk/complaint-desk/internal/repository"
	apperrors "github.com/complaintdesk/complaint-desk/pkg/util/errorutil"
)

// View names a list preset over the grouped lister.
type View string

const (
	ViewOpen               View = "open"
	ViewInProgress         View = "in-progress"
	ViewObjection          View = "objection"
	ViewResolved           View = "resolved"
	ViewClosed             View = "closed"
	ViewThreadClosed       View = "thread-closed"
	ViewThreadReopened     View = "thread-reopened"
	ViewSLABreach          View = "sla-breach"
	ViewEscalationPending  View = "escalation-pending"
	ViewEscalationNotValid View = "escalation-not-valid"
	ViewEscalationValid    View = "escalation-valid"
	ViewQCInbox            View = "qc-inbox"
	ViewQCValid            View = "qc-valid"
	ViewQCReopen           View = "qc-reopen"
	ViewQCNotValid         View = "qc-not-valid"
	ViewAll                View = "all"
)

type viewPreset struct {
	role  domain.Role
	build func(actor domain.Actor) (repository.ThreadFilter, EntryFilter, SortMode)
}

func boolPtr(b bool) *bool { return &b }

func statusPtr(s domain.EntryStatus) *domain.EntryStatus { return &s }

// ownedWork is the staff worklist shape: unassigned threads in threadStatus
// holding an entry in entryStatus created by the caller.
func ownedWork(threadStatus domain.ThreadStatus, entryStatus domain.EntryStatus) func(domain.Actor) (repository.ThreadFilter, EntryFilter, SortMode) {
	return func(actor domain.Actor) (repository.ThreadFilter, EntryFilter, SortMode) {
		userID := actor.UserID
		return repository.ThreadFilter{
			Statuses:   []domain.ThreadStatus{threadStatus},
			QCAssigned: boolPtr(false),
			Entry:      &repository.EntryExists{Status: statusPtr(entryStatus), InputBy: &userID},
		}, EntryFilter{SLA: SLANonZero}, SortCreatedDesc
	}
}

func escalation(labels ...domain.LabelCase) func(domain.Actor) (repository.ThreadFilter, EntryFilter, SortMode) {
	return func(domain.Actor) (repository.ThreadFilter, EntryFilter, SortMode) {
		return repository.ThreadFilter{
			OpenOnly:   true,
			QCAssigned: boolPtr(true),
			Labels:     labels,
		}, EntryFilter{}, SortQCQueue
	}
}

func qcQueue(openOnly bool, label domain.LabelCase) func(domain.Actor) (repository.ThreadFilter, EntryFilter, SortMode) {
	return func(actor domain.Actor) (repository.ThreadFilter, EntryFilter, SortMode) {
		userID := actor.UserID
		return repository.ThreadFilter{
			OpenOnly:     openOnly,
			QCAssigneeID: &userID,
			Labels:       []domain.LabelCase{label},
		}, EntryFilter{}, SortCreatedDesc
	}
}

func threadState(status domain.ThreadStatus) func(domain.Actor) (repository.ThreadFilter, EntryFilter, SortMode) {
	return func(domain.Actor) (repository.ThreadFilter, EntryFilter, SortMode) {
		return repository.ThreadFilter{Statuses: []domain.ThreadStatus{status}}, EntryFilter{}, SortCreatedDesc
	}
}

var viewPresets = map[View]viewPreset{
	ViewOpen:           {role: domain.RoleStaff, build: ownedWork(domain.ThreadStatusActive, domain.EntryStatusOpen)},
	ViewInProgress:     {role: domain.RoleStaff, build: ownedWork(domain.ThreadStatusActive, domain.EntryStatusExtension)},
	ViewObjection:      {role: domain.RoleStaff, build: ownedWork(domain.ThreadStatusActive, domain.EntryStatusObjection)},
	ViewResolved:       {role: domain.RoleStaff, build: ownedWork(domain.ThreadStatusActive, domain.EntryStatusReopened)},
	ViewClosed:         {role: domain.RoleStaff, build: ownedWork(domain.ThreadStatusClosed, domain.EntryStatusClosed)},
	ViewThreadClosed:   {role: domain.RoleStaff, build: threadState(domain.ThreadStatusClosed)},
	ViewThreadReopened: {role: domain.RoleStaff, build: threadState(domain.ThreadStatusReopened)},
	ViewSLABreach: {role: domain.RoleStaff, build: func(domain.Actor) (repository.ThreadFilter, EntryFilter, SortMode) {
		return repository.ThreadFilter{
			Statuses: []domain.ThreadStatus{domain.ThreadStatusActive},
			Entry:    &repository.EntryExists{SLAZero: true},
		}, EntryFilter{SLA: SLAZero}, SortEscalatedFirst
	}},
	ViewEscalationPending:  {role: domain.RoleStaff, build: escalation(domain.LabelCaseNone, domain.LabelCaseReopen)},
	ViewEscalationNotValid: {role: domain.RoleStaff, build: escalation(domain.LabelCaseNotValid)},
	ViewEscalationValid:    {role: domain.RoleStaff, build: escalation(domain.LabelCaseValid)},
	ViewQCInbox:            {role: domain.RoleQC, build: qcQueue(true, domain.LabelCaseNone)},
	ViewQCValid:            {role: domain.RoleQC, build: qcQueue(false, domain.LabelCaseValid)},
	ViewQCReopen:           {role: domain.RoleQC, build: qcQueue(false, domain.LabelCaseReopen)},
	ViewQCNotValid:         {role: domain.RoleQC, build: qcQueue(false, domain.LabelCaseNotValid)},
	ViewAll: {role: domain.RoleAdmin, build: func(domain.Actor) (repository.ThreadFilter, EntryFilter, SortMode) {
		return repository.ThreadFilter{QCAssigned: boolPtr(false)}, EntryFilter{SLA: SLANonZero}, SortCreatedDesc
	}},
}

// Views returns every known view name, sorted.
func Views() []View {
	out := make([]View, 0, len(viewPresets))
	for v := range viewPresets {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ViewParams are the caller-controlled parts of a list request.
type ViewParams struct {
	Search  string
	Filters EntryFilter
	Page    int
}

// Query builds the lister query for actor. The role check happens before
// anything is read.
func (v View) Query(actor domain.Actor, params ViewParams) (ListQuery, error) {
	preset, ok := viewPresets[v]
	if !ok {
		return ListQuery{}, apperrors.NewNotFound("view", map[string]any{"view": string(v)})
	}
	if actor.Role != preset.role {
		return ListQuery{}, apperrors.NewForbidden("insufficient role")
	}
	threads, entries, sortMode := preset.build(actor)
	return ListQuery{
		Threads: threads,
		Search:  params.Search,
		Entries: layerFilters(entries, params.Filters),
		Sort:    sortMode,
		Page:    params.Page,
	}, nil
}

// layerFilters adds caller filters on top of a preset. The preset's SLA
// constraint always wins.
func layerFilters(preset, caller EntryFilter) EntryFilter {
	out := caller
	out.SLA = preset.SLA
	return out
}

// ListView runs the named view for actor.
func (l *Lister) ListView(ctx context.Context, actor domain.Actor, view View, params ViewParams) (*ListResult, error) {
	q, err := view.Query(actor, params)
	if err != nil {
		return nil, err
	}
	return l.List(ctx, q)
}
