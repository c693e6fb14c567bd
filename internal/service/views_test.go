package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complaintdesk/complaint-desk/internal/domain"
	apperrors "github.com/complaintdesk/complaint-desk/pkg/util/errorutil"
)

var (
	staffActor = domain.Actor{UserID: 100, Role: domain.RoleStaff}
	qcActor    = domain.Actor{UserID: 200, Role: domain.RoleQC}
	adminActor = domain.Actor{UserID: 300, Role: domain.RoleAdmin}
)

func int64Ptr(v int64) *int64 { return &v }

func TestViewQueryChecksRole(t *testing.T) {
	_, err := ViewOpen.Query(qcActor, ViewParams{})
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	_, err = ViewQCInbox.Query(staffActor, ViewParams{})
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	_, err = ViewAll.Query(staffActor, ViewParams{})
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	_, err = View("nope").Query(adminActor, ViewParams{})
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
}

func TestViewQueryPresetSLAWins(t *testing.T) {
	q, err := ViewSLABreach.Query(staffActor, ViewParams{
		Search:  "budi",
		Page:    3,
		Filters: EntryFilter{Channel: "email", SLA: SLANonZero},
	})
	require.NoError(t, err)
	assert.Equal(t, SLAZero, q.Entries.SLA)
	assert.Equal(t, "email", q.Entries.Channel)
	assert.Equal(t, "budi", q.Search)
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, SortEscalatedFirst, q.Sort)
}

func TestViewsAreSorted(t *testing.T) {
	views := Views()
	require.Len(t, views, len(viewPresets))
	for i := 1; i < len(views); i++ {
		assert.Less(t, views[i-1], views[i])
	}
}

func TestListViewOpenShowsOnlyOwnUnassignedWork(t *testing.T) {
	store := newMemStore(baseTime)
	mine := store.seedThread(domain.Thread{Number: "AN10032501", Status: domain.ThreadStatusActive})
	store.seedEntry(domain.Entry{ThreadID: mine.ID, InputBy: int64Ptr(staffActor.UserID), SLA: 10})

	theirs := store.seedThread(domain.Thread{Number: "AN10032502", Status: domain.ThreadStatusActive})
	store.seedEntry(domain.Entry{ThreadID: theirs.ID, InputBy: int64Ptr(999), SLA: 10})

	escalated := store.seedThread(domain.Thread{Number: "AN10032503", Status: domain.ThreadStatusActive, QCAssigneeID: int64Ptr(qcActor.UserID)})
	store.seedEntry(domain.Entry{ThreadID: escalated.ID, InputBy: int64Ptr(staffActor.UserID), SLA: 10})

	expired := store.seedThread(domain.Thread{Number: "AN10032504", Status: domain.ThreadStatusActive})
	store.seedEntry(domain.Entry{ThreadID: expired.ID, InputBy: int64Ptr(staffActor.UserID), SLA: 0})

	res, err := newTestLister(store).ListView(context.Background(), staffActor, ViewOpen, ViewParams{})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, mine.ID, res.Items[0].Thread.ID)
}

func TestListViewQCInboxIsScopedToCaller(t *testing.T) {
	store := newMemStore(baseTime)
	mine := store.seedThread(domain.Thread{Number: "AN10032501", Status: domain.ThreadStatusActive, QCAssigneeID: int64Ptr(qcActor.UserID)})
	store.seedEntry(domain.Entry{ThreadID: mine.ID})
	judged := store.seedThread(domain.Thread{Number: "AN10032502", Status: domain.ThreadStatusActive, QCAssigneeID: int64Ptr(qcActor.UserID), LabelCase: domain.LabelCaseValid})
	store.seedEntry(domain.Entry{ThreadID: judged.ID})
	other := store.seedThread(domain.Thread{Number: "AN10032503", Status: domain.ThreadStatusActive, QCAssigneeID: int64Ptr(201)})
	store.seedEntry(domain.Entry{ThreadID: other.ID})

	lister := newTestLister(store)
	res, err := lister.ListView(context.Background(), qcActor, ViewQCInbox, ViewParams{})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, mine.ID, res.Items[0].Thread.ID)

	res, err = lister.ListView(context.Background(), qcActor, ViewQCValid, ViewParams{})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, judged.ID, res.Items[0].Thread.ID)
}

func TestListViewEscalationPendingIncludesReturnedThreads(t *testing.T) {
	store := newMemStore(baseTime)
	pending := store.seedThread(domain.Thread{Number: "AN10032501", Status: domain.ThreadStatusActive, QCAssigneeID: int64Ptr(qcActor.UserID)})
	store.seedEntry(domain.Entry{ThreadID: pending.ID})
	returned := store.seedThread(domain.Thread{Number: "AN10032502", QCAssigneeID: int64Ptr(qcActor.UserID), LabelCase: domain.LabelCaseReopen})
	store.seedEntry(domain.Entry{ThreadID: returned.ID})
	closed := store.seedThread(domain.Thread{Number: "AN10032503", Status: domain.ThreadStatusClosed, QCAssigneeID: int64Ptr(qcActor.UserID)})
	store.seedEntry(domain.Entry{ThreadID: closed.ID})

	res, err := newTestLister(store).ListView(context.Background(), staffActor, ViewEscalationPending, ViewParams{})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, returned.ID, res.Items[0].Thread.ID)
	assert.Equal(t, pending.ID, res.Items[1].Thread.ID)
}
