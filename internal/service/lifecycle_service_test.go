package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complaintdesk/complaint-desk/internal/domain"
	"github.com/complaintdesk/complaint-desk/internal/events"
	apperrors "github.com/complaintdesk/complaint-desk/pkg/util/errorutil"
)

type recordingFiles struct {
	removed []string
	err     error
}

func (f *recordingFiles) Remove(_ context.Context, name string) error {
	f.removed = append(f.removed, name)
	return f.err
}

type lifecycleFixture struct {
	store      *memStore
	svc        *LifecycleService
	files      *recordingFiles
	dispatcher events.Dispatcher
	events     []events.Event
}

func newLifecycleFixture(t *testing.T) *lifecycleFixture {
	t.Helper()
	f := &lifecycleFixture{
		store:      newMemStore(baseTime),
		files:      &recordingFiles{},
		dispatcher: events.NewInMemoryDispatcher(),
	}
	events.SubscribeAll(f.dispatcher, events.AllEventTypes, func(_ context.Context, e events.Event) error {
		f.events = append(f.events, e)
		return nil
	})
	f.svc = NewLifecycleService(LifecycleDependencies{
		Store:      f.store,
		Dispatcher: f.dispatcher,
		Files:      f.files,
		Location:   wib,
		Now:        func() time.Time { return baseTime },
	})
	return f
}

func (f *lifecycleFixture) eventTypes() []events.EventType {
	out := make([]events.EventType, len(f.events))
	for i, e := range f.events {
		out[i] = e.Type
	}
	return out
}

// seedThreadWithEntries creates an active thread holding n open entries.
func (f *lifecycleFixture) seedThreadWithEntries(n int) (domain.Thread, []domain.Entry) {
	thread := f.store.seedThread(domain.Thread{Number: "AN10032501", Status: domain.ThreadStatusActive})
	entries := make([]domain.Entry, n)
	for i := 0; i < n; i++ {
		entries[i] = f.store.seedEntry(domain.Entry{
			ThreadID:     thread.ID,
			CustomerName: "Budi",
			OrderNo:      "ORD-1",
			SLA:          10,
			CreatedTime:  baseTime.Add(time.Duration(i) * time.Minute),
		})
	}
	return thread, entries
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, apperrors.ToDomainError(err).Code, err.Error())
}

func TestSubmitComplaintAllocatesDailyNumbers(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	thread, entry, err := f.svc.SubmitComplaint(ctx, staffActor, SubmitInput{
		Channel:      "email",
		CustomerName: "Budi",
		AgencyName:   "PT Maju Jaya",
		BucketName:   "B 30",
		Description:  "double charge",
	})
	require.NoError(t, err)
	assert.Equal(t, "AN10032501", thread.Number)
	assert.Equal(t, domain.ThreadStatusActive, thread.Status)
	assert.Equal(t, thread.ID, entry.ThreadID)
	assert.Equal(t, domain.EntryStatusOpen, entry.Status)
	assert.Equal(t, domain.DefaultSLA, entry.SLA)
	assert.Equal(t, "PTMajuJaya", entry.AgencyName)
	assert.Equal(t, "B30", entry.BucketName)
	require.NotNil(t, entry.InputBy)
	assert.Equal(t, staffActor.UserID, *entry.InputBy)
	assert.Equal(t, "2025-03-10", entry.ReportedAt.Format(DateLayout))

	second, _, err := f.svc.SubmitComplaint(ctx, staffActor, SubmitInput{ReportedOn: "2025-03-01"})
	require.NoError(t, err)
	assert.Equal(t, "AN10032502", second.Number)
	assert.Equal(t, 2, f.store.numberingLocks)
	assert.Equal(t, []events.EventType{events.EventComplaintSubmitted, events.EventComplaintSubmitted}, f.eventTypes())
	assert.Equal(t, thread.Number, f.events[0].ThreadNumber)
	assert.NotEmpty(t, f.events[0].ID)
}

func TestSubmitComplaintNumbersInServiceZone(t *testing.T) {
	f := newLifecycleFixture(t)
	// 20:00 UTC on the 9th is the 10th in WIB.
	f.svc.now = func() time.Time { return time.Date(2025, time.March, 9, 20, 0, 0, 0, time.UTC) }

	thread, _, err := f.svc.SubmitComplaint(context.Background(), staffActor, SubmitInput{})
	require.NoError(t, err)
	assert.Equal(t, "AN10032501", thread.Number)
}

func TestSubmitComplaintValidation(t *testing.T) {
	f := newLifecycleFixture(t)

	_, _, err := f.svc.SubmitComplaint(context.Background(), qcActor, SubmitInput{})
	assertCode(t, err, "FORBIDDEN")

	_, _, err = f.svc.SubmitComplaint(context.Background(), staffActor, SubmitInput{ReportedOn: "10-03-2025"})
	assertCode(t, err, "VALIDATION_FAILED")
	assert.Empty(t, f.store.state.threads)
}

func TestSubmitComplaintRollsBackThreadWhenEntryFails(t *testing.T) {
	f := newLifecycleFixture(t)
	f.store.failOnEntryWrite(1)

	_, _, err := f.svc.SubmitComplaint(context.Background(), staffActor, SubmitInput{})
	assertCode(t, err, "INTERNAL_ERROR")
	assert.ErrorIs(t, err, errInjected)
	assert.Empty(t, f.store.state.threads)
	assert.Empty(t, f.store.state.entries)
	assert.Empty(t, f.events)
}

func TestAddFollowUpEntry(t *testing.T) {
	f := newLifecycleFixture(t)
	thread, entries := f.seedThreadWithEntries(1)
	ctx := context.Background()

	_, err := f.svc.AddFollowUpEntry(ctx, staffActor, FollowUpInput{SourceEntryID: entries[0].ID})
	assertCode(t, err, "VALIDATION_FAILED")
	details := apperrors.ToDomainError(err).Details
	assert.Contains(t, details, "deskripsi_pengaduan")
	assert.Contains(t, details, "tanggal")

	f.store.now = baseTime.Add(time.Hour)
	entry, err := f.svc.AddFollowUpEntry(ctx, staffActor, FollowUpInput{
		SourceEntryID: entries[0].ID,
		OrderNo:       "ORD-2",
		Description:   "second order also charged",
		ReportedOn:    "2025-03-09",
	})
	require.NoError(t, err)
	assert.Equal(t, thread.ID, entry.ThreadID)
	assert.Equal(t, "Budi", entry.CustomerName)
	assert.Equal(t, "ORD-2", entry.OrderNo)
	assert.Equal(t, domain.EntryStatusOpen, entry.Status)
	assert.Equal(t, domain.DefaultSLA, entry.SLA)
	assert.Len(t, f.store.threadEntries(thread.ID), 2)
	assert.Equal(t, baseTime.Add(time.Hour), f.store.thread(thread.ID).ChangeDate)

	reopened, err := f.svc.AddFollowUpEntry(ctx, staffActor, FollowUpInput{
		SourceEntryID: entries[0].ID,
		Description:   "customer came back",
		ReportedOn:    "2025-03-10",
		Reopen:        true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.EntryStatusReopened, reopened.Status)

	_, err = f.svc.AddFollowUpEntry(ctx, staffActor, FollowUpInput{SourceEntryID: 999, Description: "x", ReportedOn: "2025-03-10"})
	assertCode(t, err, "NOT_FOUND")
}

func TestCloseThreadClosesEveryEntry(t *testing.T) {
	f := newLifecycleFixture(t)
	thread, entries := f.seedThreadWithEntries(3)

	closed, err := f.svc.CloseThread(context.Background(), staffActor, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ThreadStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)

	stored := f.store.thread(thread.ID)
	assert.Equal(t, domain.ThreadStatusClosed, stored.Status)
	require.NotNil(t, stored.ClosedAt)
	for _, e := range entries {
		assert.Equal(t, domain.EntryStatusClosed, f.store.entry(e.ID).Status)
	}
	require.Len(t, f.events, 1)
	assert.Equal(t, events.EventThreadClosed, f.events[0].Type)
	assert.Equal(t, int64(3), f.events[0].Payload.(events.ThreadStatusPayload).Entries)
}

func TestCloseThreadRollsBackWhenEntryUpdateFails(t *testing.T) {
	f := newLifecycleFixture(t)
	thread, entries := f.seedThreadWithEntries(2)
	f.store.failOnEntryWrite(1)

	_, err := f.svc.CloseThread(context.Background(), staffActor, thread.ID)
	require.Error(t, err)

	stored := f.store.thread(thread.ID)
	assert.Equal(t, domain.ThreadStatusActive, stored.Status)
	assert.Nil(t, stored.ClosedAt)
	for _, e := range entries {
		assert.Equal(t, domain.EntryStatusOpen, f.store.entry(e.ID).Status)
	}
	assert.Equal(t, 1, f.store.rollbacks)
	assert.Empty(t, f.events)
}

func TestReopenThread(t *testing.T) {
	f := newLifecycleFixture(t)
	thread, entries := f.seedThreadWithEntries(2)

	reopened, err := f.svc.ReopenThread(context.Background(), staffActor, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ThreadStatusReopened, reopened.Status)
	assert.Nil(t, f.store.thread(thread.ID).ClosedAt)
	for _, e := range entries {
		assert.Equal(t, domain.EntryStatusReopened, f.store.entry(e.ID).Status)
	}

	_, err = f.svc.ReopenThread(context.Background(), staffActor, 999)
	assertCode(t, err, "NOT_FOUND")

	_, err = f.svc.ReopenThread(context.Background(), qcActor, thread.ID)
	assertCode(t, err, "FORBIDDEN")
}

func TestUpdateThreadStatus(t *testing.T) {
	f := newLifecycleFixture(t)
	thread, entries := f.seedThreadWithEntries(2)

	for _, code := range []int{0, 1, 4, 6} {
		_, err := f.svc.UpdateThreadStatus(context.Background(), staffActor, thread.ID, code)
		assertCode(t, err, "VALIDATION_FAILED")
	}

	updated, err := f.svc.UpdateThreadStatus(context.Background(), staffActor, thread.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)
	for _, e := range entries {
		assert.Equal(t, domain.EntryStatusObjection, f.store.entry(e.ID).Status)
	}
	assert.Empty(t, f.store.state.history)
	assert.Equal(t, domain.ThreadStatusActive, f.store.thread(thread.ID).Status)
}

func TestRejectQCVerdict(t *testing.T) {
	f := newLifecycleFixture(t)
	valid := f.store.seedThread(domain.Thread{Number: "AN10032501", LabelCase: domain.LabelCaseValid})
	notValid := f.store.seedThread(domain.Thread{Number: "AN10032502", LabelCase: domain.LabelCaseNotValid})

	_, err := f.svc.RejectQCVerdict(context.Background(), staffActor, valid.ID)
	assertCode(t, err, "CONFLICT")
	assert.Equal(t, domain.LabelCaseValid, f.store.thread(valid.ID).LabelCase)

	thread, err := f.svc.RejectQCVerdict(context.Background(), staffActor, notValid.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LabelCaseReopen, thread.LabelCase)
	assert.Equal(t, domain.LabelCaseReopen, f.store.thread(notValid.ID).LabelCase)
}

func TestAdvanceStageEscalatesToQC(t *testing.T) {
	f := newLifecycleFixture(t)
	reviewer := f.store.seedUser(domain.User{Username: "qc1", Role: domain.RoleQC})
	thread, entries := f.seedThreadWithEntries(1)

	entry, err := f.svc.AdvanceStage(context.Background(), staffActor, StageInput{
		ThreadID:     thread.ID,
		EntryID:      entries[0].ID,
		Stage:        domain.StageEscalatedToQC,
		QCUserID:     &reviewer.ID,
		AgencyName:   "  Agency  ",
		CustomerName: "Budi S",
		OrderNo:      "ORD-9",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StageEscalatedToQC, entry.Stage)
	assert.Equal(t, "ORD-9", entry.OrderNo)
	assert.Equal(t, "Agency", entry.AgencyName)

	stored := f.store.thread(thread.ID)
	require.NotNil(t, stored.QCAssigneeID)
	assert.Equal(t, reviewer.ID, *stored.QCAssigneeID)

	require.Len(t, f.store.state.history, 1)
	row := f.store.state.history[0]
	assert.Equal(t, thread.Number, row.ThreadNumber)
	assert.Equal(t, "ORD-1", row.OrderNumber)
	assert.Equal(t, domain.StageEscalatedToQC, row.Stage)
	assert.Equal(t, "Agency", row.AgencyName)
	assert.Equal(t, staffActor.UserID, row.CreatedBy)

	assert.Equal(t, []events.EventType{events.EventStageAdvanced, events.EventQCAssigned}, f.eventTypes())
}

func TestAdvanceStageRejectsNonQCReviewer(t *testing.T) {
	f := newLifecycleFixture(t)
	other := f.store.seedUser(domain.User{Username: "staff2", Role: domain.RoleStaff})
	thread, entries := f.seedThreadWithEntries(1)

	for _, id := range []int64{other.ID, 999} {
		_, err := f.svc.AdvanceStage(context.Background(), staffActor, StageInput{
			ThreadID: thread.ID,
			EntryID:  entries[0].ID,
			Stage:    domain.StageEscalatedToQC,
			QCUserID: &id,
		})
		assertCode(t, err, "VALIDATION_FAILED")
	}
	assert.Nil(t, f.store.thread(thread.ID).QCAssigneeID)
	assert.Empty(t, f.store.state.history)
	assert.Equal(t, "Budi", f.store.entry(entries[0].ID).CustomerName)
}

func TestAdvanceStageDerivesStage2(t *testing.T) {
	f := newLifecycleFixture(t)
	thread, entries := f.seedThreadWithEntries(1)
	ctx := context.Background()
	base := StageInput{ThreadID: thread.ID, EntryID: entries[0].ID}

	in := base
	in.Stage = domain.StageFollowUp
	in.FollowUpNote = "called customer"
	entry, err := f.svc.AdvanceStage(ctx, staffActor, in)
	require.NoError(t, err)
	assert.Equal(t, "called customer", entry.Stage2)

	in = base
	in.Stage = domain.StageQCEscalation
	in.EscalationDate = "2025-03-10"
	in.EscalationDesc = "sent to QC"
	entry, err = f.svc.AdvanceStage(ctx, staffActor, in)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10 - sent to QC", entry.Stage2)

	in = base
	in.Stage = domain.StageQCEscalation
	in.EscalationDate = "2025-03-10"
	entry, err = f.svc.AdvanceStage(ctx, staffActor, in)
	require.NoError(t, err)
	assert.Empty(t, entry.Stage2)
	assert.Len(t, f.store.state.history, 3)
}

func TestAdvanceStageWithoutStageOnlyUpdatesIdentity(t *testing.T) {
	f := newLifecycleFixture(t)
	thread, entries := f.seedThreadWithEntries(1)

	entry, err := f.svc.AdvanceStage(context.Background(), staffActor, StageInput{
		ThreadID:     thread.ID,
		EntryID:      entries[0].ID,
		CustomerName: "Budi Santoso",
		Email:        "budi@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Budi Santoso", f.store.entry(entry.ID).CustomerName)
	assert.Equal(t, "budi@example.com", f.store.entry(entry.ID).Email)
	assert.Empty(t, f.store.state.history)
	assert.Empty(t, f.events)
}

func TestAdvanceStageRequiresEntryInThread(t *testing.T) {
	f := newLifecycleFixture(t)
	thread, _ := f.seedThreadWithEntries(1)
	other := f.store.seedThread(domain.Thread{Number: "AN10032509"})
	stray := f.store.seedEntry(domain.Entry{ThreadID: other.ID})

	_, err := f.svc.AdvanceStage(context.Background(), staffActor, StageInput{ThreadID: thread.ID, EntryID: stray.ID, Stage: domain.StageFollowUp})
	assertCode(t, err, "NOT_FOUND")
}

func TestAdvanceReopenStage(t *testing.T) {
	f := newLifecycleFixture(t)
	thread, entries := f.seedThreadWithEntries(1)
	ctx := context.Background()

	entry, err := f.svc.AdvanceReopenStage(ctx, staffActor, ReopenStageInput{
		ThreadID:       thread.ID,
		EntryID:        entries[0].ID,
		Stage:          "Keberatan",
		StatusCode:     "3",
		EscalationDate: "2025-03-10",
		EscalationDesc: "customer objects",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.EntryStatusObjection, entry.Status)
	assert.Equal(t, "2025-03-10 - customer objects", entry.Stage2)

	entry, err = f.svc.AdvanceReopenStage(ctx, staffActor, ReopenStageInput{
		ThreadID:     thread.ID,
		EntryID:      entries[0].ID,
		Stage:        "Selesai",
		StatusCode:   "4",
		FollowUpNote: "refunded",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.EntryStatusClosed, entry.Status)
	assert.Equal(t, "refunded", entry.Stage2)

	require.Len(t, f.store.state.history, 2)
	assert.Equal(t, domain.EntryStatusClosed, f.store.state.history[1].Status)

	_, err = f.svc.AdvanceReopenStage(ctx, staffActor, ReopenStageInput{ThreadID: thread.ID, EntryID: entries[0].ID, StatusCode: "3"})
	assertCode(t, err, "VALIDATION_FAILED")

	_, err = f.svc.AdvanceReopenStage(ctx, staffActor, ReopenStageInput{ThreadID: thread.ID, EntryID: entries[0].ID, Stage: "x", StatusCode: "9"})
	assertCode(t, err, "VALIDATION_FAILED")
}

func TestRecordQCVerdict(t *testing.T) {
	f := newLifecycleFixture(t)
	thread := f.store.seedThread(domain.Thread{Number: "AN10032501", QCAssigneeID: int64Ptr(qcActor.UserID)})
	entry := f.store.seedEntry(domain.Entry{ThreadID: thread.ID})
	foreign := f.store.seedThread(domain.Thread{Number: "AN10032502", QCAssigneeID: int64Ptr(201)})
	foreignEntry := f.store.seedEntry(domain.Entry{ThreadID: foreign.ID})
	ctx := context.Background()

	_, err := f.svc.RecordQCVerdict(ctx, qcActor, entry.ID, QCVerdictInput{Label: domain.LabelCaseReopen})
	assertCode(t, err, "VALIDATION_FAILED")

	_, err = f.svc.RecordQCVerdict(ctx, qcActor, foreignEntry.ID, QCVerdictInput{Label: domain.LabelCaseValid})
	assertCode(t, err, "NOT_FOUND")
	assert.Equal(t, domain.LabelCaseNone, f.store.thread(foreign.ID).LabelCase)

	_, err = f.svc.RecordQCVerdict(ctx, staffActor, entry.ID, QCVerdictInput{Label: domain.LabelCaseValid})
	assertCode(t, err, "FORBIDDEN")

	judged, err := f.svc.RecordQCVerdict(ctx, qcActor, entry.ID, QCVerdictInput{
		Description: "agent misbehaved",
		Files:       []string{"a.pdf", " ", "b.pdf"},
		Label:       domain.LabelCaseNotValid,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.LabelCaseNotValid, judged.LabelCase)
	assert.Equal(t, "a.pdf,b.pdf", f.store.entry(entry.ID).QCFiles)
	assert.Equal(t, "agent misbehaved", f.store.entry(entry.ID).QCDescription)
	require.Len(t, f.store.state.history, 1)
	assert.Equal(t, domain.StageQCProcessing, f.store.state.history[0].Stage)
	assert.Equal(t, []events.EventType{events.EventQCVerdictRecorded}, f.eventTypes())
}

func TestApplyQCFeedback(t *testing.T) {
	f := newLifecycleFixture(t)
	thread := f.store.seedThread(domain.Thread{Number: "AN10032501", QCAssigneeID: int64Ptr(qcActor.UserID)})
	a := f.store.seedEntry(domain.Entry{ThreadID: thread.ID})
	b := f.store.seedEntry(domain.Entry{ThreadID: thread.ID})

	updated, err := f.svc.ApplyQCFeedback(context.Background(), qcActor, thread.ID, "checked", []string{"proof.png"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)
	for _, id := range []int64{a.ID, b.ID} {
		assert.Equal(t, "checked", f.store.entry(id).QCDescription)
		assert.Equal(t, "proof.png", f.store.entry(id).QCFiles)
	}

	_, err = f.svc.ApplyQCFeedback(context.Background(), domain.Actor{UserID: 201, Role: domain.RoleQC}, thread.ID, "x", nil)
	assertCode(t, err, "NOT_FOUND")
}

func TestUpdateComplaintDetails(t *testing.T) {
	f := newLifecycleFixture(t)
	thread, entries := f.seedThreadWithEntries(2)

	updated, err := f.svc.UpdateComplaintDetails(context.Background(), staffActor, thread.ID, ComplaintDetailsInput{
		ComplaintType: "Penagihan",
		Chronology:    "called twice",
		ChatEvidence:  []string{"chat1.png", "chat2.png"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)
	for _, e := range entries {
		stored := f.store.entry(e.ID)
		assert.Equal(t, "Penagihan", stored.ComplaintType)
		assert.Equal(t, "chat1.png,chat2.png", stored.ChatEvidence)
	}

	_, err = f.svc.UpdateComplaintDetails(context.Background(), staffActor, 999, ComplaintDetailsInput{})
	assertCode(t, err, "NOT_FOUND")
}

func TestHandlerFailureDoesNotFailOperation(t *testing.T) {
	f := newLifecycleFixture(t)
	f.dispatcher.Subscribe(events.EventThreadClosed, func(context.Context, events.Event) error {
		return errors.New("downstream unavailable")
	})
	thread, _ := f.seedThreadWithEntries(1)

	_, err := f.svc.CloseThread(context.Background(), staffActor, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ThreadStatusClosed, f.store.thread(thread.ID).Status)
}

func TestFileList(t *testing.T) {
	assert.Equal(t, "", JoinFileList(nil))
	assert.Equal(t, "a.pdf,b.pdf", JoinFileList([]string{"a.pdf", "", " b.pdf "}))
	assert.Equal(t, []string{}, SplitFileList(""))
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, SplitFileList("a.pdf,b.pdf"))
}
