package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/complaintdesk/complaint-desk/internal/domain"
	"github.com/complaintdesk/complaint-desk/internal/events"
	"github.com/complaintdesk/complaint-desk/internal/repository"
	apperrors "github.com/complaintdesk/complaint-desk/pkg/util/errorutil"
)

// LifecycleService owns every transition of threads and entries.
type LifecycleService struct {
	store      repository.Store
	dispatcher events.Dispatcher
	files      FileStore
	logger     *zap.Logger
	loc        *time.Location
	now        func() time.Time
}

// LifecycleDependencies bundles collaborators for the lifecycle service.
type LifecycleDependencies struct {
	Store      repository.Store
	Dispatcher events.Dispatcher
	// Files removes stored documents; nil leaves files on disk.
	Files  FileStore
	Logger *zap.Logger
	// Location is the zone for ticket numbers and date-only inputs.
	Location *time.Location
	Now      func() time.Time
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	s := &LifecycleService{
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		files:      deps.Files,
		logger:     deps.Logger,
		loc:        deps.Location,
		now:        deps.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// SubmitInput is a new complaint as captured by staff.
type SubmitInput struct {
	Channel         string
	Category        string
	ComplaintType   string
	ComplaintDetail string
	// ReportedOn is a YYYY-MM-DD day; empty means today.
	ReportedOn    string
	CustomerName  string
	Email         string
	PrimaryPhone  string
	ContactPhone  string
	NIK           string
	AgencyName    string
	CollectorName string
	BucketName    string
	OrderNo       string
	Description   string
}

// SubmitComplaint opens a new thread with its first entry. The ticket number
// is allocated under an advisory lock inside the same transaction.
func (s *LifecycleService) SubmitComplaint(ctx context.Context, actor domain.Actor, input SubmitInput) (*domain.Thread, *domain.Entry, error) {
	if err := requireRole(actor, domain.RoleStaff); err != nil {
		return nil, nil, err
	}
	now := s.clock()
	reportedAt := now
	if input.ReportedOn != "" {
		parsed, err := s.parseDay("tanggal", input.ReportedOn)
		if err != nil {
			return nil, nil, err
		}
		reportedAt = parsed
	}

	userID := actor.UserID
	thread := &domain.Thread{Status: domain.ThreadStatusActive}
	entry := &domain.Entry{
		Channel:         input.Channel,
		Category:        input.Category,
		ComplaintType:   input.ComplaintType,
		ComplaintDetail: input.ComplaintDetail,
		ReportedAt:      reportedAt,
		CustomerName:    input.CustomerName,
		Email:           input.Email,
		PrimaryPhone:    input.PrimaryPhone,
		ContactPhone:    input.ContactPhone,
		NIK:             input.NIK,
		AgencyName:      strings.ReplaceAll(input.AgencyName, " ", ""),
		CollectorName:   input.CollectorName,
		BucketName:      strings.ReplaceAll(input.BucketName, " ", ""),
		OrderNo:         input.OrderNo,
		Description:     input.Description,
		InputBy:         &userID,
		Status:          domain.EntryStatusOpen,
		SLA:             domain.DefaultSLA,
		CreatedTime:     now,
	}

	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		if err := repos.Threads.LockNumbering(ctx); err != nil {
			return err
		}
		last, err := repos.Threads.LastNumberWithPrefix(ctx, domain.TicketNumberPrefix(now, s.loc))
		if err != nil {
			return err
		}
		thread.Number = domain.NextTicketNumber(last, now, s.loc)
		if err := repos.Threads.Create(ctx, thread); err != nil {
			return err
		}
		entry.ThreadID = thread.ID
		return repos.Entries.Create(ctx, entry)
	})
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}

	s.logger.Info("complaint submitted", zap.String("thread_number", thread.Number), zap.Int64("entry_id", entry.ID))
	s.publish(ctx, actor, thread, events.EventComplaintSubmitted, events.ComplaintSubmittedPayload{
		EntryID:       entry.ID,
		Channel:       entry.Channel,
		ComplaintType: entry.ComplaintType,
	})
	return thread, entry, nil
}

// FollowUpInput adds a new order to an existing thread.
type FollowUpInput struct {
	SourceEntryID int64
	OrderNo       string
	AgencyName    string
	CollectorName string
	BucketName    string
	Description   string
	ReportedOn    string
	// Reopen marks the entry as part of the reopen flow (status 5).
	Reopen bool
}

// AddFollowUpEntry appends a new entry copying the identity fields of the
// source entry. Description and date are required.
func (s *LifecycleService) AddFollowUpEntry(ctx context.Context, actor domain.Actor, input FollowUpInput) (*domain.Entry, error) {
	if err := requireRole(actor, domain.RoleStaff); err != nil {
		return nil, err
	}
	missing := map[string]any{}
	if strings.TrimSpace(input.Description) == "" {
		missing["deskripsi_pengaduan"] = "required"
	}
	if strings.TrimSpace(input.ReportedOn) == "" {
		missing["tanggal"] = "required"
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("description and date are required", missing)
	}
	reportedAt, err := s.parseDay("tanggal", input.ReportedOn)
	if err != nil {
		return nil, err
	}

	status := domain.EntryStatusOpen
	if input.Reopen {
		status = domain.EntryStatusReopened
	}

	var (
		entry  *domain.Entry
		thread *domain.Thread
	)
	err = s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		source, err := repos.Entries.GetByID(ctx, input.SourceEntryID)
		if err != nil {
			return notFound(err, "entry", input.SourceEntryID)
		}
		thread, err = repos.Threads.GetByID(ctx, source.ThreadID)
		if err != nil {
			return err
		}
		userID := actor.UserID
		entry = &domain.Entry{
			ThreadID:        source.ThreadID,
			OrderNo:         input.OrderNo,
			AgencyName:      input.AgencyName,
			CollectorName:   input.CollectorName,
			BucketName:      input.BucketName,
			Description:     input.Description,
			ReportedAt:      reportedAt,
			Channel:         source.Channel,
			Category:        source.Category,
			ComplaintType:   source.ComplaintType,
			ComplaintDetail: source.ComplaintDetail,
			CustomerName:    source.CustomerName,
			Email:           source.Email,
			PrimaryPhone:    source.PrimaryPhone,
			ContactPhone:    source.ContactPhone,
			NIK:             source.NIK,
			InputBy:         &userID,
			Status:          status,
			SLA:             domain.DefaultSLA,
			CreatedTime:     s.clock(),
		}
		return repos.Entries.Create(ctx, entry)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, actor, thread, events.EventEntryAdded, events.EntryAddedPayload{
		EntryID:       entry.ID,
		SourceEntryID: input.SourceEntryID,
		Status:        entry.Status,
	})
	return entry, nil
}

// StageInput advances the workflow stage of one entry and refreshes its
// identity fields.
type StageInput struct {
	ThreadID int64
	EntryID  int64
	Stage    string
	// FollowUpNote feeds stage_2 when Stage is "Follow Up".
	FollowUpNote string
	// EscalationDate and EscalationDesc feed stage_2 when Stage is
	// "Eskalasi QC".
	EscalationDate string
	EscalationDesc string
	// QCUserID assigns the thread when Stage is "Eskalasi ke QC".
	QCUserID *int64

	AgencyName    string
	BucketName    string
	CollectorName string
	CustomerName  string
	NIK           string
	PrimaryPhone  string
	ContactPhone  string
	Email         string
	Description   string
	OrderNo       string
}

// AdvanceStage updates the stage markers of an entry. When a stage change
// happens a History row is written; escalating to QC with a reviewer id
// assigns the thread to that reviewer.
func (s *LifecycleService) AdvanceStage(ctx context.Context, actor domain.Actor, input StageInput) (*domain.Entry, error) {
	if err := requireRole(actor, domain.RoleStaff); err != nil {
		return nil, err
	}

	stage2 := deriveStage2(input.Stage, input.FollowUpNote, input.EscalationDate, input.EscalationDesc)
	updatingStage := input.Stage != "" || stage2 != ""
	agency := strings.TrimSpace(input.AgencyName)

	var (
		entry    *domain.Entry
		thread   *domain.Thread
		assigned bool
	)
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		entry, thread, err = loadEntryInThread(ctx, repos, input.ThreadID, input.EntryID)
		if err != nil {
			return err
		}

		if updatingStage {
			previousOrder := entry.OrderNo
			if input.Stage != "" {
				entry.Stage = input.Stage
			}
			entry.Stage2 = stage2

			if input.Stage == domain.StageEscalatedToQC && input.QCUserID != nil {
				if err := ensureQCUser(ctx, repos, *input.QCUserID); err != nil {
					return err
				}
				if err := repos.Threads.SetQCAssignee(ctx, thread.ID, *input.QCUserID); err != nil {
					return err
				}
				qcID := *input.QCUserID
				thread.QCAssigneeID = &qcID
				assigned = true
			}

			if err := repos.History.Create(ctx, &domain.History{
				ThreadNumber: thread.Number,
				CreatedAt:    s.clock(),
				OrderNumber:  previousOrder,
				Status:       entry.Status,
				Stage:        entry.Stage,
				AgencyName:   agency,
				CreatedBy:    actor.UserID,
			}); err != nil {
				return err
			}
		}

		entry.AgencyName = agency
		entry.BucketName = strings.TrimSpace(input.BucketName)
		entry.CollectorName = input.CollectorName
		entry.CustomerName = input.CustomerName
		entry.NIK = input.NIK
		entry.PrimaryPhone = input.PrimaryPhone
		entry.ContactPhone = input.ContactPhone
		entry.Email = input.Email
		entry.Description = input.Description
		entry.OrderNo = input.OrderNo
		return repos.Entries.Update(ctx, entry)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if updatingStage {
		s.publish(ctx, actor, thread, events.EventStageAdvanced, events.StageAdvancedPayload{
			EntryID: entry.ID,
			Stage:   entry.Stage,
			Stage2:  entry.Stage2,
			Status:  entry.Status,
		})
	}
	if assigned {
		s.publish(ctx, actor, thread, events.EventQCAssigned, events.QCAssignedPayload{QCUserID: *thread.QCAssigneeID})
	}
	return entry, nil
}

// ReopenStageInput advances an entry of a reopened thread.
type ReopenStageInput struct {
	ThreadID       int64
	EntryID        int64
	Stage          string
	StatusCode     string
	FollowUpNote   string
	EscalationDate string
	EscalationDesc string
}

// AdvanceReopenStage sets stage and status of an entry in the reopen flow.
// Objection (3) derives a dated stage_2, closed (4) a follow-up stage_2.
func (s *LifecycleService) AdvanceReopenStage(ctx context.Context, actor domain.Actor, input ReopenStageInput) (*domain.Entry, error) {
	if err := requireRole(actor, domain.RoleStaff); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Stage) == "" {
		return nil, apperrors.NewValidationError("stage is required", map[string]any{"tahapan": "required"})
	}
	status, err := domain.ParseEntryStatus(input.StatusCode)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid status code", map[string]any{"status_ticket": input.StatusCode})
	}

	stage2 := ""
	switch status {
	case domain.EntryStatusObjection:
		stage2 = datedNote(input.EscalationDate, input.EscalationDesc)
	case domain.EntryStatusClosed:
		stage2 = input.FollowUpNote
	}

	var (
		entry  *domain.Entry
		thread *domain.Thread
	)
	err = s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		entry, thread, err = loadEntryInThread(ctx, repos, input.ThreadID, input.EntryID)
		if err != nil {
			return err
		}
		entry.Stage = input.Stage
		entry.Status = status
		entry.Stage2 = stage2
		if err := repos.Entries.Update(ctx, entry); err != nil {
			return err
		}
		return repos.History.Create(ctx, &domain.History{
			ThreadNumber: thread.Number,
			CreatedAt:    s.clock(),
			OrderNumber:  entry.OrderNo,
			Status:       status,
			Stage:        input.Stage,
			CreatedBy:    actor.UserID,
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, actor, thread, events.EventStageAdvanced, events.StageAdvancedPayload{
		EntryID: entry.ID,
		Stage:   entry.Stage,
		Stage2:  entry.Stage2,
		Status:  entry.Status,
	})
	return entry, nil
}

// QCVerdictInput is a reviewer's verdict on one entry.
type QCVerdictInput struct {
	Description string
	Files       []string
	Label       domain.LabelCase
}

// RecordQCVerdict stores QC feedback on an entry and labels its thread. Only
// the reviewer the thread is assigned to may record a verdict.
func (s *LifecycleService) RecordQCVerdict(ctx context.Context, actor domain.Actor, entryID int64, input QCVerdictInput) (*domain.Thread, error) {
	if err := requireRole(actor, domain.RoleQC); err != nil {
		return nil, err
	}
	if !input.Label.IsVerdict() {
		return nil, apperrors.NewValidationError("invalid verdict", map[string]any{"status_case": string(input.Label)})
	}

	var thread *domain.Thread
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		entry, err := repos.Entries.GetByID(ctx, entryID)
		if err != nil {
			return notFound(err, "entry", entryID)
		}
		thread, err = repos.Threads.GetByID(ctx, entry.ThreadID)
		if err != nil {
			return err
		}
		if !assignedTo(thread, actor) {
			return apperrors.NewNotFound("entry", map[string]any{"id": entryID})
		}

		entry.QCDescription = input.Description
		entry.QCFiles = JoinFileList(input.Files)
		if err := repos.Entries.Update(ctx, entry); err != nil {
			return err
		}
		if err := repos.Threads.SetLabel(ctx, thread.ID, input.Label); err != nil {
			return err
		}
		thread.LabelCase = input.Label
		return repos.History.Create(ctx, &domain.History{
			ThreadNumber: thread.Number,
			CreatedAt:    s.clock(),
			Status:       entry.Status,
			Stage:        domain.StageQCProcessing,
			CreatedBy:    actor.UserID,
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, actor, thread, events.EventQCVerdictRecorded, events.QCVerdictPayload{EntryID: entryID, Label: input.Label})
	return thread, nil
}

// ApplyQCFeedback writes the reviewer's description and files onto every
// entry of a thread assigned to the caller.
func (s *LifecycleService) ApplyQCFeedback(ctx context.Context, actor domain.Actor, threadID int64, description string, files []string) (int64, error) {
	if err := requireRole(actor, domain.RoleQC); err != nil {
		return 0, err
	}
	var updated int64
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		thread, err := repos.Threads.GetByID(ctx, threadID)
		if err != nil {
			return notFound(err, "thread", threadID)
		}
		if !assignedTo(thread, actor) {
			return apperrors.NewNotFound("thread", map[string]any{"id": threadID})
		}
		updated, err = repos.Entries.SetQCFeedbackByThread(ctx, threadID, description, JoinFileList(files))
		return err
	})
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return updated, nil
}

// RejectQCVerdict sends a thread judged not valid back to the QC queue.
func (s *LifecycleService) RejectQCVerdict(ctx context.Context, actor domain.Actor, threadID int64) (*domain.Thread, error) {
	if err := requireRole(actor, domain.RoleStaff); err != nil {
		return nil, err
	}
	var thread *domain.Thread
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		thread, err = repos.Threads.GetByID(ctx, threadID)
		if err != nil {
			return notFound(err, "thread", threadID)
		}
		if thread.LabelCase != domain.LabelCaseNotValid {
			return apperrors.NewConflict("only a thread labelled not valid can be returned to QC",
				map[string]any{"label_case": string(thread.LabelCase)})
		}
		if err := repos.Threads.SetLabel(ctx, threadID, domain.LabelCaseReopen); err != nil {
			return err
		}
		thread.LabelCase = domain.LabelCaseReopen
		return nil
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, actor, thread, events.EventQCVerdictRejected, events.QCVerdictPayload{Label: thread.LabelCase})
	return thread, nil
}

// CloseThread closes a thread and every one of its entries atomically.
func (s *LifecycleService) CloseThread(ctx context.Context, actor domain.Actor, threadID int64) (*domain.Thread, error) {
	closedAt := s.clock()
	return s.transitionThread(ctx, actor, threadID, domain.ThreadStatusClosed, &closedAt,
		domain.EntryStatusClosed, events.EventThreadClosed)
}

// ReopenThread reopens a thread and marks every entry reopened atomically.
func (s *LifecycleService) ReopenThread(ctx context.Context, actor domain.Actor, threadID int64) (*domain.Thread, error) {
	return s.transitionThread(ctx, actor, threadID, domain.ThreadStatusReopened, nil,
		domain.EntryStatusReopened, events.EventThreadReopened)
}

func (s *LifecycleService) transitionThread(
	ctx context.Context,
	actor domain.Actor,
	threadID int64,
	status domain.ThreadStatus,
	closedAt *time.Time,
	entryStatus domain.EntryStatus,
	eventType events.EventType,
) (*domain.Thread, error) {
	if err := requireRole(actor, domain.RoleStaff); err != nil {
		return nil, err
	}
	var (
		thread  *domain.Thread
		updated int64
	)
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		thread, err = repos.Threads.GetByID(ctx, threadID)
		if err != nil {
			return notFound(err, "thread", threadID)
		}
		if err := repos.Threads.SetStatus(ctx, threadID, status, closedAt); err != nil {
			return err
		}
		updated, err = repos.Entries.SetStatusByThread(ctx, threadID, entryStatus)
		return err
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	thread.Status = status
	if closedAt != nil {
		thread.ClosedAt = closedAt
	}
	s.logger.Info("thread transitioned",
		zap.String("thread_number", thread.Number),
		zap.String("status", string(status)),
		zap.Int64("entries", updated))
	s.publish(ctx, actor, thread, eventType, events.ThreadStatusPayload{
		ThreadStatus: status,
		EntryStatus:  entryStatus,
		Entries:      updated,
	})
	return thread, nil
}

// directStatusCodes are the codes staff may set on a whole thread directly.
var directStatusCodes = map[int]domain.EntryStatus{
	2: domain.EntryStatusExtension,
	3: domain.EntryStatusObjection,
	5: domain.EntryStatusReopened,
}

// UpdateThreadStatus bulk-sets the status of every entry in a thread. Only
// extension (2), objection (3) and reopened (5) are accepted. No History row
// is written.
func (s *LifecycleService) UpdateThreadStatus(ctx context.Context, actor domain.Actor, threadID int64, code int) (int64, error) {
	if err := requireRole(actor, domain.RoleStaff); err != nil {
		return 0, err
	}
	status, ok := directStatusCodes[code]
	if !ok {
		return 0, apperrors.NewValidationError("invalid status code", map[string]any{"status": code, "allowed": []int{2, 3, 5}})
	}

	var (
		thread  *domain.Thread
		updated int64
	)
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		thread, err = repos.Threads.GetByID(ctx, threadID)
		if err != nil {
			return notFound(err, "thread", threadID)
		}
		updated, err = repos.Entries.SetStatusByThread(ctx, threadID, status)
		return err
	})
	if err != nil {
		return 0, apperrors.MapError(err)
	}

	s.publish(ctx, actor, thread, events.EventThreadStatusChanged, events.ThreadStatusPayload{
		EntryStatus: status,
		Entries:     updated,
	})
	return updated, nil
}

// ComplaintDetailsInput rewrites the complaint description of a thread.
type ComplaintDetailsInput struct {
	ComplaintType   string
	ComplaintDetail string
	Chronology      string
	ChatEvidence    []string
}

// UpdateComplaintDetails applies the complaint fields to every entry of a
// thread.
func (s *LifecycleService) UpdateComplaintDetails(ctx context.Context, actor domain.Actor, threadID int64, input ComplaintDetailsInput) (int64, error) {
	if err := requireRole(actor, domain.RoleStaff); err != nil {
		return 0, err
	}
	var updated int64
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		if _, err := repos.Threads.GetByID(ctx, threadID); err != nil {
			return notFound(err, "thread", threadID)
		}
		var err error
		updated, err = repos.Entries.SetComplaintDetailsByThread(ctx, threadID, repository.ComplaintDetails{
			ComplaintType:   input.ComplaintType,
			ComplaintDetail: input.ComplaintDetail,
			Chronology:      input.Chronology,
			ChatEvidence:    JoinFileList(input.ChatEvidence),
		})
		return err
	})
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return updated, nil
}

func (s *LifecycleService) clock() time.Time {
	return s.now().In(s.loc)
}

func (s *LifecycleService) parseDay(field, value string) (time.Time, error) {
	parsed, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), s.loc)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("invalid date", map[string]any{field: "must be a date formatted YYYY-MM-DD"})
	}
	return parsed, nil
}

func (s *LifecycleService) publish(ctx context.Context, actor domain.Actor, thread *domain.Thread, eventType events.EventType, payload any) {
	publishEvent(ctx, s.dispatcher, s.logger, s.clock(), actor, thread, eventType, payload)
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, at time.Time, actor domain.Actor, thread *domain.Thread, eventType events.EventType, payload any) {
	if dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: at,
		Payload:   payload,
	}
	if actor.UserID != 0 {
		userID := actor.UserID
		event.Actor = events.Actor{Role: actor.Role, UserID: &userID}
	}
	if thread != nil {
		event.ThreadID = thread.ID
		event.ThreadNumber = thread.Number
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

// deriveStage2 builds the secondary stage marker for the staff stage form.
func deriveStage2(stage, followUp, date, desc string) string {
	switch stage {
	case domain.StageFollowUp:
		return followUp
	case domain.StageQCEscalation:
		return datedNote(date, desc)
	}
	return ""
}

func datedNote(date, desc string) string {
	if date == "" || desc == "" {
		return ""
	}
	return date + " - " + desc
}

func loadEntryInThread(ctx context.Context, repos repository.Repositories, threadID, entryID int64) (*domain.Entry, *domain.Thread, error) {
	entry, err := repos.Entries.GetByID(ctx, entryID)
	if err != nil {
		return nil, nil, notFound(err, "entry", entryID)
	}
	if entry.ThreadID != threadID {
		return nil, nil, apperrors.NewNotFound("entry", map[string]any{"id": entryID, "thread_id": threadID})
	}
	thread, err := repos.Threads.GetByID(ctx, threadID)
	if err != nil {
		return nil, nil, notFound(err, "thread", threadID)
	}
	return entry, thread, nil
}

func ensureQCUser(ctx context.Context, repos repository.Repositories, userID int64) error {
	user, err := repos.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewValidationError("unknown QC reviewer", map[string]any{"id_qc": userID})
		}
		return err
	}
	if user.Role != domain.RoleQC {
		return apperrors.NewValidationError("user is not a QC reviewer", map[string]any{"id_qc": userID})
	}
	return nil
}

func assignedTo(thread *domain.Thread, actor domain.Actor) bool {
	return thread.QCAssigneeID != nil && *thread.QCAssigneeID == actor.UserID
}

func requireRole(actor domain.Actor, allowed ...domain.Role) error {
	for _, role := range allowed {
		if actor.Role == role {
			return nil
		}
	}
	return apperrors.NewForbidden("insufficient role")
}

// notFound turns a missing row into a NOT_FOUND error naming the resource.
func notFound(err error, resource string, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return err
}

// JoinFileList joins filenames into the stored comma list, dropping blanks.
func JoinFileList(files []string) string {
	kept := make([]string, 0, len(files))
	for _, f := range files {
		if f = strings.TrimSpace(f); f != "" {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, ",")
}

// SplitFileList is the inverse of JoinFileList.
func SplitFileList(stored string) []string {
	if stored == "" {
		return []string{}
	}
	return strings.Split(stored, ",")
}
