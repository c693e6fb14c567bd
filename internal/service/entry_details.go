package service

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/complaintdesk/complaint-desk/internal/domain"
	"github.com/complaintdesk/complaint-desk/internal/repository"
	apperrors "github.com/complaintdesk/complaint-desk/pkg/util/errorutil"
)

// FileStore deletes stored entry documents by name.
type FileStore interface {
	Remove(ctx context.Context, name string) error
}

// ContactInput is an alternate contact for the customer of an entry.
type ContactInput struct {
	FullName string
	NIK      string
	Phone    string
	Phone2   string
	Email    string
}

// AddContact appends a contact to an entry. Name, NIK and phone are required.
func (s *LifecycleService) AddContact(ctx context.Context, actor domain.Actor, entryID int64, input ContactInput) (*domain.Contact, error) {
	if err := requireRole(actor, domain.RoleStaff); err != nil {
		return nil, err
	}
	missing := map[string]any{}
	if strings.TrimSpace(input.FullName) == "" {
		missing["nama_lengkap"] = "required"
	}
	if strings.TrimSpace(input.NIK) == "" {
		missing["nik"] = "required"
	}
	if strings.TrimSpace(input.Phone) == "" {
		missing["no_telepon"] = "required"
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("name, NIK and phone are required", missing)
	}

	repos := s.store.Repos()
	if _, err := repos.Entries.GetByID(ctx, entryID); err != nil {
		return nil, apperrors.MapError(notFound(err, "entry", entryID))
	}
	contact := &domain.Contact{
		EntryID:  entryID,
		FullName: input.FullName,
		NIK:      input.NIK,
		Phone:    input.Phone,
		Phone2:   input.Phone2,
		Email:    input.Email,
	}
	if err := repos.Contacts.Create(ctx, contact); err != nil {
		return nil, apperrors.MapError(err)
	}
	return contact, nil
}

// AddNote attaches free text to a thread and optionally to one of its
// entries. QC callers may only annotate threads assigned to them.
func (s *LifecycleService) AddNote(ctx context.Context, actor domain.Actor, threadID int64, entryID *int64, body string) (*domain.Note, error) {
	if err := requireRole(actor, domain.RoleStaff, domain.RoleQC, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if strings.TrimSpace(body) == "" {
		return nil, apperrors.NewValidationError("note body is required", map[string]any{"catatan": "required"})
	}

	repos := s.store.Repos()
	thread, err := repos.Threads.GetByID(ctx, threadID)
	if err != nil {
		return nil, apperrors.MapError(notFound(err, "thread", threadID))
	}
	if actor.Role == domain.RoleQC && !assignedTo(thread, actor) {
		return nil, apperrors.NewNotFound("thread", map[string]any{"id": threadID})
	}
	if entryID != nil {
		entry, err := repos.Entries.GetByID(ctx, *entryID)
		if err != nil {
			return nil, apperrors.MapError(notFound(err, "entry", *entryID))
		}
		if entry.ThreadID != threadID {
			return nil, apperrors.NewNotFound("entry", map[string]any{"id": *entryID, "thread_id": threadID})
		}
	}

	note := &domain.Note{
		ThreadID:  threadID,
		EntryID:   entryID,
		UserID:    actor.UserID,
		Body:      body,
		CreatedAt: s.clock(),
	}
	if err := repos.Notes.Create(ctx, note); err != nil {
		return nil, apperrors.MapError(err)
	}
	return note, nil
}

// UpdateEntryNote sets the entry note and stamps today's date on it.
func (s *LifecycleService) UpdateEntryNote(ctx context.Context, actor domain.Actor, entryID int64, note string) (*domain.Entry, error) {
	if strings.TrimSpace(note) == "" {
		return nil, apperrors.NewValidationError("note is required", map[string]any{"catatan": "required"})
	}
	return s.mutateEntry(ctx, actor, entryID, func(entry *domain.Entry) error {
		entry.Note = note
		entry.NoteDate = s.clock().Format(DateLayout)
		return nil
	})
}

// MarkCaseValid confirms the case of an entry on the staff side.
func (s *LifecycleService) MarkCaseValid(ctx context.Context, actor domain.Actor, entryID int64) (*domain.Entry, error) {
	return s.mutateEntry(ctx, actor, entryID, func(entry *domain.Entry) error {
		entry.CaseStatus = domain.CaseStatusValid
		return nil
	})
}

// AttachDocuments appends filenames to the document list of an entry. Names
// already on the list are skipped.
func (s *LifecycleService) AttachDocuments(ctx context.Context, actor domain.Actor, entryID int64, names []string) (*domain.Entry, error) {
	if len(names) == 0 {
		return nil, apperrors.NewValidationError("no documents given", map[string]any{"files": "required"})
	}
	return s.mutateEntry(ctx, actor, entryID, func(entry *domain.Entry) error {
		docs := SplitFileList(entry.Documents)
		for _, name := range names {
			name = strings.TrimSpace(name)
			if name == "" || slices.Contains(docs, name) {
				continue
			}
			docs = append(docs, name)
		}
		entry.Documents = JoinFileList(docs)
		return nil
	})
}

// RemoveDocument drops one filename from the document list and deletes the
// stored file after the update commits.
func (s *LifecycleService) RemoveDocument(ctx context.Context, actor domain.Actor, entryID int64, name string) (*domain.Entry, error) {
	entry, err := s.mutateEntry(ctx, actor, entryID, func(entry *domain.Entry) error {
		docs := SplitFileList(entry.Documents)
		idx := slices.Index(docs, name)
		if name == "" || idx < 0 {
			return apperrors.NewNotFound("document", map[string]any{"entry_id": entryID, "filename": name})
		}
		entry.Documents = JoinFileList(slices.Delete(docs, idx, idx+1))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.files != nil {
		if err := s.files.Remove(ctx, name); err != nil {
			s.logger.Warn("document file not removed", zap.Int64("entry_id", entryID), zap.String("filename", name), zap.Error(err))
		}
	}
	return entry, nil
}

// mutateEntry loads, changes and saves a single entry as a staff action.
func (s *LifecycleService) mutateEntry(ctx context.Context, actor domain.Actor, entryID int64, change func(*domain.Entry) error) (*domain.Entry, error) {
	if err := requireRole(actor, domain.RoleStaff); err != nil {
		return nil, err
	}
	var entry *domain.Entry
	err := s.store.WithinTx(ctx, func(repos repository.Repositories) error {
		var err error
		entry, err = repos.Entries.GetByID(ctx, entryID)
		if err != nil {
			return notFound(err, "entry", entryID)
		}
		if err := change(entry); err != nil {
			return err
		}
		return repos.Entries.Update(ctx, entry)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entry, nil
}
