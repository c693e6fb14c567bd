package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/complaintdesk/complaint-desk/internal/api/dto"
	"github.com/complaintdesk/complaint-desk/internal/domain"
	"github.com/complaintdesk/complaint-desk/internal/service"
)

// StaffTicketsHandler exposes the staff side of the ticket lifecycle.
type StaffTicketsHandler struct {
	lifecycle *service.LifecycleService
}

// NewStaffTicketsHandler constructs handler.
func NewStaffTicketsHandler(lifecycle *service.LifecycleService) *StaffTicketsHandler {
	return &StaffTicketsHandler{lifecycle: lifecycle}
}

// Submit POST /threads.
func (h *StaffTicketsHandler) Submit(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.SubmitComplaintRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	thread, entry, err := h.lifecycle.SubmitComplaint(c.UserContext(), actor, service.SubmitInput{
		Channel:         req.Channel,
		Category:        req.Category,
		ComplaintType:   req.ComplaintType,
		ComplaintDetail: req.ComplaintDetail,
		ReportedOn:      req.ReportedOn,
		CustomerName:    req.CustomerName,
		Email:           req.Email,
		PrimaryPhone:    req.PrimaryPhone,
		ContactPhone:    req.ContactPhone,
		NIK:             req.NIK,
		AgencyName:      req.AgencyName,
		CollectorName:   req.CollectorName,
		BucketName:      req.BucketName,
		OrderNo:         req.OrderNo,
		Description:     req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"thread": threadResponse(thread),
		"entry":  entryResponse(entry),
	}})
}

// AddFollowUp POST /entries.
func (h *StaffTicketsHandler) AddFollowUp(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.FollowUpRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	entry, err := h.lifecycle.AddFollowUpEntry(c.UserContext(), actor, service.FollowUpInput{
		SourceEntryID: req.SourceEntryID,
		OrderNo:       req.OrderNo,
		AgencyName:    req.AgencyName,
		CollectorName: req.CollectorName,
		BucketName:    req.BucketName,
		Description:   req.Description,
		ReportedOn:    req.ReportedOn,
		Reopen:        req.Reopen,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": entryResponse(entry)})
}

// AdvanceStage PUT /threads/:id/entries/:entryId/stage.
func (h *StaffTicketsHandler) AdvanceStage(c *fiber.Ctx) error {
	actor, threadID, entryID, err := threadEntryParams(c)
	if err != nil {
		return err
	}
	var req dto.StageRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	entry, err := h.lifecycle.AdvanceStage(c.UserContext(), actor, service.StageInput{
		ThreadID:       threadID,
		EntryID:        entryID,
		Stage:          req.Stage,
		FollowUpNote:   req.FollowUpNote,
		EscalationDate: req.EscalationDate,
		EscalationDesc: req.EscalationDesc,
		QCUserID:       req.QCUserID,
		AgencyName:     req.AgencyName,
		BucketName:     req.BucketName,
		CollectorName:  req.CollectorName,
		CustomerName:   req.CustomerName,
		NIK:            req.NIK,
		PrimaryPhone:   req.PrimaryPhone,
		ContactPhone:   req.ContactPhone,
		Email:          req.Email,
		Description:    req.Description,
		OrderNo:        req.OrderNo,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entryResponse(entry)})
}

// AdvanceReopenStage PUT /threads/:id/entries/:entryId/reopen-stage.
func (h *StaffTicketsHandler) AdvanceReopenStage(c *fiber.Ctx) error {
	actor, threadID, entryID, err := threadEntryParams(c)
	if err != nil {
		return err
	}
	var req dto.ReopenStageRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	entry, err := h.lifecycle.AdvanceReopenStage(c.UserContext(), actor, service.ReopenStageInput{
		ThreadID:       threadID,
		EntryID:        entryID,
		Stage:          req.Stage,
		StatusCode:     req.Status,
		FollowUpNote:   req.FollowUpNote,
		EscalationDate: req.EscalationDate,
		EscalationDesc: req.EscalationDesc,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entryResponse(entry)})
}

// RejectQCVerdict POST /threads/:id/qc-reject.
func (h *StaffTicketsHandler) RejectQCVerdict(c *fiber.Ctx) error {
	return h.threadTransition(c, h.lifecycle.RejectQCVerdict)
}

// Close POST /threads/:id/close.
func (h *StaffTicketsHandler) Close(c *fiber.Ctx) error {
	return h.threadTransition(c, h.lifecycle.CloseThread)
}

// Reopen POST /threads/:id/reopen.
func (h *StaffTicketsHandler) Reopen(c *fiber.Ctx) error {
	return h.threadTransition(c, h.lifecycle.ReopenThread)
}

// UpdateStatus PUT /threads/:id/status.
func (h *StaffTicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	actor, threadID, err := threadParams(c)
	if err != nil {
		return err
	}
	var req dto.StatusUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	updated, err := h.lifecycle.UpdateThreadStatus(c.UserContext(), actor, threadID, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"updated": updated}})
}

// UpdateComplaintDetails PUT /threads/:id/complaint.
func (h *StaffTicketsHandler) UpdateComplaintDetails(c *fiber.Ctx) error {
	actor, threadID, err := threadParams(c)
	if err != nil {
		return err
	}
	var req dto.ComplaintDetailsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	updated, err := h.lifecycle.UpdateComplaintDetails(c.UserContext(), actor, threadID, service.ComplaintDetailsInput{
		ComplaintType:   req.ComplaintType,
		ComplaintDetail: req.ComplaintDetail,
		Chronology:      req.Chronology,
		ChatEvidence:    req.ChatEvidence,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"updated": updated}})
}

// AddNote POST /threads/:id/notes.
func (h *StaffTicketsHandler) AddNote(c *fiber.Ctx) error {
	actor, threadID, err := threadParams(c)
	if err != nil {
		return err
	}
	var req dto.NoteRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	note, err := h.lifecycle.AddNote(c.UserContext(), actor, threadID, req.EntryID, req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": noteResponse(note)})
}

// AddContact POST /entries/:id/contacts.
func (h *StaffTicketsHandler) AddContact(c *fiber.Ctx) error {
	actor, entryID, err := entryParams(c)
	if err != nil {
		return err
	}
	var req dto.ContactRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	contact, err := h.lifecycle.AddContact(c.UserContext(), actor, entryID, service.ContactInput{
		FullName: req.FullName,
		NIK:      req.NIK,
		Phone:    req.Phone,
		Phone2:   req.Phone2,
		Email:    req.Email,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": contactResponse(contact)})
}

// UpdateEntryNote PUT /entries/:id/note.
func (h *StaffTicketsHandler) UpdateEntryNote(c *fiber.Ctx) error {
	actor, entryID, err := entryParams(c)
	if err != nil {
		return err
	}
	var req dto.EntryNoteRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	entry, err := h.lifecycle.UpdateEntryNote(c.UserContext(), actor, entryID, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entryResponse(entry)})
}

// MarkCaseValid POST /entries/:id/case-valid.
func (h *StaffTicketsHandler) MarkCaseValid(c *fiber.Ctx) error {
	actor, entryID, err := entryParams(c)
	if err != nil {
		return err
	}
	entry, err := h.lifecycle.MarkCaseValid(c.UserContext(), actor, entryID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entryResponse(entry)})
}

// AttachDocuments POST /entries/:id/documents.
func (h *StaffTicketsHandler) AttachDocuments(c *fiber.Ctx) error {
	actor, entryID, err := entryParams(c)
	if err != nil {
		return err
	}
	var req dto.DocumentsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	entry, err := h.lifecycle.AttachDocuments(c.UserContext(), actor, entryID, req.Files)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entryResponse(entry)})
}

// RemoveDocument DELETE /entries/:id/documents?filename=.
func (h *StaffTicketsHandler) RemoveDocument(c *fiber.Ctx) error {
	actor, entryID, err := entryParams(c)
	if err != nil {
		return err
	}
	entry, err := h.lifecycle.RemoveDocument(c.UserContext(), actor, entryID, c.Query("filename"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": entryResponse(entry)})
}

func (h *StaffTicketsHandler) threadTransition(c *fiber.Ctx, transition func(ctx context.Context, actor domain.Actor, threadID int64) (*domain.Thread, error)) error {
	actor, threadID, err := threadParams(c)
	if err != nil {
		return err
	}
	thread, err := transition(c.UserContext(), actor, threadID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": threadResponse(thread)})
}

func threadParams(c *fiber.Ctx) (domain.Actor, int64, error) {
	actor, err := currentActor(c)
	if err != nil {
		return domain.Actor{}, 0, err
	}
	id, err := paramID(c, "id")
	return actor, id, err
}

func entryParams(c *fiber.Ctx) (domain.Actor, int64, error) {
	return threadParams(c)
}

func threadEntryParams(c *fiber.Ctx) (domain.Actor, int64, int64, error) {
	actor, threadID, err := threadParams(c)
	if err != nil {
		return domain.Actor{}, 0, 0, err
	}
	entryID, err := paramID(c, "entryId")
	return actor, threadID, entryID, err
}
