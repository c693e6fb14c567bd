package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/complaintdesk/complaint-desk/internal/api/dto"
	"github.com/complaintdesk/complaint-desk/internal/domain"
	"github.com/complaintdesk/complaint-desk/internal/service"
)

// QCHandler exposes reviewer actions.
type QCHandler struct {
	lifecycle *service.LifecycleService
}

// NewQCHandler constructs handler.
func NewQCHandler(lifecycle *service.LifecycleService) *QCHandler {
	return &QCHandler{lifecycle: lifecycle}
}

// RecordVerdict POST /qc/entries/:id/verdict.
func (h *QCHandler) RecordVerdict(c *fiber.Ctx) error {
	actor, entryID, err := entryParams(c)
	if err != nil {
		return err
	}
	var req dto.QCVerdictRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	thread, err := h.lifecycle.RecordQCVerdict(c.UserContext(), actor, entryID, service.QCVerdictInput{
		Description: req.Description,
		Files:       req.Files,
		Label:       domain.LabelCase(req.Label),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": threadResponse(thread)})
}

// ApplyFeedback PUT /qc/threads/:id/feedback.
func (h *QCHandler) ApplyFeedback(c *fiber.Ctx) error {
	actor, threadID, err := threadParams(c)
	if err != nil {
		return err
	}
	var req dto.QCFeedbackRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	updated, err := h.lifecycle.ApplyQCFeedback(c.UserContext(), actor, threadID, req.Description, req.Files)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"updated": updated}})
}
