package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/complaintdesk/complaint-desk/internal/api/dto"
	"github.com/complaintdesk/complaint-desk/internal/domain"
	"github.com/complaintdesk/complaint-desk/internal/service"
	apperrors "github.com/complaintdesk/complaint-desk/pkg/util/errorutil"
)

// TicketsHandler serves list views and the read side of threads.
type TicketsHandler struct {
	lister  *service.Lister
	threads *service.ThreadService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(lister *service.Lister, threads *service.ThreadService) *TicketsHandler {
	return &TicketsHandler{lister: lister, threads: threads}
}

// ListViews handles GET /api/views.
func (h *TicketsHandler) ListViews(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": service.Views()})
}

// ListView handles GET /api/views/:view.
func (h *TicketsHandler) ListView(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	params, err := parseViewParams(c)
	if err != nil {
		return err
	}
	result, err := h.lister.ListView(c.UserContext(), actor, service.View(c.Params("view")), params)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": listResponse(result)})
}

// GetThread handles GET /threads/:id.
func (h *TicketsHandler) GetThread(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	detail, err := h.threads.GetThreadDetail(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": threadDetailResponse(detail)})
}

// ListHistory handles GET /history.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	page, err := h.threads.ListHistory(c.UserContext(), c.QueryInt("page", 1))
	if err != nil {
		return err
	}
	items := make([]dto.HistoryResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, historyResponse(&page.Items[i]))
	}
	return c.JSON(fiber.Map{"data": dto.HistoryListResponse{Items: items, Meta: pageMeta(page)}})
}

// ListStages handles GET /stages.
func (h *TicketsHandler) ListStages(c *fiber.Ctx) error {
	stages, err := h.threads.ListStages(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stages})
}

// ListSLAWarnings handles GET /sla-warnings.
func (h *TicketsHandler) ListSLAWarnings(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	warnings, err := h.threads.ListSLAWarnings(c.UserContext(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.RepresentativeResponse, 0, len(warnings))
	for i := range warnings {
		w := &warnings[i]
		items = append(items, dto.RepresentativeResponse{
			Thread:     threadResponse(&w.Thread),
			Entry:      entryResponse(&w.Entry),
			EntryCount: w.EntryCount,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func parseViewParams(c *fiber.Ctx) (service.ViewParams, error) {
	filters := service.EntryFilter{
		ComplaintType: strings.TrimSpace(c.Query("complaint_type")),
		Channel:       strings.TrimSpace(c.Query("channel")),
		Stage:         strings.TrimSpace(c.Query("stage")),
		ReportedOn:    strings.TrimSpace(c.Query("date")),
		CreatedOn:     strings.TrimSpace(c.Query("handled_date")),
		ClosedOn:      strings.TrimSpace(c.Query("closed_date")),
	}
	if code := strings.TrimSpace(c.Query("status")); code != "" {
		status, err := domain.ParseEntryStatus(code)
		if err != nil {
			return service.ViewParams{}, apperrors.NewValidationError("invalid status filter", map[string]any{"status": code})
		}
		filters.Status = &status
	}
	return service.ViewParams{
		Search:  c.Query("q"),
		Filters: filters,
		Page:    c.QueryInt("page", 1),
	}, nil
}
