package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/complaintdesk/complaint-desk/internal/api/dto"
	"github.com/complaintdesk/complaint-desk/internal/auth"
	"github.com/complaintdesk/complaint-desk/internal/domain"
	"github.com/complaintdesk/complaint-desk/internal/service"
	apperrors "github.com/complaintdesk/complaint-desk/pkg/util/errorutil"
	"github.com/complaintdesk/complaint-desk/pkg/util/pagination"
)

func currentActor(c *fiber.Ctx) (domain.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return domain.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return principal.Actor(), nil
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid id", map[string]any{name: c.Params(name)})
	}
	return id, nil
}

// parseBody decodes the JSON body into req and runs tag validation.
func parseBody(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return dto.Validate(req)
}

func entryResponse(e *domain.Entry) dto.EntryResponse {
	return dto.EntryResponse{
		ID:                   e.ID,
		ThreadID:             e.ThreadID,
		Channel:              e.Channel,
		Category:             e.Category,
		ComplaintType:        e.ComplaintType,
		ComplaintDetail:      e.ComplaintDetail,
		ReportedAt:           e.ReportedAt,
		CustomerName:         e.CustomerName,
		Email:                e.Email,
		PrimaryPhone:         e.PrimaryPhone,
		ContactPhone:         e.ContactPhone,
		NIK:                  e.NIK,
		OrderNo:              e.OrderNo,
		Description:          e.Description,
		InputBy:              e.InputBy,
		Status:               e.Status,
		StatusName:           e.Status.String(),
		SLA:                  e.SLA,
		FollowUpResult:       e.FollowUpResult,
		FeedbackResult:       e.FeedbackResult,
		CustomerConfirmation: e.CustomerConfirmation,
		Notes:                e.Notes,
		CollectorName:        e.CollectorName,
		AgencyName:           e.AgencyName,
		BucketName:           e.BucketName,
		Punishment:           e.Punishment,
		PunishmentResult:     e.PunishmentResult,
		ChatEvidence:         service.SplitFileList(e.ChatEvidence),
		Stage:                e.Stage,
		Stage2:               e.Stage2,
		CreatedTime:          e.CreatedTime,
		Chronology:           e.Chronology,
		CaseStatus:           e.CaseStatus,
		Documents:            service.SplitFileList(e.Documents),
		Note:                 e.Note,
		NoteDate:             e.NoteDate,
		QCDescription:        e.QCDescription,
		QCFiles:              service.SplitFileList(e.QCFiles),
	}
}

func threadResponse(t *domain.Thread) dto.ThreadResponse {
	return dto.ThreadResponse{
		ID:           t.ID,
		Number:       t.Number,
		Status:       string(t.Status),
		QCAssigneeID: t.QCAssigneeID,
		LabelCase:    string(t.LabelCase),
		ChangeDate:   t.ChangeDate,
		CreatedAt:    t.CreatedAt,
		ClosedAt:     t.ClosedAt,
	}
}

func pageMeta[T any](p pagination.Page[T]) dto.PageMeta {
	return dto.PageMeta{
		Page:    p.Page,
		PerPage: p.PerPage,
		Total:   p.Total,
		Pages:   p.Pages,
		HasPrev: p.HasPrev,
		HasNext: p.HasNext,
		PrevNum: p.PrevNum,
		NextNum: p.NextNum,
	}
}

func listResponse(result *service.ListResult) dto.ListResponse {
	items := make([]dto.RepresentativeResponse, 0, len(result.Items))
	for i := range result.Items {
		rep := &result.Items[i]
		items = append(items, dto.RepresentativeResponse{
			Thread:     threadResponse(&rep.Thread),
			Entry:      entryResponse(&rep.Entry),
			EntryCount: result.EntryCounts[rep.Thread.ID],
		})
	}
	return dto.ListResponse{Items: items, Meta: pageMeta(result.Page)}
}

func contactResponse(c *domain.Contact) dto.ContactResponse {
	return dto.ContactResponse{
		ID:       c.ID,
		EntryID:  c.EntryID,
		FullName: c.FullName,
		NIK:      c.NIK,
		Phone:    c.Phone,
		Phone2:   c.Phone2,
		Email:    c.Email,
	}
}

func noteResponse(n *domain.Note) dto.NoteResponse {
	return dto.NoteResponse{
		ID:        n.ID,
		ThreadID:  n.ThreadID,
		EntryID:   n.EntryID,
		UserID:    n.UserID,
		Body:      n.Body,
		CreatedAt: n.CreatedAt,
	}
}

func threadDetailResponse(detail *service.ThreadDetail) dto.ThreadDetailResponse {
	resp := dto.ThreadDetailResponse{
		Thread:   threadResponse(&detail.Thread),
		Entries:  make([]dto.EntryResponse, 0, len(detail.Entries)),
		Notes:    make([]dto.NoteResponse, 0, len(detail.Notes)),
		Contacts: make(map[int64][]dto.ContactResponse, len(detail.Contacts)),
	}
	for i := range detail.Entries {
		resp.Entries = append(resp.Entries, entryResponse(&detail.Entries[i]))
	}
	for i := range detail.Notes {
		resp.Notes = append(resp.Notes, noteResponse(&detail.Notes[i]))
	}
	for entryID, contacts := range detail.Contacts {
		out := make([]dto.ContactResponse, 0, len(contacts))
		for i := range contacts {
			out = append(out, contactResponse(&contacts[i]))
		}
		resp.Contacts[entryID] = out
	}
	return resp
}

func historyResponse(h *domain.History) dto.HistoryResponse {
	status := ""
	if h.Status.Valid() {
		status = h.Status.Code()
	}
	return dto.HistoryResponse{
		ID:           h.ID,
		ThreadNumber: h.ThreadNumber,
		CreatedAt:    h.CreatedAt,
		OrderNumber:  h.OrderNumber,
		Status:       status,
		Stage:        h.Stage,
		AgencyName:   h.AgencyName,
		Note:         h.Note,
		CreatedBy:    h.CreatedBy,
	}
}

func userResponse(u *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Phone:    u.Phone,
		Role:     string(u.Role),
	}
}
