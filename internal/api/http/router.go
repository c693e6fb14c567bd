package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/complaintdesk/complaint-desk/internal/api/http/handlers"
	"github.com/complaintdesk/complaint-desk/internal/auth"
	"github.com/complaintdesk/complaint-desk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	StaffTickets   *handlers.StaffTicketsHandler
	QC             *handlers.QCHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	app.Post("/auth/login", cfg.Users.Login)

	api := app.Group("/api", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	api.Get("/me", cfg.Users.Me)
	api.Get("/views", cfg.Tickets.ListViews)
	api.Get("/views/:view", cfg.Tickets.ListView)
	api.Get("/threads/:id", cfg.Tickets.GetThread)
	api.Post("/threads/:id/notes", cfg.StaffTickets.AddNote)
	api.Get("/stages", cfg.Tickets.ListStages)
	api.Get("/sla-warnings", cfg.Tickets.ListSLAWarnings)

	staff := auth.RequireRole(domain.RoleStaff)
	api.Get("/history", staff, cfg.Tickets.ListHistory)
	api.Get("/qc-users", staff, cfg.Users.ListQCUsers)
	api.Post("/threads", staff, cfg.StaffTickets.Submit)
	api.Post("/threads/:id/close", staff, cfg.StaffTickets.Close)
	api.Post("/threads/:id/reopen", staff, cfg.StaffTickets.Reopen)
	api.Post("/threads/:id/qc-reject", staff, cfg.StaffTickets.RejectQCVerdict)
	api.Put("/threads/:id/status", staff, cfg.StaffTickets.UpdateStatus)
	api.Put("/threads/:id/complaint", staff, cfg.StaffTickets.UpdateComplaintDetails)
	api.Put("/threads/:id/entries/:entryId/stage", staff, cfg.StaffTickets.AdvanceStage)
	api.Put("/threads/:id/entries/:entryId/reopen-stage", staff, cfg.StaffTickets.AdvanceReopenStage)
	api.Post("/entries", staff, cfg.StaffTickets.AddFollowUp)
	api.Post("/entries/:id/contacts", staff, cfg.StaffTickets.AddContact)
	api.Put("/entries/:id/note", staff, cfg.StaffTickets.UpdateEntryNote)
	api.Post("/entries/:id/case-valid", staff, cfg.StaffTickets.MarkCaseValid)
	api.Post("/entries/:id/documents", staff, cfg.StaffTickets.AttachDocuments)
	api.Delete("/entries/:id/documents", staff, cfg.StaffTickets.RemoveDocument)

	qc := api.Group("/qc", auth.RequireRole(domain.RoleQC))
	qc.Post("/entries/:id/verdict", cfg.QC.RecordVerdict)
	qc.Put("/threads/:id/feedback", cfg.QC.ApplyFeedback)

	admin := api.Group("/admin", auth.RequireRole(domain.RoleAdmin))
	admin.Get("/users", cfg.Users.ListUsers)
	admin.Post("/users", cfg.Users.CreateUser)
	admin.Delete("/users/:id", cfg.Users.DeleteUser)
}
