package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/complaintdesk/complaint-desk/internal/api/http"
	"github.com/complaintdesk/complaint-desk/internal/api/http/handlers"
	"github.com/complaintdesk/complaint-desk/internal/auth"
	"github.com/complaintdesk/complaint-desk/internal/persistence"
	"github.com/complaintdesk/complaint-desk/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the maintenance scheduler",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	logger := a.logger

	if a.cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, a.pg.PoolHandle(), logger); err != nil {
			return err
		}
	}

	repos := a.store.Repos()
	authService := service.NewAuthService(*a.cfg, repos.Users)
	userService := service.NewUserService(*a.cfg, repos.Users)
	threadService := service.NewThreadService(a.store)
	lister := service.NewLister(service.ListerDependencies{
		Threads:  repos.Threads,
		Entries:  repos.Entries,
		Location: a.loc,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), repos.Users)

	app := fiber.New(fiber.Config{AppName: a.cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, a.metrics, a.cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(a.cfg.App.Name, a.cfg.App.Version, a.pg, a.redis, a.metrics),
		Users:          handlers.NewUsersHandler(authService, userService),
		Tickets:        handlers.NewTicketsHandler(lister, threadService),
		StaffTickets:   handlers.NewStaffTicketsHandler(a.lifecycle),
		QC:             handlers.NewQCHandler(a.lifecycle),
		AuthMiddleware: authMiddleware,
	})

	if a.cfg.Scheduler.Enabled {
		scheduler, err := a.scheduler()
		if err != nil {
			return err
		}
		scheduler.Start()
		defer func() {
			select {
			case <-scheduler.Stop().Done():
			case <-time.After(30 * time.Second):
				logger.Warn("scheduler jobs still running at shutdown")
			}
		}()
	}

	go func() {
		if err := app.Listen(a.cfg.App.Addr()); err != nil {
			logger.Error("fiber listen", zap.Error(err))
			cancel()
		}
	}()

	waitForShutdown(ctx, logger)

	return app.ShutdownWithTimeout(10 * time.Second)
}

func waitForShutdown(ctx context.Context, logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("shutting down", zap.Error(ctx.Err()))
	}
}
