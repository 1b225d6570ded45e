package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/civifix-service/internal/api/http"
	"github.com/spec-kit/civifix-service/internal/api/http/handlers"
	"github.com/spec-kit/civifix-service/internal/auth"
	"github.com/spec-kit/civifix-service/internal/config"
	"github.com/spec-kit/civifix-service/internal/events"
	"github.com/spec-kit/civifix-service/internal/observability"
	"github.com/spec-kit/civifix-service/internal/persistence"
	"github.com/spec-kit/civifix-service/internal/repository"
	"github.com/spec-kit/civifix-service/internal/service"
	"github.com/spec-kit/civifix-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	technicianRepo := repository.NewTechnicianRepository(pool)
	issueRepo := repository.NewIssueRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	authService := service.NewAuthService(*cfg, userRepo)
	profileService := service.NewProfileService(service.ProfileDependencies{
		ProfileRepo:    profileRepo,
		TechnicianRepo: technicianRepo,
		IssueRepo:      issueRepo,
	})
	issueService := service.NewIssueService(service.IssueDependencies{
		IssueRepo:      issueRepo,
		CommentRepo:    commentRepo,
		ProfileRepo:    profileRepo,
		TechnicianRepo: technicianRepo,
		Dispatcher:     dispatcher,
	})
	technicianService := service.NewTechnicianService(technicianRepo, profileRepo)
	notificationService := service.NewNotificationService(cfg.Notification, logger)

	notificationWorker := worker.NewNotificationWorker(notificationService, logger)
	notificationWorker.Register(dispatcher)
	notificationWorker.Start(ctx)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo, profileRepo)
	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService),
		Profile:        handlers.NewProfileHandler(profileService),
		Issues:         handlers.NewIssuesHandler(issueService),
		Admins:         handlers.NewAdminsHandler(profileService),
		Technicians:    handlers.NewTechniciansHandler(issueService, technicianService),
		Stats:          handlers.NewStatsHandler(issueService),
		AuthMiddleware: authMiddleware,
		IssueLimiter:   httptransport.IssueSubmitLimiter(redis.Client, cfg.RateLimit),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	cancel()
	notificationWorker.Stop()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
