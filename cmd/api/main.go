package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/bryanpmx/caf-api/internal/config"
	appointmentHandler "github.com/bryanpmx/caf-api/internal/handler/appointments"
	authHandler "github.com/bryanpmx/caf-api/internal/handler/auth"
	caseHandler "github.com/bryanpmx/caf-api/internal/handler/cases"
	healthHandler "github.com/bryanpmx/caf-api/internal/handler/health"
	portalHandler "github.com/bryanpmx/caf-api/internal/handler/portal"
	taskHandler "github.com/bryanpmx/caf-api/internal/handler/tasks"
	"github.com/bryanpmx/caf-api/internal/lifecycle"
	"github.com/bryanpmx/caf-api/internal/middleware"
	"github.com/bryanpmx/caf-api/internal/policy"
	"github.com/bryanpmx/caf-api/internal/registry"
	"github.com/bryanpmx/caf-api/internal/repository/postgres"
	"github.com/bryanpmx/caf-api/internal/router"
	appointmentService "github.com/bryanpmx/caf-api/internal/service/appointments"
	auditService "github.com/bryanpmx/caf-api/internal/service/audit"
	authService "github.com/bryanpmx/caf-api/internal/service/auth"
	caseService "github.com/bryanpmx/caf-api/internal/service/cases"
	taskService "github.com/bryanpmx/caf-api/internal/service/tasks"
	"github.com/bryanpmx/caf-api/pkg/auth"
	"github.com/bryanpmx/caf-api/pkg/logger"
	"github.com/bryanpmx/caf-api/pkg/messaging/redis"
	"github.com/bryanpmx/caf-api/pkg/metrics"
	"github.com/bryanpmx/caf-api/pkg/security"
	"github.com/bryanpmx/caf-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics("caf")

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	caseRepo := postgres.NewCaseRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	taskRepo := postgres.NewTaskRepository(db)
	userRepo := postgres.NewUserRepository(db)
	assignmentRepo := postgres.NewAssignmentRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Core collaborators
	engine := policy.NewEngine(appMetrics)
	assignments := registry.New(assignmentRepo)
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour, "caf-api")
	hasher, err := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid auth configuration")
	}

	// Services
	auditSvc := auditService.NewService(auditRepo, appLogger)
	authSvc := authService.NewService(userRepo, jwtSvc, hasher)
	caseSvc := caseService.NewService(caseRepo, userRepo, engine, auditSvc)
	appointmentSvc := appointmentService.NewService(appointmentRepo, caseRepo, engine, auditSvc)
	taskSvc := taskService.NewService(taskRepo, caseRepo, engine, auditSvc)
	lifecycleSvc := lifecycle.NewService(caseRepo, userRepo, engine, assignments, appLogger, appMetrics)

	// Middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)

	r := router.NewRouter(
		authMiddleware,
		healthHandler.NewHandler(db),
		authHandler.NewHandler(authSvc),
		portalHandler.NewHandler(caseSvc, appointmentSvc, taskSvc),
		router.Config{
			RateLimit:      rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:      cfg.RateLimit.Burst,
			RequestTimeout: cfg.Server.RequestTimeout,
			MetricsPrefix:  "caf_api",
		},
		caseHandler.NewHandler(caseSvc, lifecycleSvc, assignments),
		appointmentHandler.NewHandler(appointmentSvc),
		taskHandler.NewHandler(taskSvc),
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Outbox poller publishes committed lifecycle events to the broker.
	broker, err := redis.NewRedisBroker(redis.Config{URL: cfg.Redis.URL}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	processorCtx, stopProcessor := context.WithCancel(context.Background())
	defer stopProcessor()

	processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
		BatchSize:    cfg.Outbox.BatchSize,
		PollInterval: cfg.Outbox.PollInterval,
		MaxRetries:   cfg.Outbox.MaxRetries,
		RetryDelay:   cfg.Outbox.RetryDelay,
	}, appLogger, appMetrics)
	go processor.Start(processorCtx)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	stopProcessor()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
