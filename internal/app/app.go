package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/campusflow/assignment-service/internal/config"
	"github.com/campusflow/assignment-service/internal/delivery/httpd"
	"github.com/campusflow/assignment-service/internal/repository"
	"github.com/campusflow/assignment-service/internal/service"
	"github.com/campusflow/assignment-service/internal/service/integration"
	"github.com/campusflow/assignment-service/internal/worker"
	"github.com/campusflow/assignment-service/internal/worker/queue"
)

type App struct {
	server    *http.Server
	logger    zerolog.Logger
	config    *config.Config
	db        *sql.DB
	publisher integration.NotificationPublisher
}

func New(cfg *config.Config, log zerolog.Logger, db *sql.DB) (*App, error) {
	documentClient := integration.NewDocumentClient(
		cfg.Services.Uploader.URL,
		cfg.Services.Uploader.Endpoint,
		cfg.Services.Uploader.Timeout,
		cfg.Services.Uploader.RetryCount,
		cfg.Services.Uploader.RetryDelay,
		log,
	)

	publisher, err := integration.NewNotificationPublisher(
		cfg.RabbitMQ.URL,
		cfg.RabbitMQ.Exchange,
		cfg.RabbitMQ.QueueName,
		log,
	)
	if err != nil {
		return nil, err
	}

	store := repository.NewPostgresRepository(db, log)
	assignmentRepo := repository.NewAssignmentRepository(db, log)
	invitationRepo := repository.NewInvitationRepository(db, log)
	submissionRepo := repository.NewSubmissionRepository(db, log)
	studentRepo := repository.NewStudentRepository(db, log)
	groupRepo := repository.NewGroupRepository(db, log)
	analyticsRepo := repository.NewAnalyticsRepository(db, log)

	assignmentService := service.NewAssignmentService(
		store, assignmentRepo, invitationRepo, submissionRepo, studentRepo,
		publisher, documentClient, log,
	)
	invitationService := service.NewInvitationService(
		store, invitationRepo, assignmentRepo, studentRepo, submissionRepo,
		publisher, log,
	)
	gradingService := service.NewGradingService(
		store, submissionRepo, assignmentRepo, studentRepo, groupRepo,
		publisher, log,
	)
	groupService := service.NewGroupService(
		store, groupRepo, assignmentRepo, studentRepo, submissionRepo, log,
	)
	analyticsService := service.NewAnalyticsService(analyticsRepo, studentRepo, log)

	handler := httpd.NewHandler(
		assignmentService,
		invitationService,
		gradingService,
		groupService,
		analyticsService,
		log,
	)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		ExposedHeaders:   cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		server:    server,
		logger:    log,
		config:    cfg,
		db:        db,
		publisher: publisher,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info().Msgf("Starting assignment service on %s", a.config.Server.Address)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down assignment service...")

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close RabbitMQ connection")
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}

	return a.server.Shutdown(ctx)
}

// NewDispatchWorker wires the queue-consuming side for the worker subcommand.
func NewDispatchWorker(cfg *config.Config, log zerolog.Logger) (worker.DispatchWorker, error) {
	consumer, err := queue.NewRabbitMQConsumer(
		cfg.RabbitMQ.URL,
		cfg.RabbitMQ.Exchange,
		cfg.RabbitMQ.QueueName,
		cfg.Worker.ConsumerTag,
		log,
	)
	if err != nil {
		return nil, err
	}

	mailerClient := integration.NewMailerClient(
		cfg.Services.Mailer.URL,
		cfg.Services.Mailer.Endpoint,
		cfg.Services.Mailer.Timeout,
		cfg.Services.Mailer.RetryCount,
		cfg.Services.Mailer.RetryDelay,
		log,
	)

	pool := worker.NewWorkerPool(cfg.Worker.MaxWorkers, log)

	return worker.NewDispatchWorker(pool, consumer, mailerClient, log), nil
}
