package app

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/jwtauth/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/eduline/homework-service/internal/config"
	"github.com/eduline/homework-service/internal/delivery/httpd"
	"github.com/eduline/homework-service/internal/repository"
	"github.com/eduline/homework-service/internal/service"
	"github.com/eduline/homework-service/internal/service/integration"
	"github.com/eduline/homework-service/internal/storage"
	"github.com/eduline/homework-service/internal/worker"
	"github.com/eduline/homework-service/internal/worker/queue"
	"github.com/eduline/homework-service/pkg/rabbitmq"
)

type App struct {
	server       *http.Server
	logger       zerolog.Logger
	config       *config.Config
	db           *sql.DB
	publisher    integration.EventPublisher
	eventWorker  worker.EventWorker
	consumerConn *amqp.Connection
}

func New(cfg *config.Config, log zerolog.Logger, db *sql.DB) (*App, error) {
	images, err := storage.New(cfg.Storage)
	if err != nil {
		return nil, err
	}

	aiClient := integration.NewAIClient(integration.AIClientOptions{
		BaseURL:      cfg.AI.URL,
		APIKey:       cfg.AI.APIKey,
		Timeout:      cfg.AI.Timeout,
		RetryCount:   cfg.AI.RetryCount,
		RetryDelay:   cfg.AI.RetryDelay,
		PollInterval: cfg.AI.PollInterval,
		PollAttempts: cfg.AI.PollAttempts,
	}, log)

	var publisher integration.EventPublisher
	if cfg.RabbitMQ.Enabled {
		publisher, err = integration.NewRabbitMQPublisher(
			cfg.RabbitMQ.URL,
			cfg.RabbitMQ.Exchange,
			cfg.RabbitMQ.RoutingKey,
			cfg.RabbitMQ.QueueName,
			log,
		)
		if err != nil {
			// the audit trail is best-effort; the service runs without it
			log.Error().Err(err).Msg("Failed to create RabbitMQ publisher")
			publisher = nil
		}
	}

	userRepo := repository.NewUserRepository(db, log)
	branchRepo := repository.NewBranchRepository(db, log)
	classRepo := repository.NewClassRepository(db, log)
	assignmentRepo := repository.NewAssignmentRepository(db, log)
	submissionRepo := repository.NewSubmissionRepository(db, log)
	commentRepo := repository.NewCommentRepository(db, log)
	accessRepo := repository.NewAccessRepository(db, log)
	eventRepo := repository.NewEventRepository(db, log)

	accessService := service.NewAccessService(accessRepo, userRepo, classRepo, branchRepo, log)
	authService := service.NewAuthService(userRepo, log)
	branchService := service.NewBranchService(branchRepo, accessService, log)
	classService := service.NewClassService(classRepo, branchRepo, accessService, log)
	assignmentService := service.NewAssignmentService(assignmentRepo, classRepo, accessService, log)
	submissionService := service.NewSubmissionService(
		submissionRepo,
		assignmentRepo,
		userRepo,
		eventRepo,
		accessService,
		images,
		publisher,
		log,
	)
	commentService := service.NewCommentService(commentRepo, submissionService, log)
	reviewService := service.NewReviewService(
		submissionRepo,
		assignmentRepo,
		classRepo,
		accessService,
		images,
		aiClient,
		publisher,
		log,
	)

	var eventWorker worker.EventWorker
	var consumerConn *amqp.Connection
	if cfg.RabbitMQ.Enabled && publisher != nil {
		// the consumer gets its own connection so a slow drain never blocks
		// publishes
		consumerConn, err = rabbitmq.NewConnection(cfg.RabbitMQ.URL)
		if err != nil {
			log.Error().Err(err).Msg("Failed to connect event consumer")
		} else {
			channel, chErr := rabbitmq.NewChannel(consumerConn)
			if chErr != nil {
				log.Error().Err(chErr).Msg("Failed to open consumer channel")
			} else {
				consumer := queue.NewRabbitMQConsumer(channel, cfg.RabbitMQ.QueueName, "homework-event-worker", log)
				pool := worker.NewWorkerPool(cfg.Worker.MaxWorkers, log)
				eventWorker = worker.NewEventWorker(pool, consumer, eventRepo, log)
			}
		}
	}

	tokenAuth := jwtauth.New("HS256", []byte(cfg.Auth.JWTSecret), nil)

	handler := httpd.NewHandler(
		authService,
		accessService,
		branchService,
		classService,
		assignmentService,
		submissionService,
		commentService,
		reviewService,
		tokenAuth,
		cfg.Auth.CookieName,
		cfg.Auth.SecureCookie,
		cfg.Auth.TokenTTL,
		log,
	)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	// bulk review holds the request open while the pipeline runs, so the
	// request timeout has to cover a full sweep
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

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
		server:       server,
		logger:       log,
		config:       cfg,
		db:           db,
		publisher:    publisher,
		eventWorker:  eventWorker,
		consumerConn: consumerConn,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	if a.eventWorker != nil {
		if err := a.eventWorker.Start(ctx); err != nil {
			a.logger.Error().Err(err).Msg("Failed to start event worker")
		}
	}

	a.logger.Info().Msgf("Starting homework service on %s", a.config.Server.Address)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down homework service...")

	if a.eventWorker != nil {
		if err := a.eventWorker.Stop(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to stop event worker")
		}
	}

	if a.consumerConn != nil {
		if err := a.consumerConn.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close consumer connection")
		}
	}

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
