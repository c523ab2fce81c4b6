package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/stocksense/backend/internal/application/catalog"
	eventapp "github.com/stocksense/backend/internal/application/event"
	importapp "github.com/stocksense/backend/internal/application/import"
	inventoryapp "github.com/stocksense/backend/internal/application/inventory"
	reportapp "github.com/stocksense/backend/internal/application/report"
	riskapp "github.com/stocksense/backend/internal/application/risk"
	"github.com/stocksense/backend/internal/infrastructure/ai"
	"github.com/stocksense/backend/internal/infrastructure/auth"
	"github.com/stocksense/backend/internal/infrastructure/cache"
	"github.com/stocksense/backend/internal/infrastructure/config"
	"github.com/stocksense/backend/internal/infrastructure/event"
	"github.com/stocksense/backend/internal/infrastructure/logger"
	"github.com/stocksense/backend/internal/infrastructure/persistence"
	"github.com/stocksense/backend/internal/infrastructure/report"
	"github.com/stocksense/backend/internal/infrastructure/scheduler"
	"github.com/stocksense/backend/internal/infrastructure/storage"
	"github.com/stocksense/backend/internal/interfaces/http/handler"
	"github.com/stocksense/backend/internal/interfaces/http/middleware"
	"github.com/stocksense/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/stocksense/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			StockSense API
//	@version		1.0
//	@description	Inventory stockout risk prediction service

//	@contact.name	API Support
//	@contact.url	https://github.com/stocksense/backend

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting StockSense backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	inventoryRepo := persistence.NewGormInventoryRepository(db.DB)
	demandRepo := persistence.NewGormDemandRepository(db.DB)
	assessmentRepo := persistence.NewGormAssessmentRepository(db.DB)
	modelVersionRepo := persistence.NewGormModelVersionRepository(db.DB)
	alertRepo := persistence.NewGormAlertRepository(db.DB)
	importHistoryRepo := persistence.NewGormImportHistoryRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	// Initialize event serializer and register all event types
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)

	// Services publish through the outbox so events survive crashes between
	// the state change and delivery
	outboxPublisher := event.NewOutboxPublisher(eventSerializer)
	eventPublisher := event.NewOutboxEventPublisher(db.DB, outboxPublisher)

	// Model artifact store (S3 or local directory)
	artifactStore, err := storage.NewArtifactStore(&cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize artifact store", zap.Error(err))
	}
	log.Info("Artifact store initialized", zap.String("backend", cfg.Storage.Backend))

	// Assessment cache: Redis with in-memory fallback
	cacheFactory := cache.NewAssessmentCacheFactory(cfg.Redis, cache.WithLogger(log))
	assessmentCache, err := cacheFactory.CreateCache()
	if err != nil {
		log.Fatal("Failed to initialize assessment cache", zap.Error(err))
	}

	// LLM-backed explainer client, optional
	var chatClient ai.ChatClient
	if cfg.OpenAI.Enabled {
		chatClient = ai.NewOpenAIClient(cfg.OpenAI, log)
		log.Info("Risk explainer LLM client enabled", zap.String("model", cfg.OpenAI.Model))
	}

	// Initialize application services
	productService := catalogapp.NewProductService(productRepo)
	inventoryService := inventoryapp.NewInventoryService(inventoryRepo, productRepo)
	demandService := inventoryapp.NewDemandService(demandRepo, productRepo)
	predictionService := riskapp.NewPredictionService(
		assessmentRepo, modelVersionRepo, productRepo, inventoryRepo, demandRepo,
		artifactStore, assessmentCache, log,
	)
	trainingService := riskapp.NewTrainingService(
		modelVersionRepo, productRepo, inventoryRepo, demandRepo,
		artifactStore, assessmentCache, log,
	)
	alertService := riskapp.NewAlertService(alertRepo)
	dashboardService := riskapp.NewDashboardService(assessmentRepo, alertRepo, productRepo, inventoryRepo, log)
	explainerService := riskapp.NewExplainerService(assessmentRepo, productRepo, inventoryRepo, demandRepo, chatClient, log)
	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	// Import services
	productImportService := importapp.NewProductImportService(productRepo, eventPublisher, log)
	inventoryImportService := importapp.NewInventoryImportService(inventoryRepo, productRepo, eventPublisher, log)
	demandImportService := importapp.NewDemandImportService(demandRepo, productRepo, log)
	importHistoryService := importapp.NewImportHistoryService(importHistoryRepo)

	// PDF report rendering
	pdfRenderer, err := report.NewChromedpRenderer(&report.ChromedpConfig{
		NoSandbox: cfg.App.Env != "development",
		Logger:    log,
	})
	if err != nil {
		log.Fatal("Failed to initialize PDF renderer", zap.Error(err))
	}
	defer func() {
		if err := pdfRenderer.Close(); err != nil {
			log.Error("Error closing PDF renderer", zap.Error(err))
		}
	}()
	reportService := reportapp.NewReportService(dashboardService, pdfRenderer, artifactStore, log)

	// Initialize event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)

	// High risk score detected -> critical risk alert
	highRiskHandler := riskapp.NewHighRiskAlertHandler(alertRepo, log)
	eventBus.Subscribe(highRiskHandler)

	// Stock dropping below minimum -> low stock alert
	lowStockHandler := riskapp.NewLowStockAlertHandler(alertRepo, productRepo, log)
	eventBus.Subscribe(lowStockHandler)

	// Model activation -> in-process scorer reload
	modelActivationHandler := riskapp.NewModelActivationHandler(predictionService, log)
	eventBus.Subscribe(modelActivationHandler)

	log.Info("Event handlers registered",
		zap.Strings("high_risk_events", highRiskHandler.EventTypes()),
		zap.Strings("low_stock_events", lowStockHandler.EventTypes()),
		zap.Strings("model_activation_events", modelActivationHandler.EventTypes()),
	)

	// Start event bus
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Inject event publishers into services that raise domain events
	inventoryService.SetEventPublisher(eventPublisher)
	predictionService.SetEventPublisher(eventPublisher)
	trainingService.SetEventPublisher(eventPublisher)

	// Outbox processor delivers persisted events to the bus
	if cfg.Event.ProcessorEnabled {
		processorConfig := event.DefaultOutboxProcessorConfig()
		if cfg.Event.BatchSize > 0 {
			processorConfig.BatchSize = cfg.Event.BatchSize
		}
		if cfg.Event.PollInterval > 0 {
			processorConfig.PollInterval = cfg.Event.PollInterval
		}
		if cfg.Event.MaxRetries > 0 {
			processorConfig.MaxRetries = cfg.Event.MaxRetries
		}
		outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, processorConfig, log)
		if err := outboxProcessor.Start(context.Background()); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", processorConfig.BatchSize),
			zap.Duration("poll_interval", processorConfig.PollInterval),
		)
	}

	// Background job scheduler for assessment sweeps and retraining
	var jobScheduler *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		executor := scheduler.NewRiskJobExecutor(
			assessmentRunner{predictions: predictionService},
			trainingRunner{training: trainingService},
			log,
		)
		jobScheduler = scheduler.NewScheduler(scheduler.SchedulerConfig{
			Enabled:           cfg.Scheduler.Enabled,
			MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
			JobTimeout:        cfg.Scheduler.JobTimeout,
			RetryAttempts:     cfg.Scheduler.RetryAttempts,
			RetryDelay:        cfg.Scheduler.RetryDelay,
		}, executor, log)
		if err := jobScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer func() {
			if err := jobScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping scheduler", zap.Error(err))
			}
		}()

		cronConfig := scheduler.DefaultCronTriggerConfig()
		cronConfig.AssessHour = cfg.Scheduler.AssessHour
		cronConfig.AssessMinute = cfg.Scheduler.AssessMinute
		cronConfig.RetrainWeekday = cfg.Scheduler.RetrainWeekday
		cronConfig.RetrainHour = cfg.Scheduler.RetrainHour
		cronConfig.RetrainMinute = cfg.Scheduler.RetrainMinute
		cronTrigger := scheduler.NewCronTrigger(cronConfig, jobScheduler, log)
		if err := cronTrigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start cron trigger", zap.Error(err))
		}
		defer func() {
			if err := cronTrigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping cron trigger", zap.Error(err))
			}
		}()
		log.Info("Scheduler started",
			zap.Int("assess_hour", cfg.Scheduler.AssessHour),
			zap.Int("retrain_weekday", cfg.Scheduler.RetrainWeekday),
		)
	}

	// Operator authentication
	authenticator, err := auth.NewOperatorAuthenticator(cfg.Auth)
	if err != nil {
		log.Fatal("Failed to initialize operator authenticator", zap.Error(err))
	}
	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(authenticator, jwtService, log)
	productHandler := handler.NewProductHandler(productService)
	inventoryHandler := handler.NewInventoryHandler(inventoryService, demandService)
	riskHandler := handler.NewRiskHandler(predictionService, explainerService)
	modelHandler := handler.NewModelHandler(trainingService, predictionService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, reportService)
	alertHandler := handler.NewAlertHandler(alertService)
	importHandler := handler.NewImportHandler(
		productImportService, inventoryImportService, demandImportService,
		importHistoryService, log,
	)
	defer importHandler.Stop()
	systemHandler := handler.NewSystemHandler(db.DB, jobScheduler, version)
	systemHandler.SetOutboxService(outboxService)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)

		// Login attempts get a much tighter budget than general traffic
		authLimiter := middleware.NewRateLimiter(5, time.Minute)
		authHandler.SetThrottle(middleware.AuthRateLimit(authLimiter))
	}

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/health",
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Register all domain handlers
	r.Register(authHandler).
		Register(productHandler).
		Register(inventoryHandler).
		Register(riskHandler).
		Register(modelHandler).
		Register(dashboardHandler).
		Register(alertHandler).
		Register(importHandler).
		Register(systemHandler)

	// Setup routes
	r.Setup()

	// Unversioned health endpoint for load balancer probes
	engine.GET("/health", systemHandler.Health)

	// Swagger documentation endpoint
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// assessmentRunner adapts PredictionService to the scheduler's AssessmentRunner
type assessmentRunner struct {
	predictions *riskapp.PredictionService
}

func (r assessmentRunner) AssessAll(ctx context.Context) error {
	_, err := r.predictions.AssessAll(ctx)
	return err
}

// trainingRunner adapts TrainingService to the scheduler's TrainingRunner.
// Scheduled retraining uses the configured default families.
type trainingRunner struct {
	training *riskapp.TrainingService
}

func (r trainingRunner) Retrain(ctx context.Context) error {
	_, err := r.training.Train(ctx, riskapp.TrainRequest{})
	return err
}
