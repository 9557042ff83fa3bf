package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trekhub_backend/database"
	"trekhub_backend/internal/config"
	"trekhub_backend/internal/email"
	"trekhub_backend/internal/handlers"
	"trekhub_backend/internal/logger"
	"trekhub_backend/internal/middleware"
	"trekhub_backend/internal/mq"
	"trekhub_backend/internal/repositories"
	"trekhub_backend/internal/routes"
	"trekhub_backend/internal/services"
	"trekhub_backend/internal/validator"
	"trekhub_backend/internal/workers"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	deliveryQueueName = "trekhub.delivery"
	shutdownTimeout   = 10 * time.Second
)

// Infrastructure - внешние ресурсы, с которыми собирается приложение
type Infrastructure struct {
	DB    *gorm.DB
	Stats repositories.Querier
	Redis *redis.Client
	// Queue - внешняя очередь доставки; nil означает in-process очередь
	Queue services.DeliveryQueue
}

// Application - собранные сервисы и фоновые задачи
type Application struct {
	Services *services.ServiceContainer
	Router   *gin.Engine

	repos       repositoryContainer
	otpStore    repositories.OtpStore
	memoryQueue *workers.MemoryQueue
	cfg         *config.Config
}

type repositoryContainer struct {
	bookings      repositories.BookingRepository
	reviews       repositories.ReviewRepository
	notifications repositories.NotificationRepository
	users         repositories.UserRepository
	events        repositories.EventRepository
	stats         repositories.StatsRepository
}

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	gormDB, err := database.ConnectGorm(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to GORM", "error", err)
	}
	if err := database.AutoMigrate(gormDB); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}
	logger.Info("Database connected")

	pool, err := database.ConnectPool(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect pgx pool", "error", err)
	}
	defer pool.Close()

	infra := Infrastructure{DB: gormDB, Stats: pool}

	if rdb := database.ConnectRedis(cfg.Redis); rdb != nil {
		defer rdb.Close()
		infra.Redis = rdb
		logger.Info("OTP store: redis", "addr", cfg.Redis.Addr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RabbitMQ.URL != "" {
		publisher, err := mq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			logger.Fatal("Failed to connect to RabbitMQ", "error", err)
		}
		defer publisher.Close()
		infra.Queue = publisher
		logger.Info("Delivery queue: rabbitmq", "exchange", cfg.RabbitMQ.Exchange)
	}

	application := New(cfg, infra)
	application.StartWorkers(ctx)

	if cfg.RabbitMQ.URL != "" {
		consumer, err := mq.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, deliveryQueueName, []string{"notification.#"})
		if err != nil {
			logger.Fatal("Failed to start RabbitMQ consumer", "error", err)
		}
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx, application.Services.NotificationService.Deliver); err != nil {
				logger.Error("RabbitMQ consumer stopped", "error", err)
			}
		}()
	}

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{Addr: address, Handler: application.Router}

	go func() {
		logger.Info(fmt.Sprintf("Server starting on %s", address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
}

// New собирает репозитории, сервисы, хэндлеры и роутер. Фоновые задачи не запускает.
func New(cfg *config.Config, infra Infrastructure) *Application {
	a := &Application{cfg: cfg}

	a.repos = repositoryContainer{
		bookings:      repositories.NewBookingRepository(infra.DB),
		reviews:       repositories.NewReviewRepository(infra.DB),
		notifications: repositories.NewNotificationRepository(infra.DB),
		users:         repositories.NewUserRepository(infra.DB),
		events:        repositories.NewEventRepository(infra.DB),
		stats:         repositories.NewStatsRepository(infra.Stats),
	}

	if infra.Redis != nil {
		a.otpStore = repositories.NewRedisOtpStore(infra.Redis)
	} else {
		a.otpStore = repositories.NewGormOtpStore(infra.DB)
	}

	queue := infra.Queue
	if queue == nil {
		a.memoryQueue = workers.NewMemoryQueue(cfg.Policy.DeliveryBuffer)
		queue = a.memoryQueue
	}

	a.Services = initializeServices(cfg, a.repos, a.otpStore, queue)
	a.Router = SetupRouter(cfg, a.Services)
	return a
}

func initializeServices(cfg *config.Config, repos repositoryContainer, otpStore repositories.OtpStore, queue services.DeliveryQueue) *services.ServiceContainer {
	templates := email.NewTemplateManager()
	var emailService email.Provider
	if cfg.Email.SMTPHost != "" {
		emailService = email.NewSMTPProvider(email.FromConfig(cfg.Email), templates)
	} else {
		logger.Warn("SMTP is not configured, emails are written to the log")
		emailService = email.NewLogProvider(templates)
	}

	tracker := services.NewReviewExpiryTracker(cfg.Policy.ReviewWindow())
	dispatcher := services.NewNotificationDispatcher(queue)
	otpService := services.NewOtpService(otpStore, dispatcher, cfg.Policy)

	return &services.ServiceContainer{
		OtpService:          otpService,
		BookingService:      services.NewBookingService(repos.bookings, repos.events, otpService, dispatcher),
		ReviewService:       services.NewReviewService(repos.reviews, repos.bookings, tracker),
		StatsService:        services.NewStatsService(repos.stats),
		ChatbotService:      services.NewChatbotService(services.NewCatalogEngine(repos.events)),
		NotificationService: services.NewNotificationService(repos.notifications, repos.users, emailService),
		Dispatcher:          dispatcher,
		ExpiryTracker:       tracker,
		EmailService:        emailService,
	}
}

// StartWorkers запускает фоновые задачи до отмены ctx
func (a *Application) StartWorkers(ctx context.Context) {
	p := a.cfg.Policy

	if a.memoryQueue != nil {
		workers.NewDeliveryWorker(a.memoryQueue, a.Services.NotificationService, p.DeliveryWorkers).Start(ctx)
	}
	workers.NewStatsWorker(a.Services.StatsService, p.StatsRefreshInterval).Start(ctx)
	workers.NewOtpCleanupWorker(a.otpStore, p.OtpCleanupInterval).Start(ctx)
	workers.NewReviewReminderWorker(
		a.repos.bookings,
		a.repos.reviews,
		a.Services.ExpiryTracker,
		a.Services.Dispatcher,
		p.ReminderLeadDays,
		p.ReminderInterval,
	).Start(ctx)

	logger.Info("Background workers started")
}

func SetupRouter(cfg *config.Config, container *services.ServiceContainer) *gin.Engine {
	appHandlers := initializeHandlers(cfg, container)

	ginRouter := initializeGinRouter()
	routes.RegisterRoutes(ginRouter, appHandlers)
	return ginRouter
}

func initializeHandlers(cfg *config.Config, container *services.ServiceContainer) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)
	exposeOtp := cfg.Server.Env != "production"

	return &handlers.AppHandlers{
		OtpHandler:          handlers.NewOtpHandler(baseHandler, container.OtpService, exposeOtp),
		BookingHandler:      handlers.NewBookingHandler(baseHandler, container.BookingService, exposeOtp),
		ReviewHandler:       handlers.NewReviewHandler(baseHandler, container.ReviewService),
		StatsHandler:        handlers.NewStatsHandler(baseHandler, container.StatsService),
		ChatbotHandler:      handlers.NewChatbotHandler(baseHandler, container.ChatbotService),
		NotificationHandler: handlers.NewNotificationHandler(baseHandler, container.NotificationService),
	}
}

func initializeGinRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.ViewerMiddleware())
	return router
}
