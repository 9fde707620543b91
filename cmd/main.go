package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/efootball-cup/cache"
	"github.com/Dosada05/efootball-cup/config"
	"github.com/Dosada05/efootball-cup/db"
	"github.com/Dosada05/efootball-cup/handlers"
	"github.com/Dosada05/efootball-cup/middleware"
	"github.com/Dosada05/efootball-cup/repositories"
	api "github.com/Dosada05/efootball-cup/routes"
	"github.com/Dosada05/efootball-cup/services"
	"github.com/Dosada05/efootball-cup/storage"
	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-co-op/gocron/v2"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	bracketCacheTTL      = 60 * time.Second
	rateLimitCleanup     = time.Minute
	rateLimitVisitorIdle = 10 * time.Minute
	shutdownTimeout      = 15 * time.Second
)

// @title eFootball Cup API
// @version 1.0
// @description Single-elimination eFootball tournaments: registration, brackets, results.
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		rotating := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		defer rotating.Close()
		out = io.MultiWriter(os.Stdout, rotating)
	}
	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("db_driver", cfg.DatabaseDriver))

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			AttachStacktrace: true,
		}); err != nil {
			logger.Error("failed to initialize sentry", slog.Any("error", err))
			os.Exit(1)
		}
		defer sentry.Flush(2 * time.Second)
		logger.Info("sentry initialized")
	}

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseDriver, cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if err := db.Migrate(dbConn, cfg.DatabaseDriver); err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("migrations applied")

	ctx := context.Background()

	// Хранилище скриншотов: Cloudflare R2, если настроено, иначе локальный диск
	var uploader storage.FileUploader
	uploadDir := ""
	if cfg.R2Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		uploader, err = storage.NewLocalDiskUploader(cfg.UploadDir, cfg.UploadPublicPath)
		if err != nil {
			logger.Error("failed to initialize local uploader", slog.Any("error", err))
			os.Exit(1)
		}
		uploadDir = cfg.UploadDir
		logger.Info("local disk uploader initialized", slog.String("dir", cfg.UploadDir))
	}

	bracketCache := cache.NewNoopBracketCache()
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		bracketCache, redisClient, err = cache.NewRedisBracketCache(ctx, cfg.RedisURL, bracketCacheTTL)
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer redisClient.Close()
		logger.Info("redis bracket cache enabled")
	}

	var mailer services.Mailer
	if cfg.SendGridAPIKey != "" {
		mailer = services.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFrom, cfg.MailFromName)
	} else {
		mailer = services.NewLogMailer(logger)
		logger.Warn("SENDGRID_API_KEY is not set, emails will only be logged")
	}
	emailService := services.NewEmailService(mailer, cfg.AppName, cfg.AppPublicURL)

	// Инициализация репозиториев
	userRepo := repositories.NewUserRepository(dbConn)
	tournamentRepo := repositories.NewTournamentRepository(dbConn)
	registrationRepo := repositories.NewRegistrationRepository(dbConn)
	roundRepo := repositories.NewRoundRepository(dbConn)
	matchRepo := repositories.NewMatchRepository(dbConn)
	notificationRepo := repositories.NewNotificationRepository(dbConn)
	resetRepo := repositories.NewPasswordResetRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	bracketOpts := services.BracketOptions{AutoAdvanceByes: cfg.AutoAdvanceByes}
	notificationService := services.NewNotificationService(notificationRepo, logger)
	authService := services.NewAuthService(dbConn, userRepo, tournamentRepo, registrationRepo, resetRepo, notificationService, emailService, logger)
	adminService := services.NewAdminService(userRepo, notificationService, logger)
	tournamentService := services.NewTournamentService(dbConn, tournamentRepo, registrationRepo, userRepo, logger)
	bracketService := services.NewBracketService(
		dbConn,
		tournamentRepo,
		registrationRepo,
		roundRepo,
		matchRepo,
		notificationService,
		bracketCache,
		uploader,
		bracketOpts,
		logger,
	)
	matchService := services.NewMatchService(
		dbConn,
		tournamentRepo,
		roundRepo,
		matchRepo,
		userRepo,
		notificationService,
		bracketCache,
		uploader,
		bracketOpts,
		logger,
	)
	dispatcher := services.NewNotificationDispatcher(notificationRepo, emailService, logger)
	logger.Info("Services initialized", slog.Bool("auto_advance_byes", cfg.AutoAdvanceByes))

	if cfg.AdminEmail != "" {
		if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.Error("failed to ensure admin account", slog.Any("error", err))
			os.Exit(1)
		}
	}

	authLimiter := middleware.NewIPRateLimiter(cfg.LoginRateLimitRPS, cfg.LoginRateLimitBurst)

	// Планировщик: рассылка уведомлений и очистка rate limiter
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		logger.Error("failed to create scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	if err := dispatcher.Schedule(scheduler, cfg.NotificationDispatchInterval); err != nil {
		logger.Error("failed to schedule notification dispatch", slog.Any("error", err))
		os.Exit(1)
	}
	if _, err := scheduler.NewJob(
		gocron.DurationJob(rateLimitCleanup),
		gocron.NewTask(func() {
			if removed := authLimiter.Cleanup(rateLimitVisitorIdle); removed > 0 {
				logger.Debug("Scheduler: rate limiter visitors evicted", slog.Int("count", removed))
			}
		}),
	); err != nil {
		logger.Error("failed to schedule rate limiter cleanup", slog.Any("error", err))
		os.Exit(1)
	}
	scheduler.Start()
	logger.Info("scheduler started", slog.Duration("notification_interval", cfg.NotificationDispatchInterval))

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Auth:       handlers.NewAuthHandler(authService, cfg.JWTSecretKey),
		User:       handlers.NewUserHandler(authService),
		Tournament: handlers.NewTournamentHandler(tournamentService),
		Bracket:    handlers.NewBracketHandler(bracketService),
		Match:      handlers.NewMatchHandler(matchService),
		Dashboard:  handlers.NewDashboardHandler(matchService, notificationService),
		Admin:      handlers.NewAdminHandler(adminService, matchService),
	}, api.Options{
		JWTSecret:          cfg.JWTSecretKey,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		AuthLimiter:        authLimiter,
		UploadDir:          uploadDir,
		UploadPublicPath:   cfg.UploadPublicPath,
	})
	logger.Info("Routes configured")

	var handler http.Handler = router
	if cfg.SentryDSN != "" {
		handler = sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle(router)
	}

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}
	}

	if err := scheduler.Shutdown(); err != nil {
		logger.Error("failed to stop scheduler", slog.Any("error", err))
	}
	logger.Info("application exited")
}
