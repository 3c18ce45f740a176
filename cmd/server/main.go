// Package main runs the event registration HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-events/backend/config"
	"github.com/aura-events/backend/internal/approvals"
	"github.com/aura-events/backend/internal/auth"
	"github.com/aura-events/backend/internal/authz"
	"github.com/aura-events/backend/internal/events"
	"github.com/aura-events/backend/internal/middleware"
	"github.com/aura-events/backend/internal/notifications"
	"github.com/aura-events/backend/internal/organizations"
	"github.com/aura-events/backend/internal/registrations"
	"github.com/aura-events/backend/internal/users"
	"github.com/aura-events/backend/pkg/database"
	"github.com/aura-events/backend/pkg/metrics"
	"github.com/aura-events/backend/pkg/queue"
	"github.com/aura-events/backend/pkg/redis"
	"github.com/aura-events/backend/pkg/response"
	"github.com/aura-events/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{
		MaxConns:        int32(cfg.Database.MaxConns),
		MaxConnLifetime: time.Duration(cfg.Database.MaxConnLifetime) * time.Minute,
	}, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Logo uploads are optional; without credentials the endpoint answers invalid_state.
	var presigner organizations.Presigner
	if cfg.AWS.AccessKeyID != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			LogosBucket:          cfg.AWS.LogosBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			presigner = s3Client
		}
	}

	m := metrics.New(nil)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	notifier := notifications.NewNotifier(jobQueue, logger)

	// Identity
	profiles := auth.NewRepository(pool)
	callers := auth.NewCallerResolver(profiles, cfg.CallerCache.Size, cfg.CallerCache.TTL(), m)
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// Organizations
	orgSvc := organizations.NewService(organizations.NewRepository(pool), presigner, callers, m, cfg.Organizations.TrialPeriod(), logger)
	orgHandler := organizations.NewHandler(orgSvc, logger)

	authHandler := auth.NewHandler(auth.NewService(profiles, jwtService, orgSvc, logger), logger)
	userHandler := users.NewHandler(users.NewService(profiles, callers, logger), logger)

	// Events and approvals
	eventRepo := events.NewRepository(pool)
	eventHandler := events.NewHandler(events.NewService(eventRepo, logger), logger)
	approvalHandler := approvals.NewHandler(approvals.NewService(eventRepo, profiles, callers, notifier, m, logger), logger)

	// Registrations
	regSvc := registrations.NewService(registrations.NewRepository(pool), eventRepo, notifier, m, cfg.Registration.ConfirmationCodeLength, logger)
	regHandler := registrations.NewHandler(regSvc, logger)

	notificationHandler := notifications.NewHandler(notifications.NewRepository(pool), logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins()))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics(m))
	router.Use(middleware.Timeout(cfg.Server.RequestDeadline()))

	router.GET("/health", func(c *gin.Context) {
		if err := pool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		if err := rdb.Healthy(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		response.OK(c, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService, callers, logger))
	{
		api.GET("/auth/me", authHandler.Me)

		// Events
		api.GET("/events", eventHandler.List)
		api.POST("/events", middleware.RequireCapability(authz.EventCreate, logger), eventHandler.Create)
		api.GET("/events/:id", eventHandler.Get)
		api.PATCH("/events/:id", eventHandler.Update)
		api.DELETE("/events/:id", eventHandler.Delete)
		api.PATCH("/events/:id/status", eventHandler.SetStatus)
		api.PATCH("/events/:id/approve", middleware.RequireCapability(authz.EventDecide, logger), approvalHandler.DecideEvent)
		api.POST("/events/:id/resubmit", approvalHandler.ResubmitEvent)
		api.POST("/events/:id/ticket-types", eventHandler.CreateTicketType)
		api.GET("/events/:id/ticket-types", eventHandler.ListTicketTypes)
		api.GET("/events/:id/registrations", regHandler.ListForEvent)
		api.PATCH("/ticket-types/:id", eventHandler.UpdateTicketType)

		// Organizer approval
		api.PATCH("/organizers/:id", middleware.RequireCapability(authz.OrganizerDecide, logger), approvalHandler.DecideOrganizer)

		// Registrations
		api.POST("/registrations", regHandler.Register)
		api.GET("/registrations", regHandler.ListMine)
		api.GET("/registrations/:id", regHandler.Get)
		api.PATCH("/registrations/:id/status", regHandler.UpdateStatus)

		// Organizations
		api.POST("/organizations", orgHandler.Create)
		api.GET("/organizations/:id", orgHandler.Get)
		api.POST("/organizations/:id/logo-upload-url", orgHandler.LogoUploadURL)

		// Users (identity administration)
		userGroup := api.Group("/users", middleware.RequireCapability(authz.UserManage, logger))
		{
			userGroup.GET("", userHandler.List)
			userGroup.PATCH("/:id/suspend", userHandler.Suspend)
			userGroup.PATCH("/:id/reactivate", userHandler.Reactivate)
			userGroup.DELETE("/:id", userHandler.Delete)
		}

		api.GET("/notifications", notificationHandler.ListMine)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
