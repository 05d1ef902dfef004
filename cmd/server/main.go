// Package main runs the CampusHive HTTP server with WebSocket and graceful shutdown.
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

	"github.com/campushive/backend/config"
	"github.com/campushive/backend/internal/analytics"
	"github.com/campushive/backend/internal/audit"
	"github.com/campushive/backend/internal/auth"
	"github.com/campushive/backend/internal/emails"
	"github.com/campushive/backend/internal/events"
	"github.com/campushive/backend/internal/exports"
	"github.com/campushive/backend/internal/forms"
	"github.com/campushive/backend/internal/messages"
	"github.com/campushive/backend/internal/middleware"
	"github.com/campushive/backend/internal/notifications"
	"github.com/campushive/backend/internal/polls"
	"github.com/campushive/backend/internal/quizzes"
	"github.com/campushive/backend/internal/realtime"
	"github.com/campushive/backend/internal/registrations"
	"github.com/campushive/backend/internal/settings"
	"github.com/campushive/backend/pkg/database"
	"github.com/campushive/backend/pkg/queue"
	"github.com/campushive/backend/pkg/redis"
	"github.com/campushive/backend/pkg/response"
	"github.com/campushive/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			UploadsBucket:        cfg.AWS.UploadsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	defer hub.Close()

	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Audit
	auditRepo := audit.NewRepository(pool)
	auditRecorder := audit.NewRecorder(auditRepo, logger)
	auditHandler := audit.NewHandler(auditRepo)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Notifications
	notificationRepo := notifications.NewRepository(pool)
	notifier := notifications.NewService(notificationRepo, hub, cfg.App.FanoutConcurrency, logger)
	notificationHandler := notifications.NewHandler(notificationRepo, jobQueue)

	// Emails (rendered here, sent by the worker)
	emailRepo := emails.NewRepository(pool)
	emailService := emails.NewService(emailRepo, jobQueue, logger)
	emailHandler := emails.NewHandler(emailRepo)

	// Events
	eventRepo := events.NewRepository(pool)
	eventHandler := events.NewHandler(eventRepo, s3Client, logger)

	// Registrations
	registrationRepo := registrations.NewRepository(pool)
	registrationEngine := registrations.NewEngine(registrationRepo, notifier, emailService, logger)
	registrationHandler := registrations.NewHandler(registrationEngine, registrationRepo, auditRecorder)

	// Quizzes
	quizRepo := quizzes.NewRepository(pool)
	quizEngine := quizzes.NewEngine(quizRepo, logger)
	quizHandler := quizzes.NewHandler(quizEngine, quizRepo, auditRecorder)

	// Polls
	pollRepo := polls.NewRepository(pool)
	pollHandler := polls.NewHandler(pollRepo, eventRepo, hub)

	// Forms
	formRepo := forms.NewRepository(pool)
	formHandler := forms.NewHandler(formRepo, s3Client)

	// Messages
	messageRepo := messages.NewRepository(pool)
	messageHandler := messages.NewHandler(messageRepo, authRepo, hub, notifier)

	// Settings
	settingRepo := settings.NewRepository(pool)
	settingHandler := settings.NewHandler(settingRepo, auditRecorder)

	// Exports and analytics
	exportHandler := exports.NewHandler(eventRepo, registrationRepo, quizRepo)
	analyticsHandler := analytics.NewHandler(pool, eventRepo)

	jwtValidate := func(token string) (userID, role string, err error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", "", err
		}
		return claims.UserID.String(), claims.Role, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		staff := middleware.RequireRole("staff", "admin")
		admin := middleware.RequireRole("admin")

		// Users
		api.GET("/me", authHandler.Me)
		api.PATCH("/me", authHandler.UpdateMe)
		api.GET("/users", staff, authHandler.List)
		api.PATCH("/users/:id/role", admin, authHandler.SetRole)

		// Events
		api.GET("/events", eventHandler.List)
		api.POST("/events", staff, eventHandler.Create)
		api.GET("/events/:id", eventHandler.GetByID)
		api.PATCH("/events/:id", staff, eventHandler.Update)
		api.POST("/events/:id/cancel", staff, eventHandler.Cancel)
		api.GET("/events/:id/organizers", staff, eventHandler.ListOrganizers)
		api.POST("/events/:id/organizers", staff, eventHandler.AddOrganizer)
		api.DELETE("/events/:id/organizers/:userID", staff, eventHandler.RemoveOrganizer)
		api.POST("/events/:id/cover", staff, eventHandler.UploadCover)
		api.GET("/events/:id/cover-url", eventHandler.CoverURL)

		// Registrations
		api.POST("/events/:id/register", registrationHandler.Register)
		api.POST("/events/:id/checkin", staff, registrationHandler.CheckIn)
		api.GET("/events/:id/registrations", staff, registrationHandler.ListByEvent)
		api.POST("/registrations/:id/approve", staff, registrationHandler.Approve)
		api.POST("/registrations/:id/reject", staff, registrationHandler.Reject)
		api.POST("/registrations/:id/cancel", registrationHandler.Cancel)
		api.GET("/registrations/mine", registrationHandler.ListMine)

		// Quizzes
		api.GET("/quizzes", quizHandler.List)
		api.POST("/quizzes", staff, quizHandler.Create)
		api.GET("/quizzes/:id", quizHandler.GetByID)
		api.PATCH("/quizzes/:id", staff, quizHandler.Update)
		api.DELETE("/quizzes/:id", staff, quizHandler.Delete)
		api.POST("/quizzes/:id/questions", staff, quizHandler.AddQuestion)
		api.DELETE("/quizzes/:id/questions/:questionID", staff, quizHandler.DeleteQuestion)
		api.POST("/quizzes/:id/attempts", quizHandler.Submit)
		api.GET("/quizzes/:id/attempts/me", quizHandler.MyAttempt)
		api.GET("/quizzes/:id/attempts", staff, quizHandler.ListAttempts)
		api.POST("/attempts/:id/penalty", staff, quizHandler.Penalty)
		api.GET("/quizzes/:id/leaderboard", quizHandler.Leaderboard)
		api.GET("/leaderboard/monthly", quizHandler.MonthlyLeaderboard)

		// Polls
		api.POST("/events/:id/polls", pollHandler.Create)
		api.GET("/events/:id/polls", pollHandler.ListByEvent)
		api.POST("/polls/:id/launch", pollHandler.Launch)
		api.POST("/polls/:id/close", pollHandler.Close)
		api.POST("/polls/:id/answer", pollHandler.Answer)
		api.GET("/polls/:id/results", pollHandler.Results)

		// Forms
		api.GET("/forms", formHandler.List)
		api.POST("/forms", staff, formHandler.Create)
		api.GET("/forms/:id", formHandler.GetByID)
		api.PATCH("/forms/:id/open", staff, formHandler.SetOpen)
		api.POST("/forms/:id/responses", formHandler.Submit)
		api.GET("/forms/:id/responses/me", formHandler.MyResponse)
		api.GET("/forms/:id/responses", staff, formHandler.ListResponses)
		api.POST("/forms/:id/attachment-url", formHandler.AttachmentURL)

		// Notifications
		api.GET("/notifications", notificationHandler.List)
		api.PATCH("/notifications/:id/read", notificationHandler.MarkRead)
		api.POST("/notifications/read-all", notificationHandler.MarkAllRead)
		api.POST("/events/:id/announce", staff, notificationHandler.Announce)

		// Messages
		api.POST("/messages", messageHandler.Send)
		api.GET("/messages/conversations", messageHandler.Conversations)
		api.GET("/messages/unread-count", messageHandler.UnreadCount)
		api.GET("/messages/thread/:peer_id", messageHandler.Thread)

		// Settings (admin)
		api.GET("/settings", admin, settingHandler.List)
		api.GET("/settings/:key", admin, settingHandler.Get)
		api.PUT("/settings/:key", admin, settingHandler.Put)
		api.DELETE("/settings/:key", admin, settingHandler.Delete)

		// Audit log (admin)
		api.GET("/audit", admin, auditHandler.List)

		// Exports, email logs, analytics (staff)
		api.GET("/events/:id/registrations.csv", staff, exportHandler.EventRegistrations)
		api.GET("/quizzes/:id/attempts.csv", staff, exportHandler.QuizAttempts)
		api.GET("/events/:id/emails", staff, emailHandler.ListByEvent)
		api.GET("/events/:id/analytics", staff, analyticsHandler.GetByEvent)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, logger, jwtValidate))

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
