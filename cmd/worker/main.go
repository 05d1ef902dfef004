// Package main runs the background job worker (email delivery, notification fan-out).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/campushive/backend/config"
	"github.com/campushive/backend/internal/emails"
	"github.com/campushive/backend/internal/notifications"
	"github.com/campushive/backend/internal/realtime"
	"github.com/campushive/backend/internal/worker"
	"github.com/campushive/backend/pkg/database"
	"github.com/campushive/backend/pkg/mailer"
	"github.com/campushive/backend/pkg/queue"
	"github.com/campushive/backend/pkg/redis"
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

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	smtp := mailer.New(cfg.Email.FromAddress, cfg.Email.FromName,
		cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.SMTPUser, cfg.Email.SMTPPass, logger)

	// Fan-out pushes go through redis pub/sub so server instances deliver them
	// to their local WebSocket connections.
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	notificationRepo := notifications.NewRepository(pool)
	notifier := notifications.NewService(notificationRepo, realtime.PublishOnlyPusher{Pub: redisPubSub}, cfg.App.FanoutConcurrency, logger)

	emailRepo := emails.NewRepository(pool)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewProcessor(jobQueue, smtp, emailRepo, notifier, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go processor.Run(workerCtx)
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
