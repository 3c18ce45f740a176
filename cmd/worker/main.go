// Package main runs the background worker: notification delivery and the scheduled trial sweep.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/aura-events/backend/config"
	"github.com/aura-events/backend/internal/auth"
	"github.com/aura-events/backend/internal/notifications"
	"github.com/aura-events/backend/internal/organizations"
	"github.com/aura-events/backend/pkg/database"
	"github.com/aura-events/backend/pkg/metrics"
	"github.com/aura-events/backend/pkg/queue"
	"github.com/aura-events/backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{
		MaxConns:        int32(cfg.Database.MaxConns),
		MaxConnLifetime: time.Duration(cfg.Database.MaxConnLifetime) * time.Minute,
	}, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := redis.NewClient(ctx, redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	m := metrics.New(nil)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	logs := notifications.NewRepository(pool)
	recipients := auth.NewRepository(pool)
	sender := notifications.NewLogSender(cfg.Email.FromAddress, logger)

	// The sweep never creates organizations, so it needs neither a presigner nor the caller cache.
	orgSvc := organizations.NewService(organizations.NewRepository(pool), nil, nil, m, cfg.Organizations.TrialPeriod(), logger)

	c := cron.New(cron.WithLogger(cronLogger{logger.Sugar()}), cron.WithChain(
		cron.Recover(cronLogger{logger.Sugar()}),
		cron.SkipIfStillRunning(cronLogger{logger.Sugar()}),
	))
	if _, err := c.AddFunc(cfg.Worker.TrialSweepSchedule, func() {
		n, err := orgSvc.SweepTrials(ctx)
		if err != nil {
			logger.Error("trial sweep", zap.Error(err))
			return
		}
		logger.Info("trial sweep finished", zap.Int("expired", n))
	}); err != nil {
		logger.Fatal("schedule trial sweep", zap.String("schedule", cfg.Worker.TrialSweepSchedule), zap.Error(err))
	}
	c.Start()

	metricsSrv := &http.Server{Addr: ":" + cfg.Worker.MetricsPort, Handler: m.Handler()}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < max(cfg.Worker.Concurrency, 1); i++ {
		processor := notifications.NewProcessor(jobQueue, logs, recipients, sender, m, logger.With(zap.Int("worker", i)))
		g.Go(func() error {
			processor.Run(gctx)
			return nil
		})
	}
	g.Go(func() error {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})
	logger.Info("worker started",
		zap.Int("concurrency", cfg.Worker.Concurrency),
		zap.String("trial_sweep", cfg.Worker.TrialSweepSchedule),
	)

	waitErr := g.Wait()
	<-c.Stop().Done()
	if waitErr != nil {
		logger.Error("worker", zap.Error(waitErr))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
