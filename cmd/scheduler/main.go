/**
 * @description
 * This is the main entry point for the reminder scheduler.
 * It is a non-HTTP, long-running process that dispatches renewal reminders
 * to RabbitMQ and rolls lapsed billing dates forward on a cron schedule.
 */
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/subtrack/subtrack-backend/internal/app"
	"github.com/subtrack/subtrack-backend/internal/config"
	"github.com/subtrack/subtrack-backend/internal/store"
	"github.com/subtrack/subtrack-backend/pkg/rabbitmq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbpool, err := store.NewPool(ctx, cfg.DatabaseURL, 5)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	repository := store.NewRepository(dbpool)
	if err := repository.Migrate(ctx); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	var publisher rabbitmq.Publisher
	producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Warn("rabbitmq unavailable; reminders will be retried on later runs",
			"url", rabbitmq.MaskURL(cfg.RabbitMQURL), "error", err)
		publisher = &rabbitmq.LoggingPublisher{Logger: logger}
	} else {
		defer producer.Close()
		publisher = producer
	}

	jobs := app.NewJobs(repository, publisher, logger, *cfg, nil)
	scheduler := app.NewScheduler(jobs, logger, *cfg)
	if err := scheduler.Start(); err != nil {
		os.Exit(1)
	}
	logger.Info("scheduler started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received, stopping scheduler")
	<-scheduler.Stop().Done()
	logger.Info("scheduler stopped gracefully")
}
