// bills-worker periodically marks overdue bills and sends due-date reminders.
// It shares the database and event channel with the API server and can run as
// a sidecar or a cron-style deployment.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"finbook/internal/amqp"
	"finbook/internal/config"
	applog "finbook/internal/log"
	"finbook/internal/notify"
	"finbook/internal/services"
	"finbook/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     applog.DefaultConfig().Level,
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", applog.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open database", applog.FieldError, err)
		os.Exit(1)
	}
	defer repo.Close()

	var sink notify.EventSink
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Warn("AMQP unavailable, live delivery disabled", applog.FieldError, err)
		} else {
			defer client.Close()
			sink = client
		}
	}

	dispatcher := notify.NewDispatcher(repo, sink)
	sweeper := services.NewBillSweeper(repo, dispatcher, cfg.ReminderLookahead)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Bill worker starting", "interval", cfg.SweepInterval)
	if err := sweeper.Run(ctx, cfg.SweepInterval); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Sweeper stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Bill worker stopped")
}
