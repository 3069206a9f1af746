package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"finbook/internal/amqp"
	"finbook/internal/auth"
	"finbook/internal/config"
	apphttp "finbook/internal/http"
	applog "finbook/internal/log"
	"finbook/internal/notify"
	"finbook/internal/services"
	"finbook/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
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
	logger.Info("Database ready", "path", cfg.SQLiteDBPath)

	var sink notify.EventSink
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Warn("AMQP unavailable, live delivery disabled", applog.FieldError, err)
		} else {
			defer client.Close()
			sink = client
			logger.Info("AMQP connected", "exchange", cfg.AMQPExchange)
		}
	}

	dispatcher := notify.NewDispatcher(repo, sink)
	budgets := services.NewBudgetService(repo, repo, dispatcher)
	bills := services.NewBillService(repo, dispatcher)
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	server := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Repo:       repo,
		Budgets:    budgets,
		Bills:      bills,
		Dispatcher: dispatcher,
		Issuer:     issuer,
		OTPTTL:     cfg.OTPTTL,
		Logger:     logger.WithComponent(applog.ComponentHTTP),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
