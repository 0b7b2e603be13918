package main

import (
	"context"
	"errors"
	"os"

	"financeflow/internal/amqp"
	"financeflow/internal/backend"
	"financeflow/internal/cli"
	apphttp "financeflow/internal/http"
	"financeflow/internal/log"
	"financeflow/internal/services"
	"financeflow/internal/storage"
	"financeflow/internal/store"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting financeflow", log.FieldOperation, log.OpStartup, log.FieldBackend, cfg.DataBackend)

	ctx := context.Background()
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	}()

	st := store.New(ctx, res.Backend, store.WithLogger(logger))

	// Change events are optional: the API works without a broker.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, snapshot events disabled", log.FieldError, err)
		} else {
			defer amqpClient.Close()
			st.Subscribe(amqp.StoreListener(amqpClient, logger))
			logger.Info("Publishing snapshot events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:      ":" + cfg.Port,
		Ledger:    services.NewLedger(st, logger),
		Logger:    logger,
		CacheSize: cfg.CacheSize,
		CacheTTL:  cfg.CacheTTL,
		Ready: func(ctx context.Context) error {
			_, err := res.Backend.Read(ctx)
			if errors.Is(err, storage.ErrNotFound) {
				return nil
			}
			return err
		},
	})

	shutdownCtx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	if err := srv.ListenAndServe(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
