package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"financeflow/internal/amqp"
	"financeflow/internal/backend"
	"financeflow/internal/cli"
	"financeflow/internal/log"
	gsheet "financeflow/internal/sheets/google"
	"financeflow/internal/store"
	"financeflow/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Mirror configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Starting mirror-worker", log.FieldOperation, log.OpStartup, log.FieldBackend, cfg.DataBackend)

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
	defer res.Cleanup()

	// The worker only reads: LoadStored goes back to the durable record every time.
	st := store.New(ctx, res.Backend, store.WithLogger(logger))

	sheet, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirror := worker.NewMirrorWorker(st, sheet, logger)
	resyncer := worker.NewResyncer(mirror, worker.ResyncConfig{
		Interval:   cfg.MirrorResyncInterval,
		MaxRetries: worker.DefaultResyncConfig().MaxRetries,
		RetryDelay: worker.DefaultResyncConfig().RetryDelay,
	}, logger)

	runCtx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := resyncer.Stop(ctx); err != nil {
			logger.Warn("Resyncer did not stop in time", log.FieldError, err)
		}
	})

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return resyncer.Start(gctx)
	})
	g.Go(func() error {
		err := amqpClient.ConsumeSnapshotChanged(gctx, mirror.HandleSnapshotChanged)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("Mirror worker failed", log.FieldError, err)
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = resyncer.Stop(stopCtx)
		os.Exit(1)
	}

	cli.WaitForShutdown(runCtx, done)
	logger.Info("Mirror worker stopped", "mirrors", mirror.Mirrors())
}
