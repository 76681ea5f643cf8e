package main

import (
	"context"
	"errors"

	"caseledger/internal/amqp"
	"caseledger/internal/cli"
	"caseledger/internal/config"
	"caseledger/internal/log"
	gsheet "caseledger/internal/sheets/google"
	"caseledger/internal/worker"

	"golang.org/x/sync/errgroup"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentWorker)
	logger.Info("Starting caseledger-worker")

	cli.ExitOnError(logger, "Configuration validation failed", cfg.ValidateWorker())

	creds, err := cfg.ServiceAccountCredentials()
	cli.ExitOnError(logger, "Missing Google credentials", err)

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	exporter, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, creds, logger)
	cli.ExitOnError(logger, "Failed to initialize Google Sheets client", err)
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	events, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	cli.ExitOnError(logger, "Failed to initialize AMQP client", err)

	exportWorker := worker.NewExportWorker(repo, exporter, cfg.ExportBatchSize, logger)

	// Catch up on anything missed while the worker was down.
	if err := exportWorker.StartupCheck(ctx); err != nil {
		logger.Error("Startup export check failed", log.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return exportWorker.Run(gctx, cfg.ExportInterval)
	})
	g.Go(func() error {
		return events.Consume(gctx, exportWorker.HandleEvent)
	})

	err = g.Wait()
	cleanupErr := cli.RunCleanup(logger, cli.ShutdownTimeout,
		func(context.Context) error { return events.Close() },
		func(context.Context) error { return repo.Close() },
	)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	cli.ExitOnError(logger, "Worker stopped with error", errors.Join(err, cleanupErr))
	logger.Info("Worker stopped gracefully")
}
