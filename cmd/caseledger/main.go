package main

import (
	"context"
	"errors"
	"net/http"

	"caseledger/internal/backend"
	"caseledger/internal/cli"
	"caseledger/internal/config"
	apphttp "caseledger/internal/http"
	"caseledger/internal/log"

	"golang.org/x/sync/errgroup"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentApp)

	cli.ExitOnError(logger, "Configuration validation failed", cfg.Validate())

	backendCfg, err := backend.FromAppConfig(cfg)
	cli.ExitOnError(logger, "Invalid backend configuration", err)

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	cli.ExitOnError(logger, "Failed to initialize backend", err)

	srv := apphttp.NewServer(":"+cfg.Port, res.Service, apphttp.Config{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Ready:              res.Ready,
		Logger:             logger,
	})
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting caseledger server",
			"port", cfg.Port,
			"backend", backendCfg.Type,
			"cache", backendCfg.Cache,
			"events", cfg.AMQPURL != "")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return cli.RunCleanup(logger, cli.ShutdownTimeout,
			srv.Shutdown,
			func(context.Context) error { return res.Cleanup() },
		)
	})

	cli.ExitOnError(logger, "Server stopped with error", g.Wait())
	logger.Info("Server stopped gracefully")
}
