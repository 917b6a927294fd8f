package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"spendwise/internal/backend"
	"spendwise/internal/cli"
	"spendwise/internal/storage"
	"spendwise/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	cfg := cli.MustLoadConfig(logger)

	logger.Info("Starting spendwise-worker")

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger)

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), time.Minute)
	defer cancelBoot()

	storeRes, err := factory.CreateStore(bootCtx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer storeRes.Store.Close()

	broker, err := factory.CreateBroker(bootCtx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	if broker != nil {
		defer broker.Close()
	}

	exporter, err := factory.CreateExporter(bootCtx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets exporter", "error", err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)
	g, gctx := errgroup.WithContext(ctx)

	if exporter != nil {
		exportWorker := worker.NewExportWorker(exporter)

		g.Go(func() error {
			logger.Info("Performing startup sync check...")
			expenses, err := storage.LoadExpenses(gctx, storeRes.Store)
			if err != nil {
				logger.Error("Failed to load expenses for startup sync", "error", err)
				return nil
			}
			res, err := exportWorker.StartupSyncCheck(gctx, expenses)
			if err != nil {
				logger.Error("Failed startup sync check", "error", err)
				return nil
			}
			logger.Info("Startup sync check complete",
				"exported", res.Exported,
				"removed", res.Removed,
				"errors", res.Errors)
			return nil
		})

		if broker != nil {
			g.Go(func() error {
				err := broker.ConsumeExpenseEvents(gctx, exportWorker.HandleEvent)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
		} else {
			logger.Info("Skipping AMQP message consumption - no broker configured")
		}
	} else {
		logger.Info("Google Sheets disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	var digestPublisher worker.DigestPublisher
	if broker != nil {
		digestPublisher = broker
	}
	digest := worker.NewDigest(storeRes.Store, digestPublisher, time.Now)
	g.Go(func() error {
		return digest.Schedule(gctx, cfg.DigestSchedule)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
