package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"spendwise/internal/backend"
	"spendwise/internal/cli"
	apphttp "spendwise/internal/http"
	applog "spendwise/internal/log"
	"spendwise/internal/receipt"
	"spendwise/internal/services"
	"spendwise/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	cfg := cli.MustLoadConfig(logger)

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), time.Minute)
	defer cancelBoot()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger)

	storeRes, err := factory.CreateStore(bootCtx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	cls, err := cli.NewClassifier(cfg.ClassifierRulesFile)
	if err != nil {
		logger.Error("Failed to load classifier", "error", err, "path", cfg.ClassifierRulesFile)
		os.Exit(1)
	}

	publisher, processor := newPublisher(bootCtx, logger, factory, bcfg, cfg.SyncInterval, cfg.SyncBatchSize)

	svc := services.NewExpenseService(storeRes.Store,
		services.WithClassifier(cls),
		services.WithReceiptProcessor(receipt.NewStubProcessor(cfg.ReceiptDelay)),
		services.WithPublisher(publisher),
	)
	if err := svc.Load(bootCtx); err != nil {
		logger.Error("Failed to load expenses", "error", err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CacheTTL:           cfg.CacheTTL,
		Ready:              storeRes.Ready,
	}, svc, cls, logger)

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) error {
		var errs []error
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		if processor != nil {
			if err := processor.Stop(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		if err := svc.Close(); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	})

	if processor != nil {
		if err := processor.Start(ctx); err != nil {
			logger.Error("Failed to start sync processor", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("Starting spendwise server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"broker", cfg.BrokerEnabled(),
		"sheets", cfg.SheetsEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

// newPublisher picks where expense events go: the AMQP broker when one is
// configured, otherwise an in-process processor exporting straight to the
// spreadsheet, otherwise nowhere.
func newPublisher(ctx context.Context, logger *applog.Logger, factory backend.Factory, bcfg backend.Config, interval time.Duration, batch int) (services.Publisher, *services.SyncProcessor) {
	broker, err := factory.CreateBroker(ctx, bcfg)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
	}
	if broker != nil {
		return broker, nil
	}

	exporter, err := factory.CreateExporter(ctx, bcfg)
	if err != nil {
		logger.Warn("Failed to initialize Google Sheets exporter, continuing without export", "error", err)
	}
	if exporter == nil {
		return nil, nil
	}

	processor := services.NewSyncProcessor(worker.NewExportWorker(exporter).HandleEvent, services.SyncProcessorConfig{
		PollInterval: interval,
		BatchSize:    batch,
	})
	logger.Info("Exporting expenses in-process", "poll_interval", interval, "batch_size", batch)
	return processor, processor
}
