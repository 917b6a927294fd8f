package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"spendwise/internal/backend"
	"spendwise/internal/cli"
	applog "spendwise/internal/log"
	"spendwise/internal/receipt"
	"spendwise/internal/services"
)

// nowFunc is the clock used for default dates and insights.
var nowFunc = time.Now

func newRootCmd() *cobra.Command {
	var (
		envFile   string
		logLevel  string
		logFormat string
	)

	root := &cobra.Command{
		Use:   "spendctl",
		Short: "Record expenses and read spending insights",
		Long: `spendctl works directly on the configured expense store (DATA_BACKEND).

Expenses added without a category are classified from their description.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if envFile != "" {
				cli.LoadEnvFile(envFile)
			} else {
				cli.LoadEnvFile()
			}
			lvl, err := applog.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			applog.SetDefault(applog.New(applog.Config{
				Level:     lvl,
				Format:    logFormat,
				Component: applog.ComponentCLI,
				Output:    cmd.ErrOrStderr(),
			}))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", "", "environment file to load (default: .env)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	root.AddCommand(addCmd())
	root.AddCommand(listCmd())
	root.AddCommand(deleteCmd())
	root.AddCommand(insightsCmd())
	root.AddCommand(summaryCmd())
	root.AddCommand(trendCmd())
	root.AddCommand(classifyCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openService builds an expense service over the configured store and loads
// the collection. The returned function releases the store.
func openService(ctx context.Context) (*services.ExpenseService, func(), error) {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, nil, err
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	logger := applog.FromContext(ctx)
	factory := backend.NewFactory(logger)
	storeRes, err := factory.CreateStore(ctx, bcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	cls, err := cli.NewClassifier(cfg.ClassifierRulesFile)
	if err != nil {
		_ = storeRes.Store.Close()
		return nil, nil, err
	}

	opts := []services.Option{
		services.WithClassifier(cls),
		services.WithReceiptProcessor(receipt.NewStubProcessor(cfg.ReceiptDelay)),
		services.WithClock(nowFunc),
	}
	broker, err := factory.CreateBroker(ctx, bcfg)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, changes will not be announced", "error", err)
	} else if broker != nil {
		opts = append(opts, services.WithPublisher(broker))
	}

	svc := services.NewExpenseService(storeRes.Store, opts...)
	closeFn := func() {
		if err := svc.Close(); err != nil {
			logger.Error("Failed to close expense service", "error", err)
		}
	}
	if err := svc.Load(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("failed to load expenses: %w", err)
	}
	return svc, closeFn, nil
}
