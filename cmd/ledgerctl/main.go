package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"financeflow/internal/amqp"
	"financeflow/internal/backend"
	"financeflow/internal/cli"
	"financeflow/internal/config"
	"financeflow/internal/log"
	"financeflow/internal/services"
	"financeflow/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	configPath string
	logLevel   string

	app *application
)

// application is the ledger opened for a single command run.
type application struct {
	cfg     *config.Config
	ledger  *services.Ledger
	logger  *log.Logger
	closers []func() error
}

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Inspect and maintain a FinanceFlow ledger",
	Long: `ledgerctl works directly on the durable ledger record used by the
financeflow server: print summaries and budgets, export and import backups,
and reset the ledger to its seed data.`,
	SilenceUsage:      true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return openLedger(cmd.Context()) },
	PersistentPostRun: func(cmd *cobra.Command, args []string) { closeLedger() },
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file layered under the environment (toml, yaml, json, env)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level for diagnostics on stderr")

	rootCmd.AddCommand(summaryCmd, budgetsCmd, exportCmd, importCmd, resetCmd)
}

func openLedger(ctx context.Context) error {
	// A failed RunE skips PersistentPostRun.
	closeLedger()
	cli.LoadEnvFile()

	cfg := config.Load()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadFile(configPath); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Diagnostics go to stderr so stdout stays pipeable.
	logger := log.New(log.Config{Level: log.ParseLevel(logLevel), Component: log.ComponentCLI, Output: os.Stderr})

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return err
	}
	a := &application{cfg: cfg, logger: logger, closers: []func() error{res.Cleanup}}

	st := store.New(ctx, res.Backend, store.WithLogger(logger))
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.WarnContext(ctx, "AMQP unavailable, the sheet mirror will catch up on its next resync", log.FieldError, err)
		} else {
			st.Subscribe(amqp.StoreListener(client, logger))
			a.closers = append(a.closers, client.Close)
		}
	}
	a.ledger = services.NewLedger(st, logger)
	app = a
	return nil
}

func closeLedger() {
	if app == nil {
		return
	}
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.logger.Warn("Close failed", log.FieldError, err)
		}
	}
	app = nil
}
