// Command stockctl runs stock maintenance tasks against the configured store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/praya-stock/internal/app"
	"github.com/mamadbah2/praya-stock/internal/config"
	"github.com/mamadbah2/praya-stock/pkg/logger"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globals struct {
	envFile string
	timeout time.Duration
}

func rootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:   "stockctl",
		Short: "Maintain the Praya stock ledger",
		Long: `Maintain the Praya stock ledger from the command line.

Examples:
  stockctl report --start 2026-10-01 --end 2026-10-16 --status URGENT
  stockctl reconcile --repair
  stockctl import items barang.xlsx
  stockctl import sales --sheet-range "Penjualan!A:C"
  stockctl alert
`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&g.envFile, "env", "", "Path to an env file (defaults to .env when present)")
	cmd.PersistentFlags().DurationVar(&g.timeout, "timeout", 2*time.Minute, "Overall command timeout")

	cmd.AddCommand(reportCmd(g), reconcileCmd(g), importCmd(g), alertCmd(g))
	return cmd
}

// withApp loads configuration, opens the store and runs fn.
func (g *globals) withApp(fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load(g.envFile)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), g.timeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log.Named("stockctl"))
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			log.Warn("failed to close connections", zap.Error(err))
		}
	}()

	return fn(ctx, a)
}
