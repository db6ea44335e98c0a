package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"futbot/broker/binance"
	"futbot/config"
	"futbot/journal"
	"futbot/live"
	"futbot/notify"
)

var runConfigPath string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the live trading loop from a config file",
	Long: `Run the live trading loop against Binance USD-M futures.

One cycle executes per poll interval: fetch the latest candle window,
evaluate the decision engine, and act on at most one trade intent.

Example:
  futbot run --config config.yaml`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "config.yaml", "path to config file")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gateway, err := binance.New(ctx, binance.Config{
		APIKey:    cfg.Binance.APIKey,
		APISecret: cfg.Binance.APISecret,
		Testnet:   cfg.Binance.Testnet,
	}, cfg.Trading.Symbol, cfg.Risk.Leverage)
	if err != nil {
		return fmt.Errorf("connect gateway: %w", err)
	}

	var j journal.Journal = journal.Nop{}
	if cfg.Journal.DBPath != "" {
		sj, err := journal.NewSQLite(cfg.Journal.DBPath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer sj.Close()
		j = sj
	}

	var n notify.Notifier = notify.Nop{}
	if cfg.Telegram.Enabled {
		n = notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	}

	trader := live.New(cfg, gateway, j, n)
	if err := trader.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
