package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"futbot/backtest"
	"futbot/config"
)

var (
	backtestConfigPath string
	backtestCSVPath    string
	backtestEquity     float64
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay candle history through the decision engine",
	Long: `Replay a CSV candle file (time,open,high,low,close[,volume])
through the same engine the live loop uses and print summary stats.

Example:
  futbot backtest --config config.yaml --csv btcusdt_15m.csv`,
	RunE: runBacktest,
}

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.Flags().StringVarP(&backtestConfigPath, "config", "f", "config.yaml", "path to config file")
	backtestCmd.Flags().StringVar(&backtestCSVPath, "csv", "", "path to candle CSV file (required)")
	backtestCmd.Flags().Float64Var(&backtestEquity, "equity", 10000, "starting equity")
	backtestCmd.MarkFlagRequired("csv")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(backtestConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	f, err := os.Open(backtestCSVPath)
	if err != nil {
		return fmt.Errorf("open candle file: %w", err)
	}
	defer f.Close()

	candles, err := backtest.ReadCandles(f)
	if err != nil {
		return fmt.Errorf("read candles: %w", err)
	}

	res, err := backtest.Run(candles, backtest.RunConfig{
		Policy:      cfg.RiskPolicy(),
		Indicators:  cfg.IndicatorSettings(),
		Window:      cfg.Trading.WindowSize,
		StartEquity: backtestEquity,
	})
	if err != nil {
		return fmt.Errorf("run backtest: %w", err)
	}

	fmt.Printf("Backtest results (%d candles, %d cycles):\n", len(candles), res.Cycles)
	fmt.Printf("  Trades:      %d (%d wins, %d losses, %.1f%% win rate)\n",
		res.Trades, res.Wins, res.Losses, res.WinRate()*100)
	fmt.Printf("  Gross win:   %.2f\n", res.GrossWin)
	fmt.Printf("  Gross loss:  %.2f\n", res.GrossLoss)
	fmt.Printf("  Net P/L:     %.2f\n", res.NetPL())
	fmt.Printf("  End equity:  %.2f (started %.2f)\n", res.EndEquity, backtestEquity)
	return nil
}
