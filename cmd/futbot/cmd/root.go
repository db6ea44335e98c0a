package cmd

import (
	"github.com/spf13/cobra"

	"futbot/pkg/logger"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "futbot",
	Short: "An automated single-instrument futures trading bot",
	Long: `Futbot samples recent price candles for one futures instrument,
derives technical indicators, and enters risk-bounded long or short
positions with a computed stop-loss/take-profit pair.

It provides tools for:
  - Running the live trading loop against Binance USD-M futures
  - Replaying candle history through the same decision engine
  - Journaling every fill and close to SQLite
  - Telegram trade notifications`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(verbose)
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	defer logger.Sync()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
