package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"futbot/config"
	"futbot/journal"
)

var tradesConfigPath string

var tradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "List journaled trades",
	Long: `List every trade recorded in the journal database, oldest first.

Example:
  futbot trades --config config.yaml`,
	RunE: runTrades,
}

func init() {
	rootCmd.AddCommand(tradesCmd)
	tradesCmd.Flags().StringVarP(&tradesConfigPath, "config", "f", "config.yaml", "path to config file")
}

func runTrades(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(tradesConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path is not set; nothing to list")
	}

	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	trades, err := j.Trades()
	if err != nil {
		return fmt.Errorf("read trades: %w", err)
	}
	if len(trades) == 0 {
		fmt.Println("No trades recorded.")
		return nil
	}

	for _, t := range trades {
		fmt.Printf("%s  %s %-5s %.4f @ %.2f  stop %.2f target %.2f  opened %s",
			t.TradeID, t.Symbol, t.Direction, t.Quantity, t.EntryPrice,
			t.StopLoss, t.TakeProfit, t.OpenTime.Format("2006-01-02 15:04"))
		if t.CloseTime.IsZero() {
			fmt.Println("  [open]")
			continue
		}
		fmt.Printf("  closed %s @ %.2f PL %.2f (%s)\n",
			t.CloseTime.Format("2006-01-02 15:04"), t.ExitPrice, t.RealizedPL, t.Reason)
	}
	return nil
}
