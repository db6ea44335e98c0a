package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"futbot/config"
)

var configInitPath string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configInitPath); err == nil {
			return fmt.Errorf("%s already exists, refusing to overwrite", configInitPath)
		}
		if err := config.Default().Save(configInitPath); err != nil {
			return err
		}
		fmt.Printf("Wrote default config to %s\n", configInitPath)
		fmt.Println("Fill in binance.api_key and binance.api_secret before running.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().StringVarP(&configInitPath, "out", "o", "config.yaml", "where to write the config")
}
